package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Supported database drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config structure represents the application configuration
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Database      DatabaseConfig      `yaml:"database"`
	JWT           JWTConfig           `yaml:"jwt"`
	Logging       LoggingConfig       `yaml:"logging"`
	Notifications NotificationsConfig `yaml:"notifications"`
	SMTP          SMTPConfig          `yaml:"smtp"`
}

// ServerConfig configures the HTTP listener and proof storage
type ServerConfig struct {
	Port        string `yaml:"port" env:"SERVER_PORT"`
	Mode        string `yaml:"mode" env:"SERVER_MODE"`
	StoragePath string `yaml:"storage_path" env:"SERVER_STORAGE_PATH"`
	BaseURL     string `yaml:"base_url" env:"SERVER_BASE_URL"`
}

// DatabaseConfig selects and configures the ledger store
type DatabaseConfig struct {
	Driver          string `yaml:"driver" env:"DB_DRIVER"`
	Host            string `yaml:"host" env:"DB_HOST"`
	Port            string `yaml:"port" env:"DB_PORT"`
	User            string `yaml:"user" env:"DB_USER"`
	Password        string `yaml:"password" env:"DB_PASSWORD"`
	DBName          string `yaml:"dbname" env:"DB_NAME"`
	SSLMode         string `yaml:"sslmode" env:"DB_SSLMODE"`
	SQLitePath      string `yaml:"sqlite_path" env:"DB_SQLITE_PATH"`
	MaxIdleConns    int    `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS"`
	MaxOpenConns    int    `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS"`
	ConnMaxLifetime string `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME"`
	SeedCatalog     bool   `yaml:"seed_catalog" env:"DB_SEED_CATALOG"`
}

// JWTConfig configures identity token verification
type JWTConfig struct {
	Secret                string `yaml:"secret" env:"JWT_SECRET"`
	AccessTokenExpiration string `yaml:"access_token_expiration" env:"JWT_ACCESS_TOKEN_EXPIRATION"`
	Issuer                string `yaml:"issuer" env:"JWT_ISSUER"`
}

// LoggingConfig configures zerolog
type LoggingConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Format string `yaml:"format" env:"LOG_FORMAT"`
}

// NotificationsConfig configures the post-commit event dispatcher
type NotificationsConfig struct {
	QueueSize      int    `yaml:"queue_size" env:"NOTIFY_QUEUE_SIZE"`
	Workers        int    `yaml:"workers" env:"NOTIFY_WORKERS"`
	RetryMaxElapse string `yaml:"retry_max_elapsed" env:"NOTIFY_RETRY_MAX_ELAPSED"`
	EmailEnabled   bool   `yaml:"email_enabled" env:"NOTIFY_EMAIL_ENABLED"`
}

// SMTPConfig configures the email notification sink
type SMTPConfig struct {
	Host            string   `yaml:"host" env:"SMTP_HOST"`
	Port            int      `yaml:"port" env:"SMTP_PORT"`
	Username        string   `yaml:"username" env:"SMTP_USERNAME"`
	Password        string   `yaml:"password" env:"SMTP_PASSWORD"`
	FromName        string   `yaml:"from_name" env:"SMTP_FROM_NAME"`
	FromEmail       string   `yaml:"from_email" env:"SMTP_FROM_EMAIL"`
	UseTLS          bool     `yaml:"use_tls" env:"SMTP_USE_TLS"`
	FacultyAddress  string   `yaml:"faculty_address" env:"SMTP_FACULTY_ADDRESS"`
	AdminRecipients []string `yaml:"admin_recipients" env:"SMTP_ADMIN_RECIPIENTS" envSeparator:","`
}

// LoadConfig loads configuration from a file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}
	setDefaults(config)

	// A missing file is fine; defaults and environment still apply
	if _, err := os.Stat(configPath); err == nil {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(file, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := ParseEnv(config); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults sets default values for the configuration
func setDefaults(config *Config) {
	config.Server.Port = "8080"
	config.Server.Mode = "development"
	config.Server.StoragePath = "uploads"

	config.Database.Driver = DriverSQLite
	config.Database.Host = "localhost"
	config.Database.Port = "5432"
	config.Database.User = "postgres"
	config.Database.Password = "postgres"
	config.Database.DBName = "facultycredits"
	config.Database.SSLMode = "disable"
	config.Database.SQLitePath = "data/credits.db"
	config.Database.MaxIdleConns = 5
	config.Database.MaxOpenConns = 20
	config.Database.ConnMaxLifetime = "1h"
	config.Database.SeedCatalog = true

	config.JWT.AccessTokenExpiration = "1h"
	config.JWT.Issuer = "facultycredits"

	config.Logging.Level = "info"
	config.Logging.Format = "json"

	config.Notifications.QueueSize = 256
	config.Notifications.Workers = 2
	config.Notifications.RetryMaxElapse = "30s"

	config.SMTP.Port = 587
	config.SMTP.FromName = "Faculty Credits"
	config.SMTP.FacultyAddress = "faculty-{id}@example.edu"
}

// validateConfig ensures that the configuration is valid
func validateConfig(config *Config) error {
	switch config.Database.Driver {
	case DriverPostgres:
		if config.Database.Host == "" {
			return errors.New("database host is required")
		}
	case DriverSQLite:
		if strings.TrimSpace(config.Database.SQLitePath) == "" {
			return errors.New("sqlite path is required")
		}
	default:
		return fmt.Errorf("unsupported database driver %q", config.Database.Driver)
	}

	if config.JWT.Secret == "" {
		return errors.New("JWT secret is required")
	}

	if _, err := time.ParseDuration(config.JWT.AccessTokenExpiration); err != nil {
		return fmt.Errorf("invalid JWT access token expiration format: %w", err)
	}

	if _, err := time.ParseDuration(config.Database.ConnMaxLifetime); err != nil {
		return fmt.Errorf("invalid connection max lifetime: %w", err)
	}

	if _, err := time.ParseDuration(config.Notifications.RetryMaxElapse); err != nil {
		return fmt.Errorf("invalid notification retry window: %w", err)
	}

	if config.Notifications.QueueSize <= 0 || config.Notifications.Workers <= 0 {
		return errors.New("notification queue size and workers must be positive")
	}

	return nil
}

// GetPostgresConnectionString returns postgres connection string
func (c *Config) GetPostgresConnectionString() string {
	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
		sslMode,
	)
}

// AccessTokenTTL returns the validated access token lifetime
func (c *Config) AccessTokenTTL() time.Duration {
	ttl, _ := time.ParseDuration(c.JWT.AccessTokenExpiration)
	return ttl
}

// NotificationRetryWindow returns how long a delivery is retried before it is dropped
func (c *Config) NotificationRetryWindow() time.Duration {
	window, _ := time.ParseDuration(c.Notifications.RetryMaxElapse)
	return window
}
