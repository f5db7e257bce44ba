package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	appControllers "github.com/yigit/facultycredits/internal/app/controllers"
	appMigrations "github.com/yigit/facultycredits/internal/app/migrations"
	appRepos "github.com/yigit/facultycredits/internal/app/repositories"
	appRoutes "github.com/yigit/facultycredits/internal/app/routes"
	appServices "github.com/yigit/facultycredits/internal/app/services"
	"github.com/yigit/facultycredits/internal/config"
	"github.com/yigit/facultycredits/internal/db"
	appMiddleware "github.com/yigit/facultycredits/internal/middleware"
	"github.com/yigit/facultycredits/internal/pkg/advisor"
	pkgAuth "github.com/yigit/facultycredits/internal/pkg/auth"
	"github.com/yigit/facultycredits/internal/pkg/email"
	"github.com/yigit/facultycredits/internal/pkg/filestorage"
	"github.com/yigit/facultycredits/internal/pkg/logger"
	"github.com/yigit/facultycredits/internal/pkg/notification"
	"github.com/yigit/facultycredits/internal/pkg/validation"
	"github.com/yigit/facultycredits/internal/pkg/websocket"
	"github.com/yigit/facultycredits/internal/seed"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	Repos    *appRepos.Repositories
	Services *appServices.Services

	Registry   *prometheus.Registry
	Hub        *websocket.Hub
	Dispatcher *notification.Dispatcher
	JWTService *pkgAuth.JWTService
	Storage    *filestorage.LocalStorage

	AuthMiddleware *appMiddleware.AuthMiddleware
	Controllers    appRoutes.Controllers
	WSHandler      *websocket.Handler

	Logger zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger(configPath string) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Str("path", configPath).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	lgr := logger.FromSettings(cfg.Logging.Level, cfg.Logging.Format)
	lgr.Info().Str("logLevel", strings.ToLower(cfg.Logging.Level)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// OpenDatabase establishes the database connection and runs migrations.
func OpenDatabase(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*db.Database, error) {
	lgr.Info().Str("driver", cfg.Database.Driver).Msg("Establishing database connection...")
	database, err := db.Open(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	lgr.Info().Msg("Database connection successfully established.")

	lgr.Info().Msg("Running database migrations...")
	if err := appMigrations.NewMigrator(database, lgr).Migrate(ctx); err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		_ = database.Close()
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Msg("Database migrations successfully applied.")

	return database, nil
}

// SetupDatabase opens and migrates the database, then seeds the default
// catalog when enabled.
func SetupDatabase(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*db.Database, error) {
	database, err := OpenDatabase(ctx, cfg, lgr)
	if err != nil {
		return nil, err
	}

	if cfg.Database.SeedCatalog {
		titles := appRepos.NewCreditTitleRepository(database)
		if _, err := seed.CreateDefaultCatalog(ctx, titles, time.Now(), lgr); err != nil {
			// Log the error but don't fail the startup
			lgr.Error().Err(err).Msg("Failed to create default catalog, proceeding anyway...")
		}
	}

	return database, nil
}

// NewJWTService builds the token service from the jwt section of cfg.
func NewJWTService(cfg *config.Config) *pkgAuth.JWTService {
	return pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:      cfg.JWT.Secret,
		AccessTokenExp: cfg.AccessTokenTTL(),
		TokenIssuer:    cfg.JWT.Issuer,
	})
}

// BuildDependencies initializes repositories, services, notification
// delivery and controllers.
func BuildDependencies(cfg *config.Config, database *db.Database, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}

	if err := validation.RegisterRules(); err != nil {
		return nil, fmt.Errorf("failed to register validation rules: %w", err)
	}

	deps.Registry = prometheus.NewRegistry()
	deps.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	notifyMetrics, err := notification.NewMetrics(deps.Registry)
	if err != nil {
		return nil, fmt.Errorf("failed to register notification metrics: %w", err)
	}
	ledgerMetrics, err := appServices.NewLedgerMetrics(deps.Registry)
	if err != nil {
		return nil, fmt.Errorf("failed to register ledger metrics: %w", err)
	}

	// Notification delivery
	deps.Hub = websocket.NewHub(logger.Component("websocket"))
	sinks := []notification.Sink{
		notification.NewLogSink(logger.Component("notifications")),
		deps.Hub,
	}
	if cfg.Notifications.EmailEnabled {
		mailer := email.NewSMTPMailer(email.SMTPConfig{
			Host:      cfg.SMTP.Host,
			Port:      cfg.SMTP.Port,
			Username:  cfg.SMTP.Username,
			Password:  cfg.SMTP.Password,
			FromName:  cfg.SMTP.FromName,
			FromEmail: cfg.SMTP.FromEmail,
			UseTLS:    cfg.SMTP.UseTLS,
		}, logger.Component("email"))
		if mailer.Configured() {
			sinks = append(sinks, notification.NewEmailSink(mailer, notification.AddressBook{
				FacultyTemplate: cfg.SMTP.FacultyAddress,
				Admins:          cfg.SMTP.AdminRecipients,
			}))
		} else {
			lgr.Warn().Msg("Email notifications enabled but SMTP credentials are missing; email sink disabled")
		}
	}
	deps.Dispatcher = notification.NewDispatcher(notification.Config{
		QueueSize:       cfg.Notifications.QueueSize,
		Workers:         cfg.Notifications.Workers,
		RetryMaxElapsed: cfg.NotificationRetryWindow(),
	}, lgr, sinks, notification.WithMetrics(notifyMetrics))

	// Ledger
	deps.Repos = appRepos.NewRepositories(database)
	deps.Services = appServices.NewServices(deps.Repos, appServices.Options{
		Logger:   lgr,
		Notifier: deps.Dispatcher,
		Metrics:  ledgerMetrics,
	})

	deps.Storage, err = filestorage.NewLocalStorage(cfg.Server.StoragePath, filestorage.DefaultMaxProofSize, logger.Component("filestorage"))
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to initialize file storage")
		return nil, fmt.Errorf("failed to initialize file storage: %w", err)
	}

	deps.JWTService = NewJWTService(cfg)
	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService)

	deps.Controllers = appRoutes.Controllers{
		CreditTitle: appControllers.NewCreditTitleController(deps.Services.Catalog),
		CreditEntry: appControllers.NewCreditEntryController(deps.Services.Ledger),
		Balance:     appControllers.NewBalanceController(deps.Services.Balance, nil),
		Support: appControllers.NewSupportController(
			deps.Storage,
			advisor.NewCatalogMatcher(deps.Services.Catalog),
		),
	}
	deps.WSHandler = websocket.NewHandler(deps.Hub, appMiddleware.ActorFromContext, logger.Component("websocket"))

	return deps, nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if strings.ToLower(cfg.Server.Mode) == "production" {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	router := gin.New()
	router.Use(
		appMiddleware.RequestID(),
		appMiddleware.RequestLogger(logger.Component("http")),
		gin.Recovery(),
	)

	appRoutes.SetupRouter(router, deps.Controllers, deps.AuthMiddleware, deps.WSHandler)

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})))

	// Test endpoint
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong", "status": "success"})
	})

	return router
}
