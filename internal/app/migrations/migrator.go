package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/rs/zerolog"
	"github.com/yigit/facultycredits/internal/db"
)

//go:embed postgres/*.sql sqlite/*.sql
var files embed.FS

// Migrator applies the embedded schema for one dialect
type Migrator struct {
	db      *sql.DB
	dialect db.Dialect
	sb      squirrel.StatementBuilderType
	logger  zerolog.Logger
}

// NewMigrator creates a new migrator
func NewMigrator(database *db.Database, logger zerolog.Logger) *Migrator {
	return &Migrator{
		db:      database.SQL,
		dialect: database.Dialect,
		sb:      squirrel.StatementBuilder.PlaceholderFormat(database.Dialect.Placeholder()),
		logger:  logger,
	}
}

// ensureMigrationTableExists creates the migration tracking table if it doesn't exist
func (m *Migrator) ensureMigrationTableExists(ctx context.Context) error {
	_, err := m.db.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version    VARCHAR(255) PRIMARY KEY,
		applied_at BIGINT NOT NULL
	);`)
	if err != nil {
		return fmt.Errorf("failed to create migration tracking table: %w", err)
	}
	return nil
}

// isMigrationApplied checks if a specific migration has already been applied
func (m *Migrator) isMigrationApplied(ctx context.Context, version string) (bool, error) {
	query, args, err := m.sb.Select("COUNT(*)").From("schema_migrations").Where(squirrel.Eq{"version": version}).ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build migration status query: %w", err)
	}
	var count int
	if err := m.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check migration status: %w", err)
	}
	return count > 0, nil
}

// Pending returns the versions that have not been applied yet.
func (m *Migrator) Pending(ctx context.Context) ([]string, error) {
	if err := m.ensureMigrationTableExists(ctx); err != nil {
		return nil, err
	}
	names, err := m.files()
	if err != nil {
		return nil, err
	}
	var pending []string
	for _, name := range names {
		applied, err := m.isMigrationApplied(ctx, versionOf(name))
		if err != nil {
			return nil, err
		}
		if !applied {
			pending = append(pending, versionOf(name))
		}
	}
	return pending, nil
}

// Migrate applies every embedded migration of the dialect in file name order.
// Each file runs in its own transaction together with its bookkeeping row.
func (m *Migrator) Migrate(ctx context.Context) error {
	if err := m.ensureMigrationTableExists(ctx); err != nil {
		return err
	}

	names, err := m.files()
	if err != nil {
		return err
	}

	for _, name := range names {
		if err := m.apply(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

func (m *Migrator) apply(ctx context.Context, name string) error {
	version := versionOf(name)

	applied, err := m.isMigrationApplied(ctx, version)
	if err != nil {
		return err
	}
	if applied {
		m.logger.Debug().Str("version", version).Msg("Migration already applied, skipping")
		return nil
	}

	content, err := fs.ReadFile(files, path.Join(string(m.dialect), name))
	if err != nil {
		return fmt.Errorf("failed to read migration file: %w", err)
	}

	record, args, err := m.sb.Insert("schema_migrations").
		Columns("version", "applied_at").
		Values(version, time.Now().UTC().UnixMilli()).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build migration record: %w", err)
	}

	err = db.WithTransaction(ctx, m.db, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("error occurred during SQL migration %s: %w", name, err)
		}
		if _, err := tx.ExecContext(ctx, record, args...); err != nil {
			return fmt.Errorf("failed to record migration %s: %w", name, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	m.logger.Info().Str("version", version).Str("dialect", string(m.dialect)).Msg("Migration applied")
	return nil
}

func (m *Migrator) files() ([]string, error) {
	entries, err := fs.ReadDir(files, string(m.dialect))
	if err != nil {
		return nil, fmt.Errorf("failed to read migration directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// versionOf extracts the version prefix, e.g. "001_init.sql" => "001".
func versionOf(name string) string {
	return strings.SplitN(name, "_", 2)[0]
}
