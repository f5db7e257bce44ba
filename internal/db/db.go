package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/yigit/facultycredits/internal/config"
	"github.com/yigit/facultycredits/internal/pkg/logger"
)

// Dialect identifies the SQL flavour behind a Database
type Dialect string

const (
	DialectPostgres Dialect = config.DriverPostgres
	DialectSQLite   Dialect = config.DriverSQLite
)

// Placeholder returns the squirrel placeholder format of the dialect.
func (d Dialect) Placeholder() squirrel.PlaceholderFormat {
	if d == DialectPostgres {
		return squirrel.Dollar
	}
	return squirrel.Question
}

// Database is an open ledger database of either dialect.
type Database struct {
	SQL     *sql.DB
	Dialect Dialect
	pg      *PostgresDB
}

// Open connects to the database selected by cfg.Database.Driver.
func Open(cfg *config.Config) (*Database, error) {
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		pg, err := NewPostgresDB(cfg)
		if err != nil {
			return nil, err
		}
		return &Database{SQL: pg.SQL(), Dialect: DialectPostgres, pg: pg}, nil
	case config.DriverSQLite:
		sqlDB, err := OpenSQLite(cfg.Database.SQLitePath)
		if err != nil {
			return nil, err
		}
		return &Database{SQL: sqlDB, Dialect: DialectSQLite}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
}

// OpenPostgresURL connects to Postgres using a full connection URL.
func OpenPostgresURL(ctx context.Context, url string) (*Database, error) {
	pg, err := newPostgresPool(ctx, url, config.DatabaseConfig{})
	if err != nil {
		return nil, err
	}
	return &Database{SQL: pg.SQL(), Dialect: DialectPostgres, pg: pg}, nil
}

// NewSQLiteDatabase wraps an already opened SQLite handle.
func NewSQLiteDatabase(sqlDB *sql.DB) *Database {
	return &Database{SQL: sqlDB, Dialect: DialectSQLite}
}

// Close releases the database handle and, for Postgres, the pool.
func (d *Database) Close() error {
	err := d.SQL.Close()
	if d.pg != nil {
		d.pg.Close()
	}
	return err
}

// TransactionFn is a function that executes within a transaction
type TransactionFn func(ctx context.Context, tx *sql.Tx) error

// WithTransaction runs fn within a transaction, committing when it returns nil.
func WithTransaction(ctx context.Context, sqlDB *sql.DB, fn TransactionFn) error {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
	}

	tx, err := sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(ctx, tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error().Err(rbErr).Msg("Failed to rollback transaction")
			return fmt.Errorf("%w (rollback error: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
