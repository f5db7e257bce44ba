package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/yigit/facultycredits/internal/db"
)

// Repository errors. Services translate them into application error kinds.
var (
	// ErrNotFound is returned when a row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique constraint rejects a write.
	ErrDuplicate = errors.New("duplicate record")
	// ErrStaleState is returned when a compare-and-swap found the row in another state.
	ErrStaleState = errors.New("row changed since it was read")
)

// runner is satisfied by both *sql.DB and *sql.Tx.
type runner interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Repositories holds all the repository instances
type Repositories struct {
	CreditTitleRepository *CreditTitleRepository
	CreditEntryRepository *CreditEntryRepository
}

// NewRepositories initializes all repositories
func NewRepositories(database *db.Database) *Repositories {
	return &Repositories{
		CreditTitleRepository: NewCreditTitleRepository(database),
		CreditEntryRepository: NewCreditEntryRepository(database),
	}
}
