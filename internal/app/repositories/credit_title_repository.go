package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/yigit/facultycredits/internal/app/models"
	"github.com/yigit/facultycredits/internal/db"
	"github.com/yigit/facultycredits/internal/pkg/dberrors"
	"github.com/yigit/facultycredits/internal/pkg/helpers"
	"github.com/yigit/facultycredits/internal/pkg/logger"
)

var titleColumns = []string{"id", "title", "points", "sign", "description", "active", "created_at"}

// CreditTitleRepository handles catalog database operations
type CreditTitleRepository struct {
	db *sql.DB
	sb squirrel.StatementBuilderType
}

// NewCreditTitleRepository creates a new CreditTitleRepository
func NewCreditTitleRepository(database *db.Database) *CreditTitleRepository {
	return &CreditTitleRepository{
		db: database.SQL,
		sb: squirrel.StatementBuilder.PlaceholderFormat(database.Dialect.Placeholder()),
	}
}

// Create inserts a catalog title and returns its id. A second active title
// with the same case-insensitive name yields ErrDuplicate.
func (r *CreditTitleRepository) Create(ctx context.Context, title *models.CreditTitle) (int64, error) {
	query, args, err := r.sb.Insert("credit_titles").
		Columns("title", "points", "sign", "description", "active", "created_at").
		Values(title.Title, title.Points, string(title.Sign), title.Description, title.Active, helpers.ToMillis(title.CreatedAt)).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building create credit title SQL")
		return 0, fmt.Errorf("failed to build create credit title query: %w", err)
	}

	var id int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		if dberrors.IsUniqueViolation(err) {
			return 0, ErrDuplicate
		}
		logger.Error().Err(err).Str("title", title.Title).Msg("Error executing create credit title query")
		return 0, fmt.Errorf("error creating credit title: %w", err)
	}
	return id, nil
}

// GetByID retrieves a catalog title by id
func (r *CreditTitleRepository) GetByID(ctx context.Context, id int64) (*models.CreditTitle, error) {
	query, args, err := r.sb.Select(titleColumns...).
		From("credit_titles").
		Where(squirrel.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building get credit title SQL")
		return nil, fmt.Errorf("failed to build get credit title query: %w", err)
	}

	title, err := scanTitle(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		logger.Error().Err(err).Int64("creditTitleID", id).Msg("Error scanning credit title row")
		return nil, fmt.Errorf("error getting credit title: %w", err)
	}
	return title, nil
}

// ExistsActiveByTitle reports whether an active title with the same
// case-insensitive name exists.
func (r *CreditTitleRepository) ExistsActiveByTitle(ctx context.Context, name string) (bool, error) {
	query, args, err := r.sb.Select("COUNT(*)").
		From("credit_titles").
		Where(squirrel.Eq{"active": true}).
		Where(squirrel.Expr("lower(title) = lower(?)", name)).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build credit title existence query: %w", err)
	}

	var count int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		logger.Error().Err(err).Str("title", name).Msg("Error checking credit title existence")
		return false, fmt.Errorf("error checking credit title existence: %w", err)
	}
	return count > 0, nil
}

// Deactivate clears the active flag. Deactivating an inactive title succeeds.
func (r *CreditTitleRepository) Deactivate(ctx context.Context, id int64) error {
	query, args, err := r.sb.Update("credit_titles").
		Set("active", false).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build deactivate credit title query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		logger.Error().Err(err).Int64("creditTitleID", id).Msg("Error executing deactivate credit title query")
		return fmt.Errorf("error deactivating credit title: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading affected rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns titles in insertion order
func (r *CreditTitleRepository) List(ctx context.Context, filter models.TitleFilter) ([]*models.CreditTitle, error) {
	builder := r.sb.Select(titleColumns...).From("credit_titles").OrderBy("id ASC")
	if filter.Sign != "" {
		builder = builder.Where(squirrel.Eq{"sign": string(filter.Sign)})
	}
	if filter.ActiveOnly {
		builder = builder.Where(squirrel.Eq{"active": true})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building list credit titles SQL")
		return nil, fmt.Errorf("failed to build list credit titles query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list credit titles query")
		return nil, fmt.Errorf("error querying credit titles: %w", err)
	}
	defer rows.Close()

	titles := []*models.CreditTitle{}
	for rows.Next() {
		title, err := scanTitle(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning credit title row: %w", err)
		}
		titles = append(titles, title)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating credit title rows: %w", err)
	}
	return titles, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTitle(row rowScanner) (*models.CreditTitle, error) {
	var (
		title     models.CreditTitle
		sign      string
		createdAt int64
	)
	if err := row.Scan(&title.ID, &title.Title, &title.Points, &sign, &title.Description, &title.Active, &createdAt); err != nil {
		return nil, err
	}
	title.Sign = models.Sign(sign)
	title.CreatedAt = helpers.FromMillis(createdAt)
	return &title, nil
}
