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

var entryColumns = []string{
	"e.id", "e.faculty_id", "e.credit_title_id", "e.title_snapshot", "e.points", "e.sign", "e.kind",
	"e.academic_year", "e.proof_ref", "e.notes", "e.status", "e.created_by", "e.created_at",
	"e.decided_at", "e.decided_by", "e.decision_notes", "e.reverses_entry_id",
	"a.id", "a.faculty_id", "a.reason", "a.proof_ref", "a.status", "a.created_at",
	"a.decided_at", "a.decided_by", "a.decision_notes",
}

// CreditEntryRepository handles ledger and appeal database operations
type CreditEntryRepository struct {
	db *sql.DB
	sb squirrel.StatementBuilderType
}

// NewCreditEntryRepository creates a new CreditEntryRepository
func NewCreditEntryRepository(database *db.Database) *CreditEntryRepository {
	return &CreditEntryRepository{
		db: database.SQL,
		sb: squirrel.StatementBuilder.PlaceholderFormat(database.Dialect.Placeholder()),
	}
}

// Create appends an entry to the ledger and returns its id
func (r *CreditEntryRepository) Create(ctx context.Context, entry *models.CreditEntry) (int64, error) {
	return r.insertEntry(ctx, r.db, entry)
}

func (r *CreditEntryRepository) insertEntry(ctx context.Context, run runner, entry *models.CreditEntry) (int64, error) {
	query, args, err := r.sb.Insert("credit_entries").
		Columns("faculty_id", "credit_title_id", "title_snapshot", "points", "sign", "kind",
			"academic_year", "proof_ref", "notes", "status", "created_by", "created_at",
			"decided_at", "decided_by", "decision_notes", "reverses_entry_id").
		Values(entry.FacultyID, entry.CreditTitleID, entry.TitleSnapshot, entry.Points, string(entry.Sign), string(entry.Kind),
			entry.AcademicYear, entry.ProofRef, entry.Notes, string(entry.Status), entry.CreatedBy, helpers.ToMillis(entry.CreatedAt),
			helpers.GetNullMillis(entry.DecidedAt), helpers.GetNullInt64(entry.DecidedBy), entry.DecisionNotes, helpers.GetNullInt64(entry.ReversesEntryID)).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building create credit entry SQL")
		return 0, fmt.Errorf("failed to build create credit entry query: %w", err)
	}

	var id int64
	if err := run.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		logger.Error().Err(err).Int64("facultyID", entry.FacultyID).Msg("Error executing create credit entry query")
		return 0, fmt.Errorf("error creating credit entry: %w", err)
	}
	return id, nil
}

// GetByID retrieves an entry together with its appeal, if any
func (r *CreditEntryRepository) GetByID(ctx context.Context, id int64) (*models.CreditEntry, error) {
	query, args, err := r.selectEntries().
		Where(squirrel.Eq{"e.id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building get credit entry SQL")
		return nil, fmt.Errorf("failed to build get credit entry query: %w", err)
	}

	entry, err := scanEntry(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		logger.Error().Err(err).Int64("entryID", id).Msg("Error scanning credit entry row")
		return nil, fmt.Errorf("error getting credit entry: %w", err)
	}
	return entry, nil
}

// List returns entries matching filter in ascending id order along with the
// total number of matches. A zero Limit returns every match.
func (r *CreditEntryRepository) List(ctx context.Context, filter models.EntryFilter) ([]*models.CreditEntry, int64, error) {
	where := entryConditions(filter)

	countQuery, countArgs, err := r.sb.Select("COUNT(*)").From("credit_entries e").Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count credit entries query: %w", err)
	}
	var total int64
	if err := r.db.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		logger.Error().Err(err).Msg("Error counting credit entries")
		return nil, 0, fmt.Errorf("error counting credit entries: %w", err)
	}

	builder := r.selectEntries().Where(where).OrderBy("e.id ASC")
	if filter.Limit > 0 {
		builder = builder.Limit(uint64(filter.Limit)).Offset(filter.Offset)
	}
	query, args, err := builder.ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building list credit entries SQL")
		return nil, 0, fmt.Errorf("failed to build list credit entries query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list credit entries query")
		return nil, 0, fmt.Errorf("error querying credit entries: %w", err)
	}
	defer rows.Close()

	entries := []*models.CreditEntry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("error scanning credit entry row: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating credit entry rows: %w", err)
	}
	return entries, total, nil
}

// SumApproved returns the balance of a faculty member, optionally restricted
// to one academic year. Only models.BalanceStatuses are summed.
func (r *CreditEntryRepository) SumApproved(ctx context.Context, facultyID int64, academicYear string) (int64, error) {
	where := entryConditions(models.EntryFilter{FacultyID: facultyID, AcademicYear: academicYear})
	where["e.status"] = balanceStatuses()
	query, args, err := r.sb.Select("CAST(COALESCE(SUM(e.points), 0) AS BIGINT)").
		From("credit_entries e").
		Where(where).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build balance query: %w", err)
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		logger.Error().Err(err).Int64("facultyID", facultyID).Msg("Error computing balance")
		return 0, fmt.Errorf("error computing balance: %w", err)
	}
	return total, nil
}

// CountByStatus returns how many entries of a faculty member are in each status.
func (r *CreditEntryRepository) CountByStatus(ctx context.Context, facultyID int64, academicYear string) (map[models.EntryStatus]int64, error) {
	where := entryConditions(models.EntryFilter{FacultyID: facultyID, AcademicYear: academicYear})
	query, args, err := r.sb.Select("e.status", "COUNT(*)").
		From("credit_entries e").
		Where(where).
		GroupBy("e.status").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build status count query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.Error().Err(err).Int64("facultyID", facultyID).Msg("Error counting entries by status")
		return nil, fmt.Errorf("error counting entries by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.EntryStatus]int64)
	for rows.Next() {
		var (
			status string
			count  int64
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("error scanning status count: %w", err)
		}
		counts[models.EntryStatus(status)] = count
	}
	return counts, rows.Err()
}

// ApplyTransition performs t in one transaction. The entry status is swapped
// only if it still equals t.From; otherwise nothing is written and
// ErrStaleState is returned.
func (r *CreditEntryRepository) ApplyTransition(ctx context.Context, t *models.EntryTransition) error {
	return db.WithTransaction(ctx, r.db, func(ctx context.Context, tx *sql.Tx) error {
		if err := r.swapStatus(ctx, tx, t); err != nil {
			return err
		}

		if t.NewAppeal != nil {
			id, err := r.insertAppeal(ctx, tx, t.NewAppeal)
			if err != nil {
				return err
			}
			t.NewAppeal.ID = id
		}

		if t.AppealOutcome != nil {
			if err := r.closeAppeal(ctx, tx, t.EntryID, t.AppealOutcome); err != nil {
				return err
			}
		}

		if t.Compensation != nil {
			id, err := r.insertEntry(ctx, tx, t.Compensation)
			if err != nil {
				return err
			}
			t.Compensation.ID = id
		}
		return nil
	})
}

func (r *CreditEntryRepository) swapStatus(ctx context.Context, tx *sql.Tx, t *models.EntryTransition) error {
	update := r.sb.Update("credit_entries").
		Set("status", string(t.To)).
		Where(squirrel.Eq{"id": t.EntryID, "status": string(t.From)})
	if t.Decision != nil {
		update = update.
			Set("decided_at", helpers.ToMillis(t.Decision.At)).
			Set("decided_by", t.Decision.By).
			Set("decision_notes", t.Decision.Notes)
	}

	query, args, err := update.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build status transition query: %w", err)
	}

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		logger.Error().Err(err).Int64("entryID", t.EntryID).Msg("Error executing status transition")
		return fmt.Errorf("error updating credit entry status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading affected rows: %w", err)
	}
	if affected == 0 {
		return ErrStaleState
	}
	return nil
}

// appealsEntryKey limits every entry to a single appeal
const appealsEntryKey = "appeals_credit_entry_id_key"

func (r *CreditEntryRepository) insertAppeal(ctx context.Context, tx *sql.Tx, appeal *models.Appeal) (int64, error) {
	query, args, err := r.sb.Insert("appeals").
		Columns("credit_entry_id", "faculty_id", "reason", "proof_ref", "status", "created_at").
		Values(appeal.CreditEntryID, appeal.FacultyID, appeal.Reason, appeal.ProofRef, string(appeal.Status), helpers.ToMillis(appeal.CreatedAt)).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build create appeal query: %w", err)
	}

	var id int64
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		if dberrors.IsDuplicateConstraintError(err, appealsEntryKey) {
			return 0, ErrStaleState
		}
		logger.Error().Err(err).Int64("entryID", appeal.CreditEntryID).Msg("Error executing create appeal query")
		return 0, fmt.Errorf("error creating appeal: %w", err)
	}
	return id, nil
}

func (r *CreditEntryRepository) closeAppeal(ctx context.Context, tx *sql.Tx, entryID int64, d *models.AppealDecision) error {
	query, args, err := r.sb.Update("appeals").
		Set("status", string(d.Status)).
		Set("decided_at", helpers.ToMillis(d.At)).
		Set("decided_by", d.By).
		Set("decision_notes", d.Notes).
		Where(squirrel.Eq{"credit_entry_id": entryID, "status": string(models.AppealPending)}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build close appeal query: %w", err)
	}

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		logger.Error().Err(err).Int64("entryID", entryID).Msg("Error executing close appeal query")
		return fmt.Errorf("error closing appeal: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading affected rows: %w", err)
	}
	if affected == 0 {
		return ErrStaleState
	}
	return nil
}

func (r *CreditEntryRepository) selectEntries() squirrel.SelectBuilder {
	return r.sb.Select(entryColumns...).
		From("credit_entries e").
		LeftJoin("appeals a ON a.credit_entry_id = e.id")
}

func balanceStatuses() []string {
	statuses := make([]string, 0, len(models.BalanceStatuses))
	for _, s := range models.BalanceStatuses {
		statuses = append(statuses, string(s))
	}
	return statuses
}

func entryConditions(filter models.EntryFilter) squirrel.Eq {
	where := squirrel.Eq{}
	if filter.FacultyID > 0 {
		where["e.faculty_id"] = filter.FacultyID
	}
	if filter.Status != "" {
		where["e.status"] = string(filter.Status)
	}
	if filter.AcademicYear != "" {
		where["e.academic_year"] = filter.AcademicYear
	}
	if filter.Sign != "" {
		where["e.sign"] = string(filter.Sign)
	}
	return where
}

func scanEntry(row rowScanner) (*models.CreditEntry, error) {
	var (
		e                                 models.CreditEntry
		sign, kind, status                string
		createdAt                         int64
		decidedAt, decidedBy, reverses    sql.NullInt64
		appealID, appealFaculty, appealAt sql.NullInt64
		appealDecidedAt, appealDecidedBy  sql.NullInt64
		appealReason, appealProof         sql.NullString
		appealStatus, appealNotes         sql.NullString
	)
	err := row.Scan(
		&e.ID, &e.FacultyID, &e.CreditTitleID, &e.TitleSnapshot, &e.Points, &sign, &kind,
		&e.AcademicYear, &e.ProofRef, &e.Notes, &status, &e.CreatedBy, &createdAt,
		&decidedAt, &decidedBy, &e.DecisionNotes, &reverses,
		&appealID, &appealFaculty, &appealReason, &appealProof, &appealStatus, &appealAt,
		&appealDecidedAt, &appealDecidedBy, &appealNotes,
	)
	if err != nil {
		return nil, err
	}

	e.Sign = models.Sign(sign)
	e.Kind = models.EntryKind(kind)
	e.Status = models.EntryStatus(status)
	e.CreatedAt = helpers.FromMillis(createdAt)
	e.DecidedAt = helpers.TimePtr(decidedAt)
	e.DecidedBy = helpers.Int64Ptr(decidedBy)
	e.ReversesEntryID = helpers.Int64Ptr(reverses)

	if appealID.Valid {
		e.Appeal = &models.Appeal{
			ID:            appealID.Int64,
			CreditEntryID: e.ID,
			FacultyID:     appealFaculty.Int64,
			Reason:        appealReason.String,
			ProofRef:      appealProof.String,
			Status:        models.AppealStatus(appealStatus.String),
			CreatedAt:     helpers.FromMillis(appealAt.Int64),
			DecidedAt:     helpers.TimePtr(appealDecidedAt),
			DecidedBy:     helpers.Int64Ptr(appealDecidedBy),
			DecisionNotes: appealNotes.String,
		}
	}
	return &e, nil
}
