package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/yigit/facultycredits/internal/app/models"
	"github.com/yigit/facultycredits/internal/pkg/academicyear"
	"github.com/yigit/facultycredits/internal/pkg/apperrors"
)

// BalanceService derives balances from committed ledger entries. Nothing is cached.
type BalanceService interface {
	ComputeBalance(ctx context.Context, actor models.Actor, facultyID int64, academicYear string) (int64, error)
	History(ctx context.Context, actor models.Actor, facultyID int64, groupBy models.GroupBy) ([]models.HistoryBucket, error)
	Summary(ctx context.Context, actor models.Actor, facultyID int64, academicYear string) (*models.BalanceSummary, error)
}

type balanceServiceImpl struct {
	entries EntryStore
	logger  zerolog.Logger
}

// NewBalanceService creates a new balance service instance
func NewBalanceService(entries EntryStore, opts Options) BalanceService {
	opts = opts.withDefaults()
	return &balanceServiceImpl{
		entries: entries,
		logger:  opts.Logger.With().Str("service", "balance").Logger(),
	}
}

func checkBalanceAccess(actor models.Actor, facultyID int64, academicYear string) error {
	if facultyID <= 0 {
		return apperrors.NewValidationError("invalid faculty id")
	}
	if !actor.CanView(facultyID) {
		return apperrors.NewForbiddenError("you cannot view this faculty member's credits")
	}
	if academicYear != "" && !academicyear.Valid(academicYear) {
		return apperrors.NewValidationError("invalid academic year %q", academicYear)
	}
	return nil
}

// ComputeBalance sums settled points, optionally within one academic year
func (s *balanceServiceImpl) ComputeBalance(ctx context.Context, actor models.Actor, facultyID int64, academicYear string) (int64, error) {
	if err := checkBalanceAccess(actor, facultyID, academicYear); err != nil {
		return 0, err
	}
	balance, err := s.entries.SumApproved(ctx, facultyID, academicYear)
	if err != nil {
		s.logger.Error().Err(err).Int64("facultyID", facultyID).Str("academicYear", academicYear).Msg("Failed to compute balance")
		return 0, fmt.Errorf("error computing balance: %w", err)
	}
	return balance, nil
}

// History groups settled points by month or academic year, oldest first
func (s *balanceServiceImpl) History(ctx context.Context, actor models.Actor, facultyID int64, groupBy models.GroupBy) ([]models.HistoryBucket, error) {
	if groupBy == "" {
		groupBy = models.GroupByMonth
	}
	if !groupBy.Valid() {
		return nil, apperrors.NewValidationError("groupBy must be %q or %q", models.GroupByMonth, models.GroupByAcademicYear)
	}
	if err := checkBalanceAccess(actor, facultyID, ""); err != nil {
		return nil, err
	}

	// BucketHistory drops entries that do not count toward the balance
	entries, _, err := s.entries.List(ctx, models.EntryFilter{FacultyID: facultyID})
	if err != nil {
		s.logger.Error().Err(err).Int64("facultyID", facultyID).Msg("Failed to load balance history")
		return nil, fmt.Errorf("error loading balance history: %w", err)
	}
	return models.BucketHistory(entries, groupBy), nil
}

// Summary returns the balance together with entry counts per status
func (s *balanceServiceImpl) Summary(ctx context.Context, actor models.Actor, facultyID int64, academicYear string) (*models.BalanceSummary, error) {
	balance, err := s.ComputeBalance(ctx, actor, facultyID, academicYear)
	if err != nil {
		return nil, err
	}
	counts, err := s.entries.CountByStatus(ctx, facultyID, academicYear)
	if err != nil {
		s.logger.Error().Err(err).Int64("facultyID", facultyID).Msg("Failed to count entries by status")
		return nil, fmt.Errorf("error counting entries: %w", err)
	}
	return &models.BalanceSummary{
		FacultyID:    facultyID,
		AcademicYear: academicYear,
		Balance:      balance,
		StatusCounts: counts,
	}, nil
}
