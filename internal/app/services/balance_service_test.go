package services

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/facultycredits/internal/app/models"
	"github.com/yigit/facultycredits/internal/pkg/apperrors"
)

func TestBalanceHistoryAndSummary(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	paper := env.title(t, "Journal Paper", 10)
	late := env.title(t, "Late Grade Submission", -5)

	clock := testNow
	env.svc = NewServicesWithStores(env.repos.CreditTitleRepository, env.repos.CreditEntryRepository, Options{
		Notifier: env.notifier,
		Now:      func() time.Time { return clock },
	})

	submit := func(year string, approve bool) {
		entry, err := env.svc.Ledger.SubmitPositive(ctx, faculty, SubmitPositiveInput{CreditTitleID: paper.ID, AcademicYear: year})
		require.NoError(t, err)
		outcome := models.StatusRejected
		if approve {
			outcome = models.StatusApproved
		}
		_, err = env.svc.Ledger.Decide(ctx, admin, entry.ID, DecisionInput{Outcome: outcome})
		require.NoError(t, err)
	}

	clock = time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC)
	submit("2023-2024", true)
	submit("2023-2024", false)
	clock = time.Date(2024, time.September, 1, 0, 0, 0, 0, time.UTC)
	submit("2024-2025", true)
	env.approvedRemark(t, late)
	_, err := env.svc.Ledger.SubmitPositive(ctx, faculty, SubmitPositiveInput{CreditTitleID: paper.ID})
	require.NoError(t, err)

	byMonth, err := env.svc.Balance.History(ctx, faculty, faculty.ID, models.GroupByMonth)
	require.NoError(t, err)
	assert.Equal(t, []models.HistoryBucket{
		{Bucket: "2024-03", TotalPoints: 10},
		{Bucket: "2024-09", TotalPoints: 5},
	}, byMonth)

	byYear, err := env.svc.Balance.History(ctx, admin, faculty.ID, models.GroupByAcademicYear)
	require.NoError(t, err)
	assert.Equal(t, []models.HistoryBucket{
		{Bucket: "2023-2024", TotalPoints: 10},
		{Bucket: "2024-2025", TotalPoints: 5},
	}, byYear)

	summary, err := env.svc.Balance.Summary(ctx, faculty, faculty.ID, "")
	require.NoError(t, err)
	assert.Equal(t, int64(15), summary.Balance)
	assert.Equal(t, map[models.EntryStatus]int64{
		models.StatusApproved: 3,
		models.StatusRejected: 1,
		models.StatusPending:  1,
	}, summary.StatusCounts)

	year, err := env.svc.Balance.Summary(ctx, faculty, faculty.ID, "2024-2025")
	require.NoError(t, err)
	assert.Equal(t, int64(5), year.Balance)
}

func TestBalanceAccess(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.Balance.ComputeBalance(ctx, other, faculty.ID, "")
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	_, err = env.svc.Balance.ComputeBalance(ctx, admin, 0, "")
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = env.svc.Balance.ComputeBalance(ctx, faculty, faculty.ID, "2024")
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = env.svc.Balance.History(ctx, faculty, faculty.ID, "week")
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	balance, err := env.svc.Balance.ComputeBalance(ctx, faculty, faculty.ID, "")
	require.NoError(t, err)
	assert.Zero(t, balance)

	history, err := env.svc.Balance.History(ctx, faculty, faculty.ID, "")
	require.NoError(t, err)
	assert.Empty(t, history)
}

type brokenBalanceStore struct {
	EntryStore
	err error
}

func (s brokenBalanceStore) SumApproved(context.Context, int64, string) (int64, error) {
	return 0, s.err
}

func (s brokenBalanceStore) List(context.Context, models.EntryFilter) ([]*models.CreditEntry, int64, error) {
	return nil, 0, s.err
}

func TestBalanceFailuresAreLogged(t *testing.T) {
	var logs bytes.Buffer
	storeErr := errors.New("database is locked")
	svc := NewBalanceService(brokenBalanceStore{err: storeErr}, Options{Logger: zerolog.New(&logs)})
	ctx := context.Background()

	_, err := svc.ComputeBalance(ctx, faculty, faculty.ID, "2024-2025")
	require.ErrorIs(t, err, storeErr)
	assert.Contains(t, logs.String(), `"service":"balance"`)
	assert.Contains(t, logs.String(), `"academicYear":"2024-2025"`)
	assert.Contains(t, logs.String(), "Failed to compute balance")

	logs.Reset()
	_, err = svc.History(ctx, faculty, faculty.ID, models.GroupByMonth)
	require.ErrorIs(t, err, storeErr)
	assert.Contains(t, logs.String(), "Failed to load balance history")
	assert.Contains(t, logs.String(), "database is locked")
}
