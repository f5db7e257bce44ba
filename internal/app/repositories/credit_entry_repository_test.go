package repositories

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/facultycredits/internal/app/models"
)

func TestCreditEntryRepositoryCreateAndList(t *testing.T) {
	database := newSQLiteTestDatabase(t)
	titles := NewCreditTitleRepository(database)
	entries := NewCreditEntryRepository(database)
	ctx := context.Background()

	paper := seedTitle(t, titles, "Journal Paper", 10)
	late := seedTitle(t, titles, "Late Grade Submission", -5)

	ids := make([]int64, 0, 4)
	for _, e := range []*models.CreditEntry{
		newEntry(paper, 7, models.StatusApproved, "2024-2025"),
		newEntry(late, 7, models.StatusApproved, "2024-2025"),
		newEntry(paper, 7, models.StatusPending, "2023-2024"),
		newEntry(paper, 8, models.StatusApproved, "2024-2025"),
	} {
		id, err := entries.Create(ctx, e)
		require.NoError(t, err)
		ids = append(ids, id)
	}

	got, err := entries.GetByID(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, "Journal Paper", got.TitleSnapshot)
	assert.Equal(t, models.KindSubmission, got.Kind)
	assert.Nil(t, got.Appeal)
	assert.Nil(t, got.DecidedAt)

	list, total, err := entries.List(ctx, models.EntryFilter{FacultyID: 7})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, list, 3)
	assert.Equal(t, ids[0], list[0].ID)
	assert.Equal(t, ids[2], list[2].ID)

	page, total, err := entries.List(ctx, models.EntryFilter{FacultyID: 7, Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, page, 1)
	assert.Equal(t, ids[1], page[0].ID)

	negatives, _, err := entries.List(ctx, models.EntryFilter{Sign: models.SignNegative})
	require.NoError(t, err)
	require.Len(t, negatives, 1)
	assert.Equal(t, int64(-5), negatives[0].Points)

	sum, err := entries.SumApproved(ctx, 7, "")
	require.NoError(t, err)
	assert.Equal(t, int64(5), sum)

	sum, err = entries.SumApproved(ctx, 7, "2023-2024")
	require.NoError(t, err)
	assert.Zero(t, sum)

	sum, err = entries.SumApproved(ctx, 99, "")
	require.NoError(t, err)
	assert.Zero(t, sum)

	counts, err := entries.CountByStatus(ctx, 7, "")
	require.NoError(t, err)
	assert.Equal(t, map[models.EntryStatus]int64{models.StatusApproved: 2, models.StatusPending: 1}, counts)

	_, err = entries.GetByID(ctx, 404)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreditEntryRepositoryApplyTransition(t *testing.T) {
	database := newSQLiteTestDatabase(t)
	titles := NewCreditTitleRepository(database)
	entries := NewCreditEntryRepository(database)
	ctx := context.Background()

	late := seedTitle(t, titles, "Late Grade Submission", -5)
	remark := newEntry(late, 7, models.StatusPending, "2024-2025")
	remark.CreatedBy = 1
	id, err := entries.Create(ctx, remark)
	require.NoError(t, err)

	decidedAt := testNow.Add(time.Hour)
	require.NoError(t, entries.ApplyTransition(ctx, &models.EntryTransition{
		EntryID:  id,
		From:     models.StatusPending,
		To:       models.StatusApproved,
		Decision: &models.Decision{By: 1, At: decidedAt, Notes: "confirmed"},
	}))

	// Replaying the same swap finds the row already moved.
	err = entries.ApplyTransition(ctx, &models.EntryTransition{EntryID: id, From: models.StatusPending, To: models.StatusRejected})
	assert.ErrorIs(t, err, ErrStaleState)

	got, err := entries.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, got.Status)
	require.NotNil(t, got.DecidedAt)
	assert.True(t, got.DecidedAt.Equal(decidedAt))
	require.NotNil(t, got.DecidedBy)
	assert.Equal(t, int64(1), *got.DecidedBy)
	assert.Equal(t, "confirmed", got.DecisionNotes)

	appeal := &models.Appeal{CreditEntryID: id, FacultyID: 7, Reason: "grades were on time", Status: models.AppealPending, CreatedAt: decidedAt}
	require.NoError(t, entries.ApplyTransition(ctx, &models.EntryTransition{
		EntryID:   id,
		From:      models.StatusApproved,
		To:        models.StatusAppealed,
		NewAppeal: appeal,
	}))
	assert.NotZero(t, appeal.ID)

	got, err = entries.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAppealed, got.Status)
	require.NotNil(t, got.Appeal)
	assert.True(t, got.HasPendingAppeal())
	assert.Equal(t, "grades were on time", got.Appeal.Reason)

	reverses := id
	compensation := &models.CreditEntry{
		FacultyID:       7,
		CreditTitleID:   late.ID,
		TitleSnapshot:   late.Title,
		Points:          5,
		Sign:            models.SignPositive,
		Kind:            models.KindCompensation,
		AcademicYear:    "2024-2025",
		Status:          models.StatusApproved,
		CreatedBy:       1,
		CreatedAt:       decidedAt,
		DecidedAt:       &decidedAt,
		DecidedBy:       &reverses,
		ReversesEntryID: &reverses,
	}
	require.NoError(t, entries.ApplyTransition(ctx, &models.EntryTransition{
		EntryID:       id,
		From:          models.StatusAppealed,
		To:            models.StatusAppealAccepted,
		AppealOutcome: &models.AppealDecision{Status: models.AppealAccepted, By: 1, At: decidedAt, Notes: "accepted"},
		Compensation:  compensation,
	}))
	assert.NotZero(t, compensation.ID)

	got, err = entries.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAppealAccepted, got.Status)
	assert.Equal(t, models.AppealAccepted, got.Appeal.Status)
	assert.Equal(t, "accepted", got.Appeal.DecisionNotes)

	comp, err := entries.GetByID(ctx, compensation.ID)
	require.NoError(t, err)
	require.NotNil(t, comp.ReversesEntryID)
	assert.Equal(t, id, *comp.ReversesEntryID)

	// The reversed remark still counts and the compensation cancels it.
	sum, err := entries.SumApproved(ctx, 7, "2024-2025")
	require.NoError(t, err)
	assert.Zero(t, sum)
}

func TestCreditEntryRepositoryApplyTransitionRollsBack(t *testing.T) {
	database := newSQLiteTestDatabase(t)
	titles := NewCreditTitleRepository(database)
	entries := NewCreditEntryRepository(database)
	ctx := context.Background()

	late := seedTitle(t, titles, "Late Grade Submission", -5)
	id, err := entries.Create(ctx, newEntry(late, 7, models.StatusAppealed, "2024-2025"))
	require.NoError(t, err)

	// No pending appeal row exists, so closing it fails and the status swap is undone.
	err = entries.ApplyTransition(ctx, &models.EntryTransition{
		EntryID:       id,
		From:          models.StatusAppealed,
		To:            models.StatusApproved,
		AppealOutcome: &models.AppealDecision{Status: models.AppealRejected, By: 1, At: testNow},
	})
	assert.ErrorIs(t, err, ErrStaleState)

	got, err := entries.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAppealed, got.Status)
}

func TestCreditEntryRepositoryConcurrentTransitions(t *testing.T) {
	database := newSQLiteTestDatabase(t)
	titles := NewCreditTitleRepository(database)
	entries := NewCreditEntryRepository(database)
	ctx := context.Background()

	paper := seedTitle(t, titles, "Journal Paper", 10)
	id, err := entries.Create(ctx, newEntry(paper, 7, models.StatusPending, "2024-2025"))
	require.NoError(t, err)

	targets := []models.EntryStatus{models.StatusApproved, models.StatusRejected}
	errs := make([]error, len(targets))
	var wg sync.WaitGroup
	for i, to := range targets {
		wg.Add(1)
		go func(i int, to models.EntryStatus) {
			defer wg.Done()
			errs[i] = entries.ApplyTransition(ctx, &models.EntryTransition{
				EntryID:  id,
				From:     models.StatusPending,
				To:       to,
				Decision: &models.Decision{By: 1, At: testNow},
			})
		}(i, to)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, ErrStaleState)
	}
	assert.Equal(t, 1, succeeded)
}
