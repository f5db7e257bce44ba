package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/facultycredits/internal/app/models"
	"github.com/yigit/facultycredits/internal/pkg/apperrors"
	"github.com/yigit/facultycredits/internal/pkg/notification"
)

const validReason = "Grades were submitted on time, see registrar log"

func TestAcceptedAppealRestoresBalance(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	paper := env.title(t, "Journal Paper", 10)
	late := env.title(t, "Late Grade Submission", -5)

	positive, err := env.svc.Ledger.SubmitPositive(ctx, faculty, SubmitPositiveInput{CreditTitleID: paper.ID, AcademicYear: "2024-2025"})
	require.NoError(t, err)
	_, err = env.svc.Ledger.Decide(ctx, admin, positive.ID, DecisionInput{Outcome: models.StatusApproved})
	require.NoError(t, err)

	remark := env.approvedRemark(t, late)
	balance, err := env.svc.Balance.ComputeBalance(ctx, faculty, faculty.ID, "")
	require.NoError(t, err)
	assert.Equal(t, int64(5), balance)

	appeal, err := env.svc.Ledger.FileAppeal(ctx, faculty, remark.ID, FileAppealInput{Reason: validReason})
	require.NoError(t, err)
	assert.NotZero(t, appeal.ID)
	assert.Equal(t, models.AppealPending, appeal.Status)

	filed := env.notifier.last()
	assert.Equal(t, notification.EventAppealFiled, filed.Type)
	assert.Equal(t, notification.AudienceAdmins, filed.Audience)
	assert.Equal(t, appeal.ID, filed.AppealID)

	// While appealed the remark no longer counts.
	balance, err = env.svc.Balance.ComputeBalance(ctx, faculty, faculty.ID, "")
	require.NoError(t, err)
	assert.Equal(t, int64(10), balance)

	result, err := env.svc.Ledger.DecideAppeal(ctx, admin, remark.ID, AppealDecisionInput{Outcome: models.AppealAccepted, Notes: "registrar confirmed"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusAppealAccepted, result.Entry.Status)
	assert.Equal(t, models.AppealAccepted, result.Entry.Appeal.Status)
	require.NotNil(t, result.Compensation)
	assert.Equal(t, int64(5), result.Compensation.Points)
	assert.Equal(t, models.SignPositive, result.Compensation.Sign)
	assert.Equal(t, models.KindCompensation, result.Compensation.Kind)
	assert.Equal(t, models.StatusApproved, result.Compensation.Status)
	require.NotNil(t, result.Compensation.ReversesEntryID)
	assert.Equal(t, remark.ID, *result.Compensation.ReversesEntryID)

	decided := env.notifier.last()
	assert.Equal(t, notification.EventAppealDecided, decided.Type)
	assert.Equal(t, faculty.ID, decided.RecipientID)
	assert.Equal(t, "accepted", decided.Payload["outcome"])

	balance, err = env.svc.Balance.ComputeBalance(ctx, faculty, faculty.ID, "2024-2025")
	require.NoError(t, err)
	assert.Equal(t, int64(10), balance)

	// The original stands as an audit record with its points untouched.
	original, err := env.svc.Ledger.GetEntry(ctx, admin, remark.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(-5), original.Points)
	assert.Equal(t, models.StatusAppealAccepted, original.Status)
	assert.True(t, original.Status.IsTerminal())

	// Decided appeals cannot be reopened or redecided.
	_, err = env.svc.Ledger.FileAppeal(ctx, faculty, remark.ID, FileAppealInput{Reason: validReason})
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)
	_, err = env.svc.Ledger.DecideAppeal(ctx, admin, remark.ID, AppealDecisionInput{Outcome: models.AppealRejected})
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)
}

func TestRejectedAppealReturnsEntryToApproved(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	remark := env.approvedRemark(t, env.title(t, "Late Grade Submission", -5))

	_, err := env.svc.Ledger.FileAppeal(ctx, faculty, remark.ID, FileAppealInput{Reason: validReason, ProofRef: "proofs/log.pdf"})
	require.NoError(t, err)

	result, err := env.svc.Ledger.DecideAppeal(ctx, admin, remark.ID, AppealDecisionInput{Outcome: models.AppealRejected, Notes: "log shows late upload"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, result.Entry.Status)
	assert.Equal(t, models.AppealRejected, result.Entry.Appeal.Status)
	assert.Nil(t, result.Compensation)

	stored, err := env.svc.Ledger.GetEntry(ctx, faculty, remark.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, stored.Status)
	require.NotNil(t, stored.Appeal)
	assert.Equal(t, "proofs/log.pdf", stored.Appeal.ProofRef)
	assert.Equal(t, "log shows late upload", stored.Appeal.DecisionNotes)
	// The original decision stays as it was.
	require.NotNil(t, stored.DecidedBy)
	assert.Equal(t, admin.ID, *stored.DecidedBy)

	balance, err := env.svc.Balance.ComputeBalance(ctx, faculty, faculty.ID, "")
	require.NoError(t, err)
	assert.Equal(t, int64(-5), balance)

	_, err = env.svc.Ledger.FileAppeal(ctx, faculty, remark.ID, FileAppealInput{Reason: validReason})
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)
}

func TestFileAppealPreconditions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	paper := env.title(t, "Journal Paper", 10)
	late := env.title(t, "Late Grade Submission", -5)
	remark := env.approvedRemark(t, late)

	positive, err := env.svc.Ledger.SubmitPositive(ctx, faculty, SubmitPositiveInput{CreditTitleID: paper.ID})
	require.NoError(t, err)
	_, err = env.svc.Ledger.Decide(ctx, admin, positive.ID, DecisionInput{Outcome: models.StatusApproved})
	require.NoError(t, err)

	pending, err := env.svc.Ledger.IssueNegative(ctx, admin, IssueNegativeInput{FacultyID: faculty.ID, CreditTitleID: late.ID})
	require.NoError(t, err)

	tests := []struct {
		name    string
		actor   models.Actor
		entryID int64
		reason  string
		kind    error
	}{
		{"short reason", faculty, remark.ID, "  too  short ", apperrors.ErrValidationFailed},
		{"unknown entry", faculty, 999, validReason, apperrors.ErrResourceNotFound},
		{"someone else's entry", other, remark.ID, validReason, apperrors.ErrPermissionDenied},
		{"someone else's entry with short reason", other, remark.ID, "short", apperrors.ErrPermissionDenied},
		{"admin with short reason", admin, remark.ID, "", apperrors.ErrPermissionDenied},
		{"admin cannot appeal", admin, remark.ID, validReason, apperrors.ErrPermissionDenied},
		{"positive entry", faculty, positive.ID, validReason, apperrors.ErrInvalidState},
		{"pending remark", faculty, pending.ID, validReason, apperrors.ErrInvalidState},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.Ledger.FileAppeal(ctx, tt.actor, tt.entryID, FileAppealInput{Reason: tt.reason})
			assert.ErrorIs(t, err, tt.kind)
		})
	}

	_, err = env.svc.Ledger.FileAppeal(ctx, faculty, remark.ID, FileAppealInput{Reason: validReason})
	require.NoError(t, err)

	_, err = env.svc.Ledger.FileAppeal(ctx, faculty, remark.ID, FileAppealInput{Reason: validReason})
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	assert.Equal(t, AppealPendingMessage, apperrors.Message(err))
}

func TestDecideAppealPreconditions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	remark := env.approvedRemark(t, env.title(t, "Late Grade Submission", -5))

	_, err := env.svc.Ledger.DecideAppeal(ctx, admin, remark.ID, AppealDecisionInput{Outcome: models.AppealAccepted})
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)

	_, err = env.svc.Ledger.FileAppeal(ctx, faculty, remark.ID, FileAppealInput{Reason: validReason})
	require.NoError(t, err)

	_, err = env.svc.Ledger.DecideAppeal(ctx, faculty, remark.ID, AppealDecisionInput{Outcome: models.AppealAccepted})
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
	_, err = env.svc.Ledger.DecideAppeal(ctx, admin, remark.ID, AppealDecisionInput{Outcome: models.AppealPending})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
	_, err = env.svc.Ledger.DecideAppeal(ctx, admin, 999, AppealDecisionInput{Outcome: models.AppealAccepted})
	assert.ErrorIs(t, err, apperrors.ErrResourceNotFound)
}

func TestConcurrentAppealDecisionsExactlyOneWins(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	remark := env.approvedRemark(t, env.title(t, "Late Grade Submission", -5))
	_, err := env.svc.Ledger.FileAppeal(ctx, faculty, remark.ID, FileAppealInput{Reason: validReason})
	require.NoError(t, err)

	store := newPausingStore(env.repos.CreditEntryRepository, 2)
	ledger := NewLedgerService(store, env.svc.Catalog, Options{})

	outcomes := []models.AppealStatus{models.AppealAccepted, models.AppealRejected}
	errs := make([]error, len(outcomes))
	var wg sync.WaitGroup
	for i := range outcomes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = ledger.DecideAppeal(ctx, admin, remark.ID, AppealDecisionInput{Outcome: outcomes[i]})
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		assert.ErrorIs(t, err, apperrors.ErrConflict)
	}
	require.Equal(t, 1, wins)

	// Exactly one outcome took effect, so at most one compensation exists.
	stored, err := env.svc.Ledger.GetEntry(ctx, admin, remark.ID)
	require.NoError(t, err)
	compensations, _, err := env.svc.Ledger.ListEntries(ctx, admin, models.EntryFilter{FacultyID: faculty.ID, Sign: models.SignPositive})
	require.NoError(t, err)
	if stored.Status == models.StatusAppealAccepted {
		assert.Len(t, compensations, 1)
	} else {
		assert.Equal(t, models.StatusApproved, stored.Status)
		assert.Empty(t, compensations)
	}
}
