package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/yigit/facultycredits/internal/app/models"
	"github.com/yigit/facultycredits/internal/pkg/apperrors"
	"github.com/yigit/facultycredits/internal/pkg/notification"
	"github.com/yigit/facultycredits/internal/pkg/validation"
)

// AppealPendingMessage is returned when an entry already carries an undecided appeal.
const AppealPendingMessage = "Appeal already pending"

// FileAppeal disputes an approved negative entry. The entry moves to appealed
// and the appeal record is created in the same transaction.
func (s *ledgerServiceImpl) FileAppeal(ctx context.Context, actor models.Actor, entryID int64, input FileAppealInput) (*models.Appeal, error) {
	entry, err := s.getEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if !actor.Owns(entry.FacultyID) {
		return nil, apperrors.NewForbiddenError("only the faculty member the entry belongs to can appeal it")
	}
	reason := strings.TrimSpace(input.Reason)
	if validation.CountNonSpace(reason) < MinAppealReasonLength {
		return nil, apperrors.NewValidationError("appeal reason must contain at least %d non-space characters", MinAppealReasonLength)
	}
	if entry.Sign != models.SignNegative {
		return nil, apperrors.NewInvalidStateError("only negative entries can be appealed")
	}
	if entry.HasPendingAppeal() {
		return nil, apperrors.NewConflictError(AppealPendingMessage)
	}
	if entry.Appeal != nil {
		return nil, apperrors.NewInvalidStateError("this entry has already been appealed")
	}
	if entry.Status != models.StatusApproved {
		return nil, apperrors.NewInvalidStateError(fmt.Sprintf("credit entry %d is %s; only approved remarks can be appealed", entryID, entry.Status))
	}

	appeal := &models.Appeal{
		CreditEntryID: entry.ID,
		FacultyID:     entry.FacultyID,
		Reason:        reason,
		ProofRef:      strings.TrimSpace(input.ProofRef),
		Status:        models.AppealPending,
		CreatedAt:     s.opts.Now().UTC(),
	}
	transition := &models.EntryTransition{
		EntryID:   entry.ID,
		From:      entry.Status,
		To:        models.StatusAppealed,
		NewAppeal: appeal,
	}
	if err := s.apply(ctx, "file_appeal", actor, transition); err != nil {
		return nil, err
	}

	payload := entryPayload(entry)
	payload["status"] = string(models.StatusAppealed)
	payload["facultyId"] = entry.FacultyID
	s.opts.Notifier.Publish(notification.ForAdmins(notification.EventAppealFiled, entry.ID, payload, appeal.CreatedAt).WithAppeal(appeal.ID))
	return appeal, nil
}

// DecideAppeal closes the pending appeal of an entry. Accepting it appends a
// compensating entry cancelling the original points and retires the original;
// rejecting it returns the entry to approved.
func (s *ledgerServiceImpl) DecideAppeal(ctx context.Context, actor models.Actor, entryID int64, input AppealDecisionInput) (*AppealResult, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.NewForbiddenError("only admins can decide appeals")
	}
	if input.Outcome != models.AppealAccepted && input.Outcome != models.AppealRejected {
		return nil, apperrors.NewValidationError("outcome must be %q or %q", models.AppealAccepted, models.AppealRejected)
	}

	entry, err := s.getEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if entry.Status != models.StatusAppealed || !entry.HasPendingAppeal() {
		return nil, apperrors.NewInvalidStateError(fmt.Sprintf("credit entry %d has no pending appeal", entryID))
	}

	now := s.opts.Now().UTC()
	outcome := &models.AppealDecision{Status: input.Outcome, By: actor.ID, At: now, Notes: strings.TrimSpace(input.Notes)}
	transition := &models.EntryTransition{
		EntryID:       entry.ID,
		From:          entry.Status,
		To:            models.StatusApproved,
		AppealOutcome: outcome,
	}
	if input.Outcome == models.AppealAccepted {
		transition.To = models.StatusAppealAccepted
		transition.Compensation = compensationFor(entry, actor.ID, now)
	}
	if err := s.apply(ctx, "decide_appeal", actor, transition); err != nil {
		return nil, err
	}

	entry.Status = transition.To
	entry.Appeal.Status = outcome.Status
	entry.Appeal.DecidedAt = &outcome.At
	entry.Appeal.DecidedBy = &outcome.By
	entry.Appeal.DecisionNotes = outcome.Notes
	if transition.Compensation != nil {
		s.opts.Metrics.recordCreated(models.KindCompensation)
	}

	payload := entryPayload(entry)
	payload["outcome"] = string(outcome.Status)
	payload["notes"] = outcome.Notes
	s.opts.Notifier.Publish(notification.ForUser(notification.EventAppealDecided, entry.FacultyID, entry.ID, payload, now).WithAppeal(entry.Appeal.ID))

	return &AppealResult{Entry: entry, Compensation: transition.Compensation}, nil
}

// compensationFor builds the approved entry that cancels original's points.
func compensationFor(original *models.CreditEntry, adminID int64, now time.Time) *models.CreditEntry {
	points := original.Points
	if points < 0 {
		points = -points
	}
	reverses := original.ID
	decidedBy := adminID
	decidedAt := now
	return &models.CreditEntry{
		FacultyID:       original.FacultyID,
		CreditTitleID:   original.CreditTitleID,
		TitleSnapshot:   original.TitleSnapshot,
		Points:          points,
		Sign:            models.SignPositive,
		Kind:            models.KindCompensation,
		AcademicYear:    original.AcademicYear,
		Notes:           fmt.Sprintf("Reverses entry %d after accepted appeal", original.ID),
		Status:          models.StatusApproved,
		CreatedBy:       adminID,
		CreatedAt:       now,
		DecidedAt:       &decidedAt,
		DecidedBy:       &decidedBy,
		ReversesEntryID: &reverses,
	}
}
