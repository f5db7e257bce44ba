package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/facultycredits/internal/app/models"
	"github.com/yigit/facultycredits/internal/app/repositories"
	"github.com/yigit/facultycredits/internal/pkg/academicyear"
	"github.com/yigit/facultycredits/internal/pkg/apperrors"
	"github.com/yigit/facultycredits/internal/pkg/notification"
)

// SubmitPositiveInput carries a faculty achievement submission
type SubmitPositiveInput struct {
	CreditTitleID int64
	// AcademicYear defaults to the current one when empty.
	AcademicYear string
	// Title is the submission headline, kept in the entry notes.
	Title    string
	ProofRef string
}

// IssueNegativeInput carries an admin remark
type IssueNegativeInput struct {
	FacultyID     int64
	CreditTitleID int64
	// AcademicYear defaults to the current one when empty.
	AcademicYear string
	Notes        string
	ProofRef     string
}

// DecisionInput carries an admin decision on a pending entry
type DecisionInput struct {
	Outcome models.EntryStatus
	Notes   string
}

// FileAppealInput carries a faculty appeal
type FileAppealInput struct {
	Reason   string
	ProofRef string
}

// AppealDecisionInput carries an admin decision on an appeal
type AppealDecisionInput struct {
	Outcome models.AppealStatus
	Notes   string
}

// AppealResult is the outcome of DecideAppeal. Compensation is set when the
// appeal was accepted.
type AppealResult struct {
	Entry        *models.CreditEntry `json:"entry"`
	Compensation *models.CreditEntry `json:"compensation,omitempty"`
}

// MinAppealReasonLength is the minimum number of non-space characters in an appeal reason.
const MinAppealReasonLength = 10

// LedgerService drives credit entries and their appeals through the state machine
type LedgerService interface {
	SubmitPositive(ctx context.Context, actor models.Actor, input SubmitPositiveInput) (*models.CreditEntry, error)
	IssueNegative(ctx context.Context, actor models.Actor, input IssueNegativeInput) (*models.CreditEntry, error)
	Decide(ctx context.Context, actor models.Actor, entryID int64, input DecisionInput) (*models.CreditEntry, error)
	FileAppeal(ctx context.Context, actor models.Actor, entryID int64, input FileAppealInput) (*models.Appeal, error)
	DecideAppeal(ctx context.Context, actor models.Actor, entryID int64, input AppealDecisionInput) (*AppealResult, error)
	GetEntry(ctx context.Context, actor models.Actor, entryID int64) (*models.CreditEntry, error)
	ListEntries(ctx context.Context, actor models.Actor, filter models.EntryFilter) ([]*models.CreditEntry, int64, error)
}

type ledgerServiceImpl struct {
	entries EntryStore
	catalog CatalogService
	opts    Options
	logger  zerolog.Logger
}

// NewLedgerService creates a new ledger service instance
func NewLedgerService(entries EntryStore, catalog CatalogService, opts Options) LedgerService {
	opts = opts.withDefaults()
	return &ledgerServiceImpl{
		entries: entries,
		catalog: catalog,
		opts:    opts,
		logger:  opts.Logger.With().Str("service", "ledger").Logger(),
	}
}

// resolveYear validates label, defaulting an empty one to the current academic year.
func (s *ledgerServiceImpl) resolveYear(label string) (string, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return academicyear.Current(s.opts.Now()), nil
	}
	year, err := academicyear.Parse(label)
	if err != nil {
		return "", apperrors.NewValidationError("%s", err.Error())
	}
	return year.String(), nil
}

// activeTitle loads a title usable for new entries of the given sign.
func (s *ledgerServiceImpl) activeTitle(ctx context.Context, titleID int64, sign models.Sign) (*models.CreditTitle, error) {
	title, err := s.catalog.GetTitle(ctx, titleID)
	if err != nil {
		if errors.Is(err, apperrors.ErrResourceNotFound) {
			return nil, apperrors.NewValidationError("credit title %d does not exist", titleID)
		}
		return nil, err
	}
	if !title.Active {
		return nil, apperrors.NewValidationError("credit title %d is no longer active", titleID)
	}
	if title.Sign != sign {
		return nil, apperrors.NewValidationError("credit title %d is %s, expected %s", titleID, title.Sign, sign)
	}
	return title, nil
}

func (s *ledgerServiceImpl) getEntry(ctx context.Context, entryID int64) (*models.CreditEntry, error) {
	if entryID <= 0 {
		return nil, apperrors.NewValidationError("invalid credit entry id")
	}
	entry, err := s.entries.GetByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperrors.NewResourceNotFoundError(fmt.Sprintf("credit entry %d not found", entryID))
		}
		return nil, fmt.Errorf("error getting credit entry: %w", err)
	}
	return entry, nil
}

// SubmitPositive records a faculty achievement as a pending entry
func (s *ledgerServiceImpl) SubmitPositive(ctx context.Context, actor models.Actor, input SubmitPositiveInput) (*models.CreditEntry, error) {
	if !actor.IsFaculty() {
		return nil, apperrors.NewForbiddenError("only faculty members can submit achievements")
	}
	year, err := s.resolveYear(input.AcademicYear)
	if err != nil {
		return nil, err
	}
	title, err := s.activeTitle(ctx, input.CreditTitleID, models.SignPositive)
	if err != nil {
		return nil, err
	}

	entry := newEntryFromTitle(title, actor.ID, actor.ID, models.KindSubmission, year, s.opts.Now())
	entry.Notes = strings.TrimSpace(input.Title)
	entry.ProofRef = strings.TrimSpace(input.ProofRef)

	if err := s.create(ctx, entry); err != nil {
		return nil, err
	}

	s.opts.Notifier.Publish(notification.ForAdmins(notification.EventEntrySubmitted, entry.ID, entryPayload(entry), entry.CreatedAt))
	return entry, nil
}

// IssueNegative records an admin remark against a faculty member as a pending entry
func (s *ledgerServiceImpl) IssueNegative(ctx context.Context, actor models.Actor, input IssueNegativeInput) (*models.CreditEntry, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.NewForbiddenError("only admins can issue remarks")
	}
	if input.FacultyID <= 0 {
		return nil, apperrors.NewValidationError("invalid faculty id")
	}
	year, err := s.resolveYear(input.AcademicYear)
	if err != nil {
		return nil, err
	}
	title, err := s.activeTitle(ctx, input.CreditTitleID, models.SignNegative)
	if err != nil {
		return nil, err
	}

	entry := newEntryFromTitle(title, input.FacultyID, actor.ID, models.KindRemark, year, s.opts.Now())
	entry.Notes = strings.TrimSpace(input.Notes)
	entry.ProofRef = strings.TrimSpace(input.ProofRef)

	if err := s.create(ctx, entry); err != nil {
		return nil, err
	}

	s.opts.Notifier.Publish(notification.ForUser(notification.EventRemarkIssued, entry.FacultyID, entry.ID, entryPayload(entry), entry.CreatedAt))
	return entry, nil
}

func (s *ledgerServiceImpl) create(ctx context.Context, entry *models.CreditEntry) error {
	id, err := s.entries.Create(ctx, entry)
	if err != nil {
		return fmt.Errorf("error creating credit entry: %w", err)
	}
	entry.ID = id
	s.opts.Metrics.recordCreated(entry.Kind)

	s.logger.Info().
		Int64("entryID", entry.ID).
		Int64("facultyID", entry.FacultyID).
		Int64("actorID", entry.CreatedBy).
		Str("kind", string(entry.Kind)).
		Int64("points", entry.Points).
		Msg("Credit entry created")
	return nil
}

// newEntryFromTitle snapshots title text, points and sign into a new pending entry.
func newEntryFromTitle(title *models.CreditTitle, facultyID, createdBy int64, kind models.EntryKind, year string, now time.Time) *models.CreditEntry {
	return &models.CreditEntry{
		FacultyID:     facultyID,
		CreditTitleID: title.ID,
		TitleSnapshot: title.Title,
		Points:        title.Points,
		Sign:          title.Sign,
		Kind:          kind,
		AcademicYear:  year,
		Status:        models.StatusPending,
		CreatedBy:     createdBy,
		CreatedAt:     now.UTC(),
	}
}

// Decide approves or rejects a pending entry
func (s *ledgerServiceImpl) Decide(ctx context.Context, actor models.Actor, entryID int64, input DecisionInput) (*models.CreditEntry, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.NewForbiddenError("only admins can decide credit entries")
	}
	if input.Outcome != models.StatusApproved && input.Outcome != models.StatusRejected {
		return nil, apperrors.NewValidationError("outcome must be %q or %q", models.StatusApproved, models.StatusRejected)
	}

	entry, err := s.getEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if entry.Status != models.StatusPending {
		return nil, apperrors.NewInvalidStateError(fmt.Sprintf("credit entry %d is %s; only pending entries can be decided", entryID, entry.Status))
	}

	decision := &models.Decision{By: actor.ID, At: s.opts.Now().UTC(), Notes: strings.TrimSpace(input.Notes)}
	transition := &models.EntryTransition{
		EntryID:  entry.ID,
		From:     entry.Status,
		To:       input.Outcome,
		Decision: decision,
	}
	if err := s.apply(ctx, "decide", actor, transition); err != nil {
		return nil, err
	}

	entry.Status = input.Outcome
	entry.DecidedAt = &decision.At
	entry.DecidedBy = &decision.By
	entry.DecisionNotes = decision.Notes

	payload := entryPayload(entry)
	payload["notes"] = entry.DecisionNotes
	s.opts.Notifier.Publish(notification.ForUser(notification.EventEntryDecided, entry.FacultyID, entry.ID, payload, decision.At))
	return entry, nil
}

// apply commits a transition, translating a lost compare-and-swap into a conflict.
func (s *ledgerServiceImpl) apply(ctx context.Context, operation string, actor models.Actor, t *models.EntryTransition) error {
	if !t.From.CanTransitionTo(t.To) {
		return apperrors.NewInvalidStateError(fmt.Sprintf("credit entry cannot move from %s to %s", t.From, t.To))
	}

	if err := s.entries.ApplyTransition(ctx, t); err != nil {
		if errors.Is(err, repositories.ErrStaleState) {
			s.opts.Metrics.recordConflict(operation)
			s.logger.Warn().
				Int64("entryID", t.EntryID).
				Int64("actorID", actor.ID).
				Str("operation", operation).
				Str("expected", string(t.From)).
				Msg("Credit entry changed concurrently")
			return apperrors.NewConflictError("")
		}
		return fmt.Errorf("error applying %s: %w", operation, err)
	}

	s.opts.Metrics.recordTransition(t.From, t.To)
	s.logger.Info().
		Int64("entryID", t.EntryID).
		Int64("actorID", actor.ID).
		Str("from", string(t.From)).
		Str("to", string(t.To)).
		Msg("Credit entry transitioned")
	return nil
}

// GetEntry returns an entry the actor may see
func (s *ledgerServiceImpl) GetEntry(ctx context.Context, actor models.Actor, entryID int64) (*models.CreditEntry, error) {
	entry, err := s.getEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if !actor.CanView(entry.FacultyID) {
		return nil, apperrors.NewForbiddenError("you cannot view this credit entry")
	}
	return entry, nil
}

// ListEntries returns entries matching filter. Faculty members are limited to their own entries.
func (s *ledgerServiceImpl) ListEntries(ctx context.Context, actor models.Actor, filter models.EntryFilter) ([]*models.CreditEntry, int64, error) {
	switch {
	case actor.IsAdmin():
	case actor.IsFaculty():
		if filter.FacultyID != 0 && filter.FacultyID != actor.ID {
			return nil, 0, apperrors.NewForbiddenError("you can only list your own credit entries")
		}
		filter.FacultyID = actor.ID
	default:
		return nil, 0, apperrors.NewForbiddenError("unknown role")
	}

	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, apperrors.NewValidationError("unknown status %q", filter.Status)
	}
	if filter.Sign != "" && !filter.Sign.Valid() {
		return nil, 0, apperrors.NewValidationError("unknown sign %q", filter.Sign)
	}
	if filter.AcademicYear != "" && !academicyear.Valid(filter.AcademicYear) {
		return nil, 0, apperrors.NewValidationError("invalid academic year %q", filter.AcademicYear)
	}
	if filter.Limit < 0 {
		return nil, 0, apperrors.NewValidationError("limit cannot be negative")
	}

	entries, total, err := s.entries.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("error listing credit entries: %w", err)
	}
	return entries, total, nil
}

func entryPayload(entry *models.CreditEntry) map[string]interface{} {
	return map[string]interface{}{
		"title":        entry.TitleSnapshot,
		"points":       entry.Points,
		"status":       string(entry.Status),
		"academicYear": entry.AcademicYear,
	}
}
