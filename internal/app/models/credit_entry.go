package models

import "time"

// EntryStatus is the lifecycle state of a credit entry
type EntryStatus string

const (
	StatusPending        EntryStatus = "pending"
	StatusApproved       EntryStatus = "approved"
	StatusRejected       EntryStatus = "rejected"
	StatusAppealed       EntryStatus = "appealed"
	StatusAppealAccepted EntryStatus = "appeal_accepted"
)

// entryTransitions lists the legal successor states of each status.
var entryTransitions = map[EntryStatus][]EntryStatus{
	StatusPending:  {StatusApproved, StatusRejected},
	StatusApproved: {StatusAppealed},
	StatusAppealed: {StatusAppealAccepted, StatusApproved},
}

// Valid reports whether s is a known status.
func (s EntryStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusAppealed, StatusAppealAccepted:
		return true
	}
	return false
}

// CanTransitionTo reports whether the state machine allows s -> next.
func (s EntryStatus) CanTransitionTo(next EntryStatus) bool {
	for _, candidate := range entryTransitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether a decision has been reached. Only pending and
// appealed entries are still waiting on an admin.
func (s EntryStatus) IsTerminal() bool {
	return s != StatusPending && s != StatusAppealed
}

// BalanceStatuses are the settled statuses whose points make up a balance.
// An accepted appeal keeps the original's points and cancels them with an
// approved compensation entry.
var BalanceStatuses = []EntryStatus{StatusApproved, StatusAppealAccepted}

// CountsTowardBalance reports whether entries in status s are summed into a balance.
func (s EntryStatus) CountsTowardBalance() bool {
	return s == StatusApproved || s == StatusAppealAccepted
}

// EntryKind tells how an entry entered the ledger
type EntryKind string

const (
	// KindSubmission is a faculty submitted achievement.
	KindSubmission EntryKind = "submission"
	// KindRemark is an admin issued negative remark.
	KindRemark EntryKind = "remark"
	// KindCompensation reverses an entry whose appeal was accepted.
	KindCompensation EntryKind = "compensation"
)

// CreditEntry is one row of ledger history. Title text and points are copied
// from the catalog at creation and never change afterwards.
type CreditEntry struct {
	ID              int64       `json:"id"`
	FacultyID       int64       `json:"facultyId"`
	CreditTitleID   int64       `json:"creditTitleId"`
	TitleSnapshot   string      `json:"title"`
	Points          int64       `json:"points"`
	Sign            Sign        `json:"sign"`
	Kind            EntryKind   `json:"kind"`
	AcademicYear    string      `json:"academicYear"`
	ProofRef        string      `json:"proofRef,omitempty"`
	Notes           string      `json:"notes,omitempty"`
	Status          EntryStatus `json:"status"`
	CreatedBy       int64       `json:"createdBy"`
	CreatedAt       time.Time   `json:"createdAt"`
	DecidedAt       *time.Time  `json:"decidedAt,omitempty"`
	DecidedBy       *int64      `json:"decidedBy,omitempty"`
	DecisionNotes   string      `json:"decisionNotes,omitempty"`
	ReversesEntryID *int64      `json:"reversesEntryId,omitempty"`
	Appeal          *Appeal     `json:"appeal,omitempty"`
}

// HasPendingAppeal reports whether the entry carries a non-terminal appeal.
func (e *CreditEntry) HasPendingAppeal() bool {
	return e.Appeal != nil && e.Appeal.Status == AppealPending
}

// EntryFilter narrows ledger listings. Zero values are ignored.
type EntryFilter struct {
	FacultyID    int64
	Status       EntryStatus
	AcademicYear string
	Sign         Sign
	Limit        int
	Offset       uint64
}

// Decision records who moved a pending entry to its outcome.
type Decision struct {
	By    int64
	At    time.Time
	Notes string
}

// AppealDecision records the outcome of an appeal.
type AppealDecision struct {
	Status AppealStatus
	By     int64
	At     time.Time
	Notes  string
}

// EntryTransition describes one atomic compare-and-swap on an entry's status
// together with the records that must be written alongside it.
type EntryTransition struct {
	EntryID int64
	From    EntryStatus
	To      EntryStatus

	// Decision is set on pending -> approved/rejected.
	Decision *Decision
	// NewAppeal is inserted on approved -> appealed. Its ID is filled in.
	NewAppeal *Appeal
	// AppealOutcome closes the pending appeal on appealed -> approved/appeal_accepted.
	AppealOutcome *AppealDecision
	// Compensation is appended on appealed -> appeal_accepted. Its ID is filled in.
	Compensation *CreditEntry
}
