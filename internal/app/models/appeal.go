package models

import "time"

// AppealStatus is the state of an appeal
type AppealStatus string

const (
	AppealPending  AppealStatus = "pending"
	AppealAccepted AppealStatus = "accepted"
	AppealRejected AppealStatus = "rejected"
)

// IsTerminal reports whether the appeal has been decided.
func (s AppealStatus) IsTerminal() bool {
	return s == AppealAccepted || s == AppealRejected
}

// Appeal is a faculty dispute of an approved negative entry. An entry has at
// most one appeal, and a decided appeal cannot be reopened.
type Appeal struct {
	ID            int64        `json:"id"`
	CreditEntryID int64        `json:"creditEntryId"`
	FacultyID     int64        `json:"facultyId"`
	Reason        string       `json:"reason"`
	ProofRef      string       `json:"proofRef,omitempty"`
	Status        AppealStatus `json:"status"`
	CreatedAt     time.Time    `json:"createdAt"`
	DecidedAt     *time.Time   `json:"decidedAt,omitempty"`
	DecidedBy     *int64       `json:"decidedBy,omitempty"`
	DecisionNotes string       `json:"decisionNotes,omitempty"`
}
