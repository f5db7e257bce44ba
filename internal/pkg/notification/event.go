package notification

import (
	"time"

	"github.com/google/uuid"
)

// EventType names a ledger change worth telling someone about
type EventType string

const (
	EventRemarkIssued   EventType = "remark.issued"
	EventEntrySubmitted EventType = "entry.submitted"
	EventEntryDecided   EventType = "entry.decided"
	EventAppealFiled    EventType = "appeal.filed"
	EventAppealDecided  EventType = "appeal.decided"
)

// Audience selects who receives an event
type Audience string

const (
	// AudienceUser targets the single user in RecipientID.
	AudienceUser Audience = "user"
	// AudienceAdmins targets every administrator.
	AudienceAdmins Audience = "admins"
)

// Event is one post-commit notification. ID is unique per event; consumers
// de-duplicate redeliveries on it, or on EntryID/AppealID plus Type.
type Event struct {
	ID          string                 `json:"id"`
	Type        EventType              `json:"type"`
	Audience    Audience               `json:"audience"`
	RecipientID int64                  `json:"recipientId,omitempty"`
	EntryID     int64                  `json:"entryId"`
	AppealID    int64                  `json:"appealId,omitempty"`
	Payload     map[string]interface{} `json:"payload,omitempty"`
	OccurredAt  time.Time              `json:"occurredAt"`
}

// ForUser builds an event addressed to one user.
func ForUser(eventType EventType, recipientID, entryID int64, payload map[string]interface{}, at time.Time) Event {
	return Event{
		ID:          uuid.NewString(),
		Type:        eventType,
		Audience:    AudienceUser,
		RecipientID: recipientID,
		EntryID:     entryID,
		Payload:     payload,
		OccurredAt:  at.UTC(),
	}
}

// ForAdmins builds an event addressed to all administrators.
func ForAdmins(eventType EventType, entryID int64, payload map[string]interface{}, at time.Time) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		Audience:   AudienceAdmins,
		EntryID:    entryID,
		Payload:    payload,
		OccurredAt: at.UTC(),
	}
}

// WithAppeal sets the appeal id of the event.
func (e Event) WithAppeal(appealID int64) Event {
	e.AppealID = appealID
	return e
}
