package notification

import (
	"context"
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// LogSink writes every event to the log. It never fails.
type LogSink struct {
	logger zerolog.Logger
}

// NewLogSink creates a LogSink
func NewLogSink(logger zerolog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Deliver(_ context.Context, event Event) error {
	s.logger.Info().
		Str("eventID", event.ID).
		Str("type", string(event.Type)).
		Str("audience", string(event.Audience)).
		Int64("recipientID", event.RecipientID).
		Int64("entryID", event.EntryID).
		Int64("appealID", event.AppealID).
		Msg("Notification")
	return nil
}

// Mailer is the part of the email package the email sink needs.
type Mailer interface {
	SendHTML(to []string, subject, htmlBody string) error
}

// AddressBook resolves who receives email for an event.
type AddressBook struct {
	// FacultyTemplate builds a faculty address; "{id}" is replaced by the user id.
	FacultyTemplate string
	// Admins receive events addressed to the admin audience.
	Admins []string
}

// Recipients returns the addresses event should be mailed to.
func (b AddressBook) Recipients(event Event) []string {
	switch event.Audience {
	case AudienceAdmins:
		return b.Admins
	case AudienceUser:
		if b.FacultyTemplate == "" || event.RecipientID == 0 {
			return nil
		}
		return []string{strings.ReplaceAll(b.FacultyTemplate, "{id}", strconv.FormatInt(event.RecipientID, 10))}
	}
	return nil
}

// EmailSink mails a short HTML summary of each event.
type EmailSink struct {
	mailer Mailer
	book   AddressBook
}

// NewEmailSink creates an EmailSink
func NewEmailSink(mailer Mailer, book AddressBook) *EmailSink {
	return &EmailSink{mailer: mailer, book: book}
}

func (s *EmailSink) Name() string { return "email" }

func (s *EmailSink) Deliver(_ context.Context, event Event) error {
	to := s.book.Recipients(event)
	if len(to) == 0 {
		return nil
	}
	subject, body := renderEmail(event)
	return s.mailer.SendHTML(to, subject, body)
}

var subjects = map[EventType]string{
	EventRemarkIssued:   "A remark was issued on your record",
	EventEntrySubmitted: "New credit submission awaiting review",
	EventEntryDecided:   "Your credit entry was decided",
	EventAppealFiled:    "New appeal awaiting review",
	EventAppealDecided:  "Your appeal was decided",
}

func renderEmail(event Event) (string, string) {
	subject, ok := subjects[event.Type]
	if !ok {
		subject = "Credit ledger update"
	}

	var b strings.Builder
	b.WriteString(`<html><body><div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">`)
	fmt.Fprintf(&b, "<h2>%s</h2>", html.EscapeString(subject))
	fmt.Fprintf(&b, "<p>Entry #%d", event.EntryID)
	if event.AppealID != 0 {
		fmt.Fprintf(&b, ", appeal #%d", event.AppealID)
	}
	b.WriteString("</p>")
	for _, key := range []string{"title", "points", "status", "outcome", "notes"} {
		if v, ok := event.Payload[key]; ok && fmt.Sprint(v) != "" {
			fmt.Fprintf(&b, "<p><strong>%s:</strong> %s</p>", key, html.EscapeString(fmt.Sprint(v)))
		}
	}
	b.WriteString("</div></body></html>")
	return subject, b.String()
}
