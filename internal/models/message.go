package models

import (
	"time"

	"github.com/lib/pq"
)

// MessageStatus is the lifecycle state of a message.
type MessageStatus string

const (
	StatusSent            MessageStatus = "sent"
	StatusDraft           MessageStatus = "draft"
	StatusDeletedEveryone MessageStatus = "deleted_everyone"
)

// Valid reports whether s is one of the known statuses.
func (s MessageStatus) Valid() bool {
	switch s {
	case StatusSent, StatusDraft, StatusDeletedEveryone:
		return true
	}
	return false
}

// RedactedText replaces the body of deleted-for-everyone messages in
// every API response, for every viewer.
const RedactedText = "Message deleted"

// Message is a stored message. Addressing is exactly one of: global
// (no recipient, no group), private (recipient set), or group
// (group_id set), decided at creation and immutable.
type Message struct {
	ID         int            `db:"id" json:"id"`
	Sender     string         `db:"sender" json:"sender"`
	SenderID   *int           `db:"sender_id" json:"sender_id,omitempty"`
	Body       string         `db:"body" json:"text"`
	Status     MessageStatus  `db:"status" json:"status"`
	Starred    bool           `db:"starred" json:"starred"`
	DeletedFor pq.StringArray `db:"deleted_for" json:"deleted_for"`
	Recipient  *string        `db:"recipient" json:"recipient,omitempty"`
	GroupID    *int           `db:"group_id" json:"group_id,omitempty"`
	CreatedAt  time.Time      `db:"created_at" json:"timestamp"`
}

// DisplayBody returns the body as it may be rendered: deleted-for-everyone
// messages never expose their original text.
func (m Message) DisplayBody() string {
	if m.Status == StatusDeletedEveryone {
		return RedactedText
	}
	return m.Body
}

// DeletedForViewer reports whether the viewer soft-deleted this message
// from their own view.
func (m Message) DeletedForViewer(viewer string) bool {
	for _, handle := range m.DeletedFor {
		if handle == viewer {
			return true
		}
	}
	return false
}
