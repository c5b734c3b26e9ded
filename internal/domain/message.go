package domain

import "time"

type MessageType string

const (
	MessageHighlight  MessageType = "highlight"
	MessageDecision   MessageType = "decision"
	MessageActionItem MessageType = "action_item"
	MessageNote       MessageType = "note"
)

func (t MessageType) Valid() bool {
	switch t {
	case MessageHighlight, MessageDecision, MessageActionItem, MessageNote:
		return true
	}
	return false
}

// Message is a note pinned to a meeting.
type Message struct {
	ID        string      `db:"id" json:"id"`
	MeetingID string      `db:"meeting_id" json:"meeting_id"`
	Content   string      `db:"content" json:"content"`
	Type      MessageType `db:"type" json:"type"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt time.Time   `db:"updated_at" json:"updated_at"`
}
