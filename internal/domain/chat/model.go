package chat

import (
	"context"
	"time"
)

// Message is a single chat message. Exactly one of ToUserID or GroupID is
// set; that discriminates one-to-one from group delivery. Messages are
// immutable after creation.
type Message struct {
	ID          string    `json:"id"`
	FromUserID  string    `json:"from_user_id"`
	ToUserID    string    `json:"to_user_id,omitempty"`
	GroupID     string    `json:"group_id,omitempty"`
	Text        string    `json:"text"`
	AuthorName  string    `json:"author_name,omitempty"`
	AuthorPhoto string    `json:"author_photo,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// IsGroup reports whether the message targets a group rather than a user.
func (m Message) IsGroup() bool {
	return m.GroupID != ""
}

// Conversation is an inbox entry: one chat partner, the most recent
// message exchanged with them, and how many of their messages are unread.
type Conversation struct {
	PartnerID   string    `json:"partner_id"`
	LastText    string    `json:"last_text"`
	LastFromID  string    `json:"last_from_id"`
	LastAt      time.Time `json:"last_at"`
	UnreadCount int       `json:"unread_count"`
}

// SendInput is the request to send a message.
type SendInput struct {
	FromUserID string
	ToUserID   string
	GroupID    string
	Text       string
}

// Store persists messages and per-conversation read state.
type Store interface {
	// CreateMessage persists a message whose ID and CreatedAt are
	// already assigned by the dispatcher.
	CreateMessage(ctx context.Context, msg Message) error

	// History returns the one-to-one history between two users, oldest
	// first.
	History(ctx context.Context, userA, userB string, limit int) ([]Message, error)

	// GroupHistory returns a group's history, oldest first.
	GroupHistory(ctx context.Context, groupID string, limit int) ([]Message, error)

	// Inbox returns conversation summaries for a user, most recent
	// first.
	Inbox(ctx context.Context, userID string) ([]Conversation, error)

	// UnreadCount returns the total number of unread one-to-one
	// messages addressed to the user.
	UnreadCount(ctx context.Context, userID string) (int, error)

	// MarkRead records that the user has read the conversation with the
	// partner up to the given instant.
	MarkRead(ctx context.Context, userID, partnerID string, at time.Time) error
}

// Dispatcher validates, persists and delivers messages.
type Dispatcher interface {
	Send(ctx context.Context, in SendInput) (*Message, error)
	MarkRead(ctx context.Context, userID, partnerID string) error
	History(ctx context.Context, userA, userB string, limit int) ([]Message, error)
	GroupHistory(ctx context.Context, groupID string, limit int) ([]Message, error)
	Inbox(ctx context.Context, userID string) ([]Conversation, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
}
