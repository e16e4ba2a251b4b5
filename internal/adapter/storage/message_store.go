package storage

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"nearby/internal/domain/chat"
)

// MessageStore implements chat.Store on Postgres.
type MessageStore struct {
	db *pgxpool.Pool
}

// NewMessageStore creates a new message store.
func NewMessageStore(db *pgxpool.Pool) *MessageStore {
	return &MessageStore{
		db: db,
	}
}

// CreateMessage persists a message. The id and creation time are assigned
// by the dispatcher and stored as given.
func (s *MessageStore) CreateMessage(ctx context.Context, msg chat.Message) error {
	query := `
		INSERT INTO messages (
			id, from_user_id, to_user_id, group_id,
			text, author_name, author_photo, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	var toUser, groupID *string
	if msg.ToUserID != "" {
		toUser = &msg.ToUserID
	}
	if msg.GroupID != "" {
		groupID = &msg.GroupID
	}

	_, err := s.db.Exec(
		ctx,
		query,
		msg.ID,
		msg.FromUserID,
		toUser,
		groupID,
		msg.Text,
		msg.AuthorName,
		msg.AuthorPhoto,
		msg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("error executing query: %w", err)
	}

	return nil
}

// History returns the one-to-one history between two users, oldest first.
func (s *MessageStore) History(ctx context.Context, userA, userB string, limit int) ([]chat.Message, error) {
	query := `
		SELECT id, from_user_id, to_user_id, group_id,
		       text, author_name, author_photo, created_at
		FROM (
			SELECT *
			FROM messages
			WHERE group_id IS NULL
			  AND ((from_user_id = $1 AND to_user_id = $2)
			    OR (from_user_id = $2 AND to_user_id = $1))
			ORDER BY created_at DESC
			LIMIT $3
		) recent
		ORDER BY created_at ASC
	`

	rows, err := s.db.Query(ctx, query, userA, userB, limit)
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

// GroupHistory returns a group's history, oldest first.
func (s *MessageStore) GroupHistory(ctx context.Context, groupID string, limit int) ([]chat.Message, error) {
	query := `
		SELECT id, from_user_id, to_user_id, group_id,
		       text, author_name, author_photo, created_at
		FROM (
			SELECT *
			FROM messages
			WHERE group_id = $1
			ORDER BY created_at DESC
			LIMIT $2
		) recent
		ORDER BY created_at ASC
	`

	rows, err := s.db.Query(ctx, query, groupID, limit)
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

// Inbox returns conversation summaries for a user, most recent first.
func (s *MessageStore) Inbox(ctx context.Context, userID string) ([]chat.Conversation, error) {
	lastQuery := `
		SELECT DISTINCT ON (partner_id)
			partner_id, text, from_user_id, created_at
		FROM (
			SELECT CASE WHEN from_user_id = $1 THEN to_user_id
			            ELSE from_user_id END AS partner_id,
			       text, from_user_id, created_at
			FROM messages
			WHERE group_id IS NULL
			  AND (from_user_id = $1 OR to_user_id = $1)
		) convo
		ORDER BY partner_id, created_at DESC
	`

	rows, err := s.db.Query(ctx, lastQuery, userID)
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	defer rows.Close()

	var conversations []chat.Conversation
	for rows.Next() {
		var c chat.Conversation
		if err := rows.Scan(&c.PartnerID, &c.LastText, &c.LastFromID, &c.LastAt); err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		conversations = append(conversations, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	unread, err := s.unreadByPartner(ctx, userID)
	if err != nil {
		return nil, err
	}

	for i := range conversations {
		conversations[i].UnreadCount = unread[conversations[i].PartnerID]
	}

	sort.SliceStable(conversations, func(i, j int) bool {
		return conversations[i].LastAt.After(conversations[j].LastAt)
	})

	return conversations, nil
}

// unreadByPartner counts unread messages per chat partner: everything
// addressed to the user and newer than the partner's read watermark.
func (s *MessageStore) unreadByPartner(ctx context.Context, userID string) (map[string]int, error) {
	query := `
		SELECT m.from_user_id, COUNT(*)
		FROM messages m
		LEFT JOIN chat_read_state r
		       ON r.user_id = $1 AND r.partner_id = m.from_user_id
		WHERE m.to_user_id = $1
		  AND m.group_id IS NULL
		  AND (r.last_read_at IS NULL OR m.created_at > r.last_read_at)
		GROUP BY m.from_user_id
	`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	defer rows.Close()

	unread := make(map[string]int)
	for rows.Next() {
		var partnerID string
		var count int
		if err := rows.Scan(&partnerID, &count); err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		unread[partnerID] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return unread, nil
}

// UnreadCount returns the user's total unread one-to-one message count.
func (s *MessageStore) UnreadCount(ctx context.Context, userID string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM messages m
		LEFT JOIN chat_read_state r
		       ON r.user_id = $1 AND r.partner_id = m.from_user_id
		WHERE m.to_user_id = $1
		  AND m.group_id IS NULL
		  AND (r.last_read_at IS NULL OR m.created_at > r.last_read_at)
	`

	var count int
	if err := s.db.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("query error: %w", err)
	}

	return count, nil
}

// MarkRead upserts the read watermark for one conversation.
func (s *MessageStore) MarkRead(ctx context.Context, userID, partnerID string, at time.Time) error {
	query := `
		INSERT INTO chat_read_state (user_id, partner_id, last_read_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, partner_id) DO UPDATE
		SET last_read_at = $3
	`

	if _, err := s.db.Exec(ctx, query, userID, partnerID, at); err != nil {
		return fmt.Errorf("error executing query: %w", err)
	}

	return nil
}

// rowScanner matches pgx.Rows for the columns scanMessages reads.
type rowScanner interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

func scanMessages(rows rowScanner) ([]chat.Message, error) {
	var messages []chat.Message
	for rows.Next() {
		var m chat.Message
		var toUser, groupID *string

		if err := rows.Scan(
			&m.ID,
			&m.FromUserID,
			&toUser,
			&groupID,
			&m.Text,
			&m.AuthorName,
			&m.AuthorPhoto,
			&m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}

		if toUser != nil {
			m.ToUserID = *toUser
		}
		if groupID != nil {
			m.GroupID = *groupID
		}

		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return messages, nil
}
