package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
)

// GroupStore implements group.Store on Postgres. Group creation and
// administration live in the surrounding application; this adapter only
// reads what the chat core needs.
type GroupStore struct {
	db *pgxpool.Pool
}

// NewGroupStore creates a new group store.
func NewGroupStore(db *pgxpool.Pool) *GroupStore {
	return &GroupStore{
		db: db,
	}
}

// Exists reports whether the group is known.
func (s *GroupStore) Exists(ctx context.Context, groupID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM groups WHERE id = $1)`

	var exists bool
	if err := s.db.QueryRow(ctx, query, groupID).Scan(&exists); err != nil {
		return false, fmt.Errorf("query error: %w", err)
	}

	return exists, nil
}

// MemberIDs returns the user ids of all current members.
func (s *GroupStore) MemberIDs(ctx context.Context, groupID string) ([]string, error) {
	query := `SELECT user_id FROM group_members WHERE group_id = $1`

	rows, err := s.db.Query(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	defer rows.Close()

	var members []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		members = append(members, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return members, nil
}
