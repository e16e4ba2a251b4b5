package group

import (
	"context"
	"time"

	"nearby/internal/domain/geo"
)

// Group is a meetup chat group. Creation and administration happen in the
// surrounding application; the core only reads membership for fan-out and
// history access.
type Group struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	OwnerUser string        `json:"owner_user_id"`
	Location  *geo.Location `json:"location,omitempty"`
	PlaceName string        `json:"place_name,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

// Coordinate implements geo.Locatable.
func (g Group) Coordinate() *geo.Location { return g.Location }

// OwnerID implements geo.Locatable.
func (g Group) OwnerID() string { return g.OwnerUser }

// Store reads groups and their membership.
type Store interface {
	// Exists reports whether the group is known.
	Exists(ctx context.Context, groupID string) (bool, error)

	// MemberIDs returns the user ids of all current members.
	MemberIDs(ctx context.Context, groupID string) ([]string, error)
}
