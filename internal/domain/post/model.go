package post

import (
	"context"
	"time"

	"nearby/internal/domain/geo"
)

// Post is a feed entry. Post CRUD is owned by the surrounding application;
// the core reads posts to build the proximity-filtered feed.
type Post struct {
	ID        string        `json:"id"`
	UserID    string        `json:"user_id"`
	Text      string        `json:"text"`
	ImageURL  string        `json:"image_url,omitempty"`
	Location  *geo.Location `json:"location,omitempty"`
	PlaceName string        `json:"place_name,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

// Coordinate implements geo.Locatable.
func (p Post) Coordinate() *geo.Location { return p.Location }

// OwnerID implements geo.Locatable.
func (p Post) OwnerID() string { return p.UserID }

// Store reads posts for the feed.
type Store interface {
	// ListRecent returns the newest posts first, as seen by the given
	// viewer: locations of ghost-mode authors other than the viewer are
	// suppressed.
	ListRecent(ctx context.Context, viewerID string, limit int) ([]Post, error)
}
