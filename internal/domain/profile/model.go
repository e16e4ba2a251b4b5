package profile

import (
	"context"

	"nearby/internal/domain/geo"
)

// DiscoverySettings controls how a user appears to others.
//
// Discoverable=false removes the user from discovery listings but still
// permits location sync. GhostMode=true keeps the user listed while
// suppressing their own location from being shared to others; the user can
// still use location-dependent features themselves.
type DiscoverySettings struct {
	RadiusKm     float64 `json:"radius_km"`
	Discoverable bool    `json:"discoverable"`
	GhostMode    bool    `json:"ghost_mode"`
}

// Profile is the slice of a user profile the discovery and chat layers
// consume. Full profile CRUD lives outside this service.
type Profile struct {
	UserID    string            `json:"user_id"`
	Name      string            `json:"name"`
	PhotoURL  string            `json:"photo_url,omitempty"`
	Settings  DiscoverySettings `json:"settings"`
	Location  *geo.Location     `json:"location,omitempty"`
	PlaceName string            `json:"place_name,omitempty"`
}

// Coordinate implements geo.Locatable.
func (p Profile) Coordinate() *geo.Location { return p.Location }

// OwnerID implements geo.Locatable.
func (p Profile) OwnerID() string { return p.UserID }

// Store supplies profiles from the external profile system.
type Store interface {
	// Get returns one profile, or chat.ErrNotFound-compatible error
	// semantics when the user does not exist.
	Get(ctx context.Context, userID string) (*Profile, error)

	// ListDiscoverable returns every profile with Discoverable=true.
	ListDiscoverable(ctx context.Context) ([]Profile, error)
}
