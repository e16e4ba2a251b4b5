package geo

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"nearby/internal/domain/geo"
	"nearby/internal/domain/post"
	"nearby/internal/domain/profile"
)

// DiscoveryConfig contains configuration for the discovery service.
type DiscoveryConfig struct {
	DefaultRadiusKm float64
	MinRadiusKm     float64
	MaxRadiusKm     float64
	FeedLimit       int
}

// Person is one roster entry: a profile plus its distance from the viewer.
// Distance fields are empty when the viewer has no usable location.
type Person struct {
	Profile   profile.Profile `json:"profile"`
	Meters    *float64        `json:"meters,omitempty"`
	Formatted string          `json:"distance,omitempty"`
}

// FeedItem is one feed entry. Distance fields are empty when either side
// of the pair has no usable location.
type FeedItem struct {
	Post      post.Post `json:"post"`
	Meters    *float64  `json:"meters,omitempty"`
	Formatted string    `json:"distance,omitempty"`
}

// DiscoveryService builds the proximity-filtered feed and the
// nearest-sorted people roster.
type DiscoveryService struct {
	profiles profile.Store
	posts    post.Store
	config   DiscoveryConfig
	log      zerolog.Logger
}

// NewDiscoveryService creates a new discovery service.
func NewDiscoveryService(profiles profile.Store, posts post.Store, config DiscoveryConfig, log zerolog.Logger) *DiscoveryService {
	return &DiscoveryService{
		profiles: profiles,
		posts:    posts,
		config:   config,
		log:      log.With().Str("component", "discovery").Logger(),
	}
}

// viewerContext resolves the viewer's effective location and radius.
// An explicit client location wins over the last synced one; the radius
// comes from the viewer's discovery settings, clamped to the service
// bounds.
func (s *DiscoveryService) viewerContext(ctx context.Context, viewerID string, clientLoc *geo.Location) (*geo.Location, float64, error) {
	p, err := s.profiles.Get(ctx, viewerID)
	if err != nil {
		return nil, 0, fmt.Errorf("load viewer profile: %w", err)
	}

	loc := clientLoc
	if loc == nil {
		loc = p.Location
	}
	if loc != nil && !loc.Valid() {
		loc = nil
	}

	radius := p.Settings.RadiusKm
	if radius <= 0 {
		radius = s.config.DefaultRadiusKm
	}
	if radius < s.config.MinRadiusKm {
		radius = s.config.MinRadiusKm
	}
	if radius > s.config.MaxRadiusKm {
		radius = s.config.MaxRadiusKm
	}

	return loc, radius, nil
}

// NearbyFeed returns recent posts filtered by the viewer's discovery
// radius, each decorated with its distance from the viewer. With no usable
// viewer location the feed is returned unfiltered and undecorated.
func (s *DiscoveryService) NearbyFeed(ctx context.Context, viewerID string, clientLoc *geo.Location) ([]FeedItem, error) {
	loc, radius, err := s.viewerContext(ctx, viewerID, clientLoc)
	if err != nil {
		return nil, err
	}

	posts, err := s.posts.ListRecent(ctx, viewerID, s.config.FeedLimit)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	if loc == nil {
		s.log.Debug().Str("viewer", viewerID).Msg("no viewer location, feed unfiltered")
		items := make([]FeedItem, 0, len(posts))
		for _, p := range posts {
			items = append(items, FeedItem{Post: p})
		}
		return items, nil
	}

	visible := FilterByRadius(loc, radius, posts, viewerID)

	items := make([]FeedItem, 0, len(visible))
	for _, p := range visible {
		item := FeedItem{Post: p}
		if p.Location != nil {
			meters := geo.DistanceMeters(*loc, *p.Location)
			item.Meters = &meters
			item.Formatted = geo.FormatDistance(meters)
		}
		items = append(items, item)
	}

	return items, nil
}

// NearbyPeople returns discoverable profiles sorted nearest first.
// Ghost-mode users keep their location to themselves, so they carry no
// position and are left off the ranked roster. With no usable viewer
// location the roster is returned unranked in store order.
func (s *DiscoveryService) NearbyPeople(ctx context.Context, viewerID string, clientLoc *geo.Location) ([]Person, error) {
	loc, radius, err := s.viewerContext(ctx, viewerID, clientLoc)
	if err != nil {
		return nil, err
	}

	profiles, err := s.profiles.ListDiscoverable(ctx)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}

	for i := range profiles {
		if profiles[i].Settings.GhostMode && profiles[i].UserID != viewerID {
			profiles[i].Location = nil
			profiles[i].PlaceName = ""
		}
	}

	if loc == nil {
		s.log.Debug().Str("viewer", viewerID).Msg("no viewer location, roster unranked")
		people := make([]Person, 0, len(profiles))
		for _, p := range profiles {
			if p.UserID == viewerID {
				continue
			}
			people = append(people, Person{Profile: p})
		}
		return people, nil
	}

	within := FilterByRadius(loc, radius, profiles, viewerID)
	ranked := RankByProximity(loc, within, viewerID)

	people := make([]Person, 0, len(ranked))
	for _, r := range ranked {
		meters := r.Meters
		people = append(people, Person{
			Profile:   r.Item,
			Meters:    &meters,
			Formatted: r.Formatted,
		})
	}

	return people, nil
}
