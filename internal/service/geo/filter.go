package geo

import (
	"sort"

	"nearby/internal/domain/geo"
)

// Ranked is a listing entry with its computed distance from the viewer.
type Ranked[T geo.Locatable] struct {
	Item      T       `json:"item"`
	Meters    float64 `json:"meters"`
	Formatted string  `json:"distance"`
}

// FilterByRadius returns the subset of items visible to a viewer at the
// given location with the given discovery radius. The pass is
// order-preserving and keeps:
//
//   - items owned by the viewer, regardless of distance
//   - items with no location attached (location-independent content such
//     as legacy/global posts; a deliberate permissive default)
//   - items within radiusKm of the viewer
//
// A nil viewer location bypasses filtering entirely so the feed still
// shows content when location permission is absent or denied.
func FilterByRadius[T geo.Locatable](viewer *geo.Location, radiusKm float64, items []T, viewerOwnerID string) []T {
	if viewer == nil {
		return items
	}

	maxMeters := radiusKm * 1000

	out := make([]T, 0, len(items))
	for _, item := range items {
		if item.OwnerID() == viewerOwnerID {
			out = append(out, item)
			continue
		}

		loc := item.Coordinate()
		if loc == nil {
			out = append(out, item)
			continue
		}

		if geo.DistanceMeters(*viewer, *loc) <= maxMeters {
			out = append(out, item)
		}
	}

	return out
}

// RankByProximity sorts items by distance from the viewer, nearest first,
// ties broken by input order. The viewer's own entity and entities without
// a location are dropped; unlike the feed filter, a roster entry without a
// position cannot be placed on the map.
func RankByProximity[T geo.Locatable](viewer *geo.Location, items []T, viewerOwnerID string) []Ranked[T] {
	if viewer == nil {
		return nil
	}

	ranked := make([]Ranked[T], 0, len(items))
	for _, item := range items {
		if item.OwnerID() == viewerOwnerID {
			continue
		}

		loc := item.Coordinate()
		if loc == nil {
			continue
		}

		meters := geo.DistanceMeters(*viewer, *loc)
		ranked = append(ranked, Ranked[T]{
			Item:      item,
			Meters:    meters,
			Formatted: geo.FormatDistance(meters),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Meters < ranked[j].Meters
	})

	return ranked
}
