package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nearby/internal/domain/geo"
)

type item struct {
	id    string
	owner string
	loc   *geo.Location
}

func (i item) Coordinate() *geo.Location { return i.loc }
func (i item) OwnerID() string           { return i.owner }

func loc(lat, lng float64) *geo.Location {
	return &geo.Location{Latitude: lat, Longitude: lng}
}

func ids(items []item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.id)
	}
	return out
}

func TestFilterByRadius_RetentionRules(t *testing.T) {
	viewer := loc(0, 0)
	items := []item{
		{id: "own-far", owner: "me", loc: loc(10, 10)},
		{id: "no-location", owner: "other", loc: nil},
		{id: "near", owner: "other", loc: loc(0, 0.01)},
		{id: "far", owner: "other", loc: loc(0, 1)},
	}

	got := FilterByRadius(viewer, 5, items, "me")
	assert.Equal(t, []string{"own-far", "no-location", "near"}, ids(got))
}

func TestFilterByRadius_ZeroRadius(t *testing.T) {
	viewer := loc(0, 0)
	items := []item{
		{id: "own", owner: "me", loc: loc(0, 0.001)},
		{id: "no-location", owner: "other", loc: nil},
		{id: "very-close", owner: "other", loc: loc(0, 0.0001)},
	}

	// Radius 0 keeps only self-owned and location-less items
	got := FilterByRadius(viewer, 0, items, "me")
	assert.Equal(t, []string{"own", "no-location"}, ids(got))
}

func TestFilterByRadius_NilViewerBypasses(t *testing.T) {
	items := []item{
		{id: "a", owner: "x", loc: loc(80, 170)},
		{id: "b", owner: "y", loc: nil},
	}

	got := FilterByRadius(nil, 1, items, "me")
	assert.Equal(t, items, got)
}

func TestFilterByRadius_FiveKmBoundary(t *testing.T) {
	viewer := loc(0, 0)
	items := []item{
		{id: "outside", owner: "other", loc: loc(0, 0.05)}, // ~5.6 km
		{id: "inside", owner: "other", loc: loc(0, 0.04)},  // ~4.4 km
	}

	got := FilterByRadius(viewer, 5, items, "me")
	assert.Equal(t, []string{"inside"}, ids(got))
}

func TestFilterByRadius_PreservesInputOrder(t *testing.T) {
	viewer := loc(0, 0)
	items := []item{
		{id: "c", owner: "other", loc: loc(0, 0.03)},
		{id: "a", owner: "other", loc: loc(0, 0.01)},
		{id: "b", owner: "other", loc: loc(0, 0.02)},
	}

	got := FilterByRadius(viewer, 10, items, "me")
	assert.Equal(t, []string{"c", "a", "b"}, ids(got))
}

func TestRankByProximity_SortsAscending(t *testing.T) {
	viewer := loc(0, 0)
	items := []item{
		{id: "far", owner: "other", loc: loc(0, 0.03)},
		{id: "near", owner: "other", loc: loc(0, 0.01)},
		{id: "mid", owner: "other", loc: loc(0, 0.02)},
	}

	got := RankByProximity(viewer, items, "me")
	require.Len(t, got, 3)

	assert.Equal(t, "near", got[0].Item.id)
	assert.Equal(t, "mid", got[1].Item.id)
	assert.Equal(t, "far", got[2].Item.id)

	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i].Meters, got[i-1].Meters)
	}
}

func TestRankByProximity_DropsOwnAndLocationless(t *testing.T) {
	viewer := loc(0, 0)
	items := []item{
		{id: "mine", owner: "me", loc: loc(0, 0.001)},
		{id: "ghost", owner: "other", loc: nil},
		{id: "visible", owner: "other", loc: loc(0, 0.01)},
	}

	got := RankByProximity(viewer, items, "me")
	require.Len(t, got, 1)
	assert.Equal(t, "visible", got[0].Item.id)
}

func TestRankByProximity_StableOnTies(t *testing.T) {
	viewer := loc(0, 0)
	same := loc(0, 0.01)
	items := []item{
		{id: "first", owner: "a", loc: same},
		{id: "second", owner: "b", loc: same},
		{id: "third", owner: "c", loc: same},
	}

	got := RankByProximity(viewer, items, "me")
	require.Len(t, got, 3)
	assert.Equal(t, []string{"first", "second", "third"},
		[]string{got[0].Item.id, got[1].Item.id, got[2].Item.id})
}

func TestRankByProximity_NilViewer(t *testing.T) {
	items := []item{{id: "a", owner: "x", loc: loc(0, 0.01)}}
	assert.Nil(t, RankByProximity(nil, items, "me"))
}

func TestRankByProximity_CarriesFormattedDistance(t *testing.T) {
	viewer := loc(0, 0)
	items := []item{
		{id: "close", owner: "other", loc: loc(0, 0.005)}, // ~556 m
		{id: "mid", owner: "other", loc: loc(0, 0.03)},    // ~3.3 km
	}

	got := RankByProximity(viewer, items, "me")
	require.Len(t, got, 2)
	assert.Equal(t, "< 1 km", got[0].Formatted)
	assert.Equal(t, "3.3 km", got[1].Formatted)
}
