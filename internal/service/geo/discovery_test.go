package geo

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nearby/internal/domain/post"
	"nearby/internal/domain/profile"
)

type fakeProfileStore struct {
	profiles map[string]profile.Profile
}

func (f *fakeProfileStore) Get(_ context.Context, userID string) (*profile.Profile, error) {
	p, ok := f.profiles[userID]
	if !ok {
		return nil, assert.AnError
	}
	return &p, nil
}

func (f *fakeProfileStore) ListDiscoverable(_ context.Context) ([]profile.Profile, error) {
	var out []profile.Profile
	for _, p := range f.profiles {
		if p.Settings.Discoverable {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakePostStore struct {
	posts []post.Post
}

func (f *fakePostStore) ListRecent(_ context.Context, _ string, _ int) ([]post.Post, error) {
	return f.posts, nil
}

func newDiscovery(profiles *fakeProfileStore, posts *fakePostStore) *DiscoveryService {
	return NewDiscoveryService(profiles, posts, DiscoveryConfig{
		DefaultRadiusKm: 5,
		MinRadiusKm:     1,
		MaxRadiusKm:     50,
		FeedLimit:       100,
	}, zerolog.Nop())
}

func TestNearbyFeed_FiltersByViewerRadius(t *testing.T) {
	profiles := &fakeProfileStore{profiles: map[string]profile.Profile{
		"me": {UserID: "me", Settings: profile.DiscoverySettings{RadiusKm: 5}},
	}}
	posts := &fakePostStore{posts: []post.Post{
		{ID: "near", UserID: "other", Location: loc(0, 0.04)},
		{ID: "far", UserID: "other", Location: loc(0, 0.05)},
		{ID: "global", UserID: "other"},
	}}

	items, err := newDiscovery(profiles, posts).NearbyFeed(context.Background(), "me", loc(0, 0))
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "near", items[0].Post.ID)
	assert.Equal(t, "4.4 km", items[0].Formatted)
	assert.Equal(t, "global", items[1].Post.ID)
	assert.Empty(t, items[1].Formatted)
}

func TestNearbyFeed_ClampsViewerRadius(t *testing.T) {
	tests := []struct {
		name     string
		radiusKm float64
		posts    []post.Post
		want     []string
	}{
		{
			name:     "unset radius falls back to the default",
			radiusKm: 0,
			posts: []post.Post{
				{ID: "in", UserID: "other", Location: loc(0, 0.04)},   // ~4.4 km
				{ID: "out", UserID: "other", Location: loc(0, 0.05)},  // ~5.6 km
			},
			want: []string{"in"},
		},
		{
			name:     "sub-minimum radius is raised to the minimum",
			radiusKm: 0.1,
			posts: []post.Post{
				{ID: "in", UserID: "other", Location: loc(0, 0.008)}, // ~890 m, beyond 0.1 km
				{ID: "out", UserID: "other", Location: loc(0, 0.02)}, // ~2.2 km
			},
			want: []string{"in"},
		},
		{
			name:     "oversized radius is capped at the maximum",
			radiusKm: 500,
			posts: []post.Post{
				{ID: "in", UserID: "other", Location: loc(0, 0.4)},  // ~44 km
				{ID: "out", UserID: "other", Location: loc(0, 0.5)}, // ~56 km
			},
			want: []string{"in"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profiles := &fakeProfileStore{profiles: map[string]profile.Profile{
				"me": {UserID: "me", Settings: profile.DiscoverySettings{RadiusKm: tt.radiusKm}},
			}}

			items, err := newDiscovery(profiles, &fakePostStore{posts: tt.posts}).
				NearbyFeed(context.Background(), "me", loc(0, 0))
			require.NoError(t, err)

			got := make([]string, 0, len(items))
			for _, it := range items {
				got = append(got, it.Post.ID)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNearbyFeed_FailOpenWithoutLocation(t *testing.T) {
	profiles := &fakeProfileStore{profiles: map[string]profile.Profile{
		"me": {UserID: "me", Settings: profile.DiscoverySettings{RadiusKm: 5}},
	}}
	posts := &fakePostStore{posts: []post.Post{
		{ID: "a", UserID: "other", Location: loc(45, 45)},
		{ID: "b", UserID: "other", Location: loc(-45, -45)},
	}}

	// Viewer has neither a client location nor a synced one
	items, err := newDiscovery(profiles, posts).NearbyFeed(context.Background(), "me", nil)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestNearbyFeed_FallsBackToSyncedLocation(t *testing.T) {
	profiles := &fakeProfileStore{profiles: map[string]profile.Profile{
		"me": {
			UserID:   "me",
			Settings: profile.DiscoverySettings{RadiusKm: 5},
			Location: loc(0, 0),
		},
	}}
	posts := &fakePostStore{posts: []post.Post{
		{ID: "near", UserID: "other", Location: loc(0, 0.01)},
		{ID: "far", UserID: "other", Location: loc(10, 10)},
	}}

	items, err := newDiscovery(profiles, posts).NearbyFeed(context.Background(), "me", nil)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "near", items[0].Post.ID)
}

func TestNearbyPeople_RanksAndDropsGhosts(t *testing.T) {
	profiles := &fakeProfileStore{profiles: map[string]profile.Profile{
		"me":    {UserID: "me", Settings: profile.DiscoverySettings{RadiusKm: 50, Discoverable: true}, Location: loc(0, 0)},
		"near":  {UserID: "near", Settings: profile.DiscoverySettings{Discoverable: true}, Location: loc(0, 0.01)},
		"far":   {UserID: "far", Settings: profile.DiscoverySettings{Discoverable: true}, Location: loc(0, 0.1)},
		"ghost": {UserID: "ghost", Settings: profile.DiscoverySettings{Discoverable: true, GhostMode: true}, Location: loc(0, 0.001)},
		"hidden": {UserID: "hidden", Settings: profile.DiscoverySettings{Discoverable: false}, Location: loc(0, 0.001)},
	}}

	people, err := newDiscovery(profiles, &fakePostStore{}).NearbyPeople(context.Background(), "me", loc(0, 0))
	require.NoError(t, err)

	// Ghost users share no location and cannot be placed on the roster;
	// non-discoverable users are not listed at all; the viewer is excluded.
	require.Len(t, people, 2)
	assert.Equal(t, "near", people[0].Profile.UserID)
	assert.Equal(t, "far", people[1].Profile.UserID)
	require.NotNil(t, people[0].Meters)
	assert.Less(t, *people[0].Meters, *people[1].Meters)
	assert.NotEmpty(t, people[0].Formatted)
}

func TestNearbyPeople_UnrankedWithoutViewerLocation(t *testing.T) {
	profiles := &fakeProfileStore{profiles: map[string]profile.Profile{
		"me":    {UserID: "me", Settings: profile.DiscoverySettings{Discoverable: true}},
		"other": {UserID: "other", Settings: profile.DiscoverySettings{Discoverable: true}, Location: loc(0, 0.01)},
	}}

	people, err := newDiscovery(profiles, &fakePostStore{}).NearbyPeople(context.Background(), "me", nil)
	require.NoError(t, err)
	require.Len(t, people, 1)
	assert.Equal(t, "other", people[0].Profile.UserID)
	assert.Nil(t, people[0].Meters)
}
