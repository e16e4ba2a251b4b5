package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"nearby/internal/domain/chat"
	"nearby/internal/domain/geo"
	"nearby/internal/domain/profile"
)

// ProfileStore implements profile.Store on Postgres/PostGIS.
type ProfileStore struct {
	db *pgxpool.Pool
}

// NewProfileStore creates a new profile store.
func NewProfileStore(db *pgxpool.Pool) *ProfileStore {
	return &ProfileStore{
		db: db,
	}
}

const profileColumns = `
	user_id, name, COALESCE(photo_url, ''),
	radius_km, discoverable, ghost_mode,
	ST_X(location::geometry) AS lng, ST_Y(location::geometry) AS lat,
	COALESCE(place_name, '')
`

// Get retrieves one profile by user id.
func (s *ProfileStore) Get(ctx context.Context, userID string) (*profile.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE user_id = $1`

	p, err := scanProfile(s.db.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("profile %s: %w", userID, chat.ErrNotFound)
		}
		return nil, fmt.Errorf("query error: %w", err)
	}

	return p, nil
}

// ListDiscoverable returns every profile opted into discovery.
func (s *ProfileStore) ListDiscoverable(ctx context.Context) ([]profile.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE discoverable ORDER BY user_id`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	defer rows.Close()

	var profiles []profile.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		profiles = append(profiles, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return profiles, nil
}

type rowLike interface {
	Scan(dest ...interface{}) error
}

func scanProfile(row rowLike) (*profile.Profile, error) {
	var p profile.Profile
	var lng, lat *float64

	if err := row.Scan(
		&p.UserID,
		&p.Name,
		&p.PhotoURL,
		&p.Settings.RadiusKm,
		&p.Settings.Discoverable,
		&p.Settings.GhostMode,
		&lng,
		&lat,
		&p.PlaceName,
	); err != nil {
		return nil, err
	}

	if lng != nil && lat != nil {
		p.Location = &geo.Location{Latitude: *lat, Longitude: *lng}
	}

	return &p, nil
}
