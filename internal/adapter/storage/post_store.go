package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"nearby/internal/domain/geo"
	"nearby/internal/domain/post"
)

// PostStore implements post.Store on Postgres/PostGIS.
type PostStore struct {
	db *pgxpool.Pool
}

// NewPostStore creates a new post store.
func NewPostStore(db *pgxpool.Pool) *PostStore {
	return &PostStore{
		db: db,
	}
}

// ListRecent returns the newest posts first as seen by the viewer.
// Ghost-mode authors share no location, so their coordinates and place
// labels come back NULL for everyone but themselves.
func (s *PostStore) ListRecent(ctx context.Context, viewerID string, limit int) ([]post.Post, error) {
	query := `
		SELECT p.id, p.user_id, p.text, COALESCE(p.image_url, ''),
		       CASE WHEN pr.ghost_mode AND p.user_id <> $1 THEN NULL
		            ELSE ST_X(p.location::geometry) END AS lng,
		       CASE WHEN pr.ghost_mode AND p.user_id <> $1 THEN NULL
		            ELSE ST_Y(p.location::geometry) END AS lat,
		       CASE WHEN pr.ghost_mode AND p.user_id <> $1 THEN ''
		            ELSE COALESCE(p.place_name, '') END,
		       p.created_at
		FROM posts p
		LEFT JOIN profiles pr ON pr.user_id = p.user_id
		ORDER BY p.created_at DESC
		LIMIT $2
	`

	rows, err := s.db.Query(ctx, query, viewerID, limit)
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	defer rows.Close()

	var posts []post.Post
	for rows.Next() {
		var p post.Post
		var lng, lat *float64

		if err := rows.Scan(
			&p.ID,
			&p.UserID,
			&p.Text,
			&p.ImageURL,
			&lng,
			&lat,
			&p.PlaceName,
			&p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}

		if lng != nil && lat != nil {
			p.Location = &geo.Location{Latitude: *lat, Longitude: *lng}
		}

		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return posts, nil
}
