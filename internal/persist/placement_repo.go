package persist

import (
	"context"
	"fmt"
	"time"
)

// Placement is one realized object as written to the journal.
type Placement struct {
	SessionID string
	RequestID uint64
	Prototype string
	Hand      string
	Position  [3]float64
	Rotation  [4]float64 // w, x, y, z
	Anchored  bool
	PlacedAt  time.Time
}

type PlacementRepo struct {
	db *DB
}

func NewPlacementRepo(db *DB) *PlacementRepo {
	return &PlacementRepo{db: db}
}

// InsertBatch writes placements in a single transaction. A placement seen
// twice for the same session and request is written once.
func (r *PlacementRepo) InsertBatch(ctx context.Context, batch []Placement) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("placements begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, p := range batch {
		if _, err := tx.Exec(ctx,
			`INSERT INTO placements (session_id, request_id, prototype, hand,
			     pos_x, pos_y, pos_z, rot_w, rot_x, rot_y, rot_z, anchored, placed_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			 ON CONFLICT (session_id, request_id) DO NOTHING`,
			p.SessionID, int64(p.RequestID), p.Prototype, p.Hand,
			p.Position[0], p.Position[1], p.Position[2],
			p.Rotation[0], p.Rotation[1], p.Rotation[2], p.Rotation[3],
			p.Anchored, p.PlacedAt,
		); err != nil {
			return fmt.Errorf("placements insert: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// CountSession returns how many placements a session recorded.
func (r *PlacementRepo) CountSession(ctx context.Context, sessionID string) (int, error) {
	var n int
	err := r.db.Pool.QueryRow(ctx,
		`SELECT count(*) FROM placements WHERE session_id = $1`, sessionID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count placements: %w", err)
	}
	return n, nil
}
