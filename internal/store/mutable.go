package store

import (
	"context"
	"database/sql"
	"fmt"
)

// GetMutableModified returns the last-modified timestamp (ms) recorded
// for id, if any.
func (s *Store) GetMutableModified(ctx context.Context, q Queryer, id string) (int64, bool, error) {
	var ts int64
	err := q.QueryRowContext(ctx, `SELECT modified_ms FROM mutable_modified WHERE id = `+s.placeholder(1), id).Scan(&ts)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get mutable modified: %w", err)
	}
	return ts, true, nil
}

// PutMutableModified upserts the last-modified timestamp for id.
func (s *Store) PutMutableModified(ctx context.Context, q Queryer, id string, tsMillis int64) error {
	var query string
	if s.driver == "sqlite" {
		query = `INSERT INTO mutable_modified (id, modified_ms) VALUES (?, ?)
			ON CONFLICT(id) DO UPDATE SET modified_ms = excluded.modified_ms`
	} else {
		query = `INSERT INTO mutable_modified (id, modified_ms) VALUES ($1, $2)
			ON CONFLICT(id) DO UPDATE SET modified_ms = EXCLUDED.modified_ms`
	}
	if _, err := q.ExecContext(ctx, query, id, tsMillis); err != nil {
		return fmt.Errorf("put mutable modified: %w", err)
	}
	return nil
}

// UseMutable refuses an update to id if it has been modified more
// recently than tsMillis (StaleMessage), otherwise records the new
// timestamp. Reserved per spec §4.6.3/§9 — not wired into any endpoint in
// this rework, since no handler in the source this was distilled from
// consumes it either.
func (s *Store) UseMutable(ctx context.Context, q Queryer, id string, tsMillis int64) (bool, error) {
	current, ok, err := s.GetMutableModified(ctx, q, id)
	if err != nil {
		return false, err
	}
	if ok && current > tsMillis {
		return false, nil
	}
	if err := s.PutMutableModified(ctx, q, id, tsMillis); err != nil {
		return false, err
	}
	return true, nil
}
