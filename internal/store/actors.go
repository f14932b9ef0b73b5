package store

import (
	"context"
	"database/sql"
	"fmt"
)

// PutActorFollowing records that actorID follows followingID.
func (s *Store) PutActorFollowing(ctx context.Context, q Queryer, actorID, followingID string) error {
	var query string
	if s.driver == "sqlite" {
		query = `INSERT OR IGNORE INTO actors_followings (actor_id, following_id) VALUES (?, ?)`
	} else {
		query = `INSERT INTO actors_followings (actor_id, following_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	}
	if _, err := q.ExecContext(ctx, query, actorID, followingID); err != nil {
		return fmt.Errorf("put actor following: %w", err)
	}
	return nil
}

// DeleteActorFollowing removes a single follow edge.
func (s *Store) DeleteActorFollowing(ctx context.Context, q Queryer, actorID, followingID string) error {
	query := `DELETE FROM actors_followings WHERE actor_id = ` + s.placeholder(1) + ` AND following_id = ` + s.placeholder(2)
	if _, err := q.ExecContext(ctx, query, actorID, followingID); err != nil {
		return fmt.Errorf("delete actor following: %w", err)
	}
	return nil
}

// DeleteActorAllFollowing removes every follow edge authored by actorID.
func (s *Store) DeleteActorAllFollowing(ctx context.Context, q Queryer, actorID string) error {
	_, err := q.ExecContext(ctx, `DELETE FROM actors_followings WHERE actor_id = `+s.placeholder(1), actorID)
	if err != nil {
		return fmt.Errorf("delete actor all following: %w", err)
	}
	return nil
}

// GetActorFollowings returns every id actorID follows.
func (s *Store) GetActorFollowings(ctx context.Context, q Queryer, actorID string) ([]string, error) {
	rows, err := q.QueryContext(ctx, `SELECT following_id FROM actors_followings WHERE actor_id = `+s.placeholder(1), actorID)
	if err != nil {
		return nil, fmt.Errorf("get actor followings: %w", err)
	}
	return scanStrings(rows)
}

// GetActorFollowers returns a page of actors following followedID, most
// recently followed first.
func (s *Store) GetActorFollowers(ctx context.Context, q Queryer, followedID string, count int, startIdx *int64) (*PageOut, error) {
	var rows *sql.Rows
	var err error
	if startIdx != nil {
		query := `SELECT idx, actor_id FROM actors_followings WHERE following_id = ` + s.placeholder(1) +
			` AND idx <= ` + s.placeholder(2) + ` ORDER BY idx DESC LIMIT ` + s.placeholder(3)
		rows, err = q.QueryContext(ctx, query, followedID, *startIdx, count)
	} else {
		query := `SELECT idx, actor_id FROM actors_followings WHERE following_id = ` + s.placeholder(1) +
			` ORDER BY idx DESC LIMIT ` + s.placeholder(2)
		rows, err = q.QueryContext(ctx, query, followedID, count)
	}
	if err != nil {
		return nil, fmt.Errorf("get actor followers: %w", err)
	}
	return scanPage(rows)
}

// PutActorAudience records that actorID wishes to receive messages
// addressed to audienceID.
func (s *Store) PutActorAudience(ctx context.Context, q Queryer, actorID, audienceID string) error {
	id := JointID(actorID, audienceID)
	var query string
	if s.driver == "sqlite" {
		query = `INSERT OR IGNORE INTO actors_audiences (id, actor_id, audience_id) VALUES (?, ?, ?)`
	} else {
		query = `INSERT INTO actors_audiences (id, actor_id, audience_id) VALUES ($1, $2, $3) ON CONFLICT DO NOTHING`
	}
	if _, err := q.ExecContext(ctx, query, id, actorID, audienceID); err != nil {
		return fmt.Errorf("put actor audience: %w", err)
	}
	return nil
}

// DeleteActorAudience removes a single actor/audience subscription.
func (s *Store) DeleteActorAudience(ctx context.Context, q Queryer, actorID, audienceID string) error {
	query := `DELETE FROM actors_audiences WHERE actor_id = ` + s.placeholder(1) + ` AND audience_id = ` + s.placeholder(2)
	if _, err := q.ExecContext(ctx, query, actorID, audienceID); err != nil {
		return fmt.Errorf("delete actor audience: %w", err)
	}
	return nil
}

// GetActorAudiences returns every audience id actorID subscribes to.
func (s *Store) GetActorAudiences(ctx context.Context, q Queryer, actorID string) ([]string, error) {
	rows, err := q.QueryContext(ctx, `SELECT audience_id FROM actors_audiences WHERE actor_id = `+s.placeholder(1), actorID)
	if err != nil {
		return nil, fmt.Errorf("get actor audiences: %w", err)
	}
	return scanStrings(rows)
}

func scanPage(rows *sql.Rows) (*PageOut, error) {
	defer rows.Close()
	var page PageOut
	first := true
	for rows.Next() {
		var idx int64
		var item string
		if err := rows.Scan(&idx, &item); err != nil {
			return nil, err
		}
		page.Items = append(page.Items, item)
		if first {
			page.HighIdx = idx
			first = false
		}
		page.LowIdx = idx
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(page.Items) == 0 {
		return nil, nil
	}
	return &page, nil
}
