package store

import (
	"context"
	"database/sql"
	"fmt"
)

// inboxQuery builds the paginated SELECT behind both inbox queries from
// spec §4.5's inbox visibility rule:
//
//	author(m) = authorActor [ OR author(m) IN followings(authorActor), when extraAudience == "" ]
//	AND
//	some audience(m) = audienceActor OR audience(m) IN subscriptions(audienceActor)
//	   [ OR audience(m) = extraAudience, when extraAudience != "" ]
//
// GetInboxForActor passes the same actor as authorActor and audienceActor
// and no extraAudience. GetInboxFromActor passes fromActor as authorActor
// and fromActor+"/followers" as extraAudience, so the author is exactly
// fromActor and the audience is widened to fromActor's followers.
func (s *Store) inboxQuery(authorActor, audienceActor, extraAudience string, startIdx *int64, count int) (string, []interface{}) {
	args := []interface{}{authorActor}
	authorClause := `m.actor_id = ` + s.placeholder(1)
	if extraAudience == "" {
		args = append(args, authorActor)
		authorClause += ` OR m.actor_id IN (
			SELECT following_id FROM actors_followings WHERE actor_id = ` + s.placeholder(2) + `
		)`
	}
	args = append(args, audienceActor, audienceActor)
	query := `SELECT m.idx, m.message_id FROM messages m
		WHERE (` + authorClause + `)
		AND EXISTS (
			SELECT 1 FROM messages_audiences ma WHERE ma.message_id = m.message_id
			AND (ma.audience_id = ` + s.placeholder(len(args)-1) + ` OR ma.audience_id IN (
				SELECT audience_id FROM actors_audiences WHERE actor_id = ` + s.placeholder(len(args)) + `
			)`

	if extraAudience != "" {
		args = append(args, extraAudience)
		query += ` OR ma.audience_id = ` + s.placeholder(len(args))
	}
	query += `)
		)`

	if startIdx != nil {
		args = append(args, *startIdx)
		query += ` AND m.idx <= ` + s.placeholder(len(args))
	}
	args = append(args, count)
	query += ` ORDER BY m.idx DESC LIMIT ` + s.placeholder(len(args))

	return query, args
}

// GetInboxForActor returns the latest messages visible to actorID, per
// spec §4.5's inbox query.
func (s *Store) GetInboxForActor(ctx context.Context, q Queryer, actorID string, count int, startIdx *int64) (*PageOut, error) {
	query, args := s.inboxQuery(actorID, actorID, "", startIdx, count)
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get inbox for actor: %w", err)
	}
	return scanPage(rows)
}

// GetInboxFromActor narrows the author clause to fromActor and widens the
// audience clause to also accept fromActor's followers collection, per
// spec §4.5's inbox-from-actor query.
func (s *Store) GetInboxFromActor(ctx context.Context, q Queryer, forActor, fromActor string, count int, startIdx *int64) (*PageOut, error) {
	query, args := s.inboxQuery(fromActor, forActor, fromActor+"/followers", startIdx, count)
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get inbox from actor: %w", err)
	}
	return scanPage(rows)
}

// InboxContainsMessage implements the same visibility predicate without
// pagination, used by the outbox pipeline's auto-View check.
func (s *Store) InboxContainsMessage(ctx context.Context, q Queryer, actorID, messageID string) (bool, error) {
	query := `SELECT 1 FROM messages m
		WHERE m.message_id = ` + s.placeholder(1) + `
		AND (m.actor_id = ` + s.placeholder(2) + ` OR m.actor_id IN (
			SELECT following_id FROM actors_followings WHERE actor_id = ` + s.placeholder(3) + `
		))
		AND EXISTS (
			SELECT 1 FROM messages_audiences ma WHERE ma.message_id = m.message_id
			AND (ma.audience_id = ` + s.placeholder(4) + ` OR ma.audience_id IN (
				SELECT audience_id FROM actors_audiences WHERE actor_id = ` + s.placeholder(5) + `
			))
		)
		LIMIT 1`
	var one int
	err := q.QueryRowContext(ctx, query, messageID, actorID, actorID, actorID, actorID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("inbox contains message: %w", err)
	}
	return true, nil
}
