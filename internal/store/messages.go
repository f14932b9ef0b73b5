package store

import (
	"context"
	"database/sql"
	"fmt"
)

// PutMessageId records a newly-ingested message, allocating its
// monotonically increasing idx.
func (s *Store) PutMessageId(ctx context.Context, q Queryer, messageID, actorID string) error {
	query := `INSERT INTO messages (message_id, actor_id) VALUES (` + s.placeholder(1) + `, ` + s.placeholder(2) + `)`
	if _, err := q.ExecContext(ctx, query, messageID, actorID); err != nil {
		return fmt.Errorf("put message id: %w", err)
	}
	return nil
}

// HasMessage reports whether messageID has already been ingested.
func (s *Store) HasMessage(ctx context.Context, q Queryer, messageID string) (bool, error) {
	var idx int64
	err := q.QueryRowContext(ctx, `SELECT idx FROM messages WHERE message_id = `+s.placeholder(1), messageID).Scan(&idx)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("has message: %w", err)
	}
	return true, nil
}

// DeleteMessage removes the message row for messageID.
func (s *Store) DeleteMessage(ctx context.Context, q Queryer, messageID string) error {
	_, err := q.ExecContext(ctx, `DELETE FROM messages WHERE message_id = `+s.placeholder(1), messageID)
	if err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	return nil
}

// GetMessageActor returns the actor_id recorded for messageID.
func (s *Store) GetMessageActor(ctx context.Context, q Queryer, messageID string) (string, bool, error) {
	var actorID string
	err := q.QueryRowContext(ctx, `SELECT actor_id FROM messages WHERE message_id = `+s.placeholder(1), messageID).Scan(&actorID)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get message actor: %w", err)
	}
	return actorID, true, nil
}

// PutMessageAudience records that messageID is addressed to audienceID.
func (s *Store) PutMessageAudience(ctx context.Context, q Queryer, messageID, audienceID string) error {
	id := JointID(messageID, audienceID)
	query := `INSERT INTO messages_audiences (id, message_id, audience_id) VALUES (` +
		s.placeholder(1) + `, ` + s.placeholder(2) + `, ` + s.placeholder(3) + `)`
	if s.driver == "sqlite" {
		query = `INSERT OR IGNORE INTO messages_audiences (id, message_id, audience_id) VALUES (?, ?, ?)`
	} else {
		query += ` ON CONFLICT DO NOTHING`
	}
	if _, err := q.ExecContext(ctx, query, id, messageID, audienceID); err != nil {
		return fmt.Errorf("put message audience: %w", err)
	}
	return nil
}

// DeleteMessageAudiences removes every audience join row for messageID.
func (s *Store) DeleteMessageAudiences(ctx context.Context, q Queryer, messageID string) error {
	_, err := q.ExecContext(ctx, `DELETE FROM messages_audiences WHERE message_id = `+s.placeholder(1), messageID)
	if err != nil {
		return fmt.Errorf("delete message audiences: %w", err)
	}
	return nil
}

// GetMessageAudiences returns every audience id addressed by messageID.
func (s *Store) GetMessageAudiences(ctx context.Context, q Queryer, messageID string) ([]string, error) {
	rows, err := q.QueryContext(ctx, `SELECT audience_id FROM messages_audiences WHERE message_id = `+s.placeholder(1), messageID)
	if err != nil {
		return nil, fmt.Errorf("get message audiences: %w", err)
	}
	return scanStrings(rows)
}

// PutMessageBody records that messageID references bodyID, optionally
// noting the authoring actor (used to answer "who first referenced this
// body").
func (s *Store) PutMessageBody(ctx context.Context, q Queryer, messageID, bodyID string, createdBy *string) error {
	id := JointID(messageID, bodyID)
	var query string
	if s.driver == "sqlite" {
		query = `INSERT OR IGNORE INTO messages_bodies (id, message_id, body_id, created_by) VALUES (?, ?, ?, ?)`
	} else {
		query = `INSERT INTO messages_bodies (id, message_id, body_id, created_by) VALUES ($1, $2, $3, $4) ON CONFLICT DO NOTHING`
	}
	if _, err := q.ExecContext(ctx, query, id, messageID, bodyID, createdBy); err != nil {
		return fmt.Errorf("put message body: %w", err)
	}
	return nil
}

// DeleteMessageBody removes every body join row for messageID.
func (s *Store) DeleteMessageBody(ctx context.Context, q Queryer, messageID string) error {
	_, err := q.ExecContext(ctx, `DELETE FROM messages_bodies WHERE message_id = `+s.placeholder(1), messageID)
	if err != nil {
		return fmt.Errorf("delete message body: %w", err)
	}
	return nil
}

// GetMessageBodies returns every body id referenced by messageID.
func (s *Store) GetMessageBodies(ctx context.Context, q Queryer, messageID string) ([]string, error) {
	rows, err := q.QueryContext(ctx, `SELECT body_id FROM messages_bodies WHERE message_id = `+s.placeholder(1), messageID)
	if err != nil {
		return nil, fmt.Errorf("get message bodies: %w", err)
	}
	return scanStrings(rows)
}

// GetBodyMessages returns every message id referencing bodyID, optionally
// filtered to those created by createdBy.
func (s *Store) GetBodyMessages(ctx context.Context, q Queryer, bodyID string, createdBy *string) ([]string, error) {
	var rows *sql.Rows
	var err error
	if createdBy != nil {
		query := `SELECT message_id FROM messages_bodies WHERE body_id = ` + s.placeholder(1) + ` AND created_by = ` + s.placeholder(2)
		rows, err = q.QueryContext(ctx, query, bodyID, *createdBy)
	} else {
		rows, err = q.QueryContext(ctx, `SELECT message_id FROM messages_bodies WHERE body_id = `+s.placeholder(1), bodyID)
	}
	if err != nil {
		return nil, fmt.Errorf("get body messages: %w", err)
	}
	return scanStrings(rows)
}

// HasMessageWithBody reports whether any message still references bodyID.
func (s *Store) HasMessageWithBody(ctx context.Context, q Queryer, bodyID string) (bool, error) {
	var messageID string
	err := q.QueryRowContext(ctx, `SELECT message_id FROM messages_bodies WHERE body_id = `+s.placeholder(1)+` LIMIT 1`, bodyID).Scan(&messageID)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("has message with body: %w", err)
	}
	return true, nil
}

// GetCreatorMessage returns the last (highest-idx) message authored by
// actorID that references bodyID, per spec §4.7's creator-message lookup.
func (s *Store) GetCreatorMessage(ctx context.Context, q Queryer, bodyID, actorID string) (string, bool, error) {
	query := `SELECT m.message_id FROM messages_bodies mb
		JOIN messages m ON m.message_id = mb.message_id
		WHERE mb.body_id = ` + s.placeholder(1) + ` AND m.actor_id = ` + s.placeholder(2) + `
		ORDER BY m.idx DESC LIMIT 1`
	var messageID string
	err := q.QueryRowContext(ctx, query, bodyID, actorID).Scan(&messageID)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get creator message: %w", err)
	}
	return messageID, true, nil
}

func scanStrings(rows *sql.Rows) ([]string, error) {
	defer rows.Close()
	var result []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, rows.Err()
}
