package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Q exposes the transaction's Queryer for the write-path CRUD helpers
// below, so they can run identically against a Tx or the Store's plain
// pool.
func (t *Tx) Q() Queryer { return t.tx }

// PutDocument inserts or replaces the blob stored at id.
func (s *Store) PutDocument(ctx context.Context, q Queryer, id, blob string) error {
	var query string
	if s.driver == "sqlite" {
		query = `INSERT INTO documents (document_id, document_blob) VALUES (?, ?)
			ON CONFLICT(document_id) DO UPDATE SET document_blob = excluded.document_blob`
	} else {
		query = `INSERT INTO documents (document_id, document_blob) VALUES ($1, $2)
			ON CONFLICT(document_id) DO UPDATE SET document_blob = EXCLUDED.document_blob`
	}
	_, err := q.ExecContext(ctx, query, id, blob)
	if err != nil {
		return fmt.Errorf("put document: %w", err)
	}
	return nil
}

// PutDocumentIfNew inserts the blob only if no document with this id
// already exists; an existing document is left untouched.
func (s *Store) PutDocumentIfNew(ctx context.Context, q Queryer, id, blob string) error {
	var query string
	if s.driver == "sqlite" {
		query = `INSERT OR IGNORE INTO documents (document_id, document_blob) VALUES (?, ?)`
	} else {
		query = `INSERT INTO documents (document_id, document_blob) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	}
	_, err := q.ExecContext(ctx, query, id, blob)
	if err != nil {
		return fmt.Errorf("put document if new: %w", err)
	}
	return nil
}

// GetDocument returns the blob stored at id, or ("", false) if unknown.
func (s *Store) GetDocument(ctx context.Context, q Queryer, id string) (string, bool, error) {
	var blob string
	err := q.QueryRowContext(ctx, `SELECT document_blob FROM documents WHERE document_id = `+s.placeholder(1), id).Scan(&blob)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get document: %w", err)
	}
	return blob, true, nil
}

// DeleteDocument removes the document row for id, if present.
func (s *Store) DeleteDocument(ctx context.Context, q Queryer, id string) error {
	_, err := q.ExecContext(ctx, `DELETE FROM documents WHERE document_id = `+s.placeholder(1), id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}
