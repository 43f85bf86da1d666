package docstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // register "sqlite" driver

	"github.com/documind-ai/documind-go/internal/core"
)

// SQLiteStore is a Store backed by a local SQLite database.
type SQLiteStore struct {
	// db is the underlying database connection pool.
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// DefaultDBPath returns the default path for the corpus database. It
// resolves to ~/.documind/corpus.db, creating the directory if needed.
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("docstore: could not determine home directory: %w", err)
	}
	dir := filepath.Join(home, ".documind")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("docstore: could not create %s: %w", dir, err)
	}
	return filepath.Join(dir, "corpus.db"), nil
}

// Open opens (or creates) a SQLiteStore at the given path and runs the
// schema migration. Use ":memory:" for an in-memory database in tests.
func Open(path string) (*SQLiteStore, error) {
	// WAL mode improves concurrent read performance and is safe for single-host use.
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("docstore: open %s: %w", path, err)
	}
	// Limit to a single writer connection to avoid SQLITE_BUSY under concurrent writes.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// migrate creates the schema if it does not already exist.
func (s *SQLiteStore) migrate() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS documents (
    id            TEXT    PRIMARY KEY,
    source_name   TEXT    NOT NULL,
    mime_type     TEXT    NOT NULL,
    ingested_at   INTEGER NOT NULL,  -- Unix timestamp (seconds)
    status        TEXT    NOT NULL CHECK(status IN ('PENDING','READY','FAILED','DELETING','DELETED')),
    failure_cause TEXT    NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS chunks (
    id             TEXT    PRIMARY KEY,
    document_id    TEXT    NOT NULL REFERENCES documents(id),
    body           TEXT    NOT NULL,
    start_offset   INTEGER NOT NULL,
    end_offset     INTEGER NOT NULL,
    sequence_index INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_chunks_document
    ON chunks (document_id, sequence_index);
`
	if _, err := s.db.Exec(ddl); err != nil {
		return fmt.Errorf("docstore: migrate: %w", err)
	}
	return nil
}

// CreateDocument persists a new document record.
func (s *SQLiteStore) CreateDocument(ctx context.Context, doc core.Document) error {
	if doc.Status != core.StatusPending {
		return fmt.Errorf("docstore: new document %s must be PENDING, got %s: %w",
			doc.ID, doc.Status, core.ErrInvalidState)
	}
	const q = `INSERT INTO documents (id, source_name, mime_type, ingested_at, status, failure_cause)
	           VALUES (?, ?, ?, ?, ?, '')`
	if _, err := s.db.ExecContext(ctx, q,
		doc.ID, doc.SourceName, doc.MIMEType, doc.IngestedAt.Unix(), string(doc.Status)); err != nil {
		return fmt.Errorf("docstore: create %s: %w", doc.ID, err)
	}
	return nil
}

// GetDocument returns the document with the given ID. Tombstones are
// returned as-is so callers can distinguish "deleted" from "never existed"
// by status.
func (s *SQLiteStore) GetDocument(ctx context.Context, id string) (core.Document, error) {
	const q = `SELECT id, source_name, mime_type, ingested_at, status, failure_cause
	           FROM documents WHERE id = ?`
	doc, err := scanDocument(s.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Document{}, fmt.Errorf("docstore: document %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Document{}, fmt.Errorf("docstore: get %s: %w", id, err)
	}
	return doc, nil
}

// ListDocuments returns all live documents in insertion order.
func (s *SQLiteStore) ListDocuments(ctx context.Context) ([]core.Document, error) {
	const q = `SELECT id, source_name, mime_type, ingested_at, status, failure_cause
	           FROM documents WHERE status != 'DELETED' ORDER BY rowid ASC`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("docstore: list: %w", err)
	}
	defer rows.Close()

	var docs []core.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("docstore: list scan: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("docstore: list rows: %w", err)
	}
	return docs, nil
}

// ReplaceChunks atomically replaces the document's chunk set.
func (s *SQLiteStore) ReplaceChunks(ctx context.Context, documentID string, chunks []core.Chunk) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("docstore: replace chunks begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	status, err := statusTx(ctx, tx, documentID)
	if err != nil {
		return err
	}
	if status != core.StatusPending && status != core.StatusFailed {
		return fmt.Errorf("docstore: cannot replace chunks of %s document %s: %w",
			status, documentID, core.ErrInvalidState)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE document_id = ?`, documentID); err != nil {
		return fmt.Errorf("docstore: replace chunks clear: %w", err)
	}
	const ins = `INSERT INTO chunks (id, document_id, body, start_offset, end_offset, sequence_index)
	             VALUES (?, ?, ?, ?, ?, ?)`
	for _, c := range chunks {
		if _, err := tx.ExecContext(ctx, ins,
			c.ID, c.DocumentID, c.Text, c.StartOffset, c.EndOffset, c.SequenceIndex); err != nil {
			return fmt.Errorf("docstore: replace chunks insert %s: %w", c.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("docstore: replace chunks commit: %w", err)
	}
	return nil
}

// GetChunks returns the document's chunks ordered by sequence index.
func (s *SQLiteStore) GetChunks(ctx context.Context, documentID string) ([]core.Chunk, error) {
	if _, err := s.GetDocument(ctx, documentID); err != nil {
		return nil, err
	}
	const q = `SELECT id, document_id, body, start_offset, end_offset, sequence_index
	           FROM chunks WHERE document_id = ? ORDER BY sequence_index ASC`
	rows, err := s.db.QueryContext(ctx, q, documentID)
	if err != nil {
		return nil, fmt.Errorf("docstore: chunks of %s: %w", documentID, err)
	}
	defer rows.Close()

	var chunks []core.Chunk
	for rows.Next() {
		var c core.Chunk
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.Text, &c.StartOffset, &c.EndOffset, &c.SequenceIndex); err != nil {
			return nil, fmt.Errorf("docstore: chunks scan: %w", err)
		}
		chunks = append(chunks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("docstore: chunks rows: %w", err)
	}
	return chunks, nil
}

// GetChunk returns a single chunk by its ID.
func (s *SQLiteStore) GetChunk(ctx context.Context, chunkID string) (core.Chunk, error) {
	const q = `SELECT id, document_id, body, start_offset, end_offset, sequence_index
	           FROM chunks WHERE id = ?`
	var c core.Chunk
	err := s.db.QueryRowContext(ctx, q, chunkID).
		Scan(&c.ID, &c.DocumentID, &c.Text, &c.StartOffset, &c.EndOffset, &c.SequenceIndex)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Chunk{}, fmt.Errorf("docstore: chunk %s: %w", chunkID, core.ErrNotFound)
	}
	if err != nil {
		return core.Chunk{}, fmt.Errorf("docstore: chunk %s: %w", chunkID, err)
	}
	return c, nil
}

// SetStatus moves the document to the given status, enforcing the
// lifecycle transition table.
func (s *SQLiteStore) SetStatus(ctx context.Context, documentID string, to core.Status) error {
	return s.setStatus(ctx, documentID, to, "")
}

// RecordFailure moves the document to FAILED and records the cause.
func (s *SQLiteStore) RecordFailure(ctx context.Context, documentID string, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return s.setStatus(ctx, documentID, core.StatusFailed, msg)
}

func (s *SQLiteStore) setStatus(ctx context.Context, documentID string, to core.Status, cause string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("docstore: set status begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	from, err := statusTx(ctx, tx, documentID)
	if err != nil {
		return err
	}
	if !core.CanTransition(from, to) {
		return fmt.Errorf("docstore: document %s cannot go %s -> %s: %w",
			documentID, from, to, core.ErrInvalidState)
	}
	const q = `UPDATE documents SET status = ?, failure_cause = ? WHERE id = ?`
	if _, err := tx.ExecContext(ctx, q, string(to), cause, documentID); err != nil {
		return fmt.Errorf("docstore: set status %s: %w", documentID, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("docstore: set status commit: %w", err)
	}
	return nil
}

// DeleteDocument completes a delete: removes the document's chunks and
// moves it to DELETED.
func (s *SQLiteStore) DeleteDocument(ctx context.Context, documentID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("docstore: delete begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	status, err := statusTx(ctx, tx, documentID)
	if err != nil {
		return err
	}
	if !core.CanTransition(status, core.StatusDeleted) {
		return fmt.Errorf("docstore: document %s cannot go %s -> %s: %w",
			documentID, status, core.StatusDeleted, core.ErrInvalidState)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE document_id = ?`, documentID); err != nil {
		return fmt.Errorf("docstore: delete chunks of %s: %w", documentID, err)
	}
	const q = `UPDATE documents SET status = 'DELETED', failure_cause = '' WHERE id = ?`
	if _, err := tx.ExecContext(ctx, q, documentID); err != nil {
		return fmt.Errorf("docstore: delete %s: %w", documentID, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("docstore: delete commit: %w", err)
	}
	return nil
}

// Stats returns corpus counters.
func (s *SQLiteStore) Stats(ctx context.Context) (Stats, error) {
	st := Stats{ByStatus: make(map[core.Status]int)}

	rows, err := s.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM documents WHERE status != 'DELETED' GROUP BY status`)
	if err != nil {
		return Stats{}, fmt.Errorf("docstore: stats: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return Stats{}, fmt.Errorf("docstore: stats scan: %w", err)
		}
		st.ByStatus[core.Status(status)] = n
		st.Documents += n
	}
	if err := rows.Err(); err != nil {
		return Stats{}, fmt.Errorf("docstore: stats rows: %w", err)
	}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&st.Chunks); err != nil {
		return Stats{}, fmt.Errorf("docstore: stats chunks: %w", err)
	}
	return st, nil
}

// Close releases the database connection pool.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("docstore: close: %w", err)
	}
	return nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (core.Document, error) {
	var doc core.Document
	var ts int64
	var status string
	if err := row.Scan(&doc.ID, &doc.SourceName, &doc.MIMEType, &ts, &status, &doc.FailureCause); err != nil {
		return core.Document{}, err
	}
	doc.IngestedAt = time.Unix(ts, 0)
	doc.Status = core.Status(status)
	return doc, nil
}

// statusTx reads a document's status inside a transaction, mapping a
// missing row to core.ErrNotFound.
func statusTx(ctx context.Context, tx *sql.Tx, documentID string) (core.Status, error) {
	var status string
	err := tx.QueryRowContext(ctx, `SELECT status FROM documents WHERE id = ?`, documentID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("docstore: document %s: %w", documentID, core.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("docstore: status of %s: %w", documentID, err)
	}
	return core.Status(status), nil
}
