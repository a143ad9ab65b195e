package repository

import (
	"context"
	"database/sql"
	"errors"
	"sync"

	"github.com/jmoiron/sqlx"
)

// DocumentStore is a single JSON document that can only be read and replaced
// as a whole.
type DocumentStore interface {
	Get(ctx context.Context) ([]byte, error)
	Put(ctx context.Context, body []byte) error
}

// ImageUploader hosts an image and returns its public URL, or "" on failure.
type ImageUploader interface {
	Upload(ctx context.Context, image []byte, name string) string
}

// emptyDocument is what a store returns before anything was written.
var emptyDocument = []byte(`{"record":[]}`)

// PostgresDocumentStore keeps the product document in one row of the
// documents table.
type PostgresDocumentStore struct {
	db   *sqlx.DB
	name string
}

// NewPostgresDocumentStore creates a store for the named document.
func NewPostgresDocumentStore(db *sqlx.DB, name string) *PostgresDocumentStore {
	return &PostgresDocumentStore{db: db, name: name}
}

// Get returns the stored body, or an empty record document if the row does not exist yet.
func (s *PostgresDocumentStore) Get(ctx context.Context) ([]byte, error) {
	const q = `SELECT body FROM documents WHERE name = $1`

	var body string
	if err := s.db.GetContext(ctx, &body, q, s.name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return emptyDocument, nil
		}
		return nil, err
	}
	return []byte(body), nil
}

// Put replaces the stored body.
func (s *PostgresDocumentStore) Put(ctx context.Context, body []byte) error {
	const q = `
        INSERT INTO documents (name, body, updated_at)
        VALUES ($1, $2::jsonb, NOW())
        ON CONFLICT (name) DO UPDATE SET
            body = EXCLUDED.body,
            updated_at = NOW()`

	_, err := s.db.ExecContext(ctx, q, s.name, string(body))
	return err
}

// MemoryDocumentStore keeps the document in process memory. It backs the
// memory driver used for local development and tests.
type MemoryDocumentStore struct {
	mu   sync.Mutex
	body []byte

	gets int
	puts int
}

// NewMemoryDocumentStore creates a store seeded with body. A nil body starts
// with an empty record document.
func NewMemoryDocumentStore(body []byte) *MemoryDocumentStore {
	if body == nil {
		body = emptyDocument
	}
	return &MemoryDocumentStore{body: append([]byte(nil), body...)}
}

// Get returns a copy of the stored body.
func (s *MemoryDocumentStore) Get(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets++
	return append([]byte(nil), s.body...), nil
}

// Put replaces the stored body.
func (s *MemoryDocumentStore) Put(ctx context.Context, body []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.puts++
	s.body = append([]byte(nil), body...)
	return nil
}

// Calls returns how many reads and writes the store has served.
func (s *MemoryDocumentStore) Calls() (gets, puts int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gets, s.puts
}
