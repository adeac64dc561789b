// Package store defines chunk and registry persistence with vector search.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mizuame/kotaeru/internal/models"
)

// ErrNotFound is returned when no registry entry exists for a document.
var ErrNotFound = errors.New("registry entry not found")

// ErrConflict is returned when a conditional registry upsert loses the race:
// the stored fingerprint no longer matches the expected previous value.
var ErrConflict = errors.New("registry entry changed concurrently")

// Error reports a store failure. Transient errors (connectivity) may be
// retried a bounded number of times; others are fatal.
type Error struct {
	Transient bool
	Err       error
}

func (e *Error) Error() string {
	if e.Transient {
		return fmt.Sprintf("store (transient): %v", e.Err)
	}
	return fmt.Sprintf("store: %v", e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsTransient reports whether err is a transient store failure.
func IsTransient(err error) bool {
	var storeErr *Error
	return errors.As(err, &storeErr) && storeErr.Transient
}

// Store persists chunk records with vectors and one registry entry per
// document. Chunks for a document are replaced as a unit, never mutated.
type Store interface {
	// UpsertChunks inserts chunk records. Callers delete the document's old
	// chunks first; together the two calls replace the document's chunk set.
	UpsertChunks(ctx context.Context, chunks []models.Chunk) error
	// DeleteByDocument removes all chunks for a document.
	DeleteByDocument(ctx context.Context, documentID string) error
	// Search returns the topK chunks most cosine-similar to vector,
	// descending by similarity. documentFilter narrows the scan to one
	// document when non-empty. An empty store yields an empty result.
	Search(ctx context.Context, vector []float32, topK int, documentFilter string) ([]models.ScoredChunk, error)
	// GetRegistryEntry returns the registry entry for a document, or ErrNotFound.
	GetRegistryEntry(ctx context.Context, documentID string) (*models.RegistryEntry, error)
	// UpsertRegistryEntry writes the registry entry, but only when the stored
	// fingerprint still equals prevHash ("" means no entry expected). The
	// previous fingerprint acts as an ownership token: a concurrent ingestion
	// of the same document makes the condition fail with ErrConflict.
	UpsertRegistryEntry(ctx context.Context, entry models.RegistryEntry, prevHash string) error
	// DeleteRegistryEntry removes the registry entry for a document. Removing
	// a missing entry is not an error.
	DeleteRegistryEntry(ctx context.Context, documentID string) error

	CountDocuments(ctx context.Context) (int64, error)
	CountChunks(ctx context.Context) (int64, error)

	Close() error
}

// Config selects and configures a store backend.
type Config struct {
	// Backend is "sqlite" (default), "postgres", or "memory".
	Backend string
	// DatabasePath is the SQLite database file path.
	DatabasePath string
	// PostgresDSN is the Postgres connection string.
	PostgresDSN string
	// Dimensions is the vector width the store accepts; writes and searches
	// with a different width fail without retry.
	Dimensions int
	// MaxRetries bounds how many times a transient failure is retried.
	// Zero disables retrying.
	MaxRetries int
	// RetryDelay is the base backoff delay between retries.
	RetryDelay time.Duration
}

// New creates a store of the configured backend, wrapped with transient-error
// retrying when MaxRetries is positive.
func New(cfg Config) (Store, error) {
	var (
		s   Store
		err error
	)
	switch cfg.Backend {
	case "sqlite", "":
		s, err = NewSQLiteStore(cfg.DatabasePath, cfg.Dimensions)
	case "postgres":
		s, err = NewPostgresStore(cfg.PostgresDSN, cfg.Dimensions)
	case "memory":
		s, err = NewMemoryStore(cfg.Dimensions)
	default:
		return nil, fmt.Errorf("unknown store backend: %s (supported: sqlite, postgres, memory)", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	return WithRetry(s, cfg.MaxRetries, cfg.RetryDelay), nil
}
