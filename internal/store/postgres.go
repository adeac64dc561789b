package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pgvector/pgvector-go"

	"github.com/mizuame/kotaeru/internal/models"
)

// PostgresStore implements Store on Postgres with the pgvector extension.
// Similarity search runs in the database using the cosine distance operator.
type PostgresStore struct {
	db         *sql.DB
	dimensions int
}

// NewPostgresStore connects to Postgres with the given DSN and initializes
// the schema, including the vector extension.
func NewPostgresStore(dsn string, dimensions int) (*PostgresStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is required")
	}
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, &Error{Transient: true, Err: fmt.Errorf("failed to reach database: %w", err)}
	}
	if err := initPostgresSchema(db, dimensions); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &PostgresStore{db: db, dimensions: dimensions}, nil
}

func initPostgresSchema(db *sql.DB, dimensions int) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS embeddings (
			filename TEXT NOT NULL,
			chunk_index INTEGER NOT NULL,
			chunk_text TEXT NOT NULL,
			embedding vector(%d) NOT NULL,
			file_hash TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (filename, chunk_index)
		)`, dimensions),
		`CREATE INDEX IF NOT EXISTS idx_embeddings_filename ON embeddings (filename)`,
		`CREATE INDEX IF NOT EXISTS idx_embeddings_vector ON embeddings
			USING hnsw (embedding vector_cosine_ops)`,
		`CREATE TABLE IF NOT EXISTS processed_files (
			filename TEXT PRIMARY KEY,
			file_hash TEXT NOT NULL,
			processed_at TIMESTAMPTZ NOT NULL,
			chunk_count INTEGER NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// wrapPgErr classifies connectivity failures as transient.
func wrapPgErr(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return &Error{Transient: true, Err: err}
	}
	return &Error{Err: err}
}

// UpsertChunks inserts chunk records in a single transaction.
func (s *PostgresStore) UpsertChunks(ctx context.Context, chunks []models.Chunk) error {
	for _, ch := range chunks {
		if len(ch.Embedding) != s.dimensions {
			return &Error{Err: fmt.Errorf("vector dimension mismatch: got %d, expected %d", len(ch.Embedding), s.dimensions)}
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapPgErr(err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO embeddings (filename, chunk_index, chunk_text, embedding, file_hash, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (filename, chunk_index) DO UPDATE SET
			chunk_text = EXCLUDED.chunk_text,
			embedding = EXCLUDED.embedding,
			file_hash = EXCLUDED.file_hash,
			created_at = EXCLUDED.created_at`,
	)
	if err != nil {
		return wrapPgErr(err)
	}
	defer stmt.Close()

	for _, ch := range chunks {
		if _, err := stmt.ExecContext(ctx,
			ch.DocumentID, ch.ChunkIndex, ch.Text, pgvector.NewVector(ch.Embedding), ch.ContentHash, ch.CreatedAt,
		); err != nil {
			return wrapPgErr(err)
		}
	}
	if err := tx.Commit(); err != nil {
		return wrapPgErr(err)
	}
	return nil
}

// DeleteByDocument removes all chunks for a document.
func (s *PostgresStore) DeleteByDocument(ctx context.Context, documentID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM embeddings WHERE filename = $1`, documentID); err != nil {
		return wrapPgErr(err)
	}
	return nil
}

// Search ranks chunks by cosine similarity inside Postgres.
func (s *PostgresStore) Search(ctx context.Context, vector []float32, topK int, documentFilter string) ([]models.ScoredChunk, error) {
	if len(vector) != s.dimensions {
		return nil, &Error{Err: fmt.Errorf("query dimension mismatch: got %d, expected %d", len(vector), s.dimensions)}
	}
	if topK <= 0 {
		return nil, nil
	}

	qvec := pgvector.NewVector(vector)
	query := `SELECT filename, chunk_index, chunk_text, file_hash, created_at,
			1 - (embedding <=> $1) AS similarity
		FROM embeddings`
	args := []any{qvec}
	if documentFilter != "" {
		query += ` WHERE filename = $2`
		args = append(args, documentFilter)
	}
	query += fmt.Sprintf(` ORDER BY embedding <=> $1 LIMIT %d`, topK)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapPgErr(err)
	}
	defer rows.Close()

	var scored []models.ScoredChunk
	for rows.Next() {
		var hit models.ScoredChunk
		if err := rows.Scan(&hit.Chunk.DocumentID, &hit.Chunk.ChunkIndex, &hit.Chunk.Text,
			&hit.Chunk.ContentHash, &hit.Chunk.CreatedAt, &hit.Similarity); err != nil {
			return nil, wrapPgErr(err)
		}
		scored = append(scored, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapPgErr(err)
	}
	return scored, nil
}

// GetRegistryEntry returns the registry entry for a document, or ErrNotFound.
func (s *PostgresStore) GetRegistryEntry(ctx context.Context, documentID string) (*models.RegistryEntry, error) {
	var entry models.RegistryEntry
	err := s.db.QueryRowContext(ctx,
		`SELECT filename, file_hash, processed_at, chunk_count FROM processed_files WHERE filename = $1`,
		documentID,
	).Scan(&entry.DocumentID, &entry.ContentHash, &entry.ProcessedAt, &entry.ChunkCount)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, wrapPgErr(err)
	}
	return &entry, nil
}

// UpsertRegistryEntry writes the entry inside a transaction, guarded by the
// expected previous fingerprint. The row is locked for the duration of the
// check so concurrent writers serialize here.
func (s *PostgresStore) UpsertRegistryEntry(ctx context.Context, entry models.RegistryEntry, prevHash string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapPgErr(err)
	}
	defer tx.Rollback()

	var current string
	err = tx.QueryRowContext(ctx,
		`SELECT file_hash FROM processed_files WHERE filename = $1 FOR UPDATE`, entry.DocumentID,
	).Scan(&current)
	switch {
	case err == sql.ErrNoRows:
		if prevHash != "" {
			return ErrConflict
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO processed_files (filename, file_hash, processed_at, chunk_count) VALUES ($1, $2, $3, $4)`,
			entry.DocumentID, entry.ContentHash, entry.ProcessedAt, entry.ChunkCount,
		); err != nil {
			return wrapPgErr(err)
		}
	case err != nil:
		return wrapPgErr(err)
	default:
		if current != prevHash {
			return ErrConflict
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE processed_files SET file_hash = $1, processed_at = $2, chunk_count = $3 WHERE filename = $4`,
			entry.ContentHash, entry.ProcessedAt, entry.ChunkCount, entry.DocumentID,
		); err != nil {
			return wrapPgErr(err)
		}
	}
	if err := tx.Commit(); err != nil {
		return wrapPgErr(err)
	}
	return nil
}

// DeleteRegistryEntry removes the registry entry for a document.
func (s *PostgresStore) DeleteRegistryEntry(ctx context.Context, documentID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM processed_files WHERE filename = $1`, documentID); err != nil {
		return wrapPgErr(err)
	}
	return nil
}

// CountDocuments returns the total number of registered documents.
func (s *PostgresStore) CountDocuments(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM processed_files`).Scan(&count); err != nil {
		return 0, wrapPgErr(err)
	}
	return count, nil
}

// CountChunks returns the total number of stored chunks.
func (s *PostgresStore) CountChunks(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM embeddings`).Scan(&count); err != nil {
		return 0, wrapPgErr(err)
	}
	return count, nil
}

// Close closes the database connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
