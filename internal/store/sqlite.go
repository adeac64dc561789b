package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mizuame/kotaeru/internal/models"
	"github.com/mizuame/kotaeru/pkg/utils"
)

// SQLiteStore implements Store using SQLite. Embeddings are stored as
// little-endian float32 blobs and ranked in Go, which is fine for corpora
// up to a few hundred thousand chunks.
type SQLiteStore struct {
	db         *sql.DB
	dimensions int
}

// NewSQLiteStore opens or creates a SQLite database at dbPath and initializes
// the schema. Parent directories are created if they do not exist.
func NewSQLiteStore(dbPath string, dimensions int) (*SQLiteStore, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db, dimensions: dimensions}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS embeddings (
		filename TEXT NOT NULL,
		chunk_index INTEGER NOT NULL,
		chunk_text TEXT NOT NULL,
		embedding BLOB NOT NULL,
		file_hash TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (filename, chunk_index)
	);

	CREATE INDEX IF NOT EXISTS idx_embeddings_filename ON embeddings(filename);

	CREATE TABLE IF NOT EXISTS processed_files (
		filename TEXT PRIMARY KEY,
		file_hash TEXT NOT NULL,
		processed_at TIMESTAMP NOT NULL,
		chunk_count INTEGER NOT NULL
	);
	`
	_, err := db.Exec(schema)
	return err
}

// encodeVector packs a float32 slice into a little-endian blob.
func encodeVector(vec []float32) []byte {
	buf := make([]byte, len(vec)*4)
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// decodeVector unpacks a little-endian blob into a float32 slice.
func decodeVector(buf []byte) ([]float32, error) {
	if len(buf)%4 != 0 {
		return nil, fmt.Errorf("embedding blob length %d is not a multiple of 4", len(buf))
	}
	vec := make([]float32, len(buf)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return vec, nil
}

// UpsertChunks inserts chunk records in a single transaction.
func (s *SQLiteStore) UpsertChunks(ctx context.Context, chunks []models.Chunk) error {
	for _, ch := range chunks {
		if len(ch.Embedding) != s.dimensions {
			return &Error{Err: fmt.Errorf("vector dimension mismatch: got %d, expected %d", len(ch.Embedding), s.dimensions)}
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &Error{Transient: true, Err: err}
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO embeddings (filename, chunk_index, chunk_text, embedding, file_hash, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return &Error{Err: err}
	}
	defer stmt.Close()

	for _, ch := range chunks {
		if _, err := stmt.ExecContext(ctx,
			ch.DocumentID, ch.ChunkIndex, ch.Text, encodeVector(ch.Embedding), ch.ContentHash, ch.CreatedAt,
		); err != nil {
			return &Error{Err: err}
		}
	}
	if err := tx.Commit(); err != nil {
		return &Error{Transient: true, Err: err}
	}
	return nil
}

// DeleteByDocument removes all chunks for a document.
func (s *SQLiteStore) DeleteByDocument(ctx context.Context, documentID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM embeddings WHERE filename = ?`, documentID); err != nil {
		return &Error{Err: err}
	}
	return nil
}

// Search scans stored vectors and ranks them by cosine similarity in Go.
func (s *SQLiteStore) Search(ctx context.Context, vector []float32, topK int, documentFilter string) ([]models.ScoredChunk, error) {
	if len(vector) != s.dimensions {
		return nil, &Error{Err: fmt.Errorf("query dimension mismatch: got %d, expected %d", len(vector), s.dimensions)}
	}
	if topK <= 0 {
		return nil, nil
	}

	query := `SELECT filename, chunk_index, chunk_text, embedding, file_hash, created_at FROM embeddings`
	args := []any{}
	if documentFilter != "" {
		query += ` WHERE filename = ?`
		args = append(args, documentFilter)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &Error{Err: err}
	}
	defer rows.Close()

	var scored []models.ScoredChunk
	for rows.Next() {
		var ch models.Chunk
		var blob []byte
		if err := rows.Scan(&ch.DocumentID, &ch.ChunkIndex, &ch.Text, &blob, &ch.ContentHash, &ch.CreatedAt); err != nil {
			return nil, &Error{Err: err}
		}
		vec, err := decodeVector(blob)
		if err != nil {
			return nil, &Error{Err: err}
		}
		ch.Embedding = vec
		scored = append(scored, models.ScoredChunk{
			Chunk:      ch,
			Similarity: utils.CosineSimilarity(vector, vec),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, &Error{Err: err}
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Similarity > scored[j].Similarity })
	if topK < len(scored) {
		scored = scored[:topK]
	}
	return scored, nil
}

// GetRegistryEntry returns the registry entry for a document, or ErrNotFound.
func (s *SQLiteStore) GetRegistryEntry(ctx context.Context, documentID string) (*models.RegistryEntry, error) {
	var entry models.RegistryEntry
	err := s.db.QueryRowContext(ctx,
		`SELECT filename, file_hash, processed_at, chunk_count FROM processed_files WHERE filename = ?`,
		documentID,
	).Scan(&entry.DocumentID, &entry.ContentHash, &entry.ProcessedAt, &entry.ChunkCount)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, &Error{Err: err}
	}
	return &entry, nil
}

// UpsertRegistryEntry writes the entry inside a transaction, guarded by the
// expected previous fingerprint.
func (s *SQLiteStore) UpsertRegistryEntry(ctx context.Context, entry models.RegistryEntry, prevHash string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &Error{Transient: true, Err: err}
	}
	defer tx.Rollback()

	var current string
	err = tx.QueryRowContext(ctx,
		`SELECT file_hash FROM processed_files WHERE filename = ?`, entry.DocumentID,
	).Scan(&current)
	switch {
	case err == sql.ErrNoRows:
		if prevHash != "" {
			return ErrConflict
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO processed_files (filename, file_hash, processed_at, chunk_count) VALUES (?, ?, ?, ?)`,
			entry.DocumentID, entry.ContentHash, entry.ProcessedAt, entry.ChunkCount,
		); err != nil {
			return &Error{Err: err}
		}
	case err != nil:
		return &Error{Err: err}
	default:
		if current != prevHash {
			return ErrConflict
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE processed_files SET file_hash = ?, processed_at = ?, chunk_count = ? WHERE filename = ?`,
			entry.ContentHash, entry.ProcessedAt, entry.ChunkCount, entry.DocumentID,
		); err != nil {
			return &Error{Err: err}
		}
	}
	if err := tx.Commit(); err != nil {
		return &Error{Transient: true, Err: err}
	}
	return nil
}

// DeleteRegistryEntry removes the registry entry for a document.
func (s *SQLiteStore) DeleteRegistryEntry(ctx context.Context, documentID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM processed_files WHERE filename = ?`, documentID); err != nil {
		return &Error{Err: err}
	}
	return nil
}

// CountDocuments returns the total number of registered documents.
func (s *SQLiteStore) CountDocuments(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM processed_files`).Scan(&count)
	if err != nil {
		return 0, &Error{Err: err}
	}
	return count, nil
}

// CountChunks returns the total number of stored chunks.
func (s *SQLiteStore) CountChunks(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM embeddings`).Scan(&count)
	if err != nil {
		return 0, &Error{Err: err}
	}
	return count, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
