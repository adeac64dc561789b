package models

import "time"

// RegistryEntry records one successful ingestion per document identity.
// It exists if and only if at least one ingestion has completed for the
// document, and its ContentHash always matches the hash of the chunks
// currently stored for it.
type RegistryEntry struct {
	DocumentID  string    `json:"document_id" db:"filename"`
	ContentHash string    `json:"content_hash" db:"file_hash"`
	ProcessedAt time.Time `json:"processed_at" db:"processed_at"`
	ChunkCount  int       `json:"chunk_count" db:"chunk_count"`
}
