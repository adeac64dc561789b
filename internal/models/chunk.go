// Package models defines core data structures for chunks, registry entries, and answers.
package models

import "time"

// Chunk is one unit of retrievable text: a contiguous slice of a document
// with its embedding and provenance.
type Chunk struct {
	DocumentID  string    `json:"document_id" db:"filename"`
	ChunkIndex  int       `json:"chunk_index" db:"chunk_index"`
	Text        string    `json:"chunk_text" db:"chunk_text"`
	Embedding   []float32 `json:"-" db:"embedding"`
	ContentHash string    `json:"content_hash" db:"file_hash"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// ScoredChunk is a retrieval hit: a chunk with its cosine similarity to the query.
type ScoredChunk struct {
	Chunk      Chunk   `json:"chunk"`
	Similarity float64 `json:"similarity"`
}

// Source identifies where part of an answer came from.
type Source struct {
	Filename   string  `json:"filename"`
	ChunkIndex int     `json:"chunk_index"`
	Similarity float64 `json:"similarity"`
}
