package models

import "fmt"

// AskRequest is a question against the ingested corpus.
type AskRequest struct {
	Question string `json:"question"`
	TopK     int    `json:"top_k,omitempty"`
	// DocumentFilter narrows retrieval to a single document when set.
	DocumentFilter string `json:"document_filter,omitempty"`
}

// Validate checks required fields and normalizes TopK against the given
// default and cap. Returns an error when the question is empty or TopK is
// negative.
func (r *AskRequest) Validate(defaultTopK, maxTopK int) error {
	if r.Question == "" {
		return fmt.Errorf("question cannot be empty")
	}
	if r.TopK < 0 {
		return fmt.Errorf("top_k must be positive")
	}
	if r.TopK == 0 {
		r.TopK = defaultTopK
	}
	if r.TopK > maxTopK {
		r.TopK = maxTopK
	}
	return nil
}

// AskResponse is the answer to a question with its supporting sources.
// Sources are ordered by descending similarity, matching the order the
// chunks appeared in the generation context.
type AskResponse struct {
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Sources  []Source `json:"sources"`
}

// IngestStatus reports what an ingestion run did.
type IngestStatus string

const (
	// IngestProcessed means the document was (re)chunked, embedded, and stored.
	IngestProcessed IngestStatus = "processed"
	// IngestSkipped means the stored fingerprint matched; nothing was written.
	IngestSkipped IngestStatus = "skipped"
)

// IngestResult is the outcome of one ingestion run.
type IngestResult struct {
	DocumentID string       `json:"document_id"`
	Status     IngestStatus `json:"status"`
	ChunkCount int          `json:"chunks"`
}
