package ingest

import "fmt"

// Cause tags classify why an ingestion run failed.
type Cause string

const (
	CauseExtraction Cause = "extraction"
	CauseEmbedding  Cause = "embedding"
	CauseStore      Cause = "store"
	CauseConflict   Cause = "conflict"
)

// Error reports a failed ingestion run for one document. The document's
// stored state is unchanged: a retry of the whole document is safe.
type Error struct {
	DocumentID string
	Cause      Cause
	Err        error
}

func (e *Error) Error() string {
	return fmt.Sprintf("ingest %s (%s): %v", e.DocumentID, e.Cause, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
