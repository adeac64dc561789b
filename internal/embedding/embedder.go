// Package embedding provides text embedding via a remote model, with caching.
package embedding

import (
	"context"
	"errors"
	"fmt"
)

// Embedder produces vector embeddings for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	// EmbedBatch returns one vector per input, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}

// Error reports a failed embedding call. Retryable errors are transient
// provider failures (rate limits, timeouts, 5xx); non-retryable errors are
// fatal for the item (oversized input, dimension mismatch, auth).
type Error struct {
	Retryable bool
	Err       error
}

func (e *Error) Error() string {
	if e.Retryable {
		return fmt.Sprintf("embedding (retryable): %v", e.Err)
	}
	return fmt.Sprintf("embedding: %v", e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsRetryable reports whether err is a transient embedding failure.
func IsRetryable(err error) bool {
	var embErr *Error
	return errors.As(err, &embErr) && embErr.Retryable
}
