package store

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/mizuame/kotaeru/internal/models"
)

// retryingStore wraps a Store and retries transient failures with bounded
// exponential backoff. Fatal errors, ErrNotFound, and ErrConflict return on
// the first attempt.
type retryingStore struct {
	inner      Store
	maxRetries int
	retryDelay time.Duration
}

// WithRetry decorates inner so transient failures (connectivity) are retried
// up to maxRetries additional times with exponential backoff and jitter.
// maxRetries <= 0 returns inner unchanged.
func WithRetry(inner Store, maxRetries int, retryDelay time.Duration) Store {
	if maxRetries <= 0 {
		return inner
	}
	if retryDelay <= 0 {
		retryDelay = 500 * time.Millisecond
	}
	return &retryingStore{inner: inner, maxRetries: maxRetries, retryDelay: retryDelay}
}

func (r *retryingStore) do(ctx context.Context, op func() error) error {
	var err error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(retryBackoff(r.retryDelay, attempt)):
			case <-ctx.Done():
				return &Error{Transient: true, Err: ctx.Err()}
			}
		}
		err = op()
		if err == nil || !IsTransient(err) {
			return err
		}
	}
	return err
}

func (r *retryingStore) UpsertChunks(ctx context.Context, chunks []models.Chunk) error {
	return r.do(ctx, func() error { return r.inner.UpsertChunks(ctx, chunks) })
}

func (r *retryingStore) DeleteByDocument(ctx context.Context, documentID string) error {
	return r.do(ctx, func() error { return r.inner.DeleteByDocument(ctx, documentID) })
}

func (r *retryingStore) Search(ctx context.Context, vector []float32, topK int, documentFilter string) ([]models.ScoredChunk, error) {
	var hits []models.ScoredChunk
	err := r.do(ctx, func() error {
		var opErr error
		hits, opErr = r.inner.Search(ctx, vector, topK, documentFilter)
		return opErr
	})
	return hits, err
}

func (r *retryingStore) GetRegistryEntry(ctx context.Context, documentID string) (*models.RegistryEntry, error) {
	var entry *models.RegistryEntry
	err := r.do(ctx, func() error {
		var opErr error
		entry, opErr = r.inner.GetRegistryEntry(ctx, documentID)
		return opErr
	})
	return entry, err
}

func (r *retryingStore) UpsertRegistryEntry(ctx context.Context, entry models.RegistryEntry, prevHash string) error {
	return r.do(ctx, func() error { return r.inner.UpsertRegistryEntry(ctx, entry, prevHash) })
}

func (r *retryingStore) DeleteRegistryEntry(ctx context.Context, documentID string) error {
	return r.do(ctx, func() error { return r.inner.DeleteRegistryEntry(ctx, documentID) })
}

func (r *retryingStore) CountDocuments(ctx context.Context) (int64, error) {
	var n int64
	err := r.do(ctx, func() error {
		var opErr error
		n, opErr = r.inner.CountDocuments(ctx)
		return opErr
	})
	return n, err
}

func (r *retryingStore) CountChunks(ctx context.Context) (int64, error) {
	var n int64
	err := r.do(ctx, func() error {
		var opErr error
		n, opErr = r.inner.CountChunks(ctx)
		return opErr
	})
	return n, err
}

func (r *retryingStore) Close() error { return r.inner.Close() }

// retryBackoff returns exponential backoff with jitter, capped at 10 seconds.
func retryBackoff(baseDelay time.Duration, attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	if attempt > 30 {
		attempt = 30
	}
	d := baseDelay * time.Duration(1<<uint(attempt))
	if d > 10*time.Second {
		d = 10 * time.Second
	}
	jitter := time.Duration(rand.Int64N(int64(d)/2)) - d/4
	return d + jitter
}
