package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mizuame/kotaeru/internal/models"
)

// flakyStore delegates to a MemoryStore but fails the first failures calls
// of every operation with a transient error.
type flakyStore struct {
	*MemoryStore
	failures int
	calls    int
}

func (f *flakyStore) failNext() error {
	f.calls++
	if f.calls <= f.failures {
		return &Error{Transient: true, Err: errors.New("connection reset")}
	}
	return nil
}

func (f *flakyStore) GetRegistryEntry(ctx context.Context, documentID string) (*models.RegistryEntry, error) {
	if err := f.failNext(); err != nil {
		return nil, err
	}
	return f.MemoryStore.GetRegistryEntry(ctx, documentID)
}

func (f *flakyStore) UpsertChunks(ctx context.Context, chunks []models.Chunk) error {
	if err := f.failNext(); err != nil {
		return err
	}
	return f.MemoryStore.UpsertChunks(ctx, chunks)
}

func newFlakyStore(t *testing.T, failures int) *flakyStore {
	t.Helper()
	inner, err := NewMemoryStore(3)
	if err != nil {
		t.Fatalf("NewMemoryStore: %v", err)
	}
	return &flakyStore{MemoryStore: inner, failures: failures}
}

func TestWithRetry_TransientFailureRecovers(t *testing.T) {
	ctx := context.Background()
	flaky := newFlakyStore(t, 2)
	s := WithRetry(flaky, 3, time.Millisecond)

	entry := models.RegistryEntry{DocumentID: "a.txt", ContentHash: "h1", ChunkCount: 1}
	if err := flaky.MemoryStore.UpsertRegistryEntry(ctx, entry, ""); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetRegistryEntry(ctx, "a.txt")
	if err != nil {
		t.Fatalf("GetRegistryEntry should succeed after retries: %v", err)
	}
	if got.ContentHash != "h1" {
		t.Errorf("got hash %s", got.ContentHash)
	}
	if flaky.calls != 3 {
		t.Errorf("expected 3 attempts (2 failures + 1 success), got %d", flaky.calls)
	}
}

func TestWithRetry_WriteRecovers(t *testing.T) {
	ctx := context.Background()
	flaky := newFlakyStore(t, 1)
	s := WithRetry(flaky, 3, time.Millisecond)

	err := s.UpsertChunks(ctx, []models.Chunk{testChunk("a.txt", 0, "h1", []float32{1, 0, 0})})
	if err != nil {
		t.Fatalf("UpsertChunks should succeed after retry: %v", err)
	}
	if n, _ := flaky.MemoryStore.CountChunks(ctx); n != 1 {
		t.Errorf("expected 1 chunk committed, got %d", n)
	}
}

func TestWithRetry_BoundedAttempts(t *testing.T) {
	ctx := context.Background()
	flaky := newFlakyStore(t, 100)
	s := WithRetry(flaky, 2, time.Millisecond)

	_, err := s.GetRegistryEntry(ctx, "a.txt")
	if err == nil {
		t.Fatal("persistent transient failure should surface")
	}
	if !IsTransient(err) {
		t.Errorf("exhausted retries should keep the transient classification: %v", err)
	}
	if flaky.calls != 3 {
		t.Errorf("expected maxRetries+1 = 3 attempts, got %d", flaky.calls)
	}
}

func TestWithRetry_FatalErrorNotRetried(t *testing.T) {
	ctx := context.Background()
	flaky := newFlakyStore(t, 0)
	s := WithRetry(flaky, 3, time.Millisecond)

	// ErrNotFound is not transient; one attempt, no backoff.
	_, err := s.GetRegistryEntry(ctx, "missing.txt")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if flaky.calls != 1 {
		t.Errorf("fatal error should not be retried, got %d attempts", flaky.calls)
	}
}

func TestWithRetry_ConflictNotRetried(t *testing.T) {
	ctx := context.Background()
	inner, _ := NewMemoryStore(3)
	s := WithRetry(inner, 3, time.Millisecond)

	entry := models.RegistryEntry{DocumentID: "a.txt", ContentHash: "h1", ChunkCount: 1}
	if err := s.UpsertRegistryEntry(ctx, entry, ""); err != nil {
		t.Fatal(err)
	}
	entry.ContentHash = "h2"
	if err := s.UpsertRegistryEntry(ctx, entry, "stale"); !errors.Is(err, ErrConflict) {
		t.Errorf("expected ErrConflict to pass through, got %v", err)
	}
}

func TestWithRetry_CanceledContextStopsWaiting(t *testing.T) {
	flaky := newFlakyStore(t, 100)
	s := WithRetry(flaky, 5, 10*time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	_, err := s.GetRegistryEntry(ctx, "a.txt")
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context cancellation, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Error("cancellation should short-circuit the backoff wait")
	}
}

func TestWithRetry_DisabledReturnsInner(t *testing.T) {
	inner, _ := NewMemoryStore(3)
	if s := WithRetry(inner, 0, time.Millisecond); s != Store(inner) {
		t.Error("zero maxRetries should return the inner store")
	}
}

func TestRetryBackoff_Bounds(t *testing.T) {
	if retryBackoff(time.Millisecond, 0) != 0 {
		t.Error("attempt 0 should not wait")
	}
	for attempt := 1; attempt < 40; attempt++ {
		d := retryBackoff(100*time.Millisecond, attempt)
		if d < 0 || d > 13*time.Second { // 10s cap plus jitter headroom
			t.Fatalf("attempt %d: backoff %v out of bounds", attempt, d)
		}
	}
}
