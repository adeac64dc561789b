package embedding

import (
	"context"
	"sync/atomic"
	"testing"
)

func TestCache_GetSet(t *testing.T) {
	c := NewCache(2)
	if _, ok := c.Get("missing"); ok {
		t.Error("empty cache should miss")
	}
	c.Set("a", []float32{1})
	if v, ok := c.Get("a"); !ok || v[0] != 1 {
		t.Errorf("got %v, %v", v, ok)
	}
}

func TestCache_Eviction(t *testing.T) {
	c := NewCache(2)
	c.Set("a", []float32{1})
	c.Set("b", []float32{2})
	_, _ = c.Get("a") // a is now most recently used
	c.Set("c", []float32{3})
	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("a should still be cached")
	}
}

// countingEmbedder wraps MockEmbedder, counting batch calls and item counts.
type countingEmbedder struct {
	*MockEmbedder
	calls int32
	items int32
}

func (c *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	atomic.AddInt32(&c.calls, 1)
	atomic.AddInt32(&c.items, 1)
	return c.MockEmbedder.Embed(ctx, text)
}

func (c *countingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	atomic.AddInt32(&c.calls, 1)
	atomic.AddInt32(&c.items, int32(len(texts)))
	return c.MockEmbedder.EmbedBatch(ctx, texts)
}

func TestCachedEmbedder_Embed(t *testing.T) {
	inner := &countingEmbedder{MockEmbedder: NewMockEmbedder(8)}
	e := WithCache(inner, 10)
	ctx := context.Background()

	v1, err := e.Embed(ctx, "hello")
	if err != nil {
		t.Fatal(err)
	}
	v2, err := e.Embed(ctx, "hello")
	if err != nil {
		t.Fatal(err)
	}
	if inner.calls != 1 {
		t.Errorf("expected 1 inner call, got %d", inner.calls)
	}
	for i := range v1 {
		if v1[i] != v2[i] {
			t.Fatal("cached vector should equal original")
		}
	}
}

func TestCachedEmbedder_EmbedBatchPartialHit(t *testing.T) {
	inner := &countingEmbedder{MockEmbedder: NewMockEmbedder(8)}
	e := WithCache(inner, 10)
	ctx := context.Background()

	if _, err := e.Embed(ctx, "b"); err != nil {
		t.Fatal(err)
	}
	vecs, err := e.EmbedBatch(ctx, []string{"a", "b", "c"})
	if err != nil {
		t.Fatal(err)
	}
	if len(vecs) != 3 {
		t.Fatalf("got %d vectors", len(vecs))
	}
	// "b" was cached; only "a" and "c" go to the inner embedder.
	if inner.items != 3 { // 1 from Embed + 2 misses
		t.Errorf("expected 3 items embedded, got %d", inner.items)
	}
	want, _ := inner.MockEmbedder.Embed(ctx, "b")
	for i := range want {
		if vecs[1][i] != want[i] {
			t.Fatal("cached vector out of order")
		}
	}
}

func TestWithCache_DisabledCapacity(t *testing.T) {
	inner := NewMockEmbedder(8)
	if e := WithCache(inner, 0); e != Embedder(inner) {
		t.Error("zero capacity should return the inner embedder")
	}
}
