package retrieval

import (
	"context"
	"testing"
	"time"

	"github.com/mizuame/kotaeru/internal/models"
	"github.com/mizuame/kotaeru/internal/store"
)

// fixedEmbedder returns the same vector for every input.
type fixedEmbedder struct {
	vec []float32
}

func (f *fixedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return f.vec, nil
}

func (f *fixedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = f.vec
	}
	return out, nil
}

func (f *fixedEmbedder) Dimensions() int { return len(f.vec) }
func (f *fixedEmbedder) Close() error    { return nil }

func seedChunk(docID string, vec []float32) models.Chunk {
	return models.Chunk{
		DocumentID:  docID,
		ChunkIndex:  0,
		Text:        "text of " + docID,
		Embedding:   vec,
		ContentHash: "h",
		CreatedAt:   time.Now(),
	}
}

func TestRetrieve_RankingAndTopK(t *testing.T) {
	ctx := context.Background()
	s, _ := store.NewMemoryStore(2)
	// Query vector (1,0); stored vectors give similarities ~0.9, ~0.4, ~0.7.
	_ = s.UpsertChunks(ctx, []models.Chunk{
		seedChunk("high.txt", []float32{0.9, 0.436}),
		seedChunk("low.txt", []float32{0.4, 0.917}),
		seedChunk("mid.txt", []float32{0.7, 0.714}),
	})
	e := NewEngine(s, &fixedEmbedder{vec: []float32{1, 0}}, 5, 20)

	hits, err := e.Retrieve(ctx, "question", 2, "")
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].Chunk.DocumentID != "high.txt" || hits[1].Chunk.DocumentID != "mid.txt" {
		t.Errorf("expected [high.txt mid.txt], got [%s %s]", hits[0].Chunk.DocumentID, hits[1].Chunk.DocumentID)
	}
	if hits[0].Similarity < hits[1].Similarity {
		t.Error("results should be in descending similarity order")
	}
}

func TestRetrieve_EmptyStore(t *testing.T) {
	s, _ := store.NewMemoryStore(2)
	e := NewEngine(s, &fixedEmbedder{vec: []float32{1, 0}}, 5, 20)

	hits, err := e.Retrieve(context.Background(), "anything", 0, "")
	if err != nil {
		t.Fatalf("Retrieve on empty store: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("expected empty result, got %d hits", len(hits))
	}
}

func TestRetrieve_DefaultsAndCap(t *testing.T) {
	ctx := context.Background()
	s, _ := store.NewMemoryStore(2)
	for i := 0; i < 30; i++ {
		ch := seedChunk("doc.txt", []float32{1, 0})
		ch.ChunkIndex = i
		_ = s.UpsertChunks(ctx, []models.Chunk{ch})
	}
	e := NewEngine(s, &fixedEmbedder{vec: []float32{1, 0}}, 5, 10)

	hits, err := e.Retrieve(ctx, "q", 0, "")
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(hits) != 5 {
		t.Errorf("topK 0 should use default 5, got %d", len(hits))
	}

	hits, err = e.Retrieve(ctx, "q", 1000, "")
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(hits) != 10 {
		t.Errorf("topK should be capped at 10, got %d", len(hits))
	}
}

func TestRetrieve_EmptyQuestion(t *testing.T) {
	s, _ := store.NewMemoryStore(2)
	e := NewEngine(s, &fixedEmbedder{vec: []float32{1, 0}}, 5, 20)
	if _, err := e.Retrieve(context.Background(), "", 5, ""); err == nil {
		t.Error("empty question should fail")
	}
}
