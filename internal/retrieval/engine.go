// Package retrieval finds the chunks most relevant to a question.
package retrieval

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mizuame/kotaeru/internal/embedding"
	"github.com/mizuame/kotaeru/internal/models"
	"github.com/mizuame/kotaeru/internal/store"
	"github.com/mizuame/kotaeru/pkg/utils"
)

// Engine embeds a question and searches the store for the closest chunks.
// The embedder must be the same model and dimension used at ingestion time,
// otherwise the distances are meaningless.
type Engine struct {
	store       store.Store
	embedder    embedding.Embedder
	defaultTopK int
	maxTopK     int
	logger      *zap.Logger // optional
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// NewEngine creates a retrieval engine. defaultTopK is used when the caller
// passes topK <= 0; maxTopK caps caller-supplied values to bound prompt size.
func NewEngine(s store.Store, embedder embedding.Embedder, defaultTopK, maxTopK int, opts ...EngineOption) *Engine {
	if defaultTopK <= 0 {
		defaultTopK = 5
	}
	if maxTopK <= 0 {
		maxTopK = 20
	}
	e := &Engine{
		store:       s,
		embedder:    embedder,
		defaultTopK: defaultTopK,
		maxTopK:     maxTopK,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Retrieve returns up to topK chunks ranked by descending cosine similarity
// to the question. An empty store yields an empty result, not an error.
// documentFilter narrows the search to one document when non-empty.
func (e *Engine) Retrieve(ctx context.Context, question string, topK int, documentFilter string) ([]models.ScoredChunk, error) {
	if question == "" {
		return nil, fmt.Errorf("question is empty")
	}
	if topK <= 0 {
		topK = e.defaultTopK
	}
	if topK > e.maxTopK {
		topK = e.maxTopK
	}

	vector, err := e.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}
	hits, err := e.store.Search(ctx, vector, topK, documentFilter)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	if e.logger != nil {
		e.logger.Debug("retrieval complete",
			zap.String("question", utils.Truncate(question, 80)),
			zap.Int("top_k", topK),
			zap.Int("hits", len(hits)))
	}
	return hits, nil
}
