// Package answer assembles grounded prompts and produces attributed answers.
package answer

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mizuame/kotaeru/internal/generation"
	"github.com/mizuame/kotaeru/internal/models"
)

// InsufficientContextAnswer is returned without calling the generation model
// when retrieval produced no chunks.
const InsufficientContextAnswer = "I don't have enough information in the knowledge base to answer that question."

// Synthesizer turns a question and its retrieved chunks into an answer with
// source attributions. It holds no conversation state; each call is one
// generation request.
type Synthesizer struct {
	generator generation.Generator
	logger    *zap.Logger // optional
}

// SynthesizerOption configures a Synthesizer.
type SynthesizerOption func(*Synthesizer)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) SynthesizerOption {
	return func(s *Synthesizer) { s.logger = l }
}

// NewSynthesizer creates a synthesizer using the given generator.
func NewSynthesizer(g generation.Generator, opts ...SynthesizerOption) *Synthesizer {
	s := &Synthesizer{generator: g}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Answer builds a grounded prompt from hits (already ranked by descending
// similarity) and invokes the generation model once. When hits is empty it
// short-circuits with a fixed answer and no sources, without a model call.
// Generation failures propagate; there is no automatic retry.
func (s *Synthesizer) Answer(ctx context.Context, question string, hits []models.ScoredChunk) (*models.AskResponse, error) {
	if len(hits) == 0 {
		return &models.AskResponse{
			Question: question,
			Answer:   InsufficientContextAnswer,
			Sources:  []models.Source{},
		}, nil
	}

	prompt := buildPrompt(question, hits)
	text, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	sources := make([]models.Source, len(hits))
	for i, h := range hits {
		sources[i] = models.Source{
			Filename:   h.Chunk.DocumentID,
			ChunkIndex: h.Chunk.ChunkIndex,
			Similarity: h.Similarity,
		}
	}
	if s.logger != nil {
		s.logger.Debug("answer synthesized",
			zap.Int("sources", len(sources)),
			zap.Int("answer_chars", len(text)))
	}
	return &models.AskResponse{
		Question: question,
		Answer:   strings.TrimSpace(text),
		Sources:  sources,
	}, nil
}

// buildPrompt concatenates chunk texts in descending-similarity order, each
// tagged with its provenance so the model can cite and the returned sources
// stay aligned with what the model saw.
func buildPrompt(question string, hits []models.ScoredChunk) string {
	var b strings.Builder
	b.WriteString("You are an assistant that answers questions using only the context below.\n")
	b.WriteString("If the context does not contain the information needed, say so; do not make up an answer.\n\n")
	b.WriteString("Context:\n")
	for _, h := range hits {
		fmt.Fprintf(&b, "[Document: %s, Chunk %d]\n%s\n\n", h.Chunk.DocumentID, h.Chunk.ChunkIndex, h.Chunk.Text)
	}
	fmt.Fprintf(&b, "Question: %s\n\nAnswer:", question)
	return b.String()
}
