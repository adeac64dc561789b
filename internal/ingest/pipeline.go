// Package ingest orchestrates the document pipeline: extract, detect change,
// chunk, embed, and replace the stored chunk set.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mizuame/kotaeru/internal/chunker"
	"github.com/mizuame/kotaeru/internal/embedding"
	"github.com/mizuame/kotaeru/internal/extract"
	"github.com/mizuame/kotaeru/internal/models"
	"github.com/mizuame/kotaeru/internal/store"
	"github.com/mizuame/kotaeru/pkg/utils"
)

// Pipeline ingests documents: it extracts text, skips unchanged content,
// chunks, embeds, and replaces the document's chunk set as one logical unit.
type Pipeline struct {
	store     store.Store
	embedder  embedding.Embedder
	extractor *extract.Extractor
	chunker   *chunker.Chunker
	batchSize int
	locks     *keyedMutex
	logger    *zap.Logger // optional; when set, logs debug events
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithLogger sets a logger for debug output (document processed, skipped, etc.).
func WithLogger(l *zap.Logger) PipelineOption {
	return func(p *Pipeline) { p.logger = l }
}

// NewPipeline creates a pipeline with the given dependencies.
// extractor may be nil; when nil, all input is treated as plain text.
// batchSize bounds how many chunks go to the embedder per call.
func NewPipeline(
	s store.Store,
	embedder embedding.Embedder,
	extractor *extract.Extractor,
	ch *chunker.Chunker,
	batchSize int,
	opts ...PipelineOption,
) *Pipeline {
	if batchSize <= 0 {
		batchSize = 32
	}
	p := &Pipeline{
		store:     s,
		embedder:  embedder,
		extractor: extractor,
		chunker:   ch,
		batchSize: batchSize,
		locks:     newKeyedMutex(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Ingest processes one document's raw bytes. Unchanged content is a no-op
// skip. On success the store holds exactly the new chunk set and the registry
// reflects the new fingerprint; on failure the document's stored state is
// untouched. hint is a file extension or MIME type for extraction.
func (p *Pipeline) Ingest(ctx context.Context, documentID string, raw []byte, hint string) (*models.IngestResult, error) {
	runID := uuid.New().String()
	unlock := p.locks.Lock(documentID)
	defer unlock()

	if p.logger != nil {
		p.logger.Debug("ingest run started",
			zap.String("run_id", runID),
			zap.String("document_id", documentID),
			zap.Int("bytes", len(raw)))
	}

	text, err := p.extractText(raw, hint)
	if err != nil {
		return nil, &Error{DocumentID: documentID, Cause: CauseExtraction, Err: err}
	}
	text = utils.CollapseWhitespace(text)

	detector := NewDetector(p.store)
	needsProcessing, hash, prevHash, err := detector.Check(ctx, documentID, raw)
	if err != nil {
		return nil, &Error{DocumentID: documentID, Cause: CauseStore, Err: err}
	}
	if !needsProcessing {
		if p.logger != nil {
			p.logger.Debug("ingest skipping unchanged document",
				zap.String("run_id", runID),
				zap.String("document_id", documentID))
		}
		return &models.IngestResult{DocumentID: documentID, Status: models.IngestSkipped}, nil
	}

	texts := p.chunker.Chunk(text)
	now := time.Now().UTC()
	chunks := make([]models.Chunk, len(texts))

	// Embed everything before touching the store: a partial embedding set is
	// never partially committed.
	for start := 0; start < len(texts); start += p.batchSize {
		end := start + p.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		vectors, err := p.embedder.EmbedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, &Error{DocumentID: documentID, Cause: CauseEmbedding, Err: err}
		}
		for i, vec := range vectors {
			chunks[start+i] = models.Chunk{
				DocumentID:  documentID,
				ChunkIndex:  start + i,
				Text:        texts[start+i],
				Embedding:   vec,
				ContentHash: hash,
				CreatedAt:   now,
			}
		}
	}

	// Delete-old, insert-new, update-registry. The conditional registry
	// upsert is keyed on the previous fingerprint so a concurrent run for the
	// same document cannot silently overwrite this one.
	if err := p.store.DeleteByDocument(ctx, documentID); err != nil {
		return nil, &Error{DocumentID: documentID, Cause: CauseStore, Err: err}
	}
	if len(chunks) > 0 {
		if err := p.store.UpsertChunks(ctx, chunks); err != nil {
			return nil, &Error{DocumentID: documentID, Cause: CauseStore, Err: err}
		}
	}
	entry := models.RegistryEntry{
		DocumentID:  documentID,
		ContentHash: hash,
		ProcessedAt: now,
		ChunkCount:  len(chunks),
	}
	if err := p.store.UpsertRegistryEntry(ctx, entry, prevHash); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, &Error{DocumentID: documentID, Cause: CauseConflict, Err: err}
		}
		return nil, &Error{DocumentID: documentID, Cause: CauseStore, Err: err}
	}

	if p.logger != nil {
		p.logger.Debug("ingest run finished",
			zap.String("run_id", runID),
			zap.String("document_id", documentID),
			zap.Int("chunks", len(chunks)))
	}
	return &models.IngestResult{
		DocumentID: documentID,
		Status:     models.IngestProcessed,
		ChunkCount: len(chunks),
	}, nil
}

func (p *Pipeline) extractText(raw []byte, hint string) (string, error) {
	if p.extractor != nil {
		return p.extractor.ExtractBytes(raw, hint)
	}
	return string(raw), nil
}

// Delete removes a document's chunks and registry entry.
func (p *Pipeline) Delete(ctx context.Context, documentID string) error {
	unlock := p.locks.Lock(documentID)
	defer unlock()

	if err := p.store.DeleteByDocument(ctx, documentID); err != nil {
		return &Error{DocumentID: documentID, Cause: CauseStore, Err: err}
	}
	if err := p.store.DeleteRegistryEntry(ctx, documentID); err != nil {
		return &Error{DocumentID: documentID, Cause: CauseStore, Err: err}
	}
	if p.logger != nil {
		p.logger.Debug("ingest document deleted", zap.String("document_id", documentID))
	}
	return nil
}

// IngestFile reads the file at path and ingests it. The document ID is the
// base filename so re-ingesting the same file updates the same document.
// If allowedExts is non-empty, the file's extension must be in the list.
func (p *Pipeline) IngestFile(ctx context.Context, path string, allowedExts []string) (*models.IngestResult, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("absolute path: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(absPath))
	if len(allowedExts) > 0 && !extensionAllowed(ext, allowedExts) {
		return nil, fmt.Errorf("extension %q not in allowed list", ext)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("not a regular file: %s", absPath)
	}
	raw, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return p.Ingest(ctx, DocumentIDForPath(absPath), raw, ext)
}

// IngestDirectory walks dir and ingests each regular file whose extension is
// in allowedExts (if non-empty; otherwise all files). When recursive is
// false, subdirectories are skipped. Returns the number of files processed
// (not skipped) and the first error encountered, if any.
func (p *Pipeline) IngestDirectory(ctx context.Context, dir string, allowedExts []string, recursive bool) (n int, err error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return 0, fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(absDir)
	if err != nil {
		return 0, fmt.Errorf("stat directory: %w", err)
	}
	if !info.IsDir() {
		return 0, fmt.Errorf("not a directory: %s", absDir)
	}
	err = filepath.WalkDir(absDir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if !recursive && path != absDir {
				return filepath.SkipDir
			}
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if len(allowedExts) > 0 && !extensionAllowed(ext, allowedExts) {
			return nil
		}
		finfo, statErr := os.Stat(path)
		if statErr != nil {
			return nil
		}
		if !finfo.Mode().IsRegular() {
			return nil
		}
		result, ingestErr := p.IngestFile(ctx, path, allowedExts)
		if ingestErr != nil {
			return ingestErr
		}
		if result.Status == models.IngestProcessed {
			n++
		}
		return nil
	})
	return n, err
}

// DocumentIDForPath derives the document identity from a file path.
// The base filename is the identity, matching how uploads are keyed.
func DocumentIDForPath(path string) string {
	return filepath.Base(path)
}

func extensionAllowed(ext string, allowed []string) bool {
	extNorm := strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, a := range allowed {
		if strings.ToLower(strings.TrimPrefix(a, ".")) == extNorm {
			return true
		}
	}
	return false
}
