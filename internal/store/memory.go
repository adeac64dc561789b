package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/mizuame/kotaeru/internal/models"
	"github.com/mizuame/kotaeru/pkg/utils"
)

// MemoryStore is an in-memory store with brute-force cosine search.
// Suitable for tests and small corpora.
type MemoryStore struct {
	dimensions int
	chunks     []models.Chunk
	registry   map[string]models.RegistryEntry
	mu         sync.RWMutex
}

// NewMemoryStore creates an in-memory store accepting vectors of the given width.
func NewMemoryStore(dimensions int) (*MemoryStore, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	return &MemoryStore{
		dimensions: dimensions,
		registry:   make(map[string]models.RegistryEntry),
	}, nil
}

// UpsertChunks appends chunk records, copying each embedding.
func (m *MemoryStore) UpsertChunks(ctx context.Context, chunks []models.Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ch := range chunks {
		if len(ch.Embedding) != m.dimensions {
			return &Error{Err: fmt.Errorf("vector dimension mismatch: got %d, expected %d", len(ch.Embedding), m.dimensions)}
		}
		vec := make([]float32, m.dimensions)
		copy(vec, ch.Embedding)
		ch.Embedding = vec
		m.chunks = append(m.chunks, ch)
	}
	return nil
}

// DeleteByDocument removes all chunks for a document.
func (m *MemoryStore) DeleteByDocument(ctx context.Context, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.chunks[:0]
	for _, ch := range m.chunks {
		if ch.DocumentID != documentID {
			kept = append(kept, ch)
		}
	}
	m.chunks = kept
	return nil
}

// Search returns the topK most similar chunks, descending by similarity.
func (m *MemoryStore) Search(ctx context.Context, vector []float32, topK int, documentFilter string) ([]models.ScoredChunk, error) {
	if len(vector) != m.dimensions {
		return nil, &Error{Err: fmt.Errorf("query dimension mismatch: got %d, expected %d", len(vector), m.dimensions)}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if topK <= 0 {
		return nil, nil
	}
	scored := make([]models.ScoredChunk, 0, len(m.chunks))
	for _, ch := range m.chunks {
		if documentFilter != "" && ch.DocumentID != documentFilter {
			continue
		}
		scored = append(scored, models.ScoredChunk{
			Chunk:      ch,
			Similarity: utils.CosineSimilarity(vector, ch.Embedding),
		})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Similarity > scored[j].Similarity })
	if topK < len(scored) {
		scored = scored[:topK]
	}
	return scored, nil
}

// GetRegistryEntry returns the registry entry for a document, or ErrNotFound.
func (m *MemoryStore) GetRegistryEntry(ctx context.Context, documentID string) (*models.RegistryEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.registry[documentID]
	if !ok {
		return nil, ErrNotFound
	}
	return &entry, nil
}

// UpsertRegistryEntry writes the entry when the stored fingerprint equals prevHash.
func (m *MemoryStore) UpsertRegistryEntry(ctx context.Context, entry models.RegistryEntry, prevHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.registry[entry.DocumentID]
	if ok && current.ContentHash != prevHash {
		return ErrConflict
	}
	if !ok && prevHash != "" {
		return ErrConflict
	}
	m.registry[entry.DocumentID] = entry
	return nil
}

// CountDocuments returns the number of registry entries.
func (m *MemoryStore) CountDocuments(ctx context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.registry)), nil
}

// CountChunks returns the number of stored chunks.
func (m *MemoryStore) CountChunks(ctx context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.chunks)), nil
}

// Close is a no-op for MemoryStore.
func (m *MemoryStore) Close() error { return nil }

// DeleteRegistryEntry removes the registry entry for a document. Used when a
// document is removed from the corpus entirely.
func (m *MemoryStore) DeleteRegistryEntry(ctx context.Context, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.registry, documentID)
	return nil
}
