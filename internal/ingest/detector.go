package ingest

import (
	"context"
	"errors"

	"github.com/mizuame/kotaeru/internal/fingerprint"
	"github.com/mizuame/kotaeru/internal/store"
)

// Detector decides whether a document's raw bytes need (re)processing by
// comparing their fingerprint against the registry.
type Detector struct {
	store store.Store
}

// NewDetector creates a detector backed by the given store.
func NewDetector(s store.Store) *Detector {
	return &Detector{store: s}
}

// Check computes the fingerprint of raw and consults the registry.
// needsProcessing is false only when an entry exists with the same
// fingerprint. prevHash is the stored fingerprint, or "" when no entry
// exists; the caller passes it back as the conditional-upsert token.
func (d *Detector) Check(ctx context.Context, documentID string, raw []byte) (needsProcessing bool, hash, prevHash string, err error) {
	hash = fingerprint.Hash(raw)
	entry, err := d.store.GetRegistryEntry(ctx, documentID)
	if errors.Is(err, store.ErrNotFound) {
		return true, hash, "", nil
	}
	if err != nil {
		return false, "", "", err
	}
	if entry.ContentHash == hash {
		return false, hash, entry.ContentHash, nil
	}
	return true, hash, entry.ContentHash, nil
}
