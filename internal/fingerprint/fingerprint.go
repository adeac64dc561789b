// Package fingerprint computes deterministic content fingerprints for change detection.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hash returns the SHA-256 hex fingerprint of raw document bytes.
// Same bytes always yield the same fingerprint; it is the token the
// ingestion pipeline uses to decide whether a document changed.
func Hash(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
