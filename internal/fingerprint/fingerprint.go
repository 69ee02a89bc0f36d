// Package fingerprint derives a stable content hash from a schema model.
// Two endpoints with equal fingerprints need no diff at all, and the hash is
// a compact way to record which schema state a script was generated against.
package fingerprint

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"

	"github.com/dbdelta/dbdelta/internal/model"
)

// Fingerprint is the hash of one normalized schema state.
type Fingerprint struct {
	Hash string `json:"hash"` // SHA-256 of the canonical JSON encoding
}

// Compute hashes the schema model. Pass a normalized model: fingerprints of
// unnormalized models differ across dialect spellings of the same schema.
// encoding/json sorts map keys, so the encoding is canonical.
func Compute(s *model.Schema) (*Fingerprint, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode schema for fingerprint: %w", err)
	}
	hash := sha256.Sum256(data)
	return &Fingerprint{Hash: fmt.Sprintf("%x", hash)}, nil
}

// Equal reports whether two fingerprints describe the same schema state.
func (f *Fingerprint) Equal(other *Fingerprint) bool {
	return other != nil && f.Hash == other.Hash
}

// Short returns the abbreviated hash used in log lines.
func (f *Fingerprint) Short() string {
	if len(f.Hash) >= 8 {
		return f.Hash[:8]
	}
	return f.Hash
}

// String returns a human-readable representation of the fingerprint.
func (f *Fingerprint) String() string {
	return fmt.Sprintf("Schema fingerprint: %s", f.Short())
}
