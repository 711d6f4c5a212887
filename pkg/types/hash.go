package types

import (
	"crypto/sha256"
	"encoding/hex"
)

// ContentHashLength is the number of hex characters kept from the SHA-256
// digest. 16 hex chars (64 bits) keeps vector ids and index keys short;
// the truncated collision risk is an accepted trade-off.
const ContentHashLength = 16

// ComputeContentHash returns the truncated SHA-256 hex digest of text
func ComputeContentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])[:ContentHashLength]
}

// ValidContentHash reports whether s looks like a truncated content hash
func ValidContentHash(s string) bool {
	if len(s) != ContentHashLength {
		return false
	}
	for _, r := range s {
		ok := (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f')
		if !ok {
			return false
		}
	}
	return true
}
