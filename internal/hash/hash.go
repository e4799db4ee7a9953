// Package hash implements content addressing for cache-busting output names.
//
// The identifier is the first 8 hex characters of the SHA-256 digest of the
// raw source bytes. Hashing the source (rather than the transformed output)
// keeps output names stable across minifier and bundler upgrades as long as
// the source itself is untouched.
package hash

import (
	"crypto/sha256"
	"encoding/hex"
)

// IDLength is the number of hex characters kept from the digest.
const IDLength = 8

// Content returns the short content identifier for the given bytes.
func Content(data []byte) string {
	sum := sha256.Sum256(data)

	return hex.EncodeToString(sum[:])[:IDLength]
}
