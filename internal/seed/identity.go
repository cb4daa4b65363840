package seed

import (
	"crypto/sha256"
	"encoding/hex"
)

// IDLength is the number of hex characters kept from the digest. 16 hex chars
// (64 bits) keeps collision probability negligible for corpora up to the low
// millions of entries.
const IDLength = 16

// ContentID derives the stable identity of a seed from its raw input bytes.
// Byte-identical inputs always map to the same ID, which is what makes
// corpus deduplication work.
func ContentID(input []byte) string {
	sum := sha256.Sum256(input)
	return hex.EncodeToString(sum[:])[:IDLength]
}
