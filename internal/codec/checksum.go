package codec

import "github.com/zeebo/xxh3"

// Checksum computes the 64-bit xxh3 digest of data. Manifests store this
// value over their body (which embeds every segment meta) so a reader can
// detect truncated or corrupted writes before trusting the rest of the
// file (spec.md §6's "checksum" field on the manifest).
func Checksum(data []byte) uint64 {
	return xxh3.Hash(data)
}

// VerifyChecksum reports whether data matches the previously recorded digest.
func VerifyChecksum(data []byte, want uint64) bool {
	return Checksum(data) == want
}
