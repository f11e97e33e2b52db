package testutil

import (
	"crypto/sha256"
	"encoding/hex"

	"jasper-go/internal/checksum"
	"jasper-go/internal/jasper"
)

// SHA256Digest returns the digest of data in the "sha256:<hex>" form the
// default hasher produces.
func SHA256Digest(data []byte) string {
	h := sha256.Sum256(data)
	return "sha256:" + hex.EncodeToString(h[:])
}

// NewTestHasher returns the default SHA-256 hasher.
func NewTestHasher() jasper.Hasher {
	return checksum.NewSHA256()
}
