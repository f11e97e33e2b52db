// Package checksum provides the content digests used to detect duplicate
// resources.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"

	"github.com/zeebo/blake3"

	"jasper-go/internal/jasper"
)

const (
	SHA256 = "sha256"
	BLAKE3 = "blake3"
)

// Hasher computes "<algorithm>:<hex>" digests with a streaming hash.Hash.
type Hasher struct {
	algorithm string
	newHash   func() hash.Hash
}

// New returns the hasher for algorithm. An empty name selects SHA-256.
func New(algorithm string) (*Hasher, error) {
	switch algorithm {
	case SHA256, "":
		return NewSHA256(), nil
	case BLAKE3:
		return NewBLAKE3(), nil
	default:
		return nil, fmt.Errorf("unknown hash algorithm: %s", algorithm)
	}
}

func NewSHA256() *Hasher {
	return &Hasher{algorithm: SHA256, newHash: sha256.New}
}

func NewBLAKE3() *Hasher {
	return &Hasher{algorithm: BLAKE3, newHash: func() hash.Hash { return blake3.New() }}
}

func (h *Hasher) Algorithm() string { return h.algorithm }

// Sum digests data. Identical bytes always produce the identical digest.
func (h *Hasher) Sum(data []byte) string {
	d := h.newHash()
	d.Write(data)
	return h.format(d)
}

// SumReader digests everything readable from r and reports how many bytes it read.
func (h *Hasher) SumReader(r io.Reader) (string, int64, error) {
	d := h.newHash()
	n, err := io.Copy(d, r)
	if err != nil {
		return "", n, fmt.Errorf("hashing content: %w", err)
	}
	return h.format(d), n, nil
}

func (h *Hasher) format(d hash.Hash) string {
	return h.algorithm + ":" + hex.EncodeToString(d.Sum(nil))
}

var _ jasper.Hasher = (*Hasher)(nil)
