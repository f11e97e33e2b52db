package jasper

import "io"

// Hasher computes content digests used for deduplication. It performs no I/O
// beyond reading what it is given. Digests are prefixed with the algorithm
// name ("sha256:<hex>") so values from different algorithms never collide.
type Hasher interface {
	Algorithm() string
	Sum(data []byte) string
	SumReader(r io.Reader) (digest string, size int64, err error)
}
