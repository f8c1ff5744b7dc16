package merkletree

import (
	"crypto/sha256"
	"fmt"

	"github.com/prysmaticlabs/gohashtree"
)

// sha256Combiner hashes a whole level in one call to gohashtree, which
// computes SHA-256 over consecutive 64-byte chunks using the vector
// instructions available on the host.
type sha256Combiner struct{}

func (sha256Combiner) CombineLevel(level [][]byte) ([][]byte, error) {
	pairs := len(level) / 2

	// left || right of every pair, back to back
	chunks := make([]byte, 0, 2*pairs*sha256.Size)
	for _, node := range level[:2*pairs] {
		if len(node) != sha256.Size {
			return nil, fmt.Errorf("%w: got: %v, want: %v", ErrInvalidNodeLen, len(node), sha256.Size)
		}
		chunks = append(chunks, node...)
	}

	digests := make([]byte, pairs*sha256.Size)
	if err := gohashtree.HashByteSlice(digests, chunks); err != nil {
		return nil, fmt.Errorf("hashing %d node pairs: %w", pairs, err)
	}

	next := make([][]byte, 0, pairs+len(level)%2)
	for i := 0; i < pairs; i++ {
		start, end := i*sha256.Size, (i+1)*sha256.Size
		next = append(next, digests[start:end:end])
	}
	if len(level)%2 == 1 {
		next = append(next, level[len(level)-1])
	}
	return next, nil
}
