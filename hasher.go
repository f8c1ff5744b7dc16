package merkletree

import (
	"errors"
	"fmt"
	"hash"
)

const (
	LeafPrefix = 0
	NodePrefix = 1
)

var (
	ErrInvalidLeafLen = errors.New("invalid Merkle leaf size")
	ErrInvalidNodeLen = errors.New("invalid Merkle node size")
)

// Hasher computes the leaf and inner node hashes of a Tree on top of an
// injected hash function. The base hash instance is reset and reused for
// every call, so a Hasher must not be shared between goroutines.
type Hasher struct {
	newHash    func() hash.Hash
	baseHasher hash.Hash
	size       int
}

// NewHasher returns a Hasher around the hash function created by newHash.
// newHash must return a fresh instance on every call.
func NewHasher(newHash func() hash.Hash) *Hasher {
	h := newHash()
	return &Hasher{
		newHash:    newHash,
		baseHasher: h,
		size:       h.Size(),
	}
}

// Size returns the number of bytes of every leaf and node hash.
func (h *Hasher) Size() int {
	return h.size
}

// Clone returns a Hasher with its own base hash instance.
func (h *Hasher) Clone() *Hasher {
	return NewHasher(h.newHash)
}

// EmptyRoot returns the digest of the empty input, which is the root of a
// sealed tree without leaves.
func (h *Hasher) EmptyRoot() []byte {
	h.baseHasher.Reset()
	return h.baseHasher.Sum(nil)
}

// ValidateLeaf returns ErrInvalidLeafLen if digest is not a digest of the
// underlying hash function.
func (h *Hasher) ValidateLeaf(digest []byte) error {
	if len(digest) != h.size {
		return fmt.Errorf("%w: got: %v, want: %v", ErrInvalidLeafLen, len(digest), h.size)
	}
	return nil
}

// ValidateNodes checks that both children of an inner node have the hash size.
func (h *Hasher) ValidateNodes(left, right []byte) error {
	if len(left) != h.size {
		return fmt.Errorf("%w: left child: got: %v, want: %v", ErrInvalidNodeLen, len(left), h.size)
	}
	if len(right) != h.size {
		return fmt.Errorf("%w: right child: got: %v, want: %v", ErrInvalidNodeLen, len(right), h.size)
	}
	return nil
}

// HashLeaf rehashes a block digest once before it enters the tree:
// H(digest). This keeps leaf-level values distinct from the raw block hashes
// supplied by the caller.
//
//nolint:errcheck
func (h *Hasher) HashLeaf(digest []byte) ([]byte, error) {
	if err := h.ValidateLeaf(digest); err != nil {
		return nil, err
	}
	b := h.baseHasher
	b.Reset()
	b.Write(digest)
	return b.Sum(make([]byte, 0, h.size)), nil
}

// MustHashLeaf is a wrapper around HashLeaf that panics if an error is
// encountered. The digest must be a valid leaf.
func (h *Hasher) MustHashLeaf(digest []byte) []byte {
	res, err := h.HashLeaf(digest)
	if err != nil {
		panic(err)
	}
	return res
}

// HashNode combines two children into their parent: H(left || right).
//
//nolint:errcheck
func (h *Hasher) HashNode(left, right []byte) ([]byte, error) {
	if err := h.ValidateNodes(left, right); err != nil {
		return nil, err
	}
	b := h.baseHasher
	b.Reset()

	// A single Write of the concatenation is a little faster than two
	// Writes on most hash implementations.
	data := make([]byte, 0, len(left)+len(right))
	data = append(data, left...)
	data = append(data, right...)
	b.Write(data)
	return b.Sum(make([]byte, 0, h.size)), nil
}
