package merkletree

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"hash"
	"log/slog"
	"math/bits"
	"slices"

	"github.com/ababo/merkle-tree/storage"
)

var (
	ErrSealed    = errors.New("merkle tree is sealed")
	ErrNotSealed = errors.New("merkle tree is not sealed")
)

type Options struct {
	InitialCapacity    int
	Workers            int
	NodeStore          storage.NodeStorer
	Logger             *slog.Logger
	SHA256Acceleration bool
}

type Option func(*Options)

// InitialCapacity sets the capacity of the internally used leaf slice to
// the passed in initial value (defaults is 128).
func InitialCapacity(cap int) Option {
	if cap < 0 {
		panic("Got invalid capacity. Expected int greater or equal to 0.")
	}
	return func(opts *Options) {
		opts.InitialCapacity = cap
	}
}

// Workers sets the number of goroutines used to hash the leaf level and wide
// inner levels while sealing. Defaults to 1, which hashes everything on the
// calling goroutine.
func Workers(n int) Option {
	if n < 1 {
		panic("Got invalid number of workers. Expected int greater or equal to 1.")
	}
	return func(opts *Options) {
		opts.Workers = n
	}
}

// NodeStore makes Seal record every leaf and inner node it computes in store.
func NodeStore(store storage.NodeStorer) Option {
	return func(opts *Options) {
		opts.NodeStore = store
	}
}

// WithLogger sets the logger used for debug output while sealing.
// The tree logs nothing by default.
func WithLogger(log *slog.Logger) Option {
	return func(opts *Options) {
		opts.Logger = log
	}
}

// WithSHA256Acceleration combines inner levels with the vectorized SHA-256
// implementation of gohashtree. The tree's hash function must be SHA-256;
// New panics otherwise.
func WithSHA256Acceleration() Option {
	return func(opts *Options) {
		opts.SHA256Acceleration = true
	}
}

// Tree is a binary Merkle tree over a set of block digests.
//
// Leaves are kept in raw byte order with duplicates collapsed, so the root
// commits to the set of blocks regardless of insertion order. The tree is
// append-only until Seal, which computes the root exactly once.
//
// A Tree is not safe for concurrent mutation. Once sealed, all read methods
// may be called concurrently.
type Tree struct {
	hasher   *Hasher
	combiner levelCombiner
	batch    *BatchProcessor
	store    storage.NodeStorer
	log      *slog.Logger

	leaves [][]byte
	root   []byte
}

// New returns an empty, unsealed tree using the hash function created by
// newHash for leaf rehashing and pairwise combination.
func New(newHash func() hash.Hash, setters ...Option) *Tree {
	// default options:
	opts := &Options{
		InitialCapacity: 128,
		Workers:         1,
	}
	for _, setter := range setters {
		setter(opts)
	}

	hasher := NewHasher(newHash)
	t := &Tree{
		hasher: hasher,
		store:  opts.NodeStore,
		log:    opts.Logger,
		leaves: make([][]byte, 0, opts.InitialCapacity),
	}
	if opts.Workers > 1 {
		t.batch = NewBatchProcessor(hasher, opts.Workers)
	}
	if opts.SHA256Acceleration {
		if empty := sha256.Sum256(nil); !bytes.Equal(hasher.EmptyRoot(), empty[:]) {
			panic("SHA-256 acceleration requires a SHA-256 hash function")
		}
		t.combiner = sha256Combiner{}
	} else {
		t.combiner = &genericCombiner{hasher: hasher, batch: t.batch}
	}
	return t
}

// NewSHA256 returns an empty SHA-256 tree with accelerated level combination.
func NewSHA256(setters ...Option) *Tree {
	return New(sha256.New, append([]Option{WithSHA256Acceleration()}, setters...)...)
}

// Size returns the digest size of the tree's hash function. Every leaf
// passed to AddBlock must have exactly this length.
func (t *Tree) Size() int {
	return t.hasher.Size()
}

// AddBlock adds the digest of a data block to the leaf set. Adding a digest
// that is already present is a no-op. The tree keeps its own copy of digest.
//
// AddBlock returns ErrSealed once the tree is sealed and ErrInvalidLeafLen
// if digest does not have the size of the tree's hash function.
func (t *Tree) AddBlock(digest []byte) error {
	if t.IsSealed() {
		return ErrSealed
	}
	if err := t.hasher.ValidateLeaf(digest); err != nil {
		return err
	}
	i, found := slices.BinarySearchFunc(t.leaves, digest, bytes.Compare)
	if found {
		return nil
	}
	t.leaves = slices.Insert(t.leaves, i, bytes.Clone(digest))
	return nil
}

// ContainsBlock reports whether digest is in the leaf set.
func (t *Tree) ContainsBlock(digest []byte) bool {
	if len(digest) != t.hasher.Size() {
		return false
	}
	_, found := slices.BinarySearchFunc(t.leaves, digest, bytes.Compare)
	return found
}

// NumBlocks returns the number of distinct leaves.
func (t *Tree) NumBlocks() int {
	return len(t.leaves)
}

// Height returns the number of levels of the tree, counting the leaf level.
func (t *Tree) Height() int {
	return heightOf(len(t.leaves))
}

// heightOf is 0 for no leaves, 1 for a single leaf and
// floor(log2(n-1)) + 2 otherwise.
func heightOf(n int) int {
	switch {
	case n <= 0:
		return 0
	case n == 1:
		return 1
	}
	return bits.Len(uint(n-1)) + 1
}

// Leaves returns the leaf set in canonical order.
func (t *Tree) Leaves() []Digest {
	out := make([]Digest, len(t.leaves))
	for i, leaf := range t.leaves {
		out[i] = bytes.Clone(leaf)
	}
	return out
}

// IsSealed reports whether Seal has completed.
func (t *Tree) IsSealed() bool {
	return t.root != nil
}

// Root returns the sealed root digest, or ErrNotSealed if Seal has not been
// called yet.
func (t *Tree) Root() (Digest, error) {
	if !t.IsSealed() {
		return nil, ErrNotSealed
	}
	return bytes.Clone(t.root), nil
}
