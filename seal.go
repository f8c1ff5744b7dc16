package merkletree

import (
	"fmt"

	"github.com/ababo/merkle-tree/storage"
)

// Seal computes the root over the current leaf set. It can only succeed
// once: afterwards the tree rejects further AddBlock and Seal calls with
// ErrSealed.
//
// Every leaf is rehashed once, then Height()-1 rounds combine consecutive
// pairs of the current level. An unpaired trailing node is carried into the
// next level unchanged. The root of an empty tree is the digest of the empty
// input.
func (t *Tree) Seal() error {
	if t.IsSealed() {
		return ErrSealed
	}
	root, err := t.computeRoot()
	if err != nil {
		return err
	}
	t.root = root

	if t.log != nil {
		t.log.Debug(
			"Sealed Merkle tree",
			"blocks", len(t.leaves),
			"height", t.Height(),
			"root", Digest(root),
		)
	}
	return nil
}

func (t *Tree) computeRoot() ([]byte, error) {
	if len(t.leaves) == 0 {
		return t.hasher.EmptyRoot(), nil
	}

	level, err := t.hashLeaves()
	if err != nil {
		return nil, err
	}
	t.recordLeaves(level)

	rounds := t.Height() - 1
	for round := 1; round <= rounds; round++ {
		next, err := t.combiner.CombineLevel(level)
		if err != nil {
			return nil, fmt.Errorf("combining level %d of %d: %w", round, rounds, err)
		}
		t.recordLevel(level, next)
		level = next
	}

	if len(level) != 1 {
		panic(fmt.Errorf(
			"BUG: %d nodes left after %d rounds over %d leaves",
			len(level), rounds, len(t.leaves),
		))
	}
	return level[0], nil
}

func (t *Tree) hashLeaves() ([][]byte, error) {
	if t.batch != nil && len(t.leaves) >= parallelThreshold {
		return t.batch.HashLeaves(t.leaves)
	}
	level := make([][]byte, len(t.leaves))
	for i, leaf := range t.leaves {
		h, err := t.hasher.HashLeaf(leaf)
		if err != nil {
			return nil, err
		}
		level[i] = h
	}
	return level, nil
}

func (t *Tree) recordLeaves(level [][]byte) {
	if t.store == nil {
		return
	}
	for i, h := range level {
		val := make([]byte, 0, 1+len(t.leaves[i]))
		val = append(val, storage.LeafPrefix)
		val = append(val, t.leaves[i]...)
		t.store.Put(h, val)
	}
}

// recordLevel stores the children of every parent created in one round.
// A carried node is already in the store from an earlier round.
func (t *Tree) recordLevel(level, next [][]byte) {
	if t.store == nil {
		return
	}
	for i := 0; i+1 < len(level); i += 2 {
		val := make([]byte, 0, 1+len(level[i])+len(level[i+1]))
		val = append(val, storage.NodePrefix)
		val = append(val, level[i]...)
		val = append(val, level[i+1]...)
		t.store.Put(next[i/2], val)
	}
}
