// Package storage contains node stores that a sealing Merkle tree can record
// its leaves and inner nodes into.
package storage

import "bytes"

const (
	// redefined here to prevent import cycle:
	LeafPrefix = 0
	NodePrefix = 1
)

// NodeStorer maps node hashes to their preimages. A leaf hash maps to
// LeafPrefix || leaf digest, an inner node hash to NodePrefix || left || right.
type NodeStorer interface {
	Put(key []byte, val []byte)
	Get(key []byte) []byte
}

var _ NodeStorer = &InMemoryNodeStore{}

type InMemoryNodeStore struct {
	nodes map[string][]byte
	// This is only to traverse the nodes in insertion order.
	keys [][]byte
}

func NewInMemoryNodeStore() *InMemoryNodeStore {
	return &InMemoryNodeStore{
		nodes: make(map[string][]byte),
		keys:  make([][]byte, 0),
	}
}

func (i *InMemoryNodeStore) Get(key []byte) []byte {
	return i.nodes[string(key)]
}

// Put stores a copy of val under key. Storing the same key twice keeps the
// insertion position of the first Put.
func (i *InMemoryNodeStore) Put(key, val []byte) {
	_, present := i.nodes[string(key)]
	i.nodes[string(key)] = bytes.Clone(val)
	if !present {
		i.keys = append(i.keys, bytes.Clone(key))
	}
}

// IsLeaf reports whether key is stored as a leaf.
func (i *InMemoryNodeStore) IsLeaf(key []byte) bool {
	val, ok := i.nodes[string(key)]
	return ok && len(val) > 0 && val[0] == LeafPrefix
}

// Children splits the stored preimage of an inner node into its two
// children. It returns false for leaves and unknown keys.
func (i *InMemoryNodeStore) Children(key []byte) (left, right []byte, ok bool) {
	val, found := i.nodes[string(key)]
	if !found || len(val) == 0 || val[0] != NodePrefix || (len(val)-1)%2 != 0 {
		return nil, nil, false
	}
	half := (len(val) - 1) / 2
	return val[1 : 1+half], val[1+half:], true
}

// Keys returns the stored keys in insertion order.
func (i *InMemoryNodeStore) Keys() [][]byte {
	return i.keys
}

func (i InMemoryNodeStore) Count() int {
	return len(i.nodes)
}
