package merkletree

import (
	"bytes"
	"errors"
	"fmt"
	"hash"

	"github.com/gogo/protobuf/proto"
)

const snapshotVersion = 1

var (
	ErrMalformedSnapshot = errors.New("malformed merkle tree snapshot")
	ErrRootMismatch      = errors.New("snapshot root does not match its leaves")
)

// MarshalBinary encodes a sealed tree as a snapshot: version, digest size,
// leaf count, every leaf in canonical order and the root, using protobuf
// varint and length-delimited framing. The encoding of a tree is unique.
func (t *Tree) MarshalBinary() ([]byte, error) {
	if !t.IsSealed() {
		return nil, ErrNotSealed
	}
	size := t.hasher.Size()
	buf := proto.NewBuffer(make([]byte, 0, 8+(len(t.leaves)+1)*(size+2)))

	// Encoding into a growing buffer never fails.
	_ = buf.EncodeVarint(snapshotVersion)
	_ = buf.EncodeVarint(uint64(size))
	_ = buf.EncodeVarint(uint64(len(t.leaves)))
	for _, leaf := range t.leaves {
		_ = buf.EncodeRawBytes(leaf)
	}
	_ = buf.EncodeRawBytes(t.root)
	return buf.Bytes(), nil
}

// Unmarshal decodes a snapshot produced by MarshalBinary into a sealed tree.
// The root is recomputed from the decoded leaves with the hash function
// created by newHash; ErrRootMismatch is returned when it differs from the
// stored root. Any other deviation from the canonical encoding yields
// ErrMalformedSnapshot.
func Unmarshal(data []byte, newHash func() hash.Hash, setters ...Option) (*Tree, error) {
	buf := proto.NewBuffer(data)

	version, err := buf.DecodeVarint()
	if err != nil {
		return nil, fmt.Errorf("%w: reading version: %v", ErrMalformedSnapshot, err)
	}
	if version != snapshotVersion {
		return nil, fmt.Errorf("%w: unsupported version: got: %v, want: %v", ErrMalformedSnapshot, version, snapshotVersion)
	}

	size, err := buf.DecodeVarint()
	if err != nil {
		return nil, fmt.Errorf("%w: reading digest size: %v", ErrMalformedSnapshot, err)
	}
	count, err := buf.DecodeVarint()
	if err != nil {
		return nil, fmt.Errorf("%w: reading leaf count: %v", ErrMalformedSnapshot, err)
	}

	t := New(newHash, setters...)
	if size != uint64(t.Size()) {
		return nil, fmt.Errorf("%w: digest size: got: %v, want: %v", ErrMalformedSnapshot, size, t.Size())
	}
	// every leaf takes at least size bytes; reject counts the input cannot hold
	if count > uint64(len(data))/size {
		return nil, fmt.Errorf("%w: leaf count %v exceeds input of %v bytes", ErrMalformedSnapshot, count, len(data))
	}

	var prev []byte
	for i := uint64(0); i < count; i++ {
		leaf, err := buf.DecodeRawBytes(false)
		if err != nil {
			return nil, fmt.Errorf("%w: reading leaf %v: %v", ErrMalformedSnapshot, i, err)
		}
		if prev != nil && bytes.Compare(prev, leaf) >= 0 {
			return nil, fmt.Errorf("%w: leaf %v is not in canonical order", ErrMalformedSnapshot, i)
		}
		if err := t.AddBlock(leaf); err != nil {
			return nil, fmt.Errorf("%w: leaf %v: %v", ErrMalformedSnapshot, i, err)
		}
		prev = leaf
	}

	root, err := buf.DecodeRawBytes(false)
	if err != nil {
		return nil, fmt.Errorf("%w: reading root: %v", ErrMalformedSnapshot, err)
	}

	if err := t.Seal(); err != nil {
		return nil, err
	}
	if !bytes.Equal(root, t.root) {
		return nil, fmt.Errorf("%w: got: %X, want: %X", ErrRootMismatch, root, t.root)
	}

	// The only remaining difference to the canonical encoding can be
	// trailing input.
	encoded, err := t.MarshalBinary()
	if err != nil {
		return nil, err
	}
	if len(encoded) != len(data) {
		return nil, fmt.Errorf("%w: %v trailing bytes", ErrMalformedSnapshot, len(data)-len(encoded))
	}
	return t, nil
}
