package merkletree_test

import (
	"crypto/sha256"
	"crypto/sha512"
	"testing"

	"github.com/gogo/protobuf/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	merkletree "github.com/ababo/merkle-tree"
)

func sealedTree(t *testing.T, n int) *merkletree.Tree {
	t.Helper()
	tree := merkletree.NewSHA256()
	for _, d := range blockDigests(n) {
		require.NoError(t, tree.AddBlock(d))
	}
	require.NoError(t, tree.Seal())
	return tree
}

// encodeSnapshot builds a snapshot by hand, bypassing the tree invariants.
func encodeSnapshot(version, size uint64, leaves [][]byte, root []byte) []byte {
	buf := proto.NewBuffer(nil)
	_ = buf.EncodeVarint(version)
	_ = buf.EncodeVarint(size)
	_ = buf.EncodeVarint(uint64(len(leaves)))
	for _, l := range leaves {
		_ = buf.EncodeRawBytes(l)
	}
	_ = buf.EncodeRawBytes(root)
	return buf.Bytes()
}

func TestSnapshotRoundTrip(t *testing.T) {
	for _, n := range []int{0, 1, 2, 7, 20} {
		tree := sealedTree(t, n)
		data, err := tree.MarshalBinary()
		require.NoError(t, err)

		got, err := merkletree.Unmarshal(data, sha256.New)
		require.NoError(t, err, "%d blocks", n)

		assert.True(t, got.IsSealed())
		assert.Equal(t, tree.NumBlocks(), got.NumBlocks())
		assert.Equal(t, tree.Height(), got.Height())
		assert.Equal(t, tree.Leaves(), got.Leaves())

		want, _ := tree.Root()
		root, err := got.Root()
		require.NoError(t, err)
		assert.Equal(t, want, root)

		// the decoded tree is sealed like the original
		require.ErrorIs(t, got.AddBlock(sha([]byte("late"))), merkletree.ErrSealed)
	}
}

func TestSnapshotLayout(t *testing.T) {
	tree := sealedTree(t, 3)
	data, err := tree.MarshalBinary()
	require.NoError(t, err)

	leaves := make([][]byte, 0, 3)
	for _, l := range tree.Leaves() {
		leaves = append(leaves, l)
	}
	root, _ := tree.Root()
	assert.Equal(t, encodeSnapshot(1, sha256.Size, leaves, root), data)
}

func TestMarshalUnsealed(t *testing.T) {
	tree := merkletree.New(sha256.New)
	_, err := tree.MarshalBinary()
	require.ErrorIs(t, err, merkletree.ErrNotSealed)
}

func TestUnmarshalErrors(t *testing.T) {
	tree := sealedTree(t, 5)
	valid, err := tree.MarshalBinary()
	require.NoError(t, err)

	var leaves [][]byte
	for _, l := range tree.Leaves() {
		leaves = append(leaves, l)
	}
	root, _ := tree.Root()

	badRoot := append([]byte(nil), root...)
	badRoot[0] ^= 0x01

	swapped := append([][]byte(nil), leaves...)
	swapped[0], swapped[1] = swapped[1], swapped[0]

	duplicated := append([][]byte(nil), leaves...)
	duplicated[1] = duplicated[0]

	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{"empty input", nil, merkletree.ErrMalformedSnapshot},
		{"truncated", valid[:len(valid)-1], merkletree.ErrMalformedSnapshot},
		{"trailing bytes", append(append([]byte(nil), valid...), 0), merkletree.ErrMalformedSnapshot},
		{"unknown version", encodeSnapshot(2, sha256.Size, leaves, root), merkletree.ErrMalformedSnapshot},
		{"wrong digest size", encodeSnapshot(1, 20, leaves, root), merkletree.ErrMalformedSnapshot},
		{"unsorted leaves", encodeSnapshot(1, sha256.Size, swapped, root), merkletree.ErrMalformedSnapshot},
		{"duplicate leaves", encodeSnapshot(1, sha256.Size, duplicated, root), merkletree.ErrMalformedSnapshot},
		{"short leaf", encodeSnapshot(1, sha256.Size, [][]byte{leaves[0][:31]}, root), merkletree.ErrMalformedSnapshot},
		{"missing leaf count", encodeSnapshot(1, sha256.Size, nil, root)[:2], merkletree.ErrMalformedSnapshot},
		{"tampered root", encodeSnapshot(1, sha256.Size, leaves, badRoot), merkletree.ErrRootMismatch},
		{"missing leaf", encodeSnapshot(1, sha256.Size, leaves[1:], root), merkletree.ErrRootMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := merkletree.Unmarshal(tt.data, sha256.New)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, got)
		})
	}
}

func TestUnmarshalOtherHash(t *testing.T) {
	data, err := sealedTree(t, 4).MarshalBinary()
	require.NoError(t, err)

	// a SHA-512 tree cannot read a SHA-256 snapshot
	_, err = merkletree.Unmarshal(data, sha512.New)
	require.ErrorIs(t, err, merkletree.ErrMalformedSnapshot)
}

func TestUnmarshalHugeLeafCount(t *testing.T) {
	buf := proto.NewBuffer(nil)
	_ = buf.EncodeVarint(1)
	_ = buf.EncodeVarint(sha256.Size)
	_ = buf.EncodeVarint(1 << 40)

	_, err := merkletree.Unmarshal(buf.Bytes(), sha256.New)
	require.ErrorIs(t, err, merkletree.ErrMalformedSnapshot)
}
