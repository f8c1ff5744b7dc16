package merkletree_test

import (
	"bytes"
	"crypto/sha256"
	"math/rand"
	"testing"

	fuzz "github.com/google/gofuzz"
	"github.com/stretchr/testify/require"

	merkletree "github.com/ababo/merkle-tree"
)

func TestFuzzOrderIndependence(t *testing.T) {
	if testing.Short() {
		t.Skip("TestFuzzOrderIndependence skipped in short mode.")
	}
	var (
		minNumberOfBlocks = 0
		maxNumberOfBlocks = 300

		// fraction of additions repeating an earlier block
		duplicateProbability = 0.2

		rounds = 50
	)

	f := fuzz.New().NilChance(0).NumElements(minNumberOfBlocks, maxNumberOfBlocks)
	rnd := rand.New(rand.NewSource(1))
	for round := 0; round < rounds; round++ {
		var digests [][sha256.Size]byte
		f.Fuzz(&digests)

		// mix in repeats of already generated digests
		additions := make([][]byte, 0, len(digests))
		for i := range digests {
			additions = append(additions, digests[i][:])
			if i > 0 && rnd.Float64() < duplicateProbability {
				additions = append(additions, digests[rnd.Intn(i)][:])
			}
		}
		distinct := make(map[[sha256.Size]byte]struct{}, len(digests))
		for _, d := range digests {
			distinct[d] = struct{}{}
		}

		forward := merkletree.New(sha256.New)
		for _, d := range additions {
			require.NoError(t, forward.AddBlock(d))
		}
		require.Equal(t, len(distinct), forward.NumBlocks())

		shuffled := append([][]byte(nil), additions...)
		rnd.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})
		backward := merkletree.NewSHA256(merkletree.Workers(4))
		for _, d := range shuffled {
			require.NoError(t, backward.AddBlock(d))
		}

		for d := range distinct {
			require.True(t, backward.ContainsBlock(d[:]))
		}
		require.Equal(t, forward.Height(), backward.Height())

		require.NoError(t, forward.Seal())
		require.NoError(t, backward.Seal())
		want, err := forward.Root()
		require.NoError(t, err)
		got, err := backward.Root()
		require.NoError(t, err)
		require.Equal(t, want, got, "round %d with %d blocks", round, len(distinct))
	}
}

func FuzzAddBlock(f *testing.F) {
	if testing.Short() {
		f.Skip("skipping")
	}

	// Add the fuzzer seeds.
	f.Add([]byte{}, uint8(0))
	f.Add(bytes.Repeat([]byte{0xAB}, 3*sha256.Size), uint8(1))
	f.Add(bytes.Repeat([]byte{0x01, 0x02}, 5*sha256.Size), uint8(7))

	f.Fuzz(func(t *testing.T, data []byte, rotate uint8) {
		var digests [][]byte
		for len(data) >= sha256.Size {
			digests = append(digests, data[:sha256.Size])
			data = data[sha256.Size:]
		}

		a := merkletree.New(sha256.New)
		for _, d := range digests {
			if err := a.AddBlock(d); err != nil {
				t.Fatalf("AddBlock: %v", err)
			}
		}
		if len(data) > 0 {
			if err := a.AddBlock(data); err == nil {
				t.Fatalf("AddBlock accepted a %d byte digest", len(data))
			}
		}

		// the same digests in rotated order
		b := merkletree.NewSHA256()
		if len(digests) > 0 {
			k := int(rotate) % len(digests)
			for _, d := range append(digests[k:], digests[:k]...) {
				if err := b.AddBlock(d); err != nil {
					t.Fatalf("AddBlock: %v", err)
				}
			}
		}

		if err := a.Seal(); err != nil {
			t.Fatal(err)
		}
		if err := b.Seal(); err != nil {
			t.Fatal(err)
		}
		ra, _ := a.Root()
		rb, _ := b.Root()
		if !ra.Equal(rb) {
			t.Fatalf("roots differ: %X != %X", ra, rb)
		}
	})
}
