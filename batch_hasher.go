package merkletree

import (
	"sync"

	"golang.org/x/sync/errgroup"
)

// parallelThreshold is the smallest number of hash operations in one level
// that is split across workers. Below it the goroutine overhead outweighs
// the gain.
const parallelThreshold = 256

// BatchProcessor hashes independent leaves and node pairs of one tree level
// in parallel.
type BatchProcessor struct {
	maxWorkers int
	hasherPool sync.Pool
}

// NewBatchProcessor creates a batch processor running up to maxWorkers
// goroutines, each with its own clone of h.
func NewBatchProcessor(h *Hasher, maxWorkers int) *BatchProcessor {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	return &BatchProcessor{
		maxWorkers: maxWorkers,
		hasherPool: sync.Pool{
			New: func() interface{} {
				return h.Clone()
			},
		},
	}
}

// HashLeaves rehashes every leaf digest; the result is aligned with leaves.
func (bp *BatchProcessor) HashLeaves(leaves [][]byte) ([][]byte, error) {
	out := make([][]byte, len(leaves))
	err := bp.run(len(leaves), func(h *Hasher, i int) error {
		res, err := h.HashLeaf(leaves[i])
		if err != nil {
			return err
		}
		out[i] = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// HashNodes combines the pairs (2i, 2i+1) of level. A trailing odd node is
// ignored; the caller carries it.
func (bp *BatchProcessor) HashNodes(level [][]byte) ([][]byte, error) {
	out := make([][]byte, len(level)/2)
	err := bp.run(len(out), func(h *Hasher, i int) error {
		res, err := h.HashNode(level[2*i], level[2*i+1])
		if err != nil {
			return err
		}
		out[i] = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// run calls fn for every index in [0, n), split into one contiguous chunk
// per worker.
func (bp *BatchProcessor) run(n int, fn func(h *Hasher, i int) error) error {
	if n == 0 {
		return nil
	}
	chunk := (n + bp.maxWorkers - 1) / bp.maxWorkers

	var g errgroup.Group
	g.SetLimit(bp.maxWorkers)
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		g.Go(func() error {
			h := bp.hasherPool.Get().(*Hasher)
			defer bp.hasherPool.Put(h)

			for i := start; i < end; i++ {
				if err := fn(h, i); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}
