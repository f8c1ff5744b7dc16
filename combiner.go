package merkletree

// levelCombiner turns one level of the tree into the next one up.
// Consecutive pairs (2i, 2i+1) become one parent each; an odd trailing node
// is appended to the result as is.
type levelCombiner interface {
	CombineLevel(level [][]byte) ([][]byte, error)
}

// genericCombiner works with any hash function through a Hasher.
type genericCombiner struct {
	hasher *Hasher
	batch  *BatchProcessor
}

func (c *genericCombiner) CombineLevel(level [][]byte) ([][]byte, error) {
	pairs := len(level) / 2

	var next [][]byte
	if c.batch != nil && pairs >= parallelThreshold {
		parents, err := c.batch.HashNodes(level)
		if err != nil {
			return nil, err
		}
		next = parents
	} else {
		next = make([][]byte, 0, pairs+len(level)%2)
		for i := 0; i+1 < len(level); i += 2 {
			parent, err := c.hasher.HashNode(level[i], level[i+1])
			if err != nil {
				return nil, err
			}
			next = append(next, parent)
		}
	}

	if len(level)%2 == 1 {
		// Odd node - promote to next level
		next = append(next, level[len(level)-1])
	}
	return next, nil
}
