/*
Package merkletree builds a binary Merkle tree over a set of block digests.

Callers hash their data blocks themselves and add the digests with
Tree.AddBlock. The tree keeps them sorted by raw byte value with duplicates
collapsed, so the root only depends on the set of blocks, not on the order
they were added in. Tree.Seal computes the root once; after that the tree is
read-only.

	tree := merkletree.NewSHA256()
	for _, block := range blocks {
		d := sha256.Sum256(block)
		if err := tree.AddBlock(d[:]); err != nil {
			return err
		}
	}
	if err := tree.Seal(); err != nil {
		return err
	}
	root, _ := tree.Root()
	fmt.Println(root) // uppercase hex

Leaves are rehashed once before combining: the bottom level holds H(leaf).
Each round then replaces consecutive pairs with H(left || right); an odd
node at the end of a level moves up unchanged.
*/
package merkletree
