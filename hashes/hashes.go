// Package hashes names the hash functions a Merkle tree can be built with.
package hashes

import (
	"crypto/sha256"
	"crypto/sha512"
	"errors"
	"fmt"
	"hash"
	"slices"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/blake2s"
	"golang.org/x/crypto/sha3"
)

var ErrUnknownHash = errors.New("unknown hash function")

var registry = map[string]func() hash.Hash{
	"sha256":      sha256.New,
	"sha512":      sha512.New,
	"sha512-256":  sha512.New512_256,
	"sha3-256":    sha3.New256,
	"sha3-512":    sha3.New512,
	"keccak256":   sha3.NewLegacyKeccak256,
	"blake2b-256": unkeyed(blake2b.New256),
	"blake2b-512": unkeyed(blake2b.New512),
	"blake2s-256": unkeyed(blake2s.New256),
}

// unkeyed adapts a keyed BLAKE2 constructor. Without a key it cannot fail.
func unkeyed(newKeyed func(key []byte) (hash.Hash, error)) func() hash.Hash {
	return func() hash.Hash {
		h, err := newKeyed(nil)
		if err != nil {
			panic(fmt.Errorf("BUG: unkeyed BLAKE2 construction failed: %w", err))
		}
		return h
	}
}

// Lookup returns the constructor of the named hash function.
func Lookup(name string) (func() hash.Hash, error) {
	newHash, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %v)", ErrUnknownHash, name, Names())
	}
	return newHash, nil
}

// Names returns the registered names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Sum hashes data with a fresh instance from newHash.
//
//nolint:errcheck
func Sum(newHash func() hash.Hash, data []byte) []byte {
	h := newHash()
	h.Write(data)
	return h.Sum(nil)
}
