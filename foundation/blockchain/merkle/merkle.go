// Package merkle provides a merkle root computation over the ordered set
// of transaction hashes in a block. The root gives validation a cheap way
// to prove a block's transaction set was not swapped after mining.
package merkle

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
)

// ErrNoLeaves is returned when a root is requested over an empty set.
var ErrNoLeaves = errors.New("cannot construct tree with no leaves")

// Hashable represents the behavior a value must expose to be a leaf in
// the tree.
type Hashable interface {
	Hash() string
}

// RootHex computes the hex encoded merkle root over the ordered leaves.
// Order is significant: the same leaves in a different order produce a
// different root.
func RootHex[T Hashable](leaves []T) (string, error) {
	root, err := Root(leaves)
	if err != nil {
		return "", err
	}

	return "0x" + hex.EncodeToString(root), nil
}

// Root computes the merkle root over the ordered leaves. A set with an odd
// number of nodes at any level duplicates the final node, bitcoin style.
func Root[T Hashable](leaves []T) ([]byte, error) {
	if len(leaves) == 0 {
		return nil, ErrNoLeaves
	}

	level := make([][]byte, len(leaves))
	for i, leaf := range leaves {
		h := sha256.Sum256([]byte(leaf.Hash()))
		level[i] = h[:]
	}

	for len(level) > 1 {
		if len(level)%2 != 0 {
			level = append(level, level[len(level)-1])
		}

		next := make([][]byte, 0, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			h := sha256.Sum256(append(level[i], level[i+1]...))
			next = append(next, h[:])
		}
		level = next
	}

	return level[0], nil
}

// Proof produces the sibling hashes needed to prove the leaf at the
// specified index belongs to the root.
func Proof[T Hashable](leaves []T, index int) ([][]byte, error) {
	if index < 0 || index >= len(leaves) {
		return nil, fmt.Errorf("index %d out of range for %d leaves", index, len(leaves))
	}

	level := make([][]byte, len(leaves))
	for i, leaf := range leaves {
		h := sha256.Sum256([]byte(leaf.Hash()))
		level[i] = h[:]
	}

	var proof [][]byte
	for len(level) > 1 {
		if len(level)%2 != 0 {
			level = append(level, level[len(level)-1])
		}

		sibling := index ^ 1
		proof = append(proof, level[sibling])

		next := make([][]byte, 0, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			h := sha256.Sum256(append(level[i], level[i+1]...))
			next = append(next, h[:])
		}
		level = next
		index /= 2
	}

	return proof, nil
}

// Verify replays a proof for the specified leaf and reports whether it
// reproduces the root.
func Verify[T Hashable](leaf T, index int, proof [][]byte, root []byte) bool {
	h := sha256.Sum256([]byte(leaf.Hash()))
	cur := h[:]

	for _, sibling := range proof {
		var next [32]byte
		if index%2 == 0 {
			next = sha256.Sum256(append(cur, sibling...))
		} else {
			next = sha256.Sum256(append(sibling, cur...))
		}
		cur = next[:]
		index /= 2
	}

	return string(cur) == string(root)
}
