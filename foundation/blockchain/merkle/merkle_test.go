package merkle_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/blockforge/ledger/foundation/blockchain/merkle"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

// =============================================================================

// doc is a simple hashable value for tree construction.
type doc struct {
	hash string
}

func (d doc) Hash() string {
	return d.hash
}

func docs(hashes ...string) []doc {
	ds := make([]doc, len(hashes))
	for i, h := range hashes {
		ds[i] = doc{hash: h}
	}
	return ds
}

// =============================================================================

func Test_Root(t *testing.T) {
	t.Log("Given the need to compute a deterministic tree root.")
	{
		leaves := docs("0xaa", "0xbb", "0xcc", "0xdd")

		root1, err := merkle.RootHex(leaves)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to compute the root: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to compute the root.", success)

		root2, err := merkle.RootHex(leaves)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to recompute the root: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to recompute the root.", success)

		if root1 != root2 {
			t.Fatalf("\t%s\tShould compute the same root for the same leaves.", failed)
		}
		t.Logf("\t%s\tShould compute the same root for the same leaves.", success)

		root3, err := merkle.RootHex(docs("0xaa", "0xbb", "0xcc", "0xee"))
		if err != nil {
			t.Fatalf("\t%s\tShould be able to compute a root over changed leaves: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to compute a root over changed leaves.", success)

		if root1 == root3 {
			t.Fatalf("\t%s\tShould compute a different root when a leaf changes.", failed)
		}
		t.Logf("\t%s\tShould compute a different root when a leaf changes.", success)
	}
}

func Test_RootOddLeaves(t *testing.T) {
	t.Log("Given the need to handle an odd number of leaves.")
	{
		root, err := merkle.Root(docs("0xaa", "0xbb", "0xcc"))
		if err != nil {
			t.Fatalf("\t%s\tShould be able to compute the root: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to compute the root.", success)

		if len(root) == 0 {
			t.Fatalf("\t%s\tShould get a non-empty root.", failed)
		}
		t.Logf("\t%s\tShould get a non-empty root.", success)
	}
}

func Test_RootNoLeaves(t *testing.T) {
	t.Log("Given the need to reject an empty leaf set.")
	{
		if _, err := merkle.Root([]doc{}); !errors.Is(err, merkle.ErrNoLeaves) {
			t.Fatalf("\t%s\tShould get ErrNoLeaves for no leaves: %v", failed, err)
		}
		t.Logf("\t%s\tShould get ErrNoLeaves for no leaves.", success)
	}
}

func Test_Proof(t *testing.T) {
	t.Log("Given the need to prove a leaf belongs to the tree.")
	{
		leaves := docs("0xaa", "0xbb", "0xcc", "0xdd", "0xee")

		root, err := merkle.Root(leaves)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to compute the root: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to compute the root.", success)

		for i, leaf := range leaves {
			proof, err := merkle.Proof(leaves, i)
			if err != nil {
				t.Fatalf("\t%s\tShould be able to build a proof for leaf %d: %v", failed, i, err)
			}

			if !merkle.Verify(leaf, i, proof, root) {
				t.Fatalf("\t%s\tShould verify the proof for leaf %d.", failed, i)
			}
		}
		t.Logf("\t%s\tShould verify the proof for every leaf.", success)

		proof, err := merkle.Proof(leaves, 0)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to build a proof: %v", failed, err)
		}

		if merkle.Verify(doc{hash: "0xff"}, 0, proof, root) {
			t.Fatalf("\t%s\tShould reject a proof for a foreign leaf.", failed)
		}
		t.Logf("\t%s\tShould reject a proof for a foreign leaf.", success)

		if merkle.Verify(leaves[0], 0, proof, bytes.Repeat([]byte{0}, 32)) {
			t.Fatalf("\t%s\tShould reject a proof against the wrong root.", failed)
		}
		t.Logf("\t%s\tShould reject a proof against the wrong root.", success)
	}
}
