// Copyright 2025 RGB Core Project

package commitment

import "testing"

func TestTaggedHashDeterministic(t *testing.T) {
	h1 := TaggedHash("urn:rgb:test:v1", []byte("payload"))
	h2 := TaggedHash("urn:rgb:test:v1", []byte("payload"))
	if h1 != h2 {
		t.Fatal("tagged hash is not deterministic")
	}
	h3 := TaggedHash("urn:rgb:test:v2", []byte("payload"))
	if h1 == h3 {
		t.Fatal("different tags must not collide on the same payload")
	}
}

func TestMidstateMatchesDoubleSha256(t *testing.T) {
	// Recompute independently of the memoizing cache to make sure caching
	// never silently returns a stale/incorrect value.
	ms1 := Midstate("urn:rgb:another-tag")
	ms2 := Midstate("urn:rgb:another-tag")
	if ms1 != ms2 {
		t.Fatal("midstate must be stable across calls")
	}
}

var testTags = MerkleTags{
	Empty: "urn:rgb:merkle:empty:v1",
	Leaf:  "urn:rgb:merkle:leaf:v1",
	Node:  "urn:rgb:merkle:node:v1",
}

func TestMerklizeEmpty(t *testing.T) {
	root := Merklize(testTags, nil)
	want := TaggedHash(testTags.Empty, []byte{0x00})
	if root != want {
		t.Fatalf("empty tree root mismatch: got %x want %x", root, want)
	}
}

func TestMerklizeSingleLeaf(t *testing.T) {
	leaf := []byte("solo-leaf")
	root := Merklize(testTags, [][]byte{leaf})
	want := TaggedHash(testTags.Leaf, leaf)
	if root != want {
		t.Fatalf("single leaf root mismatch: got %x want %x", root, want)
	}
}

func TestMerklizeTwoLeaves(t *testing.T) {
	l0, l1 := []byte("leaf0"), []byte("leaf1")
	root := Merklize(testTags, [][]byte{l0, l1})

	left := TaggedHash(testTags.Leaf, l0)
	right := TaggedHash(testTags.Leaf, l1)
	want := nodeHash(testTags, left, right, 0)
	if root != want {
		t.Fatalf("two leaf root mismatch: got %x want %x", root, want)
	}
}

func TestMerkleProofRoundTrip(t *testing.T) {
	leaves := [][]byte{[]byte("a"), []byte("b"), []byte("c"), []byte("d"), []byte("e")}
	root := Merklize(testTags, leaves)

	for i, leaf := range leaves {
		path, err := GenerateProof(testTags, leaves, i)
		if err != nil {
			t.Fatalf("proof %d: %v", i, err)
		}
		if !VerifyProof(testTags, leaf, path, root) {
			t.Fatalf("proof %d did not verify", i)
		}
	}
}

func TestMerkleProofRejectsWrongLeaf(t *testing.T) {
	leaves := [][]byte{[]byte("a"), []byte("b"), []byte("c")}
	root := Merklize(testTags, leaves)

	path, err := GenerateProof(testTags, leaves, 1)
	if err != nil {
		t.Fatal(err)
	}
	if VerifyProof(testTags, []byte("tampered"), path, root) {
		t.Fatal("proof must not verify against a different leaf")
	}
}

func TestGenerateProofIndexRange(t *testing.T) {
	leaves := [][]byte{[]byte("a")}
	if _, err := GenerateProof(testTags, leaves, 5); err == nil {
		t.Fatal("expected out-of-range error")
	}
}
