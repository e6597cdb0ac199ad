// Copyright 2025 RGB Core Project

package commitment

import "fmt"

// MerkleTags groups the three tags a Merklization over one structure
// needs: one for the empty tree, one for a single-leaf tree, and one
// for an internal node. Every Merkle root in this module (global-state
// commitments, inputs commitments, assignment commitments, MPC slot
// trees, ...) is parameterized by its own MerkleTags so that roots over
// structurally different leaf sets can never collide.
type MerkleTags struct {
	Empty Tag
	Leaf  Tag
	Node  Tag
}

// ProofStep is one (sibling, depth) pair on the path from a leaf to the
// root, as returned by GenerateProof and consumed by VerifyProof. Left
// records whether the sibling sits to the left of the accumulated hash.
type ProofStep struct {
	Sibling [32]byte
	Depth   uint8
	Left    bool
}

// Merklize computes the Merkle root over already strictly-encoded
// leaves, following the n=0/n=1/else recursion of the spec exactly:
// empty trees hash a single zero byte, one-leaf trees hash the leaf
// directly, and larger trees split at ceil(n/2) and fold in a depth
// byte at every internal node.
func Merklize(tags MerkleTags, leaves [][]byte) [32]byte {
	return merklize(tags, leaves, 0)
}

func merklize(tags MerkleTags, leaves [][]byte, depth uint8) [32]byte {
	switch len(leaves) {
	case 0:
		return TaggedHash(tags.Empty, []byte{0x00})
	case 1:
		return TaggedHash(tags.Leaf, leaves[0])
	default:
		m := (len(leaves) + 1) / 2
		left := merklize(tags, leaves[:m], depth+1)
		right := merklize(tags, leaves[m:], depth+1)
		return nodeHash(tags, left, right, depth)
	}
}

func nodeHash(tags MerkleTags, left, right [32]byte, depth uint8) [32]byte {
	buf := make([]byte, 0, 65)
	buf = append(buf, left[:]...)
	buf = append(buf, right[:]...)
	buf = append(buf, depth)
	return TaggedHash(tags.Node, buf)
}

// GenerateProof builds the inclusion proof for the leaf at index. The
// returned path is ordered from the leaf upward: path[0] is the
// sibling closest to the leaf, path[len-1] the sibling adjacent to the
// root.
func GenerateProof(tags MerkleTags, leaves [][]byte, index int) ([]ProofStep, error) {
	if index < 0 || index >= len(leaves) {
		return nil, errIndexRange(index, len(leaves))
	}
	_, path := proveAt(tags, leaves, 0, index)
	return path, nil
}

func proveAt(tags MerkleTags, leaves [][]byte, depth uint8, target int) ([32]byte, []ProofStep) {
	n := len(leaves)
	switch {
	case n == 0:
		return TaggedHash(tags.Empty, []byte{0x00}), nil
	case n == 1:
		return TaggedHash(tags.Leaf, leaves[0]), nil
	default:
		m := (n + 1) / 2
		if target < m {
			leftHash, path := proveAt(tags, leaves[:m], depth+1, target)
			rightHash := merklize(tags, leaves[m:], depth+1)
			path = append(path, ProofStep{Sibling: rightHash, Depth: depth, Left: false})
			return nodeHash(tags, leftHash, rightHash, depth), path
		}
		leftHash := merklize(tags, leaves[:m], depth+1)
		rightHash, path := proveAt(tags, leaves[m:], depth+1, target-m)
		path = append(path, ProofStep{Sibling: leftHash, Depth: depth, Left: true})
		return nodeHash(tags, leftHash, rightHash, depth), path
	}
}

// VerifyProof recomputes the root from leaf, its encoded form, and path,
// returning whether it matches root. For the degenerate single-leaf
// tree (empty path), the leaf hash itself must equal root.
func VerifyProof(tags MerkleTags, encodedLeaf []byte, path []ProofStep, root [32]byte) bool {
	current := TaggedHash(tags.Leaf, encodedLeaf)
	for _, step := range path {
		if step.Left {
			current = nodeHash(tags, step.Sibling, current, step.Depth)
		} else {
			current = nodeHash(tags, current, step.Sibling, step.Depth)
		}
	}
	return current == root
}

func errIndexRange(index, n int) error {
	return fmt.Errorf("leaf index %d out of range [0, %d)", index, n)
}
