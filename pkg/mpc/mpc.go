// Copyright 2025 RGB Core Project

// Package mpc implements the multi-protocol commitment (MPC): a
// deterministic slot assignment that lets many unrelated protocols
// (here, contracts) share one 32-byte commitment embedded in a single
// Bitcoin transaction via the DBC layer (pkg/dbc).
package mpc

import (
	"encoding/binary"
	"math/big"

	"github.com/rgbcore/rgbcore/pkg/commitment"
	"github.com/rgbcore/rgbcore/pkg/rgberr"
)

// DefaultCeiling bounds the slot-count search: the largest slot count
// representable by the uint16 slot-count type (2^16 - 1).
const DefaultCeiling = 1<<16 - 1

var tags = commitment.MerkleTags{
	Empty: "urn:rgbcore:mpc:empty:v1",
	Leaf:  "urn:rgbcore:mpc:leaf:v1",
	Node:  "urn:rgbcore:mpc:node:v1",
}

const (
	leafTag    commitment.Tag = "urn:rgbcore:mpc:slot-leaf:v1"
	entropyTag commitment.Tag = "urn:rgbcore:mpc:slot-entropy:v1"
	rootTag    commitment.Tag = "urn:rgbcore:mpc:root:v1"
)

// ProtocolID identifies a protocol (in this module, a ContractId) that
// participates in a shared multi-protocol commitment.
type ProtocolID [32]byte

// Message is the 32-byte value committed for one protocol (in this
// module, a BundleId).
type Message [32]byte

// Entry is one (ProtocolID -> Message) pair to be committed.
type Entry struct {
	Protocol ProtocolID
	Message  Message
}

// Commitment is the computed MPC state: the chosen slot count, the
// caller-supplied entropy, the final root, and enough of the slot
// layout to answer Proof queries.
type Commitment struct {
	N       uint16
	Entropy uint64
	Root    [32]byte

	slots []slot
}

type slot struct {
	occupied bool
	entry    Entry
	leaf     []byte
}

// Proof is a revealed inclusion proof for one protocol's message: it
// reveals N, Entropy, and a Merkle path.
type Proof struct {
	N       uint16
	Entropy uint64
	Path    []commitment.ProofStep
}

func modN(id ProtocolID, n uint16) uint16 {
	bi := new(big.Int).SetBytes(id[:])
	nb := big.NewInt(int64(n))
	return uint16(new(big.Int).Mod(bi, nb).Uint64())
}

// ChooseN finds the smallest n >= max(len(ids), minDepth), n <= ceiling,
// such that every ProtocolID in ids maps to a distinct slot under mod n.
// It returns rgberr.ImpossibleMessage if no such n exists within ceiling.
func ChooseN(ids []ProtocolID, minDepth, ceiling uint16) (uint16, error) {
	lower := uint16(len(ids))
	if minDepth > lower {
		lower = minDepth
	}
	if lower == 0 {
		lower = 1
	}
	for n := lower; n <= ceiling; n++ {
		if n == 0 { // overflow guard if ceiling == math.MaxUint16
			break
		}
		if distinctModN(ids, n) {
			return n, nil
		}
		if n == ceiling {
			break
		}
	}
	return 0, rgberr.New(rgberr.ImpossibleMessage,
		"no slot count n in [%d, %d] makes all %d protocol ids collision-free mod n", lower, ceiling, len(ids))
}

func distinctModN(ids []ProtocolID, n uint16) bool {
	seen := make(map[uint16]struct{}, len(ids))
	for _, id := range ids {
		m := modN(id, n)
		if _, dup := seen[m]; dup {
			return false
		}
		seen[m] = struct{}{}
	}
	return true
}

// Compute builds the MPC commitment over entries using caller-supplied
// entropy to fill slots unclaimed by any protocol. entropy must be
// supplied by the caller (e.g. the wallet composing the commitment);
// this package never generates randomness, preserving the core's
// determinism.
func Compute(entries []Entry, minDepth, ceiling uint16, entropy uint64) (*Commitment, error) {
	ids := make([]ProtocolID, len(entries))
	for i, e := range entries {
		ids[i] = e.Protocol
	}
	n, err := ChooseN(ids, minDepth, ceiling)
	if err != nil {
		return nil, err
	}

	byProtocol := make(map[uint16]Entry, len(entries))
	for _, e := range entries {
		byProtocol[modN(e.Protocol, n)] = e
	}

	slots := make([]slot, n)
	leaves := make([][]byte, n)
	for i := uint16(0); i < n; i++ {
		if e, ok := byProtocol[i]; ok {
			leaf := commitment.TaggedHashConcat(leafTag, e.Protocol[:], e.Message[:])
			slots[i] = slot{occupied: true, entry: e, leaf: leaf[:]}
			leaves[i] = leaf[:]
		} else {
			leaf := entropySlotLeaf(entropy, i)
			slots[i] = slot{occupied: false, leaf: leaf[:]}
			leaves[i] = leaf[:]
		}
	}

	treeRoot := commitment.Merklize(tags, leaves)
	root := finalRoot(treeRoot, entropy, n)

	return &Commitment{N: n, Entropy: entropy, Root: root, slots: slots}, nil
}

func entropySlotLeaf(entropy uint64, slotIndex uint16) [32]byte {
	var buf [10]byte
	binary.LittleEndian.PutUint64(buf[0:8], entropy)
	binary.LittleEndian.PutUint16(buf[8:10], slotIndex)
	return commitment.TaggedHash(entropyTag, buf[:])
}

func finalRoot(treeRoot [32]byte, entropy uint64, n uint16) [32]byte {
	var buf [42]byte
	copy(buf[0:32], treeRoot[:])
	binary.LittleEndian.PutUint64(buf[32:40], entropy)
	binary.LittleEndian.PutUint16(buf[40:42], n)
	return commitment.TaggedHash(rootTag, buf[:])
}

// Proof returns the inclusion proof for protocol's message within c, or
// an error if protocol was not one of the entries c was built from.
func (c *Commitment) Proof(protocol ProtocolID) (*Proof, error) {
	idx := modN(protocol, c.N)
	if int(idx) >= len(c.slots) || !c.slots[idx].occupied || c.slots[idx].entry.Protocol != protocol {
		return nil, rgberr.New(rgberr.InvalidProof, "protocol id not committed in this MPC tree")
	}
	leaves := make([][]byte, len(c.slots))
	for i, s := range c.slots {
		leaves[i] = s.leaf
	}
	path, err := commitment.GenerateProof(tags, leaves, int(idx))
	if err != nil {
		return nil, rgberr.Wrap(rgberr.InvalidProof, err, "building mpc inclusion proof")
	}
	return &Proof{N: c.N, Entropy: c.Entropy, Path: path}, nil
}

// Verify checks that proof recovers root from (protocol, message):
// success implies root is the canonical root of some commitment map
// whose protocol slot contains message.
func Verify(proof *Proof, protocol ProtocolID, message Message, root [32]byte) bool {
	leaf := commitment.TaggedHashConcat(leafTag, protocol[:], message[:])
	treeRoot := recomputeTreeRoot(tags, leaf[:], proof.Path)
	got := finalRoot(treeRoot, proof.Entropy, proof.N)
	return got == root
}

// Recover reconstructs the root that proof claims to open for
// (protocol, message), without comparing it against any expected value.
// Callers that don't yet know the root in advance — an anchor's MPC
// proof is the only source of it before the DBC layer checks it against
// the witness transaction — use this instead of Verify; the DBC
// commitment's own binding is what makes a wrong path load-bearing,
// not an equality check here.
func Recover(proof *Proof, protocol ProtocolID, message Message) [32]byte {
	leaf := commitment.TaggedHashConcat(leafTag, protocol[:], message[:])
	treeRoot := recomputeTreeRoot(tags, leaf[:], proof.Path)
	return finalRoot(treeRoot, proof.Entropy, proof.N)
}

// recomputeTreeRoot folds a leaf up through a proof path the same way
// commitment.VerifyProof does internally, but returns the recomputed
// root instead of a boolean so mpc.Verify can fold in entropy/n itself.
func recomputeTreeRoot(tags commitment.MerkleTags, leaf []byte, path []commitment.ProofStep) [32]byte {
	current := commitment.TaggedHash(tags.Leaf, leaf)
	for _, step := range path {
		if step.Left {
			current = commitment.TaggedHashConcat(tags.Node, step.Sibling[:], current[:], []byte{step.Depth})
		} else {
			current = commitment.TaggedHashConcat(tags.Node, current[:], step.Sibling[:], []byte{step.Depth})
		}
	}
	return current
}
