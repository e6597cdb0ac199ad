// Copyright 2025 RGB Core Project

package operation

import (
	"github.com/rgbcore/rgbcore/pkg/commitment"
	"github.com/rgbcore/rgbcore/pkg/strictcodec"
)

const (
	opidTag        commitment.Tag = "urn:rgbcore:opid:v1"
	bundleIdTag    commitment.Tag = "urn:rgbcore:bundleid:v1"
	metadataTag    commitment.Tag = "urn:rgbcore:opid:metadata:v1"
	assignmentTag  commitment.Tag = "urn:rgbcore:opid:assignment:v1"
	voidStateTag   commitment.Tag = "urn:rgbcore:state:void:v1"
	fungStateTag   commitment.Tag = "urn:rgbcore:state:fungible:v1"
	structStateTag commitment.Tag = "urn:rgbcore:state:structured:v1"
)

var (
	globalStateTags = commitment.MerkleTags{
		Empty: "urn:rgbcore:opid:global:empty:v1",
		Leaf:  "urn:rgbcore:opid:global:leaf:v1",
		Node:  "urn:rgbcore:opid:global:node:v1",
	}
	inputsTags = commitment.MerkleTags{
		Empty: "urn:rgbcore:opid:inputs:empty:v1",
		Leaf:  "urn:rgbcore:opid:inputs:leaf:v1",
		Node:  "urn:rgbcore:opid:inputs:node:v1",
	}
	assignmentsTags = commitment.MerkleTags{
		Empty: "urn:rgbcore:opid:assignments:empty:v1",
		Leaf:  "urn:rgbcore:opid:assignments:leaf:v1",
		Node:  "urn:rgbcore:opid:assignments:node:v1",
	}
	valenciesTags = commitment.MerkleTags{
		Empty: "urn:rgbcore:opid:valencies:empty:v1",
		Leaf:  "urn:rgbcore:opid:valencies:leaf:v1",
		Node:  "urn:rgbcore:opid:valencies:node:v1",
	}
	bundleInputMapTags = commitment.MerkleTags{
		Empty: "urn:rgbcore:bundle:empty:v1",
		Leaf:  "urn:rgbcore:bundle:leaf:v1",
		Node:  "urn:rgbcore:bundle:node:v1",
	}
)

// commitState computes the tagged-hash commitment of a revealed state
// value, used both for the assignment commitment and for whatever a
// definer conceals behind a Pedersen/hash commitment off-band.
func commitState(v StateValue) [32]byte {
	switch v.Kind {
	case StateVoid:
		return commitment.TaggedHash(voidStateTag, nil)
	case StateFungible:
		var buf [8]byte
		putU64(buf[:], v.Amount)
		return commitment.TaggedHash(fungStateTag, buf[:])
	case StateStructured:
		return commitment.TaggedHash(structStateTag, v.Blob)
	default:
		return commitment.TaggedHash(structStateTag, nil)
	}
}

func putU64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
}

// assignmentCommitment computes the per-assignment commitment folded
// into the assignments_commitment merkle tree: the tagged hash of the
// assignment's concealed seal and state commitment, so OpId never
// depends on whether an assignment happens to be revealed.
func assignmentCommitment(a Assignment) [32]byte {
	concealed := a.Seal.Conceal()
	stateCommit := a.State.Commit()
	return commitment.TaggedHashConcat(assignmentTag, concealed[:], stateCommit[:])
}

func metadataCommitment(entries []MetaEntry) [32]byte {
	w := strictcodec.NewWriter()
	_ = encodeMetaSeq(w, entries)
	return commitment.TaggedHash(metadataTag, w.Bytes())
}

func globalStateCommitment(atoms []GlobalStateAtom) [32]byte {
	leaves := make([][]byte, len(atoms))
	for i, a := range atoms {
		w := strictcodec.NewWriter()
		_ = a.encode(w)
		leaves[i] = w.Bytes()
	}
	return commitment.Merklize(globalStateTags, leaves)
}

func inputsCommitment(inputs []Input) [32]byte {
	leaves := make([][]byte, len(inputs))
	for i, in := range inputs {
		w := strictcodec.NewWriter()
		in.encode(w)
		leaves[i] = w.Bytes()
	}
	return commitment.Merklize(inputsTags, leaves)
}

func valencyRefsCommitment(refs []ValencyRef) [32]byte {
	leaves := make([][]byte, len(refs))
	for i, vr := range refs {
		w := strictcodec.NewWriter()
		vr.encode(w)
		leaves[i] = w.Bytes()
	}
	return commitment.Merklize(inputsTags, leaves)
}

func assignmentsCommitment(items []Assignment) [32]byte {
	leaves := make([][]byte, len(items))
	for i, a := range items {
		c := assignmentCommitment(a)
		w := strictcodec.NewWriter()
		w.WriteU16(uint16(a.Type))
		w.WriteU16(a.Index)
		w.WriteRaw(c[:])
		leaves[i] = w.Bytes()
	}
	return commitment.Merklize(assignmentsTags, leaves)
}

func valenciesCommitment(items []ValencyType) [32]byte {
	leaves := make([][]byte, len(items))
	for i, v := range items {
		w := strictcodec.NewWriter()
		w.WriteU16(uint16(v))
		leaves[i] = w.Bytes()
	}
	return commitment.Merklize(valenciesTags, leaves)
}

func opId(kind Kind, typeIdPayload []byte, metaC, globalC, inputsC, assignC, valC [32]byte) OpId {
	buf := make([]byte, 0, 1+len(typeIdPayload)+32*5)
	buf = append(buf, byte(kind))
	buf = append(buf, typeIdPayload...)
	buf = append(buf, metaC[:]...)
	buf = append(buf, globalC[:]...)
	buf = append(buf, inputsC[:]...)
	buf = append(buf, assignC[:]...)
	buf = append(buf, valC[:]...)
	return OpId(commitment.TaggedHash(opidTag, buf))
}

// Id computes the deterministic OpId of a Genesis, which also serves as
// the contract's ContractId.
func (g *Genesis) Id() OpId {
	return opId(KindGenesis, g.SchemaId[:],
		metadataCommitment(g.Metadata),
		globalStateCommitment(g.GlobalState),
		inputsCommitment(nil),
		assignmentsCommitment(g.Assignments),
		valenciesCommitment(g.Valencies),
	)
}

// Id computes the deterministic OpId of a Transition.
func (t *Transition) Id() OpId {
	var typeId [2]byte
	typeId[0] = byte(t.Type)
	typeId[1] = byte(t.Type >> 8)
	return opId(KindTransition, typeId[:],
		metadataCommitment(t.Metadata),
		globalStateCommitment(t.GlobalState),
		inputsCommitment(t.Inputs),
		assignmentsCommitment(t.Assignments),
		valenciesCommitment(t.Valencies),
	)
}

// Id computes the deterministic OpId of an Extension. It uses the same
// inputs-commitment slot as a Transition, but over the redeemed
// valency references instead of single-use inputs.
func (e *Extension) Id() OpId {
	var typeId [2]byte
	typeId[0] = byte(e.Type)
	typeId[1] = byte(e.Type >> 8)
	return opId(KindExtension, typeId[:],
		metadataCommitment(e.Metadata),
		globalStateCommitment(e.GlobalState),
		valencyRefsCommitment(e.Redeemed),
		assignmentsCommitment(e.Assignments),
		valenciesCommitment(e.Valencies),
	)
}
