// Copyright 2025 RGB Core Project

// Package operation implements the three operation kinds:
// genesis, state transition, and state extension, their assignments and
// metadata, and the deterministic OpId/BundleId commitment scheme that
// binds them together.
package operation

import "github.com/rgbcore/rgbcore/pkg/seal"

// OpId is the 32-byte tagged-hash identifier of an operation.
type OpId [32]byte

// ContractId is the OpId of a contract's genesis; distinct name, same
// width, never interchangeable with a bare OpId by the type system
// alone (callers must not coerce between them outside pkg/validator's
// genesis-acceptance path).
type ContractId = OpId

// BundleId is the 32-byte identifier of a transition bundle.
type BundleId [32]byte

// SchemaId is the 32-byte identifier of a schema (computed in
// pkg/schema).
type SchemaId [32]byte

// AttachId identifies a binary attachment accompanying an assignment's
// state.
type AttachId [32]byte

// StateType identifies a schema-declared global or owned state type.
type StateType uint16

// AssignType identifies a schema-declared assignment (owned-state) type.
type AssignType uint16

// MetaType identifies a schema-declared metadata field type.
type MetaType uint16

// ValencyType identifies a schema-declared public-right (valency) type.
type ValencyType uint16

// TransitionType identifies a schema-declared state-transition type.
type TransitionType uint16

// ExtensionType identifies a schema-declared state-extension type.
type ExtensionType uint16

// Kind discriminates the three operation shapes.
type Kind uint8

const (
	KindGenesis Kind = iota
	KindTransition
	KindExtension
)

// Input references one single-use-seal-consuming output of a prior
// operation as an (OpId, output index) tuple.
type Input struct {
	Op    OpId
	Index uint16
}

// ValencyRef references a public right granted by another operation,
// which an Extension consumes instead of a single-use input: redeeming
// a right does not spend it.
type ValencyRef struct {
	Op   OpId
	Type ValencyType
}

// MetaKind is the closed set of metadata value shapes. Metadata is
// typed rather than an open blob so it encodes under the same
// sum-type discipline as every other wire structure.
type MetaKind uint8

const (
	MetaU8 MetaKind = iota
	MetaU16
	MetaU32
	MetaU64
	MetaBytes
	MetaString
)

// MetaValue is one typed metadata value.
type MetaValue struct {
	Kind   MetaKind
	Number uint64
	Bytes  []byte
	Str    string
}

// MetaEntry pairs a metadata type with its value; an operation carries a
// set of these keyed by MetaType (duplicates are a decode error, see
// codec.go).
type MetaEntry struct {
	Type  MetaType
	Value MetaValue
}

// StateKind discriminates the three semantic state flavors.
type StateKind uint8

const (
	StateVoid StateKind = iota
	StateFungible
	StateStructured
)

// StateValue is a revealed state value of one of the three flavors,
// optionally accompanied by an attachment.
type StateValue struct {
	Kind      StateKind
	Amount    uint64 // meaningful for StateFungible
	Blob      []byte // meaningful for StateStructured
	AttachId  *AttachId
	MediaType string
}

// GlobalStateAtom is one global-state write an operation performs,
// keyed by (Type, Index) within the operation; these pairs are the
// leaves of the operation's global-state commitment.
type GlobalStateAtom struct {
	Type  StateType
	Index uint16
	Value StateValue
}

// SealField is the (possibly concealed) seal half of an Assignment.
// Exactly one of Seal or the concealed form is authoritative for
// commitment purposes; Concealed is always populated (computed from
// Seal when revealed) so commitment computation never branches on
// revealed-ness.
type SealField struct {
	Seal      *seal.Seal // nil when seal-confidential
	Concealed seal.Concealed
}

// Conceal returns the seal's concealed form, computing it from the
// revealed seal if present.
func (f SealField) Conceal() seal.Concealed {
	if f.Seal != nil {
		return f.Seal.Conceal()
	}
	return f.Concealed
}

// RevealedSeal wraps a fully-revealed seal into a SealField, filling in
// the concealed form so downstream commitment code never special-cases
// revealed vs. concealed.
func RevealedSeal(s seal.Seal) SealField {
	return SealField{Seal: &s, Concealed: s.Conceal()}
}

// ConcealedSeal wraps an already-concealed seal (the definer did not
// reveal the outpoint).
func ConcealedSeal(c seal.Concealed) SealField {
	return SealField{Concealed: c}
}

// StateField is the (possibly concealed) state half of an Assignment.
// Commitment is always populated; Value is nil when state-confidential.
type StateField struct {
	Value      *StateValue
	Commitment [32]byte
}

// Commit returns the state's commitment, computing it from the revealed
// value if present.
func (f StateField) Commit() [32]byte {
	if f.Value != nil {
		return commitState(*f.Value)
	}
	return f.Commitment
}

// RevealedState wraps a fully-revealed state value.
func RevealedState(v StateValue) StateField {
	return StateField{Value: &v, Commitment: commitState(v)}
}

// ConcealedState wraps an already-committed (Pedersen or plain-hash)
// state commitment.
func ConcealedState(c [32]byte) StateField {
	return StateField{Commitment: c}
}

// Assignment is a (Seal, State) pair produced by an operation and
// consumable at most once. Either half may independently be
// revealed or concealed — fully revealed, seal-confidential,
// state-confidential, or fully concealed.
type Assignment struct {
	Type  AssignType
	Index uint16
	Seal  SealField
	State StateField
}

// Genesis is the unique root operation. Its OpId equals the
// contract's ContractId.
type Genesis struct {
	FormatVersion uint8
	SchemaId      SchemaId
	ChainLayer    string // chain/layer tag, e.g. "bitcoin:mainnet"
	Metadata      []MetaEntry
	GlobalState   []GlobalStateAtom
	Assignments   []Assignment
	Valencies     []ValencyType
}

// Transition is a state transition operation: consumes prior
// single-use outputs, produces new ones.
type Transition struct {
	FormatVersion uint8
	Type          TransitionType
	Inputs        []Input
	Metadata      []MetaEntry
	GlobalState   []GlobalStateAtom
	Assignments   []Assignment
	Valencies     []ValencyType
}

// Extension is a state extension operation: consumes granted public
// rights instead of single-use inputs, otherwise identical in shape to a
// transition.
type Extension struct {
	FormatVersion uint8
	Type          ExtensionType
	Redeemed      []ValencyRef
	Metadata      []MetaEntry
	GlobalState   []GlobalStateAtom
	Assignments   []Assignment
	Valencies     []ValencyType
}
