// Copyright 2025 RGB Core Project

// Package schema implements the schema data model: global
// state type declarations, the VM ISA/library requirements, and the
// per-operation-type Validators entry-point table.
package schema

import (
	"sort"

	"github.com/rgbcore/rgbcore/pkg/commitment"
	"github.com/rgbcore/rgbcore/pkg/operation"
	"github.com/rgbcore/rgbcore/pkg/strictcodec"
)

// Id is a schema's 32-byte identifier.
type Id = operation.SchemaId

// LibId identifies one of a schema's bytecode libraries.
type LibId [32]byte

// Library is a schema-bundled bytecode library. The VM resolves
// (LibId, offset) validator entry points against the schema's declared
// library set; an unresolvable LibId is a schema authoring bug,
// not a runtime error.
type Library struct {
	Id   LibId
	Code []byte
}

// EntryPoint names a validator script's location: a library and a byte
// offset into it.
type EntryPoint struct {
	Lib    LibId
	Offset uint16
}

// Occurrence bounds how many times a declared type may occur on one
// operation.
type Occurrence struct {
	Min uint16
	Max uint16 // 0 means unbounded
}

// Allows reports whether count conforms to the bound.
func (o Occurrence) Allows(count uint16) bool {
	if count < o.Min {
		return false
	}
	return o.Max == 0 || count <= o.Max
}

// GlobalTypeSpec is one schema-declared global state type: its semantic
// type id and per-operation occurrence bound.
type GlobalTypeSpec struct {
	SemanticType uint16
	Occurrence   Occurrence
}

// AssignTypeSpec is one schema-declared assignment (owned state) type.
type AssignTypeSpec struct {
	SemanticType uint16
	Occurrence   Occurrence
}

// ISA names a VM instruction-set architecture a schema requires: the
// core ALU, the contract-specific RGB1, and the optional ZK1
// (pkg/vm/zk1.go).
type ISA string

const (
	ISAAlu  ISA = "ALU"
	ISARgb1 ISA = "RGB1"
	ISAZk1  ISA = "ZK1"
)

// VMConfig is the core configuration every required ISA shares:
// field order, whether halt is reachable, and an optional step budget.
type VMConfig struct {
	FieldOrder    string // e.g. "secp256k1" — informational, checked by callers that care
	HaltAllowed   bool
	ComplexityLim uint64 // 0 means unbounded
}

// Validators is the schema's per-operation-kind entry-point table.
type Validators struct {
	Genesis                EntryPoint
	TransitionValidators   map[operation.TransitionType]EntryPoint
	DefaultTransitionEntry *EntryPoint
	ExtensionValidators    map[operation.ExtensionType]EntryPoint
	DefaultExtensionEntry  *EntryPoint
}

// TransitionEntry resolves the validator entry point for a transition
// type, falling back to the schema default.
func (v Validators) TransitionEntry(ty operation.TransitionType) (EntryPoint, bool) {
	if ep, ok := v.TransitionValidators[ty]; ok {
		return ep, true
	}
	if v.DefaultTransitionEntry != nil {
		return *v.DefaultTransitionEntry, true
	}
	return EntryPoint{}, false
}

// ExtensionEntry resolves the validator entry point for an extension
// type, falling back to the schema default.
func (v Validators) ExtensionEntry(ty operation.ExtensionType) (EntryPoint, bool) {
	if ep, ok := v.ExtensionValidators[ty]; ok {
		return ep, true
	}
	if v.DefaultExtensionEntry != nil {
		return *v.DefaultExtensionEntry, true
	}
	return EntryPoint{}, false
}

// Schema declares a contract's state shape, VM requirements, and
// per-operation-type validator entry points.
type Schema struct {
	FormatVersion uint8
	Name          string
	Timestamp     int64

	GlobalTypes  map[operation.StateType]GlobalTypeSpec
	AssignTypes  map[operation.AssignType]AssignTypeSpec
	MetaTypes    map[operation.MetaType]struct{}
	ValencyTypes map[operation.ValencyType]struct{}

	RequiredISAs []ISA
	VM           VMConfig

	Libraries  map[LibId]*Library
	Validators Validators
}

// Lookup resolves the validator's library set; an unresolved LibId
// referenced by Validators is the caller's responsibility to treat as a
// fatal MissingLibrary schema error.
func (s *Schema) Lookup(id LibId) (*Library, bool) {
	lib, ok := s.Libraries[id]
	return lib, ok
}

// RequiresISA reports whether isa is in the schema's required set.
func (s *Schema) RequiresISA(isa ISA) bool {
	for _, r := range s.RequiredISAs {
		if r == isa {
			return true
		}
	}
	return false
}

const idTag commitment.Tag = "urn:rgbcore:schemaid:v1"

// Id computes the schema's deterministic identifier as the tagged hash
// of its strict-encoded canonical form: every declared field, including
// the Validators table and the library bytecode. Committing the
// validator entry points and libraries is what binds a genesis (which
// names this id) to the exact validation logic, not just the type
// declarations — two schemas differing only in script code must never
// share an id.
func (s *Schema) Id() Id {
	w := strictcodec.NewWriter()
	w.WriteU8(s.FormatVersion)
	_ = w.WriteString(s.Name)
	w.WriteI64(s.Timestamp)
	encodeGlobalTypes(w, s.GlobalTypes)
	encodeAssignTypes(w, s.AssignTypes)
	encodeMetaTypes(w, s.MetaTypes)
	encodeValencyTypes(w, s.ValencyTypes)
	encodeISAs(w, s.RequiredISAs)
	encodeVMConfig(w, s.VM)
	_ = encodeLibraries(w, s.Libraries)
	_ = encodeValidators(w, s.Validators)
	return Id(commitment.TaggedHash(idTag, w.Bytes()))
}

func encodeGlobalTypes(w *strictcodec.Writer, m map[operation.StateType]GlobalTypeSpec) {
	keys := sortedStateTypes(m)
	w.WriteU16(uint16(len(keys)))
	for _, k := range keys {
		spec := m[k]
		w.WriteU16(uint16(k))
		w.WriteU16(spec.SemanticType)
		w.WriteU16(spec.Occurrence.Min)
		w.WriteU16(spec.Occurrence.Max)
	}
}

func sortedStateTypes(m map[operation.StateType]GlobalTypeSpec) []operation.StateType {
	keys := make([]operation.StateType, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func encodeAssignTypes(w *strictcodec.Writer, m map[operation.AssignType]AssignTypeSpec) {
	keys := make([]operation.AssignType, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	w.WriteU16(uint16(len(keys)))
	for _, k := range keys {
		spec := m[k]
		w.WriteU16(uint16(k))
		w.WriteU16(spec.SemanticType)
		w.WriteU16(spec.Occurrence.Min)
		w.WriteU16(spec.Occurrence.Max)
	}
}

func encodeMetaTypes(w *strictcodec.Writer, m map[operation.MetaType]struct{}) {
	keys := make([]operation.MetaType, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	w.WriteU16(uint16(len(keys)))
	for _, k := range keys {
		w.WriteU16(uint16(k))
	}
}

func encodeValencyTypes(w *strictcodec.Writer, m map[operation.ValencyType]struct{}) {
	keys := make([]operation.ValencyType, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	w.WriteU16(uint16(len(keys)))
	for _, k := range keys {
		w.WriteU16(uint16(k))
	}
}

func encodeISAs(w *strictcodec.Writer, isas []ISA) {
	sorted := append([]ISA(nil), isas...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	w.WriteU16(uint16(len(sorted)))
	for _, isa := range sorted {
		_ = w.WriteString(string(isa))
	}
}

func encodeVMConfig(w *strictcodec.Writer, c VMConfig) {
	_ = w.WriteString(c.FieldOrder)
	w.WriteBool(c.HaltAllowed)
	w.WriteU64(c.ComplexityLim)
}
