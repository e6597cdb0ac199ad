// Copyright 2025 RGB Core Project

package state

import (
	"sort"
	"sync"

	"github.com/rgbcore/rgbcore/pkg/operation"
	"github.com/rgbcore/rgbcore/pkg/rgberr"
)

// AssignmentKey addresses one owned assignment by the operation that
// produced it and its index within that operation's Assignments.
type AssignmentKey struct {
	Op    operation.OpId
	Index uint16
}

// OwnedAssignment pairs a still-open assignment with the ordering of
// the operation that produced it.
type OwnedAssignment struct {
	Assignment operation.Assignment
	Ord        WitnessOrd
}

// RightKey addresses one granted public right (valency) by the
// granting operation and the valency type.
type RightKey struct {
	Op   operation.OpId
	Type operation.ValencyType
}

// GlobalEntry is one contract-global state write, kept sorted by its
// granting operation's WitnessOrd (entries with equal ordering stay in
// acceptance order) so GlobalAt's positional
// addressing (the "p" in rdc/cnc) is deterministic across validators.
type GlobalEntry struct {
	Op    operation.OpId
	Ord   WitnessOrd
	Value operation.StateValue
}

// ContractState is the accumulator a validator run folds accepted
// operations into: the contract-wide global-state log, the
// live owned-assignment map, and the set of granted public rights.
// Safe for concurrent reads; callers serialize writes themselves (the
// single-writer convention).
type ContractState struct {
	mu sync.RWMutex

	global map[operation.StateType][]GlobalEntry
	owned  map[AssignmentKey]OwnedAssignment
	spent  map[AssignmentKey]operation.OpId // consuming OpId, for double-spend diagnostics
	rights map[RightKey]struct{}
	opOrd  map[operation.OpId]WitnessOrd // every accepted operation's own witness ordering
}

// New returns an empty ContractState.
func New() *ContractState {
	return &ContractState{
		global: make(map[operation.StateType][]GlobalEntry),
		owned:  make(map[AssignmentKey]OwnedAssignment),
		spent:  make(map[AssignmentKey]operation.OpId),
		rights: make(map[RightKey]struct{}),
		opOrd:  make(map[operation.OpId]WitnessOrd),
	}
}

// OpOrd returns the WitnessOrd recorded for an already-accepted
// operation, used to inherit ordering for operations (extensions) that
// are not anchored to a witness of their own.
func (s *ContractState) OpOrd(id operation.OpId) (WitnessOrd, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ord, ok := s.opOrd[id]
	return ord, ok
}

// GlobalCount reports how many contract-global atoms of type ty have
// been accepted so far (the "cnc" opcode's operand).
func (s *ContractState) GlobalCount(ty operation.StateType) uint16 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return uint16(len(s.global[ty]))
}

// GlobalAt returns the p'th contract-global atom of type ty, in
// WitnessOrd order (the "rdc" opcode's operand).
func (s *ContractState) GlobalAt(ty operation.StateType, p uint16) (operation.StateValue, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := s.global[ty]
	if int(p) >= len(entries) {
		return operation.StateValue{}, false
	}
	return entries[p].Value, true
}

// OwnedAt resolves a single-use input's current state, failing if the
// assignment does not exist or was already spent.
func (s *ContractState) OwnedAt(key AssignmentKey) (OwnedAssignment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.owned[key]
	return a, ok
}

// SpentBy reports which operation consumed key, if any; validators use
// this to tell a double-spend apart from a reference to an assignment
// that never existed.
func (s *ContractState) SpentBy(key AssignmentKey) (operation.OpId, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	by, ok := s.spent[key]
	return by, ok
}

// HasRight reports whether key was granted and is still recorded.
func (s *ContractState) HasRight(key RightKey) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.rights[key]
	return ok
}

// applyCommon folds the shared tail every operation kind carries
// (global state writes, new assignments, granted rights) into the
// accumulator. Callers have already computed opId and validated the
// operation; applyCommon never rejects.
func (s *ContractState) applyCommon(
	opId operation.OpId,
	ord WitnessOrd,
	globalState []operation.GlobalStateAtom,
	assignments []operation.Assignment,
	valencies []operation.ValencyType,
) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.opOrd[opId] = ord

	for _, atom := range globalState {
		entries := append(s.global[atom.Type], GlobalEntry{Op: opId, Ord: ord, Value: atom.Value})
		sort.SliceStable(entries, func(i, j int) bool { return entries[i].Ord.Less(entries[j].Ord) })
		s.global[atom.Type] = entries
	}
	for _, a := range assignments {
		s.owned[AssignmentKey{Op: opId, Index: a.Index}] = OwnedAssignment{Assignment: a, Ord: ord}
	}
	for _, vt := range valencies {
		s.rights[RightKey{Op: opId, Type: vt}] = struct{}{}
	}
}

// ApplyGenesis seeds the accumulator with a contract's genesis. The
// genesis's OpId is also the ContractId.
func (s *ContractState) ApplyGenesis(g *operation.Genesis, ord WitnessOrd) {
	opId := g.Id()
	s.applyCommon(opId, ord, g.GlobalState, g.Assignments, g.Valencies)
}

// ApplyTransition removes each consumed input exactly once (failing
// with DoubleSpend if an input was already spent, or NotClosed if it
// was never a live assignment), then folds in the transition's own
// writes.
func (s *ContractState) ApplyTransition(opId operation.OpId, t *operation.Transition, ord WitnessOrd) error {
	s.mu.Lock()
	for _, in := range t.Inputs {
		key := AssignmentKey{Op: in.Op, Index: in.Index}
		if by, ok := s.spent[key]; ok {
			s.mu.Unlock()
			return rgberr.New(rgberr.DoubleSpend, "input %x:%d already spent by %x", in.Op, in.Index, by)
		}
		if _, ok := s.owned[key]; !ok {
			s.mu.Unlock()
			return rgberr.New(rgberr.NotClosed, "input %x:%d is not a live assignment", in.Op, in.Index)
		}
		delete(s.owned, key)
		s.spent[key] = opId
	}
	s.mu.Unlock()

	s.applyCommon(opId, ord, t.GlobalState, t.Assignments, t.Valencies)
	return nil
}

// ApplyExtension checks that every redeemed public right was actually
// granted, then folds in the extension's own writes. Unlike a
// transition's inputs, a redeemed right is not removed: extensions
// reference rights other operations grant rather than consuming
// single-use state, so the same right may back more than one
// extension.
func (s *ContractState) ApplyExtension(opId operation.OpId, e *operation.Extension, ord WitnessOrd) error {
	s.mu.RLock()
	for _, ref := range e.Redeemed {
		if _, ok := s.rights[RightKey{Op: ref.Op, Type: ref.Type}]; !ok {
			s.mu.RUnlock()
			return rgberr.New(rgberr.NotClosed, "valency %x:%d was never granted", ref.Op, ref.Type)
		}
	}
	s.mu.RUnlock()

	s.applyCommon(opId, ord, e.GlobalState, e.Assignments, e.Valencies)
	return nil
}
