// Copyright 2025 RGB Core Project

package validator

import (
	"github.com/rgbcore/rgbcore/pkg/operation"
	"github.com/rgbcore/rgbcore/pkg/state"
	"github.com/rgbcore/rgbcore/pkg/vm"
)

// zkWitness is one externally-supplied Groth16 proof/public-witness pair
// a zkv opcode may consume, keyed by the schema library it verifies
// against.
type zkWitness struct {
	Proof  []byte
	Public []byte
}

// opContext adapts one in-flight operation plus the accumulator it is
// being validated against into vm.Context, implementing the cnc/cng/
// cni/cno/rdc/rdg/rdi/rdo/rdm/zkv opcode semantics.
// cnc/rdc read the contract-wide global log; cng/rdg read this
// operation's own global writes; cni/rdi read the state this
// operation's own inputs previously closed (resolved through
// ContractState, since an Input only carries (OpId, Index), not the
// consumed state itself); cno/rdo read this operation's own output
// assignments.
type opContext struct {
	state *state.ContractState

	meta    []operation.MetaEntry
	global  []operation.GlobalStateAtom
	inputs  []operation.Input
	outputs []operation.Assignment

	zk map[[32]byte]zkWitness
}

var _ vm.Context = (*opContext)(nil)

func (c *opContext) GlobalCount(ty operation.StateType) uint16 {
	return c.state.GlobalCount(ty)
}

func (c *opContext) GlobalAt(ty operation.StateType, p uint16) (operation.StateValue, bool) {
	return c.state.GlobalAt(ty, p)
}

func (c *opContext) OwnGlobalCount(ty operation.StateType) uint16 {
	var n uint16
	for _, atom := range c.global {
		if atom.Type == ty {
			n++
		}
	}
	return n
}

func (c *opContext) OwnGlobalAt(ty operation.StateType, p uint16) (operation.StateValue, bool) {
	var i uint16
	for _, atom := range c.global {
		if atom.Type != ty {
			continue
		}
		if i == p {
			return atom.Value, true
		}
		i++
	}
	return operation.StateValue{}, false
}

// resolvedInput is one of this operation's inputs, resolved to the
// assignment type and state it closed.
func (c *opContext) resolvedInput(in operation.Input) (operation.AssignType, operation.StateValue, bool) {
	owned, ok := c.state.OwnedAt(state.AssignmentKey{Op: in.Op, Index: in.Index})
	if !ok {
		return 0, operation.StateValue{}, false
	}
	val := owned.Assignment.State.Value
	if val == nil {
		return owned.Assignment.Type, operation.StateValue{}, false
	}
	return owned.Assignment.Type, *val, true
}

func (c *opContext) InputCount(ty operation.AssignType) uint16 {
	var n uint16
	for _, in := range c.inputs {
		if rty, _, ok := c.resolvedInput(in); ok && rty == ty {
			n++
		}
	}
	return n
}

func (c *opContext) InputAt(ty operation.AssignType, p uint16) (operation.StateValue, bool) {
	var i uint16
	for _, in := range c.inputs {
		rty, val, ok := c.resolvedInput(in)
		if !ok || rty != ty {
			continue
		}
		if i == p {
			return val, true
		}
		i++
	}
	return operation.StateValue{}, false
}

func (c *opContext) OutputCount(ty operation.AssignType) uint16 {
	var n uint16
	for _, a := range c.outputs {
		if a.Type == ty {
			n++
		}
	}
	return n
}

func (c *opContext) OutputAt(ty operation.AssignType, p uint16) (operation.StateValue, bool) {
	var i uint16
	for _, a := range c.outputs {
		if a.Type != ty {
			continue
		}
		if a.State.Value == nil {
			continue
		}
		if i == p {
			return *a.State.Value, true
		}
		i++
	}
	return operation.StateValue{}, false
}

func (c *opContext) MetaAt(ty operation.MetaType) (operation.MetaValue, bool) {
	for _, m := range c.meta {
		if m.Type == ty {
			return m.Value, true
		}
	}
	return operation.MetaValue{}, false
}

func (c *opContext) ZkWitness(lib [32]byte) (proof []byte, public []byte, ok bool) {
	w, ok := c.zk[lib]
	if !ok {
		return nil, nil, false
	}
	return w.Proof, w.Public, true
}
