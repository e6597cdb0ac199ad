// Copyright 2025 RGB Core Project

package vm

import "github.com/rgbcore/rgbcore/pkg/operation"

// Context is the read-only view of the operation under validation and
// its contract-state context that the RGB1 opcodes
// (cnc/cng/cni/cno/rdc/rdg/rdi/rdo/rdm) introspect. pkg/validator supplies
// the concrete implementation per operation it dispatches.
type Context interface {
	// GlobalCount returns the number of contract-global (ascendant)
	// state atoms of type ty visible to this operation.
	GlobalCount(ty operation.StateType) uint16
	// OwnGlobalCount returns the number of global atoms of type ty
	// the operation under validation itself writes.
	OwnGlobalCount(ty operation.StateType) uint16
	// InputCount returns the number of consumed inputs of assignment
	// type ty whose state is revealed; inputs with concealed state are
	// not counted.
	InputCount(ty operation.AssignType) uint16
	// OutputCount returns the number of produced assignments of type
	// ty.
	OutputCount(ty operation.AssignType) uint16

	// GlobalAt returns the p'th contract-global atom of type ty.
	GlobalAt(ty operation.StateType, p uint16) (operation.StateValue, bool)
	// OwnGlobalAt returns the p'th own-global atom of type ty.
	OwnGlobalAt(ty operation.StateType, p uint16) (operation.StateValue, bool)
	// InputAt returns the state of the p'th consumed input of
	// assignment type ty, counting only inputs whose state is revealed.
	// ok is false if p is out of range.
	InputAt(ty operation.AssignType, p uint16) (operation.StateValue, bool)
	// OutputAt returns the revealed state of the p'th produced
	// assignment of type ty. Positions count only assignments whose
	// state is revealed.
	OutputAt(ty operation.AssignType, p uint16) (operation.StateValue, bool)
	// MetaAt returns the operation's unique metadata value of type ty.
	MetaAt(ty operation.MetaType) (operation.MetaValue, bool)

	// ZkWitness returns the proof and public-witness bytes a zkv
	// instruction referencing lib should verify against lib's
	// bundled verifying key.
	ZkWitness(lib [32]byte) (proof []byte, public []byte, ok bool)
}

// stateElementBytes returns v's raw byte representation for rd*
// element addressing: nil for void state (never addressable), the
// 8-byte little-endian amount for fungible state, and the raw blob for
// structured state.
func stateElementBytes(v operation.StateValue) []byte {
	switch v.Kind {
	case operation.StateVoid:
		return nil
	case operation.StateFungible:
		buf := make([]byte, 8)
		for i := 0; i < 8; i++ {
			buf[i] = byte(v.Amount >> (8 * i))
		}
		return buf
	case operation.StateStructured:
		return v.Blob
	default:
		return nil
	}
}

// metaElementBytes mirrors stateElementBytes for metadata values;
// MetaString is not element-addressable (rdm always fails against it).
func metaElementBytes(v operation.MetaValue) []byte {
	switch v.Kind {
	case operation.MetaU8, operation.MetaU16, operation.MetaU32, operation.MetaU64:
		buf := make([]byte, 8)
		for i := 0; i < 8; i++ {
			buf[i] = byte(v.Number >> (8 * i))
		}
		return buf
	case operation.MetaBytes:
		return v.Bytes
	default:
		return nil
	}
}

func readElement(raw []byte, element uint8, width int) ([]byte, bool) {
	start := int(element) * width
	if raw == nil || start < 0 || start+width > len(raw) {
		return nil, false
	}
	return raw[start : start+width], true
}
