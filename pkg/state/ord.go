// Copyright 2025 RGB Core Project

// Package state implements the ContractState accumulator:
// the running global-state log and owned-assignment map a validator
// run folds operations into, plus the total WitnessOrd ordering used
// to place operations in deterministic sequence regardless of the
// order a caller happened to feed them in.
package state

import "bytes"

// OrdKind discriminates the three witness-ordering tiers:
// off-chain operations sort before any on-chain one, and archived
// (pruned) witnesses sort after every live on-chain one.
type OrdKind uint8

const (
	OffChain OrdKind = iota
	OnChain
	Archived
)

// WitnessOrd totally orders operations by the ordering their closing
// witness establishes: OffChain < OnChain{height,tx_ord} < Archived,
// with on-chain witnesses ordered by (height, tx_ord) and ties within
// a tier broken by XWitnessId so the order is a true total order, not
// just a partial one.
type WitnessOrd struct {
	Kind       OrdKind
	Height     uint32
	TxOrd      uint32
	XWitnessId [32]byte
}

// Less reports whether o sorts strictly before other.
func (o WitnessOrd) Less(other WitnessOrd) bool {
	if o.Kind != other.Kind {
		return o.Kind < other.Kind
	}
	if o.Kind == OnChain {
		if o.Height != other.Height {
			return o.Height < other.Height
		}
		if o.TxOrd != other.TxOrd {
			return o.TxOrd < other.TxOrd
		}
	}
	return bytes.Compare(o.XWitnessId[:], other.XWitnessId[:]) < 0
}
