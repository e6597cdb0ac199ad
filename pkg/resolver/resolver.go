// Copyright 2025 RGB Core Project

// Package resolver defines the caller-supplied witness-resolution
// boundary: pkg/validator never talks to a chain directly, it
// only asks a Resolver to map a witness identifier to its transaction
// and ordering.
package resolver

import (
	"context"

	"github.com/rgbcore/rgbcore/pkg/btctx"
	"github.com/rgbcore/rgbcore/pkg/rgberr"
	"github.com/rgbcore/rgbcore/pkg/state"
)

func errWitnessMissing(id XWitnessId) error {
	return rgberr.New(rgberr.WitnessMissing, "no resolution for witness %x", id)
}

// XWitnessId identifies a witness transaction across chain layers;
// today this module only models Bitcoin, so it is the witness txid.
type XWitnessId = btctx.Txid

// Resolver resolves a witness identifier to its transaction and its
// position in the total WitnessOrd ordering. Implementations
// typically wrap a chain indexer or an Electrum-style client; this
// module supplies no concrete chain-facing implementation of its own.
type Resolver interface {
	ResolveTx(ctx context.Context, id XWitnessId) (btctx.Tx, error)
	ResolveOrd(ctx context.Context, id XWitnessId) (state.WitnessOrd, error)
}

// Static wraps fixed maps of pre-resolved transactions and orderings,
// useful for tests and for replaying an already-indexed consignment
// without a live chain connection.
type Static struct {
	Txs  map[XWitnessId]btctx.Tx
	Ords map[XWitnessId]state.WitnessOrd
}

// NewStatic returns a Static resolver over the given maps.
func NewStatic(txs map[XWitnessId]btctx.Tx, ords map[XWitnessId]state.WitnessOrd) *Static {
	return &Static{Txs: txs, Ords: ords}
}

// ResolveTx implements Resolver.
func (s *Static) ResolveTx(_ context.Context, id XWitnessId) (btctx.Tx, error) {
	tx, ok := s.Txs[id]
	if !ok {
		return btctx.Tx{}, errWitnessMissing(id)
	}
	return tx, nil
}

// ResolveOrd implements Resolver.
func (s *Static) ResolveOrd(_ context.Context, id XWitnessId) (state.WitnessOrd, error) {
	ord, ok := s.Ords[id]
	if !ok {
		return state.WitnessOrd{}, errWitnessMissing(id)
	}
	return ord, nil
}
