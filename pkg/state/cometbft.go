// Copyright 2025 RGB Core Project

package state

import (
	dbm "github.com/cometbft/cometbft-db"
)

// CometKV wraps a CometBFT dbm.DB and exposes the KV interface for
// the contract-state snapshot store.
type CometKV struct {
	db dbm.DB
}

// NewCometKV wraps db for use as a ContractState backing store.
func NewCometKV(db dbm.DB) *CometKV {
	return &CometKV{db: db}
}

// Get implements KV.
func (a *CometKV) Get(key []byte) ([]byte, error) {
	if a.db == nil {
		return nil, nil
	}
	v, err := a.db.Get(key)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Set implements KV, writing durably via SetSync since contract state
// must survive a crash between validator runs.
func (a *CometKV) Set(key, value []byte) error {
	if a.db == nil {
		return nil
	}
	return a.db.SetSync(key, value)
}
