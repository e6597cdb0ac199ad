// Copyright 2025 RGB Core Project

package state

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rgbcore/rgbcore/pkg/operation"
)

// KV is the persistence interface ContractState snapshots are saved
// through; the same interface is satisfiable by an in-memory map,
// CometBFT's dbm.DB, or a Postgres-backed table.
type KV interface {
	Get(key []byte) ([]byte, error)
	Set(key, value []byte) error
}

// ErrSnapshotNotFound is returned by Load when no snapshot exists yet.
var ErrSnapshotNotFound = fmt.Errorf("state: no snapshot stored")

// MemKV is an in-memory KV, the default backend for tests and
// single-process validators that don't need durability across
// restarts.
type MemKV struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemKV returns an empty in-memory KV store.
func NewMemKV() *MemKV {
	return &MemKV{data: make(map[string][]byte)}
}

// Get implements KV.
func (m *MemKV) Get(key []byte) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[string(key)]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

// Set implements KV.
func (m *MemKV) Set(key, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := make([]byte, len(value))
	copy(v, value)
	m.data[string(key)] = v
	return nil
}

// snapshot is the JSON-serializable projection of a ContractState used
// for KV persistence. Commitment-bearing wire data (operations,
// schemas, consignments) always goes through pkg/strictcodec; a
// validator's working accumulator is plain internal state, so it is
// persisted as JSON blobs under descriptive keys.
type snapshot struct {
	Global map[operation.StateType][]GlobalEntry `json:"global"`
	Owned  map[string]OwnedAssignment            `json:"owned"`
	Spent  map[string]operation.OpId             `json:"spent"`
	Rights map[string]struct{}                   `json:"rights"`
	OpOrds map[string]WitnessOrd                 `json:"opOrds"`
}

var snapshotKey = []byte("rgbcore:contractstate:snapshot")

// Save serializes s into kv under a fixed key.
func (s *ContractState) Save(kv KV) error {
	s.mu.RLock()
	snap := snapshot{
		Global: s.global,
		Owned:  make(map[string]OwnedAssignment, len(s.owned)),
		Spent:  make(map[string]operation.OpId, len(s.spent)),
		Rights: make(map[string]struct{}, len(s.rights)),
		OpOrds: make(map[string]WitnessOrd, len(s.opOrd)),
	}
	for k, v := range s.owned {
		snap.Owned[assignmentKeyString(k)] = v
	}
	for k, v := range s.spent {
		snap.Spent[assignmentKeyString(k)] = v
	}
	for k := range s.rights {
		snap.Rights[rightKeyString(k)] = struct{}{}
	}
	for k, v := range s.opOrd {
		snap.OpOrds[hex.EncodeToString(k[:])] = v
	}
	s.mu.RUnlock()

	b, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal contract state snapshot: %w", err)
	}
	return kv.Set(snapshotKey, b)
}

// Load restores a ContractState previously written by Save.
func Load(kv KV) (*ContractState, error) {
	b, err := kv.Get(snapshotKey)
	if err != nil {
		return nil, fmt.Errorf("load contract state snapshot: %w", err)
	}
	if len(b) == 0 {
		return nil, ErrSnapshotNotFound
	}
	var snap snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return nil, fmt.Errorf("unmarshal contract state snapshot: %w", err)
	}

	s := New()
	if snap.Global != nil {
		s.global = snap.Global
	}
	for k, v := range snap.Owned {
		key, err := parseAssignmentKey(k)
		if err != nil {
			return nil, err
		}
		s.owned[key] = v
	}
	for k, v := range snap.Spent {
		key, err := parseAssignmentKey(k)
		if err != nil {
			return nil, err
		}
		s.spent[key] = v
	}
	for k := range snap.Rights {
		key, err := parseRightKey(k)
		if err != nil {
			return nil, err
		}
		s.rights[key] = struct{}{}
	}
	for k, v := range snap.OpOrds {
		raw, err := hex.DecodeString(k)
		if err != nil || len(raw) != 32 {
			return nil, fmt.Errorf("state: malformed snapshot op id %q", k)
		}
		var op operation.OpId
		copy(op[:], raw)
		s.opOrd[op] = v
	}
	return s, nil
}
