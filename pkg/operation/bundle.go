// Copyright 2025 RGB Core Project

package operation

import (
	"bytes"
	"sort"

	"github.com/rgbcore/rgbcore/pkg/commitment"
	"github.com/rgbcore/rgbcore/pkg/rgberr"
	"github.com/rgbcore/rgbcore/pkg/strictcodec"
)

// InputMapEntry is one (Vin -> sorted set<OpId>) entry of a bundle's
// input map.
type InputMapEntry struct {
	Vin  uint32
	Ops  []OpId // must be sorted ascending, no duplicates
}

// Bundle is a set of state transitions that close seals of the same
// witness transaction, indexed by witness input index, plus the fully
// revealed transitions themselves. Known-transitions are not
// committed into BundleId — they are revealed data alongside it.
type Bundle struct {
	InputMap []InputMapEntry
	Known    map[OpId]*Transition
}

// Id computes the BundleId: tagged_hash("bundle", encode(input_map)),
// committing only the Vin -> set<OpId> shape.
func (b *Bundle) Id() BundleId {
	w := strictcodec.NewWriter()
	_ = encodeInputMap(w, b.InputMap)
	return BundleId(commitment.TaggedHash(bundleIdTag, w.Bytes()))
}

func encodeInputMap(w *strictcodec.Writer, entries []InputMapEntry) error {
	sorted := append([]InputMapEntry(nil), entries...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Vin < sorted[j].Vin })
	for i := 1; i < len(sorted); i++ {
		if sorted[i-1].Vin == sorted[i].Vin {
			return rgberr.New(rgberr.DuplicateKey, "duplicate Vin %d in bundle input map", sorted[i].Vin)
		}
	}
	return strictcodec.WriteSeq(w, sorted, func(w *strictcodec.Writer, e InputMapEntry) error {
		w.WriteU32(e.Vin)
		ops := append([]OpId(nil), e.Ops...)
		sort.Slice(ops, func(i, j int) bool { return bytes.Compare(ops[i][:], ops[j][:]) < 0 })
		for i := 1; i < len(ops); i++ {
			if ops[i-1] == ops[i] {
				return rgberr.New(rgberr.DuplicateKey, "duplicate OpId within Vin %d", e.Vin)
			}
		}
		return strictcodec.WriteSeq(w, ops, func(w *strictcodec.Writer, id OpId) error {
			w.WriteRaw(id[:])
			return nil
		})
	})
}

// Encode strict-encodes the full bundle for the wire: the input
// map (the same bytes Id() commits to) followed by the revealed
// Known transitions, keyed by the OpId they encode to. Known is
// revealed data, not part of BundleId.
func (b *Bundle) Encode(w *strictcodec.Writer) error {
	if err := encodeInputMap(w, b.InputMap); err != nil {
		return err
	}
	ids := make([]OpId, 0, len(b.Known))
	for id := range b.Known {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return bytes.Compare(ids[i][:], ids[j][:]) < 0 })
	return strictcodec.WriteSeq(w, ids, func(w *strictcodec.Writer, id OpId) error {
		w.WriteRaw(id[:])
		return b.Known[id].Encode(w)
	})
}

// DecodeBundle reads a Bundle written by Encode, verifying that every
// revealed transition's recomputed OpId matches the key it was filed
// under.
func DecodeBundle(r *strictcodec.Reader) (*Bundle, error) {
	inputMap, err := DecodeInputMap(r)
	if err != nil {
		return nil, err
	}
	known := make(map[OpId]*Transition)
	_, err = strictcodec.ReadSeq(r, func(r *strictcodec.Reader) (struct{}, error) {
		idb, err := r.ReadRaw(32)
		if err != nil {
			return struct{}{}, err
		}
		var id OpId
		copy(id[:], idb)
		t, err := DecodeTransition(r)
		if err != nil {
			return struct{}{}, err
		}
		if t.Id() != id {
			return struct{}{}, rgberr.New(rgberr.CommitmentMismatch,
				"bundle: transition's computed OpId does not match its key")
		}
		known[id] = t
		return struct{}{}, nil
	})
	if err != nil {
		return nil, err
	}
	return &Bundle{InputMap: inputMap, Known: known}, nil
}

// DecodeInputMap reads an input map written by encodeInputMap, ready to
// populate a Bundle.
func DecodeInputMap(r *strictcodec.Reader) ([]InputMapEntry, error) {
	return strictcodec.ReadSeq(r, func(r *strictcodec.Reader) (InputMapEntry, error) {
		vin, err := r.ReadU32()
		if err != nil {
			return InputMapEntry{}, err
		}
		ops, err := strictcodec.ReadSeq(r, func(r *strictcodec.Reader) (OpId, error) {
			b, err := r.ReadRaw(32)
			if err != nil {
				return OpId{}, err
			}
			var id OpId
			copy(id[:], b)
			return id, nil
		})
		if err != nil {
			return InputMapEntry{}, err
		}
		return InputMapEntry{Vin: vin, Ops: ops}, nil
	})
}
