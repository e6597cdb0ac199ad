// Copyright 2025 RGB Core Project

package operation

import (
	"testing"

	"github.com/rgbcore/rgbcore/pkg/seal"
	"github.com/rgbcore/rgbcore/pkg/strictcodec"
)

func mkSchemaId(b byte) SchemaId {
	var id SchemaId
	id[31] = b
	return id
}

func sampleGenesis() *Genesis {
	var txid [32]byte
	txid[0] = 0x11
	return &Genesis{
		FormatVersion: 1,
		SchemaId:      mkSchemaId(1),
		ChainLayer:    "bitcoin:mainnet",
		GlobalState: []GlobalStateAtom{
			{Type: 1, Index: 0, Value: StateValue{Kind: StateFungible, Amount: 42}},
		},
		Assignments: []Assignment{
			{
				Type:  1,
				Index: 0,
				Seal: RevealedSeal(seal.Seal{
					Kind:     seal.Revealed,
					Txid:     txid,
					Vout:     0,
					Blinding: 0x0102030405060708,
				}),
				State: RevealedState(StateValue{Kind: StateVoid}),
			},
		},
	}
}

func TestGenesisEncodeDecodeRoundTrip(t *testing.T) {
	g := sampleGenesis()
	w := strictcodec.NewWriter()
	if err := g.Encode(w); err != nil {
		t.Fatal(err)
	}
	r := strictcodec.NewReader(w.Bytes())
	decoded, err := DecodeGenesis(r)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Finish(); err != nil {
		t.Fatal(err)
	}
	if decoded.Id() != g.Id() {
		t.Fatal("decoded genesis has a different OpId than the original")
	}

	w2 := strictcodec.NewWriter()
	if err := decoded.Encode(w2); err != nil {
		t.Fatal(err)
	}
	if string(w2.Bytes()) != string(w.Bytes()) {
		t.Fatal("re-encoding a decoded genesis must reproduce the original bytes")
	}
}

func TestGenesisIdIsDeterministic(t *testing.T) {
	g1 := sampleGenesis()
	g2 := sampleGenesis()
	if g1.Id() != g2.Id() {
		t.Fatal("two byte-identical genesis values must share an OpId")
	}
}

func TestGenesisIdChangesWithContent(t *testing.T) {
	g1 := sampleGenesis()
	g2 := sampleGenesis()
	g2.GlobalState[0].Value.Amount = 43
	if g1.Id() == g2.Id() {
		t.Fatal("genesis values differing in global state must have different OpIds")
	}
}

func TestBundleEncodeDecodeRoundTrip(t *testing.T) {
	g := sampleGenesis()
	transition := &Transition{
		FormatVersion: 1,
		Type:          7,
		Inputs:        []Input{{Op: g.Id(), Index: 0}},
		Assignments: []Assignment{
			{Type: 1, Index: 0, Seal: ConcealedSeal(seal.Concealed{}), State: RevealedState(StateValue{Kind: StateFungible, Amount: 42})},
		},
	}
	b := &Bundle{
		InputMap: []InputMapEntry{{Vin: 0, Ops: []OpId{transition.Id()}}},
		Known:    map[OpId]*Transition{transition.Id(): transition},
	}

	w := strictcodec.NewWriter()
	if err := b.Encode(w); err != nil {
		t.Fatal(err)
	}
	r := strictcodec.NewReader(w.Bytes())
	decoded, err := DecodeBundle(r)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Finish(); err != nil {
		t.Fatal(err)
	}
	if decoded.Id() != b.Id() {
		t.Fatal("decoded bundle has a different BundleId")
	}
	if len(decoded.Known) != 1 {
		t.Fatalf("expected 1 known transition, got %d", len(decoded.Known))
	}
}

func TestBundleIdIgnoresKnownTransitions(t *testing.T) {
	entry := InputMapEntry{Vin: 0, Ops: []OpId{{0xAA}}}
	b1 := &Bundle{InputMap: []InputMapEntry{entry}, Known: map[OpId]*Transition{}}
	b2 := &Bundle{InputMap: []InputMapEntry{entry}, Known: nil}
	if b1.Id() != b2.Id() {
		t.Fatal("BundleId must commit only to the input map, not to Known")
	}
}

func TestEmptyTransitionHasWellDefinedId(t *testing.T) {
	empty := &Transition{FormatVersion: 1, Type: 0}
	id1 := empty.Id()
	id2 := (&Transition{FormatVersion: 1, Type: 0}).Id()
	if id1 != id2 {
		t.Fatal("an operation with no inputs/outputs must still have a deterministic OpId")
	}
}
