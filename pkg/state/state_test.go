// Copyright 2025 RGB Core Project

package state

import (
	"testing"

	"github.com/rgbcore/rgbcore/pkg/operation"
	"github.com/rgbcore/rgbcore/pkg/rgberr"
	"github.com/rgbcore/rgbcore/pkg/seal"
)

const testAssignTy operation.AssignType = 1

func testGenesis() *operation.Genesis {
	var txid [32]byte
	txid[0] = 0x11
	return &operation.Genesis{
		FormatVersion: 1,
		ChainLayer:    "bitcoin:regtest",
		GlobalState: []operation.GlobalStateAtom{
			{Type: 1, Index: 0, Value: operation.StateValue{Kind: operation.StateFungible, Amount: 42}},
		},
		Assignments: []operation.Assignment{
			{
				Type:  testAssignTy,
				Index: 0,
				Seal:  operation.RevealedSeal(seal.Seal{Kind: seal.Revealed, Txid: txid, Vout: 0}),
				State: operation.RevealedState(operation.StateValue{Kind: operation.StateFungible, Amount: 42}),
			},
		},
		Valencies: []operation.ValencyType{7},
	}
}

func TestApplyGenesisSeedsState(t *testing.T) {
	g := testGenesis()
	s := New()
	s.ApplyGenesis(g, WitnessOrd{})

	if n := s.GlobalCount(1); n != 1 {
		t.Fatalf("expected one global atom, got %d", n)
	}
	val, ok := s.GlobalAt(1, 0)
	if !ok || val.Amount != 42 {
		t.Fatalf("expected the genesis global write, got %v ok=%t", val, ok)
	}
	if _, ok := s.OwnedAt(AssignmentKey{Op: g.Id(), Index: 0}); !ok {
		t.Fatal("expected the genesis assignment to be live")
	}
	if !s.HasRight(RightKey{Op: g.Id(), Type: 7}) {
		t.Fatal("expected the granted valency to be recorded")
	}
}

func TestApplyTransitionConsumesInputOnce(t *testing.T) {
	g := testGenesis()
	s := New()
	s.ApplyGenesis(g, WitnessOrd{})

	tr := &operation.Transition{
		FormatVersion: 1,
		Type:          1,
		Inputs:        []operation.Input{{Op: g.Id(), Index: 0}},
	}
	ord := WitnessOrd{Kind: OnChain, Height: 10}
	if err := s.ApplyTransition(tr.Id(), tr, ord); err != nil {
		t.Fatalf("first spend: %v", err)
	}
	if _, live := s.OwnedAt(AssignmentKey{Op: g.Id(), Index: 0}); live {
		t.Fatal("consumed assignment must no longer be live")
	}
	by, spent := s.SpentBy(AssignmentKey{Op: g.Id(), Index: 0})
	if !spent || by != tr.Id() {
		t.Fatalf("expected the assignment recorded as spent by the transition, got %x spent=%t", by, spent)
	}

	second := &operation.Transition{
		FormatVersion: 1,
		Type:          2,
		Inputs:        []operation.Input{{Op: g.Id(), Index: 0}},
	}
	err := s.ApplyTransition(second.Id(), second, ord)
	if err == nil {
		t.Fatal("expected a double-spend error")
	}
	if e, ok := err.(*rgberr.Error); !ok || e.Code != rgberr.DoubleSpend {
		t.Fatalf("expected a DoubleSpend code, got %v", err)
	}
}

func TestApplyTransitionRejectsUnknownInput(t *testing.T) {
	s := New()
	tr := &operation.Transition{
		FormatVersion: 1,
		Type:          1,
		Inputs:        []operation.Input{{Op: operation.OpId{0xAA}, Index: 3}},
	}
	err := s.ApplyTransition(tr.Id(), tr, WitnessOrd{})
	if err == nil {
		t.Fatal("expected an error for an input that was never a live assignment")
	}
	if e, ok := err.(*rgberr.Error); !ok || e.Code != rgberr.NotClosed {
		t.Fatalf("expected a NotClosed code, got %v", err)
	}
}

func TestApplyExtensionRequiresGrantedRight(t *testing.T) {
	g := testGenesis()
	s := New()
	s.ApplyGenesis(g, WitnessOrd{})

	good := &operation.Extension{
		FormatVersion: 1,
		Type:          1,
		Redeemed:      []operation.ValencyRef{{Op: g.Id(), Type: 7}},
	}
	if err := s.ApplyExtension(good.Id(), good, WitnessOrd{}); err != nil {
		t.Fatalf("redeeming a granted right: %v", err)
	}
	// A redeemed right is not consumed; a second extension may redeem it.
	again := &operation.Extension{
		FormatVersion: 1,
		Type:          2,
		Redeemed:      []operation.ValencyRef{{Op: g.Id(), Type: 7}},
	}
	if err := s.ApplyExtension(again.Id(), again, WitnessOrd{}); err != nil {
		t.Fatalf("redeeming the same right twice: %v", err)
	}

	bad := &operation.Extension{
		FormatVersion: 1,
		Type:          3,
		Redeemed:      []operation.ValencyRef{{Op: g.Id(), Type: 99}},
	}
	if err := s.ApplyExtension(bad.Id(), bad, WitnessOrd{}); err == nil {
		t.Fatal("expected an error for an ungranted valency")
	}
}

func TestGlobalReadsFollowWitnessOrd(t *testing.T) {
	s := New()
	g := testGenesis()
	s.ApplyGenesis(g, WitnessOrd{})

	// Apply two transitions out of chain order; reads must come back in
	// WitnessOrd order regardless of application order.
	later := &operation.Transition{
		FormatVersion: 1,
		Type:          1,
		GlobalState: []operation.GlobalStateAtom{
			{Type: 1, Index: 0, Value: operation.StateValue{Kind: operation.StateFungible, Amount: 300}},
		},
	}
	earlier := &operation.Transition{
		FormatVersion: 1,
		Type:          2,
		GlobalState: []operation.GlobalStateAtom{
			{Type: 1, Index: 0, Value: operation.StateValue{Kind: operation.StateFungible, Amount: 200}},
		},
	}
	if err := s.ApplyTransition(later.Id(), later, WitnessOrd{Kind: OnChain, Height: 50}); err != nil {
		t.Fatal(err)
	}
	if err := s.ApplyTransition(earlier.Id(), earlier, WitnessOrd{Kind: OnChain, Height: 20}); err != nil {
		t.Fatal(err)
	}

	want := []uint64{42, 200, 300} // genesis (off-chain sentinel) first
	for i, amount := range want {
		val, ok := s.GlobalAt(1, uint16(i))
		if !ok {
			t.Fatalf("missing global atom at position %d", i)
		}
		if val.Amount != amount {
			t.Fatalf("position %d: got amount %d, want %d", i, val.Amount, amount)
		}
	}
}

func TestWitnessOrdTotalOrder(t *testing.T) {
	offChain := WitnessOrd{Kind: OffChain}
	onChainLow := WitnessOrd{Kind: OnChain, Height: 10, TxOrd: 1}
	onChainSameHeight := WitnessOrd{Kind: OnChain, Height: 10, TxOrd: 2}
	onChainHigh := WitnessOrd{Kind: OnChain, Height: 11}
	archived := WitnessOrd{Kind: Archived}

	ordered := []WitnessOrd{offChain, onChainLow, onChainSameHeight, onChainHigh, archived}
	for i := 0; i < len(ordered); i++ {
		for j := i + 1; j < len(ordered); j++ {
			if !ordered[i].Less(ordered[j]) {
				t.Fatalf("expected ordered[%d] < ordered[%d]", i, j)
			}
			if ordered[j].Less(ordered[i]) {
				t.Fatalf("expected ordered[%d] not < ordered[%d]", j, i)
			}
		}
	}

	// Ties within a tier break by XWitnessId.
	a := WitnessOrd{Kind: OnChain, Height: 10, TxOrd: 1, XWitnessId: [32]byte{0x01}}
	b := WitnessOrd{Kind: OnChain, Height: 10, TxOrd: 1, XWitnessId: [32]byte{0x02}}
	if !a.Less(b) || b.Less(a) {
		t.Fatal("expected XWitnessId to break the tie deterministically")
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	g := testGenesis()
	s := New()
	s.ApplyGenesis(g, WitnessOrd{})

	tr := &operation.Transition{
		FormatVersion: 1,
		Type:          1,
		Inputs:        []operation.Input{{Op: g.Id(), Index: 0}},
		GlobalState: []operation.GlobalStateAtom{
			{Type: 1, Index: 0, Value: operation.StateValue{Kind: operation.StateFungible, Amount: 7}},
		},
	}
	ord := WitnessOrd{Kind: OnChain, Height: 10, TxOrd: 2}
	if err := s.ApplyTransition(tr.Id(), tr, ord); err != nil {
		t.Fatal(err)
	}

	kv := NewMemKV()
	if err := s.Save(kv); err != nil {
		t.Fatal(err)
	}
	restored, err := Load(kv)
	if err != nil {
		t.Fatal(err)
	}

	if n := restored.GlobalCount(1); n != s.GlobalCount(1) {
		t.Fatalf("global count drifted through the snapshot: %d vs %d", n, s.GlobalCount(1))
	}
	if by, ok := restored.SpentBy(AssignmentKey{Op: g.Id(), Index: 0}); !ok || by != tr.Id() {
		t.Fatal("spent map did not survive the snapshot")
	}
	if !restored.HasRight(RightKey{Op: g.Id(), Type: 7}) {
		t.Fatal("rights did not survive the snapshot")
	}
	got, ok := restored.OpOrd(tr.Id())
	if !ok || got != ord {
		t.Fatalf("operation ordering did not survive the snapshot: %v ok=%t", got, ok)
	}
}

func TestLoadMissingSnapshot(t *testing.T) {
	if _, err := Load(NewMemKV()); err != ErrSnapshotNotFound {
		t.Fatalf("expected ErrSnapshotNotFound, got %v", err)
	}
}
