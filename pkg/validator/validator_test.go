// Copyright 2025 RGB Core Project

package validator

import (
	"context"
	"errors"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/txscript"

	"github.com/rgbcore/rgbcore/pkg/btctx"
	"github.com/rgbcore/rgbcore/pkg/dbc"
	"github.com/rgbcore/rgbcore/pkg/mpc"
	"github.com/rgbcore/rgbcore/pkg/operation"
	"github.com/rgbcore/rgbcore/pkg/resolver"
	"github.com/rgbcore/rgbcore/pkg/rgberr"
	"github.com/rgbcore/rgbcore/pkg/schema"
	"github.com/rgbcore/rgbcore/pkg/seal"
	"github.com/rgbcore/rgbcore/pkg/state"
)

const assignTy operation.AssignType = 1

var libId = schema.LibId{0x01}

// alwaysOkSchema returns a minimal schema whose every validator entry
// point is a single halt instruction, so every operation's VM check
// trivially passes (CK starts ok and halt never clears it).
func alwaysOkSchema() *schema.Schema {
	ep := schema.EntryPoint{Lib: libId, Offset: 0}
	return &schema.Schema{
		FormatVersion: 1,
		Name:          "trivial",
		AssignTypes: map[operation.AssignType]schema.AssignTypeSpec{
			assignTy: {SemanticType: 1, Occurrence: schema.Occurrence{Min: 0, Max: 0}},
		},
		GlobalTypes:  map[operation.StateType]schema.GlobalTypeSpec{},
		RequiredISAs: []schema.ISA{schema.ISAAlu},
		VM:           schema.VMConfig{FieldOrder: "secp256k1", HaltAllowed: true, ComplexityLim: 1000},
		Libraries: map[schema.LibId]*schema.Library{
			libId: {Id: libId, Code: []byte{0x0c}}, // OpHalt == 12
		},
		Validators: schema.Validators{
			Genesis:              ep,
			TransitionValidators: map[operation.TransitionType]schema.EntryPoint{1: ep},
			ExtensionValidators:  map[operation.ExtensionType]schema.EntryPoint{},
		},
	}
}

func mustInternalKey(t *testing.T) [32]byte {
	t.Helper()
	priv, err := btcec.NewPrivateKey()
	if err != nil {
		t.Fatal(err)
	}
	var out [32]byte
	copy(out[:], schnorr.SerializePubKey(priv.PubKey()))
	return out
}

// anchorFor embeds bundleId into a fresh opret witness transaction via
// the MPC + DBC layers exactly as a real anchoring caller would, and
// returns the Anchor plus the witness transaction it commits to.
func anchorFor(t *testing.T, contractId operation.ContractId, bundleId operation.BundleId, txid btctx.Txid) (Anchor, *btctx.Tx) {
	t.Helper()
	entries := []mpc.Entry{{Protocol: mpc.ProtocolID(contractId), Message: mpc.Message(bundleId)}}
	commitment, err := mpc.Compute(entries, 1, mpc.DefaultCeiling, 42)
	if err != nil {
		t.Fatal(err)
	}
	proof, err := commitment.Proof(mpc.ProtocolID(contractId))
	if err != nil {
		t.Fatal(err)
	}
	script, opretProof := dbc.EmbedOpret(commitment.Root)
	tx := &btctx.Tx{Txid: txid, Outputs: []btctx.TxOut{{PkScript: script}}}
	return Anchor{MPCProof: *proof, XWitnessId: txid, DBCKind: seal.Opret, OpretProof: opretProof}, tx
}

func TestValidateAcceptsSingleTransitionChain(t *testing.T) {
	s := alwaysOkSchema()

	var genesisTxid btctx.Txid
	genesisTxid[0] = 0x01
	genesis := &operation.Genesis{
		FormatVersion: 1,
		SchemaId:      s.Id(),
		ChainLayer:    "bitcoin:regtest",
		Assignments: []operation.Assignment{
			{
				Type:  assignTy,
				Index: 0,
				Seal:  operation.RevealedSeal(seal.Seal{Kind: seal.Revealed, Txid: genesisTxid, Vout: 0}),
				State: operation.RevealedState(operation.StateValue{Kind: operation.StateVoid}),
			},
		},
	}
	contractId := genesis.Id()

	var witnessTxid btctx.Txid
	witnessTxid[0] = 0x02
	transition := &operation.Transition{
		FormatVersion: 1,
		Type:          1,
		Inputs:        []operation.Input{{Op: contractId, Index: 0}},
		Assignments: []operation.Assignment{
			{
				Type:  assignTy,
				Index: 0,
				Seal:  operation.RevealedSeal(seal.Seal{Kind: seal.Revealed, Txid: witnessTxid, Vout: 0}),
				State: operation.RevealedState(operation.StateValue{Kind: operation.StateVoid}),
			},
		},
	}
	bundle := &operation.Bundle{
		InputMap: []operation.InputMapEntry{{Vin: 0, Ops: []operation.OpId{transition.Id()}}},
		Known:    map[operation.OpId]*operation.Transition{transition.Id(): transition},
	}
	bundleId := bundle.Id()

	anchor, witnessTx := anchorFor(t, contractId, bundleId, witnessTxid)
	// The witness tx must actually spend the genesis assignment's
	// outpoint for seal closure to succeed.
	witnessTx.Inputs = []btctx.TxIn{{PrevOut: btctx.OutPoint{Txid: genesisTxid, Vout: 0}}}

	res := resolver.NewStatic(
		map[resolver.XWitnessId]btctx.Tx{witnessTxid: *witnessTx},
		map[resolver.XWitnessId]state.WitnessOrd{witnessTxid: {Kind: state.OnChain, Height: 100, XWitnessId: witnessTxid}},
	)
	v := New(res)

	endpointSeal := transition.Assignments[0].Seal.Conceal()
	in := Input{
		Schema:  s,
		Genesis: genesis,
		Bundles: []AnchoredBundle{{Anchor: anchor, Bundle: bundle}},
		Endpoints: []Endpoint{
			{Bundle: bundleId, Seal: endpointSeal},
		},
	}

	report, acc, err := v.Validate(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if !report.Valid() {
		t.Fatalf("expected a valid report, got failures: %v", report.Failures())
	}
	if acc == nil {
		t.Fatal("expected a non-nil accumulator for a valid run")
	}
	if _, live := acc.OwnedAt(state.AssignmentKey{Op: transition.Id(), Index: 0}); !live {
		t.Fatal("expected the transition's own assignment to be live in the final state")
	}
	if _, stillLive := acc.OwnedAt(state.AssignmentKey{Op: contractId, Index: 0}); stillLive {
		t.Fatal("expected the genesis assignment consumed by the transition to no longer be live")
	}
}

func TestValidateRejectsSchemaMismatchAtGenesis(t *testing.T) {
	s := alwaysOkSchema()
	genesis := &operation.Genesis{
		FormatVersion: 1,
		SchemaId:      operation.SchemaId{0xFF}, // deliberately wrong
		ChainLayer:    "bitcoin:regtest",
	}
	v := New(resolver.NewStatic(nil, nil))
	_, _, err := v.Validate(context.Background(), Input{Schema: s, Genesis: genesis})
	if err == nil {
		t.Fatal("expected a fatal error for a genesis declaring the wrong schema id")
	}
}

func TestValidateFailsWhenWitnessDoesNotSpendClaimedSeal(t *testing.T) {
	s := alwaysOkSchema()
	var genesisTxid btctx.Txid
	genesisTxid[0] = 0x10
	genesis := &operation.Genesis{
		FormatVersion: 1,
		SchemaId:      s.Id(),
		ChainLayer:    "bitcoin:regtest",
		Assignments: []operation.Assignment{
			{
				Type:  assignTy,
				Index: 0,
				Seal:  operation.RevealedSeal(seal.Seal{Kind: seal.Revealed, Txid: genesisTxid, Vout: 0}),
				State: operation.RevealedState(operation.StateValue{Kind: operation.StateVoid}),
			},
		},
	}
	contractId := genesis.Id()

	var witnessTxid btctx.Txid
	witnessTxid[0] = 0x11
	transition := &operation.Transition{
		FormatVersion: 1,
		Type:          1,
		Inputs:        []operation.Input{{Op: contractId, Index: 0}},
		Assignments: []operation.Assignment{
			{
				Type:  assignTy,
				Index: 0,
				Seal:  operation.RevealedSeal(seal.Seal{Kind: seal.Revealed, Txid: witnessTxid, Vout: 0}),
				State: operation.RevealedState(operation.StateValue{Kind: operation.StateVoid}),
			},
		},
	}
	bundle := &operation.Bundle{
		InputMap: []operation.InputMapEntry{{Vin: 0, Ops: []operation.OpId{transition.Id()}}},
		Known:    map[operation.OpId]*operation.Transition{transition.Id(): transition},
	}
	bundleId := bundle.Id()

	anchor, witnessTx := anchorFor(t, contractId, bundleId, witnessTxid)
	// Deliberately do NOT spend the genesis outpoint from this witness tx.

	res := resolver.NewStatic(
		map[resolver.XWitnessId]btctx.Tx{witnessTxid: *witnessTx},
		map[resolver.XWitnessId]state.WitnessOrd{witnessTxid: {Kind: state.OnChain, Height: 1, XWitnessId: witnessTxid}},
	)
	v := New(res)

	endpointSeal := transition.Assignments[0].Seal.Conceal()
	in := Input{
		Schema:  s,
		Genesis: genesis,
		Bundles: []AnchoredBundle{{Anchor: anchor, Bundle: bundle}},
		Endpoints: []Endpoint{
			{Bundle: bundleId, Seal: endpointSeal},
		},
	}
	report, acc, err := v.Validate(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if report.Valid() {
		t.Fatal("expected validation to fail when the witness tx does not spend the seal it claims to close")
	}
	if acc != nil {
		t.Fatal("expected a nil accumulator for an invalid run")
	}
}

// tapretAnchorFor mirrors anchorFor but uses the tapret DBC variant,
// exercising the btcsuite taproot tweak when the anchor is built.
func tapretAnchorFor(t *testing.T, contractId operation.ContractId, bundleId operation.BundleId, txid btctx.Txid) (Anchor, *btctx.Tx) {
	t.Helper()
	entries := []mpc.Entry{{Protocol: mpc.ProtocolID(contractId), Message: mpc.Message(bundleId)}}
	commitment, err := mpc.Compute(entries, 1, mpc.DefaultCeiling, 7)
	if err != nil {
		t.Fatal(err)
	}
	proof, err := commitment.Proof(mpc.ProtocolID(contractId))
	if err != nil {
		t.Fatal(err)
	}
	internal := mustInternalKey(t)
	tweaked, tapretProof, err := dbc.EmbedTapret(internal, [32]byte{}, commitment.Root)
	if err != nil {
		t.Fatal(err)
	}
	script := append([]byte{txscript.OP_1, 0x20}, tweaked[:]...)
	tx := &btctx.Tx{Txid: txid, Outputs: []btctx.TxOut{{PkScript: script}}}
	return Anchor{MPCProof: *proof, XWitnessId: txid, DBCKind: seal.Tapret, TapretProof: tapretProof}, tx
}

func TestValidateAcceptsTapretAnchoredGenesisOnlyContract(t *testing.T) {
	s := alwaysOkSchema()
	var genesisTxid btctx.Txid
	genesisTxid[0] = 0x20
	genesis := &operation.Genesis{
		FormatVersion: 1,
		SchemaId:      s.Id(),
		ChainLayer:    "bitcoin:regtest",
		Assignments: []operation.Assignment{
			{
				Type:  assignTy,
				Index: 0,
				Seal:  operation.RevealedSeal(seal.Seal{Kind: seal.Revealed, Txid: genesisTxid, Vout: 0}),
				State: operation.RevealedState(operation.StateValue{Kind: operation.StateVoid}),
			},
		},
	}
	contractId := genesis.Id()

	var witnessTxid btctx.Txid
	witnessTxid[0] = 0x21
	transition := &operation.Transition{
		FormatVersion: 1,
		Type:          1,
		Inputs:        []operation.Input{{Op: contractId, Index: 0}},
	}
	bundle := &operation.Bundle{
		InputMap: []operation.InputMapEntry{{Vin: 0, Ops: []operation.OpId{transition.Id()}}},
		Known:    map[operation.OpId]*operation.Transition{transition.Id(): transition},
	}
	bundleId := bundle.Id()

	anchor, witnessTx := tapretAnchorFor(t, contractId, bundleId, witnessTxid)
	witnessTx.Inputs = []btctx.TxIn{{PrevOut: btctx.OutPoint{Txid: genesisTxid, Vout: 0}}}

	res := resolver.NewStatic(
		map[resolver.XWitnessId]btctx.Tx{witnessTxid: *witnessTx},
		map[resolver.XWitnessId]state.WitnessOrd{witnessTxid: {Kind: state.OnChain, Height: 5, XWitnessId: witnessTxid}},
	)
	v := New(res)

	in := Input{
		Schema:    s,
		Genesis:   genesis,
		Bundles:   []AnchoredBundle{{Anchor: anchor, Bundle: bundle}},
		Endpoints: nil,
	}
	report, _, err := v.Validate(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if !report.Valid() {
		t.Fatalf("expected a valid report, got failures: %v", report.Failures())
	}
	// With no declared endpoints, the transition is extraneous: a
	// warning, not a failure.
	foundWarning := false
	for _, st := range report.Statuses {
		if st.Severity == Warning {
			foundWarning = true
		}
	}
	if !foundWarning {
		t.Fatal("expected a warning for the unreachable transition")
	}
}

// fungibleGenesis builds a genesis with one revealed fungible
// assignment of the given amount at (txid, vout 0).
func fungibleGenesis(s *schema.Schema, txid btctx.Txid, amount uint64) *operation.Genesis {
	return &operation.Genesis{
		FormatVersion: 1,
		SchemaId:      s.Id(),
		ChainLayer:    "bitcoin:regtest",
		Assignments: []operation.Assignment{
			{
				Type:  assignTy,
				Index: 0,
				Seal:  operation.RevealedSeal(seal.Seal{Kind: seal.Revealed, Txid: txid, Vout: 0}),
				State: operation.RevealedState(operation.StateValue{Kind: operation.StateFungible, Amount: amount}),
			},
		},
	}
}

// spendingTransition builds a transition consuming the genesis
// assignment and producing one fungible output of the given amount
// sealed at (sealTxid, vout 0).
func spendingTransition(contractId operation.ContractId, sealTxid btctx.Txid, amount uint64) *operation.Transition {
	return &operation.Transition{
		FormatVersion: 1,
		Type:          1,
		Inputs:        []operation.Input{{Op: contractId, Index: 0}},
		Assignments: []operation.Assignment{
			{
				Type:  assignTy,
				Index: 0,
				Seal:  operation.RevealedSeal(seal.Seal{Kind: seal.Revealed, Txid: sealTxid, Vout: 0}),
				State: operation.RevealedState(operation.StateValue{Kind: operation.StateFungible, Amount: amount}),
			},
		},
	}
}

// anchoredSpend wraps t into its own single-transition bundle anchored
// at witnessTxid, with the witness spending the genesis outpoint.
func anchoredSpend(t *testing.T, contractId operation.ContractId, genesisTxid, witnessTxid btctx.Txid, tr *operation.Transition) (AnchoredBundle, btctx.Tx) {
	t.Helper()
	bundle := &operation.Bundle{
		InputMap: []operation.InputMapEntry{{Vin: 0, Ops: []operation.OpId{tr.Id()}}},
		Known:    map[operation.OpId]*operation.Transition{tr.Id(): tr},
	}
	anchor, witnessTx := anchorFor(t, contractId, bundle.Id(), witnessTxid)
	witnessTx.Inputs = []btctx.TxIn{{PrevOut: btctx.OutPoint{Txid: genesisTxid, Vout: 0}}}
	return AnchoredBundle{Anchor: anchor, Bundle: bundle}, *witnessTx
}

func TestValidateDetectsDoubleSpend(t *testing.T) {
	s := alwaysOkSchema()
	var genesisTxid btctx.Txid
	genesisTxid[0] = 0x30
	genesis := fungibleGenesis(s, genesisTxid, 42)
	contractId := genesis.Id()

	var txidA, txidB btctx.Txid
	txidA[0], txidB[0] = 0x31, 0x32
	trA := spendingTransition(contractId, txidA, 42)
	trB := spendingTransition(contractId, txidB, 42)
	abA, witnessA := anchoredSpend(t, contractId, genesisTxid, txidA, trA)
	abB, witnessB := anchoredSpend(t, contractId, genesisTxid, txidB, trB)

	res := resolver.NewStatic(
		map[resolver.XWitnessId]btctx.Tx{txidA: witnessA, txidB: witnessB},
		map[resolver.XWitnessId]state.WitnessOrd{
			txidA: {Kind: state.OnChain, Height: 10, XWitnessId: txidA},
			txidB: {Kind: state.OnChain, Height: 11, XWitnessId: txidB},
		},
	)
	v := New(res)

	in := Input{
		Schema:  s,
		Genesis: genesis,
		Bundles: []AnchoredBundle{abA, abB},
		Endpoints: []Endpoint{
			{Bundle: abA.Bundle.Id(), Seal: trA.Assignments[0].Seal.Conceal()},
			{Bundle: abB.Bundle.Id(), Seal: trB.Assignments[0].Seal.Conceal()},
		},
	}
	report, acc, err := v.Validate(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if report.Valid() {
		t.Fatal("expected validation to fail when two transitions consume the same input")
	}
	if acc != nil {
		t.Fatal("expected a nil accumulator for an invalid run")
	}
	var doubleSpends []Status
	for _, st := range report.Failures() {
		if st.Code == rgberr.DoubleSpend {
			doubleSpends = append(doubleSpends, st)
		}
	}
	if len(doubleSpends) != 1 {
		t.Fatalf("expected exactly one DoubleSpend failure, got %d: %v", len(doubleSpends), report.Failures())
	}
}

func TestValidateRejectsCorruptOpretProof(t *testing.T) {
	s := alwaysOkSchema()
	var genesisTxid btctx.Txid
	genesisTxid[0] = 0x40
	genesis := fungibleGenesis(s, genesisTxid, 42)
	contractId := genesis.Id()

	var witnessTxid btctx.Txid
	witnessTxid[0] = 0x41
	tr := spendingTransition(contractId, witnessTxid, 42)
	ab, witnessTx := anchoredSpend(t, contractId, genesisTxid, witnessTxid, tr)
	// Flip a bit of the proof: point it at an output that is not the
	// OP_RETURN embedding.
	ab.Anchor.OpretProof.OutputIndex ^= 1

	res := resolver.NewStatic(
		map[resolver.XWitnessId]btctx.Tx{witnessTxid: witnessTx},
		map[resolver.XWitnessId]state.WitnessOrd{witnessTxid: {Kind: state.OnChain, Height: 3, XWitnessId: witnessTxid}},
	)
	v := New(res)

	in := Input{
		Schema:    s,
		Genesis:   genesis,
		Bundles:   []AnchoredBundle{ab},
		Endpoints: []Endpoint{{Bundle: ab.Bundle.Id(), Seal: tr.Assignments[0].Seal.Conceal()}},
	}
	report, acc, err := v.Validate(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if report.Valid() {
		t.Fatal("expected validation to fail against a corrupt DBC proof")
	}
	if acc != nil {
		t.Fatal("expected no state applied for an invalid run")
	}
	for _, st := range report.Statuses {
		if st.Severity == Warning {
			t.Fatalf("expected no warnings, got %v", st)
		}
	}
}

func TestValidateAbortsOnUnknownISA(t *testing.T) {
	s := alwaysOkSchema()
	s.RequiredISAs = []schema.ISA{"UNKNOWN"}
	genesis := &operation.Genesis{
		FormatVersion: 1,
		SchemaId:      s.Id(),
		ChainLayer:    "bitcoin:regtest",
	}
	v := New(resolver.NewStatic(nil, nil))
	_, _, err := v.Validate(context.Background(), Input{Schema: s, Genesis: genesis})
	if err == nil {
		t.Fatal("expected a fatal error for a schema requiring an unknown ISA")
	}
	var rerr *rgberr.Error
	if !errors.As(err, &rerr) || rerr.Code != rgberr.MissingLibrary {
		t.Fatalf("expected a MissingLibrary error, got %v", err)
	}
}

func TestValidateRejectsFungibleImbalance(t *testing.T) {
	s := alwaysOkSchema()
	var genesisTxid btctx.Txid
	genesisTxid[0] = 0x50
	genesis := fungibleGenesis(s, genesisTxid, 42)
	contractId := genesis.Id()

	var witnessTxid btctx.Txid
	witnessTxid[0] = 0x51
	tr := spendingTransition(contractId, witnessTxid, 41) // 42 in, 41 out
	ab, witnessTx := anchoredSpend(t, contractId, genesisTxid, witnessTxid, tr)

	res := resolver.NewStatic(
		map[resolver.XWitnessId]btctx.Tx{witnessTxid: witnessTx},
		map[resolver.XWitnessId]state.WitnessOrd{witnessTxid: {Kind: state.OnChain, Height: 4, XWitnessId: witnessTxid}},
	)
	v := New(res)

	in := Input{
		Schema:    s,
		Genesis:   genesis,
		Bundles:   []AnchoredBundle{ab},
		Endpoints: []Endpoint{{Bundle: ab.Bundle.Id(), Seal: tr.Assignments[0].Seal.Conceal()}},
	}
	report, _, err := v.Validate(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if report.Valid() {
		t.Fatal("expected validation to fail when fungible amounts do not balance")
	}
	found := false
	for _, st := range report.Failures() {
		if st.Code == rgberr.CommitmentMismatch {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a CommitmentMismatch failure, got %v", report.Failures())
	}
}
