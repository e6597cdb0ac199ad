// Copyright 2025 RGB Core Project

package validator

import (
	"context"
	"math/big"

	"github.com/rgbcore/rgbcore/pkg/btctx"
	"github.com/rgbcore/rgbcore/pkg/operation"
	"github.com/rgbcore/rgbcore/pkg/rgberr"
	"github.com/rgbcore/rgbcore/pkg/schema"
	"github.com/rgbcore/rgbcore/pkg/seal"
	"github.com/rgbcore/rgbcore/pkg/state"
	"github.com/rgbcore/rgbcore/pkg/vm"
)

// runValidatorVM executes one operation's validator entry point and
// folds the verdict into report. A returned error means the library
// set itself could not be resolved — a schema-authoring defect, not a
// runtime condition — which aborts the whole run rather than
// just failing this one operation; every other outcome, including a
// script that runs to completion with CK=fail, becomes a Failure status
// and lets validation continue over the rest of the DAG.
func (v *Validator) runValidatorVM(s *schema.Schema, entry schema.EntryPoint, vctx vm.Context, limit uint64, opId operation.OpId, report *Report) error {
	core := vm.NewCore()
	err := vm.Run(s, entry, vctx, core, limit)
	if err != nil {
		if e, ok := err.(*rgberr.Error); ok && e.Code == rgberr.MissingLibrary {
			return err
		}
		report.fail(opId, err)
		return nil
	}
	if !core.CK {
		report.fail(opId, rgberr.New(rgberr.ScriptFailed, "validator script for operation %x returned CK=fail", opId))
	}
	return nil
}

// checkConformance checks schema conformance: every global-state and
// assignment type an operation writes must be schema-declared, and the
// per-type occurrence count must respect the schema's {min,max} bound.
func checkConformance(s *schema.Schema, global []operation.GlobalStateAtom, assigns []operation.Assignment) []*rgberr.Error {
	var errs []*rgberr.Error

	globalCounts := make(map[operation.StateType]uint16, len(global))
	for _, g := range global {
		if _, ok := s.GlobalTypes[g.Type]; !ok {
			errs = append(errs, rgberr.New(rgberr.UnknownType, "global state type %d is not declared by schema", g.Type))
			continue
		}
		globalCounts[g.Type]++
	}
	for ty, spec := range s.GlobalTypes {
		if !spec.Occurrence.Allows(globalCounts[ty]) {
			errs = append(errs, rgberr.New(rgberr.OccurrenceBoundViolated,
				"global state type %d occurs %d times, outside its declared bound", ty, globalCounts[ty]))
		}
	}

	assignCounts := make(map[operation.AssignType]uint16, len(assigns))
	for _, a := range assigns {
		if _, ok := s.AssignTypes[a.Type]; !ok {
			errs = append(errs, rgberr.New(rgberr.UnknownType, "assignment type %d is not declared by schema", a.Type))
			continue
		}
		assignCounts[a.Type]++
	}
	for ty, spec := range s.AssignTypes {
		if !spec.Occurrence.Allows(assignCounts[ty]) {
			errs = append(errs, rgberr.New(rgberr.OccurrenceBoundViolated,
				"assignment type %d occurs %d times, outside its declared bound", ty, assignCounts[ty]))
		}
	}
	return errs
}

// recordOutpoints tracks seal outpoints: as each operation is
// accepted, every Bitcoin outpoint one of its revealed-seal assignments
// names gets recorded against that operation's OpId; a later operation
// whose own assignment names the same outpoint is a double-spend at the
// seal layer, independent of whatever double-spend ContractState itself
// already catches at the input-consumption level.
func recordOutpoints(opId operation.OpId, assignments []operation.Assignment, outpoints map[btctx.OutPoint]operation.OpId, report *Report) {
	for _, a := range assignments {
		if a.Seal.Seal == nil || a.Seal.Seal.Kind != seal.Revealed {
			continue
		}
		op := btctx.OutPoint{Txid: a.Seal.Seal.Txid, Vout: a.Seal.Seal.Vout}
		if prior, dup := outpoints[op]; dup && prior != opId {
			report.fail(opId, rgberr.New(rgberr.DoubleSpend,
				"assignment at outpoint %x:%d was already sealed by operation %x", a.Seal.Seal.Txid, a.Seal.Seal.Vout, prior))
			continue
		}
		outpoints[op] = opId
	}
}

// validateNode runs the per-operation checks for one reachable operation
// and, if every check passes, folds it into acc. A non-nil return is
// the fatal unresolvable-library condition and aborts the whole run;
// anything less fatal is recorded into report and validation continues
// with the remaining operations.
func (v *Validator) validateNode(ctx context.Context, in Input, n *node, acc *state.ContractState, report *Report, outpoints map[btctx.OutPoint]operation.OpId) error {
	switch n.kind {
	case operation.KindTransition:
		return v.validateTransition(ctx, in, n, acc, report, outpoints)
	case operation.KindExtension:
		return v.validateExtension(in, n, acc, report, outpoints)
	default:
		return nil
	}
}

func (v *Validator) validateTransition(ctx context.Context, in Input, n *node, acc *state.ContractState, report *Report, outpoints map[btctx.OutPoint]operation.OpId) error {
	t := n.transition
	opId := n.id
	ab := n.anchored
	contractId := in.Genesis.Id()
	bundleId := ab.Bundle.Id()

	// Anchor + DBC verification.
	tx, err := v.resolver.ResolveTx(ctx, ab.Anchor.XWitnessId)
	if err != nil {
		report.fail(opId, err)
		return nil
	}
	if err := ab.Anchor.Verify(contractId, bundleId, &tx); err != nil {
		report.fail(opId, err)
		return nil
	}

	// Every seal this transition's inputs close must actually be
	// closed by the witness transaction just resolved.
	var closing []seal.Seal
	for _, in := range t.Inputs {
		key := state.AssignmentKey{Op: in.Op, Index: in.Index}
		owned, ok := acc.OwnedAt(key)
		if !ok {
			if by, spent := acc.SpentBy(key); spent {
				report.fail(opId, rgberr.New(rgberr.DoubleSpend,
					"input %x:%d was already consumed by operation %x", in.Op, in.Index, by))
			} else {
				report.fail(opId, rgberr.New(rgberr.NotClosed, "input %x:%d is not a live assignment", in.Op, in.Index))
			}
			return nil
		}
		if owned.Assignment.Seal.Seal != nil {
			closing = append(closing, *owned.Assignment.Seal.Seal)
		}
	}
	if len(closing) > 0 {
		root := ab.Anchor.Root(contractId, bundleId)
		if err := seal.Verify(closing, root, ab.Anchor.Witness(&tx)); err != nil {
			report.fail(opId, err)
			return nil
		}
	}

	// Witness ordinal; an archived witness aborts this operation.
	ord, err := v.resolver.ResolveOrd(ctx, ab.Anchor.XWitnessId)
	if err != nil {
		report.fail(opId, err)
		return nil
	}
	if ord.Kind == state.Archived {
		report.fail(opId, rgberr.New(rgberr.WitnessArchived, "witness %x for operation %x is archived", ab.Anchor.XWitnessId, opId))
		return nil
	}

	// Schema conformance.
	for _, cerr := range checkConformance(in.Schema, t.GlobalState, t.Assignments) {
		report.fail(opId, cerr)
	}

	// Validator script.
	entry, ok := in.Schema.Validators.TransitionEntry(t.Type)
	if !ok {
		report.fail(opId, rgberr.New(rgberr.SchemaMismatch, "schema declares no validator for transition type %d", t.Type))
		return nil
	}
	before := len(report.Failures())
	vctx := &opContext{
		state:   acc,
		meta:    t.Metadata,
		global:  t.GlobalState,
		inputs:  t.Inputs,
		outputs: t.Assignments,
		zk:      zkMap(in.ZkWitnesses),
	}
	if err := v.runValidatorVM(in.Schema, entry, vctx, in.Schema.VM.ComplexityLim, opId, report); err != nil {
		return err
	}
	if len(report.Failures()) > before {
		return nil
	}

	if err := checkFungibleBalance(acc, t); err != nil {
		report.fail(opId, err)
		return nil
	}

	if err := acc.ApplyTransition(opId, t, ord); err != nil {
		report.fail(opId, err)
		return nil
	}
	recordOutpoints(opId, t.Assignments, outpoints, report)
	return nil
}

// validateExtension runs conformance and script checks for an
// extension. An extension carries no anchor of its own (the
// consignment container lists extensions bare, unlike bundles'
// (Anchor, TransitionBundle) pairs), so anchor, seal-closure, and
// witness-ordinal checks never apply; it inherits the witness ordering of
// whichever redeemed right's granting operation is latest, keeping the
// global-state log's total order well-defined without requiring a
// witness of its own.
func (v *Validator) validateExtension(in Input, n *node, acc *state.ContractState, report *Report, outpoints map[btctx.OutPoint]operation.OpId) error {
	e := n.extension
	opId := n.id

	for _, ref := range e.Redeemed {
		if !acc.HasRight(state.RightKey{Op: ref.Op, Type: ref.Type}) {
			report.fail(opId, rgberr.New(rgberr.NotClosed, "valency %x:%d was never granted", ref.Op, ref.Type))
			return nil
		}
	}

	for _, cerr := range checkConformance(in.Schema, e.GlobalState, e.Assignments) {
		report.fail(opId, cerr)
	}

	entry, ok := in.Schema.Validators.ExtensionEntry(e.Type)
	if !ok {
		report.fail(opId, rgberr.New(rgberr.SchemaMismatch, "schema declares no validator for extension type %d", e.Type))
		return nil
	}
	before := len(report.Failures())
	vctx := &opContext{
		state:   acc,
		meta:    e.Metadata,
		global:  e.GlobalState,
		outputs: e.Assignments,
		zk:      zkMap(in.ZkWitnesses),
	}
	if err := v.runValidatorVM(in.Schema, entry, vctx, in.Schema.VM.ComplexityLim, opId, report); err != nil {
		return err
	}
	if len(report.Failures()) > before {
		return nil
	}

	ord := latestRedeemedOrd(acc, e.Redeemed)
	if err := acc.ApplyExtension(opId, e, ord); err != nil {
		report.fail(opId, err)
		return nil
	}
	recordOutpoints(opId, e.Assignments, outpoints, report)
	return nil
}

// latestRedeemedOrd picks the latest WitnessOrd among the operations
// granting e's redeemed rights, falling back to the zero (off-chain)
// ordering for an extension that redeems nothing.
func latestRedeemedOrd(acc *state.ContractState, redeemed []operation.ValencyRef) state.WitnessOrd {
	var best state.WitnessOrd
	have := false
	for _, ref := range redeemed {
		ord, ok := acc.OpOrd(ref.Op)
		if !ok {
			continue
		}
		if !have || best.Less(ord) {
			best, have = ord, true
		}
	}
	return best
}

// fungibleSums tallies, per assignment type, the revealed fungible
// amounts on one side of a transition. revealed is false for a type as
// soon as any fungible value of that type is concealed, since a partial
// sum proves nothing either way.
type fungibleSums struct {
	sum      map[operation.AssignType]*big.Int
	revealed map[operation.AssignType]bool
}

func newFungibleSums() fungibleSums {
	return fungibleSums{
		sum:      make(map[operation.AssignType]*big.Int),
		revealed: make(map[operation.AssignType]bool),
	}
}

func (f fungibleSums) add(ty operation.AssignType, val *operation.StateValue) {
	if val == nil {
		f.revealed[ty] = false
		if _, ok := f.sum[ty]; !ok {
			f.sum[ty] = new(big.Int)
		}
		return
	}
	if val.Kind != operation.StateFungible {
		return
	}
	if _, ok := f.sum[ty]; !ok {
		f.sum[ty] = new(big.Int)
		f.revealed[ty] = true
	}
	f.sum[ty].Add(f.sum[ty], new(big.Int).SetUint64(val.Amount))
}

// checkFungibleBalance enforces the homomorphic-balance invariant:
// for every assignment type with fungible state, the sum of the
// transition's revealed input amounts must equal the sum of its
// revealed output amounts. Types where any side is concealed are
// skipped — a concealed amount is a commitment the schema's own script
// (or its ZK1 range proof) vouches for, not something the validator can
// total up. Sums are carried in big integers, so no overflow can slip a
// mismatched pair of u64 totals past the comparison.
func checkFungibleBalance(acc *state.ContractState, t *operation.Transition) *rgberr.Error {
	inputs := newFungibleSums()
	for _, in := range t.Inputs {
		owned, ok := acc.OwnedAt(state.AssignmentKey{Op: in.Op, Index: in.Index})
		if !ok {
			continue // already failed earlier in validateTransition
		}
		inputs.add(owned.Assignment.Type, owned.Assignment.State.Value)
	}
	outputs := newFungibleSums()
	for _, a := range t.Assignments {
		outputs.add(a.Type, a.State.Value)
	}

	// A type present on only one side balances against a zero sum on
	// the other.
	for ty := range outputs.sum {
		if _, ok := inputs.sum[ty]; !ok {
			inputs.sum[ty], inputs.revealed[ty] = new(big.Int), true
		}
	}
	for ty, inSum := range inputs.sum {
		if outRevealed, hasOut := outputs.revealed[ty]; !inputs.revealed[ty] || (hasOut && !outRevealed) {
			continue
		}
		outSum := outputs.sum[ty]
		if outSum == nil {
			outSum = new(big.Int)
		}
		if inSum.Cmp(outSum) != 0 {
			return rgberr.New(rgberr.CommitmentMismatch,
				"fungible amounts of type %d do not balance: inputs sum to %s, outputs to %s", ty, inSum, outSum)
		}
	}
	return nil
}
