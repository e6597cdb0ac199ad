// Copyright 2025 RGB Core Project

// Package validator implements the DAG-traversal validation
// algorithm: from a genesis and a candidate set of anchored bundles and
// extensions, it verifies anchors, seal closure, schema conformance,
// and VM scripts for every operation reachable from the declared
// endpoints, producing a Report and, on acceptance, the resulting
// ContractState.
package validator

import (
	"bytes"
	"context"
	"log"
	"sort"

	"github.com/google/uuid"

	"github.com/rgbcore/rgbcore/pkg/btctx"
	"github.com/rgbcore/rgbcore/pkg/operation"
	"github.com/rgbcore/rgbcore/pkg/resolver"
	"github.com/rgbcore/rgbcore/pkg/rgberr"
	"github.com/rgbcore/rgbcore/pkg/schema"
	"github.com/rgbcore/rgbcore/pkg/seal"
	"github.com/rgbcore/rgbcore/pkg/state"
	"github.com/rgbcore/rgbcore/pkg/vm"
)

// AnchoredBundle pairs a transition bundle with the Anchor binding it
// to a witness transaction in a consignment.
type AnchoredBundle struct {
	Anchor Anchor
	Bundle *operation.Bundle
}

// Endpoint names one terminal seal a consignment's sender wants the
// recipient to recognize: the bundle it belongs to and the
// concealed seal form the recipient checks their own assignments
// against.
type Endpoint struct {
	Bundle operation.BundleId
	Seal   seal.Concealed
}

// ZkWitness supplies the external Groth16 proof/public-witness pair a
// zkv opcode needs to verify against one ZK1 library; the core never
// derives proofs itself.
type ZkWitness struct {
	Proof  []byte
	Public []byte
}

// Input is the candidate operation DAG a Validator checks.
type Input struct {
	Schema      *schema.Schema
	Genesis     *operation.Genesis
	Bundles     []AnchoredBundle
	Extensions  []*operation.Extension
	Endpoints   []Endpoint
	ZkWitnesses map[[32]byte]ZkWitness
}

// MetricsRecorder observes completed validation runs; pkg/metrics
// implements this over Prometheus counters/histograms. Optional.
type MetricsRecorder interface {
	ObserveRun(valid bool, failures, warnings int)
}

// Option configures a Validator.
type Option func(*Validator)

// WithLogger overrides the default no-op logger.
func WithLogger(l *log.Logger) Option { return func(v *Validator) { v.logger = l } }

// WithMetrics attaches a MetricsRecorder.
func WithMetrics(m MetricsRecorder) Option { return func(v *Validator) { v.metrics = m } }

// Validator verifies candidate DAGs against a caller-supplied
// Resolver. A Validator value is stateless between runs; Validate is
// safe to call repeatedly.
type Validator struct {
	resolver resolver.Resolver
	logger   *log.Logger
	metrics  MetricsRecorder
}

// New returns a Validator that resolves witnesses through res.
func New(res resolver.Resolver, opts ...Option) *Validator {
	v := &Validator{
		resolver: res,
		logger:   log.New(log.Writer(), "[validator] ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// node is one reachable operation discovered during traversal, carrying
// whichever of the three operation shapes it is plus its owning bundle
// anchor, if any.
type node struct {
	id         operation.OpId
	kind       operation.Kind
	transition *operation.Transition
	extension  *operation.Extension
	anchored   *AnchoredBundle
}

// Validate runs the full validation algorithm. It returns
// (nil, nil, err) only for the fatal-and-abort conditions (schema
// mismatch at genesis, an unsupported ISA, an unresolvable library);
// every other problem becomes a
// Failure/Warning/Info entry in the returned Report, and acc is non-nil
// and safe to read only when report.Valid().
func (v *Validator) Validate(ctx context.Context, in Input) (*Report, *state.ContractState, error) {
	runId := uuid.New()
	report := &Report{RunID: runId}
	acc := state.New()

	if in.Schema == nil || in.Genesis == nil {
		return nil, nil, rgberr.New(rgberr.SchemaMismatch, "validator input requires both a schema and a genesis")
	}

	// The schema the genesis declares must be the schema provided, and
	// every ISA it requires must exist.
	declaredSchemaId := in.Schema.Id()
	if in.Genesis.SchemaId != declaredSchemaId {
		return nil, nil, rgberr.New(rgberr.SchemaMismatch,
			"genesis declares schema %x, provided schema is %x", in.Genesis.SchemaId, declaredSchemaId)
	}
	for _, isa := range in.Schema.RequiredISAs {
		if !vm.SupportsISA(isa) {
			return nil, nil, rgberr.New(rgberr.MissingLibrary,
				"schema requires unsupported VM instruction set %q", isa)
		}
	}
	contractId := in.Genesis.Id()

	// Genesis runs its validator script before anything else is touched.
	genesisCtx := &opContext{
		state:   acc,
		meta:    in.Genesis.Metadata,
		global:  in.Genesis.GlobalState,
		outputs: in.Genesis.Assignments,
		zk:      zkMap(in.ZkWitnesses),
	}
	if err := v.runValidatorVM(in.Schema, in.Schema.Validators.Genesis, genesisCtx, in.Schema.VM.ComplexityLim, contractId, report); err != nil {
		return nil, nil, err
	}
	if !report.Valid() {
		v.logRun(runId, report)
		return report, nil, nil
	}
	acc.ApplyGenesis(in.Genesis, state.WitnessOrd{})
	outpoints := make(map[btctx.OutPoint]operation.OpId)
	recordOutpoints(contractId, in.Genesis.Assignments, outpoints, report)

	// Reverse indices over everything the consignment carries.
	byId := make(map[operation.OpId]*node, len(in.Bundles)+len(in.Extensions))
	for bi := range in.Bundles {
		ab := &in.Bundles[bi]
		for opId, t := range ab.Bundle.Known {
			byId[opId] = &node{id: opId, kind: operation.KindTransition, transition: t, anchored: ab}
		}
	}
	for _, ext := range in.Extensions {
		id := ext.Id()
		byId[id] = &node{id: id, kind: operation.KindExtension, extension: ext}
	}

	// BFS backwards from endpoints, discovering every
	// ancestor operation reachable via inputs/redeemed valencies.
	visited := map[operation.OpId]bool{contractId: true}
	located := make(map[operation.BundleId][]state.AssignmentKey, len(in.Endpoints))
	var queue []operation.OpId
	for _, ep := range in.Endpoints {
		keys, ok := endpointRoots(in.Bundles, ep)
		if !ok {
			report.warn(operation.OpId{}, rgberr.MissingEndpoint,
				"endpoint for bundle %x names no known assignment matching its seal", ep.Bundle)
			continue
		}
		located[ep.Bundle] = keys
		for _, k := range keys {
			if !visited[k.Op] {
				visited[k.Op] = true
				queue = append(queue, k.Op)
			}
		}
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		n, ok := byId[id]
		if !ok {
			continue
		}
		for _, parent := range n.ancestors() {
			if parent == contractId || visited[parent] {
				continue
			}
			visited[parent] = true
			queue = append(queue, parent)
		}
	}

	// Finalize a forward topological order over the visited
	// set (ancestors applied before descendants) via Kahn's algorithm.
	order := topoOrder(byId, visited, contractId)

	// Verify and apply each operation in order.
	for _, id := range order {
		n := byId[id]
		if err := v.validateNode(ctx, in, n, acc, report, outpoints); err != nil {
			return nil, nil, err
		}
	}

	// Extraneous operations are known operations never visited.
	for _, id := range sortedOpIds(byId) {
		if !visited[id] {
			report.warn(id, rgberr.ExtraneousOperation, "operation %x is not reachable from any declared endpoint", id)
		}
	}
	// A located endpoint whose matched assignment was consumed by some
	// later operation in the DAG was not actually terminal. Assignments
	// that are neither live nor spent belong to operations that failed
	// validation — those already carry a Failure and need no extra
	// warning.
	for bundleId, keys := range located {
		for _, k := range keys {
			if _, live := acc.OwnedAt(k); live {
				continue
			}
			if by, spent := acc.SpentBy(k); spent {
				report.warn(k.Op, rgberr.NonTerminalEndpoint,
					"endpoint assignment %x:%d for bundle %x was consumed by operation %x", k.Op, k.Index, bundleId, by)
			}
		}
	}

	v.logRun(runId, report)
	if v.metrics != nil {
		v.metrics.ObserveRun(report.Valid(), len(report.Failures()), countSeverity(report, Warning))
	}
	if !report.Valid() {
		return report, nil, nil
	}
	return report, acc, nil
}

func countSeverity(r *Report, sev Severity) int {
	n := 0
	for _, s := range r.Statuses {
		if s.Severity == sev {
			n++
		}
	}
	return n
}

func (v *Validator) logRun(runId uuid.UUID, report *Report) {
	v.logger.Printf("run %s: %d failures, %d warnings, valid=%t",
		runId, len(report.Failures()), countSeverity(report, Warning), report.Valid())
}

func zkMap(in map[[32]byte]ZkWitness) map[[32]byte]zkWitness {
	out := make(map[[32]byte]zkWitness, len(in))
	for k, w := range in {
		out[k] = zkWitness{Proof: w.Proof, Public: w.Public}
	}
	return out
}

// ancestors returns the OpIds n's operation directly depends on: the
// providers of its inputs for a transition, or the granters of its
// redeemed valencies for an extension.
func (n *node) ancestors() []operation.OpId {
	switch n.kind {
	case operation.KindTransition:
		out := make([]operation.OpId, len(n.transition.Inputs))
		for i, in := range n.transition.Inputs {
			out[i] = in.Op
		}
		return out
	case operation.KindExtension:
		out := make([]operation.OpId, len(n.extension.Redeemed))
		for i, ref := range n.extension.Redeemed {
			out[i] = ref.Op
		}
		return out
	default:
		return nil
	}
}

// endpointRoots finds the (OpId, output index) of every assignment
// within ep's bundle that conceals to ep.Seal.
func endpointRoots(bundles []AnchoredBundle, ep Endpoint) ([]state.AssignmentKey, bool) {
	for bi := range bundles {
		ab := &bundles[bi]
		if ab.Bundle.Id() != ep.Bundle {
			continue
		}
		var keys []state.AssignmentKey
		for opId, t := range ab.Bundle.Known {
			for _, a := range t.Assignments {
				if a.Seal.Conceal() == ep.Seal {
					keys = append(keys, state.AssignmentKey{Op: opId, Index: a.Index})
				}
			}
		}
		return keys, len(keys) > 0
	}
	return nil, false
}

// topoOrder returns the visited set in dependency order (ancestors
// before descendants) via Kahn's algorithm over the ancestors() edges,
// restricted to nodes actually present in byId (genesis and any
// dangling reference resolve trivially and never gate anything).
// Independent siblings are seeded in OpId byte order so the accepted
// order — and with it the order of Status entries — is reproducible
// run-to-run instead of following map iteration.
func topoOrder(byId map[operation.OpId]*node, visited map[operation.OpId]bool, contractId operation.OpId) []operation.OpId {
	remaining := make(map[operation.OpId]int, len(visited))
	dependents := make(map[operation.OpId][]operation.OpId)
	var ready []operation.OpId

	for _, id := range sortedOpIds(visited) {
		if id == contractId {
			continue
		}
		n, ok := byId[id]
		if !ok {
			continue
		}
		deps := 0
		for _, a := range n.ancestors() {
			if a == contractId {
				continue
			}
			if _, inSet := byId[a]; !inSet || !visited[a] {
				continue
			}
			deps++
			dependents[a] = append(dependents[a], id)
		}
		remaining[id] = deps
		if deps == 0 {
			ready = append(ready, id)
		}
	}

	var order []operation.OpId
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)
		for _, dep := range dependents[id] {
			remaining[dep]--
			if remaining[dep] == 0 {
				ready = append(ready, dep)
			}
		}
	}
	return order
}

// sortedOpIds returns a map's OpId keys in ascending byte order.
func sortedOpIds[V any](m map[operation.OpId]V) []operation.OpId {
	ids := make([]operation.OpId, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return bytes.Compare(ids[i][:], ids[j][:]) < 0 })
	return ids
}
