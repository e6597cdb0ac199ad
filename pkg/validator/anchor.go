// Copyright 2025 RGB Core Project

package validator

import (
	"github.com/rgbcore/rgbcore/pkg/btctx"
	"github.com/rgbcore/rgbcore/pkg/dbc"
	"github.com/rgbcore/rgbcore/pkg/mpc"
	"github.com/rgbcore/rgbcore/pkg/operation"
	"github.com/rgbcore/rgbcore/pkg/rgberr"
	"github.com/rgbcore/rgbcore/pkg/seal"
)

// Anchor binds a set of (ContractId -> BundleId) pairs to one Bitcoin
// witness transaction: an MPC proof that the pair is a leaf of a
// committed root, plus the DBC proof that embeds that root in the
// transaction identified by XWitnessId. It deliberately does not carry
// the transaction itself — the validator always fetches
// it fresh through the resolver rather than trusting whatever a
// consignment bundled.
type Anchor struct {
	MPCProof    mpc.Proof
	XWitnessId  btctx.Txid
	DBCKind     seal.DBCKind
	TapretProof dbc.TapretProof
	OpretProof  dbc.OpretProof
}

// Root recovers the MPC root anchor's proof claims to open for
// (contractId -> bundleId).
func (a Anchor) Root(contractId operation.ContractId, bundleId operation.BundleId) [32]byte {
	return mpc.Recover(&a.MPCProof, mpc.ProtocolID(contractId), mpc.Message(bundleId))
}

// Verify checks that tx (obtained from the resolver for a.XWitnessId)
// commits, via the anchor's DBC proof, to the root the MPC proof
// recovers for (contractId -> bundleId). Both halves must agree: the
// MPC recovery alone only shows the pair is consistent with some root,
// and the DBC check alone only shows some root is committed.
func (a Anchor) Verify(contractId operation.ContractId, bundleId operation.BundleId, tx *btctx.Tx) error {
	root := a.Root(contractId, bundleId)
	switch a.DBCKind {
	case seal.Tapret:
		return dbc.VerifyTapret(tx, a.TapretProof, root)
	case seal.Opret:
		return dbc.VerifyOpret(tx, a.OpretProof, root)
	default:
		return rgberr.New(rgberr.InvalidProof, "anchor has unknown DBC kind %d", a.DBCKind)
	}
}

// Witness assembles a seal.Witness for this anchor over tx, for use
// with seal.Verify once tx has been fetched from the resolver.
func (a Anchor) Witness(tx *btctx.Tx) seal.Witness {
	return seal.Witness{Tx: tx, DBCKind: a.DBCKind, TapretProf: a.TapretProof, OpretProf: a.OpretProof}
}
