// Copyright 2025 RGB Core Project

package validator

import (
	"github.com/rgbcore/rgbcore/pkg/dbc"
	"github.com/rgbcore/rgbcore/pkg/mpc"
	"github.com/rgbcore/rgbcore/pkg/rgberr"
	"github.com/rgbcore/rgbcore/pkg/seal"
	"github.com/rgbcore/rgbcore/pkg/strictcodec"
)

// Encode strict-encodes the anchor for the wire: the MPC proof,
// the witness transaction id, a DBC-kind discriminant byte, and
// whichever of the two DBC proof shapes that kind selects.
func (a Anchor) Encode(w *strictcodec.Writer) error {
	if err := a.MPCProof.Encode(w); err != nil {
		return err
	}
	w.WriteRaw(a.XWitnessId[:])
	w.WriteU8(uint8(a.DBCKind))
	switch a.DBCKind {
	case seal.Tapret:
		a.TapretProof.Encode(w)
	case seal.Opret:
		a.OpretProof.Encode(w)
	default:
		return rgberr.New(rgberr.InvalidProof, "anchor has unknown DBC kind %d", a.DBCKind)
	}
	return nil
}

// DecodeAnchor reads an Anchor written by Encode.
func DecodeAnchor(r *strictcodec.Reader) (Anchor, error) {
	var a Anchor
	proof, err := mpc.DecodeProof(r)
	if err != nil {
		return Anchor{}, err
	}
	a.MPCProof = proof
	txid, err := r.ReadRaw(32)
	if err != nil {
		return Anchor{}, err
	}
	copy(a.XWitnessId[:], txid)
	kindByte, err := strictcodec.ReadDiscriminant(r, "seal.DBCKind", uint8(seal.Tapret), uint8(seal.Opret))
	if err != nil {
		return Anchor{}, err
	}
	a.DBCKind = seal.DBCKind(kindByte)
	switch a.DBCKind {
	case seal.Tapret:
		a.TapretProof, err = dbc.DecodeTapretProof(r)
	case seal.Opret:
		a.OpretProof, err = dbc.DecodeOpretProof(r)
	}
	if err != nil {
		return Anchor{}, err
	}
	return a, nil
}
