// Copyright 2025 RGB Core Project

// Package seal implements single-use seals: definitions,
// concealment, the closing protocol, and witness verification. The
// at-most-once guarantee across a whole contract DAG is enforced by
// pkg/validator's outpoint-to-OpId map, not here — this package only
// checks one claimed witness against one message for one seal set.
package seal

import (
	"github.com/rgbcore/rgbcore/pkg/btctx"
	"github.com/rgbcore/rgbcore/pkg/commitment"
	"github.com/rgbcore/rgbcore/pkg/dbc"
	"github.com/rgbcore/rgbcore/pkg/rgberr"
)

const concealTag commitment.Tag = "urn:rgbcore:seal:conceal:v1"

// Concealed is the 32-byte concealed form of a seal: tagged_hash("seal",
// txid || vout || blinding).
type Concealed [32]byte

// Kind discriminates the two seal shapes.
type Kind uint8

const (
	// Revealed is a seal pointing directly at an already-known outpoint.
	Revealed Kind = iota
	// WitnessVout points at an output of the not-yet-known transaction
	// that will itself close the seal.
	WitnessVout
)

// Seal is a single-use seal in either of its two revealed shapes. Vout
// is meaningful for both kinds (the spent output's index for Revealed,
// the future witness's output index for WitnessVout); Txid is only
// meaningful for Revealed.
type Seal struct {
	Kind     Kind
	Txid     btctx.Txid
	Vout     uint32
	Blinding uint64
}

// Conceal computes the seal's concealed form.
func (s Seal) Conceal() Concealed {
	var buf [44]byte
	copy(buf[0:32], s.Txid[:])
	putU32(buf[32:36], s.Vout)
	putU64(buf[36:44], s.Blinding)
	return Concealed(commitment.TaggedHash(concealTag, buf[:]))
}

func putU32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

func putU64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
}

// Witness is the closing witness for a set of seals over a message: the
// Bitcoin transaction and the DBC proof embedding the message, exactly
// the pair (T, DBC proof).
type Witness struct {
	Tx         *btctx.Tx
	DBCKind    DBCKind
	TapretProf dbc.TapretProof
	OpretProf  dbc.OpretProof
}

// DBCKind selects which of the two DBC variants a Witness carries.
type DBCKind uint8

const (
	Tapret DBCKind = iota
	Opret
)

// Verify implements the closing-verification protocol: every revealed seal's
// outpoint must be spent by some input of w.Tx, every witness-vout seal's
// target output must exist, and the DBC proof must recover msg.
func Verify(seals []Seal, msg [32]byte, w Witness) error {
	for _, s := range seals {
		switch s.Kind {
		case Revealed:
			op := btctx.OutPoint{Txid: s.Txid, Vout: s.Vout}
			if !w.Tx.SpendsOutPoint(op) {
				return rgberr.New(rgberr.NotClosed, "no input of witness tx spends revealed seal outpoint %x:%d", s.Txid, s.Vout)
			}
		case WitnessVout:
			if !w.Tx.HasOutput(s.Vout) {
				return rgberr.New(rgberr.NotClosed, "witness tx has no output at vout %d for witness-vout seal", s.Vout)
			}
		default:
			return rgberr.New(rgberr.NotClosed, "unknown seal kind %d", s.Kind)
		}
	}

	switch w.DBCKind {
	case Tapret:
		if err := dbc.VerifyTapret(w.Tx, w.TapretProf, msg); err != nil {
			return err
		}
	case Opret:
		if err := dbc.VerifyOpret(w.Tx, w.OpretProf, msg); err != nil {
			return err
		}
	default:
		return rgberr.New(rgberr.InvalidProof, "unknown DBC kind %d", w.DBCKind)
	}
	return nil
}
