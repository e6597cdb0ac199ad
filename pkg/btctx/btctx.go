// Copyright 2025 RGB Core Project

// Package btctx defines the minimal Bitcoin transaction/outpoint model the
// seal and DBC layers need: just enough of a transaction's shape (inputs'
// prevouts, outputs' scripts) to check seal closure and recover a DBC
// commitment, never a full consensus-rules transaction.
package btctx

import "bytes"

// Txid is a 32-byte transaction hash in internal (not reversed/display)
// byte order.
type Txid [32]byte

// OutPoint identifies one output of a transaction: (Txid, vout).
type OutPoint struct {
	Txid Txid
	Vout uint32
}

// Equal reports whether two outpoints reference the same output.
func (o OutPoint) Equal(other OutPoint) bool {
	return o.Txid == other.Txid && o.Vout == other.Vout
}

// TxIn is the subset of a transaction input this module needs: the
// outpoint it spends. Witness/signature data is irrelevant to seal
// closure and is not modeled.
type TxIn struct {
	PrevOut OutPoint
}

// TxOut is the subset of a transaction output this module needs: value
// and the scriptPubKey, the latter needed to locate an opret push and a
// taproot output key.
type TxOut struct {
	Value    int64
	PkScript []byte
}

// Tx is a minimal Bitcoin transaction: the inputs' prevouts and the
// outputs' scripts, sufficient to verify seal closure and recover a
// DBC commitment without depending on a full node's mempool or
// chain-validation machinery.
type Tx struct {
	Txid    Txid
	Inputs  []TxIn
	Outputs []TxOut
}

// SpendsOutPoint reports whether some input of t spends op.
func (t *Tx) SpendsOutPoint(op OutPoint) bool {
	for _, in := range t.Inputs {
		if in.PrevOut.Equal(op) {
			return true
		}
	}
	return false
}

// HasOutput reports whether t has an output at index vout.
func (t *Tx) HasOutput(vout uint32) bool {
	return int(vout) < len(t.Outputs)
}

// OutputAt returns the output at index vout, or false if out of range.
func (t *Tx) OutputAt(vout uint32) (TxOut, bool) {
	if !t.HasOutput(vout) {
		return TxOut{}, false
	}
	return t.Outputs[vout], true
}

// FirstOpretPush returns the bytes pushed by the transaction's first
// OP_RETURN output, per the opret DBC rule that the first OP_RETURN
// output must push exactly the committed message. Returns false if no
// output is an OP_RETURN script, or if the first one is not the
// canonical opret shape.
func (t *Tx) FirstOpretPush() ([]byte, bool) {
	for _, out := range t.Outputs {
		if len(out.PkScript) > 0 && out.PkScript[0] == opReturn {
			return opretPush(out.PkScript)
		}
	}
	return nil, false
}

const (
	opReturn  = 0x6a
	opPushdat = 0x20 // canonical direct push of a 32-byte message
)

// opretPush recognizes the single canonical opret script this module
// emits and accepts: OP_RETURN <0x20> <32 bytes>. Any other OP_RETURN
// shape (multiple pushes, non-canonical pushdata opcodes) yields false,
// not a partial match.
func opretPush(script []byte) ([]byte, bool) {
	if len(script) == 0 || script[0] != opReturn {
		return nil, false
	}
	if len(script) != 2+32 || script[1] != opPushdat {
		return nil, false
	}
	return bytes.Clone(script[2:]), true
}

// BuildOpretScript constructs the canonical opret scriptPubKey embedding
// msg: OP_RETURN <0x20> <msg>.
func BuildOpretScript(msg [32]byte) []byte {
	out := make([]byte, 0, 2+32)
	out = append(out, opReturn, opPushdat)
	out = append(out, msg[:]...)
	return out
}
