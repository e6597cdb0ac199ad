// Copyright 2025 RGB Core Project

package btctx

import (
	"bytes"
	"testing"
)

func TestSpendsOutPoint(t *testing.T) {
	var txid Txid
	txid[0] = 0xAB
	tx := &Tx{
		Inputs: []TxIn{
			{PrevOut: OutPoint{Txid: txid, Vout: 3}},
		},
	}
	if !tx.SpendsOutPoint(OutPoint{Txid: txid, Vout: 3}) {
		t.Fatal("expected the spent outpoint to be found")
	}
	if tx.SpendsOutPoint(OutPoint{Txid: txid, Vout: 4}) {
		t.Fatal("expected a different vout not to match")
	}
	var other Txid
	other[0] = 0xCD
	if tx.SpendsOutPoint(OutPoint{Txid: other, Vout: 3}) {
		t.Fatal("expected a different txid not to match")
	}
}

func TestOutputAt(t *testing.T) {
	tx := &Tx{Outputs: []TxOut{{Value: 1}, {Value: 2}}}
	out, ok := tx.OutputAt(1)
	if !ok || out.Value != 2 {
		t.Fatalf("expected output 1 with value 2, got %v ok=%t", out, ok)
	}
	if _, ok := tx.OutputAt(2); ok {
		t.Fatal("expected out-of-range vout to report absence")
	}
}

func TestOpretScriptRoundTrip(t *testing.T) {
	var msg [32]byte
	for i := range msg {
		msg[i] = byte(i)
	}
	script := BuildOpretScript(msg)
	tx := &Tx{Outputs: []TxOut{
		{PkScript: []byte{0x51}}, // not an OP_RETURN
		{PkScript: script},
	}}
	push, ok := tx.FirstOpretPush()
	if !ok {
		t.Fatal("expected the opret push to be found")
	}
	if !bytes.Equal(push, msg[:]) {
		t.Fatalf("push mismatch: got %x want %x", push, msg)
	}
}

func TestOpretPushRejectsMalformedScripts(t *testing.T) {
	truncated := append([]byte{0x6a, 0x20}, make([]byte, 31)...)
	cases := [][]byte{
		nil,
		{0x6a},       // bare OP_RETURN, no push
		{0x6a, 0x1f}, // wrong push width
		truncated,
		{0x51, 0x20}, // not an OP_RETURN at all
	}
	for i, script := range cases {
		tx := &Tx{Outputs: []TxOut{{PkScript: script}}}
		if _, ok := tx.FirstOpretPush(); ok {
			t.Fatalf("case %d: expected malformed script to be rejected", i)
		}
	}
}
