// Copyright 2025 RGB Core Project

package vm

import (
	"math/big"
	"testing"
)

func TestSetGetRoundTrip(t *testing.T) {
	c := NewCore()
	r := Reg{Bank: A64, Index: 3}
	c.SetBig(r, big.NewInt(12345))
	got, ok := c.GetBig(r)
	if !ok || got.Cmp(big.NewInt(12345)) != 0 {
		t.Fatalf("got %v, ok=%v, want 12345", got, ok)
	}
	if !c.CK {
		t.Fatal("CK must remain ok after a successful write")
	}
}

func TestSetBigOverflowClearsAndFailsCK(t *testing.T) {
	c := NewCore()
	r := Reg{Bank: A8, Index: 0}
	big256 := big.NewInt(256) // does not fit in one byte
	if c.SetBig(r, big256) {
		t.Fatal("expected SetBig to report failure for an out-of-range value")
	}
	if _, ok := c.Get(r); ok {
		t.Fatal("register must be cleared after an overflowing write")
	}
	if c.CK {
		t.Fatal("CK must be failed after an overflowing write")
	}
}

func TestArithmeticOnClearedRegisterIsInfectious(t *testing.T) {
	c := NewCore()
	dst := Reg{Bank: A64, Index: 0}
	src := Reg{Bank: A64, Index: 1}
	c.SetBig(src, big.NewInt(1))
	// dst was never written, so execArith's read of it fails and it
	// must propagate that as a cleared destination register.
	if _, ok := c.GetBig(dst); ok {
		t.Fatal("an unwritten register must not report ok")
	}
	execArith(c, Instruction{Op: OpAdd, Dst: dst, Src: src})
	if c.CK {
		t.Fatal("add on an unwritten register must set CK to failed")
	}
	if _, ok := c.Get(dst); ok {
		t.Fatal("the destination of a failed add must be cleared")
	}
}

func TestGetOutOfRangeBankFails(t *testing.T) {
	c := NewCore()
	if _, ok := c.Get(Reg{Bank: Bank(99), Index: 0}); ok {
		t.Fatal("an unknown bank must never report ok")
	}
}
