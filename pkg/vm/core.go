// Copyright 2025 RGB Core Project

// Package vm implements the deterministic, register-based validation
// VM: a small set of fixed-width register banks, the core ALU
// opcode table, the contract-facing RGB1 extension, and the additive
// ZK1 opcode for Groth16 proof verification.
package vm

import "math/big"

// Bank names one of the five fixed-width register files.
type Bank uint8

const (
	A8 Bank = iota
	A16
	A32
	A64
	A128
)

var bankWidth = map[Bank]int{
	A8:   1,
	A16:  2,
	A32:  4,
	A64:  8,
	A128: 16,
}

// Width reports a bank's register width in bytes, or 0 for an unknown
// bank.
func (b Bank) Width() int { return bankWidth[b] }

// Reg addresses one register within a bank: (bank, index).
type Reg struct {
	Bank  Bank
	Index uint8
}

const numRegs = 16

type register struct {
	data  [16]byte
	valid bool
}

// Core is the VM's register file plus its single condition/check flag
// CK. Every write either succeeds with a value or clears the register
// and sets CK to failed. Registers start unset with CK ok; a register
// becomes unset again only through a failing write.
type Core struct {
	banks [5][numRegs]register
	CK    bool
}

// NewCore returns a fresh register file with all registers unset and
// CK ok.
func NewCore() *Core {
	return &Core{CK: true}
}

// Get reads a register's raw little-endian bytes. ok is false if the
// register was never written or was cleared.
func (c *Core) Get(r Reg) (data []byte, ok bool) {
	width := r.Bank.Width()
	if width == 0 || int(r.Index) >= numRegs {
		return nil, false
	}
	reg := &c.banks[r.Bank][r.Index]
	if !reg.valid {
		return nil, false
	}
	out := make([]byte, width)
	copy(out, reg.data[:width])
	return out, true
}

// Set writes value (little-endian, truncated/zero-extended to the
// bank's width) into r and marks it valid.
func (c *Core) Set(r Reg, value []byte) {
	width := r.Bank.Width()
	if width == 0 || int(r.Index) >= numRegs {
		c.CK = false
		return
	}
	var buf [16]byte
	n := len(value)
	if n > width {
		n = width
	}
	copy(buf[:n], value[:n])
	c.banks[r.Bank][r.Index] = register{data: buf, valid: true}
}

// Clear invalidates r and sets CK to failed, per the register-file
// write discipline.
func (c *Core) Clear(r Reg) {
	width := r.Bank.Width()
	if width == 0 || int(r.Index) >= numRegs {
		c.CK = false
		return
	}
	c.banks[r.Bank][r.Index] = register{}
	c.CK = false
}

// GetBig reads r as an unsigned little-endian integer.
func (c *Core) GetBig(r Reg) (*big.Int, bool) {
	data, ok := c.Get(r)
	if !ok {
		return nil, false
	}
	be := make([]byte, len(data))
	for i, b := range data {
		be[len(data)-1-i] = b
	}
	return new(big.Int).SetBytes(be), true
}

// SetBig writes v into r as an unsigned little-endian integer,
// clearing r (and failing CK) if v is negative or does not fit the
// bank's width.
func (c *Core) SetBig(r Reg, v *big.Int) bool {
	width := r.Bank.Width()
	if width == 0 || v.Sign() < 0 || v.BitLen() > width*8 {
		c.Clear(r)
		return false
	}
	be := v.Bytes()
	le := make([]byte, len(be))
	for i, b := range be {
		le[len(be)-1-i] = b
	}
	c.Set(r, le)
	return true
}
