// Copyright 2025 RGB Core Project

package vm

import (
	"github.com/rgbcore/rgbcore/pkg/rgberr"
	"github.com/rgbcore/rgbcore/pkg/schema"
	"github.com/rgbcore/rgbcore/pkg/strictcodec"
)

// Op is one VM opcode, spanning the core ALU, the RGB1 contract-state
// extension, and the additive ZK1 opcode.
type Op uint8

const (
	OpNop Op = iota
	OpLoadImm
	OpMov
	OpAdd
	OpSub
	OpMul
	OpCmpEq
	OpCmpLt
	OpJmp
	OpJif
	OpCall
	OpRet
	OpHalt

	// RGB1: contract-state introspection.
	OpCnc // count of contract-global atoms of a type
	OpCng // count of this operation's own global atoms of a type
	OpCni // count of inputs of an assignment type
	OpCno // count of outputs (assignments) of a type
	OpRdc // read element of the p-th contract-global atom
	OpRdg // read element of the p-th own-global atom
	OpRdi // read element of the p-th input's state
	OpRdo // read element of the p-th output's state
	OpRdm // read element of a metadata value

	// ZK1: additive Groth16 proof verification.
	OpZkv
)

var opNames = map[Op]string{
	OpNop: "nop", OpLoadImm: "ldi", OpMov: "mov", OpAdd: "add", OpSub: "sub", OpMul: "mul",
	OpCmpEq: "ceq", OpCmpLt: "clt", OpJmp: "jmp", OpJif: "jif", OpCall: "call", OpRet: "ret", OpHalt: "halt",
	OpCnc: "cnc", OpCng: "cng", OpCni: "cni", OpCno: "cno",
	OpRdc: "rdc", OpRdg: "rdg", OpRdi: "rdi", OpRdo: "rdo", OpRdm: "rdm",
	OpZkv: "zkv",
}

func (o Op) String() string {
	if n, ok := opNames[o]; ok {
		return n
	}
	return "op?"
}

// SupportsISA reports whether this VM implements the named instruction
// set. Schemas requiring anything else cannot be validated here at
// all: the caller must treat that as a fatal schema error before
// executing any operation.
func SupportsISA(isa schema.ISA) bool {
	switch isa {
	case schema.ISAAlu, schema.ISARgb1, schema.ISAZk1:
		return true
	default:
		return false
	}
}

// Instruction is one decoded VM instruction. Not every field is
// meaningful for every Op; see exec.go's dispatch for the operands
// each opcode actually reads.
type Instruction struct {
	Op      Op
	Dst     Reg
	Src     Reg
	PosReg  uint8 // index into the A16 bank holding the read position p
	Element uint8
	Type    uint16
	Imm     [16]byte
	Target  int // byte offset into the owning library's code
	CallLib [32]byte
	CallOff uint16
}

// Program is a library's code, decoded into a byte-offset-addressable
// instruction sequence.
type Program struct {
	instrs  []Instruction
	offsets []int       // offsets[i] is the byte offset instrs[i] started at
	byOff   map[int]int // byte offset -> index into instrs, for jump targets
}

// Len reports the instruction count.
func (p *Program) Len() int { return len(p.instrs) }

// At returns the i'th instruction.
func (p *Program) At(i int) Instruction { return p.instrs[i] }

// IndexAt resolves a byte offset to an instruction index, failing if
// the offset does not land on an instruction boundary.
func (p *Program) IndexAt(byteOffset int) (int, error) {
	idx, ok := p.byOff[byteOffset]
	if !ok {
		return 0, rgberr.New(rgberr.VMInvalidJump, "no instruction at byte offset %d", byteOffset)
	}
	return idx, nil
}

// DecodeProgram decodes a library's raw bytecode into a Program.
// Instructions are strict-encoded: one opcode byte followed by a
// fixed, opcode-specific operand layout, read with the same
// little-endian Reader used for every other wire format in this
// module.
func DecodeProgram(code []byte) (*Program, error) {
	r := strictcodec.NewReader(code)
	p := &Program{byOff: make(map[int]int)}
	for r.Remaining() > 0 {
		off := len(code) - r.Remaining()
		instr, err := decodeInstruction(r)
		if err != nil {
			return nil, rgberr.Wrap(rgberr.VMDecodeError, err, "decode instruction at offset %d", off)
		}
		p.byOff[off] = len(p.instrs)
		p.offsets = append(p.offsets, off)
		p.instrs = append(p.instrs, instr)
	}
	return p, nil
}

func readReg(r *strictcodec.Reader) (Reg, error) {
	b, err := r.ReadU8()
	if err != nil {
		return Reg{}, err
	}
	idx, err := r.ReadU8()
	if err != nil {
		return Reg{}, err
	}
	return Reg{Bank: Bank(b), Index: idx}, nil
}

func decodeInstruction(r *strictcodec.Reader) (Instruction, error) {
	opByte, err := r.ReadU8()
	if err != nil {
		return Instruction{}, err
	}
	op := Op(opByte)
	instr := Instruction{Op: op}
	switch op {
	case OpNop, OpRet, OpHalt:
		// no operands
	case OpLoadImm:
		dst, err := readReg(r)
		if err != nil {
			return instr, err
		}
		imm, err := r.ReadRaw(16)
		if err != nil {
			return instr, err
		}
		instr.Dst = dst
		copy(instr.Imm[:], imm)
	case OpMov:
		dst, err := readReg(r)
		if err != nil {
			return instr, err
		}
		src, err := readReg(r)
		if err != nil {
			return instr, err
		}
		instr.Dst, instr.Src = dst, src
	case OpAdd, OpSub, OpMul, OpCmpEq, OpCmpLt:
		dst, err := readReg(r)
		if err != nil {
			return instr, err
		}
		src, err := readReg(r)
		if err != nil {
			return instr, err
		}
		instr.Dst, instr.Src = dst, src
	case OpJmp, OpJif:
		target, err := r.ReadU32()
		if err != nil {
			return instr, err
		}
		instr.Target = int(target)
	case OpCall:
		lib, err := r.ReadRaw(32)
		if err != nil {
			return instr, err
		}
		offset, err := r.ReadU16()
		if err != nil {
			return instr, err
		}
		copy(instr.CallLib[:], lib)
		instr.CallOff = offset
	case OpCnc, OpCng, OpCni, OpCno:
		ty, err := r.ReadU16()
		if err != nil {
			return instr, err
		}
		dst, err := readReg(r)
		if err != nil {
			return instr, err
		}
		instr.Type, instr.Dst = ty, dst
	case OpRdc, OpRdg, OpRdi, OpRdo:
		ty, err := r.ReadU16()
		if err != nil {
			return instr, err
		}
		posReg, err := r.ReadU8()
		if err != nil {
			return instr, err
		}
		element, err := r.ReadU8()
		if err != nil {
			return instr, err
		}
		dst, err := readReg(r)
		if err != nil {
			return instr, err
		}
		instr.Type, instr.PosReg, instr.Element, instr.Dst = ty, posReg, element, dst
	case OpRdm:
		ty, err := r.ReadU16()
		if err != nil {
			return instr, err
		}
		element, err := r.ReadU8()
		if err != nil {
			return instr, err
		}
		dst, err := readReg(r)
		if err != nil {
			return instr, err
		}
		instr.Type, instr.Element, instr.Dst = ty, element, dst
	case OpZkv:
		lib, err := r.ReadRaw(32)
		if err != nil {
			return instr, err
		}
		copy(instr.CallLib[:], lib)
	default:
		return instr, rgberr.New(rgberr.VMDecodeError, "unknown opcode 0x%02x", opByte)
	}
	return instr, nil
}
