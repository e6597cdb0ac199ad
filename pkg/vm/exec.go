// Copyright 2025 RGB Core Project

package vm

import (
	"encoding/binary"
	"math/big"

	"github.com/rgbcore/rgbcore/pkg/operation"
	"github.com/rgbcore/rgbcore/pkg/rgberr"
	"github.com/rgbcore/rgbcore/pkg/schema"
)

// Libraries is the schema-supplied lookup a Run call resolves (LibId,
// offset) entry points and call targets against. *schema.Schema
// satisfies it via Lookup.
type Libraries interface {
	Lookup(id schema.LibId) (*schema.Library, bool)
}

type frame struct {
	prog *Program
	pc   int
}

// Run executes entry against core and ctx, dispatching the full
// ALU + RGB1 (+ additive ZK1) opcode table until a halt
// instruction or an implicit return off the top-level program's end.
// The final value of core.CK is the script's verdict. limit bounds the
// number of executed instructions (0 means unbounded), enforcing the
// schema's declared complexity limit.
func Run(libs Libraries, entry schema.EntryPoint, ctx Context, core *Core, limit uint64) error {
	prog, pc, err := resolveEntry(libs, entry)
	if err != nil {
		return err
	}
	stack := []frame{{prog: prog, pc: pc}}
	var steps uint64

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.pc >= top.prog.Len() {
			stack = stack[:len(stack)-1]
			continue
		}
		steps++
		if limit != 0 && steps > limit {
			return rgberr.New(rgberr.StepBudgetExhausted, "exceeded vm step budget %d", limit)
		}
		instr := top.prog.At(top.pc)
		advance := true

		switch instr.Op {
		case OpNop:
		case OpLoadImm:
			core.Set(instr.Dst, instr.Imm[:])
		case OpMov:
			if v, ok := core.Get(instr.Src); ok {
				core.Set(instr.Dst, v)
			} else {
				core.Clear(instr.Dst)
			}
		case OpAdd, OpSub, OpMul:
			execArith(core, instr)
		case OpCmpEq, OpCmpLt:
			execCompare(core, instr)
		case OpJmp:
			idx, err := top.prog.IndexAt(instr.Target)
			if err != nil {
				return err
			}
			top.pc, advance = idx, false
		case OpJif:
			if core.CK {
				idx, err := top.prog.IndexAt(instr.Target)
				if err != nil {
					return err
				}
				top.pc, advance = idx, false
			}
		case OpCall:
			lib, ok := libs.Lookup(schema.LibId(instr.CallLib))
			if !ok {
				return rgberr.New(rgberr.MissingLibrary, "call target library %x not in schema", instr.CallLib)
			}
			callee, err := DecodeProgram(lib.Code)
			if err != nil {
				return err
			}
			idx, err := callee.IndexAt(int(instr.CallOff))
			if err != nil {
				return err
			}
			top.pc++
			stack = append(stack, frame{prog: callee, pc: idx})
			advance = false
		case OpRet:
			stack = stack[:len(stack)-1]
			advance = false
		case OpHalt:
			return nil
		case OpCnc:
			core.Set(instr.Dst, uintBytes(ctx.GlobalCount(operation.StateType(instr.Type)), instr.Dst.Bank.Width()))
		case OpCng:
			core.Set(instr.Dst, uintBytes(ctx.OwnGlobalCount(operation.StateType(instr.Type)), instr.Dst.Bank.Width()))
		case OpCni:
			core.Set(instr.Dst, uintBytes(ctx.InputCount(operation.AssignType(instr.Type)), instr.Dst.Bank.Width()))
		case OpCno:
			core.Set(instr.Dst, uintBytes(ctx.OutputCount(operation.AssignType(instr.Type)), instr.Dst.Bank.Width()))
		case OpRdc:
			execRead(core, instr, func(p uint16) (operation.StateValue, bool) {
				return ctx.GlobalAt(operation.StateType(instr.Type), p)
			})
		case OpRdg:
			execRead(core, instr, func(p uint16) (operation.StateValue, bool) {
				return ctx.OwnGlobalAt(operation.StateType(instr.Type), p)
			})
		case OpRdi:
			execRead(core, instr, func(p uint16) (operation.StateValue, bool) {
				return ctx.InputAt(operation.AssignType(instr.Type), p)
			})
		case OpRdo:
			execRead(core, instr, func(p uint16) (operation.StateValue, bool) {
				return ctx.OutputAt(operation.AssignType(instr.Type), p)
			})
		case OpRdm:
			val, ok := ctx.MetaAt(operation.MetaType(instr.Type))
			if !ok {
				core.Clear(instr.Dst)
				break
			}
			el, ok := readElement(metaElementBytes(val), instr.Element, instr.Dst.Bank.Width())
			if !ok {
				core.Clear(instr.Dst)
				break
			}
			core.Set(instr.Dst, el)
		case OpZkv:
			lib, ok := libs.Lookup(schema.LibId(instr.CallLib))
			if !ok {
				return rgberr.New(rgberr.MissingLibrary, "zk library %x not in schema", instr.CallLib)
			}
			ok, err := verifyZk(lib.Code, ctx, instr.CallLib)
			if err != nil {
				return err
			}
			core.CK = ok
		default:
			return rgberr.New(rgberr.ScriptFailed, "unhandled opcode %s", instr.Op)
		}

		if advance {
			top.pc++
		}
	}
	return nil
}

func resolveEntry(libs Libraries, entry schema.EntryPoint) (*Program, int, error) {
	lib, ok := libs.Lookup(entry.Lib)
	if !ok {
		return nil, 0, rgberr.New(rgberr.MissingLibrary, "entry point library %x not in schema", entry.Lib)
	}
	prog, err := DecodeProgram(lib.Code)
	if err != nil {
		return nil, 0, err
	}
	idx, err := prog.IndexAt(int(entry.Offset))
	if err != nil {
		return nil, 0, err
	}
	return prog, idx, nil
}

func execArith(core *Core, instr Instruction) {
	a, aok := core.GetBig(instr.Dst)
	b, bok := core.GetBig(instr.Src)
	if !aok || !bok {
		core.Clear(instr.Dst)
		return
	}
	res := new(big.Int)
	switch instr.Op {
	case OpAdd:
		res.Add(a, b)
	case OpSub:
		res.Sub(a, b)
	case OpMul:
		res.Mul(a, b)
	}
	core.SetBig(instr.Dst, res) // SetBig clears (and fails CK) on overflow or underflow
}

func execCompare(core *Core, instr Instruction) {
	a, aok := core.GetBig(instr.Dst)
	b, bok := core.GetBig(instr.Src)
	if !aok || !bok {
		core.CK = false
		return
	}
	switch instr.Op {
	case OpCmpEq:
		core.CK = a.Cmp(b) == 0
	case OpCmpLt:
		core.CK = a.Cmp(b) < 0
	}
}

func execRead(core *Core, instr Instruction, lookup func(p uint16) (operation.StateValue, bool)) {
	posReg := Reg{Bank: A16, Index: instr.PosReg}
	pBytes, ok := core.Get(posReg)
	if !ok {
		core.Clear(instr.Dst)
		return
	}
	p := binary.LittleEndian.Uint16(pBytes)
	val, ok := lookup(p)
	if !ok {
		core.Clear(instr.Dst)
		return
	}
	el, ok := readElement(stateElementBytes(val), instr.Element, instr.Dst.Bank.Width())
	if !ok {
		core.Clear(instr.Dst)
		return
	}
	core.Set(instr.Dst, el)
}

func uintBytes(v uint16, width int) []byte {
	buf := make([]byte, width)
	var full [2]byte
	binary.LittleEndian.PutUint16(full[:], v)
	n := 2
	if n > width {
		n = width
	}
	copy(buf, full[:n])
	return buf
}
