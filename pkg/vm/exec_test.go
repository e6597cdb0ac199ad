// Copyright 2025 RGB Core Project

package vm

import (
	"testing"

	"github.com/rgbcore/rgbcore/pkg/operation"
	"github.com/rgbcore/rgbcore/pkg/schema"
	"github.com/rgbcore/rgbcore/pkg/strictcodec"
)

// noopContext satisfies Context with every accessor reporting absence;
// only the tests that actually exercise RGB1 opcodes need more.
type noopContext struct{}

func (noopContext) GlobalCount(operation.StateType) uint16    { return 0 }
func (noopContext) OwnGlobalCount(operation.StateType) uint16 { return 0 }
func (noopContext) InputCount(operation.AssignType) uint16    { return 0 }
func (noopContext) OutputCount(operation.AssignType) uint16   { return 0 }
func (noopContext) GlobalAt(operation.StateType, uint16) (operation.StateValue, bool) {
	return operation.StateValue{}, false
}
func (noopContext) OwnGlobalAt(operation.StateType, uint16) (operation.StateValue, bool) {
	return operation.StateValue{}, false
}
func (noopContext) InputAt(operation.AssignType, uint16) (operation.StateValue, bool) {
	return operation.StateValue{}, false
}
func (noopContext) OutputAt(operation.AssignType, uint16) (operation.StateValue, bool) {
	return operation.StateValue{}, false
}
func (noopContext) MetaAt(operation.MetaType) (operation.MetaValue, bool) {
	return operation.MetaValue{}, false
}
func (noopContext) ZkWitness(lib [32]byte) ([]byte, []byte, bool) { return nil, nil, false }

type fakeLibs struct {
	libs map[schema.LibId]*schema.Library
}

func (f fakeLibs) Lookup(id schema.LibId) (*schema.Library, bool) {
	l, ok := f.libs[id]
	return l, ok
}

func libFromProgram(t *testing.T, id schema.LibId, code []byte) fakeLibs {
	t.Helper()
	return fakeLibs{libs: map[schema.LibId]*schema.Library{id: {Id: id, Code: code}}}
}

func asmLoadImm(dst Reg, val uint64) []byte {
	w := strictcodec.NewWriter()
	w.WriteU8(uint8(OpLoadImm))
	w.WriteU8(uint8(dst.Bank))
	w.WriteU8(dst.Index)
	var imm [16]byte
	for i := 0; i < 8; i++ {
		imm[i] = byte(val >> (8 * i))
	}
	w.WriteRaw(imm[:])
	return w.Bytes()
}

func asmCmpEq(dst, src Reg) []byte {
	w := strictcodec.NewWriter()
	w.WriteU8(uint8(OpCmpEq))
	w.WriteU8(uint8(dst.Bank))
	w.WriteU8(dst.Index)
	w.WriteU8(uint8(src.Bank))
	w.WriteU8(src.Index)
	return w.Bytes()
}

func asmHalt() []byte {
	return []byte{byte(OpHalt)}
}

func TestRunLoadImmAndCompareSucceeds(t *testing.T) {
	dst := Reg{Bank: A64, Index: 0}
	src := Reg{Bank: A64, Index: 1}
	var code []byte
	code = append(code, asmLoadImm(dst, 42)...)
	code = append(code, asmLoadImm(src, 42)...)
	code = append(code, asmCmpEq(dst, src)...)
	code = append(code, asmHalt()...)

	libId := schema.LibId{1}
	libs := libFromProgram(t, libId, code)
	core := NewCore()
	err := Run(libs, schema.EntryPoint{Lib: libId, Offset: 0}, noopContext{}, core, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !core.CK {
		t.Fatal("expected CK ok after comparing two equal immediates")
	}
}

func TestRunCompareMismatchFailsCK(t *testing.T) {
	dst := Reg{Bank: A64, Index: 0}
	src := Reg{Bank: A64, Index: 1}
	var code []byte
	code = append(code, asmLoadImm(dst, 42)...)
	code = append(code, asmLoadImm(src, 43)...)
	code = append(code, asmCmpEq(dst, src)...)
	code = append(code, asmHalt()...)

	libId := schema.LibId{2}
	libs := libFromProgram(t, libId, code)
	core := NewCore()
	if err := Run(libs, schema.EntryPoint{Lib: libId, Offset: 0}, noopContext{}, core, 0); err != nil {
		t.Fatal(err)
	}
	if core.CK {
		t.Fatal("expected CK failed after comparing two different immediates")
	}
}

func TestRunStepBudgetExhausted(t *testing.T) {
	dst := Reg{Bank: A64, Index: 0}
	var code []byte
	// Three instructions with a 2-step budget must fail before halt.
	code = append(code, asmLoadImm(dst, 1)...)
	code = append(code, asmLoadImm(dst, 2)...)
	code = append(code, asmHalt()...)

	libId := schema.LibId{3}
	libs := libFromProgram(t, libId, code)
	core := NewCore()
	err := Run(libs, schema.EntryPoint{Lib: libId, Offset: 0}, noopContext{}, core, 2)
	if err == nil {
		t.Fatal("expected a step-budget-exhausted error")
	}
}

func TestRunMissingLibraryIsFatal(t *testing.T) {
	core := NewCore()
	libs := fakeLibs{libs: map[schema.LibId]*schema.Library{}}
	err := Run(libs, schema.EntryPoint{Lib: schema.LibId{9}, Offset: 0}, noopContext{}, core, 0)
	if err == nil {
		t.Fatal("expected a missing-library error")
	}
}

func TestCnoReadsZeroCountForAbsentType(t *testing.T) {
	dst := Reg{Bank: A16, Index: 0}
	w := strictcodec.NewWriter()
	w.WriteU8(uint8(OpCno))
	w.WriteU16(7)
	w.WriteU8(uint8(dst.Bank))
	w.WriteU8(dst.Index)
	code := append(w.Bytes(), asmHalt()...)

	libId := schema.LibId{4}
	libs := libFromProgram(t, libId, code)
	core := NewCore()
	if err := Run(libs, schema.EntryPoint{Lib: libId, Offset: 0}, noopContext{}, core, 0); err != nil {
		t.Fatal(err)
	}
	got, ok := core.Get(dst)
	if !ok {
		t.Fatal("cno always writes a count, even zero, for a type absent from this operation")
	}
	if got[0] != 0 || got[1] != 0 {
		t.Fatalf("expected zero count, got %v", got)
	}
}
