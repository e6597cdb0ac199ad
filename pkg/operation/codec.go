// Copyright 2025 RGB Core Project

package operation

import (
	"github.com/rgbcore/rgbcore/pkg/rgberr"
	"github.com/rgbcore/rgbcore/pkg/seal"
	"github.com/rgbcore/rgbcore/pkg/strictcodec"
)

// encode writes one MetaValue: kind byte, then the kind-specific
// payload.
func (v MetaValue) encode(w *strictcodec.Writer) error {
	w.WriteU8(uint8(v.Kind))
	switch v.Kind {
	case MetaU8:
		w.WriteU8(uint8(v.Number))
	case MetaU16:
		w.WriteU16(uint16(v.Number))
	case MetaU32:
		w.WriteU32(uint32(v.Number))
	case MetaU64:
		w.WriteU64(v.Number)
	case MetaBytes:
		return w.WriteBytes(v.Bytes)
	case MetaString:
		return w.WriteString(v.Str)
	default:
		return rgberr.New(rgberr.UnknownDiscriminant, "metadata: unknown MetaKind %d", v.Kind)
	}
	return nil
}

func decodeMetaValue(r *strictcodec.Reader) (MetaValue, error) {
	kindByte, err := strictcodec.ReadDiscriminant(r, "MetaKind",
		uint8(MetaU8), uint8(MetaU16), uint8(MetaU32), uint8(MetaU64), uint8(MetaBytes), uint8(MetaString))
	if err != nil {
		return MetaValue{}, err
	}
	v := MetaValue{Kind: MetaKind(kindByte)}
	switch v.Kind {
	case MetaU8:
		n, err := r.ReadU8()
		if err != nil {
			return MetaValue{}, err
		}
		v.Number = uint64(n)
	case MetaU16:
		n, err := r.ReadU16()
		if err != nil {
			return MetaValue{}, err
		}
		v.Number = uint64(n)
	case MetaU32:
		n, err := r.ReadU32()
		if err != nil {
			return MetaValue{}, err
		}
		v.Number = uint64(n)
	case MetaU64:
		n, err := r.ReadU64()
		if err != nil {
			return MetaValue{}, err
		}
		v.Number = n
	case MetaBytes:
		b, err := r.ReadBytes()
		if err != nil {
			return MetaValue{}, err
		}
		v.Bytes = b
	case MetaString:
		s, err := r.ReadString()
		if err != nil {
			return MetaValue{}, err
		}
		v.Str = s
	}
	return v, nil
}

func (e MetaEntry) encode(w *strictcodec.Writer) error {
	w.WriteU16(uint16(e.Type))
	return e.Value.encode(w)
}

func decodeMetaEntry(r *strictcodec.Reader) (MetaEntry, error) {
	t, err := r.ReadU16()
	if err != nil {
		return MetaEntry{}, err
	}
	v, err := decodeMetaValue(r)
	if err != nil {
		return MetaEntry{}, err
	}
	return MetaEntry{Type: MetaType(t), Value: v}, nil
}

func encodeMetaSeq(w *strictcodec.Writer, entries []MetaEntry) error {
	for i := 1; i < len(entries); i++ {
		if entries[i-1].Type >= entries[i].Type {
			return rgberr.New(rgberr.OutOfOrderKeys, "metadata entries must be strictly ascending by type")
		}
	}
	return strictcodec.WriteSeq(w, entries, func(w *strictcodec.Writer, e MetaEntry) error { return e.encode(w) })
}

func decodeMetaSeq(r *strictcodec.Reader) ([]MetaEntry, error) {
	entries, err := strictcodec.ReadSeq(r, decodeMetaEntry)
	if err != nil {
		return nil, err
	}
	for i := 1; i < len(entries); i++ {
		if entries[i-1].Type == entries[i].Type {
			return nil, rgberr.New(rgberr.DuplicateKey, "duplicate metadata type %d", entries[i].Type)
		}
		if entries[i-1].Type > entries[i].Type {
			return nil, rgberr.New(rgberr.OutOfOrderKeys, "metadata entries not ascending by type")
		}
	}
	return entries, nil
}

func (v StateValue) encode(w *strictcodec.Writer) error {
	w.WriteU8(uint8(v.Kind))
	switch v.Kind {
	case StateVoid:
	case StateFungible:
		w.WriteU64(v.Amount)
	case StateStructured:
		if err := w.WriteBytes(v.Blob); err != nil {
			return err
		}
	default:
		return rgberr.New(rgberr.UnknownDiscriminant, "state: unknown StateKind %d", v.Kind)
	}
	if err := strictcodec.WriteOptional(w, v.AttachId != nil, func(w *strictcodec.Writer) error {
		w.WriteRaw(v.AttachId[:])
		return nil
	}); err != nil {
		return err
	}
	return strictcodec.WriteOptional(w, v.MediaType != "", func(w *strictcodec.Writer) error {
		return w.WriteString(v.MediaType)
	})
}

func decodeStateValue(r *strictcodec.Reader) (StateValue, error) {
	kindByte, err := strictcodec.ReadDiscriminant(r, "StateKind", uint8(StateVoid), uint8(StateFungible), uint8(StateStructured))
	if err != nil {
		return StateValue{}, err
	}
	v := StateValue{Kind: StateKind(kindByte)}
	switch v.Kind {
	case StateFungible:
		n, err := r.ReadU64()
		if err != nil {
			return StateValue{}, err
		}
		v.Amount = n
	case StateStructured:
		b, err := r.ReadBytes()
		if err != nil {
			return StateValue{}, err
		}
		v.Blob = b
	}
	hasAttach, err := strictcodec.ReadOptional(r, func(r *strictcodec.Reader) error {
		b, err := r.ReadRaw(32)
		if err != nil {
			return err
		}
		var id AttachId
		copy(id[:], b)
		v.AttachId = &id
		return nil
	})
	if err != nil {
		return StateValue{}, err
	}
	_ = hasAttach
	_, err = strictcodec.ReadOptional(r, func(r *strictcodec.Reader) error {
		s, err := r.ReadString()
		if err != nil {
			return err
		}
		v.MediaType = s
		return nil
	})
	if err != nil {
		return StateValue{}, err
	}
	return v, nil
}

func (a GlobalStateAtom) encode(w *strictcodec.Writer) error {
	w.WriteU16(uint16(a.Type))
	w.WriteU16(a.Index)
	return a.Value.encode(w)
}

func decodeGlobalStateAtom(r *strictcodec.Reader) (GlobalStateAtom, error) {
	t, err := r.ReadU16()
	if err != nil {
		return GlobalStateAtom{}, err
	}
	idx, err := r.ReadU16()
	if err != nil {
		return GlobalStateAtom{}, err
	}
	v, err := decodeStateValue(r)
	if err != nil {
		return GlobalStateAtom{}, err
	}
	return GlobalStateAtom{Type: StateType(t), Index: idx, Value: v}, nil
}

func encodeGlobalStateSeq(w *strictcodec.Writer, atoms []GlobalStateAtom) error {
	if err := checkAscendingGlobal(atoms); err != nil {
		return err
	}
	return strictcodec.WriteSeq(w, atoms, func(w *strictcodec.Writer, a GlobalStateAtom) error { return a.encode(w) })
}

func decodeGlobalStateSeq(r *strictcodec.Reader) ([]GlobalStateAtom, error) {
	atoms, err := strictcodec.ReadSeq(r, decodeGlobalStateAtom)
	if err != nil {
		return nil, err
	}
	if err := checkAscendingGlobal(atoms); err != nil {
		return nil, err
	}
	return atoms, nil
}

func checkAscendingGlobal(atoms []GlobalStateAtom) error {
	for i := 1; i < len(atoms); i++ {
		a, b := atoms[i-1], atoms[i]
		if a.Type > b.Type || (a.Type == b.Type && a.Index >= b.Index) {
			if a.Type == b.Type && a.Index == b.Index {
				return rgberr.New(rgberr.DuplicateKey, "duplicate global state key (%d,%d)", a.Type, a.Index)
			}
			return rgberr.New(rgberr.OutOfOrderKeys, "global state atoms not ascending by (type, index)")
		}
	}
	return nil
}

func (f SealField) encode(w *strictcodec.Writer) error {
	w.WriteBool(f.Seal != nil)
	if f.Seal != nil {
		f.Seal.Encode(w)
		return nil
	}
	f.Concealed.Encode(w)
	return nil
}

func decodeSealField(r *strictcodec.Reader) (SealField, error) {
	revealed, err := r.ReadBool()
	if err != nil {
		return SealField{}, err
	}
	if revealed {
		s, err := seal.DecodeSeal(r)
		if err != nil {
			return SealField{}, err
		}
		return RevealedSeal(s), nil
	}
	c, err := seal.DecodeConcealed(r)
	if err != nil {
		return SealField{}, err
	}
	return ConcealedSeal(c), nil
}

func (f StateField) encode(w *strictcodec.Writer) error {
	w.WriteBool(f.Value != nil)
	if f.Value != nil {
		return f.Value.encode(w)
	}
	w.WriteRaw(f.Commitment[:])
	return nil
}

func decodeStateField(r *strictcodec.Reader) (StateField, error) {
	revealed, err := r.ReadBool()
	if err != nil {
		return StateField{}, err
	}
	if revealed {
		v, err := decodeStateValue(r)
		if err != nil {
			return StateField{}, err
		}
		return RevealedState(v), nil
	}
	b, err := r.ReadRaw(32)
	if err != nil {
		return StateField{}, err
	}
	var c [32]byte
	copy(c[:], b)
	return ConcealedState(c), nil
}

func (a Assignment) encode(w *strictcodec.Writer) error {
	w.WriteU16(uint16(a.Type))
	w.WriteU16(a.Index)
	if err := a.Seal.encode(w); err != nil {
		return err
	}
	return a.State.encode(w)
}

func decodeAssignment(r *strictcodec.Reader) (Assignment, error) {
	t, err := r.ReadU16()
	if err != nil {
		return Assignment{}, err
	}
	idx, err := r.ReadU16()
	if err != nil {
		return Assignment{}, err
	}
	sf, err := decodeSealField(r)
	if err != nil {
		return Assignment{}, err
	}
	stf, err := decodeStateField(r)
	if err != nil {
		return Assignment{}, err
	}
	return Assignment{Type: AssignType(t), Index: idx, Seal: sf, State: stf}, nil
}

func encodeAssignmentSeq(w *strictcodec.Writer, items []Assignment) error {
	if err := checkAscendingAssignments(items); err != nil {
		return err
	}
	return strictcodec.WriteSeq(w, items, func(w *strictcodec.Writer, a Assignment) error { return a.encode(w) })
}

func decodeAssignmentSeq(r *strictcodec.Reader) ([]Assignment, error) {
	items, err := strictcodec.ReadSeq(r, decodeAssignment)
	if err != nil {
		return nil, err
	}
	if err := checkAscendingAssignments(items); err != nil {
		return nil, err
	}
	return items, nil
}

// checkAscendingAssignments enforces the ordering the VM observes
// through rdo: multiple
// assignments within one operation are ordered by (assignment_type,
// output_index) ascending.
func checkAscendingAssignments(items []Assignment) error {
	for i := 1; i < len(items); i++ {
		a, b := items[i-1], items[i]
		if a.Type > b.Type || (a.Type == b.Type && a.Index >= b.Index) {
			if a.Type == b.Type && a.Index == b.Index {
				return rgberr.New(rgberr.DuplicateKey, "duplicate assignment output index %d for type %d", a.Index, a.Type)
			}
			return rgberr.New(rgberr.OutOfOrderKeys, "assignments not ascending by (type, output index)")
		}
	}
	return nil
}

func (in Input) encode(w *strictcodec.Writer) {
	w.WriteRaw(in.Op[:])
	w.WriteU16(in.Index)
}

func decodeInput(r *strictcodec.Reader) (Input, error) {
	op, err := r.ReadRaw(32)
	if err != nil {
		return Input{}, err
	}
	idx, err := r.ReadU16()
	if err != nil {
		return Input{}, err
	}
	var in Input
	copy(in.Op[:], op)
	in.Index = idx
	return in, nil
}

func encodeInputSeq(w *strictcodec.Writer, items []Input) error {
	return strictcodec.WriteSeq(w, items, func(w *strictcodec.Writer, in Input) error {
		in.encode(w)
		return nil
	})
}

func decodeInputSeq(r *strictcodec.Reader) ([]Input, error) {
	return strictcodec.ReadSeq(r, decodeInput)
}

func (vr ValencyRef) encode(w *strictcodec.Writer) {
	w.WriteRaw(vr.Op[:])
	w.WriteU16(uint16(vr.Type))
}

func decodeValencyRef(r *strictcodec.Reader) (ValencyRef, error) {
	op, err := r.ReadRaw(32)
	if err != nil {
		return ValencyRef{}, err
	}
	t, err := r.ReadU16()
	if err != nil {
		return ValencyRef{}, err
	}
	var vr ValencyRef
	copy(vr.Op[:], op)
	vr.Type = ValencyType(t)
	return vr, nil
}

func encodeValencyRefSeq(w *strictcodec.Writer, items []ValencyRef) error {
	return strictcodec.WriteSeq(w, items, func(w *strictcodec.Writer, vr ValencyRef) error {
		vr.encode(w)
		return nil
	})
}

func decodeValencyRefSeq(r *strictcodec.Reader) ([]ValencyRef, error) {
	return strictcodec.ReadSeq(r, decodeValencyRef)
}

func encodeValencySeq(w *strictcodec.Writer, items []ValencyType) error {
	for i := 1; i < len(items); i++ {
		if items[i-1] >= items[i] {
			return rgberr.New(rgberr.OutOfOrderKeys, "valencies must be strictly ascending")
		}
	}
	return strictcodec.WriteSeq(w, items, func(w *strictcodec.Writer, v ValencyType) error {
		w.WriteU16(uint16(v))
		return nil
	})
}

func decodeValencySeq(r *strictcodec.Reader) ([]ValencyType, error) {
	items, err := strictcodec.ReadSeq(r, func(r *strictcodec.Reader) (ValencyType, error) {
		v, err := r.ReadU16()
		return ValencyType(v), err
	})
	if err != nil {
		return nil, err
	}
	for i := 1; i < len(items); i++ {
		if items[i-1] >= items[i] {
			return nil, rgberr.New(rgberr.OutOfOrderKeys, "valencies not ascending or duplicate")
		}
	}
	return items, nil
}

// Encode strict-encodes a Genesis.
func (g *Genesis) Encode(w *strictcodec.Writer) error {
	w.WriteU8(g.FormatVersion)
	w.WriteRaw(g.SchemaId[:])
	if err := w.WriteString(g.ChainLayer); err != nil {
		return err
	}
	if err := encodeMetaSeq(w, g.Metadata); err != nil {
		return err
	}
	if err := encodeGlobalStateSeq(w, g.GlobalState); err != nil {
		return err
	}
	if err := encodeAssignmentSeq(w, g.Assignments); err != nil {
		return err
	}
	return encodeValencySeq(w, g.Valencies)
}

// DecodeGenesis reads a Genesis written by Encode.
func DecodeGenesis(r *strictcodec.Reader) (*Genesis, error) {
	g := &Genesis{}
	v, err := r.ReadU8()
	if err != nil {
		return nil, err
	}
	g.FormatVersion = v
	schemaId, err := r.ReadRaw(32)
	if err != nil {
		return nil, err
	}
	copy(g.SchemaId[:], schemaId)
	chainLayer, err := r.ReadString()
	if err != nil {
		return nil, err
	}
	g.ChainLayer = chainLayer
	if g.Metadata, err = decodeMetaSeq(r); err != nil {
		return nil, err
	}
	if g.GlobalState, err = decodeGlobalStateSeq(r); err != nil {
		return nil, err
	}
	if g.Assignments, err = decodeAssignmentSeq(r); err != nil {
		return nil, err
	}
	if g.Valencies, err = decodeValencySeq(r); err != nil {
		return nil, err
	}
	return g, nil
}

// Encode strict-encodes a Transition.
func (t *Transition) Encode(w *strictcodec.Writer) error {
	w.WriteU8(t.FormatVersion)
	w.WriteU16(uint16(t.Type))
	if err := encodeInputSeq(w, t.Inputs); err != nil {
		return err
	}
	if err := encodeMetaSeq(w, t.Metadata); err != nil {
		return err
	}
	if err := encodeGlobalStateSeq(w, t.GlobalState); err != nil {
		return err
	}
	if err := encodeAssignmentSeq(w, t.Assignments); err != nil {
		return err
	}
	return encodeValencySeq(w, t.Valencies)
}

// DecodeTransition reads a Transition written by Encode.
func DecodeTransition(r *strictcodec.Reader) (*Transition, error) {
	t := &Transition{}
	v, err := r.ReadU8()
	if err != nil {
		return nil, err
	}
	t.FormatVersion = v
	ty, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	t.Type = TransitionType(ty)
	if t.Inputs, err = decodeInputSeq(r); err != nil {
		return nil, err
	}
	if t.Metadata, err = decodeMetaSeq(r); err != nil {
		return nil, err
	}
	if t.GlobalState, err = decodeGlobalStateSeq(r); err != nil {
		return nil, err
	}
	if t.Assignments, err = decodeAssignmentSeq(r); err != nil {
		return nil, err
	}
	if t.Valencies, err = decodeValencySeq(r); err != nil {
		return nil, err
	}
	return t, nil
}

// Encode strict-encodes an Extension.
func (e *Extension) Encode(w *strictcodec.Writer) error {
	w.WriteU8(e.FormatVersion)
	w.WriteU16(uint16(e.Type))
	if err := encodeValencyRefSeq(w, e.Redeemed); err != nil {
		return err
	}
	if err := encodeMetaSeq(w, e.Metadata); err != nil {
		return err
	}
	if err := encodeGlobalStateSeq(w, e.GlobalState); err != nil {
		return err
	}
	if err := encodeAssignmentSeq(w, e.Assignments); err != nil {
		return err
	}
	return encodeValencySeq(w, e.Valencies)
}

// DecodeExtension reads an Extension written by Encode.
func DecodeExtension(r *strictcodec.Reader) (*Extension, error) {
	e := &Extension{}
	v, err := r.ReadU8()
	if err != nil {
		return nil, err
	}
	e.FormatVersion = v
	ty, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	e.Type = ExtensionType(ty)
	if e.Redeemed, err = decodeValencyRefSeq(r); err != nil {
		return nil, err
	}
	if e.Metadata, err = decodeMetaSeq(r); err != nil {
		return nil, err
	}
	if e.GlobalState, err = decodeGlobalStateSeq(r); err != nil {
		return nil, err
	}
	if e.Assignments, err = decodeAssignmentSeq(r); err != nil {
		return nil, err
	}
	if e.Valencies, err = decodeValencySeq(r); err != nil {
		return nil, err
	}
	return e, nil
}
