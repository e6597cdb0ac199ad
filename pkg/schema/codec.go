// Copyright 2025 RGB Core Project

package schema

import (
	"sort"

	"github.com/rgbcore/rgbcore/pkg/operation"
	"github.com/rgbcore/rgbcore/pkg/rgberr"
	"github.com/rgbcore/rgbcore/pkg/strictcodec"
)

// Encode writes the full schema in the strict-encoded layout the
// consignment container carries: the same field sequence Id() commits
// to, so a recipient can recompute the id from the decoded schema.
func (s *Schema) Encode(w *strictcodec.Writer) error {
	w.WriteU8(s.FormatVersion)
	if err := w.WriteString(s.Name); err != nil {
		return err
	}
	w.WriteI64(s.Timestamp)
	encodeGlobalTypes(w, s.GlobalTypes)
	encodeAssignTypes(w, s.AssignTypes)
	encodeMetaTypes(w, s.MetaTypes)
	encodeValencyTypes(w, s.ValencyTypes)
	encodeISAs(w, s.RequiredISAs)
	encodeVMConfig(w, s.VM)
	if err := encodeLibraries(w, s.Libraries); err != nil {
		return err
	}
	return encodeValidators(w, s.Validators)
}

// DecodeSchema reads a schema written by Encode.
func DecodeSchema(r *strictcodec.Reader) (*Schema, error) {
	s := &Schema{}
	var err error
	if s.FormatVersion, err = r.ReadU8(); err != nil {
		return nil, err
	}
	if s.Name, err = r.ReadString(); err != nil {
		return nil, err
	}
	if s.Timestamp, err = r.ReadI64(); err != nil {
		return nil, err
	}
	if s.GlobalTypes, err = decodeGlobalTypes(r); err != nil {
		return nil, err
	}
	if s.AssignTypes, err = decodeAssignTypes(r); err != nil {
		return nil, err
	}
	if s.MetaTypes, err = decodeMetaTypes(r); err != nil {
		return nil, err
	}
	if s.ValencyTypes, err = decodeValencyTypes(r); err != nil {
		return nil, err
	}
	if s.RequiredISAs, err = decodeISAs(r); err != nil {
		return nil, err
	}
	if s.VM, err = decodeVMConfig(r); err != nil {
		return nil, err
	}
	if s.Libraries, err = decodeLibraries(r); err != nil {
		return nil, err
	}
	if s.Validators, err = decodeValidators(r); err != nil {
		return nil, err
	}
	return s, nil
}

func decodeGlobalTypes(r *strictcodec.Reader) (map[operation.StateType]GlobalTypeSpec, error) {
	n, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	m := make(map[operation.StateType]GlobalTypeSpec, n)
	var prev operation.StateType
	for i := uint16(0); i < n; i++ {
		k, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		ty := operation.StateType(k)
		if i > 0 && ty <= prev {
			return nil, rgberr.New(rgberr.OutOfOrderKeys, "schema global type keys out of order")
		}
		prev = ty
		sem, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		min, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		max, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		m[ty] = GlobalTypeSpec{SemanticType: sem, Occurrence: Occurrence{Min: min, Max: max}}
	}
	return m, nil
}

func decodeAssignTypes(r *strictcodec.Reader) (map[operation.AssignType]AssignTypeSpec, error) {
	n, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	m := make(map[operation.AssignType]AssignTypeSpec, n)
	var prev operation.AssignType
	for i := uint16(0); i < n; i++ {
		k, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		ty := operation.AssignType(k)
		if i > 0 && ty <= prev {
			return nil, rgberr.New(rgberr.OutOfOrderKeys, "schema assign type keys out of order")
		}
		prev = ty
		sem, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		min, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		max, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		m[ty] = AssignTypeSpec{SemanticType: sem, Occurrence: Occurrence{Min: min, Max: max}}
	}
	return m, nil
}

func decodeMetaTypes(r *strictcodec.Reader) (map[operation.MetaType]struct{}, error) {
	n, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	m := make(map[operation.MetaType]struct{}, n)
	var prev operation.MetaType
	for i := uint16(0); i < n; i++ {
		k, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		ty := operation.MetaType(k)
		if i > 0 && ty <= prev {
			return nil, rgberr.New(rgberr.OutOfOrderKeys, "schema meta type keys out of order")
		}
		prev = ty
		m[ty] = struct{}{}
	}
	return m, nil
}

func decodeValencyTypes(r *strictcodec.Reader) (map[operation.ValencyType]struct{}, error) {
	n, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	m := make(map[operation.ValencyType]struct{}, n)
	var prev operation.ValencyType
	for i := uint16(0); i < n; i++ {
		k, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		ty := operation.ValencyType(k)
		if i > 0 && ty <= prev {
			return nil, rgberr.New(rgberr.OutOfOrderKeys, "schema valency type keys out of order")
		}
		prev = ty
		m[ty] = struct{}{}
	}
	return m, nil
}

func decodeISAs(r *strictcodec.Reader) ([]ISA, error) {
	n, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	out := make([]ISA, 0, n)
	for i := uint16(0); i < n; i++ {
		s, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		out = append(out, ISA(s))
	}
	return out, nil
}

func decodeVMConfig(r *strictcodec.Reader) (VMConfig, error) {
	field, err := r.ReadString()
	if err != nil {
		return VMConfig{}, err
	}
	halt, err := r.ReadBool()
	if err != nil {
		return VMConfig{}, err
	}
	lim, err := r.ReadU64()
	if err != nil {
		return VMConfig{}, err
	}
	return VMConfig{FieldOrder: field, HaltAllowed: halt, ComplexityLim: lim}, nil
}

func encodeLibraries(w *strictcodec.Writer, libs map[LibId]*Library) error {
	ids := make([]LibId, 0, len(libs))
	for id := range libs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return lessLibId(ids[i], ids[j]) })
	w.WriteU16(uint16(len(ids)))
	for _, id := range ids {
		w.WriteRaw(id[:])
		if err := w.WriteBytes(libs[id].Code); err != nil {
			return err
		}
	}
	return nil
}

func decodeLibraries(r *strictcodec.Reader) (map[LibId]*Library, error) {
	n, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	out := make(map[LibId]*Library, n)
	var prev LibId
	for i := uint16(0); i < n; i++ {
		idb, err := r.ReadRaw(32)
		if err != nil {
			return nil, err
		}
		var id LibId
		copy(id[:], idb)
		if i > 0 && !lessLibId(prev, id) {
			return nil, rgberr.New(rgberr.OutOfOrderKeys, "schema library ids out of order or duplicate")
		}
		prev = id
		code, err := r.ReadBytes()
		if err != nil {
			return nil, err
		}
		out[id] = &Library{Id: id, Code: code}
	}
	return out, nil
}

func lessLibId(a, b LibId) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

func encodeEntryPoint(w *strictcodec.Writer, ep EntryPoint) {
	w.WriteRaw(ep.Lib[:])
	w.WriteU16(ep.Offset)
}

func decodeEntryPoint(r *strictcodec.Reader) (EntryPoint, error) {
	libb, err := r.ReadRaw(32)
	if err != nil {
		return EntryPoint{}, err
	}
	off, err := r.ReadU16()
	if err != nil {
		return EntryPoint{}, err
	}
	var ep EntryPoint
	copy(ep.Lib[:], libb)
	ep.Offset = off
	return ep, nil
}

func encodeValidators(w *strictcodec.Writer, v Validators) error {
	encodeEntryPoint(w, v.Genesis)

	tKeys := make([]operation.TransitionType, 0, len(v.TransitionValidators))
	for k := range v.TransitionValidators {
		tKeys = append(tKeys, k)
	}
	sort.Slice(tKeys, func(i, j int) bool { return tKeys[i] < tKeys[j] })
	w.WriteU16(uint16(len(tKeys)))
	for _, k := range tKeys {
		w.WriteU16(uint16(k))
		encodeEntryPoint(w, v.TransitionValidators[k])
	}
	if err := strictcodec.WriteOptional(w, v.DefaultTransitionEntry != nil, func(w *strictcodec.Writer) error {
		encodeEntryPoint(w, *v.DefaultTransitionEntry)
		return nil
	}); err != nil {
		return err
	}

	eKeys := make([]operation.ExtensionType, 0, len(v.ExtensionValidators))
	for k := range v.ExtensionValidators {
		eKeys = append(eKeys, k)
	}
	sort.Slice(eKeys, func(i, j int) bool { return eKeys[i] < eKeys[j] })
	w.WriteU16(uint16(len(eKeys)))
	for _, k := range eKeys {
		w.WriteU16(uint16(k))
		encodeEntryPoint(w, v.ExtensionValidators[k])
	}
	return strictcodec.WriteOptional(w, v.DefaultExtensionEntry != nil, func(w *strictcodec.Writer) error {
		encodeEntryPoint(w, *v.DefaultExtensionEntry)
		return nil
	})
}

func decodeValidators(r *strictcodec.Reader) (Validators, error) {
	var v Validators
	var err error
	if v.Genesis, err = decodeEntryPoint(r); err != nil {
		return v, err
	}

	tn, err := r.ReadU16()
	if err != nil {
		return v, err
	}
	v.TransitionValidators = make(map[operation.TransitionType]EntryPoint, tn)
	var prevT operation.TransitionType
	for i := uint16(0); i < tn; i++ {
		k, err := r.ReadU16()
		if err != nil {
			return v, err
		}
		ty := operation.TransitionType(k)
		if i > 0 && ty <= prevT {
			return v, rgberr.New(rgberr.OutOfOrderKeys, "transition validator keys out of order")
		}
		prevT = ty
		ep, err := decodeEntryPoint(r)
		if err != nil {
			return v, err
		}
		v.TransitionValidators[ty] = ep
	}
	if _, err = strictcodec.ReadOptional(r, func(r *strictcodec.Reader) error {
		ep, err := decodeEntryPoint(r)
		if err != nil {
			return err
		}
		v.DefaultTransitionEntry = &ep
		return nil
	}); err != nil {
		return v, err
	}

	en, err := r.ReadU16()
	if err != nil {
		return v, err
	}
	v.ExtensionValidators = make(map[operation.ExtensionType]EntryPoint, en)
	var prevE operation.ExtensionType
	for i := uint16(0); i < en; i++ {
		k, err := r.ReadU16()
		if err != nil {
			return v, err
		}
		ty := operation.ExtensionType(k)
		if i > 0 && ty <= prevE {
			return v, rgberr.New(rgberr.OutOfOrderKeys, "extension validator keys out of order")
		}
		prevE = ty
		ep, err := decodeEntryPoint(r)
		if err != nil {
			return v, err
		}
		v.ExtensionValidators[ty] = ep
	}
	if _, err = strictcodec.ReadOptional(r, func(r *strictcodec.Reader) error {
		ep, err := decodeEntryPoint(r)
		if err != nil {
			return err
		}
		v.DefaultExtensionEntry = &ep
		return nil
	}); err != nil {
		return v, err
	}
	return v, nil
}
