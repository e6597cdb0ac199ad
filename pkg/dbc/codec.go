// Copyright 2025 RGB Core Project

package dbc

import "github.com/rgbcore/rgbcore/pkg/strictcodec"

// Encode writes a TapretProof: internal key, script-path hash, output
// index.
func (p *TapretProof) Encode(w *strictcodec.Writer) {
	w.WriteRaw(p.InternalKey[:])
	w.WriteRaw(p.ScriptPathHash[:])
	w.WriteU32(p.OutputIndex)
}

// DecodeTapretProof reads a TapretProof written by Encode.
func DecodeTapretProof(r *strictcodec.Reader) (TapretProof, error) {
	ik, err := r.ReadRaw(32)
	if err != nil {
		return TapretProof{}, err
	}
	sp, err := r.ReadRaw(32)
	if err != nil {
		return TapretProof{}, err
	}
	idx, err := r.ReadU32()
	if err != nil {
		return TapretProof{}, err
	}
	var p TapretProof
	copy(p.InternalKey[:], ik)
	copy(p.ScriptPathHash[:], sp)
	p.OutputIndex = idx
	return p, nil
}

// Encode writes an OpretProof: the output index.
func (p *OpretProof) Encode(w *strictcodec.Writer) {
	w.WriteU32(p.OutputIndex)
}

// DecodeOpretProof reads an OpretProof written by Encode.
func DecodeOpretProof(r *strictcodec.Reader) (OpretProof, error) {
	idx, err := r.ReadU32()
	if err != nil {
		return OpretProof{}, err
	}
	return OpretProof{OutputIndex: idx}, nil
}
