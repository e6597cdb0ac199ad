// Copyright 2025 RGB Core Project

package seal

import "github.com/rgbcore/rgbcore/pkg/strictcodec"

// Encode strict-encodes s as: kind byte, 32-byte txid, u32 vout, u64
// blinding. Txid is all-zero and meaningless for WitnessVout seals but
// still encoded at fixed width to keep the layout uniform.
func (s Seal) Encode(w *strictcodec.Writer) {
	w.WriteU8(uint8(s.Kind))
	w.WriteRaw(s.Txid[:])
	w.WriteU32(s.Vout)
	w.WriteU64(s.Blinding)
}

// DecodeSeal reads a Seal written by Encode.
func DecodeSeal(r *strictcodec.Reader) (Seal, error) {
	kindByte, err := strictcodec.ReadDiscriminant(r, "seal.Kind", uint8(Revealed), uint8(WitnessVout))
	if err != nil {
		return Seal{}, err
	}
	txid, err := r.ReadRaw(32)
	if err != nil {
		return Seal{}, err
	}
	vout, err := r.ReadU32()
	if err != nil {
		return Seal{}, err
	}
	blinding, err := r.ReadU64()
	if err != nil {
		return Seal{}, err
	}
	var s Seal
	s.Kind = Kind(kindByte)
	copy(s.Txid[:], txid)
	s.Vout = vout
	s.Blinding = blinding
	return s, nil
}

// Encode writes the raw 32-byte concealed form.
func (c Concealed) Encode(w *strictcodec.Writer) { w.WriteRaw(c[:]) }

// DecodeConcealed reads a Concealed written by Encode.
func DecodeConcealed(r *strictcodec.Reader) (Concealed, error) {
	b, err := r.ReadRaw(32)
	if err != nil {
		return Concealed{}, err
	}
	var c Concealed
	copy(c[:], b)
	return c, nil
}
