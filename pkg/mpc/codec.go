// Copyright 2025 RGB Core Project

package mpc

import (
	"github.com/rgbcore/rgbcore/pkg/commitment"
	"github.com/rgbcore/rgbcore/pkg/strictcodec"
)

// Encode writes the proof in the shape an anchor embeds it in a
// consignment: N, Entropy, then the Merkle path as (sibling, depth,
// left) triples.
func (p *Proof) Encode(w *strictcodec.Writer) error {
	w.WriteU16(p.N)
	w.WriteU64(p.Entropy)
	return strictcodec.WriteSeq(w, p.Path, func(w *strictcodec.Writer, s commitment.ProofStep) error {
		w.WriteRaw(s.Sibling[:])
		w.WriteU8(s.Depth)
		w.WriteBool(s.Left)
		return nil
	})
}

// DecodeProof reads a Proof written by Encode.
func DecodeProof(r *strictcodec.Reader) (Proof, error) {
	n, err := r.ReadU16()
	if err != nil {
		return Proof{}, err
	}
	entropy, err := r.ReadU64()
	if err != nil {
		return Proof{}, err
	}
	path, err := strictcodec.ReadSeq(r, func(r *strictcodec.Reader) (commitment.ProofStep, error) {
		sib, err := r.ReadRaw(32)
		if err != nil {
			return commitment.ProofStep{}, err
		}
		depth, err := r.ReadU8()
		if err != nil {
			return commitment.ProofStep{}, err
		}
		left, err := r.ReadBool()
		if err != nil {
			return commitment.ProofStep{}, err
		}
		var step commitment.ProofStep
		copy(step.Sibling[:], sib)
		step.Depth = depth
		step.Left = left
		return step, nil
	})
	if err != nil {
		return Proof{}, err
	}
	return Proof{N: n, Entropy: entropy, Path: path}, nil
}
