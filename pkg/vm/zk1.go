// Copyright 2025 RGB Core Project

package vm

import (
	"bytes"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/backend/witness"

	"github.com/rgbcore/rgbcore/pkg/rgberr"
)

// verifyZk is the additive ZK1 opcode: lib names a library whose Code
// is a serialized Groth16 (BN254) verifying key (gnark's native binary
// encoding, as produced by VerifyingKey.WriteTo).
// The proof and public witness come from ctx.ZkWitness, also in
// gnark's native encodings.
func verifyZk(libCode []byte, ctx Context, libId [32]byte) (bool, error) {
	proofBytes, publicBytes, ok := ctx.ZkWitness(libId)
	if !ok {
		return false, rgberr.New(rgberr.InvalidProof, "no zk witness available for library %x", libId)
	}

	vk := groth16.NewVerifyingKey(ecc.BN254)
	if _, err := vk.ReadFrom(bytes.NewReader(libCode)); err != nil {
		return false, rgberr.Wrap(rgberr.InvalidProof, err, "decode zk verifying key")
	}

	proof := groth16.NewProof(ecc.BN254)
	if _, err := proof.ReadFrom(bytes.NewReader(proofBytes)); err != nil {
		return false, rgberr.Wrap(rgberr.InvalidProof, err, "decode zk proof")
	}

	public, err := witness.New(ecc.BN254.ScalarField())
	if err != nil {
		return false, rgberr.Wrap(rgberr.InvalidProof, err, "construct zk public witness")
	}
	if _, err := public.ReadFrom(bytes.NewReader(publicBytes)); err != nil {
		return false, rgberr.Wrap(rgberr.InvalidProof, err, "decode zk public witness")
	}

	if err := groth16.Verify(proof, vk, public); err != nil {
		return false, nil // a failed proof is a negative verdict, not a VM error
	}
	return true, nil
}
