// Copyright 2025 RGB Core Project

// Package dbc implements the deterministic bitcoin commitment (DBC)
// layer: embedding a 32-byte message into a Bitcoin transaction via a
// taproot key-path tweak (tapret) or a first-output OP_RETURN push
// (opret), and recovering/verifying that embedding from a transaction.
package dbc

import (
	"bytes"
	"crypto/sha256"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/txscript"

	"github.com/rgbcore/rgbcore/pkg/btctx"
	"github.com/rgbcore/rgbcore/pkg/rgberr"
)

// TapretProof carries what verification needs to recover the committed
// message from a transaction that used the tapret variant: the original
// (untweaked) internal key and the script-path merkle root that was
// folded into the tweak alongside the message.
type TapretProof struct {
	InternalKey    [32]byte // x-only BIP340 public key
	ScriptPathHash [32]byte // merkle root of the script-path tree, zero if keypath-only
	OutputIndex    uint32   // which output carries the tweaked key
}

// OpretProof carries what verification needs for the opret variant: the
// output index of the OP_RETURN push.
type OpretProof struct {
	OutputIndex uint32
}

// EmbedTapret computes the tweaked output key for internalKey committing
// to msg alongside scriptPathRoot, and the proof an external PSBT
// manipulator attaches to the transaction it is building. This is one of
// the two free functions exposed to external PSBT tooling; the core
// does not otherwise touch PSBTs.
func EmbedTapret(internalKey [32]byte, scriptPathRoot [32]byte, msg [32]byte) (tweakedKey [32]byte, proof TapretProof, err error) {
	pub, err := schnorr.ParsePubKey(internalKey[:])
	if err != nil {
		return [32]byte{}, TapretProof{}, rgberr.Wrap(rgberr.InvalidProof, err, "parsing tapret internal key")
	}

	merkleRoot := tapTweakMerkleRoot(scriptPathRoot, msg)
	tweaked := txscript.ComputeTaprootOutputKey(pub, merkleRoot[:])
	if tweaked == nil || isInfinity(tweaked) {
		return [32]byte{}, TapretProof{}, rgberr.New(rgberr.ImpossibleMessage,
			"tapret tweak of internal key by message produced a point at infinity")
	}

	var out [32]byte
	copy(out[:], schnorr.SerializePubKey(tweaked))
	return out, TapretProof{InternalKey: internalKey, ScriptPathHash: scriptPathRoot}, nil
}

// EmbedOpret returns the scriptPubKey bytes to place in the
// transaction's first output (OP_RETURN <msg>) and the accompanying
// proof.
func EmbedOpret(msg [32]byte) (script []byte, proof OpretProof) {
	return btctx.BuildOpretScript(msg), OpretProof{OutputIndex: 0}
}

// VerifyTapret recovers the message committed at proof.OutputIndex of tx
// via the tapret variant and checks it equals msg. The committed message
// is recovered by checking that the output's key equals
// TapTweak(proof.InternalKey, proof.ScriptPathHash || msg) for the
// claimed msg — since tweaking is a one-way commitment, verification
// must be given msg and confirm the tweak, not invert it.
func VerifyTapret(tx *btctx.Tx, proof TapretProof, msg [32]byte) error {
	out, ok := tx.OutputAt(proof.OutputIndex)
	if !ok {
		return rgberr.New(rgberr.UnrestorableProof, "tapret output index %d not present in witness tx", proof.OutputIndex)
	}
	outputKey, err := extractTaprootKey(out.PkScript)
	if err != nil {
		return err
	}

	pub, err := schnorr.ParsePubKey(proof.InternalKey[:])
	if err != nil {
		return rgberr.Wrap(rgberr.InvalidProof, err, "parsing tapret internal key from proof")
	}
	merkleRoot := tapTweakMerkleRoot(proof.ScriptPathHash, msg)
	tweaked := txscript.ComputeTaprootOutputKey(pub, merkleRoot[:])
	if tweaked == nil || isInfinity(tweaked) {
		return rgberr.New(rgberr.ImpossibleMessage, "tapret tweak recomputation produced a point at infinity")
	}

	if !bytes.Equal(schnorr.SerializePubKey(tweaked), outputKey) {
		return rgberr.New(rgberr.CommitmentMismatch, "tapret output key does not commit to the claimed message")
	}
	return nil
}

// VerifyOpret checks that tx's output at proof.OutputIndex is the
// transaction's first OP_RETURN output and that it pushes exactly msg.
// The first-output rule is what makes the commitment deterministic: a
// transaction carrying several OP_RETURN outputs commits through the
// earliest one only, so a proof pointing past it does not verify.
func VerifyOpret(tx *btctx.Tx, proof OpretProof, msg [32]byte) error {
	out, ok := tx.OutputAt(proof.OutputIndex)
	if !ok {
		return rgberr.New(rgberr.NoOpretOutput, "opret output index %d not present in witness tx", proof.OutputIndex)
	}
	for i := uint32(0); i < proof.OutputIndex; i++ {
		prior, _ := tx.OutputAt(i)
		if len(prior.PkScript) > 0 && prior.PkScript[0] == txscript.OP_RETURN {
			return rgberr.New(rgberr.ProofMismatch,
				"output %d is not the first OP_RETURN output (output %d precedes it)", proof.OutputIndex, i)
		}
	}
	push, ok := firstPush(out.PkScript)
	if !ok {
		return rgberr.New(rgberr.InvalidOpretScript, "output %d is not a canonical OP_RETURN push", proof.OutputIndex)
	}
	if !bytes.Equal(push, msg[:]) {
		return rgberr.New(rgberr.CommitmentMismatch, "opret push does not equal the claimed message")
	}
	return nil
}

func tapTweakMerkleRoot(scriptPathRoot, msg [32]byte) [32]byte {
	// When there is no script-path tree, BIP341 key-path-only tweaks use
	// the message directly as the tweak target; scriptPathRoot is folded
	// in when present so that tapret can coexist with an actual script
	// tree commitment.
	if scriptPathRoot == ([32]byte{}) {
		return msg
	}
	return sha256Concat(scriptPathRoot[:], msg[:])
}

func extractTaprootKey(pkScript []byte) ([]byte, error) {
	if len(pkScript) != 2+32 || pkScript[0] != txscript.OP_1 || pkScript[1] != 0x20 {
		return nil, rgberr.New(rgberr.InvalidProof, "output script is not a P2TR scriptPubKey")
	}
	return pkScript[2:], nil
}

func firstPush(script []byte) ([]byte, bool) {
	if len(script) < 2 || script[0] != txscript.OP_RETURN {
		return nil, false
	}
	if script[1] != 0x20 || len(script) != 2+32 {
		return nil, false
	}
	return script[2:], true
}

func isInfinity(p *btcec.PublicKey) bool {
	return p.X().Sign() == 0 && p.Y().Sign() == 0
}

func sha256Concat(parts ...[]byte) [32]byte {
	h := sha256.New()
	for _, p := range parts {
		h.Write(p)
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
