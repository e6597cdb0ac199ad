// Copyright 2025 RGB Core Project

// Package consignment implements the on-the-wire container format: a
// self-contained, versioned, self-verifying envelope holding one
// schema, one genesis, the anchored bundles and extensions that
// complete its DAG, and the endpoints the sender wants the recipient
// to recognize.
package consignment

import (
	"bytes"

	"github.com/rgbcore/rgbcore/pkg/commitment"
	"github.com/rgbcore/rgbcore/pkg/operation"
	"github.com/rgbcore/rgbcore/pkg/rgberr"
	"github.com/rgbcore/rgbcore/pkg/schema"
	"github.com/rgbcore/rgbcore/pkg/strictcodec"
	"github.com/rgbcore/rgbcore/pkg/validator"
)

// Magic is the 4-byte prefix every consignment starts with.
var Magic = [4]byte{'R', 'G', 'B', 'C'}

// FormatVersion is the container format version this package reads and
// writes.
const FormatVersion uint8 = 1

const checksumTag commitment.Tag = "urn:rgbcore:consignment:checksum:v1"

// Consignment is the wire container: a candidate operation DAG ready
// to hand to pkg/validator.Validator.Validate, plus the full schema it
// should be checked against (the container carries the schema itself,
// not just its id).
type Consignment struct {
	Schema     *schema.Schema
	Genesis    *operation.Genesis
	Bundles    []validator.AnchoredBundle
	Extensions []*operation.Extension
	Endpoints  []validator.Endpoint
}

// Encode writes the consignment in a fixed field order, ending with a trailing checksum over every preceding byte.
func (c *Consignment) Encode(w *strictcodec.Writer) error {
	body := strictcodec.NewWriter()
	body.WriteRaw(Magic[:])
	body.WriteU8(FormatVersion)
	if err := c.Schema.Encode(body); err != nil {
		return err
	}
	if err := c.Genesis.Encode(body); err != nil {
		return err
	}
	if err := strictcodec.WriteSeq(body, c.Bundles, func(w *strictcodec.Writer, ab validator.AnchoredBundle) error {
		if err := ab.Anchor.Encode(w); err != nil {
			return err
		}
		return ab.Bundle.Encode(w)
	}); err != nil {
		return err
	}
	if err := strictcodec.WriteSeq(body, c.Extensions, func(w *strictcodec.Writer, e *operation.Extension) error {
		return e.Encode(w)
	}); err != nil {
		return err
	}
	if err := strictcodec.WriteSeq(body, c.Endpoints, func(w *strictcodec.Writer, e validator.Endpoint) error {
		w.WriteRaw(e.Bundle[:])
		w.WriteRaw(e.Seal[:])
		return nil
	}); err != nil {
		return err
	}

	checksum := commitment.TaggedHash(checksumTag, body.Bytes())
	w.WriteRaw(body.Bytes())
	w.WriteRaw(checksum[:])
	return nil
}

// Decode reads a consignment written by Encode, verifying the magic,
// the format version, and the trailing checksum before handing back a
// Consignment.
func Decode(r *strictcodec.Reader) (*Consignment, error) {
	total := r.Remaining()
	if total < 32 {
		return nil, rgberr.New(rgberr.UnexpectedEof, "consignment shorter than its trailing checksum")
	}
	all, err := r.ReadRaw(total)
	if err != nil {
		return nil, err
	}
	body, claimedChecksum := all[:len(all)-32], all[len(all)-32:]
	got := commitment.TaggedHash(checksumTag, body)
	if !bytes.Equal(got[:], claimedChecksum) {
		return nil, rgberr.New(rgberr.CommitmentMismatch, "consignment trailing checksum mismatch")
	}

	br := strictcodec.NewReader(body)
	magic, err := br.ReadRaw(4)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(magic, Magic[:]) {
		return nil, rgberr.New(rgberr.UnknownDiscriminant, "consignment: bad magic")
	}
	version, err := br.ReadU8()
	if err != nil {
		return nil, err
	}
	if version != FormatVersion {
		return nil, rgberr.New(rgberr.SchemaMismatch, "consignment: unsupported format version %d", version)
	}
	c := &Consignment{}
	if c.Schema, err = schema.DecodeSchema(br); err != nil {
		return nil, err
	}
	if c.Genesis, err = operation.DecodeGenesis(br); err != nil {
		return nil, err
	}
	c.Bundles, err = strictcodec.ReadSeq(br, func(r *strictcodec.Reader) (validator.AnchoredBundle, error) {
		anchor, err := validator.DecodeAnchor(r)
		if err != nil {
			return validator.AnchoredBundle{}, err
		}
		bundle, err := operation.DecodeBundle(r)
		if err != nil {
			return validator.AnchoredBundle{}, err
		}
		return validator.AnchoredBundle{Anchor: anchor, Bundle: bundle}, nil
	})
	if err != nil {
		return nil, err
	}
	c.Extensions, err = strictcodec.ReadSeq(br, operation.DecodeExtension)
	if err != nil {
		return nil, err
	}
	c.Endpoints, err = strictcodec.ReadSeq(br, func(r *strictcodec.Reader) (validator.Endpoint, error) {
		bid, err := r.ReadRaw(32)
		if err != nil {
			return validator.Endpoint{}, err
		}
		sealBytes, err := r.ReadRaw(32)
		if err != nil {
			return validator.Endpoint{}, err
		}
		var ep validator.Endpoint
		copy(ep.Bundle[:], bid)
		copy(ep.Seal[:], sealBytes)
		return ep, nil
	})
	if err != nil {
		return nil, err
	}
	if err := br.Finish(); err != nil {
		return nil, err
	}
	return c, nil
}

// AsValidatorInput adapts the consignment into the Input shape
// pkg/validator.Validator.Validate expects, attaching the ZK witness
// set a caller resolved out-of-band (the ZK1 opcode's proofs never
// travels over the wire — only the schema's library code does).
func (c *Consignment) AsValidatorInput(zkWitnesses map[[32]byte]validator.ZkWitness) validator.Input {
	return validator.Input{
		Schema:      c.Schema,
		Genesis:     c.Genesis,
		Bundles:     c.Bundles,
		Extensions:  c.Extensions,
		Endpoints:   c.Endpoints,
		ZkWitnesses: zkWitnesses,
	}
}
