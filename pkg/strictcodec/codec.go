// Copyright 2025 RGB Core Project

// Package strictcodec implements the deterministic, length-prefixed,
// little-endian binary encoding used for every on-the-wire structure in
// this module (operations, schemas, anchors, consignments). The encoding
// is total: every valid in-memory value has exactly one byte
// representation, and Reader rejects anything that doesn't round-trip.
package strictcodec

import (
	"encoding/binary"
	"unicode/utf8"

	"github.com/rgbcore/rgbcore/pkg/rgberr"
)

// MaxLen is the largest length a u16-prefixed field may declare.
const MaxLen = 0xFFFF

// Writer accumulates a strict-encoded byte stream.
type Writer struct {
	buf []byte
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer { return &Writer{} }

// Bytes returns the accumulated encoding.
func (w *Writer) Bytes() []byte { return w.buf }

// Len returns the number of bytes written so far.
func (w *Writer) Len() int { return len(w.buf) }

// WriteU8 writes a single byte.
func (w *Writer) WriteU8(v uint8) { w.buf = append(w.buf, v) }

// WriteU16 writes a little-endian uint16.
func (w *Writer) WriteU16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// WriteU32 writes a little-endian uint32.
func (w *Writer) WriteU32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// WriteU64 writes a little-endian uint64.
func (w *Writer) WriteU64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// WriteI64 writes a little-endian two's-complement int64.
func (w *Writer) WriteI64(v int64) { w.WriteU64(uint64(v)) }

// WriteBool writes a single byte, 0 or 1.
func (w *Writer) WriteBool(v bool) {
	if v {
		w.WriteU8(1)
	} else {
		w.WriteU8(0)
	}
}

// WriteRaw appends fixed-width bytes with no length prefix (for types
// whose width is implied by context, e.g. 32-byte identifiers).
func (w *Writer) WriteRaw(b []byte) { w.buf = append(w.buf, b...) }

// WriteBytes writes a u16 length prefix followed by raw bytes.
func (w *Writer) WriteBytes(b []byte) error {
	if len(b) > MaxLen {
		return rgberr.New(rgberr.LengthExceedsBound, "byte string length %d exceeds %d", len(b), MaxLen)
	}
	w.WriteU16(uint16(len(b)))
	w.buf = append(w.buf, b...)
	return nil
}

// WriteString writes a u16 length prefix followed by UTF-8 bytes. Go
// strings are always valid UTF-8 by construction, so this only enforces
// the length bound.
func (w *Writer) WriteString(s string) error {
	return w.WriteBytes([]byte(s))
}

// WriteOptional writes the presence byte and, if present, calls encode.
func WriteOptional(w *Writer, present bool, encode func(*Writer) error) error {
	if !present {
		w.WriteU8(0x00)
		return nil
	}
	w.WriteU8(0x01)
	return encode(w)
}

// WriteSeq writes a u16 count followed by each element via encode. The
// caller is responsible for presenting elements in the order the spec
// requires (ascending key order for sets/maps; natural order otherwise).
func WriteSeq[T any](w *Writer, items []T, encode func(*Writer, T) error) error {
	if len(items) > MaxLen {
		return rgberr.New(rgberr.LengthExceedsBound, "sequence length %d exceeds %d", len(items), MaxLen)
	}
	w.WriteU16(uint16(len(items)))
	for _, item := range items {
		if err := encode(w, item); err != nil {
			return err
		}
	}
	return nil
}

// Reader consumes a strict-encoded byte stream.
type Reader struct {
	data []byte
	pos  int
}

// NewReader wraps b for strict decoding.
func NewReader(b []byte) *Reader { return &Reader{data: b} }

// Remaining returns the number of unconsumed bytes.
func (r *Reader) Remaining() int { return len(r.data) - r.pos }

// Finish returns an error if any bytes remain unconsumed: decoding must
// account for every byte of a valid encoding.
func (r *Reader) Finish() error {
	if r.Remaining() != 0 {
		return rgberr.New(rgberr.LengthExceedsBound, "%d trailing bytes after decode", r.Remaining())
	}
	return nil
}

func (r *Reader) take(n int) ([]byte, error) {
	if r.Remaining() < n {
		return nil, rgberr.New(rgberr.UnexpectedEof, "need %d bytes, have %d", n, r.Remaining())
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// ReadU8 reads a single byte.
func (r *Reader) ReadU8() (uint8, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadU16 reads a little-endian uint16.
func (r *Reader) ReadU16() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// ReadU32 reads a little-endian uint32.
func (r *Reader) ReadU32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// ReadU64 reads a little-endian uint64.
func (r *Reader) ReadU64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// ReadI64 reads a little-endian two's-complement int64.
func (r *Reader) ReadI64() (int64, error) {
	v, err := r.ReadU64()
	return int64(v), err
}

// ReadBool reads a single byte and requires it to be 0 or 1.
func (r *Reader) ReadBool() (bool, error) {
	b, err := r.ReadU8()
	if err != nil {
		return false, err
	}
	switch b {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, rgberr.New(rgberr.UnknownDiscriminant, "boolean byte must be 0 or 1, got %d", b)
	}
}

// ReadRaw reads exactly n fixed-width bytes with no length prefix.
func (r *Reader) ReadRaw(n int) ([]byte, error) {
	b, err := r.take(n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

// ReadBytes reads a u16 length prefix followed by that many raw bytes.
func (r *Reader) ReadBytes() ([]byte, error) {
	n, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	return r.ReadRaw(int(n))
}

// ReadString reads a u16-prefixed byte string and validates it as UTF-8.
func (r *Reader) ReadString() (string, error) {
	b, err := r.ReadBytes()
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", rgberr.New(rgberr.InvalidUtf8, "string field is not valid UTF-8")
	}
	return string(b), nil
}

// ReadOptional reads the presence byte and, if present, calls decode.
// It returns whether the value was present.
func ReadOptional(r *Reader, decode func(*Reader) error) (bool, error) {
	b, err := r.ReadU8()
	if err != nil {
		return false, err
	}
	switch b {
	case 0x00:
		return false, nil
	case 0x01:
		return true, decode(r)
	default:
		return false, rgberr.New(rgberr.UnknownDiscriminant, "optional byte must be 0x00 or 0x01, got %#x", b)
	}
}

// ReadSeq reads a u16 count followed by that many elements via decode.
func ReadSeq[T any](r *Reader, decode func(*Reader) (T, error)) ([]T, error) {
	n, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	items := make([]T, 0, n)
	for i := uint16(0); i < n; i++ {
		item, err := decode(r)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// KV is a key/value pair used for strict-encoded maps and sets whose
// leaves must appear in ascending key order with no duplicate keys.
type KV[K any, V any] struct {
	Key   K
	Value V
}

// WriteMap writes a u16 count followed by (key, value) pairs. Callers
// must pass items already sorted ascending by key (per less); WriteMap
// re-validates the ordering and duplicate-freedom before writing so a
// caller bug cannot silently produce a non-canonical encoding.
func WriteMap[K any, V any](
	w *Writer,
	items []KV[K, V],
	less func(a, b K) bool,
	encodeKey func(*Writer, K) error,
	encodeVal func(*Writer, V) error,
) error {
	for i := 1; i < len(items); i++ {
		if !less(items[i-1].Key, items[i].Key) {
			if !less(items[i].Key, items[i-1].Key) {
				return rgberr.New(rgberr.DuplicateKey, "duplicate key at index %d", i)
			}
			return rgberr.New(rgberr.OutOfOrderKeys, "keys not in ascending order at index %d", i)
		}
	}
	if len(items) > MaxLen {
		return rgberr.New(rgberr.LengthExceedsBound, "map length %d exceeds %d", len(items), MaxLen)
	}
	w.WriteU16(uint16(len(items)))
	for _, it := range items {
		if err := encodeKey(w, it.Key); err != nil {
			return err
		}
		if err := encodeVal(w, it.Value); err != nil {
			return err
		}
	}
	return nil
}

// ReadMap reads a u16 count followed by (key, value) pairs, rejecting
// out-of-order or duplicate keys.
func ReadMap[K any, V any](
	r *Reader,
	less func(a, b K) bool,
	decodeKey func(*Reader) (K, error),
	decodeVal func(*Reader) (V, error),
) ([]KV[K, V], error) {
	n, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	items := make([]KV[K, V], 0, n)
	for i := uint16(0); i < n; i++ {
		k, err := decodeKey(r)
		if err != nil {
			return nil, err
		}
		v, err := decodeVal(r)
		if err != nil {
			return nil, err
		}
		if len(items) > 0 {
			prev := items[len(items)-1].Key
			if !less(prev, k) {
				if !less(k, prev) {
					return nil, rgberr.New(rgberr.DuplicateKey, "duplicate key at index %d", i)
				}
				return nil, rgberr.New(rgberr.OutOfOrderKeys, "keys not in ascending order at index %d", i)
			}
		}
		items = append(items, KV[K, V]{Key: k, Value: v})
	}
	return items, nil
}

// WriteDiscriminant writes the single-byte sum-type tag.
func (w *Writer) WriteDiscriminant(tag uint8) { w.WriteU8(tag) }

// ReadDiscriminant reads the single-byte sum-type tag and validates it
// against the allowed set, producing a named UnknownDiscriminant error
// otherwise.
func ReadDiscriminant(r *Reader, name string, allowed ...uint8) (uint8, error) {
	tag, err := r.ReadU8()
	if err != nil {
		return 0, err
	}
	for _, a := range allowed {
		if a == tag {
			return tag, nil
		}
	}
	return 0, rgberr.New(rgberr.UnknownDiscriminant, "%s: unknown discriminant %d", name, tag)
}
