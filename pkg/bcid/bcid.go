// Copyright 2025 RGB Core Project

// Package bcid implements the contract-id display format: a
// ContractId's 32 bytes encoded base-32 with human-readable identifier
// prefix "rgb", grouped into 6-character chunks separated by "-",
// parsed tolerant of case and grouping.
package bcid

import (
	"encoding/base32"
	"strings"

	"github.com/rgbcore/rgbcore/pkg/rgberr"
)

// HRI is the human-readable identifier prefixed to every display string.
const HRI = "rgb"

const groupSize = 6

var encoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// Format renders a 32-byte ContractId as "rgb:XXXXXX-XXXXXX-...".
func Format(id [32]byte) string {
	raw := strings.ToUpper(encoding.EncodeToString(id[:]))
	var b strings.Builder
	b.WriteString(HRI)
	b.WriteByte(':')
	for i := 0; i < len(raw); i += groupSize {
		if i > 0 {
			b.WriteByte('-')
		}
		end := i + groupSize
		if end > len(raw) {
			end = len(raw)
		}
		b.WriteString(raw[i:end])
	}
	return b.String()
}

// Parse reads a display string produced by Format, tolerant of
// lower/upper case and of grouping (dashes, or no dashes at all, or
// grouped differently than Format's own 6-character chunks).
func Parse(s string) ([32]byte, error) {
	var out [32]byte
	s = strings.TrimSpace(s)
	prefix, rest, found := strings.Cut(s, ":")
	if !found {
		rest = s
	} else if !strings.EqualFold(prefix, HRI) {
		return out, rgberr.New(rgberr.UnknownDiscriminant, "bcid: unknown human-readable prefix %q", prefix)
	}
	rest = strings.ToUpper(strings.ReplaceAll(rest, "-", ""))
	decoded, err := encoding.DecodeString(rest)
	if err != nil {
		return out, rgberr.Wrap(rgberr.InvalidUtf8, err, "bcid: invalid base-32 body")
	}
	if len(decoded) != 32 {
		return out, rgberr.New(rgberr.LengthExceedsBound, "bcid: decoded body is %d bytes, want 32", len(decoded))
	}
	copy(out[:], decoded)
	return out, nil
}
