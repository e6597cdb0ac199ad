// Copyright 2025 RGB Core Project

package state

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/rgbcore/rgbcore/pkg/operation"
)

func assignmentKeyString(k AssignmentKey) string {
	return fmt.Sprintf("%s:%d", hex.EncodeToString(k.Op[:]), k.Index)
}

func parseAssignmentKey(s string) (AssignmentKey, error) {
	op, idx, err := splitHexUint(s)
	if err != nil {
		return AssignmentKey{}, err
	}
	return AssignmentKey{Op: op, Index: uint16(idx)}, nil
}

func rightKeyString(k RightKey) string {
	return fmt.Sprintf("%s:%d", hex.EncodeToString(k.Op[:]), k.Type)
}

func parseRightKey(s string) (RightKey, error) {
	op, idx, err := splitHexUint(s)
	if err != nil {
		return RightKey{}, err
	}
	return RightKey{Op: op, Type: operation.ValencyType(idx)}, nil
}

func splitHexUint(s string) (operation.OpId, uint64, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return operation.OpId{}, 0, fmt.Errorf("state: malformed snapshot key %q", s)
	}
	raw, err := hex.DecodeString(parts[0])
	if err != nil || len(raw) != 32 {
		return operation.OpId{}, 0, fmt.Errorf("state: malformed snapshot key %q: %w", s, err)
	}
	n, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return operation.OpId{}, 0, fmt.Errorf("state: malformed snapshot key %q: %w", s, err)
	}
	var op operation.OpId
	copy(op[:], raw)
	return op, n, nil
}
