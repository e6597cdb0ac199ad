// Copyright 2025 RGB Core Project

// Package config loads the ambient, non-consensus knobs a caller wires
// the core through: the VM's default step budget and the MPC slot-count
// search ceiling. Both are caller-supplied numbers, not consensus rules
// themselves (a schema's complexity limit lives per-schema; this is
// only a fallback a deployment can tune), read from the environment
// at startup.
package config

import (
	"os"
	"strconv"

	"github.com/rgbcore/rgbcore/pkg/mpc"
)

// Config holds the tunables a validator/anchor-generation deployment
// reads from its environment at startup.
type Config struct {
	// DefaultComplexityLim is a fallback step budget for a schema whose
	// VMConfig leaves ComplexityLim at zero (the core treats zero as
	// unbounded). Load only reads it; no package in this module applies it.
	DefaultComplexityLim uint64

	// MPCCeiling bounds the slot-count search in pkg/mpc.ChooseN
	// against pathological protocol-id sets; defaults to mpc.DefaultCeiling.
	MPCCeiling uint16
}

// Load reads Config from the environment, falling back to defaults for
// anything unset or unparseable.
func Load() Config {
	return Config{
		DefaultComplexityLim: getEnvUint64("RGBCORE_DEFAULT_COMPLEXITY_LIM", 0),
		MPCCeiling:           getEnvUint16("RGBCORE_MPC_CEILING", mpc.DefaultCeiling),
	}
}

func getEnvUint64(key string, defaultValue uint64) uint64 {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseUint(v, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvUint16(key string, defaultValue uint16) uint16 {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseUint(v, 10, 16); err == nil {
			return uint16(parsed)
		}
	}
	return defaultValue
}
