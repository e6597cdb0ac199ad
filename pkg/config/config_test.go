// Copyright 2025 RGB Core Project

package config

import (
	"testing"

	"github.com/rgbcore/rgbcore/pkg/mpc"
)

func TestLoadDefaultsWhenUnset(t *testing.T) {
	t.Setenv("RGBCORE_DEFAULT_COMPLEXITY_LIM", "")
	t.Setenv("RGBCORE_MPC_CEILING", "")
	c := Load()
	if c.DefaultComplexityLim != 0 {
		t.Fatalf("expected default complexity lim 0, got %d", c.DefaultComplexityLim)
	}
	if c.MPCCeiling != mpc.DefaultCeiling {
		t.Fatalf("expected default mpc ceiling %d, got %d", mpc.DefaultCeiling, c.MPCCeiling)
	}
}

func TestLoadParsesEnv(t *testing.T) {
	t.Setenv("RGBCORE_DEFAULT_COMPLEXITY_LIM", "5000")
	t.Setenv("RGBCORE_MPC_CEILING", "1024")
	c := Load()
	if c.DefaultComplexityLim != 5000 {
		t.Fatalf("expected 5000, got %d", c.DefaultComplexityLim)
	}
	if c.MPCCeiling != 1024 {
		t.Fatalf("expected 1024, got %d", c.MPCCeiling)
	}
}

func TestLoadFallsBackOnUnparseable(t *testing.T) {
	t.Setenv("RGBCORE_DEFAULT_COMPLEXITY_LIM", "not-a-number")
	t.Setenv("RGBCORE_MPC_CEILING", "also-not-a-number")
	c := Load()
	if c.DefaultComplexityLim != 0 {
		t.Fatalf("expected fallback to 0, got %d", c.DefaultComplexityLim)
	}
	if c.MPCCeiling != mpc.DefaultCeiling {
		t.Fatalf("expected fallback to default ceiling, got %d", c.MPCCeiling)
	}
}
