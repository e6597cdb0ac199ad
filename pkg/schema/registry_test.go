// Copyright 2025 RGB Core Project

package schema

import "testing"

func TestRegistryRegisterAndLookup(t *testing.T) {
	reg := NewRegistry()
	s := sampleSchema()
	if err := reg.Register(s); err != nil {
		t.Fatal(err)
	}
	got, ok := reg.Lookup(s.Id())
	if !ok || got != s {
		t.Fatal("expected Lookup to return the exact registered schema")
	}
}

func TestRegistryLookupMiss(t *testing.T) {
	reg := NewRegistry()
	if _, ok := reg.Lookup(Id{}); ok {
		t.Fatal("expected Lookup to report false for an unregistered id")
	}
}

func TestRegistryRereregisteringSamePointerIsNoop(t *testing.T) {
	reg := NewRegistry()
	s := sampleSchema()
	if err := reg.Register(s); err != nil {
		t.Fatal(err)
	}
	if err := reg.Register(s); err != nil {
		t.Fatalf("re-registering the same schema pointer must not error: %v", err)
	}
}

func TestRegistryRejectsCollidingDifferentSchema(t *testing.T) {
	reg := NewRegistry()
	s1 := sampleSchema()
	if err := reg.Register(s1); err != nil {
		t.Fatal(err)
	}
	// A distinct *Schema value with identical content computes the same
	// Id but must still be rejected: Registry compares by pointer
	// identity, not content.
	s2 := sampleSchema()
	if err := reg.Register(s2); err == nil {
		t.Fatal("expected registering a different pointer under a colliding id to fail")
	}
}
