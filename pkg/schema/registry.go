// Copyright 2025 RGB Core Project

package schema

import (
	"fmt"
	"sync"
)

// Registry is a pluggable, concurrency-safe SchemaId -> Schema lookup.
// A Registry is what pkg/validator expects as its schema lookup
// dependency.
type Registry struct {
	mu      sync.RWMutex
	schemas map[Id]*Schema
}

// NewRegistry returns an empty schema registry.
func NewRegistry() *Registry {
	return &Registry{schemas: make(map[Id]*Schema)}
}

// Register adds s under its own computed Id. Re-registering the same
// *Schema pointer is a no-op; registering any other *Schema value under
// an id already in use is an error, even one with identical content.
func (r *Registry) Register(s *Schema) error {
	id := s.Id()
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.schemas[id]; ok && existing != s {
		return fmt.Errorf("schema registry: id %x already registered with a different schema", id)
	}
	r.schemas[id] = s
	return nil
}

// Lookup returns the schema registered under id, if any. Implements the
// lookup function pkg/validator.Validator is constructed with.
func (r *Registry) Lookup(id Id) (*Schema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.schemas[id]
	return s, ok
}

// Lookup is the function shape pkg/validator depends on; *Registry
// satisfies it via the method above, but callers may also pass a bare
// closure (e.g. a single hard-coded schema in tests).
type Lookup func(Id) (*Schema, bool)
