//
// Tencent is pleased to support the open source community by making storyscript available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// storyscript is licensed under the Apache License Version 2.0.
//
//

// Package registry manages node definition registration and lookup.
// It provides the central catalog the graph compiler resolves node types
// against.
//
// Definitions can be registered in two ways:
// 1. Built-in node types (registered at init time)
// 2. Custom node types (registered before compilation starts)
package registry

import (
	"fmt"
	"sort"
	"sync"
)

// Registry manages node definition registration and lookup.
type Registry struct {
	mu          sync.RWMutex
	definitions map[string]*Definition
}

// NewRegistry creates a new, empty node definition registry.
func NewRegistry() *Registry {
	return &Registry{
		definitions: make(map[string]*Definition),
	}
}

// Register registers a node definition under its Type key.
func (r *Registry) Register(def *Definition) error {
	if def == nil {
		return fmt.Errorf("definition cannot be nil")
	}
	if def.Type == "" {
		return fmt.Errorf("definition type cannot be empty")
	}
	if def.Compile == nil {
		return fmt.Errorf("definition %q has no compile function", def.Type)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.definitions[def.Type]; exists {
		return fmt.Errorf("definition %q already registered", def.Type)
	}

	r.definitions[def.Type] = def
	return nil
}

// MustRegister registers a definition and panics if registration fails.
// This is useful for init-time registration of built-in node types.
func (r *Registry) MustRegister(def *Definition) {
	if err := r.Register(def); err != nil {
		panic(err)
	}
}

// Get retrieves a definition by node type. The second return value reports
// whether the type is registered; an unknown type is an ordinary lookup
// miss, never a panic.
func (r *Registry) Get(nodeType string) (*Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, exists := r.definitions[nodeType]
	return def, exists
}

// Has checks if a node type is registered.
func (r *Registry) Has(nodeType string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.definitions[nodeType]
	return exists
}

// List returns all registered node type names in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.definitions))
	for name := range r.definitions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ListDefinitions returns all registered definitions sorted by type name.
// This is what the editor palette uses to discover available node types.
func (r *Registry) ListDefinitions() []*Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]*Definition, 0, len(r.definitions))
	for _, def := range r.definitions {
		defs = append(defs, def)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Type < defs[j].Type })
	return defs
}

// Unregister removes a definition from the registry.
// This is mainly for testing purposes.
func (r *Registry) Unregister(nodeType string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.definitions, nodeType)
}

// Default is the global default registry.
// Built-in node types register themselves here at init time.
var Default = NewRegistry()

// Register registers a definition in the default registry.
func Register(def *Definition) error {
	return Default.Register(def)
}

// MustRegister registers a definition in the default registry and panics on error.
func MustRegister(def *Definition) {
	Default.MustRegister(def)
}

// Get retrieves a definition from the default registry.
func Get(nodeType string) (*Definition, bool) {
	return Default.Get(nodeType)
}

// Has checks if a node type exists in the default registry.
func Has(nodeType string) bool {
	return Default.Has(nodeType)
}

// List returns all node type names from the default registry.
func List() []string {
	return Default.List()
}

// ListDefinitions returns all definitions from the default registry.
func ListDefinitions() []*Definition {
	return Default.ListDefinitions()
}
