// Copyright 2026 The Graft Authors
// SPDX-License-Identifier: Apache-2.0

package vfs

import (
	"fmt"
	"sync"
)

// Registry tracks the instance names live sessions hold within one
// controller process. Engines key shared state off the instance name,
// so two sessions driving the same name would corrupt each other;
// the registry makes that a construction-time error instead.
//
// Names return to the pool when their session closes. The registry
// sees only this process: two controller processes can still collide
// on the engine, and the engine is the arbiter there.
type Registry struct {
	mu    sync.Mutex
	names map[string]struct{}
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{names: make(map[string]struct{})}
}

// Reserve marks name as held. Reserving a held name fails with
// ErrNameConflict.
func (r *Registry) Reserve(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.names[name]; taken {
		return fmt.Errorf("%w: %q", ErrNameConflict, name)
	}
	r.names[name] = struct{}{}
	return nil
}

// Release returns name to the pool. Releasing a name that is not held
// is a no-op.
func (r *Registry) Release(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.names, name)
}

// Reserved reports whether name is currently held.
func (r *Registry) Reserved(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, taken := r.names[name]
	return taken
}
