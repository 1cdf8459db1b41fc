// Copyright 2026 The Graft Authors
// SPDX-License-Identifier: Apache-2.0

package vfs

import (
	"errors"
	"sync"
	"testing"
)

func TestRegistryReserveAndRelease(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	if err := r.Reserve("mods"); err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if !r.Reserved("mods") {
		t.Error("expected name to be reserved")
	}

	if err := r.Reserve("mods"); !errors.Is(err, ErrNameConflict) {
		t.Errorf("second Reserve = %v, want ErrNameConflict", err)
	}

	r.Release("mods")
	if r.Reserved("mods") {
		t.Error("expected name to be free after Release")
	}
	if err := r.Reserve("mods"); err != nil {
		t.Errorf("Reserve after Release: %v", err)
	}
}

func TestRegistryReleaseUnknownNameIsNoop(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.Release("never-reserved")
	if err := r.Reserve("never-reserved"); err != nil {
		t.Errorf("Reserve: %v", err)
	}
}

func TestRegistryConcurrentReserve(t *testing.T) {
	t.Parallel()

	// Exactly one of many racing reservations of the same name may
	// win.
	r := NewRegistry()
	const racers = 16
	var wg sync.WaitGroup
	wins := make(chan struct{}, racers)
	for range racers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if r.Reserve("contested") == nil {
				wins <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(wins)
	if got := len(wins); got != 1 {
		t.Errorf("%d reservations succeeded, want exactly 1", got)
	}
}
