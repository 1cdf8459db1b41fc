// Copyright 2026 The Graft Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock abstracts wall-clock reads for testability.
//
// Production code injects Real(); tests inject a Fake and move it by
// hand. Everything in graft that stamps a record with the current
// time takes a Clock instead of calling time.Now directly, so tests
// can assert exact timestamps instead of windows.
package clock

import (
	"sync"
	"time"
)

// Clock supplies the current time.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// Real returns the Clock backed by the system clock.
func Real() Clock {
	return realClock{}
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Fake is a Clock whose time only moves when told to. Safe for
// concurrent use. The zero value starts at the zero time; NewFake
// starts at an arbitrary fixed instant so tests relying on "some
// nonzero time" read naturally.
type Fake struct {
	mu  sync.Mutex
	now time.Time
}

// NewFake returns a Fake set to a fixed, nonzero instant.
func NewFake() *Fake {
	return &Fake{now: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
}

// Now returns the fake's current time.
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Set moves the fake to an exact instant.
func (f *Fake) Set(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = t
}

// Advance moves the fake forward by d. Negative durations move it
// backward; tests simulating clock skew rely on that.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}
