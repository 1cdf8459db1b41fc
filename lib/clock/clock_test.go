// Copyright 2026 The Graft Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"testing"
	"time"
)

func TestRealTracksSystemClock(t *testing.T) {
	t.Parallel()

	before := time.Now()
	got := Real().Now()
	after := time.Now()
	if got.Before(before) || got.After(after) {
		t.Errorf("Real().Now() = %v, outside [%v, %v]", got, before, after)
	}
}

func TestFakeOnlyMovesWhenTold(t *testing.T) {
	t.Parallel()

	f := NewFake()
	start := f.Now()
	if start.IsZero() {
		t.Fatal("NewFake starts at the zero time")
	}
	if again := f.Now(); !again.Equal(start) {
		t.Errorf("Now moved on its own: %v then %v", start, again)
	}

	f.Advance(90 * time.Second)
	if got, want := f.Now(), start.Add(90*time.Second); !got.Equal(want) {
		t.Errorf("after Advance: Now() = %v, want %v", got, want)
	}

	exact := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	f.Set(exact)
	if got := f.Now(); !got.Equal(exact) {
		t.Errorf("after Set: Now() = %v, want %v", got, exact)
	}

	f.Advance(-time.Hour)
	if got := f.Now(); !got.Equal(exact.Add(-time.Hour)) {
		t.Errorf("negative Advance: Now() = %v, want %v", got, exact.Add(-time.Hour))
	}
}
