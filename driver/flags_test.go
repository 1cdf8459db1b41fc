// Copyright 2026 The Graft Authors
// SPDX-License-Identifier: Apache-2.0

package driver

import "testing"

func TestLinkFlagsWith(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		start LinkFlags
		mask  LinkFlags
		on    bool
		want  LinkFlags
	}{
		{"set on empty", 0, LinkRecursive, true, LinkRecursive},
		{"set already set", LinkRecursive, LinkRecursive, true, LinkRecursive},
		{"clear set bit", LinkRecursive | LinkCreateTarget, LinkRecursive, false, LinkCreateTarget},
		{"clear already clear", LinkCreateTarget, LinkRecursive, false, LinkCreateTarget},
		{"set preserves others", LinkFailIfExists, LinkMonitorChanges, true, LinkFailIfExists | LinkMonitorChanges},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := tt.start.With(tt.mask, tt.on)
			if got != tt.want {
				t.Errorf("With(%v, %v) on %v = %v, want %v", tt.mask, tt.on, tt.start, got, tt.want)
			}
		})
	}
}

func TestLinkFlagsWithIsIdempotent(t *testing.T) {
	t.Parallel()

	// Writing the value a flag already has must return the identical
	// bit pattern, not an equivalent one.
	all := LinkFailIfExists | LinkMonitorChanges | LinkCreateTarget | LinkRecursive
	for _, mask := range []LinkFlags{LinkFailIfExists, LinkMonitorChanges, LinkCreateTarget, LinkRecursive} {
		if got := all.With(mask, true); got != all {
			t.Errorf("With(%v, true) changed %v to %v", mask, all, got)
		}
		var none LinkFlags
		if got := none.With(mask, false); got != none {
			t.Errorf("With(%v, false) changed empty set to %v", mask, got)
		}
	}
}

func TestLinkFlagsHas(t *testing.T) {
	t.Parallel()

	f := LinkRecursive | LinkCreateTarget
	if !f.Has(LinkRecursive) {
		t.Error("expected Has(LinkRecursive) to be true")
	}
	if !f.Has(LinkRecursive | LinkCreateTarget) {
		t.Error("expected Has to be true for a fully covered mask")
	}
	if f.Has(LinkRecursive | LinkMonitorChanges) {
		t.Error("expected Has to be false for a partially covered mask")
	}
	if f.Has(LinkFailIfExists) {
		t.Error("expected Has(LinkFailIfExists) to be false")
	}
}

func TestLinkFlagsString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		flags LinkFlags
		want  string
	}{
		{0, "none"},
		{LinkFailIfExists, "fail-if-exists"},
		{LinkRecursive | LinkMonitorChanges, "monitor-changes|recursive"},
		{LinkFlags(0x100), "0x00000100"},
		{LinkCreateTarget | LinkFlags(0x80), "create-target|0x00000080"},
	}

	for _, tt := range tests {
		if got := tt.flags.String(); got != tt.want {
			t.Errorf("LinkFlags(%#x).String() = %q, want %q", uint32(tt.flags), got, tt.want)
		}
	}
}

func TestDirectoryOnlyCoversExpectedBits(t *testing.T) {
	t.Parallel()

	if !DirectoryOnly.Has(LinkMonitorChanges) || !DirectoryOnly.Has(LinkRecursive) {
		t.Errorf("DirectoryOnly = %v, want monitor-changes and recursive", DirectoryOnly)
	}
	if DirectoryOnly.Has(LinkFailIfExists) || DirectoryOnly.Has(LinkCreateTarget) {
		t.Errorf("DirectoryOnly = %v includes flags valid on file rules", DirectoryOnly)
	}
}
