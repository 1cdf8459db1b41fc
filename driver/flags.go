// Copyright 2026 The Graft Authors
// SPDX-License-Identifier: Apache-2.0

package driver

import (
	"fmt"
	"strings"
)

// LinkFlags is the flag bitset attached to a single link rule and
// forwarded verbatim to LinkDirectory and LinkFile. The bit values
// are engine protocol constants; reassigning them breaks deployed
// engines.
type LinkFlags uint32

const (
	// LinkFailIfExists makes the engine reject the rule when an entry
	// already exists at the virtual path.
	LinkFailIfExists LinkFlags = 0x00000001

	// LinkMonitorChanges makes the engine watch the real directory
	// after linking and fold later changes into the virtual view.
	// Meaningful on directory rules only.
	LinkMonitorChanges LinkFlags = 0x00000002

	// LinkCreateTarget redirects files and directories created under
	// the virtual path back to the real path. When several create
	// targets cover the same location, the engine picks the nearest.
	LinkCreateTarget LinkFlags = 0x00000004

	// LinkRecursive links the directory's contents transitively
	// instead of the top level only. Meaningful on directory rules
	// only.
	LinkRecursive LinkFlags = 0x00000008
)

// DirectoryOnly holds the flags that carry no meaning on file rules.
// Constructors in the vfs package reject file rules carrying any of
// these bits.
const DirectoryOnly = LinkMonitorChanges | LinkRecursive

// Has reports whether every bit in mask is set.
func (f LinkFlags) Has(mask LinkFlags) bool {
	return f&mask == mask
}

// With returns f with the bits in mask set or cleared according to
// on. When the requested state already holds, f is returned
// untouched, so the bit pattern only changes on a real transition.
func (f LinkFlags) With(mask LinkFlags, on bool) LinkFlags {
	if f.Has(mask) == on {
		return f
	}
	if on {
		return f | mask
	}
	return f &^ mask
}

// String returns the set flag names joined with "|", or "none" for
// the empty set. Unknown bits are rendered in hex so they are never
// silently dropped from diagnostics.
func (f LinkFlags) String() string {
	if f == 0 {
		return "none"
	}
	var names []string
	if f.Has(LinkFailIfExists) {
		names = append(names, "fail-if-exists")
	}
	if f.Has(LinkMonitorChanges) {
		names = append(names, "monitor-changes")
	}
	if f.Has(LinkCreateTarget) {
		names = append(names, "create-target")
	}
	if f.Has(LinkRecursive) {
		names = append(names, "recursive")
	}
	known := LinkFailIfExists | LinkMonitorChanges | LinkCreateTarget | LinkRecursive
	if rest := f &^ known; rest != 0 {
		names = append(names, fmt.Sprintf("0x%08x", uint32(rest)))
	}
	return strings.Join(names, "|")
}
