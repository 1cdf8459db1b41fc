// Copyright 2026 The Graft Authors
// SPDX-License-Identifier: Apache-2.0

package vfs

import (
	"errors"
	"fmt"

	"github.com/graftfs/graft/driver"
)

// Sentinel errors classifying every failure this package returns.
// Wrapped errors carry the specifics; test with errors.Is.
var (
	// ErrInvalidName rejects instance names that are empty or longer
	// than driver.MaxInstanceName characters.
	ErrInvalidName = errors.New("invalid instance name")

	// ErrNameConflict rejects an instance name already reserved by a
	// live session in this controller.
	ErrNameConflict = errors.New("instance name already in use")

	// ErrAlreadyInitialized rejects a second Initialize on the same
	// session.
	ErrAlreadyInitialized = errors.New("session already initialized")

	// ErrNotInitialized rejects operations that need a live engine
	// instance on a session that has none, including any use of a
	// closed session.
	ErrNotInitialized = errors.New("session not initialized")

	// ErrConnectionFailed reports a failed reconnect to an instance
	// whose active connection another controller holds.
	ErrConnectionFailed = errors.New("could not connect to instance")

	// ErrInitializationFailed reports that the engine rejected
	// instance creation.
	ErrInitializationFailed = errors.New("could not initialize instance")

	// ErrInvalidArgument rejects nil or structurally unusable
	// arguments before any driver call is made.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidPath rejects paths that cannot be canonicalized to
	// absolute form.
	ErrInvalidPath = errors.New("path cannot be canonicalized")

	// ErrLinkFailed reports a link rule the engine rejected. The
	// error is always a *LinkError carrying the rule.
	ErrLinkFailed = errors.New("link rule rejected")

	// ErrProcessLaunchFailed reports that the engine could not spawn
	// a hooked process.
	ErrProcessLaunchFailed = errors.New("process launch failed")

	// ErrInvariantViolation reports an attempt to break a structural
	// rule, such as directory-only flags on a file rule.
	ErrInvariantViolation = errors.New("invariant violation")
)

// LinkError is the rejection of one link rule during ApplyMapping. It
// identifies the exact rule the engine refused; rules applied before
// it remain in effect.
type LinkError struct {
	// Real and Virtual are the rule's canonical paths.
	Real    string
	Virtual string
	// Flags is the rule's flag bitset as forwarded.
	Flags driver.LinkFlags
	// Directory distinguishes directory rules from file rules.
	Directory bool
	// Err is the engine's error.
	Err error
}

func (e *LinkError) Error() string {
	kind := "file"
	if e.Directory {
		kind = "directory"
	}
	return fmt.Sprintf("link %s %q -> %q (flags %v): %v", kind, e.Real, e.Virtual, e.Flags, e.Err)
}

// Unwrap exposes both ErrLinkFailed and the engine's error, so
// errors.Is matches the classification and errors.As still reaches
// the cause.
func (e *LinkError) Unwrap() []error {
	return []error{ErrLinkFailed, e.Err}
}
