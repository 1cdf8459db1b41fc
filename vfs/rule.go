// Copyright 2026 The Graft Authors
// SPDX-License-Identifier: Apache-2.0

package vfs

import (
	"fmt"
	"path/filepath"

	"github.com/graftfs/graft/driver"
)

// Rule is one real-to-virtual path redirection. Exactly two variants
// exist, [FileLink] and [DirectoryLink]; the variant is fixed at
// construction and can never change. Paths are canonicalized once,
// when the rule is built, so a rule constructed against one working
// directory stays stable if the process later changes directory.
type Rule interface {
	// RealPath returns the canonical absolute path of the redirection
	// source.
	RealPath() string
	// VirtualPath returns the canonical absolute path the source
	// appears at inside the virtual view.
	VirtualPath() string
	// Flags returns the rule's current flag bitset.
	Flags() driver.LinkFlags
	// Directory reports whether this rule redirects a directory.
	Directory() bool
}

// link carries the state shared by both rule variants, plus the flag
// accessors valid on either.
type link struct {
	real    string
	virtual string
	flags   driver.LinkFlags
}

func (l *link) RealPath() string        { return l.real }
func (l *link) VirtualPath() string     { return l.virtual }
func (l *link) Flags() driver.LinkFlags { return l.flags }

// FailIfExists reports whether the engine must reject this rule when
// an entry already exists at the virtual path.
func (l *link) FailIfExists() bool {
	return l.flags.Has(driver.LinkFailIfExists)
}

// SetFailIfExists toggles rejection on existing virtual entries.
// Setting the value already held leaves the bitset untouched.
func (l *link) SetFailIfExists(on bool) {
	l.flags = l.flags.With(driver.LinkFailIfExists, on)
}

// CreateTarget reports whether new files created under the virtual
// path are redirected back to the real path.
func (l *link) CreateTarget() bool {
	return l.flags.Has(driver.LinkCreateTarget)
}

// SetCreateTarget toggles creation redirection. Setting the value
// already held leaves the bitset untouched.
func (l *link) SetCreateTarget(on bool) {
	l.flags = l.flags.With(driver.LinkCreateTarget, on)
}

// FileLink redirects a single real file to a virtual path.
type FileLink struct {
	link
}

// Directory reports false: a file rule never becomes a directory
// rule.
func (l *FileLink) Directory() bool { return false }

// NewFileLink builds a file rule with both paths canonicalized.
// Directory-only flag bits (recursive, monitor-changes) are rejected
// with ErrInvariantViolation; paths that cannot be made absolute are
// rejected with ErrInvalidPath.
func NewFileLink(real, virtual string, flags driver.LinkFlags) (*FileLink, error) {
	if bad := flags & driver.DirectoryOnly; bad != 0 {
		return nil, fmt.Errorf("%w: flags %v are valid only on directory links", ErrInvariantViolation, bad)
	}
	real, virtual, err := canonicalPair(real, virtual)
	if err != nil {
		return nil, err
	}
	return &FileLink{link{real: real, virtual: virtual, flags: flags}}, nil
}

// DirectoryLink redirects a real directory to a virtual path.
//
// New directory rules link recursively: the whole subtree appears
// under the virtual path. Opt out with SetRecursive(false) to link
// only the directory's immediate contents.
type DirectoryLink struct {
	link
}

// Directory reports true: a directory rule never becomes a file rule.
func (l *DirectoryLink) Directory() bool { return true }

// NewDirectoryLink builds a directory rule with both paths
// canonicalized. The recursive flag is set regardless of flags;
// monitoring defaults off. Paths that cannot be made absolute are
// rejected with ErrInvalidPath.
func NewDirectoryLink(real, virtual string, flags driver.LinkFlags) (*DirectoryLink, error) {
	real, virtual, err := canonicalPair(real, virtual)
	if err != nil {
		return nil, err
	}
	return &DirectoryLink{link{real: real, virtual: virtual, flags: flags | driver.LinkRecursive}}, nil
}

// Recursive reports whether the rule links the directory's contents
// transitively.
func (l *DirectoryLink) Recursive() bool {
	return l.flags.Has(driver.LinkRecursive)
}

// SetRecursive toggles transitive linking. Setting the value already
// held leaves the bitset untouched.
func (l *DirectoryLink) SetRecursive(on bool) {
	l.flags = l.flags.With(driver.LinkRecursive, on)
}

// MonitorChanges reports whether the engine watches the real
// directory for changes after linking.
func (l *DirectoryLink) MonitorChanges() bool {
	return l.flags.Has(driver.LinkMonitorChanges)
}

// SetMonitorChanges toggles change monitoring. Setting the value
// already held leaves the bitset untouched.
func (l *DirectoryLink) SetMonitorChanges(on bool) {
	l.flags = l.flags.With(driver.LinkMonitorChanges, on)
}

// canonicalPath resolves p to a canonical absolute path. Empty paths
// and paths the OS cannot resolve fail with ErrInvalidPath.
func canonicalPath(p string) (string, error) {
	if p == "" {
		return "", fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidPath, p, err)
	}
	return abs, nil
}

func canonicalPair(real, virtual string) (string, string, error) {
	r, err := canonicalPath(real)
	if err != nil {
		return "", "", fmt.Errorf("real path: %w", err)
	}
	v, err := canonicalPath(virtual)
	if err != nil {
		return "", "", fmt.Errorf("virtual path: %w", err)
	}
	return r, v, nil
}
