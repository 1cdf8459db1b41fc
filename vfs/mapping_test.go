// Copyright 2026 The Graft Authors
// SPDX-License-Identifier: Apache-2.0

package vfs

import (
	"errors"
	"testing"

	"github.com/graftfs/graft/driver"
)

func mustDirectoryLink(t *testing.T, real, virtual string) *DirectoryLink {
	t.Helper()
	rule, err := NewDirectoryLink(real, virtual, 0)
	if err != nil {
		t.Fatalf("NewDirectoryLink(%q, %q): %v", real, virtual, err)
	}
	return rule
}

func mustFileLink(t *testing.T, real, virtual string) *FileLink {
	t.Helper()
	rule, err := NewFileLink(real, virtual, 0)
	if err != nil {
		t.Fatalf("NewFileLink(%q, %q): %v", real, virtual, err)
	}
	return rule
}

func TestMappingPartitionsByVariant(t *testing.T) {
	t.Parallel()

	m := NewMapping()
	dirA := mustDirectoryLink(t, "/real/a", "/virt/a")
	fileB := mustFileLink(t, "/real/b.ini", "/virt/b.ini")
	dirC := mustDirectoryLink(t, "/real/c", "/virt/c")

	for _, rule := range []Rule{dirA, fileB, dirC} {
		if err := m.Link(rule); err != nil {
			t.Fatalf("Link: %v", err)
		}
	}

	var dirs []*DirectoryLink
	for rule := range m.Directories() {
		dirs = append(dirs, rule)
	}
	if len(dirs) != 2 || dirs[0] != dirA || dirs[1] != dirC {
		t.Errorf("Directories() yielded %d rules in wrong order", len(dirs))
	}

	var files []*FileLink
	for rule := range m.Files() {
		files = append(files, rule)
	}
	if len(files) != 1 || files[0] != fileB {
		t.Errorf("Files() yielded %d rules, want exactly fileB", len(files))
	}

	if m.Len() != 3 || m.DirectoryCount() != 2 || m.FileCount() != 1 {
		t.Errorf("counts = %d/%d/%d, want 3/2/1", m.Len(), m.DirectoryCount(), m.FileCount())
	}
}

func TestMappingSequencesAreRestartable(t *testing.T) {
	t.Parallel()

	m := NewMapping()
	if err := m.Link(mustDirectoryLink(t, "/real/a", "/virt/a")); err != nil {
		t.Fatalf("Link: %v", err)
	}
	if err := m.Link(mustDirectoryLink(t, "/real/b", "/virt/b")); err != nil {
		t.Fatalf("Link: %v", err)
	}

	seq := m.Directories()
	count := func() int {
		n := 0
		for range seq {
			n++
		}
		return n
	}
	if first, second := count(), count(); first != 2 || second != 2 {
		t.Errorf("ranging twice yielded %d then %d rules, want 2 and 2", first, second)
	}

	// Early break must not affect later iterations.
	for range seq {
		break
	}
	if n := count(); n != 2 {
		t.Errorf("after early break, full range yielded %d rules, want 2", n)
	}
}

func TestMappingDuplicatesAreKept(t *testing.T) {
	t.Parallel()

	// The mapping forwards whatever it was given; conflict detection
	// belongs to the engine.
	m := NewMapping()
	rule := mustDirectoryLink(t, "/real/a", "/virt/a")
	if err := m.Link(rule); err != nil {
		t.Fatalf("Link: %v", err)
	}
	if err := m.Link(rule); err != nil {
		t.Fatalf("Link duplicate: %v", err)
	}
	if m.DirectoryCount() != 2 {
		t.Errorf("DirectoryCount() = %d, want 2", m.DirectoryCount())
	}
}

// otherRule is a Rule implementation from outside the package; the
// mapping must refuse it rather than guess a partition.
type otherRule struct{}

func (otherRule) RealPath() string        { return "/x" }
func (otherRule) VirtualPath() string     { return "/y" }
func (otherRule) Flags() driver.LinkFlags { return 0 }
func (otherRule) Directory() bool         { return false }

func TestMappingRejectsInvalidRules(t *testing.T) {
	t.Parallel()

	m := NewMapping()
	if err := m.Link(nil); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Link(nil) = %v, want ErrInvalidArgument", err)
	}
	var dir *DirectoryLink
	if err := m.Link(dir); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Link(nil *DirectoryLink) = %v, want ErrInvalidArgument", err)
	}
	var file *FileLink
	if err := m.Link(file); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Link(nil *FileLink) = %v, want ErrInvalidArgument", err)
	}
	if err := m.Link(otherRule{}); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Link(otherRule) = %v, want ErrInvalidArgument", err)
	}
	if m.Len() != 0 {
		t.Errorf("Len() = %d after rejected links, want 0", m.Len())
	}
}

func TestMappingZeroValueUsable(t *testing.T) {
	t.Parallel()

	var m Mapping
	if err := m.Link(mustFileLink(t, "/real/f", "/virt/f")); err != nil {
		t.Fatalf("Link on zero-value mapping: %v", err)
	}
	if m.FileCount() != 1 {
		t.Errorf("FileCount() = %d, want 1", m.FileCount())
	}
}
