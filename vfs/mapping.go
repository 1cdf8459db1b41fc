// Copyright 2026 The Graft Authors
// SPDX-License-Identifier: Apache-2.0

package vfs

import (
	"fmt"
	"iter"
)

// Mapping is an ordered collection of link rules, partitioned by
// variant. Within each partition rules keep insertion order, and
// Session.ApplyMapping always sends the directory partition before
// the file partition: directory structure must exist in the virtual
// view before single-file overrides land on top of it.
//
// A mapping performs no overlap or conflict detection. Duplicate and
// contradictory rules are forwarded as-is; judging them is the
// engine's job, at apply time. The zero value is an empty mapping
// ready for use.
type Mapping struct {
	dirs  []*DirectoryLink
	files []*FileLink
}

// NewMapping returns an empty mapping.
func NewMapping() *Mapping {
	return &Mapping{}
}

// Link appends rule to the partition matching its variant. Only the
// two variants from this package are acceptable; nil rules and
// foreign Rule implementations fail with ErrInvalidArgument.
func (m *Mapping) Link(rule Rule) error {
	switch r := rule.(type) {
	case *DirectoryLink:
		if r == nil {
			return fmt.Errorf("%w: nil directory rule", ErrInvalidArgument)
		}
		m.dirs = append(m.dirs, r)
	case *FileLink:
		if r == nil {
			return fmt.Errorf("%w: nil file rule", ErrInvalidArgument)
		}
		m.files = append(m.files, r)
	case nil:
		return fmt.Errorf("%w: nil rule", ErrInvalidArgument)
	default:
		return fmt.Errorf("%w: unsupported rule type %T", ErrInvalidArgument, rule)
	}
	return nil
}

// Directories returns the directory rules in insertion order. The
// sequence is restartable: ranging over it does not consume anything,
// and it may be ranged any number of times.
func (m *Mapping) Directories() iter.Seq[*DirectoryLink] {
	return func(yield func(*DirectoryLink) bool) {
		for _, rule := range m.dirs {
			if !yield(rule) {
				return
			}
		}
	}
}

// Files returns the file rules in insertion order. The sequence is
// restartable, like Directories.
func (m *Mapping) Files() iter.Seq[*FileLink] {
	return func(yield func(*FileLink) bool) {
		for _, rule := range m.files {
			if !yield(rule) {
				return
			}
		}
	}
}

// DirectoryCount returns the number of directory rules.
func (m *Mapping) DirectoryCount() int { return len(m.dirs) }

// FileCount returns the number of file rules.
func (m *Mapping) FileCount() int { return len(m.files) }

// Len returns the total number of rules.
func (m *Mapping) Len() int { return len(m.dirs) + len(m.files) }
