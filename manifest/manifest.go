// Copyright 2026 The Graft Authors
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"regexp"
	"slices"
	"strings"

	"github.com/graftfs/graft/driver"
	"github.com/graftfs/graft/vfs"
)

// Link types accepted in a manifest.
const (
	TypeDirectory = "directory"
	TypeFile      = "file"
)

// LinkSpec is one link rule as authored in a manifest. Paths may
// contain ${VAR} references; they are expanded when the manifest is
// compiled, not when it is parsed.
type LinkSpec struct {
	// Real is the path that actually holds the content.
	Real string `json:"real" yaml:"real"`

	// Virtual is the path processes see the content under.
	Virtual string `json:"virtual" yaml:"virtual"`

	// Type is "directory" or "file".
	Type string `json:"type" yaml:"type"`

	// Recursive extends a directory rule to subdirectories created
	// under the real path while the session runs. Unset means true,
	// matching the engine's usual use. Meaningless on files.
	Recursive *bool `json:"recursive,omitempty" yaml:"recursive,omitempty"`

	// MonitorChanges re-resolves the rule when the real directory
	// changes. Meaningless on files.
	MonitorChanges bool `json:"monitor_changes,omitempty" yaml:"monitor_changes,omitempty"`

	// CreateTarget routes new files created under the virtual path
	// into the real path.
	CreateTarget bool `json:"create_target,omitempty" yaml:"create_target,omitempty"`

	// FailIfExists makes the engine reject the rule when the virtual
	// path already exists.
	FailIfExists bool `json:"fail_if_exists,omitempty" yaml:"fail_if_exists,omitempty"`
}

// Manifest is a named, optionally inheriting, set of link rules.
type Manifest struct {
	// Name identifies the manifest to Loader.Resolve and to extends
	// references. Defaults to the source filename without extension.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Description is free text for listings.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Extends names a parent manifest whose links and variables this
	// one builds on.
	Extends string `json:"extends,omitempty" yaml:"extends,omitempty"`

	// Variables declares ${VAR} values available to this manifest's
	// paths. Values are taken literally; they are not themselves
	// expanded.
	Variables map[string]string `json:"variables,omitempty" yaml:"variables,omitempty"`

	// Links are the rules, in the order they reach the engine.
	Links []LinkSpec `json:"links,omitempty" yaml:"links,omitempty"`
}

// Validate checks the manifest for structural errors. All problems
// are reported, not just the first. Variables are not expanded here,
// so ${VAR} references pass through untouched.
func (m *Manifest) Validate() error {
	var errs []error

	if m.Name == "" {
		errs = append(errs, fmt.Errorf("manifest name is required"))
	}
	if m.Name == m.Extends && m.Name != "" {
		errs = append(errs, fmt.Errorf("manifest %q extends itself", m.Name))
	}

	for i, link := range m.Links {
		if link.Real == "" {
			errs = append(errs, fmt.Errorf("link %d: real path is required", i))
		}
		if link.Virtual == "" {
			errs = append(errs, fmt.Errorf("link %d: virtual path is required", i))
		}
		switch link.Type {
		case TypeDirectory:
		case TypeFile:
			if link.Recursive != nil {
				errs = append(errs, fmt.Errorf("link %d: recursive applies only to directories", i))
			}
			if link.MonitorChanges {
				errs = append(errs, fmt.Errorf("link %d: monitor_changes applies only to directories", i))
			}
		case "":
			errs = append(errs, fmt.Errorf("link %d: type is required (%q or %q)", i, TypeDirectory, TypeFile))
		default:
			errs = append(errs, fmt.Errorf("link %d: unknown type %q (want %q or %q)", i, link.Type, TypeDirectory, TypeFile))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Clone returns a deep copy. Mutating the copy's variables or links
// leaves the original untouched.
func (m *Manifest) Clone() *Manifest {
	clone := *m
	clone.Variables = maps.Clone(m.Variables)
	clone.Links = slices.Clone(m.Links)
	for i, link := range clone.Links {
		if link.Recursive != nil {
			value := *link.Recursive
			clone.Links[i].Recursive = &value
		}
	}
	return &clone
}

// Mapping expands the manifest's paths and compiles its links into a
// mapping. Expansion consults, in order: the manifest's declared
// variables with overrides applied on top, then the process
// environment, then the reference's inline default. A reference that
// resolves nowhere fails the compile.
func (m *Manifest) Mapping(overrides map[string]string) (*vfs.Mapping, error) {
	variables := make(map[string]string, len(m.Variables)+len(overrides))
	maps.Copy(variables, m.Variables)
	maps.Copy(variables, overrides)

	mapping := vfs.NewMapping()
	for i, link := range m.Links {
		real, err := Expand(link.Real, variables)
		if err != nil {
			return nil, fmt.Errorf("link %d real path: %w", i, err)
		}
		virtual, err := Expand(link.Virtual, variables)
		if err != nil {
			return nil, fmt.Errorf("link %d virtual path: %w", i, err)
		}

		var flags driver.LinkFlags
		flags = flags.With(driver.LinkCreateTarget, link.CreateTarget)
		flags = flags.With(driver.LinkFailIfExists, link.FailIfExists)

		var rule vfs.Rule
		switch link.Type {
		case TypeDirectory:
			directory, err := vfs.NewDirectoryLink(real, virtual, flags)
			if err != nil {
				return nil, fmt.Errorf("link %d: %w", i, err)
			}
			if link.Recursive != nil {
				directory.SetRecursive(*link.Recursive)
			}
			directory.SetMonitorChanges(link.MonitorChanges)
			rule = directory
		case TypeFile:
			file, err := vfs.NewFileLink(real, virtual, flags)
			if err != nil {
				return nil, fmt.Errorf("link %d: %w", i, err)
			}
			rule = file
		default:
			return nil, fmt.Errorf("link %d: unknown type %q", i, link.Type)
		}

		if err := mapping.Link(rule); err != nil {
			return nil, fmt.Errorf("link %d: %w", i, err)
		}
	}
	return mapping, nil
}

// variablePattern matches ${VAR} and ${VAR:-default} references. Only
// the braced form is recognized; bare $VAR passes through untouched.
var variablePattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// Expand replaces ${VAR} references in input. Each reference resolves
// against the variables map first, then the process environment, then
// its inline ${VAR:-default} default. References that resolve nowhere
// are collected and reported together, so a broken manifest fails
// fast instead of compiling half-expanded paths.
func Expand(input string, variables map[string]string) (string, error) {
	var unresolved []string

	result := variablePattern.ReplaceAllStringFunc(input, func(match string) string {
		parts := variablePattern.FindStringSubmatch(match)
		name := parts[1]

		if value, ok := variables[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		// The name group excludes colons, so ":-" in the match means
		// an inline default was written, even an empty one.
		if strings.Contains(match, ":-") {
			return parts[2]
		}
		unresolved = append(unresolved, name)
		return match
	})

	if len(unresolved) > 0 {
		return "", fmt.Errorf("unresolved manifest variables: %s", strings.Join(unresolved, ", "))
	}
	return result, nil
}
