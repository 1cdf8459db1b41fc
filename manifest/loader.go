// Copyright 2026 The Graft Authors
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Loader collects manifests from files and resolves their extends
// chains. Resolution results are cached, so a parent shared by many
// children is merged once. A Loader is not safe for concurrent use.
type Loader struct {
	manifests map[string]*Manifest
	sources   map[string]string
	resolved  map[string]*Manifest
	log       *slog.Logger
}

// NewLoader returns an empty loader. A nil logger falls back to
// slog.Default.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		manifests: make(map[string]*Manifest),
		sources:   make(map[string]string),
		resolved:  make(map[string]*Manifest),
		log:       logger,
	}
}

// LoadFile reads and registers one manifest file. The format follows
// the extension: .yaml and .yml parse as YAML, .json and .jsonc as
// JSON with comments and trailing commas allowed. A manifest that
// does not name itself is named after its file. Loading the same file
// twice returns the already registered manifest.
func (l *Loader) LoadFile(path string) (*Manifest, error) {
	path = filepath.Clean(path)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var m *Manifest
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		m, err = ParseYAML(data)
	case ".json", ".jsonc":
		m, err = ParseJSON(data)
	default:
		return nil, fmt.Errorf("%s: unsupported manifest extension %q", path, filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if m.Name == "" {
		m.Name = NameFromPath(path)
	}
	if source, loaded := l.sources[m.Name]; loaded && source == path {
		return l.manifests[m.Name], nil
	}
	if err := l.register(m, path); err != nil {
		return nil, err
	}
	return m, nil
}

// LoadDirectory loads every manifest file directly under dir,
// skipping subdirectories and files with other extensions. A missing
// directory loads nothing; leaving a manifest directory uncreated is
// not an error.
func (l *Loader) LoadDirectory(dir string) error {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading manifest directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".yaml", ".yml", ".json", ".jsonc":
		default:
			continue
		}
		if _, err := l.LoadFile(filepath.Join(dir, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

// Add registers a manifest built in code rather than read from a
// file.
func (l *Loader) Add(m *Manifest) error {
	return l.register(m, "")
}

func (l *Loader) register(m *Manifest, path string) error {
	if err := m.Validate(); err != nil {
		if path != "" {
			return fmt.Errorf("%s: %w", path, err)
		}
		return err
	}
	if existing, loaded := l.sources[m.Name]; loaded {
		return fmt.Errorf("manifest %q already loaded from %s", m.Name, existing)
	}
	l.manifests[m.Name] = m
	l.sources[m.Name] = path
	if path == "" {
		l.sources[m.Name] = "(in memory)"
	}
	l.log.Debug("loaded manifest",
		"name", m.Name,
		"path", path,
		"links", len(m.Links),
		"extends", m.Extends)
	return nil
}

// Resolve returns name's manifest with its extends chain applied: the
// result has no Extends, carries the chain's links root-first, and
// its variables merged child over parent.
func (l *Loader) Resolve(name string) (*Manifest, error) {
	return l.resolve(name, make(map[string]bool))
}

func (l *Loader) resolve(name string, visiting map[string]bool) (*Manifest, error) {
	if m, done := l.resolved[name]; done {
		return m, nil
	}
	if visiting[name] {
		return nil, fmt.Errorf("manifest inheritance cycle through %q", name)
	}

	m, loaded := l.manifests[name]
	if !loaded {
		return nil, fmt.Errorf("unknown manifest %q", name)
	}
	if m.Extends == "" {
		l.resolved[name] = m
		return m, nil
	}

	visiting[name] = true
	parent, err := l.resolve(m.Extends, visiting)
	if err != nil {
		return nil, fmt.Errorf("manifest %q: %w", name, err)
	}

	merged := merge(parent, m)
	l.resolved[name] = merged
	return merged, nil
}

// Source returns the file a manifest was loaded from, "(in memory)"
// for manifests registered with Add, and "" for unknown names.
func (l *Loader) Source(name string) string {
	return l.sources[name]
}

// List returns the loaded manifest names, sorted.
func (l *Loader) List() []string {
	names := make([]string, 0, len(l.manifests))
	for name := range l.manifests {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// merge layers child over parent: parent links first so the child's
// reach the engine later and win on overlap, child variables override
// parent's per entry, child name and description carry through.
func merge(parent, child *Manifest) *Manifest {
	merged := parent.Clone()
	merged.Name = child.Name
	merged.Extends = ""
	if child.Description != "" {
		merged.Description = child.Description
	}

	if merged.Variables == nil && len(child.Variables) > 0 {
		merged.Variables = make(map[string]string, len(child.Variables))
	}
	for name, value := range child.Variables {
		merged.Variables[name] = value
	}

	merged.Links = append(merged.Links, slices.Clone(child.Links)...)
	return merged
}

// ParseYAML parses YAML manifest bytes. The result is not validated
// and may need a name from its source path.
func ParseYAML(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	return &m, nil
}

// ParseJSON strips JSONC comments and trailing commas from data, then
// parses the remaining JSON. Plain JSON passes through the stripper
// unchanged.
func ParseJSON(data []byte) (*Manifest, error) {
	stripped := jsonc.ToJSON(data)

	var m Manifest
	if err := json.Unmarshal(stripped, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	return &m, nil
}

// NameFromPath extracts a manifest name from a file path by stripping
// the directory prefix and the file extension. For example,
// "profiles/skyrim-modded.yaml" returns "skyrim-modded".
func NameFromPath(path string) string {
	base := filepath.Base(path)
	extension := filepath.Ext(base)
	return strings.TrimSuffix(base, extension)
}
