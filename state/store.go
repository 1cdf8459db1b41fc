// Copyright 2026 The Graft Authors
// SPDX-License-Identifier: Apache-2.0

package state

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/graftfs/graft/lib/clock"
	"github.com/graftfs/graft/lib/codec"
)

const (
	recordExtension   = ".record"
	snapshotExtension = ".snapshot"
)

// Store keeps session records and mapping snapshots in a flat
// directory, one file per instance. Files are written atomically so a
// crash mid-save leaves the previous version intact rather than a
// truncated one.
type Store struct {
	directory string
	clk       clock.Clock
}

// NewStore opens (creating if needed) a state directory. A nil clk
// uses the system clock; tests inject a fake to make timestamps
// deterministic.
func NewStore(directory string, clk clock.Clock) (*Store, error) {
	if directory == "" {
		return nil, fmt.Errorf("empty state directory")
	}
	if clk == nil {
		clk = clock.Real()
	}
	if err := os.MkdirAll(directory, 0700); err != nil {
		return nil, fmt.Errorf("creating state directory: %w", err)
	}
	return &Store{directory: directory, clk: clk}, nil
}

// Directory returns the store's root.
func (s *Store) Directory() string {
	return s.directory
}

// Save writes rec under its instance name, stamping SavedAt. An
// existing record for the instance is replaced.
func (s *Store) Save(rec *Record) error {
	if rec == nil {
		return fmt.Errorf("nil record")
	}
	path, err := s.filePath(rec.Instance, recordExtension)
	if err != nil {
		return err
	}
	rec.SavedAt = s.clk.Now().UTC()
	data, err := codec.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding record for %q: %w", rec.Instance, err)
	}
	if err := writeFileAtomic(path, data); err != nil {
		return fmt.Errorf("saving record for %q: %w", rec.Instance, err)
	}
	return nil
}

// Load reads the record saved for instance. A missing record reports
// an error satisfying errors.Is(err, os.ErrNotExist).
func (s *Store) Load(instance string) (*Record, error) {
	data, err := s.RawRecord(instance)
	if err != nil {
		return nil, err
	}
	var rec Record
	if err := codec.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decoding record for %q: %w", instance, err)
	}
	return &rec, nil
}

// RawRecord reads the encoded bytes of instance's record without
// decoding them, for diagnostic display.
func (s *Store) RawRecord(instance string) ([]byte, error) {
	path, err := s.filePath(instance, recordExtension)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading record for %q: %w", instance, err)
	}
	return data, nil
}

// List returns the instance names with saved records, sorted.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.directory)
	if err != nil {
		return nil, fmt.Errorf("listing state directory: %w", err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name, found := strings.CutSuffix(entry.Name(), recordExtension)
		if !found || name == "" {
			continue
		}
		names = append(names, name)
	}
	// os.ReadDir sorts by filename, so names is already ordered.
	return names, nil
}

// Delete removes instance's record and snapshot. Deleting an instance
// that has neither is not an error.
func (s *Store) Delete(instance string) error {
	for _, extension := range []string{recordExtension, snapshotExtension} {
		path, err := s.filePath(instance, extension)
		if err != nil {
			return err
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("deleting state for %q: %w", instance, err)
		}
	}
	return nil
}

// SaveSnapshot writes snap under its instance name, stamping TakenAt
// and compressing with tag.
func (s *Store) SaveSnapshot(snap *Snapshot, tag CompressionTag) error {
	if snap == nil {
		return fmt.Errorf("nil snapshot")
	}
	path, err := s.filePath(snap.Instance, snapshotExtension)
	if err != nil {
		return err
	}
	snap.TakenAt = s.clk.Now().UTC()
	data, err := EncodeSnapshot(snap, tag)
	if err != nil {
		return fmt.Errorf("encoding snapshot for %q: %w", snap.Instance, err)
	}
	if err := writeFileAtomic(path, data); err != nil {
		return fmt.Errorf("saving snapshot for %q: %w", snap.Instance, err)
	}
	return nil
}

// LoadSnapshot reads the snapshot saved for instance. A missing
// snapshot reports an error satisfying errors.Is(err, os.ErrNotExist).
func (s *Store) LoadSnapshot(instance string) (*Snapshot, error) {
	path, err := s.filePath(instance, snapshotExtension)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot for %q: %w", instance, err)
	}
	snap, err := DecodeSnapshot(data)
	if err != nil {
		return nil, fmt.Errorf("snapshot for %q: %w", instance, err)
	}
	return snap, nil
}

// filePath maps an instance name to its file in the store. Instance
// names become filenames directly, so anything that would escape the
// directory is rejected.
func (s *Store) filePath(instance, extension string) (string, error) {
	if instance == "" {
		return "", fmt.Errorf("empty instance name")
	}
	if instance == "." || instance == ".." || filepath.Base(instance) != instance {
		return "", fmt.Errorf("instance name %q is not usable as a filename", instance)
	}
	return filepath.Join(s.directory, instance+extension), nil
}

// writeFileAtomic writes data to path via a temporary file and
// rename, so readers never observe a partial write and a crash cannot
// truncate an existing file.
func writeFileAtomic(path string, data []byte) error {
	temporaryPath := path + ".tmp"

	file, err := os.OpenFile(temporaryPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("creating temporary file: %w", err)
	}

	// Write, sync, close, in that order. If any step fails, remove
	// the temporary file and report the first error.
	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("writing temporary file: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("syncing temporary file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("closing temporary file: %w", err)
	}

	if err := os.Rename(temporaryPath, path); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("renaming file into place: %w", err)
	}

	// Sync the parent directory to ensure the rename is durable. This
	// matters when the machine loses power between rename and the OS
	// flushing directory metadata.
	parentDirectory, err := os.Open(filepath.Dir(path))
	if err == nil {
		parentDirectory.Sync()
		parentDirectory.Close()
	}

	return nil
}
