// Copyright 2026 The Graft Authors
// SPDX-License-Identifier: Apache-2.0

package state

import (
	"time"

	"github.com/graftfs/graft/driver"
	"github.com/graftfs/graft/vfs"
)

// Record is what a controller persists about one engine instance.
// Params is the block the instance was created with; reconnection
// requires it verbatim, which is the whole reason the record exists.
// The remaining fields describe the mapping last applied through this
// controller, for listings and change detection.
type Record struct {
	// Instance duplicates Params.Instance for direct access; the two
	// always agree.
	Instance string `cbor:"instance"`

	// Params is the parameter block for CreateSession and
	// ConnectSession.
	Params driver.Params `cbor:"params"`

	// Fingerprint digests the applied mapping. Zero when the session
	// never applied one.
	Fingerprint Fingerprint `cbor:"fingerprint"`

	// DirectoryRules and FileRules count the applied mapping's
	// partitions.
	DirectoryRules int `cbor:"directory_rules"`
	FileRules      int `cbor:"file_rules"`

	// AppliedAt is when the mapping was applied; zero when none was.
	AppliedAt time.Time `cbor:"applied_at"`

	// SavedAt is when the record was written. Store.Save stamps it.
	SavedAt time.Time `cbor:"saved_at"`
}

// NewRecord builds the record for a session created with params. m is
// the applied mapping and may be nil when the session has none;
// appliedAt is ignored in that case.
func NewRecord(params driver.Params, m *vfs.Mapping, appliedAt time.Time) (Record, error) {
	rec := Record{
		Instance: params.Instance,
		Params:   params,
	}
	if m != nil {
		fp, err := MappingFingerprint(m)
		if err != nil {
			return Record{}, err
		}
		rec.Fingerprint = fp
		rec.DirectoryRules = m.DirectoryCount()
		rec.FileRules = m.FileCount()
		rec.AppliedAt = appliedAt
	}
	return rec, nil
}
