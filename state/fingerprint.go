// Copyright 2026 The Graft Authors
// SPDX-License-Identifier: Apache-2.0

package state

import (
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"

	"github.com/graftfs/graft/lib/codec"
	"github.com/graftfs/graft/vfs"
)

// Fingerprint identifies the exact content and order of a mapping: a
// 32-byte keyed BLAKE3 digest over the canonical encoding of its
// rules. Equal fingerprints mean a controller would send the engine
// an identical rule sequence.
type Fingerprint [32]byte

// fingerprintKey is the BLAKE3 domain-separation key for mapping
// fingerprints. ASCII, dot-padded to the required 32 bytes, so the
// key is recognizable in a hex dump. Changing it invalidates every
// stored fingerprint.
var fingerprintKey = [32]byte{
	'g', 'r', 'a', 'f', 't', '.',
	'm', 'a', 'p', 'p', 'i', 'n', 'g', '.',
	'f', 'i', 'n', 'g', 'e', 'r', 'p', 'r', 'i', 'n', 't', '.',
	'v', '1', '.', '.', '.', '.',
}

// MappingFingerprint digests m's rules in apply order: the directory
// partition, then the file partition, each rule as its canonical
// paths, flag bits, and variant.
func MappingFingerprint(m *vfs.Mapping) (Fingerprint, error) {
	var fp Fingerprint
	if m == nil {
		return fp, fmt.Errorf("nil mapping")
	}
	encoded, err := codec.Marshal(snapshotRules(m))
	if err != nil {
		return fp, fmt.Errorf("encoding rules: %w", err)
	}
	hasher, err := blake3.NewKeyed(fingerprintKey[:])
	if err != nil {
		// NewKeyed fails only on a wrong key length; the key is a
		// compile-time 32-byte constant.
		panic("state: keyed hasher initialization failed: " + err.Error())
	}
	hasher.Write(encoded)
	copy(fp[:], hasher.Sum(nil))
	return fp, nil
}

// String returns the fingerprint as lowercase hex.
func (f Fingerprint) String() string {
	return hex.EncodeToString(f[:])
}

// Short returns the leading 12 hex digits, enough for listings.
func (f Fingerprint) Short() string {
	return f.String()[:12]
}

// IsZero reports whether the fingerprint is unset.
func (f Fingerprint) IsZero() bool {
	return f == Fingerprint{}
}

// ParseFingerprint parses the hex form produced by String.
func ParseFingerprint(s string) (Fingerprint, error) {
	var fp Fingerprint
	raw, err := hex.DecodeString(s)
	if err != nil {
		return fp, fmt.Errorf("invalid fingerprint %q: %v", s, err)
	}
	if len(raw) != len(fp) {
		return fp, fmt.Errorf("invalid fingerprint %q: got %d bytes, want %d", s, len(raw), len(fp))
	}
	copy(fp[:], raw)
	return fp, nil
}
