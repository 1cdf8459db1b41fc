// Copyright 2026 The Graft Authors
// SPDX-License-Identifier: Apache-2.0

// Package state persists what a controller knows about its engine
// instances, so that knowledge outlives the controller process.
//
// Engine instances are keyed by name and reconnecting to one requires
// the exact parameter block it was created with. A [Record] stores
// that block plus bookkeeping about the applied mapping; a later
// controller loads the record and hands the block straight back to
// driver.Driver.ConnectSession. A [Snapshot] pins the full rule set
// that was applied, so a misbehaving instance can be diagnosed even
// after the manifest that produced its mapping has changed.
//
// [Store] keeps one record file and at most one snapshot file per
// instance under a state directory. Writes are atomic (temp file,
// fsync, rename, directory sync): a crash mid-write leaves the
// previous version intact, never a truncated file. Records are plain
// CBOR in graft's deterministic encoding; snapshots carry a one-byte
// compression tag so large rule sets stay cheap on disk.
//
// [Fingerprint] condenses a mapping to a 32-byte keyed BLAKE3 digest
// over the canonical encoding of its rules, in apply order. Two
// mappings fingerprint equal exactly when they would send the engine
// an identical rule sequence, which makes "has the mapping changed
// since this record was written" a byte comparison.
package state
