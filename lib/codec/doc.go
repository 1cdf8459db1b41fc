// Copyright 2026 The Graft Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides graft's standard CBOR encoding configuration.
//
// Graft uses two serialization formats with a clear boundary:
//
//   - YAML and JSON for things people write and read: mapping
//     manifests and CLI output.
//   - CBOR for things graft writes for itself: session records and
//     mapping snapshots under the state directory.
//
// This package holds the shared CBOR modes so every graft package
// encodes identically without duplicating configuration. The encoder
// uses Core Deterministic Encoding (RFC 8949 §4.2): sorted map keys,
// smallest integer encoding, no indefinite-length items. The same
// logical data always produces identical bytes, which is what makes
// mapping fingerprints meaningful.
//
// Two deliberate deviations from the core deterministic defaults:
//
//   - Timestamps encode as RFC 3339 text with nanoseconds rather
//     than integer seconds, so records keep full precision and stay
//     readable in a Diagnose dump.
//   - Types implementing encoding.TextMarshaler encode as text
//     strings, so enum-like types (log levels, dump kinds) appear
//     under their names, not bare integers.
//
// For buffer-oriented operations (state files, fingerprints):
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// For inspecting an encoded record by hand:
//
//	notation, err := codec.Diagnose(data)
//
// # Struct Tag Rules
//
// The struct tag on a type documents its serialization format:
//
//   - `cbor` tag: the type is only ever serialized as CBOR, such as
//     snapshot payloads.
//   - `json` tag: the type serves both JSON and CBOR. fxamacker/cbor
//     reads `json` tags as fallback when `cbor` tags are absent, so
//     a single tag controls field naming and omitempty for both
//     formats. Parameter blocks shown in CLI output work this way.
//
// Never use both `cbor` and `json` tags on the same field; the tag
// choice documents the contract.
package codec
