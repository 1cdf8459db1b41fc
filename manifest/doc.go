// Copyright 2026 The Graft Authors
// SPDX-License-Identifier: Apache-2.0

// Package manifest provides parsing, validation, inheritance, and
// variable expansion for graft mapping manifests. A manifest is a
// declarative description of a rule set: which real paths appear
// where in the virtual tree, and with which link flags.
//
// Manifests are authored as YAML or as JSONC (JSON extended with
// comments and trailing commas). This package handles both formats,
// chosen by file extension.
//
// The typical flow:
//
//  1. Loader.LoadFile or Loader.LoadDirectory: files → [Manifest] values
//  2. Loader.Resolve: follow extends chains, merging parent links and
//     variables into a flat manifest
//  3. Manifest.Mapping: expand ${VAR} references and compile the link
//     specs into a [vfs.Mapping] ready for a session
//
// Inheritance is single-parent. A child's links are appended after
// its parent's, so on overlapping virtual paths the child's rules
// reach the engine later and win. A child's variables override its
// parent's entry by entry.
package manifest
