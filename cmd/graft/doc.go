// Copyright 2026 The Graft Authors
// SPDX-License-Identifier: Apache-2.0

// Graft drives filesystem-redirection sessions from mapping manifests.
// It provides four subcommands: validate (check manifest files), show
// (print a manifest's resolved rules and fingerprint), plan (walk a
// manifest through a full session against the loopback engine), and
// status (inspect saved session state).
package main
