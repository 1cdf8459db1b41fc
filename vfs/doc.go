// Copyright 2026 The Graft Authors
// SPDX-License-Identifier: Apache-2.0

// Package vfs is graft's session control plane for redirection-based
// virtual filesystems.
//
// A redirection engine presents hooked processes with a merged view
// of the filesystem: real paths shine through virtual locations
// without any file being copied or moved. This package owns
// everything on the controller's side of that arrangement. It does
// not hook processes or intercept filesystem calls; the engine behind
// the driver.Driver boundary does that.
//
// The pieces compose in one direction:
//
//   - [FileLink] and [DirectoryLink] are single redirection rules.
//     Construction canonicalizes both paths to absolute form and
//     fixes the file-versus-directory variant forever.
//   - [Mapping] is an ordered collection of rules, partitioned by
//     variant. Directory rules always reach the engine before file
//     rules so the tree exists before single-file overrides land.
//   - [Registry] reserves instance names so two live sessions in one
//     controller can never collide on the engine.
//   - [Session] drives one named engine instance through its
//     lifecycle: construct, [Session.Initialize], apply mappings, run
//     hooked processes, [Session.Close].
//
// A typical run:
//
//	reg := vfs.NewRegistry()
//	sess, err := vfs.New(reg, drv, "mods", vfs.WithDebug(true))
//	if err != nil { ... }
//	if err := sess.Initialize(); err != nil { ... }
//	defer sess.Close()
//
//	m := vfs.NewMapping()
//	rule, err := vfs.NewDirectoryLink("./mods/texture-pack", gameDir, 0)
//	if err != nil { ... }
//	if err := m.Link(rule); err != nil { ... }
//	if err := sess.ApplyMapping(m); err != nil { ... }
//	if err := sess.RunProcess("game.exe", ""); err != nil { ... }
//
// Sessions hold the engine's single active connection per controller
// process. When another session (or another controller) takes the
// connection over, the next operation on this session reconnects once
// and fails with [ErrConnectionFailed] if the engine refuses.
//
// [Session] is not safe for concurrent use; callers sharing one
// across goroutines must serialize access. [Registry] is safe for
// concurrent use.
//
// Failures are classified by sentinel: every error returned from this
// package matches exactly one of the Err variables in errors.go under
// errors.Is. Rule rejections additionally carry the offending rule as
// a [*LinkError] reachable through errors.As.
package vfs
