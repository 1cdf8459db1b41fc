// Copyright 2026 The Graft Authors
// SPDX-License-Identifier: Apache-2.0

// Package driver defines the command boundary between graft's session
// control plane and a path-redirection engine.
//
// A redirection engine maintains named virtual filesystem instances:
// in-memory overlays that make hooked processes observe a merged view
// of real and virtual paths without any data ever touching the disk.
// The engine itself lives outside this process (typically a shared
// library injected into hooked process trees), so every method on
// [Driver] is a command or query forwarded across that boundary.
//
// The interface is deliberately narrow and synchronous. Engines
// expose blocking administrative calls with no cancellation surface,
// so methods return plain errors and take no context. Higher layers
// (the vfs package) own sequencing, state tracking, and error
// classification; implementations of [Driver] only translate calls.
//
// Two implementations ship with graft:
//
//   - [Loopback]: a process-local engine stand-in that records the
//     commands it receives. It backs dry runs and lets the control
//     plane be exercised end to end on hosts with no engine installed.
//   - driverlog.Driver: a decorator that logs every call, wrapping
//     any other implementation.
//
// The drivertest package holds a scriptable fake for tests.
//
// [Params] is the parameter block engines consume when creating or
// connecting to an instance. Its zero value is not useful: instance
// names are mandatory, bounded by [MaxInstanceName], and engines
// reject blocks that fail [Params.Validate].
package driver
