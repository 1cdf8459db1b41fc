// Copyright 2026 The Graft Authors
// SPDX-License-Identifier: Apache-2.0

package driver

// Driver is the set of commands a path-redirection engine accepts.
//
// Engines hold exactly one active connection per controller process;
// the vfs package tracks which session owns it and reconnects when
// ownership has moved. Implementations translate calls, nothing more:
// they must not reorder, retry, or suppress engine errors.
type Driver interface {
	// InitLogging configures the engine's log capture. Engines
	// require this before the first CreateSession; calling it again
	// later is harmless.
	InitLogging(debug bool) error

	// CreateSession creates a new named instance from the parameter
	// block and makes it this process's active connection.
	CreateSession(p Params) error

	// ConnectSession attaches to an instance that already exists,
	// making it the active connection. The block must carry the same
	// values the instance was created with.
	ConnectSession(p Params) error

	// DisconnectSession detaches from the active connection. The
	// instance itself lives on until its last participant is gone.
	DisconnectSession() error

	// CurrentSessionName returns the engine's name for the active
	// connection. Engines may decorate the name the instance was
	// created under, so callers compare by prefix, not equality.
	CurrentSessionName() (string, error)

	// ClearRules removes every link rule from the active instance.
	ClearRules() error

	// LinkDirectory adds a rule redirecting the real directory to
	// the virtual path.
	LinkDirectory(real, virtual string, flags LinkFlags) error

	// LinkFile adds a rule redirecting the real file to the virtual
	// path. Directory-only flag bits are an error.
	LinkFile(real, virtual string, flags LinkFlags) error

	// BlacklistExecutable excludes an executable name from hooking:
	// matching binaries launched under the instance run unhooked.
	BlacklistExecutable(name string) error

	// ClearBlacklist removes every blacklist entry.
	ClearBlacklist() error

	// ForceLoadLibrary makes the engine load library into each hooked
	// process whose executable matches process.
	ForceLoadLibrary(process, library string) error

	// ClearForceLoads removes every force-load registration.
	ClearForceLoads() error

	// SpawnHookedProcess launches commandLine in workingDir with the
	// engine's hooks installed, so the process observes the active
	// instance's virtual view.
	SpawnHookedProcess(commandLine, workingDir string) error

	// ActiveProcessIDs returns the identifiers of processes currently
	// running under the active instance.
	ActiveProcessIDs() ([]uint32, error)
}
