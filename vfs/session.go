// Copyright 2026 The Graft Authors
// SPDX-License-Identifier: Apache-2.0

package vfs

import (
	"fmt"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/graftfs/graft/driver"
	"github.com/graftfs/graft/lib/clock"
)

// State identifies where a session is in its lifecycle.
type State int

const (
	// StateConstructed: the name is reserved and the parameter block
	// assembled, but no engine instance exists yet.
	StateConstructed State = iota

	// StateInitialized: the engine instance exists and carries no
	// applied mapping.
	StateInitialized

	// StateMappingApplied: a mapping has been applied and not yet
	// cleared.
	StateMappingApplied

	// StateClosed: the session is torn down and its name released.
	// Terminal; a closed session never comes back.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConstructed:
		return "constructed"
	case StateInitialized:
		return "initialized"
	case StateMappingApplied:
		return "mapping-applied"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Session drives one named engine instance through its lifecycle:
//
//	construct -> Initialize -> ApplyMapping <-> ClearMapping -> Close
//
// Construction reserves the instance name; Initialize creates the
// engine-side instance; Close tears it down and releases the name.
// Every operation between Initialize and Close first makes sure this
// session holds the engine's single active connection, reconnecting
// once if another controller took it over.
//
// A Session is not safe for concurrent use. Engine connections are
// process-global and operations are coarse administrative actions;
// callers sharing a session across goroutines must serialize access.
type Session struct {
	registry  *Registry
	drv       driver.Driver
	clk       clock.Clock
	params    driver.Params
	state     State
	appliedAt time.Time
}

// Option adjusts a session at construction time.
type Option func(*Session)

// WithDebug starts the engine instance in debug mode. Debug mode is
// what turns a bare initialization failure into an actionable
// engine-side diagnosis, at the cost of log noise.
func WithDebug(on bool) Option {
	return func(s *Session) { s.params.Debug = on }
}

// WithLogLevel bounds the engine's internal logging. The default is
// driver.LogError.
func WithLogLevel(level driver.LogLevel) Option {
	return func(s *Session) { s.params.LogLevel = level }
}

// WithCrashDumps makes the engine write crash dumps of the given kind
// to dir when a hooked process faults.
func WithCrashDumps(kind driver.DumpType, dir string) Option {
	return func(s *Session) {
		s.params.DumpType = kind
		s.params.DumpPath = dir
	}
}

// WithClock substitutes the clock used to stamp mapping applications.
// Tests use this to make AppliedAt deterministic.
func WithClock(clk clock.Clock) Option {
	return func(s *Session) {
		if clk != nil {
			s.clk = clk
		}
	}
}

// New constructs a session for the named instance and reserves the
// name in reg. The name must be nonempty and at most
// driver.MaxInstanceName characters (ErrInvalidName) and must not be
// held by a live session (ErrNameConflict). The reservation is taken
// last, after all validation, so a failed construction never leaks
// one.
//
// The reservation lives until Close. A session that is constructed
// but never initialized cannot be closed and holds its name for the
// life of the process.
func New(reg *Registry, drv driver.Driver, name string, opts ...Option) (*Session, error) {
	if reg == nil {
		return nil, fmt.Errorf("%w: nil registry", ErrInvalidArgument)
	}
	if drv == nil {
		return nil, fmt.Errorf("%w: nil driver", ErrInvalidArgument)
	}
	if name == "" {
		return nil, fmt.Errorf("%w: name is empty", ErrInvalidName)
	}
	if n := utf8.RuneCountInString(name); n > driver.MaxInstanceName {
		return nil, fmt.Errorf("%w: %q is %d characters, maximum is %d", ErrInvalidName, name, n, driver.MaxInstanceName)
	}

	s := &Session{
		registry: reg,
		drv:      drv,
		clk:      clock.Real(),
		params: driver.Params{
			Instance: name,
			LogLevel: driver.LogError,
			DumpType: driver.DumpNone,
		},
		state: StateConstructed,
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := reg.Reserve(name); err != nil {
		return nil, err
	}
	return s, nil
}

// Name returns the reserved instance name.
func (s *Session) Name() string { return s.params.Instance }

// Params returns a copy of the parameter block the engine instance is
// created and reconnected with.
func (s *Session) Params() driver.Params { return s.params }

// State returns the session's current lifecycle state.
func (s *Session) State() State { return s.state }

// AppliedAt returns when the current mapping was applied, in UTC. It
// is zero unless the session is in StateMappingApplied.
func (s *Session) AppliedAt() time.Time { return s.appliedAt }

// initialized reports whether an engine instance exists for this
// session.
func (s *Session) initialized() bool {
	return s.state == StateInitialized || s.state == StateMappingApplied
}

// Initialize creates the engine-side instance. Engine logging is
// configured first: a creation failure with logging dark is
// undiagnosable.
//
// Initialize is valid exactly once. On failure the session stays in
// StateConstructed and Initialize may be retried, for example after
// fixing the engine deployment.
func (s *Session) Initialize() error {
	if s.state != StateConstructed {
		return fmt.Errorf("%w: state is %v", ErrAlreadyInitialized, s.state)
	}
	if err := s.drv.InitLogging(s.params.Debug); err != nil {
		return fmt.Errorf("initialize engine logging: %w", err)
	}
	if err := s.drv.CreateSession(s.params); err != nil {
		return fmt.Errorf("%w: %q: %w (run with debug mode for engine diagnostics)", ErrInitializationFailed, s.params.Instance, err)
	}
	s.state = StateInitialized
	return nil
}

// IsActive reports whether this session holds the engine's current
// active connection. A session with no engine instance is never
// active and the driver is not consulted. Names are compared by
// prefix because engines may decorate the name they report.
//
// False for an initialized session means another controller has taken
// the connection; the next mutating operation will reconnect.
func (s *Session) IsActive() (bool, error) {
	if !s.initialized() {
		return false, nil
	}
	current, err := s.drv.CurrentSessionName()
	if err != nil {
		return false, fmt.Errorf("query current instance name: %w", err)
	}
	return strings.HasPrefix(current, s.params.Instance), nil
}

// ensureActive is the precondition for every operation that talks to
// the engine: the session must be initialized and must hold the
// active connection. When it does not, exactly one reconnect with the
// construction-time parameter block is attempted; failure surfaces as
// ErrConnectionFailed with no second try.
func (s *Session) ensureActive() error {
	if !s.initialized() {
		return fmt.Errorf("%w: state is %v", ErrNotInitialized, s.state)
	}
	active, err := s.IsActive()
	if err != nil {
		return err
	}
	if active {
		return nil
	}
	if err := s.drv.ConnectSession(s.params); err != nil {
		return fmt.Errorf("%w: %q: %w", ErrConnectionFailed, s.params.Instance, err)
	}
	return nil
}

// ApplyMapping replaces the engine's rule set with m. The engine is
// cleared first, then every directory rule is sent, then every file
// rule, each partition in insertion order.
//
// The first rule the engine rejects aborts the apply with a
// *LinkError identifying it. Rules sent before the rejection remain
// in effect; there is no rollback. A caller that needs a consistent
// view after a failed apply re-applies a known-good mapping or clears.
func (s *Session) ApplyMapping(m *Mapping) error {
	if m == nil {
		return fmt.Errorf("%w: nil mapping", ErrInvalidArgument)
	}
	if err := s.ensureActive(); err != nil {
		return err
	}
	if err := s.drv.ClearRules(); err != nil {
		return fmt.Errorf("clear rules on %q: %w", s.params.Instance, err)
	}
	for rule := range m.Directories() {
		if err := s.drv.LinkDirectory(rule.RealPath(), rule.VirtualPath(), rule.Flags()); err != nil {
			return &LinkError{
				Real:      rule.RealPath(),
				Virtual:   rule.VirtualPath(),
				Flags:     rule.Flags(),
				Directory: true,
				Err:       err,
			}
		}
	}
	for rule := range m.Files() {
		if err := s.drv.LinkFile(rule.RealPath(), rule.VirtualPath(), rule.Flags()); err != nil {
			return &LinkError{
				Real:    rule.RealPath(),
				Virtual: rule.VirtualPath(),
				Flags:   rule.Flags(),
				Err:     err,
			}
		}
	}
	s.state = StateMappingApplied
	s.appliedAt = s.clk.Now().UTC()
	return nil
}

// ClearMapping removes every rule from the engine and returns the
// session to StateInitialized. Clearing a session with no applied
// mapping is valid and clears anyway.
func (s *Session) ClearMapping() error {
	if err := s.ensureActive(); err != nil {
		return err
	}
	if err := s.drv.ClearRules(); err != nil {
		return fmt.Errorf("clear rules on %q: %w", s.params.Instance, err)
	}
	s.state = StateInitialized
	s.appliedAt = time.Time{}
	return nil
}

// BlacklistExecutable excludes an executable name from hooking:
// matching binaries launched under this instance run without
// redirection. The name is forwarded verbatim; the engine keeps the
// list and judges matches.
func (s *Session) BlacklistExecutable(name string) error {
	if err := s.ensureActive(); err != nil {
		return err
	}
	if err := s.drv.BlacklistExecutable(name); err != nil {
		return fmt.Errorf("blacklist %q on %q: %w", name, s.params.Instance, err)
	}
	return nil
}

// ClearBlacklist removes every blacklist entry from the engine.
func (s *Session) ClearBlacklist() error {
	if err := s.ensureActive(); err != nil {
		return err
	}
	if err := s.drv.ClearBlacklist(); err != nil {
		return fmt.Errorf("clear blacklist on %q: %w", s.params.Instance, err)
	}
	return nil
}

// ForceLoadLibrary makes the engine load library into every hooked
// process whose executable matches process. The library path is
// canonicalized before forwarding; the process name is forwarded
// verbatim.
func (s *Session) ForceLoadLibrary(process, library string) error {
	lib, err := canonicalPath(library)
	if err != nil {
		return fmt.Errorf("library path: %w", err)
	}
	if err := s.ensureActive(); err != nil {
		return err
	}
	if err := s.drv.ForceLoadLibrary(process, lib); err != nil {
		return fmt.Errorf("force-load %q for %q on %q: %w", lib, process, s.params.Instance, err)
	}
	return nil
}

// ClearForceLoads removes every force-load registration from the
// engine.
func (s *Session) ClearForceLoads() error {
	if err := s.ensureActive(); err != nil {
		return err
	}
	if err := s.drv.ClearForceLoads(); err != nil {
		return fmt.Errorf("clear force-loads on %q: %w", s.params.Instance, err)
	}
	return nil
}

// RunProcess launches commandLine under this instance with the
// engine's hooks installed, so the process observes the virtual view.
// An empty workingDir means the controller's current directory at
// call time; either way the directory is canonicalized before
// forwarding. The engine's refusal to spawn surfaces as
// ErrProcessLaunchFailed.
//
// The call returns when the process is launched, not when it exits.
// Track it through ActiveProcesses.
func (s *Session) RunProcess(commandLine, workingDir string) error {
	if workingDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("%w: current directory: %v", ErrInvalidPath, err)
		}
		workingDir = wd
	}
	dir, err := canonicalPath(workingDir)
	if err != nil {
		return fmt.Errorf("working directory: %w", err)
	}
	if err := s.ensureActive(); err != nil {
		return err
	}
	if err := s.drv.SpawnHookedProcess(commandLine, dir); err != nil {
		return fmt.Errorf("%w: %q in %q: %w", ErrProcessLaunchFailed, commandLine, dir, err)
	}
	return nil
}

// ActiveProcesses returns the identifiers of processes currently
// running hooked under this instance, including processes they
// spawned themselves.
func (s *Session) ActiveProcesses() ([]uint32, error) {
	if err := s.ensureActive(); err != nil {
		return nil, err
	}
	pids, err := s.drv.ActiveProcessIDs()
	if err != nil {
		return nil, fmt.Errorf("list processes on %q: %w", s.params.Instance, err)
	}
	return pids, nil
}

// Close disconnects from the engine instance, releases the name for
// reuse, and moves the session to its terminal StateClosed. There is
// no finalizer; every initialized session must be closed on every
// exit path, or the engine connection leaks with the process.
//
// Only an initialized session can close (ErrNotInitialized
// otherwise), and it closes exactly once. The state transition and
// the name release happen even when the engine's disconnect fails;
// the failure is still reported.
func (s *Session) Close() error {
	if !s.initialized() {
		return fmt.Errorf("%w: state is %v", ErrNotInitialized, s.state)
	}
	err := s.drv.DisconnectSession()
	s.state = StateClosed
	s.registry.Release(s.params.Instance)
	if err != nil {
		return fmt.Errorf("disconnect %q: %w", s.params.Instance, err)
	}
	return nil
}
