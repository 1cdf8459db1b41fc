// Copyright 2026 The Graft Authors
// SPDX-License-Identifier: Apache-2.0

// Package drivertest provides a scriptable driver.Driver fake for
// exercising the session state machine without an engine.
//
// Every invocation is recorded, including failed ones, so tests can
// assert both what was called and in what order. Failures are
// scripted per operation with [Fake.FailOp], or per virtual path for
// link rules with [Fake.FailLink]. The reported instance name is
// controlled with [Fake.SetCurrent] and [Fake.SetDecoration].
package drivertest

import (
	"sync"

	"github.com/graftfs/graft/driver"
)

// Call records one driver invocation. Only the fields relevant to the
// operation are populated.
type Call struct {
	Op          string
	Real        string
	Virtual     string
	Flags       driver.LinkFlags
	Name        string // instance, executable, or process name
	Library     string
	CommandLine string
	WorkingDir  string
	Debug       bool
}

// Fake implements driver.Driver with scriptable failures.
//
// By default every operation succeeds. Successful CreateSession and
// ConnectSession calls set the reported current name to the instance
// name plus the configured decoration suffix, mimicking an engine
// that decorates names; DisconnectSession clears it.
type Fake struct {
	mu          sync.Mutex
	calls       []Call
	fail        map[string]error
	failVirtual map[string]error
	current     string
	decoration  string
	pids        []uint32
}

// New returns a Fake with no scripted failures.
func New() *Fake {
	return &Fake{
		fail:        make(map[string]error),
		failVirtual: make(map[string]error),
	}
}

// FailOp makes every subsequent call of the named operation return
// err. Operation names match the driver.Driver method names. A nil
// err removes the script.
func (f *Fake) FailOp(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.fail, op)
		return
	}
	f.fail[op] = err
}

// FailLink makes LinkDirectory and LinkFile fail for one specific
// virtual path, leaving other rules untouched.
func (f *Fake) FailLink(virtual string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.failVirtual, virtual)
		return
	}
	f.failVirtual[virtual] = err
}

// SetCurrent overrides the name CurrentSessionName reports, for
// simulating another controller taking over the connection.
func (f *Fake) SetCurrent(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = name
}

// SetDecoration sets the suffix appended to instance names reported
// after CreateSession and ConnectSession.
func (f *Fake) SetDecoration(suffix string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.decoration = suffix
}

// SetProcessIDs sets the result of ActiveProcessIDs.
func (f *Fake) SetProcessIDs(pids ...uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pids = pids
}

// Calls returns a copy of every recorded invocation.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// Ops returns the recorded operation names in call order.
func (f *Fake) Ops() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	ops := make([]string, len(f.calls))
	for i, c := range f.calls {
		ops[i] = c.Op
	}
	return ops
}

// CallsFor returns the recorded invocations of one operation.
func (f *Fake) CallsFor(op string) []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Call
	for _, c := range f.calls {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

func (f *Fake) InitLogging(debug bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Op: "InitLogging", Debug: debug})
	return f.fail["InitLogging"]
}

func (f *Fake) CreateSession(p driver.Params) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Op: "CreateSession", Name: p.Instance, Debug: p.Debug})
	if err := f.fail["CreateSession"]; err != nil {
		return err
	}
	f.current = p.Instance + f.decoration
	return nil
}

func (f *Fake) ConnectSession(p driver.Params) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Op: "ConnectSession", Name: p.Instance, Debug: p.Debug})
	if err := f.fail["ConnectSession"]; err != nil {
		return err
	}
	f.current = p.Instance + f.decoration
	return nil
}

func (f *Fake) DisconnectSession() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Op: "DisconnectSession"})
	if err := f.fail["DisconnectSession"]; err != nil {
		return err
	}
	f.current = ""
	return nil
}

func (f *Fake) CurrentSessionName() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Op: "CurrentSessionName"})
	if err := f.fail["CurrentSessionName"]; err != nil {
		return "", err
	}
	return f.current, nil
}

func (f *Fake) ClearRules() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Op: "ClearRules"})
	return f.fail["ClearRules"]
}

func (f *Fake) LinkDirectory(real, virtual string, flags driver.LinkFlags) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Op: "LinkDirectory", Real: real, Virtual: virtual, Flags: flags})
	if err := f.fail["LinkDirectory"]; err != nil {
		return err
	}
	return f.failVirtual[virtual]
}

func (f *Fake) LinkFile(real, virtual string, flags driver.LinkFlags) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Op: "LinkFile", Real: real, Virtual: virtual, Flags: flags})
	if err := f.fail["LinkFile"]; err != nil {
		return err
	}
	return f.failVirtual[virtual]
}

func (f *Fake) BlacklistExecutable(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Op: "BlacklistExecutable", Name: name})
	return f.fail["BlacklistExecutable"]
}

func (f *Fake) ClearBlacklist() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Op: "ClearBlacklist"})
	return f.fail["ClearBlacklist"]
}

func (f *Fake) ForceLoadLibrary(process, library string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Op: "ForceLoadLibrary", Name: process, Library: library})
	return f.fail["ForceLoadLibrary"]
}

func (f *Fake) ClearForceLoads() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Op: "ClearForceLoads"})
	return f.fail["ClearForceLoads"]
}

func (f *Fake) SpawnHookedProcess(commandLine, workingDir string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Op: "SpawnHookedProcess", CommandLine: commandLine, WorkingDir: workingDir})
	return f.fail["SpawnHookedProcess"]
}

func (f *Fake) ActiveProcessIDs() ([]uint32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Op: "ActiveProcessIDs"})
	if err := f.fail["ActiveProcessIDs"]; err != nil {
		return nil, err
	}
	return append([]uint32(nil), f.pids...), nil
}
