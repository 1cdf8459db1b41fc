// Copyright 2026 The Graft Authors
// SPDX-License-Identifier: Apache-2.0

package driver

import (
	"fmt"
	"path/filepath"
	"sync"
)

// Loopback is a process-local engine stand-in. It accepts the full
// Driver surface, enforces the same call-ordering rules a real engine
// does, and records everything it is told instead of redirecting
// anything. Dry runs and hosts without an engine installed use it as
// the backing driver.
//
// Instances survive disconnection so their recorded state can be
// inspected after a session is closed.
type Loopback struct {
	mu        sync.Mutex
	logReady  bool
	debug     bool
	current   string
	instances map[string]*loopbackInstance
	nextPID   uint32
}

// LoopbackRule is one recorded link rule.
type LoopbackRule struct {
	Real    string
	Virtual string
	Flags   LinkFlags
}

// LoopbackForceLoad is one recorded force-load registration.
type LoopbackForceLoad struct {
	Process string
	Library string
}

type loopbackInstance struct {
	params     Params
	dirs       []LoopbackRule
	files      []LoopbackRule
	blacklist  []string
	forceLoads []LoopbackForceLoad
	pids       []uint32
}

// NewLoopback returns an empty stand-in engine.
func NewLoopback() *Loopback {
	return &Loopback{
		instances: make(map[string]*loopbackInstance),
		nextPID:   1000,
	}
}

func (l *Loopback) InitLogging(debug bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logReady = true
	l.debug = debug
	return nil
}

func (l *Loopback) CreateSession(p Params) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.logReady {
		return fmt.Errorf("logging is not initialized")
	}
	if err := p.Validate(); err != nil {
		return err
	}
	if _, exists := l.instances[p.Instance]; exists {
		return fmt.Errorf("instance %q already exists", p.Instance)
	}
	l.instances[p.Instance] = &loopbackInstance{params: p}
	l.current = p.Instance
	return nil
}

func (l *Loopback) ConnectSession(p Params) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := p.Validate(); err != nil {
		return err
	}
	if _, exists := l.instances[p.Instance]; !exists {
		return fmt.Errorf("no such instance %q", p.Instance)
	}
	l.current = p.Instance
	return nil
}

func (l *Loopback) DisconnectSession() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.current == "" {
		return fmt.Errorf("no active connection")
	}
	l.current = ""
	return nil
}

func (l *Loopback) CurrentSessionName() (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current, nil
}

func (l *Loopback) ClearRules() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	inst, err := l.active()
	if err != nil {
		return err
	}
	inst.dirs = nil
	inst.files = nil
	return nil
}

func (l *Loopback) LinkDirectory(real, virtual string, flags LinkFlags) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	inst, err := l.active()
	if err != nil {
		return err
	}
	inst.dirs = append(inst.dirs, LoopbackRule{Real: real, Virtual: virtual, Flags: flags})
	return nil
}

func (l *Loopback) LinkFile(real, virtual string, flags LinkFlags) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	inst, err := l.active()
	if err != nil {
		return err
	}
	if bad := flags & DirectoryOnly; bad != 0 {
		return fmt.Errorf("file rule carries directory-only flags %v", bad)
	}
	inst.files = append(inst.files, LoopbackRule{Real: real, Virtual: virtual, Flags: flags})
	return nil
}

func (l *Loopback) BlacklistExecutable(name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	inst, err := l.active()
	if err != nil {
		return err
	}
	if name == "" {
		return fmt.Errorf("empty executable name")
	}
	inst.blacklist = append(inst.blacklist, name)
	return nil
}

func (l *Loopback) ClearBlacklist() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	inst, err := l.active()
	if err != nil {
		return err
	}
	inst.blacklist = nil
	return nil
}

func (l *Loopback) ForceLoadLibrary(process, library string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	inst, err := l.active()
	if err != nil {
		return err
	}
	if process == "" || library == "" {
		return fmt.Errorf("force-load requires a process name and a library path")
	}
	inst.forceLoads = append(inst.forceLoads, LoopbackForceLoad{Process: process, Library: library})
	return nil
}

func (l *Loopback) ClearForceLoads() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	inst, err := l.active()
	if err != nil {
		return err
	}
	inst.forceLoads = nil
	return nil
}

func (l *Loopback) SpawnHookedProcess(commandLine, workingDir string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	inst, err := l.active()
	if err != nil {
		return err
	}
	if commandLine == "" {
		return fmt.Errorf("empty command line")
	}
	if !filepath.IsAbs(workingDir) {
		return fmt.Errorf("working directory %q is not absolute", workingDir)
	}
	l.nextPID++
	inst.pids = append(inst.pids, l.nextPID)
	return nil
}

func (l *Loopback) ActiveProcessIDs() ([]uint32, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	inst, err := l.active()
	if err != nil {
		return nil, err
	}
	pids := make([]uint32, len(inst.pids))
	copy(pids, inst.pids)
	return pids, nil
}

// active returns the instance behind the current connection. Callers
// hold l.mu.
func (l *Loopback) active() (*loopbackInstance, error) {
	if l.current == "" {
		return nil, fmt.Errorf("no active connection")
	}
	inst, ok := l.instances[l.current]
	if !ok {
		return nil, fmt.Errorf("active instance %q is gone", l.current)
	}
	return inst, nil
}

// Exists reports whether an instance with the given name has been
// created.
func (l *Loopback) Exists(name string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.instances[name]
	return ok
}

// Rules returns copies of an instance's recorded directory and file
// rules, in the order they were linked.
func (l *Loopback) Rules(name string) (dirs, files []LoopbackRule, ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	inst, found := l.instances[name]
	if !found {
		return nil, nil, false
	}
	dirs = append(dirs, inst.dirs...)
	files = append(files, inst.files...)
	return dirs, files, true
}

// Blacklist returns a copy of an instance's executable blacklist.
func (l *Loopback) Blacklist(name string) ([]string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	inst, found := l.instances[name]
	if !found {
		return nil, false
	}
	return append([]string(nil), inst.blacklist...), true
}

// ForceLoads returns a copy of an instance's force-load registrations.
func (l *Loopback) ForceLoads(name string) ([]LoopbackForceLoad, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	inst, found := l.instances[name]
	if !found {
		return nil, false
	}
	return append([]LoopbackForceLoad(nil), inst.forceLoads...), true
}

// DebugLogging reports the debug flag from the last InitLogging call.
func (l *Loopback) DebugLogging() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.debug
}
