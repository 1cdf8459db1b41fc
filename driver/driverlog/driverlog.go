// Copyright 2026 The Graft Authors
// SPDX-License-Identifier: Apache-2.0

// Package driverlog wraps any driver.Driver with structured logging.
//
// The decorator emits one log record per driver call with the
// operation's arguments, its duration, and its error if any. Wrapped
// around a Loopback it turns a dry run into a readable trace of
// exactly what a real engine would have been told.
package driverlog

import (
	"log/slog"
	"time"

	"github.com/graftfs/graft/driver"
)

// Driver logs every call before forwarding its result.
type Driver struct {
	inner driver.Driver
	log   *slog.Logger
}

// New wraps inner. A nil logger uses slog's default.
func New(inner driver.Driver, logger *slog.Logger) *Driver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Driver{inner: inner, log: logger}
}

// emit writes the record for one completed call and passes the error
// through unchanged. Successes log at info, failures at error.
func (d *Driver) emit(op string, start time.Time, err error, args ...any) error {
	args = append(args, "duration", time.Since(start))
	if err != nil {
		args = append(args, "error", err)
		d.log.Error("driver "+op, args...)
		return err
	}
	d.log.Info("driver "+op, args...)
	return nil
}

func (d *Driver) InitLogging(debug bool) error {
	start := time.Now()
	err := d.inner.InitLogging(debug)
	return d.emit("init-logging", start, err, "debug", debug)
}

func (d *Driver) CreateSession(p driver.Params) error {
	start := time.Now()
	err := d.inner.CreateSession(p)
	return d.emit("create-session", start, err,
		"instance", p.Instance,
		"debug", p.Debug,
		"log_level", p.LogLevel,
		"dump_type", p.DumpType)
}

func (d *Driver) ConnectSession(p driver.Params) error {
	start := time.Now()
	err := d.inner.ConnectSession(p)
	return d.emit("connect-session", start, err, "instance", p.Instance)
}

func (d *Driver) DisconnectSession() error {
	start := time.Now()
	err := d.inner.DisconnectSession()
	return d.emit("disconnect-session", start, err)
}

func (d *Driver) CurrentSessionName() (string, error) {
	start := time.Now()
	name, err := d.inner.CurrentSessionName()
	d.emit("current-session-name", start, err, "name", name)
	return name, err
}

func (d *Driver) ClearRules() error {
	start := time.Now()
	err := d.inner.ClearRules()
	return d.emit("clear-rules", start, err)
}

func (d *Driver) LinkDirectory(real, virtual string, flags driver.LinkFlags) error {
	start := time.Now()
	err := d.inner.LinkDirectory(real, virtual, flags)
	return d.emit("link-directory", start, err,
		"real", real, "virtual", virtual, "flags", flags)
}

func (d *Driver) LinkFile(real, virtual string, flags driver.LinkFlags) error {
	start := time.Now()
	err := d.inner.LinkFile(real, virtual, flags)
	return d.emit("link-file", start, err,
		"real", real, "virtual", virtual, "flags", flags)
}

func (d *Driver) BlacklistExecutable(name string) error {
	start := time.Now()
	err := d.inner.BlacklistExecutable(name)
	return d.emit("blacklist-executable", start, err, "executable", name)
}

func (d *Driver) ClearBlacklist() error {
	start := time.Now()
	err := d.inner.ClearBlacklist()
	return d.emit("clear-blacklist", start, err)
}

func (d *Driver) ForceLoadLibrary(process, library string) error {
	start := time.Now()
	err := d.inner.ForceLoadLibrary(process, library)
	return d.emit("force-load-library", start, err,
		"process", process, "library", library)
}

func (d *Driver) ClearForceLoads() error {
	start := time.Now()
	err := d.inner.ClearForceLoads()
	return d.emit("clear-force-loads", start, err)
}

func (d *Driver) SpawnHookedProcess(commandLine, workingDir string) error {
	start := time.Now()
	err := d.inner.SpawnHookedProcess(commandLine, workingDir)
	return d.emit("spawn-hooked-process", start, err,
		"command_line", commandLine, "working_dir", workingDir)
}

func (d *Driver) ActiveProcessIDs() ([]uint32, error) {
	start := time.Now()
	pids, err := d.inner.ActiveProcessIDs()
	d.emit("active-process-ids", start, err, "count", len(pids))
	return pids, err
}
