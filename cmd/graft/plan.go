// Copyright 2026 The Graft Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/graftfs/graft/driver"
	"github.com/graftfs/graft/driver/driverlog"
	"github.com/graftfs/graft/manifest"
	"github.com/graftfs/graft/state"
	"github.com/graftfs/graft/vfs"
)

// planCmd implements the "plan" command.
func planCmd(args []string, logger *slog.Logger) error {
	flagSet := pflag.NewFlagSet("plan", pflag.ContinueOnError)
	instanceName := flagSet.String("name", "", "Instance name (default: the manifest's name)")
	searchDirs := flagSet.StringArray("dir", nil, "Additional manifest search directory, repeatable")
	variablePairs := flagSet.StringArray("var", nil, "Variable override (KEY=VALUE), repeatable")
	debug := flagSet.Bool("debug", false, "Load the engine's debug build")
	logLevelName := flagSet.String("log-level", "error", "Engine log level: off, error, warning, info, or debug")
	dumpTypeName := flagSet.String("dump", "none", "Engine crash dumps: none, mini, data, or full")
	dumpPath := flagSet.String("dump-path", "", "Directory for engine crash dumps")
	runCommand := flagSet.String("run", "", "Command line to launch under the session")
	workingDir := flagSet.String("workdir", "", "Working directory for --run (default: current directory)")
	save := flagSet.Bool("save", false, "Save a session record and rule snapshot")
	stateDir := flagSet.String("state-dir", defaultStateDir(), "State directory for --save")

	flagSet.Usage = func() {
		fmt.Print(`graft plan - Walk a manifest through a session against the loopback engine

Compiles the manifest and drives a complete session over the in-process
loopback engine: create, apply every rule, optionally launch a process,
then close. Each driver call is logged, so the output is the exact call
sequence the real engine would receive.

USAGE
    graft plan [flags] <manifest-file-or-name>

FLAGS
`)
		flagSet.PrintDefaults()
	}

	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if flagSet.NArg() != 1 {
		return fmt.Errorf("exactly one manifest file or name is required")
	}

	overrides, err := parseVariables(*variablePairs)
	if err != nil {
		return err
	}
	logLevel, err := driver.ParseLogLevel(*logLevelName)
	if err != nil {
		return err
	}
	dumpType, err := driver.ParseDumpType(*dumpTypeName)
	if err != nil {
		return err
	}

	resolved, err := resolveTarget(logger, flagSet.Arg(0), *searchDirs)
	if err != nil {
		return err
	}
	mapping, err := resolved.Mapping(overrides)
	if err != nil {
		return err
	}
	fingerprint, err := state.MappingFingerprint(mapping)
	if err != nil {
		return err
	}

	name := *instanceName
	if name == "" {
		name = resolved.Name
	}

	return runPlan(logger, planConfig{
		manifest:    resolved,
		mapping:     mapping,
		fingerprint: fingerprint,
		name:        name,
		debug:       *debug,
		logLevel:    logLevel,
		dumpType:    dumpType,
		dumpPath:    *dumpPath,
		runCommand:  *runCommand,
		workingDir:  *workingDir,
		save:        *save,
		stateDir:    *stateDir,
	})
}

type planConfig struct {
	manifest    *manifest.Manifest
	mapping     *vfs.Mapping
	fingerprint state.Fingerprint
	name        string
	debug       bool
	logLevel    driver.LogLevel
	dumpType    driver.DumpType
	dumpPath    string
	runCommand  string
	workingDir  string
	save        bool
	stateDir    string
}

// runPlan drives the session. The loopback engine accepts everything
// a real engine would, so a clean run means the manifest produces a
// coherent call sequence; the driver log on stderr is that sequence.
func runPlan(logger *slog.Logger, cfg planConfig) error {
	drv := driverlog.New(driver.NewLoopback(), logger)
	session, err := vfs.New(vfs.NewRegistry(), drv, cfg.name,
		vfs.WithDebug(cfg.debug),
		vfs.WithLogLevel(cfg.logLevel),
		vfs.WithCrashDumps(cfg.dumpType, cfg.dumpPath),
	)
	if err != nil {
		return err
	}

	if err := session.Initialize(); err != nil {
		return err
	}
	defer func() {
		if err := session.Close(); err != nil {
			logger.Error("closing session", "error", err)
		}
	}()

	if err := session.ApplyMapping(cfg.mapping); err != nil {
		return err
	}

	if cfg.runCommand != "" {
		if err := session.RunProcess(cfg.runCommand, cfg.workingDir); err != nil {
			return err
		}
		pids, err := session.ActiveProcesses()
		if err != nil {
			return err
		}
		logger.Info("launched process", "command", cfg.runCommand, "active_pids", pids)
	}

	if cfg.save {
		if err := savePlanState(session, cfg); err != nil {
			return err
		}
	}

	fmt.Printf("plan ok: %s\n", cfg.name)
	fmt.Printf("  rules: %d directories, %d files\n", cfg.mapping.DirectoryCount(), cfg.mapping.FileCount())
	fmt.Printf("  fingerprint: %s\n", cfg.fingerprint.Short())
	if cfg.save {
		fmt.Printf("  state: %s\n", cfg.stateDir)
	}
	return nil
}

func savePlanState(session *vfs.Session, cfg planConfig) error {
	store, err := state.NewStore(cfg.stateDir, nil)
	if err != nil {
		return err
	}
	record, err := state.NewRecord(session.Params(), cfg.mapping, session.AppliedAt())
	if err != nil {
		return err
	}
	if err := store.Save(&record); err != nil {
		return err
	}
	snapshot, err := state.NewSnapshot(cfg.name, cfg.mapping)
	if err != nil {
		return err
	}
	return store.SaveSnapshot(snapshot, state.CompressionLZ4)
}
