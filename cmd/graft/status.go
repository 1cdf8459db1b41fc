// Copyright 2026 The Graft Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"github.com/graftfs/graft/driver"
	"github.com/graftfs/graft/lib/codec"
	"github.com/graftfs/graft/state"
)

// statusCmd implements the "status" command.
func statusCmd(args []string, logger *slog.Logger) error {
	flagSet := pflag.NewFlagSet("status", pflag.ContinueOnError)
	stateDir := flagSet.String("state-dir", defaultStateDir(), "State directory to inspect")
	showSnapshot := flagSet.Bool("snapshot", false, "Print the instance's applied rule snapshot")
	diagnose := flagSet.Bool("diagnose", false, "Print the instance's raw record in CBOR diagnostic notation")

	flagSet.Usage = func() {
		fmt.Print(`graft status - Inspect saved session state

Without arguments, lists every instance with a saved record. With an
instance name, prints that instance's record: the parameters needed to
reconnect, and what was applied when. --snapshot adds the exact rules
the session sent to the engine.

USAGE
    graft status [flags] [instance]

FLAGS
`)
		flagSet.PrintDefaults()
	}

	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if flagSet.NArg() > 1 {
		return fmt.Errorf("at most one instance name is expected")
	}

	store, err := state.NewStore(*stateDir, nil)
	if err != nil {
		return err
	}

	if flagSet.NArg() == 0 {
		return listStatus(store)
	}
	return showStatus(store, flagSet.Arg(0), *showSnapshot, *diagnose)
}

func listStatus(store *state.Store) error {
	names, err := store.List()
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Fprintln(os.Stderr, "No saved session state.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Save some with: graft plan --save <manifest>")
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
	fmt.Fprintf(tw, "INSTANCE\tRULES\tFINGERPRINT\tAPPLIED\tSAVED\n")
	for _, name := range names {
		record, err := store.Load(name)
		if err != nil {
			fmt.Fprintf(tw, "%s\t(unreadable: %v)\t\t\t\n", name, err)
			continue
		}
		fmt.Fprintf(tw, "%s\t%dd %df\t%s\t%s\t%s\n",
			record.Instance,
			record.DirectoryRules, record.FileRules,
			record.Fingerprint.Short(),
			formatTime(record.AppliedAt),
			formatTime(record.SavedAt))
	}
	return tw.Flush()
}

func showStatus(store *state.Store, instance string, showSnapshot, diagnose bool) error {
	record, err := store.Load(instance)
	if err != nil {
		return err
	}

	fmt.Printf("Instance: %s\n", record.Instance)
	fmt.Printf("Debug engine: %v\n", record.Params.Debug)
	fmt.Printf("Engine log level: %v\n", record.Params.LogLevel)
	fmt.Printf("Crash dumps: %v", record.Params.DumpType)
	if record.Params.DumpPath != "" {
		fmt.Printf(" at %s", record.Params.DumpPath)
	}
	fmt.Println()
	fmt.Printf("Rules: %d directories, %d files\n", record.DirectoryRules, record.FileRules)
	fmt.Printf("Fingerprint: %s\n", record.Fingerprint)
	fmt.Printf("Applied: %s\n", formatTime(record.AppliedAt))
	fmt.Printf("Saved: %s\n", formatTime(record.SavedAt))

	if showSnapshot {
		snapshot, err := store.LoadSnapshot(instance)
		if err != nil {
			return err
		}
		fmt.Println()
		fmt.Printf("Snapshot taken: %s\n", formatTime(snapshot.TakenAt))
		tw := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
		fmt.Fprintf(tw, "TYPE\tREAL\tVIRTUAL\tFLAGS\n")
		for _, rule := range snapshot.Rules {
			kind := "file"
			if rule.Directory {
				kind = "directory"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%v\n", kind, rule.Real, rule.Virtual, driver.LinkFlags(rule.Flags))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if diagnose {
		raw, err := store.RawRecord(instance)
		if err != nil {
			return err
		}
		notation, err := codec.Diagnose(raw)
		if err != nil {
			return err
		}
		fmt.Println()
		fmt.Printf("Record CBOR: %s\n", notation)
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.UTC().Format(time.RFC3339)
}
