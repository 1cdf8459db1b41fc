// Copyright 2026 The Graft Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/graftfs/graft/state"
)

// showCmd implements the "show" command.
func showCmd(args []string, logger *slog.Logger) error {
	flagSet := pflag.NewFlagSet("show", pflag.ContinueOnError)
	searchDirs := flagSet.StringArray("dir", nil, "Additional manifest search directory, repeatable")
	variablePairs := flagSet.StringArray("var", nil, "Variable override (KEY=VALUE), repeatable")

	flagSet.Usage = func() {
		fmt.Print(`graft show - Print a manifest's resolved rules and fingerprint

Resolves the manifest's extends chain, expands its variables, and
prints the rules in the order a session would apply them: all
directories first, then all files. The fingerprint identifies this
exact rule set; two manifests with the same fingerprint apply
identical rules.

USAGE
    graft show [flags] <manifest-file-or-name>

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

	fmt.Printf("Manifest: %s\n", resolved.Name)
	if resolved.Description != "" {
		fmt.Printf("Description: %s\n", resolved.Description)
	}
	fmt.Printf("Fingerprint: %s\n", fingerprint)
	fmt.Printf("Rules: %d directories, %d files\n", mapping.DirectoryCount(), mapping.FileCount())
	fmt.Println()

	tw := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
	fmt.Fprintf(tw, "TYPE\tREAL\tVIRTUAL\tFLAGS\n")
	for rule := range mapping.Directories() {
		fmt.Fprintf(tw, "directory\t%s\t%s\t%v\n", rule.RealPath(), rule.VirtualPath(), rule.Flags())
	}
	for rule := range mapping.Files() {
		fmt.Fprintf(tw, "file\t%s\t%s\t%v\n", rule.RealPath(), rule.VirtualPath(), rule.Flags())
	}
	return tw.Flush()
}
