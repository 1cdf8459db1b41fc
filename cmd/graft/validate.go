// Copyright 2026 The Graft Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/graftfs/graft/manifest"
)

// validateCmd implements the "validate" command.
func validateCmd(args []string, logger *slog.Logger) error {
	flagSet := pflag.NewFlagSet("validate", pflag.ContinueOnError)
	compile := flagSet.Bool("compile", false, "Also expand variables and compile each manifest's rules")
	variablePairs := flagSet.StringArray("var", nil, "Variable override (KEY=VALUE), repeatable; used with --compile")

	flagSet.Usage = func() {
		fmt.Print(`graft validate - Check manifest files for structural problems

Loads each named file, or every manifest in each named directory,
then resolves all extends chains. With --compile, variables are
expanded and the rules compiled, which also catches unresolvable
${VAR} references and malformed paths.

USAGE
    graft validate [flags] <file-or-directory>...

FLAGS
`)
		flagSet.PrintDefaults()
	}

	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if flagSet.NArg() == 0 {
		return fmt.Errorf("at least one manifest file or directory is required")
	}

	overrides, err := parseVariables(*variablePairs)
	if err != nil {
		return err
	}

	loader := manifest.NewLoader(logger)
	for _, arg := range flagSet.Args() {
		info, err := os.Stat(arg)
		if err != nil {
			return err
		}
		if info.IsDir() {
			if err := loader.LoadDirectory(arg); err != nil {
				return err
			}
			continue
		}
		if _, err := loader.LoadFile(arg); err != nil {
			return err
		}
	}

	names := loader.List()
	if len(names) == 0 {
		return fmt.Errorf("no manifests found")
	}

	failures := 0
	for _, name := range names {
		resolved, err := loader.Resolve(name)
		if err != nil {
			fmt.Printf("fail  %s: %v\n", name, err)
			failures++
			continue
		}
		if *compile {
			mapping, err := resolved.Mapping(overrides)
			if err != nil {
				fmt.Printf("fail  %s: %v\n", name, err)
				failures++
				continue
			}
			fmt.Printf("ok    %s  %d directories, %d files  (%s)\n",
				name, mapping.DirectoryCount(), mapping.FileCount(), loader.Source(name))
			continue
		}
		fmt.Printf("ok    %s  %d links  (%s)\n", name, len(resolved.Links), loader.Source(name))
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d manifests failed validation", failures, len(names))
	}
	return nil
}
