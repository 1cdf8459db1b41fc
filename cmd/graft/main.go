// Copyright 2026 The Graft Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/graftfs/graft/lib/version"
	"github.com/graftfs/graft/manifest"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// Set up logging. GRAFT_LOG takes a slog level name; the plan
	// command's driver trace rides on Info.
	logLevel := slog.LevelInfo
	if name := os.Getenv("GRAFT_LOG"); name != "" {
		if err := logLevel.UnmarshalText([]byte(name)); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: ignoring GRAFT_LOG=%q: %v\n", name, err)
			logLevel = slog.LevelInfo
		}
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "validate":
		err = validateCmd(args, logger)
	case "show":
		err = showCmd(args, logger)
	case "plan":
		err = planCmd(args, logger)
	case "status":
		err = statusCmd(args, logger)
	case "version", "--version", "-v":
		fmt.Printf("graft %s\n", version.Info())
		return
	case "help", "--help", "-h":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`graft - drive filesystem-redirection sessions from mapping manifests

USAGE
    graft <command> [flags] [args...]

COMMANDS
    validate  Check manifest files for structural problems
    show      Print a manifest's resolved rules and fingerprint
    plan      Walk a manifest through a session against the loopback engine
    status    Inspect saved session state
    version   Show version

EXAMPLES
    # Check every manifest in a profile directory
    graft validate profiles/

    # Print what a manifest resolves to, variables expanded
    graft show --var PROFILE=hardcore profiles/skyrim-modded.yaml

    # Trace the driver calls a manifest would produce
    graft plan --name mods profiles/skyrim-modded.yaml

    # List sessions with saved state
    graft status

ENVIRONMENT
    GRAFT_LOG  Log level: debug, info, warn, or error (default info)
`)
}

// defaultStateDir is where plan and status keep session records when
// --state-dir is not given.
func defaultStateDir() string {
	cache, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "graft")
	}
	return filepath.Join(cache, "graft")
}

// manifestExtensions are the file extensions the loader understands.
var manifestExtensions = []string{".yaml", ".yml", ".json", ".jsonc"}

func isManifestPath(arg string) bool {
	extension := strings.ToLower(filepath.Ext(arg))
	for _, known := range manifestExtensions {
		if extension == known {
			return true
		}
	}
	return false
}

// resolveTarget loads and resolves the manifest named by target.
// A target with a manifest extension is treated as a file: its
// directory is loaded so extends references to sibling manifests
// resolve. Anything else is treated as a manifest name looked up in
// searchDirs.
func resolveTarget(logger *slog.Logger, target string, searchDirs []string) (*manifest.Manifest, error) {
	loader := manifest.NewLoader(logger)

	name := target
	if isManifestPath(target) {
		loaded, err := loader.LoadFile(target)
		if err != nil {
			return nil, err
		}
		name = loaded.Name
		searchDirs = append([]string{filepath.Dir(target)}, searchDirs...)
	}

	for _, dir := range searchDirs {
		if err := loader.LoadDirectory(dir); err != nil {
			return nil, err
		}
	}
	return loader.Resolve(name)
}

// parseVariables turns repeated KEY=VALUE flags into a map.
func parseVariables(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	variables := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid variable %q: must be KEY=VALUE", pair)
		}
		variables[key] = value
	}
	return variables, nil
}
