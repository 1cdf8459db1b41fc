// Copyright 2026 The Graft Authors
// SPDX-License-Identifier: Apache-2.0

package driver

import (
	"fmt"
	"unicode/utf8"
)

// MaxInstanceName is the longest instance name engines accept. The
// limit mirrors the fixed-size name buffer in the engine's shared
// parameter block.
const MaxInstanceName = 64

// LogLevel selects the verbosity of the engine's internal log. This
// is the engine's own logging, not the controller's; the two are
// configured independently.
type LogLevel uint8

const (
	LogOff LogLevel = iota
	LogError
	LogWarning
	LogInfo
	LogDebug
)

func (l LogLevel) String() string {
	switch l {
	case LogOff:
		return "off"
	case LogError:
		return "error"
	case LogWarning:
		return "warning"
	case LogInfo:
		return "info"
	case LogDebug:
		return "debug"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(l))
	}
}

// ParseLogLevel converts a level name as accepted on the command line
// into a LogLevel.
func ParseLogLevel(name string) (LogLevel, error) {
	switch name {
	case "off":
		return LogOff, nil
	case "error":
		return LogError, nil
	case "warning":
		return LogWarning, nil
	case "info":
		return LogInfo, nil
	case "debug":
		return LogDebug, nil
	default:
		return 0, fmt.Errorf("unknown log level %q (valid: off, error, warning, info, debug)", name)
	}
}

// MarshalText implements encoding.TextMarshaler so levels serialize
// as their names rather than raw integers.
func (l LogLevel) MarshalText() ([]byte, error) {
	if l > LogDebug {
		return nil, fmt.Errorf("invalid log level %d", uint8(l))
	}
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *LogLevel) UnmarshalText(text []byte) error {
	level, err := ParseLogLevel(string(text))
	if err != nil {
		return err
	}
	*l = level
	return nil
}

// DumpType selects the kind of crash dump the engine writes when a
// hooked process faults inside engine code.
type DumpType uint8

const (
	// DumpNone disables crash dumps.
	DumpNone DumpType = iota
	// DumpMini captures stacks and module lists only.
	DumpMini
	// DumpData additionally captures referenced data segments.
	DumpData
	// DumpFull captures the entire address space of the faulting
	// process. Dumps can be large.
	DumpFull
)

func (d DumpType) String() string {
	switch d {
	case DumpNone:
		return "none"
	case DumpMini:
		return "mini"
	case DumpData:
		return "data"
	case DumpFull:
		return "full"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(d))
	}
}

// ParseDumpType converts a dump kind name as accepted on the command
// line into a DumpType.
func ParseDumpType(name string) (DumpType, error) {
	switch name {
	case "none":
		return DumpNone, nil
	case "mini":
		return DumpMini, nil
	case "data":
		return DumpData, nil
	case "full":
		return DumpFull, nil
	default:
		return 0, fmt.Errorf("unknown dump type %q (valid: none, mini, data, full)", name)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (d DumpType) MarshalText() ([]byte, error) {
	if d > DumpFull {
		return nil, fmt.Errorf("invalid dump type %d", uint8(d))
	}
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *DumpType) UnmarshalText(text []byte) error {
	kind, err := ParseDumpType(string(text))
	if err != nil {
		return err
	}
	*d = kind
	return nil
}

// Params is the parameter block an engine consumes when creating an
// instance or connecting to an existing one. The same block must be
// used for both: engines key shared memory segments off these values.
type Params struct {
	// Instance is the engine-side name of the virtual filesystem
	// instance. Required, at most MaxInstanceName characters.
	Instance string `json:"instance"`

	// Debug asks the engine to start in debug mode. Debug mode is
	// the difference between "initialization failed" and an
	// actionable engine-side diagnosis, at the cost of noise.
	Debug bool `json:"debug,omitempty"`

	// LogLevel bounds the engine's internal logging.
	LogLevel LogLevel `json:"log_level"`

	// DumpType selects crash dump capture for hooked processes.
	DumpType DumpType `json:"dump_type"`

	// DumpPath is the directory the engine writes crash dumps to.
	// Ignored when DumpType is DumpNone.
	DumpPath string `json:"dump_path,omitempty"`
}

// Validate reports whether the block is one an engine will accept.
func (p Params) Validate() error {
	if p.Instance == "" {
		return fmt.Errorf("instance name is empty")
	}
	if n := utf8.RuneCountInString(p.Instance); n > MaxInstanceName {
		return fmt.Errorf("instance name is %d characters, maximum is %d", n, MaxInstanceName)
	}
	if p.LogLevel > LogDebug {
		return fmt.Errorf("invalid log level %d", uint8(p.LogLevel))
	}
	if p.DumpType > DumpFull {
		return fmt.Errorf("invalid dump type %d", uint8(p.DumpType))
	}
	return nil
}
