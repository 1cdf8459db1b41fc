// Copyright 2026 The Graft Authors
// SPDX-License-Identifier: Apache-2.0

package driverlog

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/graftfs/graft/driver"
	"github.com/graftfs/graft/driver/drivertest"
)

func TestForwardsAndLogs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	fake := drivertest.New()
	d := New(fake, logger)

	if err := d.InitLogging(true); err != nil {
		t.Fatalf("InitLogging: %v", err)
	}
	if err := d.CreateSession(driver.Params{Instance: "mods"}); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if err := d.LinkDirectory("/real", "/virt", driver.LinkRecursive); err != nil {
		t.Fatalf("LinkDirectory: %v", err)
	}

	// The inner driver saw every call.
	ops := fake.Ops()
	want := []string{"InitLogging", "CreateSession", "LinkDirectory"}
	if len(ops) != len(want) {
		t.Fatalf("inner ops = %v, want %v", ops, want)
	}
	for i := range want {
		if ops[i] != want[i] {
			t.Errorf("inner op[%d] = %q, want %q", i, ops[i], want[i])
		}
	}

	out := buf.String()
	for _, fragment := range []string{"driver create-session", "instance=mods", "driver link-directory", "virtual=/virt", "flags=recursive"} {
		if !strings.Contains(out, fragment) {
			t.Errorf("log output missing %q:\n%s", fragment, out)
		}
	}
}

func TestFailurePassthrough(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	fake := drivertest.New()
	boom := errors.New("segment missing")
	fake.FailOp("ClearRules", boom)

	d := New(fake, logger)
	if err := d.ClearRules(); !errors.Is(err, boom) {
		t.Fatalf("ClearRules = %v, want %v", err, boom)
	}
	if !strings.Contains(buf.String(), "level=ERROR") {
		t.Errorf("expected error-level log record, got:\n%s", buf.String())
	}
	if !strings.Contains(buf.String(), "segment missing") {
		t.Errorf("expected the driver error in the log, got:\n%s", buf.String())
	}
}

func TestNilLoggerUsesDefault(t *testing.T) {
	t.Parallel()

	d := New(drivertest.New(), nil)
	if err := d.InitLogging(false); err != nil {
		t.Fatalf("InitLogging: %v", err)
	}
}
