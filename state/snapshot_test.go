// Copyright 2026 The Graft Authors
// SPDX-License-Identifier: Apache-2.0

package state

import (
	"encoding/binary"
	"fmt"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/graftfs/graft/vfs"
)

// compressibleMapping builds a mapping large and repetitive enough
// that every compression algorithm shrinks it.
func compressibleMapping(t *testing.T) *vfs.Mapping {
	t.Helper()
	m := vfs.NewMapping()
	for i := range 100 {
		rule := mustDirectoryLink(t,
			fmt.Sprintf("/real/profiles/default/mods/mod-%03d", i),
			fmt.Sprintf("/game/data/textures/mod-%03d", i),
		)
		if err := m.Link(rule); err != nil {
			t.Fatalf("Link: %v", err)
		}
	}
	for i := range 50 {
		rule := mustFileLink(t,
			fmt.Sprintf("/real/profiles/default/ini/plugin-%03d.ini", i),
			fmt.Sprintf("/game/data/plugin-%03d.ini", i),
		)
		if err := m.Link(rule); err != nil {
			t.Fatalf("Link: %v", err)
		}
	}
	return m
}

func TestSnapshotEncodeDecodeRoundTrip(t *testing.T) {
	t.Parallel()

	for _, tag := range []CompressionTag{CompressionNone, CompressionLZ4, CompressionZstd} {
		t.Run(tag.String(), func(t *testing.T) {
			t.Parallel()

			snap, err := NewSnapshot("mods", compressibleMapping(t))
			if err != nil {
				t.Fatalf("NewSnapshot: %v", err)
			}
			snap.TakenAt = time.Date(2026, 8, 26, 12, 30, 0, 123456789, time.UTC)

			data, err := EncodeSnapshot(snap, tag)
			if err != nil {
				t.Fatalf("EncodeSnapshot: %v", err)
			}
			// The payload is repetitive, so the requested algorithm
			// sticks rather than falling back to none.
			if got := CompressionTag(data[0]); got != tag {
				t.Errorf("tag byte = %v, want %v", got, tag)
			}

			decoded, err := DecodeSnapshot(data)
			if err != nil {
				t.Fatalf("DecodeSnapshot: %v", err)
			}
			if decoded.Instance != snap.Instance {
				t.Errorf("Instance = %q, want %q", decoded.Instance, snap.Instance)
			}
			if !decoded.TakenAt.Equal(snap.TakenAt) {
				t.Errorf("TakenAt = %v, want %v", decoded.TakenAt, snap.TakenAt)
			}
			if !slices.Equal(decoded.Rules, snap.Rules) {
				t.Errorf("rules changed across the round trip: got %d rules, want %d", len(decoded.Rules), len(snap.Rules))
			}
		})
	}
}

func TestEncodeSnapshotFallsBackWhenIncompressible(t *testing.T) {
	t.Parallel()

	for _, tag := range []CompressionTag{CompressionLZ4, CompressionZstd} {
		t.Run(tag.String(), func(t *testing.T) {
			t.Parallel()

			// A snapshot with no rules has nothing repeated, so
			// compression cannot beat the raw encoding.
			snap, err := NewSnapshot("m", vfs.NewMapping())
			if err != nil {
				t.Fatalf("NewSnapshot: %v", err)
			}
			snap.TakenAt = time.Date(2026, 8, 26, 12, 30, 0, 0, time.UTC)

			data, err := EncodeSnapshot(snap, tag)
			if err != nil {
				t.Fatalf("EncodeSnapshot: %v", err)
			}
			if got := CompressionTag(data[0]); got != CompressionNone {
				t.Errorf("tag byte = %v, want fallback to %v", got, CompressionNone)
			}

			decoded, err := DecodeSnapshot(data)
			if err != nil {
				t.Fatalf("DecodeSnapshot: %v", err)
			}
			if decoded.Instance != "m" || len(decoded.Rules) != 0 {
				t.Errorf("decoded snapshot = %+v, want empty rule set for %q", decoded, "m")
			}
		})
	}
}

func TestSnapshotRulesFollowApplyOrder(t *testing.T) {
	t.Parallel()

	// Insertion interleaves the variants; the snapshot lists all
	// directories first, the way the rules reach the engine.
	m := mustMapping(t,
		mustDirectoryLink(t, "/real/a", "/virt/a"),
		mustFileLink(t, "/real/one.ini", "/virt/one.ini"),
		mustDirectoryLink(t, "/real/b", "/virt/b"),
	)
	snap, err := NewSnapshot("mods", m)
	if err != nil {
		t.Fatalf("NewSnapshot: %v", err)
	}

	var order []string
	for _, rule := range snap.Rules {
		order = append(order, rule.Virtual)
	}
	want := []string{"/virt/a", "/virt/b", "/virt/one.ini"}
	if !slices.Equal(order, want) {
		t.Errorf("rule order = %v, want %v", order, want)
	}
	if !snap.Rules[0].Directory || !snap.Rules[1].Directory || snap.Rules[2].Directory {
		t.Error("directory markers do not match the partition order")
	}
}

func TestNewSnapshotNilMapping(t *testing.T) {
	t.Parallel()

	if _, err := NewSnapshot("mods", nil); err == nil {
		t.Error("NewSnapshot(nil) succeeded")
	}
	if _, err := EncodeSnapshot(nil, CompressionNone); err == nil {
		t.Error("EncodeSnapshot(nil) succeeded")
	}
}

func TestDecodeSnapshotRejectsCorruption(t *testing.T) {
	t.Parallel()

	oversized := []byte{byte(CompressionNone)}
	oversized = binary.AppendUvarint(oversized, maxSnapshotSize+1)
	oversized = append(oversized, 0x00)

	shortPayload := []byte{byte(CompressionNone)}
	shortPayload = binary.AppendUvarint(shortPayload, 10)
	shortPayload = append(shortPayload, 0x01, 0x02, 0x03)

	unknownTag := []byte{0x09}
	unknownTag = binary.AppendUvarint(unknownTag, 1)
	unknownTag = append(unknownTag, 0x00)

	garbageLZ4 := []byte{byte(CompressionLZ4)}
	garbageLZ4 = binary.AppendUvarint(garbageLZ4, 64)
	garbageLZ4 = append(garbageLZ4, 0xFF, 0xFF, 0xFF, 0xFF)

	tests := []struct {
		name    string
		data    []byte
		wantErr string
	}{
		{"empty", nil, "too short"},
		{"single byte", []byte{0x00}, "too short"},
		{"oversized declaration", oversized, "limit"},
		{"payload shorter than declared", shortPayload, "does not match"},
		{"unknown tag", unknownTag, "unsupported compression tag"},
		{"garbage lz4 payload", garbageLZ4, "lz4"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			_, err := DecodeSnapshot(test.data)
			if err == nil {
				t.Fatal("DecodeSnapshot succeeded on corrupt input")
			}
			if !strings.Contains(err.Error(), test.wantErr) {
				t.Errorf("error %q does not mention %q", err, test.wantErr)
			}
		})
	}
}

func TestCompressionTagNames(t *testing.T) {
	t.Parallel()

	tests := []struct {
		tag  CompressionTag
		name string
	}{
		{CompressionNone, "none"},
		{CompressionLZ4, "lz4"},
		{CompressionZstd, "zstd"},
	}
	for _, test := range tests {
		if got := test.tag.String(); got != test.name {
			t.Errorf("%d.String() = %q, want %q", test.tag, got, test.name)
		}
		parsed, err := ParseCompressionTag(test.name)
		if err != nil {
			t.Errorf("ParseCompressionTag(%q): %v", test.name, err)
		} else if parsed != test.tag {
			t.Errorf("ParseCompressionTag(%q) = %v, want %v", test.name, parsed, test.tag)
		}
	}

	if got := CompressionTag(9).String(); got != "unknown(9)" {
		t.Errorf("unknown tag String() = %q", got)
	}
	if _, err := ParseCompressionTag("gzip"); err == nil {
		t.Error("ParseCompressionTag accepted an unsupported name")
	}
}
