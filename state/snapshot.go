// Copyright 2026 The Graft Authors
// SPDX-License-Identifier: Apache-2.0

package state

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/graftfs/graft/lib/codec"
	"github.com/graftfs/graft/vfs"
)

// SnapshotRule is the persisted form of one link rule.
type SnapshotRule struct {
	Real      string `cbor:"real"`
	Virtual   string `cbor:"virtual"`
	Flags     uint32 `cbor:"flags"`
	Directory bool   `cbor:"directory"`
}

// Snapshot pins the rule set a session applied. When an instance
// misbehaves later, the snapshot says exactly what the engine was
// told, independent of what happened to the manifest since.
type Snapshot struct {
	Instance string         `cbor:"instance"`
	Rules    []SnapshotRule `cbor:"rules"`
	TakenAt  time.Time      `cbor:"taken_at"`
}

// NewSnapshot flattens m's rules for instance. Store.SaveSnapshot
// stamps TakenAt.
func NewSnapshot(instance string, m *vfs.Mapping) (*Snapshot, error) {
	if m == nil {
		return nil, fmt.Errorf("nil mapping")
	}
	return &Snapshot{Instance: instance, Rules: snapshotRules(m)}, nil
}

// snapshotRules flattens a mapping the way ApplyMapping sends it:
// the directory partition then the file partition, each in insertion
// order. MappingFingerprint hashes this same encoding, so fingerprint
// and snapshot can never disagree about order.
func snapshotRules(m *vfs.Mapping) []SnapshotRule {
	rules := make([]SnapshotRule, 0, m.Len())
	for rule := range m.Directories() {
		rules = append(rules, SnapshotRule{
			Real:      rule.RealPath(),
			Virtual:   rule.VirtualPath(),
			Flags:     uint32(rule.Flags()),
			Directory: true,
		})
	}
	for rule := range m.Files() {
		rules = append(rules, SnapshotRule{
			Real:    rule.RealPath(),
			Virtual: rule.VirtualPath(),
			Flags:   uint32(rule.Flags()),
		})
	}
	return rules
}

// CompressionTag identifies the compression applied to an encoded
// snapshot. The tag is the snapshot file's first byte; the values are
// format constants and changing them breaks existing state
// directories.
type CompressionTag uint8

const (
	// CompressionNone stores the CBOR payload as-is. Also the
	// fallback when compression would not shrink the payload.
	CompressionNone CompressionTag = 0

	// CompressionLZ4 is LZ4 block compression: cheap to decode,
	// modest ratios. The default for snapshots.
	CompressionLZ4 CompressionTag = 1

	// CompressionZstd is zstd at its default level: better ratios on
	// large rule sets with highly repetitive path prefixes.
	CompressionZstd CompressionTag = 2
)

// String returns the tag's name.
func (tag CompressionTag) String() string {
	switch tag {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(tag))
	}
}

// ParseCompressionTag parses a tag from its name.
func ParseCompressionTag(name string) (CompressionTag, error) {
	switch name {
	case "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZstd, nil
	default:
		return 0, fmt.Errorf("unknown compression tag: %q", name)
	}
}

// maxSnapshotSize bounds the decoded size a snapshot file may
// declare. A corrupt header must not become an allocation.
const maxSnapshotSize = 64 << 20

// errIncompressible reports that compression would not shrink the
// payload; the caller stores it uncompressed instead.
var errIncompressible = errors.New("data is incompressible")

// EncodeSnapshot encodes snap to CBOR and compresses it with the
// requested algorithm, falling back to CompressionNone when the data
// is incompressible. The result is a self-describing file: one tag
// byte, the decoded size as a uvarint, then the payload.
func EncodeSnapshot(snap *Snapshot, tag CompressionTag) ([]byte, error) {
	if snap == nil {
		return nil, fmt.Errorf("nil snapshot")
	}
	plain, err := codec.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}

	payload := plain
	if tag != CompressionNone {
		payload, err = compress(plain, tag)
		if errors.Is(err, errIncompressible) {
			tag = CompressionNone
			payload = plain
		} else if err != nil {
			return nil, err
		}
	}

	out := make([]byte, 0, 1+binary.MaxVarintLen64+len(payload))
	out = append(out, byte(tag))
	out = binary.AppendUvarint(out, uint64(len(plain)))
	out = append(out, payload...)
	return out, nil
}

// DecodeSnapshot reverses EncodeSnapshot, verifying that the payload
// decompresses to exactly the declared size.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	if len(data) < 2 {
		return nil, fmt.Errorf("snapshot is %d bytes, too short for a header", len(data))
	}
	tag := CompressionTag(data[0])
	size, n := binary.Uvarint(data[1:])
	if n <= 0 {
		return nil, fmt.Errorf("snapshot header has no decoded size")
	}
	if size > maxSnapshotSize {
		return nil, fmt.Errorf("snapshot declares %d decoded bytes, limit is %d", size, maxSnapshotSize)
	}
	payload := data[1+n:]

	plain, err := decompress(payload, tag, int(size))
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := codec.Unmarshal(plain, &snap); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	return &snap, nil
}

// zstdEncoder and zstdDecoder are reused across calls to avoid
// repeated initialization overhead. Both are safe for concurrent use.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
	)
	if err != nil {
		panic("state: zstd encoder initialization failed: " + err.Error())
	}

	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("state: zstd decoder initialization failed: " + err.Error())
	}
}

func compress(plain []byte, tag CompressionTag) ([]byte, error) {
	switch tag {
	case CompressionLZ4:
		bound := lz4.CompressBlockBound(len(plain))
		destination := make([]byte, bound)
		written, err := lz4.CompressBlock(plain, destination, nil)
		if err != nil {
			return nil, fmt.Errorf("lz4 compress: %w", err)
		}
		// CompressBlock returns 0 when it judges the data
		// incompressible; a result at or above the input size is not
		// worth storing either.
		if written == 0 || written >= len(plain) {
			return nil, errIncompressible
		}
		return destination[:written], nil

	case CompressionZstd:
		compressed := zstdEncoder.EncodeAll(plain, nil)
		if len(compressed) >= len(plain) {
			return nil, errIncompressible
		}
		return compressed, nil

	default:
		return nil, fmt.Errorf("unsupported compression tag: %d", tag)
	}
}

func decompress(payload []byte, tag CompressionTag, size int) ([]byte, error) {
	switch tag {
	case CompressionNone:
		if len(payload) != size {
			return nil, fmt.Errorf("uncompressed snapshot: size %d does not match declared %d", len(payload), size)
		}
		return payload, nil

	case CompressionLZ4:
		destination := make([]byte, size)
		read, err := lz4.UncompressBlock(payload, destination)
		if err != nil {
			return nil, fmt.Errorf("lz4 decompress: %w", err)
		}
		if read != size {
			return nil, fmt.Errorf("lz4 decompress: got %d bytes, declared %d", read, size)
		}
		return destination, nil

	case CompressionZstd:
		result, err := zstdDecoder.DecodeAll(payload, make([]byte, 0, size))
		if err != nil {
			return nil, fmt.Errorf("zstd decompress: %w", err)
		}
		if len(result) != size {
			return nil, fmt.Errorf("zstd decompress: got %d bytes, declared %d", len(result), size)
		}
		return result, nil

	default:
		return nil, fmt.Errorf("unsupported compression tag: %d", tag)
	}
}
