package vpp

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrBadMagic is returned when the first 4 bytes are not Magic in either byte order.
	ErrBadMagic = errors.New("not a package file")

	// ErrUnsupportedVersion is returned for any package version other than Version.
	ErrUnsupportedVersion = errors.New("unsupported package version")

	// ErrCorruptPayload is returned when an entry payload cannot be decoded
	// to its declared uncompressed size.
	ErrCorruptPayload = errors.New("corrupt payload")

	// ErrInvalidName is returned when an entry name cannot be stored as ASCII.
	ErrInvalidName = errors.New("invalid entry name")

	// ErrSizeOverflow is returned when a size does not fit the 32-bit on-disk fields.
	ErrSizeOverflow = errors.New("size exceeds 32-bit limit")
)

// Endian is the byte order of a package, detected from its magic.
type Endian int

const (
	Little Endian = iota
	Big
)

// ByteOrder returns the encoding/binary byte order for e.
func (e Endian) ByteOrder() binary.ByteOrder {
	if e == Big {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

func (e Endian) String() string {
	switch e {
	case Little:
		return "little"
	case Big:
		return "big"
	default:
		return "unknown"
	}
}

// ParseEndian converts "little"/"big" (or "le"/"be") to an Endian.
func ParseEndian(s string) (Endian, error) {
	switch strings.ToLower(s) {
	case "", "little", "le":
		return Little, nil
	case "big", "be":
		return Big, nil
	default:
		return Little, fmt.Errorf("unknown endianness: %s", s)
	}
}

// Flags is the archive-level packing policy.
type Flags uint32

const (
	// FlagCompressed asks the packer to compress new entries.
	FlagCompressed Flags = 1 << iota
	// FlagCondensed is accepted for compatibility with other package versions.
	FlagCondensed

	// SupportedFlags are the flags meaningful for version 3 packages.
	SupportedFlags = FlagCompressed | FlagCondensed
)

// Has reports whether all bits of x are set in f.
func (f Flags) Has(x Flags) bool { return f&x == x }

func (f Flags) String() string {
	var parts []string
	if f.Has(FlagCompressed) {
		parts = append(parts, "compressed")
	}
	if f.Has(FlagCondensed) {
		parts = append(parts, "condensed")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// Header is the fixed 2048-byte block at the start of a package.
type Header struct {
	Endian     Endian
	EntryCount uint32
	// TotalSize is the declared package size. It is bookkeeping only and is
	// never used to locate payloads.
	TotalSize uint32
	// Reserved holds the unused remainder of the header block. It is zero for
	// freshly built packages and preserved verbatim for parsed ones.
	Reserved [ReservedSize]byte
}

// Entry is one directory record.
//
// Version 3 packages do not store payload offsets; see Package.Offsets.
type Entry struct {
	Name             string
	UncompressedSize uint32
	CompressedSize   uint32
}

// IsCompressed reports whether the payload of e is zlib-compressed.
// The format has no per-entry flag; differing sizes are the only signal.
func (e Entry) IsCompressed() bool {
	return e.UncompressedSize != e.CompressedSize
}

// StoredSize is the number of payload bytes e occupies in the data region.
func (e Entry) StoredSize() uint32 {
	if e.IsCompressed() {
		return e.CompressedSize
	}
	return e.UncompressedSize
}

// Package is an in-memory view of one package file.
type Package struct {
	Header

	// Flags and ExtraFlags describe packing policy. Version 3 headers have no
	// field for them, so they are never read from or written to disk.
	Flags      Flags
	ExtraFlags uint32

	// UncompressedSize and CompressedSize total the payload sizes of Entries.
	UncompressedSize uint64
	CompressedSize   uint64

	// Entries are in directory order, which is also payload order.
	Entries []Entry
}

// DataOffset is the position of the first payload.
func (p *Package) DataOffset() int64 {
	return EstimateHeaderSize(len(p.Entries))
}

// Offsets derives the payload offset of every entry. Payloads follow each
// other in directory order, each one starting on a sector boundary.
func (p *Package) Offsets() []int64 {
	offsets := make([]int64, len(p.Entries))
	cursor := p.DataOffset()
	for i, e := range p.Entries {
		offsets[i] = cursor
		cursor = NextOffset(cursor, e)
	}
	return offsets
}

// NextOffset returns the offset of the payload that follows e, given that e
// starts at cursor.
func NextOffset(cursor int64, e Entry) int64 {
	return Align(cursor+int64(e.StoredSize()), SectorSize)
}

// Add appends e to the directory and updates the size totals.
func (p *Package) Add(e Entry) {
	p.Entries = append(p.Entries, e)
	p.EntryCount = uint32(len(p.Entries))
	p.UncompressedSize += uint64(e.UncompressedSize)
	p.CompressedSize += uint64(e.StoredSize())
}
