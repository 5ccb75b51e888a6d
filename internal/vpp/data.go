package vpp

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math/bits"
)

// ReadHeader reads the 2048-byte header block from r and detects the
// package byte order from the magic.
func ReadHeader(r io.Reader) (*Header, error) {
	block := make([]byte, HeaderBlockSize)
	if _, err := io.ReadFull(r, block[:4]); err != nil {
		return nil, fmt.Errorf("failed to read magic: %w", err)
	}

	h := &Header{}
	magic := binary.LittleEndian.Uint32(block[:4])
	switch {
	case magic == Magic:
		h.Endian = Little
	case bits.ReverseBytes32(magic) == Magic:
		h.Endian = Big
	default:
		return nil, fmt.Errorf("%w: magic 0x%08X", ErrBadMagic, magic)
	}

	if _, err := io.ReadFull(r, block[4:]); err != nil {
		return nil, fmt.Errorf("failed to read header block: %w", err)
	}

	order := h.Endian.ByteOrder()
	if version := order.Uint32(block[4:8]); version != Version {
		return nil, fmt.Errorf("%w: got %d, expected %d", ErrUnsupportedVersion, version, Version)
	}

	h.EntryCount = order.Uint32(block[8:12])
	h.TotalSize = order.Uint32(block[12:16])
	copy(h.Reserved[:], block[headerFieldsSize:])

	return h, nil
}

// WriteHeader writes h as a full 2048-byte header block.
func WriteHeader(w io.Writer, h *Header) error {
	block := make([]byte, HeaderBlockSize)
	order := h.Endian.ByteOrder()

	order.PutUint32(block[0:4], Magic)
	order.PutUint32(block[4:8], Version)
	order.PutUint32(block[8:12], h.EntryCount)
	order.PutUint32(block[12:16], h.TotalSize)
	copy(block[headerFieldsSize:], h.Reserved[:])

	if _, err := w.Write(block); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	return nil
}

// ReadDirectoryRecord reads one 32-byte directory record.
// The name ends at the first NUL byte; anything after it is discarded.
func ReadDirectoryRecord(r io.Reader, endian Endian) (Entry, error) {
	var record [RecordSize]byte
	if _, err := io.ReadFull(r, record[:]); err != nil {
		return Entry{}, fmt.Errorf("failed to read directory record: %w", err)
	}

	name := record[:NameSize]
	if i := bytes.IndexByte(name, 0); i >= 0 {
		name = name[:i]
	}

	order := endian.ByteOrder()
	return Entry{
		Name:             string(name),
		UncompressedSize: order.Uint32(record[NameSize : NameSize+4]),
		CompressedSize:   order.Uint32(record[NameSize+4 : NameSize+8]),
	}, nil
}

// EncodeName returns the 24-byte on-disk name field for name: the ASCII
// bytes, a NUL terminator and zero fill. Names of 24 bytes or more are
// truncated to 24 bytes and carry no terminator.
func EncodeName(name string) ([NameSize]byte, error) {
	var field [NameSize]byte
	for i := 0; i < len(name); i++ {
		if c := name[i]; c == 0 || c > 0x7F {
			return field, fmt.Errorf("%w: %q is not NUL-free ASCII", ErrInvalidName, name)
		}
	}
	copy(field[:], name)
	return field, nil
}

// WriteDirectoryRecord writes e as one 32-byte directory record.
func WriteDirectoryRecord(w io.Writer, e Entry, endian Endian) error {
	field, err := EncodeName(e.Name)
	if err != nil {
		return err
	}

	var record [RecordSize]byte
	copy(record[:NameSize], field[:])
	order := endian.ByteOrder()
	order.PutUint32(record[NameSize:NameSize+4], e.UncompressedSize)
	order.PutUint32(record[NameSize+4:NameSize+8], e.CompressedSize)

	if _, err := w.Write(record[:]); err != nil {
		return fmt.Errorf("failed to write directory record for %s: %w", e.Name, err)
	}
	return nil
}

// WriteZeros writes n zero bytes to w.
func WriteZeros(w io.Writer, n int64) error {
	if n <= 0 {
		return nil
	}
	if _, err := io.CopyN(w, zeroReader{}, n); err != nil {
		return fmt.Errorf("failed to write %d bytes of padding: %w", n, err)
	}
	return nil
}

type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) {
	clear(p)
	return len(p), nil
}
