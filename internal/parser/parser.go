package parser

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/ossyrian/vppack/internal/vpp"
)

// VppReader reads information from package files.
type VppReader struct {
	file   io.ReadSeeker
	logger *slog.Logger
	header *vpp.Header // package header, set by ReadHeader
}

// NewReader returns a VppReader over file.
func NewReader(file io.ReadSeeker, logger *slog.Logger) *VppReader {
	if logger == nil {
		logger = slog.Default()
	}
	return &VppReader{file: file, logger: logger}
}

// ReadHeader reads the header block at the start of the package.
// It fails with vpp.ErrBadMagic or vpp.ErrUnsupportedVersion before any
// directory data is read.
func (r *VppReader) ReadHeader() (*vpp.Header, error) {
	if _, err := r.file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to seek to header: %w", err)
	}

	h, err := vpp.ReadHeader(r.file)
	if err != nil {
		return nil, err
	}

	r.logger.Info("header is valid",
		"endian", h.Endian,
		"entry_count", h.EntryCount,
		"total_size", h.TotalSize,
	)

	r.header = h
	return h, nil
}

// ReadDir reads the directory table that follows the header block.
// ReadHeader must have been called first.
func (r *VppReader) ReadDir() ([]vpp.Entry, error) {
	if r.header == nil {
		return nil, fmt.Errorf("header has not been read")
	}

	if _, err := r.file.Seek(vpp.HeaderBlockSize, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to seek to directory: %w", err)
	}

	r.logger.Debug("reading directory entries",
		"entry_count", r.header.EntryCount,
	)

	// the count comes from the file; don't trust it for preallocation
	entries := make([]vpp.Entry, 0, min(r.header.EntryCount, 4096))
	for i := 0; i < int(r.header.EntryCount); i++ {
		entry, err := vpp.ReadDirectoryRecord(r.file, r.header.Endian)
		if err != nil {
			return nil, fmt.Errorf("failed to read entry %d: %w", i, err)
		}

		entries = append(entries, entry)

		r.logger.Debug("read directory entry",
			"index", i,
			"name", entry.Name,
			"uncompressed_size", entry.UncompressedSize,
			"compressed_size", entry.CompressedSize,
		)
	}

	r.logger.Info("read directory",
		"entry_count", len(entries),
	)

	return entries, nil
}

// ReadPackage reads the header and the full directory.
func (r *VppReader) ReadPackage() (*vpp.Package, error) {
	h, err := r.ReadHeader()
	if err != nil {
		return nil, err
	}

	entries, err := r.ReadDir()
	if err != nil {
		return nil, err
	}

	pkg := &vpp.Package{Header: *h}
	for _, e := range entries {
		pkg.Add(e)
	}
	return pkg, nil
}

// ReadEntry reads the payload of e stored at offset and returns its
// uncompressed bytes.
func (r *VppReader) ReadEntry(e vpp.Entry, offset int64) ([]byte, error) {
	if _, err := r.file.Seek(offset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to seek to entry data at offset %d: %w", offset, err)
	}

	stored := make([]byte, e.StoredSize())
	if _, err := io.ReadFull(r.file, stored); err != nil {
		return nil, fmt.Errorf("%w: failed to read %d bytes at offset %d: %w",
			vpp.ErrCorruptPayload, len(stored), offset, err)
	}

	if !e.IsCompressed() {
		return stored, nil
	}

	return vpp.Decompress(stored, e.UncompressedSize)
}
