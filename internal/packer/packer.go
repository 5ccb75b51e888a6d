// Package packer builds version 3 packages from an ordered list of sources.
package packer

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/spf13/afero"

	"github.com/ossyrian/vppack/internal/vpp"
)

// Options controls how a package is built.
type Options struct {
	Endian     vpp.Endian
	Flags      vpp.Flags
	ExtraFlags uint32

	// Padding aligns every payload to the next sector boundary.
	Padding bool

	// CompressionLevel is the zlib level used when Flags has FlagCompressed.
	CompressionLevel int
}

// Packer writes one package to w.
type Packer struct {
	w      io.WriteSeeker
	opts   Options
	logger *slog.Logger

	cursor int64 // next write position in the data region
}

// New returns a Packer writing to w.
func New(w io.WriteSeeker, opts Options, logger *slog.Logger) *Packer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Packer{w: w, opts: opts, logger: logger}
}

// Pack writes sources to the package in order and returns the resulting
// directory. Payloads are written first; the header and directory are
// written last, once all sizes are known.
func (p *Packer) Pack(sources []Source) (*vpp.Package, error) {
	pkg := &vpp.Package{
		Header:     vpp.Header{Endian: p.opts.Endian},
		Flags:      p.opts.Flags,
		ExtraFlags: p.opts.ExtraFlags,
		Entries:    make([]vpp.Entry, 0, len(sources)),
	}

	dataOffset := vpp.EstimateHeaderSize(len(sources))

	p.logger.Info("packing",
		"entries", len(sources),
		"endian", p.opts.Endian,
		"flags", p.opts.Flags,
		"extra_flags", p.opts.ExtraFlags,
		"padding", p.opts.Padding,
		"data_offset", dataOffset,
	)

	// reserve header and directory space
	if _, err := p.w.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to seek to start: %w", err)
	}
	if err := vpp.WriteZeros(p.w, dataOffset); err != nil {
		return nil, err
	}
	p.cursor = dataOffset

	for i, src := range sources {
		entry, err := p.writePayload(src)
		if err != nil {
			return nil, fmt.Errorf("failed to pack %s: %w", src.Name, err)
		}
		pkg.Add(entry)

		p.logger.Debug(fmt.Sprintf("[%d/%d] %s", i+1, len(sources), entry.Name),
			"uncompressed_size", entry.UncompressedSize,
			"compressed_size", entry.CompressedSize,
			"compressed", entry.IsCompressed(),
		)
	}

	if p.cursor > math.MaxUint32 {
		return nil, fmt.Errorf("%w: package size %d", vpp.ErrSizeOverflow, p.cursor)
	}
	pkg.TotalSize = uint32(p.cursor)

	if err := p.writeDirectory(pkg); err != nil {
		return nil, err
	}

	// leave the writer positioned at the end of the package
	if _, err := p.w.Seek(p.cursor, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to seek to end: %w", err)
	}

	p.logger.Info("packed",
		"entries", len(pkg.Entries),
		"total_size", pkg.TotalSize,
		"uncompressed_size", pkg.UncompressedSize,
		"compressed_size", pkg.CompressedSize,
	)

	return pkg, nil
}

// writePayload appends the payload of src at the cursor and returns its
// directory record.
func (p *Packer) writePayload(src Source) (vpp.Entry, error) {
	if _, err := vpp.EncodeName(src.Name); err != nil {
		return vpp.Entry{}, err
	}
	if len(src.Name) > vpp.NameSize {
		p.logger.Warn("entry name truncated",
			"name", src.Name,
			"stored_as", src.Name[:vpp.NameSize],
		)
	}

	rc, err := src.Open()
	if err != nil {
		return vpp.Entry{}, fmt.Errorf("failed to open source: %w", err)
	}
	defer rc.Close()

	if _, err := p.w.Seek(p.cursor, io.SeekStart); err != nil {
		return vpp.Entry{}, fmt.Errorf("failed to seek to %d: %w", p.cursor, err)
	}

	var (
		size   int64
		stored int64
	)
	if p.opts.Flags.Has(vpp.FlagCompressed) {
		size, stored, err = p.writeCompressed(rc)
	} else {
		size, err = io.Copy(p.w, rc)
		stored = size
	}
	if err != nil {
		return vpp.Entry{}, err
	}
	if size > math.MaxUint32 {
		return vpp.Entry{}, fmt.Errorf("%w: entry size %d", vpp.ErrSizeOverflow, size)
	}

	p.cursor += stored
	if p.opts.Padding {
		next := vpp.Align(p.cursor, vpp.SectorSize)
		if err := vpp.WriteZeros(p.w, next-p.cursor); err != nil {
			return vpp.Entry{}, err
		}
		p.cursor = next
	}

	return vpp.Entry{
		Name:             src.Name,
		UncompressedSize: uint32(size),
		CompressedSize:   uint32(stored),
	}, nil
}

// writeCompressed stores the zlib form of r when it is strictly smaller than
// the raw bytes, and the raw bytes otherwise. Equal sizes would make the
// entry read back as uncompressed.
func (p *Packer) writeCompressed(r io.Reader) (size, stored int64, err error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read source: %w", err)
	}

	payload := raw
	compressed, err := vpp.Compress(raw, p.opts.CompressionLevel)
	if err != nil {
		return 0, 0, err
	}
	if len(compressed) < len(raw) {
		payload = compressed
	}

	if _, err := io.Copy(p.w, bytes.NewReader(payload)); err != nil {
		return 0, 0, fmt.Errorf("failed to write payload: %w", err)
	}

	return int64(len(raw)), int64(len(payload)), nil
}

func (p *Packer) writeDirectory(pkg *vpp.Package) error {
	if _, err := p.w.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek to header: %w", err)
	}

	if err := vpp.WriteHeader(p.w, &pkg.Header); err != nil {
		return err
	}

	for _, e := range pkg.Entries {
		if err := vpp.WriteDirectoryRecord(p.w, e, pkg.Endian); err != nil {
			return err
		}
	}

	return nil
}

// PackFile creates path on fsys and packs sources into it. The file is left
// in place if packing fails.
func PackFile(fsys afero.Fs, path string, sources []Source, opts Options, logger *slog.Logger) (*vpp.Package, error) {
	if logger == nil {
		logger = slog.Default()
	}

	f, err := fsys.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create package file: %w", err)
	}

	pkg, err := New(f, opts, logger.With("file", path)).Pack(sources)
	if closeErr := f.Close(); closeErr != nil && err == nil {
		err = fmt.Errorf("failed to close package file: %w", closeErr)
	}
	if err != nil {
		return nil, err
	}

	return pkg, nil
}
