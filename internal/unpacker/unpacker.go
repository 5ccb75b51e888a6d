// Package unpacker extracts every entry of a package into a directory.
package unpacker

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/ossyrian/vppack/internal/manifest"
	"github.com/ossyrian/vppack/internal/parser"
	"github.com/ossyrian/vppack/internal/vpp"
)

// ErrUnsafeName is returned for entry names that would be written outside
// the output directory.
var ErrUnsafeName = errors.New("unsafe entry name")

// Options controls an extraction.
type Options struct {
	// OutputDir receives the extracted files.
	OutputDir string

	// Overwrite replaces files that already exist. Existing files are
	// skipped otherwise.
	Overwrite bool

	// ManifestPath, when set, receives the entry names in directory order.
	ManifestPath string
}

// Result summarizes an extraction.
type Result struct {
	Entries    int
	Written    int
	Skipped    int
	Compressed int
	Failed     int
}

// Unpacker writes package entries to a filesystem.
type Unpacker struct {
	fs     afero.Fs
	opts   Options
	logger *slog.Logger
}

// New returns an Unpacker writing to fsys.
func New(fsys afero.Fs, opts Options, logger *slog.Logger) *Unpacker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Unpacker{fs: fsys, opts: opts, logger: logger}
}

// Unpack extracts every entry of the package read from file.
//
// Header and directory errors abort before anything is written. An entry
// whose payload is corrupt, or whose name is unsafe, is skipped and the
// remaining entries are still extracted; such errors are joined and
// returned together with the result. Filesystem errors abort immediately.
func (u *Unpacker) Unpack(file io.ReadSeeker) (*Result, error) {
	r := parser.NewReader(file, u.logger)

	pkg, err := r.ReadPackage()
	if err != nil {
		return nil, err
	}

	var seq *manifest.Writer
	if u.opts.ManifestPath != "" {
		seq, err = manifest.Create(u.fs, u.opts.ManifestPath)
		if err != nil {
			return nil, err
		}
	}

	res, entryErrs, err := u.extract(r, pkg, seq)
	if seq != nil {
		if closeErr := seq.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}
	if err != nil {
		return res, err
	}

	u.logger.Info("unpacked",
		"entries", res.Entries,
		"written", res.Written,
		"skipped", res.Skipped,
		"compressed", res.Compressed,
		"failed", res.Failed,
	)

	return res, errors.Join(entryErrs...)
}

func (u *Unpacker) extract(r *parser.VppReader, pkg *vpp.Package, seq *manifest.Writer) (*Result, []error, error) {
	res := &Result{Entries: len(pkg.Entries)}
	names := nameRegistry{}
	total := len(pkg.Entries)

	var entryErrs []error
	cursor := pkg.DataOffset()
	for i, e := range pkg.Entries {
		offset := cursor
		cursor = vpp.NextOffset(cursor, e)

		if e.IsCompressed() {
			res.Compressed++
		}

		outputName := names.resolve(e.Name)

		u.logger.Debug(fmt.Sprintf("[%d/%d] %s", i+1, total, e.Name),
			"output", outputName,
			"offset", offset,
			"compressed", e.IsCompressed(),
		)

		written, err := u.extractEntry(r, e, offset, outputName)
		switch {
		case errors.Is(err, vpp.ErrCorruptPayload), errors.Is(err, ErrUnsafeName):
			u.logger.Error("failed to extract entry", "name", e.Name, "error", err)
			entryErrs = append(entryErrs, fmt.Errorf("entry %d (%s): %w", i, e.Name, err))
			res.Failed++
		case err != nil:
			return res, nil, err
		case written:
			res.Written++
		default:
			res.Skipped++
		}

		if seq != nil {
			if err := seq.Append(e.Name); err != nil {
				return res, nil, err
			}
		}
	}

	return res, entryErrs, nil
}

// extractEntry writes one entry to disk and reports whether a file was written.
func (u *Unpacker) extractEntry(r *parser.VppReader, e vpp.Entry, offset int64, outputName string) (bool, error) {
	entryPath, err := u.outputPath(outputName)
	if err != nil {
		return false, err
	}

	if !u.opts.Overwrite {
		exists, err := afero.Exists(u.fs, entryPath)
		if err != nil {
			return false, fmt.Errorf("failed to stat %s: %w", entryPath, err)
		}
		if exists {
			u.logger.Debug("skipping existing file", "path", entryPath)
			return false, nil
		}
	}

	data, err := r.ReadEntry(e, offset)
	if err != nil {
		return false, err
	}

	if err := u.fs.MkdirAll(filepath.Dir(entryPath), 0o755); err != nil {
		return false, fmt.Errorf("failed to create directory for %s: %w", entryPath, err)
	}
	if err := afero.WriteFile(u.fs, entryPath, data, 0o644); err != nil {
		return false, fmt.Errorf("failed to write %s: %w", entryPath, err)
	}

	return true, nil
}

// outputPath joins name to the output directory, rejecting names that
// would escape it.
func (u *Unpacker) outputPath(name string) (string, error) {
	rel := filepath.Clean(filepath.FromSlash(strings.ReplaceAll(name, `\`, "/")))
	if name == "" || rel == "." || filepath.IsAbs(rel) || rel == ".." ||
		strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrUnsafeName, name)
	}
	return filepath.Join(u.opts.OutputDir, rel), nil
}

// UnpackFile opens the package at path on fsys and extracts it.
func UnpackFile(fsys afero.Fs, path string, opts Options, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = slog.Default()
	}

	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open package file: %w", err)
	}
	defer f.Close()

	return New(fsys, opts, logger.With("file", path)).Unpack(f)
}
