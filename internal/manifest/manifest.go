// Package manifest reads and writes sequence manifests: plain text sidecar
// files listing package entry names in directory order, one per line.
package manifest

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// Extension replaces the extension of the package or directory a manifest belongs to.
const Extension = ".vpp.txt"

// ErrMissingManifest is returned when sequence mode is requested but the
// manifest file does not exist.
var ErrMissingManifest = errors.New("sequence manifest not found")

// PathFor returns the manifest path for a package file or an unpacked
// directory: "level.vpp" and "level" both map to "level.vpp.txt".
func PathFor(p string) string {
	p = filepath.Clean(p)
	return strings.TrimSuffix(p, filepath.Ext(p)) + Extension
}

// Read returns the entry names listed in the manifest at path.
// Reading stops at the first blank line.
func Read(fsys afero.Fs, path string) ([]string, error) {
	f, err := fsys.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingManifest, path)
		}
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}
	defer f.Close()

	var names []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if line == "" {
			break
		}
		names = append(names, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}

	return names, nil
}

// Writer appends entry names to a manifest.
type Writer struct {
	f afero.File
	w *bufio.Writer
}

// Create truncates or creates the manifest at path.
func Create(fsys afero.Fs, path string) (*Writer, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := fsys.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create manifest directory: %w", err)
		}
	}

	f, err := fsys.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create manifest: %w", err)
	}

	return &Writer{f: f, w: bufio.NewWriter(f)}, nil
}

// Append writes name as the next line.
func (m *Writer) Append(name string) error {
	if _, err := m.w.WriteString(name + "\n"); err != nil {
		return fmt.Errorf("failed to append %s to manifest: %w", name, err)
	}
	return nil
}

// Close flushes buffered lines and closes the file.
func (m *Writer) Close() error {
	flushErr := m.w.Flush()
	closeErr := m.f.Close()
	if flushErr != nil {
		return fmt.Errorf("failed to flush manifest: %w", flushErr)
	}
	return closeErr
}
