package packer

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"

	"github.com/samber/lo"
	"github.com/spf13/afero"
)

// Source is one named payload to be packed.
type Source struct {
	// Name is the entry name stored in the directory.
	Name string
	// Open returns the payload bytes. It is called once, while packing.
	Open func() (io.ReadCloser, error)
}

// BytesSource returns a Source backed by an in-memory buffer.
func BytesSource(name string, data []byte) Source {
	return Source{
		Name: name,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// FileSource returns a Source that reads path from fsys. The entry is named
// after the base name of path.
func FileSource(fsys afero.Fs, path string) Source {
	return Source{
		Name: filepath.Base(path),
		Open: func() (io.ReadCloser, error) {
			return fsys.Open(path)
		},
	}
}

// DiscoverSources lists the regular files directly inside each directory, in
// directory enumeration order. When several files share a base name only the
// first one is kept.
func DiscoverSources(fsys afero.Fs, dirs []string) ([]Source, error) {
	var sources []Source
	for _, dir := range dirs {
		infos, err := afero.ReadDir(fsys, dir)
		if err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", dir, err)
		}
		for _, info := range infos {
			if !info.Mode().IsRegular() {
				continue
			}
			sources = append(sources, FileSource(fsys, filepath.Join(dir, info.Name())))
		}
	}

	return uniqueByName(sources), nil
}

// SequenceSources resolves manifest names against dirs and returns them in
// manifest order. A name is looked up in each directory in turn; names found
// nowhere resolve against the first directory so that packing fails with the
// underlying open error. Later duplicates of a base name are dropped.
func SequenceSources(fsys afero.Fs, dirs []string, names []string) []Source {
	sources := lo.Map(names, func(name string, _ int) Source {
		return FileSource(fsys, resolve(fsys, dirs, name))
	})
	return uniqueByName(sources)
}

func resolve(fsys afero.Fs, dirs []string, name string) string {
	for _, dir := range dirs {
		p := filepath.Join(dir, filepath.FromSlash(name))
		if ok, err := afero.Exists(fsys, p); err == nil && ok {
			return p
		}
	}
	if len(dirs) == 0 {
		return filepath.FromSlash(name)
	}
	return filepath.Join(dirs[0], filepath.FromSlash(name))
}

func uniqueByName(sources []Source) []Source {
	return lo.UniqBy(sources, func(s Source) string {
		return s.Name
	})
}
