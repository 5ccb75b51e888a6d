package main

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/ossyrian/vppack/internal/config"
	"github.com/ossyrian/vppack/internal/manifest"
	"github.com/ossyrian/vppack/internal/packer"
	"github.com/ossyrian/vppack/internal/vpp"
)

var packCmd = &cobra.Command{
	Use:   "pack [flags] (input_directory | output_vpp input_directory...)",
	Short: "Pack directories into a Volition package file",
	Long:  `Pack directories into a Volition package file.

With a single directory the package is written next to it as <dir>_PACKED.vpp.
With --sequence, entries are packed in the order listed in <dir>.vpp.txt.`,
	Args: usageArgs(cobra.MinimumNArgs(1)),
	RunE: pack,
}

func init() {
	f := packCmd.Flags()
	f.BoolP("compress", "c", false, "compress data")
	f.IntSliceP("flag", "f", nil, "extra flag (as bit index, repeatable)")
	f.BoolP("little-endian", "l", false, "pack data in little-endian mode (default)")
	f.BoolP("big-endian", "b", false, "pack data in big-endian mode")
	f.BoolP("verbose", "v", false, "enable verbose logging")
	f.BoolP("padding", "p", true, "align every entry to a 2048-byte sector")
	f.BoolP("sequence", "s", false, "pack entries in the order listed in the sequence manifest")
	f.Int("level", vpp.DefaultCompressionLevel, "zlib compression level (-1 default, 0-9)")

	packCmd.MarkFlagsMutuallyExclusive("little-endian", "big-endian")
}

// pack runs the pack subcommand
func pack(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, map[string]string{
		"verbose":          "verbose",
		"sequence":         "sequence",
		"pack.compress":    "compress",
		"pack.level":       "level",
		"pack.big_endian":  "big-endian",
		"pack.padding":     "padding",
		"pack.extra_flags": "flag",
	})
	if err != nil {
		return err
	}

	outputPath, inputDirs := packPaths(args)
	fsys := afero.NewOsFs()

	opts, err := packOptions(cfg.Pack)
	if err != nil {
		return err
	}

	var sources []packer.Source
	if cfg.Sequence {
		manifestPath := manifest.PathFor(inputDirs[0])
		names, err := manifest.Read(fsys, manifestPath)
		if err != nil {
			if errors.Is(err, manifest.ErrMissingManifest) {
				return fmt.Errorf("%w (expected %s next to the input directory)", err, manifestPath)
			}
			return err
		}
		slog.Info("using sequence manifest", "path", manifestPath, "entries", len(names))
		sources = packer.SequenceSources(fsys, inputDirs, names)
	} else {
		sources, err = packer.DiscoverSources(fsys, inputDirs)
		if err != nil {
			return err
		}
	}

	_, err = packer.PackFile(fsys, outputPath, sources, opts, slog.Default())
	return err
}

// packPaths splits the positional arguments into the output package path and
// the input directories
func packPaths(args []string) (string, []string) {
	if len(args) == 1 {
		dir := filepath.Clean(args[0])
		return dir + "_PACKED.vpp", []string{dir}
	}
	return args[0], args[1:]
}

func packOptions(cfg config.PackConfig) (packer.Options, error) {
	opts := packer.Options{
		Endian:           vpp.Little,
		Padding:          cfg.Padding,
		CompressionLevel: cfg.Level,
	}
	if cfg.BigEndian {
		opts.Endian = vpp.Big
	}
	if cfg.Compress {
		opts.Flags |= vpp.FlagCompressed
	}

	extra, err := extraFlagBits(cfg.ExtraFlags)
	if err != nil {
		return opts, err
	}
	opts.ExtraFlags = extra

	return opts, nil
}

// extraFlagBits turns bit indexes into a flag mask
func extraFlagBits(bits []int) (uint32, error) {
	var mask uint32
	for _, b := range bits {
		if b < 0 || b > 31 {
			return 0, fmt.Errorf("extra flag bit %d out of range 0-31", b)
		}
		mask |= 1 << b
	}
	return mask, nil
}
