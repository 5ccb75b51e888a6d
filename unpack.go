package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/ossyrian/vppack/internal/manifest"
	"github.com/ossyrian/vppack/internal/unpacker"
)

var unpackCmd = &cobra.Command{
	Use:   "unpack [flags] input_vpp [output_dir]",
	Short: "Unpack a Volition package file",
	Long:  `Unpack a Volition package file.

Without an output directory, entries are written to a directory named after
the package in the current directory. With --sequence, the entry order is
saved to <package>.vpp.txt so that it can be packed again in the same order.`,
	Args: usageArgs(cobra.RangeArgs(1, 2)),
	RunE: unpack,
}

func init() {
	f := unpackCmd.Flags()
	f.BoolP("overwrite", "o", false, "overwrite files if they already exist")
	f.BoolP("verbose", "v", false, "enable verbose logging")
	f.BoolP("sequence", "s", false, "save entries order")
}

// unpack runs the unpack subcommand
func unpack(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, map[string]string{
		"verbose":          "verbose",
		"sequence":         "sequence",
		"unpack.overwrite": "overwrite",
	})
	if err != nil {
		return err
	}

	inputPath := args[0]
	outputDir, err := unpackOutputDir(args)
	if err != nil {
		return err
	}

	opts := unpacker.Options{
		OutputDir: outputDir,
		Overwrite: cfg.Unpack.Overwrite,
	}
	if cfg.Sequence {
		opts.ManifestPath = manifest.PathFor(inputPath)
	}

	slog.Info("unpacking", "input", inputPath, "output", outputDir, "sequence", cfg.Sequence)

	res, err := unpacker.UnpackFile(afero.NewOsFs(), inputPath, opts, slog.Default())
	if res != nil {
		slog.Info(fmt.Sprintf("total compressed files %d", res.Compressed))
	}
	return err
}

// unpackOutputDir returns the explicit output directory, or one named after
// the package in the current directory
func unpackOutputDir(args []string) (string, error) {
	if len(args) > 1 {
		return args[1], nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}

	base := filepath.Base(args[0])
	return filepath.Join(cwd, strings.TrimSuffix(base, filepath.Ext(base))), nil
}
