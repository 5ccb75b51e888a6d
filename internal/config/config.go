package config

// Config holds app configuration
type Config struct {
	// Verbose logs every entry as it is packed or extracted
	Verbose bool `mapstructure:"verbose"`

	// Sequence reads (pack) or writes (unpack) the entry order manifest
	// next to the package, e.g. level1.vpp.txt
	Sequence bool `mapstructure:"sequence"`

	LogLevel     string `mapstructure:"log_level"`
	LogOutputDir string `mapstructure:"log_output_dir"`

	Pack   PackConfig   `mapstructure:"pack"`
	Unpack UnpackConfig `mapstructure:"unpack"`
}

// PackConfig holds settings for building packages
type PackConfig struct {
	Compress bool `mapstructure:"compress"`

	// Level is the zlib compression level (-1 for the library default, 0-9)
	Level int `mapstructure:"level"`

	// BigEndian writes a big-endian package; little-endian is the default
	BigEndian bool `mapstructure:"big_endian"`

	// Padding aligns every payload to a 2048-byte sector
	Padding bool `mapstructure:"padding"`

	// ExtraFlags are bit indexes of vendor flags; they are reported but the
	// version 3 header has nowhere to store them
	ExtraFlags []int `mapstructure:"extra_flags"`
}

// UnpackConfig holds settings for extracting packages
type UnpackConfig struct {
	Overwrite bool `mapstructure:"overwrite"`
}
