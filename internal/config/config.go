// Package config loads the settings of the cvpipe command. Values come from the
// defaults, then an optional TOML file, then CVPIPE_* environment variables,
// each layer overriding the previous one.
package config

import (
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/pkg/errors"
)

var ErrInvalid = errors.New("invalid configuration")

// Config holds the command settings.
type Config struct {
	LogLevel          string `env:"CVPIPE_LOG_LEVEL"`
	LogFormat         string `env:"CVPIPE_LOG_FORMAT"`
	OutputFormat      string `env:"CVPIPE_OUTPUT_FORMAT"`
	JPEGQuality       int    `env:"CVPIPE_JPEG_QUALITY"`
	Workers           int    `env:"CVPIPE_WORKERS"`
	KeepIntermediates bool   `env:"CVPIPE_KEEP_INTERMEDIATES"`
	Measure           bool   `env:"CVPIPE_MEASURE"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		LogLevel:     "info",
		LogFormat:    "text",
		OutputFormat: "png",
		JPEGQuality:  90,
		Workers:      runtime.NumCPU(),
	}
}

type fileConfig struct {
	LogLevel          string `toml:"log_level"`
	LogFormat         string `toml:"log_format"`
	OutputFormat      string `toml:"output_format"`
	JPEGQuality       int    `toml:"jpeg_quality"`
	Workers           int    `toml:"workers"`
	KeepIntermediates bool   `toml:"keep_intermediates"`
	Measure           bool   `toml:"measure"`
}

// Load builds the configuration. path may be empty, in which case no file is
// read.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		err := overlayFile(&cfg, path)
		if err != nil {
			return Config{}, err
		}
	}

	err := env.Parse(&cfg)
	if err != nil {
		return Config{}, errors.Wrap(err, "unable to parse environment")
	}

	err = cfg.Validate()
	if err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func overlayFile(cfg *Config, path string) error {
	var raw fileConfig

	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return errors.Wrapf(err, "unable to load config file %s", path)
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return errors.Wrapf(ErrInvalid, "unknown keys in %s: %v", path, undecoded)
	}

	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}

	if meta.IsDefined("log_format") {
		cfg.LogFormat = strings.TrimSpace(raw.LogFormat)
	}

	if meta.IsDefined("output_format") {
		cfg.OutputFormat = strings.TrimSpace(raw.OutputFormat)
	}

	if meta.IsDefined("jpeg_quality") {
		cfg.JPEGQuality = raw.JPEGQuality
	}

	if meta.IsDefined("workers") {
		cfg.Workers = raw.Workers
	}

	if meta.IsDefined("keep_intermediates") {
		cfg.KeepIntermediates = raw.KeepIntermediates
	}

	if meta.IsDefined("measure") {
		cfg.Measure = raw.Measure
	}

	return nil
}

// Validate checks the settings.
func (c Config) Validate() error {
	switch {
	case c.LogFormat != "text" && c.LogFormat != "json":
		return errors.Wrapf(ErrInvalid, "log format must be text or json, got %q", c.LogFormat)
	case c.Workers < 1:
		return errors.Wrapf(ErrInvalid, "workers must be at least 1, got %d", c.Workers)
	case c.JPEGQuality < 1 || c.JPEGQuality > 100:
		return errors.Wrapf(ErrInvalid, "jpeg quality must be between 1 and 100, got %d", c.JPEGQuality)
	}

	switch strings.ToLower(c.OutputFormat) {
	case "png", "jpeg", "jpg", "bmp", "tiff", "tif":
	default:
		return errors.Wrapf(ErrInvalid, "unsupported output format %q", c.OutputFormat)
	}

	return nil
}

// Sample is a commented configuration file holding the defaults.
const Sample = `# cvpipe settings. Every key is optional; CVPIPE_<KEY> environment variables
# take precedence over this file.
log_level = "info"
log_format = "text"     # text or json
output_format = "png"   # png, jpeg, bmp or tiff
jpeg_quality = 90
# workers = 4           # defaults to the number of CPUs
keep_intermediates = false
measure = false
`
