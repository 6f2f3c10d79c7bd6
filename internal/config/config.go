package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ivlev/pageseg/internal/binarize"
	"github.com/ivlev/pageseg/internal/errs"
	"github.com/ivlev/pageseg/internal/output"
	"github.com/ivlev/pageseg/internal/profile"
	"github.com/ivlev/pageseg/internal/segment"
)

type Config struct {
	Input     string `yaml:"input"`
	Output    string `yaml:"output"`
	Mode      string `yaml:"mode"`
	Threshold int    `yaml:"threshold"`
	MinGap    int    `yaml:"min_gap"`

	Binarizer     string  `yaml:"binarizer"`
	BlockSize     int     `yaml:"block_size"`
	Offset        float64 `yaml:"offset"`
	SauvolaK      float64 `yaml:"sauvola_k"`
	SauvolaWindow int     `yaml:"sauvola_window"`

	Workers   int    `yaml:"workers"` // 0 picks a value from CPU and memory
	DPI       int    `yaml:"dpi"`
	Overwrite string `yaml:"overwrite"`
	Cascade   bool   `yaml:"cascade"`
	Plot      bool   `yaml:"plot"`

	S3Bucket string `yaml:"s3_bucket"`
	S3Prefix string `yaml:"s3_prefix"`
	S3Region string `yaml:"s3_region"`

	Verbose      bool   `yaml:"verbose"`
	BuildVersion string `yaml:"-"`
}

// Default returns the stock parameters
func Default() *Config {
	bo := binarize.DefaultOptions()
	return &Config{
		Output:        "output",
		Mode:          segment.MergedLines.String(),
		Threshold:     profile.DefaultThreshold,
		MinGap:        segment.DefaultMinGap,
		Binarizer:     "gaussian",
		BlockSize:     bo.BlockSize,
		Offset:        bo.Offset,
		SauvolaK:      bo.K,
		SauvolaWindow: bo.Window,
		DPI:           300,
		Overwrite:     "recreate",
	}
}

// Load reads a YAML file over the defaults. Keys missing from the file
// keep their default value.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("could not parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the parameters that can be checked without touching
// the input
func (c *Config) Validate() error {
	if _, err := segment.ParseMode(c.Mode); err != nil {
		return err
	}
	if c.Threshold < 0 {
		return fmt.Errorf("%w: threshold must not be negative, got %d", errs.ErrInvalidInput, c.Threshold)
	}
	if c.MinGap < 0 {
		return fmt.Errorf("%w: min_gap must not be negative, got %d", errs.ErrInvalidInput, c.MinGap)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative, got %d", errs.ErrInvalidInput, c.Workers)
	}
	if c.DPI <= 0 {
		return fmt.Errorf("%w: dpi must be positive, got %d", errs.ErrInvalidInput, c.DPI)
	}
	if _, err := output.NewStrategy(c.Overwrite); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrInvalidInput, err)
	}
	if _, err := binarize.New(c.Binarizer, c.BinarizeOptions()); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrInvalidInput, err)
	}
	if c.S3Bucket == "" && c.Output == "" {
		return fmt.Errorf("%w: no output directory or s3 bucket", errs.ErrInvalidInput)
	}
	return nil
}

// BinarizeOptions collects the binarizer tunables
func (c *Config) BinarizeOptions() binarize.Options {
	return binarize.Options{
		BlockSize: c.BlockSize,
		Offset:    c.Offset,
		K:         c.SauvolaK,
		Window:    c.SauvolaWindow,
	}
}

// SegmentMode returns the parsed mode; call Validate first
func (c *Config) SegmentMode() segment.Mode {
	m, _ := segment.ParseMode(c.Mode)
	return m
}
