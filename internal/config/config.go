// Package config holds the explicit configuration for a combination run.
// All knobs the combiner, sinks and query service need are passed through
// this struct; there is no module-level state.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/avheln/raintable/internal/combine"
	"github.com/avheln/raintable/internal/errors"
)

// Config represents the complete raintable configuration.
type Config struct {
	// DataDir is the directory holding the source CSV files.
	DataDir string `yaml:"data_dir"`

	// Combine configures the combiner run.
	Combine CombineConfig `yaml:"combine"`

	// Filter configures source file selection.
	Filter FilterConfig `yaml:"filter"`

	// Output configures persistence of the combined table.
	Output OutputConfig `yaml:"output"`

	// Query configures the DuckDB query service.
	Query QueryConfig `yaml:"query"`
}

// CombineConfig configures the combiner run.
type CombineConfig struct {
	// Strategy is the execution strategy: eager, deferred.
	Strategy string `yaml:"strategy"`

	// DeferExecution returns the unexecuted plan instead of a table.
	// Only meaningful with the deferred strategy.
	DeferExecution bool `yaml:"defer_execution"`

	// Workers bounds the deferred engine's read parallelism.
	Workers int `yaml:"workers"`

	// ChunkSize is the number of rows per read batch.
	ChunkSize int `yaml:"chunk_size"`
}

// FilterConfig configures source file selection.
type FilterConfig struct {
	// Pattern is a glob applied to base file names.
	Pattern string `yaml:"pattern"`

	// Exclude lists substrings that disqualify a matching file.
	Exclude []string `yaml:"exclude"`
}

// OutputConfig configures persistence of the combined table.
type OutputConfig struct {
	// Dir is the directory artifacts are written to.
	Dir string `yaml:"dir"`

	// Formats lists the artifact formats to write: csv, parquet, feather.
	Formats []string `yaml:"formats"`

	// Compression configures Parquet compression.
	Compression CompressionConfig `yaml:"compression"`
}

// CompressionConfig configures Parquet compression.
type CompressionConfig struct {
	// Algorithm is the compression algorithm: snappy, zstd, lz4, gzip, none.
	Algorithm string `yaml:"algorithm"`

	// Level is the compression level (for zstd: 1-22).
	Level int `yaml:"level"`
}

// QueryConfig configures the DuckDB query service.
type QueryConfig struct {
	// MemoryLimit is the DuckDB memory limit, e.g. "2GB".
	MemoryLimit string `yaml:"memory_limit"`

	// Timeout is the query timeout.
	Timeout time.Duration `yaml:"timeout"`
}

// knownFormats are the supported artifact formats.
var knownFormats = map[string]bool{
	"csv":     true,
	"parquet": true,
	"feather": true,
}

// knownCompression are the supported Parquet compression algorithms.
var knownCompression = map[string]bool{
	"":       true,
	"none":   true,
	"snappy": true,
	"zstd":   true,
	"lz4":    true,
	"gzip":   true,
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		DataDir: "data/rainfall",
		Combine: CombineConfig{
			Strategy:  "eager",
			Workers:   combine.DefaultWorkers,
			ChunkSize: 8192,
		},
		Filter: FilterConfig{
			Pattern: combine.DefaultPattern,
			Exclude: append([]string(nil), combine.DefaultExcludes...),
		},
		Output: OutputConfig{
			Dir:     "out",
			Formats: []string{"csv", "parquet", "feather"},
			Compression: CompressionConfig{
				Algorithm: "zstd",
				Level:     3,
			},
		},
		Query: QueryConfig{
			MemoryLimit: "2GB",
			Timeout:     30 * time.Second,
		},
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	v := errors.NewValidationErrors()

	if c.DataDir == "" {
		v.AddMissing("data_dir")
	}
	if _, err := combine.ParseStrategy(c.Combine.Strategy); err != nil {
		v.AddField("combine.strategy", c.Combine.Strategy)
	}
	if c.Combine.Workers < 0 {
		v.AddField("combine.workers", "must not be negative")
	}
	if c.Combine.ChunkSize < 0 {
		v.AddField("combine.chunk_size", "must not be negative")
	}
	if c.Output.Dir == "" {
		v.AddMissing("output.dir")
	}
	for _, format := range c.Output.Formats {
		if !knownFormats[format] {
			v.AddField("output.formats", format)
		}
	}
	if !knownCompression[c.Output.Compression.Algorithm] {
		v.AddField("output.compression.algorithm", c.Output.Compression.Algorithm)
	}
	if c.Query.Timeout < 0 {
		v.AddField("query.timeout", "must not be negative")
	}

	return v.Err()
}

// CombineOptions converts the configuration into combiner options.
func (c *Config) CombineOptions() combine.Options {
	strategy, _ := combine.ParseStrategy(c.Combine.Strategy)
	return combine.Options{
		BaseDir:   c.DataDir,
		Strategy:  strategy,
		Workers:   c.Combine.Workers,
		ChunkSize: c.Combine.ChunkSize,
		Filter: combine.Filter{
			Pattern: c.Filter.Pattern,
			Exclude: c.Filter.Exclude,
		},
	}
}

// OutputPath returns the artifact path for a format.
func (c *Config) OutputPath(format string) string {
	return filepath.Join(c.Output.Dir, "combined_daily_rainfall."+format)
}

// EnsureOutputDir creates the output directory if needed.
func (c *Config) EnsureOutputDir() error {
	return os.MkdirAll(c.Output.Dir, 0755)
}
