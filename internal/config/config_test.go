package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/avheln/raintable/internal/combine"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.DataDir == "" {
		t.Error("expected default data_dir")
	}
	if cfg.Combine.Strategy != "eager" {
		t.Errorf("expected eager default strategy, got %s", cfg.Combine.Strategy)
	}
	if cfg.Combine.Workers <= 0 {
		t.Error("expected positive default workers")
	}
	if cfg.Combine.ChunkSize <= 0 {
		t.Error("expected positive default chunk_size")
	}
	if len(cfg.Output.Formats) != 3 {
		t.Errorf("expected 3 default formats, got %v", cfg.Output.Formats)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	// Invalid: empty data_dir
	cfg := DefaultConfig()
	cfg.DataDir = ""
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for empty data_dir")
	}

	// Invalid: unknown strategy
	cfg = DefaultConfig()
	cfg.Combine.Strategy = "lazy"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown strategy")
	}

	// Invalid: unknown format
	cfg = DefaultConfig()
	cfg.Output.Formats = []string{"csv", "orc"}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown format")
	}

	// Invalid: bad compression algorithm
	cfg = DefaultConfig()
	cfg.Output.Compression.Algorithm = "invalid"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for invalid compression algorithm")
	}

	// Invalid: negative workers
	cfg = DefaultConfig()
	cfg.Combine.Workers = -1
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for negative workers")
	}
}

func TestLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test.yaml")

	configContent := `
data_dir: /data/rainfall
combine:
  strategy: deferred
  defer_execution: true
  workers: 8
  chunk_size: 4096
filter:
  pattern: "*_daily_rainfall_*.csv"
  exclude: ["__MACOSX", "junk"]
output:
  dir: /data/out
  formats: [parquet, feather]
  compression:
    algorithm: snappy
    level: 0
query:
  memory_limit: 1GB
  timeout: 15s
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.DataDir != "/data/rainfall" {
		t.Errorf("expected data_dir=/data/rainfall, got %s", cfg.DataDir)
	}
	if cfg.Combine.Strategy != "deferred" {
		t.Errorf("expected strategy=deferred, got %s", cfg.Combine.Strategy)
	}
	if !cfg.Combine.DeferExecution {
		t.Error("expected defer_execution=true")
	}
	if cfg.Combine.Workers != 8 {
		t.Errorf("expected workers=8, got %d", cfg.Combine.Workers)
	}
	if len(cfg.Filter.Exclude) != 2 {
		t.Errorf("expected 2 excludes, got %v", cfg.Filter.Exclude)
	}
	if len(cfg.Output.Formats) != 2 {
		t.Errorf("expected 2 formats, got %v", cfg.Output.Formats)
	}
	if cfg.Query.Timeout != 15*time.Second {
		t.Errorf("expected timeout=15s, got %v", cfg.Query.Timeout)
	}
}

func TestLoadConfigInvalidFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	if err := os.WriteFile(configPath, []byte("invalid: yaml: content: ["), 0644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestCombineOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = "/data/rainfall"
	cfg.Combine.Strategy = "deferred"
	cfg.Combine.Workers = 6

	opts := cfg.CombineOptions()
	if opts.BaseDir != "/data/rainfall" {
		t.Errorf("expected base dir /data/rainfall, got %s", opts.BaseDir)
	}
	if opts.Strategy != combine.StrategyDeferred {
		t.Errorf("expected deferred strategy, got %v", opts.Strategy)
	}
	if opts.Workers != 6 {
		t.Errorf("expected 6 workers, got %d", opts.Workers)
	}
}

func TestOutputPath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Output.Dir = "/data/out"

	tests := []struct {
		format   string
		expected string
	}{
		{"csv", "/data/out/combined_daily_rainfall.csv"},
		{"parquet", "/data/out/combined_daily_rainfall.parquet"},
		{"feather", "/data/out/combined_daily_rainfall.feather"},
	}

	for _, tt := range tests {
		if got := cfg.OutputPath(tt.format); got != tt.expected {
			t.Errorf("OutputPath(%s): expected %s, got %s", tt.format, tt.expected, got)
		}
	}
}
