package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ReverseTools/panda/pkg/trace"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default config failed validation: %v", err)
	}
	if cfg.BufferCapacity != trace.DefaultBufferCapacity {
		t.Errorf("Expected default buffer capacity %d, got %d", trace.DefaultBufferCapacity, cfg.BufferCapacity)
	}
	if cfg.CompressionType() != trace.NoCompression {
		t.Errorf("Expected no compression by default")
	}
	if len(cfg.Taint.ExcludePrefixes) == 0 {
		t.Errorf("Expected default taint exclusion prefixes")
	}
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.yaml")
	content := `value_log: /var/run/trace/memlog.bin
ledger: /var/run/trace/functions.log
buffer_capacity: 65536
compression: zstd
taint:
  exclude_prefixes:
    - /srv
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.ValueLog != "/var/run/trace/memlog.bin" {
		t.Errorf("value_log not applied: %q", cfg.ValueLog)
	}
	if cfg.BufferCapacity != 65536 {
		t.Errorf("buffer_capacity not applied: %d", cfg.BufferCapacity)
	}
	if cfg.CompressionType() != trace.ZstdCompression {
		t.Errorf("compression not applied: %q", cfg.Compression)
	}
	if len(cfg.Taint.ExcludePrefixes) != 1 || cfg.Taint.ExcludePrefixes[0] != "/srv" {
		t.Errorf("taint exclusions not applied: %v", cfg.Taint.ExcludePrefixes)
	}
	// Fields the file omits keep their defaults.
	if cfg.UnitsDB != "/tmp/trace-units.db" {
		t.Errorf("Expected default units_db, got %q", cfg.UnitsDB)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Errorf("Expected error for missing config file")
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("PANDA_TRACE_VALUE_LOG", "/data/memlog.bin")
	t.Setenv("PANDA_TRACE_BUFFER_CAPACITY", "4096")
	t.Setenv("PANDA_TRACE_COMPRESSION", "ZSTD")
	t.Setenv("PANDA_TRACE_TAINT_EXCLUDE", "/snap, /nix")

	cfg := FromEnvironment()
	if cfg.ValueLog != "/data/memlog.bin" {
		t.Errorf("PANDA_TRACE_VALUE_LOG not applied: %q", cfg.ValueLog)
	}
	if cfg.BufferCapacity != 4096 {
		t.Errorf("PANDA_TRACE_BUFFER_CAPACITY not applied: %d", cfg.BufferCapacity)
	}
	if cfg.Compression != "zstd" {
		t.Errorf("Expected compression lowered to zstd, got %q", cfg.Compression)
	}
	if len(cfg.Taint.ExcludePrefixes) != 2 || cfg.Taint.ExcludePrefixes[1] != "/nix" {
		t.Errorf("PANDA_TRACE_TAINT_EXCLUDE not applied: %v", cfg.Taint.ExcludePrefixes)
	}
}

func TestValidateRejectsBadConfigs(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"EmptyValueLog", func(c *Config) { c.ValueLog = "" }},
		{"EmptyLedger", func(c *Config) { c.Ledger = "" }},
		{"TinyBuffer", func(c *Config) { c.BufferCapacity = trace.EventSize - 1 }},
		{"UnknownCompression", func(c *Config) { c.Compression = "lz4" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Errorf("Expected validation error")
			}
		})
	}
}

func TestContextOptionsMapping(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Compression = "zstd"
	opts := cfg.ContextOptions()
	if opts.ValueLogPath != cfg.ValueLog || opts.LedgerPath != cfg.Ledger {
		t.Errorf("Paths not mapped: %+v", opts)
	}
	if opts.Compression != trace.ZstdCompression {
		t.Errorf("Compression not mapped")
	}
	if len(opts.Taint.ExcludePrefixes) != len(cfg.Taint.ExcludePrefixes) {
		t.Errorf("Taint options not mapped")
	}
}
