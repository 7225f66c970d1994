// Package config loads capture configuration: output paths, buffer
// sizing, value-log compression, and the taint classifier's exclusion
// lists. Startup is the only configuration surface the tracer has.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ReverseTools/panda/pkg/taint"
	"github.com/ReverseTools/panda/pkg/trace"
)

// TaintConfig configures the path classifier for the syscall boundary.
type TaintConfig struct {
	ExcludePrefixes []string `yaml:"exclude_prefixes"`
	NoisyFiles      []string `yaml:"noisy_files"`
}

// Config is the full capture configuration.
type Config struct {
	// ValueLog is the binary dynamic value log output path.
	ValueLog string `yaml:"value_log"`
	// Ledger is the unit execution ledger output path.
	Ledger string `yaml:"ledger"`
	// UnitsDB is the unit definition store written at teardown.
	UnitsDB string `yaml:"units_db"`
	// BufferCapacity is the dynamic value buffer size in bytes.
	BufferCapacity int `yaml:"buffer_capacity"`
	// Compression is "none" or "zstd".
	Compression string `yaml:"compression"`
	// Taint holds the classifier exclusion lists.
	Taint TaintConfig `yaml:"taint"`
}

// DefaultConfig returns the configuration a bare capture runs with,
// mirroring the traditional /tmp output locations.
func DefaultConfig() Config {
	defaults := taint.DefaultClassifierOptions()
	return Config{
		ValueLog:       "/tmp/trace-memlog.bin",
		Ledger:         "/tmp/trace-functions.log",
		UnitsDB:        "/tmp/trace-units.db",
		BufferCapacity: trace.DefaultBufferCapacity,
		Compression:    "none",
		Taint: TaintConfig{
			ExcludePrefixes: defaults.ExcludePrefixes,
			NoisyFiles:      defaults.NoisyFiles,
		},
	}
}

// Load reads a YAML config file, applies defaults for unset fields,
// then applies environment overrides.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.applyEnvironment()
	return cfg, cfg.Validate()
}

// FromEnvironment returns the defaults with environment overrides
// applied, for hosts that embed the tracer without a config file.
func FromEnvironment() Config {
	cfg := DefaultConfig()
	cfg.applyEnvironment()
	return cfg
}

// applyEnvironment applies PANDA_TRACE_* overrides.
func (c *Config) applyEnvironment() {
	if v := os.Getenv("PANDA_TRACE_VALUE_LOG"); v != "" {
		c.ValueLog = v
	}
	if v := os.Getenv("PANDA_TRACE_LEDGER"); v != "" {
		c.Ledger = v
	}
	if v := os.Getenv("PANDA_TRACE_UNITS_DB"); v != "" {
		c.UnitsDB = v
	}
	if v := os.Getenv("PANDA_TRACE_BUFFER_CAPACITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.BufferCapacity = n
		}
	}
	if v := os.Getenv("PANDA_TRACE_COMPRESSION"); v != "" {
		c.Compression = strings.ToLower(v)
	}
	if v := os.Getenv("PANDA_TRACE_TAINT_EXCLUDE"); v != "" {
		prefixes := strings.Split(v, ",")
		for i, p := range prefixes {
			prefixes[i] = strings.TrimSpace(p)
		}
		c.Taint.ExcludePrefixes = prefixes
	}
}

// Validate rejects configurations the tracer cannot run with.
func (c Config) Validate() error {
	if c.ValueLog == "" {
		return fmt.Errorf("config: value_log path is required")
	}
	if c.Ledger == "" {
		return fmt.Errorf("config: ledger path is required")
	}
	if c.BufferCapacity < trace.EventSize {
		return fmt.Errorf("config: buffer_capacity %d cannot hold a single event", c.BufferCapacity)
	}
	if c.Compression != "none" && c.Compression != "zstd" {
		return fmt.Errorf("config: unknown compression %q", c.Compression)
	}
	return nil
}

// CompressionType maps the config string to the trace constant.
func (c Config) CompressionType() trace.CompressionType {
	if c.Compression == "zstd" {
		return trace.ZstdCompression
	}
	return trace.NoCompression
}

// ContextOptions builds the trace.ContextOptions this configuration
// describes.
func (c Config) ContextOptions() trace.ContextOptions {
	return trace.ContextOptions{
		ValueLogPath:   c.ValueLog,
		LedgerPath:     c.Ledger,
		BufferCapacity: c.BufferCapacity,
		Compression:    c.CompressionType(),
		Taint: taint.ClassifierOptions{
			ExcludePrefixes: c.Taint.ExcludePrefixes,
			NoisyFiles:      c.Taint.NoisyFiles,
		},
	}
}
