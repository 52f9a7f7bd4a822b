// Package config loads toycc's configuration from a toycc.yaml file,
// falling back to hard-coded defaults when no file is present. It mirrors
// the teacher's pkg/config in purpose (one place holding the constants
// the CLI and any long-running command share) but backs it with a real
// file format instead of a bare constant.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultServeAddr is the address `toycc serve` binds to absent an
// override, carried over from the teacher's DefaultPort convention
// (3000) so anyone used to the teacher's defaults sees a familiar port.
const DefaultServeAddr = ":3000"

// Config is toycc's full runtime configuration, loaded from toycc.yaml.
type Config struct {
	// LogLevel is one of "debug", "info", "warn", "error".
	LogLevel string `yaml:"log_level"`
	// LogFormat is "text" or "json".
	LogFormat string `yaml:"log_format"`

	// ServeAddr is the bind address for `toycc serve`.
	ServeAddr string `yaml:"serve_addr"`
	// MetricsPath is the HTTP path `toycc serve` exposes Prometheus
	// metrics on.
	MetricsPath string `yaml:"metrics_path"`

	// CacheBackend selects the compile-cache tiers: "memory" uses the
	// in-process LRU alone, "redis" backs it with a Redis tier. The LRU
	// tier is always in use; no value turns caching off.
	CacheBackend string `yaml:"cache_backend"`
	// RedisAddr is used when CacheBackend is "redis".
	RedisAddr string `yaml:"redis_addr"`
	// CacheCapacity bounds the in-memory LRU tier's entry count.
	CacheCapacity int `yaml:"cache_capacity"`

	// StorePath is the sqlite database file the compile audit log is
	// written to.
	StorePath string `yaml:"store_path"`

	// TracingEndpoint is an OTLP/gRPC collector address `toycc serve`
	// exports spans to; when empty, spans go to the stdout exporter.
	TracingEndpoint string `yaml:"tracing_endpoint"`
}

// Default returns toycc's built-in configuration, used whenever no
// toycc.yaml is found.
func Default() *Config {
	return &Config{
		LogLevel:      "info",
		LogFormat:     "text",
		ServeAddr:     DefaultServeAddr,
		MetricsPath:   "/metrics",
		CacheBackend:  "memory",
		RedisAddr:     "localhost:6379",
		CacheCapacity: 256,
		StorePath:     "toycc.db",
	}
}

// Load reads and parses a toycc.yaml file at path, filling in any field
// the file omits with Default's value. A missing file is not an error:
// Load returns Default() unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	overlay := *cfg
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return &overlay, nil
}
