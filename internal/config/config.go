// Package config provides configuration loading for ntstore.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"
)

// Load modes
const (
	ModeStrict  = "strict"
	ModeLenient = "lenient"
)

// Config represents the complete ntstore configuration
type Config struct {
	Storage StorageConfig `yaml:"storage"`
	Load    LoadConfig    `yaml:"load"`
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
}

// StorageConfig configures the BadgerDB store
type StorageConfig struct {
	// Path is the database directory
	Path string `yaml:"path"`
	// SyncWrites fsyncs every commit
	SyncWrites bool `yaml:"sync_writes"`
}

// LoadConfig configures bulk loading
type LoadConfig struct {
	// Mode is "strict" (stop at the first error) or "lenient" (skip bad statements)
	Mode string `yaml:"mode"`
	// Workers is the number of concurrent chunk parsers
	Workers int `yaml:"workers"`
	// BatchSize is the number of statements written per transaction
	BatchSize int `yaml:"batch_size"`
	// Patterns are doublestar globs selecting input files
	Patterns []string `yaml:"patterns"`
	// ChunkSize is the target size in bytes of a parse chunk
	ChunkSize int `yaml:"chunk_size"`
	// Debounce delays reloads after a file change
	Debounce time.Duration `yaml:"debounce"`
}

// ServerConfig configures the HTTP endpoint
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	// MaxBodyBytes limits the size of an ingested document
	MaxBodyBytes int64 `yaml:"max_body_bytes"`
}

// LogConfig configures logging
type LogConfig struct {
	// Level is one of debug, info, warn, error
	Level string `yaml:"level"`
	// Format is "text" or "json"
	Format string `yaml:"format"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			Path: "./data",
		},
		Load: LoadConfig{
			Mode:      ModeStrict,
			Workers:   runtime.GOMAXPROCS(0),
			BatchSize: 10000,
			Patterns:  []string{"**/*.nt"},
			ChunkSize: 1 << 20,
			Debounce:  500 * time.Millisecond,
		},
		Server: ServerConfig{
			Addr:         "localhost:8080",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
			MaxBodyBytes: 32 << 20,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Storage.Path == "" {
		return fmt.Errorf("storage.path is required")
	}
	if c.Load.Mode != ModeStrict && c.Load.Mode != ModeLenient {
		return fmt.Errorf("load.mode must be %q or %q, got %q", ModeStrict, ModeLenient, c.Load.Mode)
	}
	if c.Load.Workers < 1 {
		return fmt.Errorf("load.workers must be at least 1")
	}
	if c.Load.BatchSize < 1 {
		return fmt.Errorf("load.batch_size must be at least 1")
	}
	if c.Load.ChunkSize < 1 {
		return fmt.Errorf("load.chunk_size must be at least 1")
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error")
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("log.format must be text or json")
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Storage
	if other.Storage.Path != "" {
		c.Storage.Path = other.Storage.Path
	}
	if other.Storage.SyncWrites {
		c.Storage.SyncWrites = true
	}

	// Load
	if other.Load.Mode != "" {
		c.Load.Mode = other.Load.Mode
	}
	if other.Load.Workers != 0 {
		c.Load.Workers = other.Load.Workers
	}
	if other.Load.BatchSize != 0 {
		c.Load.BatchSize = other.Load.BatchSize
	}
	if len(other.Load.Patterns) > 0 {
		c.Load.Patterns = other.Load.Patterns
	}
	if other.Load.ChunkSize != 0 {
		c.Load.ChunkSize = other.Load.ChunkSize
	}
	if other.Load.Debounce != 0 {
		c.Load.Debounce = other.Load.Debounce
	}

	// Server
	if other.Server.Addr != "" {
		c.Server.Addr = other.Server.Addr
	}
	if other.Server.ReadTimeout != 0 {
		c.Server.ReadTimeout = other.Server.ReadTimeout
	}
	if other.Server.WriteTimeout != 0 {
		c.Server.WriteTimeout = other.Server.WriteTimeout
	}
	if other.Server.MaxBodyBytes != 0 {
		c.Server.MaxBodyBytes = other.Server.MaxBodyBytes
	}

	// Log
	if other.Log.Level != "" {
		c.Log.Level = other.Log.Level
	}
	if other.Log.Format != "" {
		c.Log.Format = other.Log.Format
	}
}
