// Package config holds the runtime configuration for upstreamd.
//
// Configuration merges four sources, lowest precedence first: built-in
// defaults, a YAML config file, UPSTREAMD_* environment variables, and
// command-line flags (applied by the CLI layer).
package config

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults mirror the mock upstream service the gateway suite was
// originally tested against.
const (
	DefaultHost            = "127.0.0.1"
	DefaultPort            = 19876
	DefaultFragmentDelayMs = 10
	DefaultTimeoutHold     = 30
	DefaultShutdownTimeout = 5
)

// DefaultFragments is the canned streamed completion, one fragment per
// chunk. Concatenated they read "Hello from mock server".
func DefaultFragments() []string {
	return []string{"Hello", " from", " mock", " server"}
}

// Config is the root configuration document.
type Config struct {
	Server ServerConfig `json:"server" yaml:"server"`
	Stream StreamConfig `json:"stream" yaml:"stream"`
	Log    LogConfig    `json:"log" yaml:"log"`
}

// ServerConfig configures the listener and shutdown behavior.
// Timeouts are in seconds; zero disables the corresponding deadline.
type ServerConfig struct {
	Host            string `json:"host" yaml:"host"`
	Port            int    `json:"port" yaml:"port"`
	ReadTimeout     int    `json:"readTimeout,omitempty" yaml:"readTimeout,omitempty"`
	WriteTimeout    int    `json:"writeTimeout,omitempty" yaml:"writeTimeout,omitempty"`
	ShutdownTimeout int    `json:"shutdownTimeout" yaml:"shutdownTimeout"`
}

// StreamConfig configures the simulated streaming completion and the
// deliberate-timeout endpoint.
type StreamConfig struct {
	// Fragments are emitted one chunk each, in order.
	Fragments []string `json:"fragments" yaml:"fragments"`
	// FragmentDelayMs is the pause after each content chunk, in
	// milliseconds. It forces genuinely incremental delivery.
	FragmentDelayMs int `json:"fragmentDelayMs" yaml:"fragmentDelayMs"`
	// TimeoutHold is how long /error/timeout sits on a request before
	// answering, in seconds. It must exceed any client deadline used
	// against it.
	TimeoutHold int `json:"timeoutHold" yaml:"timeoutHold"`
}

// LogConfig configures CLI logging. Library embedders pass their own
// logger instead.
type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

// Default returns the canonical configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:            DefaultHost,
			Port:            DefaultPort,
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Stream: StreamConfig{
			Fragments:       DefaultFragments(),
			FragmentDelayMs: DefaultFragmentDelayMs,
			TimeoutHold:     DefaultTimeoutHold,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a YAML config file over the defaults. Unknown keys are
// rejected so typos fail loudly instead of silently falling back.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config file: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// Environment variable names recognized by FromEnv.
const (
	EnvHost      = "UPSTREAMD_HOST"
	EnvPort      = "UPSTREAMD_PORT"
	EnvLogLevel  = "UPSTREAMD_LOG_LEVEL"
	EnvLogFormat = "UPSTREAMD_LOG_FORMAT"
)

// FromEnv overlays UPSTREAMD_* environment variables onto cfg. Only
// variables that are set and well-formed take effect.
func FromEnv(cfg *Config) {
	if v := os.Getenv(EnvHost); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv(EnvPort); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		cfg.Log.Format = v
	}
}

// Validate reports the first configuration problem found.
func (c Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Server.Port)
	}
	if c.Server.ReadTimeout < 0 {
		return fmt.Errorf("readTimeout must not be negative, got %d", c.Server.ReadTimeout)
	}
	if c.Server.WriteTimeout < 0 {
		return fmt.Errorf("writeTimeout must not be negative, got %d", c.Server.WriteTimeout)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdownTimeout must be positive, got %d", c.Server.ShutdownTimeout)
	}
	if len(c.Stream.Fragments) == 0 {
		return fmt.Errorf("stream.fragments must not be empty")
	}
	if c.Stream.FragmentDelayMs < 0 {
		return fmt.Errorf("fragmentDelayMs must not be negative, got %d", c.Stream.FragmentDelayMs)
	}
	if c.Stream.TimeoutHold <= 0 {
		return fmt.Errorf("timeoutHold must be positive, got %d", c.Stream.TimeoutHold)
	}
	// A write deadline shorter than the hold would cut off the
	// deliberate-timeout response before it is sent.
	if c.Server.WriteTimeout > 0 && c.Server.WriteTimeout <= c.Stream.TimeoutHold {
		return fmt.Errorf("writeTimeout (%ds) must exceed timeoutHold (%ds)",
			c.Server.WriteTimeout, c.Stream.TimeoutHold)
	}
	return nil
}

// Save writes cfg as YAML, used by `upstreamd init` to emit a starter file.
func (c Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// FragmentDelay returns the inter-chunk pause as a duration.
func (c StreamConfig) FragmentDelay() time.Duration {
	return time.Duration(c.FragmentDelayMs) * time.Millisecond
}

// TimeoutHoldDuration returns the deliberate-timeout hold as a duration.
func (c StreamConfig) TimeoutHoldDuration() time.Duration {
	return time.Duration(c.TimeoutHold) * time.Second
}
