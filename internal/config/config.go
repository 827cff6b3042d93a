// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/Navyasridurga/docstring/internal/cloud"
	"github.com/Navyasridurga/docstring/internal/docstyle"
	"github.com/Navyasridurga/docstring/internal/export"
	"github.com/Navyasridurga/docstring/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete docgen configuration.
type Config struct {
	// Server settings for docgen serve
	Server ServerConfig `toml:"server" json:"server"`

	// Upstream AI gateway
	Gateway GatewayConfig `toml:"gateway" json:"gateway"`

	// Client settings for docgen generate
	Client ClientConfig `toml:"client" json:"client"`
}

// ServerConfig configures the generation endpoint server.
type ServerConfig struct {
	// Addr is the listen address, e.g. "127.0.0.1:8787"
	Addr string `toml:"addr" json:"addr"`

	// AllowedOrigins for CORS. "*" allows any origin.
	AllowedOrigins []string `toml:"allowed_origins" json:"allowed_origins"`

	// Per-client token bucket. A zero rate disables limiting.
	RateLimitRPS   float64 `toml:"rate_limit_rps" json:"rate_limit_rps"`
	RateLimitBurst int     `toml:"rate_limit_burst" json:"rate_limit_burst"`

	// MaxBodyBytes caps request bodies
	MaxBodyBytes int64 `toml:"max_body_bytes" json:"max_body_bytes"`

	// Timeouts in seconds. Zero write timeout leaves streams unbounded.
	ReadTimeoutSecs  int `toml:"read_timeout_secs" json:"read_timeout_secs"`
	WriteTimeoutSecs int `toml:"write_timeout_secs" json:"write_timeout_secs"`
}

// GatewayConfig configures the upstream chat completions gateway.
type GatewayConfig struct {
	URL         string `toml:"url" json:"url"`
	APIKey      string `toml:"api_key" json:"api_key"`
	Model       string `toml:"model" json:"model"`
	TimeoutSecs int    `toml:"timeout_secs" json:"timeout_secs"`
	MaxRetries  int    `toml:"max_retries" json:"max_retries"`
}

// ClientConfig configures docgen generate.
type ClientConfig struct {
	// Endpoint is the full URL of the generation endpoint
	Endpoint string `toml:"endpoint" json:"endpoint"`

	// Style is the default docstring style
	Style string `toml:"style" json:"style"`

	// NoColor disables terminal colors
	NoColor bool `toml:"no_color" json:"no_color"`

	// OutputDir is where saved files go
	OutputDir string `toml:"output_dir" json:"output_dir"`

	// Format is the default export format (py, patch, html, json)
	Format string `toml:"format" json:"format"`

	// Theme for the terminal UI and HTML reports ("dark" or "light")
	Theme string `toml:"theme" json:"theme"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// DefaultAddr is the default listen address of docgen serve.
const DefaultAddr = "127.0.0.1:8787"

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:             DefaultAddr,
			AllowedOrigins:   []string{"*"},
			RateLimitRPS:     2,
			RateLimitBurst:   5,
			MaxBodyBytes:     2 * 1024 * 1024,
			ReadTimeoutSecs:  15,
			WriteTimeoutSecs: 0,
		},

		Gateway: GatewayConfig{
			URL:         cloud.DefaultGatewayURL,
			Model:       cloud.DefaultModel,
			TimeoutSecs: int(cloud.DefaultTimeout / time.Second),
			MaxRetries:  cloud.DefaultMaxRetries,
		},

		Client: ClientConfig{
			Endpoint:  "http://" + DefaultAddr + "/generate-docstrings",
			Style:     docstyle.Default.String(),
			OutputDir: ".",
			Format:    string(export.FormatSource),
			Theme:     "dark",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the docgen configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".docgen"), nil
}

// ConfigPath returns the path to the default TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ensureSecurePermissions tightens a config file holding an API key to 0600.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode&0077 != 0 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load reads the config file at path, or the default path when empty.
// A missing default file is not an error. Environment overrides are
// applied last, then the result is validated.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := ConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	cfg := Default()
	if _, err := os.Stat(path); err == nil {
		if err := LoadFile(cfg, path); err != nil {
			return nil, err
		}
	} else if explicit || !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadFile decodes a TOML or JSON file (by extension) over cfg.
func LoadFile(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	if strings.HasSuffix(path, ".json") {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read JSON file: %w", err)
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to decode JSON file %s: %w", path, err)
		}
		return nil
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return ValidateErrors{{Field: keys[0], Message: "unknown key (" + strings.Join(keys, ", ") + ")"}}
	}
	return nil
}

// SetDefaults fills zero values that have no meaningful zero setting.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.Server.Addr == "" {
		c.Server.Addr = defaults.Server.Addr
	}
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = defaults.Server.AllowedOrigins
	}
	if c.Server.MaxBodyBytes == 0 {
		c.Server.MaxBodyBytes = defaults.Server.MaxBodyBytes
	}
	if c.Gateway.URL == "" {
		c.Gateway.URL = defaults.Gateway.URL
	}
	if c.Gateway.Model == "" {
		c.Gateway.Model = defaults.Gateway.Model
	}
	if c.Gateway.TimeoutSecs == 0 {
		c.Gateway.TimeoutSecs = defaults.Gateway.TimeoutSecs
	}
	if c.Client.Endpoint == "" {
		c.Client.Endpoint = defaults.Client.Endpoint
	}
	if c.Client.Style == "" {
		c.Client.Style = defaults.Client.Style
	}
	if c.Client.OutputDir == "" {
		c.Client.OutputDir = defaults.Client.OutputDir
	}
	if c.Client.Format == "" {
		c.Client.Format = defaults.Client.Format
	}
	if c.Client.Theme == "" {
		c.Client.Theme = defaults.Client.Theme
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides.
//
// Supported variables:
//   - DOCGEN_API_KEY: overrides gateway.api_key
//   - LOVABLE_API_KEY: used for gateway.api_key when DOCGEN_API_KEY is unset
//   - DOCGEN_GATEWAY_URL: overrides gateway.url
//   - DOCGEN_MODEL: overrides gateway.model
//   - DOCGEN_ADDR: overrides server.addr
//   - DOCGEN_ENDPOINT: overrides client.endpoint
//   - DOCGEN_STYLE: overrides client.style
//   - DOCGEN_RATE_LIMIT: overrides server.rate_limit_rps
//   - NO_COLOR: any non-empty value sets client.no_color
func (c *Config) ApplyEnvOverrides() {
	if key := os.Getenv("DOCGEN_API_KEY"); key != "" {
		c.Gateway.APIKey = key
	} else if key := os.Getenv("LOVABLE_API_KEY"); key != "" {
		c.Gateway.APIKey = key
	}

	if u := os.Getenv("DOCGEN_GATEWAY_URL"); u != "" {
		c.Gateway.URL = u
	}
	if model := os.Getenv("DOCGEN_MODEL"); model != "" {
		c.Gateway.Model = model
	}
	if addr := os.Getenv("DOCGEN_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
	if endpoint := os.Getenv("DOCGEN_ENDPOINT"); endpoint != "" {
		c.Client.Endpoint = endpoint
	}
	if style := os.Getenv("DOCGEN_STYLE"); style != "" {
		c.Client.Style = style
	}
	if rps := os.Getenv("DOCGEN_RATE_LIMIT"); rps != "" {
		if v, err := strconv.ParseFloat(rps, 64); err == nil {
			c.Server.RateLimitRPS = v
		}
	}
	if os.Getenv("NO_COLOR") != "" {
		c.Client.NoColor = true
	}
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save writes the configuration as TOML to path, or the default path when
// empty. The file is created 0600 since it may hold an API key.
func Save(cfg *Config, path string) error {
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return err
		}
		path = p
	}

	var buf bytes.Buffer
	fmt.Fprintln(&buf, "# docgen configuration file")
	fmt.Fprintln(&buf, "# Generated by docgen - edit with care")
	fmt.Fprintln(&buf, "")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFileWithDir(path, buf.Bytes(), 0600, 0700); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	// Server
	if c.Server.Addr == "" {
		errs = append(errs, ValidationError{Field: "server.addr", Message: "must not be empty"})
	}
	if c.Server.RateLimitRPS < 0 {
		errs = append(errs, ValidationError{Field: "server.rate_limit_rps", Message: "cannot be negative"})
	}
	if c.Server.RateLimitRPS > 0 && c.Server.RateLimitBurst < 1 {
		errs = append(errs, ValidationError{Field: "server.rate_limit_burst", Message: "must be at least 1 when rate limiting is enabled"})
	}
	if c.Server.MaxBodyBytes < 0 {
		errs = append(errs, ValidationError{Field: "server.max_body_bytes", Message: "cannot be negative"})
	}
	if c.Server.ReadTimeoutSecs < 0 || c.Server.WriteTimeoutSecs < 0 {
		errs = append(errs, ValidationError{Field: "server.read_timeout_secs", Message: "timeouts cannot be negative"})
	}
	for _, origin := range c.Server.AllowedOrigins {
		if origin == "*" {
			continue
		}
		if err := validateHTTPURL(origin); err != nil {
			errs = append(errs, ValidationError{Field: "server.allowed_origins", Message: fmt.Sprintf("invalid origin '%s': %v", origin, err)})
		}
	}

	// Gateway
	if err := validateHTTPURL(c.Gateway.URL); err != nil {
		errs = append(errs, ValidationError{Field: "gateway.url", Message: err.Error()})
	}
	if c.Gateway.TimeoutSecs < 0 {
		errs = append(errs, ValidationError{Field: "gateway.timeout_secs", Message: "cannot be negative"})
	}
	if c.Gateway.MaxRetries < 0 || c.Gateway.MaxRetries > 10 {
		errs = append(errs, ValidationError{Field: "gateway.max_retries", Message: "must be between 0 and 10"})
	}

	// Client
	if err := validateHTTPURL(c.Client.Endpoint); err != nil {
		errs = append(errs, ValidationError{Field: "client.endpoint", Message: err.Error()})
	}
	if _, err := docstyle.Parse(c.Client.Style); err != nil {
		errs = append(errs, ValidationError{Field: "client.style", Message: err.Error()})
	}
	if _, err := export.ParseFormat(c.Client.Format); err != nil {
		errs = append(errs, ValidationError{Field: "client.format", Message: err.Error()})
	}
	if t := strings.ToLower(c.Client.Theme); t != "" && t != "dark" && t != "light" {
		errs = append(errs, ValidationError{Field: "client.theme", Message: fmt.Sprintf("invalid theme '%s', must be one of: dark, light", c.Client.Theme)})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid URL '%s': scheme must be http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid URL '%s': missing host", raw)
	}
	return nil
}

// =============================================================================
// ACCESSORS
// =============================================================================

// ReadTimeout returns the server read timeout.
func (c *Config) ReadTimeout() time.Duration {
	return time.Duration(c.Server.ReadTimeoutSecs) * time.Second
}

// WriteTimeout returns the server write timeout; zero means none.
func (c *Config) WriteTimeout() time.Duration {
	return time.Duration(c.Server.WriteTimeoutSecs) * time.Second
}

// GatewayTimeout returns the upstream response header timeout.
func (c *Config) GatewayTimeout() time.Duration {
	return time.Duration(c.Gateway.TimeoutSecs) * time.Second
}

// Style returns the parsed client style. Validate has already accepted it.
func (c *Config) Style() docstyle.Style {
	s, err := docstyle.Parse(c.Client.Style)
	if err != nil {
		return docstyle.Default
	}
	return s
}

// Clone creates a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	if c.Server.AllowedOrigins != nil {
		clone.Server.AllowedOrigins = append([]string(nil), c.Server.AllowedOrigins...)
	}
	return &clone
}

// String returns the config as JSON with the API key redacted.
func (c *Config) String() string {
	safe := c.Clone()
	if safe.Gateway.APIKey != "" {
		safe.Gateway.APIKey = "[REDACTED]"
	}
	data, _ := json.MarshalIndent(safe, "", "  ")
	return string(data)
}
