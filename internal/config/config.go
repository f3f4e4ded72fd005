// Package config implements TOML configuration loading, validation, and
// platform-specific path resolution for halomcp. It supports a three-layer
// override chain (defaults -> config file -> environment) with strict
// unknown-key checking.
package config

import (
	"fmt"
	"time"
)

// Config is the top-level configuration structure parsed from a TOML file.
type Config struct {
	Portal  PortalConfig  `toml:"portal"`
	Session SessionConfig `toml:"session"`
	Paths   PathsConfig   `toml:"paths"`
	Logging LoggingConfig `toml:"logging"`
	Network NetworkConfig `toml:"network"`
	Server  ServerConfig  `toml:"server"`
}

// PortalConfig points at the learning platform endpoints.
type PortalConfig struct {
	BaseURL    string `toml:"base_url"`
	GatewayURL string `toml:"gateway_url"`
}

// SessionConfig controls the credential lifecycle behavior.
type SessionConfig struct {
	// AutoEstablish creates a browser session from the stored tokens at
	// startup so expired tokens can be renewed without operator action.
	AutoEstablish bool `toml:"auto_establish"`

	// WatchCredentials reloads the credential file when an external process
	// rewrites it.
	WatchCredentials bool `toml:"watch_credentials"`
}

// PathsConfig overrides the default on-disk locations.
type PathsConfig struct {
	Credentials string `toml:"credentials"`
	ClassCache  string `toml:"class_cache"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `toml:"level"`  // debug, info, warn, error
	Format string `toml:"format"` // text or json
}

// NetworkConfig controls the HTTP client.
type NetworkConfig struct {
	Timeout string `toml:"timeout"`
}

// ServerConfig controls the MCP surface.
type ServerConfig struct {
	Transport string `toml:"transport"` // stdio or http
	Listen    string `toml:"listen"`    // host:port for the http transport
}

// Defaults match the hosted GCU deployment so a token-only setup needs no
// config file at all.
const (
	defaultBaseURL    = "https://halo.gcu.edu"
	defaultGatewayURL = "https://gateway.halo.gcu.edu/sg/graphql"
	defaultTimeout    = "30s"
	defaultTransport  = "stdio"
	defaultListen     = "localhost:8712"
)

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() *Config {
	return &Config{
		Portal: PortalConfig{
			BaseURL:    defaultBaseURL,
			GatewayURL: defaultGatewayURL,
		},
		Session: SessionConfig{
			AutoEstablish:    true,
			WatchCredentials: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Network: NetworkConfig{
			Timeout: defaultTimeout,
		},
		Server: ServerConfig{
			Transport: defaultTransport,
			Listen:    defaultListen,
		},
	}
}

// HTTPTimeout parses the configured network timeout.
func (c *Config) HTTPTimeout() (time.Duration, error) {
	d, err := time.ParseDuration(c.Network.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid network.timeout %q: %w", c.Network.Timeout, err)
	}
	return d, nil
}

// Validate checks field values after decoding.
func Validate(c *Config) error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging.level %q (want debug, info, warn, or error)", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid logging.format %q (want text or json)", c.Logging.Format)
	}

	switch c.Server.Transport {
	case "stdio", "http":
	default:
		return fmt.Errorf("invalid server.transport %q (want stdio or http)", c.Server.Transport)
	}

	if c.Server.Transport == "http" && c.Server.Listen == "" {
		return fmt.Errorf("server.listen is required for the http transport")
	}

	if c.Portal.BaseURL == "" {
		return fmt.Errorf("portal.base_url must not be empty")
	}

	if c.Portal.GatewayURL == "" {
		return fmt.Errorf("portal.gateway_url must not be empty")
	}

	if _, err := c.HTTPTimeout(); err != nil {
		return err
	}

	return nil
}
