// Package config resolves the reference server's runtime configuration from
// environment variables, with flags (wired in cmd/mcp-server) overriding them.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds the external interface's environment-derived settings.
type Config struct {
	Host     string
	Port     int
	APIKey   string
	LogLevel string
}

// Load reads MCP_HOST, MCP_PORT, MCP_API_KEY, and MCP_LOG_LEVEL, applying
// the documented defaults for any that are unset.
func Load() (Config, error) {
	cfg := Config{
		Host:     getenv("MCP_HOST", "0.0.0.0"),
		Port:     3000,
		APIKey:   os.Getenv("MCP_API_KEY"),
		LogLevel: getenv("MCP_LOG_LEVEL", "info"),
	}

	if raw := os.Getenv("MCP_PORT"); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil {
			return Config{}, fmt.Errorf("config: MCP_PORT %q is not a valid integer: %w", raw, err)
		}
		cfg.Port = port
	}

	return cfg, nil
}

// Addr formats Host/Port as a net.Listen-compatible address.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
