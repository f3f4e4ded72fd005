package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, Validate(cfg))

	assert.Equal(t, "https://halo.gcu.edu", cfg.Portal.BaseURL)
	assert.Equal(t, "stdio", cfg.Server.Transport)
	assert.True(t, cfg.Session.AutoEstablish)

	timeout, err := cfg.HTTPTimeout()
	require.NoError(t, err)
	assert.Equal(t, "30s", timeout.String())
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[portal]
base_url = "https://halo.example.edu"

[logging]
level = "debug"

[server]
transport = "http"
listen = "localhost:9000"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://halo.example.edu", cfg.Portal.BaseURL)
	assert.Equal(t, "https://gateway.halo.gcu.edu/sg/graphql", cfg.Portal.GatewayURL, "unset keys keep defaults")
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "localhost:9000", cfg.Server.Listen)
}

func TestLoad_UnknownKeySuggestsClosest(t *testing.T) {
	path := writeConfig(t, `
[logging]
levle = "debug"
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown config key")
	assert.Contains(t, err.Error(), "logging.level")
}

func TestLoad_InvalidValues(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    string
	}{
		{"bad level", "[logging]\nlevel = \"loud\"\n", "logging.level"},
		{"bad format", "[logging]\nformat = \"xml\"\n", "logging.format"},
		{"bad transport", "[server]\ntransport = \"websocket\"\n", "server.transport"},
		{"bad timeout", "[network]\ntimeout = \"fast\"\n", "network.timeout"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestLoadOrDefault_MissingFile(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestResolve_EnvOverrides(t *testing.T) {
	env := EnvOverrides{
		BaseURL:   "https://halo.env.example",
		LogLevel:  "warn",
		Transport: "http",
		Listen:    "0.0.0.0:8712",
	}

	cfg, err := Resolve(env, filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, "https://halo.env.example", cfg.Portal.BaseURL)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "http", cfg.Server.Transport)
	assert.Equal(t, "0.0.0.0:8712", cfg.Server.Listen)
}

func TestResolve_EnvValidationFailure(t *testing.T) {
	_, err := Resolve(EnvOverrides{Transport: "carrier-pigeon"}, filepath.Join(t.TempDir(), "absent.toml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.transport")
}

func TestCredentialsPath(t *testing.T) {
	cfg := DefaultConfig()
	assert.Contains(t, cfg.CredentialsPath(), "credentials.json")

	cfg.Paths.Credentials = "/srv/halo/creds.json"
	assert.Equal(t, "/srv/halo/creds.json", cfg.CredentialsPath())

	home, err := os.UserHomeDir()
	require.NoError(t, err)
	cfg.Paths.Credentials = "~/creds.json"
	assert.Equal(t, filepath.Join(home, "creds.json"), cfg.CredentialsPath())
}

func TestEditDistance(t *testing.T) {
	assert.Equal(t, 0, editDistance("level", "level"))
	assert.Equal(t, 2, editDistance("levle", "level"))
	assert.Equal(t, 5, editDistance("", "porta"))
}
