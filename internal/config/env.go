package config

import "os"

// Environment variable names for overrides. The token variables themselves
// (HALO_AUTH_TOKEN and friends) are resolved by the auth package; these
// cover everything else.
const (
	EnvConfig     = "HALO_CONFIG"
	EnvBaseURL    = "HALO_BASE_URL"
	EnvGatewayURL = "HALO_GATEWAY_URL"
	EnvLogLevel   = "HALO_LOG_LEVEL"
	EnvTransport  = "MCP_TRANSPORT"
	EnvListen     = "MCP_LISTEN"
)

// EnvOverrides holds values derived from environment variables.
type EnvOverrides struct {
	ConfigPath string
	BaseURL    string
	GatewayURL string
	LogLevel   string
	Transport  string
	Listen     string
}

// ReadEnvOverrides reads environment variables and returns any overrides
// found. This does not modify the Config; Resolve applies the fields.
func ReadEnvOverrides() EnvOverrides {
	return EnvOverrides{
		ConfigPath: os.Getenv(EnvConfig),
		BaseURL:    os.Getenv(EnvBaseURL),
		GatewayURL: os.Getenv(EnvGatewayURL),
		LogLevel:   os.Getenv(EnvLogLevel),
		Transport:  os.Getenv(EnvTransport),
		Listen:     os.Getenv(EnvListen),
	}
}
