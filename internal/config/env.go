package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables that override the config file.
const (
	EnvConfigDir   = "W3GIVEAWAY_CONFIG_DIR"
	EnvNetwork     = "W3GIVEAWAY_NETWORK"
	EnvContract    = "W3GIVEAWAY_CONTRACT"
	EnvProvider    = "W3GIVEAWAY_PROVIDER"
	EnvProviderURL = "W3GIVEAWAY_PROVIDER_URL"
	EnvLogLevel    = "W3GIVEAWAY_LOG_LEVEL"
	EnvAuthRefresh = "W3GIVEAWAY_AUTH_REFRESH_SECONDS"
)

// LoadDotEnv loads .env and then .env.local from the working directory.
// Missing files are not an error.
func LoadDotEnv() {
	_ = godotenv.Load()
	_ = godotenv.Overload(".env.local")
}

// ApplyEnv overlays non-empty environment values onto c. getenv defaults to
// os.Getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if getenv == nil {
		getenv = os.Getenv
	}
	if v := strings.TrimSpace(getenv(EnvNetwork)); v != "" {
		c.Network = strings.ToUpper(v)
	}
	if v := strings.TrimSpace(getenv(EnvContract)); v != "" {
		c.ContractAddress = v
	}
	if v := strings.TrimSpace(getenv(EnvProvider)); v != "" {
		c.Provider = strings.ToLower(v)
	}
	if v := strings.TrimSpace(getenv(EnvProviderURL)); v != "" {
		c.ProviderURL = v
	}
	if v := strings.TrimSpace(getenv(EnvLogLevel)); v != "" {
		c.Logging.Level = v
	}
	if v := strings.TrimSpace(getenv(EnvAuthRefresh)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.AuthRefreshSeconds = n
		}
	}
}
