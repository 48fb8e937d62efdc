package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/mrz1836/go-sanitize"
)

// Environment variable names.
const (
	EnvHome          = "LUMEN_HOME"
	EnvNetwork       = "LUMEN_NETWORK"
	EnvEndpoint      = "LUMEN_ENDPOINT"
	EnvLogLevel      = "LUMEN_LOG_LEVEL"
	EnvSessionTTL    = "LUMEN_SESSION_TTL"
	EnvClaimInterval = "LUMEN_CLAIM_INTERVAL"
)

// ApplyEnvironment applies environment variable overrides to the
// configuration.
func ApplyEnvironment(cfg *Config) {
	if v := os.Getenv(EnvHome); v != "" {
		cfg.Home = v
	}

	if v := os.Getenv(EnvNetwork); v != "" {
		cfg.Network.Name = strings.ToLower(strings.TrimSpace(v))
	}

	if v := os.Getenv(EnvEndpoint); v != "" {
		cfg.Network.Endpoint = SanitizeURL(v)
	}

	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}

	// LUMEN_SESSION_TTL sets session timeout in minutes
	if v := os.Getenv(EnvSessionTTL); v != "" {
		if ttl, err := strconv.Atoi(v); err == nil && ttl > 0 {
			cfg.Security.SessionTTLMinutes = ttl
		}
	}

	// LUMEN_CLAIM_INTERVAL sets the claim scan interval in seconds
	if v := os.Getenv(EnvClaimInterval); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.Claim.IntervalSeconds = secs
		}
	}
}

// SanitizeURL cleans a URL string by removing invalid characters and
// trimming whitespace. This is useful for cleaning user-provided
// endpoint URLs that may contain copy-paste artifacts.
func SanitizeURL(url string) string {
	return sanitize.URL(strings.TrimSpace(url))
}
