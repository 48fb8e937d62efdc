package config

// Defaults returns the default configuration.
func Defaults() *Config {
	return &Config{
		Version: 1,
		Home:    "~/.lumen",
		Network: NetworkConfig{
			Name: "regtest",
		},
		Security: SecurityConfig{
			MemoryLock:        true,
			SessionTTLMinutes: 30,
		},
		Claim: ClaimConfig{
			IntervalSeconds: 30,
		},
		Logging: LoggingConfig{
			Level: "error",
			File:  "~/.lumen/lumen.log",
		},
	}
}
