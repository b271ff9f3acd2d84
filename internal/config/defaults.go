package config

// Default values for configuration options. These are layer 0 of the
// override chain and work out of the box for the common tenant setup.
const (
	defaultDocumentLibrary = "Shared Documents"
	defaultAuthMethod      = AuthMethodUser
	defaultLogLevel        = "info"
	defaultTimeout         = "30s"
)

// DefaultConfig returns a Config populated with all default values.
// It is used both as the starting point for TOML decoding (so unset fields
// retain defaults) and as the fallback when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		DocumentLibrary: defaultDocumentLibrary,
		Auth: AuthConfig{
			Method: defaultAuthMethod,
		},
		Logging: LoggingConfig{
			LogLevel: defaultLogLevel,
		},
		Network: NetworkConfig{
			Timeout: defaultTimeout,
		},
	}
}
