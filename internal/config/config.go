// Package config implements TOML configuration loading, validation, and
// environment/CLI overrides for sharepoint-go. Overrides apply in a fixed
// chain: defaults -> config file -> environment -> CLI flags.
package config

// Config is the top-level configuration structure parsed from a TOML file.
type Config struct {
	// BaseURL is the tenant root, e.g. "https://contoso.sharepoint.com".
	BaseURL string `toml:"base_url"`
	// Site is the site path segment under /sites/.
	Site string `toml:"site"`
	// DocumentLibrary is the library all remote paths are relative to.
	DocumentLibrary string `toml:"document_library"`

	Auth    AuthConfig    `toml:"auth"`
	Logging LoggingConfig `toml:"logging"`
	Network NetworkConfig `toml:"network"`
}

// AuthConfig selects and parameterizes the authentication flow.
// Method "user" presents username/password to the security token service;
// method "app" uses ACS client-credentials OAuth.
type AuthConfig struct {
	Method   string `toml:"method"`
	Username string `toml:"username"`
	// Password may be left empty in the file and supplied via
	// SHAREPOINT_GO_PASSWORD instead, keeping secrets out of config files.
	Password     string `toml:"password"`
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	TenantID     string `toml:"tenant_id"`
}

// LoggingConfig controls log output behavior.
type LoggingConfig struct {
	LogLevel string `toml:"log_level"`
}

// NetworkConfig controls HTTP client behavior.
type NetworkConfig struct {
	Timeout   string `toml:"timeout"`
	UserAgent string `toml:"user_agent"`
}

// CLIOverrides holds values from CLI flags that override config file and
// environment settings. Empty fields mean "not specified".
type CLIOverrides struct {
	ConfigPath string
	Site       string
	Library    string
}

// Auth method names accepted in AuthConfig.Method.
const (
	AuthMethodUser = "user"
	AuthMethodApp  = "app"
)
