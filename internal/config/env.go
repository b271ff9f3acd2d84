package config

import "os"

// Environment variable names for overrides.
const (
	EnvConfig       = "SHAREPOINT_GO_CONFIG"
	EnvSite         = "SHAREPOINT_GO_SITE"
	EnvPassword     = "SHAREPOINT_GO_PASSWORD"
	EnvClientSecret = "SHAREPOINT_GO_CLIENT_SECRET"
)

// EnvOverrides holds values derived from environment variables.
type EnvOverrides struct {
	ConfigPath   string // SHAREPOINT_GO_CONFIG: override config file path
	Site         string // SHAREPOINT_GO_SITE: site path segment
	Password     string // SHAREPOINT_GO_PASSWORD: user password
	ClientSecret string // SHAREPOINT_GO_CLIENT_SECRET: app client secret
}

// ReadEnvOverrides reads environment variables and returns any overrides
// found. This does not modify the Config; Resolve applies the relevant fields.
func ReadEnvOverrides() EnvOverrides {
	return EnvOverrides{
		ConfigPath:   os.Getenv(EnvConfig),
		Site:         os.Getenv(EnvSite),
		Password:     os.Getenv(EnvPassword),
		ClientSecret: os.Getenv(EnvClientSecret),
	}
}
