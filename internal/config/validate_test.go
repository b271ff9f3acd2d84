package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validConfig returns a config that passes validation; tests mutate it.
func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.BaseURL = "https://contoso.sharepoint.com"
	cfg.Site = "ps.all"
	cfg.Auth.Username = "user@contoso.com"
	cfg.Auth.Password = "hunter2"

	return cfg
}

func TestValidate_OK(t *testing.T) {
	require.NoError(t, Validate(validConfig()))
}

func TestValidate_AppMethodOK(t *testing.T) {
	cfg := validConfig()
	cfg.Auth = AuthConfig{
		Method:       AuthMethodApp,
		ClientID:     "client",
		ClientSecret: "secret",
		TenantID:     "tenant",
	}

	require.NoError(t, Validate(cfg))
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantMsg string
	}{
		{"missing base_url", func(c *Config) { c.BaseURL = "" }, "base_url: required"},
		{"bad base_url scheme", func(c *Config) { c.BaseURL = "ftp://x" }, "must be an http(s) URL"},
		{"base_url not a URL", func(c *Config) { c.BaseURL = "not a url" }, "must be an http(s) URL"},
		{"missing site", func(c *Config) { c.Site = "" }, "site: required"},
		{"empty library", func(c *Config) { c.DocumentLibrary = "" }, "document_library"},
		{"bad auth method", func(c *Config) { c.Auth.Method = "token" }, "auth.method"},
		{"user method missing username", func(c *Config) { c.Auth.Username = "" }, "auth.username"},
		{"user method missing password", func(c *Config) { c.Auth.Password = "" }, "auth.password"},
		{
			"app method missing client_id",
			func(c *Config) { c.Auth = AuthConfig{Method: AuthMethodApp, ClientSecret: "s", TenantID: "t"} },
			"auth.client_id",
		},
		{
			"app method missing tenant_id",
			func(c *Config) { c.Auth = AuthConfig{Method: AuthMethodApp, ClientID: "c", ClientSecret: "s"} },
			"auth.tenant_id",
		},
		{"bad log level", func(c *Config) { c.Logging.LogLevel = "trace" }, "logging.log_level"},
		{"bad timeout", func(c *Config) { c.Network.Timeout = "fast" }, "network.timeout"},
		{"negative timeout", func(c *Config) { c.Network.Timeout = "-5s" }, "must not be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestValidate_AccumulatesAllErrors(t *testing.T) {
	cfg := DefaultConfig()

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "base_url: required")
	assert.Contains(t, err.Error(), "site: required")
	assert.Contains(t, err.Error(), "auth.username")
}

func TestTimeoutDuration(t *testing.T) {
	cfg := validConfig()
	assert.Equal(t, 30*time.Second, cfg.TimeoutDuration())

	cfg.Network.Timeout = "2m"
	assert.Equal(t, 2*time.Minute, cfg.TimeoutDuration())
}
