package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeConfig writes a TOML config file into a temp dir and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

const validTOML = `
base_url = "https://contoso.sharepoint.com"
site = "ps.all"

[auth]
username = "user@contoso.com"
password = "hunter2"
`

func TestLoad_Valid(t *testing.T) {
	cfg, err := Load(writeConfig(t, validTOML))
	require.NoError(t, err)

	assert.Equal(t, "https://contoso.sharepoint.com", cfg.BaseURL)
	assert.Equal(t, "ps.all", cfg.Site)
	assert.Equal(t, "user@contoso.com", cfg.Auth.Username)

	// Unset fields keep their defaults.
	assert.Equal(t, "Shared Documents", cfg.DocumentLibrary)
	assert.Equal(t, AuthMethodUser, cfg.Auth.Method)
	assert.Equal(t, "info", cfg.Logging.LogLevel)
	assert.Equal(t, "30s", cfg.Network.Timeout)
}

func TestLoad_UnknownKeyIsFatal(t *testing.T) {
	path := writeConfig(t, validTOML+"\nsite_nmae = \"typo\"\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown keys")
	assert.Contains(t, err.Error(), "site_nmae")
}

func TestLoad_MalformedTOML(t *testing.T) {
	_, err := Load(writeConfig(t, "base_url = "))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config file")
}

func TestLoadOrDefault_MissingFile(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "nonexistent.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestResolve_OverrideChain(t *testing.T) {
	path := writeConfig(t, `
base_url = "https://contoso.sharepoint.com"
site = "from-file"

[auth]
username = "user@contoso.com"
`)

	env := EnvOverrides{
		ConfigPath: path,
		Site:       "from-env",
		Password:   "env-secret",
	}
	cli := CLIOverrides{
		Site:    "from-cli",
		Library: "Other Library",
	}

	cfg, err := Resolve(env, cli)
	require.NoError(t, err)

	assert.Equal(t, "from-cli", cfg.Site, "CLI flags win over env and file")
	assert.Equal(t, "env-secret", cfg.Auth.Password)
	assert.Equal(t, "Other Library", cfg.DocumentLibrary)
}

func TestResolve_CLIConfigPathWinsOverEnv(t *testing.T) {
	cliPath := writeConfig(t, validTOML)
	envPath := writeConfig(t, `
base_url = "https://other.sharepoint.com"
site = "other"

[auth]
username = "x@y.com"
password = "p"
`)

	cfg, err := Resolve(EnvOverrides{ConfigPath: envPath}, CLIOverrides{ConfigPath: cliPath})
	require.NoError(t, err)
	assert.Equal(t, "ps.all", cfg.Site)
}

func TestResolve_InvalidConfigRejected(t *testing.T) {
	path := writeConfig(t, `site = "no-base-url"`)

	_, err := Resolve(EnvOverrides{ConfigPath: path}, CLIOverrides{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config validation failed")
}
