package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// configDirName is the subdirectory under the user config dir holding the
// default config file.
const configDirName = "sharepoint-go"

// DefaultConfigPath returns the platform default config file location,
// e.g. ~/.config/sharepoint-go/config.toml on Linux. Returns "" when the
// user config dir cannot be determined.
func DefaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}

	return filepath.Join(dir, configDirName, "config.toml")
}

// Load reads and parses a TOML config file and returns the resulting Config.
// Unknown keys are fatal errors: silently ignoring a typo in a config file
// leads to hard-to-debug behavior.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if err := checkUnknownKeys(&md); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	return cfg, nil
}

// LoadOrDefault reads a TOML config file if it exists, otherwise returns a
// Config populated with all default values. This supports running with
// nothing but flags and environment variables.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}

	return Load(path)
}

// Resolve loads configuration and applies the override chain:
// defaults -> config file -> environment variables -> CLI flags.
// The result is validated before being returned.
func Resolve(env EnvOverrides, cli CLIOverrides) (*Config, error) {
	// Config path: CLI > env > default.
	cfgPath := DefaultConfigPath()
	if env.ConfigPath != "" {
		cfgPath = env.ConfigPath
	}

	if cli.ConfigPath != "" {
		cfgPath = cli.ConfigPath
	}

	cfg, err := LoadOrDefault(cfgPath)
	if err != nil {
		return nil, err
	}

	// Environment overrides.
	if env.Site != "" {
		cfg.Site = env.Site
	}

	if env.Password != "" {
		cfg.Auth.Password = env.Password
	}

	if env.ClientSecret != "" {
		cfg.Auth.ClientSecret = env.ClientSecret
	}

	// CLI flags win over everything.
	if cli.Site != "" {
		cfg.Site = cli.Site
	}

	if cli.Library != "" {
		cfg.DocumentLibrary = cli.Library
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// checkUnknownKeys returns an error listing any keys in the TOML file that
// did not map to a known config field.
func checkUnknownKeys(md *toml.MetaData) error {
	undecoded := md.Undecoded()
	if len(undecoded) == 0 {
		return nil
	}

	keys := make([]string, 0, len(undecoded))
	for _, k := range undecoded {
		keys = append(keys, k.String())
	}

	return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
}
