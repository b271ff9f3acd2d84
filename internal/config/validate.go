package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// validLogLevels are the accepted logging.log_level values.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks all configuration values and returns all errors found.
// It accumulates every error rather than stopping at the first, so users
// see a complete report and can fix all issues in one pass.
func Validate(cfg *Config) error {
	var errs []error

	errs = append(errs, validateConnection(cfg)...)
	errs = append(errs, validateAuth(&cfg.Auth)...)
	errs = append(errs, validateLogging(&cfg.Logging)...)
	errs = append(errs, validateNetwork(&cfg.Network)...)

	return errors.Join(errs...)
}

func validateConnection(cfg *Config) []error {
	var errs []error

	if cfg.BaseURL == "" {
		errs = append(errs, errors.New("base_url: required"))
	} else if u, err := url.Parse(cfg.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("base_url: must be an http(s) URL, got %q", cfg.BaseURL))
	}

	if cfg.Site == "" {
		errs = append(errs, errors.New("site: required"))
	}

	if cfg.DocumentLibrary == "" {
		errs = append(errs, errors.New("document_library: must not be empty"))
	}

	return errs
}

func validateAuth(a *AuthConfig) []error {
	var errs []error

	switch a.Method {
	case AuthMethodUser:
		if a.Username == "" {
			errs = append(errs, errors.New("auth.username: required for method \"user\""))
		}

		if a.Password == "" {
			errs = append(errs, fmt.Errorf("auth.password: required for method \"user\" (or set %s)", EnvPassword))
		}
	case AuthMethodApp:
		if a.ClientID == "" {
			errs = append(errs, errors.New("auth.client_id: required for method \"app\""))
		}

		if a.ClientSecret == "" {
			errs = append(errs, fmt.Errorf("auth.client_secret: required for method \"app\" (or set %s)", EnvClientSecret))
		}

		if a.TenantID == "" {
			errs = append(errs, errors.New("auth.tenant_id: required for method \"app\""))
		}
	default:
		errs = append(errs, fmt.Errorf("auth.method: must be %q or %q, got %q", AuthMethodUser, AuthMethodApp, a.Method))
	}

	return errs
}

func validateLogging(l *LoggingConfig) []error {
	if !validLogLevels[l.LogLevel] {
		return []error{fmt.Errorf("logging.log_level: must be debug, info, warn, or error, got %q", l.LogLevel)}
	}

	return nil
}

func validateNetwork(n *NetworkConfig) []error {
	var errs []error

	d, err := time.ParseDuration(n.Timeout)
	if err != nil {
		errs = append(errs, fmt.Errorf("network.timeout: invalid duration %q", n.Timeout))
	} else if d < 0 {
		errs = append(errs, fmt.Errorf("network.timeout: must not be negative, got %q", n.Timeout))
	}

	return errs
}

// TimeoutDuration returns the parsed network timeout. Call only after
// Validate has succeeded.
func (c *Config) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.Network.Timeout)
	if err != nil {
		return 0
	}

	return d
}
