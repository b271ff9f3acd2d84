package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/spgo/sharepoint-go/internal/config"
	"github.com/spgo/sharepoint-go/internal/spapi"
	"github.com/spgo/sharepoint-go/pkg/sharepoint"
)

// version is set at build time via ldflags.
var version = "dev"

// Global persistent flags, bound in newRootCmd().
var (
	flagConfigPath string
	flagSite       string
	flagLibrary    string
	flagJSON       bool
	flagVerbose    bool
	flagQuiet      bool
)

// resolvedCfg holds the effective configuration loaded by PersistentPreRunE.
// It is available to all subcommands after the root pre-run phase completes.
var resolvedCfg *config.Config

// newRootCmd builds and returns the fully-assembled root command with all
// subcommands registered. Called once from main().
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sharepoint-go",
		Short:   "SharePoint document library CLI",
		Long:    "A CLI client for SharePoint Online document libraries: upload, download, list, and inspect files.",
		Version: version,
		// Silence cobra's default error/usage printing; exitOnError handles it.
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return loadConfig()
		},
	}

	cmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "config file path")
	cmd.PersistentFlags().StringVar(&flagSite, "site", "", "site path segment (e.g. ps.all)")
	cmd.PersistentFlags().StringVar(&flagLibrary, "library", "", "document library (default \"Shared Documents\")")
	cmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output in JSON format")
	cmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	cmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "suppress informational output")

	// Register subcommands.
	cmd.AddCommand(newLsCmd())
	cmd.AddCommand(newFoldersCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newPutCmd())
	cmd.AddCommand(newMkdirCmd())
	cmd.AddCommand(newStatCmd())

	return cmd
}

// loadConfig resolves the effective configuration from the override chain
// and stores the result in resolvedCfg for use by subcommands.
func loadConfig() error {
	cli := config.CLIOverrides{
		ConfigPath: flagConfigPath,
		Site:       flagSite,
		Library:    flagLibrary,
	}

	env := config.ReadEnvOverrides()

	cfg, err := config.Resolve(env, cli)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	resolvedCfg = cfg

	return nil
}

// buildLogger creates an slog.Logger configured by the resolved config and
// CLI flags. Config-file log level provides the baseline; --verbose and
// --quiet override it because CLI flags always win.
func buildLogger() *slog.Logger {
	level := slog.LevelInfo

	if resolvedCfg != nil {
		switch resolvedCfg.Logging.LogLevel {
		case "debug":
			level = slog.LevelDebug
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		}
	}

	if flagVerbose {
		level = slog.LevelDebug
	}

	if flagQuiet {
		level = slog.LevelError
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// newClient authenticates against the configured site and returns a ready
// sharepoint.Client. App-method configs bypass user-credential auth with a
// pre-built ACS authorizer.
func newClient(ctx context.Context) (*sharepoint.Client, error) {
	logger := buildLogger()

	hc := &http.Client{Timeout: resolvedCfg.TimeoutDuration()}

	spCfg := sharepoint.Config{
		BaseURL:         resolvedCfg.BaseURL,
		Username:        resolvedCfg.Auth.Username,
		Password:        resolvedCfg.Auth.Password,
		SiteName:        resolvedCfg.Site,
		DocumentLibrary: resolvedCfg.DocumentLibrary,
	}

	opts := []sharepoint.Option{
		sharepoint.WithHTTPClient(hc),
		sharepoint.WithLogger(logger),
	}

	if resolvedCfg.Network.UserAgent != "" {
		opts = append(opts, sharepoint.WithUserAgent(resolvedCfg.Network.UserAgent))
	}

	if resolvedCfg.Auth.Method == config.AuthMethodApp {
		siteURL := resolvedCfg.BaseURL + "/sites/" + resolvedCfg.Site

		auth, err := spapi.NewAppAuthorizer(ctx, siteURL, spapi.AppCredentials{
			TenantID:     resolvedCfg.Auth.TenantID,
			ClientID:     resolvedCfg.Auth.ClientID,
			ClientSecret: resolvedCfg.Auth.ClientSecret,
		})
		if err != nil {
			return nil, fmt.Errorf("building app authorizer: %w", err)
		}

		opts = append(opts, sharepoint.WithAuthorizer(auth))
	}

	return sharepoint.New(ctx, spCfg, opts...)
}

// exitOnError prints a user-friendly error message to stderr and exits.
func exitOnError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
