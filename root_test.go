package main

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spgo/sharepoint-go/internal/config"
)

func TestNewRootCmd_Subcommands(t *testing.T) {
	cmd := newRootCmd()

	want := []string{"ls", "folders", "get", "put", "mkdir", "stat"}
	for _, name := range want {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err, "subcommand %q must be registered", name)
		assert.Equal(t, name, sub.Name())
	}
}

func TestNewRootCmd_PersistentFlags(t *testing.T) {
	cmd := newRootCmd()

	for _, name := range []string{"config", "site", "library", "json", "verbose", "quiet"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), "flag --%s must exist", name)
	}

	assert.Equal(t, "v", cmd.PersistentFlags().Lookup("verbose").Shorthand)
	assert.Equal(t, "q", cmd.PersistentFlags().Lookup("quiet").Shorthand)
}

func TestBuildLogger_LevelSelection(t *testing.T) {
	origCfg := resolvedCfg
	origVerbose, origQuiet := flagVerbose, flagQuiet
	t.Cleanup(func() {
		resolvedCfg = origCfg
		flagVerbose, flagQuiet = origVerbose, origQuiet
	})

	resolvedCfg = config.DefaultConfig()
	flagVerbose, flagQuiet = false, false

	ctx := context.Background()

	logger := buildLogger()
	assert.True(t, logger.Enabled(ctx, slog.LevelInfo))
	assert.False(t, logger.Enabled(ctx, slog.LevelDebug))

	flagVerbose = true
	assert.True(t, buildLogger().Enabled(ctx, slog.LevelDebug))

	flagVerbose, flagQuiet = false, true
	quiet := buildLogger()
	assert.False(t, quiet.Enabled(ctx, slog.LevelWarn))
	assert.True(t, quiet.Enabled(ctx, slog.LevelError))
}
