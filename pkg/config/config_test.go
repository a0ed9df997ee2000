package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const validYAML = `
environment: test
storage:
  root: /tmp/snowroll-test
watchlist:
  stocks:
    AAPL:
      exchange: NYSE
      sector: tech
  etfs:
    SPY:
      exchange: NYSE
calendar:
  exchanges:
    NYSE:
      holidays:
        - "2026-12-25"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	require.NoError(t, err)

	require.Equal(t, "file", cfg.Storage.Backend)
	require.Equal(t, 30, cfg.Provider.RetentionDays)
	require.Equal(t, 7, cfg.Provider.SpanDays)
	require.Equal(t, 2, cfg.Provider.SafetyMarginDays)
	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, "memory", cfg.Cache.Backend)
	require.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadParsesWatchlistAttrs(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	require.NoError(t, err)

	aapl := cfg.Watchlist["stocks"]["AAPL"]
	require.Equal(t, "NYSE", aapl.Exchange)
	require.Equal(t, "tech", aapl.Extra["sector"])
}

func TestValidateRejectsEmptyWatchlist(t *testing.T) {
	yaml := `
environment: test
storage:
  root: /tmp/x
watchlist: {}
`
	_, err := Load(writeConfig(t, yaml))
	require.ErrorContains(t, err, "watchlist")
}

func TestValidateRejectsMissingExchange(t *testing.T) {
	yaml := `
environment: test
storage:
  root: /tmp/x
watchlist:
  stocks:
    AAPL: {}
`
	_, err := Load(writeConfig(t, yaml))
	require.ErrorContains(t, err, "exchange")
}

func TestValidateRejectsBadBackend(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	require.NoError(t, err)
	cfg.Storage.Backend = "s3"
	require.ErrorContains(t, cfg.Validate(), "storage.backend")
}

func TestValidateRejectsSpanBeyondRetention(t *testing.T) {
	yaml := validYAML + `
provider:
  retention_days: 5
  span_days: 7
`
	_, err := Load(writeConfig(t, yaml))
	require.ErrorContains(t, err, "span_days")
}

func TestLoadWithEnvOverridesRoot(t *testing.T) {
	t.Setenv("STORAGE_ROOT", "/var/lib/snowroll")
	cfg, err := LoadWithEnv(writeConfig(t, validYAML))
	require.NoError(t, err)
	require.Equal(t, "/var/lib/snowroll", cfg.Storage.Root)
}

func TestBackfillWindows(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	require.NoError(t, err)
	// 28 usable days at 7 per request.
	require.Equal(t, 4, cfg.BackfillWindows())

	cfg.Provider.SpanDays = 5
	require.Equal(t, 6, cfg.BackfillWindows())
}

func TestSymbolLookups(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	require.NoError(t, err)

	category, ok := cfg.Category("SPY")
	require.True(t, ok)
	require.Equal(t, "etfs", category)

	_, ok = cfg.Category("TSLA")
	require.False(t, ok)

	require.Equal(t, map[string]string{"AAPL": "stocks", "SPY": "etfs"}, cfg.Symbols())
}
