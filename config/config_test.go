package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allEnvKeys = []string{
	"WEBHUB_ENGINE_TEMPLATE",
	"WEBHUB_RESULT_LIMIT",
	"WEBHUB_BYTE_BUDGET",
	"WEBHUB_FETCH_URL_BUDGET",
	"WEBHUB_FETCH_TIMEOUT",
	"WEBHUB_SEARCH_TIMEOUT",
	"WEBHUB_SETTLE_DELAY",
	"WEBHUB_READY_TIMEOUT",
	"WEBHUB_CONTENT_MODE",
	"WEBHUB_CONCURRENCY",
	"WEBHUB_INVOCATION_TIMEOUT",
	"WEBHUB_CHROME_PATH",
	"WEBHUB_PROXY_URL",
	"WEBHUB_USER_AGENT",
	"WEBHUB_HEADLESS",
	"WEBHUB_ADDR",
	"WEBHUB_LOG_LEVEL",
	"WEBHUB_LOG_FORMAT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range allEnvKeys {
		t.Setenv(key, "")
	}
}

func TestLoad_AllDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DefaultEngineTemplate, cfg.Search.EngineTemplate)
	assert.Equal(t, 5, cfg.Search.ResultLimit)
	assert.Equal(t, 3000, cfg.Search.ByteBudget)
	assert.Equal(t, 10000, cfg.Search.FetchURLBudget)
	assert.Equal(t, 30*time.Second, cfg.Search.FetchTimeout)
	assert.Equal(t, 2*time.Second, cfg.Search.SettleDelay)
	assert.Equal(t, "text", cfg.Search.ContentMode)
	assert.Equal(t, 1, cfg.Search.Concurrency)
	assert.Zero(t, cfg.Search.InvocationTimeout)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, DefaultUserAgent, cfg.Browser.UserAgent)
	assert.Equal(t, ":8000", cfg.Server.Addr)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("WEBHUB_ENGINE_TEMPLATE", "https://www.bing.com/search?q={query}")
	t.Setenv("WEBHUB_RESULT_LIMIT", "8")
	t.Setenv("WEBHUB_BYTE_BUDGET", "512")
	t.Setenv("WEBHUB_FETCH_TIMEOUT", "12")
	t.Setenv("WEBHUB_SETTLE_DELAY", "750ms")
	t.Setenv("WEBHUB_HEADLESS", "false")
	t.Setenv("WEBHUB_CONCURRENCY", "3")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "https://www.bing.com/search?q={query}", cfg.Search.EngineTemplate)
	assert.Equal(t, 8, cfg.Search.ResultLimit)
	assert.Equal(t, 512, cfg.Search.ByteBudget)
	assert.Equal(t, 12*time.Second, cfg.Search.FetchTimeout)
	assert.Equal(t, 750*time.Millisecond, cfg.Search.SettleDelay)
	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, 3, cfg.Search.Concurrency)
}

func TestLoad_YAMLFileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "webhub.yaml")
	data := []byte(`
search:
  result_limit: 3
  fetch_timeout: 45s
  content_mode: readability
browser:
  proxy_url: socks5://127.0.0.1:9050
server:
  addr: 127.0.0.1:9000
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	t.Setenv("WEBHUB_RESULT_LIMIT", "4")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Search.ResultLimit, "env wins over file")
	assert.Equal(t, 45*time.Second, cfg.Search.FetchTimeout)
	assert.Equal(t, "readability", cfg.Search.ContentMode)
	assert.Equal(t, "socks5://127.0.0.1:9050", cfg.Browser.ProxyURL)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, 3000, cfg.Search.ByteBudget, "unset keys keep defaults")
}

func TestLoad_Errors(t *testing.T) {
	testCases := []struct {
		name string
		key  string
		val  string
	}{
		{"BadInt", "WEBHUB_RESULT_LIMIT", "many"},
		{"BadDuration", "WEBHUB_FETCH_TIMEOUT", "soon"},
		{"BadBool", "WEBHUB_HEADLESS", "perhaps"},
		{"ZeroLimit", "WEBHUB_RESULT_LIMIT", "0"},
		{"NoPlaceholder", "WEBHUB_ENGINE_TEMPLATE", "https://example.com/search"},
		{"NegativeSettle", "WEBHUB_SETTLE_DELAY", "-1s"},
		{"LimitAboveMax", "WEBHUB_RESULT_LIMIT", "300000000"},
		{"FetchTimeoutAboveMax", "WEBHUB_FETCH_TIMEOUT", "1h"},
		{"SettleAboveMax", "WEBHUB_SETTLE_DELAY", "10m"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tc.key, tc.val)

			_, err := Load("")
			require.Error(t, err)
		})
	}
}

func TestLoad_YAMLDurationsInSeconds(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "webhub.yaml")
	data := []byte(`
search:
  fetch_timeout: 45
  settle_delay: 1.5
  search_timeout: 20s
  result_limit: 7
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 45*time.Second, cfg.Search.FetchTimeout)
	assert.Equal(t, 1500*time.Millisecond, cfg.Search.SettleDelay)
	assert.Equal(t, 20*time.Second, cfg.Search.SearchTimeout)
	assert.Equal(t, 7, cfg.Search.ResultLimit)
	assert.Equal(t, 5*time.Second, cfg.Search.ReadyTimeout, "unset keys keep defaults")
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
