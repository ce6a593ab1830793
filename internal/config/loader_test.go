package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validYAML = `
listen:
  addr: ":9000"
  writeTimeout: 3m
openid:
  authority: "https://login.example.com"
  clientId: "bff"
  clientSecret: "${BFFGATE_TEST_SECRET}"
  scope: [openid, email]
session:
  identityFile: /etc/bffgate/identity.txt
  sameSite: strict
refresh:
  maxRetries: 0
routes:
  - name: api
    prefix: /api/
    upstream: "http://orders.internal:8080"
    stripPrefix: true
  - prefix: /
    upstream: "http://frontend.internal:3000"
metrics:
  enabled: true
`

const validJSONC = `{
  // comments and trailing commas are allowed
  "openid": {
    "authority": "https://login.example.com",
    "clientId": "bff",
    "clientSecret": "${BFFGATE_TEST_SECRET}",
    "timeout": "10s",
  },
  "session": {"identity": "${BFFGATE_TEST_IDENTITY}"},
  "routes": [{"prefix": "/", "upstream": "https://frontend.internal"}],
}`

func writeFile(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoadConfig_YAML(t *testing.T) {
	t.Setenv("BFFGATE_TEST_SECRET", "s3cret")
	path := writeFile(t, "bffgate.yaml", validYAML)

	cfg, err := LoadConfig(path, LoadOptions{})
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Listen.Addr)
	assert.Equal(t, 3*time.Minute, cfg.Listen.WriteTimeout.Std())
	assert.Equal(t, "s3cret", cfg.OpenID.ClientSecret)
	assert.Equal(t, []string{"openid", "email"}, cfg.OpenID.Scope)
	assert.Equal(t, DefaultCallbackPath, cfg.OpenID.CallbackPath)
	assert.Equal(t, "strict", cfg.Session.SameSite)
	require.NotNil(t, cfg.Session.Secure)
	assert.True(t, *cfg.Session.Secure)
	require.NotNil(t, cfg.Refresh.MaxRetries)
	assert.Equal(t, 0, *cfg.Refresh.MaxRetries, "an explicit zero disables retries")
	assert.Equal(t, DefaultRefreshWindow, cfg.Refresh.Window.Std())
	require.Len(t, cfg.Routes, 2)
	assert.True(t, cfg.Routes[0].StripPrefix)
	assert.Equal(t, "/", cfg.Routes[1].Name)
	assert.Equal(t, DefaultMetricsAddr, cfg.Metrics.Addr)
	assert.Equal(t, DefaultLogLevel, cfg.Logging.Level)
}

func TestLoadConfig_JSONCWithEnvFile(t *testing.T) {
	envFile := writeFile(t, ".env", "BFFGATE_TEST_SECRET=from-dotenv\nBFFGATE_TEST_IDENTITY=AGE-SECRET-KEY-1EXAMPLE\n")
	path := writeFile(t, "bffgate.jsonc", validJSONC)
	t.Cleanup(func() {
		os.Unsetenv("BFFGATE_TEST_SECRET")
		os.Unsetenv("BFFGATE_TEST_IDENTITY")
	})

	cfg, err := LoadConfig(path, LoadOptions{EnvFiles: []string{envFile}})
	require.NoError(t, err)

	assert.Equal(t, "from-dotenv", cfg.OpenID.ClientSecret)
	assert.Equal(t, "AGE-SECRET-KEY-1EXAMPLE", cfg.Session.Identity)
	assert.Equal(t, 10*time.Second, cfg.OpenID.Timeout.Std())
	assert.Equal(t, DefaultListenAddr, cfg.Listen.Addr)
	require.NotNil(t, cfg.Refresh.MaxRetries)
	assert.Equal(t, DefaultMaxRetries, *cfg.Refresh.MaxRetries)
}

func TestLoadConfig_Errors(t *testing.T) {
	t.Setenv("BFFGATE_TEST_SECRET", "s3cret")

	tests := []struct {
		name      string
		path      func(t *testing.T) string
		opts      LoadOptions
		errorType string
	}{
		{
			name:      "missing file",
			path:      func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.yaml") },
			errorType: "io",
		},
		{
			name:      "missing env file",
			path:      func(t *testing.T) string { return writeFile(t, "bffgate.yaml", validYAML) },
			opts:      LoadOptions{EnvFiles: []string{"/nonexistent/.env"}},
			errorType: "env",
		},
		{
			name:      "unknown field",
			path:      func(t *testing.T) string { return writeFile(t, "bffgate.yaml", "listen:\n  port: 80\n") },
			errorType: "parse",
		},
		{
			name:      "bad duration",
			path:      func(t *testing.T) string { return writeFile(t, "bffgate.yaml", "refresh:\n  window: soon\n") },
			errorType: "parse",
		},
		{
			name:      "invalid configuration",
			path:      func(t *testing.T) string { return writeFile(t, "bffgate.yaml", "listen:\n  addr: \":80\"\n") },
			errorType: "validation",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(tt.path(t), tt.opts)
			require.Error(t, err)

			var cfgErr *ConfigurationError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.errorType, cfgErr.ErrorType)
			assert.Contains(t, cfgErr.DetailedError(), "Configuration Error")
		})
	}
}

func TestLoadConfig_SkipValidation(t *testing.T) {
	path := writeFile(t, "bffgate.yaml", "")

	cfg, err := LoadConfig(path, LoadOptions{SkipValidation: true})
	require.NoError(t, err)
	assert.Equal(t, GetDefaultConfig(), cfg)
}

func TestFormatFromPath(t *testing.T) {
	assert.Equal(t, FormatYAML, FormatFromPath("bffgate.yaml"))
	assert.Equal(t, FormatYAML, FormatFromPath("bffgate.yml"))
	assert.Equal(t, FormatJSONC, FormatFromPath("bffgate.JSON"))
	assert.Equal(t, FormatJSONC, FormatFromPath("/etc/bffgate.jsonc"))
}

func TestParse_UnsupportedFormat(t *testing.T) {
	_, err := Parse([]byte("{}"), "toml")
	assert.Error(t, err)
}
