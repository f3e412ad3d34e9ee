package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"mcpreg/internal/domain"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mcpreg.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	require.NoError(t, err)

	require.Equal(t, domain.DefaultStorePath, cfg.StorePath)
	require.Equal(t, domain.DefaultHistoryPath, cfg.HistoryPath)
	require.Equal(t, domain.DefaultRegistryURL, cfg.Registry.URL)
	require.False(t, cfg.Registry.AutoRefresh)
	require.Equal(t, domain.DefaultRefreshIntervalSeconds, cfg.Registry.RefreshIntervalSeconds)
	require.Equal(t, ExecutorModeMock, cfg.ExecutorMode)
	require.Equal(t, domain.DefaultAdminListenAddress, cfg.AdminListenAddress)
	require.True(t, cfg.TelemetryEnabled)
	require.True(t, cfg.WatchStore)
}

func TestLoadConfigFromFile(t *testing.T) {
	path := writeConfig(t, `
storePath: /var/lib/mcpreg/servers.json
historyPath: /var/lib/mcpreg/history.db
registry:
  url: http://registry.internal:8080/api/mcp-servers
  autoRefresh: true
  refreshIntervalSeconds: 900
sync:
  timeoutSeconds: 5
  disableFallback: true
executor:
  mode: streamable-http
  timeoutSeconds: 60
admin:
  listenAddress: 127.0.0.1:8200
telemetry:
  enabled: false
`)

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)
	require.Equal(t, "/var/lib/mcpreg/servers.json", cfg.StorePath)
	require.Equal(t, "http://registry.internal:8080/api/mcp-servers", cfg.Registry.URL)
	require.True(t, cfg.Registry.AutoRefresh)
	require.Equal(t, 900, cfg.Registry.RefreshIntervalSeconds)
	require.Equal(t, 5, cfg.SyncTimeoutSeconds)
	require.True(t, cfg.DisableFallback)
	require.Equal(t, ExecutorModeStreamableHTTP, cfg.ExecutorMode)
	require.Equal(t, 60, cfg.ExecuteTimeoutSeconds)
	require.Equal(t, "127.0.0.1:8200", cfg.AdminListenAddress)
	require.False(t, cfg.TelemetryEnabled)
}

func TestLoadConfigClampsRefreshInterval(t *testing.T) {
	path := writeConfig(t, `
registry:
  refreshIntervalSeconds: 30
`)

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)
	require.Equal(t, domain.MinRefreshIntervalSeconds, cfg.Registry.RefreshIntervalSeconds)
}

func TestLoadConfigRejectsUnknownExecutor(t *testing.T) {
	path := writeConfig(t, `
executor:
  mode: carrier-pigeon
`)

	_, err := LoadConfig(path, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "executor.mode")
}

func TestLoadConfigRejectsEmptyRegistryURL(t *testing.T) {
	path := writeConfig(t, `
registry:
  url: ""
`)

	_, err := LoadConfig(path, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "registry.url")
}

func TestLoadConfigRejectsMalformedYAML(t *testing.T) {
	path := writeConfig(t, "storePath: [unclosed")

	_, err := LoadConfig(path, nil)
	require.Error(t, err)
}
