package app

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"mcpreg/internal/domain"
)

const (
	ExecutorModeMock           = "mock"
	ExecutorModeStreamableHTTP = "streamable-http"
)

// Config is the fully validated daemon configuration.
type Config struct {
	StorePath              string
	HistoryPath            string
	HistoryRetainedRecords int
	WatchStore             bool
	Registry               domain.RegistryConfig
	SyncTimeoutSeconds     int
	DisableFallback        bool
	ExecutorMode           string
	ExecuteTimeoutSeconds  int
	AdminListenAddress     string
	TelemetryEnabled       bool
	TelemetryListenAddress string
}

type rawConfig struct {
	StorePath              string `mapstructure:"storePath"`
	HistoryPath            string `mapstructure:"historyPath"`
	HistoryRetainedRecords int    `mapstructure:"historyRetainedRecords"`
	WatchStore             bool   `mapstructure:"watchStore"`
	Registry               struct {
		URL                    string `mapstructure:"url"`
		AutoRefresh            bool   `mapstructure:"autoRefresh"`
		RefreshIntervalSeconds int    `mapstructure:"refreshIntervalSeconds"`
	} `mapstructure:"registry"`
	Sync struct {
		TimeoutSeconds  int  `mapstructure:"timeoutSeconds"`
		DisableFallback bool `mapstructure:"disableFallback"`
	} `mapstructure:"sync"`
	Executor struct {
		Mode           string `mapstructure:"mode"`
		TimeoutSeconds int    `mapstructure:"timeoutSeconds"`
	} `mapstructure:"executor"`
	Admin struct {
		ListenAddress string `mapstructure:"listenAddress"`
	} `mapstructure:"admin"`
	Telemetry struct {
		Enabled       bool   `mapstructure:"enabled"`
		ListenAddress string `mapstructure:"listenAddress"`
	} `mapstructure:"telemetry"`
}

func newConfigViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	setConfigDefaults(v)
	return v
}

func setConfigDefaults(v *viper.Viper) {
	v.SetDefault("storePath", domain.DefaultStorePath)
	v.SetDefault("historyPath", domain.DefaultHistoryPath)
	v.SetDefault("historyRetainedRecords", domain.DefaultHistoryRetainedRecords)
	v.SetDefault("watchStore", true)
	v.SetDefault("registry.url", domain.DefaultRegistryURL)
	v.SetDefault("registry.autoRefresh", false)
	v.SetDefault("registry.refreshIntervalSeconds", domain.DefaultRefreshIntervalSeconds)
	v.SetDefault("sync.timeoutSeconds", domain.DefaultFetchTimeoutSeconds)
	v.SetDefault("sync.disableFallback", false)
	v.SetDefault("executor.mode", ExecutorModeMock)
	v.SetDefault("executor.timeoutSeconds", domain.DefaultExecuteTimeoutSeconds)
	v.SetDefault("admin.listenAddress", domain.DefaultAdminListenAddress)
	v.SetDefault("telemetry.enabled", true)
	v.SetDefault("telemetry.listenAddress", domain.DefaultTelemetryListenAddress)
}

// LoadConfig reads the daemon configuration. A missing file yields the
// defaults; a present but malformed file is an error.
func LoadConfig(path string, logger *zap.Logger) (Config, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	v := newConfigViper()
	if path != "" {
		file, err := os.Open(path)
		switch {
		case os.IsNotExist(err):
			logger.Info("config file not found, using defaults", zap.String("path", path))
		case err != nil:
			return Config{}, fmt.Errorf("open config %s: %w", path, err)
		default:
			defer file.Close()
			if err := v.ReadConfig(file); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	var raw rawConfig
	if err := v.Unmarshal(&raw); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return normalizeConfig(raw, logger)
}

func normalizeConfig(raw rawConfig, logger *zap.Logger) (Config, error) {
	cfg := Config{
		StorePath:              raw.StorePath,
		HistoryPath:            raw.HistoryPath,
		HistoryRetainedRecords: raw.HistoryRetainedRecords,
		WatchStore:             raw.WatchStore,
		Registry: domain.RegistryConfig{
			URL:                    raw.Registry.URL,
			AutoRefresh:            raw.Registry.AutoRefresh,
			RefreshIntervalSeconds: raw.Registry.RefreshIntervalSeconds,
		},
		SyncTimeoutSeconds:     raw.Sync.TimeoutSeconds,
		DisableFallback:        raw.Sync.DisableFallback,
		ExecutorMode:           strings.ToLower(strings.TrimSpace(raw.Executor.Mode)),
		ExecuteTimeoutSeconds:  raw.Executor.TimeoutSeconds,
		AdminListenAddress:     raw.Admin.ListenAddress,
		TelemetryEnabled:       raw.Telemetry.Enabled,
		TelemetryListenAddress: raw.Telemetry.ListenAddress,
	}

	if cfg.StorePath == "" {
		return Config{}, fmt.Errorf("storePath must not be empty")
	}
	if cfg.Registry.URL == "" {
		return Config{}, fmt.Errorf("registry.url must not be empty")
	}
	switch cfg.ExecutorMode {
	case ExecutorModeMock, ExecutorModeStreamableHTTP:
	default:
		return Config{}, fmt.Errorf("executor.mode must be %q or %q, got %q",
			ExecutorModeMock, ExecutorModeStreamableHTTP, raw.Executor.Mode)
	}

	if cfg.Registry.RefreshIntervalSeconds < domain.MinRefreshIntervalSeconds {
		logger.Warn("refresh interval below minimum, clamping",
			zap.Int("requested", cfg.Registry.RefreshIntervalSeconds),
			zap.Int("minimum", domain.MinRefreshIntervalSeconds),
		)
		cfg.Registry.RefreshIntervalSeconds = domain.MinRefreshIntervalSeconds
	}
	if cfg.SyncTimeoutSeconds <= 0 {
		cfg.SyncTimeoutSeconds = domain.DefaultFetchTimeoutSeconds
	}
	if cfg.ExecuteTimeoutSeconds <= 0 {
		cfg.ExecuteTimeoutSeconds = domain.DefaultExecuteTimeoutSeconds
	}
	return cfg, nil
}
