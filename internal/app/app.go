// Package app wires the registry, dispatcher, sync loop and HTTP
// surfaces into a runnable daemon.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"mcpreg/internal/domain"
	"mcpreg/internal/infra/admin"
	"mcpreg/internal/infra/dispatch"
	"mcpreg/internal/infra/executor"
	"mcpreg/internal/infra/history"
	"mcpreg/internal/infra/registry"
	"mcpreg/internal/infra/syncer"
	"mcpreg/internal/infra/telemetry"
)

type App struct {
	logger *zap.Logger
}

type ServeOptions struct {
	ConfigPath string
}

func New(logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &App{logger: logger.Named("app")}
}

// Serve runs the daemon until ctx is canceled.
func (a *App) Serve(ctx context.Context, opts ServeOptions) error {
	cfg, err := LoadConfig(opts.ConfigPath, a.logger)
	if err != nil {
		return err
	}

	var metrics domain.Metrics
	if cfg.TelemetryEnabled {
		metrics = telemetry.NewPrometheusMetrics(nil)
	} else {
		metrics = telemetry.NewNoopMetrics()
	}

	reg := registry.New(cfg.StorePath, registry.Options{
		Logger:  a.logger,
		Metrics: metrics,
		Config:  cfg.Registry,
	})
	if err := reg.Load(); err != nil {
		return err
	}
	a.logger.Info("registry loaded",
		zap.String("store", cfg.StorePath),
		zap.Int("servers", len(reg.ListAll())),
	)

	var historyStore *history.Store
	if cfg.HistoryPath != "" {
		historyStore, err = history.Open(cfg.HistoryPath, history.Options{
			RetainedRecords: cfg.HistoryRetainedRecords,
		})
		if err != nil {
			return fmt.Errorf("open execution history: %w", err)
		}
		defer historyStore.Close()
	}

	exec, err := a.buildExecutor(cfg)
	if err != nil {
		return err
	}

	dispatchOpts := dispatch.Options{
		Logger:  a.logger,
		Metrics: metrics,
	}
	if historyStore != nil {
		dispatchOpts.History = historyStore
	}
	dispatcher := dispatch.New(reg, exec, dispatchOpts)

	syncClient := syncer.NewClient(syncer.ClientOptions{
		Logger:          a.logger,
		Timeout:         time.Duration(cfg.SyncTimeoutSeconds) * time.Second,
		DisableFallback: cfg.DisableFallback,
	})
	sync := syncer.New(reg, syncClient, syncer.Options{
		Logger:  a.logger,
		Metrics: metrics,
	})

	health := telemetry.NewHealthTracker()
	health.SetComponent("registry", "ok")

	// Probing always dials the target server directly, even when dispatch
	// runs against the mock executor.
	prober := executor.NewStreamableHTTP(executor.StreamableHTTPOptions{
		Logger:  a.logger,
		Timeout: time.Duration(cfg.ExecuteTimeoutSeconds) * time.Second,
	})

	adminOpts := admin.Options{
		Addr:       cfg.AdminListenAddress,
		Dispatcher: dispatcher,
		Refresher:  sync,
		Prober:     prober,
		Logger:     a.logger,
	}
	if historyStore != nil {
		adminOpts.History = historyStore
	}
	adminServer := admin.NewServer(reg, adminOpts)

	group, runCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return adminServer.Start(runCtx)
	})
	if cfg.TelemetryEnabled {
		group.Go(func() error {
			return telemetry.StartHTTPServer(runCtx, telemetry.HTTPServerOptions{
				Addr:   cfg.TelemetryListenAddress,
				Health: health,
			}, a.logger)
		})
	}
	if cfg.Registry.AutoRefresh {
		group.Go(func() error {
			a.runAutoRefresh(runCtx, sync, health, cfg.Registry.RefreshIntervalSeconds)
			return nil
		})
	}
	if cfg.WatchStore {
		group.Go(func() error {
			a.watchStore(runCtx, reg)
			return nil
		})
	}

	return group.Wait()
}

func (a *App) buildExecutor(cfg Config) (domain.Executor, error) {
	switch cfg.ExecutorMode {
	case ExecutorModeMock:
		return executor.NewMock(a.logger), nil
	case ExecutorModeStreamableHTTP:
		return executor.NewStreamableHTTP(executor.StreamableHTTPOptions{
			Logger:  a.logger,
			Timeout: time.Duration(cfg.ExecuteTimeoutSeconds) * time.Second,
		}), nil
	default:
		return nil, fmt.Errorf("unknown executor mode %q", cfg.ExecutorMode)
	}
}

func (a *App) runAutoRefresh(ctx context.Context, sync *syncer.Syncer, health *telemetry.HealthTracker, intervalSeconds int) {
	logger := a.logger.Named("auto_refresh")
	interval := time.Duration(intervalSeconds) * time.Second

	refresh := func() {
		refreshCtx, cancel := context.WithTimeout(ctx, interval)
		defer cancel()
		if _, err := sync.Refresh(refreshCtx); err != nil {
			logger.Warn("scheduled refresh failed", zap.Error(err))
			health.SetComponent("sync", "failing")
			return
		}
		health.SetComponent("sync", "ok")
	}

	refresh()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			refresh()
		}
	}
}

// ValidateConfig loads and validates the configuration without starting
// any listener.
func (a *App) ValidateConfig(_ context.Context, opts ServeOptions) error {
	cfg, err := LoadConfig(opts.ConfigPath, a.logger)
	if err != nil {
		return err
	}
	a.logger.Info("configuration validated",
		zap.String("config", opts.ConfigPath),
		zap.String("store", cfg.StorePath),
		zap.String("registry_url", cfg.Registry.URL),
		zap.String("executor", cfg.ExecutorMode),
	)
	return nil
}
