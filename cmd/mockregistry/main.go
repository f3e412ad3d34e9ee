package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mcpreg/internal/infra/mockregistry"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	addr := "127.0.0.1:8080"

	root := &cobra.Command{
		Use:   "mockregistry",
		Short: "Static MCP server catalog for local sync testing",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return serve(ctx, addr, logger)
		},
	}
	root.Flags().StringVar(&addr, "listen", addr, "listen address")

	if err := root.Execute(); err != nil {
		logger.Error("command failed", zap.Error(err))
		os.Exit(1)
	}
}

func serve(ctx context.Context, addr string, logger *zap.Logger) error {
	server := &http.Server{
		Addr:    addr,
		Handler: mockregistry.New(mockregistry.Options{Logger: logger}),
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Info("mock registry listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("mock registry failed to start: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}
