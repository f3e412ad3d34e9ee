// Package syncer pulls server listings from the remote registry and folds
// them into the local store.
package syncer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"mcpreg/internal/domain"
	"mcpreg/internal/infra/registry"
)

// Client fetches remote registry listings. When the registry is
// unreachable it substitutes a fixed fallback descriptor set so the
// agent-facing flow keeps working offline; production deployments disable
// the fallback and get a typed SyncFailed instead.
type Client struct {
	httpClient      *http.Client
	logger          *zap.Logger
	fallback        []domain.RemoteServerDescriptor
	disableFallback bool
}

type ClientOptions struct {
	HTTPClient      *http.Client
	Logger          *zap.Logger
	Timeout         time.Duration
	Fallback        []domain.RemoteServerDescriptor
	DisableFallback bool
}

func NewClient(opts ClientOptions) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = time.Duration(domain.DefaultFetchTimeoutSeconds) * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	fallback := opts.Fallback
	if fallback == nil && !opts.DisableFallback {
		fallback = FallbackServers()
	}
	return &Client{
		httpClient:      httpClient,
		logger:          logger.Named("registry_client"),
		fallback:        fallback,
		disableFallback: opts.DisableFallback,
	}
}

type remoteListing struct {
	Servers []domain.RemoteServerDescriptor `json:"servers"`
}

// Fetch GETs the registry listing. The bool result reports whether the
// returned descriptors came from the fallback set.
func (c *Client) Fetch(ctx context.Context, url string) ([]domain.RemoteServerDescriptor, bool, error) {
	const op = "syncer.fetch"

	servers, err := c.fetchRemote(ctx, url)
	if err == nil {
		c.logger.Info("registry fetched", zap.String("url", url), zap.Int("servers", len(servers)))
		return servers, false, nil
	}

	if c.disableFallback {
		return nil, false, domain.E(domain.CodeSyncFailed, op, "", err)
	}
	c.logger.Warn("registry fetch failed, using fallback data",
		zap.String("error_code", string(domain.CodeSyncFailed)),
		zap.String("url", url),
		zap.Int("fallback_servers", len(c.fallback)),
		zap.Error(err),
	)
	return c.fallback, true, nil
}

func (c *Client) fetchRemote(ctx context.Context, url string) ([]domain.RemoteServerDescriptor, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch registry: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("registry returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read registry response: %w", err)
	}
	var listing remoteListing
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, fmt.Errorf("parse registry response: %w", err)
	}
	return listing.Servers, nil
}

// Syncer drives refresh cycles: fetch outside the registry lock, then
// reconcile and persist under it.
type Syncer struct {
	registry *registry.Registry
	client   *Client
	logger   *zap.Logger
	metrics  domain.Metrics
}

type Options struct {
	Logger  *zap.Logger
	Metrics domain.Metrics
}

func New(reg *registry.Registry, client *Client, opts Options) *Syncer {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Syncer{
		registry: reg,
		client:   client,
		logger:   logger.Named("syncer"),
		metrics:  opts.Metrics,
	}
}

// Refresh fetches the remote listing and reconciles it into the registry,
// returning the updated full server list. An unreachable registry is
// absorbed by the fallback (logged as a failed registry operation); a
// reconcile or persist failure after a successful fetch propagates.
func (s *Syncer) Refresh(ctx context.Context) ([]domain.ServerRecord, error) {
	servers, fromFallback, err := s.client.Fetch(ctx, s.registry.Config().URL)
	if err != nil {
		s.observe(0, 0, false, err)
		return nil, err
	}

	result, err := s.registry.Reconcile(servers)
	if err != nil {
		s.observe(result.Created, result.Updated, fromFallback, err)
		return nil, domain.Wrap(domain.CodeSyncFailed, "syncer.refresh", err)
	}

	s.observe(result.Created, result.Updated, fromFallback, nil)
	s.logger.Info("registry refresh completed",
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Bool("fallback", fromFallback),
	)
	return s.registry.ListAll(), nil
}

func (s *Syncer) observe(created, updated int, fallback bool, err error) {
	if s.metrics != nil {
		s.metrics.ObserveSync(created, updated, fallback, err)
	}
}

// FallbackServers is the development dataset substituted when the remote
// registry cannot be reached.
func FallbackServers() []domain.RemoteServerDescriptor {
	return []domain.RemoteServerDescriptor{
		{
			Name:        "github-mcp",
			URL:         "https://github.com/modelcontextprotocol/servers/github",
			Description: "GitHub integration for MCP",
			Tags:        []string{"version-control", "collaboration"},
			Tools:       []string{"create_issue", "get_repository", "search_code"},
		},
		{
			Name:        "slack-mcp",
			URL:         "https://github.com/modelcontextprotocol/servers/slack",
			Description: "Slack integration for MCP",
			Tags:        []string{"communication", "collaboration"},
			Tools:       []string{"send_message", "create_channel", "get_users"},
		},
		{
			Name:        "database-mcp",
			URL:         "https://github.com/modelcontextprotocol/servers/database",
			Description: "Database operations for MCP",
			Tags:        []string{"database", "sql"},
			Tools:       []string{"execute_query", "get_schema", "backup_database"},
		},
	}
}
