package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"mcpreg/internal/domain"
)

// Client is a typed wrapper over the admin API for the control CLI.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

type ClientOptions struct {
	HTTPClient *http.Client
}

func NewClient(baseURL string, opts ClientOptions) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: baseURL, httpClient: httpClient}
}

func (c *Client) ListServers(ctx context.Context, includeDisabled bool) ([]domain.ServerRecord, error) {
	query := url.Values{}
	if includeDisabled {
		query.Set("include_disabled", "true")
	}
	var resp serverListResponse
	if err := c.do(ctx, http.MethodGet, "/api/servers", query, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Servers, nil
}

func (c *Client) AddServer(ctx context.Context, req AddServerRequest) (domain.ServerRecord, error) {
	var record domain.ServerRecord
	err := c.do(ctx, http.MethodPost, "/api/servers", nil, req, &record)
	return record, err
}

func (c *Client) RemoveServer(ctx context.Context, name string) error {
	return c.do(ctx, http.MethodDelete, "/api/servers/"+url.PathEscape(name), nil, nil, nil)
}

func (c *Client) ServerDetail(ctx context.Context, name string) (ServerDetail, error) {
	var detail ServerDetail
	err := c.do(ctx, http.MethodGet, "/api/servers/"+url.PathEscape(name), nil, nil, &detail)
	return detail, err
}

func (c *Client) EnableServer(ctx context.Context, name string) (domain.ServerRecord, error) {
	var record domain.ServerRecord
	err := c.do(ctx, http.MethodPost, "/api/servers/"+url.PathEscape(name)+"/enable", nil, nil, &record)
	return record, err
}

func (c *Client) DisableServer(ctx context.Context, name string) (domain.ServerRecord, error) {
	var record domain.ServerRecord
	err := c.do(ctx, http.MethodPost, "/api/servers/"+url.PathEscape(name)+"/disable", nil, nil, &record)
	return record, err
}

func (c *Client) ListTools(ctx context.Context, serverName string) (ToolListResponse, error) {
	var resp ToolListResponse
	err := c.do(ctx, http.MethodGet, "/api/servers/"+url.PathEscape(serverName)+"/tools", nil, nil, &resp)
	return resp, err
}

func (c *Client) UpdateEnabledTools(ctx context.Context, serverName string, enabledTools []string) (ToolListResponse, error) {
	var resp ToolListResponse
	err := c.do(ctx, http.MethodPut, "/api/servers/"+url.PathEscape(serverName)+"/tools", nil,
		updateToolsRequest{EnabledTools: enabledTools}, &resp)
	return resp, err
}

func (c *Client) ProbeServer(ctx context.Context, name string) (ProbeResponse, error) {
	var resp ProbeResponse
	err := c.do(ctx, http.MethodPost, "/api/servers/"+url.PathEscape(name)+"/probe", nil, nil, &resp)
	return resp, err
}

func (c *Client) Refresh(ctx context.Context) (RefreshResponse, error) {
	var resp RefreshResponse
	err := c.do(ctx, http.MethodPost, "/api/refresh", nil, struct{}{}, &resp)
	return resp, err
}

func (c *Client) Status(ctx context.Context, includeDisabled bool) (StatusReport, error) {
	query := url.Values{}
	if includeDisabled {
		query.Set("include_disabled", "true")
	}
	var report StatusReport
	err := c.do(ctx, http.MethodGet, "/api/status", query, nil, &report)
	return report, err
}

func (c *Client) Analytics(ctx context.Context, includeDisabled bool) (AnalyticsReport, error) {
	query := url.Values{}
	if includeDisabled {
		query.Set("include_disabled", "true")
	}
	var report AnalyticsReport
	err := c.do(ctx, http.MethodGet, "/api/analytics", query, nil, &report)
	return report, err
}

func (c *Client) Schema(ctx context.Context, query SchemaQuery) (SchemaReport, error) {
	values := url.Values{}
	if query.ServerName != "" {
		values.Set("server", query.ServerName)
	}
	if query.ToolName != "" {
		values.Set("tool", query.ToolName)
	}
	if query.IncludeExamples {
		values.Set("include_examples", "true")
	}
	var report SchemaReport
	err := c.do(ctx, http.MethodGet, "/api/schema", values, nil, &report)
	return report, err
}

func (c *Client) RegistryConfig(ctx context.Context) (domain.RegistryConfig, error) {
	var config domain.RegistryConfig
	err := c.do(ctx, http.MethodGet, "/api/registry", nil, nil, &config)
	return config, err
}

func (c *Client) SetRegistryURL(ctx context.Context, registryURL string) (domain.RegistryConfig, error) {
	var config domain.RegistryConfig
	err := c.do(ctx, http.MethodPut, "/api/registry", nil, setRegistryRequest{URL: registryURL}, &config)
	return config, err
}

func (c *Client) Executions(ctx context.Context, limit int) ([]domain.ExecutionRecord, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	var resp executionListResponse
	if err := c.do(ctx, http.MethodGet, "/api/executions", query, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Executions, nil
}

func (c *Client) Dispatch(ctx context.Context, req domain.DispatchRequest) (domain.DispatchResult, error) {
	var result domain.DispatchResult
	err := c.do(ctx, http.MethodPost, "/api/dispatch", nil, req, &result)
	return result, err
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("admin API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr errorResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error.Message != "" {
			return domain.E(apiErr.Error.Code, "admin.client", apiErr.Error.Message, nil)
		}
		return fmt.Errorf("admin API returned HTTP %d", resp.StatusCode)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
