package executor

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"mcpreg/internal/domain"
	"mcpreg/internal/infra/schema"
)

// StreamableHTTP executes tool calls against a live MCP server over the
// streamable HTTP transport. A fresh session is dialed per call; callers
// needing connection reuse should front this with their own pooling.
type StreamableHTTP struct {
	logger  *zap.Logger
	client  *http.Client
	timeout time.Duration
	impl    *mcp.Implementation
}

type StreamableHTTPOptions struct {
	Logger     *zap.Logger
	HTTPClient *http.Client
	Timeout    time.Duration
}

func NewStreamableHTTP(opts StreamableHTTPOptions) *StreamableHTTP {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = time.Duration(domain.DefaultExecuteTimeoutSeconds) * time.Second
	}
	return &StreamableHTTP{
		logger:  logger.Named("streamable_http"),
		client:  client,
		timeout: timeout,
		impl:    &mcp.Implementation{Name: "mcpreg", Version: "dev"},
	}
}

func (e *StreamableHTTP) Execute(ctx context.Context, server domain.ServerRecord, tool string, arguments map[string]any) (map[string]any, error) {
	const op = "executor.call_tool"

	session, err := e.connect(ctx, server)
	if err != nil {
		return nil, domain.E(domain.CodeExecutionFailed, op, "", err)
	}
	defer func() { _ = session.Close() }()

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	res, err := session.CallTool(callCtx, &mcp.CallToolParams{
		Name:      tool,
		Arguments: arguments,
	})
	if err != nil {
		return nil, domain.E(domain.CodeExecutionFailed, op, "", err)
	}
	if res.IsError {
		return nil, domain.E(domain.CodeExecutionFailed, op, contentText(res.Content), nil)
	}
	return resultPayload(res), nil
}

// ListTools probes the server for its live tool catalog, flattening each
// input schema into the registry's parameter model.
func (e *StreamableHTTP) ListTools(ctx context.Context, server domain.ServerRecord) ([]domain.ToolDescriptor, error) {
	const op = "executor.list_tools"

	session, err := e.connect(ctx, server)
	if err != nil {
		return nil, domain.E(domain.CodeExecutionFailed, op, "", err)
	}
	defer func() { _ = session.Close() }()

	listCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	var tools []domain.ToolDescriptor
	params := &mcp.ListToolsParams{}
	for {
		res, err := session.ListTools(listCtx, params)
		if err != nil {
			return nil, domain.E(domain.CodeExecutionFailed, op, "", err)
		}
		for _, t := range res.Tools {
			inputSchema, _ := t.InputSchema.(*jsonschema.Schema)
			tools = append(tools, domain.ToolDescriptor{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  schema.FromJSONSchema(inputSchema),
			})
		}
		if res.NextCursor == "" {
			break
		}
		params = &mcp.ListToolsParams{Cursor: res.NextCursor}
	}
	return tools, nil
}

func (e *StreamableHTTP) connect(ctx context.Context, server domain.ServerRecord) (*mcp.ClientSession, error) {
	endpoint := strings.TrimSpace(server.URL)
	if endpoint == "" {
		return nil, errors.New("server url is required for streamable http execution")
	}

	transport := &mcp.StreamableClientTransport{
		Endpoint:   endpoint,
		HTTPClient: e.client,
	}
	client := mcp.NewClient(e.impl, nil)

	dialCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	session, err := client.Connect(dialCtx, transport, nil)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("session established", zap.String("server", server.Name), zap.String("endpoint", endpoint))
	return session, nil
}

func resultPayload(res *mcp.CallToolResult) map[string]any {
	if structured, ok := res.StructuredContent.(map[string]any); ok && structured != nil {
		return structured
	}
	payload := map[string]any{}
	if text := contentText(res.Content); text != "" {
		payload["content"] = text
	}
	return payload
}

func contentText(content []mcp.Content) string {
	var parts []string
	for _, c := range content {
		if tc, ok := c.(*mcp.TextContent); ok && tc.Text != "" {
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}

var _ domain.Executor = (*StreamableHTTP)(nil)
