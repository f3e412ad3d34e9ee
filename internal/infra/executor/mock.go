// Package executor provides the tool-call backends behind the dispatcher.
// The dispatch contract only depends on domain.Executor; which backend is
// wired in is a deployment decision.
package executor

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"mcpreg/internal/domain"
)

// Mock fabricates deterministic responses keyed by tool name. Well-known
// tools get realistic canned payloads, everything else gets a generic
// echo. It exists so the agent-facing flow works offline and in tests;
// nothing in the dispatcher may rely on its shapes.
type Mock struct {
	logger *zap.Logger
}

func NewMock(logger *zap.Logger) *Mock {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Mock{logger: logger.Named("mock_executor")}
}

func (m *Mock) Execute(ctx context.Context, server domain.ServerRecord, tool string, arguments map[string]any) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.logger.Debug("mock execution",
		zap.String("server", server.Name),
		zap.String("tool", tool),
	)

	switch tool {
	case "create_issue":
		repo := stringArg(arguments, "repository", "owner/repo")
		return map[string]any{
			"issue_id":   12345,
			"issue_url":  fmt.Sprintf("https://github.com/%s/issues/12345", repo),
			"title":      stringArg(arguments, "title", ""),
			"status":     "open",
			"created_at": "2024-01-15T10:30:00Z",
		}, nil

	case "send_message":
		return map[string]any{
			"message_id": "1234567890.123456",
			"channel":    stringArg(arguments, "channel", "#general"),
			"timestamp":  "2024-01-15T10:30:00Z",
			"status":     "sent",
		}, nil

	case "execute_query":
		return map[string]any{
			"rows_affected":  3,
			"execution_time": "0.045s",
			"result": []map[string]any{
				{"id": 1, "name": "John Doe", "active": true},
				{"id": 2, "name": "Jane Smith", "active": true},
				{"id": 3, "name": "Bob Johnson", "active": true},
			},
		}, nil

	case "get_repository":
		repo := stringArg(arguments, "repository", "example-repo")
		return map[string]any{
			"name":        repo,
			"full_name":   fmt.Sprintf("owner/%s", repo),
			"description": "Example repository",
			"stars":       42,
			"forks":       7,
			"language":    "Go",
		}, nil

	case "search_code":
		return map[string]any{
			"total_count": 15,
			"results": []map[string]any{
				{"file": "src/main.go", "line": 25, "match": "func main() {"},
				{"file": "src/utils.go", "line": 12, "match": "package utils"},
				{"file": "main_test.go", "line": 5, "match": "func TestMain"},
			},
		}, nil

	default:
		return map[string]any{
			"status":         "executed",
			"tool":           tool,
			"server":         server.Name,
			"arguments":      arguments,
			"execution_time": "0.123s",
			"message":        fmt.Sprintf("Tool '%s' executed successfully on '%s'", tool, server.Name),
		}, nil
	}
}

func stringArg(arguments map[string]any, key, fallback string) string {
	if v, ok := arguments[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

var _ domain.Executor = (*Mock)(nil)
