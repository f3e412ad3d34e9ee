package domain

import (
	"context"
	"time"
)

// DispatchRequest is a single tool-call request as received from the
// agent-facing layer. Arguments arrive as a JSON object string.
type DispatchRequest struct {
	ServerName   string `json:"server_name"`
	ToolName     string `json:"tool_name"`
	Arguments    string `json:"arguments"`
	ValidateArgs bool   `json:"validate_args"`
	CallerID     string `json:"caller_id,omitempty"`
}

// DispatchResult is the uniform terminal shape of a dispatch. Exactly one
// of Result / Error is meaningful depending on Success; Message is always
// human readable and never a raw internal error dump.
type DispatchResult struct {
	Success       bool           `json:"success"`
	Server        string         `json:"server"`
	Tool          string         `json:"tool"`
	ArgumentsUsed map[string]any `json:"arguments_used,omitempty"`
	Result        map[string]any `json:"result,omitempty"`
	ErrorCode     ErrorCode      `json:"error_code,omitempty"`
	Error         string         `json:"error,omitempty"`
	Message       string         `json:"message"`
	DurationMs    int64          `json:"duration_ms"`
}

// ExecutionRecord is emitted once per dispatch terminal state, success or
// failure. It feeds both the structured log sink and the history store.
type ExecutionRecord struct {
	ID         string    `json:"id"`
	Server     string    `json:"server"`
	Tool       string    `json:"tool"`
	CallerID   string    `json:"caller_id,omitempty"`
	Success    bool      `json:"success"`
	StartedAt  time.Time `json:"started_at"`
	DurationMs int64     `json:"duration_ms"`
	ErrorCode  ErrorCode `json:"error_code,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// Executor performs the actual tool call against a server. The registry
// core treats it as a black box: real implementations speak the wire
// protocol, the default implementation fabricates deterministic responses.
type Executor interface {
	Execute(ctx context.Context, server ServerRecord, tool string, arguments map[string]any) (map[string]any, error)
}

// HistorySink receives execution records. Append failures must not fail
// the dispatch itself.
type HistorySink interface {
	Append(record ExecutionRecord) error
}
