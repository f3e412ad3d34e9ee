// Package dispatch turns a tool-call request into an executor invocation,
// walking the registry checks in a fixed order and emitting one execution
// record per terminal state.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"mcpreg/internal/domain"
	"mcpreg/internal/infra/registry"
	"mcpreg/internal/infra/schema"
)

type Dispatcher struct {
	registry *registry.Registry
	executor domain.Executor
	history  domain.HistorySink
	logger   *zap.Logger
	metrics  domain.Metrics
	clock    func() time.Time
	newID    func() string
}

type Options struct {
	History domain.HistorySink
	Logger  *zap.Logger
	Metrics domain.Metrics
	Clock   func() time.Time
	NewID   func() string
}

func New(reg *registry.Registry, exec domain.Executor, opts Options) *Dispatcher {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	newID := opts.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	return &Dispatcher{
		registry: reg,
		executor: exec,
		history:  opts.History,
		logger:   logger.Named("dispatch"),
		metrics:  opts.Metrics,
		clock:    clock,
		newID:    newID,
	}
}

// Dispatch runs the per-call state machine, terminal at the first failed
// check:
//
//	server lookup -> server enabled -> tool exists -> tool enabled ->
//	argument validation (when requested) -> execute.
//
// Calls to tools outside the server's enabled subset are rejected, not
// just hidden from discovery. Every terminal state, success or failure,
// emits exactly one execution record.
func (d *Dispatcher) Dispatch(ctx context.Context, req domain.DispatchRequest) domain.DispatchResult {
	call := d.begin(req)

	if req.ServerName == "" || req.ToolName == "" {
		return call.fail(domain.OutcomeInvalidArguments, domain.CodeInvalidArguments,
			"server_name and tool_name are required",
			"Both server_name and tool_name must be provided")
	}

	arguments, err := parseArguments(req.Arguments)
	if err != nil {
		return call.fail(domain.OutcomeInvalidArguments, domain.CodeInvalidArguments,
			fmt.Sprintf("invalid JSON in arguments: %v", err),
			"Arguments must be a valid JSON object")
	}
	call.arguments = arguments

	server, ok := d.registry.GetServer(req.ServerName)
	if !ok {
		return call.fail(domain.OutcomeServerNotFound, domain.CodeNotFound,
			fmt.Sprintf("server %q not found", req.ServerName),
			"The requested server is not registered")
	}

	if !server.Enabled {
		return call.fail(domain.OutcomeServerDisabled, domain.CodeDisabled,
			fmt.Sprintf("server %q is disabled", req.ServerName),
			"Enable the server before dispatching to it")
	}

	tool, ok := server.Tool(req.ToolName)
	if !ok {
		return call.fail(domain.OutcomeToolNotFound, domain.CodeNotFound,
			fmt.Sprintf("tool %q not found on server %q", req.ToolName, req.ServerName),
			"The requested tool is not available on this server")
	}

	if !server.ToolEnabled(req.ToolName) {
		return call.fail(domain.OutcomeToolDisabled, domain.CodeDisabled,
			fmt.Sprintf("tool %q is disabled on server %q", req.ToolName, req.ServerName),
			"Enable the tool before dispatching to it")
	}

	if req.ValidateArgs {
		if err := schema.Validate(arguments, tool.Parameters); err != nil {
			return call.fail(domain.OutcomeInvalidArguments, domain.CodeInvalidArguments,
				fmt.Sprintf("argument validation failed: %v", err),
				"Check the arguments against the tool schema")
		}
	}

	result, err := d.executor.Execute(ctx, server, req.ToolName, arguments)
	if err != nil {
		return call.fail(domain.OutcomeExecutionFailed, domain.CodeExecutionFailed,
			err.Error(),
			fmt.Sprintf("Failed to execute %s on %s", req.ToolName, req.ServerName))
	}

	return call.succeed(result)
}

func parseArguments(raw string) (map[string]any, error) {
	if raw == "" {
		return map[string]any{}, nil
	}
	var arguments map[string]any
	if err := json.Unmarshal([]byte(raw), &arguments); err != nil {
		return nil, err
	}
	if arguments == nil {
		arguments = map[string]any{}
	}
	return arguments, nil
}

// activeCall carries per-dispatch state until a terminal transition.
type activeCall struct {
	d         *Dispatcher
	req       domain.DispatchRequest
	id        string
	startedAt time.Time
	arguments map[string]any
}

func (d *Dispatcher) begin(req domain.DispatchRequest) *activeCall {
	return &activeCall{
		d:         d,
		req:       req,
		id:        d.newID(),
		startedAt: d.clock(),
	}
}

func (c *activeCall) succeed(result map[string]any) domain.DispatchResult {
	duration := c.d.clock().Sub(c.startedAt)
	c.d.finish(c, domain.OutcomeSuccess, "", "", duration)
	return domain.DispatchResult{
		Success:       true,
		Server:        c.req.ServerName,
		Tool:          c.req.ToolName,
		ArgumentsUsed: c.arguments,
		Result:        result,
		Message:       fmt.Sprintf("Successfully executed %s on %s", c.req.ToolName, c.req.ServerName),
		DurationMs:    duration.Milliseconds(),
	}
}

func (c *activeCall) fail(outcome domain.DispatchOutcome, code domain.ErrorCode, errMsg, message string) domain.DispatchResult {
	duration := c.d.clock().Sub(c.startedAt)
	c.d.finish(c, outcome, code, errMsg, duration)
	return domain.DispatchResult{
		Success:       false,
		Server:        c.req.ServerName,
		Tool:          c.req.ToolName,
		ArgumentsUsed: c.arguments,
		ErrorCode:     code,
		Error:         errMsg,
		Message:       message,
		DurationMs:    duration.Milliseconds(),
	}
}

func (d *Dispatcher) finish(c *activeCall, outcome domain.DispatchOutcome, code domain.ErrorCode, errMsg string, duration time.Duration) {
	record := domain.ExecutionRecord{
		ID:         c.id,
		Server:     c.req.ServerName,
		Tool:       c.req.ToolName,
		CallerID:   c.req.CallerID,
		Success:    outcome == domain.OutcomeSuccess,
		StartedAt:  c.startedAt,
		DurationMs: duration.Milliseconds(),
		ErrorCode:  code,
		Error:      errMsg,
	}

	fields := []zap.Field{
		zap.String("execution_id", record.ID),
		zap.String("server", record.Server),
		zap.String("tool", record.Tool),
		zap.String("caller_id", record.CallerID),
		zap.Bool("success", record.Success),
		zap.String("outcome", string(outcome)),
		zap.Int64("duration_ms", record.DurationMs),
	}
	if record.Success {
		d.logger.Info("tool executed", fields...)
	} else {
		fields = append(fields, zap.String("error", errMsg))
		d.logger.Warn("tool execution failed", fields...)
	}

	if d.metrics != nil {
		d.metrics.ObserveDispatch(record.Server, record.Tool, outcome, duration)
	}
	if d.history != nil {
		if err := d.history.Append(record); err != nil {
			// History is best effort; a full disk must not fail the call.
			d.logger.Error("append execution record", zap.Error(err))
		}
	}
}
