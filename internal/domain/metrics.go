package domain

import "time"

// DispatchOutcome labels the terminal state of a dispatch for metrics.
type DispatchOutcome string

const (
	OutcomeSuccess          DispatchOutcome = "success"
	OutcomeServerNotFound   DispatchOutcome = "server_not_found"
	OutcomeServerDisabled   DispatchOutcome = "server_disabled"
	OutcomeToolNotFound     DispatchOutcome = "tool_not_found"
	OutcomeToolDisabled     DispatchOutcome = "tool_disabled"
	OutcomeInvalidArguments DispatchOutcome = "invalid_arguments"
	OutcomeExecutionFailed  DispatchOutcome = "execution_failed"
)

// Metrics receives operational observations from the core. Implementations
// must be safe for concurrent use.
type Metrics interface {
	ObserveDispatch(server, tool string, outcome DispatchOutcome, duration time.Duration)
	ObserveRegistryOp(op string, err error)
	ObserveSync(created, updated int, fallback bool, err error)
	SetServerCounts(total, enabled int)
}
