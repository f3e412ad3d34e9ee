package telemetry

import (
	"time"

	"mcpreg/internal/domain"
)

type NoopMetrics struct{}

func NewNoopMetrics() *NoopMetrics {
	return &NoopMetrics{}
}

func (n *NoopMetrics) ObserveDispatch(_ string, _ string, _ domain.DispatchOutcome, _ time.Duration) {
}

func (n *NoopMetrics) ObserveRegistryOp(_ string, _ error) {}

func (n *NoopMetrics) ObserveSync(_ int, _ int, _ bool, _ error) {}

func (n *NoopMetrics) SetServerCounts(_ int, _ int) {}

var _ domain.Metrics = (*NoopMetrics)(nil)
