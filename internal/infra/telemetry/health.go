package telemetry

import "sync"

type HealthReport struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components,omitempty"`
}

// HealthTracker aggregates per-component status for the healthz endpoint.
// Any component reporting a non-"ok" status degrades the overall report.
type HealthTracker struct {
	mu         sync.RWMutex
	components map[string]string
}

func NewHealthTracker() *HealthTracker {
	return &HealthTracker{components: make(map[string]string)}
}

func (t *HealthTracker) SetComponent(name, status string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.components[name] = status
}

func (t *HealthTracker) Report() HealthReport {
	t.mu.RLock()
	defer t.mu.RUnlock()

	report := HealthReport{Status: "ok"}
	if len(t.components) == 0 {
		return report
	}
	report.Components = make(map[string]string, len(t.components))
	for name, status := range t.components {
		report.Components[name] = status
		if status != "ok" {
			report.Status = "degraded"
		}
	}
	return report
}
