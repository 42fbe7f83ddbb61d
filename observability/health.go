package observability

import (
	"context"
	"sync"
)

// HealthStatus is the state of one dependency or of the whole service.
type HealthStatus string

const (
	HealthStatusUp       HealthStatus = "up"
	HealthStatusDown     HealthStatus = "down"
	HealthStatusDegraded HealthStatus = "degraded"
)

// Health is the probed state of one dependency.
type Health struct {
	Name    string       `json:"name"`
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

// ServiceHealth aggregates dependency results. Down beats degraded.
type ServiceHealth struct {
	Service    string       `json:"service"`
	Status     HealthStatus `json:"status"`
	Version    string       `json:"version,omitempty"`
	Components []Health     `json:"components,omitempty"`
}

// Probe returns nil when the dependency can serve requests.
type Probe func(ctx context.Context) error

// Component is a dependency to probe. A failing optional component (the
// diarization sidecar, say) degrades the service instead of taking it down.
type Component struct {
	Name     string
	Optional bool
	Probe    Probe
}

// NewServiceHealth starts an aggregate in the up state.
func NewServiceHealth(service, version string) *ServiceHealth {
	return &ServiceHealth{Service: service, Status: HealthStatusUp, Version: version}
}

// AddComponent records a result and lowers the overall status if needed.
func (sh *ServiceHealth) AddComponent(h Health) {
	sh.Components = append(sh.Components, h)
	switch h.Status {
	case HealthStatusDown:
		sh.Status = HealthStatusDown
	case HealthStatusDegraded:
		if sh.Status != HealthStatusDown {
			sh.Status = HealthStatusDegraded
		}
	}
}

// Check runs every probe concurrently and returns the aggregate. Results
// keep the order components were given in.
func Check(ctx context.Context, service, version string, components ...Component) *ServiceHealth {
	results := make([]Health, len(components))
	var wg sync.WaitGroup
	for i, c := range components {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = probe(ctx, c)
		}()
	}
	wg.Wait()

	sh := NewServiceHealth(service, version)
	for _, h := range results {
		sh.AddComponent(h)
	}
	return sh
}

func probe(ctx context.Context, c Component) Health {
	h := Health{Name: c.Name, Status: HealthStatusUp}
	if c.Probe == nil {
		return h
	}
	if err := c.Probe(ctx); err != nil {
		h.Status = HealthStatusDown
		if c.Optional {
			h.Status = HealthStatusDegraded
		}
		h.Message = err.Error()
	}
	return h
}
