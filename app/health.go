package app

import (
	"context"
	"fmt"

	"github.com/kbukum/samuelizer/observability"
	"github.com/kbukum/samuelizer/server/endpoint"
)

// Health probes the cache store and the diarization sidecar. An
// unreachable sidecar only degrades the service since diarization is
// optional per request.
func (a *App) Health(ctx context.Context) *observability.ServiceHealth {
	var components []observability.Component
	if a.Cache != nil {
		components = append(components, observability.Component{
			Name: "cache",
			Probe: func(ctx context.Context) error {
				_, err := a.Cache.Stats(ctx)
				return err
			},
		})
	}
	if a.Diarizer != nil {
		components = append(components, observability.Component{
			Name:     "diarization",
			Optional: true,
			Probe: func(ctx context.Context) error {
				if !a.Diarizer.IsAvailable(ctx) {
					return fmt.Errorf("%s unreachable", a.Diarizer.Name())
				}
				return nil
			},
		})
	}
	return observability.Check(ctx, a.Cfg.Name, a.Cfg.Version, components...)
}

// HealthChecker adapts Health to the server's /health endpoint.
func (a *App) HealthChecker() endpoint.HealthChecker {
	return func(ctx context.Context) []endpoint.Check {
		sh := a.Health(ctx)
		checks := make([]endpoint.Check, 0, len(sh.Components))
		for _, h := range sh.Components {
			checks = append(checks, endpoint.Check{
				Name:    h.Name,
				Status:  checkStatus(h.Status),
				Message: h.Message,
			})
		}
		return checks
	}
}

func checkStatus(s observability.HealthStatus) string {
	switch s {
	case observability.HealthStatusDown:
		return endpoint.StatusUnhealthy
	case observability.HealthStatusDegraded:
		return endpoint.StatusDegraded
	default:
		return endpoint.StatusHealthy
	}
}
