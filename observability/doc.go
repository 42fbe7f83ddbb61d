// Package observability wires OpenTelemetry tracing, metrics and health
// reporting for samuelizer.
//
// Telemetry is opt-in. When disabled, Setup installs nothing and the global
// no-op providers stay in place, so spans and instruments cost almost
// nothing to call:
//
//	tel, err := observability.Setup(ctx, cfg.Observability, "samuelizer", version.Version, "production")
//	defer tel.Shutdown(ctx)
//
//	metrics, err := observability.NewMetrics(observability.Meter("samuelizer"))
//	metrics.RecordCacheLookup(ctx, "file", true)
//
// Health reporting for the HTTP API:
//
//	health := observability.Check(ctx, "samuelizer", version.Version,
//		observability.Component{Name: "cache", Probe: pingCache},
//		observability.Component{Name: "diarization", Optional: true, Probe: pingSidecar})
package observability
