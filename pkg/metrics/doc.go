// Package metrics provides observability primitives for the qtransfer core.
//
// # Overview
//
// The package offers:
//   - Metrics collection for simulations and transfers (counters, histograms)
//   - Prometheus-compatible metrics export
//   - Distributed tracing support (OpenTelemetry-compatible interface)
//   - Structured logging with levels
//   - Health check endpoints
//
// # Quick Start
//
//	import "github.com/pzverkov/qtransfer/pkg/metrics"
//
//	collector := metrics.NewCollector(metrics.Labels{"instance": "node-1"})
//	collector.RecordSimulation(qber, eveDetected)
//	collector.TransferStarted()
//	collector.RecordChunkEncrypted(n)
//
//	exporter := metrics.NewPrometheusExporter(collector, "qtransfer")
//	http.Handle("/metrics", exporter.Handler())
//
// # Tracing
//
// The Tracer interface decouples the pipeline from any particular backend:
//
//	metrics.SetTracer(metrics.NewSimpleTracer()) // in-memory, for tests
//	metrics.SetTracer(metrics.NewOTelTracer("qtransfer")) // -tags otel
//
//	ctx, end := metrics.StartSpan(ctx, metrics.SpanEncrypt)
//	defer end(nil) // or end(err)
//
// # Structured Logging
//
//	logger := metrics.NewLogger(
//		metrics.WithLevel(metrics.LevelInfo),
//		metrics.WithFormat(metrics.FormatJSON),
//	)
//	logger.Info("transfer complete", metrics.Fields{"session_id": id})
//
// # Health Checks
//
//	health := metrics.NewHealthCheck(collector, version.String())
//	http.Handle("/health", health.Handler())
package metrics
