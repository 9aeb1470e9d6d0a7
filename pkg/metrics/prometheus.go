package metrics

import (
	"fmt"
	"io"
	"math"
	"net/http"
	"sort"
	"strings"
)

// PrometheusExporter exports metrics in Prometheus text format.
type PrometheusExporter struct {
	collector *Collector
	namespace string
}

// NewPrometheusExporter creates a new Prometheus exporter for the given collector.
// The namespace is prepended to all metric names (e.g., "qtransfer").
func NewPrometheusExporter(c *Collector, namespace string) *PrometheusExporter {
	return &PrometheusExporter{
		collector: c,
		namespace: namespace,
	}
}

// Handler returns an http.Handler that serves Prometheus metrics.
func (e *PrometheusExporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		e.WriteMetrics(w)
	})
}

// WriteMetrics writes all metrics in Prometheus text format to the writer.
func (e *PrometheusExporter) WriteMetrics(w io.Writer) {
	snap := e.collector.Snapshot()
	labels := e.formatLabels(snap.Labels)

	// --- Simulation Metrics ---
	e.writeHelp(w, "simulations_total", "Total number of key exchange simulations run")
	e.writeType(w, "simulations_total", "counter")
	e.writeMetric(w, "simulations_total", labels, float64(snap.SimulationsTotal))

	e.writeHelp(w, "simulations_failed_total", "Total number of rejected or failed simulations")
	e.writeType(w, "simulations_failed_total", "counter")
	e.writeMetric(w, "simulations_failed_total", labels, float64(snap.SimulationsFailed))

	e.writeHelp(w, "eve_detections_total", "Total simulations where eavesdropping was detected")
	e.writeType(w, "eve_detections_total", "counter")
	e.writeMetric(w, "eve_detections_total", labels, float64(snap.EveDetections))

	// --- Transfer Metrics ---
	e.writeHelp(w, "transfers_active", "Number of currently active transfers")
	e.writeType(w, "transfers_active", "gauge")
	e.writeMetric(w, "transfers_active", labels, float64(snap.TransfersActive))

	e.writeHelp(w, "transfers_total", "Total number of transfers started")
	e.writeType(w, "transfers_total", "counter")
	e.writeMetric(w, "transfers_total", labels, float64(snap.TransfersTotal))

	e.writeHelp(w, "transfers_failed_total", "Total number of failed transfers")
	e.writeType(w, "transfers_failed_total", "counter")
	e.writeMetric(w, "transfers_failed_total", labels, float64(snap.TransfersFailed))

	// --- Traffic Metrics ---
	e.writeHelp(w, "bytes_encrypted_total", "Total plaintext bytes encrypted")
	e.writeType(w, "bytes_encrypted_total", "counter")
	e.writeMetric(w, "bytes_encrypted_total", labels, float64(snap.BytesEncrypted))

	e.writeHelp(w, "bytes_decrypted_total", "Total plaintext bytes recovered")
	e.writeType(w, "bytes_decrypted_total", "counter")
	e.writeMetric(w, "bytes_decrypted_total", labels, float64(snap.BytesDecrypted))

	e.writeHelp(w, "chunks_encrypted_total", "Total chunks encrypted")
	e.writeType(w, "chunks_encrypted_total", "counter")
	e.writeMetric(w, "chunks_encrypted_total", labels, float64(snap.ChunksEncrypted))

	e.writeHelp(w, "chunks_decrypted_total", "Total chunks decrypted")
	e.writeType(w, "chunks_decrypted_total", "counter")
	e.writeMetric(w, "chunks_decrypted_total", labels, float64(snap.ChunksDecrypted))

	// --- Security Metrics ---
	e.writeHelp(w, "auth_failures_total", "Total chunk authentication failures")
	e.writeType(w, "auth_failures_total", "counter")
	e.writeMetric(w, "auth_failures_total", labels, float64(snap.AuthFailures))

	e.writeHelp(w, "integrity_failures_total", "Total content hash mismatches")
	e.writeType(w, "integrity_failures_total", "counter")
	e.writeMetric(w, "integrity_failures_total", labels, float64(snap.IntegrityFailures))

	// --- Uptime ---
	e.writeHelp(w, "uptime_seconds", "Time since the collector was created")
	e.writeType(w, "uptime_seconds", "gauge")
	e.writeMetric(w, "uptime_seconds", labels, snap.Uptime.Seconds())

	// --- Histograms ---
	e.writeHistogram(w, "qber_ratio", "Observed quantum bit error rate per simulation", labels, snap.QBER)
	e.writeHistogram(w, "transfer_duration_milliseconds", "Transfer duration in milliseconds", labels, snap.TransferDuration)
}

// writeHelp writes a HELP line.
func (e *PrometheusExporter) writeHelp(w io.Writer, name, help string) {
	fmt.Fprintf(w, "# HELP %s_%s %s\n", e.namespace, name, help)
}

// writeType writes a TYPE line.
func (e *PrometheusExporter) writeType(w io.Writer, name, typ string) {
	fmt.Fprintf(w, "# TYPE %s_%s %s\n", e.namespace, name, typ)
}

// writeMetric writes a single metric line.
func (e *PrometheusExporter) writeMetric(w io.Writer, name, labels string, value float64) {
	if labels != "" {
		fmt.Fprintf(w, "%s_%s{%s} %g\n", e.namespace, name, labels, value)
	} else {
		fmt.Fprintf(w, "%s_%s %g\n", e.namespace, name, value)
	}
}

// writeHistogram writes a histogram in Prometheus format.
func (e *PrometheusExporter) writeHistogram(w io.Writer, name, help, labels string, h HistogramSummary) {
	e.writeHelp(w, name, help)
	e.writeType(w, name, "histogram")

	fullName := e.namespace + "_" + name

	// Write bucket counts
	for _, b := range h.Buckets {
		le := fmt.Sprintf("%g", b.UpperBound)
		if math.IsInf(b.UpperBound, 1) {
			le = "+Inf"
		}
		if labels != "" {
			fmt.Fprintf(w, "%s_bucket{%s,le=\"%s\"} %d\n", fullName, labels, le, b.Count)
		} else {
			fmt.Fprintf(w, "%s_bucket{le=\"%s\"} %d\n", fullName, le, b.Count)
		}
	}

	// Write sum and count
	if labels != "" {
		fmt.Fprintf(w, "%s_sum{%s} %g\n", fullName, labels, h.Sum)
		fmt.Fprintf(w, "%s_count{%s} %d\n", fullName, labels, h.Count)
	} else {
		fmt.Fprintf(w, "%s_sum %g\n", fullName, h.Sum)
		fmt.Fprintf(w, "%s_count %d\n", fullName, h.Count)
	}
}

// formatLabels converts Labels to Prometheus label format.
func (e *PrometheusExporter) formatLabels(labels Labels) string {
	if len(labels) == 0 {
		return ""
	}

	// Sort keys for consistent output
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		// Escape label values
		v := escapePromValue(labels[k])
		parts = append(parts, fmt.Sprintf("%s=\"%s\"", k, v))
	}

	return strings.Join(parts, ",")
}

// escapePromValue escapes a string for use as a Prometheus label value.
func escapePromValue(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}
