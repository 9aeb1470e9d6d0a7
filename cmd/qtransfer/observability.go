package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/pzverkov/qtransfer/pkg/metrics"
)

func setupObservability(logLevel, logFormat, tracing string) (*metrics.Collector, *metrics.Logger, error) {
	level, err := parseLogLevel(logLevel)
	if err != nil {
		return nil, nil, err
	}

	format, err := parseLogFormat(logFormat)
	if err != nil {
		return nil, nil, err
	}

	logger := metrics.NewLogger(
		metrics.WithOutput(os.Stderr),
		metrics.WithLevel(level),
		metrics.WithFormat(format),
		metrics.WithFields(metrics.Fields{"app": "qtransfer"}),
	)
	metrics.SetLogger(logger)

	switch strings.ToLower(tracing) {
	case "none":
		metrics.SetTracer(metrics.NoOpTracer{})
	case "simple":
		metrics.SetTracer(metrics.NewSimpleTracer())
	case "otel":
		if !metrics.OTelEnabled() {
			return nil, nil, fmt.Errorf("otel tracing not enabled (build with -tags otel)")
		}
		metrics.SetTracer(metrics.NewOTelTracer("qtransfer"))
	default:
		return nil, nil, fmt.Errorf("invalid tracing mode: %s (use none, simple, or otel)", tracing)
	}

	collector := metrics.NewCollector(metrics.Labels{
		"service": "qtransfer",
	})
	metrics.SetGlobal(collector)

	return collector, logger, nil
}

func parseLogLevel(level string) (metrics.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return metrics.LevelDebug, nil
	case "info":
		return metrics.LevelInfo, nil
	case "warn", "warning":
		return metrics.LevelWarn, nil
	case "error":
		return metrics.LevelError, nil
	case "silent", "off", "none":
		return metrics.LevelSilent, nil
	default:
		return metrics.LevelInfo, fmt.Errorf("invalid log level: %s (use debug, info, warn, error, silent)", level)
	}
}

func parseLogFormat(format string) (metrics.Format, error) {
	switch strings.ToLower(format) {
	case "text":
		return metrics.FormatText, nil
	case "json":
		return metrics.FormatJSON, nil
	default:
		return metrics.FormatText, fmt.Errorf("invalid log format: %s (use text or json)", format)
	}
}
