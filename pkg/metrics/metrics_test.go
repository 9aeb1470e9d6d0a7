package metrics

import (
	"strings"
	"testing"
	"time"
)

func TestNewCollector(t *testing.T) {
	labels := Labels{"instance": "test"}
	c := NewCollector(labels)

	if c == nil {
		t.Fatal("expected non-nil collector")
	}

	snap := c.Snapshot()
	if snap.Labels["instance"] != "test" {
		t.Errorf("expected label instance=test, got %v", snap.Labels)
	}
}

func TestCollectorSimulationMetrics(t *testing.T) {
	c := NewCollector(nil)

	c.RecordSimulation(0.02, false)
	c.RecordSimulation(0.24, true)
	c.RecordSimulationFailure()

	snap := c.Snapshot()
	if snap.SimulationsTotal != 2 {
		t.Errorf("expected 2 simulations, got %d", snap.SimulationsTotal)
	}
	if snap.SimulationsFailed != 1 {
		t.Errorf("expected 1 failed simulation, got %d", snap.SimulationsFailed)
	}
	if snap.EveDetections != 1 {
		t.Errorf("expected 1 eve detection, got %d", snap.EveDetections)
	}
	if snap.QBER.Count != 2 {
		t.Errorf("expected 2 QBER observations, got %d", snap.QBER.Count)
	}
}

func TestCollectorTransferMetrics(t *testing.T) {
	c := NewCollector(nil)

	c.TransferStarted()
	c.TransferStarted()
	snap := c.Snapshot()
	if snap.TransfersActive != 2 {
		t.Errorf("expected 2 active transfers, got %d", snap.TransfersActive)
	}
	if snap.TransfersTotal != 2 {
		t.Errorf("expected 2 total transfers, got %d", snap.TransfersTotal)
	}

	c.TransferCompleted(120 * time.Millisecond)
	snap = c.Snapshot()
	if snap.TransfersActive != 1 {
		t.Errorf("expected 1 active transfer, got %d", snap.TransfersActive)
	}
	if snap.TransferDuration.Count != 1 {
		t.Errorf("expected 1 duration observation, got %d", snap.TransferDuration.Count)
	}

	c.TransferFailed()
	snap = c.Snapshot()
	if snap.TransfersActive != 0 {
		t.Errorf("expected 0 active transfers, got %d", snap.TransfersActive)
	}
	if snap.TransfersFailed != 1 {
		t.Errorf("expected 1 failed transfer, got %d", snap.TransfersFailed)
	}
}

func TestCollectorChunkMetrics(t *testing.T) {
	c := NewCollector(nil)

	c.RecordChunkEncrypted(65536)
	c.RecordChunkEncrypted(1024)
	c.RecordChunkDecrypted(65536)

	snap := c.Snapshot()
	if snap.ChunksEncrypted != 2 {
		t.Errorf("expected 2 chunks encrypted, got %d", snap.ChunksEncrypted)
	}
	if snap.BytesEncrypted != 66560 {
		t.Errorf("expected 66560 bytes encrypted, got %d", snap.BytesEncrypted)
	}
	if snap.ChunksDecrypted != 1 {
		t.Errorf("expected 1 chunk decrypted, got %d", snap.ChunksDecrypted)
	}
	if snap.BytesDecrypted != 65536 {
		t.Errorf("expected 65536 bytes decrypted, got %d", snap.BytesDecrypted)
	}
}

func TestCollectorSecurityMetrics(t *testing.T) {
	c := NewCollector(nil)

	c.RecordAuthFailure()
	c.RecordAuthFailure()
	c.RecordIntegrityFailure()

	snap := c.Snapshot()
	if snap.AuthFailures != 2 {
		t.Errorf("expected 2 auth failures, got %d", snap.AuthFailures)
	}
	if snap.IntegrityFailures != 1 {
		t.Errorf("expected 1 integrity failure, got %d", snap.IntegrityFailures)
	}
}

func TestGlobalCollector(t *testing.T) {
	orig := Global()
	defer SetGlobal(orig)

	c := NewCollector(Labels{"test": "global"})
	SetGlobal(c)

	if Global() != c {
		t.Error("expected global collector to be replaced")
	}
}

func TestPrometheusExporter(t *testing.T) {
	c := NewCollector(Labels{"instance": "node-1"})
	c.RecordSimulation(0.05, false)
	c.TransferStarted()
	c.RecordChunkEncrypted(4096)
	c.TransferCompleted(50 * time.Millisecond)

	exp := NewPrometheusExporter(c, "qtransfer")
	var sb strings.Builder
	exp.WriteMetrics(&sb)
	out := sb.String()

	for _, want := range []string{
		"# TYPE qtransfer_simulations_total counter",
		`qtransfer_simulations_total{instance="node-1"} 1`,
		`qtransfer_transfers_total{instance="node-1"} 1`,
		`qtransfer_bytes_encrypted_total{instance="node-1"} 4096`,
		"# TYPE qtransfer_qber_ratio histogram",
		`qtransfer_qber_ratio_count{instance="node-1"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q", want)
		}
	}
}

func TestPrometheusExporterNoLabels(t *testing.T) {
	c := NewCollector(nil)
	exp := NewPrometheusExporter(c, "qtransfer")

	var sb strings.Builder
	exp.WriteMetrics(&sb)

	if strings.Contains(sb.String(), "{}") {
		t.Error("expected no empty label braces in output")
	}
}

func TestHealthCheck(t *testing.T) {
	c := NewCollector(nil)
	h := NewHealthCheck(c, "1.0.0-test")

	resp := h.Check()
	if resp.Status != HealthStatusHealthy {
		t.Errorf("expected healthy status, got %s", resp.Status)
	}
	if resp.Version != "1.0.0-test" {
		t.Errorf("expected version 1.0.0-test, got %s", resp.Version)
	}

	h.AddCheck("failing", func() error {
		return errFailingCheck
	})
	resp = h.Check()
	if resp.Status != HealthStatusUnhealthy {
		t.Errorf("expected unhealthy status, got %s", resp.Status)
	}
	if resp.Checks["failing"].Message == "" {
		t.Error("expected failing check to carry a message")
	}

	h.RemoveCheck("failing")
	resp = h.Check()
	if resp.Status != HealthStatusHealthy {
		t.Errorf("expected healthy status after removal, got %s", resp.Status)
	}
}

func TestHealthCheckFailureRateDegraded(t *testing.T) {
	c := NewCollector(nil)

	// 1 failure out of 2 transfers exceeds the 5% threshold.
	c.TransferStarted()
	c.TransferStarted()
	c.TransferCompleted(time.Millisecond)
	c.TransferFailed()

	h := NewHealthCheck(c, "")
	resp := h.Check()
	if resp.Status != HealthStatusDegraded {
		t.Errorf("expected degraded status, got %s", resp.Status)
	}
	if resp.Metrics == nil || resp.Metrics.FailureRate != 0.5 {
		t.Errorf("expected failure rate 0.5, got %+v", resp.Metrics)
	}
}

var errFailingCheck = errTest("check failed")

type errTest string

func (e errTest) Error() string { return string(e) }
