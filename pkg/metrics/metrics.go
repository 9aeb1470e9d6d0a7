package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Labels represents key-value pairs for metric labeling.
type Labels map[string]string

// Collector aggregates metrics from simulations and file transfers.
type Collector struct {
	// Simulation metrics
	simulationsTotal  atomic.Uint64
	simulationsFailed atomic.Uint64
	eveDetections     atomic.Uint64
	qber              *Histogram

	// Transfer metrics
	transfersActive atomic.Int64
	transfersTotal  atomic.Uint64
	transfersFailed atomic.Uint64

	// Chunk traffic
	bytesEncrypted  atomic.Uint64
	bytesDecrypted  atomic.Uint64
	chunksEncrypted atomic.Uint64
	chunksDecrypted atomic.Uint64

	// Security failures
	authFailures      atomic.Uint64
	integrityFailures atomic.Uint64

	// Transfer duration in milliseconds
	transferDuration *Histogram

	createdAt time.Time
	labels    Labels
}

// Default bucket configurations for histograms.
var (
	// QBERBuckets spans channel noise levels up to the theoretical
	// intercept-resend rate and beyond.
	QBERBuckets = []float64{0.01, 0.02, 0.05, 0.1, 0.15, 0.25, 0.5}

	// DurationBuckets for transfer duration (milliseconds).
	DurationBuckets = []float64{10, 50, 100, 500, 1000, 5000, 30000, 120000}
)

// NewCollector creates a new metrics collector.
func NewCollector(labels Labels) *Collector {
	if labels == nil {
		labels = make(Labels)
	}
	return &Collector{
		qber:             NewHistogram(QBERBuckets),
		transferDuration: NewHistogram(DurationBuckets),
		createdAt:        time.Now(),
		labels:           labels,
	}
}

// RecordSimulation records one completed simulation run.
func (c *Collector) RecordSimulation(qber float64, eveDetected bool) {
	c.simulationsTotal.Add(1)
	c.qber.Observe(qber)
	if eveDetected {
		c.eveDetections.Add(1)
	}
}

// RecordSimulationFailure records a rejected or failed simulation.
func (c *Collector) RecordSimulationFailure() {
	c.simulationsFailed.Add(1)
}

// TransferStarted marks a transfer as in flight.
func (c *Collector) TransferStarted() {
	c.transfersActive.Add(1)
	c.transfersTotal.Add(1)
}

// TransferCompleted marks a transfer as finished and records its duration.
func (c *Collector) TransferCompleted(d time.Duration) {
	c.transfersActive.Add(-1)
	c.transferDuration.Observe(float64(d.Milliseconds()))
}

// TransferFailed marks a transfer as failed.
func (c *Collector) TransferFailed() {
	c.transfersActive.Add(-1)
	c.transfersFailed.Add(1)
}

// RecordChunkEncrypted records one encrypted chunk of n plaintext bytes.
func (c *Collector) RecordChunkEncrypted(n int64) {
	c.chunksEncrypted.Add(1)
	c.bytesEncrypted.Add(uint64(n))
}

// RecordChunkDecrypted records one decrypted chunk of n plaintext bytes.
func (c *Collector) RecordChunkDecrypted(n int64) {
	c.chunksDecrypted.Add(1)
	c.bytesDecrypted.Add(uint64(n))
}

// RecordAuthFailure records an AEAD verification failure.
func (c *Collector) RecordAuthFailure() {
	c.authFailures.Add(1)
}

// RecordIntegrityFailure records a content hash mismatch.
func (c *Collector) RecordIntegrityFailure() {
	c.integrityFailures.Add(1)
}

// Snapshot is a point-in-time copy of all collector values.
type Snapshot struct {
	SimulationsTotal  uint64
	SimulationsFailed uint64
	EveDetections     uint64
	QBER              HistogramSummary

	TransfersActive int64
	TransfersTotal  uint64
	TransfersFailed uint64

	BytesEncrypted  uint64
	BytesDecrypted  uint64
	ChunksEncrypted uint64
	ChunksDecrypted uint64

	AuthFailures      uint64
	IntegrityFailures uint64

	TransferDuration HistogramSummary

	Uptime time.Duration
	Labels Labels
}

// Snapshot returns a consistent copy of the current metric values.
func (c *Collector) Snapshot() Snapshot {
	return Snapshot{
		SimulationsTotal:  c.simulationsTotal.Load(),
		SimulationsFailed: c.simulationsFailed.Load(),
		EveDetections:     c.eveDetections.Load(),
		QBER:              c.qber.Summary(),
		TransfersActive:   c.transfersActive.Load(),
		TransfersTotal:    c.transfersTotal.Load(),
		TransfersFailed:   c.transfersFailed.Load(),
		BytesEncrypted:    c.bytesEncrypted.Load(),
		BytesDecrypted:    c.bytesDecrypted.Load(),
		ChunksEncrypted:   c.chunksEncrypted.Load(),
		ChunksDecrypted:   c.chunksDecrypted.Load(),
		AuthFailures:      c.authFailures.Load(),
		IntegrityFailures: c.integrityFailures.Load(),
		TransferDuration:  c.transferDuration.Summary(),
		Uptime:            time.Since(c.createdAt),
		Labels:            c.labels,
	}
}

// --- Global Collector ---

var (
	globalCollector   = NewCollector(nil)
	globalCollectorMu sync.RWMutex
)

// Global returns the global collector.
func Global() *Collector {
	globalCollectorMu.RLock()
	defer globalCollectorMu.RUnlock()
	return globalCollector
}

// SetGlobal replaces the global collector.
func SetGlobal(c *Collector) {
	globalCollectorMu.Lock()
	defer globalCollectorMu.Unlock()
	globalCollector = c
}
