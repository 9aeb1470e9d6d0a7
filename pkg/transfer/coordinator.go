// Package transfer sequences the full file transfer pipeline: parameter
// validation, key exchange simulation, symmetric key derivation, and the
// chunked cipher loop. The Coordinator holds no state beyond the current
// operation; progress and terminal status leave through injected sinks.
package transfer

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/pzverkov/qtransfer/internal/constants"
	qerrors "github.com/pzverkov/qtransfer/internal/errors"
	"github.com/pzverkov/qtransfer/pkg/crypto"
	"github.com/pzverkov/qtransfer/pkg/metrics"
	"github.com/pzverkov/qtransfer/pkg/qkd"
	"github.com/pzverkov/qtransfer/pkg/stream"
)

// Coordinator runs transfer operations. A single Coordinator may be shared
// across goroutines; each call is an independent operation. Exclusive write
// access to a container file is the caller's responsibility.
type Coordinator struct {
	progress   ProgressSink
	completion CompletionSink
	logger     *metrics.Logger
	collector  *metrics.Collector
	suite      constants.CipherSuite
	rng        qkd.RandomSource
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithProgressSink sets the per-chunk progress sink.
func WithProgressSink(sink ProgressSink) CoordinatorOption {
	return func(c *Coordinator) { c.progress = sink }
}

// WithCompletionSink sets the terminal status sink.
func WithCompletionSink(sink CompletionSink) CoordinatorOption {
	return func(c *Coordinator) { c.completion = sink }
}

// WithLogger sets the logger.
func WithLogger(l *metrics.Logger) CoordinatorOption {
	return func(c *Coordinator) { c.logger = l }
}

// WithCollector sets the metrics collector.
func WithCollector(col *metrics.Collector) CoordinatorOption {
	return func(c *Coordinator) { c.collector = col }
}

// WithCipherSuite selects the AEAD suite for encrypt operations. Decrypt
// uses the same suite; AES-256-GCM is the default and the only suite
// compatible with containers written by other implementations.
func WithCipherSuite(suite constants.CipherSuite) CoordinatorOption {
	return func(c *Coordinator) { c.suite = suite }
}

// WithRandomSource sets the random source used by Simulate. The source must
// be safe for concurrent use when simulations run in parallel.
func WithRandomSource(rng qkd.RandomSource) CoordinatorOption {
	return func(c *Coordinator) { c.rng = rng }
}

// NewCoordinator creates a Coordinator. Without options it discards progress
// and completion events, logs through the global logger, records into the
// global collector, and simulates with a CSPRNG-backed source.
func NewCoordinator(opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		progress:   NopProgressSink{},
		completion: NopCompletionSink{},
		logger:     metrics.GetLogger().Named("transfer"),
		collector:  metrics.Global(),
		suite:      constants.CipherSuiteAES256GCM,
		rng:        crypto.NewSystemSource(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Simulate runs one key exchange simulation. Parameter validation failures
// and simulation errors are recorded in the collector but do not touch the
// completion sink; simulation is a session level operation, not a transfer.
func (c *Coordinator) Simulate(ctx context.Context, params qkd.SimulationParameters) (*qkd.SiftedKeyResult, error) {
	_, end := metrics.StartSpan(ctx, metrics.SpanSimulate, metrics.WithAttributes(map[string]interface{}{
		"qubits":       params.QubitCount,
		"eve_fraction": params.EveFraction,
	}))

	result, err := qkd.Simulate(params, c.rng)
	end(err)
	if err != nil {
		c.collector.RecordSimulationFailure()
		c.logger.Warn("simulation rejected", metrics.Fields{"error": err.Error()})
		return nil, err
	}

	c.collector.RecordSimulation(result.QBER, result.EveDetected)
	c.logger.Info("simulation complete", metrics.Fields{
		"sifted_length": result.SiftedLength,
		"qber":          result.QBER,
		"eve_detected":  result.EveDetected,
	})
	return result, nil
}

// EncryptRequest describes one encryption operation.
type EncryptRequest struct {
	// SessionID identifies the key exchange session. It salts key
	// derivation, so both sides must present the same value.
	SessionID string

	// TransferID identifies this operation in progress and completion
	// events. A fresh UUID is assigned when empty.
	TransferID string

	// SiftedKeyHex is the persisted hex form of the sifted key.
	SiftedKeyHex string

	// Source supplies the plaintext.
	Source io.Reader

	// Destination receives the encrypted container.
	Destination io.Writer

	// TotalBytes is the expected plaintext size for percentage reporting,
	// or 0 when unknown.
	TotalBytes int64
}

// DecryptRequest describes one decryption operation.
type DecryptRequest struct {
	SessionID    string
	TransferID   string
	SiftedKeyHex string

	// Source supplies the encrypted container.
	Source io.Reader

	// Destination receives the recovered plaintext.
	Destination io.Writer

	// TotalBytes is the expected plaintext size for percentage reporting,
	// or 0 when unknown.
	TotalBytes int64

	// ExpectedContentHash, when set, is the hex content hash recorded at
	// encryption time; the recomputed hash must match or the operation
	// fails with a distinct integrity error.
	ExpectedContentHash string
}

// Encrypt derives the session key and runs the chunked encryption loop,
// notifying the progress sink after each chunk and delivering exactly one
// terminal status through the completion sink.
func (c *Coordinator) Encrypt(ctx context.Context, req EncryptRequest) (*Receipt, error) {
	transferID := req.TransferID
	if transferID == "" {
		transferID = uuid.NewString()
	}
	log := c.logger.With(metrics.Fields{"session_id": req.SessionID, "transfer_id": transferID})

	if err := validateRequest(req.SessionID, req.Source, req.Destination); err != nil {
		return nil, c.fail(ctx, log, req.SessionID, transferID, StageEncrypt, err)
	}

	material, err := c.deriveKey(ctx, req.SiftedKeyHex, req.SessionID)
	if err != nil {
		return nil, c.fail(ctx, log, req.SessionID, transferID, StageEncrypt, err)
	}
	defer material.Zeroize()

	ctx, end := metrics.StartSpan(ctx, metrics.SpanEncrypt, metrics.WithAttributes(map[string]interface{}{
		"transfer_id": transferID,
	}))

	c.collector.TransferStarted()
	start := time.Now()

	result, err := stream.Encrypt(ctx, req.Destination, req.Source, material.Key, req.TotalBytes,
		stream.WithCipherSuite(c.suite),
		stream.WithProgress(c.chunkObserver(ctx, req.SessionID, transferID, StageEncrypt, material.Fingerprint, req.TotalBytes)),
	)
	end(err)
	if err != nil {
		c.collector.TransferFailed()
		return nil, c.fail(ctx, log, req.SessionID, transferID, StageEncrypt, err)
	}

	c.collector.TransferCompleted(time.Since(start))
	receipt := Receipt{
		SessionID:      req.SessionID,
		TransferID:     transferID,
		Stage:          StageEncrypt,
		ContentHash:    result.ContentHash,
		PlaintextSize:  result.PlaintextSize,
		EncryptedSize:  result.EncryptedSize,
		Chunks:         result.Chunks,
		KeyFingerprint: material.Fingerprint,
	}
	c.completion.Completed(ctx, receipt)
	log.Info("encryption complete", metrics.Fields{
		"chunks":         result.Chunks,
		"plaintext_size": result.PlaintextSize,
		"encrypted_size": result.EncryptedSize,
		"content_hash":   result.ContentHash,
	})
	return &receipt, nil
}

// Decrypt derives the session key and runs the chunked decryption loop. Any
// chunk failing authentication aborts the operation; no terminal success is
// reported for partially written output.
func (c *Coordinator) Decrypt(ctx context.Context, req DecryptRequest) (*Receipt, error) {
	transferID := req.TransferID
	if transferID == "" {
		transferID = uuid.NewString()
	}
	log := c.logger.With(metrics.Fields{"session_id": req.SessionID, "transfer_id": transferID})

	if err := validateRequest(req.SessionID, req.Source, req.Destination); err != nil {
		return nil, c.fail(ctx, log, req.SessionID, transferID, StageDecrypt, err)
	}

	material, err := c.deriveKey(ctx, req.SiftedKeyHex, req.SessionID)
	if err != nil {
		return nil, c.fail(ctx, log, req.SessionID, transferID, StageDecrypt, err)
	}
	defer material.Zeroize()

	ctx, end := metrics.StartSpan(ctx, metrics.SpanDecrypt, metrics.WithAttributes(map[string]interface{}{
		"transfer_id": transferID,
	}))

	c.collector.TransferStarted()
	start := time.Now()

	opts := []stream.Option{
		stream.WithCipherSuite(c.suite),
		stream.WithProgress(c.chunkObserver(ctx, req.SessionID, transferID, StageDecrypt, material.Fingerprint, req.TotalBytes)),
	}
	if req.ExpectedContentHash != "" {
		opts = append(opts, stream.WithExpectedContentHash(req.ExpectedContentHash))
	}

	result, err := stream.Decrypt(ctx, req.Destination, req.Source, material.Key, req.TotalBytes, opts...)
	end(err)
	if err != nil {
		c.collector.TransferFailed()
		switch qerrors.KindOf(err) {
		case qerrors.KindAuthentication:
			c.collector.RecordAuthFailure()
		case qerrors.KindIntegrity:
			c.collector.RecordIntegrityFailure()
		}
		return nil, c.fail(ctx, log, req.SessionID, transferID, StageDecrypt, err)
	}

	c.collector.TransferCompleted(time.Since(start))
	receipt := Receipt{
		SessionID:      req.SessionID,
		TransferID:     transferID,
		Stage:          StageDecrypt,
		ContentHash:    result.ContentHash,
		PlaintextSize:  result.PlaintextSize,
		Chunks:         result.Chunks,
		KeyFingerprint: material.Fingerprint,
	}
	c.completion.Completed(ctx, receipt)
	log.Info("decryption complete", metrics.Fields{
		"chunks":         result.Chunks,
		"plaintext_size": result.PlaintextSize,
		"content_hash":   result.ContentHash,
	})
	return &receipt, nil
}

// deriveKey wraps key derivation in a span.
func (c *Coordinator) deriveKey(ctx context.Context, siftedKeyHex, sessionID string) (*crypto.SymmetricKeyMaterial, error) {
	_, end := metrics.StartSpan(ctx, metrics.SpanDeriveKey)
	material, err := crypto.DeriveKey(siftedKeyHex, sessionID)
	end(err)
	return material, err
}

// chunkObserver bridges the cipher engine's progress callback to the
// progress sink and the collector. Chunk counters record deltas because the
// engine reports cumulative totals.
func (c *Coordinator) chunkObserver(ctx context.Context, sessionID, transferID string, stage Stage, fingerprint string, totalBytes int64) stream.ProgressFunc {
	var lastBytes int64
	var lastChunks uint64
	return func(p stream.Progress) {
		if p.ChunksProcessed > lastChunks {
			delta := p.BytesProcessed - lastBytes
			if stage == StageEncrypt {
				c.collector.RecordChunkEncrypted(delta)
			} else {
				c.collector.RecordChunkDecrypted(delta)
			}
			lastBytes = p.BytesProcessed
			lastChunks = p.ChunksProcessed
		}

		c.progress.Notify(ctx, ProgressEvent{
			SessionID:       sessionID,
			TransferID:      transferID,
			Stage:           stage,
			Percent:         p.Percent,
			ChunksProcessed: p.ChunksProcessed,
			BytesProcessed:  p.BytesProcessed,
			TotalBytes:      totalBytes,
			KeyFingerprint:  fingerprint,
		})
	}
}

// fail delivers the terminal failure status and returns the original error.
func (c *Coordinator) fail(ctx context.Context, log *metrics.Logger, sessionID, transferID string, stage Stage, err error) error {
	kind := qerrors.KindOf(err)
	c.completion.Failed(ctx, Failure{
		SessionID:  sessionID,
		TransferID: transferID,
		Stage:      stage,
		Kind:       kind,
		Message:    err.Error(),
	})
	log.Error("operation failed", metrics.Fields{
		"stage": string(stage),
		"kind":  string(kind),
		"error": err.Error(),
	})
	return err
}

func validateRequest(sessionID string, src io.Reader, dst io.Writer) error {
	if sessionID == "" {
		return qerrors.ErrMissingSessionID
	}
	if src == nil {
		return qerrors.ErrNilSource
	}
	if dst == nil {
		return qerrors.ErrNilDestination
	}
	return nil
}
