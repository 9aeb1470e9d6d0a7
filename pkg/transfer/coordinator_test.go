package transfer

import (
	"bytes"
	"context"
	"crypto/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	qerrors "github.com/pzverkov/qtransfer/internal/errors"
	"github.com/pzverkov/qtransfer/pkg/metrics"
	"github.com/pzverkov/qtransfer/pkg/qkd"
)

const testKeyHex = "9f2c4ad18e6b73c05241aa90de8f1b67"

// recordingSinks captures everything delivered through the ports.
type recordingSinks struct {
	mu       sync.Mutex
	events   []ProgressEvent
	receipts []Receipt
	failures []Failure
}

func (s *recordingSinks) Notify(_ context.Context, e ProgressEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

func (s *recordingSinks) Completed(_ context.Context, r Receipt) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.receipts = append(s.receipts, r)
}

func (s *recordingSinks) Failed(_ context.Context, f Failure) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, f)
}

func newTestCoordinator(sinks *recordingSinks) *Coordinator {
	return NewCoordinator(
		WithProgressSink(sinks),
		WithCompletionSink(sinks),
		WithLogger(metrics.NullLogger()),
		WithCollector(metrics.NewCollector(nil)),
	)
}

func TestCoordinatorEncryptDecryptRoundTrip(t *testing.T) {
	sinks := &recordingSinks{}
	c := newTestCoordinator(sinks)

	plaintext := make([]byte, 200_000)
	_, err := rand.Read(plaintext)
	require.NoError(t, err)

	var container bytes.Buffer
	receipt, err := c.Encrypt(context.Background(), EncryptRequest{
		SessionID:    "session-1",
		SiftedKeyHex: testKeyHex,
		Source:       bytes.NewReader(plaintext),
		Destination:  &container,
		TotalBytes:   int64(len(plaintext)),
	})
	require.NoError(t, err)
	require.NotNil(t, receipt)
	require.Equal(t, StageEncrypt, receipt.Stage)
	require.Equal(t, int64(len(plaintext)), receipt.PlaintextSize)
	require.Equal(t, uint64(4), receipt.Chunks) // ceil(200000 / 65536)
	require.Len(t, receipt.ContentHash, 64)
	require.Len(t, receipt.KeyFingerprint, 16)
	require.NotEmpty(t, receipt.TransferID)

	var recovered bytes.Buffer
	decReceipt, err := c.Decrypt(context.Background(), DecryptRequest{
		SessionID:           "session-1",
		SiftedKeyHex:        testKeyHex,
		Source:              bytes.NewReader(container.Bytes()),
		Destination:         &recovered,
		TotalBytes:          int64(len(plaintext)),
		ExpectedContentHash: receipt.ContentHash,
	})
	require.NoError(t, err)
	require.True(t, bytes.Equal(plaintext, recovered.Bytes()), "decrypted plaintext should match original")
	require.Equal(t, receipt.ContentHash, decReceipt.ContentHash)
	require.Equal(t, receipt.KeyFingerprint, decReceipt.KeyFingerprint)

	// Terminal success delivered exactly once per operation.
	require.Len(t, sinks.receipts, 2)
	require.Empty(t, sinks.failures)
}

func TestCoordinatorProgressEvents(t *testing.T) {
	sinks := &recordingSinks{}
	c := newTestCoordinator(sinks)

	plaintext := make([]byte, 150_000)
	var container bytes.Buffer
	_, err := c.Encrypt(context.Background(), EncryptRequest{
		SessionID:    "session-1",
		TransferID:   "transfer-1",
		SiftedKeyHex: testKeyHex,
		Source:       bytes.NewReader(plaintext),
		Destination:  &container,
		TotalBytes:   int64(len(plaintext)),
	})
	require.NoError(t, err)

	require.NotEmpty(t, sinks.events)
	var lastPercent float64
	var lastBytes int64
	for _, e := range sinks.events {
		require.Equal(t, "session-1", e.SessionID)
		require.Equal(t, "transfer-1", e.TransferID)
		require.Equal(t, StageEncrypt, e.Stage)
		require.Len(t, e.KeyFingerprint, 16)
		require.GreaterOrEqual(t, e.Percent, lastPercent, "percent must be monotonic")
		require.GreaterOrEqual(t, e.BytesProcessed, lastBytes, "bytes must be monotonic")
		lastPercent = e.Percent
		lastBytes = e.BytesProcessed
	}
	require.Equal(t, float64(100), lastPercent)
	require.Equal(t, int64(len(plaintext)), lastBytes)
}

func TestCoordinatorValidation(t *testing.T) {
	tests := []struct {
		name string
		req  EncryptRequest
		want error
	}{
		{
			name: "missing session id",
			req: EncryptRequest{
				SiftedKeyHex: testKeyHex,
				Source:       bytes.NewReader(nil),
				Destination:  &bytes.Buffer{},
			},
			want: qerrors.ErrMissingSessionID,
		},
		{
			name: "nil source",
			req: EncryptRequest{
				SessionID:    "s",
				SiftedKeyHex: testKeyHex,
				Destination:  &bytes.Buffer{},
			},
			want: qerrors.ErrNilSource,
		},
		{
			name: "nil destination",
			req: EncryptRequest{
				SessionID:    "s",
				SiftedKeyHex: testKeyHex,
				Source:       bytes.NewReader(nil),
			},
			want: qerrors.ErrNilDestination,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sinks := &recordingSinks{}
			c := newTestCoordinator(sinks)

			_, err := c.Encrypt(context.Background(), tt.req)
			require.ErrorIs(t, err, tt.want)

			require.Len(t, sinks.failures, 1)
			require.Equal(t, qerrors.KindValidation, sinks.failures[0].Kind)
			require.Empty(t, sinks.receipts)
		})
	}
}

func TestCoordinatorMalformedKey(t *testing.T) {
	sinks := &recordingSinks{}
	c := newTestCoordinator(sinks)

	_, err := c.Encrypt(context.Background(), EncryptRequest{
		SessionID:    "s",
		SiftedKeyHex: "not-hex!",
		Source:       bytes.NewReader([]byte("data")),
		Destination:  &bytes.Buffer{},
	})
	require.ErrorIs(t, err, qerrors.ErrMalformedHexKey)

	require.Len(t, sinks.failures, 1)
	require.Equal(t, qerrors.KindDecoding, sinks.failures[0].Kind)
	require.NotEmpty(t, sinks.failures[0].Message)
}

func TestCoordinatorDecryptTamper(t *testing.T) {
	sinks := &recordingSinks{}
	c := newTestCoordinator(sinks)

	plaintext := []byte("sensitive payload that must not leak on tamper")
	var container bytes.Buffer
	_, err := c.Encrypt(context.Background(), EncryptRequest{
		SessionID:    "s",
		SiftedKeyHex: testKeyHex,
		Source:       bytes.NewReader(plaintext),
		Destination:  &container,
		TotalBytes:   int64(len(plaintext)),
	})
	require.NoError(t, err)

	// Flip one ciphertext bit past the salt and tag.
	tampered := container.Bytes()
	tampered[25] ^= 0x01

	var out bytes.Buffer
	_, err = c.Decrypt(context.Background(), DecryptRequest{
		SessionID:    "s",
		SiftedKeyHex: testKeyHex,
		Source:       bytes.NewReader(tampered),
		Destination:  &out,
	})
	require.ErrorIs(t, err, qerrors.ErrAuthenticationFailed)
	require.Zero(t, out.Len(), "no plaintext may be emitted on authentication failure")

	require.Len(t, sinks.failures, 1)
	require.Equal(t, qerrors.KindAuthentication, sinks.failures[0].Kind)
	require.Equal(t, StageDecrypt, sinks.failures[0].Stage)
}

func TestCoordinatorIntegrityMismatch(t *testing.T) {
	sinks := &recordingSinks{}
	c := newTestCoordinator(sinks)

	var container bytes.Buffer
	_, err := c.Encrypt(context.Background(), EncryptRequest{
		SessionID:    "s",
		SiftedKeyHex: testKeyHex,
		Source:       bytes.NewReader([]byte("payload")),
		Destination:  &container,
	})
	require.NoError(t, err)

	var out bytes.Buffer
	_, err = c.Decrypt(context.Background(), DecryptRequest{
		SessionID:           "s",
		SiftedKeyHex:        testKeyHex,
		Source:              bytes.NewReader(container.Bytes()),
		Destination:         &out,
		ExpectedContentHash: "0000000000000000000000000000000000000000000000000000000000000000",
	})
	require.ErrorIs(t, err, qerrors.ErrIntegrityMismatch)

	require.Len(t, sinks.failures, 1)
	require.Equal(t, qerrors.KindIntegrity, sinks.failures[0].Kind)
}

func TestCoordinatorSimulate(t *testing.T) {
	c := newTestCoordinator(&recordingSinks{})

	params, err := qkd.NewSimulationParameters(1000, qkd.NoiseModelDepolarizing, 0, 0, qkd.EveStrategyInterceptResend)
	require.NoError(t, err)

	result, err := c.Simulate(context.Background(), params)
	require.NoError(t, err)
	require.Zero(t, result.QBER)
	require.False(t, result.EveDetected)
	require.Positive(t, result.SiftedLength)
}

func TestCoordinatorSimulateRejectsBadParams(t *testing.T) {
	col := metrics.NewCollector(nil)
	c := NewCoordinator(
		WithLogger(metrics.NullLogger()),
		WithCollector(col),
	)

	_, err := c.Simulate(context.Background(), qkd.SimulationParameters{QubitCount: -1})
	require.ErrorIs(t, err, qerrors.ErrInvalidQubitCount)
	require.Equal(t, uint64(1), col.Snapshot().SimulationsFailed)
}

func TestCoordinatorCollectorCounters(t *testing.T) {
	col := metrics.NewCollector(nil)
	sinks := &recordingSinks{}
	c := NewCoordinator(
		WithProgressSink(sinks),
		WithCompletionSink(sinks),
		WithLogger(metrics.NullLogger()),
		WithCollector(col),
	)

	plaintext := make([]byte, 70_000)
	var container bytes.Buffer
	_, err := c.Encrypt(context.Background(), EncryptRequest{
		SessionID:    "s",
		SiftedKeyHex: testKeyHex,
		Source:       bytes.NewReader(plaintext),
		Destination:  &container,
		TotalBytes:   int64(len(plaintext)),
	})
	require.NoError(t, err)

	snap := col.Snapshot()
	require.Equal(t, uint64(1), snap.TransfersTotal)
	require.Equal(t, int64(0), snap.TransfersActive)
	require.Equal(t, uint64(2), snap.ChunksEncrypted)
	require.Equal(t, uint64(70_000), snap.BytesEncrypted)
}
