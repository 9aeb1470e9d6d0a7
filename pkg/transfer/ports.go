package transfer

import (
	"context"

	qerrors "github.com/pzverkov/qtransfer/internal/errors"
)

// Stage identifies which pipeline phase an event belongs to.
type Stage string

const (
	// StageSimulate covers the key exchange simulation.
	StageSimulate Stage = "simulate"
	// StageDerive covers symmetric key derivation.
	StageDerive Stage = "derive"
	// StageEncrypt covers the chunked encryption loop.
	StageEncrypt Stage = "encrypt"
	// StageDecrypt covers the chunked decryption loop.
	StageDecrypt Stage = "decrypt"
)

// ProgressEvent is delivered to the progress sink after each processed chunk.
type ProgressEvent struct {
	SessionID       string
	TransferID      string
	Stage           Stage
	Percent         float64
	ChunksProcessed uint64
	BytesProcessed  int64
	TotalBytes      int64

	// KeyFingerprint identifies the key in use without exposing key
	// material. Present on encrypt and decrypt stages.
	KeyFingerprint string
}

// Receipt is the success payload delivered through the completion sink.
type Receipt struct {
	SessionID      string
	TransferID     string
	Stage          Stage
	ContentHash    string
	PlaintextSize  int64
	EncryptedSize  int64
	Chunks         uint64
	KeyFingerprint string
}

// Failure is the failure payload delivered through the completion sink.
type Failure struct {
	SessionID  string
	TransferID string
	Stage      Stage
	Kind       qerrors.ErrorKind
	Message    string
}

// ProgressSink receives per-chunk progress notifications. Implementations
// are owned by the caller (for example a push notification broadcaster);
// delivery must not block for long since it runs on the transfer goroutine.
type ProgressSink interface {
	Notify(ctx context.Context, event ProgressEvent)
}

// CompletionSink receives the terminal status of an operation. Exactly one
// of Completed or Failed is invoked per operation.
type CompletionSink interface {
	Completed(ctx context.Context, receipt Receipt)
	Failed(ctx context.Context, failure Failure)
}

// NopProgressSink discards all progress events.
type NopProgressSink struct{}

// Notify implements ProgressSink.
func (NopProgressSink) Notify(context.Context, ProgressEvent) {}

// NopCompletionSink discards all terminal statuses.
type NopCompletionSink struct{}

// Completed implements CompletionSink.
func (NopCompletionSink) Completed(context.Context, Receipt) {}

// Failed implements CompletionSink.
func (NopCompletionSink) Failed(context.Context, Failure) {}

// ProgressFunc adapts a function to the ProgressSink interface.
type ProgressFunc func(ctx context.Context, event ProgressEvent)

// Notify implements ProgressSink.
func (f ProgressFunc) Notify(ctx context.Context, event ProgressEvent) { f(ctx, event) }
