// Package qtransfer provides quantum-key-distribution based file encryption.
//
// The library simulates the BB84 QKD protocol to establish a shared secret
// between two parties, estimates the quantum bit error rate (QBER) to detect
// eavesdropping, derives an AES-256 key from the shared secret with
// HKDF-SHA-256, and encrypts/decrypts files of arbitrary size with chunked
// authenticated encryption in bounded memory.
//
// # Quick Start
//
// Run a BB84 simulation and encrypt a stream with the resulting key:
//
//	import (
//	    "github.com/pzverkov/qtransfer/pkg/crypto"
//	    "github.com/pzverkov/qtransfer/pkg/qkd"
//	    "github.com/pzverkov/qtransfer/pkg/stream"
//	)
//
//	params, _ := qkd.NewSimulationParameters(4096, qkd.NoiseModelDepolarizing, 0.02, 0, qkd.EveStrategyInterceptResend)
//	result, _ := qkd.Simulate(params, crypto.NewSystemSource())
//
//	material, _ := crypto.DeriveKey(result.KeyHex(), sessionID)
//	defer material.Zeroize()
//
//	enc, _ := stream.Encrypt(ctx, dst, src, material.Key, srcSize)
//
// For the full derive-encrypt-notify pipeline, use pkg/transfer:
//
//	coord := transfer.NewCoordinator(transfer.WithProgressSink(sink))
//	receipt, _ := coord.Encrypt(ctx, transfer.EncryptRequest{...})
//
// # Package Structure
//
//   - pkg/qkd: BB84 protocol simulator with intercept-resend eavesdropping
//     and depolarizing channel noise
//   - pkg/crypto: CSPRNG helpers and HKDF-SHA-256 key derivation
//   - pkg/stream: chunked AEAD encryption engine and container format
//   - pkg/transfer: pipeline coordinator with progress/completion ports
//   - pkg/metrics: structured logging, tracing, metrics and health checks
//   - internal/constants: security parameters and format constants
//   - internal/errors: error types and the terminal-status error taxonomy
//
// # Security Properties
//
//   - All simulation randomness is drawn from the OS CSPRNG; keys are not
//     reproducible from a seed
//   - Intercept-resend eavesdropping induces ~25% QBER on the sifted key,
//     detected against a 10% threshold
//   - Every chunk is encrypted under a unique 96-bit nonce (4-byte random
//     salt plus 64-bit big-endian chunk counter)
//   - Decryption fails closed: no unauthenticated plaintext is ever written
//   - A running SHA-256 over the plaintext provides integrity verification
//     beyond the per-chunk AEAD tags
//
// # Testing
//
//	go test ./...                               # All tests
//	go test -fuzz=FuzzDecrypt ./test/fuzz       # Fuzz tests
//	go test -run TestFullPipeline ./test/integration
package qtransfer
