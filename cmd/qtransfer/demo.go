package main

import (
	"bytes"
	"context"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/pzverkov/qtransfer/internal/constants"
	qerrors "github.com/pzverkov/qtransfer/internal/errors"
	"github.com/pzverkov/qtransfer/pkg/crypto"
	"github.com/pzverkov/qtransfer/pkg/metrics"
	"github.com/pzverkov/qtransfer/pkg/qkd"
	"github.com/pzverkov/qtransfer/pkg/transfer"
)

func runPipelineDemo(qubits int, eveFraction float64, payloadSize int) {
	fmt.Println("╔═══════════════════════════════════════════════════════════╗")
	fmt.Println("║      qtransfer Pipeline Demo                              ║")
	fmt.Println("║      BB84 → HKDF-SHA-256 → chunked AES-256-GCM            ║")
	fmt.Println("╚═══════════════════════════════════════════════════════════╝")
	fmt.Println()

	coord := transfer.NewCoordinator(
		transfer.WithLogger(metrics.NullLogger()),
	)

	// Step 1: key exchange simulation.
	fmt.Printf("Step 1: Simulating BB84 exchange (%d qubits, eve=%g)...\n", qubits, eveFraction)
	params, err := qkd.NewSimulationParameters(qubits, qkd.NoiseModelDepolarizing, 0, eveFraction, qkd.EveStrategyInterceptResend)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	start := time.Now()
	result, err := coord.Simulate(context.Background(), params)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("  ✓ Sifted %d bits in %v (QBER %.4f)\n", result.SiftedLength, time.Since(start).Round(time.Microsecond), result.QBER)

	if result.EveDetected {
		fmt.Println("  ⚠ Eve detected! QBER above the 10% threshold.")
		fmt.Println("    A real deployment would discard this key. The demo continues")
		fmt.Println("    to show the rest of the pipeline.")
	}
	fmt.Println()

	// Step 2: key derivation.
	sessionID := "demo-session"
	fmt.Println("Step 2: Deriving the symmetric key (HKDF-SHA-256)...")
	material, err := crypto.DeriveKey(result.KeyHex(), sessionID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("  ✓ 32-byte key derived, fingerprint %s\n", material.Fingerprint)
	material.Zeroize()
	fmt.Println()

	// Step 3: encrypt a pseudo-random payload.
	fmt.Printf("Step 3: Encrypting a %d-byte payload...\n", payloadSize)
	payload := make([]byte, payloadSize)
	rand.New(rand.NewSource(time.Now().UnixNano())).Read(payload)

	var container bytes.Buffer
	receipt, err := coord.Encrypt(context.Background(), transfer.EncryptRequest{
		SessionID:    sessionID,
		SiftedKeyHex: result.KeyHex(),
		Source:       bytes.NewReader(payload),
		Destination:  &container,
		TotalBytes:   int64(payloadSize),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("  ✓ %d chunks, container %d bytes, content hash %s...\n", receipt.Chunks, receipt.EncryptedSize, receipt.ContentHash[:16])
	fmt.Println()

	// Step 4: decrypt and verify.
	fmt.Println("Step 4: Decrypting and verifying...")
	var recovered bytes.Buffer
	_, err = coord.Decrypt(context.Background(), transfer.DecryptRequest{
		SessionID:           sessionID,
		SiftedKeyHex:        result.KeyHex(),
		Source:              bytes.NewReader(container.Bytes()),
		Destination:         &recovered,
		ExpectedContentHash: receipt.ContentHash,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if !bytes.Equal(recovered.Bytes(), payload) {
		fmt.Fprintln(os.Stderr, "Error: recovered payload does not match")
		os.Exit(1)
	}
	fmt.Println("  ✓ Payload recovered byte-identically, content hash verified")
	fmt.Println()

	// Step 5: tamper detection.
	fmt.Println("Step 5: Demonstrating tamper detection...")
	tampered := make([]byte, container.Len())
	copy(tampered, container.Bytes())
	tampered[constants.NonceSaltSize] ^= 0x01
	fmt.Println("  Flipped one bit in the first chunk's authentication tag.")

	var out bytes.Buffer
	_, err = coord.Decrypt(context.Background(), transfer.DecryptRequest{
		SessionID:    sessionID,
		SiftedKeyHex: result.KeyHex(),
		Source:       bytes.NewReader(tampered),
		Destination:  &out,
	})
	if err == nil {
		fmt.Fprintln(os.Stderr, "Error: tampering went undetected")
		os.Exit(1)
	}
	fmt.Printf("  ✓ Decryption rejected: %v\n", err)
	fmt.Printf("  ✓ Error kind: %s, plaintext bytes emitted: %d\n", qerrors.KindOf(err), out.Len())
	fmt.Println()

	fmt.Println("Demo complete.")
}
