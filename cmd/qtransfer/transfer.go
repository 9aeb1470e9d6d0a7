package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/pzverkov/qtransfer/internal/constants"
	"github.com/pzverkov/qtransfer/pkg/metrics"
	"github.com/pzverkov/qtransfer/pkg/transfer"
)

type transferConfig struct {
	encrypt      bool
	in           string
	out          string
	keyHex       string
	session      string
	expectedHash string
	cipher       string
	quiet        bool
	obsAddr      string
	logLevel     string
	logFormat    string
	tracing      string
}

func runTransfer(cfg transferConfig) {
	collector, logger, err := setupObservability(cfg.logLevel, cfg.logFormat, cfg.tracing)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if cfg.in == "" || cfg.out == "" || cfg.keyHex == "" || cfg.session == "" {
		fmt.Fprintln(os.Stderr, "Error: --in, --out, --key and --session are required")
		os.Exit(1)
	}

	suite, err := parseCipherSuite(cfg.cipher)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	src, err := os.Open(cfg.in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot open input: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = src.Close() }()

	info, err := src.Stat()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot stat input: %v\n", err)
		os.Exit(1)
	}

	dst, err := os.Create(cfg.out)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot create output: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = dst.Close() }()

	if cfg.obsAddr != "" {
		server := metrics.NewServer(metrics.ServerConfig{
			Collector:        collector,
			Version:          getVersion(),
			Namespace:        "qtransfer",
			EnablePrometheus: true,
			EnableHealth:     true,
		})
		go func() {
			if err := server.ListenAndServe(cfg.obsAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("observability server error", metrics.Fields{"error": err.Error()})
			}
		}()
		fmt.Printf("Observability server on %s (metrics: /metrics, health: /health)\n", cfg.obsAddr)
	}

	var progress transfer.ProgressSink = transfer.NopProgressSink{}
	if !cfg.quiet {
		progress = consoleProgress()
	}

	coord := transfer.NewCoordinator(
		transfer.WithLogger(logger),
		transfer.WithCollector(collector),
		transfer.WithCipherSuite(suite),
		transfer.WithProgressSink(progress),
	)

	totalBytes := info.Size()
	if cfg.encrypt {
		receipt, err := coord.Encrypt(context.Background(), transfer.EncryptRequest{
			SessionID:    cfg.session,
			SiftedKeyHex: cfg.keyHex,
			Source:       src,
			Destination:  dst,
			TotalBytes:   totalBytes,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "\nError: encryption failed: %v\n", err)
			_ = os.Remove(cfg.out)
			os.Exit(1)
		}

		if !cfg.quiet {
			fmt.Println()
		}
		fmt.Printf("✓ Encrypted %d bytes into %d chunks\n", receipt.PlaintextSize, receipt.Chunks)
		fmt.Printf("  Container:       %s (%d bytes)\n", cfg.out, receipt.EncryptedSize)
		fmt.Printf("  Content hash:    %s\n", receipt.ContentHash)
		fmt.Printf("  Key fingerprint: %s\n", receipt.KeyFingerprint)
		fmt.Println("\nKeep the content hash: pass it to decrypt --hash for verification.")
		return
	}

	receipt, err := coord.Decrypt(context.Background(), transfer.DecryptRequest{
		SessionID:           cfg.session,
		SiftedKeyHex:        cfg.keyHex,
		Source:              src,
		Destination:         dst,
		ExpectedContentHash: cfg.expectedHash,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "\nError: decryption failed: %v\n", err)
		// Partially written plaintext is invalid; never leave it behind.
		_ = os.Remove(cfg.out)
		os.Exit(1)
	}

	if !cfg.quiet {
		fmt.Println()
	}
	fmt.Printf("✓ Decrypted %d chunks, %d bytes\n", receipt.Chunks, receipt.PlaintextSize)
	fmt.Printf("  Output:          %s\n", cfg.out)
	fmt.Printf("  Content hash:    %s\n", receipt.ContentHash)
	fmt.Printf("  Key fingerprint: %s\n", receipt.KeyFingerprint)
	if cfg.expectedHash != "" {
		fmt.Println("  Hash verified:   yes")
	}
}

// consoleProgress renders a single-line progress indicator.
func consoleProgress() transfer.ProgressSink {
	return transfer.ProgressFunc(func(_ context.Context, e transfer.ProgressEvent) {
		fmt.Printf("\r%-7s %6.2f%%  (%d chunks, %d bytes)", e.Stage, e.Percent, e.ChunksProcessed, e.BytesProcessed)
	})
}

func parseCipherSuite(name string) (constants.CipherSuite, error) {
	switch strings.ToLower(name) {
	case "aes-gcm", "aes", "":
		return constants.CipherSuiteAES256GCM, nil
	case "chacha20", "chacha20-poly1305":
		return constants.CipherSuiteChaCha20Poly1305, nil
	default:
		return 0, fmt.Errorf("invalid cipher suite: %s (use aes-gcm or chacha20)", name)
	}
}
