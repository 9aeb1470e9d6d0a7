package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pzverkov/qtransfer/pkg/crypto"
	"github.com/pzverkov/qtransfer/pkg/qkd"
	"github.com/pzverkov/qtransfer/pkg/transfer"
)

func runSimulate(qubits int, noiseName string, noiseProb, eveFraction float64, showKey bool, logLevel, logFormat, tracing string) {
	_, logger, err := setupObservability(logLevel, logFormat, tracing)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	noise, err := qkd.ParseNoiseModel(noiseName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	params, err := qkd.NewSimulationParameters(qubits, noise, noiseProb, eveFraction, qkd.EveStrategyInterceptResend)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	coord := transfer.NewCoordinator(
		transfer.WithLogger(logger),
		transfer.WithRandomSource(crypto.NewSystemSource()),
	)

	result, err := coord.Simulate(context.Background(), params)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("BB84 Simulation Result")
	fmt.Println("----------------------")
	fmt.Printf("Qubits transmitted:   %d\n", qubits)
	fmt.Printf("Noise model:          %s (p=%g)\n", noise, noiseProb)
	fmt.Printf("Eve fraction:         %g\n", eveFraction)
	fmt.Printf("Sifted key length:    %d bits\n", result.SiftedLength)
	fmt.Printf("QBER:                 %.4f (over %d sampled bits)\n", result.QBER, len(result.SamplePositions))
	fmt.Printf("Eve detected:         %v\n", result.EveDetected)
	fmt.Printf("Alice bases (first):  %s\n", basesString(result.AliceBases))
	fmt.Printf("Bob bases (first):    %s\n", basesString(result.BobBases))

	if result.EveDetected {
		fmt.Println()
		fmt.Println("⚠ QBER above detection threshold: the channel is compromised.")
		fmt.Println("  Discard this key and re-run the exchange.")
	}

	if showKey {
		fmt.Printf("\nSifted key (hex):     %s\n", result.KeyHex())
	} else {
		fmt.Println("\nRun with --show-key to print the sifted key hex.")
	}
}

func basesString(bases []qkd.Basis) string {
	out := make([]byte, len(bases))
	for i, b := range bases {
		out[i] = byte(b)
	}
	return string(out)
}
