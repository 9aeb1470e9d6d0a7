package main

import (
	"flag"
	"fmt"
	"os"

	pkgversion "github.com/pzverkov/qtransfer/pkg/version"
)

// Build-time variables (set via -ldflags)
var (
	version   = ""        // Set via -ldflags "-X main.version=x.y.z"
	buildTime = "unknown" // Set via -ldflags "-X main.buildTime=..."
	gitCommit = "unknown" // Set via -ldflags "-X main.gitCommit=..."
)

func getVersion() string {
	if version != "" {
		return version
	}
	return pkgversion.String()
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "simulate":
		simulateCommand()
	case "encrypt":
		encryptCommand()
	case "decrypt":
		decryptCommand()
	case "demo":
		demoCommand()
	case "version":
		fmt.Printf("qtransfer version %s\n", getVersion())
		if buildTime != "unknown" {
			fmt.Printf("Built: %s\n", buildTime)
		}
		if gitCommit != "unknown" {
			fmt.Printf("Commit: %s\n", gitCommit)
		}
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`qtransfer - Quantum Key Distribution File Encryption Tool

USAGE:
    qtransfer <command> [options]

COMMANDS:
    simulate  Run a BB84 key exchange simulation
    encrypt   Encrypt a file with a simulated session key
    decrypt   Decrypt a container back to plaintext
    demo      Run the full pipeline end to end with explanations
    version   Print version information
    help      Show this help message

Run 'qtransfer <command> --help' for more information on a command.

EXAMPLES:
    # Simulate a clean 1000-qubit exchange
    qtransfer simulate --qubits 1000

    # Simulate with a full intercept-resend eavesdropper
    qtransfer simulate --qubits 2000 --eve 1.0

    # Encrypt a file (key and session from a previous simulation)
    qtransfer encrypt --in report.pdf --out report.pdf.qt \
        --key 9f2c4ad18e6b73c0 --session session-42

    # Decrypt and verify the content hash
    qtransfer decrypt --in report.pdf.qt --out report.pdf \
        --key 9f2c4ad18e6b73c0 --session session-42 --hash <content-hash>

PROJECT:
    qtransfer - BB84 QKD simulation + HKDF-SHA-256 + chunked AES-256-GCM
    https://github.com/pzverkov/qtransfer`)
}

func simulateCommand() {
	fs := flag.NewFlagSet("simulate", flag.ExitOnError)
	qubits := fs.Int("qubits", 1000, "Number of qubits to transmit")
	noise := fs.String("noise", "depolarizing", "Noise model: none or depolarizing")
	noiseProb := fs.Float64("noise-prob", 0, "Per-qubit bit flip probability [0, 1]")
	eve := fs.Float64("eve", 0, "Eavesdropper interception fraction [0, 1]")
	showKey := fs.Bool("show-key", false, "Print the sifted key hex (sensitive)")
	logLevel := fs.String("log-level", "warn", "Log level: debug, info, warn, error, silent")
	logFormat := fs.String("log-format", "text", "Log format: text or json")
	tracing := fs.String("tracing", "none", "Tracing mode: none, simple, otel (requires -tags otel)")

	fs.Usage = func() {
		fmt.Println(`USAGE: qtransfer simulate [options]

Run one BB84 key exchange simulation and report the sifted key statistics.

OPTIONS:`)
		fs.PrintDefaults()
		fmt.Println(`
EXAMPLES:
    # Clean channel
    qtransfer simulate --qubits 1000

    # Noisy channel
    qtransfer simulate --qubits 2000 --noise-prob 0.05

    # Full interception (expect ~25% QBER and eve detection)
    qtransfer simulate --qubits 2000 --eve 1.0`)
	}

	_ = fs.Parse(os.Args[2:])

	runSimulate(*qubits, *noise, *noiseProb, *eve, *showKey, *logLevel, *logFormat, *tracing)
}

func encryptCommand() {
	fs := flag.NewFlagSet("encrypt", flag.ExitOnError)
	in := fs.String("in", "", "Input plaintext file (required)")
	out := fs.String("out", "", "Output container file (required)")
	keyHex := fs.String("key", "", "Sifted key hex from a simulation (required)")
	session := fs.String("session", "", "Session identifier, salts key derivation (required)")
	cipher := fs.String("cipher", "aes-gcm", "Cipher suite: aes-gcm or chacha20")
	quiet := fs.Bool("quiet", false, "Suppress progress output")
	obsAddr := fs.String("obs-addr", "", "Observability server address (e.g. :9090). Empty disables")
	logLevel := fs.String("log-level", "warn", "Log level: debug, info, warn, error, silent")
	logFormat := fs.String("log-format", "text", "Log format: text or json")
	tracing := fs.String("tracing", "none", "Tracing mode: none, simple, otel (requires -tags otel)")

	fs.Usage = func() {
		fmt.Println(`USAGE: qtransfer encrypt [options]

Derive the session key and encrypt a file into the chunked container format.

OPTIONS:`)
		fs.PrintDefaults()
	}

	_ = fs.Parse(os.Args[2:])

	runTransfer(transferConfig{
		encrypt:   true,
		in:        *in,
		out:       *out,
		keyHex:    *keyHex,
		session:   *session,
		cipher:    *cipher,
		quiet:     *quiet,
		obsAddr:   *obsAddr,
		logLevel:  *logLevel,
		logFormat: *logFormat,
		tracing:   *tracing,
	})
}

func decryptCommand() {
	fs := flag.NewFlagSet("decrypt", flag.ExitOnError)
	in := fs.String("in", "", "Input container file (required)")
	out := fs.String("out", "", "Output plaintext file (required)")
	keyHex := fs.String("key", "", "Sifted key hex from the originating simulation (required)")
	session := fs.String("session", "", "Session identifier used at encryption time (required)")
	hash := fs.String("hash", "", "Expected content hash for post-decrypt verification")
	cipher := fs.String("cipher", "aes-gcm", "Cipher suite: aes-gcm or chacha20")
	quiet := fs.Bool("quiet", false, "Suppress progress output")
	obsAddr := fs.String("obs-addr", "", "Observability server address (e.g. :9090). Empty disables")
	logLevel := fs.String("log-level", "warn", "Log level: debug, info, warn, error, silent")
	logFormat := fs.String("log-format", "text", "Log format: text or json")
	tracing := fs.String("tracing", "none", "Tracing mode: none, simple, otel (requires -tags otel)")

	fs.Usage = func() {
		fmt.Println(`USAGE: qtransfer decrypt [options]

Derive the session key and decrypt a container. Every chunk is authenticated
before any plaintext is written; pass --hash to additionally verify the
recomputed content hash against the one recorded at encryption time.

OPTIONS:`)
		fs.PrintDefaults()
	}

	_ = fs.Parse(os.Args[2:])

	runTransfer(transferConfig{
		encrypt:      false,
		in:           *in,
		out:          *out,
		keyHex:       *keyHex,
		session:      *session,
		expectedHash: *hash,
		cipher:       *cipher,
		quiet:        *quiet,
		obsAddr:      *obsAddr,
		logLevel:     *logLevel,
		logFormat:    *logFormat,
		tracing:      *tracing,
	})
}

func demoCommand() {
	fs := flag.NewFlagSet("demo", flag.ExitOnError)
	qubits := fs.Int("qubits", 1000, "Number of qubits for the demo exchange")
	eve := fs.Float64("eve", 0, "Eavesdropper interception fraction [0, 1]")
	size := fs.Int("size", 256*1024, "Demo payload size in bytes")

	fs.Usage = func() {
		fmt.Println(`USAGE: qtransfer demo [options]

Run the full pipeline end to end with step-by-step output: simulate a key
exchange, derive the symmetric key, encrypt a pseudo-random payload, decrypt
it, then demonstrate tamper detection.

OPTIONS:`)
		fs.PrintDefaults()
		fmt.Println(`
EXAMPLES:
    # Clean demo run
    qtransfer demo

    # Watch the QBER jump with a full eavesdropper
    qtransfer demo --eve 1.0`)
	}

	_ = fs.Parse(os.Args[2:])

	runPipelineDemo(*qubits, *eve, *size)
}
