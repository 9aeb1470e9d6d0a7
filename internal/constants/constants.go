// Package constants defines security parameters and format constants for the
// qtransfer quantum-secured file transfer core.
//
// The values here are fixed design constants: both the encrypting and the
// decrypting side derive them independently, so changing any of them breaks
// compatibility with previously written containers.
package constants

// BB84 Simulation Parameters
const (
	// QBERSampleMax is the maximum number of sifted bits sacrificed for
	// QBER estimation per simulation run.
	QBERSampleMax = 100

	// QBERSampleDivisor bounds the sample to a quarter of the sifted key.
	QBERSampleDivisor = 4

	// QBERThreshold is the error rate above which active interception is
	// assumed. Intercept-resend induces ~25% QBER on the sifted key, well
	// above this threshold; depolarizing channel noise at realistic levels
	// stays below it.
	QBERThreshold = 0.1
)

// Key Derivation Parameters (HKDF-SHA-256)
const (
	// KeySize is the size of derived symmetric keys in bytes (AES-256).
	KeySize = 32

	// KDFContextInfo is the fixed, versioned HKDF info string. It binds
	// derived keys to this protocol version.
	KDFContextInfo = "qtransfer-aes-v1"

	// FingerprintLength is the length of the hex key fingerprint exposed to
	// callers (first 16 hex characters of SHA-256 of the derived key).
	FingerprintLength = 16
)

// Streaming Cipher Parameters
const (
	// ChunkSize is the plaintext bytes per encrypted chunk (64 KiB).
	ChunkSize = 64 * 1024

	// NonceSize is the AEAD nonce size in bytes (96 bits).
	NonceSize = 12

	// NonceSaltSize is the per-file random nonce salt written at the head
	// of every container. The remaining 8 nonce bytes are the big-endian
	// chunk counter, so nonces are unique per chunk under a fixed key.
	NonceSaltSize = 4

	// TagSize is the AEAD authentication tag size in bytes.
	TagSize = 16

	// MaxChunkRecordSize is the largest on-disk chunk record:
	// tag plus a full plaintext chunk of ciphertext.
	MaxChunkRecordSize = TagSize + ChunkSize

	// MaxChunksPerFile caps the chunk counter; with the 64-bit counter the
	// real bound is astronomically larger, but refusing absurd counts keeps
	// arithmetic on encrypted sizes in int64 range.
	MaxChunksPerFile = 1 << 40
)

// CipherSuite identifies the AEAD used by the streaming engine.
type CipherSuite uint16

const (
	// CipherSuiteAES256GCM uses AES-256-GCM. This is the default and the
	// interop suite; containers written by the reference system use it.
	CipherSuiteAES256GCM CipherSuite = 0x0001

	// CipherSuiteChaCha20Poly1305 uses ChaCha20-Poly1305. Same key, nonce
	// and tag sizes as AES-256-GCM, so the container layout is unchanged.
	CipherSuiteChaCha20Poly1305 CipherSuite = 0x0002
)

// String returns a human-readable name for the cipher suite
func (cs CipherSuite) String() string {
	switch cs {
	case CipherSuiteAES256GCM:
		return "AES-256-GCM"
	case CipherSuiteChaCha20Poly1305:
		return "ChaCha20-Poly1305"
	default:
		return "Unknown"
	}
}

// IsSupported returns true if the cipher suite is supported
func (cs CipherSuite) IsSupported() bool {
	return cs == CipherSuiteAES256GCM || cs == CipherSuiteChaCha20Poly1305
}
