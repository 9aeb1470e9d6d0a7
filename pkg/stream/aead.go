// aead.go selects and constructs the per-file AEAD cipher.
//
// Two suites are supported:
//   - AES-256-GCM: FIPS-approved, hardware-accelerated on modern CPUs. This
//     is the default and the interop suite for stored containers.
//   - ChaCha20-Poly1305: High performance without hardware support.
//
// Both use 32-byte keys, 96-bit nonces and 128-bit tags, so the container
// layout is identical under either suite.
//
// CRITICAL: Nonce reuse completely breaks AEAD security. Every chunk of a
// file is encrypted under a distinct nonce built from the file's random
// 4-byte salt and the chunk's 64-bit big-endian position:
//
//	nonce = salt(4B) || counter(8B BE)
//
// The salt separates files encrypted under the same key; the counter
// separates chunks within a file.
package stream

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/binary"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/pzverkov/qtransfer/internal/constants"
	qerrors "github.com/pzverkov/qtransfer/internal/errors"
)

// newAEAD creates the AEAD cipher for the given suite and 32-byte key.
func newAEAD(suite constants.CipherSuite, key []byte) (cipher.AEAD, error) {
	if len(key) != constants.KeySize {
		return nil, qerrors.ErrInvalidKeySize
	}

	switch suite {
	case constants.CipherSuiteAES256GCM:
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, qerrors.NewIOError("aes cipher", err)
		}
		return cipher.NewGCM(block)

	case constants.CipherSuiteChaCha20Poly1305:
		return chacha20poly1305.New(key)

	default:
		return nil, qerrors.ErrUnsupportedCipherSuite
	}
}

// chunkNonce writes the nonce for chunk c into nonce, which must be
// constants.NonceSize bytes.
func chunkNonce(nonce, salt []byte, c uint64) {
	copy(nonce[:constants.NonceSaltSize], salt)
	binary.BigEndian.PutUint64(nonce[constants.NonceSaltSize:], c)
}
