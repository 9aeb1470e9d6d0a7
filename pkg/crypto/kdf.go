// kdf.go implements symmetric key derivation using HKDF-SHA-256 (RFC 5869).
//
// The derivation is deliberately deterministic: the encrypting and the
// decrypting side never exchange the key itself. Each side independently
// derives it from the persisted hex-encoded sifted key and the owning
// session's identifier as salt:
//
//	key = HKDF-SHA-256(secret = hex-decode(siftedKeyHex),
//	                   salt   = sessionID,
//	                   info   = "qtransfer-aes-v1",
//	                   length = 32)
//
// The fixed info string binds derived keys to this protocol version; bumping
// it invalidates every previously written container by design of HKDF domain
// separation.
//
// The fingerprint is the first 16 hex characters of SHA-256 of the derived
// key. It identifies the key in progress events and receipts without
// revealing usable key material.
package crypto

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	"github.com/pzverkov/qtransfer/internal/constants"
	qerrors "github.com/pzverkov/qtransfer/internal/errors"
)

// SymmetricKeyMaterial holds a derived symmetric key and its fingerprint.
// Key material is recomputed on demand for both encryption and decryption
// and must never be persisted; call Zeroize as soon as the operation
// completes.
type SymmetricKeyMaterial struct {
	// Key is the derived encryption key, exactly 32 bytes.
	Key []byte

	// Fingerprint is the 16-hex-character key identifier.
	Fingerprint string
}

// Zeroize erases the key material.
func (m *SymmetricKeyMaterial) Zeroize() {
	Zeroize(m.Key)
}

// DeriveKey derives the symmetric key for a session.
//
// siftedKeyHex is the persisted hex encoding of the BB84 sifted key; salt is
// the owning session's identifier. Identical inputs always yield identical
// outputs, independent of process or machine.
//
// Returns ErrMalformedHexKey if the hex string has odd length or non-hex
// characters, and ErrEmptyKey if it decodes to zero bytes.
func DeriveKey(siftedKeyHex, salt string) (*SymmetricKeyMaterial, error) {
	secret, err := hex.DecodeString(siftedKeyHex)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", qerrors.ErrMalformedHexKey, err)
	}
	if len(secret) == 0 {
		return nil, qerrors.ErrEmptyKey
	}

	r := hkdf.New(sha256.New, secret, []byte(salt), []byte(constants.KDFContextInfo))
	key := make([]byte, constants.KeySize)
	if _, err := io.ReadFull(r, key); err != nil {
		// Cannot happen for a 32-byte read from HKDF-SHA-256.
		return nil, qerrors.NewIOError("hkdf expand", err)
	}

	return &SymmetricKeyMaterial{
		Key:         key,
		Fingerprint: Fingerprint(key),
	}, nil
}

// Fingerprint returns the first 16 hex characters of SHA-256 of key.
func Fingerprint(key []byte) string {
	sum := sha256.Sum256(key)
	return hex.EncodeToString(sum[:])[:constants.FingerprintLength]
}
