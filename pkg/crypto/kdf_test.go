package crypto

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/pzverkov/qtransfer/internal/constants"
	qerrors "github.com/pzverkov/qtransfer/internal/errors"
)

func TestDeriveKeyDeterministic(t *testing.T) {
	const keyHex = "deadbeefcafe0123456789abcdef0011"
	const session = "session-abc-123"

	m1, err := DeriveKey(keyHex, session)
	if err != nil {
		t.Fatal(err)
	}
	m2, err := DeriveKey(keyHex, session)
	if err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(m1.Key, m2.Key) {
		t.Error("identical inputs must yield identical keys")
	}
	if m1.Fingerprint != m2.Fingerprint {
		t.Error("identical inputs must yield identical fingerprints")
	}
	if len(m1.Key) != constants.KeySize {
		t.Errorf("expected %d-byte key, got %d", constants.KeySize, len(m1.Key))
	}
	if len(m1.Fingerprint) != constants.FingerprintLength {
		t.Errorf("expected %d-char fingerprint, got %d", constants.FingerprintLength, len(m1.Fingerprint))
	}
}

func TestDeriveKeySaltSeparation(t *testing.T) {
	const keyHex = "deadbeefcafe0123456789abcdef0011"

	m1, err := DeriveKey(keyHex, "session-1")
	if err != nil {
		t.Fatal(err)
	}
	m2, err := DeriveKey(keyHex, "session-2")
	if err != nil {
		t.Fatal(err)
	}

	if bytes.Equal(m1.Key, m2.Key) {
		t.Error("different session salts must yield different keys")
	}
	if m1.Fingerprint == m2.Fingerprint {
		t.Error("different session salts must yield different fingerprints")
	}
}

func TestDeriveKeyRejectsBadInput(t *testing.T) {
	tests := []struct {
		name    string
		hexKey  string
		wantErr error
	}{
		{"non-hex characters", "zz00", qerrors.ErrMalformedHexKey},
		{"odd length", "abc", qerrors.ErrMalformedHexKey},
		{"empty", "", qerrors.ErrEmptyKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DeriveKey(tt.hexKey, "session")
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestFingerprint(t *testing.T) {
	key := []byte("0123456789abcdef0123456789abcdef")
	sum := sha256.Sum256(key)
	want := hex.EncodeToString(sum[:])[:constants.FingerprintLength]

	if got := Fingerprint(key); got != want {
		t.Errorf("Fingerprint() = %q, want %q", got, want)
	}
}

func TestZeroizeKeyMaterial(t *testing.T) {
	m, err := DeriveKey("deadbeef", "session")
	if err != nil {
		t.Fatal(err)
	}

	m.Zeroize()
	for i, b := range m.Key {
		if b != 0 {
			t.Fatalf("byte %d not zeroed after Zeroize", i)
		}
	}
}
