package constants

import "testing"

// TestCipherSuiteString tests String method for CipherSuite.
func TestCipherSuiteString(t *testing.T) {
	tests := []struct {
		suite CipherSuite
		want  string
	}{
		{CipherSuiteAES256GCM, "AES-256-GCM"},
		{CipherSuiteChaCha20Poly1305, "ChaCha20-Poly1305"},
		{CipherSuite(0x9999), "Unknown"},
	}

	for _, tt := range tests {
		got := tt.suite.String()
		if got != tt.want {
			t.Errorf("CipherSuite(%d).String() = %q, want %q", tt.suite, got, tt.want)
		}
	}
}

// TestCipherSuiteIsSupported tests IsSupported method for CipherSuite.
func TestCipherSuiteIsSupported(t *testing.T) {
	tests := []struct {
		suite CipherSuite
		want  bool
	}{
		{CipherSuiteAES256GCM, true},
		{CipherSuiteChaCha20Poly1305, true},
		{CipherSuite(0x0000), false},
		{CipherSuite(0xFFFF), false},
		{CipherSuite(0x0003), false},
	}

	for _, tt := range tests {
		got := tt.suite.IsSupported()
		if got != tt.want {
			t.Errorf("CipherSuite(%d).IsSupported() = %v, want %v", tt.suite, got, tt.want)
		}
	}
}

// TestConstants verifies constant values using table-driven tests.
func TestConstants(t *testing.T) {
	t.Run("CipherParameters", testCipherParameters)
	t.Run("SimulationParameters", testSimulationParameters)
	t.Run("KDFParameters", testKDFParameters)
}

func testCipherParameters(t *testing.T) {
	tests := []struct {
		name string
		got  int
		want int
	}{
		{"KeySize", KeySize, 32},
		{"NonceSize", NonceSize, 12},
		{"NonceSaltSize", NonceSaltSize, 4},
		{"TagSize", TagSize, 16},
		{"ChunkSize", ChunkSize, 65536},
		{"MaxChunkRecordSize", MaxChunkRecordSize, TagSize + ChunkSize},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %d, want %d", tt.name, tt.got, tt.want)
		}
	}

	// Salt plus the 8-byte counter must fill the nonce exactly.
	if NonceSaltSize+8 != NonceSize {
		t.Errorf("NonceSaltSize(%d) + 8 != NonceSize(%d)", NonceSaltSize, NonceSize)
	}
}

func testSimulationParameters(t *testing.T) {
	if QBERSampleMax != 100 {
		t.Errorf("QBERSampleMax = %d, want 100", QBERSampleMax)
	}
	if QBERSampleDivisor != 4 {
		t.Errorf("QBERSampleDivisor = %d, want 4", QBERSampleDivisor)
	}
	if QBERThreshold <= 0 || QBERThreshold >= 0.25 {
		t.Errorf("QBERThreshold = %v, must sit between channel noise and intercept-resend QBER", QBERThreshold)
	}
}

func testKDFParameters(t *testing.T) {
	if len(KDFContextInfo) == 0 {
		t.Error("KDFContextInfo is empty")
	}
	if FingerprintLength != 16 {
		t.Errorf("FingerprintLength = %d, want 16", FingerprintLength)
	}
}

// TestCipherSuiteUniqueness ensures cipher suite IDs are unique.
func TestCipherSuiteUniqueness(t *testing.T) {
	if CipherSuiteAES256GCM == CipherSuiteChaCha20Poly1305 {
		t.Error("Cipher suite IDs must be unique")
	}
}
