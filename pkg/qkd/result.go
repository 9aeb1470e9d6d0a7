// result.go defines the output of a BB84 simulation run and the sifted-key
// byte encoding shared with the key-derivation layer.
package qkd

import "encoding/hex"

// Basis is a BB84 measurement basis.
type Basis byte

const (
	// BasisZ is the computational (rectilinear) basis.
	BasisZ Basis = 'Z'

	// BasisX is the Hadamard (diagonal) basis.
	BasisX Basis = 'X'
)

// String returns the basis name.
func (b Basis) String() string {
	return string(b)
}

// basisPreviewLen is how many per-qubit records the result retains for
// display, mirroring what the session layer shows to users.
const basisPreviewLen = 10

// SiftedKeyResult is the outcome of one simulation run. It is produced once
// by Simulate and never mutated afterwards.
type SiftedKeyResult struct {
	// KeyBits is the sifted key: Alice's bits (values 0 or 1) at every
	// position where Alice's and Bob's bases matched, in transmission order.
	KeyBits []byte

	// SiftedLength is len(KeyBits).
	SiftedLength int

	// QBER is the estimated quantum bit error rate in [0, 1], measured on
	// SamplePositions.
	QBER float64

	// SamplePositions are the indices into the sifted sequence sacrificed
	// for QBER estimation.
	SamplePositions []int

	// SampleValues are Alice's bits at the sampled positions.
	SampleValues []byte

	// EveDetected is true when eavesdropping was enabled and the measured
	// QBER exceeds the detection threshold.
	EveDetected bool

	// AliceBases, BobBases and BobMeasurements hold the first few per-qubit
	// records for display; they carry no key material beyond the preview.
	AliceBases      []Basis
	BobBases        []Basis
	BobMeasurements []byte
}

// KeyBytes packs the sifted bit sequence into bytes, most-significant-bit
// first, zero-padding the final byte when SiftedLength is not a multiple
// of eight.
func (r *SiftedKeyResult) KeyBytes() []byte {
	return PackBits(r.KeyBits)
}

// KeyHex returns the packed sifted key as a lowercase hex string. This is
// the form the session layer persists and later feeds to key derivation.
func (r *SiftedKeyResult) KeyHex() string {
	return hex.EncodeToString(r.KeyBytes())
}

// PackBits packs a sequence of 0/1 values into bytes, MSB first. The final
// byte is zero-padded when the bit count is not a multiple of eight.
func PackBits(bits []byte) []byte {
	if len(bits) == 0 {
		return []byte{}
	}
	out := make([]byte, (len(bits)+7)/8)
	for i, b := range bits {
		if b != 0 {
			out[i/8] |= 0x80 >> (i % 8)
		}
	}
	return out
}
