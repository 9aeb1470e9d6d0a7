// Package qkd implements a classical probabilistic simulation of the BB84
// quantum key distribution protocol.
//
// The simulation models photon transmission analytically rather than through
// a quantum circuit backend: for each qubit the outcome distribution implied
// by the chosen bases is sampled directly. This reproduces the statistics
// that matter for key agreement and eavesdropper detection:
//
//   - When Alice and Bob pick the same basis and nobody interferes, Bob
//     measures Alice's bit exactly.
//   - When bases differ, Bob's outcome is uniformly random.
//   - An intercept-resend eavesdropper guesses her own basis, measures, and
//     retransmits; a wrong guess randomizes Bob's outcome even when his
//     basis matches Alice's, inducing ~25% QBER on the sifted key.
//
// Sifting keeps only the positions where both parties used the same basis.
// A random sample of the sifted key is sacrificed to estimate the QBER; a
// rate above the detection threshold with eavesdropping enabled reports Eve
// as detected.
//
// All randomness is drawn from the caller-supplied RandomSource. The sifted
// key becomes encryption key material, so the source must be backed by a
// CSPRNG; outcomes must not be reproducible from a seed.
package qkd

import (
	"fmt"

	"github.com/pzverkov/qtransfer/internal/constants"
	qerrors "github.com/pzverkov/qtransfer/internal/errors"
)

// RandomSource supplies the randomness for a simulation run. Implementations
// must be cryptographically secure and safe for concurrent use by
// independent sessions. pkg/crypto.SystemSource is the production
// implementation.
type RandomSource interface {
	// Bit returns a uniform bit, 0 or 1.
	Bit() (byte, error)

	// Float64 returns a uniform value in [0, 1).
	Float64() (float64, error)

	// Intn returns a uniform value in [0, n). n must be positive.
	Intn(n int) (int, error)
}

// Simulate runs one BB84 exchange and returns the sifted key with its QBER
// estimate.
//
// Parameters are validated before any randomness is consumed; invalid input
// returns a ValidationError. Any error from the random source is treated as
// a critical failure and aborts the run.
func Simulate(params SimulationParameters, rng RandomSource) (*SiftedKeyResult, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, qerrors.ErrNilRandomSource
	}

	n := params.QubitCount

	aliceBits := make([]byte, n)
	aliceBases := make([]Basis, n)
	bobBases := make([]Basis, n)
	bobBits := make([]byte, n)

	for i := 0; i < n; i++ {
		var err error
		if aliceBits[i], err = rng.Bit(); err != nil {
			return nil, fmt.Errorf("draw alice bit: %w", err)
		}
		if aliceBases[i], err = randomBasis(rng); err != nil {
			return nil, fmt.Errorf("draw alice basis: %w", err)
		}
		if bobBases[i], err = randomBasis(rng); err != nil {
			return nil, fmt.Errorf("draw bob basis: %w", err)
		}

		received, err := transmit(params, rng, aliceBits[i], aliceBases[i], bobBases[i])
		if err != nil {
			return nil, err
		}

		// Depolarizing channel noise flips the received bit independently
		// of any interception.
		if params.NoiseModel == NoiseModelDepolarizing && params.NoiseProbability > 0 {
			flip, err := rng.Float64()
			if err != nil {
				return nil, fmt.Errorf("draw noise flip: %w", err)
			}
			if flip < params.NoiseProbability {
				received ^= 1
			}
		}

		bobBits[i] = received
	}

	// Sifting: keep Alice's bits at every matching-basis position.
	siftedBits := make([]byte, 0, n/2+1)
	siftedPositions := make([]int, 0, n/2+1)
	for i := 0; i < n; i++ {
		if aliceBases[i] == bobBases[i] {
			siftedBits = append(siftedBits, aliceBits[i])
			siftedPositions = append(siftedPositions, i)
		}
	}

	result := &SiftedKeyResult{
		KeyBits:         siftedBits,
		SiftedLength:    len(siftedBits),
		SamplePositions: []int{},
		SampleValues:    []byte{},
		AliceBases:      preview(aliceBases),
		BobBases:        preview(bobBases),
		BobMeasurements: previewBits(bobBits),
	}

	// QBER estimation on a random sample of the sifted key, drawn without
	// replacement. Compares Alice's original bit with Bob's received bit at
	// the sampled positions.
	sampleSize := result.SiftedLength / constants.QBERSampleDivisor
	if sampleSize > constants.QBERSampleMax {
		sampleSize = constants.QBERSampleMax
	}
	if sampleSize > 0 {
		sample, err := sampleIndices(rng, result.SiftedLength, sampleSize)
		if err != nil {
			return nil, fmt.Errorf("draw qber sample: %w", err)
		}

		mismatches := 0
		values := make([]byte, len(sample))
		for i, pos := range sample {
			origIdx := siftedPositions[pos]
			values[i] = aliceBits[origIdx]
			if aliceBits[origIdx] != bobBits[origIdx] {
				mismatches++
			}
		}

		result.QBER = float64(mismatches) / float64(sampleSize)
		result.SamplePositions = sample
		result.SampleValues = values
	}

	result.EveDetected = params.EveFraction > 0 && result.QBER > constants.QBERThreshold

	return result, nil
}

// transmit models one qubit's journey from Alice to Bob, including an
// optional intercept-resend eavesdropper.
func transmit(params SimulationParameters, rng RandomSource, aliceBit byte, aliceBasis, bobBasis Basis) (byte, error) {
	intercepted := false
	if params.EveFraction > 0 {
		p, err := rng.Float64()
		if err != nil {
			return 0, fmt.Errorf("draw interception: %w", err)
		}
		intercepted = p < params.EveFraction
	}

	if !intercepted {
		if bobBasis == aliceBasis {
			return aliceBit, nil
		}
		b, err := rng.Bit()
		if err != nil {
			return 0, fmt.Errorf("draw bob outcome: %w", err)
		}
		return b, nil
	}

	// Eve measures in her own random basis and resends her result.
	eveBasis, err := randomBasis(rng)
	if err != nil {
		return 0, fmt.Errorf("draw eve basis: %w", err)
	}
	eveBit := aliceBit
	if eveBasis != aliceBasis {
		if eveBit, err = rng.Bit(); err != nil {
			return 0, fmt.Errorf("draw eve outcome: %w", err)
		}
	}

	if bobBasis == eveBasis {
		return eveBit, nil
	}
	b, err := rng.Bit()
	if err != nil {
		return 0, fmt.Errorf("draw bob outcome: %w", err)
	}
	return b, nil
}

// randomBasis draws a uniform measurement basis.
func randomBasis(rng RandomSource) (Basis, error) {
	b, err := rng.Bit()
	if err != nil {
		return 0, err
	}
	if b == 0 {
		return BasisZ, nil
	}
	return BasisX, nil
}

// sampleIndices draws k distinct indices from [0, n) uniformly, via a
// partial Fisher-Yates shuffle.
func sampleIndices(rng RandomSource, n, k int) ([]int, error) {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	for i := 0; i < k; i++ {
		j, err := rng.Intn(n - i)
		if err != nil {
			return nil, err
		}
		idx[i], idx[i+j] = idx[i+j], idx[i]
	}
	return idx[:k], nil
}

func preview(bases []Basis) []Basis {
	n := basisPreviewLen
	if len(bases) < n {
		n = len(bases)
	}
	out := make([]Basis, n)
	copy(out, bases[:n])
	return out
}

func previewBits(bits []byte) []byte {
	n := basisPreviewLen
	if len(bits) < n {
		n = len(bits)
	}
	out := make([]byte, n)
	copy(out, bits[:n])
	return out
}
