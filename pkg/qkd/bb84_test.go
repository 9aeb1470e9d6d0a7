package qkd

import (
	"errors"
	"math"
	mrand "math/rand"
	"testing"

	qerrors "github.com/pzverkov/qtransfer/internal/errors"
)

// seededSource is a deterministic RandomSource for tests. Production code
// must use a CSPRNG; tests favor reproducibility.
type seededSource struct {
	r *mrand.Rand
}

func newSeededSource(seed int64) *seededSource {
	return &seededSource{r: mrand.New(mrand.NewSource(seed))}
}

func (s *seededSource) Bit() (byte, error)        { return byte(s.r.Intn(2)), nil }
func (s *seededSource) Float64() (float64, error) { return s.r.Float64(), nil }
func (s *seededSource) Intn(n int) (int, error)   { return s.r.Intn(n), nil }

// failingSource returns an error on every draw.
type failingSource struct{}

var errDrained = errors.New("entropy drained")

func (failingSource) Bit() (byte, error)        { return 0, errDrained }
func (failingSource) Float64() (float64, error) { return 0, errDrained }
func (failingSource) Intn(int) (int, error)     { return 0, errDrained }

func mustParams(t *testing.T, qubits int, noiseP, eveFraction float64) SimulationParameters {
	t.Helper()
	p, err := NewSimulationParameters(qubits, NoiseModelDepolarizing, noiseP, eveFraction, EveStrategyInterceptResend)
	if err != nil {
		t.Fatalf("unexpected parameter error: %v", err)
	}
	return p
}

func TestSimulationParametersValidation(t *testing.T) {
	tests := []struct {
		name    string
		params  SimulationParameters
		wantErr error
	}{
		{
			name:    "zero qubits",
			params:  SimulationParameters{QubitCount: 0},
			wantErr: qerrors.ErrInvalidQubitCount,
		},
		{
			name:    "negative qubits",
			params:  SimulationParameters{QubitCount: -5},
			wantErr: qerrors.ErrInvalidQubitCount,
		},
		{
			name:    "noise probability above one",
			params:  SimulationParameters{QubitCount: 100, NoiseProbability: 1.5},
			wantErr: qerrors.ErrInvalidProbability,
		},
		{
			name:    "negative eve fraction",
			params:  SimulationParameters{QubitCount: 100, EveFraction: -0.1},
			wantErr: qerrors.ErrInvalidProbability,
		},
		{
			name:    "unsupported noise model",
			params:  SimulationParameters{QubitCount: 100, NoiseModel: NoiseModel(99)},
			wantErr: qerrors.ErrUnsupportedNoiseModel,
		},
		{
			name:    "unsupported eve strategy",
			params:  SimulationParameters{QubitCount: 100, EveStrategy: EveStrategy(99)},
			wantErr: qerrors.ErrUnsupportedEveStrategy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Simulate(tt.params, newSeededSource(1))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}

			var verr *qerrors.ValidationError
			if !errors.As(err, &verr) {
				t.Errorf("expected ValidationError, got %T", err)
			}
		})
	}
}

func TestSimulateNilRandomSource(t *testing.T) {
	_, err := Simulate(mustParams(t, 100, 0, 0), nil)
	if !errors.Is(err, qerrors.ErrNilRandomSource) {
		t.Errorf("expected ErrNilRandomSource, got %v", err)
	}
}

func TestSimulateRandomSourceFailure(t *testing.T) {
	_, err := Simulate(mustParams(t, 100, 0, 0), failingSource{})
	if !errors.Is(err, errDrained) {
		t.Errorf("expected source error to propagate, got %v", err)
	}
}

func TestSimulateCleanChannel(t *testing.T) {
	// No noise, no eavesdropper: the sifted key is error-free.
	result, err := Simulate(mustParams(t, 1000, 0, 0), newSeededSource(42))
	if err != nil {
		t.Fatal(err)
	}

	if result.QBER != 0 {
		t.Errorf("expected QBER 0 on a clean channel, got %g", result.QBER)
	}
	if result.EveDetected {
		t.Error("expected no eve detection on a clean channel")
	}
	if result.SiftedLength != len(result.KeyBits) {
		t.Errorf("SiftedLength %d does not match len(KeyBits) %d", result.SiftedLength, len(result.KeyBits))
	}
	for i, b := range result.KeyBits {
		if b != 0 && b != 1 {
			t.Fatalf("key bit %d has non-binary value %d", i, b)
		}
	}
}

func TestSimulateSiftedLengthDistribution(t *testing.T) {
	// Bases match with probability 1/2, so the sifted length concentrates
	// around n/2.
	const n = 4000
	result, err := Simulate(mustParams(t, n, 0, 0), newSeededSource(7))
	if err != nil {
		t.Fatal(err)
	}

	if result.SiftedLength < n/2-300 || result.SiftedLength > n/2+300 {
		t.Errorf("sifted length %d implausibly far from %d", result.SiftedLength, n/2)
	}
}

func TestSimulateQBERSampleSize(t *testing.T) {
	tests := []struct {
		name   string
		qubits int
	}{
		{"small run", 100},
		{"capped sample", 2000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Simulate(mustParams(t, tt.qubits, 0, 0), newSeededSource(3))
			if err != nil {
				t.Fatal(err)
			}

			want := result.SiftedLength / 4
			if want > 100 {
				want = 100
			}
			if got := len(result.SamplePositions); got != want {
				t.Errorf("expected sample of %d positions, got %d", want, got)
			}
			if len(result.SampleValues) != len(result.SamplePositions) {
				t.Errorf("sample values length %d does not match positions %d",
					len(result.SampleValues), len(result.SamplePositions))
			}

			seen := make(map[int]bool)
			for _, pos := range result.SamplePositions {
				if pos < 0 || pos >= result.SiftedLength {
					t.Errorf("sample position %d out of range [0, %d)", pos, result.SiftedLength)
				}
				if seen[pos] {
					t.Errorf("sample position %d drawn twice", pos)
				}
				seen[pos] = true
			}
		})
	}
}

func TestSimulateFullInterception(t *testing.T) {
	// A full intercept-resend attack induces ~25% QBER. Average over trials
	// to keep the test stable.
	const trials = 20
	var sum float64
	detections := 0

	for i := 0; i < trials; i++ {
		result, err := Simulate(mustParams(t, 2000, 0, 1.0), newSeededSource(int64(100+i)))
		if err != nil {
			t.Fatal(err)
		}
		sum += result.QBER
		if result.EveDetected {
			detections++
		}
	}

	mean := sum / trials
	if math.Abs(mean-0.25) > 0.05 {
		t.Errorf("expected mean QBER near 0.25 under full interception, got %g", mean)
	}
	if detections < trials-1 {
		t.Errorf("expected eve detected in nearly all trials, got %d/%d", detections, trials)
	}
}

func TestSimulateNoiseRaisesQBER(t *testing.T) {
	// Depolarizing noise alone raises the QBER but never sets the
	// detection flag, which requires eavesdropping to be enabled.
	const trials = 10
	var sum float64

	for i := 0; i < trials; i++ {
		result, err := Simulate(mustParams(t, 2000, 0.2, 0), newSeededSource(int64(500+i)))
		if err != nil {
			t.Fatal(err)
		}
		sum += result.QBER
		if result.EveDetected {
			t.Error("eve flag must stay false when eavesdropping is disabled")
		}
	}

	mean := sum / trials
	if math.Abs(mean-0.2) > 0.06 {
		t.Errorf("expected mean QBER near noise probability 0.2, got %g", mean)
	}
}

func TestSimulateBasisPreviews(t *testing.T) {
	result, err := Simulate(mustParams(t, 1000, 0, 0), newSeededSource(11))
	if err != nil {
		t.Fatal(err)
	}

	if len(result.AliceBases) != basisPreviewLen || len(result.BobBases) != basisPreviewLen {
		t.Errorf("expected %d-element basis previews, got %d and %d",
			basisPreviewLen, len(result.AliceBases), len(result.BobBases))
	}
	for _, b := range result.AliceBases {
		if b != BasisZ && b != BasisX {
			t.Fatalf("unexpected basis %v", b)
		}
	}

	short, err := Simulate(mustParams(t, 4, 0, 0), newSeededSource(12))
	if err != nil {
		t.Fatal(err)
	}
	if len(short.AliceBases) != 4 {
		t.Errorf("expected preview truncated to qubit count, got %d", len(short.AliceBases))
	}
}

func TestSampleIndicesExhaustive(t *testing.T) {
	// Drawing n of n indices yields a permutation.
	sample, err := sampleIndices(newSeededSource(5), 8, 8)
	if err != nil {
		t.Fatal(err)
	}

	seen := make(map[int]bool)
	for _, v := range sample {
		seen[v] = true
	}
	if len(seen) != 8 {
		t.Errorf("expected a permutation of 8 indices, got %v", sample)
	}
}
