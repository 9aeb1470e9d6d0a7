// Package crypto provides the cryptographic primitives of the qtransfer core:
// CSPRNG access for the BB84 simulator and HKDF-SHA-256 key derivation.
// It wraps Go's standard library cryptographic functions with additional
// safety checks and consistent error handling.
//
// Security Note: All random number generation uses crypto/rand which provides
// cryptographically secure random bytes from the operating system's CSPRNG.
// The simulator's output becomes encryption key material, so nothing here is
// ever seeded or reproducible.
package crypto

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"io"
	"math/big"
	"sync"

	qerrors "github.com/pzverkov/qtransfer/internal/errors"
)

// SecureRandom reads cryptographically secure random bytes into the provided slice.
// It uses crypto/rand.Read which sources entropy from the OS CSPRNG.
//
// This function will only return an error if the system's random number generator
// fails, which should be treated as a critical system failure.
func SecureRandom(b []byte) error {
	_, err := io.ReadFull(rand.Reader, b)
	if err != nil {
		return qerrors.NewIOError("SecureRandom", err)
	}
	return nil
}

// SecureRandomBytes returns n cryptographically secure random bytes.
// Returns an error if the system's CSPRNG fails.
func SecureRandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if err := SecureRandom(b); err != nil {
		return nil, err
	}
	return b, nil
}

// Zeroize securely erases sensitive data from memory by overwriting with zeros.
// This should be called on sensitive keys and secrets when they are no longer needed.
//
// Note: The Go runtime may have already copied the data, and the compiler may
// optimize away the zeroing. For maximum security, consider using memory
// protections at the OS level in production deployments.
func Zeroize(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// SystemSource draws simulation randomness from the OS CSPRNG. It satisfies
// the qkd.RandomSource interface and is safe for concurrent use by
// independent sessions.
//
// Bits are served from a small buffered block to avoid one syscall per bit;
// the buffer holds raw CSPRNG output and is refilled on demand.
type SystemSource struct {
	mu   sync.Mutex
	buf  [256]byte
	pos  int // next unread byte in buf
	bits byte
	nb   int // unused bits remaining in bits
}

// NewSystemSource creates a SystemSource. The zero value is not usable;
// always construct through this function.
func NewSystemSource() *SystemSource {
	return &SystemSource{pos: 256}
}

// Bit returns a uniform bit, 0 or 1.
func (s *SystemSource) Bit() (byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.nb == 0 {
		b, err := s.nextByte()
		if err != nil {
			return 0, err
		}
		s.bits = b
		s.nb = 8
	}
	bit := s.bits & 1
	s.bits >>= 1
	s.nb--
	return bit, nil
}

// Float64 returns a uniform value in [0, 1) with 53 bits of precision.
func (s *SystemSource) Float64() (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var raw [8]byte
	for i := range raw {
		b, err := s.nextByte()
		if err != nil {
			return 0, err
		}
		raw[i] = b
	}
	u := binary.BigEndian.Uint64(raw[:])
	return float64(u>>11) / (1 << 53), nil
}

// errNonPositiveBound reports a misuse of Intn.
var errNonPositiveBound = errors.New("crypto: Intn bound must be positive")

// Intn returns a uniform value in [0, n). n must be positive.
func (s *SystemSource) Intn(n int) (int, error) {
	if n <= 0 {
		return 0, errNonPositiveBound
	}
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, qerrors.NewIOError("Intn", err)
	}
	return int(v.Int64()), nil
}

// nextByte serves one byte from the buffer, refilling when drained.
// Caller must hold s.mu.
func (s *SystemSource) nextByte() (byte, error) {
	if s.pos >= len(s.buf) {
		if _, err := io.ReadFull(rand.Reader, s.buf[:]); err != nil {
			return 0, qerrors.NewIOError("refill random buffer", err)
		}
		s.pos = 0
	}
	b := s.buf[s.pos]
	s.pos++
	return b, nil
}
