// Package stream implements chunked authenticated encryption of byte streams
// of unbounded size in bounded memory.
//
// Container Format:
//
// Encrypted output is a sequence of fixed-layout records:
//
//	+------------+--------------------------------------+
//	| Nonce Salt | Chunk Records                        |
//	| 4B random  | { Tag 16B || Ciphertext <=64KiB }*   |
//	+------------+--------------------------------------+
//
// Chunks appear in stream order. Every ciphertext is exactly as long as its
// plaintext chunk; only the final chunk may be shorter than 64 KiB. An empty
// plaintext produces a 4-byte container holding only the salt.
//
// Each chunk is sealed under the nonce salt || big-endian chunk counter (see
// aead.go), so no nonce is ever reused under a key. During encryption a
// running SHA-256 over the plaintext is maintained and returned as the
// content hash; decryption recomputes it and can verify it against the
// stored value as defense in depth beyond the per-chunk AEAD tags.
//
// Decryption fails closed: a chunk's plaintext is written to the destination
// only after its tag verifies, and any failure aborts the whole operation.
// Earlier verified chunks may already have been written when a later chunk
// fails; the caller must treat partially written output as invalid.
package stream

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/pzverkov/qtransfer/internal/constants"
	qerrors "github.com/pzverkov/qtransfer/internal/errors"
	"github.com/pzverkov/qtransfer/pkg/crypto"
)

// Progress reports the state of an in-flight operation after a chunk
// completes. Values are monotonically non-decreasing over one operation.
type Progress struct {
	// BytesProcessed is the plaintext bytes handled so far.
	BytesProcessed int64

	// ChunksProcessed is the number of completed chunks.
	ChunksProcessed uint64

	// TotalBytes is the expected plaintext size, or 0 when unknown.
	TotalBytes int64

	// Percent is in [0, 100]. With an unknown total it stays 0 until the
	// terminal update.
	Percent float64
}

// ProgressFunc receives progress updates. It is invoked synchronously
// between chunks; implementations should be fast or hand off internally.
type ProgressFunc func(Progress)

// EncryptResult summarizes a completed encryption.
type EncryptResult struct {
	// ContentHash is the lowercase hex SHA-256 of the plaintext.
	ContentHash string

	// PlaintextSize is the total plaintext bytes consumed.
	PlaintextSize int64

	// EncryptedSize is the total container bytes written, including the
	// nonce salt and all chunk tags.
	EncryptedSize int64

	// Chunks is the number of chunk records written.
	Chunks uint64

	// NonceSalt is the 4-byte salt written at the container head.
	NonceSalt []byte
}

// DecryptResult summarizes a completed decryption.
type DecryptResult struct {
	// ContentHash is the lowercase hex SHA-256 recomputed over the
	// emitted plaintext.
	ContentHash string

	// PlaintextSize is the total plaintext bytes written.
	PlaintextSize int64

	// Chunks is the number of chunk records consumed.
	Chunks uint64
}

// Option configures an encryption or decryption operation.
type Option func(*config)

type config struct {
	suite        constants.CipherSuite
	onProgress   ProgressFunc
	expectedHash string
}

func newConfig(opts []Option) config {
	cfg := config{suite: constants.CipherSuiteAES256GCM}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithCipherSuite selects the AEAD suite. The default is AES-256-GCM, which
// is the only suite compatible with containers written by other
// implementations of this format.
func WithCipherSuite(suite constants.CipherSuite) Option {
	return func(c *config) { c.suite = suite }
}

// WithProgress registers a progress callback invoked after each chunk and
// once with the terminal value.
func WithProgress(fn ProgressFunc) Option {
	return func(c *config) { c.onProgress = fn }
}

// WithExpectedContentHash enables post-decrypt verification of the recomputed
// plaintext hash against the hex hash recorded at encryption time. A mismatch
// surfaces ErrIntegrityMismatch, distinct from chunk authentication failure.
func WithExpectedContentHash(hexHash string) Option {
	return func(c *config) { c.expectedHash = hexHash }
}

// Encrypt reads plaintext from src until EOF and writes the encrypted
// container to dst.
//
// totalBytes is the expected plaintext size used for percentage reporting;
// pass 0 when unknown. The key must be 32 bytes and is not retained after
// the call returns.
func Encrypt(ctx context.Context, dst io.Writer, src io.Reader, key []byte, totalBytes int64, opts ...Option) (*EncryptResult, error) {
	cfg := newConfig(opts)

	aead, err := newAEAD(cfg.suite, key)
	if err != nil {
		return nil, err
	}

	salt, err := crypto.SecureRandomBytes(constants.NonceSaltSize)
	if err != nil {
		return nil, err
	}
	if _, err := dst.Write(salt); err != nil {
		return nil, qerrors.NewIOError("write nonce salt", err)
	}

	buf := pool.getChunk()
	defer pool.putChunk(buf)
	sealBuf := pool.getRecord()
	defer pool.putRecord(sealBuf)

	var (
		nonce      [constants.NonceSize]byte
		contentSum = sha256.New()
		chunks     uint64
		bytesDone  int64
	)

	for {
		if err := ctx.Err(); err != nil {
			return nil, qerrors.NewIOError("encrypt", err)
		}

		n, readErr := io.ReadFull(src, buf)
		if n > 0 {
			if chunks >= constants.MaxChunksPerFile {
				return nil, qerrors.ErrTooManyChunks
			}
			chunk := buf[:n]
			contentSum.Write(chunk)

			chunkNonce(nonce[:], salt, chunks)
			sealed := aead.Seal(sealBuf[:0], nonce[:], chunk, nil)

			// Record layout puts the tag before the ciphertext; Seal
			// appends it after, so the two segments are written swapped.
			if _, err := dst.Write(sealed[n:]); err != nil {
				return nil, qerrors.NewIOError("write chunk tag", err)
			}
			if _, err := dst.Write(sealed[:n]); err != nil {
				return nil, qerrors.NewIOError("write chunk ciphertext", err)
			}

			chunks++
			bytesDone += int64(n)
			emitProgress(cfg.onProgress, bytesDone, chunks, totalBytes, false)
		}

		if readErr == io.EOF || readErr == io.ErrUnexpectedEOF {
			break
		}
		if readErr != nil {
			return nil, qerrors.NewIOError("read chunk", readErr)
		}
	}

	emitProgress(cfg.onProgress, bytesDone, chunks, totalBytes, true)

	return &EncryptResult{
		ContentHash:   hex.EncodeToString(contentSum.Sum(nil)),
		PlaintextSize: bytesDone,
		EncryptedSize: int64(constants.NonceSaltSize) + int64(chunks)*constants.TagSize + bytesDone,
		Chunks:        chunks,
		NonceSalt:     salt,
	}, nil
}

// Decrypt reads an encrypted container from src and writes the verified
// plaintext to dst.
//
// totalBytes is the expected plaintext size used for percentage reporting;
// pass 0 when unknown. Verification failure on any chunk aborts the whole
// operation with ErrAuthenticationFailed; no unauthenticated bytes are ever
// written. When WithExpectedContentHash is set, a hash mismatch after all
// chunks verified surfaces ErrIntegrityMismatch.
func Decrypt(ctx context.Context, dst io.Writer, src io.Reader, key []byte, totalBytes int64, opts ...Option) (*DecryptResult, error) {
	cfg := newConfig(opts)

	aead, err := newAEAD(cfg.suite, key)
	if err != nil {
		return nil, err
	}

	salt := make([]byte, constants.NonceSaltSize)
	if _, err := io.ReadFull(src, salt); err != nil {
		return nil, qerrors.ErrTruncatedContainer
	}

	recBuf := pool.getRecord()
	defer pool.putRecord(recBuf)
	openIn := pool.getRecord()
	defer pool.putRecord(openIn)
	plainBuf := pool.getChunk()
	defer pool.putChunk(plainBuf)

	var (
		nonce      [constants.NonceSize]byte
		contentSum = sha256.New()
		chunks     uint64
		bytesDone  int64
	)

	for {
		if err := ctx.Err(); err != nil {
			return nil, qerrors.NewIOError("decrypt", err)
		}

		n, readErr := io.ReadFull(src, recBuf)
		if readErr == io.EOF {
			break
		}
		if readErr != nil && readErr != io.ErrUnexpectedEOF {
			return nil, qerrors.NewIOError("read chunk record", readErr)
		}
		if n < constants.TagSize {
			return nil, qerrors.ErrTruncatedContainer
		}

		tag := recBuf[:constants.TagSize]
		ct := recBuf[constants.TagSize:n]

		// Open expects ciphertext || tag; the record stores tag first.
		in := openIn[:len(ct)+constants.TagSize]
		copy(in, ct)
		copy(in[len(ct):], tag)

		chunkNonce(nonce[:], salt, chunks)
		plain, openErr := aead.Open(plainBuf[:0], nonce[:], in, nil)
		if openErr != nil {
			return nil, fmt.Errorf("decrypt chunk %d: %w", chunks, qerrors.ErrAuthenticationFailed)
		}

		contentSum.Write(plain)
		if _, err := dst.Write(plain); err != nil {
			return nil, qerrors.NewIOError("write plaintext", err)
		}

		chunks++
		bytesDone += int64(len(plain))
		emitProgress(cfg.onProgress, bytesDone, chunks, totalBytes, false)

		if readErr == io.ErrUnexpectedEOF {
			break
		}
	}

	contentHash := hex.EncodeToString(contentSum.Sum(nil))
	if cfg.expectedHash != "" && cfg.expectedHash != contentHash {
		return nil, fmt.Errorf("%w: stored %s, recomputed %s",
			qerrors.ErrIntegrityMismatch, cfg.expectedHash, contentHash)
	}

	emitProgress(cfg.onProgress, bytesDone, chunks, totalBytes, true)

	return &DecryptResult{
		ContentHash:   contentHash,
		PlaintextSize: bytesDone,
		Chunks:        chunks,
	}, nil
}

// emitProgress delivers one progress update. The terminal update is emitted
// only when the per-chunk updates have not already reached 100%.
func emitProgress(fn ProgressFunc, bytesDone int64, chunks uint64, totalBytes int64, terminal bool) {
	if fn == nil {
		return
	}

	percent := 0.0
	switch {
	case totalBytes > 0:
		percent = float64(bytesDone) / float64(totalBytes) * 100
		if percent > 100 {
			percent = 100
		}
	case terminal:
		percent = 100
	}

	if terminal {
		percent = 100
		if chunks > 0 && totalBytes > 0 && bytesDone >= totalBytes {
			// The final chunk update already reported 100%.
			return
		}
	}

	fn(Progress{
		BytesProcessed:  bytesDone,
		ChunksProcessed: chunks,
		TotalBytes:      totalBytes,
		Percent:         percent,
	})
}
