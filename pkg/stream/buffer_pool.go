// buffer_pool.go provides pooled byte slices for the chunk loop, avoiding a
// fresh 64 KiB allocation per chunk on large files. Buffers are zeroed before
// returning to the pool since they carry plaintext.
package stream

import (
	"sync"

	"github.com/pzverkov/qtransfer/internal/constants"
)

// bufferPool pools the two working buffer shapes of the engine: plaintext
// chunks and on-disk chunk records (tag + ciphertext).
type bufferPool struct {
	chunk  sync.Pool
	record sync.Pool
}

var pool = &bufferPool{
	chunk: sync.Pool{
		New: func() any {
			buf := make([]byte, constants.ChunkSize)
			return &buf
		},
	},
	record: sync.Pool{
		New: func() any {
			buf := make([]byte, constants.MaxChunkRecordSize)
			return &buf
		},
	},
}

func (p *bufferPool) getChunk() []byte {
	return *p.chunk.Get().(*[]byte)
}

func (p *bufferPool) putChunk(buf []byte) {
	if cap(buf) != constants.ChunkSize {
		return
	}
	buf = buf[:cap(buf)]
	zero(buf)
	p.chunk.Put(&buf)
}

func (p *bufferPool) getRecord() []byte {
	return *p.record.Get().(*[]byte)
}

func (p *bufferPool) putRecord(buf []byte) {
	if cap(buf) != constants.MaxChunkRecordSize {
		return
	}
	buf = buf[:cap(buf)]
	zero(buf)
	p.record.Put(&buf)
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
