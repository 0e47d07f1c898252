// Package bytepipe provides a bounded pipe to hand byte chunks from a
// producer goroutine to a consumer with backpressure.
package bytepipe

import (
	"io"
	"sync"
)

// Pipe is a bounded FIFO of byte chunks. The writer blocks when the
// pipe is full, the reader blocks when it is empty. Either end can be
// closed: closing the write end drains the pipe into io.EOF, closing
// the read end makes blocked and future writes fail with
// io.ErrClosedPipe immediately.
//
// Pipe supports a single reader and a single writer goroutine.
type Pipe struct {
	chunks     chan []byte
	pool       sync.Pool
	current    []byte
	pending    []byte
	closeWrite sync.Once
	closeRead  sync.Once
	readerDone chan struct{}
}

// New returns a pipe which buffers up to capacity bytes handed over in
// chunks of up to chunkSize bytes. Capacity is rounded down to a whole
// number of chunks, at least one.
func New(capacity, chunkSize int) *Pipe {
	depth := capacity / chunkSize
	if depth < 1 {
		depth = 1
	}
	return &Pipe{
		chunks:     make(chan []byte, depth),
		pool:       sync.Pool{New: func() interface{} { return make([]byte, 0, chunkSize) }},
		readerDone: make(chan struct{}),
	}
}

// Write copies b into the pipe. It blocks while the pipe is full and
// fails with io.ErrClosedPipe once the read end is closed, so a writer
// is never left blocked on an abandoned pipe. b must not be longer than
// the chunk size of the pipe.
func (p *Pipe) Write(b []byte) (int, error) {
	if len(b) == 0 {
		return 0, nil
	}
	chunk := append(p.pool.Get().([]byte)[:0], b...)
	select {
	case p.chunks <- chunk:
		return len(b), nil
	case <-p.readerDone:
		return 0, io.ErrClosedPipe
	}
}

// Read fills b with buffered bytes. It blocks until at least one byte
// is available, then drains buffered chunks without blocking. After the
// write end is closed and the pipe is drained it returns io.EOF, after
// CloseRead it returns io.ErrClosedPipe.
func (p *Pipe) Read(b []byte) (int, error) {
	if len(b) == 0 {
		return 0, nil
	}
	select {
	case <-p.readerDone:
		return 0, io.ErrClosedPipe
	default:
	}
	n := 0
	for n < len(b) {
		if len(p.pending) > 0 {
			c := copy(b[n:], p.pending)
			p.pending = p.pending[c:]
			n += c
			p.recycle()
			continue
		}
		if n > 0 {
			select {
			case chunk, ok := <-p.chunks:
				if !ok {
					return n, nil
				}
				p.current, p.pending = chunk, chunk
			default:
				return n, nil
			}
			continue
		}
		select {
		case chunk, ok := <-p.chunks:
			if !ok {
				return 0, io.EOF
			}
			p.current, p.pending = chunk, chunk
		case <-p.readerDone:
			return 0, io.ErrClosedPipe
		}
	}
	return n, nil
}

// CloseWrite marks the write end closed. Buffered bytes remain readable,
// a drained pipe reads as io.EOF.
func (p *Pipe) CloseWrite() {
	p.closeWrite.Do(func() { close(p.chunks) })
}

// CloseRead marks the read end closed and releases the writer: blocked
// and future writes fail with io.ErrClosedPipe.
func (p *Pipe) CloseRead() {
	p.closeRead.Do(func() { close(p.readerDone) })
}

// recycle returns a fully consumed chunk to the pool.
func (p *Pipe) recycle() {
	if len(p.pending) == 0 && p.current != nil {
		p.pool.Put(p.current[:0])
		p.current, p.pending = nil, nil
	}
}
