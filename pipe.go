package auris

import (
	"io"

	"github.com/pkg/errors"
	"github.com/rs/xid"
	"github.com/sirupsen/logrus"

	"github.com/pipelined/auris/internal/bytepipe"
	"github.com/pipelined/auris/log"
)

// Default pipe geometry: how many bytes may sit between producer and
// consumer and how many frames the producer pulls per read.
const (
	DefaultBufferSize  = 0x8000
	DefaultChunkFrames = 4096
)

// PipedReader pulls its upstream source on a dedicated goroutine and
// serves the pulled frames through a bounded pipe. It decouples decode
// work from the consumer: the producer runs ahead until the pipe is
// full, then blocks until the consumer takes frames out.
//
// The reader takes over the ownership of the upstream source. The
// source must not be used by anyone else once the reader is created.
type PipedReader struct {
	uid         string
	src         Source
	format      SampleFormat
	length      int64
	bufferSize  int
	chunkFrames int
	pipe        *bytepipe.Pipe
	done        chan struct{}
	position    int64
	exhausted   bool
	logger      *logrus.Entry
}

// NewPipedReader creates a reader over src and starts the producer
// goroutine. Format and length of the reader are snapshots of the
// upstream taken here.
func NewPipedReader(src Source, options ...Option) *PipedReader {
	r := &PipedReader{
		uid:         xid.New().String(),
		src:         src,
		format:      src.SampleFormat(),
		length:      src.Length(),
		bufferSize:  DefaultBufferSize,
		chunkFrames: DefaultChunkFrames,
		done:        make(chan struct{}),
	}
	for _, option := range options {
		option(r)
	}
	if r.logger == nil {
		r.logger = log.WithComponent(log.GetLogger(), "piped_reader", r.uid)
	}
	r.pipe = bytepipe.New(r.bufferSize, r.chunkFrames*r.format.BytesPerFrame())
	go r.produce()
	return r
}

// SampleFormat returns the format of the upstream source.
func (r *PipedReader) SampleFormat() SampleFormat {
	return r.format
}

// Length returns the length of the upstream source.
func (r *PipedReader) Length() int64 {
	return r.length
}

// Position returns the number of frames served to the consumer.
func (r *PipedReader) Position() int64 {
	return r.position
}

// Seek always fails: frames already decoded into the pipe cannot be
// repositioned.
func (r *PipedReader) Seek(pos int64) error {
	return &SeekError{Position: pos, Err: ErrSeekNotSupported}
}

// ReadSamples serves frames decoded by the producer. It blocks until at
// least one frame is available and returns io.EOF once the producer is
// done and the pipe is drained.
func (r *PipedReader) ReadSamples(dst []byte) (int, error) {
	if r.exhausted {
		return 0, io.EOF
	}
	bpf := r.format.BytesPerFrame()
	frames := len(dst) / bpf
	if frames == 0 {
		return 0, nil
	}
	n, _ := r.pipe.Read(dst[:frames*bpf])
	if n == 0 {
		r.exhausted = true
		return 0, io.EOF
	}
	frames = n / bpf
	r.position += int64(frames)
	return frames, nil
}

// Close stops the producer, waits for its goroutine to exit and closes
// the upstream source. It is safe to call while the producer is blocked
// on a full pipe. The reader reads as exhausted afterwards.
func (r *PipedReader) Close() error {
	r.pipe.CloseRead()
	<-r.done
	r.exhausted = true
	return errors.Wrap(r.src.Close(), "close piped source")
}

// produce pulls the upstream source until it is exhausted or the read
// end of the pipe is closed. Pulled frames are pushed to the pipe as
// whole-frame chunks. Upstream errors end the stream and are only
// logged: the consumer observes them as a shorter stream.
func (r *PipedReader) produce() {
	defer close(r.done)
	defer r.pipe.CloseWrite()
	bpf := r.format.BytesPerFrame()
	scratch := make([]byte, r.chunkFrames*bpf)
	for {
		n, err := r.src.ReadSamples(scratch)
		if n > 0 {
			if _, werr := r.pipe.Write(scratch[:n*bpf]); werr != nil {
				r.logger.Debug("pipe closed by consumer")
				return
			}
		}
		if err != nil {
			if err != io.EOF {
				r.logger.Infof("source failed, ending stream: %v", err)
			}
			return
		}
		if n == 0 {
			return
		}
	}
}
