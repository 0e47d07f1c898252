package auris

import (
	"github.com/sirupsen/logrus"

	"github.com/pipelined/auris/log"
)

// Option configures a PipedReader.
type Option func(*PipedReader)

// WithBufferSize sets how many bytes the pipe buffers between producer
// and consumer.
func WithBufferSize(bytes int) Option {
	return func(r *PipedReader) {
		r.bufferSize = bytes
	}
}

// WithChunkFrames sets how many frames the producer pulls from the
// upstream source per read.
func WithChunkFrames(frames int) Option {
	return func(r *PipedReader) {
		r.chunkFrames = frames
	}
}

// WithLogger sets the logger of the reader.
func WithLogger(logger *logrus.Logger) Option {
	return func(r *PipedReader) {
		r.logger = log.WithComponent(logger, "piped_reader", r.uid)
	}
}
