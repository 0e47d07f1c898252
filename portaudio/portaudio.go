// Package portaudio plays sources through the default output device.
package portaudio

import (
	"io"

	"github.com/gordonklaus/portaudio"
	"github.com/pkg/errors"

	"github.com/pipelined/auris"
)

// DefaultChunkFrames is the playback buffer size in frames.
const DefaultChunkFrames = 512

// Sink writes sample blocks to the default output device.
type Sink struct {
	chunkFrames int
	format      auris.SampleFormat
	stream      *portaudio.Stream
	buf         []float32
	planar      [][]float64
}

// NewSink creates a playback sink. Non-positive chunkFrames selects
// the default buffer size.
func NewSink(chunkFrames int) *Sink {
	if chunkFrames <= 0 {
		chunkFrames = DefaultChunkFrames
	}
	return &Sink{chunkFrames: chunkFrames}
}

// Open initializes the audio host and opens the default output stream
// for the format.
func (s *Sink) Open(format auris.SampleFormat) error {
	if s.stream != nil {
		return errors.New("sink is already open")
	}
	if err := portaudio.Initialize(); err != nil {
		return errors.Wrap(err, "initialize audio host")
	}
	s.buf = make([]float32, s.chunkFrames*format.NumChannels)
	stream, err := portaudio.OpenDefaultStream(0, format.NumChannels, float64(format.SampleRate), s.chunkFrames, &s.buf)
	if err != nil {
		portaudio.Terminate()
		return errors.Wrap(err, "open output stream")
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return errors.Wrap(err, "start output stream")
	}
	s.format = format
	s.stream = stream
	s.planar = make([][]float64, format.NumChannels)
	for c := range s.planar {
		s.planar[c] = make([]float64, s.chunkFrames)
	}
	return nil
}

// Write plays a block of interleaved samples in the opened format.
// The device consumes fixed buffers, longer blocks are split and a
// short final buffer plays out zero-padded.
func (s *Sink) Write(block []byte) error {
	if s.stream == nil {
		return errors.New("sink is not open")
	}
	bpf := s.format.BytesPerFrame()
	frames := len(block) / bpf
	for off := 0; off < frames; off += s.chunkFrames {
		n := frames - off
		if n > s.chunkFrames {
			n = s.chunkFrames
		}
		s.format.ReadFloat64(block[off*bpf:(off+n)*bpf], s.planar)
		interleave(s.buf, s.planar, n, s.format.NumChannels)
		if err := s.stream.Write(); err != nil {
			return errors.Wrap(err, "write to output stream")
		}
	}
	return nil
}

// Close stops the stream and terminates the audio host. Close on a
// sink that was never opened is a no-op.
func (s *Sink) Close() error {
	if s.stream == nil {
		return nil
	}
	err := errors.Wrap(s.stream.Stop(), "stop output stream")
	if cerr := errors.Wrap(s.stream.Close(), "close output stream"); err == nil {
		err = cerr
	}
	s.stream = nil
	if terr := errors.Wrap(portaudio.Terminate(), "terminate audio host"); err == nil {
		err = terr
	}
	return err
}

// Play opens the sink for the source format and pulls src until the
// end of stream, playing every block. The source is not closed.
func (s *Sink) Play(src auris.Source) error {
	format := src.SampleFormat()
	if err := s.Open(format); err != nil {
		return err
	}
	err := s.pump(src, format)
	if cerr := s.Close(); err == nil {
		err = cerr
	}
	return err
}

func (s *Sink) pump(src auris.Source, format auris.SampleFormat) error {
	raw := make([]byte, s.chunkFrames*format.BytesPerFrame())
	for {
		n, err := src.ReadSamples(raw)
		if n > 0 {
			if werr := s.Write(raw[:n*format.BytesPerFrame()]); werr != nil {
				return werr
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "read source")
		}
	}
}

func interleave(dst []float32, planar [][]float64, frames, channels int) {
	for i := 0; i < frames; i++ {
		for c := 0; c < channels; c++ {
			dst[i*channels+c] = float32(planar[c][i])
		}
	}
	for i := frames * channels; i < len(dst); i++ {
		dst[i] = 0
	}
}
