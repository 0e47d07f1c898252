// Package mp3 provides a source for mp3 files decoded with go-mp3.
package mp3

import (
	"io"
	"os"

	gomp3 "github.com/hajimehoshi/go-mp3"
	"github.com/pkg/errors"

	"github.com/pipelined/auris"
)

var errOutOfRange = errors.New("position out of range")

// decoder is the part of go-mp3's decoder the source relies on,
// narrowed so tests can substitute it.
type decoder interface {
	Read([]byte) (int, error)
	Seek(offset int64, whence int) (int64, error)
	SampleRate() int
	Length() int64
}

// Source reads frames decoded from an mp3 file. Decoded samples are
// always 16-bit stereo, mono streams come out upmixed.
type Source struct {
	file     *os.File
	dec      decoder
	format   auris.SampleFormat
	length   int64
	position int64
}

// NewSource opens the mp3 file at path.
func NewSource(path string) (*Source, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &auris.OpenError{Path: path, Err: err}
	}
	dec, err := gomp3.NewDecoder(file)
	if err != nil {
		file.Close()
		return nil, &auris.OpenError{Path: path, Err: err}
	}
	return newSource(file, dec), nil
}

func newSource(file *os.File, dec decoder) *Source {
	format := auris.SampleFormat{
		SampleRate:  dec.SampleRate(),
		NumChannels: 2,
		BitDepth:    16,
		Container:   16,
		Layout:      auris.ChannelLayout{auris.FrontLeft, auris.FrontRight},
	}
	length := auris.LengthUnknown
	if bytes := dec.Length(); bytes >= 0 {
		length = bytes / int64(format.BytesPerFrame())
	}
	return &Source{file: file, dec: dec, format: format, length: length}
}

// SampleFormat returns the decoded sample format.
func (s *Source) SampleFormat() auris.SampleFormat {
	return s.format
}

// Length returns the number of frames in the stream, or LengthUnknown.
func (s *Source) Length() int64 {
	return s.length
}

// Position returns the current position in frames.
func (s *Source) Position() int64 {
	return s.position
}

// Seek sets the position to pos frames from the beginning.
func (s *Source) Seek(pos int64) error {
	if pos < 0 || (s.length != auris.LengthUnknown && pos > s.length) {
		return &auris.SeekError{Position: pos, Err: errOutOfRange}
	}
	if _, err := s.dec.Seek(pos*int64(s.format.BytesPerFrame()), io.SeekStart); err != nil {
		return &auris.SeekError{Position: pos, Err: err}
	}
	s.position = pos
	return nil
}

// ReadSamples fills dst with decoded frames. The decoder returns
// arbitrary byte counts, so reads accumulate until a whole number of
// frames is filled. A partial frame at the end of stream is dropped.
func (s *Source) ReadSamples(dst []byte) (int, error) {
	bpf := s.format.BytesPerFrame()
	want := len(dst) / bpf * bpf
	if want == 0 {
		return 0, nil
	}
	filled := 0
	for filled < want {
		n, err := s.dec.Read(dst[filled:want])
		filled += n
		if err == io.EOF || (err == nil && n == 0) {
			break
		}
		if err != nil {
			if filled < bpf {
				return 0, errors.Wrap(err, "decode mp3")
			}
			break
		}
	}
	frames := filled / bpf
	s.position += int64(frames)
	if frames == 0 {
		return 0, io.EOF
	}
	return frames, nil
}

// Close closes the file.
func (s *Source) Close() error {
	if s.file == nil {
		return nil
	}
	return errors.Wrap(s.file.Close(), "close mp3 file")
}
