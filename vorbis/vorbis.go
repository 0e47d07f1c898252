// Package vorbis provides a source for ogg/vorbis files decoded with
// oggvorbis.
package vorbis

import (
	"encoding/binary"
	"io"
	"math"
	"os"

	"github.com/jfreymuth/oggvorbis"
	"github.com/pkg/errors"

	"github.com/pipelined/auris"
)

var errOutOfRange = errors.New("position out of range")

// decoder is the part of oggvorbis.Reader the source relies on,
// narrowed so tests can substitute it.
type decoder interface {
	Read([]float32) (int, error)
	SetPosition(pos int64) error
	SampleRate() int
	Channels() int
	Length() int64
}

// Source reads frames decoded from an ogg/vorbis file. Decoded
// samples are 32-bit floats.
type Source struct {
	file     *os.File
	dec      decoder
	format   auris.SampleFormat
	length   int64
	position int64
	scratch  []float32
}

// NewSource opens the ogg/vorbis file at path.
func NewSource(path string) (*Source, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &auris.OpenError{Path: path, Err: err}
	}
	dec, err := oggvorbis.NewReader(file)
	if err != nil {
		file.Close()
		return nil, &auris.OpenError{Path: path, Err: err}
	}
	return newSource(file, dec), nil
}

func newSource(file *os.File, dec decoder) *Source {
	channels := dec.Channels()
	length := auris.LengthUnknown
	if l := dec.Length(); l > 0 {
		length = l
	}
	return &Source{
		file: file,
		dec:  dec,
		format: auris.SampleFormat{
			SampleRate:  dec.SampleRate(),
			NumChannels: channels,
			BitDepth:    32,
			Container:   32,
			Float:       true,
			Layout:      defaultLayout(channels),
		},
		length: length,
	}
}

// defaultLayout assumes the customary speaker positions for mono and
// stereo streams, other widths stay unassigned.
func defaultLayout(channels int) auris.ChannelLayout {
	switch channels {
	case 1:
		return auris.ChannelLayout{auris.FrontCenter}
	case 2:
		return auris.ChannelLayout{auris.FrontLeft, auris.FrontRight}
	}
	return make(auris.ChannelLayout, channels)
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
	if err := s.dec.SetPosition(pos); err != nil {
		return &auris.SeekError{Position: pos, Err: err}
	}
	s.position = pos
	return nil
}

// ReadSamples fills dst with decoded frames. The decoder returns
// value counts which may split a frame, so reads accumulate until a
// whole number of frames is filled. A partial frame at the end of
// stream is dropped.
func (s *Source) ReadSamples(dst []byte) (int, error) {
	channels := s.format.NumChannels
	frames := len(dst) / s.format.BytesPerFrame()
	if frames == 0 {
		return 0, nil
	}
	want := frames * channels
	if cap(s.scratch) < want {
		s.scratch = make([]float32, want)
	}
	buf := s.scratch[:want]
	filled := 0
	for filled < want {
		n, err := s.dec.Read(buf[filled:])
		filled += n
		if err == io.EOF || (err == nil && n == 0) {
			break
		}
		if err != nil {
			if filled < channels {
				return 0, errors.Wrap(err, "decode vorbis")
			}
			break
		}
	}
	got := filled / channels
	for i := 0; i < got*channels; i++ {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(buf[i]))
	}
	s.position += int64(got)
	if got == 0 {
		return 0, io.EOF
	}
	return got, nil
}

// Close closes the file.
func (s *Source) Close() error {
	if s.file == nil {
		return nil
	}
	return errors.Wrap(s.file.Close(), "close vorbis file")
}
