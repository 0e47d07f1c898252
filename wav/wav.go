// Package wav provides a source and a sink for RIFF/WAVE files.
package wav

import (
	"encoding/binary"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/pkg/errors"

	"github.com/pipelined/auris"
)

// Wave format tags.
const (
	formatPCM        = 0x0001
	formatIEEEFloat  = 0x0003
	formatExtensible = 0xFFFE
)

const chunkFrames = 4096

var (
	// ErrMalformed is returned when a file cannot be read as a wave
	// file.
	ErrMalformed = errors.New("malformed wave file")
	// ErrUnsupportedFormat is returned when samples are stored in a
	// format the package cannot serve.
	ErrUnsupportedFormat = errors.New("unsupported sample format")

	errOutOfRange = errors.New("position out of range")
)

type (
	// Source reads samples from a wave file as they are stored: 16, 24
	// or 32-bit integers or 32-bit floats. Seeks are sample-accurate.
	Source struct {
		file      *os.File
		format    auris.SampleFormat
		length    int64
		dataStart int64
		position  int64
	}

	// Sink encodes a source into a 16, 24 or 32-bit PCM wave file.
	Sink struct {
		path     string
		bitDepth auris.BitDepth
	}
)

// NewSource opens the wave file at path.
func NewSource(path string) (*Source, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &auris.OpenError{Path: path, Err: err}
	}
	s := &Source{file: file}
	if err := s.parse(); err != nil {
		file.Close()
		return nil, &auris.OpenError{Path: path, Err: err}
	}
	return s, nil
}

// SampleFormat returns the stored sample format.
func (s *Source) SampleFormat() auris.SampleFormat {
	return s.format
}

// Length returns the number of frames in the data chunk.
func (s *Source) Length() int64 {
	return s.length
}

// Position returns the current position in frames.
func (s *Source) Position() int64 {
	return s.position
}

// Seek sets the position to pos frames from the beginning.
func (s *Source) Seek(pos int64) error {
	if pos < 0 || pos > s.length {
		return &auris.SeekError{Position: pos, Err: errOutOfRange}
	}
	s.position = pos
	return nil
}

// ReadSamples fills dst with frames stored at the current position.
func (s *Source) ReadSamples(dst []byte) (int, error) {
	bpf := s.format.BytesPerFrame()
	frames := len(dst) / bpf
	if frames == 0 {
		return 0, nil
	}
	if left := s.length - s.position; int64(frames) > left {
		frames = int(left)
	}
	if frames == 0 {
		return 0, io.EOF
	}
	n, err := s.file.ReadAt(dst[:frames*bpf], s.dataStart+s.position*int64(bpf))
	frames = n / bpf
	s.position += int64(frames)
	if frames == 0 {
		if err != nil && err != io.EOF {
			return 0, errors.Wrap(err, "read samples")
		}
		return 0, io.EOF
	}
	return frames, nil
}

// Close closes the file.
func (s *Source) Close() error {
	return errors.Wrap(s.file.Close(), "close wave file")
}

// parse walks the chunks up to the data chunk. Chunks are word
// aligned, the data chunk size is clamped to the bytes actually
// present.
func (s *Source) parse() error {
	var riff [12]byte
	if _, err := io.ReadFull(s.file, riff[:]); err != nil {
		return errors.Wrap(ErrMalformed, "riff header")
	}
	if string(riff[:4]) != "RIFF" || string(riff[8:]) != "WAVE" {
		return errors.Wrap(ErrMalformed, "riff header")
	}
	offset := int64(12)
	haveFmt := false
	for {
		var header [8]byte
		if _, err := io.ReadFull(s.file, header[:]); err != nil {
			return errors.Wrap(ErrMalformed, "chunk header")
		}
		size := int64(binary.LittleEndian.Uint32(header[4:]))
		offset += 8
		switch string(header[:4]) {
		case "fmt ":
			if err := s.parseFormat(size); err != nil {
				return err
			}
			haveFmt = true
		case "data":
			if !haveFmt {
				return errors.Wrap(ErrMalformed, "data chunk before fmt chunk")
			}
			s.dataStart = offset
			if info, err := s.file.Stat(); err == nil {
				if avail := info.Size() - offset; size > avail {
					size = avail
				}
			}
			s.length = size / int64(s.format.BytesPerFrame())
			return nil
		}
		offset += size + size&1
		if _, err := s.file.Seek(offset, io.SeekStart); err != nil {
			return errors.Wrap(ErrMalformed, "chunk body")
		}
	}
}

func (s *Source) parseFormat(size int64) error {
	if size < 16 {
		return errors.Wrap(ErrMalformed, "fmt chunk")
	}
	var raw struct {
		AudioFormat   uint16
		NumChannels   uint16
		SampleRate    uint32
		ByteRate      uint32
		BlockAlign    uint16
		BitsPerSample uint16
	}
	if err := binary.Read(s.file, binary.LittleEndian, &raw); err != nil {
		return errors.Wrap(ErrMalformed, "fmt chunk")
	}
	tag := raw.AudioFormat
	valid := raw.BitsPerSample
	var mask uint32
	if tag == formatExtensible {
		if size < 40 {
			return errors.Wrap(ErrMalformed, "extensible fmt chunk")
		}
		var ext struct {
			Size      uint16
			ValidBits uint16
			Mask      uint32
			SubFormat [16]byte
		}
		if err := binary.Read(s.file, binary.LittleEndian, &ext); err != nil {
			return errors.Wrap(ErrMalformed, "extensible fmt chunk")
		}
		tag = binary.LittleEndian.Uint16(ext.SubFormat[:2])
		if ext.ValidBits > 0 {
			valid = ext.ValidBits
		}
		mask = ext.Mask
	}
	container := raw.BitsPerSample
	switch {
	case tag == formatPCM && (container == 16 || container == 24 || container == 32):
	case tag == formatIEEEFloat && container == 32:
	default:
		return errors.Wrapf(ErrUnsupportedFormat, "tag %#x, %d bit", tag, container)
	}
	channels := int(raw.NumChannels)
	if channels < 1 || raw.SampleRate == 0 {
		return errors.Wrap(ErrMalformed, "fmt chunk")
	}
	if int(raw.BlockAlign) != channels*int(container)/8 {
		return errors.Wrap(ErrMalformed, "block alignment")
	}
	if valid > container {
		return errors.Wrap(ErrMalformed, "valid bits exceed container")
	}
	layout := defaultLayout(channels)
	if mask != 0 {
		layout = auris.LayoutFromMask(mask, channels)
	}
	s.format = auris.SampleFormat{
		SampleRate:  int(raw.SampleRate),
		NumChannels: channels,
		BitDepth:    auris.BitDepth(valid),
		Container:   auris.BitDepth(container),
		Float:       tag == formatIEEEFloat,
		Layout:      layout,
	}
	return nil
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

// NewSink creates a sink writing PCM samples of the given bit depth.
func NewSink(path string, bitDepth auris.BitDepth) (*Sink, error) {
	switch bitDepth {
	case 16, 24, 32:
	default:
		return nil, errors.Wrapf(ErrUnsupportedFormat, "%d bit", bitDepth)
	}
	return &Sink{path: path, bitDepth: bitDepth}, nil
}

// Encode pulls src until the end of stream and writes the samples to
// the file. The source is not closed.
func (s *Sink) Encode(src auris.Source) error {
	format := src.SampleFormat()
	file, err := os.Create(s.path)
	if err != nil {
		return errors.Wrap(err, "create wave file")
	}
	encoder := wav.NewEncoder(file, format.SampleRate, int(s.bitDepth), format.NumChannels, formatPCM)
	if err := s.encode(src, format, encoder); err != nil {
		file.Close()
		return err
	}
	if err := encoder.Close(); err != nil {
		file.Close()
		return errors.Wrap(err, "finalize wave file")
	}
	return errors.Wrap(file.Close(), "close wave file")
}

func (s *Sink) encode(src auris.Source, format auris.SampleFormat, encoder *wav.Encoder) error {
	bpf := format.BytesPerFrame()
	raw := make([]byte, chunkFrames*bpf)
	planar := make([][]float64, format.NumChannels)
	for c := range planar {
		planar[c] = make([]float64, chunkFrames)
	}
	ib := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: format.NumChannels,
			SampleRate:  format.SampleRate,
		},
		SourceBitDepth: int(s.bitDepth),
	}
	for {
		n, err := src.ReadSamples(raw)
		if n > 0 {
			frames := format.ReadFloat64(raw[:n*bpf], planar)
			ib.Data = interleave(ib.Data, planar, frames, s.bitDepth)
			if werr := encoder.Write(ib); werr != nil {
				return errors.Wrap(werr, "encode samples")
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

// interleave converts planar float64 frames to interleaved ints scaled
// to the target bit depth.
func interleave(dst []int, planar [][]float64, frames int, bitDepth auris.BitDepth) []int {
	scale := float64(int64(1) << uint(bitDepth-1))
	dst = dst[:0]
	for i := 0; i < frames; i++ {
		for c := range planar {
			v := planar[c][i] * scale
			if v > scale-1 {
				v = scale - 1
			} else if v < -scale {
				v = -scale
			}
			dst = append(dst, int(v))
		}
	}
	return dst
}
