package wavpack

import (
	"io"
	"os"
	"strings"
	"unsafe"

	"github.com/pkg/errors"

	"github.com/pipelined/auris"
)

// Open flags and mode bits of the backend.
const (
	openWVC  = 0x1
	openTags = 0x2

	modeFloat = 0x8
)

// lengthSentinel is how the backend reports an unknown stream length.
const lengthSentinel = 0xFFFFFFFF

var (
	errOpenRejected = errors.New("backend rejected input")
	errSeekRejected = errors.New("backend rejected seek")
)

// Source decodes a wavpack stream through a bound module. If a
// correction file exists next to the input (same path with a "c"
// appended), it is picked up silently for lossless restoration.
//
// Decoded samples are served in a 32-bit container with the significant
// bits aligned to the most significant end.
type Source struct {
	m         *Module
	file      *os.File
	wvc       *os.File
	cookie    uintptr
	wvcCookie uintptr
	ctx       uintptr
	format    auris.SampleFormat
	length    int64
	shift     uint
	tags      map[string]string
	cuesheet  string
}

// NewSource opens the wavpack stream at path with the provided module.
// The module is only borrowed: closing the source does not close it.
func NewSource(m *Module, path string) (*Source, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &auris.OpenError{Path: path, Err: err}
	}
	s := &Source{m: m, file: file, cookie: registerStream(file)}
	if wvc, err := os.Open(path + "c"); err == nil {
		s.wvc = wvc
		s.wvcCookie = registerStream(wvc)
	}

	flags := int32(openTags)
	if s.wvc != nil {
		flags |= openWVC
	}
	errbuf := make([]byte, 0x100)
	s.ctx = m.openFileInputEx(
		unsafe.Pointer(&readerTable),
		s.cookie,
		s.wvcCookie,
		unsafe.Pointer(&errbuf[0]),
		flags,
		0,
	)
	if s.ctx == 0 {
		s.release()
		reason := cString(errbuf)
		if reason == "" {
			return nil, &auris.OpenError{Path: path, Err: errOpenRejected}
		}
		return nil, &auris.OpenError{Path: path, Err: errors.Wrap(errOpenRejected, reason)}
	}

	bits := auris.BitDepth(m.bitsPerSample(s.ctx))
	channels := int(m.numChannels(s.ctx))
	s.format = auris.SampleFormat{
		SampleRate:  int(m.sampleRate(s.ctx)),
		NumChannels: channels,
		BitDepth:    bits,
		Container:   32,
		Float:       m.mode(s.ctx)&modeFloat != 0,
		Layout:      auris.LayoutFromMask(uint32(m.channelMask(s.ctx)), channels),
	}
	s.shift = normalizeShift(bits)
	if n := m.numSamples(s.ctx); n == lengthSentinel {
		s.length = auris.LengthUnknown
	} else {
		s.length = int64(n)
	}
	s.fetchTags()
	return s, nil
}

// SampleFormat returns the format of decoded samples.
func (s *Source) SampleFormat() auris.SampleFormat {
	return s.format
}

// Length returns the total number of frames in the stream or
// auris.LengthUnknown.
func (s *Source) Length() int64 {
	return s.length
}

// Position returns the index of the next frame to decode.
func (s *Source) Position() int64 {
	return int64(s.m.sampleIndex(s.ctx))
}

// Seek positions the decoder at pos frames from the beginning.
func (s *Source) Seek(pos int64) error {
	if s.m.seekSample(s.ctx, uint32(pos)) == 0 {
		return &auris.SeekError{Position: pos, Err: errSeekRejected}
	}
	return nil
}

// ReadSamples decodes frames into dst. The backend is invoked into the
// remainder of dst until the request is satisfied or the stream ends,
// and every decoded sample is normalized before it is returned.
func (s *Source) ReadSamples(dst []byte) (int, error) {
	bpf := s.format.BytesPerFrame()
	want := len(dst) / bpf
	total := 0
	for total < want {
		buf := dst[total*bpf : want*bpf]
		n := int(s.m.unpackSamples(s.ctx, unsafe.Pointer(&buf[0]), uint32(want-total)))
		if n <= 0 {
			break
		}
		s.normalize(buf[:n*bpf])
		total += n
	}
	if total == 0 && want > 0 {
		return 0, io.EOF
	}
	return total, nil
}

// Tags returns the raw tag items of the stream, except the cuesheet.
func (s *Source) Tags() map[string]string {
	return s.tags
}

// Cuesheet returns the raw embedded cuesheet, if the stream has one.
func (s *Source) Cuesheet() string {
	return s.cuesheet
}

// Close closes the open context and the input files. The module stays
// open.
func (s *Source) Close() error {
	if s.ctx != 0 {
		s.m.closeFile(s.ctx)
		s.ctx = 0
	}
	return s.release()
}

func (s *Source) release() error {
	releaseStream(s.cookie)
	if s.wvc != nil {
		releaseStream(s.wvcCookie)
		s.wvc.Close()
	}
	return errors.Wrap(s.file.Close(), "close input")
}

// normalize aligns every sample in b to the most significant bit of its
// container. Backend samples are low-aligned at byte level but
// high-aligned at bit level within their valid bytes: a 20-bit sample
// spans three bytes with four zero bits at the bottom, so the shift is
// the size of the empty top bytes.
func (s *Source) normalize(b []byte) {
	if s.shift == 0 {
		return
	}
	for i := 0; i+4 <= len(b); i += 4 {
		v := int32(uint32(b[i]) | uint32(b[i+1])<<8 | uint32(b[i+2])<<16 | uint32(b[i+3])<<24)
		v <<= s.shift
		b[i] = byte(v)
		b[i+1] = byte(v >> 8)
		b[i+2] = byte(v >> 16)
		b[i+3] = byte(v >> 24)
	}
}

// normalizeShift returns the left shift aligning a sample of the
// provided depth with bit 31 of the container: the depth is rounded up
// to whole bytes first.
func normalizeShift(bits auris.BitDepth) uint {
	return uint(32 - (int(bits)+7)&^7)
}

// fetchTags walks the tag items of the open context and keeps their raw
// names and values. An embedded cuesheet is split out of the tags.
func (s *Source) fetchTags() {
	count := int(s.m.numTagItems(s.ctx))
	tags := make(map[string]string, count)
	for i := 0; i < count; i++ {
		size := s.m.tagItemIndexed(s.ctx, int32(i), nil, 0)
		if size <= 0 {
			continue
		}
		name := make([]byte, size+1)
		s.m.tagItemIndexed(s.ctx, int32(i), unsafe.Pointer(&name[0]), int32(len(name)))
		item := cString(name)

		size = s.m.tagItem(s.ctx, item, nil, 0)
		if size < 0 {
			continue
		}
		value := make([]byte, size+1)
		s.m.tagItem(s.ctx, item, unsafe.Pointer(&value[0]), int32(len(value)))
		if strings.EqualFold(item, "cuesheet") {
			s.cuesheet = cString(value)
		} else {
			tags[item] = cString(value)
		}
	}
	s.tags = tags
}
