// Package mock provides mocks for pipeline sources and allows to
// execute integration tests of stage implementations.
package mock

import (
	"errors"
	"io"
	"time"

	"github.com/pipelined/auris"
)

// ErrOutOfRange is wrapped into auris.SeekError on seeks outside of the
// mocked stream.
var ErrOutOfRange = errors.New("position out of range")

// Source mocks an auris.Source. It produces Limit frames of
// deterministic data: the Waveform function when one is set, a rolling
// byte counter otherwise. The byte counter depends only on the absolute
// stream position, so the produced bytes are identical no matter how
// reads and seeks slice the stream.
type Source struct {
	counter
	Format       auris.SampleFormat
	Limit        int64
	ChunkFrames  int
	Interval     time.Duration
	Waveform     func(frame int64, channel int) float64
	ErrorOnRead  error
	ErrorOnSeek  error
	ErrorOnClose error
	Closed       bool

	position int64
}

// SampleFormat returns the mocked format.
func (m *Source) SampleFormat() auris.SampleFormat {
	return m.Format
}

// Length returns the mocked length.
func (m *Source) Length() int64 {
	return m.Limit
}

// Position returns the current position.
func (m *Source) Position() int64 {
	return m.position
}

// Seek sets the position within the mocked stream.
func (m *Source) Seek(pos int64) error {
	if m.ErrorOnSeek != nil {
		return &auris.SeekError{Position: pos, Err: m.ErrorOnSeek}
	}
	if pos < 0 || pos > m.Limit {
		return &auris.SeekError{Position: pos, Err: ErrOutOfRange}
	}
	m.position = pos
	m.seeks++
	return nil
}

// ReadSamples fills dst with mocked frames. Reads are capped at
// ChunkFrames frames when it is set, which makes the mock produce short
// reads.
func (m *Source) ReadSamples(dst []byte) (int, error) {
	if m.ErrorOnRead != nil {
		return 0, m.ErrorOnRead
	}
	bpf := m.Format.BytesPerFrame()
	frames := len(dst) / bpf
	if m.ChunkFrames > 0 && frames > m.ChunkFrames {
		frames = m.ChunkFrames
	}
	if left := m.Limit - m.position; int64(frames) > left {
		frames = int(left)
	}
	if frames == 0 {
		return 0, io.EOF
	}
	if m.Interval > 0 {
		time.Sleep(m.Interval)
	}
	if m.Waveform != nil {
		m.fillWaveform(dst, frames)
	} else {
		m.fillCounter(dst, frames, bpf)
	}
	m.position += int64(frames)
	m.advance(frames)
	return frames, nil
}

// Close marks the mock closed.
func (m *Source) Close() error {
	m.Closed = true
	return m.ErrorOnClose
}

// Reads returns the number of completed read calls.
func (m *Source) Reads() int {
	return m.reads
}

// Frames returns the total number of frames produced.
func (m *Source) Frames() int64 {
	return m.frames
}

// Seeks returns the number of successful seeks.
func (m *Source) Seeks() int {
	return m.seeks
}

func (m *Source) fillCounter(dst []byte, frames, bpf int) {
	offset := m.position * int64(bpf)
	for i := range dst[:frames*bpf] {
		dst[i] = byte(offset + int64(i))
	}
}

func (m *Source) fillWaveform(dst []byte, frames int) {
	planar := make([][]float64, m.Format.NumChannels)
	for c := range planar {
		planar[c] = make([]float64, frames)
		for i := 0; i < frames; i++ {
			planar[c][i] = m.Waveform(m.position+int64(i), c)
		}
	}
	m.Format.WriteFloat64(dst, planar, frames)
}

// counter counts stage activity.
type counter struct {
	reads  int
	frames int64
	seeks  int
}

// advance counter's metrics.
func (c *counter) advance(frames int) {
	c.reads++
	c.frames += int64(frames)
}
