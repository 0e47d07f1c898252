package mock_test

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pipelined/auris"
	"github.com/pipelined/auris/mock"
)

var format = auris.SampleFormat{
	SampleRate:  44100,
	NumChannels: 2,
	BitDepth:    16,
	Container:   16,
}

func TestSourceCounterPattern(t *testing.T) {
	whole := &mock.Source{Format: format, Limit: 100}
	chunked := &mock.Source{Format: format, Limit: 100, ChunkFrames: 7}

	read := func(src auris.Source, buf []byte) []byte {
		var out []byte
		for {
			n, err := src.ReadSamples(buf)
			out = append(out, buf[:n*format.BytesPerFrame()]...)
			if err == io.EOF {
				return out
			}
			assert.NoError(t, err)
		}
	}

	// the produced bytes depend on position only, not on read sizes
	a := read(whole, make([]byte, 100*format.BytesPerFrame()))
	b := read(chunked, make([]byte, 16*format.BytesPerFrame()))
	assert.Equal(t, a, b)
	assert.Len(t, a, 100*format.BytesPerFrame())
	assert.Equal(t, int64(100), whole.Frames())
	assert.Equal(t, 1, whole.Reads())
}

func TestSourceSeek(t *testing.T) {
	m := &mock.Source{Format: format, Limit: 10}
	buf := make([]byte, 4*format.BytesPerFrame())

	_, err := m.ReadSamples(buf)
	assert.NoError(t, err)
	head := append([]byte{}, buf...)

	assert.NoError(t, m.Seek(0))
	assert.Equal(t, int64(0), m.Position())
	_, err = m.ReadSamples(buf)
	assert.NoError(t, err)
	assert.Equal(t, head, buf)

	err = m.Seek(11)
	var seekErr *auris.SeekError
	assert.ErrorAs(t, err, &seekErr)
	assert.ErrorIs(t, err, mock.ErrOutOfRange)
}

func TestSourceWaveform(t *testing.T) {
	floats := auris.SampleFormat{
		SampleRate:  44100,
		NumChannels: 1,
		BitDepth:    32,
		Container:   32,
		Float:       true,
	}
	m := &mock.Source{
		Format:   floats,
		Limit:    4,
		Waveform: func(frame int64, _ int) float64 { return float64(frame) / 4 },
	}
	buf := make([]byte, 4*floats.BytesPerFrame())
	n, err := m.ReadSamples(buf)
	assert.NoError(t, err)
	assert.Equal(t, 4, n)

	planar := [][]float64{make([]float64, 4)}
	floats.ReadFloat64(buf, planar)
	assert.Equal(t, []float64{0, 0.25, 0.5, 0.75}, planar[0])

	_, err = m.ReadSamples(buf)
	assert.Equal(t, io.EOF, err)
}
