package auris_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pipelined/auris"
)

func TestFloat64RoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		format auris.SampleFormat
	}{
		{
			name:   "16-bit",
			format: auris.SampleFormat{NumChannels: 2, BitDepth: 16, Container: 16},
		},
		{
			name:   "24-bit",
			format: auris.SampleFormat{NumChannels: 2, BitDepth: 24, Container: 24},
		},
		{
			name:   "32-bit",
			format: auris.SampleFormat{NumChannels: 2, BitDepth: 32, Container: 32},
		},
		{
			name:   "float32",
			format: auris.SampleFormat{NumChannels: 2, BitDepth: 32, Container: 32, Float: true},
		},
	}
	samples := [][]float64{
		{0, 0.5, -0.5, 0.25},
		{-1, 0.125, -0.25, 0},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			buf := make([]byte, 4*test.format.BytesPerFrame())
			n := test.format.WriteFloat64(buf, samples, 4)
			assert.Equal(t, 4, n)

			got := [][]float64{make([]float64, 4), make([]float64, 4)}
			n = test.format.ReadFloat64(buf, got)
			assert.Equal(t, 4, n)
			for c := range samples {
				for i := range samples[c] {
					assert.InDelta(t, samples[c][i], got[c][i], 1.0/(1<<15))
				}
			}
		})
	}
}

func TestWriteFloat64Clips(t *testing.T) {
	format := auris.SampleFormat{NumChannels: 1, BitDepth: 16, Container: 16}
	buf := make([]byte, 2*format.BytesPerFrame())
	format.WriteFloat64(buf, [][]float64{{1.5, -1.5}}, 2)

	got := [][]float64{make([]float64, 2)}
	format.ReadFloat64(buf, got)
	assert.InDelta(t, 1.0, got[0][0], 1.0/(1<<14))
	assert.InDelta(t, -1.0, got[0][1], 1.0/(1<<14))
}

func TestFloat64Bounds(t *testing.T) {
	format := auris.SampleFormat{NumChannels: 1, BitDepth: 16, Container: 16}

	// conversion is limited by the shortest of buffer and channels
	buf := make([]byte, 10*format.BytesPerFrame())
	short := [][]float64{make([]float64, 3)}
	assert.Equal(t, 3, format.ReadFloat64(buf, short))
	assert.Equal(t, 3, format.WriteFloat64(buf, short, 10))
	assert.Equal(t, 4, format.WriteFloat64(buf[:4*format.BytesPerFrame()], [][]float64{make([]float64, 10)}, 10))
}
