package auris_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pipelined/auris"
)

func TestBytesPerFrame(t *testing.T) {
	tests := []struct {
		name   string
		format auris.SampleFormat
		bpf    int
	}{
		{
			name:   "mono 16-bit",
			format: auris.SampleFormat{NumChannels: 1, BitDepth: 16, Container: 16},
			bpf:    2,
		},
		{
			name:   "stereo 24-bit",
			format: auris.SampleFormat{NumChannels: 2, BitDepth: 24, Container: 24},
			bpf:    6,
		},
		{
			name:   "5.1 20-bit in 32-bit container",
			format: auris.SampleFormat{NumChannels: 6, BitDepth: 20, Container: 32},
			bpf:    24,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.bpf, test.format.BytesPerFrame())
		})
	}
}

func TestLayoutFromMask(t *testing.T) {
	// front left | front right | front center | LFE | back left | back right
	layout := auris.LayoutFromMask(0x3F, 6)
	assert.Equal(t, auris.ChannelLayout{
		auris.FrontLeft,
		auris.FrontRight,
		auris.FrontCenter,
		auris.LowFrequency,
		auris.BackLeft,
		auris.BackRight,
	}, layout)
	assert.Equal(t, uint32(0x3F), layout.Mask())

	// zero mask leaves channels unassigned
	layout = auris.LayoutFromMask(0, 2)
	assert.Equal(t, auris.ChannelLayout{0, 0}, layout)
	assert.Zero(t, layout.Mask())

	// surplus mask bits are dropped
	layout = auris.LayoutFromMask(0x3F, 2)
	assert.Equal(t, auris.ChannelLayout{auris.FrontLeft, auris.FrontRight}, layout)
}
