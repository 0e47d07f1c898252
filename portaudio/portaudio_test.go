//go:build portaudio
// +build portaudio

package portaudio_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pipelined/auris"
	"github.com/pipelined/auris/mock"
	"github.com/pipelined/auris/portaudio"
)

// TestSinkPlaysTone needs an output device, run with -tags portaudio.
func TestSinkPlaysTone(t *testing.T) {
	src := &mock.Source{
		Format: auris.SampleFormat{
			SampleRate:  44100,
			NumChannels: 2,
			BitDepth:    32,
			Container:   32,
			Float:       true,
			Layout:      auris.ChannelLayout{auris.FrontLeft, auris.FrontRight},
		},
		Limit:       44100,
		ChunkFrames: 512,
		Waveform: func(frame int64, channel int) float64 {
			return 0.1 * math.Sin(2*math.Pi*440*float64(frame)/44100)
		},
	}

	sink := portaudio.NewSink(512)
	require.NoError(t, sink.Play(src))
	require.NoError(t, src.Close())
}
