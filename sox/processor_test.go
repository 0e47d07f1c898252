package sox

import (
	"io"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipelined/auris"
	"github.com/pipelined/auris/mock"
)

var (
	floatMono = auris.SampleFormat{
		SampleRate:  44100,
		NumChannels: 1,
		BitDepth:    32,
		Container:   32,
		Float:       true,
		Layout:      auris.ChannelLayout{auris.FrontCenter},
	}
	floatStereo = auris.SampleFormat{
		SampleRate:  44100,
		NumChannels: 2,
		BitDepth:    32,
		Container:   32,
		Float:       true,
		Layout:      auris.ChannelLayout{auris.FrontLeft, auris.FrontRight},
	}
)

// ramp produces values which survive the float32 container exactly.
func ramp(frame int64, channel int) float64 {
	v := float64(frame) / 1024
	if channel%2 == 1 {
		v = -v
	}
	return v
}

func planar(channels, frames int) [][]float64 {
	buf := make([][]float64, channels)
	for c := range buf {
		buf[c] = make([]float64, frames)
	}
	return buf
}

// fifoEngine is an Engine stub which queues frames unchanged. It
// withholds latency frames until drained and caps per-call consumption
// and production when maxIn or maxOut are set.
type fifoEngine struct {
	format   auris.SampleFormat
	latency  int
	maxIn    int
	maxOut   int
	fifo     [][]float64
	draining bool
	closed   bool
	err      error
}

func newFifoEngine(format auris.SampleFormat, latency, maxIn, maxOut int) *fifoEngine {
	return &fifoEngine{
		format:  floatFormat(format, format.SampleRate),
		latency: latency,
		maxIn:   maxIn,
		maxOut:  maxOut,
		fifo:    make([][]float64, format.NumChannels),
	}
}

func (e *fifoEngine) SampleFormat() auris.SampleFormat {
	return e.format
}

func (e *fifoEngine) Process(in, out [][]float64) (int, int, error) {
	if e.err != nil {
		return 0, 0, e.err
	}
	consumed := frameCount(in)
	if e.maxIn > 0 && consumed > e.maxIn {
		consumed = e.maxIn
	}
	if consumed == 0 {
		e.draining = true
	}
	for c := range e.fifo {
		e.fifo[c] = append(e.fifo[c], in[c][:consumed]...)
	}
	available := len(e.fifo[0])
	if !e.draining {
		available -= e.latency
		if available < 0 {
			available = 0
		}
	}
	produced := frameCount(out)
	if produced > available {
		produced = available
	}
	if e.maxOut > 0 && produced > e.maxOut {
		produced = e.maxOut
	}
	for c := range e.fifo {
		copy(out[c][:produced], e.fifo[c][:produced])
		e.fifo[c] = e.fifo[c][produced:]
	}
	return consumed, produced, nil
}

func (e *fifoEngine) EstimateOutput(frames int64) int64 {
	return frames
}

func (e *fifoEngine) Close() error {
	e.closed = true
	return nil
}

// readAll drains a processed stream and returns the planar samples.
func readAll(t *testing.T, p *Processor, readFrames int) [][]float64 {
	t.Helper()
	format := p.SampleFormat()
	bpf := format.BytesPerFrame()
	dst := make([]byte, readFrames*bpf)
	chunk := planar(format.NumChannels, readFrames)
	got := planar(format.NumChannels, 0)
	for {
		n, err := p.ReadSamples(dst)
		if n > 0 {
			format.ReadFloat64(dst[:n*bpf], chunk)
			for c := range got {
				got[c] = append(got[c], chunk[c][:n]...)
			}
		}
		if err == io.EOF {
			return got
		}
		require.NoError(t, err)
	}
}

func TestProcessorDrainsEngineTail(t *testing.T) {
	src := &mock.Source{
		Format:      floatStereo,
		Limit:       1000,
		ChunkFrames: 300,
		Waveform:    ramp,
	}
	engine := newFifoEngine(src.SampleFormat(), 192, 0, 64)
	p := NewProcessor(src, engine)

	got := readAll(t, p, 256)

	expected := planar(2, 0)
	for c := range expected {
		for i := int64(0); i < 1000; i++ {
			expected[c] = append(expected[c], ramp(i, c))
		}
	}
	assert.Equal(t, expected, got)
	assert.Equal(t, int64(1000), p.Position())

	require.NoError(t, p.Close())
	assert.True(t, engine.closed)
	assert.True(t, src.Closed)
}

func TestProcessorPartialConsumption(t *testing.T) {
	src := &mock.Source{
		Format:   floatStereo,
		Limit:    100,
		Waveform: ramp,
	}
	engine := newFifoEngine(src.SampleFormat(), 0, 7, 0)
	p := NewProcessor(src, engine)

	got := readAll(t, p, 64)

	require.Len(t, got[0], 100)
	for c := range got {
		for i, v := range got[c] {
			require.Equal(t, ramp(int64(i), c), v, "channel %d frame %d", c, i)
		}
	}
	// the whole stream fits in a single upstream read
	assert.Equal(t, 1, src.Reads())
}

func TestProcessorUpstreamError(t *testing.T) {
	errRead := errors.New("device gone")
	src := &mock.Source{Format: floatMono, ErrorOnRead: errRead}
	p := NewProcessor(src, newFifoEngine(src.SampleFormat(), 0, 0, 0))

	dst := make([]byte, 64*4)
	n, err := p.ReadSamples(dst)
	assert.Zero(t, n)
	require.ErrorIs(t, err, errRead)

	n, err = p.ReadSamples(dst)
	assert.Zero(t, n)
	require.ErrorIs(t, err, errRead)
}

func TestProcessorEngineError(t *testing.T) {
	errProcess := errors.New("converter gone")
	src := &mock.Source{Format: floatMono, Limit: 10, Waveform: ramp}
	engine := newFifoEngine(src.SampleFormat(), 0, 0, 0)
	engine.err = errProcess
	p := NewProcessor(src, engine)

	n, err := p.ReadSamples(make([]byte, 16*4))
	assert.Zero(t, n)
	require.ErrorIs(t, err, errProcess)
}

type stallEngine struct {
	format auris.SampleFormat
}

func (e *stallEngine) SampleFormat() auris.SampleFormat { return e.format }

func (e *stallEngine) Process(in, out [][]float64) (int, int, error) { return 0, 0, nil }

func (e *stallEngine) EstimateOutput(frames int64) int64 { return frames }

func (e *stallEngine) Close() error { return nil }

func TestProcessorStalledEngine(t *testing.T) {
	src := &mock.Source{Format: floatMono, Limit: 10, Waveform: ramp}
	p := NewProcessor(src, &stallEngine{format: floatMono})

	_, err := p.ReadSamples(make([]byte, 16*4))
	require.ErrorIs(t, err, errStalled)
}

func TestProcessorFormatAndSeek(t *testing.T) {
	src := &mock.Source{Format: floatStereo, Limit: 441}
	p := NewProcessor(src, newFifoEngine(src.SampleFormat(), 0, 0, 0))

	assert.Equal(t, floatStereo, p.SampleFormat())
	assert.Equal(t, int64(441), p.Length())

	err := p.Seek(10)
	var seekErr *auris.SeekError
	require.ErrorAs(t, err, &seekErr)
	assert.Equal(t, int64(10), seekErr.Position)
	require.ErrorIs(t, err, auris.ErrSeekNotSupported)

	n, err := p.ReadSamples(make([]byte, 3))
	assert.Zero(t, n)
	assert.NoError(t, err)
}

func TestProcessorCloseError(t *testing.T) {
	errClose := errors.New("busy")
	src := &mock.Source{Format: floatMono, ErrorOnClose: errClose}
	p := NewProcessor(src, newFifoEngine(src.SampleFormat(), 0, 0, 0))

	require.ErrorIs(t, p.Close(), errClose)

	n, err := p.ReadSamples(make([]byte, 4))
	assert.Zero(t, n)
	assert.Equal(t, io.EOF, err)
}
