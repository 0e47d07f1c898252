package sox

import (
	"unsafe"

	"github.com/pkg/errors"

	"github.com/pipelined/auris"
)

// stopband attenuation of designed lowpass filters, in dB.
const stopbandAttenuation = 120.0

// Engine transforms planar float64 frames. Both buffers of Process
// hold one slice per channel, all of equal length. Zero-length input
// drains frames buffered inside the engine: the stream has ended once
// a drained call produces nothing.
type Engine interface {
	// SampleFormat describes the produced stream.
	SampleFormat() auris.SampleFormat
	// Process consumes frames from in and fills out. Either count
	// may come back short of the buffer it was given.
	Process(in, out [][]float64) (consumed, produced int, err error)
	// EstimateOutput converts an upstream frame count to the frame
	// count this engine will produce for it. LengthUnknown passes
	// through.
	EstimateOutput(frames int64) int64
	// Close releases the engine.
	Close() error
}

var (
	_ Engine = (*Resampler)(nil)
	_ Engine = (*LowpassFilter)(nil)
)

type settings struct {
	quality  int
	threaded bool
}

// Option configures an engine.
type Option func(*settings)

// WithQuality sets the quality grade of a rate converter.
func WithQuality(quality int) Option {
	return func(s *settings) {
		s.quality = quality
	}
}

// WithThreading toggles multithreaded processing inside the library.
func WithThreading(enabled bool) Option {
	return func(s *settings) {
		s.threaded = enabled
	}
}

// Resampler converts the sample rate of a stream.
type Resampler struct {
	m       *Module
	rate    uintptr
	format  auris.SampleFormat
	inRate  int
	outRate int
	ibufs   []unsafe.Pointer
	obufs   []unsafe.Pointer
}

// NewResampler creates a rate converter from the sample rate of format
// to outRate, with very high quality unless configured otherwise.
func NewResampler(m *Module, format auris.SampleFormat, outRate int, options ...Option) (*Resampler, error) {
	s := settings{quality: QualityVeryHigh}
	for _, option := range options {
		option(&s)
	}
	rate := m.rateCreate(uint32(format.NumChannels), uint32(format.SampleRate), uint32(outRate))
	if rate == 0 {
		return nil, errors.Errorf("create rate converter %d -> %d", format.SampleRate, outRate)
	}
	if m.rateConfig(rate, configQuality, uintptr(s.quality)) < 0 {
		m.rateClose(rate)
		return nil, errors.Errorf("configure rate converter quality %d", s.quality)
	}
	threads := uintptr(0)
	if s.threaded {
		threads = 1
	}
	if m.rateConfig(rate, configUseThreads, threads) < 0 {
		m.rateClose(rate)
		return nil, errors.New("configure rate converter threading")
	}
	if m.rateStart(rate) < 0 {
		m.rateClose(rate)
		return nil, errors.New("start rate converter")
	}
	return &Resampler{
		m:       m,
		rate:    rate,
		format:  floatFormat(format, outRate),
		inRate:  format.SampleRate,
		outRate: outRate,
		ibufs:   make([]unsafe.Pointer, format.NumChannels),
		obufs:   make([]unsafe.Pointer, format.NumChannels),
	}, nil
}

// SampleFormat describes the resampled stream.
func (r *Resampler) SampleFormat() auris.SampleFormat {
	return r.format
}

// Process consumes frames from in and fills out with resampled frames.
func (r *Resampler) Process(in, out [][]float64) (int, int, error) {
	ilen := uintptr(frameCount(in))
	olen := uintptr(frameCount(out))
	fillPointers(r.ibufs, in)
	fillPointers(r.obufs, out)
	r.m.rateProcessD(r.rate, unsafe.Pointer(&r.ibufs[0]), unsafe.Pointer(&r.obufs[0]), unsafe.Pointer(&ilen), unsafe.Pointer(&olen), 1, 1)
	return int(ilen), int(olen), nil
}

// EstimateOutput scales an upstream frame count by the rate ratio,
// rounding up.
func (r *Resampler) EstimateOutput(frames int64) int64 {
	if frames == auris.LengthUnknown {
		return auris.LengthUnknown
	}
	return (frames*int64(r.outRate) + int64(r.inRate) - 1) / int64(r.inRate)
}

// Close releases the rate converter.
func (r *Resampler) Close() error {
	if r.rate != 0 {
		r.m.rateClose(r.rate)
		r.rate = 0
	}
	return nil
}

// LowpassFilter band-limits a stream with a FIR filter designed for
// the Nyquist frequency of cutoffRate.
type LowpassFilter struct {
	m      *Module
	fir    uintptr
	format auris.SampleFormat
	ibufs  []unsafe.Pointer
	obufs  []unsafe.Pointer
}

// NewLowpassFilter designs a linear-phase lowpass filter that keeps
// the band below cutoffRate/2 and creates a FIR engine running it.
func NewLowpassFilter(m *Module, format auris.SampleFormat, cutoffRate int, options ...Option) (*LowpassFilter, error) {
	var s settings
	for _, option := range options {
		option(&s)
	}
	nyquist := float64(format.SampleRate) / 2
	cutoff := float64(cutoffRate) / 2
	var taps int32
	coefs := m.designLPF(cutoff*0.95, cutoff, nyquist, stopbandAttenuation, unsafe.Pointer(&taps), 0, -1)
	if coefs == 0 || taps <= 0 {
		return nil, errors.Errorf("design lowpass filter for %d Hz", cutoffRate)
	}
	threads := int32(0)
	if s.threaded {
		threads = 1
	}
	fir := m.firCreate(uint32(format.NumChannels), coefs, uint32(taps), uint32(taps>>1), threads)
	m.free(coefs)
	if fir == 0 {
		return nil, errors.New("create fir filter")
	}
	if m.firStart(fir) < 0 {
		m.firClose(fir)
		return nil, errors.New("start fir filter")
	}
	return &LowpassFilter{
		m:      m,
		fir:    fir,
		format: floatFormat(format, format.SampleRate),
		ibufs:  make([]unsafe.Pointer, format.NumChannels),
		obufs:  make([]unsafe.Pointer, format.NumChannels),
	}, nil
}

// SampleFormat describes the filtered stream.
func (f *LowpassFilter) SampleFormat() auris.SampleFormat {
	return f.format
}

// Process consumes frames from in and fills out with filtered frames.
func (f *LowpassFilter) Process(in, out [][]float64) (int, int, error) {
	ilen := uintptr(frameCount(in))
	olen := uintptr(frameCount(out))
	fillPointers(f.ibufs, in)
	fillPointers(f.obufs, out)
	if f.m.firProcessD(f.fir, unsafe.Pointer(&f.ibufs[0]), unsafe.Pointer(&f.obufs[0]), unsafe.Pointer(&ilen), unsafe.Pointer(&olen), 1, 1) < 0 {
		return 0, 0, errors.New("fir filter process")
	}
	return int(ilen), int(olen), nil
}

// EstimateOutput returns frames unchanged, filtering preserves length.
func (f *LowpassFilter) EstimateOutput(frames int64) int64 {
	return frames
}

// Close releases the FIR filter.
func (f *LowpassFilter) Close() error {
	if f.fir == 0 {
		return nil
	}
	fir := f.fir
	f.fir = 0
	if f.m.firClose(fir) < 0 {
		return errors.New("close fir filter")
	}
	return nil
}

// floatFormat is the output format of an engine: the input format with
// the rate replaced and samples widened to 32-bit float.
func floatFormat(f auris.SampleFormat, rate int) auris.SampleFormat {
	f.SampleRate = rate
	f.BitDepth = 32
	f.Container = 32
	f.Float = true
	return f
}

// frameCount is the usable frame count of a planar buffer, the length
// of its shortest channel.
func frameCount(buf [][]float64) int {
	if len(buf) == 0 {
		return 0
	}
	frames := len(buf[0])
	for _, channel := range buf[1:] {
		if len(channel) < frames {
			frames = len(channel)
		}
	}
	return frames
}

// fillPointers loads the per-channel base pointers of buf. Channels
// with no frames get a placeholder, the library reads and writes
// nothing when the corresponding count is zero.
func fillPointers(ptrs []unsafe.Pointer, buf [][]float64) {
	for c := range ptrs {
		if c < len(buf) && len(buf[c]) > 0 {
			ptrs[c] = unsafe.Pointer(&buf[c][0])
		} else {
			ptrs[c] = unsafe.Pointer(&placeholder)
		}
	}
}

var placeholder float64
