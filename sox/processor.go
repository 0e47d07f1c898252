package sox

import (
	"io"

	"github.com/pkg/errors"

	"github.com/pipelined/auris"
)

// frames pulled from upstream per refill.
const processorChunkFrames = 4096

var errStalled = errors.New("dsp engine made no progress")

// Processor runs an engine over an upstream source and serves the
// result as a source. It consumes upstream at its own pace, carries
// partially consumed input across reads and drains the engine once
// upstream ends. The engine must have been created for the sample
// format of src.
type Processor struct {
	src    auris.Source
	engine Engine

	inFormat  auris.SampleFormat
	outFormat auris.SampleFormat
	length    int64

	scratch []byte
	in      [][]float64
	out     [][]float64
	inView  [][]float64
	outView [][]float64
	inOff   int
	inLen   int

	draining bool
	done     bool
	failure  error
	position int64
}

// NewProcessor wires engine to pull from src.
func NewProcessor(src auris.Source, engine Engine) *Processor {
	inFormat := src.SampleFormat()
	outFormat := engine.SampleFormat()
	channels := inFormat.NumChannels
	p := &Processor{
		src:       src,
		engine:    engine,
		inFormat:  inFormat,
		outFormat: outFormat,
		length:    engine.EstimateOutput(src.Length()),
		scratch:   make([]byte, processorChunkFrames*inFormat.BytesPerFrame()),
		in:        make([][]float64, channels),
		out:       make([][]float64, channels),
		inView:    make([][]float64, channels),
		outView:   make([][]float64, channels),
	}
	for c := 0; c < channels; c++ {
		p.in[c] = make([]float64, processorChunkFrames)
		p.out[c] = make([]float64, processorChunkFrames)
	}
	return p
}

// SampleFormat describes the processed stream.
func (p *Processor) SampleFormat() auris.SampleFormat {
	return p.outFormat
}

// Length is the upstream length scaled by the engine, or
// LengthUnknown.
func (p *Processor) Length() int64 {
	return p.length
}

// Position is the number of processed frames read so far.
func (p *Processor) Position() int64 {
	return p.position
}

// Seek is not supported, processed streams are forward-only.
func (p *Processor) Seek(position int64) error {
	return &auris.SeekError{Position: position, Err: auris.ErrSeekNotSupported}
}

// ReadSamples fills dst with processed frames. Upstream failures
// surface once already processed frames have been delivered.
func (p *Processor) ReadSamples(dst []byte) (int, error) {
	bpf := p.outFormat.BytesPerFrame()
	want := len(dst) / bpf
	if want == 0 {
		return 0, nil
	}
	total := 0
	for total < want && !p.done {
		if !p.draining && p.inOff == p.inLen {
			p.refill()
		}
		consumed, produced, err := p.process(dst[total*bpf:], want-total)
		if err != nil {
			return total, err
		}
		p.inOff += consumed
		total += produced
		p.position += int64(produced)
		if consumed == 0 && produced == 0 {
			if !p.draining {
				return total, errStalled
			}
			p.done = true
		}
	}
	if total > 0 {
		return total, nil
	}
	if p.failure != nil {
		p.done = true
		return 0, p.failure
	}
	return 0, io.EOF
}

// Close releases the engine, then the upstream source.
func (p *Processor) Close() error {
	p.done = true
	err := p.engine.Close()
	if cerr := errors.Wrap(p.src.Close(), "close processed source"); err == nil {
		err = cerr
	}
	return err
}

// refill pulls the next upstream chunk into the planar input buffer.
// Upstream end or failure switches the processor to draining, the
// failure is kept to surface after the engine runs dry.
func (p *Processor) refill() {
	n, err := p.src.ReadSamples(p.scratch)
	if n > 0 {
		p.inLen = p.inFormat.ReadFloat64(p.scratch[:n*p.inFormat.BytesPerFrame()], p.in)
		p.inOff = 0
	} else {
		p.inLen, p.inOff = 0, 0
	}
	if err != nil {
		if err != io.EOF {
			p.failure = err
		}
		p.draining = true
	} else if n == 0 {
		p.draining = true
	}
}

// process runs one engine pass over the pending input and converts
// produced frames into dst.
func (p *Processor) process(dst []byte, space int) (int, int, error) {
	if space > processorChunkFrames {
		space = processorChunkFrames
	}
	for c := range p.in {
		p.inView[c] = p.in[c][p.inOff:p.inLen]
		p.outView[c] = p.out[c][:space]
	}
	consumed, produced, err := p.engine.Process(p.inView, p.outView)
	if err != nil {
		return 0, 0, err
	}
	if produced > 0 {
		for c := range p.outView {
			p.outView[c] = p.outView[c][:produced]
		}
		p.outFormat.WriteFloat64(dst, p.outView, produced)
	}
	return consumed, produced, nil
}
