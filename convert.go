package auris

import (
	"encoding/binary"
	"math"
)

// ReadFloat64 converts interleaved container samples from src into dst,
// one slice per channel. It converts as many frames as src holds and
// every dst channel can take, and returns that count. Integer samples
// are scaled to [-1, 1) by the full scale of the container.
func (f SampleFormat) ReadFloat64(src []byte, dst [][]float64) int {
	frames := len(src) / f.BytesPerFrame()
	for _, channel := range dst {
		if len(channel) < frames {
			frames = len(channel)
		}
	}
	step := int(f.Container) / 8
	scale := f.fullScale()
	offset := 0
	for i := 0; i < frames; i++ {
		for c := 0; c < f.NumChannels; c++ {
			dst[c][i] = f.sample(src[offset:], scale)
			offset += step
		}
	}
	return frames
}

// WriteFloat64 converts up to frames frames of planar float64 samples
// from src into interleaved container samples in dst and returns the
// number of frames converted. Integer samples are clipped to the range
// of the container.
func (f SampleFormat) WriteFloat64(dst []byte, src [][]float64, frames int) int {
	if n := len(dst) / f.BytesPerFrame(); n < frames {
		frames = n
	}
	for _, channel := range src {
		if len(channel) < frames {
			frames = len(channel)
		}
	}
	step := int(f.Container) / 8
	scale := f.fullScale()
	offset := 0
	for i := 0; i < frames; i++ {
		for c := 0; c < f.NumChannels; c++ {
			f.putSample(dst[offset:], src[c][i], scale)
			offset += step
		}
	}
	return frames
}

// fullScale returns the absolute value of the smallest sample the
// container can hold.
func (f SampleFormat) fullScale() float64 {
	return float64(int64(1) << (uint(f.Container) - 1))
}

func (f SampleFormat) sample(b []byte, scale float64) float64 {
	switch {
	case f.Float:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
	case f.Container == 16:
		return float64(int16(binary.LittleEndian.Uint16(b))) / scale
	case f.Container == 24:
		return float64(int24(b)) / scale
	default:
		return float64(int32(binary.LittleEndian.Uint32(b))) / scale
	}
}

func (f SampleFormat) putSample(b []byte, v float64, scale float64) {
	switch {
	case f.Float:
		binary.LittleEndian.PutUint32(b, math.Float32bits(float32(v)))
	case f.Container == 16:
		binary.LittleEndian.PutUint16(b, uint16(clip(v, scale)))
	case f.Container == 24:
		putInt24(b, int32(clip(v, scale)))
	default:
		binary.LittleEndian.PutUint32(b, uint32(clip(v, scale)))
	}
}

// clip scales v by scale and clips the result to the signed range
// [-scale, scale-1].
func clip(v, scale float64) int32 {
	s := v * scale
	if s > scale-1 {
		s = scale - 1
	}
	if s < -scale {
		s = -scale
	}
	return int32(s)
}

func int24(b []byte) int32 {
	v := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
	if v&0x800000 != 0 {
		v -= 0x1000000
	}
	return v
}

func putInt24(b []byte, v int32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
}
