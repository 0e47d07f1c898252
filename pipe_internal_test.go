package auris

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

// stubSource is the minimal source: correct format, no data.
type stubSource struct {
	format SampleFormat
}

func (s stubSource) SampleFormat() SampleFormat      { return s.format }
func (s stubSource) Length() int64                   { return 0 }
func (s stubSource) Position() int64                 { return 0 }
func (s stubSource) Seek(int64) error                { return nil }
func (s stubSource) ReadSamples([]byte) (int, error) { return 0, io.EOF }
func (s stubSource) Close() error                    { return nil }

func stub() stubSource {
	return stubSource{
		format: SampleFormat{SampleRate: 8000, NumChannels: 1, BitDepth: 16, Container: 16},
	}
}

func TestReaderOptions(t *testing.T) {
	r := NewPipedReader(stub(), WithBufferSize(128), WithChunkFrames(16))
	defer r.Close()

	assert.Equal(t, 128, r.bufferSize)
	assert.Equal(t, 16, r.chunkFrames)
	assert.NotNil(t, r.logger)
	assert.NotEmpty(t, r.uid)
}

func TestReaderDefaults(t *testing.T) {
	r := NewPipedReader(stub())
	defer r.Close()

	assert.Equal(t, DefaultBufferSize, r.bufferSize)
	assert.Equal(t, DefaultChunkFrames, r.chunkFrames)
}
