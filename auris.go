package auris

// LengthUnknown is reported by sources which cannot tell in advance how
// many frames they will produce.
const LengthUnknown int64 = -1

type (
	// BitDepth is a number of significant bits per sample.
	BitDepth int

	// Channel is a speaker position assigned to a stream channel. Zero
	// value means the channel has no assigned position.
	Channel uint

	// ChannelLayout lists speaker positions in stream channel order.
	ChannelLayout []Channel

	// SampleFormat describes interleaved sample data produced by a
	// source. BitDepth is the number of significant bits per sample,
	// Container is the width of the storage those bits occupy, aligned
	// to the most significant end. Samples are little-endian. The
	// format of a source never changes after the source is constructed.
	SampleFormat struct {
		SampleRate  int
		NumChannels int
		BitDepth    BitDepth
		Container   BitDepth
		Float       bool
		Layout      ChannelLayout
	}

	// Source is a pull-based stream of audio frames. A source has a
	// single owner and its methods must not be called concurrently.
	Source interface {
		// SampleFormat returns the format of produced samples.
		SampleFormat() SampleFormat
		// Length returns the total number of frames the source
		// produces, or LengthUnknown.
		Length() int64
		// Position returns the current position in frames. Reads and
		// seeks advance it.
		Position() int64
		// Seek sets the position to pos frames from the beginning. If
		// the seek fails, the position is undefined.
		Seek(pos int64) error
		// ReadSamples fills dst with up to len(dst)/BytesPerFrame()
		// frames and returns the number of frames read. Short reads
		// are valid and don't mean the end of stream, io.EOF does.
		ReadSamples(dst []byte) (int, error)
		// Close releases resources held by the source, including its
		// upstream source if it has one.
		Close() error
	}
)

// Speaker positions in the channel mask bit order of the wave format.
const (
	FrontLeft Channel = iota + 1
	FrontRight
	FrontCenter
	LowFrequency
	BackLeft
	BackRight
	FrontLeftOfCenter
	FrontRightOfCenter
	BackCenter
	SideLeft
	SideRight
	TopCenter
	TopFrontLeft
	TopFrontCenter
	TopFrontRight
	TopBackLeft
	TopBackCenter
	TopBackRight
)

// BytesPerFrame returns the size of a single frame: a sample container
// for every channel.
func (f SampleFormat) BytesPerFrame() int {
	return f.NumChannels * int(f.Container) / 8
}

// LayoutFromMask converts a wave format channel mask to a layout of
// numChannels positions. Mask bits beyond the defined positions are
// ignored, missing bits produce unassigned channels.
func LayoutFromMask(mask uint32, numChannels int) ChannelLayout {
	layout := make(ChannelLayout, 0, numChannels)
	for bit := 0; bit < int(TopBackRight) && len(layout) < numChannels; bit++ {
		if mask&(1<<uint(bit)) != 0 {
			layout = append(layout, Channel(bit+1))
		}
	}
	for len(layout) < numChannels {
		layout = append(layout, 0)
	}
	return layout
}

// Mask converts the layout back to a wave format channel mask.
// Unassigned channels contribute no bits.
func (l ChannelLayout) Mask() uint32 {
	var mask uint32
	for _, c := range l {
		if c > 0 {
			mask |= 1 << uint(c-1)
		}
	}
	return mask
}
