// Package wavpack implements a decoder source over a wavpack library
// loaded at run time.
package wavpack

import (
	"unsafe"

	"github.com/pipelined/auris/dl"
)

// Module is the bound entry-point table of a wavpack library. A single
// module serves any number of sources and stays usable until closed by
// its owner.
type Module struct {
	lib *dl.Library

	versionString   func() string
	openFileInputEx func(reader unsafe.Pointer, wvID, wvcID uintptr, errbuf unsafe.Pointer, flags, normOffset int32) uintptr
	closeFile       func(ctx uintptr) uintptr
	bitsPerSample   func(ctx uintptr) int32
	channelMask     func(ctx uintptr) int32
	mode            func(ctx uintptr) int32
	numChannels     func(ctx uintptr) int32
	numSamples      func(ctx uintptr) uint32
	numTagItems     func(ctx uintptr) int32
	sampleIndex     func(ctx uintptr) uint32
	sampleRate      func(ctx uintptr) uint32
	tagItem         func(ctx uintptr, item string, value unsafe.Pointer, size int32) int32
	tagItemIndexed  func(ctx uintptr, index int32, item unsafe.Pointer, size int32) int32
	seekSample      func(ctx uintptr, sample uint32) int32
	unpackSamples   func(ctx uintptr, buffer unsafe.Pointer, samples uint32) uint32
}

// Open loads the wavpack library at path and binds its entry points.
// Binding is all or nothing: if any entry point cannot be resolved, the
// library is released and the module is not created.
func Open(path string) (*Module, error) {
	lib, err := dl.Open(path)
	if err != nil {
		return nil, err
	}
	m := &Module{lib: lib}
	for _, entry := range []struct {
		fptr interface{}
		name string
	}{
		{&m.versionString, "WavpackGetLibraryVersionString"},
		{&m.openFileInputEx, "WavpackOpenFileInputEx"},
		{&m.closeFile, "WavpackCloseFile"},
		{&m.bitsPerSample, "WavpackGetBitsPerSample"},
		{&m.channelMask, "WavpackGetChannelMask"},
		{&m.mode, "WavpackGetMode"},
		{&m.numChannels, "WavpackGetNumChannels"},
		{&m.numSamples, "WavpackGetNumSamples"},
		{&m.numTagItems, "WavpackGetNumTagItems"},
		{&m.sampleIndex, "WavpackGetSampleIndex"},
		{&m.sampleRate, "WavpackGetSampleRate"},
		{&m.tagItem, "WavpackGetTagItem"},
		{&m.tagItemIndexed, "WavpackGetTagItemIndexed"},
		{&m.seekSample, "WavpackSeekSample"},
		{&m.unpackSamples, "WavpackUnpackSamples"},
	} {
		if err := lib.Bind(entry.fptr, entry.name); err != nil {
			lib.Close()
			return nil, err
		}
	}
	return m, nil
}

// Version returns the version string of the library.
func (m *Module) Version() string {
	return m.versionString()
}

// Close unloads the library. All sources created from the module must
// be closed before.
func (m *Module) Close() error {
	return m.lib.Close()
}

// cString cuts b at the first zero byte.
func cString(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
