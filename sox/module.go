// Package sox implements DSP stages over a sox resampling library
// loaded at run time.
package sox

import (
	"unsafe"

	"github.com/pipelined/auris/dl"
)

// Module is the bound entry-point table of a sox resampling library.
// One module serves any number of engines.
type Module struct {
	lib *dl.Library

	versionString func() string
	rateCreate    func(channels, inRate, outRate uint32) uintptr
	rateClose     func(rate uintptr)
	rateConfig    func(rate uintptr, config int32, value uintptr) int32
	rateStart     func(rate uintptr) int32
	rateProcess   func(rate uintptr, ibuf, obuf, ilen, olen unsafe.Pointer, istride, ostride uintptr) uintptr
	rateProcessD  func(rate uintptr, ibuf, obuf, ilen, olen unsafe.Pointer, istride, ostride uintptr) uintptr
	firCreate     func(channels uint32, coefs uintptr, ncoefs, postPeak uint32, threaded int32) uintptr
	firClose      func(fir uintptr) int32
	firStart      func(fir uintptr) int32
	firProcess    func(fir uintptr, ibuf, obuf, ilen, olen unsafe.Pointer, istride, ostride uintptr) int32
	firProcessD   func(fir uintptr, ibuf, obuf, ilen, olen unsafe.Pointer, istride, ostride uintptr) int32
	designLPF     func(fp, fc, fn, att float64, numTaps unsafe.Pointer, k int32, beta float64) uintptr
	free          func(p uintptr)
}

// Configuration selectors of the rate converter.
const (
	configQuality    = 0
	configPhase      = 1
	configBandwidth  = 2
	configAliasing   = 3
	configUseThreads = 4
)

// Rate converter quality grades.
const (
	QualityQuick    = 0
	QualityLow      = 1
	QualityMedium   = 2
	QualityHigh     = 3
	QualityVeryHigh = 4
)

// Open loads the sox resampling library at path and binds its entry
// points. Binding is all or nothing: a single missing entry point
// releases the library and fails the whole module.
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
		{&m.versionString, "lsx_rate_version_string"},
		{&m.rateCreate, "lsx_rate_create"},
		{&m.rateClose, "lsx_rate_close"},
		{&m.rateConfig, "lsx_rate_config"},
		{&m.rateStart, "lsx_rate_start"},
		{&m.rateProcess, "lsx_rate_process"},
		{&m.rateProcessD, "lsx_rate_process_double"},
		{&m.firCreate, "lsx_fir_create"},
		{&m.firClose, "lsx_fir_close"},
		{&m.firStart, "lsx_fir_start"},
		{&m.firProcess, "lsx_fir_process"},
		{&m.firProcessD, "lsx_fir_process_double"},
		{&m.designLPF, "lsx_design_lpf"},
		{&m.free, "lsx_free"},
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

// Close unloads the library. All engines created from the module must
// be closed before.
func (m *Module) Close() error {
	return m.lib.Close()
}
