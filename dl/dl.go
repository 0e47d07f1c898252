// Package dl loads shared libraries and binds their entry points to Go
// functions at run time.
package dl

import (
	"fmt"

	"github.com/pkg/errors"
)

// BindError is returned when a required entry point of a library cannot
// be resolved.
type BindError struct {
	Lib    string
	Symbol string
	Err    error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("bind %s from %s: %v", e.Symbol, e.Lib, e.Err)
}

// Unwrap returns the resolution error.
func (e *BindError) Unwrap() error {
	return e.Err
}

// Library is an open shared library.
type Library struct {
	name   string
	handle uintptr
}

// Open loads the shared library at path. There is no half-open state:
// either the library is usable or an error is returned.
func Open(path string) (*Library, error) {
	handle, err := dlopen(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open library %s", path)
	}
	return &Library{name: path, handle: handle}, nil
}

// Name returns the path the library was opened with.
func (l *Library) Name() string {
	return l.name
}

// Bind resolves the entry point name and registers it into the function
// variable pointed to by fptr. The signature of the function variable
// must match the calling convention of the entry point. On failure the
// function variable is left untouched and a BindError is returned.
func (l *Library) Bind(fptr interface{}, name string) error {
	addr, err := dlsym(l.handle, name)
	if err != nil {
		return &BindError{Lib: l.name, Symbol: name, Err: err}
	}
	register(fptr, addr)
	return nil
}

// Close unloads the library. Functions bound from it must not be called
// afterwards.
func (l *Library) Close() error {
	return dlclose(l.handle)
}
