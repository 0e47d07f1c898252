//go:build windows

package dl

import (
	"github.com/ebitengine/purego"
	"golang.org/x/sys/windows"
)

func dlopen(path string) (uintptr, error) {
	handle, err := windows.LoadLibrary(path)
	return uintptr(handle), err
}

func dlsym(handle uintptr, name string) (uintptr, error) {
	return windows.GetProcAddress(windows.Handle(handle), name)
}

func dlclose(handle uintptr) error {
	return windows.FreeLibrary(windows.Handle(handle))
}

func register(fptr interface{}, addr uintptr) {
	purego.RegisterFunc(fptr, addr)
}
