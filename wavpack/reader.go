package wavpack

import (
	"io"
	"math"
	"os"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
)

// streamReaderTable mirrors the callback table the backend does all its
// I/O through: eight entry points, the write slot left empty. Positions
// and sizes in this table are 32-bit, larger files lose exact tell and
// size reporting.
type streamReaderTable struct {
	readBytes    uintptr
	getPos       uintptr
	setPosAbs    uintptr
	setPosRel    uintptr
	pushBackByte uintptr
	getLength    uintptr
	canSeek      uintptr
	writeBytes   uintptr
}

// The backend does not copy the table into its context, so it has to
// outlive every open context. A package-level table shared by all
// sources does that.
var readerTable = streamReaderTable{
	readBytes:    purego.NewCallback(streamRead),
	getPos:       purego.NewCallback(streamTell),
	setPosAbs:    purego.NewCallback(streamSeekAbs),
	setPosRel:    purego.NewCallback(streamSeekRel),
	pushBackByte: purego.NewCallback(streamPushback),
	getLength:    purego.NewCallback(streamLength),
	canSeek:      purego.NewCallback(streamSeekable),
}

// failure is -1 in the integer slots of the callback ABI.
const failure = ^uintptr(0)

// streams maps the cookies handed to the backend to open files.
var streams = struct {
	sync.Mutex
	next    uintptr
	handles map[uintptr]*os.File
}{handles: map[uintptr]*os.File{}}

func registerStream(f *os.File) uintptr {
	streams.Lock()
	defer streams.Unlock()
	streams.next++
	streams.handles[streams.next] = f
	return streams.next
}

func lookupStream(cookie uintptr) *os.File {
	streams.Lock()
	defer streams.Unlock()
	return streams.handles[cookie]
}

func releaseStream(cookie uintptr) {
	streams.Lock()
	defer streams.Unlock()
	delete(streams.handles, cookie)
}

func streamRead(cookie, data, count uintptr) uintptr {
	f := lookupStream(cookie)
	n := int32(uint32(count))
	if f == nil || n <= 0 {
		return 0
	}
	buf := unsafe.Slice((*byte)(unsafe.Pointer(data)), n)
	total := 0
	for total < len(buf) {
		read, err := f.Read(buf[total:])
		total += read
		if err != nil {
			break
		}
	}
	return uintptr(total)
}

func streamTell(cookie uintptr) uintptr {
	f := lookupStream(cookie)
	if f == nil {
		return failure
	}
	pos, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		return failure
	}
	return uintptr(clamp32(pos))
}

func streamSeekAbs(cookie, pos uintptr) uintptr {
	f := lookupStream(cookie)
	if f == nil {
		return failure
	}
	if _, err := f.Seek(int64(uint32(pos)), io.SeekStart); err != nil {
		return failure
	}
	return 0
}

func streamSeekRel(cookie, delta, whence uintptr) uintptr {
	f := lookupStream(cookie)
	if f == nil {
		return failure
	}
	// delta arrives sign-extended through an integer register
	offset := int64(int32(uint32(delta)))
	if _, err := f.Seek(offset, int(whence)); err != nil {
		return failure
	}
	return 0
}

func streamPushback(cookie, c uintptr) uintptr {
	f := lookupStream(cookie)
	if f == nil {
		return failure
	}
	f.Seek(-1, io.SeekCurrent)
	return c
}

func streamLength(cookie uintptr) uintptr {
	f := lookupStream(cookie)
	if f == nil {
		return 0
	}
	info, err := f.Stat()
	if err != nil {
		return 0
	}
	return uintptr(clamp32(info.Size()))
}

func streamSeekable(cookie uintptr) uintptr {
	f := lookupStream(cookie)
	if f == nil {
		return 0
	}
	if _, err := f.Seek(0, io.SeekCurrent); err != nil {
		return 0
	}
	return 1
}

// clamp32 squeezes a 64-bit position into the 32-bit bookkeeping of the
// callback table.
func clamp32(v int64) uint32 {
	if v >= math.MaxUint32 {
		return math.MaxUint32
	}
	if v < 0 {
		return 0
	}
	return uint32(v)
}
