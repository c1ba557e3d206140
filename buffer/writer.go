package buffer

import (
	"encoding/binary"
	"strconv"
	"strings"
	"unsafe"

	"github.com/wippyai/libnss/errors"
)

// Ref is the absolute address of data written into the buffer. Zero is NULL.
type Ref uintptr

// PtrSize is the size of a C pointer on this platform.
const PtrSize = int(unsafe.Sizeof(uintptr(0)))

// Writer appends C data into a borrowed byte slice.
type Writer struct {
	buf  []byte
	base uintptr
	off  int
}

// New returns a Writer over b. The Writer never grows b.
func New(b []byte) *Writer {
	w := &Writer{buf: b}
	if len(b) > 0 {
		w.base = uintptr(unsafe.Pointer(unsafe.SliceData(b)))
	}
	return w
}

// Len returns the number of bytes consumed so far.
func (w *Writer) Len() int { return w.off }

// Cap returns the size of the underlying buffer.
func (w *Writer) Cap() int { return len(w.buf) }

// Remaining returns the number of unused bytes.
func (w *Writer) Remaining() int { return len(w.buf) - w.off }

// Offset converts a Ref returned by this Writer back to a buffer offset.
func (w *Writer) Offset(ref Ref) (int, bool) {
	if ref == 0 || uintptr(ref) < w.base {
		return 0, false
	}
	off := int(uintptr(ref) - w.base)
	if off >= len(w.buf) {
		return 0, false
	}
	return off, true
}

// WriteString copies s and a NUL terminator into the buffer.
func (w *Writer) WriteString(s string) (Ref, error) {
	if strings.IndexByte(s, 0) >= 0 {
		return 0, errors.InvalidData(errors.PhaseWrite, nil, "string contains NUL byte")
	}
	off, err := w.reserve(len(s)+1, 1)
	if err != nil {
		return 0, err
	}
	copy(w.buf[off:], s)
	w.buf[off+len(s)] = 0
	return w.ref(off), nil
}

// WriteStrings writes a NULL-terminated char * array followed by the string
// bodies it points to.
func (w *Writer) WriteStrings(ss []string) (Ref, error) {
	start := w.off
	table, err := w.reserve((len(ss)+1)*PtrSize, PtrSize)
	if err != nil {
		return 0, err
	}
	for i, s := range ss {
		ref, err := w.WriteString(s)
		if err != nil {
			w.rollback(start)
			return 0, withIndex(err, i)
		}
		w.putPtr(table+i*PtrSize, ref)
	}
	w.putPtr(table+len(ss)*PtrSize, 0)
	return w.ref(table), nil
}

// WriteBytes copies p into the buffer at the given alignment. No
// terminator is written. An empty p still yields a valid, non-NULL Ref.
func (w *Writer) WriteBytes(p []byte, align int) (Ref, error) {
	n := len(p)
	if n == 0 {
		n = 1
	}
	off, err := w.reserve(n, align)
	if err != nil {
		return 0, err
	}
	copy(w.buf[off:], p)
	return w.ref(off), nil
}

// WriteBytesList writes a NULL-terminated pointer array followed by each
// body of ps, every body at the given alignment.
func (w *Writer) WriteBytesList(ps [][]byte, align int) (Ref, error) {
	start := w.off
	table, err := w.reserve((len(ps)+1)*PtrSize, PtrSize)
	if err != nil {
		return 0, err
	}
	for i, p := range ps {
		ref, err := w.WriteBytes(p, align)
		if err != nil {
			w.rollback(start)
			return 0, withIndex(err, i)
		}
		w.putPtr(table+i*PtrSize, ref)
	}
	w.putPtr(table+len(ps)*PtrSize, 0)
	return w.ref(table), nil
}

// reserve claims n bytes at the next address aligned to align and returns
// their offset. On failure nothing is claimed.
func (w *Writer) reserve(n, align int) (int, error) {
	pad := 0
	if align > 1 {
		addr := w.base + uintptr(w.off)
		pad = int(-addr & uintptr(align-1))
	}
	need := pad + n
	if need > w.Remaining() {
		return 0, errors.OutOfSpace(errors.PhaseWrite, need, w.Remaining())
	}
	off := w.off + pad
	w.off += need
	return off, nil
}

// rollback releases everything claimed after start, clearing it so a
// half-written table cannot be followed.
func (w *Writer) rollback(start int) {
	clear(w.buf[start:w.off])
	w.off = start
}

func (w *Writer) ref(off int) Ref {
	return Ref(w.base + uintptr(off))
}

func (w *Writer) putPtr(off int, ref Ref) {
	if PtrSize == 8 {
		binary.NativeEndian.PutUint64(w.buf[off:], uint64(ref))
	} else {
		binary.NativeEndian.PutUint32(w.buf[off:], uint32(ref))
	}
}

func withIndex(err error, i int) error {
	if e, ok := err.(*errors.Error); ok {
		e.Path = append([]string{strconv.Itoa(i)}, e.Path...)
		return e
	}
	return err
}
