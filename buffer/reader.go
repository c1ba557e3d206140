package buffer

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"unsafe"

	"github.com/wippyai/libnss/errors"
)

// Reader resolves Refs found in a filled result structure back into Go
// values, checking that every reference stays inside the buffer.
type Reader struct {
	buf  []byte
	base uintptr
}

// NewReader returns a Reader over the same bytes a Writer filled.
func NewReader(b []byte) *Reader {
	r := &Reader{buf: b}
	if len(b) > 0 {
		r.base = uintptr(unsafe.Pointer(unsafe.SliceData(b)))
	}
	return r
}

func (r *Reader) offset(ref Ref, n int) (int, error) {
	if ref == 0 {
		return 0, errors.InvalidData(errors.PhaseDecode, nil, "NULL reference")
	}
	if uintptr(ref) < r.base || uintptr(ref)-r.base+uintptr(n) > uintptr(len(r.buf)) {
		return 0, errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Value(uintptr(ref)).
			Detail("reference %#x (+%d) outside buffer", uintptr(ref), n).
			Build()
	}
	return int(uintptr(ref) - r.base), nil
}

// String reads the NUL-terminated string at ref.
func (r *Reader) String(ref Ref) (string, error) {
	off, err := r.offset(ref, 1)
	if err != nil {
		return "", err
	}
	end := bytes.IndexByte(r.buf[off:], 0)
	if end < 0 {
		return "", errors.InvalidData(errors.PhaseDecode, nil, "unterminated string")
	}
	return string(r.buf[off : off+end]), nil
}

// Strings reads the NULL-terminated char * array at ref.
func (r *Reader) Strings(ref Ref) ([]string, error) {
	var out []string
	for i := 0; ; i++ {
		p, err := r.ptr(ref, i)
		if err != nil {
			return nil, err
		}
		if p == 0 {
			return out, nil
		}
		s, err := r.String(p)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out = append(out, s)
	}
}

// Bytes reads n bytes at ref.
func (r *Reader) Bytes(ref Ref, n int) ([]byte, error) {
	off, err := r.offset(ref, n)
	if err != nil {
		return nil, err
	}
	return bytes.Clone(r.buf[off : off+n]), nil
}

// BytesList reads a NULL-terminated pointer array whose bodies are n bytes
// each.
func (r *Reader) BytesList(ref Ref, n int) ([][]byte, error) {
	var out [][]byte
	for i := 0; ; i++ {
		p, err := r.ptr(ref, i)
		if err != nil {
			return nil, err
		}
		if p == 0 {
			return out, nil
		}
		b, err := r.Bytes(p, n)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out = append(out, b)
	}
}

func (r *Reader) ptr(table Ref, i int) (Ref, error) {
	off, err := r.offset(table+Ref(i*PtrSize), PtrSize)
	if err != nil {
		return 0, err
	}
	if PtrSize == 8 {
		return Ref(binary.NativeEndian.Uint64(r.buf[off:])), nil
	}
	return Ref(binary.NativeEndian.Uint32(r.buf[off:])), nil
}
