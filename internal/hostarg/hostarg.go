// Package hostarg converts raw arguments passed by the C library into
// validated Go values.
//
// Strings arrive as the bytes of a C string without its terminator. A NULL
// pointer arrives as a nil slice.
package hostarg

import (
	"encoding/binary"
	"unicode/utf8"

	"github.com/wippyai/libnss/errors"
)

// String validates a required key. Non-UTF-8 input is rejected with
// errors.KindInvalidUTF8, which callers surface as NOTFOUND.
func String(raw []byte, name string) (string, error) {
	if raw == nil {
		return "", errors.InvalidInput(errors.PhaseDecode, name+" is NULL")
	}
	if !utf8.Valid(raw) {
		return "", errors.InvalidUTF8(errors.PhaseDecode, []string{name}, raw)
	}
	return string(raw), nil
}

// OptionalString validates a key that may be NULL. NULL and the empty
// string both mean "any".
func OptionalString(raw []byte, name string) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}
	return String(raw, name)
}

// Htons converts a port to network byte order as stored in servent.s_port.
func Htons(v uint16) uint16 {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	return binary.NativeEndian.Uint16(b[:])
}

// Ntohs converts a network byte order port back to host order.
func Ntohs(v uint16) uint16 {
	var b [2]byte
	binary.NativeEndian.PutUint16(b[:], v)
	return binary.BigEndian.Uint16(b[:])
}
