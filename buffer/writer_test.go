package buffer

import (
	stderrors "errors"
	"testing"

	"github.com/wippyai/libnss/errors"
)

var errOutOfSpace = &errors.Error{Phase: errors.PhaseWrite, Kind: errors.KindOutOfSpace}

func TestWriteString(t *testing.T) {
	buf := make([]byte, 16)
	w := New(buf)

	ref, err := w.WriteString("http")
	if err != nil {
		t.Fatalf("WriteString failed: %v", err)
	}
	if w.Len() != 5 {
		t.Errorf("Len() = %d, want 5", w.Len())
	}
	if w.Remaining() != 11 {
		t.Errorf("Remaining() = %d, want 11", w.Remaining())
	}
	off, ok := w.Offset(ref)
	if !ok || off != 0 {
		t.Fatalf("Offset(ref) = %d, %v; want 0, true", off, ok)
	}
	if string(buf[:5]) != "http\x00" {
		t.Errorf("buffer = %q, want %q", buf[:5], "http\x00")
	}

	got, err := NewReader(buf).String(ref)
	if err != nil {
		t.Fatalf("Reader.String failed: %v", err)
	}
	if got != "http" {
		t.Errorf("read back %q, want http", got)
	}
}

func TestWriteString_Empty(t *testing.T) {
	buf := make([]byte, 1)
	w := New(buf)

	ref, err := w.WriteString("")
	if err != nil {
		t.Fatalf("WriteString(\"\") failed: %v", err)
	}
	if ref == 0 {
		t.Error("empty string should still get a non-NULL reference")
	}
	if w.Remaining() != 0 {
		t.Errorf("Remaining() = %d, want 0", w.Remaining())
	}
}

func TestWriteString_ExactFit(t *testing.T) {
	w := New(make([]byte, 5))
	if _, err := w.WriteString("http"); err != nil {
		t.Fatalf("exact fit should succeed: %v", err)
	}
	if _, err := w.WriteString(""); !stderrors.Is(err, errOutOfSpace) {
		t.Errorf("full buffer should report out of space, got %v", err)
	}
}

func TestWriteString_ZeroRemaining(t *testing.T) {
	buf := []byte{}
	w := New(buf)

	ref, err := w.WriteString("x")
	if !stderrors.Is(err, errOutOfSpace) {
		t.Fatalf("expected out of space, got %v", err)
	}
	if ref != 0 {
		t.Errorf("failed write returned ref %#x", ref)
	}
	if w.Len() != 0 {
		t.Errorf("Len() = %d after failed write, want 0", w.Len())
	}
}

func TestWriteString_FailureLeavesCursor(t *testing.T) {
	buf := make([]byte, 8)
	w := New(buf)
	if _, err := w.WriteString("abc"); err != nil {
		t.Fatal(err)
	}
	before := w.Len()
	snapshot := append([]byte(nil), buf...)

	if _, err := w.WriteString("toolong"); !stderrors.Is(err, errOutOfSpace) {
		t.Fatalf("expected out of space, got %v", err)
	}
	if w.Len() != before {
		t.Errorf("Len() = %d after failed write, want %d", w.Len(), before)
	}
	if string(buf) != string(snapshot) {
		t.Errorf("failed write mutated buffer: %q -> %q", snapshot, buf)
	}
}

func TestWriteString_RejectsNUL(t *testing.T) {
	w := New(make([]byte, 16))
	_, err := w.WriteString("a\x00b")
	kind, ok := errors.KindOf(err)
	if !ok || kind != errors.KindInvalidData {
		t.Fatalf("expected invalid data, got %v", err)
	}
	if w.Len() != 0 {
		t.Errorf("Len() = %d, want 0", w.Len())
	}
}

func TestWriteStrings(t *testing.T) {
	buf := make([]byte, 128)
	w := New(buf)

	// Misalign the cursor so the table needs padding.
	if _, err := w.WriteString(""); err != nil {
		t.Fatal(err)
	}

	ref, err := w.WriteStrings([]string{"www", "web", ""})
	if err != nil {
		t.Fatalf("WriteStrings failed: %v", err)
	}
	if uintptr(ref)%uintptr(PtrSize) != 0 {
		t.Errorf("pointer table at %#x is not %d-aligned", ref, PtrSize)
	}

	got, err := NewReader(buf).Strings(ref)
	if err != nil {
		t.Fatalf("Reader.Strings failed: %v", err)
	}
	want := []string{"www", "web", ""}
	if len(got) != len(want) {
		t.Fatalf("read back %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("element %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestWriteStrings_Empty(t *testing.T) {
	buf := make([]byte, 64)
	w := New(buf)

	ref, err := w.WriteStrings(nil)
	if err != nil {
		t.Fatalf("WriteStrings(nil) failed: %v", err)
	}
	if ref == 0 {
		t.Fatal("empty array must still be a valid NULL-terminated table")
	}
	got, err := NewReader(buf).Strings(ref)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("read back %q, want empty", got)
	}
}

func TestWriteStrings_LastBodyDoesNotFit(t *testing.T) {
	big := make([]byte, 256)
	values := []string{"alpha", "beta", "gamma"}

	w := New(big)
	if _, err := w.WriteStrings(values); err != nil {
		t.Fatal(err)
	}
	need := w.Len()
	clear(big)

	// Same base address, one byte short: the table fits, "gamma" does not.
	buf := big[:need-1]
	w = New(buf)
	ref, err := w.WriteStrings(values)
	if !stderrors.Is(err, errOutOfSpace) {
		t.Fatalf("expected out of space, got %v", err)
	}
	if ref != 0 {
		t.Errorf("failed write returned ref %#x", ref)
	}
	var e *errors.Error
	if !stderrors.As(err, &e) || len(e.Path) == 0 || e.Path[0] != "2" {
		t.Errorf("error should point at element 2, got %v", err)
	}
	if w.Len() != 0 {
		t.Errorf("Len() = %d after failed write, want 0", w.Len())
	}
	for i, b := range buf {
		if b != 0 {
			t.Fatalf("byte %d = %#x left behind by failed write", i, b)
		}
	}
}

func TestWriteStrings_TableDoesNotFit(t *testing.T) {
	w := New(make([]byte, PtrSize))
	if _, err := w.WriteStrings([]string{"a"}); !stderrors.Is(err, errOutOfSpace) {
		t.Fatalf("expected out of space, got %v", err)
	}
	if w.Len() != 0 {
		t.Errorf("Len() = %d, want 0", w.Len())
	}
}

func TestWriter_TransactionalUntilExhausted(t *testing.T) {
	w := New(make([]byte, 40))
	inputs := []func() error{
		func() error { _, err := w.WriteString("service"); return err },
		func() error { _, err := w.WriteStrings([]string{"a", "bb"}); return err },
		func() error { _, err := w.WriteBytes([]byte{1, 2, 3, 4}, 4); return err },
		func() error { _, err := w.WriteStrings([]string{"cccccccc", "dddddddd"}); return err },
		func() error { _, err := w.WriteString("eeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee"); return err },
	}

	failed := false
	for i, write := range inputs {
		before := w.Len()
		err := write()
		if err == nil {
			continue
		}
		failed = true
		if !stderrors.Is(err, errOutOfSpace) {
			t.Fatalf("write %d: unexpected error %v", i, err)
		}
		if w.Len() != before {
			t.Errorf("write %d: Len() = %d after failure, want %d", i, w.Len(), before)
		}
	}
	if !failed {
		t.Fatal("expected the buffer to be exhausted")
	}
}

func TestWriteBytesList(t *testing.T) {
	buf := make([]byte, 128)
	w := New(buf)
	if _, err := w.WriteString("h"); err != nil {
		t.Fatal(err)
	}

	addrs := [][]byte{{127, 0, 0, 1}, {10, 0, 0, 7}}
	ref, err := w.WriteBytesList(addrs, 4)
	if err != nil {
		t.Fatalf("WriteBytesList failed: %v", err)
	}

	got, err := NewReader(buf).BytesList(ref, 4)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("read back %d entries, want 2", len(got))
	}
	for i := range addrs {
		if string(got[i]) != string(addrs[i]) {
			t.Errorf("entry %d = %v, want %v", i, got[i], addrs[i])
		}
	}
}

func TestWriteBytesList_Failure(t *testing.T) {
	big := make([]byte, 128)
	addrs := [][]byte{make([]byte, 16), make([]byte, 16)}

	w := New(big)
	if _, err := w.WriteBytesList(addrs, 4); err != nil {
		t.Fatal(err)
	}
	need := w.Len()

	w = New(big[:need-1])
	if _, err := w.WriteBytesList(addrs, 4); !stderrors.Is(err, errOutOfSpace) {
		t.Fatalf("expected out of space, got %v", err)
	}
	if w.Len() != 0 {
		t.Errorf("Len() = %d, want 0", w.Len())
	}
}

func TestWriteBytes_Alignment(t *testing.T) {
	w := New(make([]byte, 32))
	if _, err := w.WriteString("ab"); err != nil {
		t.Fatal(err)
	}
	ref, err := w.WriteBytes([]byte{1, 2, 3, 4}, 4)
	if err != nil {
		t.Fatal(err)
	}
	if uintptr(ref)%4 != 0 {
		t.Errorf("ref %#x is not 4-aligned", ref)
	}
}

func TestReader_Bounds(t *testing.T) {
	buf := make([]byte, 8)
	r := NewReader(buf)

	if _, err := r.String(0); err == nil {
		t.Error("expected error for NULL reference")
	}

	w := New(buf)
	ref, _ := w.WriteString("abc")
	if _, err := r.String(ref + 100); err == nil {
		t.Error("expected error for reference past the buffer")
	}
	if _, err := r.Bytes(ref, 9); err == nil {
		t.Error("expected error for read past the buffer")
	}

	unterminated := []byte("abcd")
	if _, err := NewReader(unterminated).String(New(unterminated).ref(0)); err == nil {
		t.Error("expected error for unterminated string")
	}
}
