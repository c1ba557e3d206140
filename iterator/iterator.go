// Package iterator holds resumable enumeration state for NSS databases.
//
// glibc enumerates a database with setXent, repeated getXent_r and endXent.
// These arrive as unrelated calls, possibly from different threads, so the
// records and the cursor must live in module state between them. An
// Iterator is the cursor; Shared is the mutex-guarded instance a database
// owns for the lifetime of the process.
//
// States:
//
//	Closed ──Open(records)──▶ Open(0) ──Next──▶ Open(1) ... Open(len)
//	   ▲                         │ ◀──Previous──┘
//	   └──────────Close──────────┘
package iterator

import "sync"

// Iterator is a cursor over a sequence of records. It is not safe for
// concurrent use; wrap it in Shared.
type Iterator[T any] struct {
	records []T
	pos     int
	open    bool
}

// Open replaces the sequence and rewinds to the first record.
func (it *Iterator[T]) Open(records []T) {
	it.records = records
	it.pos = 0
	it.open = true
}

// Close drops the retained records.
func (it *Iterator[T]) Close() {
	it.records = nil
	it.pos = 0
	it.open = false
}

// Next returns the record at the cursor and advances past it. It returns
// false once the sequence is exhausted, or if the iterator was never opened.
func (it *Iterator[T]) Next() (T, bool) {
	if it.pos >= len(it.records) {
		var zero T
		return zero, false
	}
	rec := it.records[it.pos]
	it.pos++
	return rec, true
}

// Previous steps the cursor back by one so the last record is served again.
// It is a no-op at the start of the sequence.
func (it *Iterator[T]) Previous() {
	if it.pos > 0 {
		it.pos--
	}
}

// Position returns the cursor, in [0, Len()].
func (it *Iterator[T]) Position() int { return it.pos }

// Len returns the number of records held.
func (it *Iterator[T]) Len() int { return len(it.records) }

// IsOpen reports whether Open was called since the last Close.
func (it *Iterator[T]) IsOpen() bool { return it.open }

// Shared is an Iterator guarded by a mutex.
type Shared[T any] struct {
	mu sync.Mutex
	it Iterator[T]
}

// New returns a closed Shared iterator.
func New[T any]() *Shared[T] {
	return &Shared[T]{}
}

// With runs fn with exclusive access to the iterator. Everything fn does,
// including a Next followed by a Previous, is one atomic step for other
// callers.
func (s *Shared[T]) With(fn func(it *Iterator[T])) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.it)
}

// Open replaces the sequence under the lock.
func (s *Shared[T]) Open(records []T) {
	s.With(func(it *Iterator[T]) { it.Open(records) })
}

// Close clears the sequence under the lock.
func (s *Shared[T]) Close() {
	s.With(func(it *Iterator[T]) { it.Close() })
}
