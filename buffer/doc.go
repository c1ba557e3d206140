// Package buffer writes NSS result data into a caller-owned scratch buffer.
//
// glibc hands every reentrant lookup a result structure and a char buffer of
// buflen bytes. Strings and arrays referenced from the result structure must
// live inside that buffer. The Writer is a bounds-checked cursor over the
// borrowed bytes:
//
//	┌──────────────────────── buflen ─────────────────────────┐
//	│ "http\0" │pad│ ptr ptr NULL │ "www\0" "web\0" │  free   │
//	└──────────────────────────────────────────────────────────┘
//	                                               ^ cursor
//
// # References
//
// Every write returns a Ref, the absolute address of the written data. The
// value can be stored directly into a char * or char ** field of the result
// structure. Ref(0) is NULL.
//
// # Transactions
//
// Each Writer call either succeeds completely or fails with an
// errors.KindOutOfSpace error and leaves the cursor where it was. Pointer
// tables are aligned to the pointer size of the platform; the padding is
// part of the same transaction.
//
// # Lifetime
//
// The Writer borrows the slice for one entry-point call. Refs are valid for
// exactly as long as the caller's buffer is.
package buffer
