// Package errors provides structured error types for the libnss runtime.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type includes context: the database it concerns, the field path
// being written, and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseEncode, errors.KindOutOfSpace).
//		Database("service").
//		Path("aliases", "2").
//		Detail("need %d bytes, have %d", 12, 4).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.OutOfSpace(errors.PhaseWrite, 12, 4)
//	err := errors.InvalidUTF8(errors.PhaseDecode, path, raw)
//
// The Kind of an error decides which NSS status a failure surfaces as, see
// libnss.FromError. All errors implement the standard error interface and
// support errors.Is/As.
package errors
