package libnss

import (
	"github.com/wippyai/libnss/errors"
)

// Status is the glibc enum nss_status value returned by every entry point.
type Status int32

const (
	StatusTryAgain    Status = -2
	StatusUnavailable Status = -1
	StatusNotFound    Status = 0
	StatusSuccess     Status = 1
)

func (s Status) String() string {
	switch s {
	case StatusTryAgain:
		return "NSS_STATUS_TRYAGAIN"
	case StatusUnavailable:
		return "NSS_STATUS_UNAVAIL"
	case StatusNotFound:
		return "NSS_STATUS_NOTFOUND"
	case StatusSuccess:
		return "NSS_STATUS_SUCCESS"
	default:
		return "NSS_STATUS_UNKNOWN"
	}
}

// Response is the outcome of a lookup: a value on success, or one of the
// three failure statuses.
type Response[T any] struct {
	value  T
	status Status
}

// Success wraps a found value.
func Success[T any](v T) Response[T] {
	return Response[T]{value: v, status: StatusSuccess}
}

// NotFound reports a definitive absence.
func NotFound[T any]() Response[T] {
	return Response[T]{status: StatusNotFound}
}

// Unavailable reports that the backing source could not be consulted.
func Unavailable[T any]() Response[T] {
	return Response[T]{status: StatusUnavailable}
}

// TryAgain reports a transient failure.
func TryAgain[T any]() Response[T] {
	return Response[T]{status: StatusTryAgain}
}

// FromError classifies err. A nil error is not a valid input; it yields
// Unavailable like any error the errors package does not classify.
func FromError[T any](err error) Response[T] {
	return Response[T]{status: StatusOf(err)}
}

// StatusOf maps an error to the status it surfaces as.
func StatusOf(err error) Status {
	kind, ok := errors.KindOf(err)
	if !ok {
		return StatusUnavailable
	}
	switch kind {
	case errors.KindNotFound, errors.KindInvalidUTF8, errors.KindInvalidInput:
		return StatusNotFound
	case errors.KindTryAgain, errors.KindOutOfSpace:
		return StatusTryAgain
	default:
		return StatusUnavailable
	}
}

// Status returns the host status code for the response.
func (r Response[T]) Status() Status {
	return r.status
}

// Value returns the payload and whether the response is a success.
func (r Response[T]) Value() (T, bool) {
	return r.value, r.status == StatusSuccess
}

// Map converts a successful payload, passing failures through unchanged.
func Map[T, U any](r Response[T], fn func(T) U) Response[U] {
	if r.status != StatusSuccess {
		return Response[U]{status: r.status}
	}
	return Success(fn(r.value))
}
