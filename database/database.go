// Package database implements the entry-point core shared by every NSS
// record kind.
//
// A Database couples the per-kind converter (record to C head structure)
// with a resumable iterator and the caller's scratch buffer:
//
//	setXent     → Begin(fetch)     fetch all records, open the iterator
//	getXent_r   → Next(...)        next record, encode, rewind on ERANGE
//	getXbyY_r   → Lookup(resp,...) encode a single looked-up record
//	endXent     → End()            drop the records
//
// Record kinds wrap Database with their raw-argument handling; see the
// service, passwd, group, shadow and host packages.
package database

import (
	stderrors "errors"

	"go.uber.org/zap"

	"github.com/wippyai/libnss"
	"github.com/wippyai/libnss/buffer"
	"github.com/wippyai/libnss/errors"
	"github.com/wippyai/libnss/iterator"
)

// Operation names reported to observers and logs.
const (
	OpBegin  = "begin"
	OpEnd    = "end"
	OpNext   = "next"
	OpLookup = "lookup"
)

// EncodeFunc lays rec into head, placing variable-length data through w.
// It returns an errors.KindOutOfSpace error when the buffer is too small.
type EncodeFunc[R, H any] func(rec R, head *H, w *buffer.Writer) error

// Observer is notified of the outcome of every entry-point call.
type Observer interface {
	Observe(database, op string, status libnss.Status)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(database, op string, status libnss.Status)

// Observe calls f.
func (f ObserverFunc) Observe(database, op string, status libnss.Status) {
	f(database, op, status)
}

type options struct {
	logger   *zap.Logger
	observer Observer
}

// Option configures a Database.
type Option func(*options)

// WithLogger sets the logger used instead of the package logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithObserver registers an observer for call outcomes.
func WithObserver(obs Observer) Option {
	return func(o *options) { o.observer = obs }
}

// Database is the entry-point core for one record kind of one module.
// R is the Go record type and H the C head structure it is encoded into.
type Database[R, H any] struct {
	encode EncodeFunc[R, H]
	iter   *iterator.Shared[R]
	opts   options
	name   string
}

// New creates a Database with a closed iterator.
func New[R, H any](name string, encode EncodeFunc[R, H], opts ...Option) *Database[R, H] {
	d := &Database[R, H]{
		name:   name,
		encode: encode,
		iter:   iterator.New[R](),
	}
	for _, opt := range opts {
		opt(&d.opts)
	}
	return d
}

// Name returns the database name used in logs and metrics.
func (d *Database[R, H]) Name() string {
	return d.name
}

func (d *Database[R, H]) log() *zap.Logger {
	if d.opts.logger != nil {
		return d.opts.logger
	}
	return Logger()
}

// Begin fetches all records and opens the iterator over them. The fetch
// runs under the iterator lock so no caller sees a half-replaced sequence.
// A failed fetch leaves the iterator untouched and its status is returned.
func (d *Database[R, H]) Begin(fetch func() libnss.Response[[]R]) libnss.Status {
	var status libnss.Status
	d.iter.With(func(it *iterator.Iterator[R]) {
		resp := fetch()
		records, ok := resp.Value()
		if !ok {
			status = resp.Status()
			return
		}
		it.Open(records)
		status = libnss.StatusSuccess
	})

	if status == libnss.StatusSuccess {
		d.log().Debug("enumeration opened", zap.String("database", d.name))
	} else {
		d.log().Info("enumeration fetch failed",
			zap.String("database", d.name),
			zap.Stringer("status", status),
		)
	}
	d.observe(OpBegin, status)
	return status
}

// End closes the iterator and drops its records.
func (d *Database[R, H]) End() libnss.Status {
	d.iter.Close()
	d.observe(OpEnd, libnss.StatusSuccess)
	return libnss.StatusSuccess
}

// Next encodes the record at the cursor into result and buf. When buf is
// too small the cursor is stepped back, so the same record is served by
// the next call, and TryAgain is returned. *out is set to result on
// success and to nil otherwise.
func (d *Database[R, H]) Next(result *H, buf []byte, out **H) libnss.Status {
	status := libnss.StatusNotFound
	d.iter.With(func(it *iterator.Iterator[R]) {
		rec, ok := it.Next()
		if !ok {
			return
		}
		status = d.store(OpNext, rec, result, buf)
		if status == libnss.StatusTryAgain {
			it.Previous()
		}
	})

	publish(out, result, status)
	d.observe(OpNext, status)
	return status
}

// Lookup encodes the outcome of a single get-by-key lookup. Failures of
// the lookup itself are returned unchanged.
func (d *Database[R, H]) Lookup(resp libnss.Response[R], result *H, buf []byte, out **H) libnss.Status {
	status := resp.Status()
	if rec, ok := resp.Value(); ok {
		status = d.store(OpLookup, rec, result, buf)
	}

	publish(out, result, status)
	d.observe(OpLookup, status)
	return status
}

// Fail reports a call rejected before any lookup, such as one with a
// malformed key.
func (d *Database[R, H]) Fail(op string, status libnss.Status, out **H, cause error) libnss.Status {
	if out != nil {
		*out = nil
	}
	cause = d.annotate(cause)
	d.log().Debug("call rejected",
		zap.String("database", d.name),
		zap.String("op", op),
		zap.Stringer("status", status),
		zap.Error(cause),
	)
	d.observe(op, status)
	return status
}

// store encodes rec into a staging head and only copies it to result once
// every field has been written, so a failed call never leaves a
// half-populated structure behind.
func (d *Database[R, H]) store(op string, rec R, result *H, buf []byte) libnss.Status {
	if result == nil {
		d.log().Warn("NULL result structure", zap.String("database", d.name), zap.String("op", op))
		return libnss.StatusUnavailable
	}

	var staged H
	w := buffer.New(buf)
	if err := d.encode(rec, &staged, w); err != nil {
		err = d.annotate(err)
		status := libnss.StatusOf(err)
		if kind, _ := errors.KindOf(err); kind == errors.KindOutOfSpace {
			status = libnss.StatusTryAgain
			d.log().Debug("buffer too small",
				zap.String("database", d.name),
				zap.String("op", op),
				zap.Int("buflen", len(buf)),
				zap.Error(err),
			)
		} else {
			if status == libnss.StatusNotFound {
				status = libnss.StatusUnavailable
			}
			d.log().Warn("record cannot be encoded",
				zap.String("database", d.name),
				zap.String("op", op),
				zap.Error(err),
			)
		}
		return status
	}

	*result = staged
	return libnss.StatusSuccess
}

// annotate records the database name on structured errors that lack one.
func (d *Database[R, H]) annotate(err error) error {
	var e *errors.Error
	if stderrors.As(err, &e) && e.Database == "" {
		e.Database = d.name
	}
	return err
}

func publish[H any](out **H, result *H, status libnss.Status) {
	if out == nil {
		return
	}
	if status == libnss.StatusSuccess {
		*out = result
	} else {
		*out = nil
	}
}

func (d *Database[R, H]) observe(op string, status libnss.Status) {
	if d.opts.observer != nil {
		d.opts.observer.Observe(d.name, op, status)
	}
}
