// Package shadow implements the NSS shadow database (struct spwd).
//
// Numeric fields use -1 for "not set", as in /etc/shadow.
package shadow

import (
	"github.com/wippyai/libnss"
	"github.com/wippyai/libnss/buffer"
	"github.com/wippyai/libnss/database"
	"github.com/wippyai/libnss/errors"
	"github.com/wippyai/libnss/internal/hostarg"
)

// DatabaseName is the nsswitch.conf name of the database.
const DatabaseName = "shadow"

// Shadow is one shadow password entry. Day counts are days since the epoch.
type Shadow struct {
	Name       string
	Passwd     string
	LastChange int64
	Min        int64
	Max        int64
	Warn       int64
	Inactive   int64
	Expire     int64
	Flag       uint64
}

// Head mirrors struct spwd from <shadow.h>. C long is Go int on Linux.
type Head struct {
	Name       buffer.Ref // char *sp_namp
	Passwd     buffer.Ref // char *sp_pwdp
	LastChange int        // long sp_lstchg
	Min        int        // long sp_min
	Max        int        // long sp_max
	Warn       int        // long sp_warn
	Inactive   int        // long sp_inact
	Expire     int        // long sp_expire
	Flag       uint       // unsigned long sp_flag
}

// Encode lays s into h and the buffer behind w. Values that do not fit a C
// long fail with errors.KindOverflow.
func Encode(s Shadow, h *Head, w *buffer.Writer) error {
	var err error
	if h.LastChange, err = clong("sp_lstchg", s.LastChange); err != nil {
		return err
	}
	if h.Min, err = clong("sp_min", s.Min); err != nil {
		return err
	}
	if h.Max, err = clong("sp_max", s.Max); err != nil {
		return err
	}
	if h.Warn, err = clong("sp_warn", s.Warn); err != nil {
		return err
	}
	if h.Inactive, err = clong("sp_inact", s.Inactive); err != nil {
		return err
	}
	if h.Expire, err = clong("sp_expire", s.Expire); err != nil {
		return err
	}
	if uint64(uint(s.Flag)) != s.Flag {
		return errors.Overflow(errors.PhaseEncode, []string{"sp_flag"}, s.Flag, "unsigned long")
	}
	h.Flag = uint(s.Flag)

	if h.Name, err = w.WriteString(s.Name); err != nil {
		return err
	}
	if h.Passwd, err = w.WriteString(s.Passwd); err != nil {
		return err
	}
	return nil
}

func clong(field string, v int64) (int, error) {
	if int64(int(v)) != v {
		return 0, errors.Overflow(errors.PhaseEncode, []string{field}, v, "long")
	}
	return int(v), nil
}

// Hooks is the lookup capability a module provides for shadow entries.
type Hooks interface {
	AllEntries() libnss.Response[[]Shadow]
	EntryByName(name string) libnss.Response[Shadow]
}

// Entries adapts Hooks to the shadow entry points.
type Entries struct {
	db    *database.Database[Shadow, Head]
	hooks Hooks
}

// NewEntries returns the entry points backed by hooks.
func NewEntries(hooks Hooks, opts ...database.Option) *Entries {
	return &Entries{
		db:    database.New(DatabaseName, Encode, opts...),
		hooks: hooks,
	}
}

// Begin implements setspent.
func (e *Entries) Begin() libnss.Status { return e.db.Begin(e.hooks.AllEntries) }

// End implements endspent.
func (e *Entries) End() libnss.Status { return e.db.End() }

// Next implements getspent_r.
func (e *Entries) Next(result *Head, buf []byte, out **Head) libnss.Status {
	return e.db.Next(result, buf, out)
}

// ByName implements getspnam_r.
func (e *Entries) ByName(name []byte, result *Head, buf []byte, out **Head) libnss.Status {
	n, err := hostarg.String(name, "name")
	if err != nil {
		return e.db.Fail(database.OpLookup, libnss.StatusOf(err), out, err)
	}
	return e.db.Lookup(e.hooks.EntryByName(n), result, buf, out)
}
