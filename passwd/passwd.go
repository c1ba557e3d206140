// Package passwd implements the NSS passwd database (struct passwd).
package passwd

import (
	"github.com/wippyai/libnss"
	"github.com/wippyai/libnss/buffer"
	"github.com/wippyai/libnss/database"
	"github.com/wippyai/libnss/internal/hostarg"
)

// DatabaseName is the nsswitch.conf name of the database.
const DatabaseName = "passwd"

// Passwd is one user account.
type Passwd struct {
	Name   string
	Passwd string
	UID    uint32
	GID    uint32
	Gecos  string
	Dir    string
	Shell  string
}

// Head mirrors struct passwd from <pwd.h>.
type Head struct {
	Name   buffer.Ref // char *pw_name
	Passwd buffer.Ref // char *pw_passwd
	UID    uint32     // uid_t pw_uid
	GID    uint32     // gid_t pw_gid
	Gecos  buffer.Ref // char *pw_gecos
	Dir    buffer.Ref // char *pw_dir
	Shell  buffer.Ref // char *pw_shell
}

// Encode lays p into h and the buffer behind w.
func Encode(p Passwd, h *Head, w *buffer.Writer) error {
	var err error
	if h.Name, err = w.WriteString(p.Name); err != nil {
		return err
	}
	if h.Passwd, err = w.WriteString(p.Passwd); err != nil {
		return err
	}
	if h.Gecos, err = w.WriteString(p.Gecos); err != nil {
		return err
	}
	if h.Dir, err = w.WriteString(p.Dir); err != nil {
		return err
	}
	if h.Shell, err = w.WriteString(p.Shell); err != nil {
		return err
	}
	h.UID = p.UID
	h.GID = p.GID
	return nil
}

// Hooks is the lookup capability a module provides for users.
type Hooks interface {
	AllEntries() libnss.Response[[]Passwd]
	EntryByUID(uid uint32) libnss.Response[Passwd]
	EntryByName(name string) libnss.Response[Passwd]
}

// Entries adapts Hooks to the passwd entry points.
type Entries struct {
	db    *database.Database[Passwd, Head]
	hooks Hooks
}

// NewEntries returns the entry points backed by hooks.
func NewEntries(hooks Hooks, opts ...database.Option) *Entries {
	return &Entries{
		db:    database.New(DatabaseName, Encode, opts...),
		hooks: hooks,
	}
}

// Begin implements setpwent.
func (e *Entries) Begin() libnss.Status {
	return e.db.Begin(e.hooks.AllEntries)
}

// End implements endpwent.
func (e *Entries) End() libnss.Status {
	return e.db.End()
}

// Next implements getpwent_r.
func (e *Entries) Next(result *Head, buf []byte, out **Head) libnss.Status {
	return e.db.Next(result, buf, out)
}

// ByUID implements getpwuid_r.
func (e *Entries) ByUID(uid uint32, result *Head, buf []byte, out **Head) libnss.Status {
	return e.db.Lookup(e.hooks.EntryByUID(uid), result, buf, out)
}

// ByName implements getpwnam_r.
func (e *Entries) ByName(name []byte, result *Head, buf []byte, out **Head) libnss.Status {
	n, err := hostarg.String(name, "name")
	if err != nil {
		return e.db.Fail(database.OpLookup, libnss.StatusOf(err), out, err)
	}
	return e.db.Lookup(e.hooks.EntryByName(n), result, buf, out)
}
