// Package group implements the NSS group database (struct group).
package group

import (
	"github.com/wippyai/libnss"
	"github.com/wippyai/libnss/buffer"
	"github.com/wippyai/libnss/database"
	"github.com/wippyai/libnss/internal/hostarg"
)

// DatabaseName is the nsswitch.conf name of the database.
const DatabaseName = "group"

// Group is one group entry.
type Group struct {
	Name    string
	Passwd  string
	GID     uint32
	Members []string
}

// Head mirrors struct group from <grp.h>.
type Head struct {
	Name    buffer.Ref // char *gr_name
	Passwd  buffer.Ref // char *gr_passwd
	GID     uint32     // gid_t gr_gid
	Members buffer.Ref // char **gr_mem
}

// Encode lays g into h and the buffer behind w.
func Encode(g Group, h *Head, w *buffer.Writer) error {
	name, err := w.WriteString(g.Name)
	if err != nil {
		return err
	}
	passwd, err := w.WriteString(g.Passwd)
	if err != nil {
		return err
	}
	members, err := w.WriteStrings(g.Members)
	if err != nil {
		return err
	}
	*h = Head{Name: name, Passwd: passwd, GID: g.GID, Members: members}
	return nil
}

// Hooks is the lookup capability a module provides for groups.
type Hooks interface {
	AllEntries() libnss.Response[[]Group]
	EntryByGID(gid uint32) libnss.Response[Group]
	EntryByName(name string) libnss.Response[Group]
}

// Entries adapts Hooks to the group entry points.
type Entries struct {
	db    *database.Database[Group, Head]
	hooks Hooks
}

// NewEntries returns the entry points backed by hooks.
func NewEntries(hooks Hooks, opts ...database.Option) *Entries {
	return &Entries{
		db:    database.New(DatabaseName, Encode, opts...),
		hooks: hooks,
	}
}

func (e *Entries) Begin() libnss.Status { return e.db.Begin(e.hooks.AllEntries) }

func (e *Entries) End() libnss.Status { return e.db.End() }

func (e *Entries) Next(result *Head, buf []byte, out **Head) libnss.Status {
	return e.db.Next(result, buf, out)
}

func (e *Entries) ByGID(gid uint32, result *Head, buf []byte, out **Head) libnss.Status {
	return e.db.Lookup(e.hooks.EntryByGID(gid), result, buf, out)
}

func (e *Entries) ByName(name []byte, result *Head, buf []byte, out **Head) libnss.Status {
	n, err := hostarg.String(name, "name")
	if err != nil {
		return e.db.Fail(database.OpLookup, libnss.StatusOf(err), out, err)
	}
	return e.db.Lookup(e.hooks.EntryByName(n), result, buf, out)
}
