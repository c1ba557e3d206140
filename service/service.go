// Package service implements the NSS services database (struct servent).
//
// Entry points served: setservent, endservent, getservent_r,
// getservbyname_r and getservbyport_r.
package service

import (
	"github.com/wippyai/libnss"
	"github.com/wippyai/libnss/buffer"
	"github.com/wippyai/libnss/database"
	"github.com/wippyai/libnss/internal/hostarg"
)

// DatabaseName is the nsswitch.conf name of the database.
const DatabaseName = "services"

// Service is one entry of the services database.
type Service struct {
	Name    string
	Aliases []string
	Port    uint16
	Proto   string
}

// Head mirrors struct servent from <netdb.h>.
type Head struct {
	Name    buffer.Ref // char *s_name
	Aliases buffer.Ref // char **s_aliases
	Port    int32      // int s_port, network byte order
	Proto   buffer.Ref // char *s_proto
}

// Encode lays s into h and the buffer behind w.
func Encode(s Service, h *Head, w *buffer.Writer) error {
	name, err := w.WriteString(s.Name)
	if err != nil {
		return err
	}
	aliases, err := w.WriteStrings(s.Aliases)
	if err != nil {
		return err
	}
	proto, err := w.WriteString(s.Proto)
	if err != nil {
		return err
	}

	h.Name = name
	h.Aliases = aliases
	h.Port = int32(hostarg.Htons(s.Port))
	h.Proto = proto
	return nil
}

// Hooks is the lookup capability a module provides for services. An empty
// proto matches any protocol.
type Hooks interface {
	AllEntries() libnss.Response[[]Service]
	ServiceByName(name, proto string) libnss.Response[Service]
	ServiceByPort(port uint16, proto string) libnss.Response[Service]
}

// Entries adapts Hooks to the services entry points.
type Entries struct {
	db    *database.Database[Service, Head]
	hooks Hooks
}

// NewEntries returns the entry points for hooks with a closed enumeration.
func NewEntries(hooks Hooks, opts ...database.Option) *Entries {
	return &Entries{
		db:    database.New(DatabaseName, Encode, opts...),
		hooks: hooks,
	}
}

// Begin implements setservent.
func (e *Entries) Begin() libnss.Status {
	return e.db.Begin(e.hooks.AllEntries)
}

// End implements endservent.
func (e *Entries) End() libnss.Status {
	return e.db.End()
}

// Next implements getservent_r.
func (e *Entries) Next(result *Head, buf []byte, out **Head) libnss.Status {
	return e.db.Next(result, buf, out)
}

// ByName implements getservbyname_r. proto may be nil.
func (e *Entries) ByName(name, proto []byte, result *Head, buf []byte, out **Head) libnss.Status {
	n, err := hostarg.String(name, "name")
	if err != nil {
		return e.db.Fail(database.OpLookup, libnss.StatusOf(err), out, err)
	}
	p, err := hostarg.OptionalString(proto, "proto")
	if err != nil {
		return e.db.Fail(database.OpLookup, libnss.StatusOf(err), out, err)
	}
	return e.db.Lookup(e.hooks.ServiceByName(n, p), result, buf, out)
}

// ByPort implements getservbyport_r. port is in network byte order, as
// the C library passes it.
func (e *Entries) ByPort(port int32, proto []byte, result *Head, buf []byte, out **Head) libnss.Status {
	p, err := hostarg.OptionalString(proto, "proto")
	if err != nil {
		return e.db.Fail(database.OpLookup, libnss.StatusOf(err), out, err)
	}
	return e.db.Lookup(e.hooks.ServiceByPort(hostarg.Ntohs(uint16(port)), p), result, buf, out)
}
