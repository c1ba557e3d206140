// Package host implements the NSS hosts database (struct hostent).
//
// A hostent carries addresses of a single family. Records with mixed
// families are narrowed to the family requested by the caller; during
// enumeration the family of the first address is used.
package host

import (
	"net/netip"

	"golang.org/x/sys/unix"

	"github.com/wippyai/libnss"
	"github.com/wippyai/libnss/buffer"
	"github.com/wippyai/libnss/database"
	"github.com/wippyai/libnss/errors"
	"github.com/wippyai/libnss/internal/hostarg"
)

// DatabaseName is the nsswitch.conf name of the database.
const DatabaseName = "hosts"

// Family is an address family as passed by the C library.
type Family int32

const (
	FamilyInet  Family = unix.AF_INET
	FamilyInet6 Family = unix.AF_INET6
)

// AddrLen returns the binary address length of f, or 0 for an unknown family.
func (f Family) AddrLen() int {
	switch f {
	case FamilyInet:
		return 4
	case FamilyInet6:
		return 16
	default:
		return 0
	}
}

func (f Family) String() string {
	switch f {
	case FamilyInet:
		return "AF_INET"
	case FamilyInet6:
		return "AF_INET6"
	default:
		return "AF_UNKNOWN"
	}
}

// FamilyOf returns the family an address is reported under.
func FamilyOf(a netip.Addr) Family {
	if a.Is4() {
		return FamilyInet
	}
	return FamilyInet6
}

// Host is one entry of the hosts database.
type Host struct {
	Name      string
	Aliases   []string
	Addresses []netip.Addr
}

// Filter returns h with only the addresses of family f. It reports false
// when none remain.
func (h Host) Filter(f Family) (Host, bool) {
	var addrs []netip.Addr
	for _, a := range h.Addresses {
		if FamilyOf(a) == f {
			addrs = append(addrs, a)
		}
	}
	if len(addrs) == 0 {
		return Host{}, false
	}
	return Host{Name: h.Name, Aliases: h.Aliases, Addresses: addrs}, true
}

// Head mirrors struct hostent from <netdb.h>.
type Head struct {
	Name     buffer.Ref // char *h_name
	Aliases  buffer.Ref // char **h_aliases
	AddrType int32      // int h_addrtype
	Length   int32      // int h_length
	AddrList buffer.Ref // char **h_addr_list
}

// Encode lays h into head and the buffer behind w, using the family of the
// first address.
func Encode(h Host, head *Head, w *buffer.Writer) error {
	family := FamilyInet
	if len(h.Addresses) > 0 {
		family = FamilyOf(h.Addresses[0])
	}

	addrs := make([][]byte, 0, len(h.Addresses))
	for _, a := range h.Addresses {
		if !a.IsValid() {
			return errors.InvalidData(errors.PhaseEncode, []string{"h_addr_list"}, "invalid address")
		}
		if FamilyOf(a) == family {
			addrs = append(addrs, a.AsSlice())
		}
	}

	name, err := w.WriteString(h.Name)
	if err != nil {
		return err
	}
	aliases, err := w.WriteStrings(h.Aliases)
	if err != nil {
		return err
	}
	// in_addr and in6_addr are read as 32-bit words by some callers.
	list, err := w.WriteBytesList(addrs, 4)
	if err != nil {
		return err
	}

	*head = Head{
		Name:     name,
		Aliases:  aliases,
		AddrType: int32(family),
		Length:   int32(family.AddrLen()),
		AddrList: list,
	}
	return nil
}

// Hooks is the lookup capability a module provides for hosts.
type Hooks interface {
	AllEntries() libnss.Response[[]Host]
	HostByName(name string, family Family) libnss.Response[Host]
	HostByAddr(addr netip.Addr) libnss.Response[Host]
}

// Entries adapts Hooks to the hosts entry points.
type Entries struct {
	db    *database.Database[Host, Head]
	hooks Hooks
}

// NewEntries returns the entry points backed by hooks. Lookups by name
// or address narrow the answer to the requested family.
func NewEntries(hooks Hooks, opts ...database.Option) *Entries {
	return &Entries{
		db:    database.New(DatabaseName, Encode, opts...),
		hooks: hooks,
	}
}

// Begin implements sethostent.
func (e *Entries) Begin() libnss.Status { return e.db.Begin(e.hooks.AllEntries) }

// End implements endhostent.
func (e *Entries) End() libnss.Status { return e.db.End() }

// Next implements gethostent_r.
func (e *Entries) Next(result *Head, buf []byte, out **Head) libnss.Status {
	return e.db.Next(result, buf, out)
}

// ByName implements gethostbyname_r, which always asks for AF_INET.
func (e *Entries) ByName(name []byte, result *Head, buf []byte, out **Head) libnss.Status {
	return e.ByName2(name, int32(FamilyInet), result, buf, out)
}

// ByName2 implements gethostbyname2_r.
func (e *Entries) ByName2(name []byte, family int32, result *Head, buf []byte, out **Head) libnss.Status {
	f := Family(family)
	if f.AddrLen() == 0 {
		return e.db.Fail(database.OpLookup, libnss.StatusNotFound, out,
			errors.Unsupported(errors.PhaseDecode, "address family "+f.String()))
	}
	n, err := hostarg.String(name, "name")
	if err != nil {
		return e.db.Fail(database.OpLookup, libnss.StatusOf(err), out, err)
	}
	return e.db.Lookup(narrow(e.hooks.HostByName(n, f), f), result, buf, out)
}

// ByAddr implements gethostbyaddr_r. addr holds the raw in_addr or
// in6_addr bytes.
func (e *Entries) ByAddr(addr []byte, family int32, result *Head, buf []byte, out **Head) libnss.Status {
	f := Family(family)
	if f.AddrLen() == 0 || len(addr) != f.AddrLen() {
		return e.db.Fail(database.OpLookup, libnss.StatusNotFound, out,
			errors.InvalidInput(errors.PhaseDecode, "address length does not match "+f.String()))
	}
	a, ok := netip.AddrFromSlice(addr)
	if !ok {
		return e.db.Fail(database.OpLookup, libnss.StatusNotFound, out,
			errors.InvalidInput(errors.PhaseDecode, "malformed address"))
	}
	return e.db.Lookup(narrow(e.hooks.HostByAddr(a), f), result, buf, out)
}

func narrow(resp libnss.Response[Host], f Family) libnss.Response[Host] {
	h, ok := resp.Value()
	if !ok {
		return resp
	}
	h, ok = h.Filter(f)
	if !ok {
		return libnss.NotFound[Host]()
	}
	return libnss.Success(h)
}
