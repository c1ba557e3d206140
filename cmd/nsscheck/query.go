package main

import (
	"fmt"
	"net/netip"
	"strconv"
	"strings"

	"github.com/wippyai/libnss"
	"github.com/wippyai/libnss/buffer"
	"github.com/wippyai/libnss/group"
	"github.com/wippyai/libnss/host"
	"github.com/wippyai/libnss/internal/hostarg"
	"github.com/wippyai/libnss/internal/module"
	"github.com/wippyai/libnss/passwd"
	"github.com/wippyai/libnss/service"
	"github.com/wippyai/libnss/shadow"
)

// maxBuffer bounds the retry loop the way the C library caps its own.
const maxBuffer = 1 << 20

var databases = []string{
	service.DatabaseName,
	passwd.DatabaseName,
	group.DatabaseName,
	shadow.DatabaseName,
	host.DatabaseName,
}

type field struct {
	key   string
	value string
}

type record []field

// result is the outcome of one query.
type result struct {
	records []record
	status  libnss.Status
	retries int // calls answered with TryAgain
	buflen  int // final buffer size
}

// call invokes fn with a buffer of buflen bytes, doubling it while the
// module answers TryAgain. The returned buffer carries the final size.
func call[H any](buflen int, res *result, fn func(*H, []byte, **H) libnss.Status) (*H, []byte, libnss.Status) {
	if buflen < 1 {
		buflen = 1
	}
	for {
		var head H
		var out *H
		buf := make([]byte, buflen)
		st := fn(&head, buf, &out)
		if st == libnss.StatusTryAgain && buflen < maxBuffer {
			res.retries++
			buflen *= 2
			continue
		}
		res.buflen = buflen
		if st == libnss.StatusSuccess && out != &head {
			return nil, nil, libnss.StatusUnavailable
		}
		return &head, buf, st
	}
}

// enumerate walks a database with Begin, Next and End.
func enumerate[H any](res *result, buflen int, begin, end func() libnss.Status,
	next func(*H, []byte, **H) libnss.Status, decode func(*H, *buffer.Reader) (record, error)) error {
	if st := begin(); st != libnss.StatusSuccess {
		res.status = st
		return nil
	}
	defer end()

	size := buflen
	for {
		head, buf, st := call(size, res, next)
		if st != libnss.StatusSuccess {
			res.status = libnss.StatusSuccess
			if st != libnss.StatusNotFound {
				res.status = st
			}
			return nil
		}
		size = len(buf)
		rec, err := decode(head, buffer.NewReader(buf))
		if err != nil {
			return err
		}
		res.records = append(res.records, rec)
	}
}

func lookup[H any](res *result, buflen int, fn func(*H, []byte, **H) libnss.Status,
	decode func(*H, *buffer.Reader) (record, error)) error {
	head, buf, st := call(buflen, res, fn)
	res.status = st
	if st != libnss.StatusSuccess {
		return nil
	}
	rec, err := decode(head, buffer.NewReader(buf))
	if err != nil {
		return err
	}
	res.records = append(res.records, rec)
	return nil
}

// query enumerates db when key is empty and looks key up otherwise, using
// the key syntax of getent(1).
func query(m *module.Module, db, key string, buflen int) (*result, error) {
	res := &result{}
	var err error

	switch db {
	case service.DatabaseName:
		e := m.Services
		if key == "" {
			err = enumerate(res, buflen, e.Begin, e.End, e.Next, decodeService)
			break
		}
		name, proto, _ := strings.Cut(key, "/")
		if port, perr := strconv.ParseUint(name, 10, 16); perr == nil {
			err = lookup(res, buflen, func(h *service.Head, b []byte, o **service.Head) libnss.Status {
				return e.ByPort(int32(hostarg.Htons(uint16(port))), optional(proto), h, b, o)
			}, decodeService)
		} else {
			err = lookup(res, buflen, func(h *service.Head, b []byte, o **service.Head) libnss.Status {
				return e.ByName([]byte(name), optional(proto), h, b, o)
			}, decodeService)
		}

	case passwd.DatabaseName:
		e := m.Passwd
		if key == "" {
			err = enumerate(res, buflen, e.Begin, e.End, e.Next, decodePasswd)
			break
		}
		if uid, perr := strconv.ParseUint(key, 10, 32); perr == nil {
			err = lookup(res, buflen, func(h *passwd.Head, b []byte, o **passwd.Head) libnss.Status {
				return e.ByUID(uint32(uid), h, b, o)
			}, decodePasswd)
		} else {
			err = lookup(res, buflen, func(h *passwd.Head, b []byte, o **passwd.Head) libnss.Status {
				return e.ByName([]byte(key), h, b, o)
			}, decodePasswd)
		}

	case group.DatabaseName:
		e := m.Groups
		if key == "" {
			err = enumerate(res, buflen, e.Begin, e.End, e.Next, decodeGroup)
			break
		}
		if gid, perr := strconv.ParseUint(key, 10, 32); perr == nil {
			err = lookup(res, buflen, func(h *group.Head, b []byte, o **group.Head) libnss.Status {
				return e.ByGID(uint32(gid), h, b, o)
			}, decodeGroup)
		} else {
			err = lookup(res, buflen, func(h *group.Head, b []byte, o **group.Head) libnss.Status {
				return e.ByName([]byte(key), h, b, o)
			}, decodeGroup)
		}

	case shadow.DatabaseName:
		e := m.Shadow
		if key == "" {
			err = enumerate(res, buflen, e.Begin, e.End, e.Next, decodeShadow)
			break
		}
		err = lookup(res, buflen, func(h *shadow.Head, b []byte, o **shadow.Head) libnss.Status {
			return e.ByName([]byte(key), h, b, o)
		}, decodeShadow)

	case host.DatabaseName:
		e := m.Hosts
		if key == "" {
			err = enumerate(res, buflen, e.Begin, e.End, e.Next, decodeHost)
			break
		}
		if addr, perr := netip.ParseAddr(key); perr == nil {
			family := host.FamilyOf(addr)
			err = lookup(res, buflen, func(h *host.Head, b []byte, o **host.Head) libnss.Status {
				return e.ByAddr(addr.AsSlice(), int32(family), h, b, o)
			}, decodeHost)
			break
		}
		for _, family := range []host.Family{host.FamilyInet, host.FamilyInet6} {
			err = lookup(res, buflen, func(h *host.Head, b []byte, o **host.Head) libnss.Status {
				return e.ByName2([]byte(key), int32(family), h, b, o)
			}, decodeHost)
			if err != nil || res.status != libnss.StatusNotFound {
				break
			}
		}

	default:
		return nil, fmt.Errorf("unknown database %q (want one of %s)", db, strings.Join(databases, ", "))
	}

	if err != nil {
		return nil, err
	}
	return res, nil
}

func optional(s string) []byte {
	if s == "" {
		return nil
	}
	return []byte(s)
}

func decodeService(h *service.Head, r *buffer.Reader) (record, error) {
	name, err := r.String(h.Name)
	if err != nil {
		return nil, err
	}
	aliases, err := r.Strings(h.Aliases)
	if err != nil {
		return nil, err
	}
	proto, err := r.String(h.Proto)
	if err != nil {
		return nil, err
	}
	return record{
		{"name", name},
		{"port", strconv.Itoa(int(hostarg.Ntohs(uint16(h.Port))))},
		{"proto", proto},
		{"aliases", strings.Join(aliases, " ")},
	}, nil
}

func decodePasswd(h *passwd.Head, r *buffer.Reader) (record, error) {
	var s [5]string
	for i, ref := range []buffer.Ref{h.Name, h.Passwd, h.Gecos, h.Dir, h.Shell} {
		v, err := r.String(ref)
		if err != nil {
			return nil, err
		}
		s[i] = v
	}
	return record{
		{"name", s[0]},
		{"passwd", s[1]},
		{"uid", strconv.FormatUint(uint64(h.UID), 10)},
		{"gid", strconv.FormatUint(uint64(h.GID), 10)},
		{"gecos", s[2]},
		{"dir", s[3]},
		{"shell", s[4]},
	}, nil
}

func decodeGroup(h *group.Head, r *buffer.Reader) (record, error) {
	name, err := r.String(h.Name)
	if err != nil {
		return nil, err
	}
	pw, err := r.String(h.Passwd)
	if err != nil {
		return nil, err
	}
	members, err := r.Strings(h.Members)
	if err != nil {
		return nil, err
	}
	return record{
		{"name", name},
		{"passwd", pw},
		{"gid", strconv.FormatUint(uint64(h.GID), 10)},
		{"members", strings.Join(members, ",")},
	}, nil
}

func decodeShadow(h *shadow.Head, r *buffer.Reader) (record, error) {
	name, err := r.String(h.Name)
	if err != nil {
		return nil, err
	}
	pw, err := r.String(h.Passwd)
	if err != nil {
		return nil, err
	}
	days := func(v int) string {
		if v < 0 {
			return ""
		}
		return strconv.Itoa(v)
	}
	return record{
		{"name", name},
		{"passwd", pw},
		{"last_change", days(h.LastChange)},
		{"min", days(h.Min)},
		{"max", days(h.Max)},
		{"warn", days(h.Warn)},
		{"inactive", days(h.Inactive)},
		{"expire", days(h.Expire)},
	}, nil
}

func decodeHost(h *host.Head, r *buffer.Reader) (record, error) {
	name, err := r.String(h.Name)
	if err != nil {
		return nil, err
	}
	aliases, err := r.Strings(h.Aliases)
	if err != nil {
		return nil, err
	}
	raw, err := r.BytesList(h.AddrList, int(h.Length))
	if err != nil {
		return nil, err
	}
	addrs := make([]string, 0, len(raw))
	for _, b := range raw {
		a, _ := netip.AddrFromSlice(b)
		addrs = append(addrs, a.String())
	}
	return record{
		{"name", name},
		{"family", host.Family(h.AddrType).String()},
		{"addresses", strings.Join(addrs, " ")},
		{"aliases", strings.Join(aliases, " ")},
	}, nil
}
