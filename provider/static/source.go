// Package static serves NSS records from a TOML entry document.
//
// A Source holds the parsed document and exposes one lookup view per
// record kind:
//
//	src, err := static.Load("/etc/libnss/entries.toml")
//	services := service.NewEntries(src.Services())
//	users := passwd.NewEntries(src.Passwd())
//
// Until a document has been loaded successfully every lookup answers
// Unavailable, so the C library moves on to the next nsswitch source.
package static

import (
	"net/netip"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/libnss"
	"github.com/wippyai/libnss/errors"
	"github.com/wippyai/libnss/group"
	"github.com/wippyai/libnss/host"
	"github.com/wippyai/libnss/passwd"
	"github.com/wippyai/libnss/service"
	"github.com/wippyai/libnss/shadow"
)

// Source is a reloadable set of entries.
type Source struct {
	mu     sync.RWMutex
	data   *Data
	path   string
	logger *zap.Logger
	notify func(error)
}

// Option configures a Source.
type Option func(*Source)

// WithLogger sets the logger for load and reload events.
func WithLogger(l *zap.Logger) Option {
	return func(s *Source) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithReloadHook registers fn to be called after every reload attempt
// made by Watch, with the outcome of the attempt.
func WithReloadHook(fn func(error)) Option {
	return func(s *Source) { s.notify = fn }
}

// New returns a Source serving d. A nil d answers Unavailable.
func New(d *Data, opts ...Option) *Source {
	s := &Source{data: d, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads and parses the document at path. On failure the returned
// Source is still usable: it has no data and answers Unavailable until a
// Reload succeeds.
func Load(path string, opts ...Option) (*Source, error) {
	s := New(nil, opts...)
	s.path = path
	return s, s.Reload()
}

// Path returns the document path, empty for a Source built with New.
func (s *Source) Path() string {
	return s.path
}

// Reload re-reads the document. A failed reload keeps the entries
// currently served.
func (s *Source) Reload() error {
	if s.path == "" {
		return errors.NotInitialized(errors.PhaseLoad, "document path")
	}

	d, err := readFile(s.path)
	if err != nil {
		s.logger.Warn("entry document not loaded, keeping previous entries",
			zap.String("path", s.path),
			zap.Error(err),
		)
		return err
	}

	s.Replace(d)
	s.logger.Info("entry document loaded",
		zap.String("path", s.path),
		zap.Int("services", len(d.Services)),
		zap.Int("passwd", len(d.Passwd)),
		zap.Int("groups", len(d.Groups)),
		zap.Int("shadow", len(d.Shadow)),
		zap.Int("hosts", len(d.Hosts)),
	)
	return nil
}

// Replace swaps the served entries. Slices in d must not be modified
// afterwards.
func (s *Source) Replace(d *Data) {
	s.mu.Lock()
	s.data = d
	s.mu.Unlock()
}

// Loaded reports whether the Source has entries to serve.
func (s *Source) Loaded() bool {
	return s.snapshot() != nil
}

func (s *Source) snapshot() *Data {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data
}

func readFile(path string) (*Data, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Unavailable(errors.PhaseLoad, "read "+path, err)
	}
	return Parse(b)
}

// find returns the first element of items matching fn.
func find[T any](d *Data, items func(*Data) []T, match func(T) bool) libnss.Response[T] {
	if d == nil {
		return libnss.Unavailable[T]()
	}
	for _, it := range items(d) {
		if match(it) {
			return libnss.Success(it)
		}
	}
	return libnss.NotFound[T]()
}

func all[T any](d *Data, items func(*Data) []T) libnss.Response[[]T] {
	if d == nil {
		return libnss.Unavailable[[]T]()
	}
	return libnss.Success(items(d))
}

func named(name, want string, aliases []string) bool {
	if name == want {
		return true
	}
	for _, a := range aliases {
		if a == want {
			return true
		}
	}
	return false
}

// Services returns the services lookup view.
func (s *Source) Services() service.Hooks { return services{s} }

// Passwd returns the passwd lookup view.
func (s *Source) Passwd() passwd.Hooks { return users{s} }

// Groups returns the group lookup view.
func (s *Source) Groups() group.Hooks { return groups{s} }

// Shadow returns the shadow lookup view.
func (s *Source) Shadow() shadow.Hooks { return shadows{s} }

// Hosts returns the hosts lookup view.
func (s *Source) Hosts() host.Hooks { return hosts{s} }

type services struct{ s *Source }

func servicesOf(d *Data) []service.Service { return d.Services }

func (v services) AllEntries() libnss.Response[[]service.Service] {
	return all(v.s.snapshot(), servicesOf)
}

func (v services) ServiceByName(name, proto string) libnss.Response[service.Service] {
	return find(v.s.snapshot(), servicesOf, func(e service.Service) bool {
		return named(e.Name, name, e.Aliases) && (proto == "" || e.Proto == proto)
	})
}

func (v services) ServiceByPort(port uint16, proto string) libnss.Response[service.Service] {
	return find(v.s.snapshot(), servicesOf, func(e service.Service) bool {
		return e.Port == port && (proto == "" || e.Proto == proto)
	})
}

type users struct{ s *Source }

func passwdOf(d *Data) []passwd.Passwd { return d.Passwd }

func (v users) AllEntries() libnss.Response[[]passwd.Passwd] {
	return all(v.s.snapshot(), passwdOf)
}

func (v users) EntryByUID(uid uint32) libnss.Response[passwd.Passwd] {
	return find(v.s.snapshot(), passwdOf, func(e passwd.Passwd) bool { return e.UID == uid })
}

func (v users) EntryByName(name string) libnss.Response[passwd.Passwd] {
	return find(v.s.snapshot(), passwdOf, func(e passwd.Passwd) bool { return e.Name == name })
}

type groups struct{ s *Source }

func groupsOf(d *Data) []group.Group { return d.Groups }

func (v groups) AllEntries() libnss.Response[[]group.Group] {
	return all(v.s.snapshot(), groupsOf)
}

func (v groups) EntryByGID(gid uint32) libnss.Response[group.Group] {
	return find(v.s.snapshot(), groupsOf, func(e group.Group) bool { return e.GID == gid })
}

func (v groups) EntryByName(name string) libnss.Response[group.Group] {
	return find(v.s.snapshot(), groupsOf, func(e group.Group) bool { return e.Name == name })
}

type shadows struct{ s *Source }

func shadowOf(d *Data) []shadow.Shadow { return d.Shadow }

func (v shadows) AllEntries() libnss.Response[[]shadow.Shadow] {
	return all(v.s.snapshot(), shadowOf)
}

func (v shadows) EntryByName(name string) libnss.Response[shadow.Shadow] {
	return find(v.s.snapshot(), shadowOf, func(e shadow.Shadow) bool { return e.Name == name })
}

type hosts struct{ s *Source }

func hostsOf(d *Data) []host.Host { return d.Hosts }

func (v hosts) AllEntries() libnss.Response[[]host.Host] {
	return all(v.s.snapshot(), hostsOf)
}

// HostByName matches host names case-insensitively and skips entries with
// no address of the requested family, so separate IPv4 and IPv6 entries
// for one name both resolve.
func (v hosts) HostByName(name string, family host.Family) libnss.Response[host.Host] {
	return find(v.s.snapshot(), hostsOf, func(e host.Host) bool {
		if !strings.EqualFold(e.Name, name) && !foldAny(e.Aliases, name) {
			return false
		}
		_, ok := e.Filter(family)
		return ok
	})
}

func (v hosts) HostByAddr(addr netip.Addr) libnss.Response[host.Host] {
	return find(v.s.snapshot(), hostsOf, func(e host.Host) bool {
		for _, a := range e.Addresses {
			if a == addr {
				return true
			}
		}
		return false
	})
}

func foldAny(ss []string, want string) bool {
	for _, s := range ss {
		if strings.EqualFold(s, want) {
			return true
		}
	}
	return false
}
