package static

import (
	"net/netip"
	"strconv"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/wippyai/libnss/errors"
	"github.com/wippyai/libnss/group"
	"github.com/wippyai/libnss/host"
	"github.com/wippyai/libnss/passwd"
	"github.com/wippyai/libnss/service"
	"github.com/wippyai/libnss/shadow"
)

// Data is a parsed entry document.
type Data struct {
	Services []service.Service
	Passwd   []passwd.Passwd
	Groups   []group.Group
	Shadow   []shadow.Shadow
	Hosts    []host.Host
}

type document struct {
	Service []serviceEntry `toml:"service"`
	Passwd  []passwdEntry  `toml:"passwd"`
	Group   []groupEntry   `toml:"group"`
	Shadow  []shadowEntry  `toml:"shadow"`
	Host    []hostEntry    `toml:"host"`
}

type serviceEntry struct {
	Name    string   `toml:"name"`
	Aliases []string `toml:"aliases"`
	Port    uint16   `toml:"port"`
	Proto   string   `toml:"proto"`
}

type passwdEntry struct {
	Name   string  `toml:"name"`
	Passwd *string `toml:"passwd"`
	UID    uint32  `toml:"uid"`
	GID    uint32  `toml:"gid"`
	Gecos  string  `toml:"gecos"`
	Dir    string  `toml:"dir"`
	Shell  string  `toml:"shell"`
}

type groupEntry struct {
	Name    string   `toml:"name"`
	Passwd  *string  `toml:"passwd"`
	GID     uint32   `toml:"gid"`
	Members []string `toml:"members"`
}

type shadowEntry struct {
	Name       string  `toml:"name"`
	Passwd     string  `toml:"passwd"`
	LastChange *int64  `toml:"last_change"`
	Min        *int64  `toml:"min"`
	Max        *int64  `toml:"max"`
	Warn       *int64  `toml:"warn"`
	Inactive   *int64  `toml:"inactive"`
	Expire     *int64  `toml:"expire"`
	Flag       *uint64 `toml:"flag"`
}

type hostEntry struct {
	Name      string   `toml:"name"`
	Aliases   []string `toml:"aliases"`
	Addresses []string `toml:"addresses"`
}

// Parse decodes an entry document:
//
//	[[service]]
//	name = "http"
//	aliases = ["www"]
//	port = 80
//	proto = "tcp"
//
//	[[host]]
//	name = "gateway.lan"
//	addresses = ["192.168.1.1", "fd00::1"]
//
// passwd and group entries default their password field to "x"; unset
// shadow fields are -1.
func Parse(b []byte) (*Data, error) {
	var doc document
	if err := toml.Unmarshal(b, &doc); err != nil {
		return nil, errors.ParseFailed("entry document", err)
	}

	d := &Data{}
	for i, e := range doc.Service {
		if err := required("service", i, e.Name); err != nil {
			return nil, err
		}
		if e.Proto == "" {
			return nil, invalid("service", i, "proto", "protocol is required")
		}
		d.Services = append(d.Services, service.Service{
			Name:    e.Name,
			Aliases: e.Aliases,
			Port:    e.Port,
			Proto:   e.Proto,
		})
	}

	for i, e := range doc.Passwd {
		if err := required("passwd", i, e.Name); err != nil {
			return nil, err
		}
		d.Passwd = append(d.Passwd, passwd.Passwd{
			Name:   e.Name,
			Passwd: orDefault(e.Passwd, "x"),
			UID:    e.UID,
			GID:    e.GID,
			Gecos:  e.Gecos,
			Dir:    e.Dir,
			Shell:  e.Shell,
		})
	}

	for i, e := range doc.Group {
		if err := required("group", i, e.Name); err != nil {
			return nil, err
		}
		d.Groups = append(d.Groups, group.Group{
			Name:    e.Name,
			Passwd:  orDefault(e.Passwd, "x"),
			GID:     e.GID,
			Members: e.Members,
		})
	}

	for i, e := range doc.Shadow {
		if err := required("shadow", i, e.Name); err != nil {
			return nil, err
		}
		d.Shadow = append(d.Shadow, shadow.Shadow{
			Name:       e.Name,
			Passwd:     e.Passwd,
			LastChange: orDefault(e.LastChange, -1),
			Min:        orDefault(e.Min, -1),
			Max:        orDefault(e.Max, -1),
			Warn:       orDefault(e.Warn, -1),
			Inactive:   orDefault(e.Inactive, -1),
			Expire:     orDefault(e.Expire, -1),
			Flag:       orDefault(e.Flag, ^uint64(0)),
		})
	}

	for i, e := range doc.Host {
		if err := required("host", i, e.Name); err != nil {
			return nil, err
		}
		h := host.Host{Name: e.Name, Aliases: e.Aliases}
		for j, s := range e.Addresses {
			a, err := netip.ParseAddr(s)
			if err != nil {
				return nil, errors.New(errors.PhaseLoad, errors.KindInvalidData).
					Database(host.DatabaseName).
					Path("host", strconv.Itoa(i), "addresses", strconv.Itoa(j)).
					Value(s).
					Cause(err).
					Build()
			}
			h.Addresses = append(h.Addresses, a.WithZone(""))
		}
		if len(h.Addresses) == 0 {
			return nil, invalid("host", i, "addresses", "at least one address is required")
		}
		d.Hosts = append(d.Hosts, h)
	}

	return d, nil
}

func required(table string, i int, name string) error {
	if name == "" {
		return invalid(table, i, "name", "name is required")
	}
	return nil
}

func invalid(table string, i int, field, detail string) error {
	return errors.New(errors.PhaseLoad, errors.KindInvalidData).
		Path(table, strconv.Itoa(i), field).
		Detail("%s", detail).
		Build()
}

func orDefault[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}
