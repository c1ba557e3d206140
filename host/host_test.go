package host

import (
	"net/netip"
	"testing"
	"unsafe"

	"github.com/wippyai/libnss"
	"github.com/wippyai/libnss/buffer"
)

type hosts []Host

func (h hosts) AllEntries() libnss.Response[[]Host] { return libnss.Success([]Host(h)) }

func (h hosts) HostByName(name string, family Family) libnss.Response[Host] {
	for _, e := range h {
		if e.Name == name {
			return libnss.Success(e)
		}
		for _, a := range e.Aliases {
			if a == name {
				return libnss.Success(e)
			}
		}
	}
	return libnss.NotFound[Host]()
}

func (h hosts) HostByAddr(addr netip.Addr) libnss.Response[Host] {
	for _, e := range h {
		for _, a := range e.Addresses {
			if a == addr {
				return libnss.Success(e)
			}
		}
	}
	return libnss.NotFound[Host]()
}

var testHosts = hosts{
	{
		Name:    "gateway.lan",
		Aliases: []string{"gw"},
		Addresses: []netip.Addr{
			netip.MustParseAddr("192.168.1.1"),
			netip.MustParseAddr("fd00::1"),
			netip.MustParseAddr("192.168.2.1"),
		},
	},
	{
		Name:      "v6only.lan",
		Addresses: []netip.Addr{netip.MustParseAddr("fd00::2")},
	},
}

type decoded struct {
	name    string
	aliases []string
	family  Family
	addrs   []netip.Addr
}

func decode(t *testing.T, h *Head, buf []byte) decoded {
	t.Helper()
	r := buffer.NewReader(buf)
	name, err := r.String(h.Name)
	if err != nil {
		t.Fatal(err)
	}
	aliases, err := r.Strings(h.Aliases)
	if err != nil {
		t.Fatal(err)
	}
	raw, err := r.BytesList(h.AddrList, int(h.Length))
	if err != nil {
		t.Fatal(err)
	}
	d := decoded{name: name, aliases: aliases, family: Family(h.AddrType)}
	for _, b := range raw {
		a, _ := netip.AddrFromSlice(b)
		d.addrs = append(d.addrs, a)
	}
	return d
}

func TestHeadLayout(t *testing.T) {
	ptr := unsafe.Sizeof(uintptr(0))
	if got := unsafe.Offsetof(Head{}.AddrList); got != 2*ptr+8 {
		t.Errorf("offsetof(h_addr_list) = %d", got)
	}
}

func TestEntries_ByName2(t *testing.T) {
	e := NewEntries(testHosts)

	tests := []struct {
		name   string
		key    string
		family Family
		want   libnss.Status
		addrs  []string
	}{
		{"ipv4", "gateway.lan", FamilyInet, libnss.StatusSuccess, []string{"192.168.1.1", "192.168.2.1"}},
		{"ipv6", "gw", FamilyInet6, libnss.StatusSuccess, []string{"fd00::1"}},
		{"family missing", "v6only.lan", FamilyInet, libnss.StatusNotFound, nil},
		{"unknown host", "nowhere.lan", FamilyInet, libnss.StatusNotFound, nil},
		{"unknown family", "gateway.lan", Family(99), libnss.StatusNotFound, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var head Head
			out := &head
			buf := make([]byte, 512)
			st := e.ByName2([]byte(tt.key), int32(tt.family), &head, buf, &out)
			if st != tt.want {
				t.Fatalf("gethostbyname2_r = %v, want %v", st, tt.want)
			}
			if st != libnss.StatusSuccess {
				if out != nil {
					t.Error("result pointer not nulled")
				}
				return
			}
			d := decode(t, &head, buf)
			if d.family != tt.family || int(head.Length) != tt.family.AddrLen() {
				t.Errorf("family = %v length = %d", d.family, head.Length)
			}
			if len(d.addrs) != len(tt.addrs) {
				t.Fatalf("addresses = %v, want %v", d.addrs, tt.addrs)
			}
			for i, a := range tt.addrs {
				if d.addrs[i] != netip.MustParseAddr(a) {
					t.Errorf("address %d = %v, want %s", i, d.addrs[i], a)
				}
			}
		})
	}
}

func TestEntries_ByName(t *testing.T) {
	e := NewEntries(testHosts)
	var head Head
	buf := make([]byte, 512)
	if st := e.ByName([]byte("gw"), &head, buf, nil); st != libnss.StatusSuccess {
		t.Fatalf("gethostbyname_r = %v", st)
	}
	if d := decode(t, &head, buf); d.family != FamilyInet || d.name != "gateway.lan" {
		t.Errorf("decoded %+v", d)
	}
	if st := e.ByName([]byte{'g', 0xff}, &head, buf, nil); st != libnss.StatusNotFound {
		t.Errorf("gethostbyname_r(invalid) = %v", st)
	}
}

func TestEntries_ByAddr(t *testing.T) {
	e := NewEntries(testHosts)
	var head Head
	var out *Head
	buf := make([]byte, 512)

	if st := e.ByAddr([]byte{192, 168, 2, 1}, int32(FamilyInet), &head, buf, &out); st != libnss.StatusSuccess {
		t.Fatalf("gethostbyaddr_r = %v", st)
	}
	if d := decode(t, &head, buf); d.name != "gateway.lan" || len(d.aliases) != 1 {
		t.Errorf("decoded %+v", d)
	}

	v6 := netip.MustParseAddr("fd00::2").As16()
	if st := e.ByAddr(v6[:], int32(FamilyInet6), &head, buf, &out); st != libnss.StatusSuccess {
		t.Fatalf("gethostbyaddr_r(v6) = %v", st)
	}

	if st := e.ByAddr([]byte{192, 168, 2}, int32(FamilyInet), &head, buf, &out); st != libnss.StatusNotFound {
		t.Errorf("gethostbyaddr_r with short address = %v", st)
	}
	if st := e.ByAddr([]byte{10, 0, 0, 1}, int32(FamilyInet), &head, buf, &out); st != libnss.StatusNotFound {
		t.Errorf("gethostbyaddr_r for unknown address = %v", st)
	}
}

func TestEntries_EnumerateUsesFirstFamily(t *testing.T) {
	e := NewEntries(testHosts)
	e.Begin()
	defer e.End()

	var head Head
	buf := make([]byte, 512)
	if st := e.Next(&head, buf, nil); st != libnss.StatusSuccess {
		t.Fatalf("gethostent_r = %v", st)
	}
	if d := decode(t, &head, buf); d.family != FamilyInet || len(d.addrs) != 2 {
		t.Errorf("first entry decoded %+v", d)
	}

	buf = make([]byte, 512)
	e.Next(&head, buf, nil)
	if d := decode(t, &head, buf); d.family != FamilyInet6 || len(d.addrs) != 1 {
		t.Errorf("second entry decoded %+v", d)
	}

	var out *Head
	if st := e.Next(&head, make([]byte, 4), &out); st != libnss.StatusNotFound {
		t.Errorf("gethostent_r past end = %v", st)
	}
}

func TestEntries_ShortBuffer(t *testing.T) {
	e := NewEntries(testHosts)
	e.Begin()
	var head Head
	if st := e.Next(&head, make([]byte, 20), nil); st != libnss.StatusTryAgain {
		t.Fatalf("gethostent_r = %v, want try again", st)
	}
	buf := make([]byte, 512)
	e.Next(&head, buf, nil)
	if d := decode(t, &head, buf); d.name != "gateway.lan" {
		t.Errorf("retry served %q", d.name)
	}
}

func TestFamily(t *testing.T) {
	if FamilyInet.AddrLen() != 4 || FamilyInet6.AddrLen() != 16 || Family(0).AddrLen() != 0 {
		t.Error("unexpected address lengths")
	}
	if FamilyOf(netip.MustParseAddr("::ffff:10.0.0.1")) != FamilyInet6 {
		t.Error("mapped addresses are reported as AF_INET6")
	}
	if FamilyInet.String() != "AF_INET" || Family(3).String() != "AF_UNKNOWN" {
		t.Error("unexpected family names")
	}
}
