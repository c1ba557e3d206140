// Command nss_static is an NSS module serving records from a TOML entry
// document or a WebAssembly guest. Build it as a shared object and
// install it where the C library looks for modules:
//
//	go build -buildmode=c-shared -o libnss_static.so.2 ./cmd/nss_static
//	install -m 0644 libnss_static.so.2 /lib/x86_64-linux-gnu/
//
// and name it in /etc/nsswitch.conf:
//
//	passwd:   files static
//	services: files static
//
// The module is configured from LIBNSS_STATIC_CONFIG or
// /etc/libnss/static.toml on the first call.
package main

/*
#include <stdlib.h>
#include <string.h>
#include <netdb.h>
#include <pwd.h>
#include <grp.h>
#include <shadow.h>
*/
import "C"

import (
	"context"
	"sync"
	"unsafe"

	"go.uber.org/zap"

	"github.com/wippyai/libnss"
	"github.com/wippyai/libnss/config"
	"github.com/wippyai/libnss/database"
	"github.com/wippyai/libnss/group"
	"github.com/wippyai/libnss/host"
	"github.com/wippyai/libnss/internal/module"
	"github.com/wippyai/libnss/passwd"
	"github.com/wippyai/libnss/service"
	"github.com/wippyai/libnss/shadow"
)

const name = "static"

// Go head structures must match the C library's. A mismatch in either
// direction fails to compile.
var (
	_ = [1]struct{}{}[unsafe.Sizeof(C.struct_servent{})-unsafe.Sizeof(service.Head{})]
	_ = [1]struct{}{}[unsafe.Sizeof(C.struct_passwd{})-unsafe.Sizeof(passwd.Head{})]
	_ = [1]struct{}{}[unsafe.Sizeof(C.struct_group{})-unsafe.Sizeof(group.Head{})]
	_ = [1]struct{}{}[unsafe.Sizeof(C.struct_spwd{})-unsafe.Sizeof(shadow.Head{})]
	_ = [1]struct{}{}[unsafe.Sizeof(C.struct_hostent{})-unsafe.Sizeof(host.Head{})]
)

var (
	once sync.Once
	mod  *module.Module
)

// get opens the module on first use. A module that cannot be configured
// answers Unavailable for every database.
func get() *module.Module {
	once.Do(func() {
		mod = open()
		database.SetLogger(mod.Logger)
	})
	return mod
}

func open() *module.Module {
	cfg, err := config.FromEnv(name)
	if err != nil {
		return module.Unavailable(name)
	}
	m, err := module.Open(context.Background(), name, cfg)
	if m == nil {
		return module.Unavailable(name)
	}
	if err != nil {
		m.Logger.Error("entries not loaded", zap.Error(err))
	}
	return m
}

func status(s libnss.Status) C.int { return C.int(s) }

// cstring returns the bytes of a C string without its terminator, or nil
// for NULL.
func cstring(s *C.char) []byte {
	if s == nil {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(s)), int(C.strlen(s)))
}

func cbuffer(buf *C.char, buflen C.size_t) []byte {
	if buf == nil || buflen == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(buf)), int(buflen))
}

// services

//export _nss_static_setservent
func _nss_static_setservent(stayopen C.int) C.int { return status(get().Services.Begin()) }

//export _nss_static_endservent
func _nss_static_endservent() C.int { return status(get().Services.End()) }

//export _nss_static_getservent_r
func _nss_static_getservent_r(result *C.struct_servent, buf *C.char, buflen C.size_t, out **C.struct_servent) C.int {
	return status(get().Services.Next(
		(*service.Head)(unsafe.Pointer(result)), cbuffer(buf, buflen), (**service.Head)(unsafe.Pointer(out))))
}

//export _nss_static_getservbyname_r
func _nss_static_getservbyname_r(sname, proto *C.char, result *C.struct_servent, buf *C.char, buflen C.size_t, out **C.struct_servent) C.int {
	return status(get().Services.ByName(cstring(sname), cstring(proto),
		(*service.Head)(unsafe.Pointer(result)), cbuffer(buf, buflen), (**service.Head)(unsafe.Pointer(out))))
}

//export _nss_static_getservbyport_r
func _nss_static_getservbyport_r(port C.int, proto *C.char, result *C.struct_servent, buf *C.char, buflen C.size_t, out **C.struct_servent) C.int {
	return status(get().Services.ByPort(int32(port), cstring(proto),
		(*service.Head)(unsafe.Pointer(result)), cbuffer(buf, buflen), (**service.Head)(unsafe.Pointer(out))))
}

// passwd

//export _nss_static_setpwent
func _nss_static_setpwent(stayopen C.int) C.int { return status(get().Passwd.Begin()) }

//export _nss_static_endpwent
func _nss_static_endpwent() C.int { return status(get().Passwd.End()) }

//export _nss_static_getpwent_r
func _nss_static_getpwent_r(result *C.struct_passwd, buf *C.char, buflen C.size_t, out **C.struct_passwd) C.int {
	return status(get().Passwd.Next(
		(*passwd.Head)(unsafe.Pointer(result)), cbuffer(buf, buflen), (**passwd.Head)(unsafe.Pointer(out))))
}

//export _nss_static_getpwnam_r
func _nss_static_getpwnam_r(pname *C.char, result *C.struct_passwd, buf *C.char, buflen C.size_t, out **C.struct_passwd) C.int {
	return status(get().Passwd.ByName(cstring(pname),
		(*passwd.Head)(unsafe.Pointer(result)), cbuffer(buf, buflen), (**passwd.Head)(unsafe.Pointer(out))))
}

//export _nss_static_getpwuid_r
func _nss_static_getpwuid_r(uid C.uid_t, result *C.struct_passwd, buf *C.char, buflen C.size_t, out **C.struct_passwd) C.int {
	return status(get().Passwd.ByUID(uint32(uid),
		(*passwd.Head)(unsafe.Pointer(result)), cbuffer(buf, buflen), (**passwd.Head)(unsafe.Pointer(out))))
}

// group

//export _nss_static_setgrent
func _nss_static_setgrent(stayopen C.int) C.int { return status(get().Groups.Begin()) }

//export _nss_static_endgrent
func _nss_static_endgrent() C.int { return status(get().Groups.End()) }

//export _nss_static_getgrent_r
func _nss_static_getgrent_r(result *C.struct_group, buf *C.char, buflen C.size_t, out **C.struct_group) C.int {
	return status(get().Groups.Next(
		(*group.Head)(unsafe.Pointer(result)), cbuffer(buf, buflen), (**group.Head)(unsafe.Pointer(out))))
}

//export _nss_static_getgrnam_r
func _nss_static_getgrnam_r(gname *C.char, result *C.struct_group, buf *C.char, buflen C.size_t, out **C.struct_group) C.int {
	return status(get().Groups.ByName(cstring(gname),
		(*group.Head)(unsafe.Pointer(result)), cbuffer(buf, buflen), (**group.Head)(unsafe.Pointer(out))))
}

//export _nss_static_getgrgid_r
func _nss_static_getgrgid_r(gid C.gid_t, result *C.struct_group, buf *C.char, buflen C.size_t, out **C.struct_group) C.int {
	return status(get().Groups.ByGID(uint32(gid),
		(*group.Head)(unsafe.Pointer(result)), cbuffer(buf, buflen), (**group.Head)(unsafe.Pointer(out))))
}

// shadow

//export _nss_static_setspent
func _nss_static_setspent(stayopen C.int) C.int { return status(get().Shadow.Begin()) }

//export _nss_static_endspent
func _nss_static_endspent() C.int { return status(get().Shadow.End()) }

//export _nss_static_getspent_r
func _nss_static_getspent_r(result *C.struct_spwd, buf *C.char, buflen C.size_t, out **C.struct_spwd) C.int {
	return status(get().Shadow.Next(
		(*shadow.Head)(unsafe.Pointer(result)), cbuffer(buf, buflen), (**shadow.Head)(unsafe.Pointer(out))))
}

//export _nss_static_getspnam_r
func _nss_static_getspnam_r(sname *C.char, result *C.struct_spwd, buf *C.char, buflen C.size_t, out **C.struct_spwd) C.int {
	return status(get().Shadow.ByName(cstring(sname),
		(*shadow.Head)(unsafe.Pointer(result)), cbuffer(buf, buflen), (**shadow.Head)(unsafe.Pointer(out))))
}

// hosts

//export _nss_static_sethostent
func _nss_static_sethostent(stayopen C.int) C.int { return status(get().Hosts.Begin()) }

//export _nss_static_endhostent
func _nss_static_endhostent() C.int { return status(get().Hosts.End()) }

//export _nss_static_gethostent_r
func _nss_static_gethostent_r(result *C.struct_hostent, buf *C.char, buflen C.size_t, out **C.struct_hostent) C.int {
	return status(get().Hosts.Next(
		(*host.Head)(unsafe.Pointer(result)), cbuffer(buf, buflen), (**host.Head)(unsafe.Pointer(out))))
}

//export _nss_static_gethostbyname_r
func _nss_static_gethostbyname_r(hname *C.char, result *C.struct_hostent, buf *C.char, buflen C.size_t, out **C.struct_hostent) C.int {
	return status(get().Hosts.ByName(cstring(hname),
		(*host.Head)(unsafe.Pointer(result)), cbuffer(buf, buflen), (**host.Head)(unsafe.Pointer(out))))
}

//export _nss_static_gethostbyname2_r
func _nss_static_gethostbyname2_r(hname *C.char, af C.int, result *C.struct_hostent, buf *C.char, buflen C.size_t, out **C.struct_hostent) C.int {
	return status(get().Hosts.ByName2(cstring(hname), int32(af),
		(*host.Head)(unsafe.Pointer(result)), cbuffer(buf, buflen), (**host.Head)(unsafe.Pointer(out))))
}

//export _nss_static_gethostbyaddr_r
func _nss_static_gethostbyaddr_r(addr unsafe.Pointer, length C.socklen_t, af C.int, result *C.struct_hostent, buf *C.char, buflen C.size_t, out **C.struct_hostent) C.int {
	var raw []byte
	if addr != nil {
		raw = unsafe.Slice((*byte)(addr), int(length))
	}
	return status(get().Hosts.ByAddr(raw, int32(af),
		(*host.Head)(unsafe.Pointer(result)), cbuffer(buf, buflen), (**host.Head)(unsafe.Pointer(out))))
}

func main() {}
