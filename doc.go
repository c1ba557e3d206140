// Package libnss provides a Go runtime for writing glibc NSS modules.
//
// An NSS module is a shared object loaded by the C library into arbitrary
// host processes. Its entry points answer lookups such as "service named X"
// through a fixed calling convention: the caller owns the result structure
// and a scratch buffer, and the module must lay every string and array it
// returns into that buffer.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	libnss/              Root package with the Status model and Response type
//	├── buffer/          Bounds-checked writer over the caller's scratch buffer
//	├── iterator/        Resumable enumeration state shared across calls
//	├── database/        Generic entry-point core tying the above together
//	├── service/         struct servent records and entry points
//	├── passwd/          struct passwd records and entry points
//	├── group/           struct group records and entry points
//	├── shadow/          struct spwd records and entry points
//	├── host/            struct hostent records and entry points
//	├── provider/        Lookup capabilities (TOML file, wasm guest)
//	├── config/          TOML module configuration
//	├── logging/         zap logger construction for loaded modules
//	├── metrics/         Prometheus outcome counters
//	├── errors/          Structured error types
//	└── cmd/
//	    ├── nss_static/  c-shared module serving provider/static entries
//	    └── nsscheck/    CLI and TUI driving entry points in-process
//
// # Quick Start
//
// Implement the hooks of a record kind and build entry points for it:
//
//	type services struct{}
//
//	func (services) AllEntries() libnss.Response[[]service.Service] { ... }
//	func (services) ServiceByName(name, proto string) libnss.Response[service.Service] { ... }
//	func (services) ServiceByPort(port uint16, proto string) libnss.Response[service.Service] { ... }
//
//	entries := service.NewEntries(services{})
//
//	// from the cgo export of _nss_example_getservent_r:
//	status := entries.Next(result, buf, out)
//
// # Status Codes
//
// Every entry point returns one of the glibc enum nss_status values:
//
//	NSS_STATUS_TRYAGAIN  -2   transient, includes "buffer too small"
//	NSS_STATUS_UNAVAIL   -1   the data source could not be consulted
//	NSS_STATUS_NOTFOUND   0   definitive absence
//	NSS_STATUS_SUCCESS    1   result filled in
//
// # Thread Safety
//
// Entry points may be called concurrently from any thread of the host. The
// only shared mutable state is the per-database enumeration cursor, which
// is guarded by a mutex for the full next/serialize/rewind cycle.
//
// # Memory Model
//
// The caller's buffer is borrowed for one call. Nothing written into it is
// referenced after the call returns, and no Go memory is handed to C.
package libnss
