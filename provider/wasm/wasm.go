// Package wasm loads NSS entries from a WebAssembly guest module.
//
// The guest exports its linear memory as "memory" and a function
//
//	nss_entries() -> i64
//
// returning ptr<<32 | len of an entry document (the TOML schema of the
// static provider) in that memory. The guest runs once under wazero with
// WASI available and is closed after the document is copied out; the
// entries are then served by a static.Source.
package wasm

import (
	"context"
	"os"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"go.uber.org/zap"

	"github.com/wippyai/libnss/errors"
	"github.com/wippyai/libnss/provider/static"
)

const (
	// EntriesExport is the name of the guest function producing the document.
	EntriesExport = "nss_entries"

	// DefaultMemoryLimitPages caps guest memory at 16 MiB.
	DefaultMemoryLimitPages = 256
)

type options struct {
	logger     *zap.Logger
	limitPages uint32
}

// Option configures Load.
type Option func(*options)

// WithLogger sets the logger for the returned Source.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMemoryLimitPages caps guest memory in 64 KiB pages.
func WithMemoryLimitPages(n uint32) Option {
	return func(o *options) { o.limitPages = n }
}

// LoadFile reads a guest module from path and calls Load.
func LoadFile(ctx context.Context, path string, opts ...Option) (*static.Source, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Unavailable(errors.PhaseLoad, "read "+path, err)
	}
	return Load(ctx, b, opts...)
}

// Load runs the guest and returns a Source serving its entries.
func Load(ctx context.Context, wasmBytes []byte, opts ...Option) (*static.Source, error) {
	o := options{logger: zap.NewNop(), limitPages: DefaultMemoryLimitPages}
	for _, opt := range opts {
		opt(&o)
	}

	doc, err := Entries(ctx, wasmBytes, o.limitPages)
	if err != nil {
		return nil, err
	}
	data, err := static.Parse(doc)
	if err != nil {
		return nil, errors.Load("guest entry document", err)
	}

	o.logger.Info("guest entries loaded",
		zap.Int("document_bytes", len(doc)),
		zap.Int("services", len(data.Services)),
		zap.Int("passwd", len(data.Passwd)),
		zap.Int("hosts", len(data.Hosts)),
	)
	return static.New(data, static.WithLogger(o.logger)), nil
}

// Entries instantiates the guest and returns a copy of the document it
// exports.
func Entries(ctx context.Context, wasmBytes []byte, limitPages uint32) ([]byte, error) {
	if len(wasmBytes) == 0 {
		return nil, errors.Load("empty guest module", nil)
	}

	cfg := wazero.NewRuntimeConfig()
	if limitPages > 0 {
		cfg = cfg.WithMemoryLimitPages(limitPages)
	}
	rt := wazero.NewRuntimeWithConfig(ctx, cfg)
	defer rt.Close(ctx)

	if _, err := wasi_snapshot_preview1.Instantiate(ctx, rt); err != nil {
		return nil, errors.Unavailable(errors.PhaseLoad, "instantiate WASI", err)
	}

	compiled, err := rt.CompileModule(ctx, wasmBytes)
	if err != nil {
		return nil, errors.Load("compile guest", err)
	}

	// Reactor modules: no _start, optional _initialize.
	modCfg := wazero.NewModuleConfig().
		WithName("").
		WithStartFunctions()
	mod, err := rt.InstantiateModule(ctx, compiled, modCfg)
	if err != nil {
		return nil, errors.Load("instantiate guest", err)
	}
	defer mod.Close(ctx)

	if initialize := mod.ExportedFunction("_initialize"); initialize != nil {
		if _, err := initialize.Call(ctx); err != nil {
			return nil, errors.Load("guest _initialize", err)
		}
	}

	fn := mod.ExportedFunction(EntriesExport)
	if fn == nil {
		return nil, errors.Load("guest does not export "+EntriesExport, nil)
	}
	mem := mod.Memory()
	if mem == nil {
		return nil, errors.Load("guest does not export memory", nil)
	}

	results, err := fn.Call(ctx)
	if err != nil {
		return nil, errors.Load("call "+EntriesExport, err)
	}
	if len(results) != 1 {
		return nil, errors.Load(EntriesExport+" must return one i64", nil)
	}

	ptr, size := uint32(results[0]>>32), uint32(results[0])
	view, ok := mem.Read(ptr, size)
	if !ok {
		return nil, errors.New(errors.PhaseLoad, errors.KindInvalidData).
			Detail("document [%d, %d) outside guest memory of %d bytes", ptr, uint64(ptr)+uint64(size), mem.Size()).
			Build()
	}

	doc := make([]byte, len(view))
	copy(doc, view)
	return doc, nil
}
