// Package module assembles the entry-point adapters of one NSS module from
// its configuration.
package module

import (
	"context"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/wippyai/libnss/config"
	"github.com/wippyai/libnss/database"
	"github.com/wippyai/libnss/group"
	"github.com/wippyai/libnss/host"
	"github.com/wippyai/libnss/logging"
	"github.com/wippyai/libnss/passwd"
	"github.com/wippyai/libnss/provider/static"
	"github.com/wippyai/libnss/provider/wasm"
	"github.com/wippyai/libnss/service"
	"github.com/wippyai/libnss/shadow"
)

// Module is the set of databases served by one loaded module.
type Module struct {
	Name     string
	Logger   *zap.Logger
	Source   *static.Source
	Services *service.Entries
	Passwd   *passwd.Entries
	Groups   *group.Entries
	Shadow   *shadow.Entries
	Hosts    *host.Entries
}

// DefaultEntries returns the entry document read when the configuration
// names no source.
func DefaultEntries(name string) string {
	return filepath.Join(config.Dir, name+".d", "entries.toml")
}

// Open builds a Module from cfg. A source that fails to load does not
// fail Open: the module comes up answering Unavailable and the error is
// returned alongside it. Only a broken logging configuration makes Open
// return a nil Module.
func Open(ctx context.Context, name string, cfg config.Config, opts ...database.Option) (*Module, error) {
	logger, err := logging.New(name, cfg.Log)
	if err != nil {
		return nil, err
	}

	m := &Module{Name: name, Logger: logger}
	src, srcErr := m.openSource(ctx, cfg.Source)
	m.Source = src

	opts = append([]database.Option{database.WithLogger(logger)}, opts...)
	m.Services = service.NewEntries(src.Services(), opts...)
	m.Passwd = passwd.NewEntries(src.Passwd(), opts...)
	m.Groups = group.NewEntries(src.Groups(), opts...)
	m.Shadow = shadow.NewEntries(src.Shadow(), opts...)
	m.Hosts = host.NewEntries(src.Hosts(), opts...)
	return m, srcErr
}

func (m *Module) openSource(ctx context.Context, cfg config.Source) (*static.Source, error) {
	if cfg.Wasm != "" {
		src, err := wasm.LoadFile(ctx, cfg.Wasm, wasm.WithLogger(m.Logger))
		if err != nil {
			m.Logger.Error("guest module not loaded", zap.String("path", cfg.Wasm), zap.Error(err))
			return static.New(nil, static.WithLogger(m.Logger)), err
		}
		return src, nil
	}

	path := cfg.Path
	if path == "" {
		path = DefaultEntries(m.Name)
	}
	src, err := static.Load(path, static.WithLogger(m.Logger))
	if cfg.Watch {
		if werr := src.Watch(ctx); werr != nil {
			m.Logger.Warn("entry document not watched", zap.String("path", path), zap.Error(werr))
		}
	}
	return src, err
}

// Unavailable returns a Module with no source and no logging, for a module
// whose configuration cannot be read.
func Unavailable(name string) *Module {
	logger := zap.NewNop()
	src := static.New(nil)
	return &Module{
		Name:     name,
		Logger:   logger,
		Source:   src,
		Services: service.NewEntries(src.Services()),
		Passwd:   passwd.NewEntries(src.Passwd()),
		Groups:   group.NewEntries(src.Groups()),
		Shadow:   shadow.NewEntries(src.Shadow()),
		Hosts:    host.NewEntries(src.Hosts()),
	}
}
