// Package config loads the TOML configuration of an NSS module.
//
// A module named "static" reads the file named by LIBNSS_STATIC_CONFIG,
// or /etc/libnss/static.toml when the variable is unset:
//
//	[log]
//	path  = "/var/log/libnss/static.log"
//	level = "info"
//
//	[source]
//	path  = "/etc/libnss/static.d/entries.toml"
//	watch = true
//
// A missing file is not an error: the module runs with Default().
package config

import (
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/wippyai/libnss/errors"
)

// Dir is the directory searched when no environment override is set.
const Dir = "/etc/libnss"

// Config is the whole module configuration.
type Config struct {
	Log    Log    `toml:"log"`
	Source Source `toml:"source"`
}

// Log configures the file logger. An empty Path disables logging.
type Log struct {
	Path       string `toml:"path"`
	Level      string `toml:"level"`
	MaxSize    int    `toml:"max_size"` // megabytes
	MaxBackups int    `toml:"max_backups"`
	MaxAge     int    `toml:"max_age"` // days
}

// Source selects where records come from. At most one of Path (a TOML
// entry file) and Wasm (a guest module) is set; with neither, the module
// reads its default entry document.
type Source struct {
	Path  string `toml:"path"`
	Wasm  string `toml:"wasm"`
	Watch bool   `toml:"watch"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Log: Log{
			Level:      "info",
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     7,
		},
	}
}

// Validate checks field combinations the TOML decoder cannot.
func (c Config) Validate() error {
	if c.Source.Path != "" && c.Source.Wasm != "" {
		return errors.New(errors.PhaseConfig, errors.KindInvalidData).
			Path("source").
			Detail("path and wasm are mutually exclusive").
			Build()
	}
	if c.Source.Watch && c.Source.Wasm != "" {
		return errors.New(errors.PhaseConfig, errors.KindInvalidData).
			Path("source", "watch").
			Detail("watch requires an entry document").
			Build()
	}
	if c.Log.MaxSize < 0 || c.Log.MaxBackups < 0 || c.Log.MaxAge < 0 {
		return errors.New(errors.PhaseConfig, errors.KindInvalidData).
			Path("log").
			Detail("rotation limits must not be negative").
			Build()
	}
	return nil
}

// Load reads the file at path over Default(). Relative source paths are
// resolved against the directory of the file.
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, errors.Unavailable(errors.PhaseConfig, "read "+path, err)
	}
	if err := toml.Unmarshal(b, &cfg); err != nil {
		return Config{}, errors.ParseFailed(path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	dir := filepath.Dir(path)
	cfg.Source.Path = resolve(dir, cfg.Source.Path)
	cfg.Source.Wasm = resolve(dir, cfg.Source.Wasm)
	return cfg, nil
}

// EnvVar returns the environment variable naming module's config file.
func EnvVar(module string) string {
	return "LIBNSS_" + strings.ToUpper(module) + "_CONFIG"
}

// PathFor returns the config file module would load.
func PathFor(module string) string {
	if p := os.Getenv(EnvVar(module)); p != "" {
		return p
	}
	return filepath.Join(Dir, module+".toml")
}

// FromEnv loads the configuration of module from PathFor(module).
func FromEnv(module string) (Config, error) {
	return Load(PathFor(module))
}

func resolve(dir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}
