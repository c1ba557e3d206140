package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/wippyai/libnss/errors"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeFile(t, "static.toml", `
[log]
path = "/var/log/libnss/static.log"
level = "debug"

[source]
path = "entries.toml"
watch = true
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Log.Path != "/var/log/libnss/static.log" || cfg.Log.Level != "debug" {
		t.Errorf("log = %+v", cfg.Log)
	}
	if cfg.Log.MaxBackups != 3 {
		t.Errorf("unset field lost its default: %+v", cfg.Log)
	}
	if want := filepath.Join(filepath.Dir(path), "entries.toml"); cfg.Source.Path != want {
		t.Errorf("source path = %q, want %q", cfg.Source.Path, want)
	}
	if !cfg.Source.Watch {
		t.Error("watch not decoded")
	}
}

func TestLoad_Missing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg != Default() {
		t.Errorf("missing file gave %+v, want defaults", cfg)
	}
}

func TestLoad_WatchDefaultDocument(t *testing.T) {
	cfg, err := Load(writeFile(t, "static.toml", "[source]\nwatch = true"))
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Source.Watch || cfg.Source.Path != "" || cfg.Source.Wasm != "" {
		t.Errorf("source = %+v", cfg.Source)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"malformed", "[log\npath = 1"},
		{"wrong type", "[log]\nmax_size = \"big\""},
		{"both sources", "[source]\npath = \"a.toml\"\nwasm = \"b.wasm\""},
		{"watch with wasm", "[source]\nwasm = \"b.wasm\"\nwatch = true"},
		{"negative rotation", "[log]\nmax_age = -1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, "bad.toml", tt.content))
			if err == nil {
				t.Fatal("expected error")
			}
			if kind, ok := errors.KindOf(err); !ok || kind != errors.KindInvalidData {
				t.Errorf("kind = %v, want invalid_data (%v)", kind, err)
			}
		})
	}
}

func TestPathFor(t *testing.T) {
	t.Setenv(EnvVar("static"), "")
	if got := PathFor("static"); got != "/etc/libnss/static.toml" {
		t.Errorf("default path = %q", got)
	}

	t.Setenv("LIBNSS_STATIC_CONFIG", "/tmp/x.toml")
	if got := PathFor("static"); got != "/tmp/x.toml" {
		t.Errorf("env path = %q", got)
	}
}

func TestFromEnv(t *testing.T) {
	path := writeFile(t, "m.toml", "[source]\nwasm = \"/opt/guest.wasm\"\n")
	t.Setenv(EnvVar("guest"), path)

	cfg, err := FromEnv("guest")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Source.Wasm != "/opt/guest.wasm" {
		t.Errorf("wasm = %q", cfg.Source.Wasm)
	}
}
