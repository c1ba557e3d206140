package module

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/wippyai/libnss"
	"github.com/wippyai/libnss/config"
	"github.com/wippyai/libnss/database"
	"github.com/wippyai/libnss/group"
)

func TestOpen_StaticSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "entries.toml")
	doc := "[[group]]\nname = \"wheel\"\ngid = 10\nmembers = [\"root\"]\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	var calls []string
	obs := database.ObserverFunc(func(db, op string, st libnss.Status) {
		calls = append(calls, db+"/"+op+"/"+st.String())
	})

	cfg := config.Default()
	cfg.Source.Path = path
	m, err := Open(context.Background(), "static", cfg, database.WithObserver(obs))
	if err != nil {
		t.Fatal(err)
	}

	var head group.Head
	if st := m.Groups.ByGID(10, &head, make([]byte, 64), nil); st != libnss.StatusSuccess {
		t.Fatalf("getgrgid_r = %v", st)
	}
	if len(calls) != 1 || calls[0] != "group/lookup/NSS_STATUS_SUCCESS" {
		t.Errorf("observer calls = %v", calls)
	}
}

func TestOpen_MissingSource(t *testing.T) {
	cfg := config.Default()
	cfg.Source.Path = filepath.Join(t.TempDir(), "absent.toml")
	m, err := Open(context.Background(), "static", cfg)
	if err == nil {
		t.Fatal("expected source error")
	}
	if m == nil {
		t.Fatal("module should still be returned")
	}
	if st := m.Passwd.Begin(); st != libnss.StatusUnavailable {
		t.Errorf("setpwent = %v, want unavailable", st)
	}
}

func TestOpen_MissingGuest(t *testing.T) {
	cfg := config.Default()
	cfg.Source.Wasm = filepath.Join(t.TempDir(), "absent.wasm")
	m, err := Open(context.Background(), "guest", cfg)
	if err == nil || m == nil {
		t.Fatalf("Open = %v, %v", m, err)
	}
	if m.Source.Loaded() {
		t.Error("source should be empty")
	}
}

func TestOpen_BadLogConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Log.Path = filepath.Join(t.TempDir(), "x.log")
	cfg.Log.Level = "verbose"
	if m, err := Open(context.Background(), "static", cfg); err == nil || m != nil {
		t.Errorf("Open = %v, %v, want error", m, err)
	}
}

func TestDefaultEntries(t *testing.T) {
	if got := DefaultEntries("static"); got != "/etc/libnss/static.d/entries.toml" {
		t.Errorf("DefaultEntries = %q", got)
	}
}

func TestUnavailable(t *testing.T) {
	m := Unavailable("static")
	var head group.Head
	var out *group.Head
	if st := m.Groups.ByName([]byte("wheel"), &head, make([]byte, 64), &out); st != libnss.StatusUnavailable || out != nil {
		t.Errorf("getgrnam_r = %v", st)
	}
	if st := m.Hosts.Begin(); st != libnss.StatusUnavailable {
		t.Errorf("sethostent = %v", st)
	}
}
