package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wippyai/libnss/config"
	"github.com/wippyai/libnss/errors"
)

func TestNew_WritesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "static.log")
	l, err := New("static", config.Log{Path: path, Level: "info", MaxSize: 1})
	if err != nil {
		t.Fatal(err)
	}
	l.Debug("dropped")
	l.Info("enumeration opened")
	_ = l.Sync()

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1:\n%s", len(lines), b)
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatal(err)
	}
	if entry["msg"] != "enumeration opened" || entry["module"] != "static" {
		t.Errorf("entry = %v", entry)
	}
	if entry["level"] != "info" {
		t.Errorf("level = %v", entry["level"])
	}
}

func TestNew_EmptyPath(t *testing.T) {
	l, err := New("static", config.Log{})
	if err != nil {
		t.Fatal(err)
	}
	if l.Core().Enabled(-1) {
		t.Error("logger without a path should be disabled")
	}
}

func TestNew_BadLevel(t *testing.T) {
	_, err := New("static", config.Log{Path: filepath.Join(t.TempDir(), "x.log"), Level: "loud"})
	if kind, _ := errors.KindOf(err); kind != errors.KindInvalidData {
		t.Errorf("err = %v, want invalid_data", err)
	}
}
