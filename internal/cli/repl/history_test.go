package repl

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestNewHistory_Defaults(t *testing.T) {
	h := NewHistory("", 0)
	if h.maxSize != DefaultHistorySize {
		t.Errorf("maxSize = %d, want %d", h.maxSize, DefaultHistorySize)
	}
	if h.Len() != 0 {
		t.Errorf("Len() = %d", h.Len())
	}
}

func TestHistory_Add(t *testing.T) {
	h := NewHistory("", 3)
	for _, cmd := range []string{"cmd1", "", "  ", "cmd2", "cmd2", "cmd3", "cmd4"} {
		h.Add(cmd)
	}

	if got := h.Entries(); !reflect.DeepEqual(got, []string{"cmd2", "cmd3", "cmd4"}) {
		t.Errorf("entries = %q", got)
	}
}

func TestHistory_At(t *testing.T) {
	h := NewHistory("", 10)
	h.Add("first")
	h.Add("second")
	h.Add("third")

	tests := []struct {
		index int
		want  string
	}{
		{0, "third"},
		{1, "second"},
		{2, "first"},
		{3, ""},
		{-1, ""},
	}
	for _, tt := range tests {
		if got := h.At(tt.index); got != tt.want {
			t.Errorf("At(%d) = %q, want %q", tt.index, got, tt.want)
		}
	}
}

func TestHistory_SaveLoad(t *testing.T) {
	file := filepath.Join(t.TempDir(), "nested", "history")

	h := NewHistory(file, 10)
	h.Add("login")
	h.Add("employee list")
	if err := h.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	info, err := os.Stat(file)
	if err != nil {
		t.Fatalf("history file was not created: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("permissions = %o, want 600", perm)
	}

	loaded := NewHistory(file, 1)
	if err := loaded.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := loaded.Entries(); !reflect.DeepEqual(got, []string{"employee list"}) {
		t.Errorf("loaded = %q, want only the newest entry", got)
	}
}

func TestHistory_Load_NonexistentFile(t *testing.T) {
	h := NewHistory(filepath.Join(t.TempDir(), "missing"), 10)
	if err := h.Load(); err != nil {
		t.Errorf("Load() error = %v", err)
	}
	if h.Len() != 0 {
		t.Error("entries should be empty")
	}
}

func TestHistory_InMemory(t *testing.T) {
	h := NewHistory("", 10)
	h.Add("x")
	if err := h.Save(); err != nil {
		t.Errorf("Save() error = %v", err)
	}
	if err := h.Load(); err != nil {
		t.Errorf("Load() error = %v", err)
	}
}
