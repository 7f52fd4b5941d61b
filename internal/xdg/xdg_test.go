package xdg

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfigDir_XDGHome(t *testing.T) {
	base := t.TempDir()
	t.Setenv("QUARK_CONFIG_DIR", "")
	t.Setenv("XDG_CONFIG_HOME", base)

	dir, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir() error = %v", err)
	}
	if want := filepath.Join(base, AppName); dir != want {
		t.Errorf("ConfigDir() = %v, want %v", dir, want)
	}
	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if !info.IsDir() {
		t.Error("ConfigDir() did not create a directory")
	}
}

func TestConfigDir_Override(t *testing.T) {
	want := filepath.Join(t.TempDir(), "custom")
	t.Setenv("QUARK_CONFIG_DIR", want)

	dir, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir() error = %v", err)
	}
	if dir != want {
		t.Errorf("ConfigDir() = %v, want %v", dir, want)
	}
}

func TestStateDir_HomeFallback(t *testing.T) {
	home := t.TempDir()
	t.Setenv("QUARK_STATE_DIR", "")
	t.Setenv("XDG_STATE_HOME", "")
	t.Setenv("HOME", home)

	dir, err := StateDir()
	if err != nil {
		t.Fatalf("StateDir() error = %v", err)
	}
	if want := filepath.Join(home, ".local", "state", AppName); dir != want {
		t.Errorf("StateDir() = %v, want %v", dir, want)
	}
}
