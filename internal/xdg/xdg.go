// Package xdg provides helpers to resolve XDG Base Directory paths for quark.
// Configuration (config.yaml, servers.json) goes under the config directory;
// console history goes under the state directory.
//
// QUARK_CONFIG_DIR and QUARK_STATE_DIR override the resolved directories
// verbatim, which is mostly useful for scripted setups and tests.
package xdg

import (
	"os"
	"path/filepath"
)

// AppName is the directory name used below the XDG base directories.
const AppName = "quark"

// ConfigDir returns the XDG config directory for quark.
// The directory is created with private permissions (0700) if missing.
// It falls back to ~/.config/quark when XDG_CONFIG_HOME is unset.
func ConfigDir() (string, error) {
	return resolve("QUARK_CONFIG_DIR", "XDG_CONFIG_HOME", ".config")
}

// StateDir returns the XDG state directory for quark.
// The directory is created with private permissions (0700) if missing.
// It falls back to ~/.local/state/quark when XDG_STATE_HOME is unset.
func StateDir() (string, error) {
	return resolve("QUARK_STATE_DIR", "XDG_STATE_HOME", ".local", "state")
}

func resolve(overrideEnv, baseEnv string, fallback ...string) (string, error) {
	dir := os.Getenv(overrideEnv)
	if dir == "" {
		base := os.Getenv(baseEnv)
		if base == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			base = filepath.Join(append([]string{home}, fallback...)...)
		}
		dir = filepath.Join(base, AppName)
	}
	if err := os.MkdirAll(dir, 0o700); err != nil { // private dir
		return "", err
	}
	return dir, nil
}
