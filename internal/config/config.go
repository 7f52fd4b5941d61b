// Package config loads CLI settings from layered sources.
// Precedence (highest to lowest): flags > QUARK_* env vars > config.yaml > defaults.
// Tokens may be set here for scripting, but interactive logins keep them in
// the OS keychain.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"quark/cli/internal/dsn"
	qerrors "quark/cli/internal/errors"
	"quark/cli/internal/xdg"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "QUARK_"

// FileName is the config file looked up in the XDG config dir.
const FileName = "config.yaml"

// DefaultTimeout bounds one query round trip.
const DefaultTimeout = 30 * time.Second

// Output formats accepted by the format setting.
const (
	FormatTable    = "table"
	FormatMarkdown = "markdown"
	FormatCSV      = "csv"
	FormatJSON     = "json"
)

// Formats lists the accepted output formats.
var Formats = []string{FormatTable, FormatMarkdown, FormatCSV, FormatJSON}

// Config holds CLI settings.
type Config struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Token   string        `koanf:"token"`
	Timeout time.Duration `koanf:"timeout"`
	Format  string        `koanf:"format"`
	Verbose bool          `koanf:"verbose"`

	// File is the config file that was read, empty when none was.
	File string `koanf:"-"`
}

// keys are the settings a flag may override.
var keys = map[string]bool{
	"host": true, "port": true, "token": true,
	"timeout": true, "format": true, "verbose": true,
}

func defaults() map[string]any {
	return map[string]any{
		"host":    dsn.DefaultHost,
		"port":    dsn.DefaultPort,
		"token":   "",
		"timeout": DefaultTimeout.String(),
		"format":  FormatTable,
		"verbose": false,
	}
}

// DefaultPath returns the config file location in the XDG config dir.
func DefaultPath() (string, error) {
	dir, err := xdg.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, FileName), nil
}

// Load reads configuration. cfgFile names an explicit config file which must
// exist; when empty, config.yaml in the XDG config dir is used if present.
// Only flags that were explicitly set override the other sources.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, qerrors.Wrap(qerrors.ConfigFailed, "load defaults", err)
	}

	// 2. Config file
	used, err := findConfigFile(cfgFile)
	if err != nil {
		return nil, err
	}
	if used != "" {
		if err := k.Load(file.Provider(used), yaml.Parser()); err != nil {
			return nil, qerrors.Wrap(qerrors.ConfigFailed, "read config file "+used, err)
		}
	}

	// 3. Environment: QUARK_PORT -> port
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		if !keys[key] {
			return ""
		}
		return key
	}), nil); err != nil {
		return nil, qerrors.Wrap(qerrors.ConfigFailed, "load env vars", err)
	}

	// 4. Explicitly set flags
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed || !keys[f.Name] {
				return "", nil
			}
			return f.Name, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, qerrors.Wrap(qerrors.ConfigFailed, "load flags", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, qerrors.Wrap(qerrors.ConfigFailed, "decode config", err)
	}
	cfg.File = used

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func findConfigFile(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", qerrors.Wrap(qerrors.ConfigFailed, "config file "+explicit, err)
		}
		return explicit, nil
	}
	p, err := DefaultPath()
	if err != nil {
		// No usable config dir means no config file, not a failure.
		return "", nil
	}
	if _, err := os.Stat(p); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", qerrors.Wrap(qerrors.ConfigFailed, "config file "+p, err)
	}
	return p, nil
}

// Validate checks setting ranges.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Host) == "" {
		return qerrors.New(qerrors.ConfigFailed, "host must not be empty")
	}
	if c.Port < 1 || c.Port > 65535 {
		return qerrors.Newf(qerrors.ConfigFailed, "port %d out of range 1-65535", c.Port)
	}
	if c.Timeout < 0 {
		return qerrors.Newf(qerrors.ConfigFailed, "timeout %s must not be negative", c.Timeout)
	}
	if !validFormat(c.Format) {
		return qerrors.Newf(qerrors.ConfigFailed, "unknown format %q (want one of %s)", c.Format, strings.Join(Formats, ", "))
	}
	return nil
}

func validFormat(f string) bool {
	for _, known := range Formats {
		if f == known {
			return true
		}
	}
	return false
}

// SaveServer records host and port as the default server in the config file,
// keeping any other settings already there. The file is written with 0600
// permissions.
func SaveServer(path, host string, port int) error {
	k := koanf.New(".")
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return qerrors.Wrap(qerrors.ConfigFailed, "read config file "+path, err)
		}
	}
	if err := k.Load(confmap.Provider(map[string]any{"host": host, "port": port}, "."), nil); err != nil {
		return qerrors.Wrap(qerrors.ConfigFailed, "update config", err)
	}
	b, err := k.Marshal(yaml.Parser())
	if err != nil {
		return qerrors.Wrap(qerrors.ConfigFailed, "encode config", err)
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return qerrors.Wrap(qerrors.ConfigFailed, fmt.Sprintf("write %s", path), err)
	}
	return nil
}
