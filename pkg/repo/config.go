package repo

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/google/renameio"
	"gopkg.in/ini.v1"
)

// Config holds the [core] settings of the metadata config file. The file
// is Git's INI dialect; sections other than [core] (user, remote "origin",
// ...) are kept as read and written back untouched.
type Config struct {
	Core CoreConfig

	file *ini.File
}

// CoreConfig holds the repository format settings.
type CoreConfig struct {
	RepositoryFormatVersion int
	FileMode                bool
	Bare                    bool
}

// DefaultConfig returns the config written by Init.
func DefaultConfig() *Config {
	return &Config{Core: CoreConfig{
		RepositoryFormatVersion: 0,
		FileMode:                false,
		Bare:                    false,
	}}
}

// Value returns the raw value of key in section, e.g. ("user", "name") or
// (`remote "origin"`, "url").
func (c *Config) Value(section, key string) (string, bool) {
	if c == nil || c.file == nil {
		return "", false
	}
	sec, err := c.file.GetSection(section)
	if err != nil || !sec.HasKey(key) {
		return "", false
	}
	return sec.Key(key).String(), true
}

// Git keys are case-insensitive and a bare key means true.
var iniOptions = ini.LoadOptions{
	InsensitiveKeys:  true,
	AllowBooleanKeys: true,
}

func configPath(gitDir string) string {
	return filepath.Join(gitDir, "config")
}

func readConfigFile(path string) (*Config, error) {
	f, err := ini.LoadSources(iniOptions, path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	cfg.file = f
	core := f.Section("core")
	if core.HasKey("repositoryformatversion") {
		if cfg.Core.RepositoryFormatVersion, err = core.Key("repositoryformatversion").Int(); err != nil {
			return nil, fmt.Errorf("read config: core.repositoryformatversion: %w", err)
		}
	}
	if core.HasKey("filemode") {
		if cfg.Core.FileMode, err = core.Key("filemode").Bool(); err != nil {
			return nil, fmt.Errorf("read config: core.filemode: %w", err)
		}
	}
	if core.HasKey("bare") {
		if cfg.Core.Bare, err = core.Key("bare").Bool(); err != nil {
			return nil, fmt.Errorf("read config: core.bare: %w", err)
		}
	}
	return cfg, nil
}

// ReadConfig re-reads the metadata config file.
func (r *Repo) ReadConfig() (*Config, error) {
	return readConfigFile(configPath(r.GitDir))
}

// WriteConfig atomically writes the metadata config file and makes it the
// repository's current config. Sections outside [core] that were loaded
// with the current config are preserved.
func (r *Repo) WriteConfig(cfg *Config) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.file == nil && r.Config != nil {
		cfg.file = r.Config.file
	}
	if err := writeConfigFile(configPath(r.GitDir), cfg); err != nil {
		return err
	}
	r.Config = cfg
	return nil
}

func writeConfigFile(path string, cfg *Config) error {
	if cfg.file == nil {
		cfg.file = ini.Empty(iniOptions)
	}
	core := cfg.file.Section("core")
	core.Key("repositoryformatversion").SetValue(strconv.Itoa(cfg.Core.RepositoryFormatVersion))
	core.Key("filemode").SetValue(strconv.FormatBool(cfg.Core.FileMode))
	core.Key("bare").SetValue(strconv.FormatBool(cfg.Core.Bare))

	var buf bytes.Buffer
	if _, err := cfg.file.WriteTo(&buf); err != nil {
		return fmt.Errorf("write config: encode: %w", err)
	}
	if err := renameio.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
