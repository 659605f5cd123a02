// Package config handles YAML settings for hostctl.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	atomicfile "github.com/natefinch/atomic"
	"gopkg.in/yaml.v3"
)

// DefaultHostsPath is the system hosts file.
const DefaultHostsPath = "/etc/hosts"

// DefaultConfigDir returns the default config directory path for users.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "hostctl")
}

// DefaultConfigPath returns the default settings file path.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// FlushMethod defines DNS cache flush methods.
type FlushMethod string

const (
	FlushMethodNone        FlushMethod = "none"
	FlushMethodAuto        FlushMethod = "auto"
	FlushMethodSystemd     FlushMethod = "systemd"
	FlushMethodNscd        FlushMethod = "nscd"
	FlushMethodDscacheutil FlushMethod = "dscacheutil"
	FlushMethodKillall     FlushMethod = "killall"
	FlushMethodBoth        FlushMethod = "both"
)

// Backup controls the copies taken before the hosts file is overwritten.
type Backup struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
	Keep    int    `yaml:"keep"`
}

// Log holds logging settings.
type Log struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file,omitempty"`
	MaxSizeMB  int    `yaml:"maxSizeMB,omitempty"`
	MaxBackups int    `yaml:"maxBackups,omitempty"`
}

// Config represents the complete settings file.
type Config struct {
	HostsPath string   `yaml:"hostsPath"`
	Database  string   `yaml:"database"`
	Header    bool     `yaml:"header"`
	Preamble  []string `yaml:"preamble"`
	// Template is an optional path to a text/template file for the output.
	Template    string      `yaml:"template,omitempty"`
	AtomicWrite bool        `yaml:"atomicWrite"`
	FlushMethod FlushMethod `yaml:"flushMethod"`
	Backup      Backup      `yaml:"backup"`
	Log         Log         `yaml:"log"`
}

// Default returns the built-in settings.
func Default() *Config {
	dir := DefaultConfigDir()
	return &Config{
		HostsPath: DefaultHostsPath,
		Database:  filepath.Join(dir, "hostctl.db"),
		Header:    true,
		Preamble: []string{
			"127.0.0.1 localhost",
			"::1 localhost",
		},
		FlushMethod: FlushMethodNone,
		Backup: Backup{
			Enabled: true,
			Dir:     filepath.Join(dir, "backups"),
			Keep:    10,
		},
		Log: Log{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// Manager handles loading and saving the settings file.
type Manager struct {
	path   string
	config *Config
	loaded bool
}

// NewManager creates a new config manager.
func NewManager(path string) *Manager {
	return &Manager{path: path}
}

// Path returns the settings file path.
func (m *Manager) Path() string {
	return m.path
}

// Loaded reports whether the last Load read an existing file.
func (m *Manager) Loaded() bool {
	return m.loaded
}

// Load reads and parses the settings file. A missing file yields defaults.
func (m *Manager) Load() error {
	cfg := Default()
	m.loaded = false

	data, err := os.ReadFile(m.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse config file: %w", err)
		}
		m.loaded = true
	}

	cfg.expandPaths()

	if err := ValidateConfig(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	m.config = cfg
	return nil
}

// Get returns the current configuration.
func (m *Manager) Get() *Config {
	return m.config
}

// Save writes the configuration to the file.
func (m *Manager) Save() error {
	if m.config == nil {
		return fmt.Errorf("no config loaded")
	}
	return Write(m.path, m.config)
}

// Write marshals cfg to path, creating the parent directory.
func Write(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := atomicfile.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// CreateDefault writes the default settings to path.
// An existing file is only replaced when force is set.
func CreateDefault(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("config file already exists: %s", path)
	}
	return Write(path, Default())
}

// Marshal renders the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

func (c *Config) expandPaths() {
	c.HostsPath = ExpandHome(c.HostsPath)
	c.Database = ExpandHome(c.Database)
	c.Backup.Dir = ExpandHome(c.Backup.Dir)
	c.Log.File = ExpandHome(c.Log.File)
	c.Template = ExpandHome(c.Template)
}

// TemplateText returns the contents of the configured template file, or an
// empty string when none is set.
func (c *Config) TemplateText() (string, error) {
	if c.Template == "" {
		return "", nil
	}
	data, err := os.ReadFile(c.Template)
	if err != nil {
		return "", fmt.Errorf("failed to read template: %w", err)
	}
	return string(data), nil
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
