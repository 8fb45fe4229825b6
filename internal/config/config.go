// Package config loads the multiplexer configuration: command prefix,
// default shell, scrollback depth, key bindings, border palette and
// the server endpoint. Missing file or missing keys fall back to
// compiled defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v2"
)

// Palette selects the colors used for pane borders and titles.
// Values are 256-color palette indexes.
type Palette struct {
	Border       int `yaml:"border"`
	BorderActive int `yaml:"border_active"`
}

// Config is the user-facing configuration.
type Config struct {
	// Prefix is the command prefix key in C-x notation.
	Prefix string `yaml:"prefix"`
	// Shell is the program launched in new panes.
	Shell string `yaml:"shell"`
	// Scrollback is the per-pane history depth in rows.
	Scrollback int `yaml:"scrollback"`
	// Socket overrides the server endpoint address.
	Socket string `yaml:"socket"`
	// LogFile, when set, receives server and client logs.
	LogFile string `yaml:"log_file"`
	// Bindings maps post-prefix keys to command names, overriding the
	// built-in table. Keys are single characters, values command names
	// understood by the input router.
	Bindings map[string]string `yaml:"bindings"`

	Palette Palette `yaml:"palette"`
}

// Default returns the compiled-in configuration.
func Default() *Config {
	return &Config{
		Prefix:     "C-b",
		Shell:      defaultShell(),
		Scrollback: 1000,
		Palette: Palette{
			Border:       8,
			BorderActive: 12,
		},
	}
}

func defaultShell() string {
	if runtime.GOOS == "windows" {
		return "cmd.exe"
	}
	if sh := os.Getenv("SHELL"); sh != "" {
		return sh
	}
	return "bash"
}

// Dir returns the configuration directory, honoring XDG_CONFIG_HOME.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "citymux")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".citymux"
	}
	return filepath.Join(home, ".config", "citymux")
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// Load reads the file at path, layering it over Default. A missing
// file is not an error; a malformed one is.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.Scrollback < 0 {
		cfg.Scrollback = 0
	}
	if cfg.Shell == "" {
		cfg.Shell = defaultShell()
	}
	return cfg, nil
}

// PrefixByte converts the C-x prefix notation to its control byte.
// Unparseable values fall back to Ctrl-B.
func (c *Config) PrefixByte() byte {
	s := strings.TrimSpace(c.Prefix)
	if len(s) == 3 && (strings.HasPrefix(s, "C-") || strings.HasPrefix(s, "c-")) {
		ch := s[2]
		if ch >= 'a' && ch <= 'z' {
			return ch - 'a' + 1
		}
		if ch >= 'A' && ch <= 'Z' {
			return ch - 'A' + 1
		}
	}
	if len(s) == 1 {
		return s[0]
	}
	return 0x02
}

// Endpoint returns the network and address the server listens on and
// clients dial. Unix domain socket where available, loopback TCP on
// Windows where fiber cannot listen on a named pipe.
func (c *Config) Endpoint() (network, addr string) {
	if c.Socket != "" {
		if strings.Contains(c.Socket, ":") && !strings.Contains(c.Socket, string(os.PathSeparator)) {
			return "tcp", c.Socket
		}
		return "unix", c.Socket
	}
	if runtime.GOOS == "windows" {
		return "tcp", "127.0.0.1:48217"
	}
	dir := os.Getenv("XDG_RUNTIME_DIR")
	if dir == "" {
		dir = os.TempDir()
	}
	return "unix", filepath.Join(dir, fmt.Sprintf("citymux-%d.sock", os.Getuid()))
}
