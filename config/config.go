// Package config defines the oakboard daemon configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the top-level oakboard configuration.
type Config struct {
	Server     ServerConfig `json:"server" yaml:"server"`
	Auth       AuthConfig   `json:"auth" yaml:"auth"`
	PluginDirs []string     `json:"plugin_dirs" yaml:"plugin_dirs"` // plugin discovery roots, scanned in order
	DataDir    string       `json:"data_dir" yaml:"data_dir"`
	LogLevel   string       `json:"log_level" yaml:"log_level"`
	AdminMenu  []MenuEntry  `json:"admin_menu,omitempty" yaml:"admin_menu"` // host built-in admin menu
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr"` // listen address, e.g., ":8080"
}

// AuthConfig controls admin API authentication.
type AuthConfig struct {
	JWTSecret   string   `json:"jwt_secret" yaml:"jwt_secret"`
	AdminUser   string   `json:"admin_user" yaml:"admin_user"`
	AdminPass   string   `json:"admin_pass" yaml:"admin_pass"`             // bcrypt hash
	Permissions []string `json:"permissions,omitempty" yaml:"permissions"` // granted to the admin user, "*" for all
}

// MenuEntry is one host-defined admin menu entry.
type MenuEntry struct {
	Label      string      `json:"label" yaml:"label"`
	Path       string      `json:"path" yaml:"path"`
	Permission string      `json:"permission,omitempty" yaml:"permission"`
	Children   []MenuEntry `json:"children,omitempty" yaml:"children"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr: ":8080",
		},
		Auth: AuthConfig{
			AdminUser:   "admin",
			Permissions: []string{"*"},
		},
		PluginDirs: []string{"./plugins"},
		DataDir:    "./data",
		LogLevel:   "info",
		AdminMenu: []MenuEntry{
			{Label: "Dashboard", Path: "/admin"},
			{Label: "Plugins", Path: "/admin/plugins", Permission: "admin.plugins.view"},
		},
	}
}

// Load reads a YAML config file and returns the parsed configuration.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
