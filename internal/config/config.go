package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Environment variables consulted after the config file.
const (
	EnvInstallRoots = "SETTINGS_CONVERTER_ROOTS"
	EnvColor        = "SETTINGS_CONVERTER_COLOR"
)

// DefaultInstallRoots are the standard and public beta install locations.
var DefaultInstallRoots = []string{
	`C:\Riot Games\League of Legends`,
	`C:\Riot Games\League of Legends (PBE)`,
}

// Config is the persisted tool configuration.
type Config struct {
	InstallRoots []string `toml:"install_roots"`
	RulesFile    string   `toml:"rules_file,omitempty"`
	Color        string   `toml:"color,omitempty"`
	LogFile      string   `toml:"log_file,omitempty"`
	LogLevel     string   `toml:"log_level,omitempty"`
	StrictParse  bool     `toml:"strict_parse,omitempty"`
	HistoryFile  string   `toml:"history_file,omitempty"`
	Source       string   `toml:"-"`
}

func Default() Config {
	return Config{
		InstallRoots: append([]string(nil), DefaultInstallRoots...),
		Color:        "auto",
		LogLevel:     "warning",
	}
}

func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".settings-converter", "config.toml")
}

// Load reads the config at path (or DefaultPath). A missing file yields the
// defaults; environment overrides apply either way.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath()
	}
	if path == "" {
		return cfg, errors.New("config path is empty and $HOME is not set")
	}
	cfg.Source = path

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return applyEnv(cfg), nil
		}
		return cfg, err
	}
	if err := toml.Unmarshal(content, &cfg); err != nil {
		return cfg, err
	}
	return applyEnv(cfg), nil
}

func applyEnv(cfg Config) Config {
	if env := strings.TrimSpace(os.Getenv(EnvInstallRoots)); env != "" {
		cfg.InstallRoots = splitRoots(env)
	}
	if env := strings.TrimSpace(os.Getenv(EnvColor)); env != "" {
		cfg.Color = env
	}
	return cfg
}

func splitRoots(s string) []string {
	var roots []string
	for _, r := range filepath.SplitList(s) {
		if r = strings.TrimSpace(r); r != "" {
			roots = append(roots, r)
		}
	}
	return roots
}
