// Package config loads the doorlockctl tool configuration.
//
// Configuration lives in a TOML file; values not present in the file keep
// their defaults, and command-line flags override both.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/arloliu/go-doorlock/doorlock"
)

// FileName is the tool configuration file name.
const FileName = "doorlockctl.toml"

// Config holds the resolved doorlockctl settings.
type Config struct {
	// Port is the serial port name (e.g. "/dev/ttyUSB0", "COM3").
	Port string
	// BaudRate is the serial baud rate.
	BaudRate int
	// ReadTimeout bounds each read while waiting for a device answer.
	ReadTimeout time.Duration
	// DBPath is the persisted record list file.
	DBPath string
	// LogLevel is one of "debug", "info", "warn", "error".
	LogLevel string
}

// fileConfig is the doorlockctl.toml key mapping.
type fileConfig struct {
	Port          string `toml:"port"`
	BaudRate      int    `toml:"baud_rate"`
	ReadTimeoutMS int    `toml:"read_timeout_ms"`
	DBPath        string `toml:"db_path"`
	LogLevel      string `toml:"log_level"`
}

// Default returns the built-in defaults: the device's link parameters and a
// data.txt record list in the working directory.
func Default() Config {
	return Config{
		BaudRate:    doorlock.DefaultBaudRate,
		ReadTimeout: doorlock.DefaultReadTimeout,
		DBPath:      "data.txt",
		LogLevel:    "info",
	}
}

// Load reads the TOML file at path and overlays its defined keys onto the
// defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}

	if meta.IsDefined("port") {
		cfg.Port = strings.TrimSpace(raw.Port)
	}
	if meta.IsDefined("baud_rate") {
		cfg.BaudRate = raw.BaudRate
	}
	if meta.IsDefined("read_timeout_ms") {
		cfg.ReadTimeout = time.Duration(raw.ReadTimeoutMS) * time.Millisecond
	}
	if meta.IsDefined("db_path") {
		cfg.DBPath = strings.TrimSpace(raw.DBPath)
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.ToLower(strings.TrimSpace(raw.LogLevel))
	}

	return cfg, nil
}

// Resolve loads the configuration from an explicit path, or from the first
// of ./doorlockctl.toml and $HOME/.config/doorlockctl/doorlockctl.toml that
// exists. With no file present it returns the defaults.
func Resolve(explicitPath string) (Config, error) {
	if explicitPath != "" {
		return Load(explicitPath)
	}

	for _, path := range searchPaths() {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}

	return Default(), nil
}

func searchPaths() []string {
	paths := []string{FileName}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "doorlockctl", FileName))
	}

	return paths
}
