package config

import (
	"os"
	"path/filepath"
)

const appDir = "micros-shell"

// DefaultDir returns ~/.config/micros-shell (or CWD fallback).
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err == nil && home != "" {
		return filepath.Join(home, ".config", appDir)
	}
	cwd, _ := os.Getwd()
	return filepath.Join(cwd, appDir)
}

// DefaultNodePath returns the node configuration file location.
func DefaultNodePath() string {
	return filepath.Join(DefaultDir(), "node_config.json")
}

// DefaultDaemonPath returns the daemon settings file location.
func DefaultDaemonPath() string {
	return filepath.Join(DefaultDir(), "daemon.toml")
}

// DefaultCachePath returns the device cache file location.
func DefaultCachePath() string {
	return filepath.Join(DefaultDir(), "device_conn_cache.yaml")
}
