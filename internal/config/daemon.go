package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"micros-shell/internal/domain"
)

// Memory probe kinds.
const (
	ProbeRuntime = "runtime"
	ProbeHost    = "host"
)

// Daemon holds the device daemon settings.
type Daemon struct {
	// Listen overrides the address derived from socport.
	Listen        string
	NodeConfig    string
	Platform      string
	EventMemRatio float64
	MemoryProbe   string
	LogLevel      string
	IdleTimeout   time.Duration
}

type daemonFile struct {
	Listen        string  `toml:"listen"`
	NodeConfig    string  `toml:"node_config"`
	Platform      string  `toml:"platform"`
	EventMemRatio float64 `toml:"event_mem_ratio"`
	MemoryProbe   string  `toml:"memory_probe"`
	LogLevel      string  `toml:"log_level"`
	IdleTimeout   string  `toml:"idle_timeout"`
}

// DefaultDaemon returns the daemon settings used when no file exists.
func DefaultDaemon() Daemon {
	return Daemon{
		NodeConfig:    DefaultNodePath(),
		Platform:      "sim",
		EventMemRatio: domain.DefaultEventRatio,
		MemoryProbe:   ProbeRuntime,
		IdleTimeout:   10 * time.Minute,
	}
}

// LoadDaemon reads the TOML settings at path. A missing file yields defaults.
func LoadDaemon(path string) (Daemon, error) {
	cfg := DefaultDaemon()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	var raw daemonFile
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return Daemon{}, fmt.Errorf("load daemon config: %w", err)
	}

	if meta.IsDefined("listen") {
		cfg.Listen = strings.TrimSpace(raw.Listen)
	}
	if meta.IsDefined("node_config") {
		if p := strings.TrimSpace(raw.NodeConfig); p != "" {
			cfg.NodeConfig = p
		}
	}
	if meta.IsDefined("platform") {
		if p := strings.TrimSpace(raw.Platform); p != "" {
			cfg.Platform = strings.ToLower(p)
		}
	}
	if meta.IsDefined("event_mem_ratio") {
		if raw.EventMemRatio <= 0 || raw.EventMemRatio > 1 {
			return Daemon{}, fmt.Errorf("event_mem_ratio must be in (0, 1], got %v", raw.EventMemRatio)
		}
		cfg.EventMemRatio = raw.EventMemRatio
	}
	if meta.IsDefined("memory_probe") {
		switch p := strings.ToLower(strings.TrimSpace(raw.MemoryProbe)); p {
		case ProbeRuntime, ProbeHost:
			cfg.MemoryProbe = p
		default:
			return Daemon{}, fmt.Errorf("unknown memory_probe %q", raw.MemoryProbe)
		}
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}
	if meta.IsDefined("idle_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.IdleTimeout))
		if err != nil {
			return Daemon{}, fmt.Errorf("parse idle_timeout: %w", err)
		}
		cfg.IdleTimeout = d
	}
	return cfg, nil
}
