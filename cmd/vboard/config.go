package main

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/tinytelemetry/vboard/internal/bridge"
	"github.com/tinytelemetry/vboard/internal/httpserver"
	"github.com/tinytelemetry/vboard/internal/protocol"
	"github.com/tinytelemetry/vboard/internal/simconn"
	"github.com/tinytelemetry/vboard/internal/tui"
)

const (
	defaultSimURL       = protocol.DefaultURL
	defaultAPIAddr      = httpserver.DefaultAddr
	defaultButtonHold   = tui.DefaultButtonHold
	defaultWriteTimeout = simconn.DefaultWriteTimeout
	defaultHandshake    = simconn.DefaultHandshakeTimeout
	defaultEventBuffer  = bridge.DefaultEventBuffer
)

// appConfig is internal runtime configuration.
type appConfig struct {
	SimURL           string        `mapstructure:"sim-url"`
	Board            string        `mapstructure:"board"`
	APIEnabled       bool          `mapstructure:"api-enabled"`
	APIAddr          string        `mapstructure:"api-addr"`
	TraceEnabled     bool          `mapstructure:"trace-enabled"`
	TracePath        string        `mapstructure:"trace-path"`
	TraceSync        bool          `mapstructure:"trace-sync"`
	ButtonHold       time.Duration `mapstructure:"button-hold"`
	WriteTimeout     time.Duration `mapstructure:"write-timeout"`
	HandshakeTimeout time.Duration `mapstructure:"handshake-timeout"`
	EventBuffer      int           `mapstructure:"event-buffer"`
	Headless         bool          `mapstructure:"headless"`
	ConfigPath       string        `mapstructure:"-"` // not from config file
}

func loadConfig(configPath string) (appConfig, error) {
	var cfg appConfig

	home, err := os.UserHomeDir()
	if err != nil {
		return cfg, fmt.Errorf("finding home directory: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("VBOARD")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	v.SetDefault("sim-url", defaultSimURL)
	v.SetDefault("board", "")
	v.SetDefault("api-enabled", false)
	v.SetDefault("api-addr", defaultAPIAddr)
	v.SetDefault("trace-enabled", false)
	v.SetDefault("trace-path", filepath.Join(home, ".local", "state", "vboard", "trace.jsonl"))
	v.SetDefault("trace-sync", false)
	v.SetDefault("button-hold", defaultButtonHold)
	v.SetDefault("write-timeout", defaultWriteTimeout)
	v.SetDefault("handshake-timeout", defaultHandshake)
	v.SetDefault("event-buffer", defaultEventBuffer)
	v.SetDefault("headless", false)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigFile(filepath.Join(home, ".config", "vboard", "config.yml"))
	}

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFound) && !os.IsNotExist(err) {
			return cfg, err
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	if _, statErr := os.Stat(v.ConfigFileUsed()); statErr == nil {
		cfg.ConfigPath = v.ConfigFileUsed()
	}

	cfg.Board = expandHome(home, cfg.Board)
	cfg.TracePath = expandHome(home, cfg.TracePath)

	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c appConfig) validate() error {
	u, err := url.Parse(c.SimURL)
	if err != nil {
		return fmt.Errorf("invalid sim-url %q: %w", c.SimURL, err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("invalid sim-url %q: scheme must be ws or wss", c.SimURL)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid sim-url %q: missing host", c.SimURL)
	}
	if c.EventBuffer <= 0 {
		return fmt.Errorf("invalid event-buffer: %d", c.EventBuffer)
	}
	if c.ButtonHold <= 0 {
		return fmt.Errorf("invalid button-hold: %s", c.ButtonHold)
	}
	if c.TraceEnabled && strings.TrimSpace(c.TracePath) == "" {
		return errors.New("trace-enabled requires trace-path")
	}
	return nil
}

func expandHome(home, path string) string {
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}
