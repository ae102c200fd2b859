// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

// Package cli holds the configuration and logging setup shared by the
// probemeister executables.
package cli

import (
	"fmt"
	"os"

	"github.com/bbnote/probemeister/probe"
	"github.com/bbnote/probemeister/shell"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Config is read from an optional YAML file; flags given on the command
// line take precedence over the file.
type Config struct {
	History           string `yaml:"history"`
	HistoryLimit      int    `yaml:"history_limit"`
	LogLevel          string `yaml:"log_level"`
	Protocol          string `yaml:"protocol"`
	Speed             uint32 `yaml:"speed"`
	ConnectUnderReset bool   `yaml:"connect_under_reset"`
}

func Default() Config {
	return Config{
		History:      "history.txt",
		HistoryLimit: shell.DefaultHistoryLimit,
		LogLevel:     "warning",
		Protocol:     "swd",
		Speed:        1800,
	}
}

// BindFlags registers the probe related flags. The history flags are only
// bound when withHistory is set.
func BindFlags(flags *pflag.FlagSet, cfg *Config, withHistory bool) {
	if withHistory {
		flags.StringVar(&cfg.History, "history", cfg.History, "file the command history is loaded from and saved to")
		flags.IntVar(&cfg.HistoryLimit, "history-limit", cfg.HistoryLimit, "maximum number of history entries kept")
	}

	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "logging verbosity (panic, fatal, error, warning, info, debug, trace)")
	flags.StringVar(&cfg.Protocol, "protocol", cfg.Protocol, "debug protocol used to attach to the target (swd, jtag)")
	flags.Uint32Var(&cfg.Speed, "speed", cfg.Speed, "interface speed in kHz, 0 keeps the probe default")
	flags.BoolVar(&cfg.ConnectUnderReset, "connect-under-reset", cfg.ConnectUnderReset, "hold the target in reset while attaching")
}

// Resolve loads the config file at path, if any, and re-applies the flags
// that were set explicitly so they override the file.
func Resolve(flags *pflag.FlagSet, path string, cfg *Config) error {
	if path == "" {
		return cfg.validate()
	}

	changed := make(map[string]string)

	flags.Visit(func(f *pflag.Flag) {
		changed[f.Name] = f.Value.String()
	})

	if err := cfg.LoadFile(path); err != nil {
		return err
	}

	for name, value := range changed {
		if err := flags.Set(name, value); err != nil {
			return fmt.Errorf("could not re-apply flag --%s: %w", name, err)
		}
	}

	return cfg.validate()
}

// LoadFile overwrites the fields present in the YAML file at path.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("could not read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("could not parse config file %s: %w", path, err)
	}

	return nil
}

// ProbeProtocol returns the configured attach protocol.
func (c Config) ProbeProtocol() (probe.Protocol, error) {
	return probe.ParseProtocol(c.Protocol)
}

func (c Config) validate() error {
	if _, err := c.ProbeProtocol(); err != nil {
		return err
	}

	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}

	if c.HistoryLimit < 0 {
		return fmt.Errorf("history limit must not be negative, got %d", c.HistoryLimit)
	}

	return nil
}
