// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config loads the hostaddr server configuration from a TOML or YAML
// file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/yeetrun/hostaddr/pkg/server"
	"gopkg.in/yaml.v3"
)

const (
	DefaultListen            = ":8080"
	DefaultShutdownTimeout   = 5 * time.Second
	DefaultReadHeaderTimeout = 10 * time.Second
	DefaultTSNetPort         = 41549
)

// Environment variables that override file values.
const (
	EnvListen        = "HOSTADDR_LISTEN"
	EnvFailurePolicy = "HOSTADDR_FAILURE_POLICY"
	EnvTSNetHost     = "HOSTADDR_TSNET_HOST"
)

type Config struct {
	Listen            string               `toml:"listen" yaml:"listen"`
	FailurePolicy     server.FailurePolicy `toml:"failure_policy" yaml:"failure_policy"`
	ShutdownTimeout   Duration             `toml:"shutdown_timeout" yaml:"shutdown_timeout"`
	ReadHeaderTimeout Duration             `toml:"read_header_timeout" yaml:"read_header_timeout"`
	TSNet             TSNet                `toml:"tsnet" yaml:"tsnet"`
}

// TSNet configures the optional tailnet listener. It is disabled when
// Hostname is empty.
type TSNet struct {
	Hostname string `toml:"hostname" yaml:"hostname"`
	Dir      string `toml:"dir" yaml:"dir"`
	Port     int    `toml:"port" yaml:"port"`
}

// Enabled reports whether the tailnet listener should be started.
func (t TSNet) Enabled() bool {
	return t.Hostname != ""
}

// Duration is a time.Duration that decodes from strings like "5s".
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Listen:            DefaultListen,
		FailurePolicy:     server.PolicyUnavailable,
		ShutdownTimeout:   Duration(DefaultShutdownTimeout),
		ReadHeaderTimeout: Duration(DefaultReadHeaderTimeout),
		TSNet: TSNet{
			Dir:  "tsnet",
			Port: DefaultTSNetPort,
		},
	}
}

// Load reads the file at path on top of the defaults. The format is chosen
// by extension. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if _, err := toml.Decode(string(raw), cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q", ext)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from the environment using lookup, which is
// usually os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvListen); ok && v != "" {
		c.Listen = v
	}
	if v, ok := lookup(EnvFailurePolicy); ok && v != "" {
		c.FailurePolicy = server.FailurePolicy(v)
	}
	if v, ok := lookup(EnvTSNetHost); ok && v != "" {
		c.TSNet.Hostname = v
	}
}

func (c *Config) Validate() error {
	var errs []error
	if c.Listen == "" {
		errs = append(errs, errors.New("listen address is required"))
	}
	if !c.FailurePolicy.Valid() {
		errs = append(errs, fmt.Errorf("unknown failure policy %q (want %q or %q)", c.FailurePolicy, server.PolicyUnavailable, server.PolicyLegacy))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("shutdown_timeout must be positive"))
	}
	if c.ReadHeaderTimeout <= 0 {
		errs = append(errs, errors.New("read_header_timeout must be positive"))
	}
	if c.TSNet.Enabled() && (c.TSNet.Port < 0 || c.TSNet.Port > 65535) {
		errs = append(errs, fmt.Errorf("tsnet port %d out of range", c.TSNet.Port))
	}
	return errors.Join(errs...)
}
