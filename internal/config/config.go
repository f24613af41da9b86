//
// Tencent is pleased to support the open source community by making storyscript available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// storyscript is licensed under the Apache License Version 2.0.
//
//

// Package config loads the storyscript server configuration from YAML.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the storyscript.yaml shape.
type Config struct {
	Version int `yaml:"version"`

	Server struct {
		// Addr is the listen address, e.g. ":8466".
		Addr string `yaml:"addr"`

		// AllowedOrigins configures CORS for the editor UI.
		AllowedOrigins []string `yaml:"allowed_origins"`

		// MaxExecutions caps concurrently running script executions.
		MaxExecutions int `yaml:"max_executions"`
	} `yaml:"server"`

	Sandbox struct {
		// TimeoutMS bounds one script execution.
		TimeoutMS int `yaml:"timeout_ms"`

		// WaitCeilingMS caps a single wait() call.
		WaitCeilingMS int `yaml:"wait_ceiling_ms"`
	} `yaml:"sandbox"`

	// LogLevel is one of debug, info, warn, error, fatal.
	LogLevel string `yaml:"log_level"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{Version: 1}
	cfg.Server.Addr = ":8466"
	cfg.Server.AllowedOrigins = []string{"*"}
	cfg.Server.MaxExecutions = 16
	cfg.Sandbox.TimeoutMS = 5000
	cfg.Sandbox.WaitCeilingMS = 10000
	cfg.LogLevel = "info"
	return cfg
}

// Load reads a YAML config file and fills unset fields with defaults.
// The STORYSCRIPT_ADDR environment variable overrides the listen address.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, err
		}
		if cfg.Version != 1 {
			return nil, fmt.Errorf("unsupported config version: %d", cfg.Version)
		}
	}
	if addr := os.Getenv("STORYSCRIPT_ADDR"); addr != "" {
		cfg.Server.Addr = addr
	}
	if cfg.Server.MaxExecutions <= 0 {
		cfg.Server.MaxExecutions = 16
	}
	if cfg.Sandbox.TimeoutMS <= 0 {
		cfg.Sandbox.TimeoutMS = 5000
	}
	if cfg.Sandbox.WaitCeilingMS <= 0 {
		cfg.Sandbox.WaitCeilingMS = 10000
	}
	return cfg, nil
}

// Timeout returns the sandbox execution deadline.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Sandbox.TimeoutMS) * time.Millisecond
}

// WaitCeiling returns the wait() clamp.
func (c *Config) WaitCeiling() time.Duration {
	return time.Duration(c.Sandbox.WaitCeilingMS) * time.Millisecond
}
