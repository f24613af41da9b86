//
// Tencent is pleased to support the open source community by making storyscript available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// storyscript is licensed under the Apache License Version 2.0.
//
//

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "storyscript.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, ":8466", cfg.Server.Addr)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 16, cfg.Server.MaxExecutions)
	assert.Equal(t, 5*time.Second, cfg.Timeout())
	assert.Equal(t, 10*time.Second, cfg.WaitCeiling())
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_EmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
version: 1
server:
  addr: ":9000"
  max_executions: 4
sandbox:
  timeout_ms: 2000
  wait_ceiling_ms: 3000
log_level: debug
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, 4, cfg.Server.MaxExecutions)
	assert.Equal(t, 2*time.Second, cfg.Timeout())
	assert.Equal(t, 3*time.Second, cfg.WaitCeiling())
	assert.Equal(t, "debug", cfg.LogLevel)
	// Unset fields keep their defaults.
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
}

func TestLoad_UnsupportedVersion(t *testing.T) {
	path := writeConfig(t, "version: 2\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported config version")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	path := writeConfig(t, `
version: 1
server:
  max_executions: -1
sandbox:
  timeout_ms: 0
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 16, cfg.Server.MaxExecutions)
	assert.Equal(t, 5*time.Second, cfg.Timeout())
}

func TestLoad_AddrEnvOverride(t *testing.T) {
	t.Setenv("STORYSCRIPT_ADDR", ":7777")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":7777", cfg.Server.Addr)
}
