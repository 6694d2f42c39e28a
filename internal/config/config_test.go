// SPDX-FileCopyrightText: 2026 Bonial International GmbH
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bonial-oss/cve-pulse/internal/backend"
	"github.com/bonial-oss/cve-pulse/internal/store"
)

func setDataHome(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dir)
	return filepath.Join(dir, "cve-pulse")
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoad_Defaults(t *testing.T) {
	dataDir := setDataHome(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, backend.DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, 60*time.Second, cfg.Timeout)
	assert.Equal(t, uint64(2), cfg.Retries)
	assert.Equal(t, 2015, cfg.StartYear)
	assert.Equal(t, CacheFile, cfg.Cache.Type)
	assert.Equal(t, 24*time.Hour, cfg.Cache.TTL)
	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Addr)
	assert.Equal(t, dataDir, cfg.DataDir)
}

func TestLoad_ImplicitFile(t *testing.T) {
	dataDir := setDataHome(t)
	writeFile(t, filepath.Join(dataDir, "config.yaml"), "retries: 5\ncache:\n  type: boltdb\n  compress: true\n")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, uint64(5), cfg.Retries)
	assert.Equal(t, CacheBoltDB, cfg.Cache.Type)
	assert.True(t, cfg.Cache.Compress)
	assert.Equal(t, 24*time.Hour, cfg.Cache.TTL, "unset keys keep their default")
}

func TestLoad_ExplicitFile(t *testing.T) {
	setDataHome(t)
	path := filepath.Join(t.TempDir(), "custom.yaml")
	writeFile(t, path, `
base_url: http://localhost:9000
timeout: 5s
start_year: 2020
cache:
  type: sqlite3
  path: /tmp/x.sqlite3
  ttl: 1h
server:
  addr: ":9999"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000", cfg.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, 2020, cfg.StartYear)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
	assert.Equal(t, ":9999", cfg.Server.Addr)
	assert.Equal(t, store.Config{Type: "sqlite3", Path: "/tmp/x.sqlite3"}, cfg.Store())
}

func TestLoad_ExplicitFileMissing(t *testing.T) {
	setDataHome(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "reading config file")
}

func TestLoad_UnknownKey(t *testing.T) {
	setDataHome(t)
	path := filepath.Join(t.TempDir(), "bad.yaml")
	writeFile(t, path, "base_urll: http://typo\n")

	_, err := Load(path)
	assert.ErrorContains(t, err, "parsing config file")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	setDataHome(t)
	path := filepath.Join(t.TempDir(), "c.yaml")
	writeFile(t, path, "base_url: http://from-file\nretries: 1\n")

	t.Setenv("CVE_PULSE_BASE_URL", "http://from-env")
	t.Setenv("CVE_PULSE_RETRIES", "7")
	t.Setenv("CVE_PULSE_CACHE_TTL", "30m")
	t.Setenv("CVE_PULSE_CACHE_COMPRESS", "true")
	t.Setenv("CVE_PULSE_DEBUG", "1")
	t.Setenv("CVE_PULSE_START_YEAR", "2018")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://from-env", cfg.BaseURL)
	assert.Equal(t, uint64(7), cfg.Retries)
	assert.Equal(t, 30*time.Minute, cfg.Cache.TTL)
	assert.True(t, cfg.Cache.Compress)
	assert.True(t, cfg.Debug)
	assert.Equal(t, 2018, cfg.StartYear)
}

func TestLoad_InvalidEnv(t *testing.T) {
	tests := map[string]string{
		"CVE_PULSE_TIMEOUT":        "soon",
		"CVE_PULSE_RETRIES":        "-1",
		"CVE_PULSE_CACHE_COMPRESS": "maybe",
		"CVE_PULSE_START_YEAR":     "twenty",
		"CVE_PULSE_CACHE_TYPE":     "mongodb",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			setDataHome(t)
			t.Setenv(key, value)
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestValidate(t *testing.T) {
	base := Default("/data")
	require.NoError(t, base.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"empty base url", func(c *Config) { c.BaseURL = "" }, "base_url"},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, "timeout"},
		{"zero ttl", func(c *Config) { c.Cache.TTL = 0 }, "cache.ttl"},
		{"ancient start", func(c *Config) { c.StartYear = 1990 }, "start_year"},
		{"bad cache type", func(c *Config) { c.Cache.Type = "memcached" }, "cache.type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}
}

func TestStore_DefaultPaths(t *testing.T) {
	tests := []struct {
		cacheType string
		want      string
	}{
		{CacheFile, filepath.Join("/data", "cache")},
		{CacheBoltDB, filepath.Join("/data", "cve-pulse.db")},
		{CacheSQLite3, filepath.Join("/data", "cve-pulse.sqlite3")},
		{CacheRedis, "localhost:6379"},
	}
	for _, tt := range tests {
		t.Run(tt.cacheType, func(t *testing.T) {
			cfg := Default("/data")
			cfg.Cache.Type = tt.cacheType
			assert.Equal(t, store.Config{Type: tt.cacheType, Path: tt.want}, cfg.Store())
		})
	}
}

func TestDataDir_Home(t *testing.T) {
	home := t.TempDir()
	t.Setenv("XDG_DATA_HOME", "")
	t.Setenv("HOME", home)

	dir, err := DataDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".cve-pulse"), dir)
}
