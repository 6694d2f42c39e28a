// SPDX-FileCopyrightText: 2026 Bonial International GmbH
// SPDX-License-Identifier: Apache-2.0

// Package config resolves settings from defaults, a YAML file and CVE_PULSE_*
// environment variables. Command-line flags are applied on top by the caller.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/bonial-oss/cve-pulse/internal/backend"
	"github.com/bonial-oss/cve-pulse/internal/filter"
	"github.com/bonial-oss/cve-pulse/internal/store"
	"github.com/bonial-oss/cve-pulse/internal/types"
)

const (
	envPrefix      = "CVE_PULSE_"
	configFileName = "config.yaml"
	defaultAddr    = "127.0.0.1:8080"
	defaultRedis   = "localhost:6379"
	defaultRetries = 2
)

// Cache types.
const (
	CacheFile    = "file"
	CacheBoltDB  = "boltdb"
	CacheRedis   = "redis"
	CacheSQLite3 = "sqlite3"
)

type Config struct {
	BaseURL   string        `yaml:"base_url"`
	Timeout   time.Duration `yaml:"timeout"`
	Retries   uint64        `yaml:"retries"`
	StartYear int           `yaml:"start_year"`
	Debug     bool          `yaml:"debug"`
	Cache     CacheConfig   `yaml:"cache"`
	Server    ServerConfig  `yaml:"server"`

	// DataDir holds the file cache and embedded databases.
	DataDir string `yaml:"-"`
}

type CacheConfig struct {
	Type     string        `yaml:"type"`
	Path     string        `yaml:"path"`
	Compress bool          `yaml:"compress"`
	TTL      time.Duration `yaml:"ttl"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the built-in settings rooted at dataDir.
func Default(dataDir string) Config {
	return Config{
		BaseURL:   backend.DefaultBaseURL,
		Timeout:   backend.DefaultTimeout,
		Retries:   defaultRetries,
		StartYear: filter.FirstYear,
		Cache: CacheConfig{
			Type: CacheFile,
			TTL:  types.SnapshotValidity,
		},
		Server:  ServerConfig{Addr: defaultAddr},
		DataDir: dataDir,
	}
}

// DataDir returns $XDG_DATA_HOME/cve-pulse, or ~/.cve-pulse when XDG_DATA_HOME
// is unset.
func DataDir() (string, error) {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "cve-pulse"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("determining home directory: %w", err)
	}
	return filepath.Join(home, ".cve-pulse"), nil
}

// Load resolves the configuration. An explicit path must exist; without one
// <data dir>/config.yaml is read when present.
func Load(path string) (Config, error) {
	dataDir, err := DataDir()
	if err != nil {
		return Config{}, err
	}
	cfg := Default(dataDir)

	explicit := path != ""
	if !explicit {
		path = filepath.Join(dataDir, configFileName)
	}
	if err := cfg.readFile(path, explicit); err != nil {
		return Config{}, err
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) readFile(path string, mustExist bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !mustExist {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.UnmarshalStrict(data, c); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

// applyEnv overlays CVE_PULSE_* variables.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	get := func(name string) (string, bool) {
		v, ok := lookup(envPrefix + name)
		return strings.TrimSpace(v), ok && strings.TrimSpace(v) != ""
	}

	if v, ok := get("BASE_URL"); ok {
		c.BaseURL = v
	}
	if v, ok := get("CACHE_TYPE"); ok {
		c.Cache.Type = v
	}
	if v, ok := get("CACHE_PATH"); ok {
		c.Cache.Path = v
	}
	if v, ok := get("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}

	for name, dst := range map[string]*time.Duration{"TIMEOUT": &c.Timeout, "CACHE_TTL": &c.Cache.TTL} {
		if v, ok := get(name); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid %s%s: %w", envPrefix, name, err)
			}
			*dst = d
		}
	}
	for name, dst := range map[string]*bool{"DEBUG": &c.Debug, "CACHE_COMPRESS": &c.Cache.Compress} {
		if v, ok := get(name); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid %s%s: %w", envPrefix, name, err)
			}
			*dst = b
		}
	}
	if v, ok := get("RETRIES"); ok {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid %sRETRIES: %w", envPrefix, err)
		}
		c.Retries = n
	}
	if v, ok := get("START_YEAR"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %sSTART_YEAR: %w", envPrefix, err)
		}
		c.StartYear = n
	}
	return nil
}

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base_url must not be empty")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive, got %s", c.Cache.TTL)
	}
	if c.StartYear < 1999 {
		return fmt.Errorf("start_year must be 1999 or later, got %d", c.StartYear)
	}
	switch c.Cache.Type {
	case CacheFile, CacheBoltDB, CacheRedis, CacheSQLite3:
	default:
		return fmt.Errorf("cache.type must be one of file, boltdb, redis, sqlite3, got %q", c.Cache.Type)
	}
	return nil
}

// Store returns the store settings, filling in a per-type default location.
func (c *Config) Store() store.Config {
	path := c.Cache.Path
	if path == "" {
		switch c.Cache.Type {
		case CacheBoltDB:
			path = filepath.Join(c.DataDir, "cve-pulse.db")
		case CacheSQLite3:
			path = filepath.Join(c.DataDir, "cve-pulse.sqlite3")
		case CacheRedis:
			path = defaultRedis
		default:
			path = filepath.Join(c.DataDir, "cache")
		}
	}
	return store.Config{Type: c.Cache.Type, Path: path}
}
