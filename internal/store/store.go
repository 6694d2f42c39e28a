// SPDX-FileCopyrightText: 2026 Bonial International GmbH
// SPDX-License-Identifier: Apache-2.0

// Package store provides the key-value slots the client persists its
// snapshot and session in.
package store

import (
	"context"

	"github.com/pkg/errors"
	"github.com/redis/rueidis"

	"github.com/bonial-oss/cve-pulse/internal/store/boltdb"
	"github.com/bonial-oss/cve-pulse/internal/store/file"
	"github.com/bonial-oss/cve-pulse/internal/store/rdb"
	"github.com/bonial-oss/cve-pulse/internal/store/redis"
	"github.com/bonial-oss/cve-pulse/internal/store/storeerr"
)

// ErrNotFound is returned by Get when the key holds no value.
var ErrNotFound = storeerr.ErrNotFound

// Store is a whole-value key-value store. Put always replaces the value.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

type Config struct {
	Type string
	Path string
}

// New opens the backend selected by c.Type.
func (c *Config) New() (Store, error) {
	switch c.Type {
	case "", "file":
		return file.New(c.Path), nil
	case "boltdb":
		return boltdb.Open(c.Path)
	case "redis":
		return redis.Open(rueidis.ClientOption{InitAddress: []string{c.Path}})
	case "sqlite3":
		return rdb.Open(c.Path)
	default:
		return nil, errors.Errorf("%s is not a supported cache type", c.Type)
	}
}
