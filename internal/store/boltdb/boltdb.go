// SPDX-FileCopyrightText: 2026 Bonial International GmbH
// SPDX-License-Identifier: Apache-2.0

package boltdb

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"

	"github.com/bonial-oss/cve-pulse/internal/store/storeerr"
)

// bolt: BUCKET: "cve-pulse" KEY: <key> VALUE: <value>
var bucketName = []byte("cve-pulse")

type Connection struct {
	conn *bolt.DB
}

// Open opens (or creates) the bolt database file at path.
func Open(path string) (*Connection, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "create db dir")
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return errors.Wrapf(err, "create bucket:%q if not exists", bucketName)
	}); err != nil {
		db.Close()
		return nil, err
	}
	return &Connection{conn: db}, nil
}

func (c *Connection) Get(_ context.Context, key string) ([]byte, error) {
	var value []byte
	if err := c.conn.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName)
		if b == nil {
			return errors.Errorf("bucket:%q is not exists", bucketName)
		}
		v := b.Get([]byte(key))
		if v == nil {
			return storeerr.ErrNotFound
		}
		// v is only valid for the lifetime of the transaction.
		value = append([]byte(nil), v...)
		return nil
	}); err != nil {
		if errors.Is(err, storeerr.ErrNotFound) {
			return nil, err
		}
		return nil, errors.WithStack(err)
	}
	return value, nil
}

func (c *Connection) Put(_ context.Context, key string, value []byte) error {
	return c.conn.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketName)
		if err != nil {
			return errors.Wrapf(err, "create bucket:%q if not exists", bucketName)
		}
		if err := b.Put([]byte(key), value); err != nil {
			return errors.Wrapf(err, "put %s", key)
		}
		return nil
	})
}

func (c *Connection) Delete(_ context.Context, key string) error {
	return c.conn.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName)
		if b == nil {
			return nil
		}
		if err := b.Delete([]byte(key)); err != nil {
			return errors.Wrapf(err, "delete %s", key)
		}
		return nil
	})
}

func (c *Connection) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}
