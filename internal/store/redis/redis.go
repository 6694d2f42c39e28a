// SPDX-FileCopyrightText: 2026 Bonial International GmbH
// SPDX-License-Identifier: Apache-2.0

package redis

import (
	"context"

	"github.com/pkg/errors"
	"github.com/redis/rueidis"

	"github.com/bonial-oss/cve-pulse/internal/store/storeerr"
)

// redis: STRING KEY: "cve-pulse#<key>" VALUE: <value>
const keyPrefix = "cve-pulse#"

type Connection struct {
	conn rueidis.Client
}

func Open(opt rueidis.ClientOption) (*Connection, error) {
	client, err := rueidis.NewClient(opt)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &Connection{conn: client}, nil
}

func (c *Connection) Get(ctx context.Context, key string) ([]byte, error) {
	bs, err := c.conn.Do(ctx, c.conn.B().Get().Key(keyPrefix+key).Build()).AsBytes()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, storeerr.ErrNotFound
		}
		return nil, errors.Wrapf(err, "GET %s", keyPrefix+key)
	}
	return bs, nil
}

func (c *Connection) Put(ctx context.Context, key string, value []byte) error {
	if err := c.conn.Do(ctx, c.conn.B().Set().Key(keyPrefix+key).Value(rueidis.BinaryString(value)).Build()).Error(); err != nil {
		return errors.Wrapf(err, "SET %s", keyPrefix+key)
	}
	return nil
}

func (c *Connection) Delete(ctx context.Context, key string) error {
	if err := c.conn.Do(ctx, c.conn.B().Del().Key(keyPrefix+key).Build()).Error(); err != nil {
		return errors.Wrapf(err, "DEL %s", keyPrefix+key)
	}
	return nil
}

func (c *Connection) Close() error {
	if c.conn == nil {
		return nil
	}
	c.conn.Close()
	return nil
}
