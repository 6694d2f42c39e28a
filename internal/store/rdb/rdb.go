// SPDX-FileCopyrightText: 2026 Bonial International GmbH
// SPDX-License-Identifier: Apache-2.0

package rdb

import (
	"context"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/bonial-oss/cve-pulse/internal/store/storeerr"
)

type entry struct {
	Key   string `gorm:"column:name;primaryKey"`
	Value []byte
}

func (entry) TableName() string { return "kv" }

type Connection struct {
	conn *gorm.DB
}

// Open opens the sqlite database at path and migrates the kv table.
func Open(path string) (*Connection, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "create db dir")
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, errors.WithStack(err)
	}
	c := &Connection{conn: db}
	if err := db.AutoMigrate(&entry{}); err != nil {
		_ = c.Close()
		return nil, errors.Wrap(err, "migrate kv table")
	}
	return c, nil
}

func (c *Connection) Get(ctx context.Context, key string) ([]byte, error) {
	var e entry
	if err := c.conn.WithContext(ctx).Where("name = ?", key).Take(&e).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storeerr.ErrNotFound
		}
		return nil, errors.Wrapf(err, "select %s", key)
	}
	return e.Value, nil
}

func (c *Connection) Put(ctx context.Context, key string, value []byte) error {
	e := entry{Key: key, Value: value}
	if err := c.conn.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&e).Error; err != nil {
		return errors.Wrapf(err, "upsert %s", key)
	}
	return nil
}

func (c *Connection) Delete(ctx context.Context, key string) error {
	if err := c.conn.WithContext(ctx).Where("name = ?", key).Delete(&entry{}).Error; err != nil {
		return errors.Wrapf(err, "delete %s", key)
	}
	return nil
}

func (c *Connection) Close() error {
	if c.conn == nil {
		return nil
	}
	db, err := c.conn.DB()
	if err != nil {
		return errors.Wrap(err, "get *sql.DB")
	}
	return db.Close()
}
