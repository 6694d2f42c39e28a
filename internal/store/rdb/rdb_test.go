// SPDX-FileCopyrightText: 2026 Bonial International GmbH
// SPDX-License-Identifier: Apache-2.0

package rdb_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/bonial-oss/cve-pulse/internal/store/rdb"
	"github.com/bonial-oss/cve-pulse/internal/store/storeerr"
)

func TestConnection_RoundTrip(t *testing.T) {
	c, err := rdb.Open(filepath.Join(t.TempDir(), "cache.sqlite3"))
	require.NoError(t, err)
	defer c.Close()

	ctx := context.Background()

	_, err = c.Get(ctx, "cves_data")
	assert.ErrorIs(t, err, storeerr.ErrNotFound)

	require.NoError(t, c.Put(ctx, "cves_data", []byte("one")))
	require.NoError(t, c.Put(ctx, "cves_data", []byte("two")))

	got, err := c.Get(ctx, "cves_data")
	require.NoError(t, err)
	assert.Equal(t, "two", string(got))

	require.NoError(t, c.Delete(ctx, "cves_data"))
	_, err = c.Get(ctx, "cves_data")
	assert.ErrorIs(t, err, storeerr.ErrNotFound)
}

func TestOpen_MigrationFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.sqlite3")

	// A view named kv blocks creating the table.
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Exec("CREATE VIEW kv AS SELECT 1 AS name").Error)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	c, err := rdb.Open(path)
	assert.ErrorContains(t, err, "migrate kv table")
	assert.Nil(t, c)
}
