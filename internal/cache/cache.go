// SPDX-FileCopyrightText: 2026 Bonial International GmbH
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/bonial-oss/cve-pulse/internal/store"
	"github.com/bonial-oss/cve-pulse/internal/types"
)

const (
	// SnapshotKey is the single slot the CVE snapshot lives in.
	SnapshotKey = "cves_data"
	defaultTTL  = types.SnapshotValidity
)

// ErrMiss is returned by Load when no snapshot is stored.
var ErrMiss = errors.New("no cached snapshot")

var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

type Option func(*Cache)

// WithTTL overrides the 24h validity window.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) { c.ttl = ttl }
}

// WithCompression zstd-compresses snapshots on write. Reads detect the
// encoding, so toggling this never invalidates an existing snapshot.
func WithCompression(enabled bool) Option {
	return func(c *Cache) { c.compress = enabled }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// Cache persists the CVE snapshot in a store slot.
type Cache struct {
	store    store.Store
	ttl      time.Duration
	compress bool
	now      func() time.Time
}

func New(s store.Store, opts ...Option) *Cache {
	c := &Cache{store: s, ttl: defaultTTL, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Now returns the cache's notion of the current time.
func (c *Cache) Now() time.Time {
	return c.now()
}

// IsFresh reports whether snap is still within the validity window.
func (c *Cache) IsFresh(snap *types.Snapshot) bool {
	return snap != nil && snap.ValidAt(c.now(), c.ttl)
}

// Load reads and decodes the stored snapshot without checking its age.
func (c *Cache) Load(ctx context.Context) (*types.Snapshot, error) {
	data, err := c.store.Get(ctx, SnapshotKey)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrMiss
		}
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	var snap types.Snapshot
	if err := decode(data, &snap); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	return &snap, nil
}

// Store replaces the stored snapshot.
func (c *Cache) Store(ctx context.Context, snap *types.Snapshot) error {
	data, err := encode(snap, c.compress)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := c.store.Put(ctx, SnapshotKey, data); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	return nil
}

// Clear removes the stored snapshot, if any.
func (c *Cache) Clear(ctx context.Context) error {
	if err := c.store.Delete(ctx, SnapshotKey); err != nil {
		return fmt.Errorf("deleting snapshot: %w", err)
	}
	return nil
}

func encode(v any, compress bool) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	if !compress {
		return buf.Bytes(), nil
	}

	zw, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("creating zstd writer: %w", err)
	}
	defer zw.Close()
	return zw.EncodeAll(buf.Bytes(), make([]byte, 0, buf.Len())), nil
}

func decode(data []byte, v any) error {
	if bytes.HasPrefix(data, zstdMagic) {
		zr, err := zstd.NewReader(nil)
		if err != nil {
			return fmt.Errorf("creating zstd reader: %w", err)
		}
		defer zr.Close()

		data, err = zr.DecodeAll(data, nil)
		if err != nil {
			return fmt.Errorf("decompressing: %w", err)
		}
	}
	return json.Unmarshal(data, v)
}
