// SPDX-FileCopyrightText: 2026 Bonial International GmbH
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bonial-oss/cve-pulse/internal/store/file"
	"github.com/bonial-oss/cve-pulse/internal/types"
)

func sampleSnapshot(ts time.Time) *types.Snapshot {
	return &types.Snapshot{
		YearBuckets: []types.YearBucket{
			{Year: "2024", Data: []types.RawRecord{types.RawRecord(`{"id":"CVE-2024-0001"}`)}},
		},
		NormalizedRecords: []types.Record{
			{
				CVEID:         "CVE-2024-0001",
				EPSSScore:     types.NotAvailable,
				MaxCVSS:       types.NotAvailable,
				PublishedDate: "2024-01-01",
				Source:        types.UnknownSource,
				Summary:       types.NoSummary,
				UpdatedDate:   "2024-01-01",
			},
		},
		YearsWithData: []string{"2024"},
		Timestamp:     ts.UnixMilli(),
	}
}

func TestCache_Load_Miss(t *testing.T) {
	c := New(file.New(t.TempDir()))

	_, err := c.Load(context.Background())
	assert.ErrorIs(t, err, ErrMiss)
}

func TestCache_StoreLoad(t *testing.T) {
	for _, compress := range []bool{false, true} {
		t.Run(map[bool]string{false: "plain", true: "zstd"}[compress], func(t *testing.T) {
			c := New(file.New(t.TempDir()), WithCompression(compress))
			ctx := context.Background()
			want := sampleSnapshot(time.Now())

			require.NoError(t, c.Store(ctx, want))

			got, err := c.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, want.NormalizedRecords, got.NormalizedRecords)
			assert.Equal(t, want.YearsWithData, got.YearsWithData)
			assert.Equal(t, want.Timestamp, got.Timestamp)
			require.Len(t, got.YearBuckets, 1)
			assert.JSONEq(t, string(want.YearBuckets[0].Data[0]), string(got.YearBuckets[0].Data[0]))
		})
	}
}

func TestCache_Load_ReadsEitherEncoding(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	want := sampleSnapshot(time.Now())

	require.NoError(t, New(file.New(dir), WithCompression(true)).Store(ctx, want))

	got, err := New(file.New(dir), WithCompression(false)).Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want.NormalizedRecords, got.NormalizedRecords)
}

func TestCache_Load_Corrupt(t *testing.T) {
	s := file.New(t.TempDir())
	require.NoError(t, s.Put(context.Background(), SnapshotKey, []byte("{truncated")))

	_, err := New(s).Load(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMiss)
}

func TestCache_IsFresh(t *testing.T) {
	now := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	c := New(file.New(t.TempDir()), WithClock(func() time.Time { return now }))

	assert.False(t, c.IsFresh(nil))
	assert.True(t, c.IsFresh(sampleSnapshot(now.Add(-1*time.Hour))))
	assert.False(t, c.IsFresh(sampleSnapshot(now.Add(-25*time.Hour))))

	short := New(file.New(t.TempDir()), WithClock(func() time.Time { return now }), WithTTL(time.Minute))
	assert.False(t, short.IsFresh(sampleSnapshot(now.Add(-2*time.Minute))))
}

func TestCache_Clear(t *testing.T) {
	c := New(file.New(t.TempDir()))
	ctx := context.Background()

	require.NoError(t, c.Store(ctx, sampleSnapshot(time.Now())))
	require.NoError(t, c.Clear(ctx))

	_, err := c.Load(ctx)
	assert.ErrorIs(t, err, ErrMiss)

	// Clearing an empty cache is fine.
	assert.NoError(t, c.Clear(ctx))
}
