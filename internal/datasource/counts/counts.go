// SPDX-FileCopyrightText: 2026 Bonial International GmbH
// SPDX-License-Identifier: Apache-2.0

// Package counts provides the number of CVEs published per year.
package counts

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/bonial-oss/cve-pulse/internal/filter"
	"github.com/bonial-oss/cve-pulse/internal/types"
)

// NoticeLocal is returned when counts were derived from the local snapshot.
const NoticeLocal = "yearly totals unavailable from the backend, showing counts from cached data"

// Fetcher performs GET requests against the backend.
type Fetcher interface {
	GetJSON(ctx context.Context, path string) ([]byte, error)
}

type Option func(*Source)

func WithLogger(l *zap.Logger) Option {
	return func(s *Source) { s.logger = l }
}

type Source struct {
	fetcher Fetcher
	logger  *zap.Logger
}

func NewSource(fetcher Fetcher, opts ...Option) *Source {
	s := &Source{fetcher: fetcher, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fetch returns the backend's per-year totals, oldest year first.
func (s *Source) Fetch(ctx context.Context) ([]types.YearCount, error) {
	data, err := s.fetcher.GetJSON(ctx, "/no-of-cves-by-year")
	if err != nil {
		return nil, fmt.Errorf("fetching yearly counts: %w", err)
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("parsing yearly counts: invalid JSON body")
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, fmt.Errorf("parsing yearly counts: expected an object, got %s", root.Type)
	}

	var out []types.YearCount
	root.ForEach(func(key, value gjson.Result) bool {
		switch value.Type {
		case gjson.Number:
			out = append(out, types.YearCount{Year: key.String(), Count: int(value.Int())})
		case gjson.String:
			if n, err := strconv.Atoi(value.Str); err == nil {
				out = append(out, types.YearCount{Year: key.String(), Count: n})
			}
		}
		return true
	})
	sortByYear(out)
	return out, nil
}

// Resolve returns the backend totals, or totals derived from snap when the
// backend cannot be reached. notice is set in the latter case.
func (s *Source) Resolve(ctx context.Context, snap *types.Snapshot) ([]types.YearCount, string) {
	out, err := s.Fetch(ctx)
	if err == nil {
		return out, ""
	}
	s.logger.Warn("yearly counts unavailable, using local data", zap.Error(err))
	if snap == nil {
		return []types.YearCount{}, NoticeLocal
	}
	if len(snap.YearBuckets) > 0 {
		return FromBuckets(snap.YearBuckets), NoticeLocal
	}
	return FromRecords(snap.NormalizedRecords), NoticeLocal
}

// FromBuckets counts the raw records per fetched year.
func FromBuckets(buckets []types.YearBucket) []types.YearCount {
	totals := make(map[string]int, len(buckets))
	for _, b := range buckets {
		totals[b.Year] += len(b.Data)
	}
	return fromMap(totals)
}

// FromRecords counts records per published year.
func FromRecords(records []types.Record) []types.YearCount {
	totals := make(map[string]int)
	for _, r := range records {
		totals[filter.PublishedYear(r)]++
	}
	return fromMap(totals)
}

func fromMap(totals map[string]int) []types.YearCount {
	out := make([]types.YearCount, 0, len(totals))
	for year, n := range totals {
		out = append(out, types.YearCount{Year: year, Count: n})
	}
	sortByYear(out)
	return out
}

// sortByYear orders numerically where both years parse, lexically otherwise.
func sortByYear(counts []types.YearCount) {
	sort.SliceStable(counts, func(i, j int) bool {
		a, errA := strconv.Atoi(counts[i].Year)
		b, errB := strconv.Atoi(counts[j].Year)
		if errA == nil && errB == nil {
			return a < b
		}
		return counts[i].Year < counts[j].Year
	})
}
