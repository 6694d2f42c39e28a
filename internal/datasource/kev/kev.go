// SPDX-FileCopyrightText: 2026 Bonial International GmbH
// SPDX-License-Identifier: Apache-2.0

package kev

import (
	"context"
	"fmt"
	"sort"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/bonial-oss/cve-pulse/internal/filter"
	"github.com/bonial-oss/cve-pulse/internal/input"
	"github.com/bonial-oss/cve-pulse/internal/types"
)

// Notices returned by FilterByDate when it cannot produce a KEV view.
const (
	NoticeAllYears   = "select a specific year to filter by KEV date"
	NoticeFetchError = "known exploited vulnerabilities for %s could not be loaded"
)

// Fetcher performs GET requests against the backend.
type Fetcher interface {
	GetJSON(ctx context.Context, path string) ([]byte, error)
}

type Option func(*Source)

func WithLogger(l *zap.Logger) Option {
	return func(s *Source) { s.logger = l }
}

// Source provides access to the backend's per-year known-exploited lists.
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

// Fetch returns the KEV entries the backend lists for year. Entries without
// an identifier are dropped.
func (s *Source) Fetch(ctx context.Context, year string) ([]types.KEVEntry, error) {
	data, err := s.fetcher.GetJSON(ctx, "/scrape-known-exploited/"+year)
	if err != nil {
		return nil, fmt.Errorf("fetching KEV entries for %s: %w", year, err)
	}

	parsed, err := input.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing KEV entries for %s: %w", year, err)
	}

	entries := make([]types.KEVEntry, 0, len(parsed.Records))
	for _, raw := range parsed.Records {
		r := gjson.ParseBytes(raw)
		entry := types.KEVEntry{
			CVEID:     firstString(r, "cveid", "cveID"),
			DateAdded: firstString(r, "cisakevadded", "dateAdded"),
		}
		if entry.CVEID == "" {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// FilterByDate narrows records to year and then to the CVEs added to the KEV
// catalog on date. When no KEV view can be built the result is empty and
// notice says why; the unfiltered records are never returned in that case.
func (s *Source) FilterByDate(ctx context.Context, records []types.Record, year, date string) ([]types.Record, string) {
	if year == "" || year == types.AllYears {
		return []types.Record{}, NoticeAllYears
	}

	entries, err := s.Fetch(ctx, year)
	if err != nil {
		s.logger.Warn("KEV filter unavailable", zap.String("year", year), zap.Error(err))
		return []types.Record{}, fmt.Sprintf(NoticeFetchError, year)
	}

	return filter.ByKEV(filter.ByYear(records, year), IDsAddedOn(entries, date)), ""
}

// Dates returns the distinct dates entries were added on, newest first.
func Dates(entries []types.KEVEntry) []string {
	seen := make(map[string]struct{}, len(entries))
	dates := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.DateAdded == "" {
			continue
		}
		if _, ok := seen[e.DateAdded]; ok {
			continue
		}
		seen[e.DateAdded] = struct{}{}
		dates = append(dates, e.DateAdded)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	return dates
}

// IDsAddedOn returns the identifiers of entries added on date.
func IDsAddedOn(entries []types.KEVEntry, date string) map[string]struct{} {
	ids := make(map[string]struct{})
	for _, e := range entries {
		if e.DateAdded == date {
			ids[e.CVEID] = struct{}{}
		}
	}
	return ids
}

// IDs returns the identifiers of all entries.
func IDs(entries []types.KEVEntry) map[string]struct{} {
	ids := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		ids[e.CVEID] = struct{}{}
	}
	return ids
}

func firstString(r gjson.Result, keys ...string) string {
	for _, key := range keys {
		if v := r.Get(key); v.Type == gjson.String && v.Str != "" {
			return v.Str
		}
	}
	return ""
}
