// SPDX-FileCopyrightText: 2026 Bonial International GmbH
// SPDX-License-Identifier: Apache-2.0

// Package filter derives the year and KEV views the dashboard shows. All
// functions are pure and never modify their input.
package filter

import (
	"strconv"
	"strings"
	"time"

	"github.com/bonial-oss/cve-pulse/internal/types"
)

// FirstYear is the oldest year the backend serves data for.
const FirstYear = 2015

// AllYears returns FirstYear..now's year, newest first.
func AllYears(now time.Time) []string {
	return YearRange(FirstYear, now.Year())
}

// YearRange returns from..to inclusive, newest first. It is empty when
// from > to.
func YearRange(from, to int) []string {
	years := make([]string, 0, max(to-from+1, 0))
	for y := to; y >= from; y-- {
		years = append(years, strconv.Itoa(y))
	}
	return years
}

// YearFilters builds the selector options: "all" first, then years in the
// given order.
func YearFilters(years []string) []types.YearFilter {
	filters := make([]types.YearFilter, 0, len(years)+1)
	filters = append(filters, types.YearFilter{ID: types.AllYears, Label: types.AllYearsLabel})
	for _, y := range years {
		filters = append(filters, types.YearFilter{ID: y, Label: y})
	}
	return filters
}

// PublishedYear returns the part of the published date before the first
// "-". Dates that are not ISO-like are returned as-is and therefore never
// match a four digit year.
func PublishedYear(r types.Record) string {
	year, _, _ := strings.Cut(r.PublishedDate, "-")
	return year
}

// ByYear keeps the records published in year. "all" returns records
// unchanged.
func ByYear(records []types.Record, year string) []types.Record {
	if year == types.AllYears {
		return records
	}
	out := make([]types.Record, 0)
	for _, r := range records {
		if PublishedYear(r) == year {
			out = append(out, r)
		}
	}
	return out
}

// ByKEV keeps the records whose identifier is in ids, preserving order.
func ByKEV(records []types.Record, ids map[string]struct{}) []types.Record {
	out := make([]types.Record, 0)
	for _, r := range records {
		if _, ok := ids[r.CVEID]; ok {
			out = append(out, r)
		}
	}
	return out
}
