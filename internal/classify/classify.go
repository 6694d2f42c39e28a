// SPDX-FileCopyrightText: 2026 Bonial International GmbH
// SPDX-License-Identifier: Apache-2.0

// Package classify buckets CVE summaries into vulnerability categories by
// keyword. It is a best-effort heuristic: a summary may match several
// categories or none.
package classify

import (
	"sort"
	"strconv"
	"strings"

	"github.com/bonial-oss/cve-pulse/internal/filter"
	"github.com/bonial-oss/cve-pulse/internal/types"
)

// Category is a named set of keywords, matched case-insensitively.
type Category struct {
	Name     string
	Keywords []string
}

// Types are the vulnerability type categories shown in the distribution view.
var Types = []Category{
	{Name: "Overflow", Keywords: []string{"overflow", "buffer overflow"}},
	{Name: "Memory corruption", Keywords: []string{"memory corruption", "memory leak"}},
	{Name: "SQL injection", Keywords: []string{"sql injection", "sqli"}},
	{Name: "XSS", Keywords: []string{"xss", "cross site scripting", "cross-site scripting"}},
	{Name: "Directory traversal", Keywords: []string{"directory traversal", "path traversal"}},
	{Name: "File inclusion", Keywords: []string{"file inclusion", "lfi", "rfi"}},
	{Name: "CSRF", Keywords: []string{"csrf", "cross site request forgery", "cross-site request forgery"}},
	{Name: "XXE", Keywords: []string{"xxe", "xml external entity"}},
	{Name: "SSRF", Keywords: []string{"ssrf", "server side request forgery", "server-side request forgery"}},
	{Name: "Open redirect", Keywords: []string{"open redirect", "unvalidated redirect"}},
	{Name: "Input validation", Keywords: []string{"input validation", "validation"}},
	{Name: "Execute code", Keywords: []string{"execute code", "code execution", "rce", "remote code execution"}},
	{Name: "Bypass", Keywords: []string{"bypass", "authentication bypass"}},
	{Name: "Gain privilege", Keywords: []string{"gain privilege", "privilege escalation"}},
	{Name: "Denial of service", Keywords: []string{"denial of service", "dos"}},
	{Name: "Information leak", Keywords: []string{"information leak", "information disclosure"}},
}

// Trends are the categories tracked year over year.
var Trends = []Category{Types[2], Types[13]}

// Classify returns the names of the categories whose keywords occur in
// summary, in category order.
func Classify(summary string, categories []Category) []string {
	text := strings.ToLower(summary)
	var names []string
	for _, c := range categories {
		if c.matches(text) {
			names = append(names, c.Name)
		}
	}
	return names
}

func (c Category) matches(lower string) bool {
	for _, kw := range c.Keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// Count returns how many records match each category. Categories with no
// match are omitted; the rest keep category order.
func Count(records []types.Record, categories []Category) []types.CategoryCount {
	totals := make([]int, len(categories))
	for _, r := range records {
		text := strings.ToLower(r.Summary)
		for i, c := range categories {
			if c.matches(text) {
				totals[i]++
			}
		}
	}

	out := make([]types.CategoryCount, 0, len(categories))
	for i, c := range categories {
		if totals[i] > 0 {
			out = append(out, types.CategoryCount{Name: c.Name, Count: totals[i]})
		}
	}
	return out
}

// ByYear groups records by published year and counts category matches per
// year, oldest year first. Every category appears in each year's map.
func ByYear(records []types.Record, categories []Category) []types.YearCategories {
	byYear := make(map[string]*types.YearCategories)
	for _, r := range records {
		year := filter.PublishedYear(r)
		yc, ok := byYear[year]
		if !ok {
			yc = &types.YearCategories{Year: year, Categories: make(map[string]int, len(categories))}
			for _, c := range categories {
				yc.Categories[c.Name] = 0
			}
			byYear[year] = yc
		}
		yc.Total++
		text := strings.ToLower(r.Summary)
		for _, c := range categories {
			if c.matches(text) {
				yc.Categories[c.Name]++
			}
		}
	}

	out := make([]types.YearCategories, 0, len(byYear))
	for _, yc := range byYear {
		out = append(out, *yc)
	}
	sort.Slice(out, func(i, j int) bool {
		a, errA := strconv.Atoi(out[i].Year)
		b, errB := strconv.Atoi(out[j].Year)
		if errA == nil && errB == nil {
			return a < b
		}
		return out[i].Year < out[j].Year
	})
	return out
}

// Names returns the category names in order.
func Names(categories []Category) []string {
	names := make([]string, len(categories))
	for i, c := range categories {
		names[i] = c.Name
	}
	return names
}
