// SPDX-FileCopyrightText: 2026 Bonial International GmbH
// SPDX-License-Identifier: Apache-2.0

package enricher

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bonial-oss/cve-pulse/internal/types"
)

// SortKey selects the ordering of ranked records.
type SortKey string

const (
	SortNone      SortKey = ""
	SortRisk      SortKey = "risk"
	SortCVSS      SortKey = "cvss"
	SortEPSS      SortKey = "epss"
	SortPublished SortKey = "published"
	SortCVE       SortKey = "cve"
)

// SortKeys lists the accepted --sort-by values.
var SortKeys = []SortKey{SortRisk, SortCVSS, SortEPSS, SortPublished, SortCVE}

// ParseSortKey validates a user supplied sort key. The empty string keeps
// the pipeline order.
func ParseSortKey(s string) (SortKey, error) {
	k := SortKey(strings.ToLower(strings.TrimSpace(s)))
	if k == SortNone {
		return k, nil
	}
	for _, valid := range SortKeys {
		if k == valid {
			return k, nil
		}
	}
	return "", fmt.Errorf("invalid sort key %q (must be one of risk, cvss, epss, published, cve)", s)
}

// Ranked is a record with its derived prioritization fields.
type Ranked struct {
	types.Record
	Severity string  `json:"severity"`
	KEV      bool    `json:"kev"`
	Risk     float64 `json:"risk"`
}

// Config holds filtering and ordering options.
type Config struct {
	SortBy        SortKey
	EPSSThreshold float64
	KEVOnly       bool
}

// Enricher derives severity, KEV listing and risk for records.
type Enricher struct {
	kev map[string]struct{}
}

// New creates an Enricher. kevIDs may be nil when no KEV data is available,
// in which case nothing counts as listed.
func New(kevIDs map[string]struct{}) *Enricher {
	return &Enricher{kev: kevIDs}
}

// Rank enriches records, applies the filters in cfg and orders the result.
// The input is not modified.
func (e *Enricher) Rank(records []types.Record, cfg Config) []Ranked {
	out := make([]Ranked, 0, len(records))
	for _, r := range records {
		_, listed := e.kev[r.CVEID]

		if cfg.KEVOnly && !listed {
			continue
		}
		if cfg.EPSSThreshold > 0 {
			epss, ok := ParseScore(r.EPSSScore)
			if !ok || epss < cfg.EPSSThreshold {
				continue
			}
		}

		out = append(out, Ranked{
			Record:   r,
			Severity: Severity(r.MaxCVSS),
			KEV:      listed,
			Risk:     RiskScore(r, listed),
		})
	}

	if less := lessFunc(out, cfg.SortBy); less != nil {
		sort.SliceStable(out, less)
	}
	return out
}

// lessFunc orders scores and dates descending and identifiers ascending.
// Missing scores sort last.
func lessFunc(rs []Ranked, key SortKey) func(i, j int) bool {
	switch key {
	case SortRisk:
		return func(i, j int) bool { return rs[i].Risk > rs[j].Risk }
	case SortCVSS:
		return func(i, j int) bool { return scoreDesc(rs[i].MaxCVSS, rs[j].MaxCVSS) }
	case SortEPSS:
		return func(i, j int) bool { return scoreDesc(rs[i].EPSSScore, rs[j].EPSSScore) }
	case SortPublished:
		return func(i, j int) bool { return rs[i].PublishedDate > rs[j].PublishedDate }
	case SortCVE:
		return func(i, j int) bool { return rs[i].CVEID < rs[j].CVEID }
	default:
		return nil
	}
}

func scoreDesc(a, b string) bool {
	va, okA := ParseScore(a)
	vb, okB := ParseScore(b)
	switch {
	case okA && okB:
		return va > vb
	default:
		return okA && !okB
	}
}
