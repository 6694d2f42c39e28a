// SPDX-FileCopyrightText: 2025 Anchore, Inc.
// SPDX-FileCopyrightText: 2026 Bonial International GmbH
// SPDX-License-Identifier: Apache-2.0

// Risk score calculation based on the formula from Grype
// (https://github.com/anchore/grype), licensed under Apache-2.0.

package enricher

import (
	"math"
	"strconv"
	"strings"

	"github.com/bonial-oss/cve-pulse/internal/types"
)

// CVSS severity bands.
const (
	SeverityCritical = "CRITICAL"
	SeverityHigh     = "HIGH"
	SeverityMedium   = "MEDIUM"
	SeverityLow      = "LOW"
	SeverityNone     = "NONE"
	SeverityUnknown  = "UNKNOWN"
)

// kevModifier applies to every listed CVE. The backend does not expose
// ransomware usage, so the lower of the two upstream factors is used.
const kevModifier = 1.05

// ParseScore reads a score field. "N/A" and anything non-numeric yield
// ok == false.
func ParseScore(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == types.NotAvailable {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Severity maps a CVSS base score to its qualitative band.
func Severity(cvss string) string {
	score, ok := ParseScore(cvss)
	switch {
	case !ok:
		return SeverityUnknown
	case score >= 9.0:
		return SeverityCritical
	case score >= 7.0:
		return SeverityHigh
	case score >= 4.0:
		return SeverityMedium
	case score > 0:
		return SeverityLow
	default:
		return SeverityNone
	}
}

// RiskScore computes a composite risk score (0.0–100.0) from the record's
// EPSS and CVSS fields and its KEV listing. A missing score contributes
// nothing.
func RiskScore(r types.Record, listed bool) float64 {
	t := threat(r.EPSSScore, listed)
	s := severityScore(r.MaxCVSS)
	k := 1.0
	if listed {
		k = kevModifier
	}
	return math.Min(t*s*k, 1.0) * 100.0
}

func threat(epss string, listed bool) float64 {
	if listed {
		return 1.0
	}
	if v, ok := ParseScore(epss); ok {
		return math.Min(math.Max(v, 0), 1)
	}
	return 0.0
}

func severityScore(cvss string) float64 {
	strScore := severityToScore(Severity(cvss)) / 10.0
	base, _ := ParseScore(cvss)
	avgBase := math.Min(base, 10) / 10.0
	if avgBase <= 0 {
		return strScore
	}
	return (strScore + avgBase) / 2.0
}

func severityToScore(severity string) float64 {
	switch strings.ToLower(severity) {
	case "none":
		return 0.5
	case "low":
		return 3.0
	case "medium":
		return 5.0
	case "high":
		return 7.5
	case "critical":
		return 9.0
	default:
		return 5.0
	}
}
