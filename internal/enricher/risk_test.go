// SPDX-FileCopyrightText: 2025 Anchore, Inc.
// SPDX-FileCopyrightText: 2026 Bonial International GmbH
// SPDX-License-Identifier: Apache-2.0

package enricher

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bonial-oss/cve-pulse/internal/types"
)

func record(cvss, epss string) types.Record {
	return types.Record{CVEID: "CVE-2024-0001", MaxCVSS: cvss, EPSSScore: epss}
}

func TestRiskScore_KEV(t *testing.T) {
	// Listed, CVSS 7.0 -> HIGH.
	// threat=1.0, severity=(0.75+0.7)/2=0.725, kevMod=1.05 -> 76.125
	got := RiskScore(record("7.0", types.NotAvailable), true)
	assert.InEpsilon(t, 76.125, got, 0.01)
}

func TestRiskScore_EPSSOnly(t *testing.T) {
	// EPSS=0.42, CVSS 7.5 -> HIGH.
	// threat=0.42, severity=(0.75+0.75)/2=0.75 -> 0.42 * 0.75 * 100 = 31.5
	got := RiskScore(record("7.5", "0.42"), false)
	assert.InEpsilon(t, 31.5, got, 0.01)
}

func TestRiskScore_NoData(t *testing.T) {
	// No EPSS, not in KEV -> 0.0
	got := RiskScore(record("9.8", types.NotAvailable), false)
	assert.InDelta(t, 0.0, got, 0.01)
}

func TestRiskScore_MissingCVSS(t *testing.T) {
	// Unknown severity falls back to MEDIUM with no base score term.
	// threat=0.5, severity=0.5 -> 25.0
	got := RiskScore(record(types.NotAvailable, "0.5"), false)
	assert.InEpsilon(t, 25.0, got, 0.01)
}

func TestRiskScore_Capped(t *testing.T) {
	// CVSS 10.0 -> CRITICAL: severity=(0.9+1.0)/2=0.95
	// min(1.0 * 0.95 * 1.05, 1.0) * 100 = min(0.9975, 1.0) * 100 = 99.75
	got := RiskScore(record("10.0", "0.99"), true)
	assert.InEpsilon(t, 99.75, got, 0.01)

	// Out-of-range inputs are clamped.
	got = RiskScore(record("42", "7"), true)
	assert.LessOrEqual(t, got, 100.0)
}

func TestSeverity(t *testing.T) {
	tests := []struct {
		cvss string
		want string
	}{
		{"9.8", SeverityCritical},
		{"9.0", SeverityCritical},
		{"8.9", SeverityHigh},
		{"7.0", SeverityHigh},
		{"6.9", SeverityMedium},
		{"4.0", SeverityMedium},
		{"3.9", SeverityLow},
		{"0.1", SeverityLow},
		{"0", SeverityNone},
		{types.NotAvailable, SeverityUnknown},
		{"", SeverityUnknown},
		{"high", SeverityUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.cvss, func(t *testing.T) {
			assert.Equal(t, tt.want, Severity(tt.cvss))
		})
	}
}

func TestSeverityToScore(t *testing.T) {
	tests := []struct {
		severity string
		want     float64
	}{
		{"none", 0.5},
		{"NONE", 0.5},
		{"low", 3.0},
		{"LOW", 3.0},
		{"medium", 5.0},
		{"high", 7.5},
		{"HIGH", 7.5},
		{"critical", 9.0},
		{"CRITICAL", 9.0},
		{"unknown", 5.0},
		{"", 5.0},
	}
	for _, tt := range tests {
		t.Run(tt.severity, func(t *testing.T) {
			assert.InEpsilon(t, tt.want, severityToScore(tt.severity), 0.01)
		})
	}
}

func TestParseScore(t *testing.T) {
	v, ok := ParseScore(" 7.5 ")
	assert.True(t, ok)
	assert.InEpsilon(t, 7.5, v, 0.001)

	for _, s := range []string{"", types.NotAvailable, "n/a", "NaN", "Inf"} {
		_, ok := ParseScore(s)
		assert.False(t, ok, s)
	}
}
