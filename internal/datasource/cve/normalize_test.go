// SPDX-FileCopyrightText: 2026 Bonial International GmbH
// SPDX-License-Identifier: Apache-2.0

package cve

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bonial-oss/cve-pulse/internal/types"
)

func TestNormalize_PrimaryKeys(t *testing.T) {
	raw := types.RawRecord(`{
		"id": "CVE-2023-1111",
		"epssscore": "0.42",
		"cvss": "7.5",
		"published": "2023-04-01",
		"source": "nvd@nist.gov",
		"summary": "SQL injection in login form",
		"lastModified": "2023-05-02"
	}`)

	assert.Equal(t, types.Record{
		CVEID:         "CVE-2023-1111",
		EPSSScore:     "0.42",
		MaxCVSS:       "7.5",
		PublishedDate: "2023-04-01",
		Source:        "nvd@nist.gov",
		Summary:       "SQL injection in login form",
		UpdatedDate:   "2023-05-02",
	}, Normalize(raw, "2023"))
}

func TestNormalize_AliasKeys(t *testing.T) {
	raw := types.RawRecord(`{
		"cveid": "CVE-2025-2222",
		"maxcvss": 9.8,
		"publisheddate": "2025-01-15",
		"updateddate": "2025-02-01"
	}`)

	got := Normalize(raw, "2025")
	assert.Equal(t, "CVE-2025-2222", got.CVEID)
	assert.Equal(t, "9.8", got.MaxCVSS)
	assert.Equal(t, "2025-01-15", got.PublishedDate)
	assert.Equal(t, "2025-02-01", got.UpdatedDate)
	assert.Equal(t, types.NotAvailable, got.EPSSScore)
	assert.Equal(t, types.UnknownSource, got.Source)
	assert.Equal(t, types.NoSummary, got.Summary)
}

func TestNormalize_PrimaryWinsOverAlias(t *testing.T) {
	got := Normalize(types.RawRecord(`{"id": "A", "cveid": "B", "cvss": "1.0", "maxcvss": "2.0"}`), "2020")
	assert.Equal(t, "A", got.CVEID)
	assert.Equal(t, "1.0", got.MaxCVSS)
}

func TestNormalize_EmptyPrimaryFallsBackToAlias(t *testing.T) {
	got := Normalize(types.RawRecord(`{"id": "", "cveid": "B", "published": null, "publisheddate": "2020-02-02"}`), "2020")
	assert.Equal(t, "B", got.CVEID)
	assert.Equal(t, "2020-02-02", got.PublishedDate)
}

func TestNormalize_Defaults(t *testing.T) {
	got := Normalize(types.RawRecord(`{}`), "2020")

	assert.True(t, strings.HasPrefix(got.CVEID, types.UnknownIDPrefix), "CVEID = %q", got.CVEID)
	assert.Greater(t, len(got.CVEID), len(types.UnknownIDPrefix))
	assert.Equal(t, "2020-01-01", got.PublishedDate)
	assert.Equal(t, "2020-01-01", got.UpdatedDate)
	assert.Equal(t, types.NotAvailable, got.EPSSScore)
	assert.Equal(t, types.NotAvailable, got.MaxCVSS)
	assert.Equal(t, types.UnknownSource, got.Source)
	assert.Equal(t, types.NoSummary, got.Summary)
}

func TestNormalize_UpdatedDefaultsToPublished(t *testing.T) {
	got := Normalize(types.RawRecord(`{"id": "X", "published": "2019-07-07"}`), "2019")
	assert.Equal(t, "2019-07-07", got.UpdatedDate)
}

func TestNormalize_ZeroScoreIsMissing(t *testing.T) {
	got := Normalize(types.RawRecord(`{"id": "X", "cvss": 0, "epssscore": ""}`), "2019")
	assert.Equal(t, types.NotAvailable, got.MaxCVSS)
	assert.Equal(t, types.NotAvailable, got.EPSSScore)
}

func TestNormalize_SynthesizedIDsDoNotCollide(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := Normalize(types.RawRecord(`{"summary": "no id"}`), "2021").CVEID
		assert.False(t, seen[id], "duplicate synthesized id %q", id)
		seen[id] = true
	}
}

func TestNormalize_NullRecord(t *testing.T) {
	got := Normalize(types.RawRecord(`null`), "2018")
	assert.NotEmpty(t, got.CVEID)
	assert.Equal(t, "2018-01-01", got.PublishedDate)
}
