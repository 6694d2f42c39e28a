// SPDX-FileCopyrightText: 2026 Bonial International GmbH
// SPDX-License-Identifier: Apache-2.0

package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bonial-oss/cve-pulse/internal/enricher"
	"github.com/bonial-oss/cve-pulse/internal/types"
)

// makeTestRows builds 3 ranked records for table tests.
func makeTestRows() []enricher.Ranked {
	return []enricher.Ranked{
		{
			Record: types.Record{
				CVEID: "CVE-2024-1234", MaxCVSS: "9.8", EPSSScore: "0.97",
				PublishedDate: "2024-01-10", UpdatedDate: "2024-01-15",
				Source: "nvd@nist.gov", Summary: "Example critical vulnerability",
			},
			Severity: enricher.SeverityCritical,
			KEV:      true,
			Risk:     95.0,
		},
		{
			Record: types.Record{
				CVEID: "CVE-2024-5678", MaxCVSS: "7.5", EPSSScore: "0.42",
				PublishedDate: "2024-02-10", UpdatedDate: "2024-02-10",
				Source: "cve@mitre.org", Summary: "Another vulnerability",
			},
			Severity: enricher.SeverityHigh,
			Risk:     31.5,
		},
		{
			Record: types.Record{
				CVEID: "CVE-2024-9999", MaxCVSS: types.NotAvailable, EPSSScore: types.NotAvailable,
				PublishedDate: "2024-03-10", UpdatedDate: "2024-03-10",
				Source: types.UnknownSource, Summary: types.NoSummary,
			},
			Severity: enricher.SeverityUnknown,
		},
	}
}

func TestWriteRecords_AllColumns(t *testing.T) {
	cfg := TableConfig{ShowRisk: true, ShowKEV: true}

	var buf bytes.Buffer
	require.NoError(t, WriteRecords(&buf, "CVEs 2024", makeTestRows(), cfg))

	output := buf.String()

	// Verify heading.
	assert.Contains(t, output, "CVEs 2024")
	assert.Contains(t, output, "=========")
	assert.Contains(t, output, "Total: 3")
	assert.Contains(t, output, "CRITICAL: 1")
	assert.Contains(t, output, "UNKNOWN: 1")

	// Verify box-drawing characters.
	for _, ch := range []string{"┌", "┘", "│", "├"} {
		assert.Contains(t, output, ch)
	}

	for _, col := range []string{"CVE ID", "Severity", "CVSS", "EPSS", "Published", "Updated", "Source", "Summary", "Risk", "KEV"} {
		assert.Contains(t, output, col)
	}

	for _, expected := range []string{
		"CVE-2024-1234", "CRITICAL", "9.8", "0.97", "95.0", "YES",
		"CVE-2024-5678", "HIGH", "31.5", "NO",
		"CVE-2024-9999", "N/A",
	} {
		assert.Contains(t, output, expected)
	}
	assertOrder(t, output, "CVE-2024-1234", "CVE-2024-5678", "CVE-2024-9999")
}

func TestWriteRecords_OptionalColumnsHidden(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteRecords(&buf, "", makeTestRows(), TableConfig{}))

	output := buf.String()
	assert.NotContains(t, output, "Risk")
	assert.NotContains(t, output, "KEV")
	assert.NotContains(t, output, "95.0")
}

func TestWriteRecords_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteRecords(&buf, "CVEs", nil, TableConfig{}))

	output := buf.String()
	assert.Contains(t, output, "Total: 0")
	assert.Contains(t, output, "CVE ID")
}

func TestWriteRecords_SummaryTruncation(t *testing.T) {
	rows := []enricher.Ranked{{
		Record: types.Record{
			CVEID:   "CVE-2024-0001",
			Summary: "one two three four five six seven eight nine ten eleven twelve thirteen fourteen",
		},
		Severity: enricher.SeverityUnknown,
	}}

	var buf bytes.Buffer
	require.NoError(t, WriteRecords(&buf, "", rows, TableConfig{}))

	output := buf.String()
	assert.Contains(t, output, "twelve...")
	assert.NotContains(t, output, "thirteen")
}

func TestWriteRecords_AutoMerge(t *testing.T) {
	// Two records with the same severity should have auto-merged severity cells.
	rows := []enricher.Ranked{
		{Record: types.Record{CVEID: "CVE-2024-0001", MaxCVSS: "7.1"}, Severity: enricher.SeverityHigh},
		{Record: types.Record{CVEID: "CVE-2024-0002", MaxCVSS: "7.2"}, Severity: enricher.SeverityHigh},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteRecords(&buf, "", rows, TableConfig{}))

	output := buf.String()

	// "HIGH" appears in the summary line and header region, then once in the
	// merged data cell.
	headerIdx := strings.Index(output, "Severity")
	afterHeader := output[headerIdx+1:]
	assert.Equal(t, 1, strings.Count(afterHeader, "HIGH"))
}

func TestWriteRecords_RowSeparators(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteRecords(&buf, "", makeTestRows()[:2], TableConfig{}))

	// With 2 rows: 1 header sep + 1 row sep = at least 2 ├ lines.
	assert.GreaterOrEqual(t, strings.Count(buf.String(), "├"), 2)
}

func TestWriteYearFilters(t *testing.T) {
	filters := []types.YearFilter{{ID: "all", Label: "All Years"}, {ID: "2025", Label: "2025"}}

	var buf bytes.Buffer
	require.NoError(t, WriteYearFilters(&buf, filters, TableConfig{}))

	assertOrder(t, buf.String(), "ID", "Label", "all", "All Years", "2025")
}

func TestWriteDates(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteDates(&buf, "KEV dates 2024", []string{"2024-03-02", "2024-01-15"}, TableConfig{}))

	assertOrder(t, buf.String(), "KEV dates 2024", "Date Added", "2024-03-02", "2024-01-15")
}

func TestWriteCategoryCounts(t *testing.T) {
	counts := []types.CategoryCount{{Name: "SQL injection", Count: 3}, {Name: "XSS", Count: 1}}

	var buf bytes.Buffer
	require.NoError(t, WriteCategoryCounts(&buf, "Vulnerability types", counts, TableConfig{}))

	output := buf.String()
	assertOrder(t, output, "Vulnerability types", "Category", "SQL injection", "75.0%", "XSS", "25.0%")
}

func TestWriteYearCounts(t *testing.T) {
	counts := []types.YearCount{{Year: "2023", Count: 28961}, {Year: "2024", Count: 40009}}

	var buf bytes.Buffer
	require.NoError(t, WriteYearCounts(&buf, "CVEs per year", counts, TableConfig{}))

	assertOrder(t, buf.String(), "Year", "CVEs", "2023", "28961", "2024", "40009")
}

func TestWriteYearCategories(t *testing.T) {
	years := []types.YearCategories{
		{Year: "2023", Total: 4, Categories: map[string]int{"SQL injection": 2, "Gain privilege": 1}},
		{Year: "2024", Total: 7, Categories: map[string]int{"SQL injection": 5}},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteYearCategories(&buf, "Trends", years, []string{"SQL injection", "Gain privilege"}, TableConfig{}))

	output := buf.String()
	assertOrder(t, output, "Trends", "Year", "Total", "2023", "2024")
	assert.Contains(t, output, "5")
}

func TestWriteNotice(t *testing.T) {
	var buf bytes.Buffer
	WriteNotice(&buf, "", false)
	assert.Empty(t, buf.String())

	WriteNotice(&buf, "counts from cache", false)
	assert.Equal(t, "Note: counts from cache\n", buf.String())
}

func TestColorizeSeverity(t *testing.T) {
	assert.Equal(t, "bogus", colorizeSeverity("bogus"))
	assert.Contains(t, colorizeSeverity(enricher.SeverityHigh), enricher.SeverityHigh)
}

// assertOrder verifies that the given strings appear in order in the output.
func assertOrder(t *testing.T, output string, items ...string) {
	t.Helper()
	prev := -1
	for _, item := range items {
		idx := strings.Index(output[prev+1:], item)
		require.NotEqual(t, -1, idx, "missing %q in output after offset %d", item, prev)
		prev += idx + 1
	}
}
