// SPDX-FileCopyrightText: 2026 Bonial International GmbH
// SPDX-License-Identifier: Apache-2.0

package output

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	aqtable "github.com/aquasecurity/table"
	"github.com/aquasecurity/tml"
	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/bonial-oss/cve-pulse/internal/enricher"
	"github.com/bonial-oss/cve-pulse/internal/types"
)

const maxSummaryWords = 12

// TableConfig controls which columns are displayed.
type TableConfig struct {
	ShowRisk   bool
	ShowKEV    bool
	IsTerminal bool // true when output goes to a terminal (enables ANSI styling)
}

// IsOutputToTerminal returns true if the writer is stdout connected to a
// character device (TTY).
func IsOutputToTerminal(output io.Writer) bool {
	return output == os.Stdout && term.IsTerminal(int(os.Stdout.Fd()))
}

// WriteRecords writes ranked records as a table under a title line and a
// severity summary.
func WriteRecords(w io.Writer, title string, rows []enricher.Ranked, cfg TableConfig) error {
	writeHeading(w, title, cfg.IsTerminal)
	fmt.Fprintln(w, severitySummary(rows))
	fmt.Fprintln(w)

	tw := newTableWriter(w, cfg.IsTerminal, true)
	tw.SetHeaders(headerNames(cfg)...)
	for i := range rows {
		tw.AddRow(rowCells(&rows[i], cfg)...)
	}
	tw.Render()
	return nil
}

// WriteYearFilters lists the selectable year filters.
func WriteYearFilters(w io.Writer, filters []types.YearFilter, cfg TableConfig) error {
	tw := newTableWriter(w, cfg.IsTerminal, false)
	tw.SetHeaders("ID", "Label")
	for _, f := range filters {
		tw.AddRow(f.ID, f.Label)
	}
	tw.Render()
	return nil
}

// WriteDates lists KEV dates, one per row.
func WriteDates(w io.Writer, title string, dates []string, cfg TableConfig) error {
	writeHeading(w, title, cfg.IsTerminal)
	tw := newTableWriter(w, cfg.IsTerminal, false)
	tw.SetHeaders("Date Added")
	for _, d := range dates {
		tw.AddRow(d)
	}
	tw.Render()
	return nil
}

// WriteCategoryCounts writes a category distribution.
func WriteCategoryCounts(w io.Writer, title string, counts []types.CategoryCount, cfg TableConfig) error {
	writeHeading(w, title, cfg.IsTerminal)
	total := 0
	for _, c := range counts {
		total += c.Count
	}
	tw := newTableWriter(w, cfg.IsTerminal, false)
	tw.SetHeaders("Category", "Count", "Share")
	for _, c := range counts {
		tw.AddRow(c.Name, strconv.Itoa(c.Count), share(c.Count, total))
	}
	tw.Render()
	return nil
}

// WriteYearCounts writes yearly CVE totals.
func WriteYearCounts(w io.Writer, title string, counts []types.YearCount, cfg TableConfig) error {
	writeHeading(w, title, cfg.IsTerminal)
	tw := newTableWriter(w, cfg.IsTerminal, false)
	tw.SetHeaders("Year", "CVEs")
	for _, c := range counts {
		tw.AddRow(c.Year, strconv.Itoa(c.Count))
	}
	tw.Render()
	return nil
}

// WriteYearCategories writes per-year category counts with one column per
// category in names order.
func WriteYearCategories(w io.Writer, title string, years []types.YearCategories, names []string, cfg TableConfig) error {
	writeHeading(w, title, cfg.IsTerminal)
	tw := newTableWriter(w, cfg.IsTerminal, false)
	tw.SetHeaders(append([]string{"Year", "Total"}, names...)...)
	for _, y := range years {
		cells := []string{y.Year, strconv.Itoa(y.Total)}
		for _, name := range names {
			cells = append(cells, strconv.Itoa(y.Categories[name]))
		}
		tw.AddRow(cells...)
	}
	tw.Render()
	return nil
}

// WriteNotice writes a degraded-result notice.
func WriteNotice(w io.Writer, notice string, isTerminal bool) {
	if notice == "" {
		return
	}
	if isTerminal {
		_ = tml.Fprintf(w, "<yellow>Note:</yellow> %s\n", notice)
		return
	}
	fmt.Fprintf(w, "Note: %s\n", notice)
}

func writeHeading(w io.Writer, title string, isTerminal bool) {
	if title == "" {
		return
	}
	if isTerminal {
		_ = tml.Fprintf(w, "<underline><bold>%s</bold></underline>\n", title)
		return
	}
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, strings.Repeat("=", utf8.RuneCountInString(title)))
}

// newTableWriter creates a bordered table writer with row separators. When
// isTerminal is true, header and line styles use ANSI formatting.
func newTableWriter(w io.Writer, isTerminal, autoMerge bool) *aqtable.Table {
	tw := aqtable.New(w)
	if isTerminal {
		tw.SetHeaderStyle(aqtable.StyleBold)
		tw.SetLineStyle(aqtable.StyleDim)
	}
	tw.SetBorders(true)
	tw.SetAutoMerge(autoMerge)
	tw.SetRowLines(true)
	return tw
}

func headerNames(cfg TableConfig) []string {
	cols := []string{"CVE ID", "Severity", "CVSS", "EPSS", "Published", "Updated", "Source", "Summary"}
	if cfg.ShowRisk {
		cols = append(cols, "Risk")
	}
	if cfg.ShowKEV {
		cols = append(cols, "KEV")
	}
	return cols
}

func rowCells(r *enricher.Ranked, cfg TableConfig) []string {
	severity := r.Severity
	if cfg.IsTerminal {
		severity = colorizeSeverity(severity)
	}
	cols := []string{
		r.CVEID,
		severity,
		r.MaxCVSS,
		r.EPSSScore,
		r.PublishedDate,
		r.UpdatedDate,
		r.Source,
		truncateWords(r.Summary, maxSummaryWords),
	}
	if cfg.ShowRisk {
		cols = append(cols, fmt.Sprintf("%.1f", r.Risk))
	}
	if cfg.ShowKEV {
		cols = append(cols, formatKEV(r.KEV))
	}
	return cols
}

// severitySummary returns a line like:
// Total: 5 (UNKNOWN: 0, LOW: 2, MEDIUM: 1, HIGH: 1, CRITICAL: 1)
func severitySummary(rows []enricher.Ranked) string {
	counts := map[string]int{}
	for _, r := range rows {
		switch r.Severity {
		case enricher.SeverityLow, enricher.SeverityMedium, enricher.SeverityHigh, enricher.SeverityCritical:
			counts[r.Severity]++
		default:
			counts[enricher.SeverityUnknown]++
		}
	}
	return fmt.Sprintf("Total: %d (UNKNOWN: %d, LOW: %d, MEDIUM: %d, HIGH: %d, CRITICAL: %d)",
		len(rows), counts[enricher.SeverityUnknown], counts[enricher.SeverityLow],
		counts[enricher.SeverityMedium], counts[enricher.SeverityHigh], counts[enricher.SeverityCritical])
}

// severityColors maps severity bands to color functions.
var severityColors = map[string]func(a ...any) string{
	enricher.SeverityUnknown:  color.New(color.FgCyan).SprintFunc(),
	enricher.SeverityNone:     color.New(color.FgCyan).SprintFunc(),
	enricher.SeverityLow:      color.New(color.FgBlue).SprintFunc(),
	enricher.SeverityMedium:   color.New(color.FgYellow).SprintFunc(),
	enricher.SeverityHigh:     color.New(color.FgHiRed).SprintFunc(),
	enricher.SeverityCritical: color.New(color.FgRed).SprintFunc(),
}

// colorizeSeverity returns the severity string wrapped in ANSI color codes.
func colorizeSeverity(severity string) string {
	if fn, ok := severityColors[strings.ToUpper(severity)]; ok {
		return fn(severity)
	}
	return severity
}

// truncateWords limits text to maxWords words, appending "..." if truncated.
func truncateWords(text string, maxWords int) string {
	words := strings.Fields(text)
	if len(words) <= maxWords {
		return text
	}
	return strings.Join(words[:maxWords], " ") + "..."
}

func formatKEV(listed bool) string {
	if listed {
		return "YES"
	}
	return "NO"
}

func share(n, total int) string {
	if total == 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", float64(n)*100/float64(total))
}
