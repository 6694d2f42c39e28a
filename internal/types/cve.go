// SPDX-FileCopyrightText: 2026 Bonial International GmbH
// SPDX-License-Identifier: Apache-2.0

package types

import (
	"encoding/json"
	"time"
)

// Sentinels used by normalization when the backend omits a field.
const (
	NotAvailable     = "N/A"
	UnknownSource    = "Unknown Source"
	NoSummary        = "No summary available"
	UnknownIDPrefix  = "Unknown-"
	AllYears         = "all"
	AllYearsLabel    = "All Years"
	SnapshotValidity = 24 * time.Hour
)

// RawRecord is a single CVE object exactly as the backend returned it. The
// shape varies between years, so it is kept as raw JSON and resolved field by
// field during normalization.
type RawRecord = json.RawMessage

// Record is the canonical CVE shape handed to the rendering layer.
type Record struct {
	CVEID         string `json:"cveid"`
	EPSSScore     string `json:"epssscore"`
	MaxCVSS       string `json:"maxcvss"`
	PublishedDate string `json:"publisheddate"`
	Source        string `json:"source"`
	Summary       string `json:"summary"`
	UpdatedDate   string `json:"updateddate"`
}

// YearBucket pairs a year with the raw records fetched for it.
type YearBucket struct {
	Year string      `json:"year"`
	Data []RawRecord `json:"data"`
}

// Snapshot is the persisted result of one full fetch cycle. It is only ever
// replaced as a whole.
type Snapshot struct {
	YearBuckets       []YearBucket `json:"yearBuckets"`
	NormalizedRecords []Record     `json:"normalizedRecords"`
	YearsWithData     []string     `json:"yearsWithData"`
	// Timestamp is the creation instant in epoch milliseconds.
	Timestamp int64 `json:"timestamp"`
}

// CreatedAt returns the snapshot timestamp as a time.Time.
func (s *Snapshot) CreatedAt() time.Time {
	return time.UnixMilli(s.Timestamp)
}

// ValidAt reports whether the snapshot is still usable at now for the given
// validity window.
func (s *Snapshot) ValidAt(now time.Time, validity time.Duration) bool {
	return now.Sub(s.CreatedAt()) < validity
}

// YearFilter is one option of the year selector.
type YearFilter struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}
