// SPDX-FileCopyrightText: 2026 Bonial International GmbH
// SPDX-License-Identifier: Apache-2.0

package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/bonial-oss/cve-pulse/internal/enricher"
)

// Listing is the JSON document for a filtered record view. Notice is set
// when the view is degraded, e.g. KEV data could not be loaded.
type Listing struct {
	Year    string            `json:"year"`
	Total   int               `json:"total"`
	Notice  string            `json:"notice,omitempty"`
	Records []enricher.Ranked `json:"records"`
}

// NewListing builds a Listing, never with a nil record slice.
func NewListing(year, notice string, rows []enricher.Ranked) Listing {
	if rows == nil {
		rows = []enricher.Ranked{}
	}
	return Listing{Year: year, Total: len(rows), Notice: notice, Records: rows}
}

// WriteJSON writes data as indented JSON without HTML escaping, so summaries
// containing <, > or & stay readable.
func WriteJSON(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("encoding JSON output: %w", err)
	}
	return nil
}
