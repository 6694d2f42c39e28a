// SPDX-FileCopyrightText: 2026 Bonial International GmbH
// SPDX-License-Identifier: Apache-2.0

package types

// KEVEntry is a single known-exploited entry as served by the backend's
// per-year endpoint. Only the fields the client filters on are typed.
type KEVEntry struct {
	CVEID     string `json:"cveid"`
	DateAdded string `json:"cisakevadded"`
}

// YearCount is the number of CVEs published in a year.
type YearCount struct {
	Year  string `json:"year"`
	Count int    `json:"count"`
}

// CategoryCount is the number of records matching a category.
type CategoryCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// YearCategories holds the per-category counts for one published year.
type YearCategories struct {
	Year       string         `json:"year"`
	Total      int            `json:"total"`
	Categories map[string]int `json:"categories"`
}
