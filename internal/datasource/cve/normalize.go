// SPDX-FileCopyrightText: 2026 Bonial International GmbH
// SPDX-License-Identifier: Apache-2.0

package cve

import (
	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/bonial-oss/cve-pulse/internal/types"
)

// Normalize resolves the field aliases of a raw record into the canonical
// shape, applying defaults for anything missing. It never fails.
func Normalize(raw types.RawRecord, year string) types.Record {
	r := gjson.ParseBytes(raw)

	id := first(r, "id", "cveid")
	if id == "" {
		id = types.UnknownIDPrefix + uuid.NewString()
	}

	published := first(r, "published", "publisheddate")
	if published == "" {
		published = year + "-01-01"
	}

	updated := first(r, "lastModified", "updateddate")
	if updated == "" {
		updated = published
	}

	return types.Record{
		CVEID:         id,
		EPSSScore:     orDefault(first(r, "epssscore"), types.NotAvailable),
		MaxCVSS:       orDefault(first(r, "cvss", "maxcvss"), types.NotAvailable),
		PublishedDate: published,
		Source:        orDefault(first(r, "source"), types.UnknownSource),
		Summary:       orDefault(first(r, "summary"), types.NoSummary),
		UpdatedDate:   updated,
	}
}

// first returns the first of keys holding a usable value. null, false, ""
// and 0 count as missing.
func first(r gjson.Result, keys ...string) string {
	for _, key := range keys {
		if v := value(r.Get(key)); v != "" {
			return v
		}
	}
	return ""
}

func value(v gjson.Result) string {
	switch v.Type {
	case gjson.String:
		return v.Str
	case gjson.Number:
		if v.Num == 0 {
			return ""
		}
		return v.Raw
	case gjson.True:
		return "true"
	case gjson.JSON:
		return v.Raw
	default:
		return ""
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
