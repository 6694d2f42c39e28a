// SPDX-FileCopyrightText: 2026 Bonial International GmbH
// SPDX-License-Identifier: Apache-2.0

package input

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/bonial-oss/cve-pulse/internal/types"
)

// Shape describes the top-level layout of a backend response body.
type Shape int

const (
	ShapeUnknown Shape = iota
	ShapeArray
	ShapeObject
)

func (s Shape) String() string {
	switch s {
	case ShapeArray:
		return "array"
	case ShapeObject:
		return "object"
	default:
		return "unknown"
	}
}

type ParseResult struct {
	Shape   Shape
	Records []types.RawRecord
}

// Parse extracts record objects from a response body. The backend answers
// either with an array of objects or with an object whose values are the
// records (keys ignored). Any other valid JSON yields no records; only
// invalid JSON is an error. Elements that are not objects are dropped and the
// kept ones are compacted, so re-encoding a record yields the same bytes.
func Parse(data []byte) (*ParseResult, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("invalid JSON body")
	}

	root := gjson.ParseBytes(data)
	result := &ParseResult{}
	switch {
	case root.IsArray():
		result.Shape = ShapeArray
	case root.IsObject():
		result.Shape = ShapeObject
	default:
		return result, nil
	}

	root.ForEach(func(_, value gjson.Result) bool {
		if !value.IsObject() {
			return true
		}
		var buf bytes.Buffer
		if err := json.Compact(&buf, []byte(value.Raw)); err != nil {
			return true
		}
		result.Records = append(result.Records, types.RawRecord(buf.Bytes()))
		return true
	})

	return result, nil
}
