// Package domain defines the core persistence models for the application.
// This file implements StringList, a JSON-backed ordered list of strings used
// for recipe ingredients and steps.
package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// StringList is an ordered sequence of strings stored as a JSON array in a
// single TEXT column. It implements driver.Valuer and sql.Scanner so GORM can
// persist it transparently.
//
// Scanning is deliberately forgiving: rows written by older clients may hold
// a bare string, a JSON array of mixed scalars, or nothing at all. Scan
// coerces whatever it finds into a clean []string instead of failing the
// whole row.
type StringList []string

// Value serializes the list as a JSON array. A nil list is stored as "[]"
// so the column never holds SQL NULL.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan parses the stored column value into the list. It accepts []byte,
// string, and nil sources and degrades per-element rather than erroring:
//   - a JSON array keeps its order; non-string elements are stringified and
//     null elements are skipped
//   - a plain non-JSON string becomes a single-element list
//   - empty input becomes an empty list
func (l *StringList) Scan(src any) error {
	var raw string
	switch v := src.(type) {
	case nil:
		*l = StringList{}
		return nil
	case []byte:
		raw = string(v)
	case string:
		raw = v
	default:
		return fmt.Errorf("stringlist: unsupported source type %T", src)
	}

	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		*l = StringList{}
		return nil
	}

	if strings.HasPrefix(raw, "[") {
		var items []any
		if err := json.Unmarshal([]byte(raw), &items); err == nil {
			out := make(StringList, 0, len(items))
			for _, it := range items {
				switch s := it.(type) {
				case nil:
					// skip
				case string:
					out = append(out, s)
				default:
					out = append(out, fmt.Sprint(s))
				}
			}
			*l = out
			return nil
		}
	}

	// Legacy rows may hold a bare (possibly JSON-quoted) string.
	var single string
	if err := json.Unmarshal([]byte(raw), &single); err == nil {
		if single == "" {
			*l = StringList{}
		} else {
			*l = StringList{single}
		}
		return nil
	}
	*l = StringList{raw}
	return nil
}
