package atalogics

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// CacheKey joins path and fields with "_". Empty fields keep their slot, so
// ("/p", "a", "", "c") yields "/p_a__c".
func CacheKey(path string, fields ...string) string {
	var b strings.Builder
	b.WriteString(path)
	for _, f := range fields {
		b.WriteByte('_')
		b.WriteString(f)
	}
	return b.String()
}

// BodyKey builds a cache key from the top-level fields of a JSON object
// body: path followed by the field values ordered by field name. Strings
// appear verbatim and other values as compact JSON; null is empty.
func BodyKey(path string, body any) (string, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("encode body: %w", err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return "", fmt.Errorf("body is not a JSON object: %w", err)
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	values := make([]string, len(names))
	for i, name := range names {
		values[i] = keyValue(fields[name])
	}
	return path + "_" + strings.Join(values, "_"), nil
}

func keyValue(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	if string(raw) == "null" {
		return ""
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}

// FormatCoord renders a coordinate in its shortest exact decimal form.
func FormatCoord(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
