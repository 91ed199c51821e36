package rfc

import (
	"fmt"
	"strconv"
	"strings"
)

// String returns m[key] as a string. Missing keys yield "".
func String(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}

// TrimmedString returns String(m, key) without surrounding blanks.
func TrimmedString(m map[string]any, key string) string {
	return strings.TrimSpace(String(m, key))
}

// Int returns m[key] as an int, accepting numeric strings. Unparseable or
// missing values yield def.
func Int(m map[string]any, key string, def int) int {
	switch v := m[key].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	case uint32:
		return int(v)
	case float64:
		return int(v)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return def
		}
		return n
	}
	return def
}

// Flag reports whether m[key] is the ABAP boolean "X".
func Flag(m map[string]any, key string) bool {
	return strings.EqualFold(TrimmedString(m, key), "X")
}

// Table returns m[key] as table rows, or nil.
func Table(m map[string]any, key string) []map[string]any {
	switch v := m[key].(type) {
	case []map[string]any:
		return v
	case []any:
		rows := make([]map[string]any, 0, len(v))
		for _, item := range v {
			if row, ok := item.(map[string]any); ok {
				rows = append(rows, row)
			}
		}
		return rows
	}
	return nil
}

// Struct returns m[key] as a structure, or nil.
func Struct(m map[string]any, key string) map[string]any {
	if v, ok := m[key].(map[string]any); ok {
		return v
	}
	return nil
}

// FieldList builds the FIELDS table parameter of RFC_READ_TABLE.
func FieldList(names []string) []map[string]any {
	fields := make([]map[string]any, 0, len(names))
	for _, name := range names {
		fields = append(fields, map[string]any{"FIELDNAME": name})
	}
	return fields
}

// Quote renders s as an ABAP character literal.
func Quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
