// Package drivers holds parameter helpers shared by the built-in node drivers.
package drivers

import (
	"encoding/json"
	"strconv"
	"strings"
)

// String returns params[name] as a string, or "" when absent.
func String(params map[string]any, name string) string {
	switch v := params[name].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return strings.TrimSpace(strings.Trim(mustJSON(v), `"`))
	}
}

// Int returns params[name] as an int, falling back to def. JSON numbers
// arrive as float64 and numeric strings are accepted.
func Int(params map[string]any, name string, def int) int {
	switch v := params[name].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}

	return def
}

// StringMap returns params[name] as a map of strings.
func StringMap(params map[string]any, name string) map[string]string {
	out := make(map[string]string)

	switch v := params[name].(type) {
	case map[string]string:
		for k, val := range v {
			out[k] = val
		}
	case map[string]any:
		for k, val := range v {
			if s, ok := val.(string); ok {
				out[k] = s
			}
		}
	}

	return out
}

// Truthy converts various types to boolean.
func Truthy(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}

		return strings.TrimSpace(v) != ""
	case int:
		return v != 0
	case int64:
		return v != 0
	case float64:
		return v != 0.0
	case []any:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	default:
		return false
	}
}

// SplitList splits a comma separated list, dropping empty entries.
func SplitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))

	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}

	return out
}

func mustJSON(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return ""
	}

	return string(raw)
}
