package models

import (
	"strconv"
	"strings"
	"time"
)

// Documents come back from the store as loosely typed maps whose numeric fields may be any of
// int, int32, int64 or float64 (Firestore and MongoDB differ) and, for older records, numeric
// strings. These helpers coerce a single value and report whether the coercion succeeded.

// Float coerces v into a float64.
func Float(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(strings.ReplaceAll(n, ",", "")), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// Int coerces v into an int64, truncating fractional values.
func Int(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		return int64(n), true
	case float32:
		return int64(n), true
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			f, ok := Float(n)
			if !ok {
				return 0, false
			}
			return int64(f), true
		}
		return i, true
	}
	return 0, false
}

// Bool coerces v into a bool. Strings "true"/"false" (any case) and numbers are accepted.
func Bool(v any) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(b))
		if err != nil {
			return false, false
		}
		return parsed, true
	}
	if n, ok := Int(v); ok {
		return n != 0, true
	}
	return false, false
}

// String coerces v into a trimmed string. Numbers are formatted without exponent.
func String(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s), true
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64), true
	case int64:
		return strconv.FormatInt(s, 10), true
	case int:
		return strconv.Itoa(s), true
	}
	return "", false
}

// Time coerces v into a time.Time. Accepts time.Time, RFC3339 strings, and unix milliseconds.
func Time(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, !t.IsZero()
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return *t, !t.IsZero()
	case string:
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
			if parsed, err := time.Parse(layout, strings.TrimSpace(t)); err == nil {
				return parsed, true
			}
		}
		return time.Time{}, false
	}
	if ms, ok := Int(v); ok && ms > 0 {
		return time.UnixMilli(ms).UTC(), true
	}
	return time.Time{}, false
}

// Map returns v as a map when it is one.
func Map(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

// Slice returns v as a slice when it is one.
func Slice(v any) ([]any, bool) {
	switch s := v.(type) {
	case []any:
		return s, true
	case []map[string]any:
		out := make([]any, 0, len(s))
		for _, m := range s {
			out = append(out, m)
		}
		return out, true
	case []string:
		out := make([]any, 0, len(s))
		for _, str := range s {
			out = append(out, str)
		}
		return out, true
	}
	return nil, false
}

// First returns the value of the first key present in doc, in order.
func First(doc map[string]any, keys ...string) (any, string, bool) {
	for _, k := range keys {
		if v, ok := doc[k]; ok && v != nil {
			return v, k, true
		}
	}
	return nil, "", false
}

// FirstString returns the first key in doc holding a non-empty string.
func FirstString(doc map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := String(doc[k]); ok && s != "" {
			return s
		}
	}
	return ""
}
