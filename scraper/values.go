package scraper

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Tolerant accessors over decoded JSON. Anything of the wrong shape reads as
// absent so one odd field never spoils the rest of a listing.

func asMap(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

func asSlice(v any) ([]any, bool) {
	s, ok := v.([]any)
	return s, ok
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

// asText accepts strings and numbers, for ids that arrive either way.
func asText(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		return asString(val)
	case json.Number:
		return val.String(), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case int:
		return strconv.Itoa(val), true
	}
	return "", false
}

func asFloat(v any) (float64, bool) {
	var f float64
	switch val := v.(type) {
	case float64:
		f = val
	case int:
		f = float64(val)
	case int64:
		f = float64(val)
	case json.Number:
		parsed, err := val.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func asInt(v any) (int, bool) {
	f, ok := asFloat(v)
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

// truthy follows JSON-ish truthiness: false, zero, empty and null are false.
func truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return val != ""
	case []any:
		return len(val) > 0
	case map[string]any:
		return len(val) > 0
	}
	if f, ok := asFloat(v); ok {
		return f != 0
	}
	return true
}

// pick returns the first truthy value among keys.
func pick(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v := m[k]; truthy(v) {
			return v
		}
	}
	return nil
}

// firstName reads the name of the first element of a list-valued field. A
// bare object is treated as a one-element list.
func firstName(v any) (string, bool) {
	if list, ok := asSlice(v); ok {
		if len(list) == 0 {
			return "", false
		}
		v = list[0]
	}
	m, ok := asMap(v)
	if !ok {
		return "", false
	}
	return asString(m["name"])
}

func containsAny(s string, keywords []string) bool {
	s = strings.ToLower(s)
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

func ptrString(s string, ok bool) *string {
	if !ok {
		return nil
	}
	return &s
}

func ptrInt(i int, ok bool) *int {
	if !ok || i < 0 {
		return nil
	}
	return &i
}

func ptrPositive(f float64, ok bool) *float64 {
	if !ok || f <= 0 {
		return nil
	}
	return &f
}
