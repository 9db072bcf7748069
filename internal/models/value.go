package models

import (
	"math"
	"regexp"
	"strings"
	"time"
)

// Type tags used in FieldStatistics.TypeDistribution. Strings are further
// sniffed so that ISO dates and boolean-ish strings get their own tag.
const (
	TypeNull          = "null"
	TypeUndefined     = "undefined"
	TypeArray         = "array"
	TypeObject        = "object"
	TypeString        = "string"
	TypeInteger       = "integer"
	TypeNumber        = "number"
	TypeBooleanString = "boolean-string"
	TypeDate          = "date"
)

var isoDatePrefix = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)

var booleanStrings = map[string]bool{
	"true": true, "false": true,
	"yes": true, "no": true,
	"y": true, "n": true,
}

// ClassifyValue maps a raw row value onto one of the type tags above.
// Row values come from JSON or CSV decoding, so the concrete types are
// nil, bool, float64, int variants, string, time.Time, []interface{}
// and map[string]interface{}.
func ClassifyValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return TypeNull
	case bool:
		return TypeBooleanString
	case int, int32, int64:
		return TypeInteger
	case float32:
		if val == float32(math.Trunc(float64(val))) {
			return TypeInteger
		}
		return TypeNumber
	case float64:
		if val == math.Trunc(val) && !math.IsInf(val, 0) && !math.IsNaN(val) {
			return TypeInteger
		}
		return TypeNumber
	case time.Time:
		return TypeDate
	case []interface{}:
		return TypeArray
	case map[string]interface{}:
		return TypeObject
	case string:
		trimmed := strings.TrimSpace(val)
		if booleanStrings[strings.ToLower(trimmed)] {
			return TypeBooleanString
		}
		if isoDatePrefix.MatchString(trimmed) && isParseableDate(trimmed) {
			return TypeDate
		}
		return TypeString
	default:
		return TypeString
	}
}

// IsScalar reports whether a value is safe to keep as a unique sample.
func IsScalar(v interface{}) bool {
	switch v.(type) {
	case nil, []interface{}, map[string]interface{}:
		return false
	default:
		return true
	}
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func isParseableDate(s string) bool {
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}
