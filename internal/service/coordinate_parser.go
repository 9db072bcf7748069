package service

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/jfilter/timetiles-sub012/internal/models"
)

// Coordinate string shapes tried in order: plain decimal, degree-minute-second
// with optional direction, decimal with direction suffix.
var (
	dmsPattern = regexp.MustCompile(
		`^(?i)(\d{1,3}(?:\.\d+)?)\s*[°ºd:\s]\s*(\d{1,2}(?:\.\d+)?)\s*['′m:\s]?\s*(?:(\d{1,2}(?:\.\d+)?)\s*["″s]?)?\s*([NSEW])?$`)
	decimalDirPattern = regexp.MustCompile(`^(?i)(-?\d{1,3}(?:\.\d+)?)\s*°?\s*([NSEW])$`)
)

// ParseCoordinate converts a raw cell value into decimal degrees. Numbers
// pass through unchanged; strings are tried against the supported shapes.
// Anything unparseable returns ok=false — this is a best-effort primitive
// and never reports an error.
func ParseCoordinate(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return v, true
	case float32:
		return ParseCoordinate(float64(v))
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		return parseCoordinateString(v)
	default:
		return 0, false
	}
}

func parseCoordinateString(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	// Plain decimal
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v, true
	}

	// Degree-minute-second, e.g. `40° 42' 46" N`
	if m := dmsPattern.FindStringSubmatch(s); m != nil {
		deg, err1 := strconv.ParseFloat(m[1], 64)
		min, err2 := strconv.ParseFloat(m[2], 64)
		if err1 != nil || err2 != nil || min >= 60 {
			return 0, false
		}
		sec := 0.0
		if m[3] != "" {
			var err error
			sec, err = strconv.ParseFloat(m[3], 64)
			if err != nil || sec >= 60 {
				return 0, false
			}
		}
		v := deg + min/60 + sec/3600
		if isNegativeDirection(m[4]) {
			v = -v
		}
		return v, true
	}

	// Decimal with direction suffix, e.g. `74.0060 W`
	if m := decimalDirPattern.FindStringSubmatch(s); m != nil {
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return 0, false
		}
		if isNegativeDirection(m[2]) {
			v = -v
		}
		return v, true
	}

	return 0, false
}

func isNegativeDirection(dir string) bool {
	switch strings.ToUpper(dir) {
	case "S", "W":
		return true
	}
	return false
}

// IsValidCoordinate checks range sanity for a decimal-degree pair. An exact
// (0, 0) pair is rejected as a placeholder rather than a point off West
// Africa; see DetectorConfig.RejectZeroPair for the overridable variant.
func IsValidCoordinate(lat, lon float64) bool {
	return isValidCoordinateCfg(lat, lon, true)
}

func isValidCoordinateCfg(lat, lon float64, rejectZeroPair bool) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) {
		return false
	}
	if math.Abs(lat) > 90 || math.Abs(lon) > 180 {
		return false
	}
	if rejectZeroPair && lat == 0 && lon == 0 {
		return false
	}
	return true
}

// ValidateCoordinatePair parses and validates one raw (lat, lon) pair,
// including swap detection: a |lat| in (90, 180] that validates once the
// operands are exchanged is reported as swapped with the corrected values.
func ValidateCoordinatePair(latValue, lonValue interface{}, cfg DetectorConfig) models.ValidatedCoordinates {
	lat, latOK := ParseCoordinate(latValue)
	lon, lonOK := ParseCoordinate(lonValue)

	if !latOK || !lonOK {
		return models.ValidatedCoordinates{
			ValidationStatus: models.CoordInvalid,
		}
	}

	if cfg.RejectZeroPair && lat == 0 && lon == 0 {
		return models.ValidatedCoordinates{
			Latitude:         lat,
			Longitude:        lon,
			ValidationStatus: models.CoordSuspiciousZero,
			Confidence:       0.1,
		}
	}

	if isValidCoordinateCfg(lat, lon, cfg.RejectZeroPair) {
		return models.ValidatedCoordinates{
			Latitude:         lat,
			Longitude:        lon,
			IsValid:          true,
			ValidationStatus: models.CoordValid,
			Confidence:       1.0,
		}
	}

	// Swapped? Longitude's valid range exceeds latitude's, so a latitude
	// beyond 90 that fits as longitude is the giveaway.
	if math.Abs(lat) > 90 && math.Abs(lat) <= 180 && math.Abs(lon) <= 90 &&
		isValidCoordinateCfg(lon, lat, cfg.RejectZeroPair) {
		return models.ValidatedCoordinates{
			Latitude:         lon,
			Longitude:        lat,
			IsValid:          true,
			ValidationStatus: models.CoordSwapped,
			Confidence:       0.8,
			WasSwapped:       true,
		}
	}

	return models.ValidatedCoordinates{
		Latitude:         lat,
		Longitude:        lon,
		ValidationStatus: models.CoordOutOfRange,
	}
}
