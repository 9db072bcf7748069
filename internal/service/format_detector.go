package service

import (
	"encoding/json"
	"strings"
)

// Combined-coordinate format tags.
const (
	FormatCombinedComma   = "combined_comma"
	FormatCombinedSpace   = "combined_space"
	FormatGeoJSON         = "geojson"
	FormatCombinedBracket = "combined_bracket"
)

// autoDetectOrder is the order DetectCombinedFormat tries formats in;
// the first one clearing the acceptance confidence wins.
var autoDetectOrder = []string{
	FormatCombinedComma,
	FormatCombinedSpace,
	FormatGeoJSON,
	FormatCombinedBracket,
}

// FormatDetector classifies whether a single column holds combined
// coordinates and in which encoding.
type FormatDetector struct {
	cfg DetectorConfig
}

// NewFormatDetector creates a format detector with the given thresholds.
func NewFormatDetector(cfg DetectorConfig) *FormatDetector {
	return &FormatDetector{cfg: cfg}
}

// DetectCombinedFormat samples raw column values (10 or fewer recommended)
// and returns the first combined format whose confidence clears the
// acceptance threshold.
func (fd *FormatDetector) DetectCombinedFormat(samples []interface{}) (string, float64, bool) {
	for _, format := range autoDetectOrder {
		confidence := fd.CheckFormat(samples, format)
		if confidence >= fd.cfg.FormatAcceptConfidence {
			return format, confidence, true
		}
	}
	return "", 0, false
}

// CheckFormat returns the fraction of non-empty samples that parse AND
// validate under the given format.
func (fd *FormatDetector) CheckFormat(samples []interface{}, format string) float64 {
	valid := 0
	total := 0

	for _, sample := range samples {
		if isEmptySample(sample) {
			continue
		}
		total++
		if lat, lon, ok := fd.ParseCombined(sample, format); ok {
			if isValidCoordinateCfg(lat, lon, fd.cfg.RejectZeroPair) {
				valid++
			}
		}
	}

	if total == 0 {
		return 0
	}
	return float64(valid) / float64(total)
}

// ParseCombined extracts a (lat, lon) pair from one combined value.
func (fd *FormatDetector) ParseCombined(value interface{}, format string) (float64, float64, bool) {
	switch format {
	case FormatCombinedComma:
		s, ok := value.(string)
		if !ok {
			return 0, 0, false
		}
		return parseSeparated(s, ",")
	case FormatCombinedSpace:
		s, ok := value.(string)
		if !ok {
			return 0, 0, false
		}
		fields := strings.Fields(s)
		if len(fields) != 2 {
			return 0, 0, false
		}
		return parsePair(fields[0], fields[1])
	case FormatGeoJSON:
		return parseGeoJSONPoint(value)
	case FormatCombinedBracket:
		s, ok := value.(string)
		if !ok {
			return 0, 0, false
		}
		s = strings.TrimSpace(s)
		if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") {
			return 0, 0, false
		}
		return parseSeparated(s[1:len(s)-1], ",")
	}
	return 0, 0, false
}

// parseSeparated splits `lat<sep>lon` tolerating up to 5 spaces of padding
// around each part.
func parseSeparated(s, sep string) (float64, float64, bool) {
	parts := strings.SplitN(s, sep, 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	for _, part := range parts {
		if len(part)-len(strings.TrimSpace(part)) > 5 {
			return 0, 0, false
		}
	}
	return parsePair(parts[0], parts[1])
}

func parsePair(latStr, lonStr string) (float64, float64, bool) {
	lat, latOK := ParseCoordinate(strings.TrimSpace(latStr))
	lon, lonOK := ParseCoordinate(strings.TrimSpace(lonStr))
	if !latOK || !lonOK {
		return 0, 0, false
	}
	return lat, lon, true
}

// parseGeoJSONPoint accepts either a decoded object or its JSON string form.
// GeoJSON stores coordinates as [lon, lat].
func parseGeoJSONPoint(value interface{}) (float64, float64, bool) {
	var obj map[string]interface{}

	switch v := value.(type) {
	case map[string]interface{}:
		obj = v
	case string:
		s := strings.TrimSpace(v)
		if !strings.HasPrefix(s, "{") {
			return 0, 0, false
		}
		if err := json.Unmarshal([]byte(s), &obj); err != nil {
			return 0, 0, false
		}
	default:
		return 0, 0, false
	}

	typ, _ := obj["type"].(string)
	if !strings.EqualFold(typ, "Point") {
		return 0, 0, false
	}
	coords, ok := obj["coordinates"].([]interface{})
	if !ok || len(coords) < 2 {
		return 0, 0, false
	}
	lon, lonOK := ParseCoordinate(coords[0])
	lat, latOK := ParseCoordinate(coords[1])
	if !latOK || !lonOK {
		return 0, 0, false
	}
	return lat, lon, true
}

func isEmptySample(v interface{}) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}
