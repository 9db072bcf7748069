package service

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jfilter/timetiles-sub012/internal/models"
)

// Weights for combining a name-pattern match with content validation.
const (
	patternWeight = 0.6
	contentWeight = 0.4
)

// FieldMappingDetector picks the best column for each semantic role using
// language-aware name patterns plus content-shape validation over the
// accumulated statistics. Latitude/longitude/location roles are delegated
// to the geo-column detector.
type FieldMappingDetector struct {
	cfg DetectorConfig
	geo *GeoColumnDetector
}

// NewFieldMappingDetector creates a detector with the given thresholds.
func NewFieldMappingDetector(cfg DetectorConfig) *FieldMappingDetector {
	return &FieldMappingDetector{
		cfg: cfg,
		geo: NewGeoColumnDetector(cfg),
	}
}

// DetectMappings resolves all semantic roles for one import. Columns must be
// in declaration order (ties break toward the earlier column); rows are a
// sample used for geo validation.
func (d *FieldMappingDetector) DetectMappings(columns []string, stats map[string]*models.FieldStatistics, rows []map[string]interface{}, language string) models.FieldMappingResult {
	result := models.FieldMappingResult{
		Confidences: make(map[string]float64),
	}

	table := patternsForLanguage(language)
	fallback := languagePatterns[DefaultLanguage]

	roles := []struct {
		name     string
		patterns []*regexp.Regexp
		fallback []*regexp.Regexp
		validate func(*models.FieldStatistics) float64
		// requireContent rejects the column outright when the validator
		// scores 0; only the timestamp role demands content evidence.
		requireContent bool
		assign         func(*models.FieldMappings, string)
	}{
		{models.RoleTitle, table.Title, fallback.Title, validateTitle, false,
			func(m *models.FieldMappings, c string) { m.TitlePath = c }},
		{models.RoleDescription, table.Description, fallback.Description, validateDescription, false,
			func(m *models.FieldMappings, c string) { m.DescriptionPath = c }},
		{models.RoleLocationName, table.LocationName, fallback.LocationName, validateLocationName, false,
			func(m *models.FieldMappings, c string) { m.LocationNamePath = c }},
		{models.RoleTimestamp, table.Timestamp, fallback.Timestamp, validateTimestamp, true,
			func(m *models.FieldMappings, c string) { m.TimestampPath = c }},
	}

	for _, role := range roles {
		col, score := d.scoreRole(columns, stats, role.patterns, role.validate, role.requireContent)
		if col == "" && language != DefaultLanguage {
			col, score = d.scoreRole(columns, stats, role.fallback, role.validate, role.requireContent)
		}
		if col != "" {
			role.assign(&result.Mappings, col)
			result.Confidences[role.name] = score
		}
	}

	d.detectGeoRoles(&result, columns, stats, rows)
	return result
}

// scoreRole scores every pattern-matched column as
// patternWeight*(1 - i/n) + contentWeight*validation and returns the winner.
// With requireContent a zero validation score rejects the candidate outright;
// otherwise the name signal alone carries the column.
func (d *FieldMappingDetector) scoreRole(columns []string, stats map[string]*models.FieldStatistics, patterns []*regexp.Regexp, validate func(*models.FieldStatistics) float64, requireContent bool) (string, float64) {
	bestCol := ""
	bestScore := 0.0
	n := float64(len(patterns))

	for _, col := range columns {
		idx := matchPatternIndex(patterns, terminalSegment(col))
		if idx < 0 {
			continue
		}
		s, ok := stats[col]
		if !ok || s.Occurrences == 0 {
			continue
		}
		content := validate(s)
		if requireContent && content == 0 {
			continue
		}
		patternScore := 1 - float64(idx)/n
		score := patternWeight*patternScore + contentWeight*content
		if score > bestScore {
			bestCol = col
			bestScore = score
		}
	}
	return bestCol, bestScore
}

// detectGeoRoles resolves latitude, longitude and free-text location via the
// geo detector and the per-field confidence scorer.
func (d *FieldMappingDetector) detectGeoRoles(result *models.FieldMappingResult, columns []string, stats map[string]*models.FieldStatistics, rows []map[string]interface{}) {
	geo := d.geo.DetectGeoColumns(columns, rows)
	result.Geo = geo

	switch geo.Type {
	case models.GeoTypeSeparate:
		result.Mappings.LatitudePath = geo.LatColumn
		result.Mappings.LongitudePath = geo.LonColumn
		result.Confidences[models.RoleLatitude] = d.geoFieldConfidence(geo.LatColumn, stats[geo.LatColumn], latNamePatterns, 90)
		result.Confidences[models.RoleLongitude] = d.geoFieldConfidence(geo.LonColumn, stats[geo.LonColumn], lonNamePatterns, 180)
	case models.GeoTypeCombined:
		result.Mappings.LocationPath = geo.CombinedColumn
		result.Confidences[models.RoleLocation] = geo.Confidence
	default:
		// No coordinate columns: look for a free-text address column the
		// caller can feed to geocoding.
		for _, col := range columns {
			if !matchesAny(addressNamePatterns, terminalSegment(col)) {
				continue
			}
			s, ok := stats[col]
			if !ok || s.TypeRatio(models.TypeString) < 0.7 {
				continue
			}
			result.Mappings.LocationPath = col
			result.Confidences[models.RoleLocation] = d.geoFieldConfidence(col, s, addressNamePatterns, 0)
			break
		}
	}
}

// geoFieldConfidence weights pattern quality (0.4), value validity within the
// expected bound (0.3), dominant-type consistency (0.2) and completeness
// (0.1). A zero bound means a free-text field, where validity is the string
// ratio instead of a numeric range check.
func (d *FieldMappingDetector) geoFieldConfidence(col string, s *models.FieldStatistics, patterns []*regexp.Regexp, bound float64) float64 {
	if s == nil {
		return 0
	}

	patternQuality := 0.0
	if idx := matchPatternIndex(patterns, terminalSegment(col)); idx >= 0 {
		patternQuality = 1 - float64(idx)/float64(len(patterns))
	}

	validity := 0.0
	if bound > 0 {
		inRange := 0
		for _, sample := range s.UniqueSamples {
			if v, ok := ParseCoordinate(sample); ok && v >= -bound && v <= bound {
				inRange++
			}
		}
		if len(s.UniqueSamples) > 0 {
			validity = float64(inRange) / float64(len(s.UniqueSamples))
		}
	} else {
		validity = s.TypeRatio(models.TypeString)
	}

	_, typeRatio := s.DominantType()

	return 0.4*patternQuality + 0.3*validity + 0.2*typeRatio + 0.1*s.Completeness()
}

// Content validators. Each returns 0 when the column's shape rules out the
// role, 1.0 in the ideal range, and degrades linearly in between.

func validateTitle(s *models.FieldStatistics) float64 {
	if s.TypeRatio(models.TypeString) < 0.8 {
		return 0
	}
	return lengthScore(avgSampleStringLength(s), 10, 100, 3, 500)
}

func validateDescription(s *models.FieldStatistics) float64 {
	if s.TypeRatio(models.TypeString) < 0.7 {
		return 0
	}
	return lengthScore(avgSampleStringLength(s), 20, 500, 5, 5000)
}

func validateLocationName(s *models.FieldStatistics) float64 {
	if s.TypeRatio(models.TypeString) < 0.7 {
		return 0
	}
	return lengthScore(avgSampleStringLength(s), 3, 50, 1, 200)
}

// validateTimestamp runs four independent checks in order and returns the
// first positive score; a column failing all four is rejected regardless of
// how well its name matched.
func validateTimestamp(s *models.FieldStatistics) float64 {
	// (a) Native dates or ISO-prefixed strings dominate the samples.
	if frac := dateSampleFraction(s); frac >= 0.7 {
		score := 0.8 + 0.2*frac
		if score > 1 {
			score = 1
		}
		return score
	}

	// (b) Format counters already saw date/dateTime shapes.
	dateCount := s.Formats[models.FormatDate] + s.Formats[models.FormatDateTime]
	if dateCount > 0 {
		coverage := float64(dateCount) / float64(s.NonNullCount())
		if coverage > 1 {
			coverage = 1
		}
		return 0.7 + 0.3*coverage
	}

	// (c) Generic parsing of sampled strings.
	if hitRate := genericDateParseRate(s); hitRate >= 0.5 {
		return 0.5 + 0.4*hitRate
	}

	// (d) Numeric values in a plausible Unix-epoch range.
	if ns := s.NumericStats; ns != nil {
		if (ns.Min >= 1e8 && ns.Max <= 4e9) || (ns.Min >= 1e11 && ns.Max <= 4e12) {
			return 0.8
		}
	}

	return 0
}

func dateSampleFraction(s *models.FieldStatistics) float64 {
	if len(s.UniqueSamples) == 0 {
		return 0
	}
	hits := 0
	for _, sample := range s.UniqueSamples {
		switch v := sample.(type) {
		case time.Time:
			hits++
		case string:
			if isoDatePrefixPattern.MatchString(strings.TrimSpace(v)) {
				hits++
			}
		}
	}
	return float64(hits) / float64(len(s.UniqueSamples))
}

var isoDatePrefixPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)

// genericDateLayouts mirrors the formats real spreadsheet exports use.
var genericDateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02/01/2006",
	"01/02/2006",
	"2006/01/02",
	"02.01.2006",
	"02-Jan-2006",
	"January 2, 2006",
}

func genericDateParseRate(s *models.FieldStatistics) float64 {
	strs := 0
	hits := 0
	for _, sample := range s.UniqueSamples {
		str, ok := sample.(string)
		if !ok {
			continue
		}
		strs++
		if parsesAsDate(strings.TrimSpace(str)) {
			hits++
		}
	}
	if strs == 0 {
		return 0
	}
	return float64(hits) / float64(strs)
}

func parsesAsDate(s string) bool {
	if s == "" {
		return false
	}
	// Bare numbers parse as day-of-year in some layouts; exclude them.
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return false
	}
	for _, layout := range genericDateLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

// lengthScore is 1.0 inside [idealMin, idealMax], 0 outside [hardMin,
// hardMax], and linear in between.
func lengthScore(avg, idealMin, idealMax, hardMin, hardMax float64) float64 {
	if avg <= 0 {
		return 0
	}
	if avg >= idealMin && avg <= idealMax {
		return 1
	}
	if avg < hardMin || avg > hardMax {
		return 0
	}
	if avg < idealMin {
		return (avg - hardMin) / (idealMin - hardMin)
	}
	return (hardMax - avg) / (hardMax - idealMax)
}

func avgSampleStringLength(s *models.FieldStatistics) float64 {
	total := 0
	count := 0
	for _, sample := range s.UniqueSamples {
		if str, ok := sample.(string); ok {
			total += len([]rune(str))
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return float64(total) / float64(count)
}
