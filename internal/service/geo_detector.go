package service

import (
	"math"
	"regexp"
	"strings"

	"github.com/jfilter/timetiles-sub012/internal/models"
)

// GeoColumnDetector decides which column(s) hold coordinates, escalating
// through three strategies: name patterns, combined-column format sniffing,
// and a value-shape heuristic over every column. Each stage returns early
// on success.
type GeoColumnDetector struct {
	cfg     DetectorConfig
	formats *FormatDetector
}

// NewGeoColumnDetector creates a detector with the given thresholds.
func NewGeoColumnDetector(cfg DetectorConfig) *GeoColumnDetector {
	return &GeoColumnDetector{
		cfg:     cfg,
		formats: NewFormatDetector(cfg),
	}
}

// DetectGeoColumns runs the detection pipeline over the column headers and
// a sample of rows. Malformed data never produces an error, only a
// found=false result.
func (d *GeoColumnDetector) DetectGeoColumns(headers []string, rows []map[string]interface{}) models.GeoColumnResult {
	if result, ok := d.detectByPattern(headers, rows); ok {
		return result
	}
	if result, ok := d.detectCombined(headers, rows); ok {
		return result
	}
	if result, ok := d.detectByHeuristic(headers, rows); ok {
		return result
	}
	return models.GeoColumnResult{Type: models.GeoTypeNone}
}

// detectByPattern matches column names against the latitude/longitude
// pattern lists and validates the pair against sampled values.
func (d *GeoColumnDetector) detectByPattern(headers []string, rows []map[string]interface{}) (models.GeoColumnResult, bool) {
	latCol := firstMatchingHeader(headers, latNamePatterns)
	lonCol := firstMatchingHeader(headers, lonNamePatterns)
	if latCol == "" || lonCol == "" || latCol == lonCol {
		return models.GeoColumnResult{}, false
	}

	confidence, swapped, ok := d.validatePair(rows, latCol, lonCol)
	if !ok {
		return models.GeoColumnResult{}, false
	}

	return models.GeoColumnResult{
		Found:              true,
		Type:               models.GeoTypeSeparate,
		LatColumn:          latCol,
		LonColumn:          lonCol,
		Confidence:         confidence,
		DetectionMethod:    models.DetectionPattern,
		SwappedCoordinates: swapped,
	}, true
}

// detectCombined looks for a coordinates/location/position style column and
// runs the format detector over its values.
func (d *GeoColumnDetector) detectCombined(headers []string, rows []map[string]interface{}) (models.GeoColumnResult, bool) {
	col := firstMatchingHeader(headers, combinedNamePatterns)
	if col == "" {
		return models.GeoColumnResult{}, false
	}

	samples := sampleColumnValues(rows, col, d.cfg.PatternSampleRows)
	format, confidence, ok := d.formats.DetectCombinedFormat(samples)
	if !ok {
		return models.GeoColumnResult{}, false
	}

	return models.GeoColumnResult{
		Found:           true,
		Type:            models.GeoTypeCombined,
		CombinedColumn:  col,
		Format:          format,
		Confidence:      confidence,
		DetectionMethod: models.DetectionPattern,
	}, true
}

// columnShape summarizes the coordinate-shaped values of one column.
type columnShape struct {
	name      string
	sampled   int // non-empty samples
	numeric   int // parseable as a coordinate number
	distinct  int
	latValid  int // |v| <= 90
	lonOnly   int // 90 < |v| <= 180
	maxAbs    float64
	coordLike int // |v| <= 180
}

// detectByHeuristic scans every column's value shapes when names give no
// signal, picking the best latitude candidate and the best remaining
// longitude candidate, then re-validating the pair.
func (d *GeoColumnDetector) detectByHeuristic(headers []string, rows []map[string]interface{}) (models.GeoColumnResult, bool) {
	shapes := make([]columnShape, 0, len(headers))
	for _, h := range headers {
		shape := d.scanColumn(rows, h)
		if d.qualifies(shape) {
			shapes = append(shapes, shape)
		}
	}
	if len(shapes) < 2 {
		return models.GeoColumnResult{}, false
	}

	// Best latitude candidate: every numeric value must fit the latitude
	// range, and the valid-as-latitude ratio must clear the threshold.
	latIdx := -1
	bestLatRatio := 0.0
	for i, s := range shapes {
		if s.maxAbs > 90 {
			continue
		}
		ratio := float64(s.latValid) / float64(s.sampled)
		if ratio >= d.cfg.HeuristicAcceptRatio && ratio > bestLatRatio {
			latIdx = i
			bestLatRatio = ratio
		}
	}
	if latIdx < 0 {
		return models.GeoColumnResult{}, false
	}

	// Best remaining longitude candidate: any coordinate-shaped ratio.
	// Columns holding values beyond ±90 can only be longitudes, so they
	// outrank candidates that would also fit the latitude range.
	lonIdx := -1
	bestLonScore := 0.0
	for i, s := range shapes {
		if i == latIdx {
			continue
		}
		ratio := float64(s.coordLike) / float64(s.sampled)
		if ratio < d.cfg.HeuristicAcceptRatio {
			continue
		}
		score := ratio
		if s.lonOnly > 0 {
			score++
		}
		if score > bestLonScore {
			lonIdx = i
			bestLonScore = score
		}
	}
	if lonIdx < 0 {
		return models.GeoColumnResult{}, false
	}

	latCol := shapes[latIdx].name
	lonCol := shapes[lonIdx].name
	confidence, swapped, ok := d.validatePair(rows, latCol, lonCol)
	if !ok {
		return models.GeoColumnResult{}, false
	}

	return models.GeoColumnResult{
		Found:              true,
		Type:               models.GeoTypeSeparate,
		LatColumn:          latCol,
		LonColumn:          lonCol,
		Confidence:         confidence,
		DetectionMethod:    models.DetectionHeuristic,
		SwappedCoordinates: swapped,
	}, true
}

func (d *GeoColumnDetector) scanColumn(rows []map[string]interface{}, col string) columnShape {
	shape := columnShape{name: col}
	distinct := make(map[float64]bool)

	samples := sampleColumnValues(rows, col, d.cfg.HeuristicSampleRows)
	for _, sample := range samples {
		if isEmptySample(sample) {
			continue
		}
		shape.sampled++
		v, ok := ParseCoordinate(sample)
		if !ok {
			continue
		}
		shape.numeric++
		distinct[v] = true
		abs := math.Abs(v)
		if abs > shape.maxAbs {
			shape.maxAbs = abs
		}
		if abs <= 90 {
			shape.latValid++
		} else if abs <= 180 {
			shape.lonOnly++
		}
		if abs <= 180 {
			shape.coordLike++
		}
	}
	shape.distinct = len(distinct)
	return shape
}

// qualifies guards against sparse and constant columns: a candidate needs
// enough numeric values (5, or half the sample for small samples) and more
// than one distinct value.
func (d *GeoColumnDetector) qualifies(shape columnShape) bool {
	if shape.sampled == 0 {
		return false
	}
	need := 5
	if half := shape.sampled / 2; half < need {
		need = half
	}
	if need < 1 {
		need = 1
	}
	return shape.numeric >= need && shape.distinct > 1
}

// validatePair samples up to PatternSampleRows rows and computes the
// directly-valid fraction alongside the swapped-valid fraction. A dominant
// swapped signal wins and flags the pair; otherwise the direct ratio must
// clear the acceptance threshold.
func (d *GeoColumnDetector) validatePair(rows []map[string]interface{}, latCol, lonCol string) (confidence float64, swapped bool, ok bool) {
	direct := 0
	swappedCount := 0
	total := 0

	limit := d.cfg.PatternSampleRows
	if len(rows) < limit {
		limit = len(rows)
	}

	for i := 0; i < limit; i++ {
		row := rows[i]
		lat, latOK := ParseCoordinate(row[latCol])
		lon, lonOK := ParseCoordinate(row[lonCol])
		if !latOK || !lonOK {
			continue
		}
		total++
		if isValidCoordinateCfg(lat, lon, d.cfg.RejectZeroPair) {
			direct++
		}
		if math.Abs(lat) > 90 && math.Abs(lat) <= 180 && math.Abs(lon) <= 90 &&
			isValidCoordinateCfg(lon, lat, d.cfg.RejectZeroPair) {
			swappedCount++
		}
	}

	if total == 0 {
		return 0, false, false
	}

	directRatio := float64(direct) / float64(total)
	swappedRatio := float64(swappedCount) / float64(total)

	if swappedRatio > d.cfg.SwapDominanceRatio && swappedRatio > directRatio {
		return swappedRatio, true, true
	}
	if directRatio >= d.cfg.PairAcceptRatio {
		return directRatio, false, true
	}
	return 0, false, false
}

func firstMatchingHeader(headers []string, patterns []*regexp.Regexp) string {
	for _, h := range headers {
		if matchesAny(patterns, terminalSegment(h)) {
			return h
		}
	}
	return ""
}

// terminalSegment returns the last dotted path segment, lower-cased.
func terminalSegment(path string) string {
	if idx := strings.LastIndex(path, "."); idx >= 0 {
		path = path[idx+1:]
	}
	return strings.ToLower(strings.TrimSpace(path))
}

// sampleColumnValues collects up to limit values of one column.
func sampleColumnValues(rows []map[string]interface{}, col string, limit int) []interface{} {
	samples := make([]interface{}, 0, limit)
	for _, row := range rows {
		if len(samples) >= limit {
			break
		}
		if v, ok := row[col]; ok {
			samples = append(samples, v)
		}
	}
	return samples
}
