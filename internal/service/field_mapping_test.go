package service

import (
	"fmt"
	"strings"
	"testing"

	"github.com/jfilter/timetiles-sub012/internal/models"
)

// buildEventRows creates realistic event rows with the given column names.
func buildEventRows(n int, titleCol, descCol, venueCol, dateCol, latCol, lonCol string) []map[string]interface{} {
	rows := make([]map[string]interface{}, n)
	for i := 0; i < n; i++ {
		rows[i] = map[string]interface{}{
			titleCol: fmt.Sprintf("Summer concert number %d", i),
			descCol:  strings.Repeat("An evening of live music in the park. ", 2) + fmt.Sprintf("Edition %d.", i),
			venueCol: fmt.Sprintf("City Hall %d", i),
			dateCol:  fmt.Sprintf("2024-06-%02d", i%28+1),
			latCol:   48.1 + float64(i)*0.01,
			lonCol:   11.5 + float64(i)*0.01,
		}
	}
	return rows
}

func TestDetectMappingsEnglish(t *testing.T) {
	d := NewFieldMappingDetector(DefaultDetectorConfig())
	columns := []string{"title", "description", "venue", "date", "lat", "lon"}
	rows := buildEventRows(10, "title", "description", "venue", "date", "lat", "lon")
	stats := NewFieldStatsTracker().ProcessBatch(nil, rows)

	result := d.DetectMappings(columns, stats, rows, "eng")

	m := result.Mappings
	if m.TitlePath != "title" {
		t.Errorf("title: got %q", m.TitlePath)
	}
	if m.DescriptionPath != "description" {
		t.Errorf("description: got %q", m.DescriptionPath)
	}
	if m.LocationNamePath != "venue" {
		t.Errorf("locationName: got %q", m.LocationNamePath)
	}
	if m.TimestampPath != "date" {
		t.Errorf("timestamp: got %q", m.TimestampPath)
	}
	if m.LatitudePath != "lat" || m.LongitudePath != "lon" {
		t.Errorf("geo paths: got (%q, %q)", m.LatitudePath, m.LongitudePath)
	}

	for _, role := range []string{
		models.RoleTitle, models.RoleDescription, models.RoleLocationName,
		models.RoleTimestamp, models.RoleLatitude, models.RoleLongitude,
	} {
		if result.Confidences[role] <= 0 {
			t.Errorf("confidence for %s missing", role)
		}
	}
	if result.Geo.Type != models.GeoTypeSeparate {
		t.Errorf("geo type: got %s", result.Geo.Type)
	}
}

func TestDetectMappingsGerman(t *testing.T) {
	d := NewFieldMappingDetector(DefaultDetectorConfig())
	columns := []string{"titel", "beschreibung", "veranstaltungsort", "datum"}
	rows := buildEventRows(10, "titel", "beschreibung", "veranstaltungsort", "datum", "breite", "laenge")
	for i := range rows {
		delete(rows[i], "breite")
		delete(rows[i], "laenge")
	}
	stats := NewFieldStatsTracker().ProcessBatch(nil, rows)

	result := d.DetectMappings(columns, stats, rows, "deu")

	m := result.Mappings
	if m.TitlePath != "titel" {
		t.Errorf("title: got %q", m.TitlePath)
	}
	if m.DescriptionPath != "beschreibung" {
		t.Errorf("description: got %q", m.DescriptionPath)
	}
	if m.LocationNamePath != "veranstaltungsort" {
		t.Errorf("locationName: got %q", m.LocationNamePath)
	}
	if m.TimestampPath != "datum" {
		t.Errorf("timestamp: got %q", m.TimestampPath)
	}
}

func TestDetectMappingsEnglishFallback(t *testing.T) {
	d := NewFieldMappingDetector(DefaultDetectorConfig())

	// Swahili has no pattern table, but the English column names must still
	// resolve through the fallback.
	columns := []string{"title", "date"}
	rows := buildEventRows(8, "title", "desc_unused", "venue_unused", "date", "lat_unused", "lon_unused")
	stats := NewFieldStatsTracker().ProcessBatch(nil, rows)

	result := d.DetectMappings(columns, stats, rows, "swa")
	if result.Mappings.TitlePath != "title" {
		t.Errorf("fallback title: got %q", result.Mappings.TitlePath)
	}
	if result.Mappings.TimestampPath != "date" {
		t.Errorf("fallback timestamp: got %q", result.Mappings.TimestampPath)
	}
}

func TestDetectMappingsNameSignalSurvivesZeroContent(t *testing.T) {
	d := NewFieldMappingDetector(DefaultDetectorConfig())

	// A column named exactly "title" whose average string length is way past
	// the ideal range still maps on the name signal alone, at reduced
	// confidence.
	columns := []string{"title"}
	var rows []map[string]interface{}
	for i := 0; i < 10; i++ {
		rows = append(rows, map[string]interface{}{
			"title": strings.Repeat("long body text ", 40) + fmt.Sprintf("%d", i),
		})
	}
	stats := NewFieldStatsTracker().ProcessBatch(nil, rows)

	result := d.DetectMappings(columns, stats, rows, "eng")
	if result.Mappings.TitlePath != "title" {
		t.Fatalf("exact name match must survive a zero content score, got %q", result.Mappings.TitlePath)
	}
	conf := result.Confidences[models.RoleTitle]
	if conf <= 0 || conf > patternWeight+1e-9 {
		t.Errorf("confidence must be the name signal alone, got %f", conf)
	}
}

func TestDetectMappingsTimestampRequiresContent(t *testing.T) {
	d := NewFieldMappingDetector(DefaultDetectorConfig())

	// The timestamp role is the exception: a column named "date" holding
	// plain words is rejected regardless of the name match.
	columns := []string{"date"}
	var rows []map[string]interface{}
	for i := 0; i < 10; i++ {
		rows = append(rows, map[string]interface{}{"date": fmt.Sprintf("sometime soon %d", i)})
	}
	stats := NewFieldStatsTracker().ProcessBatch(nil, rows)

	result := d.DetectMappings(columns, stats, rows, "eng")
	if result.Mappings.TimestampPath != "" {
		t.Errorf("wordy date column must be rejected, got %q", result.Mappings.TimestampPath)
	}
}

func TestDetectMappingsEpochTimestamps(t *testing.T) {
	d := NewFieldMappingDetector(DefaultDetectorConfig())

	columns := []string{"timestamp"}
	var rows []map[string]interface{}
	for i := 0; i < 10; i++ {
		rows = append(rows, map[string]interface{}{"timestamp": 1.7e9 + float64(i)*86400})
	}
	stats := NewFieldStatsTracker().ProcessBatch(nil, rows)

	result := d.DetectMappings(columns, stats, rows, "eng")
	if result.Mappings.TimestampPath != "timestamp" {
		t.Errorf("epoch-second column must map to timestamp, got %q", result.Mappings.TimestampPath)
	}
}

func TestDetectMappingsAddressFallback(t *testing.T) {
	d := NewFieldMappingDetector(DefaultDetectorConfig())

	// No coordinates anywhere, but a free-text address column exists.
	columns := []string{"title", "address"}
	var rows []map[string]interface{}
	for i := 0; i < 10; i++ {
		rows = append(rows, map[string]interface{}{
			"title":   fmt.Sprintf("Event %d", i),
			"address": fmt.Sprintf("%d Main Street, Springfield", i+1),
		})
	}
	stats := NewFieldStatsTracker().ProcessBatch(nil, rows)

	result := d.DetectMappings(columns, stats, rows, "eng")
	if result.Geo.Found {
		t.Error("no coordinate columns expected")
	}
	if result.Mappings.LocationPath != "address" {
		t.Errorf("address fallback: got %q", result.Mappings.LocationPath)
	}
	if result.Confidences[models.RoleLocation] <= 0 {
		t.Error("address confidence missing")
	}
}

func TestValidateTimestamp(t *testing.T) {
	mkStats := func(samples ...interface{}) *models.FieldStatistics {
		s := models.NewFieldStatistics("t", 0)
		s.Occurrences = len(samples)
		s.UniqueSamples = samples
		for range samples {
			s.TypeDistribution[models.TypeString]++
		}
		return s
	}

	tests := []struct {
		name     string
		stats    *models.FieldStatistics
		minScore float64
		reject   bool
	}{
		{"iso_dates", mkStats("2024-01-01", "2024-02-15", "2024-03-20"), 0.8, false},
		{"slash_dates", mkStats("01/02/2024", "15/03/2024"), 0.5, false},
		{"plain_text", mkStats("hello", "world", "again"), 0, true},
		{"bare_numbers", mkStats("123", "456"), 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := validateTimestamp(tt.stats)
			if tt.reject {
				if score != 0 {
					t.Errorf("expected rejection, got %f", score)
				}
			} else if score < tt.minScore {
				t.Errorf("expected >= %f, got %f", tt.minScore, score)
			}
		})
	}
}

func TestLengthScore(t *testing.T) {
	tests := []struct {
		name     string
		avg      float64
		expected float64
	}{
		{"ideal", 50, 1.0},
		{"ideal_lower_edge", 10, 1.0},
		{"below_hard_min", 2, 0},
		{"above_hard_max", 600, 0},
		{"ramp_up_midpoint", 6.5, 0.5},
		{"zero", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := lengthScore(tt.avg, 10, 100, 3, 500)
			if diff := got - tt.expected; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("expected %f, got %f", tt.expected, got)
			}
		})
	}
}
