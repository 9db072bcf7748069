package service

import (
	"testing"

	"github.com/jfilter/timetiles-sub012/internal/models"
)

func eventSchemaFields() []models.SchemaField {
	return []models.SchemaField{
		{Name: "title", Type: "string"},
		{Name: "description", Type: "string"},
		{Name: "date", Type: "date"},
		{Name: "lat", Type: "number"},
		{Name: "lon", Type: "number"},
	}
}

func TestCalculateSimilaritySelf(t *testing.T) {
	s := NewSchemaSimilarityService()

	uploaded := models.StructuralSchema{Fields: eventSchemaFields(), Language: "eng"}
	target := models.TargetSchema{
		ID: "events", Name: "Events", Language: "eng",
		Fields: eventSchemaFields(), HasGeo: true, HasDate: true,
	}

	result := s.CalculateSimilarity(uploaded, target)

	if result.Score < 90 {
		t.Errorf("self similarity: expected >= 90, got %d (%+v)", result.Score, result.Breakdown)
	}
	if len(result.MatchingFields) != 5 {
		t.Errorf("matching fields: expected 5, got %v", result.MatchingFields)
	}
	if len(result.MissingFields) != 0 || len(result.NewFields) != 0 {
		t.Errorf("missing/new fields: got %v / %v", result.MissingFields, result.NewFields)
	}
}

func TestCalculateSimilarityDisjoint(t *testing.T) {
	s := NewSchemaSimilarityService()

	uploaded := models.StructuralSchema{Fields: []models.SchemaField{
		{Name: "foo"}, {Name: "bar"}, {Name: "baz"},
	}}
	target := models.TargetSchema{
		ID: "other", Name: "Other",
		Fields: []models.SchemaField{
			{Name: "alpha"}, {Name: "beta"}, {Name: "gamma"},
		},
	}

	result := s.CalculateSimilarity(uploaded, target)

	if result.Score >= 50 {
		t.Errorf("disjoint similarity: expected < 50, got %d (%+v)", result.Score, result.Breakdown)
	}
	if len(result.MatchingFields) != 0 {
		t.Errorf("expected no matching fields, got %v", result.MatchingFields)
	}
	if result.Breakdown.FieldOverlap != 0 {
		t.Errorf("field overlap: expected 0, got %d", result.Breakdown.FieldOverlap)
	}
}

func TestMatchFieldKinds(t *testing.T) {
	s := NewSchemaSimilarityService()

	tests := []struct {
		name     string
		uploaded string
		target   string
		weight   float64
	}{
		{"exact", "title", "title", matchWeightExact},
		{"synonym", "title", "name", matchWeightSynonym},
		{"synonym_lat", "lat", "latitude", matchWeightSynonym},
		{"fuzzy_separator", "event_date", "eventdate", matchWeightFuzzy},
		{"fuzzy_typo", "descriptino", "description", matchWeightFuzzy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matches := s.matchFields([]string{tt.uploaded}, []string{tt.target})
			if len(matches) != 1 {
				t.Fatalf("expected a match, got %v", matches)
			}
			if matches[0].weight != tt.weight {
				t.Errorf("weight: expected %f, got %f", tt.weight, matches[0].weight)
			}
		})
	}

	if matches := s.matchFields([]string{"price"}, []string{"organizer"}); len(matches) != 0 {
		t.Errorf("unrelated names must not match, got %v", matches)
	}
}

func TestMatchFieldsClaimOnce(t *testing.T) {
	s := NewSchemaSimilarityService()

	// Two uploaded columns compete for one target; only one may claim it.
	matches := s.matchFields([]string{"title", "name"}, []string{"title"})
	if len(matches) != 1 {
		t.Fatalf("expected exactly one match, got %v", matches)
	}
	if matches[0].uploaded != "title" || matches[0].weight != matchWeightExact {
		t.Errorf("exact match must win the claim: %+v", matches[0])
	}
}

func TestNameSimilarity(t *testing.T) {
	tests := []struct {
		a, b     string
		minScore float64
		maxScore float64
	}{
		{"event_date", "eventdate", 1.0, 1.0},
		{"latitude", "latitude", 1.0, 1.0},
		{"description", "descriptino", 0.8, 0.99},
		{"title", "quantity", 0.0, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_"+tt.b, func(t *testing.T) {
			got := nameSimilarity(tt.a, tt.b)
			if got < tt.minScore || got > tt.maxScore {
				t.Errorf("expected [%f, %f], got %f", tt.minScore, tt.maxScore, got)
			}
		})
	}
}

func TestIsTypeCompatible(t *testing.T) {
	tests := []struct {
		a, b     string
		expected bool
	}{
		{"string", "string", true},
		{"string", "date", true},
		{"number", "integer", true},
		{"String", "DATE", true},
		{"number", "date", false},
		{"boolean", "integer", false},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_"+tt.b, func(t *testing.T) {
			if got := isTypeCompatible(tt.a, tt.b); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestRankCandidates(t *testing.T) {
	s := NewSchemaSimilarityService()

	uploaded := models.StructuralSchema{Fields: eventSchemaFields(), Language: "eng"}
	candidates := []models.TargetSchema{
		{
			ID: "events", Name: "Events", Language: "eng",
			Fields: eventSchemaFields(), HasGeo: true, HasDate: true,
		},
		{
			ID: "partial", Name: "Partial", Language: "eng",
			Fields: []models.SchemaField{
				{Name: "title", Type: "string"},
				{Name: "date", Type: "date"},
				{Name: "organizer", Type: "string"},
			},
			HasDate: true,
		},
		{
			ID: "unrelated", Name: "Unrelated",
			Fields: []models.SchemaField{
				{Name: "sku"}, {Name: "qty"}, {Name: "warehouse"},
			},
		},
	}

	results := s.RankCandidates(uploaded, candidates, RankOptions{MinScore: 50, MaxResults: 5})

	if len(results) < 2 {
		t.Fatalf("expected at least the two related candidates, got %v", results)
	}
	if results[0].DatasetID != "events" {
		t.Errorf("best match: expected events, got %s", results[0].DatasetID)
	}
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Error("results not sorted descending")
		}
	}
	for _, r := range results {
		if r.DatasetID == "unrelated" {
			t.Error("unrelated candidate must be filtered by MinScore")
		}
		if r.Score < 50 {
			t.Errorf("result below MinScore: %+v", r)
		}
	}
}

func TestRankCandidatesTruncates(t *testing.T) {
	s := NewSchemaSimilarityService()

	uploaded := models.StructuralSchema{Fields: eventSchemaFields()}
	var candidates []models.TargetSchema
	for i := 0; i < 8; i++ {
		candidates = append(candidates, models.TargetSchema{
			ID: string(rune('a' + i)), Fields: eventSchemaFields(),
		})
	}

	results := s.RankCandidates(uploaded, candidates, RankOptions{MinScore: 0, MaxResults: 3})
	if len(results) != 3 {
		t.Errorf("expected 3 results, got %d", len(results))
	}
}

func TestLanguageScore(t *testing.T) {
	tests := []struct {
		uploaded, target string
		expected         int
	}{
		{"eng", "eng", 100},
		{"eng", "ENG", 100},
		{"eng", "deu", 30},
		{"", "deu", 50},
		{"eng", "", 50},
	}

	for _, tt := range tests {
		if got := languageScore(tt.uploaded, tt.target); got != tt.expected {
			t.Errorf("languageScore(%q, %q): expected %d, got %d", tt.uploaded, tt.target, tt.expected, got)
		}
	}
}
