package models

import (
	"testing"
	"time"
)

func TestClassifyValue(t *testing.T) {
	tests := []struct {
		name     string
		value    interface{}
		expected string
	}{
		{"nil", nil, TypeNull},
		{"bool_true", true, TypeBooleanString},
		{"bool_string_yes", "yes", TypeBooleanString},
		{"bool_string_mixed_case", "False", TypeBooleanString},
		{"int", 42, TypeInteger},
		{"whole_float", 42.0, TypeInteger},
		{"fractional_float", 42.5, TypeNumber},
		{"time_value", time.Now(), TypeDate},
		{"iso_date_string", "2024-06-15", TypeDate},
		{"iso_datetime_string", "2024-06-15T18:30:00Z", TypeDate},
		{"date_prefix_but_garbage", "2024-99-99", TypeString},
		{"plain_string", "hello", TypeString},
		{"array", []interface{}{1, 2}, TypeArray},
		{"object", map[string]interface{}{"a": 1}, TypeObject},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyValue(tt.value); got != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestFieldStatisticsDerived(t *testing.T) {
	s := NewFieldStatistics("f", 0)
	s.Occurrences = 10
	s.NullCount = 2
	s.TypeDistribution[TypeString] = 6
	s.TypeDistribution[TypeInteger] = 2
	s.TypeDistribution[TypeNull] = 2

	if got := s.NonNullCount(); got != 8 {
		t.Errorf("nonNull: expected 8, got %d", got)
	}
	if got := s.TypeRatio(TypeString); got != 0.75 {
		t.Errorf("string ratio: expected 0.75, got %f", got)
	}
	if got := s.Completeness(); got != 0.8 {
		t.Errorf("completeness: expected 0.8, got %f", got)
	}

	tag, ratio := s.DominantType()
	if tag != TypeString || ratio != 0.75 {
		t.Errorf("dominant: expected (string, 0.75), got (%s, %f)", tag, ratio)
	}

	empty := NewFieldStatistics("e", 0)
	if tag, _ := empty.DominantType(); tag != "" {
		t.Errorf("empty dominant: expected none, got %s", tag)
	}
}
