package models

import "time"

// Format tags used in FieldStatistics.Formats.
const (
	FormatEmail    = "email"
	FormatURL      = "url"
	FormatDate     = "date"
	FormatDateTime = "dateTime"
	FormatNumeric  = "numeric"
)

// NumericStats holds running aggregates over the numeric occurrences of a
// column. Present only once at least one numeric value was seen.
type NumericStats struct {
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
	Avg       float64 `json:"avg"`
	IsInteger bool    `json:"isInteger"`
}

// EnumValueStat records how often a candidate enum value occurred.
type EnumValueStat struct {
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// FieldStatistics accumulates per-column statistics across row batches.
// One instance exists per dotted field path. Invariants:
// Occurrences == sum of TypeDistribution counts, NullCount <= Occurrences.
//
// UniqueValues is exact only while Capped is false; once the sample list
// hits its cap the count is a lower-bound approximation.
type FieldStatistics struct {
	Path             string                   `json:"path"`
	Occurrences      int                      `json:"occurrences"`
	NullCount        int                      `json:"nullCount"`
	TypeDistribution map[string]int           `json:"typeDistribution"`
	NumericStats     *NumericStats            `json:"numericStats,omitempty"`
	UniqueSamples    []interface{}            `json:"uniqueSamples"`
	UniqueValues     int                      `json:"uniqueValues"`
	Capped           bool                     `json:"capped"`
	Formats          map[string]int           `json:"formats"`
	IsEnumCandidate  bool                     `json:"isEnumCandidate"`
	EnumValues       map[string]EnumValueStat `json:"enumValues,omitempty"`
	FirstSeen        time.Time                `json:"firstSeen"`
	LastSeen         time.Time                `json:"lastSeen"`
	Depth            int                      `json:"depth"`
}

// NewFieldStatistics initializes empty statistics for a field path.
func NewFieldStatistics(path string, depth int) *FieldStatistics {
	return &FieldStatistics{
		Path:             path,
		TypeDistribution: make(map[string]int),
		UniqueSamples:    []interface{}{},
		Formats:          make(map[string]int),
		Depth:            depth,
	}
}

// NonNullCount returns the number of occurrences carrying an actual value.
func (s *FieldStatistics) NonNullCount() int {
	return s.Occurrences - s.NullCount
}

// TypeRatio returns the fraction of non-null occurrences with the given tag.
func (s *FieldStatistics) TypeRatio(tag string) float64 {
	nonNull := s.NonNullCount()
	if nonNull == 0 {
		return 0
	}
	return float64(s.TypeDistribution[tag]) / float64(nonNull)
}

// DominantType returns the most frequent non-null type tag and its ratio.
func (s *FieldStatistics) DominantType() (string, float64) {
	best := ""
	bestCount := 0
	for tag, count := range s.TypeDistribution {
		if tag == TypeNull || tag == TypeUndefined {
			continue
		}
		if count > bestCount {
			best = tag
			bestCount = count
		}
	}
	nonNull := s.NonNullCount()
	if nonNull == 0 || best == "" {
		return "", 0
	}
	return best, float64(bestCount) / float64(nonNull)
}

// Completeness returns the non-null fraction of all occurrences.
func (s *FieldStatistics) Completeness() float64 {
	if s.Occurrences == 0 {
		return 0
	}
	return float64(s.NonNullCount()) / float64(s.Occurrences)
}
