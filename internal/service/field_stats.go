package service

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jfilter/timetiles-sub012/internal/models"
)

// FieldStatsTracker maintains running per-column statistics over row
// batches. All methods mutate only the statistics map they are given, so a
// host can run one tracker per worker and merge the partial maps afterwards.
type FieldStatsTracker struct {
	maxUniqueSamples int
}

// NewFieldStatsTracker creates a tracker with the default sample cap.
func NewFieldStatsTracker() *FieldStatsTracker {
	return &FieldStatsTracker{maxUniqueSamples: DefaultMaxUniqueSamples}
}

// NewFieldStatsTrackerWithCap overrides the unique-sample cap.
func NewFieldStatsTrackerWithCap(maxUniqueSamples int) *FieldStatsTracker {
	if maxUniqueSamples <= 0 {
		maxUniqueSamples = DefaultMaxUniqueSamples
	}
	return &FieldStatsTracker{maxUniqueSamples: maxUniqueSamples}
}

// ProcessBatch walks every row and updates the statistics map in place,
// returning it for chaining. Nested objects are descended via dotted paths;
// arrays are tagged but not descended. The map may come from a previous
// serialized run (resumption is just JSON round-tripping the map).
func (t *FieldStatsTracker) ProcessBatch(stats map[string]*models.FieldStatistics, rows []map[string]interface{}) map[string]*models.FieldStatistics {
	if stats == nil {
		stats = make(map[string]*models.FieldStatistics)
	}
	for _, row := range rows {
		for col, value := range row {
			t.updatePath(stats, col, value, 0)
		}
	}
	return stats
}

func (t *FieldStatsTracker) updatePath(stats map[string]*models.FieldStatistics, path string, value interface{}, depth int) {
	s, ok := stats[path]
	if !ok {
		s = models.NewFieldStatistics(path, depth)
		stats[path] = s
	}
	t.UpdateFieldStats(s, value)

	if nested, ok := value.(map[string]interface{}); ok {
		for key, child := range nested {
			t.updatePath(stats, path+"."+key, child, depth+1)
		}
	}
}

// UpdateFieldStats folds one value into a field's statistics.
func (t *FieldStatsTracker) UpdateFieldStats(s *models.FieldStatistics, value interface{}) {
	now := time.Now().UTC()
	if s.FirstSeen.IsZero() {
		s.FirstSeen = now
	}
	s.LastSeen = now

	s.Occurrences++
	tag := models.ClassifyValue(value)
	s.TypeDistribution[tag]++

	if tag == models.TypeNull || tag == models.TypeUndefined {
		s.NullCount++
		return
	}

	if num, isNum := numericValue(value, tag); isNum {
		t.updateNumericStats(s, num, tag)
	}

	if str, isStr := value.(string); isStr {
		t.updateFormats(s, str)
	}

	if models.IsScalar(value) {
		t.updateUniqueSamples(s, value)
		t.updateEnumValues(s, value)
	}
}

func (t *FieldStatsTracker) updateNumericStats(s *models.FieldStatistics, v float64, tag string) {
	n := numericOccurrences(s)
	if s.NumericStats == nil {
		s.NumericStats = &models.NumericStats{
			Min:       v,
			Max:       v,
			Avg:       v,
			IsInteger: tag == models.TypeInteger,
		}
		return
	}
	ns := s.NumericStats
	if v < ns.Min {
		ns.Min = v
	}
	if v > ns.Max {
		ns.Max = v
	}
	// Incremental mean; n already includes the value being folded in.
	ns.Avg = (ns.Avg*float64(n-1) + v) / float64(n)
	ns.IsInteger = ns.IsInteger && tag == models.TypeInteger
}

func (t *FieldStatsTracker) updateUniqueSamples(s *models.FieldStatistics, value interface{}) {
	if containsSample(s.UniqueSamples, value) {
		return
	}
	if len(s.UniqueSamples) >= t.maxUniqueSamples {
		// Past the cap the list stops growing and UniqueValues becomes a
		// lower bound.
		s.Capped = true
		return
	}
	s.UniqueSamples = append(s.UniqueSamples, value)
	s.UniqueValues = len(s.UniqueSamples)
}

// updateEnumValues tracks exact value counts while cardinality stays small.
// A nil EnumValues map after the first occurrence means the field overflowed
// and is disqualified.
func (t *FieldStatsTracker) updateEnumValues(s *models.FieldStatistics, value interface{}) {
	key := sampleKey(value)
	if s.EnumValues == nil {
		if scalarOccurrences(s) > 1 {
			return // overflowed earlier and disqualified
		}
		s.EnumValues = make(map[string]models.EnumValueStat)
	}
	stat, seen := s.EnumValues[key]
	if !seen && len(s.EnumValues) >= enumMaxCardinality {
		s.EnumValues = nil
		s.IsEnumCandidate = false
		return
	}
	stat.Count++
	s.EnumValues[key] = stat
	refreshEnumStats(s)
}

func refreshEnumStats(s *models.FieldStatistics) {
	if s.EnumValues == nil || s.Occurrences == 0 {
		s.IsEnumCandidate = false
		return
	}
	for key, stat := range s.EnumValues {
		stat.Percent = float64(stat.Count) / float64(s.Occurrences) * 100
		s.EnumValues[key] = stat
	}
	card := len(s.EnumValues)
	s.IsEnumCandidate = card >= 1 && card <= enumMaxCardinality && s.Occurrences >= 2*card
}

// String format sniffing. Counter keys mirror the models.Format* tags.
var (
	urlPattern        = regexp.MustCompile(`^https?://\S+$`)
	isoDateOnly       = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	isoDateTimeRegexp = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}`)
	numericStrPattern = regexp.MustCompile(`^-?\d+(\.\d+)?$`)
)

func (t *FieldStatsTracker) updateFormats(s *models.FieldStatistics, str string) {
	str = strings.TrimSpace(str)
	switch {
	case isEmailString(str):
		s.Formats[models.FormatEmail]++
	case urlPattern.MatchString(str):
		s.Formats[models.FormatURL]++
	case isoDateTimeRegexp.MatchString(str):
		s.Formats[models.FormatDateTime]++
	case isoDateOnly.MatchString(str):
		s.Formats[models.FormatDate]++
	case numericStrPattern.MatchString(str):
		s.Formats[models.FormatNumeric]++
	}
}

// isEmailString requires exactly one @ away from either end, a dot in the
// domain part, and no spaces. Intentionally looser than RFC 5322.
func isEmailString(s string) bool {
	if strings.ContainsAny(s, " \t") {
		return false
	}
	at := strings.Index(s, "@")
	if at <= 0 || at != strings.LastIndex(s, "@") || at == len(s)-1 {
		return false
	}
	domain := s[at+1:]
	return strings.Contains(domain, ".")
}

// MergeFieldStats combines two partial statistics maps into a new one.
// The merge is associative and commutative on all counters, so batches can
// be combined in any order or re-merged after a crash-restart. Neither
// input is mutated.
func MergeFieldStats(a, b map[string]*models.FieldStatistics) map[string]*models.FieldStatistics {
	return mergeFieldStatsCap(a, b, DefaultMaxUniqueSamples)
}

// MergeStats merges two partial maps under this tracker's sample cap, so
// merged maps keep the same bound as maps built by the tracker itself.
func (t *FieldStatsTracker) MergeStats(a, b map[string]*models.FieldStatistics) map[string]*models.FieldStatistics {
	return mergeFieldStatsCap(a, b, t.maxUniqueSamples)
}

func mergeFieldStatsCap(a, b map[string]*models.FieldStatistics, maxSamples int) map[string]*models.FieldStatistics {
	merged := make(map[string]*models.FieldStatistics, len(a)+len(b))
	for path, s := range a {
		merged[path] = cloneFieldStats(s)
	}
	for path, s := range b {
		if existing, ok := merged[path]; ok {
			merged[path] = mergeField(existing, s, maxSamples)
		} else {
			merged[path] = cloneFieldStats(s)
		}
	}
	return merged
}

func mergeField(a, b *models.FieldStatistics, maxSamples int) *models.FieldStatistics {
	out := models.NewFieldStatistics(a.Path, a.Depth)
	out.Occurrences = a.Occurrences + b.Occurrences
	out.NullCount = a.NullCount + b.NullCount

	for tag, count := range a.TypeDistribution {
		out.TypeDistribution[tag] += count
	}
	for tag, count := range b.TypeDistribution {
		out.TypeDistribution[tag] += count
	}
	for tag, count := range a.Formats {
		out.Formats[tag] += count
	}
	for tag, count := range b.Formats {
		out.Formats[tag] += count
	}

	out.NumericStats = mergeNumericStats(a, b)
	mergeSamples(out, a, b, maxSamples)
	mergeEnumValues(out, a, b)

	out.FirstSeen = earlierTime(a.FirstSeen, b.FirstSeen)
	out.LastSeen = laterTime(a.LastSeen, b.LastSeen)
	return out
}

func mergeNumericStats(a, b *models.FieldStatistics) *models.NumericStats {
	switch {
	case a.NumericStats == nil && b.NumericStats == nil:
		return nil
	case a.NumericStats == nil:
		ns := *b.NumericStats
		return &ns
	case b.NumericStats == nil:
		ns := *a.NumericStats
		return &ns
	}
	na := float64(numericOccurrences(a))
	nb := float64(numericOccurrences(b))
	merged := &models.NumericStats{
		Min:       a.NumericStats.Min,
		Max:       a.NumericStats.Max,
		IsInteger: a.NumericStats.IsInteger && b.NumericStats.IsInteger,
	}
	if b.NumericStats.Min < merged.Min {
		merged.Min = b.NumericStats.Min
	}
	if b.NumericStats.Max > merged.Max {
		merged.Max = b.NumericStats.Max
	}
	if na+nb > 0 {
		merged.Avg = (a.NumericStats.Avg*na + b.NumericStats.Avg*nb) / (na + nb)
	}
	return merged
}

// mergeSamples unions the sample lists up to the cap. UniqueValues becomes
// the union's true cardinality, which may exceed the kept samples — the
// documented discontinuity at the cap.
func mergeSamples(out, a, b *models.FieldStatistics, maxSamples int) {
	seen := make(map[string]bool)
	distinct := 0
	for _, lists := range [][]interface{}{a.UniqueSamples, b.UniqueSamples} {
		for _, v := range lists {
			key := sampleKey(v)
			if seen[key] {
				continue
			}
			seen[key] = true
			distinct++
			if len(out.UniqueSamples) < maxSamples {
				out.UniqueSamples = append(out.UniqueSamples, v)
			}
		}
	}
	out.UniqueValues = distinct
	out.Capped = a.Capped || b.Capped || distinct > len(out.UniqueSamples)
}

// enumDisqualified distinguishes a field whose enum tracking overflowed from
// one that simply never saw a scalar: a nil value map with scalar occurrences
// on record means the field was disqualified.
func enumDisqualified(s *models.FieldStatistics) bool {
	return s.EnumValues == nil && scalarOccurrences(s) > 0
}

func mergeEnumValues(out, a, b *models.FieldStatistics) {
	if enumDisqualified(a) || enumDisqualified(b) {
		out.EnumValues = nil
		out.IsEnumCandidate = false
		return
	}

	// A side with no scalars yet (all nulls, say) contributes nothing but
	// must not destroy the other side's counts.
	merged := make(map[string]models.EnumValueStat)
	for key, stat := range a.EnumValues {
		merged[key] = models.EnumValueStat{Count: stat.Count}
	}
	for key, stat := range b.EnumValues {
		m := merged[key]
		m.Count += stat.Count
		merged[key] = m
	}

	if len(merged) == 0 {
		out.EnumValues = nil
		out.IsEnumCandidate = false
		return
	}
	if len(merged) > enumMaxCardinality {
		out.EnumValues = nil
		out.IsEnumCandidate = false
		return
	}
	out.EnumValues = merged
	refreshEnumStats(out)
}

func cloneFieldStats(s *models.FieldStatistics) *models.FieldStatistics {
	out := models.NewFieldStatistics(s.Path, s.Depth)
	out.Occurrences = s.Occurrences
	out.NullCount = s.NullCount
	out.UniqueValues = s.UniqueValues
	out.Capped = s.Capped
	out.IsEnumCandidate = s.IsEnumCandidate
	out.FirstSeen = s.FirstSeen
	out.LastSeen = s.LastSeen
	for tag, count := range s.TypeDistribution {
		out.TypeDistribution[tag] = count
	}
	for tag, count := range s.Formats {
		out.Formats[tag] = count
	}
	if s.NumericStats != nil {
		ns := *s.NumericStats
		out.NumericStats = &ns
	}
	out.UniqueSamples = append(out.UniqueSamples, s.UniqueSamples...)
	if s.EnumValues != nil {
		out.EnumValues = make(map[string]models.EnumValueStat, len(s.EnumValues))
		for key, stat := range s.EnumValues {
			out.EnumValues[key] = stat
		}
	}
	return out
}

func numericValue(v interface{}, tag string) (float64, bool) {
	if tag != models.TypeInteger && tag != models.TypeNumber {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func numericOccurrences(s *models.FieldStatistics) int {
	return s.TypeDistribution[models.TypeInteger] + s.TypeDistribution[models.TypeNumber]
}

func scalarOccurrences(s *models.FieldStatistics) int {
	return s.NonNullCount() - s.TypeDistribution[models.TypeArray] - s.TypeDistribution[models.TypeObject]
}

func containsSample(samples []interface{}, v interface{}) bool {
	key := sampleKey(v)
	for _, existing := range samples {
		if sampleKey(existing) == key {
			return true
		}
	}
	return false
}

func sampleKey(v interface{}) string {
	return fmt.Sprintf("%v", v)
}

func earlierTime(a, b time.Time) time.Time {
	if a.IsZero() {
		return b
	}
	if b.IsZero() || a.Before(b) {
		return a
	}
	return b
}

func laterTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}
