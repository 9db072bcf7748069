package service

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/texttheater/golang-levenshtein/levenshtein"

	"github.com/jfilter/timetiles-sub012/internal/models"
)

// Similarity sub-score weights; they sum to 1.
const (
	weightFieldOverlap  = 0.35
	weightTypeCompat    = 0.25
	weightStructural    = 0.20
	weightSemanticHints = 0.15
	weightLanguage      = 0.05

	// fuzzyMatchThreshold is the minimum normalized Levenshtein similarity
	// (after stripping separators) for two field names to count as a match.
	fuzzyMatchThreshold = 0.7
)

// Match-kind weights for the fuzzy-matched fraction of the overlap score.
// Exact and synonym matches count above plain fuzzy similarity.
const (
	matchWeightExact   = 1.0
	matchWeightSynonym = 0.9
	matchWeightFuzzy   = 0.7
)

// synonymGroups are curated sets of field-name variants considered
// semantically equivalent.
var synonymGroups = [][]string{
	{"title", "name", "label", "headline", "summary"},
	{"description", "desc", "details", "info", "notes", "comment", "remarks", "text"},
	{"date", "datetime", "timestamp", "time", "when"},
	{"lat", "latitude"},
	{"lon", "lng", "long", "longitude"},
	{"location", "place", "venue", "address", "site"},
	{"city", "town", "municipality"},
	{"id", "identifier", "key", "code"},
	{"category", "type", "kind", "class"},
	{"url", "link", "website"},
	{"email", "mail"},
	{"start", "begin", "from"},
	{"end", "finish", "until"},
	{"organizer", "host", "organiser"},
}

// Type compatibility groups: members of a group can hold the same data.
var typeCompatGroups = [][]string{
	{"string", "date", "numeric-string", "text"},
	{"number", "integer", "float", "numeric-string"},
	{"boolean", "string", "bool"},
}

// RankOptions controls candidate filtering for RankCandidates.
type RankOptions struct {
	MinScore   int
	MaxResults int
}

// DefaultRankOptions returns the caller-overridable defaults.
func DefaultRankOptions() RankOptions {
	return RankOptions{MinScore: 30, MaxResults: 5}
}

// SchemaSimilarityService scores how well an uploaded column set fits an
// existing catalog schema, to suggest the best import destination.
type SchemaSimilarityService struct {
	synonymIndex map[string]int
}

// NewSchemaSimilarityService builds the synonym index once.
func NewSchemaSimilarityService() *SchemaSimilarityService {
	index := make(map[string]int)
	for group, words := range synonymGroups {
		for _, w := range words {
			index[w] = group
		}
	}
	return &SchemaSimilarityService{synonymIndex: index}
}

// RankCandidates scores the uploaded schema against every candidate, filters
// by minimum score, sorts descending and truncates to the result cap.
func (s *SchemaSimilarityService) RankCandidates(uploaded models.StructuralSchema, candidates []models.TargetSchema, opts RankOptions) []models.SimilarityResult {
	if opts.MaxResults <= 0 {
		opts.MaxResults = DefaultRankOptions().MaxResults
	}

	results := make([]models.SimilarityResult, 0, len(candidates))
	for _, candidate := range candidates {
		result := s.CalculateSimilarity(uploaded, candidate)
		if result.Score >= opts.MinScore {
			results = append(results, result)
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > opts.MaxResults {
		results = results[:opts.MaxResults]
	}
	return results
}

// fieldMatch pairs an uploaded field with a target field.
type fieldMatch struct {
	uploaded string
	target   string
	weight   float64
}

// CalculateSimilarity computes the weighted five-part score for one
// (uploaded, candidate) pair. All sub-scores and the total are rounded to
// integers.
func (s *SchemaSimilarityService) CalculateSimilarity(uploaded models.StructuralSchema, target models.TargetSchema) models.SimilarityResult {
	uploadedNames := lowerNames(uploaded.FieldNames())
	targetNames := lowerNames(fieldNamesOf(target.Fields))

	matches := s.matchFields(uploadedNames, targetNames)

	overlap := s.fieldOverlapScore(uploadedNames, targetNames, matches)
	typeCompat := s.typeCompatibilityScore(uploaded, target, matches)
	structural := structuralScore(len(uploadedNames), len(targetNames))
	semantic := semanticHintScore(uploadedNames, target)
	language := languageScore(uploaded.Language, target.Language)

	total := weightFieldOverlap*float64(overlap) +
		weightTypeCompat*float64(typeCompat) +
		weightStructural*float64(structural) +
		weightSemanticHints*float64(semantic) +
		weightLanguage*float64(language)

	matching, missing, added := partitionFields(uploadedNames, targetNames, matches)

	return models.SimilarityResult{
		DatasetID:   target.ID,
		DatasetName: target.Name,
		Score:       roundScore(total),
		Breakdown: models.SimilarityBreakdown{
			FieldOverlap:         overlap,
			TypeCompatibility:    typeCompat,
			StructuralSimilarity: structural,
			SemanticHints:        semantic,
			LanguageMatch:        language,
		},
		MatchingFields: matching,
		MissingFields:  missing,
		NewFields:      added,
	}
}

// matchFields greedily pairs uploaded and target fields: exact matches
// first, then synonym-group members, then fuzzy Levenshtein matches. Each
// field is claimed at most once.
func (s *SchemaSimilarityService) matchFields(uploaded, target []string) []fieldMatch {
	matches := []fieldMatch{}
	usedTarget := make(map[string]bool)
	usedUploaded := make(map[string]bool)

	claim := func(u, t string, weight float64) {
		matches = append(matches, fieldMatch{uploaded: u, target: t, weight: weight})
		usedUploaded[u] = true
		usedTarget[t] = true
	}

	for _, u := range uploaded {
		for _, t := range target {
			if !usedTarget[t] && u == t {
				claim(u, t, matchWeightExact)
				break
			}
		}
	}

	for _, u := range uploaded {
		if usedUploaded[u] {
			continue
		}
		for _, t := range target {
			if usedTarget[t] {
				continue
			}
			if s.sameSynonymGroup(u, t) {
				claim(u, t, matchWeightSynonym)
				break
			}
		}
	}

	for _, u := range uploaded {
		if usedUploaded[u] {
			continue
		}
		for _, t := range target {
			if usedTarget[t] {
				continue
			}
			if nameSimilarity(u, t) >= fuzzyMatchThreshold {
				claim(u, t, matchWeightFuzzy)
				break
			}
		}
	}

	return matches
}

func (s *SchemaSimilarityService) sameSynonymGroup(a, b string) bool {
	ga, okA := s.synonymIndex[stripSeparators(a)]
	gb, okB := s.synonymIndex[stripSeparators(b)]
	return okA && okB && ga == gb
}

// fieldOverlapScore blends the Jaccard index over the lower-cased name sets
// (40%) with the weighted matched-field count over the larger side (60%).
func (s *SchemaSimilarityService) fieldOverlapScore(uploaded, target []string, matches []fieldMatch) int {
	if len(uploaded) == 0 || len(target) == 0 {
		return 0
	}

	setU := toSet(uploaded)
	setT := toSet(target)
	intersection := 0
	for name := range setU {
		if setT[name] {
			intersection++
		}
	}
	union := len(setU) + len(setT) - intersection
	jaccard := 0.0
	if union > 0 {
		jaccard = float64(intersection) / float64(union)
	}

	larger := len(uploaded)
	if len(target) > larger {
		larger = len(target)
	}
	matchedWeight := 0.0
	for _, m := range matches {
		matchedWeight += m.weight
	}
	matchedRatio := matchedWeight / float64(larger)
	if matchedRatio > 1 {
		matchedRatio = 1
	}

	return roundScore((jaccard*0.4 + matchedRatio*0.6) * 100)
}

// typeCompatibilityScore checks, for each target field with a declared type,
// whether its matched uploaded column's type is group-compatible. Defaults
// to 70 when the target carries no type metadata and 50 when nothing could
// be paired.
func (s *SchemaSimilarityService) typeCompatibilityScore(uploaded models.StructuralSchema, target models.TargetSchema, matches []fieldMatch) int {
	hasTypes := false
	for _, f := range target.Fields {
		if f.Type != "" {
			hasTypes = true
			break
		}
	}
	if !hasTypes {
		return 70
	}

	checked := 0
	compatible := 0
	for _, m := range matches {
		targetType := typeOf(target.Fields, m.target)
		if targetType == "" {
			continue
		}
		uploadedType := typeOfSchema(uploaded, m.uploaded)
		if uploadedType == "" {
			continue
		}
		checked++
		if isTypeCompatible(uploadedType, targetType) {
			compatible++
		}
	}
	if checked == 0 {
		return 50
	}
	return roundScore(float64(compatible) / float64(checked) * 100)
}

// isTypeCompatible reports whether two declared types can hold the same
// data, either by equality or by shared compatibility group.
func isTypeCompatible(a, b string) bool {
	a = strings.ToLower(a)
	b = strings.ToLower(b)
	if a == b {
		return true
	}
	for _, group := range typeCompatGroups {
		inA, inB := false, false
		for _, member := range group {
			if member == a {
				inA = true
			}
			if member == b {
				inB = true
			}
		}
		if inA && inB {
			return true
		}
	}
	return false
}

// structuralScore is the field-count ratio min/max, as a percentage.
func structuralScore(a, b int) int {
	if a == 0 || b == 0 {
		return 0
	}
	min, max := a, b
	if min > max {
		min, max = max, min
	}
	return roundScore(float64(min) / float64(max) * 100)
}

// semanticHintScore rewards agreement on the presence or absence of
// geo-looking and date-looking column names. Neutral 50 when neither side
// shows the feature.
func semanticHintScore(uploadedNames []string, target models.TargetSchema) int {
	uploadedGeo := anyNameMatches(uploadedNames, geoHintPattern)
	uploadedDate := anyNameMatches(uploadedNames, dateHintPattern)

	geoScore := presenceAgreement(uploadedGeo, target.HasGeo)
	dateScore := presenceAgreement(uploadedDate, target.HasDate)
	return roundScore((geoScore + dateScore) / 2)
}

func presenceAgreement(a, b bool) float64 {
	switch {
	case a && b:
		return 100
	case !a && !b:
		return 50
	default:
		return 0
	}
}

// languageScore: 100 when detected and declared languages agree, 30 when
// both are known but differ, 50 when either is unknown.
func languageScore(uploaded, target string) int {
	if uploaded == "" || target == "" {
		return 50
	}
	if strings.EqualFold(uploaded, target) {
		return 100
	}
	return 30
}

// nameSimilarity is the normalized Levenshtein similarity after lower-casing
// and stripping underscore/hyphen separators.
func nameSimilarity(a, b string) float64 {
	a = stripSeparators(a)
	b = stripSeparators(b)
	if a == b {
		return 1
	}
	maxLen := len([]rune(a))
	if l := len([]rune(b)); l > maxLen {
		maxLen = l
	}
	if maxLen == 0 {
		return 1
	}
	distance := levenshtein.DistanceForStrings([]rune(a), []rune(b), levenshtein.DefaultOptions)
	return 1 - float64(distance)/float64(maxLen)
}

func stripSeparators(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "_", "")
	s = strings.ReplaceAll(s, "-", "")
	return s
}

func partitionFields(uploaded, target []string, matches []fieldMatch) (matching, missing, added []string) {
	matchedUploaded := make(map[string]bool)
	matchedTarget := make(map[string]bool)
	for _, m := range matches {
		matchedUploaded[m.uploaded] = true
		matchedTarget[m.target] = true
	}

	matching = []string{}
	missing = []string{}
	added = []string{}
	for _, u := range uploaded {
		if matchedUploaded[u] {
			matching = append(matching, u)
		} else {
			added = append(added, u)
		}
	}
	for _, t := range target {
		if !matchedTarget[t] {
			missing = append(missing, t)
		}
	}
	return matching, missing, added
}

func lowerNames(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = strings.ToLower(strings.TrimSpace(n))
	}
	return out
}

func fieldNamesOf(fields []models.SchemaField) []string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return names
}

func typeOf(fields []models.SchemaField, lowerName string) string {
	for _, f := range fields {
		if strings.ToLower(f.Name) == lowerName {
			return f.Type
		}
	}
	return ""
}

func typeOfSchema(schema models.StructuralSchema, lowerName string) string {
	for _, f := range schema.Fields {
		if strings.ToLower(f.Name) == lowerName {
			return f.Type
		}
	}
	return ""
}

func anyNameMatches(names []string, pattern *regexp.Regexp) bool {
	for _, n := range names {
		if pattern.MatchString(n) {
			return true
		}
	}
	return false
}

func toSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}

func roundScore(v float64) int {
	return int(math.Round(v))
}
