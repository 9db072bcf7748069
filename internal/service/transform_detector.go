package service

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jfilter/timetiles-sub012/internal/models"
)

// Rename-score components (0-100 total). A pair must clear
// transformAcceptFloor to be suggested.
const (
	renameNameWeight       = 50.0 // scaled by normalized name similarity
	renameContainmentBonus = 25.0
	renameTypeBonus        = 15.0
	renameTypeCompatBonus  = 10.0
	renamePositionBonus    = 10.0
)

// renameAffixes are prefixes/suffixes commonly added during schema cleanup;
// a removed/added pair differing only by one of these is a strong rename
// signal.
var renameAffixPrefixes = []string{"start_", "end_", "event_"}
var renameAffixSuffixes = []string{"_name"}

// TransformDetector compares two structural schemas and proposes
// backward-compatible field renames. Pairing is greedy best-first, not a
// globally optimal matching — adequate since suggestions are human-reviewed
// downstream.
type TransformDetector struct{}

// NewTransformDetector creates a detector.
func NewTransformDetector() *TransformDetector {
	return &TransformDetector{}
}

// DiffSchemas computes the added/removed/type-changed field lists between
// two schema snapshots.
func DiffSchemas(oldSchema, newSchema models.StructuralSchema) models.SchemaChanges {
	changes := models.SchemaChanges{
		Added:       []string{},
		Removed:     []string{},
		TypeChanged: []string{},
	}

	oldByName := make(map[string]models.SchemaField)
	for _, f := range oldSchema.Fields {
		oldByName[f.Name] = f
	}
	newByName := make(map[string]models.SchemaField)
	for _, f := range newSchema.Fields {
		newByName[f.Name] = f
	}

	for _, f := range oldSchema.Fields {
		if _, ok := newByName[f.Name]; !ok {
			changes.Removed = append(changes.Removed, f.Name)
		}
	}
	for _, f := range newSchema.Fields {
		if old, ok := oldByName[f.Name]; !ok {
			changes.Added = append(changes.Added, f.Name)
		} else if old.Type != f.Type && old.Type != "" && f.Type != "" {
			changes.TypeChanged = append(changes.TypeChanged, f.Name)
		}
	}
	return changes
}

type renameCandidate struct {
	from    string
	to      string
	score   float64
	reasons []string
}

// DetectTransforms scores every (removed, added) pair and greedily claims
// the highest-confidence pairings. No field is paired more than once.
func (d *TransformDetector) DetectTransforms(oldSchema, newSchema models.StructuralSchema, changes models.SchemaChanges) []models.TransformSuggestion {
	candidates := []renameCandidate{}
	for _, from := range changes.Removed {
		for _, to := range changes.Added {
			if c, ok := d.scoreRename(oldSchema, newSchema, from, to); ok {
				candidates = append(candidates, c)
			}
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	suggestions := []models.TransformSuggestion{}
	claimedFrom := make(map[string]bool)
	claimedTo := make(map[string]bool)
	for _, c := range candidates {
		if claimedFrom[c.from] || claimedTo[c.to] {
			continue
		}
		claimedFrom[c.from] = true
		claimedTo[c.to] = true
		suggestions = append(suggestions, models.TransformSuggestion{
			Type:       models.TransformRename,
			From:       c.from,
			To:         c.to,
			Confidence: roundScore(c.score),
			Reason:     strings.Join(c.reasons, ", "),
		})
	}
	return suggestions
}

func (d *TransformDetector) scoreRename(oldSchema, newSchema models.StructuralSchema, from, to string) (renameCandidate, bool) {
	c := renameCandidate{from: from, to: to}

	fromLower := strings.ToLower(from)
	toLower := strings.ToLower(to)

	sim := nameSimilarity(fromLower, toLower)
	c.score += sim * renameNameWeight
	if stripSeparators(fromLower) == stripSeparators(toLower) {
		c.reasons = append(c.reasons, "same name ignoring case and separators")
	} else if sim >= fuzzyMatchThreshold {
		c.reasons = append(c.reasons, fmt.Sprintf("names are %d%% similar", roundScore(sim*100)))
	}

	if hasContainmentRelation(fromLower, toLower) {
		c.score += renameContainmentBonus
		c.reasons = append(c.reasons, "one name contains the other")
	} else if affixVariant(fromLower, toLower) {
		c.score += renameContainmentBonus
		c.reasons = append(c.reasons, "names differ only by a common affix")
	}

	fromType := oldSchema.FieldType(from)
	toType := newSchema.FieldType(to)
	switch {
	case fromType != "" && strings.EqualFold(fromType, toType):
		c.score += renameTypeBonus
		c.reasons = append(c.reasons, "same type")
	case fromType != "" && toType != "" && isTypeCompatible(fromType, toType):
		c.score += renameTypeCompatBonus
		c.reasons = append(c.reasons, "compatible types")
	}

	if oldSchema.FieldIndex(from) == newSchema.FieldIndex(to) && oldSchema.FieldIndex(from) >= 0 {
		c.score += renamePositionBonus
		c.reasons = append(c.reasons, "same position")
	}

	if c.score < transformAcceptFloor {
		return renameCandidate{}, false
	}
	if len(c.reasons) == 0 {
		c.reasons = append(c.reasons, "high combined similarity")
	}
	return c, true
}

func hasContainmentRelation(a, b string) bool {
	if len(a) < 3 || len(b) < 3 {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// affixVariant strips the known rename affixes from both names and compares
// the remainders.
func affixVariant(a, b string) bool {
	return stripAffixes(a) == stripAffixes(b) && stripAffixes(a) != ""
}

func stripAffixes(s string) string {
	for _, prefix := range renameAffixPrefixes {
		s = strings.TrimPrefix(s, prefix)
	}
	for _, suffix := range renameAffixSuffixes {
		s = strings.TrimSuffix(s, suffix)
	}
	return s
}
