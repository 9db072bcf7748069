package models

// SchemaField is one named column in a structural schema, with an optional
// declared type ("string", "number", "integer", "date", "boolean", ...).
type SchemaField struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// StructuralSchema describes a dataset's shape independent of semantic roles.
type StructuralSchema struct {
	Fields   []SchemaField `json:"fields"`
	Language string        `json:"language,omitempty"`
}

// FieldNames returns the field names in declaration order.
func (s StructuralSchema) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// FieldType returns the declared type for a field name, or "".
func (s StructuralSchema) FieldType(name string) string {
	for _, f := range s.Fields {
		if f.Name == name {
			return f.Type
		}
	}
	return ""
}

// FieldIndex returns the declaration position of a field name, or -1.
func (s StructuralSchema) FieldIndex(name string) int {
	for i, f := range s.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// TargetSchema is one catalog entry an uploaded schema can be matched against.
type TargetSchema struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Language string        `json:"language,omitempty"`
	Fields   []SchemaField `json:"fields"`
	HasGeo   bool          `json:"hasGeo"`
	HasDate  bool          `json:"hasDate"`
}

// SimilarityBreakdown holds the five weighted sub-scores, each 0-100.
type SimilarityBreakdown struct {
	FieldOverlap         int `json:"fieldOverlap"`
	TypeCompatibility    int `json:"typeCompatibility"`
	StructuralSimilarity int `json:"structuralSimilarity"`
	SemanticHints        int `json:"semanticHints"`
	LanguageMatch        int `json:"languageMatch"`
}

// SimilarityResult scores one (uploaded schema, catalog candidate) pair.
type SimilarityResult struct {
	DatasetID      string              `json:"datasetId"`
	DatasetName    string              `json:"datasetName"`
	Score          int                 `json:"score"`
	Breakdown      SimilarityBreakdown `json:"breakdown"`
	MatchingFields []string            `json:"matchingFields"`
	MissingFields  []string            `json:"missingFields"`
	NewFields      []string            `json:"newFields"`
}

// TransformRename is the only transform type currently emitted.
const TransformRename = "rename"

// TransformSuggestion proposes a backward-compatible field rename derived
// from a schema diff. It never mutates either schema.
type TransformSuggestion struct {
	Type       string `json:"type"`
	From       string `json:"from"`
	To         string `json:"to"`
	Confidence int    `json:"confidence"`
	Reason     string `json:"reason"`
}

// SchemaChanges is the precomputed diff between two structural schemas.
type SchemaChanges struct {
	Added       []string `json:"added"`
	Removed     []string `json:"removed"`
	TypeChanged []string `json:"typeChanged"`
}
