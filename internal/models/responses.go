package models

// BatchResponse is returned after ingesting a row batch.
type BatchResponse struct {
	Message   string `json:"message"`
	Rows      int    `json:"rows"`
	TotalRows int    `json:"total_rows"`
	Columns   int    `json:"columns"`
}

// StatsResponse is returned by the import stats endpoint.
type StatsResponse struct {
	ImportID string                      `json:"import_id"`
	RowCount int                         `json:"row_count"`
	Columns  []string                    `json:"columns"`
	Stats    map[string]*FieldStatistics `json:"stats"`
}

// SimilarityRequest asks for a ranking of an uploaded schema against
// candidate target schemas. Candidates default to the configured catalog.
type SimilarityRequest struct {
	Schema     StructuralSchema `json:"schema"`
	Candidates []TargetSchema   `json:"candidates,omitempty"`
	MinScore   *int             `json:"min_score,omitempty"`
	MaxResults *int             `json:"max_results,omitempty"`
}

// SimilarityResponse is the ranked candidate list.
type SimilarityResponse struct {
	Results []SimilarityResult `json:"results"`
}

// TransformRequest asks for rename suggestions between two schema snapshots.
type TransformRequest struct {
	OldSchema StructuralSchema `json:"old_schema"`
	NewSchema StructuralSchema `json:"new_schema"`
}

// TransformResponse carries the diff and the accepted rename suggestions.
type TransformResponse struct {
	Changes     SchemaChanges         `json:"changes"`
	Suggestions []TransformSuggestion `json:"suggestions"`
}

// ErrorResponse is the uniform error body for contract violations.
type ErrorResponse struct {
	Error string `json:"error"`
}
