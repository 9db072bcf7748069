package models

// Semantic roles a column can be mapped to.
const (
	RoleTitle        = "title"
	RoleDescription  = "description"
	RoleLocationName = "locationName"
	RoleTimestamp    = "timestamp"
	RoleLatitude     = "latitude"
	RoleLongitude    = "longitude"
	RoleLocation     = "location"
)

// FieldMappings is the per-import mapping of semantic roles to column paths.
// Empty string means no usable column was detected for that role. The struct
// is returned once per completed statistics pass and never mutated afterwards;
// callers may override individual fields before use.
type FieldMappings struct {
	TitlePath        string `json:"titlePath,omitempty"`
	DescriptionPath  string `json:"descriptionPath,omitempty"`
	LocationNamePath string `json:"locationNamePath,omitempty"`
	TimestampPath    string `json:"timestampPath,omitempty"`
	LatitudePath     string `json:"latitudePath,omitempty"`
	LongitudePath    string `json:"longitudePath,omitempty"`
	LocationPath     string `json:"locationPath,omitempty"`
}

// FieldMappingResult bundles the detected mappings with per-role confidences
// (0-1) and the geo detection outcome they were derived from.
type FieldMappingResult struct {
	Mappings    FieldMappings      `json:"mappings"`
	Confidences map[string]float64 `json:"confidences"`
	Geo         GeoColumnResult    `json:"geo"`
}

// Geo column layout types.
const (
	GeoTypeSeparate = "separate"
	GeoTypeCombined = "combined"
	GeoTypeNone     = "none"
)

// Detection methods for geo columns.
const (
	DetectionPattern   = "pattern"
	DetectionHeuristic = "heuristic"
	DetectionManual    = "manual"
)

// GeoColumnResult describes which column(s) hold coordinates. Produced fresh
// per detection call and not persisted by the engine.
type GeoColumnResult struct {
	Found              bool    `json:"found"`
	Type               string  `json:"type"`
	LatColumn          string  `json:"latColumn,omitempty"`
	LonColumn          string  `json:"lonColumn,omitempty"`
	CombinedColumn     string  `json:"combinedColumn,omitempty"`
	Format             string  `json:"format,omitempty"`
	Confidence         float64 `json:"confidence"`
	DetectionMethod    string  `json:"detectionMethod"`
	SwappedCoordinates bool    `json:"swappedCoordinates"`
}

// Validation statuses for a coordinate pair.
const (
	CoordValid          = "valid"
	CoordOutOfRange     = "out_of_range"
	CoordSuspiciousZero = "suspicious_zero"
	CoordSwapped        = "swapped"
	CoordInvalid        = "invalid"
)

// ValidatedCoordinates is the pure-function output of validating one
// latitude/longitude pair.
type ValidatedCoordinates struct {
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	IsValid          bool    `json:"isValid"`
	ValidationStatus string  `json:"validationStatus"`
	Confidence       float64 `json:"confidence"`
	WasSwapped       bool    `json:"wasSwapped,omitempty"`
}
