package service

// Detection thresholds. The ratio constants are empirically calibrated
// against messy real-world imports; treat them as tunable policy, not
// derived values.
const (
	// DefaultPairAcceptRatio is the minimum fraction of sampled rows that
	// must form a directly valid (lat, lon) pair. Deliberately lower than a
	// single-row check to tolerate mixed-quality data.
	DefaultPairAcceptRatio = 0.5

	// DefaultSwapDominanceRatio is the fraction of rows that must look
	// swapped (|lat| in (90,180] and |lon| <= 90) before the detector
	// reports swapped coordinates.
	DefaultSwapDominanceRatio = 0.5

	// DefaultFormatAcceptConfidence is the minimum fraction of samples that
	// must parse and validate for a combined-coordinate format.
	DefaultFormatAcceptConfidence = 0.7

	// DefaultHeuristicAcceptRatio is the minimum coordinate-shaped value
	// ratio for a heuristic column candidate.
	DefaultHeuristicAcceptRatio = 0.7

	// DefaultPatternSampleRows bounds pairwise validation sampling.
	DefaultPatternSampleRows = 10

	// DefaultHeuristicSampleRows bounds per-column heuristic sampling.
	DefaultHeuristicSampleRows = 20

	// DefaultMaxUniqueSamples caps the per-field unique sample list.
	DefaultMaxUniqueSamples = 100

	// enumMaxCardinality is the largest distinct-value count still tracked
	// as an enum candidate.
	enumMaxCardinality = 20

	// transformAcceptFloor is the minimum combined score (0-100) for a
	// rename suggestion to be emitted.
	transformAcceptFloor = 70
)

// DetectorConfig carries the overridable thresholds shared by the coordinate,
// format and geo-column detectors.
type DetectorConfig struct {
	PairAcceptRatio        float64
	SwapDominanceRatio     float64
	FormatAcceptConfidence float64
	HeuristicAcceptRatio   float64
	PatternSampleRows      int
	HeuristicSampleRows    int
	MaxUniqueSamples       int

	// RejectZeroPair treats an exact (0, 0) pair as a placeholder rather
	// than a real location. Accepted false-negative for genuine null-island
	// readings.
	RejectZeroPair bool
}

// DefaultDetectorConfig returns the calibrated defaults.
func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{
		PairAcceptRatio:        DefaultPairAcceptRatio,
		SwapDominanceRatio:     DefaultSwapDominanceRatio,
		FormatAcceptConfidence: DefaultFormatAcceptConfidence,
		HeuristicAcceptRatio:   DefaultHeuristicAcceptRatio,
		PatternSampleRows:      DefaultPatternSampleRows,
		HeuristicSampleRows:    DefaultHeuristicSampleRows,
		MaxUniqueSamples:       DefaultMaxUniqueSamples,
		RejectZeroPair:         true,
	}
}
