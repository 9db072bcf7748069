package state

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/jfilter/timetiles-sub012/internal/models"
)

// sampleRowCap bounds the per-import row sample kept for detection.
const sampleRowCap = 50

// BatchFold folds a row batch into a statistics map, returning the updated
// map. The analysis service's ProcessBatch satisfies this.
type BatchFold func(stats map[string]*models.FieldStatistics, rows []map[string]interface{}) map[string]*models.FieldStatistics

// Import is the mutable cross-batch state for one import unit: the cumulative
// field statistics plus a bounded row sample for geo validation. All access
// goes through methods; the mutex serializes batch folds against readers, so
// concurrent ingestion for the same import is safe.
type Import struct {
	mu         sync.RWMutex
	columns    []string
	stats      map[string]*models.FieldStatistics
	sampleRows []map[string]interface{}
	language   string
	rowCount   int
}

// ImportState holds all in-flight imports.
type ImportState struct {
	mu      sync.RWMutex
	imports map[string]*Import
}

// NewImportState creates an empty registry.
func NewImportState() *ImportState {
	return &ImportState{imports: make(map[string]*Import)}
}

// Ensure returns the import for an ID, creating it on first use.
func (s *ImportState) Ensure(id string) *Import {
	s.mu.Lock()
	defer s.mu.Unlock()

	imp, ok := s.imports[id]
	if !ok {
		imp = &Import{stats: make(map[string]*models.FieldStatistics)}
		s.imports[id] = imp
	}
	return imp
}

// Get returns the import for an ID, or nil.
func (s *ImportState) Get(id string) *Import {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.imports[id]
}

// Delete removes an import.
func (s *ImportState) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.imports, id)
}

// ApplyBatch folds one row batch into the import under its write lock:
// statistics, column declaration order (first-seen wins), row count, language
// and the bounded row sample. Returns the cumulative row and column counts.
func (imp *Import) ApplyBatch(rows []map[string]interface{}, columns []string, language string, fold BatchFold) (totalRows, totalColumns int) {
	imp.mu.Lock()
	defer imp.mu.Unlock()

	imp.stats = fold(imp.stats, rows)

	seen := make(map[string]bool, len(imp.columns))
	for _, c := range imp.columns {
		seen[c] = true
	}
	for _, c := range columns {
		if !seen[c] {
			imp.columns = append(imp.columns, c)
			seen[c] = true
		}
	}

	imp.rowCount += len(rows)
	for _, row := range rows {
		if len(imp.sampleRows) >= sampleRowCap {
			break
		}
		imp.sampleRows = append(imp.sampleRows, row)
	}
	if language != "" {
		imp.language = language
	}
	return imp.rowCount, len(imp.columns)
}

// View runs fn under the read lock. fn must not retain or mutate what it is
// handed; batch folds are blocked for its duration, so detection and
// serialization see a consistent snapshot.
func (imp *Import) View(fn func(columns []string, rowCount int, stats map[string]*models.FieldStatistics, sampleRows []map[string]interface{}, language string)) {
	imp.mu.RLock()
	defer imp.mu.RUnlock()
	fn(imp.columns, imp.rowCount, imp.stats, imp.sampleRows, imp.language)
}

// ExportStats serializes the cumulative statistics map so the caller can
// persist it across process restarts.
func (imp *Import) ExportStats() ([]byte, error) {
	imp.mu.RLock()
	defer imp.mu.RUnlock()
	return json.Marshal(imp.stats)
}

// RestoreStats replaces the statistics map with a previously serialized one.
// A malformed payload is a caller contract violation and fails loudly.
func (imp *Import) RestoreStats(data []byte) error {
	stats := make(map[string]*models.FieldStatistics)
	if err := json.Unmarshal(data, &stats); err != nil {
		return fmt.Errorf("restore field statistics: %w", err)
	}
	for path, s := range stats {
		if s == nil {
			return fmt.Errorf("restore field statistics: nil entry for %q", path)
		}
		if s.TypeDistribution == nil {
			s.TypeDistribution = make(map[string]int)
		}
		if s.Formats == nil {
			s.Formats = make(map[string]int)
		}
	}

	imp.mu.Lock()
	defer imp.mu.Unlock()
	imp.stats = stats
	return nil
}
