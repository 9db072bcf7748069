// Package analysis orchestrates the statistics tracker and the detectors
// into a per-import pipeline: row batches in, field mappings out.
package analysis

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/jfilter/timetiles-sub012/internal/models"
	"github.com/jfilter/timetiles-sub012/internal/service"
)

// LanguageDetectFunc is the external language detector: text samples in,
// ISO-639-3-like code plus confidence out. The engine only consumes the
// code to select pattern tables.
type LanguageDetectFunc func(samples []string) (code string, confidence float64)

// Service wires the field statistics tracker with the mapping detectors.
type Service struct {
	cfg        service.DetectorConfig
	tracker    *service.FieldStatsTracker
	mapper     *service.FieldMappingDetector
	langDetect LanguageDetectFunc
}

// NewService creates an analysis pipeline with the given thresholds.
func NewService(cfg service.DetectorConfig) *Service {
	return &Service{
		cfg:     cfg,
		tracker: service.NewFieldStatsTrackerWithCap(cfg.MaxUniqueSamples),
		mapper:  service.NewFieldMappingDetector(cfg),
	}
}

// WithLanguageDetector installs an external language detector, used to pick
// pattern tables when the caller passes no language code.
func (s *Service) WithLanguageDetector(fn LanguageDetectFunc) *Service {
	s.langDetect = fn
	return s
}

// resolveLanguage returns the explicit code, or runs the detector over string
// samples from the rows. Falls back to English.
func (s *Service) resolveLanguage(language string, rows []map[string]interface{}) string {
	if language != "" {
		return language
	}
	if s.langDetect == nil {
		return service.DefaultLanguage
	}
	var samples []string
	for _, row := range rows {
		for _, v := range row {
			if str, ok := v.(string); ok && len(str) > 20 {
				samples = append(samples, str)
			}
		}
		if len(samples) >= 50 {
			break
		}
	}
	if code, _ := s.langDetect(samples); code != "" {
		return code
	}
	return service.DefaultLanguage
}

// ProcessBatch folds one row batch into the statistics map, returning the
// updated map. The map may be nil (first batch) or restored from a
// previous serialized run.
func (s *Service) ProcessBatch(stats map[string]*models.FieldStatistics, rows []map[string]interface{}) map[string]*models.FieldStatistics {
	return s.tracker.ProcessBatch(stats, rows)
}

// MergeStats combines partial statistics maps from parallel workers under
// the tracker's configured sample cap.
func (s *Service) MergeStats(a, b map[string]*models.FieldStatistics) map[string]*models.FieldStatistics {
	return s.tracker.MergeStats(a, b)
}

// DetectMappings runs role detection over the accumulated statistics and a
// row sample. Language selects the pattern tables, with English fallback; an
// empty code invokes the installed language detector.
func (s *Service) DetectMappings(columns []string, stats map[string]*models.FieldStatistics, sampleRows []map[string]interface{}, language string) models.FieldMappingResult {
	return s.mapper.DetectMappings(columns, stats, sampleRows, s.resolveLanguage(language, sampleRows))
}

// Report is the CLI-facing result of analyzing a whole file.
type Report struct {
	Columns  []string                           `json:"columns"`
	RowCount int                                `json:"row_count"`
	Stats    map[string]*models.FieldStatistics `json:"stats"`
	Result   models.FieldMappingResult          `json:"result"`
}

// AnalyzeFile reads a CSV file, accumulates statistics over all rows and
// runs mapping detection. File errors are contract failures; malformed
// cell data only lowers confidences.
func (s *Service) AnalyzeFile(path, language string) (*Report, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	var rows []map[string]interface{}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}
		rows = append(rows, rowFromRecord(headers, record))
	}

	stats := s.ProcessBatch(nil, rows)
	sample := rows
	if len(sample) > 50 {
		sample = sample[:50]
	}
	result := s.DetectMappings(headers, stats, sample, language)

	return &Report{
		Columns:  headers,
		RowCount: len(rows),
		Stats:    stats,
		Result:   result,
	}, nil
}

// rowFromRecord converts a CSV record into a typed row: numeric strings
// become numbers, everything else stays a string so the classifier can
// sniff it.
func rowFromRecord(headers, record []string) map[string]interface{} {
	row := make(map[string]interface{}, len(headers))
	for i, header := range headers {
		if i >= len(record) {
			break
		}
		val := record[i]
		if val == "" {
			row[header] = nil
			continue
		}
		if n, err := strconv.ParseFloat(val, 64); err == nil {
			row[header] = n
			continue
		}
		row[header] = val
	}
	return row
}

// SchemaFromStats derives a structural schema from accumulated statistics,
// using each column's dominant type. Used to feed similarity ranking after
// an upload.
func SchemaFromStats(columns []string, stats map[string]*models.FieldStatistics, language string) models.StructuralSchema {
	schema := models.StructuralSchema{Language: language}
	for _, col := range columns {
		field := models.SchemaField{Name: col}
		if s, ok := stats[col]; ok {
			if tag, _ := s.DominantType(); tag != "" {
				field.Type = tag
			}
		}
		schema.Fields = append(schema.Fields, field)
	}
	return schema
}
