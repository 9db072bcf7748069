package state

import (
	"fmt"
	"sync"
	"testing"

	"github.com/jfilter/timetiles-sub012/internal/models"
	"github.com/jfilter/timetiles-sub012/internal/service"
)

func TestImportStateLifecycle(t *testing.T) {
	s := NewImportState()

	if s.Get("missing") != nil {
		t.Error("unknown import must be nil")
	}

	imp := s.Ensure("job-1")
	if imp == nil {
		t.Fatal("Ensure returned nil")
	}
	if s.Ensure("job-1") != imp {
		t.Error("Ensure must return the same import")
	}
	if s.Get("job-1") != imp {
		t.Error("Get must return the ensured import")
	}

	s.Delete("job-1")
	if s.Get("job-1") != nil {
		t.Error("deleted import must be gone")
	}
}

func TestApplyBatch(t *testing.T) {
	tracker := service.NewFieldStatsTracker()
	imp := NewImportState().Ensure("job")

	imp.ApplyBatch([]map[string]interface{}{
		{"a": 1.0}, {"a": 2.0},
	}, []string{"a", "b"}, "eng", tracker.ProcessBatch)
	totalRows, totalColumns := imp.ApplyBatch([]map[string]interface{}{
		{"c": 3.0},
	}, []string{"b", "c"}, "", tracker.ProcessBatch)

	if totalRows != 3 {
		t.Errorf("rowCount: expected 3, got %d", totalRows)
	}
	if totalColumns != 3 {
		t.Errorf("column count: expected 3, got %d", totalColumns)
	}

	imp.View(func(columns []string, rowCount int, stats map[string]*models.FieldStatistics, _ []map[string]interface{}, language string) {
		want := []string{"a", "b", "c"}
		for i, c := range want {
			if columns[i] != c {
				t.Errorf("column order: expected %v, got %v", want, columns)
				break
			}
		}
		if stats["a"].Occurrences != 2 {
			t.Errorf("stats folded: got %d", stats["a"].Occurrences)
		}
		if language != "eng" {
			t.Errorf("language must stick once set, got %q", language)
		}
	})
}

func TestApplyBatchSampleCap(t *testing.T) {
	tracker := service.NewFieldStatsTracker()
	imp := NewImportState().Ensure("job")

	var rows []map[string]interface{}
	for i := 0; i < sampleRowCap+30; i++ {
		rows = append(rows, map[string]interface{}{"n": float64(i)})
	}
	totalRows, _ := imp.ApplyBatch(rows, []string{"n"}, "", tracker.ProcessBatch)

	if totalRows != sampleRowCap+30 {
		t.Errorf("rowCount must count all rows, got %d", totalRows)
	}
	imp.View(func(_ []string, _ int, _ map[string]*models.FieldStatistics, sampleRows []map[string]interface{}, _ string) {
		if len(sampleRows) != sampleRowCap {
			t.Errorf("sample: expected %d rows, got %d", sampleRowCap, len(sampleRows))
		}
	})
}

func TestApplyBatchConcurrent(t *testing.T) {
	tracker := service.NewFieldStatsTracker()
	imp := NewImportState().Ensure("job")

	const workers = 8
	const batches = 25

	var wg sync.WaitGroup
	for g := 0; g < workers; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < batches; i++ {
				imp.ApplyBatch([]map[string]interface{}{
					{"n": float64(g*batches + i), "s": fmt.Sprintf("row %d", i)},
				}, []string{"n", "s"}, "", tracker.ProcessBatch)
				// Interleave reads with the folds.
				imp.View(func(_ []string, rowCount int, stats map[string]*models.FieldStatistics, _ []map[string]interface{}, _ string) {
					if stats["n"] != nil && stats["n"].Occurrences > rowCount {
						t.Errorf("stats ahead of rowCount: %d > %d", stats["n"].Occurrences, rowCount)
					}
				})
			}
		}(g)
	}
	wg.Wait()

	imp.View(func(columns []string, rowCount int, stats map[string]*models.FieldStatistics, _ []map[string]interface{}, _ string) {
		if rowCount != workers*batches {
			t.Errorf("rowCount: expected %d, got %d", workers*batches, rowCount)
		}
		if stats["n"].Occurrences != workers*batches {
			t.Errorf("occurrences: expected %d, got %d", workers*batches, stats["n"].Occurrences)
		}
		if len(columns) != 2 {
			t.Errorf("columns: got %v", columns)
		}
	})
}

func TestExportRestoreRoundTrip(t *testing.T) {
	tracker := service.NewFieldStatsTracker()
	imp := NewImportState().Ensure("src")

	var rows []map[string]interface{}
	for i := 0; i < 20; i++ {
		rows = append(rows, map[string]interface{}{
			"title": fmt.Sprintf("event %d", i),
			"count": float64(i),
			"note":  nil,
		})
	}
	imp.ApplyBatch(rows, []string{"title", "count", "note"}, "", tracker.ProcessBatch)

	data, err := imp.ExportStats()
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	restored := NewImportState().Ensure("resumed")
	if err := restored.RestoreStats(data); err != nil {
		t.Fatalf("restore: %v", err)
	}

	restored.View(func(_ []string, _ int, stats map[string]*models.FieldStatistics, _ []map[string]interface{}, _ string) {
		for _, path := range []string{"title", "count", "note"} {
			if stats[path] == nil {
				t.Fatalf("%s missing after restore", path)
			}
			if stats[path].Occurrences != 20 {
				t.Errorf("%s occurrences differ after round-trip: %d", path, stats[path].Occurrences)
			}
		}
	})

	// A restored map must keep accepting batches.
	restored.ApplyBatch([]map[string]interface{}{
		{"title": "one more", "count": 99.0},
	}, []string{"title", "count"}, "", tracker.ProcessBatch)
	restored.View(func(_ []string, _ int, stats map[string]*models.FieldStatistics, _ []map[string]interface{}, _ string) {
		if stats["title"].Occurrences != 21 {
			t.Errorf("resumed occurrences: expected 21, got %d", stats["title"].Occurrences)
		}
	})
}

func TestRestoreStatsRejectsMalformed(t *testing.T) {
	imp := NewImportState().Ensure("x")
	if err := imp.RestoreStats([]byte(`{"broken`)); err == nil {
		t.Error("malformed payload must fail")
	}
	if err := imp.RestoreStats([]byte(`{"field": null}`)); err == nil {
		t.Error("nil entry must fail")
	}
}
