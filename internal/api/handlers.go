package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jfilter/timetiles-sub012/internal/analysis"
	"github.com/jfilter/timetiles-sub012/internal/catalog"
	"github.com/jfilter/timetiles-sub012/internal/models"
	"github.com/jfilter/timetiles-sub012/internal/service"
	"github.com/jfilter/timetiles-sub012/internal/state"
)

// MaxBatchBytes bounds one ingested row batch.
const MaxBatchBytes = 32 * 1024 * 1024

// Handler exposes the mapping engine over HTTP. The engine itself stays
// library-shaped; this is a thin service wrapper for the import wizard.
type Handler struct {
	Analysis   *analysis.Service
	Similarity *service.SchemaSimilarityService
	Transforms *service.TransformDetector
	Catalog    catalog.Source
	State      *state.ImportState

	DefaultLanguage string
}

// NewHandler wires the services. Catalog may be nil when no database is
// configured; similarity requests must then carry their own candidates.
func NewHandler(analysisSvc *analysis.Service, cat catalog.Source, defaultLanguage string) *Handler {
	return &Handler{
		Analysis:        analysisSvc,
		Similarity:      service.NewSchemaSimilarityService(),
		Transforms:      service.NewTransformDetector(),
		Catalog:         cat,
		State:           state.NewImportState(),
		DefaultLanguage: defaultLanguage,
	}
}

// RegisterRoutes mounts all endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.HealthCheck)

	r.Post("/imports/{importID}/batches", h.IngestBatch)
	r.Get("/imports/{importID}/stats", h.GetStats)
	r.Post("/imports/{importID}/stats", h.RestoreStats)
	r.Post("/imports/{importID}/mappings", h.DetectMappings)
	r.Delete("/imports/{importID}", h.DeleteImport)

	r.Post("/similarity", h.RankSimilarity)
	r.Post("/transforms", h.DetectTransforms)
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// batchRequest carries one row batch. Columns preserves the source
// declaration order, which JSON object rows cannot.
type batchRequest struct {
	Columns  []string                 `json:"columns"`
	Rows     []map[string]interface{} `json:"rows"`
	Language string                   `json:"language,omitempty"`
}

// IngestBatch folds one row batch into the import's cumulative statistics.
func (h *Handler) IngestBatch(w http.ResponseWriter, r *http.Request) {
	importID := chi.URLParam(r, "importID")

	var req batchRequest
	r.Body = http.MaxBytesReader(w, r.Body, MaxBatchBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid batch payload: "+err.Error())
		return
	}
	if len(req.Rows) == 0 {
		writeError(w, http.StatusBadRequest, "batch has no rows")
		return
	}
	if len(req.Columns) == 0 {
		req.Columns = columnsFromRows(req.Rows)
	}

	imp := h.State.Ensure(importID)
	totalRows, totalColumns := imp.ApplyBatch(req.Rows, req.Columns, req.Language, h.Analysis.ProcessBatch)

	writeJSON(w, http.StatusOK, models.BatchResponse{
		Message:   "batch processed",
		Rows:      len(req.Rows),
		TotalRows: totalRows,
		Columns:   totalColumns,
	})
}

// GetStats returns the cumulative, serializable statistics map. The body is
// marshaled under the import's read lock so a concurrent batch cannot mutate
// the map mid-encode.
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	importID := chi.URLParam(r, "importID")
	imp := h.State.Get(importID)
	if imp == nil {
		writeError(w, http.StatusNotFound, "unknown import: "+importID)
		return
	}

	var body []byte
	var err error
	imp.View(func(columns []string, rowCount int, stats map[string]*models.FieldStatistics, _ []map[string]interface{}, _ string) {
		body, err = json.Marshal(models.StatsResponse{
			ImportID: importID,
			RowCount: rowCount,
			Columns:  columns,
			Stats:    stats,
		})
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "encode stats: "+err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Printf("write response: %v", err)
	}
}

// RestoreStats accepts a previously exported statistics map, resuming an
// import after a restart.
func (h *Handler) RestoreStats(w http.ResponseWriter, r *http.Request) {
	importID := chi.URLParam(r, "importID")

	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeError(w, http.StatusBadRequest, "invalid stats payload: "+err.Error())
		return
	}

	imp := h.State.Ensure(importID)
	if err := imp.RestoreStats(raw); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "stats restored"})
}

// DetectMappings runs role detection over the import's accumulated state.
func (h *Handler) DetectMappings(w http.ResponseWriter, r *http.Request) {
	importID := chi.URLParam(r, "importID")
	imp := h.State.Get(importID)
	if imp == nil {
		writeError(w, http.StatusNotFound, "unknown import: "+importID)
		return
	}

	var result models.FieldMappingResult
	imp.View(func(columns []string, _ int, stats map[string]*models.FieldStatistics, sampleRows []map[string]interface{}, language string) {
		if language == "" {
			language = h.DefaultLanguage
		}
		result = h.Analysis.DetectMappings(columns, stats, sampleRows, language)
	})
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) DeleteImport(w http.ResponseWriter, r *http.Request) {
	h.State.Delete(chi.URLParam(r, "importID"))
	w.WriteHeader(http.StatusNoContent)
}

// RankSimilarity scores an uploaded schema against candidates, defaulting
// to the configured catalog.
func (h *Handler) RankSimilarity(w http.ResponseWriter, r *http.Request) {
	var req models.SimilarityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid similarity payload: "+err.Error())
		return
	}
	if len(req.Schema.Fields) == 0 {
		writeError(w, http.StatusBadRequest, "uploaded schema has no fields")
		return
	}

	candidates := req.Candidates
	if len(candidates) == 0 {
		if h.Catalog == nil {
			writeError(w, http.StatusBadRequest, "no candidates given and no catalog configured")
			return
		}
		loaded, err := h.Catalog.LoadTargetSchemas()
		if err != nil {
			log.Printf("catalog load failed: %v", err)
			writeError(w, http.StatusInternalServerError, "catalog unavailable")
			return
		}
		candidates = loaded
	}

	opts := service.DefaultRankOptions()
	if req.MinScore != nil {
		opts.MinScore = *req.MinScore
	}
	if req.MaxResults != nil {
		opts.MaxResults = *req.MaxResults
	}

	results := h.Similarity.RankCandidates(req.Schema, candidates, opts)
	writeJSON(w, http.StatusOK, models.SimilarityResponse{Results: results})
}

// DetectTransforms diffs two schema snapshots and proposes renames.
func (h *Handler) DetectTransforms(w http.ResponseWriter, r *http.Request) {
	var req models.TransformRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid transform payload: "+err.Error())
		return
	}

	changes := service.DiffSchemas(req.OldSchema, req.NewSchema)
	suggestions := h.Transforms.DetectTransforms(req.OldSchema, req.NewSchema, changes)
	writeJSON(w, http.StatusOK, models.TransformResponse{
		Changes:     changes,
		Suggestions: suggestions,
	})
}

func columnsFromRows(rows []map[string]interface{}) []string {
	seen := make(map[string]bool)
	var columns []string
	for _, row := range rows {
		for col := range row {
			if !seen[col] {
				seen[col] = true
				columns = append(columns, col)
			}
		}
	}
	return columns
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, models.ErrorResponse{Error: msg})
}
