package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/alejandrodnm/walkforward/internal/domain"
)

const defaultListLimit = 50

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "walkforward",
	})
}

// handleListRuns: GET /api/runs?limit=N
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	runs, err := s.store.ListRuns(r.Context(), limit)
	if err != nil {
		s.storeError(w, err)
		return
	}
	out := make([]runInfoDTO, 0, len(runs))
	for _, info := range runs {
		out = append(out, toRunInfoDTO(info))
	}
	writeJSON(w, http.StatusOK, out)
}

// handleGetRun: metadatos, splits y resumen. Las predicciones van aparte.
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.store.GetRun(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, runDTO{
		runInfoDTO: toRunInfoDTO(run.RunInfo),
		Splits:     toSplitDTOs(run.Report.Splits),
		Summary:    toSummaryDTOs(run.Report.Summary),
	})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.store.GetSummary(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSummaryDTOs(summary))
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	metrics, err := s.store.GetMetrics(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMetricDTOs(metrics))
}

// handlePredictions: GET /api/runs/{id}/predictions?strategy=naive
func (s *Server) handlePredictions(w http.ResponseWriter, r *http.Request) {
	preds, err := s.store.GetPredictions(r.Context(),
		chi.URLParam(r, "runID"), r.URL.Query().Get("strategy"))
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPredictionDTOs(preds))
}

func (s *Server) storeError(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrRunNotFound) {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	slog.Error("store request failed", "err", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
