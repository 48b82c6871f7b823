package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/naze/internal/dataset"
	"github.com/hyperjump/naze/internal/models"
)

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req models.AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Debug("analyze request", zap.String("query", req.Query))

	resp, err := s.engine.Analyze(r.Context(), req.Query)
	if err != nil {
		if errors.Is(err, dataset.ErrEmptyDataset) {
			s.respondError(w, http.StatusUnprocessableEntity, "no historical data loaded")
			return
		}
		s.logger.Error("analysis failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.engine.Provider().Snapshot()
	info := s.engine.ModelInfo()
	resp := map[string]interface{}{
		"dataset": map[string]interface{}{
			"orders":           len(snap.Orders),
			"fleet_logs":       len(snap.FleetLogs),
			"drivers":          len(snap.Drivers),
			"warehouse_logs":   len(snap.WarehouseLogs),
			"external_factors": len(snap.ExternalFactors),
			"feedback":         len(snap.Feedback),
			"warehouses":       len(snap.Warehouses),
			"clients":          len(snap.Clients),
			"loaded_at":        snap.LoadedAt,
		},
		"model": info,
	}
	if !s.started.IsZero() {
		resp["uptime_seconds"] = int64(time.Since(s.started).Seconds())
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
