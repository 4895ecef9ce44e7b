package web

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"mastergate/internal/core"
	"mastergate/internal/inspect"
	"mastergate/internal/warehouse"
)

// handleLoadData returns the current contents of a master's data table.
// A table that does not exist yet yields an empty row list.
func (s *Server) handleLoadData(w http.ResponseWriter, r *http.Request) {
	master := chi.URLParam(r, "master")
	batch, err := s.service.Load(r.Context(), master)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if batch == nil {
		batch = warehouse.Batch{}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"master": master,
		"rows":   batch,
		"count":  len(batch),
	})
}

// handleSaveData overwrites a master's table with the posted rows after
// they pass inspection. A rejected batch comes back as 422 with the
// full violation list.
func (s *Server) handleSaveData(w http.ResponseWriter, r *http.Request) {
	var req dataRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, "invalid JSON body")
		return
	}

	master := chi.URLParam(r, "master")
	if err := s.service.Save(r.Context(), master, req.Rows); err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"master": master,
		"saved":  len(req.Rows),
	})
}

// handleInspect runs the governance checks without writing anything.
func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	var req dataRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, "invalid JSON body")
		return
	}

	master := chi.URLParam(r, "master")
	violations, err := s.service.InspectOnly(r.Context(), master, req.Rows)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if violations == nil {
		violations = []inspect.Violation{}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"master":     master,
		"clean":      len(violations) == 0,
		"violations": violations,
	})
}

// handleAuditLog returns the newest audit entries, most recent first.
// Responds 404 when auditing is disabled.
func (s *Server) handleAuditLog(w http.ResponseWriter, r *http.Request) {
	if s.audit == nil {
		respondJSON(w, http.StatusNotFound, ErrorResponse{
			Error:   "audit log is disabled",
			Message: "audit log is disabled",
			Code:    "AUD001",
		})
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 1000 {
			respondBadRequest(w, "limit must be an integer between 1 and 1000")
			return
		}
		limit = n
	}

	entries, err := s.audit.Recent(r.Context(), limit)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if entries == nil {
		entries = []core.AuditEntry{}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"entries": entries,
		"count":   len(entries),
	})
}
