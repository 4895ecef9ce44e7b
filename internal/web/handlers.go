package web

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"mastergate/internal/schema"
	"mastergate/internal/warehouse"
)

// createMasterRequest is the body of POST /api/masters.
type createMasterRequest struct {
	Master  string          `json:"master"`
	Columns []schema.Column `json:"columns"`
}

// updateSchemaRequest is the body of PUT /api/masters/{master}/schema.
type updateSchemaRequest struct {
	Columns []schema.Column `json:"columns"`
}

// dataRequest is the body of POST .../data and POST .../inspect.
type dataRequest struct {
	Rows []warehouse.Row `json:"rows"`
}

// handleListMasters returns all registered master names.
func (s *Server) handleListMasters(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"masters": s.service.Masters(),
	})
}

// handleCreateMaster provisions a new master from the posted schema.
func (s *Server) handleCreateMaster(w http.ResponseWriter, r *http.Request) {
	var req createMasterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, "invalid JSON body")
		return
	}
	if req.Master == "" {
		respondBadRequest(w, "master name is required")
		return
	}

	result, err := s.service.CreateMaster(r.Context(), req.Master, req.Columns)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, result)
}

// handleDeleteMaster removes a master's schema definition. The data
// table is left in place.
func (s *Server) handleDeleteMaster(w http.ResponseWriter, r *http.Request) {
	master := chi.URLParam(r, "master")
	if err := s.service.DeleteMaster(r.Context(), master); err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"master":  master,
		"deleted": true,
	})
}

// handleGetSchema returns the schema definition for a master.
func (s *Server) handleGetSchema(w http.ResponseWriter, r *http.Request) {
	def, err := s.service.Schema(chi.URLParam(r, "master"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, def)
}

// handleUpdateSchema replaces a master's schema definition.
func (s *Server) handleUpdateSchema(w http.ResponseWriter, r *http.Request) {
	var req updateSchemaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, "invalid JSON body")
		return
	}

	def, err := s.service.UpdateSchema(r.Context(), chi.URLParam(r, "master"), req.Columns)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, def)
}
