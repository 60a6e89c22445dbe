package web

import (
	"net/http"
	"strconv"

	"github.com/vbonduro/homefinder/internal/domain"
)

func (s *Server) handleCreateProperty(w http.ResponseWriter, r *http.Request) {
	var in domain.PropertyInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	rec, err := s.service.CreateProperty(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleUpdateProperty(w http.ResponseWriter, r *http.Request) {
	var in domain.PropertyInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	rec, err := s.service.UpdateProperty(r.Context(), r.PathValue("id"), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDeleteProperty(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteProperty(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"properties": s.listings.Stats(),
		"sessions":   s.sessions.Len(),
	})
}

// handleQueryProperties reads listings straight from the gateway with a
// single-field comparison: ?field=price&op=<&value=500000&limit=20.
func (s *Server) handleQueryProperties(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := 0
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.writeError(w, r, domain.FieldError("limit", "must be a non-negative integer"))
			return
		}
		limit = n
	}
	recs, err := s.service.QueryProperties(r.Context(), q.Get("field"), q.Get("op"), q.Get("value"), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"properties": recs})
}
