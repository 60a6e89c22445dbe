package web

import (
	"net/http"

	"github.com/vbonduro/homefinder/internal/domain"
	"github.com/vbonduro/homefinder/internal/session"
)

func (s *Server) handleToggleSaved(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	id := r.PathValue("id")
	saved := sess.Saved.Toggle(id)
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "saved": saved})
}

// handleListSaved returns the saved ids along with whichever of them are
// still listed.
func (s *Server) handleListSaved(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	ids := sess.Saved.IDs()
	props := make([]domain.PropertyRecord, 0, len(ids))
	for _, id := range ids {
		if rec, ok := s.listings.GetByID(id); ok {
			props = append(props, rec)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ids":        ids,
		"properties": props,
	})
}
