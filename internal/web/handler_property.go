package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/vbonduro/homefinder/internal/domain"
	"github.com/vbonduro/homefinder/internal/listing"
	"github.com/vbonduro/homefinder/internal/session"
)

// propertyView is a listing as shown to one viewer.
type propertyView struct {
	domain.PropertyRecord
	Saved bool `json:"saved"`
}

func views(recs []domain.PropertyRecord, sess *session.Session) []propertyView {
	out := make([]propertyView, len(recs))
	for i, rec := range recs {
		out[i] = propertyView{PropertyRecord: rec, Saved: sess.Saved.IsSaved(rec.ID)}
	}
	return out
}

type searchResponse struct {
	Query      string         `json:"query"`
	Sort       string         `json:"sort,omitempty"`
	Count      int            `json:"count"`
	Loaded     bool           `json:"loaded"`
	Properties []propertyView `json:"properties"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	q := r.URL.Query()
	filters, err := domain.ParseSearchFilters(q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	order := listing.SortOrder(q.Get("sort"))
	if !order.Valid() {
		s.writeError(w, r, domain.FieldError("sort", "must be one of [newest price-asc price-desc area-desc]"))
		return
	}

	results := listing.Sort(sess.Search.Search(filters), order)
	writeJSON(w, http.StatusOK, searchResponse{
		Query:      filters.Encode(),
		Sort:       string(order),
		Count:      len(results),
		Loaded:     s.listings.Loaded(),
		Properties: views(results, sess),
	})
}

func (s *Server) handleFeatured(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	writeJSON(w, http.StatusOK, map[string]any{
		"properties": views(s.listings.Featured(), sess),
	})
}

func (s *Server) handleGetProperty(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	rec, ok := s.listings.GetByID(r.PathValue("id"))
	if !ok {
		s.writeError(w, r, fmt.Errorf("property %w", domain.ErrNotFound))
		return
	}
	writeJSON(w, http.StatusOK, propertyView{PropertyRecord: rec, Saved: sess.Saved.IsSaved(rec.ID)})
}

func (s *Server) handleRecentSearches(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	writeJSON(w, http.StatusOK, map[string]any{
		"searches": sess.Search.History(),
	})
}

func (s *Server) handleClearSearches(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	sess.Search.ClearHistory()
	w.WriteHeader(http.StatusNoContent)
}

type mirrorEvent struct {
	Version  uint64 `json:"version"`
	Total    int    `json:"total"`
	Featured int    `json:"featured"`
}

// handlePropertyStream pushes an SSE event each time the property mirror
// changes. The first event describes the current state. The stream ends when
// the client goes away or the server shuts down.
func (s *Server) handlePropertyStream(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		s.logger.Debug("clear write deadline", "error", err)
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	enc := json.NewEncoder(w)
	for {
		version, changed := s.listings.Changes()
		stats := s.listings.Stats()

		if _, err := w.Write([]byte("event: snapshot\ndata: ")); err != nil {
			return
		}
		if err := enc.Encode(mirrorEvent{Version: version, Total: stats.Total, Featured: stats.Featured}); err != nil {
			return
		}
		if _, err := w.Write([]byte("\n")); err != nil {
			return
		}
		if err := rc.Flush(); err != nil {
			s.logger.Debug("flush property stream", "error", err)
		}

		select {
		case <-r.Context().Done():
			return
		case <-s.stopping:
			return
		case <-changed:
		}
	}
}
