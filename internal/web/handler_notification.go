package web

import (
	"net/http"

	"github.com/vbonduro/homefinder/internal/domain"
	"github.com/vbonduro/homefinder/internal/session"
)

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	writeJSON(w, http.StatusOK, map[string]any{
		"notifications": sess.Feed.List(),
		"unreadCount":   sess.Feed.UnreadCount(),
	})
}

func (s *Server) handleAddNotification(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	var req domain.NewNotification
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	n, err := sess.Feed.Add(req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, n)
}

func (s *Server) handleMarkNotificationRead(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	if err := sess.Feed.MarkRead(r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMarkAllNotificationsRead(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	sess.Feed.MarkAllRead()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteNotification(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	if err := sess.Feed.Delete(r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
