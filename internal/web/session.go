package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/vbonduro/homefinder/internal/session"
)

const (
	sessionCookie = "hf_session"

	// viewerHeader carries the viewer id asserted by the fronting auth proxy.
	viewerHeader = "X-Viewer-ID"
)

type sessionHandler func(w http.ResponseWriter, r *http.Request, sess *session.Session)

// withSession resolves the caller's session from the cookie, creating one
// when the cookie is missing or stale.
func (s *Server) withSession(h sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.session(w, r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		h(w, r, sess)
	}
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) (*session.Session, error) {
	viewer := strings.TrimSpace(r.Header.Get(viewerHeader))

	if c, err := r.Cookie(sessionCookie); err == nil {
		if sess, ok := s.sessions.Get(c.Value); ok {
			if viewer == "" {
				return sess, nil
			}
			err := s.sessions.Authenticate(r.Context(), sess, viewer)
			if err == nil {
				return sess, nil
			}
			if !errors.Is(err, session.ErrViewerChanged) {
				return nil, err
			}
			s.logger.Info("viewer changed, replacing session", "session_id", sess.ID)
			s.sessions.Delete(sess.ID)
		}
	}

	sess, err := s.sessions.Create(r.Context(), viewer)
	if err != nil {
		return nil, err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return sess, nil
}
