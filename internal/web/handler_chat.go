package web

import (
	"net/http"
	"strings"

	"github.com/vbonduro/homefinder/internal/domain"
	"github.com/vbonduro/homefinder/internal/session"
)

type startThreadRequest struct {
	PropertyID    string `json:"propertyId"`
	PropertyTitle string `json:"propertyTitle"`
}

func (s *Server) handleStartThread(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	var req startThreadRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	req.PropertyID = strings.TrimSpace(req.PropertyID)
	if req.PropertyID == "" {
		s.writeError(w, r, domain.FieldError("propertyId", "is required"))
		return
	}
	if req.PropertyTitle == "" {
		if rec, ok := s.listings.GetByID(req.PropertyID); ok {
			req.PropertyTitle = rec.Title
		}
	}

	id := sess.Chat.StartThread(req.PropertyID, req.PropertyTitle)
	th, err := sess.Chat.Thread(id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, th)
}

func (s *Server) handleListThreads(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	active, open := sess.Chat.Active()
	writeJSON(w, http.StatusOK, map[string]any{
		"threads":      sess.Chat.Threads(),
		"unreadTotal":  sess.Chat.UnreadTotal(),
		"activeThread": active,
		"open":         open,
	})
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	msgs, err := sess.Chat.Messages(r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": msgs})
}

type sendMessageRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	var req sendMessageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	msg, err := sess.Chat.Send(r.PathValue("id"), req.Text)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

func (s *Server) handleMarkThreadRead(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	if err := sess.Chat.MarkRead(r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleActivateThread(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	if err := sess.Chat.SetActive(r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleOpenChat(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	sess.Chat.Open()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCloseChat(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	sess.Chat.Close()
	w.WriteHeader(http.StatusNoContent)
}
