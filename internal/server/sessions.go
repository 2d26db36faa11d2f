package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

type createSessionRequest struct {
	ClientID string `json:"clientId"`
}

type tourRequest struct {
	Completed *bool `json:"completed"`
}

// decodeBody decodes an optional JSON body into v.
func decodeBody(r *http.Request, v any) error {
	err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return fmt.Errorf("%w: %v", errBadRequest, err)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	sess, err := s.sessions.Create(req.ClientID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.usage.SessionEvent("start", s.sessions.Len())
	s.writeJSON(w, http.StatusCreated, sess.Snapshot())
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.End(r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.usage.SessionEvent("end", s.sessions.Len())
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetTour(w http.ResponseWriter, r *http.Request) {
	var req tourRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Completed == nil {
		s.writeError(w, r, fmt.Errorf("%w: completed is required", errBadRequest))
		return
	}
	snap, err := s.sessions.SetTourCompleted(r.PathValue("id"), *req.Completed)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, snap)
}
