package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/rbeezley/myk9q-scoring/internal/models"
	"github.com/rbeezley/myk9q-scoring/internal/scoring"
)

type areaTimeRequest struct {
	Time string `json:"time"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	entryID := chi.URLParam(r, "id")

	sess, err := s.scoring.CreateSession(r.Context(), entryID)
	if err != nil {
		respondServiceError(w, err, "create session")
		return
	}

	slog.Info("session opened", "session_id", sess.ID, "entry_id", entryID, "client", clientName(r.Context()))
	respondJSON(w, http.StatusCreated, s.scoring.View(sess))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.scoring.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, err, "get session")
		return
	}
	respondJSON(w, http.StatusOK, s.scoring.View(sess))
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.scoring.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondServiceError(w, err, "delete session")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"message": "session deleted",
	})
}

func (s *Server) handleStartTimer(w http.ResponseWriter, r *http.Request) {
	s.timerAction(w, r, "start timer", s.scoring.Start)
}

func (s *Server) handleStopTimer(w http.ResponseWriter, r *http.Request) {
	s.timerAction(w, r, "stop timer", s.scoring.Stop)
}

func (s *Server) handleResetTimer(w http.ResponseWriter, r *http.Request) {
	s.timerAction(w, r, "reset timer", s.scoring.Reset)
}

func (s *Server) handleSetAreaTime(w http.ResponseWriter, r *http.Request) {
	area, err := strconv.Atoi(chi.URLParam(r, "area"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_area", "area must be a number")
		return
	}

	var req areaTimeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	sess, err := s.scoring.SetAreaTime(r.Context(), chi.URLParam(r, "id"), area, req.Time)
	if err != nil {
		respondServiceError(w, err, "set area time")
		return
	}
	respondJSON(w, http.StatusOK, s.scoring.View(sess))
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var result models.Result
	if !decodeJSON(w, r, &result) {
		return
	}

	sess, err := s.scoring.Submit(r.Context(), chi.URLParam(r, "id"), result)
	if err != nil {
		respondServiceError(w, err, "submit score")
		return
	}

	slog.Info("score recorded",
		"session_id", sess.ID,
		"entry_id", sess.EntryID,
		"result", result.String(),
		"client", clientName(r.Context()),
	)
	respondJSON(w, http.StatusOK, s.scoring.View(sess))
}

type sessionAction func(ctx context.Context, id string) (*scoring.Session, error)

func (s *Server) timerAction(w http.ResponseWriter, r *http.Request, action string, fn sessionAction) {
	sess, err := fn(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, err, action)
		return
	}
	respondJSON(w, http.StatusOK, s.scoring.View(sess))
}
