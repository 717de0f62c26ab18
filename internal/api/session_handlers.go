package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/vytor/scholarsrs/internal/errors"
	"github.com/vytor/scholarsrs/internal/logger"
	"github.com/vytor/scholarsrs/internal/models"
)

type startSessionRequest struct {
	Hours     float64 `json:"hours"`
	Questions string  `json:"questions"`
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	var req startSessionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	log.Debug("start session requested: hours=%.2f", req.Hours)

	snap, err := s.StudyService.Start(r.Context(), req.Hours, req.Questions)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, snap)
}

func (s *Server) handleCurrentSession(w http.ResponseWriter, r *http.Request) {
	snap, err := s.StudyService.Current(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, snap)
}

func (s *Server) handleStopSession(w http.ResponseWriter, r *http.Request) {
	if err := s.StudyService.Stop(r.Context()); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// sessionAction adapts a snapshot-returning study operation to a handler.
func (s *Server) sessionAction(name string, op func(context.Context) (models.Snapshot, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContext(r.Context()).WithField("action", name)
		ctx := logger.NewContext(r.Context(), log)

		snap, err := op(ctx)
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, snap)
	}
}

func (s *Server) handleCardHistory(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, errors.NewBadRequestError("invalid card id"))
		return
	}

	history, err := s.StudyService.History(r.Context(), id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if history == nil {
		history = []models.Response{}
	}
	writeJSON(w, r, http.StatusOK, map[string]any{
		"card_id":   id,
		"responses": history,
	})
}
