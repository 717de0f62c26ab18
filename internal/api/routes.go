package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

const requestTimeout = 10 * time.Second

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)
	r.Use(securityHeadersMiddleware)

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		if s.RateLimiter != nil {
			r.Use(s.RateLimiter.Middleware)
		}

		// The event stream stays open, so it sits outside the timeout group.
		r.Get("/session/events", s.handleSessionEvents)

		r.Group(func(r chi.Router) {
			r.Use(timeoutMiddleware(requestTimeout))

			r.Post("/session", s.handleStartSession)
			r.Get("/session", s.handleCurrentSession)
			r.Delete("/session", s.handleStopSession)
			r.Post("/session/next", s.sessionAction("next", s.StudyService.Next))
			r.Post("/session/reveal", s.sessionAction("reveal", s.StudyService.Reveal))
			r.Post("/session/correct", s.sessionAction("correct", s.StudyService.Correct))
			r.Post("/session/wrong", s.sessionAction("wrong", s.StudyService.Wrong))
			r.Post("/session/skip", s.sessionAction("skip", s.StudyService.Skip))
			r.Post("/session/pause", s.sessionAction("pause", s.StudyService.Pause))
			r.Post("/session/resume", s.sessionAction("resume", s.StudyService.Resume))
			r.Post("/session/break/skip", s.sessionAction("skip_break", s.StudyService.SkipBreak))
			r.Get("/session/cards/{id}/history", s.handleCardHistory)

			r.Get("/reports", s.handleListReports)
			r.Get("/reports/{id}", s.handleGetReport)
		})
	})
	return r
}
