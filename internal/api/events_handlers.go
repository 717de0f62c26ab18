package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/vytor/scholarsrs/internal/events"
	"github.com/vytor/scholarsrs/internal/logger"
)

const (
	eventBuffer       = 64
	keepAliveInterval = 15 * time.Second
)

// handleSessionEvents streams session events as server-sent events. The
// bus delivers synchronously under the session lock, so a slow client
// loses events instead of stalling the session.
func (s *Server) handleSessionEvents(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	stream := make(chan events.Event, eventBuffer)
	unsubscribe := s.StudyService.Subscribe(func(e events.Event) {
		select {
		case stream <- e:
		default:
			log.Warn("event stream full, dropping %s", e.Type)
		}
	})
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	log.Debug("event stream opened")

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case e := <-stream:
			data, err := json.Marshal(hideAnswer(e))
			if err != nil {
				log.Warn("failed to encode %s event: %v", e.Type, err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Type, data)
			flusher.Flush()
		case <-keepAlive.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		case <-r.Context().Done():
			log.Debug("event stream closed")
			return
		}
	}
}

// hideAnswer blanks the answer of a card that has only been displayed.
func hideAnswer(e events.Event) events.Event {
	if e.Type != events.CardDisplayed {
		return e
	}
	if p, ok := e.Data.(events.CardPayload); ok {
		p.Card.Answer = ""
		e.Data = p
	}
	return e
}
