package services

import (
	"github.com/vytor/scholarsrs/internal/events"
	"github.com/vytor/scholarsrs/internal/jobs"
	"github.com/vytor/scholarsrs/internal/logger"
)

// ArchiveCompletedSessions queues the report of every completed session
// for storage. The handler never blocks the publishing session.
func ArchiveCompletedSessions(bus *events.Bus, queue jobs.JobQueue, log *logger.Logger) (unsubscribe func()) {
	if log == nil {
		log = logger.Default()
	}
	log = log.WithPrefix("archive")
	return bus.Subscribe(func(e events.Event) {
		if e.Type != events.SessionCompleted {
			return
		}
		payload, ok := e.Data.(events.CompletedPayload)
		if !ok {
			log.Warn("session %s completed without a report payload", e.SessionID)
			return
		}
		if err := queue.EnqueueArchive(payload.Report); err != nil {
			log.Warn("failed to queue report of session %s: %v", e.SessionID, err)
		}
	})
}
