package jobs

import "github.com/vytor/scholarsrs/internal/models"

// JobQueue provides an abstraction for enqueueing background jobs
type JobQueue interface {
	EnqueueArchive(report models.Report) error
}
