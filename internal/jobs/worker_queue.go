package jobs

import (
	"github.com/vytor/scholarsrs/internal/models"
	"github.com/vytor/scholarsrs/internal/worker"
)

// WorkerQueue implements JobQueue using a worker pool
type WorkerQueue struct {
	archivePool *worker.Pool
	archiver    worker.ReportArchiver
}

// NewWorkerQueue creates a new WorkerQueue implementation
func NewWorkerQueue(archivePool *worker.Pool, archiver worker.ReportArchiver) JobQueue {
	return &WorkerQueue{archivePool: archivePool, archiver: archiver}
}

func (q *WorkerQueue) EnqueueArchive(report models.Report) error {
	return q.archivePool.Submit(&worker.ArchiveReportJob{
		Archiver: q.archiver,
		Report:   report,
	})
}
