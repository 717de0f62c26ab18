package worker

import (
	"context"
	"errors"

	"github.com/vytor/scholarsrs/internal/logger"
	"github.com/vytor/scholarsrs/internal/models"
)

// ArchiveReportJob writes the report of a finished session.
type ArchiveReportJob struct {
	Archiver ReportArchiver
	Report   models.Report
}

func (j *ArchiveReportJob) Name() string { return "archive_report" }

func (j *ArchiveReportJob) Run(ctx context.Context) error {
	if j.Archiver == nil {
		return errors.New("archive job has no archiver")
	}
	log := logger.FromContext(ctx).WithField("session_id", j.Report.SessionID)
	id, err := j.Archiver.Record(ctx, j.Report)
	if err != nil {
		return err
	}
	log.Info("archived report id=%d (%d/%d mastered)", id, j.Report.MasteredCount, j.Report.TotalCount)
	return nil
}
