package services

import (
	"context"
	"database/sql"
	stderrors "errors"

	"github.com/vytor/scholarsrs/internal/errors"
	"github.com/vytor/scholarsrs/internal/logger"
	"github.com/vytor/scholarsrs/internal/models"
	"github.com/vytor/scholarsrs/internal/repository"
)

const maxReportPage = 200

// ReportService handles the archive of completed-session reports
type ReportService interface {
	Record(ctx context.Context, report models.Report) (int64, error)
	Get(ctx context.Context, id int64) (*models.Report, error)
	List(ctx context.Context, filter models.ReportFilter) ([]models.Report, int, error)
}

type reportService struct {
	reportRepo repository.ReportRepository
}

// NewReportService creates a new ReportService
func NewReportService(reportRepo repository.ReportRepository) ReportService {
	return &reportService{reportRepo: reportRepo}
}

func (s *reportService) Record(ctx context.Context, report models.Report) (int64, error) {
	log := logger.FromContext(ctx)
	log.Debug("recording report: session_id=%s", report.SessionID)

	if report.SessionID == "" {
		return 0, errors.NewValidationError("session_id", "cannot be empty")
	}
	id, err := s.reportRepo.Insert(ctx, report)
	if err != nil {
		log.Error("failed to insert report: %v", err)
		return 0, errors.NewInternalError(err)
	}
	return id, nil
}

func (s *reportService) Get(ctx context.Context, id int64) (*models.Report, error) {
	log := logger.FromContext(ctx)
	log.Debug("getting report: id=%d", id)

	report, err := s.reportRepo.Get(ctx, id)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NewNotFoundError("report", id)
		}
		log.Error("failed to get report: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return report, nil
}

func (s *reportService) List(ctx context.Context, filter models.ReportFilter) ([]models.Report, int, error) {
	log := logger.FromContext(ctx)
	log.Debug("listing reports: min_accuracy=%d, limit=%d, offset=%d", filter.MinAccuracy, filter.Limit, filter.Offset)

	if filter.MinAccuracy < 0 || filter.MinAccuracy > 100 {
		return nil, 0, errors.NewValidationError("min_accuracy", "must be between 0 and 100")
	}
	if filter.Limit < 0 || filter.Limit > maxReportPage {
		return nil, 0, errors.NewValidationError("limit", "must be between 0 and 200")
	}
	if filter.Offset < 0 {
		return nil, 0, errors.NewValidationError("offset", "cannot be negative")
	}

	reports, err := s.reportRepo.List(ctx, filter)
	if err != nil {
		log.Error("failed to list reports: %v", err)
		return nil, 0, errors.NewInternalError(err)
	}
	total, err := s.reportRepo.Count(ctx, filter)
	if err != nil {
		log.Error("failed to count reports: %v", err)
		return nil, 0, errors.NewInternalError(err)
	}
	return reports, total, nil
}
