package repository

import (
	"context"

	"github.com/vytor/scholarsrs/internal/models"
)

// ReportRepository stores the reports of completed sessions.
type ReportRepository interface {
	Insert(ctx context.Context, report models.Report) (int64, error)
	Get(ctx context.Context, id int64) (*models.Report, error)
	GetBySession(ctx context.Context, sessionID string) (*models.Report, error)
	List(ctx context.Context, filter models.ReportFilter) ([]models.Report, error)
	Count(ctx context.Context, filter models.ReportFilter) (int, error)
}
