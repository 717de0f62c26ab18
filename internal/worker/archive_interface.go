package worker

import (
	"context"

	"github.com/vytor/scholarsrs/internal/models"
)

// ReportArchiver stores completed-session reports.
// This avoids import cycles by not importing the services package
type ReportArchiver interface {
	Record(ctx context.Context, report models.Report) (int64, error)
}
