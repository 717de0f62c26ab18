package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/vytor/scholarsrs/internal/logger"
	"github.com/vytor/scholarsrs/internal/models"
	"github.com/vytor/scholarsrs/internal/repository"
)

var sqlBuilder = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)

var reportColumns = []string{
	"id", "session_id", "total_hours", "mastered_count", "total_count", "mastery_percent",
	"elapsed_ms", "accuracy_pct", "learning_rate", "total_reviews", "longest_streak",
	"started_at", "completed_at",
}

const defaultListLimit = 50

type reportRepository struct {
	db *sql.DB
}

// NewReportRepository creates a new ReportRepository implementation
func NewReportRepository(db *sql.DB) repository.ReportRepository {
	return &reportRepository{db: db}
}

// Insert stores a report. Archiving the same session twice returns the
// id of the existing row.
func (r *reportRepository) Insert(ctx context.Context, rep models.Report) (int64, error) {
	log := logger.FromContext(ctx).WithPrefix("report_repo")
	log.Debug("inserting report: session_id=%s", rep.SessionID)

	res, err := r.db.ExecContext(ctx, `
INSERT INTO session_reports (
    session_id, total_hours, mastered_count, total_count, mastery_percent, elapsed_ms,
    accuracy_pct, learning_rate, total_reviews, longest_streak, started_at, completed_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(session_id) DO NOTHING
`, rep.SessionID, rep.TotalHours, rep.MasteredCount, rep.TotalCount, rep.MasteryPercent, rep.Elapsed.Milliseconds(),
		rep.AccuracyPct, rep.LearningRate, rep.TotalReviews, rep.LongestStreak, rep.StartedAt.UTC(), rep.CompletedAt.UTC())
	if err != nil {
		log.Error("failed to insert report: %v", err)
		return 0, err
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		id, err := res.LastInsertId()
		if err == nil {
			log.Debug("report inserted: id=%d", id)
		}
		return id, err
	}

	var id int64
	err = r.db.QueryRowContext(ctx, `SELECT id FROM session_reports WHERE session_id = ?`, rep.SessionID).Scan(&id)
	if err != nil {
		log.Error("failed to get report id: %v", err)
	} else {
		log.Debug("report exists: id=%d", id)
	}
	return id, err
}

func (r *reportRepository) Get(ctx context.Context, id int64) (*models.Report, error) {
	return r.getWhere(ctx, squirrel.Eq{"id": id})
}

func (r *reportRepository) GetBySession(ctx context.Context, sessionID string) (*models.Report, error) {
	return r.getWhere(ctx, squirrel.Eq{"session_id": sessionID})
}

func (r *reportRepository) getWhere(ctx context.Context, where squirrel.Eq) (*models.Report, error) {
	log := logger.FromContext(ctx).WithPrefix("report_repo")

	query, args, err := sqlBuilder.Select(reportColumns...).From("session_reports").Where(where).ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}
	rep, err := scanReport(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("report not found: %v", where)
		} else {
			log.Error("failed to get report: %v", err)
		}
		return nil, err
	}
	return rep, nil
}

func (r *reportRepository) List(ctx context.Context, filter models.ReportFilter) ([]models.Report, error) {
	log := logger.FromContext(ctx).WithPrefix("report_repo")
	log.Debug("listing reports: min_accuracy=%d, limit=%d, offset=%d", filter.MinAccuracy, filter.Limit, filter.Offset)

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	offset := max(filter.Offset, 0)

	query := applyReportFilter(sqlBuilder.Select(reportColumns...).From("session_reports"), filter).
		OrderBy("completed_at DESC", "id DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset))

	sqlStr, args, err := query.ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		log.Error("failed to list reports: %v", err)
		return nil, err
	}
	defer rows.Close()

	var out []models.Report
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			log.Error("failed to scan report row: %v", err)
			return nil, err
		}
		out = append(out, *rep)
	}
	log.Debug("found %d reports", len(out))
	return out, rows.Err()
}

func (r *reportRepository) Count(ctx context.Context, filter models.ReportFilter) (int, error) {
	log := logger.FromContext(ctx).WithPrefix("report_repo")

	sqlStr, args, err := applyReportFilter(sqlBuilder.Select("COUNT(*)").From("session_reports"), filter).ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return 0, err
	}
	var count int
	if err := r.db.QueryRowContext(ctx, sqlStr, args...).Scan(&count); err != nil {
		log.Error("failed to count reports: %v", err)
		return 0, err
	}
	return count, nil
}

func applyReportFilter(q squirrel.SelectBuilder, filter models.ReportFilter) squirrel.SelectBuilder {
	if filter.MinAccuracy > 0 {
		q = q.Where(squirrel.GtOrEq{"accuracy_pct": filter.MinAccuracy})
	}
	if filter.Since != nil {
		q = q.Where(squirrel.GtOrEq{"completed_at": filter.Since.UTC()})
	}
	return q
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReport(row rowScanner) (*models.Report, error) {
	var (
		rep       models.Report
		elapsedMs int64
	)
	err := row.Scan(&rep.ID, &rep.SessionID, &rep.TotalHours, &rep.MasteredCount, &rep.TotalCount, &rep.MasteryPercent,
		&elapsedMs, &rep.AccuracyPct, &rep.LearningRate, &rep.TotalReviews, &rep.LongestStreak,
		&rep.StartedAt, &rep.CompletedAt)
	if err != nil {
		return nil, err
	}
	rep.Elapsed = time.Duration(elapsedMs) * time.Millisecond
	rep.Hours = int(rep.Elapsed.Hours())
	rep.Minutes = int(rep.Elapsed.Minutes()) % 60
	return &rep, nil
}
