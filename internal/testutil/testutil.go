package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vytor/scholarsrs/internal/db"
	"github.com/vytor/scholarsrs/internal/models"
)

// NewTestDB creates an in-memory SQLite database with all migrations applied.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()
	d, err := db.Open(":memory:")
	require.NoError(t, err)
	return d.DB
}

// MustClose closes a resource and fails the test on error.
func MustClose(t *testing.T, closer interface{ Close() error }) {
	require.NoError(t, closer.Close())
}

// SampleReport returns a completed-session report with plausible values.
func SampleReport(sessionID string, accuracy int, completedAt time.Time) models.Report {
	elapsed := 95 * time.Minute
	return models.Report{
		SessionID:      sessionID,
		TotalHours:     2,
		MasteredCount:  8,
		TotalCount:     10,
		MasteryPercent: 80,
		Elapsed:        elapsed,
		Hours:          1,
		Minutes:        35,
		AccuracyPct:    accuracy,
		LearningRate:   1.25,
		TotalReviews:   140,
		LongestStreak:  12,
		StartedAt:      completedAt.Add(-elapsed),
		CompletedAt:    completedAt,
	}
}
