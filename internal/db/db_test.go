package db_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/scholarsrs/internal/db"
)

func TestOpen_AppliesMigrations(t *testing.T) {
	d, err := db.Open(":memory:")
	require.NoError(t, err)
	defer d.Close()

	versions, err := d.Migrations(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_session_reports.sql"}, versions)

	var n int
	err = d.QueryRow(`SELECT COUNT(*) FROM session_reports`).Scan(&n)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestOpen_ReopenSkipsAppliedMigrations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports.db")

	d, err := db.Open(path)
	require.NoError(t, err)
	require.NoError(t, d.Close())

	d, err = db.Open(path)
	require.NoError(t, err)
	defer d.Close()

	versions, err := d.Migrations(context.Background())
	require.NoError(t, err)
	assert.Len(t, versions, 1)
}
