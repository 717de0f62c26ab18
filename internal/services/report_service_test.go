package services_test

import (
	"context"
	"database/sql"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vytor/scholarsrs/internal/errors"
	"github.com/vytor/scholarsrs/internal/models"
	"github.com/vytor/scholarsrs/internal/services"
	"github.com/vytor/scholarsrs/internal/testutil"
	"github.com/vytor/scholarsrs/internal/testutil/mocks"
)

func TestReportService_Record(t *testing.T) {
	repo := &mocks.MockReportRepository{}
	svc := services.NewReportService(repo)
	report := testutil.SampleReport("s-1", 80, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC))

	repo.On("Insert", mock.Anything, report).Return(int64(4), nil).Once()
	id, err := svc.Record(context.Background(), report)
	require.NoError(t, err)
	assert.Equal(t, int64(4), id)

	_, err = svc.Record(context.Background(), models.Report{})
	assert.True(t, errors.IsValidation(err))

	repo.On("Insert", mock.Anything, mock.Anything).Return(int64(0), stderrors.New("disk")).Once()
	_, err = svc.Record(context.Background(), testutil.SampleReport("s-2", 50, time.Now()))
	appErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeInternal, appErr.Code)

	repo.AssertExpectations(t)
}

func TestReportService_Get(t *testing.T) {
	repo := &mocks.MockReportRepository{}
	svc := services.NewReportService(repo)
	report := testutil.SampleReport("s-1", 80, time.Now())
	report.ID = 9

	repo.On("Get", mock.Anything, int64(9)).Return(&report, nil)
	repo.On("Get", mock.Anything, int64(10)).Return(nil, sql.ErrNoRows)

	got, err := svc.Get(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, "s-1", got.SessionID)

	_, err = svc.Get(context.Background(), 10)
	appErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeNotFound, appErr.Code)
	assert.Equal(t, 404, appErr.Status)
}

func TestReportService_List(t *testing.T) {
	repo := &mocks.MockReportRepository{}
	svc := services.NewReportService(repo)
	filter := models.ReportFilter{MinAccuracy: 60, Limit: 10}
	reports := []models.Report{testutil.SampleReport("a", 70, time.Now())}

	repo.On("List", mock.Anything, filter).Return(reports, nil).Once()
	repo.On("Count", mock.Anything, filter).Return(3, nil).Once()

	got, total, err := svc.List(context.Background(), filter)
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, 3, total)
	repo.AssertExpectations(t)
}

func TestReportService_ListValidation(t *testing.T) {
	svc := services.NewReportService(&mocks.MockReportRepository{})

	tests := []struct {
		name   string
		filter models.ReportFilter
	}{
		{"accuracy below zero", models.ReportFilter{MinAccuracy: -1}},
		{"accuracy above hundred", models.ReportFilter{MinAccuracy: 101}},
		{"limit too large", models.ReportFilter{Limit: 500}},
		{"negative offset", models.ReportFilter{Offset: -5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.List(context.Background(), tt.filter)
			assert.True(t, errors.IsValidation(err))
		})
	}
}
