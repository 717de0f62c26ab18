package mocks

import (
	"github.com/stretchr/testify/mock"
	"github.com/vytor/scholarsrs/internal/models"
)

// MockJobQueue is a mock implementation of jobs.JobQueue
type MockJobQueue struct {
	mock.Mock
}

func (m *MockJobQueue) EnqueueArchive(report models.Report) error {
	args := m.Called(report)
	return args.Error(0)
}
