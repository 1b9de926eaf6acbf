package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"spoadmin/domain/contracts"
	"spoadmin/domain/records"
)

// MockCommitJournalRepository implements CommitJournalRepository for testing
type MockCommitJournalRepository struct {
	mock.Mock
}

func (m *MockCommitJournalRepository) SaveCommitRun(ctx context.Context, result records.CommitResult) error {
	args := m.Called(ctx, result)
	return args.Error(0)
}

func (m *MockCommitJournalRepository) ListCommitRuns(ctx context.Context, limit int) ([]contracts.CommitRunSummary, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]contracts.CommitRunSummary), args.Error(1)
}

func (m *MockCommitJournalRepository) GetCommitRun(ctx context.Context, runID string) (*records.CommitResult, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*records.CommitResult), args.Error(1)
}
