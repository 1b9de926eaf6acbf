package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"spoadmin/domain/contracts"
	"spoadmin/domain/records"
	"spoadmin/domain/requests"
)

// MockSiteDirectory implements SiteDirectory for testing
type MockSiteDirectory struct {
	mock.Mock
}

func (m *MockSiteDirectory) ListSites(ctx context.Context, search string) ([]contracts.Site, error) {
	args := m.Called(ctx, search)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]contracts.Site), args.Error(1)
}

// MockRecordSource implements RecordSource for testing
type MockRecordSource struct {
	mock.Mock
}

func (m *MockRecordSource) FetchRecords(ctx context.Context, containerIDs []string) ([]records.Record, error) {
	args := m.Called(ctx, containerIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]records.Record), args.Error(1)
}

// MockRecordWriter implements RecordWriter for testing
type MockRecordWriter struct {
	mock.Mock
}

func (m *MockRecordWriter) WriteRecord(ctx context.Context, record records.Record) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

// MockRequestExecutor implements the ad-hoc request executor for testing
type MockRequestExecutor struct {
	mock.Mock
}

func (m *MockRequestExecutor) Execute(ctx context.Context, req requests.Request) ([]byte, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}
