package mocks

import (
	"github.com/stretchr/testify/mock"

	"spoadmin/domain/events"
)

// MockRecordEventPublisher is a mock implementation of RecordEventPublisher for testing
type MockRecordEventPublisher struct {
	mock.Mock
}

func (m *MockRecordEventPublisher) PublishFieldChanged(event events.FieldChangedEvent) {
	m.Called(event)
}

func (m *MockRecordEventPublisher) PublishCommitFinished(event events.CommitFinishedEvent) {
	m.Called(event)
}

func (m *MockRecordEventPublisher) PublishRecordsLoaded(event events.RecordsLoadedEvent) {
	m.Called(event)
}
