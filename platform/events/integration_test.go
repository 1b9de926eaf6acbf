package events

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"spoadmin/application"
	"spoadmin/domain/contracts"
	"spoadmin/domain/records"
	"spoadmin/test/helpers"
)

// Integration test for the complete flow: store and committer -> event bus -> SSE
func TestEventSystem_EndToEndFlow_StoreToSSENotification(t *testing.T) {
	// Arrange
	mockSSE := &MockSSEBroadcaster{}
	eventBus := NewRecordEventBus()
	NewNotificationEventHandlers(mockSSE).RegisterHandlers(eventBus)

	store := application.NewRecordStore(eventBus)
	committer := application.NewBatchCommitter(store, nil, eventBus, application.CommitOptions{})
	rec := helpers.NewTestData().WebPart("home", "a", `{"v":1}`)

	var wg sync.WaitGroup
	expect := func(call *mock.Call) {
		wg.Add(1)
		call.Run(func(mock.Arguments) { wg.Done() }).Return().Once()
	}
	expect(mockSSE.On("BroadcastRecordsUpdate"))
	expect(mockSSE.On("BroadcastRecordUpdate", rec.Key.String(), true))
	expect(mockSSE.On("BroadcastCommitLog", mock.MatchedBy(func(r records.CommitResult) bool {
		return r.Succeeded == 1 && r.Failed == 0
	})))
	expect(mockSSE.On("BroadcastToast", "Saved 1 record(s), 0 failed.", ToastSuccess))
	expect(mockSSE.On("BroadcastRecordsUpdate"))

	// Act
	require.NoError(t, store.Load([]records.Record{rec}))
	_, err := store.SetField(rec.Key, records.FieldProperties, `{"v":2}`)
	require.NoError(t, err)
	_, err = committer.CommitAll(context.Background(), contracts.RecordWriterFunc(
		func(ctx context.Context, r records.Record) error { return nil }))
	require.NoError(t, err)

	// Assert
	waitOrFail(t, &wg)
	mockSSE.AssertExpectations(t)
}
