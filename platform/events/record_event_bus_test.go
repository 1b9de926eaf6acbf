package events

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spoadmin/domain/events"
	"spoadmin/domain/records"
)

var testKey = records.Key{ContainerID: "site", ParentID: "page", RecordID: "wp"}

func TestRecordEventBus_PublishFieldChanged_Success(t *testing.T) {
	// Arrange
	eventBus := NewRecordEventBus()
	done := make(chan events.FieldChangedEvent, 1)
	eventBus.OnFieldChanged(func(event events.FieldChangedEvent) {
		done <- event
	})

	// Act
	eventBus.PublishFieldChanged(events.FieldChangedEvent{
		Key:       testKey,
		Field:     records.FieldProperties,
		NewValue:  `{"a":1}`,
		Dirty:     true,
		Timestamp: time.Now(),
	})

	// Assert
	select {
	case received := <-done:
		assert.Equal(t, testKey, received.Key)
		assert.True(t, received.Dirty)
		assert.False(t, received.Timestamp.IsZero())
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Handler was not called within timeout")
	}
}

func TestRecordEventBus_PublishCommitFinished_Success(t *testing.T) {
	eventBus := NewRecordEventBus()
	done := make(chan events.CommitFinishedEvent, 1)
	eventBus.OnCommitFinished(func(event events.CommitFinishedEvent) {
		done <- event
	})

	eventBus.PublishCommitFinished(events.CommitFinishedEvent{
		Result: records.CommitResult{RunID: "run-1", Succeeded: 2},
	})

	select {
	case received := <-done:
		assert.Equal(t, "run-1", received.Result.RunID)
		assert.Equal(t, 2, received.Result.Succeeded)
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Handler was not called within timeout")
	}
}

func TestRecordEventBus_MultipleHandlers_AllCalled(t *testing.T) {
	// Arrange
	eventBus := NewRecordEventBus()
	var wg sync.WaitGroup
	var mu sync.Mutex
	calls := 0
	for i := 0; i < 3; i++ {
		wg.Add(1)
		eventBus.OnRecordsLoaded(func(event events.RecordsLoadedEvent) {
			defer wg.Done()
			mu.Lock()
			calls++
			mu.Unlock()
		})
	}

	// Act
	eventBus.PublishRecordsLoaded(events.RecordsLoadedEvent{Count: 5})

	// Assert
	waitOrFail(t, &wg)
	assert.Equal(t, 3, calls)
}

func TestRecordEventBus_NoHandlers_DoesNotPanic(t *testing.T) {
	eventBus := NewRecordEventBus()

	assert.NotPanics(t, func() {
		eventBus.PublishFieldChanged(events.FieldChangedEvent{})
		eventBus.PublishCommitFinished(events.CommitFinishedEvent{})
		eventBus.PublishRecordsLoaded(events.RecordsLoadedEvent{})
	})
}

func TestRecordEventBus_HandlerPanic_OthersStillRun(t *testing.T) {
	// Arrange
	eventBus := NewRecordEventBus()
	done := make(chan struct{}, 1)
	eventBus.OnFieldChanged(func(events.FieldChangedEvent) {
		panic("handler failure")
	})
	eventBus.OnFieldChanged(func(events.FieldChangedEvent) {
		done <- struct{}{}
	})

	// Act
	eventBus.PublishFieldChanged(events.FieldChangedEvent{Key: testKey})

	// Assert
	select {
	case <-done:
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Healthy handler was not called")
	}
}

func TestRecordEventBus_ConcurrentPublishAndSubscribe_ThreadSafe(t *testing.T) {
	eventBus := NewRecordEventBus()
	var received sync.WaitGroup
	received.Add(50)
	eventBus.OnFieldChanged(func(events.FieldChangedEvent) { received.Done() })

	var publishers sync.WaitGroup
	for i := 0; i < 50; i++ {
		publishers.Add(1)
		go func() {
			defer publishers.Done()
			eventBus.PublishFieldChanged(events.FieldChangedEvent{Key: testKey})
		}()
	}
	for i := 0; i < 10; i++ {
		publishers.Add(1)
		go func() {
			defer publishers.Done()
			eventBus.OnRecordsLoaded(func(events.RecordsLoadedEvent) {})
		}()
	}

	publishers.Wait()
	waitOrFail(t, &received)
}

func TestRecordEventBus_EventIsolation_HandlersNotCrossCalled(t *testing.T) {
	eventBus := NewRecordEventBus()
	loaded := make(chan struct{}, 1)
	eventBus.OnRecordsLoaded(func(events.RecordsLoadedEvent) { loaded <- struct{}{} })

	eventBus.PublishFieldChanged(events.FieldChangedEvent{Key: testKey})
	eventBus.PublishCommitFinished(events.CommitFinishedEvent{})

	select {
	case <-loaded:
		t.Fatal("RecordsLoaded handler called for a different event type")
	case <-time.After(50 * time.Millisecond):
	}
}

func waitOrFail(t *testing.T, wg *sync.WaitGroup) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		require.FailNow(t, "handlers did not finish within timeout")
	}
}
