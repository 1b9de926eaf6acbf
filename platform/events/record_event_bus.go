package events

import (
	"sync"

	"spoadmin/domain/events"
	"spoadmin/logging"
)

// RecordEventBus provides type-safe event publishing and subscription for record editing events
type RecordEventBus struct {
	mu     sync.RWMutex
	logger *logging.Logger

	fieldChangedHandlers   []func(events.FieldChangedEvent)
	commitFinishedHandlers []func(events.CommitFinishedEvent)
	recordsLoadedHandlers  []func(events.RecordsLoadedEvent)
}

// NewRecordEventBus creates a new typed record event bus
func NewRecordEventBus() *RecordEventBus {
	return &RecordEventBus{
		logger: logging.Default().WithComponent("record_event_bus"),
	}
}

func (bus *RecordEventBus) OnFieldChanged(handler func(events.FieldChangedEvent)) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	bus.fieldChangedHandlers = append(bus.fieldChangedHandlers, handler)
}

func (bus *RecordEventBus) OnCommitFinished(handler func(events.CommitFinishedEvent)) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	bus.commitFinishedHandlers = append(bus.commitFinishedHandlers, handler)
}

func (bus *RecordEventBus) OnRecordsLoaded(handler func(events.RecordsLoadedEvent)) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	bus.recordsLoadedHandlers = append(bus.recordsLoadedHandlers, handler)
}

func (bus *RecordEventBus) PublishFieldChanged(event events.FieldChangedEvent) {
	bus.mu.RLock()
	handlers := append([]func(events.FieldChangedEvent){}, bus.fieldChangedHandlers...)
	bus.mu.RUnlock()

	dispatch(bus, "FieldChanged", handlers, event, "record_key", event.Key.String(), "field", event.Field)
}

func (bus *RecordEventBus) PublishCommitFinished(event events.CommitFinishedEvent) {
	bus.mu.RLock()
	handlers := append([]func(events.CommitFinishedEvent){}, bus.commitFinishedHandlers...)
	bus.mu.RUnlock()

	dispatch(bus, "CommitFinished", handlers, event, "run_id", event.Result.RunID)
}

func (bus *RecordEventBus) PublishRecordsLoaded(event events.RecordsLoadedEvent) {
	bus.mu.RLock()
	handlers := append([]func(events.RecordsLoadedEvent){}, bus.recordsLoadedHandlers...)
	bus.mu.RUnlock()

	dispatch(bus, "RecordsLoaded", handlers, event, "count", event.Count)
}

// dispatch runs every handler on its own goroutine so publishers never block on subscribers.
func dispatch[E any](bus *RecordEventBus, name string, handlers []func(E), event E, attrs ...any) {
	for _, handler := range handlers {
		go func(h func(E)) {
			defer func() {
				if r := recover(); r != nil {
					bus.logger.Error("Event handler panicked in "+name, append(attrs, "panic", r)...)
				}
			}()
			h(event)
		}(handler)
	}
}
