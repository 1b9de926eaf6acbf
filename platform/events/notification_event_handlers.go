package events

import (
	"spoadmin/domain/events"
	"spoadmin/domain/records"
	"spoadmin/logging"
)

// Toast types understood by the broadcaster
const (
	ToastInfo    = "info"
	ToastSuccess = "success"
	ToastError   = "error"
)

// SSEBroadcaster defines the live update channel used by the notification handlers
type SSEBroadcaster interface {
	BroadcastRecordUpdate(recordKey string, dirty bool)
	BroadcastRecordsUpdate()
	BroadcastCommitLog(result records.CommitResult)
	BroadcastToast(message, toastType string)
}

// NotificationEventHandlers turns record events into live browser notifications
type NotificationEventHandlers struct {
	sseBroadcaster SSEBroadcaster
	logger         *logging.Logger
}

// NewNotificationEventHandlers creates event handlers for notifications
func NewNotificationEventHandlers(sseBroadcaster SSEBroadcaster) *NotificationEventHandlers {
	return &NotificationEventHandlers{
		sseBroadcaster: sseBroadcaster,
		logger:         logging.Default().WithComponent("notification_events"),
	}
}

// RegisterHandlers registers all notification event handlers with the event bus
func (h *NotificationEventHandlers) RegisterHandlers(eventBus *RecordEventBus) {
	eventBus.OnFieldChanged(h.handleFieldChanged)
	eventBus.OnCommitFinished(h.handleCommitFinished)
	eventBus.OnRecordsLoaded(h.handleRecordsLoaded)
}

func (h *NotificationEventHandlers) handleFieldChanged(event events.FieldChangedEvent) {
	h.logger.Debug("Handling field changed event", "record_key", event.Key.String(), "field", event.Field, "dirty", event.Dirty)
	h.sseBroadcaster.BroadcastRecordUpdate(event.Key.String(), event.Dirty)
}

func (h *NotificationEventHandlers) handleCommitFinished(event events.CommitFinishedEvent) {
	result := event.Result
	h.logger.Info("Handling commit finished event", "run_id", result.RunID, "succeeded", result.Succeeded, "failed", result.Failed)

	toastType := ToastSuccess
	switch {
	case result.Failed > 0:
		toastType = ToastError
	case len(result.Entries) == 0:
		toastType = ToastInfo
	}

	h.sseBroadcaster.BroadcastCommitLog(result)
	h.sseBroadcaster.BroadcastToast(result.Summary(), toastType)
	h.sseBroadcaster.BroadcastRecordsUpdate()
}

func (h *NotificationEventHandlers) handleRecordsLoaded(event events.RecordsLoadedEvent) {
	h.logger.Info("Handling records loaded event", "count", event.Count)
	h.sseBroadcaster.BroadcastRecordsUpdate()
}
