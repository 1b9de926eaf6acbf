package events

// RecordEventPublisher defines the interface for publishing record editing events.
type RecordEventPublisher interface {
	PublishFieldChanged(event FieldChangedEvent)
	PublishCommitFinished(event CommitFinishedEvent)
	PublishRecordsLoaded(event RecordsLoadedEvent)
}
