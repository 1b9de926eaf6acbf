package events

import (
	"time"

	"spoadmin/domain/records"
)

// FieldChangedEvent is raised after a field of a loaded record has been set
type FieldChangedEvent struct {
	Key       records.Key
	Field     string
	NewValue  string
	Dirty     bool
	Timestamp time.Time
}

// CommitFinishedEvent is raised once a batch commit has processed every record in its snapshot
type CommitFinishedEvent struct {
	Result    records.CommitResult
	Timestamp time.Time
}

// RecordsLoadedEvent is raised when the store receives a fresh batch
type RecordsLoadedEvent struct {
	Count     int
	Timestamp time.Time
}
