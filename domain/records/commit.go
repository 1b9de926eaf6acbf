package records

import "time"

// CommitEntry is the outcome of writing one record during a batch commit.
type CommitEntry struct {
	Key     Key
	Title   string
	Success bool
	Message string
	Error   string
}

// CommitResult is the ordered outcome log of one batch commit run.
type CommitResult struct {
	RunID      string
	Entries    []CommitEntry
	Succeeded  int
	Failed     int
	StartedAt  time.Time
	FinishedAt time.Time
}

// Summary is the one-line status shown after the per-record messages.
func (r CommitResult) Summary() string {
	if len(r.Entries) == 0 {
		return "No pending changes to save."
	}
	return formatSummary(r.Succeeded, r.Failed)
}

// FailedKeys lists the records that still need another attempt.
func (r CommitResult) FailedKeys() []Key {
	var keys []Key
	for _, e := range r.Entries {
		if !e.Success {
			keys = append(keys, e.Key)
		}
	}
	return keys
}
