package contracts

import (
	"context"
	"time"

	"spoadmin/domain/records"
)

// CommitRunSummary is a journal row without its entries.
type CommitRunSummary struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Succeeded  int
	Failed     int
}

// CommitJournalRepository keeps a history of batch commit runs.
type CommitJournalRepository interface {
	SaveCommitRun(ctx context.Context, result records.CommitResult) error
	ListCommitRuns(ctx context.Context, limit int) ([]CommitRunSummary, error)
	GetCommitRun(ctx context.Context, runID string) (*records.CommitResult, error)
}
