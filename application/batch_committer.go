package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"spoadmin/domain/contracts"
	"spoadmin/domain/events"
	"spoadmin/domain/records"
	"spoadmin/logging"
)

// CommitOptions tunes how a batch commit talks to the writer.
type CommitOptions struct {
	// WriteTimeout bounds a single record write. Zero means no bound.
	WriteTimeout time.Duration
}

// BatchCommitter writes every dirty record of a RecordStore through a RecordWriter, one at a
// time, and reconciles the store with each outcome. A failing record never stops the batch.
type BatchCommitter struct {
	store     *RecordStore
	journal   contracts.CommitJournalRepository
	publisher events.RecordEventPublisher
	options   CommitOptions
	logger    *logging.Logger
	now       func() time.Time
}

// NewBatchCommitter creates a committer for store. journal and publisher may be nil.
func NewBatchCommitter(
	store *RecordStore,
	journal contracts.CommitJournalRepository,
	publisher events.RecordEventPublisher,
	options CommitOptions,
) *BatchCommitter {
	return &BatchCommitter{
		store:     store,
		journal:   journal,
		publisher: publisher,
		options:   options,
		logger:    logging.Default().WithComponent("batch_committer"),
		now:       time.Now,
	}
}

// CommitAll snapshots the change set, locks the store against edits, and writes the
// snapshot sequentially. On success a record's baseline advances; on failure the record stays
// dirty with its fields untouched. The returned result lists one entry per record in order.
// If ctx is cancelled the remaining records are reported as failed and stay dirty.
func (c *BatchCommitter) CommitAll(ctx context.Context, writer contracts.RecordWriter) (*records.CommitResult, error) {
	if writer == nil {
		return nil, fmt.Errorf("%w: writer is required", records.ErrInvalidArgument)
	}

	snapshot, err := c.store.beginCommit()
	if err != nil {
		return nil, err
	}

	result := records.CommitResult{
		RunID:     ulid.Make().String(),
		Entries:   make([]records.CommitEntry, 0, len(snapshot)),
		StartedAt: c.now(),
	}
	c.logger.Info("Batch commit started", "run_id", result.RunID, "records", len(snapshot))

	for _, rec := range snapshot {
		entry := c.commitOne(ctx, writer, rec)
		if entry.Success {
			result.Succeeded++
		} else {
			result.Failed++
		}
		result.Entries = append(result.Entries, entry)
	}
	result.FinishedAt = c.now()
	c.store.endCommit()

	c.logger.Performance("batch_commit", result.FinishedAt.Sub(result.StartedAt),
		slog.String("run_id", result.RunID),
		slog.Int("succeeded", result.Succeeded),
		slog.Int("failed", result.Failed))

	if c.journal != nil && len(result.Entries) > 0 {
		if err := c.journal.SaveCommitRun(context.WithoutCancel(ctx), result); err != nil {
			c.logger.Error("Failed to journal commit run", "run_id", result.RunID, "error", err)
		}
	}
	if c.publisher != nil {
		c.publisher.PublishCommitFinished(events.CommitFinishedEvent{Result: result, Timestamp: c.now()})
	}
	return &result, nil
}

func (c *BatchCommitter) commitOne(ctx context.Context, writer contracts.RecordWriter, rec records.Record) records.CommitEntry {
	entry := records.CommitEntry{Key: rec.Key, Title: rec.DisplayName()}
	key := rec.Key.String()

	if err := ctx.Err(); err != nil {
		entry.Error = err.Error()
		entry.Message = fmt.Sprintf("Skipped web part [%s]: %v", entry.Title, err)
		c.logger.CommitError("Record skipped", err, key)
		return entry
	}

	if err := c.write(ctx, writer, rec); err != nil {
		entry.Error = err.Error()
		entry.Message = fmt.Sprintf("Failed to save web part [%s] changes: %v", entry.Title, err)
		c.logger.CommitError("Record write failed", err, key)
		return entry
	}

	c.store.markCommitted(rec.Key, rec.Fields)
	entry.Success = true
	entry.Message = fmt.Sprintf("Edited web part [%s] saved successfully.", entry.Title)
	c.logger.Commit("Record written", key)
	return entry
}

// write invokes the writer for one record, converting a panic into an error so the batch continues.
func (c *BatchCommitter) write(ctx context.Context, writer contracts.RecordWriter, rec records.Record) (err error) {
	if c.options.WriteTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.options.WriteTimeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("writer panicked: %v", r)
		}
	}()
	return writer.WriteRecord(ctx, rec.Clone())
}
