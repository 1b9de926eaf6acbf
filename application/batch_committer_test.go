package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"spoadmin/domain/contracts"
	"spoadmin/domain/events"
	"spoadmin/domain/records"
	"spoadmin/test/helpers"
	"spoadmin/test/mocks"
)

// dirtyStore loads recs and edits each properties field so every record is dirty.
func dirtyStore(t *testing.T, recs ...records.Record) *RecordStore {
	t.Helper()
	store := newLoadedStore(t, recs...)
	for _, r := range recs {
		_, err := store.SetField(r.Key, records.FieldProperties, `{"edited":true}`)
		require.NoError(t, err)
	}
	require.Equal(t, len(recs), store.DirtyCount())
	return store
}

func TestBatchCommitter_PartialFailure(t *testing.T) {
	// Arrange
	td := helpers.NewTestData()
	recs := td.WebParts("home", 3, "https://old")
	store := dirtyStore(t, recs...)

	remote := helpers.NewMockRemote()
	remote.ExpectWriteSucceeds(recs[0].Key)
	remote.ExpectWriteFails(recs[1].Key, errors.New("HTTP 409 conflict"))
	remote.ExpectWriteSucceeds(recs[2].Key)
	remote.ExpectJournalSave()

	committer := NewBatchCommitter(store, remote.Journal, nil, CommitOptions{})

	// Act
	result, err := committer.CommitAll(context.Background(), remote.Writer)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 2, result.Succeeded)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Entries, 3)
	assert.True(t, result.Entries[0].Success)
	assert.False(t, result.Entries[1].Success)
	assert.Contains(t, result.Entries[1].Message, "HTTP 409 conflict")
	assert.True(t, result.Entries[2].Success)
	assert.Equal(t, []records.Key{recs[1].Key}, result.FailedKeys())
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, "Saved 2 record(s), 1 failed.", result.Summary())

	assert.False(t, store.IsDirty(recs[0].Key))
	assert.True(t, store.IsDirty(recs[1].Key))
	assert.False(t, store.IsDirty(recs[2].Key))
	failed, _ := store.Get(recs[1].Key)
	assert.Equal(t, `{"edited":true}`, failed.Fields[records.FieldProperties])
	assert.False(t, store.Committing())
	remote.AssertAllExpectations(t)
}

func TestBatchCommitter_SingleRecordSuccess(t *testing.T) {
	// Arrange
	td := helpers.NewTestData()
	rec := td.WebPart("home", "r1", `{"title":"Hi"}`)
	store := dirtyStore(t, rec)
	writer := contracts.RecordWriterFunc(func(ctx context.Context, r records.Record) error { return nil })
	committer := NewBatchCommitter(store, nil, nil, CommitOptions{})

	// Act
	result, err := committer.CommitAll(context.Background(), writer)

	// Assert
	require.NoError(t, err)
	require.Len(t, result.Entries, 1)
	assert.Equal(t, "r1", result.Entries[0].Key.RecordID)
	assert.True(t, result.Entries[0].Success)
	assert.False(t, store.IsDirty(rec.Key))

	// the written value is the new baseline
	dirty, err := store.SetField(rec.Key, records.FieldProperties, `{"edited":true}`)
	require.NoError(t, err)
	assert.False(t, dirty)
}

func TestBatchCommitter_NothingToCommit(t *testing.T) {
	td := helpers.NewTestData()
	store := newLoadedStore(t, td.WebPart("home", "a", "{}"))
	remote := helpers.NewMockRemote()
	committer := NewBatchCommitter(store, remote.Journal, nil, CommitOptions{})

	result, err := committer.CommitAll(context.Background(), remote.Writer)

	require.NoError(t, err)
	assert.Empty(t, result.Entries)
	assert.Equal(t, "No pending changes to save.", result.Summary())
	remote.Writer.AssertNotCalled(t, "WriteRecord", mock.Anything, mock.Anything)
	remote.Journal.AssertNotCalled(t, "SaveCommitRun", mock.Anything, mock.Anything)
}

func TestBatchCommitter_NilWriter(t *testing.T) {
	store := NewRecordStore(nil)
	committer := NewBatchCommitter(store, nil, nil, CommitOptions{})

	_, err := committer.CommitAll(context.Background(), nil)

	assert.ErrorIs(t, err, records.ErrInvalidArgument)
	assert.False(t, store.Committing())
}

func TestBatchCommitter_WriterPanicIsRecordFailure(t *testing.T) {
	td := helpers.NewTestData()
	recs := td.WebParts("home", 2, "x")
	store := dirtyStore(t, recs...)
	writer := contracts.RecordWriterFunc(func(ctx context.Context, r records.Record) error {
		if r.Key == recs[0].Key {
			panic("boom")
		}
		return nil
	})
	committer := NewBatchCommitter(store, nil, nil, CommitOptions{})

	result, err := committer.CommitAll(context.Background(), writer)

	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)
	assert.Contains(t, result.Entries[0].Error, "boom")
	assert.True(t, store.IsDirty(recs[0].Key))
	assert.False(t, store.IsDirty(recs[1].Key))
}

func TestBatchCommitter_CancelledContextSkipsRemaining(t *testing.T) {
	// Arrange
	td := helpers.NewTestData()
	recs := td.WebParts("home", 3, "x")
	store := dirtyStore(t, recs...)
	ctx, cancel := context.WithCancel(context.Background())
	var writes int
	writer := contracts.RecordWriterFunc(func(ctx context.Context, r records.Record) error {
		writes++
		cancel()
		return nil
	})
	committer := NewBatchCommitter(store, nil, nil, CommitOptions{})

	// Act
	result, err := committer.CommitAll(ctx, writer)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 1, writes)
	assert.Equal(t, 1, result.Succeeded)
	assert.Equal(t, 2, result.Failed)
	assert.Contains(t, result.Entries[1].Message, "Skipped")
	assert.Equal(t, 2, store.DirtyCount())
}

func TestBatchCommitter_WriteTimeout(t *testing.T) {
	td := helpers.NewTestData()
	rec := td.WebPart("home", "a", "{}")
	store := dirtyStore(t, rec)
	writer := contracts.RecordWriterFunc(func(ctx context.Context, r records.Record) error {
		<-ctx.Done()
		return ctx.Err()
	})
	committer := NewBatchCommitter(store, nil, nil, CommitOptions{WriteTimeout: 10 * time.Millisecond})

	result, err := committer.CommitAll(context.Background(), writer)

	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)
	assert.Contains(t, result.Entries[0].Error, context.DeadlineExceeded.Error())
}

func TestBatchCommitter_JournalFailureDoesNotFailCommit(t *testing.T) {
	td := helpers.NewTestData()
	rec := td.WebPart("home", "a", "{}")
	store := dirtyStore(t, rec)
	journal := &mocks.MockCommitJournalRepository{}
	journal.On("SaveCommitRun", mock.Anything, mock.Anything).Return(errors.New("disk full"))
	committer := NewBatchCommitter(store, journal, nil, CommitOptions{})

	result, err := committer.CommitAll(context.Background(), contracts.RecordWriterFunc(
		func(ctx context.Context, r records.Record) error { return nil }))

	require.NoError(t, err)
	assert.Equal(t, 1, result.Succeeded)
	journal.AssertExpectations(t)
}

func TestBatchCommitter_PublishesCommitFinished(t *testing.T) {
	td := helpers.NewTestData()
	rec := td.WebPart("home", "a", "{}")
	store := dirtyStore(t, rec)
	publisher := &mocks.MockRecordEventPublisher{}
	publisher.On("PublishCommitFinished", mock.MatchedBy(func(e events.CommitFinishedEvent) bool {
		return e.Result.Succeeded == 1 && len(e.Result.Entries) == 1
	})).Return().Once()
	committer := NewBatchCommitter(store, nil, publisher, CommitOptions{})

	_, err := committer.CommitAll(context.Background(), contracts.RecordWriterFunc(
		func(ctx context.Context, r records.Record) error { return nil }))

	require.NoError(t, err)
	publisher.AssertExpectations(t)
}

func TestBatchCommitter_WriterSeesSnapshotCopy(t *testing.T) {
	td := helpers.NewTestData()
	rec := td.WebPart("home", "a", "{}")
	store := dirtyStore(t, rec)
	writer := contracts.RecordWriterFunc(func(ctx context.Context, r records.Record) error {
		r.Fields[records.FieldProperties] = "mutated"
		return errors.New("reject")
	})
	committer := NewBatchCommitter(store, nil, nil, CommitOptions{})

	_, err := committer.CommitAll(context.Background(), writer)

	require.NoError(t, err)
	got, _ := store.Get(rec.Key)
	assert.Equal(t, `{"edited":true}`, got.Fields[records.FieldProperties])
}
