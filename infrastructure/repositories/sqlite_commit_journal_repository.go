package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"spoadmin/database"
	"spoadmin/domain/contracts"
	"spoadmin/domain/records"
)

const defaultCommitRunLimit = 50

// SqliteCommitJournalRepository implements contracts.CommitJournalRepository on the sqlite database.
type SqliteCommitJournalRepository struct {
	*BaseRepository
}

// NewSqliteCommitJournalRepository creates a journal repository with read/write separation.
func NewSqliteCommitJournalRepository(database *database.Database) contracts.CommitJournalRepository {
	return &SqliteCommitJournalRepository{
		BaseRepository: NewBaseRepository(database),
	}
}

// SaveCommitRun stores a run and all its entries in one transaction.
func (r *SqliteCommitJournalRepository) SaveCommitRun(ctx context.Context, result records.CommitResult) error {
	if result.RunID == "" {
		return fmt.Errorf("%w: run id is required", records.ErrInvalidArgument)
	}

	return r.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO commit_runs (run_id, started_at, finished_at, succeeded, failed) VALUES (?, ?, ?, ?, ?)`,
			result.RunID, r.ToDBTime(result.StartedAt), r.ToDBTime(result.FinishedAt), result.Succeeded, result.Failed,
		); err != nil {
			return fmt.Errorf("insert commit run %s: %w", result.RunID, err)
		}

		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO commit_entries (run_id, seq, container_id, parent_id, record_id, record_title, success, message, error)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare commit entry insert: %w", err)
		}
		defer stmt.Close()

		for i, e := range result.Entries {
			if _, err := stmt.ExecContext(ctx,
				result.RunID, i, e.Key.ContainerID, e.Key.ParentID, e.Key.RecordID,
				e.Title, r.FromBool(e.Success), e.Message, e.Error,
			); err != nil {
				return fmt.Errorf("insert commit entry %d of %s: %w", i, result.RunID, err)
			}
		}
		return nil
	})
}

// ListCommitRuns returns the most recent runs first.
func (r *SqliteCommitJournalRepository) ListCommitRuns(ctx context.Context, limit int) ([]contracts.CommitRunSummary, error) {
	if limit <= 0 {
		limit = defaultCommitRunLimit
	}

	rows, err := r.ReadDB().QueryContext(ctx,
		`SELECT run_id, started_at, finished_at, succeeded, failed
		 FROM commit_runs ORDER BY started_at DESC, run_id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list commit runs: %w", err)
	}
	defer rows.Close()

	var runs []contracts.CommitRunSummary
	for rows.Next() {
		run, err := r.scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetCommitRun loads one run with its ordered entries.
func (r *SqliteCommitJournalRepository) GetCommitRun(ctx context.Context, runID string) (*records.CommitResult, error) {
	row := r.ReadDB().QueryRowContext(ctx,
		`SELECT run_id, started_at, finished_at, succeeded, failed FROM commit_runs WHERE run_id = ?`, runID)
	run, err := r.scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", contracts.ErrCommitRunNotFound, runID)
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.ReadDB().QueryContext(ctx,
		`SELECT container_id, parent_id, record_id, record_title, success, message, error
		 FROM commit_entries WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("list commit entries of %s: %w", runID, err)
	}
	defer rows.Close()

	result := &records.CommitResult{
		RunID:      run.RunID,
		Succeeded:  run.Succeeded,
		Failed:     run.Failed,
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
	}
	for rows.Next() {
		var e records.CommitEntry
		var success int64
		if err := rows.Scan(&e.Key.ContainerID, &e.Key.ParentID, &e.Key.RecordID, &e.Title, &success, &e.Message, &e.Error); err != nil {
			return nil, fmt.Errorf("scan commit entry: %w", err)
		}
		e.Success = r.ToBool(success)
		result.Entries = append(result.Entries, e)
	}
	return result, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *SqliteCommitJournalRepository) scanRun(row rowScanner) (contracts.CommitRunSummary, error) {
	var run contracts.CommitRunSummary
	var started, finished string
	if err := row.Scan(&run.RunID, &started, &finished, &run.Succeeded, &run.Failed); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return run, err
		}
		return run, fmt.Errorf("scan commit run: %w", err)
	}
	var err error
	if run.StartedAt, err = r.FromDBTime(started); err != nil {
		return run, err
	}
	if run.FinishedAt, err = r.FromDBTime(finished); err != nil {
		return run, err
	}
	return run, nil
}
