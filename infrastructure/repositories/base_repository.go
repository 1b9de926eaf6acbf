package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"spoadmin/database"
)

// BaseRepository provides database access and SQL conversion helpers that can be embedded in all repositories.
type BaseRepository struct {
	db *database.Database
}

// NewBaseRepository creates a new BaseRepository with database access
func NewBaseRepository(database *database.Database) *BaseRepository {
	return &BaseRepository{
		db: database,
	}
}

// ReadDB returns the read pool for SELECT statements
func (b *BaseRepository) ReadDB() *sql.DB {
	return b.db.ReadDB()
}

// WithTx executes a function within a write transaction
func (b *BaseRepository) WithTx(ctx context.Context, fn func(*sql.Tx) error) error {
	return b.db.WithTx(ctx, fn)
}

// ToDBTime formats a timestamp for TEXT columns. Times are stored in UTC so they sort lexically.
func (b *BaseRepository) ToDBTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// FromDBTime parses a timestamp written by ToDBTime.
func (b *BaseRepository) FromDBTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored time %q: %w", s, err)
	}
	return t, nil
}

// ToBool converts an INTEGER flag to bool.
func (b *BaseRepository) ToBool(v int64) bool {
	return v != 0
}

// FromBool converts a bool to an INTEGER flag.
func (b *BaseRepository) FromBool(v bool) int64 {
	if v {
		return 1
	}
	return 0
}
