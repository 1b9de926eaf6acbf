package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"time"

	"spoadmin/logging"

	_ "modernc.org/sqlite"
)

// Config holds database configuration
type Config struct {
	Path            string        `env:"DB_PATH" default:"./spoadmin.db"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" default:"2"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" default:"1h"`
	BusyTimeoutMs   int           `env:"DB_BUSY_TIMEOUT_MS" default:"5000"`
	EnableWAL       bool          `env:"DB_ENABLE_WAL" default:"true"`
}

// Database holds a read pool and a single serialized write connection to the commit journal.
type Database struct {
	readDB  *sql.DB
	writeDB *sql.DB
	config  Config
	logger  *logging.Logger
}

// PoolStats is the /health view of one connection pool.
type PoolStats struct {
	Open      int   `json:"open_connections"`
	InUse     int   `json:"in_use"`
	Idle      int   `json:"idle"`
	WaitCount int64 `json:"wait_count"`
	MaxOpen   int   `json:"max_open_conns"`
}

// Stats reports both pools plus the schema version.
type Stats struct {
	Path          string    `json:"path"`
	SchemaVersion int64     `json:"schema_version"`
	Read          PoolStats `json:"read_pool"`
	Write         PoolStats `json:"write_pool"`
}

// New opens the journal database and brings its schema up to date.
func New(ctx context.Context, config Config, logger *logging.Logger) (*Database, error) {
	existed := fileHasData(config.Path)
	logger.Database("Opening journal database", "path", config.Path, "existed", existed)

	dsn := buildDSN(config)
	readDB, err := openPool(dsn, config.MaxOpenConns, config.MaxIdleConns, config.ConnMaxLifetime)
	if err != nil {
		return nil, fmt.Errorf("open read pool: %w", err)
	}
	// sqlite tolerates one writer; a single connection queues writes instead of returning SQLITE_BUSY
	writeDB, err := openPool(dsn, 1, 1, config.ConnMaxLifetime)
	if err != nil {
		readDB.Close()
		return nil, fmt.Errorf("open write connection: %w", err)
	}

	d := &Database{readDB: readDB, writeDB: writeDB, config: config, logger: logger}
	if err := d.ping(ctx); err != nil {
		d.closeConns()
		return nil, err
	}
	applied, err := d.runMigrations(ctx)
	if err != nil {
		d.closeConns()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Database("Journal database ready", "path", config.Path, "migrations_applied", len(applied), "wal_mode", config.EnableWAL)
	return d, nil
}

func openPool(dsn string, maxOpen, maxIdle int, lifetime time.Duration) (*sql.DB, error) {
	pool, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	pool.SetMaxOpenConns(maxOpen)
	pool.SetMaxIdleConns(maxIdle)
	pool.SetConnMaxLifetime(lifetime)
	return pool, nil
}

// buildDSN uses modernc's _pragma parameters so every pooled connection gets the same settings.
func buildDSN(config Config) string {
	q := url.Values{}
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", config.BusyTimeoutMs))
	q.Add("_pragma", "foreign_keys(1)")
	if config.EnableWAL {
		q.Add("_pragma", "journal_mode(WAL)")
		q.Add("_pragma", "synchronous(NORMAL)")
	}
	return "file:" + config.Path + "?" + q.Encode()
}

func (d *Database) ping(ctx context.Context) error {
	if err := d.readDB.PingContext(ctx); err != nil {
		return fmt.Errorf("ping read pool: %w", err)
	}
	if err := d.writeDB.PingContext(ctx); err != nil {
		return fmt.Errorf("ping write connection: %w", err)
	}
	return nil
}

// ReadDB returns the read connection pool
func (d *Database) ReadDB() *sql.DB {
	return d.readDB
}

// WriteDB returns the serialized write connection
func (d *Database) WriteDB() *sql.DB {
	return d.writeDB
}

// Close checkpoints the WAL and closes both pools.
func (d *Database) Close() error {
	d.logger.Database("Closing journal database")
	if d.config.EnableWAL {
		if _, err := d.writeDB.Exec("PRAGMA wal_checkpoint(TRUNCATE);"); err != nil {
			d.logger.Warn("WAL checkpoint failed", "error", err)
		}
	}
	return d.closeConns()
}

func (d *Database) closeConns() error {
	return errors.Join(d.readDB.Close(), d.writeDB.Close())
}

// Health pings both pools and reports their statistics.
func (d *Database) Health(ctx context.Context) (Stats, error) {
	if err := d.ping(ctx); err != nil {
		return Stats{}, err
	}

	var version sql.NullInt64
	if err := d.readDB.QueryRowContext(ctx, `SELECT MAX(version) FROM schema_migrations`).Scan(&version); err != nil {
		return Stats{}, fmt.Errorf("read schema version: %w", err)
	}

	rs, ws := d.readDB.Stats(), d.writeDB.Stats()
	return Stats{
		Path:          d.config.Path,
		SchemaVersion: version.Int64,
		Read:          PoolStats{Open: rs.OpenConnections, InUse: rs.InUse, Idle: rs.Idle, WaitCount: rs.WaitCount, MaxOpen: d.config.MaxOpenConns},
		Write:         PoolStats{Open: ws.OpenConnections, InUse: ws.InUse, Idle: ws.Idle, WaitCount: ws.WaitCount, MaxOpen: 1},
	}, nil
}

// WithTx runs fn inside a write transaction and rolls back when fn fails.
func (d *Database) WithTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := d.writeDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			d.logger.Error("Rollback failed", "error", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
