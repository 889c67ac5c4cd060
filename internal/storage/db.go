package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"revue/internal/alert"
	"revue/internal/errors"
)

// Options tune the storage engine
type Options struct {
	// BusyTimeout is how long a statement waits on a lock held by another process
	BusyTimeout time.Duration
	// MaxTurn caps Record.Turn
	MaxTurn int
	// Notifier receives StorageUnavailable and Unknown failures
	Notifier alert.Notifier
}

// DefaultOptions returns the engine defaults
func DefaultOptions() Options {
	return Options{
		BusyTimeout: 5 * time.Second,
		MaxTurn:     DefaultMaxTurn,
		Notifier:    alert.Nop{},
	}
}

// DB is the single storage engine for one database file.
// It holds exactly one live connection; concurrent callers queue behind it.
type DB struct {
	conn     *sql.DB
	logger   *slog.Logger
	dbPath   string
	maxTurn  int
	notifier alert.Notifier
}

// Open opens or creates the database at dbPath with default options
func Open(dbPath string, logger *slog.Logger) (*DB, error) {
	return OpenWithOptions(dbPath, logger, DefaultOptions())
}

// OpenWithOptions opens or creates the database at dbPath.
// A new file gets the full schema; an existing one is migrated.
func OpenWithOptions(dbPath string, logger *slog.Logger, opts Options) (*DB, error) {
	if opts.BusyTimeout <= 0 {
		opts.BusyTimeout = DefaultOptions().BusyTimeout
	}
	if opts.MaxTurn <= 0 {
		opts.MaxTurn = DefaultMaxTurn
	}
	if opts.Notifier == nil {
		opts.Notifier = alert.Nop{}
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, errors.New(errors.StorageUnavailable, "failed to create database directory", err)
	}

	dbExists := fileExists(dbPath)

	conn, err := sql.Open("sqlite", dsn(dbPath, opts.BusyTimeout))
	if err != nil {
		return nil, errors.New(errors.StorageUnavailable, "failed to open database", err)
	}

	// One writer per file; database/sql queues the rest.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			_ = conn.Close()
			return nil, errors.New(errors.StorageUnavailable, "failed to set pragma", err)
		}
	}

	db := &DB{
		conn:     conn,
		logger:   logger,
		dbPath:   dbPath,
		maxTurn:  opts.MaxTurn,
		notifier: opts.Notifier,
	}

	if !dbExists {
		logger.Info("Creating new database", "path", dbPath)
		if err := db.initializeSchema(); err != nil {
			_ = conn.Close()
			return nil, errors.New(errors.Classify(err), "failed to initialize schema", err)
		}
	} else {
		logger.Debug("Running database migrations", "path", dbPath)
		if err := db.runMigrations(); err != nil {
			_ = conn.Close()
			return nil, errors.New(errors.Classify(err), "failed to run migrations", err)
		}
	}

	return db, nil
}

// dsn enables foreign keys and the busy timeout on every connection the pool opens.
func dsn(path string, busy time.Duration) string {
	q := url.Values{}
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busy.Milliseconds()))
	return "file:" + path + "?" + q.Encode()
}

// Close closes the database connection
func (db *DB) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

// Path returns the database file path
func (db *DB) Path() string {
	return db.dbPath
}

// MaxTurn returns the configured turn cap
func (db *DB) MaxTurn() int {
	return db.maxTurn
}

// Logger returns the engine logger
func (db *DB) Logger() *slog.Logger {
	return db.logger
}

// WithTx runs fn inside a transaction, rolling back on error or panic.
// fn must only use tx: the pool has a single connection and tx holds it.
func (db *DB) WithTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			db.logger.Error("failed to rollback transaction",
				"error", err.Error(),
				"rollback_error", rbErr.Error(),
			)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ExecContext executes a statement without returning rows
func (db *DB) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return db.conn.ExecContext(ctx, query, args...)
}

// QueryContext executes a query that returns rows
func (db *DB) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return db.conn.QueryContext(ctx, query, args...)
}

// QueryRowContext executes a query that returns at most one row
func (db *DB) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return db.conn.QueryRowContext(ctx, query, args...)
}

// Ping checks that the file is reachable
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// fail converts an engine error into a failed Result status, logging it and
// alerting the operator when the failure is not a business outcome.
func (db *DB) fail(ctx context.Context, op string, err error) (Status, string) {
	code := errors.CodeOf(err)
	status := StatusFromCode(code)
	detail := err.Error()

	switch {
	case code.Alertable() && errors.Canceled(err):
		db.logger.Info("Storage operation canceled", "op", op, "error", detail)
	case code.Alertable():
		db.logger.Error("Storage operation failed", "op", op, "code", string(code), "error", detail)
		db.notifier.Notify(ctx, alert.New(op, code, detail))
	default:
		db.logger.Debug("Storage operation rejected", "op", op, "code", string(code), "error", detail)
	}
	return status, detail
}

// failure is fail wrapped into a Result
func failure[T any](ctx context.Context, db *DB, op string, err error) Result[T] {
	status, detail := db.fail(ctx, op, err)
	return Failed[T](status, detail)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
