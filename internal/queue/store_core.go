package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/gbarton/yt4kids/internal/config"
)

// Store persists the download queue and file records in SQLite.
type Store struct {
	db    *sql.DB
	path  string
	retry busyBackoff
}

// busyBackoff retries operations that fail with SQLITE_BUSY, doubling the
// delay up to max.
type busyBackoff struct {
	attempts int
	initial  time.Duration
	max      time.Duration
}

var defaultBusyBackoff = busyBackoff{attempts: 5, initial: 10 * time.Millisecond, max: 200 * time.Millisecond}

const sqliteBusy = 5

func isBusy(err error) bool {
	if err == nil {
		return false
	}
	var coded interface{ Code() int }
	if errors.As(err, &coded) && coded.Code()&0xff == sqliteBusy {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func (b busyBackoff) do(ctx context.Context, op func() error) error {
	delay := b.initial
	for attempt := 1; ; attempt++ {
		err := op()
		if !isBusy(err) || attempt >= b.attempts {
			return err
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay = min(delay*2, b.max)
	}
}

func orBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

func (s *Store) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	ctx = orBackground(ctx)
	var res sql.Result
	err := s.retry.do(ctx, func() error {
		var err error
		res, err = s.db.ExecContext(ctx, query, args...)
		return err
	})
	return res, err
}

// inTx runs fn in a transaction. A busy failure anywhere in the unit rolls it
// back and reruns fn from the start.
func (s *Store) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	ctx = orBackground(ctx)
	return s.retry.do(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if err := fn(tx); err != nil {
			_ = tx.Rollback()
			return err
		}
		return tx.Commit()
	})
}

// dsn applies the pragmas to every pooled connection.
func dsn(path string) string {
	return path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
}

// Open creates the state directories, opens the queue database and migrates
// its schema.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	path := cfg.QueueDBPath()
	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	var mode string
	if err := db.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("read journal mode: %w", err)
	}
	if !strings.EqualFold(mode, "wal") {
		_ = db.Close()
		return nil, fmt.Errorf("queue database %s: journal mode %q, want wal", path, mode)
	}

	store := &Store{db: db, path: path, retry: defaultBusyBackoff}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Close releases the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
