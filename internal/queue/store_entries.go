package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// FindEligible returns up to limit entries that are neither complete nor
// skipped, newest request first. Ties on requested_at go to the most recently
// inserted row.
func (s *Store) FindEligible(ctx context.Context, limit int) ([]*Entry, error) {
	if limit <= 0 {
		limit = 1
	}
	rows, err := s.db.QueryContext(orBackground(ctx),
		`SELECT `+entryColumns+` FROM queue_entries
         WHERE complete = 0 AND skip = 0
         ORDER BY requested_at DESC, rowid DESC
         LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("find eligible: %w", err)
	}
	defer rows.Close()
	return collectEntries(rows)
}

// Upsert inserts the entry or replaces the stored row with the same id.
func (s *Store) Upsert(ctx context.Context, entry *Entry) error {
	if entry == nil {
		return errors.New("upsert: nil entry")
	}
	id := strings.TrimSpace(entry.ID)
	if id == "" {
		return errors.New("upsert: entry id is required")
	}
	now := time.Now().UTC()
	if entry.RequestedAt.IsZero() {
		entry.RequestedAt = now
	}
	entry.UpdatedAt = now

	_, err := s.exec(ctx,
		`INSERT INTO queue_entries (`+entryColumns+`)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(id) DO UPDATE SET
            author_id = excluded.author_id,
            title = COALESCE(excluded.title, queue_entries.title),
            requested_at = excluded.requested_at,
            complete = excluded.complete,
            skip = excluded.skip,
            attempts = excluded.attempts,
            last_error = excluded.last_error,
            updated_at = excluded.updated_at`,
		id,
		entry.AuthorID,
		nullableString(entry.Title),
		formatTime(entry.RequestedAt),
		boolToInt(entry.Complete),
		boolToInt(entry.Skip),
		entry.Attempts,
		nullableString(entry.LastError),
		formatTime(entry.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert entry %s: %w", id, err)
	}
	return nil
}

// RecordAttempt stores the outcome of a download attempt. The row is only
// written while it is still eligible and its updated_at matches lastSeen, the
// value read before the attempt began. It reports false when the entry was
// removed, skipped, completed or re-enqueued in the meantime.
func (s *Store) RecordAttempt(ctx context.Context, entry *Entry, lastSeen time.Time) (bool, error) {
	if entry == nil {
		return false, errors.New("record attempt: nil entry")
	}
	if entry.UpdatedAt.IsZero() {
		entry.UpdatedAt = time.Now().UTC()
	}
	res, err := s.exec(ctx,
		`UPDATE queue_entries
         SET complete = ?, skip = ?, attempts = ?, last_error = ?, updated_at = ?
         WHERE id = ? AND complete = 0 AND skip = 0 AND updated_at = ?`,
		boolToInt(entry.Complete),
		boolToInt(entry.Skip),
		entry.Attempts,
		nullableString(entry.LastError),
		formatTime(entry.UpdatedAt),
		entry.ID,
		formatTime(lastSeen),
	)
	if err != nil {
		return false, fmt.Errorf("record attempt %s: %w", entry.ID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// Enqueue requests a download. An existing entry with the same id is reset to
// the fresh state (not complete, not skipped, zero attempts, requested now).
func (s *Store) Enqueue(ctx context.Context, id, authorID, title string) (*Entry, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.New("enqueue: video id is required")
	}
	entry := &Entry{
		ID:          id,
		AuthorID:    strings.TrimSpace(authorID),
		Title:       strings.TrimSpace(title),
		RequestedAt: time.Now().UTC(),
	}
	if err := s.Upsert(ctx, entry); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Get returns the entry with the given id, or nil when it does not exist.
func (s *Store) Get(ctx context.Context, id string) (*Entry, error) {
	row := s.db.QueryRowContext(orBackground(ctx),
		`SELECT `+entryColumns+` FROM queue_entries WHERE id = ?`, id)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get entry %s: %w", id, err)
	}
	return entry, nil
}

// List returns entries in every state, newest request first.
func (s *Store) List(ctx context.Context, limit int) ([]*Entry, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	rows, err := s.db.QueryContext(orBackground(ctx),
		`SELECT `+entryColumns+` FROM queue_entries
         ORDER BY requested_at DESC, rowid DESC
         LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()
	return collectEntries(rows)
}

// Remove deletes an entry by identifier.
func (s *Store) Remove(ctx context.Context, id string) (bool, error) {
	res, err := s.exec(ctx, `DELETE FROM queue_entries WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete entry: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// ToggleSkip flips the skip flag. Un-skipping gives the entry a fresh retry
// budget: attempts return to zero and the last error is cleared.
func (s *Store) ToggleSkip(ctx context.Context, id string) (*Entry, error) {
	var updated *Entry
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM queue_entries WHERE id = ?`, id)
		entry, err := scanEntry(row)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		entry.Skip = !entry.Skip
		if !entry.Skip {
			entry.Attempts = 0
			entry.LastError = ""
		}
		entry.UpdatedAt = time.Now().UTC()
		if _, err := tx.ExecContext(ctx,
			`UPDATE queue_entries SET skip = ?, attempts = ?, last_error = ?, updated_at = ? WHERE id = ?`,
			boolToInt(entry.Skip), entry.Attempts, nullableString(entry.LastError), formatTime(entry.UpdatedAt), entry.ID,
		); err != nil {
			return err
		}
		updated = entry
		return nil
	})
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("toggle skip %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("toggle skip %s: %w", id, err)
	}
	return updated, nil
}

// Stats returns a count of entries grouped by scheduling state. Every state is
// present in the result, including those with zero entries.
func (s *Store) Stats(ctx context.Context) (map[State]int, error) {
	rows, err := s.db.QueryContext(orBackground(ctx), `
        SELECT CASE
                 WHEN complete = 1 THEN 'complete'
                 WHEN skip = 1 THEN 'skipped'
                 ELSE 'pending'
               END AS state, COUNT(1)
        FROM queue_entries
        GROUP BY state`)
	if err != nil {
		return nil, fmt.Errorf("queue stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[State]int, len(States))
	for _, state := range States {
		stats[state] = 0
	}
	for rows.Next() {
		var state State
		var count int
		if err := rows.Scan(&state, &count); err != nil {
			return nil, err
		}
		stats[state] = count
	}
	return stats, rows.Err()
}

// ClearCompleted removes completed entries from the queue. File records stay.
func (s *Store) ClearCompleted(ctx context.Context) (int64, error) {
	res, err := s.exec(ctx, `DELETE FROM queue_entries WHERE complete = 1`)
	if err != nil {
		return 0, fmt.Errorf("clear completed: %w", err)
	}
	return res.RowsAffected()
}

func collectEntries(rows *sql.Rows) ([]*Entry, error) {
	var entries []*Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
