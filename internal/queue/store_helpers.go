package queue

import (
	"database/sql"
	"errors"
	"time"
)

const entryColumns = "id, author_id, title, requested_at, complete, skip, attempts, last_error, updated_at"

const fileColumns = "id, author_id, filename, file_extension, content_length, kind, created_at"

// timeLayout is fixed width so text ordering in SQLite matches chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(scanner rowScanner) (*Entry, error) {
	var (
		entry        Entry
		title        sql.NullString
		requestedRaw string
		complete     int
		skip         int
		lastError    sql.NullString
		updatedRaw   string
	)
	if err := scanner.Scan(
		&entry.ID,
		&entry.AuthorID,
		&title,
		&requestedRaw,
		&complete,
		&skip,
		&entry.Attempts,
		&lastError,
		&updatedRaw,
	); err != nil {
		return nil, err
	}
	entry.Title = title.String
	entry.Complete = complete != 0
	entry.Skip = skip != 0
	entry.LastError = lastError.String
	if requested, err := parseTimeString(requestedRaw); err == nil {
		entry.RequestedAt = requested
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		entry.UpdatedAt = updated
	}
	return &entry, nil
}

func scanFile(scanner rowScanner) (*FileRecord, error) {
	var (
		record     FileRecord
		createdRaw string
	)
	if err := scanner.Scan(
		&record.ID,
		&record.AuthorID,
		&record.Filename,
		&record.FileExtension,
		&record.ContentLength,
		&record.Kind,
		&createdRaw,
	); err != nil {
		return nil, err
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		record.CreatedAt = created
	}
	return &record, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func formatTime(value time.Time) string {
	return value.UTC().Format(timeLayout)
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
