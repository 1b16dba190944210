package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// SaveFile records a downloaded file, replacing any previous record for the same video.
func (s *Store) SaveFile(ctx context.Context, record FileRecord) error {
	if strings.TrimSpace(record.ID) == "" {
		return errors.New("save file: id is required")
	}
	if strings.TrimSpace(record.Filename) == "" {
		return errors.New("save file: filename is required")
	}
	if record.Kind == "" {
		record.Kind = FileKindVideo
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	_, err := s.exec(ctx,
		`INSERT INTO files (`+fileColumns+`)
         VALUES (?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(id) DO UPDATE SET
            author_id = excluded.author_id,
            filename = excluded.filename,
            file_extension = excluded.file_extension,
            content_length = excluded.content_length,
            kind = excluded.kind,
            created_at = excluded.created_at`,
		record.ID,
		record.AuthorID,
		record.Filename,
		record.FileExtension,
		record.ContentLength,
		record.Kind,
		formatTime(record.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("save file %s: %w", record.ID, err)
	}
	return nil
}

// GetFile returns the file record for a video, or nil when none exists.
func (s *Store) GetFile(ctx context.Context, id string) (*FileRecord, error) {
	row := s.db.QueryRowContext(orBackground(ctx), `SELECT `+fileColumns+` FROM files WHERE id = ?`, id)
	record, err := scanFile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get file %s: %w", id, err)
	}
	return record, nil
}
