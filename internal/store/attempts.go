package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Attempt is one finished solve attempt, as recorded for history.
type Attempt struct {
	ID           string
	FileName     string
	Phase        string
	CreditsUsed  int
	ContentBytes int
	ErrorDetail  string
	StartedAt    time.Time
	FinishedAt   time.Time
}

// AttemptRepo stores and lists finished solve attempts.
type AttemptRepo interface {
	// Save records one finished attempt.
	Save(ctx context.Context, a Attempt) error

	// Recent returns up to limit attempts, newest first.
	Recent(ctx context.Context, limit int) ([]Attempt, error)
}

type attemptRepo struct {
	db *sql.DB
}

func (r *attemptRepo) Save(ctx context.Context, a Attempt) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO attempts (id, file_name, phase, credits_used, content_bytes, error_detail, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.FileName, a.Phase, a.CreditsUsed, a.ContentBytes, a.ErrorDetail, a.StartedAt, a.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("save attempt: %w", err)
	}
	return nil
}

func (r *attemptRepo) Recent(ctx context.Context, limit int) ([]Attempt, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, file_name, phase, credits_used, content_bytes, error_detail, started_at, finished_at
		FROM attempts ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	defer rows.Close()

	var out []Attempt
	for rows.Next() {
		var a Attempt
		if err := rows.Scan(&a.ID, &a.FileName, &a.Phase, &a.CreditsUsed, &a.ContentBytes, &a.ErrorDetail, &a.StartedAt, &a.FinishedAt); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
