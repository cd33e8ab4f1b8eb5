package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SavedSession is the persisted sign-in state, restored on startup.
type SavedSession struct {
	Token     string
	Email     string
	Name      string
	Credits   int
	UpdatedAt time.Time
}

// SessionRepo persists the single app session across restarts.
type SessionRepo interface {
	// Save upserts the saved session.
	Save(ctx context.Context, s SavedSession) error

	// Load returns the saved session, or nil if none exists.
	Load(ctx context.Context) (*SavedSession, error)

	// Clear deletes the saved session.
	Clear(ctx context.Context) error
}

type sessionRepo struct {
	db *sql.DB
}

func (r *sessionRepo) Save(ctx context.Context, s SavedSession) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO saved_session (id, token, email, name, credits, updated_at)
		VALUES (1, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			token = excluded.token,
			email = excluded.email,
			name = excluded.name,
			credits = excluded.credits,
			updated_at = excluded.updated_at`,
		s.Token, s.Email, s.Name, s.Credits, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (r *sessionRepo) Load(ctx context.Context) (*SavedSession, error) {
	var s SavedSession
	err := r.db.QueryRowContext(ctx, `
		SELECT token, email, name, credits, updated_at FROM saved_session WHERE id = 1`).
		Scan(&s.Token, &s.Email, &s.Name, &s.Credits, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return &s, nil
}

func (r *sessionRepo) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM saved_session`); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
