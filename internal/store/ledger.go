package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// LedgerEvent is one credit balance change.
type LedgerEvent struct {
	ID           int64
	Delta        int
	Reason       string
	BalanceAfter int
	CreatedAt    time.Time
}

// Well-known ledger reasons.
const (
	ReasonSolveDebit = "solve"
	ReasonRefund     = "refund"
	ReasonPurchase   = "purchase"
	ReasonServerSync = "sync"
)

// LedgerRepo provides append access to credit-ledger events.
type LedgerRepo interface {
	// Append records one balance change.
	Append(ctx context.Context, delta int, reason string, balanceAfter int) error

	// Recent returns up to limit events, newest first.
	Recent(ctx context.Context, limit int) ([]LedgerEvent, error)
}

type ledgerRepo struct {
	db *sql.DB
}

func (r *ledgerRepo) Append(ctx context.Context, delta int, reason string, balanceAfter int) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO ledger_events (delta, reason, balance_after, created_at)
		VALUES (?, ?, ?, ?)`,
		delta, reason, balanceAfter, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("append ledger event: %w", err)
	}
	return nil
}

func (r *ledgerRepo) Recent(ctx context.Context, limit int) ([]LedgerEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, delta, reason, balance_after, created_at
		FROM ledger_events ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query ledger events: %w", err)
	}
	defer rows.Close()

	var out []LedgerEvent
	for rows.Next() {
		var e LedgerEvent
		if err := rows.Scan(&e.ID, &e.Delta, &e.Reason, &e.BalanceAfter, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan ledger event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
