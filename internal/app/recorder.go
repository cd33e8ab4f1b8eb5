package app

import (
	"context"

	"github.com/solvrlabs/solvr/internal/session"
	"github.com/solvrlabs/solvr/internal/solve"
	"github.com/solvrlabs/solvr/internal/store"
)

// storeRecorder persists finished attempts and mirrors their credit
// movement into the ledger.
type storeRecorder struct {
	attempts store.AttemptRepo
	ledger   store.LedgerRepo
	sess     *session.Session
}

// NewStoreRecorder adapts the store repos to the solve controller's
// Recorder interface.
func NewStoreRecorder(attempts store.AttemptRepo, ledger store.LedgerRepo, sess *session.Session) solve.Recorder {
	return &storeRecorder{attempts: attempts, ledger: ledger, sess: sess}
}

func (r *storeRecorder) RecordAttempt(ctx context.Context, rec solve.Record) error {
	err := r.attempts.Save(ctx, store.Attempt{
		ID:           rec.ID,
		FileName:     rec.FileName,
		Phase:        rec.Phase,
		CreditsUsed:  rec.CreditsUsed,
		ContentBytes: rec.ContentBytes,
		ErrorDetail:  rec.ErrorDetail,
		StartedAt:    rec.StartedAt,
		FinishedAt:   rec.FinishedAt,
	})

	// Only completed attempts keep their debit; everything else was
	// already refunded by the controller.
	if r.ledger != nil && rec.CreditsUsed > 0 {
		_ = r.ledger.Append(ctx, -rec.CreditsUsed, store.ReasonSolveDebit, r.sess.Balance())
	}
	return err
}
