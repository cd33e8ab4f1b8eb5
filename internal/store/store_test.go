package store

import (
	"context"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open("file::memory:?cache=shared")
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAttemptSaveAndRecent(t *testing.T) {
	s := openTestStore(t)
	repo := s.AttemptRepo()
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i, phase := range []string{"completed", "failed", "cancelled"} {
		a := Attempt{
			ID:         "id-" + phase,
			FileName:   "paper.pdf",
			Phase:      phase,
			StartedAt:  base.Add(time.Duration(i) * time.Minute),
			FinishedAt: base.Add(time.Duration(i)*time.Minute + 30*time.Second),
		}
		if phase == "completed" {
			a.CreditsUsed = 5
			a.ContentBytes = 1234
		}
		if err := repo.Save(ctx, a); err != nil {
			t.Fatalf("Save(%s): %v", phase, err)
		}
	}

	got, err := repo.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	// Newest first.
	if got[0].Phase != "cancelled" || got[2].Phase != "completed" {
		t.Errorf("order wrong: %v, %v, %v", got[0].Phase, got[1].Phase, got[2].Phase)
	}
	if got[2].CreditsUsed != 5 || got[2].ContentBytes != 1234 {
		t.Errorf("completed attempt fields lost: %+v", got[2])
	}

	limited, err := repo.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent limited: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("limit ignored: len = %d", len(limited))
	}
}

func TestLedgerAppendAndRecent(t *testing.T) {
	s := openTestStore(t)
	repo := s.LedgerRepo()
	ctx := context.Background()

	if err := repo.Append(ctx, -5, ReasonSolveDebit, 95); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := repo.Append(ctx, 5, ReasonRefund, 100); err != nil {
		t.Fatalf("Append: %v", err)
	}

	got, err := repo.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Reason != ReasonRefund || got[0].BalanceAfter != 100 {
		t.Errorf("newest event = %+v", got[0])
	}
	if got[1].Delta != -5 {
		t.Errorf("oldest delta = %d, want -5", got[1].Delta)
	}
}

func TestSessionRoundTrip(t *testing.T) {
	s := openTestStore(t)
	repo := s.SessionRepo()
	ctx := context.Background()

	loaded, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded != nil {
		t.Fatal("expected nil session before save")
	}

	saved := SavedSession{Token: "tok", Email: "kid@example.com", Name: "Kid", Credits: 85}
	if err := repo.Save(ctx, saved); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err = repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded == nil || loaded.Token != "tok" || loaded.Credits != 85 {
		t.Errorf("loaded = %+v", loaded)
	}

	// Upsert replaces, never duplicates.
	saved.Credits = 80
	if err := repo.Save(ctx, saved); err != nil {
		t.Fatalf("Save again: %v", err)
	}
	loaded, _ = repo.Load(ctx)
	if loaded.Credits != 80 {
		t.Errorf("credits = %d, want 80", loaded.Credits)
	}

	if err := repo.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	loaded, _ = repo.Load(ctx)
	if loaded != nil {
		t.Error("expected nil after Clear")
	}
}

func TestReset(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	s.AttemptRepo().Save(ctx, Attempt{ID: "x", FileName: "f", Phase: "completed", StartedAt: time.Now(), FinishedAt: time.Now()})
	s.LedgerRepo().Append(ctx, -5, ReasonSolveDebit, 95)
	s.SessionRepo().Save(ctx, SavedSession{Token: "tok"})

	if err := s.Reset(ctx); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	attempts, _ := s.AttemptRepo().Recent(ctx, 10)
	events, _ := s.LedgerRepo().Recent(ctx, 10)
	sess, _ := s.SessionRepo().Load(ctx)
	if len(attempts) != 0 || len(events) != 0 || sess != nil {
		t.Error("Reset left data behind")
	}
}
