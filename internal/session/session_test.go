package session

import "testing"

func TestSignInAndOut(t *testing.T) {
	s := New()
	if s.SignedIn() {
		t.Error("new session should be signed out")
	}

	s.SignIn("tok-123", "kid@example.com", "Kid", 100)
	if !s.SignedIn() {
		t.Error("expected signed in")
	}
	if s.Credential() != "tok-123" {
		t.Errorf("Credential() = %q", s.Credential())
	}
	email, name := s.Profile()
	if email != "kid@example.com" || name != "Kid" {
		t.Errorf("Profile() = %q, %q", email, name)
	}
	if s.Balance() != 100 {
		t.Errorf("Balance() = %d, want 100", s.Balance())
	}

	s.SignOut()
	if s.SignedIn() || s.Balance() != 0 {
		t.Error("sign out should clear credential and balance")
	}
}

func TestDebitAndCredit(t *testing.T) {
	s := New()
	s.SetBalance(100)

	if got := s.Debit(5); got != 95 {
		t.Errorf("Debit(5) = %d, want 95", got)
	}
	if got := s.Credit(5); got != 100 {
		t.Errorf("Credit(5) = %d, want 100", got)
	}
	if s.Balance() != 100 {
		t.Errorf("Balance() = %d, want 100", s.Balance())
	}
}
