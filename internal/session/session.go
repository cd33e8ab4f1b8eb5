// Package session holds the app-session state shared across solve attempts:
// the signed-in user, the bearer credential, and the credit balance.
package session

import "sync"

// Session is the ambient auth and credit context. One instance lives for the
// whole app run and is passed by reference to everything that needs it.
type Session struct {
	mu      sync.Mutex
	token   string
	email   string
	name    string
	credits int
}

// New creates an empty, signed-out session.
func New() *Session {
	return &Session{}
}

// Credential returns the bearer token, or "" when signed out.
func (s *Session) Credential() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// SignIn stores the bearer token and profile for the signed-in user.
func (s *Session) SignIn(token, email, name string, credits int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.email = email
	s.name = name
	s.credits = credits
}

// SignOut clears the credential and profile. The balance is cleared too; it
// belongs to the account, not the device.
func (s *Session) SignOut() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.email = ""
	s.name = ""
	s.credits = 0
}

// SignedIn reports whether a credential is present.
func (s *Session) SignedIn() bool {
	return s.Credential() != ""
}

// Profile returns the signed-in user's email and display name.
func (s *Session) Profile() (email, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.email, s.name
}

// Balance returns the current credit balance.
func (s *Session) Balance() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.credits
}

// SetBalance replaces the credit balance (e.g. after a server sync).
func (s *Session) SetBalance(credits int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credits = credits
}

// Debit subtracts amount from the balance and returns the new balance.
// The caller is responsible for checking sufficiency first.
func (s *Session) Debit(amount int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credits -= amount
	return s.credits
}

// Credit adds amount back to the balance and returns the new balance.
func (s *Session) Credit(amount int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credits += amount
	return s.credits
}
