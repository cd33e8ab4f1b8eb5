// Package settings shows the signed-in profile and account actions:
// balance refresh from the server and sign-out.
package settings

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/solvrlabs/solvr/internal/account"
	"github.com/solvrlabs/solvr/internal/plans"
	"github.com/solvrlabs/solvr/internal/router"
	"github.com/solvrlabs/solvr/internal/screen"
	"github.com/solvrlabs/solvr/internal/session"
	"github.com/solvrlabs/solvr/internal/store"
	"github.com/solvrlabs/solvr/internal/ui/components"
	"github.com/solvrlabs/solvr/internal/ui/layout"
	"github.com/solvrlabs/solvr/internal/ui/theme"
)

// balanceSyncedMsg delivers the server-side credit balance.
type balanceSyncedMsg struct {
	Credits int
	Err     error
}

// signedOutMsg is sent after sign-out completes.
type signedOutMsg struct{}

// SettingsScreen shows profile details and account actions.
type SettingsScreen struct {
	accountC    *account.Client
	plansC      *plans.Client
	sess        *session.Session
	sessionRepo store.SessionRepo
	ledger      store.LedgerRepo

	busy   bool
	notice string
	errMsg string
}

var _ screen.Screen = (*SettingsScreen)(nil)
var _ screen.KeyHintProvider = (*SettingsScreen)(nil)

// New creates the settings screen.
func New(accountC *account.Client, plansC *plans.Client, sess *session.Session, sessionRepo store.SessionRepo, ledger store.LedgerRepo) *SettingsScreen {
	return &SettingsScreen{
		accountC:    accountC,
		plansC:      plansC,
		sess:        sess,
		sessionRepo: sessionRepo,
		ledger:      ledger,
	}
}

func (s *SettingsScreen) Init() tea.Cmd {
	return nil
}

func (s *SettingsScreen) Title() string {
	return "Settings"
}

func (s *SettingsScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "R", Description: "Refresh balance"},
		{Key: "O", Description: "Sign out"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *SettingsScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case balanceSyncedMsg:
		s.busy = false
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
			return s, nil
		}
		s.sess.SetBalance(msg.Credits)
		if s.ledger != nil {
			_ = s.ledger.Append(context.Background(), 0, store.ReasonServerSync, msg.Credits)
		}
		s.notice = fmt.Sprintf("Balance synced: %d credits.", msg.Credits)
		return s, nil

	case signedOutMsg:
		s.busy = false
		return s, func() tea.Msg { return router.PopScreenMsg{} }

	case tea.KeyMsg:
		if s.busy {
			return s, nil
		}
		switch msg.String() {
		case "r", "R":
			return s, s.refreshBalance()
		case "o", "O":
			return s, s.signOut()
		case "esc":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		}
	}
	return s, nil
}

func (s *SettingsScreen) refreshBalance() tea.Cmd {
	token := s.sess.Credential()
	s.busy = true
	s.notice = ""
	s.errMsg = ""

	return func() tea.Msg {
		credits, err := s.plansC.Balance(context.Background(), token)
		return balanceSyncedMsg{Credits: credits, Err: err}
	}
}

// signOut invalidates the token server-side on a best-effort basis; the
// local session and its saved copy are always cleared.
func (s *SettingsScreen) signOut() tea.Cmd {
	token := s.sess.Credential()
	s.busy = true

	return func() tea.Msg {
		ctx := context.Background()
		_ = s.accountC.Logout(ctx, token)
		if s.sessionRepo != nil {
			_ = s.sessionRepo.Clear(ctx)
		}
		s.sess.SignOut()
		return signedOutMsg{}
	}
}

func (s *SettingsScreen) View(width, height int) string {
	email, name := s.sess.Profile()

	var b strings.Builder
	b.WriteString(theme.Body.Render("Account"))
	b.WriteString("\n\n")
	b.WriteString(theme.Hint.Render("Name") + "     " + theme.Body.Render(name))
	b.WriteString("\n")
	b.WriteString(theme.Hint.Render("Email") + "    " + theme.Body.Render(email))
	b.WriteString("\n")
	b.WriteString(theme.Hint.Render("Credits") + "  " + theme.Body.Render(fmt.Sprintf("%d", s.sess.Balance())))
	b.WriteString("\n\n")
	b.WriteString(components.NewProgressBar("", creditRatio(s.sess.Balance()), true, 40).View())

	if s.busy {
		b.WriteString("\n\n")
		b.WriteString(theme.Hint.Render("Working..."))
	}
	if s.notice != "" {
		b.WriteString("\n\n")
		b.WriteString(theme.Correct.Render(s.notice))
	}
	if s.errMsg != "" {
		b.WriteString("\n\n")
		b.WriteString(theme.Incorrect.Render(s.errMsg))
	}

	card := theme.Card.Width(min(width-4, 56)).Render(b.String())
	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(card)
}

// creditRatio maps the balance onto the largest plan's credit count so
// the gauge has a stable scale.
func creditRatio(balance int) float64 {
	maxCredits := 0
	for _, p := range plans.BuiltinCatalog() {
		if p.Credits > maxCredits {
			maxCredits = p.Credits
		}
	}
	if maxCredits == 0 {
		return 0
	}
	ratio := float64(balance) / float64(maxCredits)
	if ratio > 1 {
		ratio = 1
	}
	return ratio
}
