// Package planlist shows the credit plan catalog and handles purchases.
package planlist

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/solvrlabs/solvr/internal/plans"
	"github.com/solvrlabs/solvr/internal/router"
	"github.com/solvrlabs/solvr/internal/screen"
	"github.com/solvrlabs/solvr/internal/session"
	"github.com/solvrlabs/solvr/internal/store"
	"github.com/solvrlabs/solvr/internal/ui/layout"
	"github.com/solvrlabs/solvr/internal/ui/theme"
)

// catalogLoadedMsg delivers the plan catalog.
type catalogLoadedMsg struct {
	Catalog []plans.Plan
}

// purchaseDoneMsg delivers the purchase outcome.
type purchaseDoneMsg struct {
	Tx  *plans.Transaction
	Err error
}

// PlanListScreen lists plans and lets the signed-in user buy credits.
type PlanListScreen struct {
	client *plans.Client
	sess   *session.Session
	ledger store.LedgerRepo

	catalog  []plans.Plan
	selected int
	loaded   bool
	busy     bool
	notice   string
	errMsg   string
}

var _ screen.Screen = (*PlanListScreen)(nil)
var _ screen.KeyHintProvider = (*PlanListScreen)(nil)

// New creates the plan list screen.
func New(client *plans.Client, sess *session.Session, ledger store.LedgerRepo) *PlanListScreen {
	return &PlanListScreen{client: client, sess: sess, ledger: ledger}
}

func (s *PlanListScreen) Init() tea.Cmd {
	return func() tea.Msg {
		return catalogLoadedMsg{Catalog: s.client.Catalog(context.Background())}
	}
}

func (s *PlanListScreen) Title() string {
	return "Plans & Credits"
}

func (s *PlanListScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Purchase"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *PlanListScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case catalogLoadedMsg:
		s.catalog = msg.Catalog
		s.loaded = true
		return s, nil

	case purchaseDoneMsg:
		s.busy = false
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
			return s, nil
		}
		balance := s.sess.Credit(msg.Tx.CreditsAdded)
		if s.ledger != nil {
			_ = s.ledger.Append(context.Background(), msg.Tx.CreditsAdded, store.ReasonPurchase, balance)
		}
		s.notice = fmt.Sprintf("Added %d credits. New balance: %d.", msg.Tx.CreditsAdded, balance)
		return s, nil

	case tea.KeyMsg:
		if s.busy {
			return s, nil
		}
		switch msg.String() {
		case "up", "k":
			if s.selected > 0 {
				s.selected--
			}
		case "down", "j":
			if s.selected < len(s.catalog)-1 {
				s.selected++
			}
		case "enter":
			return s, s.purchase()
		case "esc":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		}
	}
	return s, nil
}

func (s *PlanListScreen) purchase() tea.Cmd {
	if s.selected < 0 || s.selected >= len(s.catalog) {
		return nil
	}
	if !s.sess.SignedIn() {
		s.errMsg = "Sign in to purchase credits."
		return nil
	}

	plan := s.catalog[s.selected]
	token := s.sess.Credential()
	s.errMsg = ""
	s.notice = ""
	s.busy = true

	return func() tea.Msg {
		tx, err := s.client.Purchase(context.Background(), token, plan.ID)
		return purchaseDoneMsg{Tx: tx, Err: err}
	}
}

func (s *PlanListScreen) View(width, height int) string {
	if !s.loaded {
		return lipgloss.NewStyle().
			Width(width).
			Height(height).
			Align(lipgloss.Center, lipgloss.Center).
			Render(theme.Hint.Render("Loading plans..."))
	}

	cardWidth := min(width-8, 48)
	var cards []string
	for i, p := range s.catalog {
		cards = append(cards, s.renderPlan(p, i == s.selected, cardWidth))
	}

	body := strings.Join(cards, "\n")

	footer := theme.Hint.Render(fmt.Sprintf("Current balance: %d credits", s.sess.Balance()))
	if s.busy {
		footer = theme.Hint.Render("Processing purchase...")
	}
	if s.notice != "" {
		footer = theme.Correct.Render(s.notice)
	}
	if s.errMsg != "" {
		footer = theme.Incorrect.Render(s.errMsg)
	}

	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(body + "\n\n" + footer)
}

func (s *PlanListScreen) renderPlan(p plans.Plan, selected bool, width int) string {
	var b strings.Builder

	title := p.Name
	if p.BestValue {
		title += "  ★ best value"
	}
	b.WriteString(theme.Selected.Render(title))
	b.WriteString("\n")
	b.WriteString(theme.Body.Render(fmt.Sprintf("%d credits — ₹%.0f", p.Credits, p.Price)))

	for _, f := range p.Features {
		mark := theme.Correct.Render("✓")
		if !f.Included {
			mark = theme.Hint.Render("✗")
		}
		b.WriteString("\n  " + mark + " " + theme.Hint.Render(f.Feature))
	}

	border := theme.Border
	if selected {
		border = theme.Primary
	}

	return lipgloss.NewStyle().
		Width(width).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 2).
		Render(b.String())
}
