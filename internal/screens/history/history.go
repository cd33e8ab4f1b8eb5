// Package history lists past solve attempts and credit ledger activity.
package history

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/solvrlabs/solvr/internal/router"
	"github.com/solvrlabs/solvr/internal/screen"
	"github.com/solvrlabs/solvr/internal/store"
	"github.com/solvrlabs/solvr/internal/ui/layout"
	"github.com/solvrlabs/solvr/internal/ui/theme"
)

// historyLoadedMsg delivers attempts and ledger events from the store.
type historyLoadedMsg struct {
	Attempts []store.Attempt
	Ledger   []store.LedgerEvent
	Err      error
}

// HistoryScreen displays past attempts and the credit ledger.
type HistoryScreen struct {
	attempts store.AttemptRepo
	ledger   store.LedgerRepo

	rows       []store.Attempt
	events     []store.LedgerEvent
	selected   int
	showLedger bool
	loaded     bool
	errMsg     string
}

var _ screen.Screen = (*HistoryScreen)(nil)
var _ screen.KeyHintProvider = (*HistoryScreen)(nil)

// New creates the history screen.
func New(attempts store.AttemptRepo, ledger store.LedgerRepo) *HistoryScreen {
	return &HistoryScreen{attempts: attempts, ledger: ledger}
}

func (s *HistoryScreen) Init() tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()

		rows, err := s.attempts.Recent(ctx, 50)
		if err != nil {
			return historyLoadedMsg{Err: err}
		}

		events, err := s.ledger.Recent(ctx, 50)
		if err != nil {
			return historyLoadedMsg{Attempts: rows}
		}

		return historyLoadedMsg{Attempts: rows, Ledger: events}
	}
}

func (s *HistoryScreen) Title() string {
	return "History"
}

func (s *HistoryScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Tab", Description: "Attempts / Ledger"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *HistoryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case historyLoadedMsg:
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
		} else {
			s.rows = msg.Attempts
			s.events = msg.Ledger
		}
		s.loaded = true
		return s, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if s.selected > 0 {
				s.selected--
			}
		case "down", "j":
			if s.selected < s.rowCount()-1 {
				s.selected++
			}
		case "tab":
			s.showLedger = !s.showLedger
			s.selected = 0
		case "esc":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		}
	}
	return s, nil
}

func (s *HistoryScreen) rowCount() int {
	if s.showLedger {
		return len(s.events)
	}
	return len(s.rows)
}

func (s *HistoryScreen) View(width, height int) string {
	if !s.loaded {
		return center(width, height, theme.Hint.Render("Loading history..."))
	}
	if s.errMsg != "" {
		return center(width, height, theme.Incorrect.Render(s.errMsg))
	}

	if s.showLedger {
		return s.viewLedger(width, height)
	}
	return s.viewAttempts(width, height)
}

func (s *HistoryScreen) viewAttempts(width, height int) string {
	if len(s.rows) == 0 {
		return center(width, height, theme.Hint.Render("No solves yet. Pick a question to get started."))
	}

	var lines []string
	lines = append(lines, theme.Subtitle.Render("Recent solves"), "")

	for i, a := range s.rows {
		badge := phaseBadge(a.Phase)
		line := fmt.Sprintf("%s  %s  %s  %d credits",
			badge,
			a.StartedAt.Local().Format("Jan 02 15:04"),
			a.FileName,
			a.CreditsUsed,
		)
		if a.ErrorDetail != "" {
			line += "  " + theme.Hint.Render(a.ErrorDetail)
		}
		if i == s.selected {
			line = theme.Selected.Render("▸ " + line)
		} else {
			line = theme.Unselected.Render("  " + line)
		}
		lines = append(lines, line)
	}

	return center(width, height, strings.Join(lines, "\n"))
}

func (s *HistoryScreen) viewLedger(width, height int) string {
	if len(s.events) == 0 {
		return center(width, height, theme.Hint.Render("No credit activity yet."))
	}

	var lines []string
	lines = append(lines, theme.Subtitle.Render("Credit ledger"), "")

	for i, e := range s.events {
		delta := fmt.Sprintf("%+d", e.Delta)
		styled := theme.Correct.Render(delta)
		if e.Delta < 0 {
			styled = theme.Incorrect.Render(delta)
		}
		line := fmt.Sprintf("%s  %s  %s  balance %d",
			e.CreatedAt.Local().Format("Jan 02 15:04"),
			styled,
			e.Reason,
			e.BalanceAfter,
		)
		if i == s.selected {
			line = theme.Selected.Render("▸ " + line)
		} else {
			line = theme.Unselected.Render("  " + line)
		}
		lines = append(lines, line)
	}

	return center(width, height, strings.Join(lines, "\n"))
}

func phaseBadge(phase string) string {
	switch phase {
	case "completed":
		return theme.Correct.Render("●")
	case "cancelled":
		return theme.Hint.Render("●")
	default:
		return theme.Incorrect.Render("●")
	}
}

func center(width, height int, content string) string {
	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(content)
}
