// Package solver is the streaming solve screen: pick a question document,
// watch the solution arrive chunk by chunk, cancel if needed.
package solver

import (
	"context"
	"fmt"
	"os"
	"strings"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/solvrlabs/solvr/internal/router"
	"github.com/solvrlabs/solvr/internal/screen"
	"github.com/solvrlabs/solvr/internal/session"
	"github.com/solvrlabs/solvr/internal/solve"
	"github.com/solvrlabs/solvr/internal/stream"
	"github.com/solvrlabs/solvr/internal/ui/components"
	"github.com/solvrlabs/solvr/internal/ui/layout"
	"github.com/solvrlabs/solvr/internal/ui/theme"
)

// UpdateMsg carries a controller snapshot into the Bubble Tea loop. The
// app model forwards these from the controller's notify channel.
type UpdateMsg solve.Update

// startFailedMsg is sent when an attempt could not be started.
type startFailedMsg struct {
	Err error
}

// SolverScreen drives one solve attempt end to end.
type SolverScreen struct {
	controller *solve.Controller
	sess       *session.Session
	cost       int

	input    components.TextInput
	spin     spinner.Model
	running  bool
	last     solve.Update
	errMsg   string
	haveSnap bool
}

var _ screen.Screen = (*SolverScreen)(nil)
var _ screen.KeyHintProvider = (*SolverScreen)(nil)

// New creates the solver screen.
func New(controller *solve.Controller, sess *session.Session, cost int) *SolverScreen {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return &SolverScreen{
		controller: controller,
		sess:       sess,
		cost:       cost,
		input:      components.NewTextInput("path to question PDF", false, 0),
		spin:       sp,
	}
}

func (s *SolverScreen) Init() tea.Cmd {
	return s.input.Init()
}

func (s *SolverScreen) Title() string {
	return "Solve"
}

func (s *SolverScreen) KeyHints() []layout.KeyHint {
	if s.running {
		return []layout.KeyHint{
			{Key: "C", Description: "Cancel"},
			{Key: "Ctrl+C", Description: "Quit"},
		}
	}
	if s.haveSnap && s.last.Phase.Terminal() {
		return []layout.KeyHint{
			{Key: "N", Description: "New question"},
			{Key: "Esc", Description: "Back"},
		}
	}
	return []layout.KeyHint{
		{Key: "Enter", Description: "Solve"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *SolverScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case UpdateMsg:
		s.last = solve.Update(msg)
		s.haveSnap = true
		if s.last.Phase.Terminal() {
			s.running = false
		}
		return s, nil

	case startFailedMsg:
		s.errMsg = msg.Err.Error()
		s.running = false
		return s, nil

	case spinner.TickMsg:
		if !s.running {
			return s, nil
		}
		var cmd tea.Cmd
		s.spin, cmd = s.spin.Update(msg)
		return s, cmd

	case tea.KeyMsg:
		return s.handleKey(msg)
	}

	if !s.running {
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return s, cmd
	}
	return s, nil
}

func (s *SolverScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	if s.running {
		switch msg.String() {
		case "c", "C":
			s.controller.Cancel()
		}
		return s, nil
	}

	if s.haveSnap && s.last.Phase.Terminal() {
		switch msg.String() {
		case "n", "N":
			s.controller.Clear()
			s.haveSnap = false
			s.errMsg = ""
			s.input = components.NewTextInput("path to question PDF", false, 0)
			return s, s.input.Init()
		case "esc":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		}
		return s, nil
	}

	switch msg.String() {
	case "enter":
		return s, s.startSolve()
	case "esc":
		return s, func() tea.Msg { return router.PopScreenMsg{} }
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

func (s *SolverScreen) startSolve() tea.Cmd {
	path := strings.TrimSpace(s.input.Value())
	if path == "" {
		s.errMsg = "Enter the path to a question document."
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		s.errMsg = fmt.Sprintf("Cannot read %s", path)
		return nil
	}

	s.errMsg = ""
	s.running = true
	s.haveSnap = false

	start := func() tea.Msg {
		if err := s.controller.Start(context.Background(), stream.FileDocument{Path: path}); err != nil {
			return startFailedMsg{Err: err}
		}
		return nil
	}
	return tea.Batch(start, s.spin.Tick)
}

func (s *SolverScreen) View(width, height int) string {
	if s.running || s.haveSnap {
		return s.renderAttempt(width, height)
	}
	return s.renderPrompt(width, height)
}

func (s *SolverScreen) renderPrompt(width, height int) string {
	var b strings.Builder

	b.WriteString(theme.Body.Render("Question document (PDF):"))
	b.WriteString("\n\n")
	b.WriteString(s.input.View())
	b.WriteString("\n\n")
	b.WriteString(theme.Hint.Render(fmt.Sprintf(
		"Solving costs %d credits. You have %d.", s.cost, s.sess.Balance())))

	if s.errMsg != "" {
		b.WriteString("\n\n")
		b.WriteString(theme.Incorrect.Render(s.errMsg))
	}

	card := theme.Card.Width(min(width-4, 72)).Render(b.String())
	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(card)
}

func (s *SolverScreen) renderAttempt(width, height int) string {
	statusLine := s.renderStatus()

	// Reserve two lines for the status bar, rest for content.
	contentHeight := height - 2
	if contentHeight < 1 {
		contentHeight = 1
	}

	body := tailLines(strings.TrimLeft(s.last.Content, "\n"), contentHeight)
	content := lipgloss.NewStyle().
		Width(width).
		Height(contentHeight).
		Foreground(theme.Text).
		Render(body)

	return statusLine + "\n\n" + content
}

func (s *SolverScreen) renderStatus() string {
	phase := s.last.Phase

	var badge string
	switch phase {
	case solve.PhaseCompleted:
		badge = theme.Correct.Render("● " + phase.String())
	case solve.PhaseFailed, solve.PhaseCancelled:
		badge = theme.Incorrect.Render("● " + phase.String())
	default:
		badge = theme.Selected.Render(s.spin.View() + phase.String())
	}

	status := s.last.Status
	if phase == solve.PhaseFailed && s.last.Err != nil {
		status = s.last.Err.Error()
	}

	return "  " + badge + "  " + theme.Hint.Render(status) +
		"  " + theme.Hint.Render(fmt.Sprintf("(%s)", s.last.FileName))
}

// tailLines returns the last n lines of text so the newest output stays
// visible while the solution streams in.
func tailLines(text string, n int) string {
	lines := strings.Split(text, "\n")
	if len(lines) <= n {
		return text
	}
	return strings.Join(lines[len(lines)-n:], "\n")
}
