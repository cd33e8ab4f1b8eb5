// Package app wires the screens, the solve controller, and the Bubble Tea
// program into the running TUI.
package app

import (
	"fmt"
	"os"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/solvrlabs/solvr/internal/router"
	"github.com/solvrlabs/solvr/internal/screen"
	"github.com/solvrlabs/solvr/internal/screens/home"
	"github.com/solvrlabs/solvr/internal/screens/solver"
	"github.com/solvrlabs/solvr/internal/session"
	"github.com/solvrlabs/solvr/internal/solve"
	"github.com/solvrlabs/solvr/internal/ui/layout"
)

// Options carries the app's dependencies and the channel on which the
// solve controller publishes snapshots.
type Options struct {
	Deps    home.Deps
	Updates <-chan solve.Update
}

// AppModel is the root Bubble Tea model.
type AppModel struct {
	router  *router.Router
	sess    *session.Session
	updates <-chan solve.Update
	width   int
	height  int
}

// newAppModel creates a new AppModel with the home screen.
func newAppModel(opts Options) AppModel {
	return AppModel{
		router:  router.New(home.New(opts.Deps)),
		sess:    opts.Deps.Session,
		updates: opts.Updates,
	}
}

// waitForUpdate blocks on the controller's update channel and converts
// each snapshot into a message the solver screen understands.
func waitForUpdate(ch <-chan solve.Update) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		u, ok := <-ch
		if !ok {
			return nil
		}
		return solver.UpdateMsg(u)
	}
}

func (m AppModel) Init() tea.Cmd {
	return waitForUpdate(m.updates)
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case solver.UpdateMsg:
		// Forward to the active screen and re-arm the listener so the
		// next snapshot is picked up too.
		cmd := m.router.Update(msg)
		return m, tea.Batch(cmd, waitForUpdate(m.updates))

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		}
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

func (m AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true

	if m.width == 0 || m.height == 0 {
		return v
	}

	if layout.IsTooSmall(m.width, m.height) {
		v.SetContent(layout.RenderMinSizeMessage(m.width, m.height))
		return v
	}

	active := m.router.Active()
	title := ""
	if active != nil {
		title = active.Title()
	}

	var user string
	if m.sess.SignedIn() {
		user, _ = m.sess.Profile()
	}
	header := layout.RenderHeader(title, user, m.sess.Balance(), m.width)

	footerHints := m.footerHints(active)
	footer := layout.RenderFooter(footerHints, m.width)

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := m.height - headerHeight - footerHeight
	if contentHeight < 0 {
		contentHeight = 0
	}

	content := m.router.View(m.width, contentHeight)
	frame := layout.RenderFrame(header, content, footer, m.width, m.height)

	v.SetContent(frame)
	return v
}

func (m AppModel) footerHints(active screen.Screen) []layout.KeyHint {
	if provider, ok := active.(screen.KeyHintProvider); ok {
		return provider.KeyHints()
	}
	if m.router.Depth() > 1 {
		return []layout.KeyHint{
			{Key: "Esc", Description: "Back"},
			{Key: "Ctrl+C", Description: "Quit"},
		}
	}
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Select"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}

// Run starts the Bubble Tea program and blocks until it exits.
func Run(opts Options) error {
	p := tea.NewProgram(newAppModel(opts))
	_, err := p.Run()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error running program:", err)
		return err
	}
	return nil
}
