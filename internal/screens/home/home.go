// Package home is the landing screen: banner, credit summary, and the
// main navigation menu.
package home

import (
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/rs/zerolog"

	"github.com/solvrlabs/solvr/internal/account"
	"github.com/solvrlabs/solvr/internal/config"
	"github.com/solvrlabs/solvr/internal/plans"
	"github.com/solvrlabs/solvr/internal/router"
	"github.com/solvrlabs/solvr/internal/screen"
	"github.com/solvrlabs/solvr/internal/screens/history"
	"github.com/solvrlabs/solvr/internal/screens/login"
	"github.com/solvrlabs/solvr/internal/screens/planlist"
	"github.com/solvrlabs/solvr/internal/screens/settings"
	"github.com/solvrlabs/solvr/internal/screens/solver"
	"github.com/solvrlabs/solvr/internal/session"
	"github.com/solvrlabs/solvr/internal/solve"
	"github.com/solvrlabs/solvr/internal/store"
	"github.com/solvrlabs/solvr/internal/ui/components"
	"github.com/solvrlabs/solvr/internal/ui/theme"
)

// Deps carries everything the home screen and its child screens need.
type Deps struct {
	Config      config.Config
	Session     *session.Session
	Controller  *solve.Controller
	Account     *account.Client
	Plans       *plans.Client
	Attempts    store.AttemptRepo
	Ledger      store.LedgerRepo
	SessionRepo store.SessionRepo
	Logger      zerolog.Logger
}

// HomeScreen is the landing screen.
type HomeScreen struct {
	deps     Deps
	menu     components.Menu
	signedIn bool
}

var _ screen.Screen = (*HomeScreen)(nil)

// New creates the home screen.
func New(deps Deps) *HomeScreen {
	h := &HomeScreen{deps: deps}
	h.signedIn = deps.Session.SignedIn()
	h.menu = components.NewMenu(h.menuItems())
	return h
}

func (h *HomeScreen) menuItems() []components.MenuItem {
	push := func(s screen.Screen) func() tea.Cmd {
		return func() tea.Cmd {
			return func() tea.Msg { return router.PushScreenMsg{Screen: s} }
		}
	}

	signedIn := h.deps.Session.SignedIn()
	items := []components.MenuItem{
		{
			Label:    "Solve a Question",
			Action:   push(solver.New(h.deps.Controller, h.deps.Session, h.deps.Config.SolveCost)),
			Disabled: !signedIn,
		},
		{
			Label:  "Plans & Credits",
			Action: push(planlist.New(h.deps.Plans, h.deps.Session, h.deps.Ledger)),
		},
		{
			Label:  "History",
			Action: push(history.New(h.deps.Attempts, h.deps.Ledger)),
		},
	}

	if signedIn {
		items = append(items, components.MenuItem{
			Label:  "Settings",
			Action: push(settings.New(h.deps.Account, h.deps.Plans, h.deps.Session, h.deps.SessionRepo, h.deps.Ledger)),
		})
	} else {
		items = append(items, components.MenuItem{
			Label:  "Sign In",
			Action: push(login.New(h.deps.Account, h.deps.Session, h.deps.SessionRepo)),
		})
	}

	items = append(items, components.MenuItem{
		Label:  "Quit",
		Action: func() tea.Cmd { return tea.Quit },
	})
	return items
}

func (h *HomeScreen) Init() tea.Cmd {
	return nil
}

func (h *HomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	// Rebuild the menu when the signed-in state changed while another
	// screen was on top (login, settings sign-out).
	if signedIn := h.deps.Session.SignedIn(); signedIn != h.signedIn {
		h.signedIn = signedIn
		h.menu = components.NewMenu(h.menuItems())
	}

	var cmd tea.Cmd
	h.menu, cmd = h.menu.Update(msg)
	return h, cmd
}

func (h *HomeScreen) View(width, height int) string {
	cw := contentWidth(width)

	var sections []string
	sections = append(sections, renderBanner(cw, height < 20))
	sections = append(sections, renderGreeting(h.deps.Session, cw))
	sections = append(sections, lipgloss.NewStyle().
		Width(cw).
		Align(lipgloss.Center).
		Render(h.menu.View()))

	content := strings.Join(sections, "\n\n")

	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(content)
}

func (h *HomeScreen) Title() string {
	return "Home"
}

// contentWidth returns the uniform inner width used for all sections.
func contentWidth(frameWidth int) int {
	w := frameWidth - 6
	if w > 60 {
		w = 60
	}
	if w < 20 {
		w = 20
	}
	return w
}

func renderGreeting(sess *session.Session, cw int) string {
	var line string
	if sess.SignedIn() {
		_, name := sess.Profile()
		line = "Welcome back, " + name + "."
	} else {
		line = "Sign in to start solving questions."
	}
	return lipgloss.NewStyle().
		Width(cw).
		Align(lipgloss.Center).
		Foreground(theme.TextDim).
		Render(line)
}
