// Package login is the sign-in / sign-up screen.
package login

import (
	"context"
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/solvrlabs/solvr/internal/account"
	"github.com/solvrlabs/solvr/internal/router"
	"github.com/solvrlabs/solvr/internal/screen"
	"github.com/solvrlabs/solvr/internal/session"
	"github.com/solvrlabs/solvr/internal/store"
	"github.com/solvrlabs/solvr/internal/ui/components"
	"github.com/solvrlabs/solvr/internal/ui/layout"
	"github.com/solvrlabs/solvr/internal/ui/theme"
)

// authDoneMsg is sent when the login or signup request finishes.
type authDoneMsg struct {
	Result *account.LoginResult
	Err    error
}

const (
	fieldName = iota
	fieldEmail
	fieldPassword
	fieldCount
)

// LoginScreen collects credentials and signs the user in.
type LoginScreen struct {
	client      *account.Client
	sess        *session.Session
	sessionRepo store.SessionRepo

	signup  bool
	focused int
	name    components.TextInput
	email   components.TextInput
	pass    components.TextInput
	busy    bool
	errMsg  string
}

var _ screen.Screen = (*LoginScreen)(nil)
var _ screen.KeyHintProvider = (*LoginScreen)(nil)

// New creates the login screen.
func New(client *account.Client, sess *session.Session, sessionRepo store.SessionRepo) *LoginScreen {
	s := &LoginScreen{
		client:      client,
		sess:        sess,
		sessionRepo: sessionRepo,
		focused:     fieldEmail,
		name:        components.NewTextInput("your name", false, 64),
		email:       components.NewTextInput("email", false, 128),
		pass:        components.NewTextInput("password", false, 128),
	}
	s.pass.Model.EchoMode = textinput.EchoPassword
	s.name.Model.Blur()
	s.pass.Model.Blur()
	return s
}

func (s *LoginScreen) Init() tea.Cmd {
	return s.email.Init()
}

func (s *LoginScreen) Title() string {
	if s.signup {
		return "Sign Up"
	}
	return "Sign In"
}

func (s *LoginScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Tab", Description: "Next field"},
		{Key: "Ctrl+T", Description: "Toggle sign up"},
		{Key: "Enter", Description: "Submit"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *LoginScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case authDoneMsg:
		s.busy = false
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
			return s, nil
		}
		u := msg.Result.User
		s.sess.SignIn(msg.Result.Token, u.Email, u.Name, u.Credits)
		s.persistSession(msg.Result.Token, u)
		return s, func() tea.Msg { return router.PopScreenMsg{} }

	case tea.KeyMsg:
		if s.busy {
			return s, nil
		}
		switch msg.String() {
		case "esc":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case "tab":
			s.cycleFocus(1)
			return s, nil
		case "shift+tab":
			s.cycleFocus(-1)
			return s, nil
		case "ctrl+t":
			s.signup = !s.signup
			if !s.signup && s.focused == fieldName {
				s.setFocus(fieldEmail)
			}
			return s, nil
		case "enter":
			return s, s.submit()
		}
	}

	var cmd tea.Cmd
	switch s.focused {
	case fieldName:
		s.name, cmd = s.name.Update(msg)
	case fieldEmail:
		s.email, cmd = s.email.Update(msg)
	case fieldPassword:
		s.pass, cmd = s.pass.Update(msg)
	}
	return s, cmd
}

func (s *LoginScreen) cycleFocus(dir int) {
	next := s.focused
	for {
		next = (next + dir + fieldCount) % fieldCount
		if next == fieldName && !s.signup {
			continue
		}
		break
	}
	s.setFocus(next)
}

func (s *LoginScreen) setFocus(field int) {
	s.focused = field
	s.name.Model.Blur()
	s.email.Model.Blur()
	s.pass.Model.Blur()
	switch field {
	case fieldName:
		s.name.Model.Focus()
	case fieldEmail:
		s.email.Model.Focus()
	case fieldPassword:
		s.pass.Model.Focus()
	}
}

func (s *LoginScreen) submit() tea.Cmd {
	email := strings.TrimSpace(s.email.Value())
	password := s.pass.Value()
	name := strings.TrimSpace(s.name.Value())

	if email == "" || password == "" {
		s.errMsg = "Email and password are required."
		return nil
	}
	if s.signup && name == "" {
		s.errMsg = "Name is required to sign up."
		return nil
	}

	s.errMsg = ""
	s.busy = true
	signup := s.signup

	return func() tea.Msg {
		ctx := context.Background()
		if signup {
			res, err := s.client.Signup(ctx, name, email, password)
			return authDoneMsg{Result: res, Err: err}
		}
		res, err := s.client.Login(ctx, email, password)
		return authDoneMsg{Result: res, Err: err}
	}
}

// persistSession saves the signed-in session so the next launch can
// restore it without prompting. Failure to persist is not fatal.
func (s *LoginScreen) persistSession(token string, u account.User) {
	if s.sessionRepo == nil {
		return
	}
	_ = s.sessionRepo.Save(context.Background(), store.SavedSession{
		Token:   token,
		Email:   u.Email,
		Name:    u.Name,
		Credits: u.Credits,
	})
}

func (s *LoginScreen) View(width, height int) string {
	var b strings.Builder

	if s.signup {
		b.WriteString(theme.Body.Render("Create your account"))
		b.WriteString("\n\n")
		b.WriteString(s.renderField("Name", s.name.View(), s.focused == fieldName))
		b.WriteString("\n")
	} else {
		b.WriteString(theme.Body.Render("Sign in to your account"))
		b.WriteString("\n\n")
	}

	b.WriteString(s.renderField("Email", s.email.View(), s.focused == fieldEmail))
	b.WriteString("\n")
	b.WriteString(s.renderField("Password", s.pass.View(), s.focused == fieldPassword))

	if s.busy {
		b.WriteString("\n\n")
		b.WriteString(theme.Hint.Render("Signing in..."))
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

func (s *LoginScreen) renderField(label, input string, focused bool) string {
	style := theme.Unselected
	if focused {
		style = theme.Selected
	}
	return style.Render(label) + "\n" + input + "\n"
}
