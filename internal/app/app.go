// Package app is the page shell of the advisor TUI: it orchestrates user
// actions against the API client and the live price subscriber, holds the
// transient UI state, and composes the dashboard view components.
package app

import (
	"context"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"niftydesk/internal/api"
	"niftydesk/internal/config"
	"niftydesk/internal/live"
	"niftydesk/internal/session"
)

type screen int

const (
	screenLogin screen = iota
	screenSignup
	screenDashboard
)

// Styles shared across screens.
var (
	headerBarStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("4"))
	footerBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("8"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	subtleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// App is the root model. It routes between the login, signup, and dashboard
// screens. There is no route guard; navigation works with or without a
// persisted session.
type App struct {
	cfg    *config.Config
	log    *slog.Logger
	client *api.Client
	store  *session.Store

	screen screen
	login  loginModel
	signup signupModel
	dash   dashModel

	width, height int
}

// New creates the root model. sess, when non-nil, is the persisted session
// loaded at startup; it puts the app directly on the dashboard.
func New(cfg *config.Config, client *api.Client, store *session.Store, log *slog.Logger, sess *api.Session) App {
	a := App{
		cfg:    cfg,
		log:    log,
		client: client,
		store:  store,
		login:  newLoginModel(),
		signup: newSignupModel(),
		dash:   newDashModel(client, store, log),
	}
	if sess != nil {
		client.SetSession(sess)
		a.screen = screenDashboard
	}
	return a
}

// enterDashboardMsg asks the shell to run the dashboard entry work: mount
// the live subscriber and kick off the initial fetches. Routed through
// Update so the entry state (sequence stamps, subscriber handle) lands on
// the retained model.
type enterDashboardMsg struct{}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{textCursorBlink(a.screen, &a)}
	if a.screen == screenDashboard {
		cmds = append(cmds, func() tea.Msg { return enterDashboardMsg{} })
	}
	return tea.Batch(cmds...)
}

func textCursorBlink(s screen, a *App) tea.Cmd {
	switch s {
	case screenLogin:
		return a.login.focusCmd()
	case screenSignup:
		return a.signup.focusCmd()
	default:
		return nil
	}
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		var cmd tea.Cmd
		a.dash, cmd = a.dash.resize(msg.Width, msg.Height)
		return a, cmd

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			a.teardown()
			return a, tea.Quit
		}

	case enterDashboardMsg:
		return a.enterDashboard()

	case loginDoneMsg:
		return a.handleLoginDone(msg)

	case signupDoneMsg:
		a.signup = a.signup.handleDone(msg)
		if msg.err == nil {
			// Navigate back to login after a fixed delay.
			return a, signupRedirectCmd()
		}
		return a, nil

	case gotoLoginMsg:
		a.screen = screenLogin
		a.login = newLoginModel()
		return a, a.login.focusCmd()

	case gotoSignupMsg:
		a.screen = screenSignup
		a.signup = newSignupModel()
		return a, a.signup.focusCmd()

	case logoutMsg:
		return a.handleLogout()
	}

	// Route everything else to the active screen.
	switch a.screen {
	case screenLogin:
		var cmd tea.Cmd
		a.login, cmd = a.login.update(msg, a.client, a.store, a.log)
		return a, cmd
	case screenSignup:
		var cmd tea.Cmd
		a.signup, cmd = a.signup.update(msg, a.client, a.log)
		return a, cmd
	default:
		var cmd tea.Cmd
		a.dash, cmd = a.dash.update(msg)
		if _, quitting := msg.(quitMsg); quitting {
			a.teardown()
			return a, tea.Quit
		}
		return a, cmd
	}
}

func (a App) handleLoginDone(msg loginDoneMsg) (tea.Model, tea.Cmd) {
	a.login = a.login.handleDone(msg)
	if msg.err != nil {
		return a, nil
	}
	a.screen = screenDashboard
	return a, func() tea.Msg { return enterDashboardMsg{} }
}

// enterDashboard runs the dashboard entry work on the retained model:
// advance the entry fetches and mount the subscriber.
func (a App) enterDashboard() (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	a.dash, cmds = a.dash.enter()
	var feedCmd tea.Cmd
	a, feedCmd = a.mountFeed()
	if feedCmd != nil {
		cmds = append(cmds, feedCmd)
	}
	return a, tea.Batch(cmds...)
}

// mountFeed starts the live subscriber. The subscriber is mounted exactly
// once per dashboard lifetime; repeated entry is a no-op.
func (a App) mountFeed() (App, tea.Cmd) {
	if a.dash.sub != nil {
		return a, nil
	}
	sub := live.NewSubscriber(
		a.cfg.Remote.WSURL,
		a.cfg.Feed.MaxAttempts,
		a.cfg.Feed.BaseDelay(),
		a.log,
	)
	ctx, cancel := context.WithCancel(context.Background())
	a.dash.sub = sub
	a.dash.feedCancel = cancel

	log := a.log
	go func() {
		if err := sub.Run(ctx); err != nil {
			log.Error("live feed stopped", "error", err)
		}
	}()

	return a, waitForSampleCmd(sub)
}

func (a *App) handleLogout() (tea.Model, tea.Cmd) {
	if a.store != nil {
		if err := a.store.ClearSession(context.Background()); err != nil {
			a.log.Warn("clearing session", "error", err)
		}
	}
	a.client.SetSession(nil)
	a.teardown()
	a.dash = newDashModel(a.client, a.store, a.log)
	a.screen = screenLogin
	a.login = newLoginModel()
	return *a, a.login.focusCmd()
}

// teardown closes the feed deterministically.
func (a *App) teardown() {
	if a.dash.feedCancel != nil {
		a.dash.feedCancel()
		a.dash.feedCancel = nil
	}
}

// View implements tea.Model.
func (a App) View() string {
	switch a.screen {
	case screenLogin:
		return a.login.view(a.width, a.height)
	case screenSignup:
		return a.signup.view(a.width, a.height)
	default:
		return a.dash.view(a.width, a.client.Session())
	}
}
