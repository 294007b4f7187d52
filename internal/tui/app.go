// Package tui renders the terminal UI. It is a pure consumer of the
// coordinator's view model: user intents flow to the controller and service,
// state flows back through the dispatcher.
package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jonboulle/clockwork"

	"github.com/pschneider14/venturelens/internal/app"
	"github.com/pschneider14/venturelens/internal/domain"
	"github.com/pschneider14/venturelens/internal/options"
	"github.com/pschneider14/venturelens/internal/query"
	"github.com/pschneider14/venturelens/internal/quota"
)

type view int

const (
	viewLogin view = iota
	viewDashboard
	viewPlans
)

const (
	countdownInterval  = 30 * time.Second
	statusPollInterval = 5 * time.Minute
)

// countdownTickMsg refreshes the expiry countdown display.
type countdownTickMsg time.Time

// statusPollMsg triggers a periodic authoritative status refresh.
type statusPollMsg time.Time

// optionsMsg carries the filter option lists.
type optionsMsg struct {
	domains []domain.NamedOption
	regions []domain.NamedOption
	err     error
}

// App is the root Bubbletea model.
type App struct {
	svc        *app.Service
	controller *query.Controller
	tracker    *quota.Tracker
	options    *options.Cache
	dispatch   *Dispatcher
	clock      clockwork.Clock

	view   view
	login  loginModel
	dash   dashboardModel
	plans  plansModel
	width  int
	height int
}

// NewApp creates the root model. signedIn selects the initial view: a
// restored session goes straight to the dashboard, validation deferred to
// the first fetch.
func NewApp(svc *app.Service, controller *query.Controller, tracker *quota.Tracker, optionCache *options.Cache, dispatch *Dispatcher, clock clockwork.Clock, signedIn bool) App {
	a := App{
		svc:        svc,
		controller: controller,
		tracker:    tracker,
		options:    optionCache,
		dispatch:   dispatch,
		clock:      clock,
		login:      newLoginModel(),
		dash:       newDashboardModel(controller, tracker, clock),
		plans:      newPlansModel(),
	}
	if signedIn {
		a.view = viewDashboard
	}
	return a
}

func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{
		a.dispatch.waitForDirectory(),
		a.dispatch.waitForAccess(),
		countdownTickCmd(),
		statusPollCmd(),
	}
	if a.view == viewDashboard {
		cmds = append(cmds, a.loadOptions(), a.initialFetch(), a.refreshStatus())
	}
	return tea.Batch(cmds...)
}

// initialFetch issues the unfiltered first-page request.
func (a App) initialFetch() tea.Cmd {
	svc, ctrl := a.svc, a.controller
	return func() tea.Msg {
		svc.FetchPage(context.Background(), ctrl.Snapshot())
		return nil
	}
}

func (a App) loadOptions() tea.Cmd {
	cache := a.options
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		domains, err := cache.Domains(ctx)
		if err != nil {
			return optionsMsg{err: err}
		}
		regions, err := cache.Regions(ctx)
		if err != nil {
			return optionsMsg{domains: domains, err: err}
		}
		return optionsMsg{domains: domains, regions: regions}
	}
}

func (a App) refreshStatus() tea.Cmd {
	tracker := a.tracker
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_, _ = tracker.Refresh(ctx)
		return nil
	}
}

func (a App) loadPlans() tea.Cmd {
	svc := a.svc
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		plans, err := svc.Plans(ctx)
		return plansLoadedMsg{plans: plans, err: err}
	}
}

func countdownTickCmd() tea.Cmd {
	return tea.Tick(countdownInterval, func(t time.Time) tea.Msg {
		return countdownTickMsg(t)
	})
}

func statusPollCmd() tea.Cmd {
	return tea.Tick(statusPollInterval, func(t time.Time) tea.Msg {
		return statusPollMsg(t)
	})
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.dash.width = msg.Width
		a.dash.height = msg.Height
		return a, nil

	case directoryMsg:
		view := domain.DirectoryView(msg)
		if view.SignedOut && a.view != viewLogin {
			// Forced sign-out after a 401: redirect-equivalent transition.
			a.view = viewLogin
			a.login = newLoginModel()
			a.login.notice = "Session expired, please log in again"
		}
		a.dash.directory = view
		return a, a.dispatch.waitForDirectory()

	case accessMsg:
		a.dash.access = domain.AccessState(msg)
		a.dash.haveAccess = true
		return a, a.dispatch.waitForAccess()

	case countdownTickMsg:
		a.dash.now = a.clock.Now()
		return a, countdownTickCmd()

	case statusPollMsg:
		if a.view != viewLogin {
			return a, tea.Batch(a.refreshStatus(), statusPollCmd())
		}
		return a, statusPollCmd()

	case optionsMsg:
		a.dash.setOptions(msg)
		return a, nil

	case authResultMsg:
		var cmd tea.Cmd
		a.login, cmd = a.login.handleAuthResult(msg)
		if msg.err == nil && !msg.signup {
			a.view = viewDashboard
			a.dash = newDashboardModel(a.controller, a.tracker, a.clock)
			a.dash.width, a.dash.height = a.width, a.height
			return a, tea.Batch(a.loadOptions(), a.initialFetch())
		}
		return a, cmd

	case plansLoadedMsg:
		a.plans = a.plans.withPlans(msg)
		return a, nil

	case subscribeResultMsg:
		a.plans = a.plans.withSubscribeResult(msg)
		if msg.err == nil {
			a.view = viewDashboard
			return a, a.initialFetch()
		}
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)
	}

	return a, nil
}

func (a App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch a.view {
	case viewLogin:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		login, cmd := a.login.update(msg, a.svc)
		a.login = login
		return a, cmd

	case viewPlans:
		switch msg.String() {
		case "ctrl+c", "q":
			return a, tea.Quit
		case "esc":
			a.view = viewDashboard
			return a, nil
		}
		plans, cmd := a.plans.update(msg, a.svc)
		a.plans = plans
		return a, cmd

	default: // viewDashboard
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if !a.dash.searchFocused {
			switch msg.String() {
			case "q":
				return a, tea.Quit
			case "u":
				a.view = viewPlans
				a.plans = newPlansModel()
				return a, a.loadPlans()
			case "L":
				_ = a.svc.Logout()
				a.view = viewLogin
				a.login = newLoginModel()
				return a, nil
			}
		}
		dash, cmd := a.dash.update(msg, a.svc)
		a.dash = dash
		return a, cmd
	}
}

func (a App) View() string {
	header := titleStyle.Render("VENTURELENS") + subtleStyle.Render("  investor directory")

	var body string
	switch a.view {
	case viewLogin:
		body = a.login.view()
	case viewPlans:
		body = a.plans.view()
	default:
		body = a.dash.view()
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, "", body)
}
