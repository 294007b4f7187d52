package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pschneider14/venturelens/internal/app"
	"github.com/pschneider14/venturelens/internal/domain"
)

// plansLoadedMsg carries the plan list.
type plansLoadedMsg struct {
	plans []domain.SubscriptionPlan
	err   error
}

// subscribeResultMsg carries the outcome of a plan purchase.
type subscribeResultMsg struct {
	state domain.AccessState
	err   error
}

// plansModel renders the plan list and handles purchase.
type plansModel struct {
	plans   []domain.SubscriptionPlan
	cursor  int
	loading bool
	busy    bool
	errText string
}

func newPlansModel() plansModel {
	return plansModel{loading: true}
}

func (m plansModel) withPlans(msg plansLoadedMsg) plansModel {
	m.loading = false
	if msg.err != nil {
		m.errText = msg.err.Error()
		return m
	}
	m.plans = msg.plans
	m.errText = ""
	return m
}

func (m plansModel) withSubscribeResult(msg subscribeResultMsg) plansModel {
	m.busy = false
	if msg.err != nil {
		m.errText = msg.err.Error()
	}
	return m
}

func (m plansModel) update(msg tea.KeyMsg, svc *app.Service) (plansModel, tea.Cmd) {
	if m.busy || m.loading {
		return m, nil
	}

	switch msg.String() {
	case "j", "down":
		if m.cursor < len(m.plans)-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "enter":
		if m.cursor < len(m.plans) {
			m.busy = true
			planID := m.plans[m.cursor].ID
			return m, func() tea.Msg {
				ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
				defer cancel()
				state, err := svc.Subscribe(ctx, planID)
				return subscribeResultMsg{state: state, err: err}
			}
		}
	}
	return m, nil
}

func (m plansModel) view() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Subscription plans") + "\n\n")

	switch {
	case m.loading:
		b.WriteString(subtleStyle.Render("Loading plans...") + "\n")
	case len(m.plans) == 0:
		b.WriteString(subtleStyle.Render("No plans available") + "\n")
	}

	for i, p := range m.plans {
		line := fmt.Sprintf("%s: %s for %d days", p.Name, p.Price, p.DurationDays)
		if p.Features != "" {
			line += "  " + subtleStyle.Render(p.Features)
		}
		if i == m.cursor {
			b.WriteString(selectedStyle.Render("> "+line) + "\n")
		} else {
			b.WriteString("  " + line + "\n")
		}
	}

	if m.busy {
		b.WriteString("\n" + subtleStyle.Render("Subscribing..."))
	}
	if m.errText != "" {
		b.WriteString("\n" + errorStyle.Render(m.errText))
	}

	b.WriteString("\n\n" + subtleStyle.Render("enter subscribe · esc back · q quit"))
	return b.String()
}
