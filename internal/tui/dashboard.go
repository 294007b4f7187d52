package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jonboulle/clockwork"

	"github.com/pschneider14/venturelens/internal/app"
	"github.com/pschneider14/venturelens/internal/domain"
	"github.com/pschneider14/venturelens/internal/query"
	"github.com/pschneider14/venturelens/internal/quota"
)

const maxVisibleCards = 6

// filterItem is one row of the filter sidebar.
type filterItem struct {
	kind  string // "domain", "region", "stage"
	value string
	label string
}

// dashboardModel renders the directory: search, filter sidebar, result
// cards, pagination, and the usage status widget.
type dashboardModel struct {
	controller *query.Controller
	tracker    *quota.Tracker
	clock      clockwork.Clock

	directory  domain.DirectoryView
	access     domain.AccessState
	haveAccess bool
	now        time.Time

	searchFocused bool
	searchText    string

	items      []filterItem
	cursor     int
	optionsErr error

	width  int
	height int
}

func newDashboardModel(controller *query.Controller, tracker *quota.Tracker, clock clockwork.Clock) dashboardModel {
	m := dashboardModel{
		controller: controller,
		tracker:    tracker,
		clock:      clock,
		now:        clock.Now(),
		directory:  domain.DirectoryView{Loading: true},
	}
	m.rebuildItems(nil, nil)
	return m
}

func (m *dashboardModel) setOptions(msg optionsMsg) {
	m.optionsErr = msg.err
	m.rebuildItems(msg.domains, msg.regions)
}

func (m *dashboardModel) rebuildItems(domains, regions []domain.NamedOption) {
	items := make([]filterItem, 0, len(domains)+len(regions)+len(domain.Stages()))
	for _, d := range domains {
		items = append(items, filterItem{kind: "domain", value: d.Name, label: d.Name})
	}
	for _, r := range regions {
		items = append(items, filterItem{kind: "region", value: r.Name, label: r.Name})
	}
	for _, s := range domain.Stages() {
		items = append(items, filterItem{kind: "stage", value: string(s), label: stageLabel(s)})
	}
	m.items = items
	if m.cursor >= len(items) {
		m.cursor = 0
	}
}

func stageLabel(s domain.Stage) string {
	switch s {
	case domain.StagePreSeed:
		return "Pre-Seed"
	case domain.StageSeed:
		return "Seed"
	case domain.StageSeriesA:
		return "Series A"
	case domain.StageSeriesB:
		return "Series B+"
	case domain.StageGrowth:
		return "Growth"
	default:
		return string(s)
	}
}

func (m dashboardModel) update(msg tea.KeyMsg, svc *app.Service) (dashboardModel, tea.Cmd) {
	if m.searchFocused {
		return m.updateSearch(msg)
	}

	switch msg.String() {
	case "/":
		m.searchFocused = true
		return m, nil
	case "j", "down":
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
		return m, nil
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case " ", "enter":
		m.toggleCurrent()
		return m, nil
	case "n", "]":
		// Ignored when there is no next page; the control renders disabled.
		_ = m.controller.Advance(domain.Next)
		return m, nil
	case "p", "[":
		_ = m.controller.Advance(domain.Prev)
		return m, nil
	case "r":
		return m, retryCmd(svc, m.controller)
	}
	return m, nil
}

func (m dashboardModel) updateSearch(msg tea.KeyMsg) (dashboardModel, tea.Cmd) {
	switch msg.String() {
	case "esc", "enter":
		m.searchFocused = false
		return m, nil
	case "backspace":
		m.searchText = trimLast(m.searchText)
		m.controller.SetSearch(m.searchText)
		return m, nil
	}
	if len(msg.Runes) > 0 {
		m.searchText += string(msg.Runes)
		m.controller.SetSearch(m.searchText)
	}
	return m, nil
}

func (m *dashboardModel) toggleCurrent() {
	if m.cursor >= len(m.items) {
		return
	}
	item := m.items[m.cursor]
	switch item.kind {
	case "domain":
		m.controller.ToggleDomain(item.value)
	case "region":
		m.controller.ToggleRegion(item.value)
	case "stage":
		m.controller.SetStage(domain.Stage(item.value))
	}
}

// retryCmd re-issues the current query. Retry policy lives here at the
// boundary, never in the coordinator.
func retryCmd(svc *app.Service, ctrl *query.Controller) tea.Cmd {
	return func() tea.Msg {
		svc.FetchPage(context.Background(), ctrl.Snapshot())
		return nil
	}
}

func (m dashboardModel) view() string {
	search := m.renderSearch()
	sidebar := sidebarStyle.Render(m.renderSidebar())
	results := m.renderResults()

	body := lipgloss.JoinHorizontal(lipgloss.Top, sidebar, results)
	help := subtleStyle.Render("/ search · j/k move · space toggle · n/p page · u plans · r retry · L logout · q quit")

	return lipgloss.JoinVertical(lipgloss.Left, search, "", body, "", help)
}

func (m dashboardModel) renderSearch() string {
	label := "Search: " + m.searchText
	if m.searchFocused {
		return selectedStyle.Render(label + "▎")
	}
	if m.searchText == "" {
		return subtleStyle.Render("Search: (press / to type)")
	}
	return label
}

func (m dashboardModel) renderSidebar() string {
	snap := m.controller.Snapshot()
	selected := make(map[string]bool, len(snap.Domains)+len(snap.Regions)+1)
	for _, d := range snap.Domains {
		selected["domain:"+d] = true
	}
	for _, r := range snap.Regions {
		selected["region:"+r] = true
	}
	if snap.Stage != "" {
		selected["stage:"+string(snap.Stage)] = true
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Filters") + "\n")
	if m.optionsErr != nil {
		b.WriteString(warnStyle.Render("option lists unavailable") + "\n")
	}

	lastKind := ""
	for i, item := range m.items {
		if item.kind != lastKind {
			b.WriteString(subtleStyle.Render(sectionTitle(item.kind)) + "\n")
			lastKind = item.kind
		}

		marker := "[ ]"
		if selected[item.kind+":"+item.value] {
			marker = "[x]"
		}
		line := marker + " " + item.label
		if i == m.cursor {
			line = selectedStyle.Render("> " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line + "\n")
	}

	b.WriteString("\n" + m.renderUsageWidget())
	return b.String()
}

func sectionTitle(kind string) string {
	switch kind {
	case "domain":
		return "Domain"
	case "region":
		return "Region"
	default:
		return "Stage"
	}
}

func (m dashboardModel) renderUsageWidget() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Usage Status") + "\n")

	if !m.haveAccess {
		b.WriteString(subtleStyle.Render("checking access...") + "\n")
		return b.String()
	}

	if m.access.Mode == domain.Subscribed {
		b.WriteString("Subscription Active\n")
		if !m.access.Expiry.IsZero() {
			b.WriteString("Expires: " + m.access.Expiry.Format("2006-01-02") + "\n")
		}
		if left, ok := m.tracker.TimeToExpiry(m.now); ok {
			b.WriteString(formatCountdown(left) + " left\n")
			pct := m.tracker.PercentElapsed(m.now)
			b.WriteString(renderProgressBar(pct, 16) + "\n")
		} else {
			b.WriteString(warnStyle.Render("expired") + "\n")
		}
		return b.String()
	}

	b.WriteString(fmt.Sprintf("Free uses remaining: %d\n", m.access.FreeUsesRemaining))
	if m.access.FreeUsesRemaining == 0 {
		b.WriteString(warnStyle.Render("You've used all free searches.\nSubscribe to continue (u)") + "\n")
	}
	return b.String()
}

func formatCountdown(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
}

func (m dashboardModel) renderResults() string {
	var b strings.Builder

	switch {
	case m.directory.Denied:
		b.WriteString(errorStyle.Render("Subscription required. Press u to see plans.") + "\n")
		return b.String()
	case m.directory.Err != nil:
		b.WriteString(warnStyle.Render("Fetch failed: "+m.directory.Err.Error()) + "\n")
		b.WriteString(subtleStyle.Render("showing last results · press r to retry") + "\n\n")
	case m.directory.Loading:
		b.WriteString(subtleStyle.Render("Loading...") + "\n\n")
	}

	page := m.directory.Page
	if len(page.Items) == 0 && !m.directory.Loading {
		b.WriteString(subtleStyle.Render("No investors found matching your criteria") + "\n")
		return b.String()
	}

	shown := page.Items
	if len(shown) > maxVisibleCards {
		shown = shown[:maxVisibleCards]
	}
	for _, inv := range shown {
		b.WriteString(renderCard(inv) + "\n")
	}

	b.WriteString("\n" + subtleStyle.Render(fmt.Sprintf("Showing %d of %d investors", len(page.Items), page.TotalCount)) + "\n")
	b.WriteString(m.renderPagination())
	return b.String()
}

func renderCard(inv domain.InvestorRecord) string {
	var b strings.Builder
	b.WriteString(selectedStyle.Render(inv.Name))
	if inv.Company != "" {
		b.WriteString(subtleStyle.Render(" · " + inv.Company))
	}
	if inv.InvestmentStage != "" {
		b.WriteString("  " + tagStyle.Render(inv.InvestmentStage))
	}
	b.WriteString("\n")

	var tags []string
	for _, d := range inv.Domains {
		tags = append(tags, d.Name)
	}
	for _, r := range inv.Regions {
		tags = append(tags, r.Name)
	}
	if len(tags) > 0 {
		b.WriteString(tagStyle.Render(strings.Join(tags, " · ")) + "\n")
	}
	if inv.Tags != "" {
		b.WriteString(subtleStyle.Render(strings.Join(strings.Split(inv.Tags, ","), " • ")) + "\n")
	}
	if inv.ContactEmail != "" {
		b.WriteString(inv.ContactEmail + "\n")
	}
	return cardStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func (m dashboardModel) renderPagination() string {
	prev := "  prev"
	next := "next  "
	if m.controller.CanAdvance(domain.Prev) {
		prev = selectedStyle.Render("< prev")
	} else {
		prev = subtleStyle.Render(prev)
	}
	if m.controller.CanAdvance(domain.Next) {
		next = selectedStyle.Render("next >")
	} else {
		next = subtleStyle.Render(next)
	}
	return prev + "   " + next
}
