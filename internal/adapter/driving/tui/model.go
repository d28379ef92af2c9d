package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ericfisherdev/codeflow/internal/domain/model"
)

type appState int

const (
	stateNormal appState = iota
	stateToken
)

// section indexes the four dashboard lists.
type section int

const (
	sectionNeedsReview section = iota
	sectionReturned
	sectionMine
	sectionReviewed
	sectionCount
)

var sectionTitles = [sectionCount]string{
	sectionNeedsReview: "Needs review",
	sectionReturned:    "Returned",
	sectionMine:        "Mine",
	sectionReviewed:    "Reviewed",
}

// - messages ----------------------------------------------------------------

type snapshotMsg struct {
	snapshot model.Snapshot
}

type fetchErrorMsg struct {
	message      string
	requiresAuth bool
}

type alertMsg struct {
	alert model.Alert
}

type alertExpiredMsg struct {
	id string
}

type commandResultMsg struct {
	command string
	err     error
}

// - list item ---------------------------------------------------------------

type prItem struct {
	pr model.PullRequestItem
}

func (i prItem) Title() string {
	title := fmt.Sprintf("#%d %s", i.pr.Number, i.pr.Title)
	if i.pr.IsDraft {
		title = "[draft] " + title
	}
	return title
}

func (i prItem) Description() string {
	parts := []string{i.pr.Repository.FullName(), i.pr.Author.Login}
	if label := decisionLabel(i.pr.ReviewDecision); label != "" {
		parts = append(parts, label)
	}
	return strings.Join(parts, " · ")
}

func (i prItem) FilterValue() string { return i.pr.Title }

func decisionLabel(d model.ReviewDecision) string {
	switch d {
	case model.ReviewDecisionApproved:
		return "approved"
	case model.ReviewDecisionChangesRequested:
		return "changes requested"
	case model.ReviewDecisionReviewRequired:
		return "review required"
	default:
		return ""
	}
}

// - model -------------------------------------------------------------------

// dispatchFunc runs a surface command outside the UI goroutine.
type dispatchFunc func(cmd model.SurfaceCommand) error

// resolveFunc answers a presented alert.
type resolveFunc func(id string, action model.AlertAction)

// Model is the bubbletea model of the terminal sidebar.
type Model struct {
	list       list.Model
	tokenInput textinput.Model
	width      int
	height     int

	state    appState
	section  section
	snapshot model.Snapshot
	hasData  bool

	busy     string
	cmdErr   string
	inputErr string

	// fetchErr replaces the list with an error state until the next snapshot.
	fetchErr     string
	requiresAuth bool

	// alerts is the queue of unanswered alerts; the first is shown.
	alerts   []model.Alert
	alertTTL time.Duration

	dispatch dispatchFunc
	resolve  resolveFunc
}

func newModel(dispatch dispatchFunc, resolve resolveFunc, alertTTL time.Duration) Model {
	delegate := list.NewDefaultDelegate()

	l := list.New([]list.Item{}, delegate, 0, 0)
	l.Title = "CodeFlow"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.Styles.Title = titleStyle

	ti := textinput.New()
	ti.Placeholder = "ghp_... or github_pat_..."
	ti.CharLimit = 255
	ti.EchoMode = textinput.EchoPassword
	ti.EchoCharacter = '•'

	return Model{
		list:       l,
		tokenInput: ti,
		busy:       "Waiting for the first refresh…",
		alertTTL:   alertTTL,
		dispatch:   dispatch,
		resolve:    resolve,
	}
}

// - commands ----------------------------------------------------------------

func (m Model) dispatchCmd(name string, cmd model.SurfaceCommand) tea.Cmd {
	dispatch := m.dispatch
	return func() tea.Msg {
		return commandResultMsg{command: name, err: dispatch(cmd)}
	}
}

func (m Model) resolveCmd(id string, action model.AlertAction) tea.Cmd {
	resolve := m.resolve
	return func() tea.Msg {
		resolve(id, action)
		return nil
	}
}

func expireCmd(id string, ttl time.Duration) tea.Cmd {
	if ttl <= 0 {
		return nil
	}
	return tea.Tick(ttl, func(time.Time) tea.Msg {
		return alertExpiredMsg{id: id}
	})
}

// buildItems rebuilds the list from the current section of the snapshot.
func (m *Model) buildItems() tea.Cmd {
	prs := m.sectionItems(m.section)
	items := make([]list.Item, len(prs))
	for i, pr := range prs {
		items[i] = prItem{pr: pr}
	}
	return m.list.SetItems(items)
}

func (m Model) sectionItems(s section) []model.PullRequestItem {
	switch s {
	case sectionNeedsReview:
		return m.snapshot.NeedsReview
	case sectionReturned:
		return m.snapshot.ReturnedToYou
	case sectionMine:
		return m.snapshot.MyPRs
	case sectionReviewed:
		return m.snapshot.ReviewedAwaiting
	default:
		return nil
	}
}

func (m Model) selectedPR() *model.PullRequestItem {
	item, ok := m.list.SelectedItem().(prItem)
	if !ok {
		return nil
	}
	return &item.pr
}

// - tea.Model ---------------------------------------------------------------

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(m.listDimensions())
		return m, nil

	case snapshotMsg:
		m.snapshot = msg.snapshot
		m.hasData = true
		m.busy = ""
		m.cmdErr = ""
		m.fetchErr = ""
		m.requiresAuth = false
		return m, m.buildItems()

	case fetchErrorMsg:
		m.busy = ""
		m.fetchErr = msg.message
		m.requiresAuth = msg.requiresAuth
		return m, nil

	case alertMsg:
		m.alerts = append(m.alerts, msg.alert)
		return m, expireCmd(msg.alert.ID, m.alertTTL)

	case alertExpiredMsg:
		m.dropAlert(msg.id)
		return m, nil

	case commandResultMsg:
		return m.handleCommandResult(msg)
	}

	if m.state == stateToken {
		return m.updateToken(msg)
	}
	return m.updateNormal(msg)
}

func (m Model) handleCommandResult(msg commandResultMsg) (tea.Model, tea.Cmd) {
	m.busy = ""
	if msg.err == nil {
		m.cmdErr = ""
		if msg.command == "authenticate" {
			m.state = stateNormal
			m.inputErr = ""
			m.tokenInput.Reset()
			m.tokenInput.Blur()
		}
		return m, nil
	}

	if m.state == stateToken && msg.command == "authenticate" {
		m.inputErr = msg.err.Error()
		return m, nil
	}
	m.cmdErr = msg.err.Error()
	return m, nil
}

func (m Model) updateNormal(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		if len(m.alerts) > 0 {
			if next, cmd, handled := m.updateAlert(key); handled {
				return next, cmd
			}
		}

		switch key.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "r":
			m.busy = "Refreshing…"
			return m, m.dispatchCmd("refresh", model.RefreshCommand{})
		case "o", "enter":
			pr := m.selectedPR()
			if pr == nil {
				return m, nil
			}
			return m, m.dispatchCmd("openPR", model.OpenPRCommand{URL: pr.URL})
		case "a":
			m.state = stateToken
			m.inputErr = ""
			m.tokenInput.Reset()
			return m, m.tokenInput.Focus()
		case "tab":
			m.section = (m.section + 1) % sectionCount
			return m, m.buildItems()
		case "shift+tab":
			m.section = (m.section + sectionCount - 1) % sectionCount
			return m, m.buildItems()
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// updateAlert handles the keys of the alert banner. handled is false for keys
// the banner does not use.
func (m Model) updateAlert(key tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	alert := m.alerts[0]

	var action model.AlertAction
	switch key.String() {
	case "v":
		action = model.AlertActionOpenExternal
	case "d":
		action = model.AlertActionOpenDashboard
	case "x":
		action = model.AlertActionNone
	default:
		return m, nil, false
	}

	m.dropAlert(alert.ID)
	return m, m.resolveCmd(alert.ID, action), true
}

func (m *Model) dropAlert(id string) {
	for i, a := range m.alerts {
		if a.ID == id {
			m.alerts = append(m.alerts[:i:i], m.alerts[i+1:]...)
			return
		}
	}
}

func (m Model) updateToken(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc":
			m.state = stateNormal
			m.inputErr = ""
			m.tokenInput.Blur()
			return m, nil
		case "enter":
			token := strings.TrimSpace(m.tokenInput.Value())
			if token == "" {
				m.inputErr = "token cannot be empty"
				return m, nil
			}
			m.inputErr = ""
			m.busy = "Authenticating…"
			return m, m.dispatchCmd("authenticate", model.AuthenticateCommand{Token: token})
		}
	}

	var cmd tea.Cmd
	m.tokenInput, cmd = m.tokenInput.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if m.width == 0 {
		return ""
	}

	if m.state == stateToken {
		return m.renderTokenModal()
	}

	body := m.list.View()
	if m.fetchErr != "" {
		body = m.renderFetchError()
	}

	parts := []string{m.renderTabs(), body}
	if len(m.alerts) > 0 {
		parts = append(parts, m.renderAlert())
	}
	parts = append(parts, m.renderStatus(), m.renderHelp())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// - layout helpers ----------------------------------------------------------

// listDimensions leaves room for the tabs, banner, status and help lines.
func (m Model) listDimensions() (width, height int) {
	return m.width, max(m.height-8, 3)
}

func (m Model) renderTabs() string {
	tabs := make([]string, 0, sectionCount)
	for s := range sectionCount {
		label := fmt.Sprintf("%s (%d)", sectionTitles[s], len(m.sectionItems(s)))
		if s == m.section {
			tabs = append(tabs, activeTabStyle.Render(label))
		} else {
			tabs = append(tabs, tabStyle.Render(label))
		}
	}
	return "  " + strings.Join(tabs, "   ")
}

func (m Model) renderAlert() string {
	alert := m.alerts[0]

	var b strings.Builder
	b.WriteString(boldStyle.Render(alert.Message) + "\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("%s#%d", alert.Item.Repository.FullName(), alert.Item.Number)))
	if more := len(m.alerts) - 1; more > 0 {
		b.WriteString(dimStyle.Render(fmt.Sprintf("   +%d more", more)))
	}
	b.WriteString("\n" + dimStyle.Render("v view PR   d dashboard   x dismiss"))

	style := bannerStyle
	if alert.Severity == model.AlertSeverityWarning {
		style = warnBannerStyle
	}
	return style.Render(b.String())
}

func (m Model) renderFetchError() string {
	_, height := m.listDimensions()

	var b strings.Builder
	b.WriteString(errStyle.Render("Could not load pull requests") + "\n\n")
	b.WriteString(m.fetchErr + "\n\n")
	b.WriteString(dimStyle.Render("press r to retry"))
	if m.requiresAuth {
		b.WriteString(dimStyle.Render(", a to enter a token"))
	}

	return lipgloss.NewStyle().Padding(1, 2).Height(height).Render(b.String())
}

func (m Model) renderStatus() string {
	switch {
	case m.cmdErr != "":
		return errStyle.Render("  " + m.cmdErr)
	case m.busy != "":
		return warnStyle.Render("  " + m.busy)
	case m.hasData:
		return okStyle.Render("  Updated " + m.snapshot.LastUpdated.Local().Format("15:04:05"))
	default:
		return ""
	}
}

func (m Model) renderHelp() string {
	text := "↑/↓ navigate   tab section   o open   r refresh   a token   q quit"
	sep := dimStyle.Render(strings.Repeat("─", m.width))
	return sep + "\n" + helpStyle.Render(text)
}

func (m Model) renderTokenModal() string {
	var b strings.Builder
	b.WriteString(boldStyle.Render("GitHub Token") + "\n\n")
	b.WriteString("Personal access token\n")
	b.WriteString(m.tokenInput.View() + "\n")
	if m.inputErr != "" {
		b.WriteString("\n" + errStyle.Render(m.inputErr) + "\n")
	}
	if m.busy != "" {
		b.WriteString("\n" + warnStyle.Render(m.busy) + "\n")
	}
	b.WriteString("\n" + dimStyle.Render("Enter save · Esc cancel"))

	modal := modalStyle.Render(b.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal,
		lipgloss.WithWhitespaceBackground(lipgloss.Color("0")),
	)
}
