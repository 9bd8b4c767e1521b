// internal/tui/app.go
//
// This is the main TUI (Terminal User Interface) for the cheque desk.
// It uses bubbletea, which follows The Elm Architecture:
//
// 1. Model: Your application state
// 2. Update: A function that updates state based on messages
// 3. View: A function that renders state to a string
//
// The flow is: User Input -> Message -> Update -> New Model -> View -> Screen

package tui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/chequedesk/internal/cheque"
	"github.com/kingrea/chequedesk/internal/codeinput"
	"github.com/kingrea/chequedesk/internal/config"
	"github.com/kingrea/chequedesk/internal/dashboard"
	"github.com/kingrea/chequedesk/internal/dupcheck"
	"github.com/kingrea/chequedesk/internal/entry"
	"github.com/kingrea/chequedesk/internal/identity"
	"github.com/kingrea/chequedesk/internal/logbook"
	"github.com/kingrea/chequedesk/internal/metrics"
	"github.com/kingrea/chequedesk/internal/notify"
	"github.com/kingrea/chequedesk/internal/store"
)

// tab represents which "screen" we're on
type tab int

const (
	tabCheques tab = iota // Entry form and cheque table
	tabLogs               // Verification log
)

const (
	noticeRefreshInterval = 500 * time.Millisecond
	storeCallTimeout      = 5 * time.Second
)

// Deps are the collaborators the app is built from.
type Deps struct {
	Config  *config.Config
	Store   *store.Store
	Logbook *logbook.Logbook
	Metrics *metrics.Metrics
}

// AppOption customizes App construction for tests and alternate runtimes.
type AppOption func(*App)

// WithIdentity overrides the configured operator.
func WithIdentity(p identity.Provider) AppOption {
	return func(a *App) {
		if p != nil {
			a.identity = p
		}
	}
}

// WithNotices replaces the notice center, mostly so tests can control time.
func WithNotices(c *notify.Center) AppOption {
	return func(a *App) {
		if c != nil {
			a.notices = c
		}
	}
}

type chequesLoadedMsg struct {
	items []cheque.Record
	err   error
}

type verificationsLoadedMsg struct {
	items []cheque.Verification
	err   error
}

type tallyMsg struct {
	count int
	err   error
}

type storeChangeMsg struct {
	change store.Change
	ok     bool
}

type actionDoneMsg struct {
	done string
	err  error
}

type clearDoneMsg struct {
	removed int
	err     error
}

type noticeTickMsg struct{}

// App is the main application model. In bubbletea, this holds ALL your state.
type App struct {
	config   *config.Config
	store    *store.Store
	logbook  *logbook.Logbook
	metrics  *metrics.Metrics
	notices  *notify.Center
	identity identity.Provider
	tally    *dashboard.Tally
	saver    *entry.Saver
	session  *entry.Session
	sub      *store.Subscription

	tab   tab
	focus formFocus

	// UI components
	inputs      []textinput.Model // name, phone, amount
	chequeTable table.Model
	logTable    table.Model
	dialog      dialog

	cheques  []cheque.Record
	logs     []cheque.Verification
	stats    dashboard.Stats
	clearing bool

	statusMsg string
	loadErr   string

	// Window size (we get this from bubbletea)
	width  int
	height int
}

// NewApp creates a new App instance
func NewApp(deps Deps, opts ...AppOption) (*App, error) {
	if deps.Config == nil {
		return nil, errors.New("tui: config is required")
	}
	if deps.Store == nil {
		return nil, errors.New("tui: record store is required")
	}
	cfg := deps.Config
	app := &App{
		config:   cfg,
		store:    deps.Store,
		logbook:  deps.Logbook,
		metrics:  deps.Metrics,
		identity: identity.Static(cfg.Operator()),
		tally:    dashboard.NewTally(deps.Store),
		inputs:   newFormInputs(),
		stats:    dashboard.Summarize(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(app)
		}
	}
	if app.notices == nil {
		app.notices = notify.NewCenter(notify.WithSink(deps.Logbook))
	}

	entryCfg := cfg.Project.Entry
	in := codeinput.New(cfg.Prefix())
	dup := dupcheck.New(deps.Store, in.EmptyCode(),
		dupcheck.WithDelay(entryCfg.Debounce),
		dupcheck.WithAlert(entryCfg.Alert),
		dupcheck.WithLookupTimeout(entryCfg.LookupTimeout),
		dupcheck.WithNotifier(app.notices),
		dupcheck.WithLogger(deps.Logbook),
		dupcheck.WithMetrics(deps.Metrics))
	app.saver = entry.NewSaver(deps.Store,
		entry.WithIdentity(app.identity),
		entry.WithPhoneRegion(entryCfg.PhoneRegion))
	app.session = entry.NewSession(in, dup, app.saver,
		entry.WithNotifier(app.notices),
		entry.WithLogger(deps.Logbook),
		entry.WithMetrics(deps.Metrics))

	app.chequeTable = table.New(
		table.WithColumns(chequeColumns()),
		table.WithHeight(8),
		table.WithStyles(tableStyles()))
	app.logTable = table.New(
		table.WithColumns(logColumns()),
		table.WithHeight(12),
		table.WithFocused(true),
		table.WithStyles(tableStyles()))
	app.setFocus(focusCode)

	app.logInfo("Session opened · operator %s", identity.Resolve(app.identity))
	return app, nil
}

// Close releases the store subscription and disarms pending lookups.
func (a *App) Close() {
	if a.session != nil {
		a.session.Close()
	}
	if a.sub != nil {
		a.sub.Close()
		a.sub = nil
	}
}

func (a *App) logInfo(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Info(format, args...)
}

func (a *App) logError(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Error(format, args...)
}

// Init is called once when the program starts.
func (a *App) Init() tea.Cmd {
	sub := a.store.Subscribe()
	a.sub = &sub
	return tea.Batch(
		a.loadCheques(),
		a.loadVerifications(),
		a.refreshTally(),
		a.waitForChange(),
		a.scheduleNoticeTick(),
	)
}

// Update is called when a message is received.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.resizeTables()
		return a, nil

	case chequesLoadedMsg:
		if msg.err != nil {
			a.loadErr = msg.err.Error()
			a.logError("Load cheques failed: %v", msg.err)
			return a, nil
		}
		a.loadErr = ""
		a.cheques = msg.items
		a.stats = dashboard.Summarize(msg.items)
		a.chequeTable.SetRows(chequeRows(msg.items))
		return a, nil

	case verificationsLoadedMsg:
		if msg.err != nil {
			a.loadErr = msg.err.Error()
			a.logError("Load verification logs failed: %v", msg.err)
			return a, nil
		}
		a.loadErr = ""
		a.logs = msg.items
		a.logTable.SetRows(logRows(msg.items))
		return a, nil

	case tallyMsg:
		if msg.err != nil {
			a.logError("Refresh verification tally failed: %v", msg.err)
		}
		return a, nil

	case storeChangeMsg:
		if !msg.ok {
			return a, nil
		}
		cmds := []tea.Cmd{a.waitForChange()}
		switch msg.change.Topic {
		case store.TopicCheques:
			cmds = append(cmds, a.loadCheques())
		case store.TopicVerifications:
			cmds = append(cmds, a.loadVerifications(), a.refreshTally())
		}
		return a, tea.Batch(cmds...)

	case actionDoneMsg:
		if msg.err != nil {
			a.notices.Error("%s failed: %v", msg.done, msg.err)
			return a, nil
		}
		a.notices.Success("%s", msg.done)
		return a, nil

	case clearDoneMsg:
		a.clearing = false
		if msg.err != nil {
			a.notices.Error("Failed to clear verification logs")
			a.logError("Clear verification logs failed: %v", msg.err)
			return a, nil
		}
		a.notices.Success("Cleared %d verification logs", msg.removed)
		return a, nil

	case noticeTickMsg:
		return a, a.scheduleNoticeTick()

	case entry.SaveFinishedMsg:
		cmd := a.session.Update(msg)
		a.syncInputs()
		return a, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			a.Close()
			return a, tea.Quit
		}
		if a.dialog.active() {
			return a, a.handleDialogKey(msg)
		}
		switch msg.String() {
		case "f1":
			return a, a.switchTab(tabCheques)
		case "f2":
			return a, a.switchTab(tabLogs)
		}
		if a.tab == tabLogs {
			return a, a.handleLogsKey(msg)
		}
		return a, a.handleFormKey(msg)
	}

	// Debounce ticks, lookup results and alert expiry belong to the session.
	return a, a.session.Update(msg)
}

// switchTab disarms the duplicate check while the form is hidden and
// re-checks the digits it still holds on return.
func (a *App) switchTab(t tab) tea.Cmd {
	if a.tab == t {
		return nil
	}
	a.tab = t
	if t == tabLogs {
		a.session.Close()
		return nil
	}
	return a.session.Checker().Observe(a.session.FormattedCode())
}

func (a *App) resizeTables() {
	rows := max(5, a.height-30)
	a.chequeTable.SetHeight(rows)
	a.logTable.SetHeight(max(5, a.height-16))
	if a.width > 0 {
		a.chequeTable.SetWidth(max(40, a.width-4))
		a.logTable.SetWidth(max(40, a.width-4))
	}
}

func (a *App) storeContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), storeCallTimeout)
}

func (a *App) loadCheques() tea.Cmd {
	st := a.store
	return func() tea.Msg {
		ctx, cancel := a.storeContext()
		defer cancel()
		items, err := st.List(ctx)
		return chequesLoadedMsg{items: items, err: err}
	}
}

func (a *App) loadVerifications() tea.Cmd {
	st := a.store
	return func() tea.Msg {
		ctx, cancel := a.storeContext()
		defer cancel()
		items, err := st.ListVerifications(ctx)
		return verificationsLoadedMsg{items: items, err: err}
	}
}

func (a *App) refreshTally() tea.Cmd {
	tally := a.tally
	return func() tea.Msg {
		ctx, cancel := a.storeContext()
		defer cancel()
		n, err := tally.Refresh(ctx)
		return tallyMsg{count: n, err: err}
	}
}

func (a *App) waitForChange() tea.Cmd {
	if a.sub == nil {
		return nil
	}
	changes := a.sub.Changes
	return func() tea.Msg {
		change, ok := <-changes
		return storeChangeMsg{change: change, ok: ok}
	}
}

func (a *App) scheduleNoticeTick() tea.Cmd {
	return tea.Tick(noticeRefreshInterval, func(time.Time) tea.Msg {
		return noticeTickMsg{}
	})
}

// View renders the current state to a string.
func (a *App) View() string {
	width := a.width
	if width <= 0 {
		width = 100
	}
	var body string
	switch a.tab {
	case tabCheques:
		body = lipgloss.JoinVertical(lipgloss.Left,
			a.renderForm(),
			a.renderChequeTable())
	case tabLogs:
		body = a.renderLogTable()
	}
	if a.dialog.active() {
		body = lipgloss.JoinVertical(lipgloss.Left, body, a.renderDialog())
	}
	sections := []string{
		a.renderHeader(width),
		a.renderKPIs(),
		a.renderTabs(),
		body,
		a.renderNotices(),
	}
	if a.loadErr != "" {
		sections = append(sections, noticeStyle("error").Render("Store error: "+a.loadErr))
	}
	if a.statusMsg != "" {
		sections = append(sections, mutedStyle.Render(a.statusMsg))
	}
	if panel := a.renderLogPanel(); panel != "" {
		sections = append(sections, panel)
	}
	sections = append(sections, mutedStyle.Render(a.helpLine()))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (a *App) renderHeader(width int) string {
	title := headerStyle.Render("▣ CHEQUE DESK")
	who := mutedStyle.Render("operator: " + identity.Resolve(a.identity))
	gap := max(1, width-lipgloss.Width(title)-lipgloss.Width(who)-2)
	return title + strings.Repeat(" ", gap) + who
}

func (a *App) renderKPIs() string {
	cards := []struct {
		label string
		value string
	}{
		{"Total Cheques", fmt.Sprint(a.stats.Total)},
		{"Valid", fmt.Sprint(a.stats.Valid)},
		{"Not Valid", fmt.Sprint(a.stats.NotValid)},
		{"Paid", fmt.Sprint(a.stats.Paid)},
		{"Verifications", fmt.Sprint(a.tally.Count())},
		{"Amount", dashboard.FormatAmount(a.stats.Amount)},
	}
	rendered := make([]string, 0, len(cards))
	for _, card := range cards {
		rendered = append(rendered, kpiStyle.Render(
			mutedStyle.Render(card.label)+"\n"+lipgloss.NewStyle().Bold(true).Render(card.value)))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (a *App) renderTabs() string {
	titles := []string{"Manage Cheques [F1]", "Verification Logs [F2]"}
	out := make([]string, len(titles))
	for i, title := range titles {
		if tab(i) == a.tab {
			out[i] = activeTabStyle.Render(title)
		} else {
			out[i] = tabStyle.Render(title)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, out...)
}

func (a *App) renderNotices() string {
	active := a.notices.Active()
	if len(active) == 0 {
		return ""
	}
	lines := make([]string, 0, len(active))
	for _, n := range active {
		lines = append(lines, noticeStyle(string(n.Level)).Render("● "+n.Text))
	}
	return strings.Join(lines, "\n")
}

func (a *App) renderLogPanel() string {
	if a.logbook == nil {
		return ""
	}
	lines := a.logbook.Tail(6)
	if len(lines) == 0 {
		return ""
	}
	fileName := filepath.Base(a.logbook.Path())
	if fileName == "." || fileName == "" {
		fileName = "log"
	}
	head := lipgloss.NewStyle().
		Bold(true).
		Foreground(accentColor).
		Render(fmt.Sprintf("LOG · %s", fileName))
	body := mutedStyle.Render(strings.Join(lines, "\n"))
	return panelStyle.Render(fmt.Sprintf("%s\n%s", head, body))
}

func (a *App) helpLine() string {
	if a.dialog.kind == dialogEdit {
		return "tab next field · ←/→ status · enter save · esc cancel"
	}
	if a.dialog.active() {
		return "y/enter confirm · esc cancel"
	}
	if a.tab == tabLogs {
		return "↑/↓ move · c clear all · F1 cheques · ctrl+c quit"
	}
	if a.focus == focusTable {
		return "↑/↓ move · v valid · n not valid · p paid · e edit · d delete · tab form · ctrl+c quit"
	}
	return "tab next field · ctrl+s save · esc clear · F2 logs · ctrl+c quit"
}
