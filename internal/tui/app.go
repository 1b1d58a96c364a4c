// Package tui provides the interactive Bubble Tea dashboard for FinSight.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"finsight/internal/api"
	"finsight/internal/chat"
	"finsight/internal/filter"
	"finsight/internal/model"
	"finsight/internal/nova"
	"finsight/internal/pipeline"
	"finsight/internal/tui/components"
	"finsight/internal/tui/theme"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// OptionsLoadedMsg is sent when the cluster and KPI option lists arrive.
type OptionsLoadedMsg struct {
	Clusters []model.FilterOption
	KPIs     []string
	Err      error
}

// CascadeResolvedMsg is sent when the account/project option cascade
// finishes for a filter change. Gen identifies the filter change that
// started it; results from superseded changes are discarded.
type CascadeResolvedMsg struct {
	Gen   uint64
	State filter.State
	Err   error
}

// GridLoadedMsg is sent when a grid fetch completes. Gen identifies the
// fetch; stale generations are discarded.
type GridLoadedMsg struct {
	Gen   uint64
	Rows  []model.GridRow
	Flat  []model.PnLRow
	KPIs  model.KPISummary
	Err   error
}

// LoginDoneMsg reports the outcome of a login attempt.
type LoginDoneMsg struct {
	User model.User
	Err  error
}

// InjectPromptMsg fires after the chat panel's open delay and starts the
// assistant exchange for the pending question.
type InjectPromptMsg struct {
	Row      *model.GridRow
	Question string
}

// ChatChunkMsg carries one streamed assistant fragment.
type ChatChunkMsg struct{ Fragment string }

// ChatDoneMsg signals the end of an assistant stream.
type ChatDoneMsg struct{}

// ChatErrMsg signals a failed assistant exchange.
type ChatErrMsg struct{ Err error }

type tickMsg struct{}

// App is the root Bubble Tea model.
type App struct {
	client    *api.Client
	assistant *chat.Client

	// UI state
	width     int
	height    int
	activeTab int
	showHelp  bool
	err       error

	// Login
	needLogin bool
	loginForm *huh.Form
	loginVals loginValues
	loggingIn bool
	loginErr  error

	// Filter state and cascading options
	filters     filter.State
	resolver    *filter.Resolver
	clusterOpts []model.FilterOption
	kpiOpts     []string
	fState      filtersState

	// Grid
	mode      model.Mode
	rows      []model.GridRow
	visible   []model.GridRow
	sortState pipeline.SortState
	sortCol   int
	pager      pipeline.Pager
	cursor     int
	gridGen    uint64
	cascadeGen uint64
	fetching   bool
	loaded     bool

	// Flat rows feed the charts and the year option list
	flatRows []model.PnLRow
	kpis     model.KPISummary

	// Chat panel
	chatOpen    bool
	chatSession *chat.Session
	chatInput   textinput.Model
	chatSub     chan tea.Msg
	pendingRow  *model.GridRow

	// Settings
	settings settingsState

	spinner spinner.Model
}

const (
	minTerminalWidth = 80
	maxContentWidth  = 180
	minContentHeight = 5

	// Delay before a composed prompt is dispatched, so the panel has
	// finished opening when the exchange starts.
	promptInjectDelay = 150 * time.Millisecond

	fetchTimeout = 30 * time.Second
)

// sortColumns is the grid's sortable column cycle order.
var sortColumns = []string{"name", "revenue", "cost", "grossProfit", "margin"}

// NewApp creates the dashboard model.
func NewApp(client *api.Client, assistant *chat.Client) App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent)

	input := textinput.New()
	input.Placeholder = "Ask Nova about your P&L…"
	input.CharLimit = 500

	mode := model.DefaultModeForRole(client.Session().User().Role)

	a := App{
		client:      client,
		assistant:   assistant,
		filters:     filter.New(),
		resolver:    filter.NewResolver(client),
		mode:        mode,
		chatSession: chat.NewSession(),
		chatInput:   input,
		chatSub:     make(chan tea.Msg, 8),
		spinner:     sp,
		fState:      newFiltersState(),
		settings:    newSettingsState(),
	}

	if client.Session().Authenticated() {
		// First fetch starts immediately; Init reads this state.
		a.fetching = true
		a.gridGen = 1
	} else {
		a.needLogin = true
		a.loginForm = newLoginForm(&a.loginVals)
	}
	return a
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{a.spinner.Tick, tickCmd()}
	if a.needLogin {
		cmds = append(cmds, a.loginForm.Init())
		return tea.Batch(cmds...)
	}
	cmds = append(cmds,
		loadOptionsCmd(a.client),
		loadGridCmd(a.client, a.gridGen, a.mode, a.filters),
	)
	return tea.Batch(cmds...)
}

// startLoadCmds issues the initial option and grid fetches.
func (a *App) startLoadCmds() []tea.Cmd {
	a.fetching = true
	a.gridGen++
	return []tea.Cmd{
		loadOptionsCmd(a.client),
		loadGridCmd(a.client, a.gridGen, a.mode, a.filters),
	}
}

// recompute rebuilds the visible row set from the raw fetch: margin range,
// sort, pagination. Runs after every fetch or filter change; the page
// resets because the row set may have changed.
func (a *App) recompute() {
	a.resort()
	a.pager = a.pager.Reset(len(a.visible))
	a.clampCursor()
}

// resort re-derives the visible rows without touching the pager. A pure
// sort change reorders the same row set, so the page position survives.
func (a *App) resort() {
	a.visible = pipeline.FilterGridRows(a.rows, a.filters)
	a.visible = a.sortState.ApplyGrid(a.visible)
}

func (a *App) clampCursor() {
	if a.cursor >= len(a.pageRows()) {
		a.cursor = len(a.pageRows()) - 1
	}
	if a.cursor < 0 {
		a.cursor = 0
	}
}

// pageRows returns the rows on the current page.
func (a App) pageRows() []model.GridRow {
	return pipeline.Slice(a.visible, a.pager)
}

// applyFilterChange re-runs the cascade and refetches the grid after any
// filter mutation.
func (a *App) applyFilterChange() tea.Cmd {
	a.fetching = true
	a.gridGen++
	a.cascadeGen++
	a.cursor = 0
	return tea.Batch(
		resolveCascadeCmd(a.resolver, a.cascadeGen, a.filters),
		loadGridCmd(a.client, a.gridGen, a.mode, a.filters),
	)
}

// setMode switches the hierarchy level and refetches.
func (a *App) setMode(mode model.Mode) tea.Cmd {
	if a.mode == mode {
		return nil
	}
	a.mode = mode
	a.sortState = pipeline.SortState{}
	a.cursor = 0
	a.fetching = true
	a.gridGen++
	return loadGridCmd(a.client, a.gridGen, a.mode, a.filters)
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.loginForm != nil {
			a.loginForm = a.loginForm.WithWidth(msg.Width).WithHeight(msg.Height)
		}
		return a, nil

	case tea.KeyMsg:
		return a.updateKeys(msg)

	case OptionsLoadedMsg:
		if msg.Err == nil {
			a.clusterOpts = msg.Clusters
			a.kpiOpts = msg.KPIs
		} else {
			a.err = msg.Err
		}
		return a, nil

	case CascadeResolvedMsg:
		if msg.Gen != a.cascadeGen {
			// A newer filter change started its own cascade; this result
			// describes a state the user has already moved past.
			return a, nil
		}
		// A failed cascade keeps the previous options and selections. On
		// success only the fields the cascade owns are committed, so
		// selections made elsewhere while it ran are never reverted.
		if msg.Err == nil {
			a.filters.Accounts = msg.State.Accounts
			a.filters.Projects = msg.State.Projects
		}
		return a, nil

	case GridLoadedMsg:
		if msg.Gen != a.gridGen {
			// A newer fetch is already in flight; this response is stale.
			return a, nil
		}
		a.fetching = false
		if msg.Err != nil {
			a.err = msg.Err
			return a, nil
		}
		a.err = nil
		a.loaded = true
		a.rows = msg.Rows
		a.flatRows = msg.Flat
		a.kpis = msg.KPIs
		a.recompute()
		return a, nil

	case LoginDoneMsg:
		a.loggingIn = false
		if msg.Err != nil {
			a.loginErr = msg.Err
			a.loginVals = loginValues{}
			a.loginForm = newLoginForm(&a.loginVals)
			return a, a.loginForm.Init()
		}
		a.needLogin = false
		a.loginForm = nil
		a.mode = model.DefaultModeForRole(msg.User.Role)
		return a, tea.Batch(a.startLoadCmds()...)

	case InjectPromptMsg:
		return a, tea.Batch(
			streamChatCmd(a.client, a.assistant, msg.Row, a.filters, msg.Question, a.chatSub),
		)

	case ChatChunkMsg:
		a.chatSession.AppendChunk(msg.Fragment)
		return a, waitForChatMsg(a.chatSub)

	case ChatDoneMsg:
		a.chatSession.Finish()
		return a, nil

	case ChatErrMsg:
		// Partial content stays; the transcript just stops growing.
		a.chatSession.Fail()
		a.err = msg.Err
		return a, nil

	case spinner.TickMsg:
		if a.fetching || a.loggingIn || a.chatSession.Busy() {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil

	case tickMsg:
		cmds := []tea.Cmd{tickCmd()}
		if a.fetching || a.chatSession.Busy() {
			cmds = append(cmds, a.spinner.Tick)
		}
		return a, tea.Batch(cmds...)
	}

	// Forward unhandled messages to the login form (cursor blinks, etc.)
	if a.needLogin && a.loginForm != nil {
		return a.updateLoginForm(msg)
	}

	return a, nil
}

func (a App) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		return a, tea.Quit
	}

	if a.needLogin && a.loginForm != nil {
		return a.updateLoginForm(msg)
	}

	// Chat panel captures input while open
	if a.chatOpen {
		return a.updateChatKeys(msg)
	}

	// Margin threshold editing captures input
	if a.activeTab == tabFilters && a.fState.editingMargin {
		return a.updateMarginInput(msg)
	}

	// Settings editing captures input
	if a.activeTab == tabSettings && a.settings.editing {
		return a.updateSettingsInput(msg)
	}

	if key == "?" {
		a.showHelp = !a.showHelp
		return a, nil
	}
	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	switch key {
	case "q":
		return a, tea.Quit

	case "g", "c", "f":
		a.activeTab = components.TabIdxByKey(rune(key[0]))
		return a, nil
	case "x":
		a.activeTab = tabSettings
		return a, nil
	case "left":
		a.activeTab = (a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs)
		return a, nil
	case "right":
		a.activeTab = (a.activeTab + 1) % len(components.Tabs)
		return a, nil

	case "1":
		return a, a.setMode(model.ModeCluster)
	case "2":
		return a, a.setMode(model.ModeAccount)
	case "3":
		return a, a.setMode(model.ModeProject)
	case "4":
		return a, a.setMode(model.ModeResource)

	case "r":
		if !a.fetching {
			a.fetching = true
			a.gridGen++
			return a, loadGridCmd(a.client, a.gridGen, a.mode, a.filters)
		}
		return a, nil

	case "a":
		// Open the assistant without row context
		a.chatOpen = true
		a.pendingRow = nil
		a.chatInput.Focus()
		return a, a.chatInput.Cursor.BlinkCmd()
	}

	switch a.activeTab {
	case tabGrid:
		return a.updateGridKeys(key)
	case tabFilters:
		return a.updateFilterKeys(key)
	case tabSettings:
		return a.updateSettingsKeys(key)
	}
	return a, nil
}

func (a App) updateGridKeys(key string) (tea.Model, tea.Cmd) {
	page := a.pageRows()

	switch key {
	case "j", "down":
		if a.cursor < len(page)-1 {
			a.cursor++
		}
	case "k", "up":
		if a.cursor > 0 {
			a.cursor--
		}
	case "n":
		a.pager = a.pager.Next()
		a.cursor = 0
	case "p":
		a.pager = a.pager.Prev()
		a.cursor = 0
	case "[":
		a.sortCol = (a.sortCol - 1 + len(sortColumns)) % len(sortColumns)
	case "]":
		a.sortCol = (a.sortCol + 1) % len(sortColumns)
	case "s":
		a.sortState = a.sortState.Cycle(sortColumns[a.sortCol])
		a.resort()
		a.clampCursor()
	case "enter":
		if a.cursor < len(page) {
			row := page[a.cursor]
			a.pendingRow = &row
			a.chatOpen = true
			a.chatInput.Focus()
			return a, a.chatInput.Cursor.BlinkCmd()
		}
	}
	return a, nil
}

func (a App) updateChatKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.chatOpen = false
		a.pendingRow = nil
		a.chatInput.Blur()
		return a, nil
	case "enter":
		return a.submitChat()
	}
	var cmd tea.Cmd
	a.chatInput, cmd = a.chatInput.Update(msg)
	return a, cmd
}

// submitChat appends the user's question and schedules the exchange after
// the panel-open delay. The transcript shows the bare question; the row
// context is attached to the outgoing prompt only.
func (a App) submitChat() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(a.chatInput.Value())
	if text == "" || a.chatSession.Busy() {
		return a, nil
	}
	a.chatInput.Reset()
	a.chatSession.Send(text)

	row := a.pendingRow
	a.pendingRow = nil
	return a, tea.Batch(
		a.spinner.Tick,
		injectPromptCmd(row, text),
	)
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}
	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}
	if a.needLogin && a.loginForm != nil {
		return a.viewLogin()
	}
	if !a.loaded {
		return a.viewLoading()
	}
	if a.showHelp {
		return a.viewHelp()
	}
	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := a.height
	if h < 5 {
		h = 5
	}
	msg := fmt.Sprintf(
		"\n  Terminal too narrow (%d cols)\n\n  finsight needs at least %d columns.\n",
		a.width, minTerminalWidth,
	)
	return padHeight(truncateHeight(msg, h), h)
}

func (a App) viewLoading() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(2, 4)

	logoStyle := lipgloss.NewStyle().
		Foreground(t.AccentBright).
		Background(t.Surface).
		Bold(true)

	subtitleStyle := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface)

	var b strings.Builder
	b.WriteString(logoStyle.Render("◈ finsight"))
	b.WriteString(subtitleStyle.Render(" · P&L Dashboard"))
	b.WriteString("\n\n")
	b.WriteString(a.spinner.View())
	b.WriteString(subtitleStyle.Render(" Loading data…"))
	if a.err != nil {
		errStyle := lipgloss.NewStyle().Foreground(t.Red).Background(t.Surface)
		b.WriteString("\n\n")
		b.WriteString(errStyle.Render(truncStr(a.err.Error(), 60)))
	}

	card := cardStyle.Render(b.String())
	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, card,
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewHelp() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3)

	titleStyle := lipgloss.NewStyle().
		Foreground(t.AccentBright).
		Background(t.Surface).
		Bold(true)

	sectionStyle := lipgloss.NewStyle().
		Foreground(t.Accent).
		Background(t.Surface).
		Bold(true)

	keyStyle := lipgloss.NewStyle().
		Foreground(t.Cyan).
		Background(t.Surface).
		Bold(true)

	descStyle := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface)

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ Keyboard Shortcuts"))
	b.WriteString("\n\n")

	b.WriteString(sectionStyle.Render("Navigation"))
	b.WriteString("\n")
	for _, bind := range []struct{ key, desc string }{
		{"g c f x", "Jump to tab"},
		{"← →", "Previous / Next tab"},
		{"1 2 3 4", "Cluster / Account / Project / Resource view"},
		{"j k", "Move row cursor"},
		{"n p", "Next / Previous page"},
	} {
		fmt.Fprintf(&b, "  %s  %s\n",
			keyStyle.Render(fmt.Sprintf("%-10s", bind.key)),
			descStyle.Render(bind.desc))
	}

	b.WriteString("\n")
	b.WriteString(sectionStyle.Render("Actions"))
	b.WriteString("\n")
	for _, bind := range []struct{ key, desc string }{
		{"[ ] s", "Pick sort column / cycle sort"},
		{"Enter", "Ask Nova about the selected row"},
		{"a", "Open the assistant"},
		{"Space", "Toggle filter option"},
		{"r", "Refetch data"},
		{"?", "Toggle help"},
		{"q", "Quit"},
	} {
		fmt.Fprintf(&b, "  %s  %s\n",
			keyStyle.Render(fmt.Sprintf("%-10s", bind.key)),
			descStyle.Render(bind.desc))
	}

	card := cardStyle.Render(b.String())
	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, card,
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) contentWidth() int {
	cw := a.width
	if cw > maxContentWidth {
		cw = maxContentWidth
	}
	return cw
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()
	h := a.height

	header := components.RenderTabBar(a.activeTab, w) + "\n" + a.renderModeLine(w)
	if a.err != nil {
		errLine := lipgloss.NewStyle().Foreground(t.Red).Width(w).
			Render(" " + truncStr(a.err.Error(), w-2))
		header += "\n" + errLine
	}

	user := a.client.Session().User()
	statusBar := components.RenderStatusBar(w, user.Name, a.filters.ActiveCount(), a.fetching)

	headerH := lipgloss.Height(header)
	statusH := lipgloss.Height(statusBar)
	contentH := h - headerH - statusH
	if contentH < minContentHeight {
		contentH = minContentHeight
	}

	var content string
	switch a.activeTab {
	case tabGrid:
		content = a.renderGridTab(cw, contentH)
	case tabCharts:
		content = a.renderChartsTab(cw)
	case tabFilters:
		content = a.renderFiltersTab(cw, contentH)
	case tabSettings:
		content = a.renderSettingsTab(cw)
	}

	if a.chatOpen {
		content = a.renderChatPanel(cw, contentH)
	}

	content = padHeight(truncateHeight(content, contentH), contentH)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	output := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
	return lipgloss.Place(w, h, lipgloss.Left, lipgloss.Top, output,
		lipgloss.WithWhitespaceBackground(t.Background))
}

// renderModeLine shows the active hierarchy level under the tab bar.
func (a App) renderModeLine(w int) string {
	t := theme.Active

	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim)
	activeStyle := lipgloss.NewStyle().Foreground(t.Accent).Bold(true)

	modes := []model.Mode{model.ModeCluster, model.ModeAccount, model.ModeProject, model.ModeResource}
	var parts []string
	for i, m := range modes {
		label := fmt.Sprintf("%d:%s", i+1, m)
		if m == a.mode {
			parts = append(parts, activeStyle.Render(label))
		} else {
			parts = append(parts, dimStyle.Render(label))
		}
	}
	line := " " + strings.Join(parts, dimStyle.Render("  "))
	return lipgloss.NewStyle().Width(w).Render(line)
}

// availableYears derives the year option list from the loaded rows.
func (a App) availableYears() []int {
	seen := map[int]bool{}
	for _, r := range a.flatRows {
		seen[r.Year] = true
	}
	for _, y := range a.filters.Years {
		seen[y] = true
	}
	var years []int
	for y := range seen {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// ─── Commands ───────────────────────────────────────────────────

func tickCmd() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

// loadOptionsCmd fetches the top-level option lists.
func loadOptionsCmd(client *api.Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		clusters, err := client.ClusterOptions(ctx)
		if err != nil {
			return OptionsLoadedMsg{Err: err}
		}
		kpis, err := client.KPIOptions(ctx)
		if err != nil {
			// KPI names are cosmetic; fall back to the fixed set
			kpis = model.KPIOptions
		}
		return OptionsLoadedMsg{Clusters: clusters, KPIs: kpis}
	}
}

// resolveCascadeCmd re-resolves the account and project option lists for
// the given filter state. The resolver's own generation counters guard the
// option lists; gen guards the selection commit back in Update.
func resolveCascadeCmd(r *filter.Resolver, gen uint64, st filter.State) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		st, _, err := r.ResolveAccounts(ctx, st)
		if err != nil {
			return CascadeResolvedMsg{Gen: gen, State: st, Err: err}
		}
		st, _, err = r.ResolveProjects(ctx, st)
		return CascadeResolvedMsg{Gen: gen, State: st, Err: err}
	}
}

// loadGridCmd fetches the grid rows for the mode plus the flat rows and
// KPI summary that feed the charts.
func loadGridCmd(client *api.Client, gen uint64, mode model.Mode, st filter.State) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		rows, err := client.GridRows(ctx, mode, st)
		if err != nil {
			return GridLoadedMsg{Gen: gen, Err: err}
		}
		flat, err := client.ResourceRows(ctx, st)
		if err != nil {
			return GridLoadedMsg{Gen: gen, Err: err}
		}
		kpis, err := client.KPISummary(ctx, st)
		if err != nil {
			return GridLoadedMsg{Gen: gen, Err: err}
		}
		return GridLoadedMsg{Gen: gen, Rows: rows, Flat: flat, KPIs: kpis}
	}
}

// injectPromptCmd delays the exchange start until the panel has opened.
func injectPromptCmd(row *model.GridRow, question string) tea.Cmd {
	return tea.Tick(promptInjectDelay, func(time.Time) tea.Msg {
		return InjectPromptMsg{Row: row, Question: question}
	})
}

// streamChatCmd assembles the outgoing prompt (re-querying the hierarchy
// when a row is attached) and streams the assistant's answer through sub.
func streamChatCmd(client *api.Client, assistant *chat.Client, row *model.GridRow, st filter.State, question string, sub chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()

			prompt := question
			if row != nil {
				prompt = nova.NewAssembler(client).Prompt(ctx, *row, st, question)
			}

			stream, err := assistant.Generate(ctx, prompt)
			if err != nil {
				sub <- ChatErrMsg{Err: err}
				return
			}
			defer func() { _ = stream.Close() }()

			for {
				frag, err := stream.Recv()
				if errors.Is(err, io.EOF) {
					sub <- ChatDoneMsg{}
					return
				}
				if err != nil {
					sub <- ChatErrMsg{Err: err}
					return
				}
				sub <- ChatChunkMsg{Fragment: frag}
			}
		}()
		// Block until the first message from the exchange goroutine
		return <-sub
	}
}

// waitForChatMsg blocks until the next message from the exchange goroutine.
func waitForChatMsg(sub chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-sub
	}
}

// ─── Helpers ────────────────────────────────────────────────────

func truncStr(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}
