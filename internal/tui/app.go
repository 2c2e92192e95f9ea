// internal/tui/app.go
//
// Interactive corpus browser built on bubbletea's Elm loop: the App
// model holds all state, Update folds messages into it, View renders a
// string. Lint passes run as tea.Cmds so the UI never blocks on IO.

package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"vellum/internal/config"
	"vellum/internal/corpus"
	"vellum/internal/finding"
	"vellum/internal/lint"
	"vellum/internal/logbook"
)

// appState represents which "screen" we're on.
type appState int

const (
	stateBrowse appState = iota // Brief list with severity badges
	stateDetail                 // One brief's sections and findings
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("230")).Background(lipgloss.Color("63")).Padding(0, 1)
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	severityStyles = map[finding.Severity]lipgloss.Style{
		finding.SeverityError:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		finding.SeverityWarning: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		finding.SeverityInfo:    lipgloss.NewStyle().Foreground(lipgloss.Color("75")),
	}
)

type lintFinishedMsg struct {
	run *lint.Run
	err error
}

// briefItem implements list.Item for one corpus entry.
type briefItem struct {
	path     string
	title    string
	worst    finding.Severity
	findings int
	loadErr  bool
}

func (i briefItem) Title() string {
	if i.loadErr {
		return fmt.Sprintf("%s %s", severityStyles[finding.SeverityError].Render("✗"), i.path)
	}
	badge := "✓"
	if i.worst != "" {
		if style, ok := severityStyles[i.worst]; ok {
			badge = style.Render("●")
		}
	}
	title := i.title
	if title == "" {
		title = "(untitled)"
	}
	return fmt.Sprintf("%s %s", badge, title)
}

func (i briefItem) Description() string {
	if i.loadErr {
		return "could not be read or parsed"
	}
	if i.findings == 0 {
		return i.path
	}
	return fmt.Sprintf("%s · %d finding(s)", i.path, i.findings)
}

func (i briefItem) FilterValue() string { return i.path }

// App is the browser model. It holds ALL state for the session.
type App struct {
	state   appState
	cfg     *config.Config
	engine  *lint.Engine
	logbook *logbook.Logbook

	briefList list.Model
	detail    viewport.Model
	run       *lint.Run
	selected  string

	statusMsg string
	linting   bool

	width  int
	height int
}

// AppOption customizes App construction.
type AppOption func(*App)

// WithLogbook attaches the run journal so browse sessions leave a trace.
func WithLogbook(book *logbook.Logbook) AppOption {
	return func(a *App) {
		a.logbook = book
	}
}

// NewApp builds the browser over a configured lint engine.
func NewApp(cfg *config.Config, engine *lint.Engine, opts ...AppOption) *App {
	briefs := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	briefs.Title = "⬡ VELLUM"
	briefs.SetShowStatusBar(false)
	briefs.SetFilteringEnabled(true)

	app := &App{
		state:     stateBrowse,
		cfg:       cfg,
		engine:    engine,
		briefList: briefs,
		detail:    viewport.New(0, 0),
		statusMsg: "Linting corpus...",
		linting:   true,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(app)
		}
	}
	return app
}

// Init kicks off the first lint pass.
func (a *App) Init() tea.Cmd {
	return a.relint()
}

func (a *App) relint() tea.Cmd {
	engine := a.engine
	return func() tea.Msg {
		run, err := engine.Run(context.Background())
		return lintFinishedMsg{run: run, err: err}
	}
}

// Update folds one message into the model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.briefList.SetSize(max(0, msg.Width-4), max(0, msg.Height-6))
		a.detail.Width = max(0, msg.Width-4)
		a.detail.Height = max(0, msg.Height-6)
		return a, nil

	case lintFinishedMsg:
		a.linting = false
		if msg.err != nil {
			a.statusMsg = errorStyle.Render(fmt.Sprintf("lint failed: %v", msg.err))
			a.logWarn("browse lint failed: %v", msg.err)
			return a, nil
		}
		a.run = msg.run
		a.briefList.SetItems(a.buildItems())
		a.statusMsg = fmt.Sprintf("%d briefs · %d errors · %d warnings · %d infos",
			msg.run.Stats.Documents, msg.run.Stats.Errors, msg.run.Stats.Warnings, msg.run.Stats.Infos)
		a.logInfo("browse lint pass: %d briefs, %d findings", msg.run.Stats.Documents, len(msg.run.Findings))
		if a.state == stateDetail {
			a.refreshDetail()
		}
		return a, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return a, tea.Quit
		case "q":
			if a.state == stateBrowse && !a.briefList.SettingFilter() {
				return a, tea.Quit
			}
		case "esc":
			if a.state == stateDetail {
				a.state = stateBrowse
				return a, nil
			}
		case "r":
			if !a.linting && !a.briefList.SettingFilter() {
				a.linting = true
				a.statusMsg = "Re-linting corpus..."
				return a, a.relint()
			}
		case "enter":
			if a.state == stateBrowse {
				return a.openSelected()
			}
		}
	}

	var cmd tea.Cmd
	switch a.state {
	case stateBrowse:
		a.briefList, cmd = a.briefList.Update(msg)
	case stateDetail:
		a.detail, cmd = a.detail.Update(msg)
	}
	return a, cmd
}

func (a *App) openSelected() (tea.Model, tea.Cmd) {
	item, ok := a.briefList.SelectedItem().(briefItem)
	if !ok {
		return a, nil
	}
	a.selected = item.path
	a.state = stateDetail
	a.refreshDetail()
	return a, nil
}

func (a *App) refreshDetail() {
	if a.run == nil {
		return
	}
	for i := range a.run.Corpus.Entries {
		entry := &a.run.Corpus.Entries[i]
		if entry.Path == a.selected {
			a.detail.SetContent(a.renderDetail(entry))
			a.detail.GotoTop()
			return
		}
	}
	a.detail.SetContent("brief no longer present in corpus")
}

// buildItems converts the latest run into list rows, worst briefs first.
func (a *App) buildItems() []list.Item {
	if a.run == nil {
		return nil
	}
	items := make([]briefItem, 0, len(a.run.Corpus.Entries))
	for _, entry := range a.run.Corpus.Entries {
		row := briefItem{path: entry.Path, loadErr: entry.Err != nil}
		if entry.Doc != nil {
			row.title = entry.Doc.Title
		}
		per := a.run.FindingsFor(entry.Path)
		row.findings = len(per)
		row.worst = finding.MaxSeverity(per)
		items = append(items, row)
	}
	sort.SliceStable(items, func(i, j int) bool {
		return severityRank(items[i]) > severityRank(items[j])
	})
	out := make([]list.Item, len(items))
	for i := range items {
		out[i] = items[i]
	}
	return out
}

func severityRank(item briefItem) int {
	if item.loadErr {
		return 4
	}
	if item.worst == "" {
		return 0
	}
	return item.worst.Weight()
}

func (a *App) renderDetail(entry *corpus.Entry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", titleStyle.Render(entry.Path))
	if entry.Err != nil {
		fmt.Fprintf(&b, "%s\n", errorStyle.Render(entry.Err.Error()))
		return b.String()
	}
	doc := entry.Doc
	fmt.Fprintf(&b, "Persona: %s\n", doc.Title)
	fmt.Fprintf(&b, "Words:   %d\n\n", doc.WordCount)

	b.WriteString("Sections\n")
	for _, sec := range doc.Sections {
		marker := " "
		if len(sec.Bullets) > 0 {
			marker = fmt.Sprintf("%d bullets", len(sec.Bullets))
		}
		fmt.Fprintf(&b, "  L%-4d %-28s %s\n", sec.Line, sec.Title, marker)
	}
	if doc.Boilerplate != nil {
		b.WriteString("\nSetup\n")
		for _, cmd := range doc.Boilerplate.Commands {
			fmt.Fprintf(&b, "  $ %s\n", cmd)
		}
		for _, missing := range doc.Boilerplate.Missing {
			fmt.Fprintf(&b, "  %s missing: %s\n", severityStyles[finding.SeverityWarning].Render("!"), missing)
		}
	}

	findings := a.run.FindingsFor(entry.Path)
	b.WriteString("\nFindings\n")
	if len(findings) == 0 {
		b.WriteString("  none\n")
		return b.String()
	}
	for _, f := range findings {
		style, ok := severityStyles[f.Severity]
		if !ok {
			style = statusStyle
		}
		location := ""
		if f.Line > 0 {
			location = fmt.Sprintf(":%d", f.Line)
		}
		fmt.Fprintf(&b, "  %s %s%s %s\n", style.Render(string(f.Severity)), f.RuleID, location, f.Message)
	}
	return b.String()
}

// View renders the current state to a string.
func (a *App) View() string {
	var content string
	switch a.state {
	case stateBrowse:
		content = a.briefList.View()
	case stateDetail:
		content = a.detail.View()
	}

	help := "enter: open · r: re-lint · q: quit"
	if a.state == stateDetail {
		help = "esc: back · r: re-lint · ctrl+c: quit"
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		content,
		statusStyle.Render(a.statusMsg),
		helpStyle.Render(help),
	)
}

func (a *App) logInfo(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Info(format, args...)
}

func (a *App) logWarn(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Warn(format, args...)
}

// Run starts the browser on the alternate screen and blocks until exit.
func Run(cfg *config.Config, engine *lint.Engine, opts ...AppOption) error {
	app := NewApp(cfg, engine, opts...)
	program := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
