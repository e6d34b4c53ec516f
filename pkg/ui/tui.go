package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ming198921/taoli5.1-sub000/pkg/ui/components"
)

// Phase is the dashboard lifecycle stage.
type Phase int

const (
	PhaseWelcome Phase = iota
	PhaseStartup
	PhaseDashboard
)

const (
	// WelcomeDuration is how long the welcome screen shows before
	// auto-advancing.
	WelcomeDuration = 2 * time.Second

	tickEvery      = 100 * time.Millisecond
	maxErrorPanel  = 3
	maxLogLines    = 5
	maxActivity    = 6
	wideLayoutCols = 100
)

// StartupStep tracks one named step on the startup screen.
type StartupStep struct {
	Name   string
	Status string
}

// startupOrder fixes the display order of startup steps.
var startupOrder = []string{"config", "feed", "fees", "strategies"}

// ErrorEntry is one row of the persistent error panel.
type ErrorEntry struct {
	Message   string
	Timestamp time.Time
}

// Model is the Bubble Tea model for the dashboard.
type Model struct {
	opportunities *components.OpportunitiesComponent
	executions    *components.ExecutionsComponent
	stats         *components.StatsComponent
	connections   *components.StatusComponent

	keys KeyMap

	phase        Phase
	welcomeStart time.Time
	startupTime  time.Time
	startupSteps map[string]*StartupStep
	startupDone  bool

	ready      bool
	quitting   bool
	paused     bool
	width      int
	height     int
	lastUpdate time.Time

	errors []ErrorEntry
	logs   []string

	cycleCount    uint64
	lastCycleTime time.Time
	activityFeed  []string
}

// New builds the model in the welcome phase.
func New() Model {
	now := time.Now()
	steps := map[string]*StartupStep{
		"config":     {Name: "Loading configuration", Status: "pending"},
		"feed":       {Name: "Connecting to market feed", Status: "pending"},
		"fees":       {Name: "Loading fee schedule", Status: "pending"},
		"strategies": {Name: "Registering strategies", Status: "pending"},
	}
	return Model{
		opportunities: components.NewOpportunitiesComponent(50),
		executions:    components.NewExecutionsComponent(8),
		stats:         components.NewStatsComponent(),
		connections:   components.NewStatusComponent(),
		keys:          DefaultKeyMap(),
		phase:         PhaseWelcome,
		welcomeStart:  now,
		startupTime:   now,
		startupSteps:  steps,
		errors:        make([]ErrorEntry, 0, maxErrorPanel),
		logs:          make([]string, 0, maxLogLines),
		activityFeed:  make([]string, 0, maxActivity),
	}
}

// Init starts the animation ticker.
func (m Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(tickEvery, func(time.Time) tea.Msg { return TickMsg{} })
}

// beginStartup advances from the welcome screen and fires the module-start
// callback exactly once. Called from Update, so the callback runs on its
// own goroutine instead of through Send.
func (m *Model) beginStartup() {
	m.phase = PhaseStartup
	m.startupTime = time.Now()
	if OnStartModules != nil {
		go OnStartModules()
	}
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.ready = true

	case TickMsg:
		if m.phase == PhaseWelcome && time.Since(m.welcomeStart) >= WelcomeDuration {
			m.beginStartup()
		}
		return m, tick()

	case OpportunityMsg:
		if msg.Opportunity == nil {
			break
		}
		opp := msg.Opportunity
		m.opportunities.Add(components.OpportunityRow{
			Timestamp: opp.DetectedAt.Format("15:04:05"),
			Route:     opp.Path.Route(),
			Exchange:  opp.Path.Exchange,
			ProfitBps: opp.Path.ProfitBps(),
			RiskScore: opp.Path.RiskScore,
			VolumeUSD: opp.Path.MaxTradableVolume.Float64(),
			Status:    "DETECTED",
			Accepted:  true,
		})
		m.lastUpdate = time.Now()

	case ExecutionMsg:
		if msg.Result == nil {
			break
		}
		r := msg.Result
		m.executions.Add(components.ExecutionRow{
			Timestamp:     time.Now().Format("15:04:05"),
			OpportunityID: r.OpportunityID,
			State:         r.FinalState.String(),
			Profit:        r.RealizedProfit.String(),
			LegsFilled:    len(r.Legs),
			Rollbacks:     len(r.Rollbacks),
			Accepted:      r.Accepted,
		})
		m.lastUpdate = time.Now()
		m.activityFeed = appendCapped(m.activityFeed,
			stamp(fmt.Sprintf("Execution %s: %s", shortID(r.OpportunityID), r.FinalState.String())),
			maxActivity)

	case CycleMsg:
		m.cycleCount++
		m.lastCycleTime = time.Now()
		m.lastUpdate = m.lastCycleTime
		if msg.Paths > 0 {
			m.activityFeed = appendCapped(m.activityFeed,
				stamp(fmt.Sprintf("Cycle: %d snapshots, %d paths in %s",
					msg.Snapshots, msg.Paths, msg.Duration.Round(time.Millisecond))),
				maxActivity)
		}

	case StatsMsg:
		m.stats.Update(components.Stats{
			CyclesRun:        msg.CyclesRun,
			PathsEvaluated:   msg.PathsEvaluated,
			Opportunities:    msg.Opportunities,
			Executions:       msg.Executions,
			Rollbacks:        msg.Rollbacks,
			CumulativeProfit: msg.CumulativeProfit,
			LastCycleMs:      float64(msg.LastCycle.Microseconds()) / 1000,
			Errors:           int64(len(m.errors)),
		})

	case ConnectionStatusMsg:
		m.connections.Update(components.ConnectionStatus{
			Name:       msg.Name,
			Connected:  msg.Connected,
			Latency:    msg.Latency,
			LastUpdate: time.Now(),
		})
		m.lastUpdate = time.Now()
		m.applyFeedStatus(msg.Connected)

	case ErrorMsg:
		m.logs = appendCapped(m.logs, logLine("error", msg.Error.Error()), maxLogLines)
		m.errors = append(m.errors, ErrorEntry{Message: msg.Error.Error(), Timestamp: time.Now()})
		if len(m.errors) > maxErrorPanel {
			m.errors = m.errors[len(m.errors)-maxErrorPanel:]
		}

	case LogMsg:
		m.logs = appendCapped(m.logs, logLine(msg.Level, msg.Message), maxLogLines)

	case StartupMsg:
		if step, ok := m.startupSteps[msg.Step]; ok {
			step.Status = msg.Status
		}
		m.startupDone = m.allStepsReady()
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Quit works in every phase.
	if key.Matches(msg, m.keys.Quit) {
		m.quitting = true
		return m, tea.Quit
	}

	// Any other key skips the welcome screen.
	if m.phase == PhaseWelcome {
		m.beginStartup()
		return m, tick()
	}

	switch {
	case key.Matches(msg, m.keys.Clear):
		m.opportunities.Clear()
		m.executions.Clear()
	case key.Matches(msg, m.keys.Pause):
		m.paused = !m.paused
	case key.Matches(msg, m.keys.ScrollUp):
		m.opportunities.ScrollUp()
	case key.Matches(msg, m.keys.ScrollDown):
		m.opportunities.ScrollDown()
	case key.Matches(msg, m.keys.DismissErrors):
		m.errors = make([]ErrorEntry, 0, maxErrorPanel)
	}
	return m, nil
}

// applyFeedStatus mirrors the feed connection into the startup checklist.
func (m *Model) applyFeedStatus(connected bool) {
	if step, ok := m.startupSteps["feed"]; ok {
		if connected {
			step.Status = "connected"
		} else {
			step.Status = "connecting"
		}
	}
	if step, ok := m.startupSteps["config"]; ok {
		step.Status = "done"
	}
}

func (m Model) allStepsReady() bool {
	for _, step := range m.startupSteps {
		if step.Status != "connected" && step.Status != "done" {
			return false
		}
	}
	return true
}

// Paused reports whether the operator paused detection.
func (m Model) Paused() bool {
	return m.paused
}

// View renders the screen for the current phase.
func (m Model) View() string {
	if m.quitting {
		return "\n  Goodbye!\n\n"
	}

	switch m.phase {
	case PhaseWelcome:
		return m.renderWelcomeScreen()
	case PhaseStartup:
		if m.cycleCount == 0 && !m.startupDone {
			return m.renderStartupScreen()
		}
		m.phase = PhaseDashboard
	}
	return m.renderDashboard()
}

func (m Model) renderDashboard() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render(" △ Triangular Arbitrage Engine "))
	b.WriteString("\n\n")
	b.WriteString(m.renderStatusBar())
	b.WriteString("\n\n")

	leftCol := m.stats.View() + "\n\n" + m.executions.View()
	rightCol := m.renderActivityFeed() + "\n\n" + m.opportunities.View()

	if m.width > wideLayoutCols {
		half := m.width/2 - 2
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
			BoxStyle.Width(half).Render(leftCol),
			BoxStyle.Width(half).Render(rightCol)))
	} else {
		b.WriteString(BoxStyle.Width(m.width - 4).Render(leftCol))
		b.WriteString("\n")
		b.WriteString(BoxStyle.Width(m.width - 4).Render(rightCol))
	}
	b.WriteString("\n\n")

	if panel := m.renderErrorPanel(); panel != "" {
		b.WriteString(panel)
	}

	if m.paused {
		pauseStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F59E0B"))
		b.WriteString(pauseStyle.Render("⏸ PAUSED"))
		b.WriteString(" • ")
	}
	b.WriteString(HelpStyle.Render(m.keys.FooterHelp()))

	return b.String()
}

func (m Model) renderErrorPanel() string {
	if len(m.errors) == 0 {
		return ""
	}
	lineStyle := lipgloss.NewStyle().Foreground(ColorDanger)
	headStyle := lipgloss.NewStyle().Bold(true).Foreground(ColorDanger)
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))

	var b strings.Builder
	b.WriteString(headStyle.Render("ERRORS"))
	b.WriteString(dimStyle.Render(" (e: clear)"))
	b.WriteString("\n")
	for _, e := range m.errors {
		ago := time.Since(e.Timestamp).Round(time.Second)
		b.WriteString(lineStyle.Render(fmt.Sprintf("  • %s ", e.Message)))
		b.WriteString(dimStyle.Render(fmt.Sprintf("(%s ago)", ago)))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	return b.String()
}

func (m Model) renderActivityFeed() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	mutedStyle := lipgloss.NewStyle().Foreground(ColorMuted)
	cycleStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#60A5FA"))

	var b strings.Builder
	b.WriteString(headerStyle.Render("LIVE ACTIVITY"))
	b.WriteString("\n\n")

	if len(m.activityFeed) == 0 {
		b.WriteString(mutedStyle.Render("  Waiting for snapshots..."))
		return b.String()
	}
	for _, line := range m.activityFeed {
		style := mutedStyle
		if strings.Contains(line, "Cycle:") {
			style = cycleStyle
		}
		b.WriteString(style.Render("  " + line))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderStatusBar() string {
	var parts []string

	if time.Since(m.lastCycleTime) < 500*time.Millisecond {
		scanStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)
		parts = append(parts, scanStyle.Render(spinnerFrame()+" Scanning"))
	}
	if m.cycleCount > 0 {
		countStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
		parts = append(parts, countStyle.Render(fmt.Sprintf("Cycles: %d", m.cycleCount)))
	}

	parts = append(parts, m.connections.Segments()...)

	if !m.lastUpdate.IsZero() {
		ago := time.Since(m.lastUpdate).Round(time.Second)
		indicator := ""
		if ago < 2*time.Second {
			indicator = "▪"
		}
		parts = append(parts, MutedValue.Render(fmt.Sprintf("Updated: %s ago %s", ago, indicator)))
	}

	return strings.Join(parts, "  │  ")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func stamp(message string) string {
	return fmt.Sprintf("[%s] %s", time.Now().Format("15:04:05"), message)
}

func logLine(level, message string) string {
	return stamp(level + ": " + message)
}

// appendCapped appends a line and keeps the newest max entries.
func appendCapped(lines []string, line string, max int) []string {
	lines = append(lines, line)
	if len(lines) > max {
		lines = lines[len(lines)-max:]
	}
	return lines
}

// Program holds the running Bubble Tea program so engine goroutines can
// push messages into it.
var Program *tea.Program

// OnStartModules is invoked once the welcome screen finishes; the host
// process sets it to begin loading modules.
var OnStartModules func()

// Run builds and runs the dashboard program.
func Run() error {
	Program = tea.NewProgram(New(), tea.WithAltScreen())
	_, err := Program.Run()
	return err
}

// Send forwards a message to the running program. Safe to call before the
// program exists.
func Send(msg tea.Msg) {
	if Program != nil {
		Program.Send(msg)
	}
	if _, ok := msg.(StartModulesMsg); ok && OnStartModules != nil {
		OnStartModules()
	}
}
