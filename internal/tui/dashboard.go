package tui

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Stats is a concurrency-safe counter bundle the fuzzer loop updates in
// place; the dashboard only ever reads a Snapshot of it.
type Stats struct {
	executions atomic.Uint64
	corpusSize atomic.Uint64
	edges      atomic.Uint64
	crashes    atomic.Uint64
	timeouts   atomic.Uint64
	startedAt  time.Time
}

// NewStats returns a Stats bundle with its clock started now.
func NewStats() *Stats { return &Stats{startedAt: time.Now()} }

func (s *Stats) IncExecutions()          { s.executions.Add(1) }
func (s *Stats) SetCorpusSize(n int)     { s.corpusSize.Store(uint64(n)) }
func (s *Stats) SetEdges(n int)          { s.edges.Store(uint64(n)) }
func (s *Stats) IncCrashes()             { s.crashes.Add(1) }
func (s *Stats) IncTimeouts()            { s.timeouts.Add(1) }

// Snapshot is a point-in-time, render-friendly copy of Stats.
type Snapshot struct {
	Executions uint64
	CorpusSize uint64
	Edges      uint64
	Crashes    uint64
	Timeouts   uint64
	Uptime     time.Duration
	ExecPerSec float64
}

func (s *Stats) Snapshot() Snapshot {
	uptime := time.Since(s.startedAt)
	execs := s.executions.Load()
	rate := 0.0
	if uptime > 0 {
		rate = float64(execs) / uptime.Seconds()
	}
	return Snapshot{
		Executions: execs,
		CorpusSize: s.corpusSize.Load(),
		Edges:      s.edges.Load(),
		Crashes:    s.crashes.Load(),
		Timeouts:   s.timeouts.Load(),
		Uptime:     uptime,
		ExecPerSec: rate,
	}
}

// Dashboard is the bubbletea model for the live fuzzing view.
type Dashboard struct {
	width, height int
	running       bool
	target        string
	stats         *Stats
	requestExit   func()
}

// NewDashboard returns a Dashboard bound to stats. requestExit is called
// when the user asks to quit, so the fuzzer loop can stop cleanly instead of
// the process being killed mid-input.
func NewDashboard(target string, stats *Stats, requestExit func()) *Dashboard {
	return &Dashboard{
		width: 80, height: 24,
		running:     true,
		target:      target,
		stats:       stats,
		requestExit: requestExit,
	}
}

type tickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (d *Dashboard) Init() tea.Cmd {
	return tea.Batch(tickCmd(), tea.EnterAltScreen)
}

func (d *Dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			d.running = false
			if d.requestExit != nil {
				d.requestExit()
			}
			return d, tea.Quit
		}
	case tea.WindowSizeMsg:
		d.width, d.height = msg.Width, msg.Height
	case tickMsg:
		return d, tickCmd()
	}
	return d, nil
}

func (d *Dashboard) View() string {
	if d.width == 0 {
		return "Loading..."
	}

	snap := d.stats.Snapshot()

	status := RunningStyle.Render("● RUNNING")
	if !d.running {
		status = StoppedStyle.Render("■ STOPPED")
	}

	header := TitleStyle.Render("⚡ hoedur") + "  " + status
	if d.target != "" {
		header += "  " + LabelStyle.Render("target:") + " " + ValueStyle.Render(d.target)
	}

	var stats strings.Builder
	stats.WriteString(renderLabelValue("executions", fmt.Sprintf("%d", snap.Executions)))
	stats.WriteString("\n")
	stats.WriteString(renderLabelValue("exec/s", fmt.Sprintf("%.1f", snap.ExecPerSec)))
	stats.WriteString("\n")
	stats.WriteString(renderLabelValue("corpus size", fmt.Sprintf("%d", snap.CorpusSize)))
	stats.WriteString("\n")
	stats.WriteString(renderLabelValue("edges covered", fmt.Sprintf("%d", snap.Edges)))
	stats.WriteString("\n")
	stats.WriteString(LabelStyle.Render("crashes:") + " " + CrashStyle.Render(fmt.Sprintf("%d", snap.Crashes)))
	stats.WriteString("\n")
	stats.WriteString(LabelStyle.Render("timeouts:") + " " + TimeoutStyle.Render(fmt.Sprintf("%d", snap.Timeouts)))
	stats.WriteString("\n")
	stats.WriteString(renderLabelValue("uptime", snap.Uptime.Truncate(time.Second).String()))

	panel := PanelStyle.Width(d.width - 4).Render(stats.String())

	footer := FooterStyle.Render(renderHelp("q", "quit"))

	return lipgloss.JoinVertical(lipgloss.Left, header, panel, footer)
}

// Run starts the TUI in the alt screen, blocking until the user quits.
func Run(d *Dashboard) error {
	_, err := tea.NewProgram(d, tea.WithAltScreen()).Run()
	return err
}
