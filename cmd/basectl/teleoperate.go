package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/NimbleMarkets/ntcharts/canvas/runes"
	"github.com/NimbleMarkets/ntcharts/linechart/streamlinechart"

	"github.com/zhishengyifeng/community-robot-demos/pkg/base"
	"github.com/zhishengyifeng/community-robot-demos/pkg/teleop"
)

type TeleoperateCommand struct {
	URL            string `long:"url" description:"Base websocket URL (overrides the config file)"`
	PerKeyDebounce bool   `long:"per-key-debounce" description:"Detect each key release on its own timing instead of the shared window"`
}

const (
	headerHeight = 2 // title + blank line
	statusHeight = 3 // status row + notice row + blank
	legendHeight = 2 // legend row + blank
	footerHeight = 7 // log box height
	maxLogs      = 5 // number of log messages to show
	borderSize   = 2 // chart border
)

// Chart colors per velocity axis.
var axisColors = map[string]string{
	"x": "196", // red
	"y": "226", // yellow
	"z": "51",  // cyan
}

var chartAxes = []string{"x", "y", "z"}

var axisLabels = map[string]string{
	"x": "forward m/s",
	"y": "left m/s",
	"z": "turn rad/s",
}

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	chartStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	noticeStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	emergencyStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("1"))
)

type keyMap struct {
	Forward     key.Binding
	Backward    key.Binding
	Left        key.Binding
	Right       key.Binding
	RotateLeft  key.Binding
	RotateRight key.Binding
	Quit        key.Binding
	Interrupt   key.Binding
}

var keys = keyMap{
	Forward:     key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "forward")),
	Backward:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "backward")),
	Left:        key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "left")),
	Right:       key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "right")),
	RotateLeft:  key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "rotate left")),
	RotateRight: key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "rotate right")),
	Quit:        key.NewBinding(key.WithKeys("esc", "c"), key.WithHelp("esc/c", "release and quit")),
	Interrupt:   key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "force quit")),
}

// controlKey maps a terminal key event to a control input.
func controlKey(msg tea.KeyMsg) (teleop.Key, bool) {
	switch {
	case key.Matches(msg, keys.Forward):
		return teleop.KeyForward, true
	case key.Matches(msg, keys.Backward):
		return teleop.KeyBackward, true
	case key.Matches(msg, keys.Left):
		return teleop.KeyLeft, true
	case key.Matches(msg, keys.Right):
		return teleop.KeyRight, true
	case key.Matches(msg, keys.RotateLeft):
		return teleop.KeyRotateLeft, true
	case key.Matches(msg, keys.RotateRight):
		return teleop.KeyRotateRight, true
	}
	return teleop.KeyUnknown, false
}

type teleopModel struct {
	ctrl     *teleop.Controller
	chart    *streamlinechart.Model
	logCh    chan string
	width    int      // terminal width
	height   int      // terminal height
	logs     []string // last N log messages
	snap     teleop.Snapshot
	err      error
	quitting bool
}

func (m *teleopModel) addLog(msg string) {
	m.logs = append(m.logs, msg)
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}
}

// Messages from the controller
type snapshotMsg teleop.Snapshot
type logMsg string
type controllerDoneMsg struct{ err error }

func waitForSnapshot(ctrl *teleop.Controller) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(<-ctrl.Snapshots())
	}
}

func waitForLog(ch chan string) tea.Cmd {
	return func() tea.Msg {
		return logMsg(<-ch)
	}
}

// chartSize calculates the size of the chart based on terminal dimensions
func (m *teleopModel) chartSize() (width, height int) {
	if m.width == 0 || m.height == 0 {
		return 80, 16 // default size before we know terminal size
	}
	width = m.width - borderSize - 2
	if width < 40 {
		width = 40
	}
	height = m.height - headerHeight - statusHeight - legendHeight - footerHeight - borderSize
	if height < 8 {
		height = 8
	}
	return width, height
}

func (m *teleopModel) resizeChart() {
	w, h := m.chartSize()
	m.chart.Resize(w, h)
}

func initialTeleopModel(ctrl *teleop.Controller, logCh chan string) teleopModel {
	chart := streamlinechart.New(80, 16,
		streamlinechart.WithYRange(-1, 1),
	)

	for _, axis := range chartAxes {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(axisColors[axis]))
		chart.SetDataSetStyles(axis, runes.ThinLineStyle, style)
	}

	return teleopModel{
		ctrl:  ctrl,
		chart: &chart,
		logCh: logCh,
	}
}

func (m teleopModel) Init() tea.Cmd {
	return tea.Batch(
		waitForSnapshot(m.ctrl),
		waitForLog(m.logCh),
	)
}

func (m teleopModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeChart()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Interrupt):
			// Hard exit: no release command, the base's holder
			// timeout cleans up.
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, keys.Quit):
			// Graceful exit: the control loop releases authority and
			// reports back with controllerDoneMsg.
			m.ctrl.Press(teleop.KeyQuit)
			return m, nil
		default:
			if k, ok := controlKey(msg); ok {
				m.ctrl.Press(k)
			}
		}

	case snapshotMsg:
		snap := teleop.Snapshot(msg)
		m.snap = snap
		m.chart.PushDataSet("x", float64(snap.Target.X))
		m.chart.PushDataSet("y", float64(snap.Target.Y))
		m.chart.PushDataSet("z", float64(snap.Target.Z))
		m.chart.DrawAll()
		return m, waitForSnapshot(m.ctrl)

	case logMsg:
		m.addLog(string(msg))
		return m, waitForLog(m.logCh)

	case controllerDoneMsg:
		m.err = msg.err
		m.quitting = true
		return m, tea.Quit
	}

	return m, nil
}

func (m teleopModel) View() string {
	if m.quitting {
		return "Teleoperation stopped.\n"
	}

	var sb strings.Builder

	// Header
	sb.WriteString(titleStyle.Render("basectl teleoperate"))
	if id := m.ctrl.SessionID(); id != 0 {
		sb.WriteString(statusStyle.Render(fmt.Sprintf("  session %d", id)))
	}
	if m.width > 0 {
		sb.WriteString(statusStyle.Render(fmt.Sprintf("  [%dx%d]", m.width, m.height)))
	}
	sb.WriteString("\n\n")

	// Chart
	sb.WriteString(chartStyle.Render(m.chart.View()))
	sb.WriteString("\n")

	// Legend
	sb.WriteString(renderLegend())
	sb.WriteString("\n\n")

	// Status
	sb.WriteString(renderStatus(m.snap))
	sb.WriteString("\n")
	sb.WriteString(renderNotice(m.snap))
	sb.WriteString("\n")

	// Log box
	logStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Width(m.width - 4)

	var logLines string
	if len(m.logs) == 0 {
		logLines = statusStyle.Render("w/a/s/d drive · q/e rotate · esc/c release and quit · ctrl+c force quit")
	} else {
		logLines = strings.Join(m.logs, "\n")
	}
	sb.WriteString(logStyle.Render(logLines))
	sb.WriteString("\n")

	return sb.String()
}

func renderLegend() string {
	var items []string
	for _, axis := range chartAxes {
		colorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(axisColors[axis])).Bold(true)
		item := colorStyle.Render("━━") + " " + axis + " " + statusStyle.Render(axisLabels[axis])
		items = append(items, item)
	}
	return strings.Join(items, "  ")
}

// stateStyle color-codes the control state: green when driving, yellow
// while acquiring, red when someone else holds control.
func stateStyle(s teleop.ControlState) lipgloss.Style {
	switch s {
	case teleop.CanMove:
		return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	case teleop.Uninitialized:
		return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	default:
		return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	}
}

func renderStatus(snap teleop.Snapshot) string {
	parts := []string{
		statusStyle.Render("state: ") + stateStyle(snap.State).Render(snap.State.String()),
		statusStyle.Render("target: " + fmtSpeed(snap.Target)),
	}
	if snap.HasActual {
		parts = append(parts, statusStyle.Render("actual: "+fmtSpeed(snap.Actual)))
	}
	if len(snap.HeldKeys) > 0 {
		names := make([]string, len(snap.HeldKeys))
		for i, k := range snap.HeldKeys {
			names[i] = k.String()
		}
		parts = append(parts, statusStyle.Render("keys: "+strings.Join(names, " ")))
	}
	return strings.Join(parts, statusStyle.Render("  |  "))
}

func renderNotice(snap teleop.Snapshot) string {
	switch {
	case snap.Emergency:
		return emergencyStyle.Render(" EMERGENCY STOP ") + "  " + noticeStyle.Render(snap.Notice.Message)
	case snap.Notice.Message != "":
		return noticeStyle.Render(snap.Notice.Message)
	default:
		return ""
	}
}

func fmtSpeed(s teleop.Speed) string {
	return fmt.Sprintf("x %+.2f y %+.2f z %+.2f", s.X, s.Y, s.Z)
}

// logWriter forwards rendered log lines to the TUI's log box. It never
// blocks; a full channel just drops the line, the file still has it.
type logWriter struct {
	ch chan string
}

func (w logWriter) Write(p []byte) (int, error) {
	select {
	case w.ch <- strings.TrimRight(string(p), "\n"):
	default:
	}
	return len(p), nil
}

func (c *TeleoperateCommand) Execute(args []string) error {
	cfg, err := base.LoadConfig()
	if err != nil {
		if c.URL == "" {
			fmt.Fprintln(os.Stderr, "No configuration found. Run 'basectl setup' first.")
			os.Exit(1)
		}
		cfg = base.DefaultConfig()
	}
	if c.URL != "" {
		cfg.URL = c.URL
	}
	if cfg.URL == "" {
		fmt.Fprintln(os.Stderr, "Base URL not configured. Run 'basectl setup' first.")
		os.Exit(1)
	}

	logPath := fmt.Sprintf("basectl.%s.log", time.Now().Format("20060102_150405"))
	logFile, err := os.Create(logPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating log file: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()

	logCh := make(chan string, 16)
	logger := zerolog.New(zerolog.MultiLevelWriter(
		zerolog.ConsoleWriter{Out: logFile, TimeFormat: time.RFC3339, NoColor: true},
		zerolog.ConsoleWriter{Out: logWriter{ch: logCh}, TimeFormat: "15:04:05", NoColor: true},
	)).With().Timestamp().Logger()

	policy := teleop.SharedWindow
	if c.PerKeyDebounce {
		policy = teleop.PerKeyWindow
	}

	ctrl, err := teleop.NewController(teleop.Config{
		URL:          cfg.URL,
		LinearSpeed:  cfg.LinearSpeed,
		AngularSpeed: cfg.AngularSpeed,
		Eviction:     policy,
		Logger:       logger,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to %s: %v\n", cfg.URL, err)
		os.Exit(1)
	}
	defer ctrl.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := tea.NewProgram(initialTeleopModel(ctrl, logCh), tea.WithAltScreen())

	go func() {
		p.Send(controllerDoneMsg{err: ctrl.Start(ctx)})
	}()

	finalModel, err := p.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}

	if m, ok := finalModel.(teleopModel); ok {
		if m.err != nil && !errors.Is(m.err, context.Canceled) {
			fmt.Fprintf(os.Stderr, "Control session ended: %v\n", m.err)
			os.Exit(1)
		}
	}

	fmt.Printf("Log written to %s\n", logPath)
	return nil
}
