// Package tui is a terminal control panel over a dashboard.Session.
// It shows the same controls and plots as the web panel, drawn as text.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/teslashibe/go-rover/pkg/dashboard"
	"github.com/teslashibe/go-rover/pkg/render"
	"github.com/teslashibe/go-rover/pkg/rover"
)

const (
	gridCols = 41
	gridRows = 21

	// sparkWidth is how many recent battery samples the sparkline shows.
	sparkWidth = 30
)

var (
	accent    = lipgloss.Color("#50E3C2")
	highlight = lipgloss.Color("#F6AE2D")
	muted     = lipgloss.Color("#8CA1AE")
	warning   = lipgloss.Color("#FF6B6B")
	border    = lipgloss.Color("#2D6A80")

	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(accent)
	labelStyle = lipgloss.NewStyle().Foreground(muted)
	valueStyle = lipgloss.NewStyle().Bold(true).Foreground(highlight)
	errorStyle = lipgloss.NewStyle().Bold(true).Foreground(warning)
	helpStyle  = lipgloss.NewStyle().Foreground(muted)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(border).
			Padding(0, 1)
)

// Panel is the session surface the terminal panel drives.
type Panel interface {
	View() dashboard.View
	Refresh(ctx context.Context) (dashboard.View, error)
	AutoMode() bool
	SetAutoMode(on bool)
	Move(ctx context.Context, dir rover.Direction) error
	Stop(ctx context.Context) error
	Restart(ctx context.Context) error
}

var _ Panel = (*dashboard.Session)(nil)

type tickMsg time.Time

type refreshedMsg struct {
	view dashboard.View
	err  error
}

type commandMsg struct {
	name string
	err  error
}

// Model is the Bubble Tea model of the terminal panel.
type Model struct {
	ctx      context.Context
	panel    Panel
	interval time.Duration

	view   dashboard.View
	status string
	width  int
}

// New creates a panel refreshing every interval.
func New(ctx context.Context, panel Panel, interval time.Duration) Model {
	return Model{
		ctx:      ctx,
		panel:    panel,
		interval: interval,
		view:     panel.View(),
	}
}

// Init starts the first refresh and the tick timer.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.refresh(), m.tick())
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) refresh() tea.Cmd {
	return func() tea.Msg {
		v, err := m.panel.Refresh(m.ctx)
		return refreshedMsg{view: v, err: err}
	}
}

func (m Model) command(name string, call func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return commandMsg{name: name, err: call(m.ctx)}
	}
}

// Update handles keys, ticks and command results.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.refresh(), m.tick())

	case refreshedMsg:
		// A failed refresh still returns the previous view with LastError set.
		if msg.err == nil || msg.view.Cycle > 0 {
			m.view = msg.view
		}
		return m, nil

	case commandMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("%s failed: %v", msg.name, msg.err)
			return m, nil
		}
		m.status = msg.name
		return m, m.refresh()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	stop := msg.Type == tea.KeySpace || key == " "
	switch key {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "m":
		auto := !m.panel.AutoMode()
		m.panel.SetAutoMode(auto)
		m.view = m.panel.View()
		m.status = "manual mode"
		if auto {
			m.status = "auto mode"
		}
		return m, m.refresh()

	case "r":
		return m, m.command("new session", m.panel.Restart)
	}

	if m.panel.AutoMode() {
		if _, ok := keyDirection(key); ok || stop {
			m.status = "manual controls are disabled in auto mode (press m)"
		}
		return m, nil
	}

	if dir, ok := keyDirection(key); ok {
		return m, m.command("move "+string(dir), func(ctx context.Context) error {
			return m.panel.Move(ctx, dir)
		})
	}
	if stop {
		return m, m.command("stop", m.panel.Stop)
	}
	return m, nil
}

func keyDirection(key string) (rover.Direction, bool) {
	switch key {
	case "up", "w":
		return rover.Forward, true
	case "down", "s":
		return rover.Backward, true
	case "left", "a":
		return rover.Left, true
	case "right", "d":
		return rover.Right, true
	}
	return "", false
}

// View draws the sidebar and the main panel side by side.
func (m Model) View() string {
	main := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Rover Movement Map"),
		panelStyle.Render(strings.Join(render.Grid(m.view.History, gridCols, gridRows), "\n")),
		titleStyle.Render("Battery Level Over Time"),
		panelStyle.Render(sparkline(m.view.History.Battery, sparkWidth)),
		titleStyle.Render("Sensor Data"),
		panelStyle.Render(m.sensor()),
	)

	page := lipgloss.JoinHorizontal(lipgloss.Top, m.sidebar(), " ", main)
	if m.view.LastError != "" {
		page = lipgloss.JoinVertical(lipgloss.Left, errorStyle.Render("error: "+m.view.LastError), page)
	}
	return page + "\n"
}

func (m Model) sidebar() string {
	v := m.view
	mode := "manual"
	if v.AutoMode {
		mode = "auto"
	}

	lines := []string{
		titleStyle.Render("Rover Controls"),
		"",
		labelStyle.Render("session  ") + string(v.SessionID),
		labelStyle.Render("mode     ") + valueStyle.Render(mode),
		labelStyle.Render("refresh  ") + fmt.Sprint(v.Cycle),
	}
	if current, battery, ok := v.History.Last(); ok {
		lines = append(lines,
			labelStyle.Render("position ")+fmt.Sprintf("(%.0f, %.0f)", current.X, current.Y),
			labelStyle.Render("battery  ")+valueStyle.Render(fmt.Sprintf("%.0f%%", battery)),
		)
	}
	if v.LastAction != nil {
		lines = append(lines, labelStyle.Render("pilot    ")+v.LastAction.String())
	}
	if m.status != "" {
		lines = append(lines, "", m.status)
	}

	lines = append(lines, "", helpStyle.Render("m      toggle auto"))
	if !v.AutoMode {
		lines = append(lines,
			helpStyle.Render("↑/w    forward"),
			helpStyle.Render("↓/s    backward"),
			helpStyle.Render("←/a    left"),
			helpStyle.Render("→/d    right"),
			helpStyle.Render("space  stop"),
		)
	}
	lines = append(lines,
		helpStyle.Render("r      new session"),
		helpStyle.Render("q      quit"),
	)
	return panelStyle.Width(30).Render(strings.Join(lines, "\n"))
}

func (m Model) sensor() string {
	data, err := render.SensorJSON(m.view.Sensor)
	if err != nil {
		return errorStyle.Render(err.Error())
	}
	return string(data)
}

var sparkBlocks = []rune("▁▂▃▄▅▆▇█")

// sparkline draws the last width values on a 0..100 scale.
func sparkline(values []float64, width int) string {
	if len(values) == 0 {
		return labelStyle.Render("no data yet")
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}
	var b strings.Builder
	for _, v := range values {
		i := int(v / 100 * float64(len(sparkBlocks)-1))
		if i < 0 {
			i = 0
		}
		if i >= len(sparkBlocks) {
			i = len(sparkBlocks) - 1
		}
		b.WriteRune(sparkBlocks[i])
	}
	return fmt.Sprintf("%s %.0f%%", b.String(), values[len(values)-1])
}
