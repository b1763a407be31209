package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/NimbleMarkets/ntcharts/canvas/runes"
	"github.com/NimbleMarkets/ntcharts/linechart/streamlinechart"

	"github.com/gwillem/roomba/pkg/dispatch"
	"github.com/gwillem/roomba/pkg/oi"
	"github.com/gwillem/roomba/pkg/sequence"
)

const (
	headerHeight = 4 // title, sequence, blank
	footerHeight = 7 // log box height
	maxLogs      = 5
	borderSize   = 2
	tickInterval = 100 * time.Millisecond
	velocitySet  = "velocity"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	chartStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240"))
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	currentStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
)

type stateMsg dispatch.State
type doneMsg struct{ err error }
type tickMsg time.Time

type execModel struct {
	dispatcher *dispatch.Dispatcher
	cmds       []sequence.Command
	cancel     context.CancelFunc
	chart      *streamlinechart.Model
	width      int
	height     int
	current    int
	velocity   int
	logs       []string
	done       bool
	err        error
}

func newExecModel(d *dispatch.Dispatcher, cmds []sequence.Command, cancel context.CancelFunc) execModel {
	chart := streamlinechart.New(80, 15,
		streamlinechart.WithYRange(oi.MinVelocity, oi.MaxVelocity),
	)
	chart.SetDataSetStyles(velocitySet, runes.ThinLineStyle, lipgloss.NewStyle().Foreground(lipgloss.Color("51")))

	return execModel{
		dispatcher: d,
		cmds:       cmds,
		cancel:     cancel,
		chart:      &chart,
		current:    -1,
	}
}

func waitForState(d *dispatch.Dispatcher) tea.Cmd {
	return func() tea.Msg {
		return stateMsg(<-d.States())
	}
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *execModel) addLog(msg string) {
	m.logs = append(m.logs, msg)
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}
}

func (m *execModel) resizeChart() {
	w := m.width - borderSize - 2
	if w < 40 {
		w = 40
	}
	h := m.height - headerHeight - footerHeight - borderSize
	if h < 8 {
		h = 8
	}
	m.chart.Resize(w, h)
}

func (m execModel) Init() tea.Cmd {
	return tea.Batch(waitForState(m.dispatcher), tick())
}

func (m execModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeChart()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if !m.done {
				m.cancel()
				m.addLog("cancelling...")
				return m, nil
			}
			return m, tea.Quit
		}

	case tickMsg:
		if m.done {
			return m, nil
		}
		// Keep the chart scrolling while a command holds.
		m.chart.PushDataSet(velocitySet, float64(m.velocity))
		m.chart.DrawAll()
		return m, tick()

	case stateMsg:
		s := dispatch.State(msg)
		m.current = s.Index
		m.velocity = s.Velocity
		switch s.Phase {
		case dispatch.PhaseHolding:
			m.addLog(fmt.Sprintf("%s  %s for %s", s.Timestamp.Format("15:04:05"), s.Command.Action, s.Command.Duration))
		case dispatch.PhaseDone:
			m.addLog(fmt.Sprintf("%s  %s done", s.Timestamp.Format("15:04:05"), s.Command))
		case dispatch.PhaseAborted:
			m.addLog(errorStyle.Render(fmt.Sprintf("aborted at %s: %v", s.Command, s.Err)))
		}
		if s.Phase == dispatch.PhaseFinished || s.Phase == dispatch.PhaseAborted {
			return m, nil
		}
		return m, waitForState(m.dispatcher)

	case doneMsg:
		m.done = true
		m.err = msg.err
		m.velocity = 0
		if msg.err == nil {
			m.addLog(successStyle.Render("sequence complete, press q to exit"))
		} else {
			m.addLog(errorStyle.Render(msg.err.Error()))
		}
		return m, nil
	}

	return m, nil
}

func (m execModel) View() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("Roomba Exec"))
	sb.WriteString(statusStyle.Render(fmt.Sprintf("  %d mm/s", m.velocity)))
	sb.WriteString("\n")
	sb.WriteString(m.renderSequence())
	sb.WriteString("\n\n")

	sb.WriteString(chartStyle.Render(m.chart.View()))
	sb.WriteString("\n")

	logStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240"))
	if m.width > 4 {
		logStyle = logStyle.Width(m.width - 4)
	}

	logLines := statusStyle.Render("Press 'q' to stop")
	if len(m.logs) > 0 {
		logLines = strings.Join(m.logs, "\n")
	}
	sb.WriteString(logStyle.Render(logLines))
	sb.WriteString("\n")

	return sb.String()
}

// renderSequence highlights the command being executed.
func (m execModel) renderSequence() string {
	parts := make([]string, len(m.cmds))
	for i, cmd := range m.cmds {
		switch {
		case i == m.current && !m.done:
			parts[i] = currentStyle.Render(cmd.String())
		case i < m.current:
			parts[i] = dimStyle.Render(cmd.String())
		default:
			parts[i] = cmd.String()
		}
	}
	return strings.Join(parts, " ")
}
