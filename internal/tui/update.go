package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
)

func (m AnalysisModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case TickMsg:
		snap := m.stats.Latest()
		if snap.Intervals != m.latest.Intervals {
			m.history = append(m.history, snap)
			if len(m.history) > historySize {
				m.history = m.history[len(m.history)-historySize:]
			}
		}
		m.latest = snap
		m.alerts = m.anomalies.GetRecentAlerts(5)

		// Newest interval first
		rows := make([]table.Row, len(m.history))
		for i, s := range m.history {
			alarm := ""
			if s.Alarmed {
				alarm = "!"
			}
			rows[len(m.history)-1-i] = table.Row{
				s.Timestamp.Format("15:04:05"),
				fmt.Sprintf("%d", s.PacketsThisInterval),
				fmt.Sprintf("%d", s.DeauthsThisInterval),
				fmt.Sprintf("%d", s.ProbesThisInterval),
				alarm,
			}
		}
		m.table.SetRows(rows)

		return m, tickCmd()
	}

	m.table, cmd = m.table.Update(msg)
	return m, cmd
}
