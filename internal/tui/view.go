package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFF7DB")).
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1).
			Margin(0, 1)

	alarmStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#D9534F")).
			Padding(0, 1)
)

func (m AnalysisModel) View() string {
	title := titleStyle.Render(fmt.Sprintf("deauthwatch - Monitoring: %s", m.source))

	s := m.latest

	// Counters Panel
	minPackets, minDeauths := "-", "-"
	if s.HasExtrema() {
		minPackets = fmt.Sprintf("%d", s.MinPackets)
		minDeauths = fmt.Sprintf("%d", s.MinDeauths)
	}
	counters := fmt.Sprintf("%-8s %8s %8s %8s %10s\n", "", "SEEN", "MAX", "MIN", "TOTAL")
	counters += fmt.Sprintf("%-8s %8d %8d %8s %10d\n", "PACKETS", s.PacketsThisInterval, s.MaxPackets, minPackets, s.TotalPackets)
	counters += fmt.Sprintf("%-8s %8d %8d %8s %10d\n", "DEAUTHS", s.DeauthsThisInterval, s.MaxDeauths, minDeauths, s.TotalDeauths)
	counters += fmt.Sprintf("%-8s %8d %8s %8s %10d", "PROBES", s.ProbesThisInterval, "", "", s.TotalProbes)
	countersBox := infoStyle.Render(counters)

	// Alerts
	var alertStrs []string
	for _, a := range m.alerts {
		alertStrs = append(alertStrs, fmt.Sprintf("%s %s", a.Timestamp.Format("15:04:05"), a.Message))
	}
	if len(alertStrs) == 0 {
		alertStrs = append(alertStrs, "No alarms yet.")
	}
	alertsBox := infoStyle.Render("Alarms:\n" + strings.Join(alertStrs, "\n"))

	historyBox := infoStyle.Render("Intervals\n" + m.table.View())

	// Layout
	header := title
	if s.Alarmed {
		header = lipgloss.JoinHorizontal(lipgloss.Top, title, " ", alarmStyle.Render("DEAUTH ALARM"))
	}
	row1 := lipgloss.JoinHorizontal(lipgloss.Top, countersBox, alertsBox)
	body := lipgloss.JoinVertical(lipgloss.Left, header, row1, historyBox)

	return body + "\nPress q to quit."
}
