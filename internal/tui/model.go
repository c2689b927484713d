package tui

import (
	"time"

	"deauthwatch/internal/analysis"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// TickMsg triggers a refresh from the aggregator.
type TickMsg time.Time

// historySize is the number of rolled intervals kept in the table.
const historySize = 15

type AnalysisModel struct {
	stats     *analysis.StatsAggregator
	anomalies *analysis.AnomalyDetector
	source    string

	latest  analysis.Snapshot
	history []analysis.Snapshot
	alerts  []analysis.Alert
	table   table.Model
}

func NewAnalysisModel(stats *analysis.StatsAggregator, anomalies *analysis.AnomalyDetector, source string) AnalysisModel {
	columns := []table.Column{
		{Title: "Time", Width: 10},
		{Title: "Packets", Width: 10},
		{Title: "Deauths", Width: 10},
		{Title: "Probes", Width: 10},
		{Title: "Alarm", Width: 6},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(false),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return AnalysisModel{
		stats:     stats,
		anomalies: anomalies,
		source:    source,
		table:     t,
	}
}

func (m AnalysisModel) Init() tea.Cmd {
	return tickCmd()
}

func tickCmd() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// Run starts the dashboard on the alternate screen and blocks until the user
// quits.
func Run(stats *analysis.StatsAggregator, anomalies *analysis.AnomalyDetector, source string) error {
	p := tea.NewProgram(NewAnalysisModel(stats, anomalies, source), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
