package reporting

import (
	"fmt"
	"html"
	"os"
	"path/filepath"
	"time"

	"deauthwatch/internal/analysis"
)

// GenerateSessionReport generates a report of the session's activity in dir.
// Currently supports "html" format.
func GenerateSessionReport(stats *analysis.StatsAggregator, anomalies *analysis.AnomalyDetector, dir, format string) (string, error) {
	if format != "html" {
		return "", fmt.Errorf("unsupported format: %s", format)
	}

	timestamp := time.Now().Format("20060102_150405")
	filename := filepath.Join(dir, fmt.Sprintf("report_%s.html", timestamp))

	file, err := os.Create(filename)
	if err != nil {
		return "", err
	}
	defer file.Close()

	// Gather data
	snap := stats.Latest()
	alerts := anomalies.GetAllAlerts()

	minPackets, minDeauths := "-", "-"
	if snap.HasExtrema() {
		minPackets = fmt.Sprintf("%d", snap.MinPackets)
		minDeauths = fmt.Sprintf("%d", snap.MinDeauths)
	}

	// Generate HTML content
	page := fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>deauthwatch Session Report - %s</title>
    <style>
        body { font-family: sans-serif; margin: 20px; color: #333; }
        h1, h2 { color: #2c3e50; }
        table { width: 100%%; border-collapse: collapse; margin-bottom: 20px; }
        th, td { border: 1px solid #ddd; padding: 8px; text-align: left; }
        th { background-color: #f2f2f2; }
        tr:nth-child(even) { background-color: #f9f9f9; }
        .summary { background: #eef; padding: 15px; border-radius: 5px; margin-bottom: 20px; }
        .alert { color: #d9534f; font-weight: bold; }
    </style>
</head>
<body>
    <h1>deauthwatch Session Report</h1>
    <div class="summary">
        <p><strong>Date:</strong> %s</p>
        <p><strong>Intervals:</strong> %d</p>
        <p><strong>Alarm threshold:</strong> %d deauths per interval</p>
    </div>

    <h2>Frame Counters</h2>
    <table>
        <thead>
            <tr>
                <th></th>
                <th>Last Interval</th>
                <th>Max</th>
                <th>Min</th>
                <th>Total</th>
            </tr>
        </thead>
        <tbody>
            <tr><td>Packets</td><td>%d</td><td>%d</td><td>%s</td><td>%d</td></tr>
            <tr><td>Deauths</td><td>%d</td><td>%d</td><td>%s</td><td>%d</td></tr>
            <tr><td>Probe requests</td><td>%d</td><td></td><td></td><td>%d</td></tr>
        </tbody>
    </table>

    <h2>Alarms</h2>
    <table>
        <thead>
            <tr>
                <th>Time</th>
                <th>Type</th>
                <th>Count</th>
                <th>Message</th>
            </tr>
        </thead>
        <tbody>
`, timestamp, time.Now().Format(time.RFC1123), snap.Intervals, stats.Threshold(),
		snap.PacketsThisInterval, snap.MaxPackets, minPackets, snap.TotalPackets,
		snap.DeauthsThisInterval, snap.MaxDeauths, minDeauths, snap.TotalDeauths,
		snap.ProbesThisInterval, snap.TotalProbes)

	if len(alerts) == 0 {
		page += "            <tr><td colspan=\"4\">No alarms triggered during this session.</td></tr>\n"
	} else {
		for _, alert := range alerts {
			page += fmt.Sprintf("            <tr><td>%s</td><td class=\"alert\">%s</td><td>%d</td><td>%s</td></tr>\n",
				alert.Timestamp.Format("15:04:05"), alert.Type, alert.Count, html.EscapeString(alert.Message))
		}
	}

	page += `        </tbody>
    </table>
</body>
</html>`

	_, err = file.WriteString(page)
	if err != nil {
		return "", err
	}

	return filename, nil
}
