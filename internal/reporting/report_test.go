package reporting

import (
	"os"
	"strings"
	"testing"

	"deauthwatch/internal/analysis"
	"deauthwatch/internal/dot11"
)

func TestGenerateSessionReport(t *testing.T) {
	// Setup stats
	cfg := analysis.DefaultConfig()
	stats := analysis.NewStatsAggregator(cfg)
	anomalies := analysis.NewAnomalyDetector(cfg)

	// Simulate some traffic
	for i := 0; i < 8; i++ {
		stats.OnFrame(dot11.Deauthentication)
	}
	stats.OnFrame(dot11.ProbeRequest)
	stats.OnFrame(dot11.Other)
	anomalies.Evaluate(stats.RollInterval())

	stats.OnFrame(dot11.Other)
	anomalies.Evaluate(stats.RollInterval())

	// Generate report
	filename, err := GenerateSessionReport(stats, anomalies, t.TempDir(), "html")
	if err != nil {
		t.Fatalf("Failed to generate report: %v", err)
	}

	// Read content
	content, err := os.ReadFile(filename)
	if err != nil {
		t.Fatalf("Failed to read report file: %v", err)
	}
	html := string(content)

	// Verify content
	if !strings.Contains(html, "deauthwatch Session Report") {
		t.Error("Report missing title")
	}
	if !strings.Contains(html, "<tr><td>Packets</td><td>1</td><td>10</td><td>1</td><td>11</td></tr>") {
		t.Error("Report missing packet counters")
	}
	if !strings.Contains(html, "<tr><td>Deauths</td><td>0</td><td>8</td><td>0</td><td>8</td></tr>") {
		t.Error("Report missing deauth counters")
	}
	if !strings.Contains(html, string(analysis.AnomalyDeauthFlood)) {
		t.Error("Report missing alarm")
	}
}

func TestGenerateSessionReportUnsupportedFormat(t *testing.T) {
	cfg := analysis.DefaultConfig()
	_, err := GenerateSessionReport(analysis.NewStatsAggregator(cfg), analysis.NewAnomalyDetector(cfg), t.TempDir(), "pdf")
	if err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestGenerateSessionReportBeforeFirstRoll(t *testing.T) {
	cfg := analysis.DefaultConfig()
	filename, err := GenerateSessionReport(analysis.NewStatsAggregator(cfg), analysis.NewAnomalyDetector(cfg), t.TempDir(), "html")
	if err != nil {
		t.Fatalf("Failed to generate report: %v", err)
	}
	content, _ := os.ReadFile(filename)
	if !strings.Contains(string(content), "No alarms triggered during this session.") {
		t.Error("Report should state that no alarms were raised")
	}
	if !strings.Contains(string(content), "<td>-</td>") {
		t.Error("Report should hide unset minimums")
	}
}
