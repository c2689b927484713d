package analysis

import (
	"fmt"
	"sync"
	"time"
)

// AnomalyType represents the type of anomaly detected.
type AnomalyType string

const (
	AnomalyDeauthFlood AnomalyType = "DEAUTH_FLOOD"
	AnomalyProbeFlood  AnomalyType = "PROBE_FLOOD"
)

// DefaultDeauthAlarmThreshold is the number of deauthentication frames per
// interval that may be seen before the alarm trips.
const DefaultDeauthAlarmThreshold = 5

// Config holds configuration for the aggregator and the anomaly detector.
type Config struct {
	DeauthAlarmThreshold uint64 // Deauths per interval, strictly exceeded to alarm
	ProbeAlarmThreshold  uint64 // Probe requests per interval; 0 disables
	MaxAlerts            int    // Alert history size
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		DeauthAlarmThreshold: DefaultDeauthAlarmThreshold,
		ProbeAlarmThreshold:  0,
		MaxAlerts:            20,
	}
}

// Alert represents a detected anomaly.
type Alert struct {
	Type      AnomalyType `json:"type"`
	Count     uint64      `json:"count"`
	Message   string      `json:"message"`
	Timestamp time.Time   `json:"timestamp"`
}

// AnomalyDetector keeps a bounded history of alarms raised by interval
// snapshots.
type AnomalyDetector struct {
	mu sync.Mutex

	config Config

	// Alert History (circular buffer)
	alerts    []Alert
	maxAlerts int
	total     int
}

// NewAnomalyDetector creates a new anomaly detection engine.
func NewAnomalyDetector(cfg Config) *AnomalyDetector {
	maxAlerts := cfg.MaxAlerts
	if maxAlerts <= 0 {
		maxAlerts = 20
	}
	return &AnomalyDetector{
		config:    cfg,
		alerts:    make([]Alert, 0, maxAlerts),
		maxAlerts: maxAlerts,
	}
}

// Evaluate checks a rolled snapshot and records alerts for it. It returns the
// alerts raised by this snapshot.
func (ad *AnomalyDetector) Evaluate(s Snapshot) []Alert {
	ad.mu.Lock()
	defer ad.mu.Unlock()

	var raised []Alert

	if s.Alarmed {
		raised = append(raised, Alert{
			Type:      AnomalyDeauthFlood,
			Count:     s.DeauthsThisInterval,
			Message:   fmt.Sprintf("Deauth alarm: %d deauthentication frames in %s (threshold %d)", s.DeauthsThisInterval, s.Elapsed.Round(time.Millisecond), ad.config.DeauthAlarmThreshold),
			Timestamp: s.Timestamp,
		})
	}

	if ad.config.ProbeAlarmThreshold > 0 && s.ProbesThisInterval > ad.config.ProbeAlarmThreshold {
		raised = append(raised, Alert{
			Type:      AnomalyProbeFlood,
			Count:     s.ProbesThisInterval,
			Message:   fmt.Sprintf("Probe request burst: %d probes in %s", s.ProbesThisInterval, s.Elapsed.Round(time.Millisecond)),
			Timestamp: s.Timestamp,
		})
	}

	for _, a := range raised {
		ad.addAlert(a)
	}
	return raised
}

// addAlert adds an alert to the history (circular buffer).
func (ad *AnomalyDetector) addAlert(alert Alert) {
	ad.alerts = append(ad.alerts, alert)
	ad.total++

	// Keep only last maxAlerts
	if len(ad.alerts) > ad.maxAlerts {
		ad.alerts = ad.alerts[len(ad.alerts)-ad.maxAlerts:]
	}
}

// GetRecentAlerts returns the most recent alerts (thread-safe).
func (ad *AnomalyDetector) GetRecentAlerts(limit int) []Alert {
	ad.mu.Lock()
	defer ad.mu.Unlock()

	if len(ad.alerts) == 0 {
		return []Alert{}
	}

	// Return last N alerts (newest last)
	start := 0
	if limit >= 0 && len(ad.alerts) > limit {
		start = len(ad.alerts) - limit
	}

	// Make a copy to avoid race conditions
	result := make([]Alert, len(ad.alerts)-start)
	copy(result, ad.alerts[start:])

	return result
}

// GetAllAlerts returns the retained alert history.
func (ad *AnomalyDetector) GetAllAlerts() []Alert {
	return ad.GetRecentAlerts(-1)
}

// TotalAlerts returns how many alerts were raised, including ones that have
// since fallen out of the history.
func (ad *AnomalyDetector) TotalAlerts() int {
	ad.mu.Lock()
	defer ad.mu.Unlock()
	return ad.total
}
