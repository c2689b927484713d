package analysis

import (
	"math"
	"sync"
	"time"

	"deauthwatch/internal/dot11"
)

// Snapshot is the read-only view handed to reporting sinks after each
// interval roll.
type Snapshot struct {
	PacketsThisInterval uint64 `json:"packets_this_interval"`
	DeauthsThisInterval uint64 `json:"deauths_this_interval"`
	ProbesThisInterval  uint64 `json:"probes_this_interval"`

	TotalPackets uint64 `json:"total_packets"`
	TotalDeauths uint64 `json:"total_deauths"`
	TotalProbes  uint64 `json:"total_probes"`

	MaxPackets uint64 `json:"max_packets"`
	MaxDeauths uint64 `json:"max_deauths"`
	MinPackets uint64 `json:"min_packets"`
	MinDeauths uint64 `json:"min_deauths"`

	Alarmed   bool          `json:"alarmed"`
	Intervals uint64        `json:"intervals"` // Number of rolls so far, including this one
	Elapsed   time.Duration `json:"elapsed_ns"`
	Timestamp time.Time     `json:"timestamp"`
}

// HasExtrema reports whether at least one interval has been rolled, i.e.
// whether the Min fields hold observed values.
func (s Snapshot) HasExtrema() bool {
	return s.Intervals > 0
}

// counterWindow is the only shared mutable state of the monitor.
type counterWindow struct {
	packets uint64
	deauths uint64
	probes  uint64

	totalPackets uint64
	totalDeauths uint64
	totalProbes  uint64
	maxPackets   uint64
	maxDeauths   uint64
	minPackets   uint64
	minDeauths   uint64
}

// StatsAggregator counts classified frames per interval and over the lifetime
// of the process.
type StatsAggregator struct {
	mu       sync.Mutex
	config   Config
	window   counterWindow
	lastTick time.Time
	rolls    uint64
	latest   Snapshot
	alarmed  bool
}

// NewStatsAggregator creates a new StatsAggregator instance.
func NewStatsAggregator(cfg Config) *StatsAggregator {
	now := time.Now()
	s := &StatsAggregator{
		config:   cfg,
		lastTick: now,
		window: counterWindow{
			minPackets: math.MaxUint64,
			minDeauths: math.MaxUint64,
		},
	}
	s.latest = Snapshot{
		MinPackets: math.MaxUint64,
		MinDeauths: math.MaxUint64,
		Timestamp:  now,
	}
	return s
}

// OnFrame records one classified frame in the current interval.
func (s *StatsAggregator) OnFrame(kind dot11.EventKind) {
	s.mu.Lock()
	s.window.packets++
	switch kind {
	case dot11.Deauthentication:
		s.window.deauths++
	case dot11.ProbeRequest:
		s.window.probes++
	}
	s.mu.Unlock()
}

// RollInterval closes the current interval: its counts are folded into the
// lifetime totals and extrema, the alarm is evaluated and the interval
// counters start again from zero.
func (s *StatsAggregator) RollInterval() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	w := &s.window

	packets, deauths, probes := w.packets, w.deauths, w.probes
	w.packets, w.deauths, w.probes = 0, 0, 0

	w.totalPackets += packets
	w.totalDeauths += deauths
	w.totalProbes += probes

	if packets > w.maxPackets {
		w.maxPackets = packets
	}
	if packets < w.minPackets {
		w.minPackets = packets
	}
	if deauths > w.maxDeauths {
		w.maxDeauths = deauths
	}
	if deauths < w.minDeauths {
		w.minDeauths = deauths
	}

	s.alarmed = deauths > s.config.DeauthAlarmThreshold
	s.rolls++

	s.latest = Snapshot{
		PacketsThisInterval: packets,
		DeauthsThisInterval: deauths,
		ProbesThisInterval:  probes,
		TotalPackets:        w.totalPackets,
		TotalDeauths:        w.totalDeauths,
		TotalProbes:         w.totalProbes,
		MaxPackets:          w.maxPackets,
		MaxDeauths:          w.maxDeauths,
		MinPackets:          w.minPackets,
		MinDeauths:          w.minDeauths,
		Alarmed:             s.alarmed,
		Intervals:           s.rolls,
		Elapsed:             now.Sub(s.lastTick),
		Timestamp:           now,
	}
	s.lastTick = now

	return s.latest
}

// IsAlarmed reports whether the most recently rolled interval saw more
// deauthentication frames than the configured threshold.
func (s *StatsAggregator) IsAlarmed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alarmed
}

// Latest returns the snapshot produced by the last RollInterval call.
func (s *StatsAggregator) Latest() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest
}

// Pending returns the packet count of the interval in progress.
func (s *StatsAggregator) Pending() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.window.packets
}

// Threshold returns the configured deauth alarm threshold.
func (s *StatsAggregator) Threshold() uint64 {
	return s.config.DeauthAlarmThreshold
}
