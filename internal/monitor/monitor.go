// Package monitor connects a capture source to the frame classifier and the
// interval statistics, and drives the periodic interval roll.
package monitor

import (
	"context"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"deauthwatch/internal/analysis"
	"deauthwatch/internal/capture"
	"deauthwatch/internal/dot11"
	"deauthwatch/internal/log"
	"deauthwatch/internal/models"
)

// probeDumpBytes is how much of a probe request header is dumped at debug
// level.
const probeDumpBytes = 32

// Sink consumes a snapshot after every interval roll.
type Sink interface {
	Report(analysis.Snapshot) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(analysis.Snapshot) error

func (f SinkFunc) Report(s analysis.Snapshot) error { return f(s) }

// Options configures a Monitor.
type Options struct {
	Interval  time.Duration
	MinLength int
	Stats     analysis.Config
}

// Monitor owns the counter state shared by the frame path and the tick.
type Monitor struct {
	decoder   dot11.Decoder
	stats     *analysis.StatsAggregator
	anomalies *analysis.AnomalyDetector
	interval  time.Duration

	mu    sync.Mutex
	sinks []Sink

	log *logrus.Entry
}

// New creates a Monitor reporting to sinks.
func New(opts Options, sinks ...Sink) *Monitor {
	interval := opts.Interval
	if interval <= 0 {
		interval = time.Second
	}
	return &Monitor{
		decoder:   dot11.NewDecoder(opts.MinLength),
		stats:     analysis.NewStatsAggregator(opts.Stats),
		anomalies: analysis.NewAnomalyDetector(opts.Stats),
		interval:  interval,
		sinks:     sinks,
		log:       log.WithComponent("monitor"),
	}
}

// AddSink registers another sink for subsequent rolls.
func (m *Monitor) AddSink(s Sink) {
	m.mu.Lock()
	m.sinks = append(m.sinks, s)
	m.mu.Unlock()
}

// Stats returns the aggregator for read-only consumers.
func (m *Monitor) Stats() *analysis.StatsAggregator { return m.stats }

// Anomalies returns the alarm history.
func (m *Monitor) Anomalies() *analysis.AnomalyDetector { return m.anomalies }

// Interval returns the roll period.
func (m *Monitor) Interval() time.Duration { return m.interval }

// HandleFrame is the capture callback: decode, classify, count. It does not
// keep buf.
func (m *Monitor) HandleFrame(buf models.CaptureBuffer) {
	fc := m.decoder.Decode(buf)
	kind := dot11.Classify(fc)
	m.stats.OnFrame(kind)

	if kind == dot11.ProbeRequest && log.DebugEnabled() {
		m.logProbe(buf, fc)
	}
}

func (m *Monitor) logProbe(buf models.CaptureBuffer, fc dot11.FrameControl) {
	header := buf.Header()
	if len(header) > probeDumpBytes {
		header = header[:probeDumpBytes]
	}
	m.log.WithFields(log.Fields{
		"length":  len(buf.Data),
		"rssi":    buf.Radio.RSSI,
		"channel": buf.Radio.Channel,
		"fc":      fc.String(),
		"data":    hex.EncodeToString(header),
	}).Debug("Probe request encountered")
}

// Tick rolls the interval, records alarms and forwards the snapshot to every
// sink. Sink failures are logged and do not affect the roll.
func (m *Monitor) Tick() analysis.Snapshot {
	snap := m.stats.RollInterval()

	for _, a := range m.anomalies.Evaluate(snap) {
		m.log.WithFields(log.Fields{
			"type":  a.Type,
			"count": a.Count,
		}).Warn(a.Message)
	}

	m.mu.Lock()
	sinks := make([]Sink, len(m.sinks))
	copy(sinks, m.sinks)
	m.mu.Unlock()

	for _, s := range sinks {
		if err := s.Report(snap); err != nil {
			m.log.WithError(err).Warn("Reporting sink failed")
		}
	}
	return snap
}

// Run starts src and rolls intervals until ctx is canceled or src ends. When
// src ends on its own (a replayed file, say) the partial interval is rolled
// once more so no frame goes unreported.
func (m *Monitor) Run(ctx context.Context, src capture.Source) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		m.tickLoop(ctx)
	}()

	err := src.Run(ctx, m.HandleFrame)
	exhausted := err == nil && ctx.Err() == nil
	cancel()
	wg.Wait()

	if exhausted {
		m.Tick()
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (m *Monitor) tickLoop(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Tick()
		}
	}
}
