package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"deauthwatch/internal/analysis"
	"deauthwatch/internal/capture"
	"deauthwatch/internal/dot11"
	"deauthwatch/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sliceSource replays a fixed list of buffers, optionally pausing between
// them.
type sliceSource struct {
	bufs  []models.CaptureBuffer
	pause time.Duration
	err   error
}

func (s *sliceSource) Run(ctx context.Context, h capture.Handler) error {
	for _, b := range s.bufs {
		if err := ctx.Err(); err != nil {
			return err
		}
		h(b)
		if s.pause > 0 {
			time.Sleep(s.pause)
		}
	}
	return s.err
}

// blockingSource never ends on its own.
type blockingSource struct{}

func (blockingSource) Run(ctx context.Context, h capture.Handler) error {
	<-ctx.Done()
	return ctx.Err()
}

type recorder struct {
	mu    sync.Mutex
	snaps []analysis.Snapshot
}

func (r *recorder) Report(s analysis.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snaps = append(r.snaps, s)
	return nil
}

func (r *recorder) all() []analysis.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]analysis.Snapshot(nil), r.snaps...)
}

func frame(fc0 byte) models.CaptureBuffer {
	data := make([]byte, capture.RxControlSize+36)
	data[capture.RxControlSize] = fc0
	return capture.SnifferBuffer(data)
}

func frames(fc0 byte, n int) []models.CaptureBuffer {
	out := make([]models.CaptureBuffer, n)
	for i := range out {
		out[i] = frame(fc0)
	}
	return out
}

func defaultOptions() Options {
	return Options{Interval: time.Hour, MinLength: dot11.DefaultMinLength, Stats: analysis.DefaultConfig()}
}

func TestHandleFrameAndTick(t *testing.T) {
	rec := &recorder{}
	m := New(defaultOptions(), rec)

	for _, b := range frames(0xC0, 6) {
		m.HandleFrame(b)
	}
	m.HandleFrame(frame(0x40))
	m.HandleFrame(frame(0x80))
	m.HandleFrame(models.CaptureBuffer{Data: make([]byte, 4)})

	snap := m.Tick()
	assert.Equal(t, uint64(9), snap.PacketsThisInterval)
	assert.Equal(t, uint64(6), snap.DeauthsThisInterval)
	assert.Equal(t, uint64(1), snap.ProbesThisInterval)
	assert.True(t, snap.Alarmed)
	assert.True(t, m.Stats().IsAlarmed())

	require.Len(t, rec.all(), 1)
	assert.Equal(t, snap, rec.all()[0])

	alerts := m.Anomalies().GetAllAlerts()
	require.Len(t, alerts, 1)
	assert.Equal(t, analysis.AnomalyDeauthFlood, alerts[0].Type)
}

func TestSinkErrorDoesNotStopReporting(t *testing.T) {
	rec := &recorder{}
	failing := SinkFunc(func(analysis.Snapshot) error { return errors.New("boom") })
	m := New(defaultOptions(), failing, rec)

	m.Tick()
	m.Tick()
	assert.Len(t, rec.all(), 2)
}

func TestRunFlushesExhaustedSource(t *testing.T) {
	rec := &recorder{}
	m := New(defaultOptions())
	m.AddSink(rec)

	src := &sliceSource{bufs: append(frames(0xC0, 3), frames(0x88, 4)...)}
	require.NoError(t, m.Run(context.Background(), src))

	snaps := rec.all()
	require.Len(t, snaps, 1)
	assert.Equal(t, uint64(7), snaps[0].PacketsThisInterval)
	assert.Equal(t, uint64(3), snaps[0].DeauthsThisInterval)
	assert.False(t, snaps[0].Alarmed)
}

func TestRunReturnsSourceError(t *testing.T) {
	m := New(defaultOptions())
	err := m.Run(context.Background(), &sliceSource{err: capture.ErrSourceClosed})
	assert.ErrorIs(t, err, capture.ErrSourceClosed)
}

func TestRunStopsOnCancel(t *testing.T) {
	rec := &recorder{}
	opts := defaultOptions()
	opts.Interval = 10 * time.Millisecond
	m := New(opts, rec)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	require.NoError(t, m.Run(ctx, blockingSource{}))
	assert.NotEmpty(t, rec.all(), "ticker should have rolled at least once")
}

func TestRunNeverLosesFrames(t *testing.T) {
	rec := &recorder{}
	opts := defaultOptions()
	opts.Interval = 2 * time.Millisecond
	m := New(opts, rec)

	const n = 500
	src := &sliceSource{bufs: frames(0xC0, n), pause: 50 * time.Microsecond}
	require.NoError(t, m.Run(context.Background(), src))

	var packets, deauths uint64
	for _, s := range rec.all() {
		packets += s.PacketsThisInterval
		deauths += s.DeauthsThisInterval
	}
	assert.Equal(t, uint64(n), packets)
	assert.Equal(t, uint64(n), deauths)
	assert.Equal(t, uint64(n), m.Stats().Latest().TotalPackets)
}
