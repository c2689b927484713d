package analysis

import (
	"math"
	"sync"
	"sync/atomic"
	"testing"

	"deauthwatch/internal/dot11"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feed(s *StatsAggregator, kind dot11.EventKind, n int) {
	for i := 0; i < n; i++ {
		s.OnFrame(kind)
	}
}

func TestRollIntervalCountsAndResets(t *testing.T) {
	s := NewStatsAggregator(DefaultConfig())

	feed(s, dot11.Other, 4)
	feed(s, dot11.Deauthentication, 2)
	feed(s, dot11.ProbeRequest, 1)

	snap := s.RollInterval()
	assert.Equal(t, uint64(7), snap.PacketsThisInterval)
	assert.Equal(t, uint64(2), snap.DeauthsThisInterval)
	assert.Equal(t, uint64(1), snap.ProbesThisInterval)
	assert.Equal(t, uint64(7), snap.TotalPackets)
	assert.Equal(t, uint64(2), snap.TotalDeauths)
	assert.Equal(t, uint64(1), snap.Intervals)
	assert.Zero(t, s.Pending())

	feed(s, dot11.Other, 3)
	snap = s.RollInterval()
	assert.Equal(t, uint64(3), snap.PacketsThisInterval)
	assert.Zero(t, snap.DeauthsThisInterval)
	assert.Equal(t, uint64(10), snap.TotalPackets)
	assert.Equal(t, uint64(2), snap.TotalDeauths)
}

func TestRollIntervalWithNoFrames(t *testing.T) {
	s := NewStatsAggregator(DefaultConfig())

	snap := s.RollInterval()
	assert.Zero(t, snap.PacketsThisInterval)
	assert.Zero(t, snap.TotalPackets)
	assert.Zero(t, snap.MinPackets)
	assert.False(t, snap.Alarmed)

	snap = s.RollInterval()
	assert.Zero(t, snap.PacketsThisInterval)
	assert.Equal(t, uint64(2), snap.Intervals)
}

func TestExtrema(t *testing.T) {
	s := NewStatsAggregator(DefaultConfig())

	for _, n := range []int{3, 7, 1, 7} {
		feed(s, dot11.Other, n)
		s.RollInterval()
	}

	snap := s.Latest()
	assert.Equal(t, uint64(7), snap.MaxPackets)
	assert.Equal(t, uint64(1), snap.MinPackets)
	assert.Equal(t, uint64(18), snap.TotalPackets)
}

func TestDeauthExtrema(t *testing.T) {
	s := NewStatsAggregator(DefaultConfig())

	for _, n := range []int{2, 0, 4} {
		feed(s, dot11.Deauthentication, n)
		s.RollInterval()
	}

	snap := s.Latest()
	assert.Equal(t, uint64(4), snap.MaxDeauths)
	assert.Zero(t, snap.MinDeauths)
}

func TestMinStartsAtMax(t *testing.T) {
	s := NewStatsAggregator(DefaultConfig())

	snap := s.Latest()
	assert.False(t, snap.HasExtrema())
	assert.Equal(t, uint64(math.MaxUint64), snap.MinPackets)
	assert.Equal(t, uint64(math.MaxUint64), snap.MinDeauths)

	feed(s, dot11.Other, 1000)
	snap = s.RollInterval()
	assert.True(t, snap.HasExtrema())
	assert.Equal(t, uint64(1000), snap.MinPackets)
}

func TestAlarmThresholdIsStrict(t *testing.T) {
	s := NewStatsAggregator(DefaultConfig())
	require.Equal(t, uint64(5), s.Threshold())

	feed(s, dot11.Deauthentication, 6)
	snap := s.RollInterval()
	assert.True(t, snap.Alarmed)
	assert.True(t, s.IsAlarmed())

	feed(s, dot11.Deauthentication, 5)
	snap = s.RollInterval()
	assert.False(t, snap.Alarmed)
	assert.False(t, s.IsAlarmed())
}

func TestAlarmIsPerInterval(t *testing.T) {
	s := NewStatsAggregator(Config{DeauthAlarmThreshold: 2})

	// a quiet interval clears the alarm even though the lifetime total keeps growing
	feed(s, dot11.Deauthentication, 3)
	assert.True(t, s.RollInterval().Alarmed)

	feed(s, dot11.Deauthentication, 1)
	assert.False(t, s.RollInterval().Alarmed)
	assert.False(t, s.RollInterval().Alarmed)
}

func TestIsAlarmedBeforeFirstRoll(t *testing.T) {
	s := NewStatsAggregator(DefaultConfig())
	feed(s, dot11.Deauthentication, 100)
	assert.False(t, s.IsAlarmed())
}

func TestConcurrentFramesAndRolls(t *testing.T) {
	const (
		producers = 8
		perWorker = 20000
		rollers   = 4
	)

	s := NewStatsAggregator(DefaultConfig())

	var seen, seenDeauths atomic.Uint64
	stop := make(chan struct{})

	var rollWG sync.WaitGroup
	for r := 0; r < rollers; r++ {
		rollWG.Add(1)
		go func() {
			defer rollWG.Done()
			for {
				select {
				case <-stop:
					return
				default:
					snap := s.RollInterval()
					seen.Add(snap.PacketsThisInterval)
					seenDeauths.Add(snap.DeauthsThisInterval)
				}
			}
		}()
	}

	var prodWG sync.WaitGroup
	for p := 0; p < producers; p++ {
		prodWG.Add(1)
		go func(p int) {
			defer prodWG.Done()
			for i := 0; i < perWorker; i++ {
				if i%10 == 0 {
					s.OnFrame(dot11.Deauthentication)
				} else {
					s.OnFrame(dot11.Other)
				}
			}
		}(p)
	}

	prodWG.Wait()
	close(stop)
	rollWG.Wait()

	final := s.RollInterval()
	seen.Add(final.PacketsThisInterval)
	seenDeauths.Add(final.DeauthsThisInterval)

	assert.Equal(t, uint64(producers*perWorker), seen.Load())
	assert.Equal(t, uint64(producers*perWorker/10), seenDeauths.Load())
	assert.Equal(t, uint64(producers*perWorker), final.TotalPackets)
	assert.Equal(t, uint64(producers*perWorker/10), final.TotalDeauths)
}
