package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"deauthwatch/internal/analysis"
	"deauthwatch/internal/capture"
	"deauthwatch/internal/config"
	"deauthwatch/internal/log"
	"deauthwatch/internal/monitor"
	"deauthwatch/internal/reporting"
	"deauthwatch/internal/tui"
)

// runMonitor wires the configured sinks around a Monitor and runs it on src
// until the source ends, the user quits the dashboard, or a signal arrives.
func runMonitor(c *config.Config, src capture.Source, sourceName string) error {
	var console io.Writer = os.Stderr
	if c.TUI.Enabled {
		// the dashboard owns the terminal
		console = nil
	}
	if err := log.Init(c.Log, console); err != nil {
		return err
	}
	logger := log.WithComponent("cmd")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := monitor.New(monitor.Options{
		Interval:  c.Stats.Interval,
		MinLength: c.Decoder.MinLength,
		Stats: analysis.Config{
			DeauthAlarmThreshold: c.Stats.DeauthAlarmThreshold,
			ProbeAlarmThreshold:  c.Stats.ProbeAlarmThreshold,
			MaxAlerts:            c.Stats.MaxAlerts,
		},
	})

	if c.Report.Console && !c.TUI.Enabled {
		m.AddSink(reporting.NewConsoleSink(os.Stdout))
	}

	if c.Report.NATS.Enabled {
		sink, err := reporting.NewNATSSink(c.Report.NATS.URL, c.Report.NATS.Subject)
		if err != nil {
			return err
		}
		defer sink.Close()
		m.AddSink(sink)
	}

	var wg sync.WaitGroup
	if c.Report.HTTP.Enabled {
		sink := reporting.NewHTTPSink(m.Anomalies())
		m.AddSink(sink)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := sink.Serve(ctx, c.Report.HTTP.Listen); err != nil {
				logger.WithError(err).Error("HTTP status endpoint stopped")
			}
		}()
	}

	logger.WithFields(log.Fields{
		"source":    sourceName,
		"interval":  m.Interval(),
		"threshold": c.Stats.DeauthAlarmThreshold,
	}).Info("Monitoring started")

	var runErr error
	if c.TUI.Enabled {
		monCtx, cancel := context.WithCancel(ctx)
		errCh := make(chan error, 1)
		go func() { errCh <- m.Run(monCtx, src) }()

		if err := tui.Run(m.Stats(), m.Anomalies(), sourceName); err != nil {
			logger.WithError(err).Error("Dashboard failed")
		}
		cancel()
		runErr = <-errCh
	} else {
		runErr = m.Run(ctx, src)
	}

	stop()
	wg.Wait()

	if c.Report.SessionHTML != "" {
		filename, err := reporting.GenerateSessionReport(m.Stats(), m.Anomalies(), c.Report.SessionHTML, "html")
		if err != nil {
			logger.WithError(err).Error("Failed to write session report")
		} else {
			fmt.Fprintf(os.Stderr, "Session report written to %s\n", filename)
		}
	}

	final := m.Stats().Latest()
	logger.WithFields(log.Fields{
		"total_packets": final.TotalPackets,
		"total_deauths": final.TotalDeauths,
		"alarms":        m.Anomalies().TotalAlerts(),
	}).Info("Monitoring stopped")

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}
