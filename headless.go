package main

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"streamwatch/internal/analysis"
	"streamwatch/internal/capture"
	"streamwatch/internal/config"
	"streamwatch/internal/filter"
	"streamwatch/internal/monitor"
	"streamwatch/internal/reporting"
)

// runHeadless captures for s.Duration, or until a signal or the capture
// process exits, then writes the report files.
func runHeadless(ctx context.Context, mon *monitor.Monitor, s config.Settings, logger *zap.Logger) error {
	if err := mon.StartCapture(ctx); err != nil {
		return err
	}

	timer := time.NewTimer(s.Duration)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
		logger.Info("interrupted, writing report")
	case err := <-mon.Exited():
		logger.Warn("capture ended early", zap.Error(err))
	}

	if err := mon.StopCapture(); err != nil && !errors.Is(err, capture.ErrNoActiveCapture) {
		return err
	}

	snap := mon.Snapshot()
	summaries := analysis.Summarize(snap, mon.LookupHostname, analysis.Query{
		Session: s.SessionFilter,
		Lengths: filter.ParseLengths(s.PacketFilter),
	})
	named := 0
	for _, sum := range summaries {
		if sum.ServerName != "" {
			named++
		}
	}
	st := mon.Status()
	logger.Info("capture summary",
		zap.Int("packets", snap.TotalPackets),
		zap.Int("sessions", len(summaries)),
		zap.Int("named", named),
		zap.Stringer("state", st.State))

	paths, err := reporting.Export(reporting.Report{
		Interface:    s.Interface,
		GeneratedAt:  time.Now(),
		TotalPackets: snap.TotalPackets,
		Sessions:     summaries,
		TopServers:   analysis.TopServers(summaries, 10),
	}, s.ExportDir)
	if err != nil {
		return err
	}
	for _, p := range paths {
		logger.Info("report written", zap.String("path", p))
	}
	return nil
}
