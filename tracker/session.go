// Package tracker implements the client-side half of live tracking: a
// scheduled loop that samples the device position and pushes reports to the
// server while a ride is ongoing. The loop is bound to a context so the UI
// session lifetime, not an implicit timer, decides when it stops.
package tracker

import (
	"context"
	"log/slog"
	"time"
)

// Position is one sampled device location.
type Position struct {
	Latitude  float64
	Longitude float64
}

// PositionSource yields the current device position. ok is false when no
// fix is available yet; the session skips that tick and tries again.
type PositionSource interface {
	Current() (pos Position, ok bool)
}

// Reporter delivers one report to the server. Implementations typically
// POST to /rides/:id/tracking.
type Reporter interface {
	ReportLocation(ctx context.Context, rideID, userID string, lat, lng float64, ts time.Time) error
}

// Session periodically reports a participant's position for one ride.
type Session struct {
	RideID   string
	UserID   string
	Interval time.Duration
	Source   PositionSource
	Reporter Reporter
	Logger   *slog.Logger
}

const defaultReportInterval = 5 * time.Second

// Run reports on every tick until ctx is cancelled. Individual report
// failures are logged and retried on the next tick; a report rejected
// because the ride ended is expected and ends the session cleanly on the
// caller's side via cancellation.
func (s *Session) Run(ctx context.Context) error {
	interval := s.Interval
	if interval <= 0 {
		interval = defaultReportInterval
	}
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// report once immediately so the roster sees the participant without
	// waiting a full interval
	s.reportOnce(ctx, logger)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.reportOnce(ctx, logger)
		}
	}
}

func (s *Session) reportOnce(ctx context.Context, logger *slog.Logger) {
	pos, ok := s.Source.Current()
	if !ok {
		return
	}
	err := s.Reporter.ReportLocation(ctx, s.RideID, s.UserID, pos.Latitude, pos.Longitude, time.Now())
	if err != nil && ctx.Err() == nil {
		logger.Warn("location report failed", "ride_id", s.RideID, "error", err)
	}
}
