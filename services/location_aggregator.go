package services

import (
	"log/slog"
	"time"

	"ridehub-api/models"
	"ridehub-api/observability"
	"ridehub-api/repositories"
	"ridehub-api/utils"
)

// DefaultFreshnessWindow is how long a report is considered representative
// of a participant's current position.
const DefaultFreshnessWindow = 5 * time.Minute

// RosterEntry is one member's most recent fresh position.
type RosterEntry struct {
	UserID    string    `json:"user_id"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Timestamp time.Time `json:"timestamp"`
}

// ReportPublisher ships accepted reports to an external audit/replay sink.
type ReportPublisher interface {
	PublishReport(u models.RideLocationUpdate) error
}

// RosterBroadcaster pushes accepted reports to live subscribers.
type RosterBroadcaster interface {
	Broadcast(rideID string, payload interface{})
}

// LocationAggregator ingests position reports and serves the current roster:
// the latest report per participant inside the freshness window. History is
// append-only; the roster is recomputed on every read rather than cached,
// since staleness is relative to "now".
type LocationAggregator struct {
	store     repositories.RideStore
	lifecycle *RideLifecycle
	registry  *ParticipantRegistry
	window    time.Duration

	publisher   ReportPublisher   // optional
	broadcaster RosterBroadcaster // optional
	logger      *slog.Logger
}

func NewLocationAggregator(store repositories.RideStore, lifecycle *RideLifecycle, registry *ParticipantRegistry, window time.Duration, logger *slog.Logger) *LocationAggregator {
	if window <= 0 {
		window = DefaultFreshnessWindow
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LocationAggregator{
		store:     store,
		lifecycle: lifecycle,
		registry:  registry,
		window:    window,
		logger:    logger,
	}
}

// WithPublisher attaches an audit publisher for accepted reports.
func (a *LocationAggregator) WithPublisher(p ReportPublisher) *LocationAggregator {
	a.publisher = p
	return a
}

// WithBroadcaster attaches a live-subscriber broadcaster.
func (a *LocationAggregator) WithBroadcaster(b RosterBroadcaster) *LocationAggregator {
	a.broadcaster = b
	return a
}

// Record appends one immutable report for a confirmed participant of an
// ongoing ride. Prior reports are never overwritten. The audit publish and
// live broadcast are best-effort and never fail the call.
func (a *LocationAggregator) Record(rideID, userID string, lat, lng float64, ts time.Time) (*models.RideLocationUpdate, error) {
	ride, err := a.store.GetRide(rideID)
	if err != nil {
		return nil, mapNotFound(err, ErrRideNotFound)
	}
	if !a.lifecycle.CanReportLocation(ride) {
		return nil, ErrInvalidRideState
	}

	confirmed, err := a.registry.IsConfirmed(rideID, userID)
	if err != nil {
		return nil, err
	}
	if !confirmed {
		return nil, ErrNotAParticipant
	}

	if !utils.IsValidLatitude(lat) || !utils.IsValidLongitude(lng) {
		return nil, ErrInvalidCoordinates
	}

	update := &models.RideLocationUpdate{
		RideID:    rideID,
		UserID:    userID,
		Latitude:  lat,
		Longitude: lng,
		Timestamp: ts,
	}
	if err := a.store.AppendLocation(update); err != nil {
		return nil, err
	}
	observability.LocationReportsTotal.Inc()

	if a.publisher != nil {
		if err := a.publisher.PublishReport(*update); err != nil {
			a.logger.Warn("report audit publish failed", "ride_id", rideID, "error", err)
		}
	}
	if a.broadcaster != nil {
		a.broadcaster.Broadcast(rideID, RosterEntry{
			UserID:    userID,
			Latitude:  lat,
			Longitude: lng,
			Timestamp: ts,
		})
	}

	return update, nil
}

// CurrentRoster returns, for each member with at least one report inside the
// freshness window relative to now, their single most recent report. Members
// without a fresh report are omitted entirely. Recency is decided by report
// timestamp, not arrival order; on an exact timestamp tie the report
// inserted last wins. Result ordering is unspecified.
//
// Only confirmed participants of the ride may read the roster.
func (a *LocationAggregator) CurrentRoster(rideID, userID string, now time.Time) ([]RosterEntry, error) {
	if _, err := a.store.GetRide(rideID); err != nil {
		return nil, mapNotFound(err, ErrRideNotFound)
	}

	confirmed, err := a.registry.IsConfirmed(rideID, userID)
	if err != nil {
		return nil, err
	}
	if !confirmed {
		return nil, ErrNotAParticipant
	}

	cutoff := now.Add(-a.window)
	reports, err := a.store.LocationsSince(rideID, cutoff)
	if err != nil {
		return nil, err
	}

	// reports arrive in insertion order, so ">=" makes the later insertion
	// win exact timestamp ties
	latest := make(map[string]models.RideLocationUpdate, len(reports))
	for _, report := range reports {
		if now.Sub(report.Timestamp) > a.window {
			continue
		}
		if prev, ok := latest[report.UserID]; !ok || !report.Timestamp.Before(prev.Timestamp) {
			latest[report.UserID] = report
		}
	}

	roster := make([]RosterEntry, 0, len(latest))
	for _, report := range latest {
		roster = append(roster, RosterEntry{
			UserID:    report.UserID,
			Latitude:  report.Latitude,
			Longitude: report.Longitude,
			Timestamp: report.Timestamp,
		})
	}
	return roster, nil
}

// Window exposes the configured freshness window.
func (a *LocationAggregator) Window() time.Duration {
	return a.window
}
