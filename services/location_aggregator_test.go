package services

import (
	"errors"
	"testing"
	"time"

	"ridehub-api/models"
	"ridehub-api/repositories"
)

func newTestAggregator(t *testing.T) (*repositories.MemoryStore, *ParticipantRegistry, *LocationAggregator) {
	t.Helper()
	store := repositories.NewMemoryStore()
	lifecycle := NewRideLifecycle(store, testLogger())
	registry := NewParticipantRegistry(store, lifecycle, time.Second, testLogger())
	aggregator := NewLocationAggregator(store, lifecycle, registry, 5*time.Minute, testLogger())
	return store, registry, aggregator
}

func seedOngoingRideWithRider(t *testing.T, store *repositories.MemoryStore, registry *ParticipantRegistry, rideID string) {
	t.Helper()
	hostRide(t, registry, rideID, "host", 5)
	if _, _, err := registry.Join(rideID, "rider-1"); err != nil {
		t.Fatalf("Join: %v", err)
	}
	if err := store.UpdateRideStatus(rideID, models.RideStatusUpcoming, models.RideStatusOngoing); err != nil {
		t.Fatalf("start ride: %v", err)
	}
}

func TestRecordAppendsReport(t *testing.T) {
	store, registry, aggregator := newTestAggregator(t)
	seedOngoingRideWithRider(t, store, registry, "ride-1")

	ts := time.Now()
	update, err := aggregator.Record("ride-1", "rider-1", 47.4979, 19.0402, ts)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if update.ID == 0 {
		t.Error("report not persisted")
	}

	// a second report must not overwrite the first
	if _, err := aggregator.Record("ride-1", "rider-1", 47.5, 19.05, ts.Add(time.Second)); err != nil {
		t.Fatalf("second Record: %v", err)
	}
	reports, err := store.LocationsSince("ride-1", ts.Add(-time.Minute))
	if err != nil {
		t.Fatalf("LocationsSince: %v", err)
	}
	if len(reports) != 2 {
		t.Errorf("stored reports = %d, want 2 (append-only)", len(reports))
	}
}

func TestRecordRejectsInvalidCoordinates(t *testing.T) {
	store, registry, aggregator := newTestAggregator(t)
	seedOngoingRideWithRider(t, store, registry, "ride-1")

	cases := []struct {
		name     string
		lat, lng float64
	}{
		{"lat too high", 90.0001, 0},
		{"lat too low", -91, 0},
		{"lng too high", 0, 180.0001},
		{"lng too low", 0, -181},
	}
	for _, tc := range cases {
		if _, err := aggregator.Record("ride-1", "rider-1", tc.lat, tc.lng, time.Now()); !errors.Is(err, ErrInvalidCoordinates) {
			t.Errorf("%s: Record = %v, want ErrInvalidCoordinates", tc.name, err)
		}
	}

	// boundary values are valid
	if _, err := aggregator.Record("ride-1", "rider-1", 90, -180, time.Now()); err != nil {
		t.Errorf("Record at boundary = %v, want success", err)
	}
}

func TestRecordRequiresOngoingRide(t *testing.T) {
	store, registry, aggregator := newTestAggregator(t)
	seedRide(t, store, "ride-1", "host", models.RideStatusUpcoming, 5)
	if _, _, err := registry.Join("ride-1", "rider-1"); err != nil {
		t.Fatalf("Join: %v", err)
	}

	if _, err := aggregator.Record("ride-1", "rider-1", 47.5, 19.0, time.Now()); !errors.Is(err, ErrInvalidRideState) {
		t.Errorf("Record on upcoming ride = %v, want ErrInvalidRideState", err)
	}
}

func TestRecordRequiresConfirmedParticipant(t *testing.T) {
	store, registry, aggregator := newTestAggregator(t)
	seedOngoingRideWithRider(t, store, registry, "ride-1")

	if _, err := aggregator.Record("ride-1", "stranger", 47.5, 19.0, time.Now()); !errors.Is(err, ErrNotAParticipant) {
		t.Errorf("Record by stranger = %v, want ErrNotAParticipant", err)
	}
}

func TestCurrentRosterFreshnessWindow(t *testing.T) {
	store, registry, aggregator := newTestAggregator(t)
	seedOngoingRideWithRider(t, store, registry, "ride-1")

	base := time.Now()
	// rider-1 reported at t=0 and t=4min, host never reported
	if _, err := aggregator.Record("ride-1", "rider-1", 47.0, 19.0, base); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if _, err := aggregator.Record("ride-1", "rider-1", 47.1, 19.1, base.Add(4*time.Minute)); err != nil {
		t.Fatalf("Record: %v", err)
	}

	// at t=4.5min both reports are inside the 5 minute window, only the
	// latest one shows up
	roster, err := aggregator.CurrentRoster("ride-1", "host", base.Add(4*time.Minute+30*time.Second))
	if err != nil {
		t.Fatalf("CurrentRoster: %v", err)
	}
	if len(roster) != 1 {
		t.Fatalf("roster size = %d, want 1", len(roster))
	}
	if roster[0].UserID != "rider-1" || roster[0].Latitude != 47.1 {
		t.Errorf("roster entry = %+v, want rider-1's latest report", roster[0])
	}

	// at t=9.5min the newer report has gone stale too: rider drops out
	roster, err = aggregator.CurrentRoster("ride-1", "host", base.Add(9*time.Minute+30*time.Second))
	if err != nil {
		t.Fatalf("CurrentRoster: %v", err)
	}
	if len(roster) != 0 {
		t.Errorf("roster size = %d, want 0 once all reports are stale", len(roster))
	}
}

func TestCurrentRosterLatestPerMember(t *testing.T) {
	store, registry, aggregator := newTestAggregator(t)
	seedOngoingRideWithRider(t, store, registry, "ride-1")

	base := time.Now()
	// out-of-order arrival: the later timestamp wins regardless
	if _, err := aggregator.Record("ride-1", "rider-1", 47.2, 19.2, base.Add(2*time.Minute)); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if _, err := aggregator.Record("ride-1", "rider-1", 47.1, 19.1, base.Add(time.Minute)); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if _, err := aggregator.Record("ride-1", "host", 47.9, 19.9, base.Add(time.Minute)); err != nil {
		t.Fatalf("Record: %v", err)
	}

	roster, err := aggregator.CurrentRoster("ride-1", "rider-1", base.Add(3*time.Minute))
	if err != nil {
		t.Fatalf("CurrentRoster: %v", err)
	}
	if len(roster) != 2 {
		t.Fatalf("roster size = %d, want 2", len(roster))
	}

	byUser := make(map[string]RosterEntry, len(roster))
	for _, entry := range roster {
		byUser[entry.UserID] = entry
	}
	if byUser["rider-1"].Latitude != 47.2 {
		t.Errorf("rider-1 lat = %v, want 47.2 (latest timestamp wins)", byUser["rider-1"].Latitude)
	}
	if byUser["host"].Latitude != 47.9 {
		t.Errorf("host lat = %v, want 47.9", byUser["host"].Latitude)
	}
}

func TestCurrentRosterTimestampTie(t *testing.T) {
	store, registry, aggregator := newTestAggregator(t)
	seedOngoingRideWithRider(t, store, registry, "ride-1")

	ts := time.Now()
	if _, err := aggregator.Record("ride-1", "rider-1", 47.1, 19.1, ts); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if _, err := aggregator.Record("ride-1", "rider-1", 47.2, 19.2, ts); err != nil {
		t.Fatalf("Record: %v", err)
	}

	roster, err := aggregator.CurrentRoster("ride-1", "rider-1", ts.Add(time.Minute))
	if err != nil {
		t.Fatalf("CurrentRoster: %v", err)
	}
	if len(roster) != 1 {
		t.Fatalf("roster size = %d, want 1", len(roster))
	}
	if roster[0].Latitude != 47.2 {
		t.Errorf("tie-break lat = %v, want 47.2 (last inserted wins)", roster[0].Latitude)
	}
}

func TestCurrentRosterRequiresMembership(t *testing.T) {
	store, registry, aggregator := newTestAggregator(t)
	seedOngoingRideWithRider(t, store, registry, "ride-1")

	if _, err := aggregator.CurrentRoster("ride-1", "stranger", time.Now()); !errors.Is(err, ErrNotAParticipant) {
		t.Errorf("CurrentRoster by stranger = %v, want ErrNotAParticipant", err)
	}
	if _, err := aggregator.CurrentRoster("missing", "rider-1", time.Now()); !errors.Is(err, ErrRideNotFound) {
		t.Errorf("CurrentRoster on missing ride = %v, want ErrRideNotFound", err)
	}
}

type capturingBroadcaster struct {
	rideIDs  []string
	payloads []interface{}
}

func (c *capturingBroadcaster) Broadcast(rideID string, payload interface{}) {
	c.rideIDs = append(c.rideIDs, rideID)
	c.payloads = append(c.payloads, payload)
}

type failingPublisher struct{ calls int }

func (f *failingPublisher) PublishReport(models.RideLocationUpdate) error {
	f.calls++
	return errors.New("broker unavailable")
}

func TestRecordBroadcastsAndToleratesPublishFailure(t *testing.T) {
	store, registry, aggregator := newTestAggregator(t)
	seedOngoingRideWithRider(t, store, registry, "ride-1")

	broadcaster := &capturingBroadcaster{}
	publisher := &failingPublisher{}
	aggregator.WithBroadcaster(broadcaster).WithPublisher(publisher)

	if _, err := aggregator.Record("ride-1", "rider-1", 47.5, 19.0, time.Now()); err != nil {
		t.Fatalf("Record with failing publisher = %v, want success", err)
	}
	if publisher.calls != 1 {
		t.Errorf("publisher calls = %d, want 1", publisher.calls)
	}
	if len(broadcaster.rideIDs) != 1 || broadcaster.rideIDs[0] != "ride-1" {
		t.Errorf("broadcast rides = %v, want [ride-1]", broadcaster.rideIDs)
	}
	entry, ok := broadcaster.payloads[0].(RosterEntry)
	if !ok || entry.UserID != "rider-1" {
		t.Errorf("broadcast payload = %+v, want rider-1 roster entry", broadcaster.payloads[0])
	}
}
