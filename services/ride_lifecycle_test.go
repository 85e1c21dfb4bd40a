package services

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"ridehub-api/models"
	"ridehub-api/repositories"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seedRide(t *testing.T, store repositories.RideStore, id, hostID string, status models.RideStatus, capacity int) {
	t.Helper()
	err := store.CreateRide(&models.Ride{
		ID:              id,
		Title:           "Sunday loop",
		HostID:          hostID,
		Date:            time.Now().Add(24 * time.Hour),
		Difficulty:      "medium",
		MaxParticipants: capacity,
		Status:          status,
	})
	if err != nil {
		t.Fatalf("seed ride: %v", err)
	}
}

func TestStartRide(t *testing.T) {
	store := repositories.NewMemoryStore()
	lifecycle := NewRideLifecycle(store, testLogger())
	seedRide(t, store, "ride-1", "host", models.RideStatusUpcoming, 5)

	ride, err := lifecycle.Start("ride-1", "host")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if ride.Status != models.RideStatusOngoing {
		t.Errorf("status = %s, want ongoing", ride.Status)
	}

	stored, _ := store.GetRide("ride-1")
	if stored.Status != models.RideStatusOngoing {
		t.Errorf("stored status = %s, want ongoing", stored.Status)
	}
}

func TestStartRideNonHost(t *testing.T) {
	store := repositories.NewMemoryStore()
	lifecycle := NewRideLifecycle(store, testLogger())
	seedRide(t, store, "ride-1", "host", models.RideStatusUpcoming, 5)

	if _, err := lifecycle.Start("ride-1", "someone-else"); !errors.Is(err, ErrForbidden) {
		t.Errorf("Start by non-host = %v, want ErrForbidden", err)
	}

	stored, _ := store.GetRide("ride-1")
	if stored.Status != models.RideStatusUpcoming {
		t.Errorf("status changed by forbidden actor: %s", stored.Status)
	}
}

func TestStartRideTwice(t *testing.T) {
	store := repositories.NewMemoryStore()
	lifecycle := NewRideLifecycle(store, testLogger())
	seedRide(t, store, "ride-1", "host", models.RideStatusUpcoming, 5)

	if _, err := lifecycle.Start("ride-1", "host"); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	if _, err := lifecycle.Start("ride-1", "host"); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("second Start = %v, want ErrInvalidTransition", err)
	}
}

func TestCompleteFromOngoing(t *testing.T) {
	store := repositories.NewMemoryStore()
	lifecycle := NewRideLifecycle(store, testLogger())
	seedRide(t, store, "ride-1", "host", models.RideStatusOngoing, 5)

	ride, err := lifecycle.Complete("ride-1", "host")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if ride.Status != models.RideStatusCompleted {
		t.Errorf("status = %s, want completed", ride.Status)
	}
}

func TestTerminalStatesRejectTransitions(t *testing.T) {
	for _, terminal := range []models.RideStatus{models.RideStatusCompleted, models.RideStatusCancelled} {
		store := repositories.NewMemoryStore()
		lifecycle := NewRideLifecycle(store, testLogger())
		seedRide(t, store, "ride-1", "host", terminal, 5)

		if _, err := lifecycle.Start("ride-1", "host"); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("Start from %s = %v, want ErrInvalidTransition", terminal, err)
		}
		if _, err := lifecycle.Complete("ride-1", "host"); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("Complete from %s = %v, want ErrInvalidTransition", terminal, err)
		}
		if _, err := lifecycle.Cancel("ride-1", "host"); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("Cancel from %s = %v, want ErrInvalidTransition", terminal, err)
		}
	}
}

func TestCancelUpcomingRide(t *testing.T) {
	store := repositories.NewMemoryStore()
	lifecycle := NewRideLifecycle(store, testLogger())
	seedRide(t, store, "ride-1", "host", models.RideStatusUpcoming, 5)

	ride, err := lifecycle.Cancel("ride-1", "host")
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if ride.Status != models.RideStatusCancelled {
		t.Errorf("status = %s, want cancelled", ride.Status)
	}
}

func TestTransitionUnknownRide(t *testing.T) {
	store := repositories.NewMemoryStore()
	lifecycle := NewRideLifecycle(store, testLogger())

	if _, err := lifecycle.Start("missing", "host"); !errors.Is(err, ErrRideNotFound) {
		t.Errorf("Start on missing ride = %v, want ErrRideNotFound", err)
	}
}
