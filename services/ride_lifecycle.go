package services

import (
	"errors"
	"fmt"
	"log/slog"

	"ridehub-api/models"
	"ridehub-api/repositories"
)

// legal forward transitions; anything not listed here is rejected.
var rideTransitions = map[models.RideStatus][]models.RideStatus{
	models.RideStatusUpcoming: {
		models.RideStatusOngoing,
		models.RideStatusCompleted,
		models.RideStatusCancelled,
	},
	models.RideStatusOngoing: {
		models.RideStatusCompleted,
		models.RideStatusCancelled,
	},
	// completed and cancelled are terminal
}

// RideLifecycle is the authoritative state machine for a ride. It is the
// only component that mutates Ride.Status, and it always does so through a
// conditional store update so a lost race surfaces as ErrInvalidTransition
// rather than a silent double transition.
type RideLifecycle struct {
	store  repositories.RideStore
	logger *slog.Logger
}

func NewRideLifecycle(store repositories.RideStore, logger *slog.Logger) *RideLifecycle {
	if logger == nil {
		logger = slog.Default()
	}
	return &RideLifecycle{store: store, logger: logger}
}

// CanJoin reports whether the ride accepts new participants.
func (l *RideLifecycle) CanJoin(ride *models.Ride) bool {
	return ride.Status == models.RideStatusUpcoming
}

// CanReportLocation reports whether participants may stream positions.
func (l *RideLifecycle) CanReportLocation(ride *models.Ride) bool {
	return ride.Status == models.RideStatusOngoing
}

// Start moves the ride from upcoming to ongoing. Host only.
func (l *RideLifecycle) Start(rideID, actorID string) (*models.Ride, error) {
	return l.transition(rideID, actorID, models.RideStatusUpcoming, models.RideStatusOngoing)
}

// Complete closes the ride. Host only.
func (l *RideLifecycle) Complete(rideID, actorID string) (*models.Ride, error) {
	ride, err := l.store.GetRide(rideID)
	if err != nil {
		return nil, mapNotFound(err, ErrRideNotFound)
	}
	return l.transition(rideID, actorID, ride.Status, models.RideStatusCompleted)
}

// Cancel terminates the ride without completing it. Host only. This is also
// how a host "leaves": rides are never deleted while ongoing, they are
// cancelled.
func (l *RideLifecycle) Cancel(rideID, actorID string) (*models.Ride, error) {
	ride, err := l.store.GetRide(rideID)
	if err != nil {
		return nil, mapNotFound(err, ErrRideNotFound)
	}
	return l.transition(rideID, actorID, ride.Status, models.RideStatusCancelled)
}

func (l *RideLifecycle) transition(rideID, actorID string, from, to models.RideStatus) (*models.Ride, error) {
	ride, err := l.store.GetRide(rideID)
	if err != nil {
		return nil, mapNotFound(err, ErrRideNotFound)
	}
	if ride.HostID != actorID {
		return nil, ErrForbidden
	}
	if !transitionAllowed(ride.Status, to) || ride.Status != from {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, ride.Status, to)
	}

	if err := l.store.UpdateRideStatus(rideID, from, to); err != nil {
		if errors.Is(err, repositories.ErrStatusConflict) {
			// someone else transitioned the ride between our read and write
			return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
		}
		return nil, err
	}

	ride.Status = to
	l.logger.Info("ride status changed",
		"ride_id", rideID, "from", string(from), "to", string(to), "actor", actorID)
	return ride, nil
}

func transitionAllowed(from, to models.RideStatus) bool {
	for _, next := range rideTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func mapNotFound(err, sentinel error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return sentinel
	}
	return err
}
