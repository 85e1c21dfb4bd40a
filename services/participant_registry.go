package services

import (
	"errors"
	"log/slog"
	"time"

	"ridehub-api/models"
	"ridehub-api/observability"
	"ridehub-api/repositories"
)

const defaultJoinLockWait = 2 * time.Second

// ParticipantRegistry manages capacity-bounded membership for rides. The
// capacity check and the confirming write in Join run inside a per-ride
// critical section, so two simultaneous joins can never both take the last
// slot.
type ParticipantRegistry struct {
	store     repositories.RideStore
	lifecycle *RideLifecycle
	locks     *rideLocks
	lockWait  time.Duration
	logger    *slog.Logger
}

func NewParticipantRegistry(store repositories.RideStore, lifecycle *RideLifecycle, lockWait time.Duration, logger *slog.Logger) *ParticipantRegistry {
	if lockWait <= 0 {
		lockWait = defaultJoinLockWait
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ParticipantRegistry{
		store:     store,
		lifecycle: lifecycle,
		locks:     newRideLocks(),
		lockWait:  lockWait,
		logger:    logger,
	}
}

// HostRide persists a new ride together with the host's confirmed
// participant record in one atomic write, so a ride can never exist without
// its host on the roster. The host never counts against capacity and can
// never leave, but holding a confirmed record lets them report locations and
// read the roster like everyone else.
func (r *ParticipantRegistry) HostRide(ride *models.Ride) error {
	return r.store.CreateRideWithHost(ride, &models.RideParticipant{
		RideID: ride.ID,
		UserID: ride.HostID,
		Status: models.ParticipantStatusConfirmed,
	})
}

// Join confirms the member on the ride and returns the updated record plus
// the new confirmed count (host excluded). Requests are served strictly in
// the order they enter the critical section; a request that finds the ride
// full fails with ErrRideFull and must be retried by the caller, there is no
// waitlist.
func (r *ParticipantRegistry) Join(rideID, userID string) (*models.RideParticipant, int, error) {
	release, err := r.locks.acquire(rideID, r.lockWait)
	if err != nil {
		observability.JoinRejectionsTotal.WithLabelValues("busy").Inc()
		return nil, 0, err
	}
	defer release()

	ride, err := r.store.GetRide(rideID)
	if err != nil {
		return nil, 0, mapNotFound(err, ErrRideNotFound)
	}
	if !r.lifecycle.CanJoin(ride) {
		observability.JoinRejectionsTotal.WithLabelValues("invalid_state").Inc()
		return nil, 0, ErrInvalidRideState
	}

	participant, err := r.store.GetParticipant(rideID, userID)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, 0, err
	}
	if participant != nil && participant.Status == models.ParticipantStatusConfirmed {
		observability.JoinRejectionsTotal.WithLabelValues("already_joined").Inc()
		return nil, 0, ErrAlreadyJoined
	}

	confirmed, err := r.store.ConfirmedCount(rideID, ride.HostID)
	if err != nil {
		return nil, 0, err
	}
	if confirmed >= ride.MaxParticipants {
		observability.JoinRejectionsTotal.WithLabelValues("full").Inc()
		return nil, 0, ErrRideFull
	}

	if participant == nil {
		participant = &models.RideParticipant{RideID: rideID, UserID: userID}
	}
	participant.Status = models.ParticipantStatusConfirmed
	if err := r.store.SaveParticipant(participant); err != nil {
		return nil, 0, err
	}

	observability.JoinsTotal.Inc()
	r.logger.Info("participant joined",
		"ride_id", rideID, "user_id", userID, "confirmed", confirmed+1)
	return participant, confirmed + 1, nil
}

// Leave downgrades the member's record to declined, freeing one capacity
// slot. The record itself is kept so a later re-join reuses it.
func (r *ParticipantRegistry) Leave(rideID, userID string) error {
	ride, err := r.store.GetRide(rideID)
	if err != nil {
		return mapNotFound(err, ErrRideNotFound)
	}
	if ride.HostID == userID {
		return ErrHostCannotLeave
	}

	participant, err := r.store.GetParticipant(rideID, userID)
	if err != nil {
		return mapNotFound(err, ErrNotAParticipant)
	}
	if participant.Status != models.ParticipantStatusConfirmed {
		return ErrNotAParticipant
	}

	participant.Status = models.ParticipantStatusDeclined
	if err := r.store.SaveParticipant(participant); err != nil {
		return err
	}

	r.logger.Info("participant left", "ride_id", rideID, "user_id", userID)
	return nil
}

// IsConfirmed reports whether the member holds a confirmed record for the
// ride. Used by the tracking layer as its membership precondition.
func (r *ParticipantRegistry) IsConfirmed(rideID, userID string) (bool, error) {
	participant, err := r.store.GetParticipant(rideID, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return participant.Status == models.ParticipantStatusConfirmed, nil
}

// Roster returns all participant records for a ride, any status.
func (r *ParticipantRegistry) Roster(rideID string) ([]models.RideParticipant, error) {
	return r.store.ListParticipants(rideID)
}
