package repositories

import (
	"errors"
	"time"

	"ridehub-api/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrStatusConflict is returned by UpdateRideStatus when the ride is no
// longer in the expected source status. Callers treat it as a lost race.
var ErrStatusConflict = errors.New("ride status changed concurrently")

// RideStore is the persistence surface the participation and tracking
// services operate on. GormStore backs it with MySQL in production;
// MemoryStore backs it in tests.
type RideStore interface {
	CreateRide(ride *models.Ride) error

	// CreateRideWithHost persists the ride and the host's participant record
	// in one atomic write: either both exist afterwards or neither does.
	CreateRideWithHost(ride *models.Ride, host *models.RideParticipant) error

	GetRide(id string) (*models.Ride, error)
	ListRides(status models.RideStatus, offset, limit int) ([]models.Ride, int64, error)

	// UpdateRideStatus performs a conditional (compare-and-set) status
	// update: the write only happens while the ride still holds the `from`
	// status. Returns ErrStatusConflict when zero rows change.
	UpdateRideStatus(id string, from, to models.RideStatus) error

	GetParticipant(rideID, userID string) (*models.RideParticipant, error)
	SaveParticipant(p *models.RideParticipant) error
	ConfirmedCount(rideID, excludeUserID string) (int, error)
	ListParticipants(rideID string) ([]models.RideParticipant, error)

	// AppendLocation adds one immutable report. Reports are never updated
	// or removed afterwards.
	AppendLocation(u *models.RideLocationUpdate) error

	// LocationsSince returns all reports for a ride with timestamp >= cutoff,
	// in insertion order.
	LocationsSince(rideID string, cutoff time.Time) ([]models.RideLocationUpdate, error)
}
