package models

import (
	"time"
)

// RideStatus is the lifecycle state of a ride. Transitions are monotonic:
// a ride never returns to an earlier state.
type RideStatus string

const (
	RideStatusUpcoming  RideStatus = "upcoming"
	RideStatusOngoing   RideStatus = "ongoing"
	RideStatusCompleted RideStatus = "completed"
	RideStatusCancelled RideStatus = "cancelled"
)

// ParticipantStatus tracks a member's standing on a ride. Only "confirmed"
// counts against the ride capacity.
type ParticipantStatus string

const (
	ParticipantStatusPending   ParticipantStatus = "pending"
	ParticipantStatusConfirmed ParticipantStatus = "confirmed"
	ParticipantStatusDeclined  ParticipantStatus = "declined"
)

type Ride struct {
	ID              string     `json:"id" gorm:"primaryKey;size:191"`
	Title           string     `json:"title" gorm:"not null;size:255"`
	Description     string     `json:"description" gorm:"not null;type:text"`
	HostID          string     `json:"host_id" gorm:"not null;size:191;index"`
	StartLocation   string     `json:"start_location" gorm:"not null;size:255"`
	EndLocation     string     `json:"end_location" gorm:"not null;size:255"`
	StartLat        *float64   `json:"start_lat"`
	StartLng        *float64   `json:"start_lng"`
	EndLat          *float64   `json:"end_lat"`
	EndLng          *float64   `json:"end_lng"`
	RoutePolyline   *string    `json:"route_polyline" gorm:"type:text"`
	Date            time.Time  `json:"date" gorm:"not null;index"`
	Difficulty      string     `json:"difficulty" gorm:"not null;size:50"`
	MaxParticipants int        `json:"max_participants" gorm:"not null"`
	Status          RideStatus `json:"status" gorm:"not null;size:20;default:'upcoming';index"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	Host         User              `json:"host" gorm:"foreignKey:HostID"`
	Participants []RideParticipant `json:"participants" gorm:"foreignKey:RideID"`
}

// RideParticipant is the single membership record for a (ride, member) pair.
// Re-joining flips the status back to confirmed instead of inserting a
// second row; the composite unique index backs that invariant at the
// storage level.
type RideParticipant struct {
	ID        uint              `json:"id" gorm:"primaryKey"`
	RideID    string            `json:"ride_id" gorm:"not null;size:191;uniqueIndex:idx_ride_participants_ride_user"`
	UserID    string            `json:"user_id" gorm:"not null;size:191;uniqueIndex:idx_ride_participants_ride_user"`
	Status    ParticipantStatus `json:"status" gorm:"not null;size:20;default:'pending'"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`

	Ride Ride `json:"-" gorm:"foreignKey:RideID"`
	User User `json:"user" gorm:"foreignKey:UserID"`
}

// RideLocationUpdate is one position report from a participant. Rows are
// append-only: they are never updated or deleted, stale ones simply fall out
// of the freshness window on read.
type RideLocationUpdate struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	RideID    string    `json:"ride_id" gorm:"not null;size:191;index:idx_ride_locations_ride_time"`
	UserID    string    `json:"user_id" gorm:"not null;size:191"`
	Latitude  float64   `json:"latitude" gorm:"not null"`
	Longitude float64   `json:"longitude" gorm:"not null"`
	Timestamp time.Time `json:"timestamp" gorm:"not null;index:idx_ride_locations_ride_time"`
	CreatedAt time.Time `json:"created_at"`

	Ride Ride `json:"-" gorm:"foreignKey:RideID"`
	User User `json:"-" gorm:"foreignKey:UserID"`
}
