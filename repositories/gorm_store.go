package repositories

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"ridehub-api/models"
)

// GormStore implements RideStore on top of gorm/MySQL.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

var _ RideStore = (*GormStore)(nil)

func (s *GormStore) CreateRide(ride *models.Ride) error {
	return s.db.Create(ride).Error
}

func (s *GormStore) CreateRideWithHost(ride *models.Ride, host *models.RideParticipant) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(ride).Error; err != nil {
			return err
		}
		return tx.Create(host).Error
	})
}

func (s *GormStore) GetRide(id string) (*models.Ride, error) {
	var ride models.Ride
	if err := s.db.First(&ride, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &ride, nil
}

func (s *GormStore) ListRides(status models.RideStatus, offset, limit int) ([]models.Ride, int64, error) {
	query := s.db.Model(&models.Ride{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rides []models.Ride
	err := query.Preload("Host").Order("date ASC").Offset(offset).Limit(limit).Find(&rides).Error
	if err != nil {
		return nil, 0, err
	}
	return rides, total, nil
}

func (s *GormStore) UpdateRideStatus(id string, from, to models.RideStatus) error {
	res := s.db.Model(&models.Ride{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStatusConflict
	}
	return nil
}

func (s *GormStore) GetParticipant(rideID, userID string) (*models.RideParticipant, error) {
	var p models.RideParticipant
	err := s.db.Where("ride_id = ? AND user_id = ?", rideID, userID).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *GormStore) SaveParticipant(p *models.RideParticipant) error {
	if p.ID == 0 {
		return s.db.Create(p).Error
	}
	return s.db.Save(p).Error
}

func (s *GormStore) ConfirmedCount(rideID, excludeUserID string) (int, error) {
	var count int64
	err := s.db.Model(&models.RideParticipant{}).
		Where("ride_id = ? AND status = ? AND user_id <> ?",
			rideID, models.ParticipantStatusConfirmed, excludeUserID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

func (s *GormStore) ListParticipants(rideID string) ([]models.RideParticipant, error) {
	var participants []models.RideParticipant
	err := s.db.Preload("User").Where("ride_id = ?", rideID).Find(&participants).Error
	return participants, err
}

func (s *GormStore) AppendLocation(u *models.RideLocationUpdate) error {
	return s.db.Create(u).Error
}

func (s *GormStore) LocationsSince(rideID string, cutoff time.Time) ([]models.RideLocationUpdate, error) {
	var updates []models.RideLocationUpdate
	err := s.db.Where("ride_id = ? AND timestamp >= ?", rideID, cutoff).
		Order("id ASC").
		Find(&updates).Error
	return updates, err
}
