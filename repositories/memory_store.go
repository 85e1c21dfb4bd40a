package repositories

import (
	"sort"
	"sync"
	"time"

	"ridehub-api/models"
)

// MemoryStore is a mutex-guarded in-memory RideStore. It mirrors the
// semantics of GormStore closely enough that the participation and tracking
// services can be tested against it without a database.
type MemoryStore struct {
	mu           sync.RWMutex
	rides        map[string]*models.Ride
	participants map[string]map[string]*models.RideParticipant
	locations    []models.RideLocationUpdate
	nextPartID   uint
	nextLocID    uint
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rides:        make(map[string]*models.Ride),
		participants: make(map[string]map[string]*models.RideParticipant),
	}
}

var _ RideStore = (*MemoryStore)(nil)

func (m *MemoryStore) CreateRide(ride *models.Ride) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *ride
	m.rides[ride.ID] = &cp
	return nil
}

func (m *MemoryStore) CreateRideWithHost(ride *models.Ride, host *models.RideParticipant) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rideCp := *ride
	m.rides[ride.ID] = &rideCp

	if host.ID == 0 {
		m.nextPartID++
		host.ID = m.nextPartID
	}
	byUser, ok := m.participants[host.RideID]
	if !ok {
		byUser = make(map[string]*models.RideParticipant)
		m.participants[host.RideID] = byUser
	}
	hostCp := *host
	byUser[host.UserID] = &hostCp
	return nil
}

func (m *MemoryStore) GetRide(id string) (*models.Ride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ride, ok := m.rides[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *ride
	return &cp, nil
}

func (m *MemoryStore) ListRides(status models.RideStatus, offset, limit int) ([]models.Ride, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matched := make([]models.Ride, 0, len(m.rides))
	for _, ride := range m.rides {
		if status != "" && ride.Status != status {
			continue
		}
		matched = append(matched, *ride)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Date.Before(matched[j].Date) })

	total := int64(len(matched))
	if offset >= len(matched) {
		return []models.Ride{}, total, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

func (m *MemoryStore) UpdateRideStatus(id string, from, to models.RideStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ride, ok := m.rides[id]
	if !ok || ride.Status != from {
		return ErrStatusConflict
	}
	ride.Status = to
	ride.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryStore) GetParticipant(rideID, userID string) (*models.RideParticipant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.participants[rideID][userID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MemoryStore) SaveParticipant(p *models.RideParticipant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == 0 {
		m.nextPartID++
		p.ID = m.nextPartID
	}
	byUser, ok := m.participants[p.RideID]
	if !ok {
		byUser = make(map[string]*models.RideParticipant)
		m.participants[p.RideID] = byUser
	}
	cp := *p
	byUser[p.UserID] = &cp
	return nil
}

func (m *MemoryStore) ConfirmedCount(rideID, excludeUserID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for userID, p := range m.participants[rideID] {
		if userID == excludeUserID {
			continue
		}
		if p.Status == models.ParticipantStatusConfirmed {
			count++
		}
	}
	return count, nil
}

func (m *MemoryStore) ListParticipants(rideID string) ([]models.RideParticipant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.RideParticipant, 0, len(m.participants[rideID]))
	for _, p := range m.participants[rideID] {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) AppendLocation(u *models.RideLocationUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextLocID++
	u.ID = m.nextLocID
	u.CreatedAt = time.Now()
	m.locations = append(m.locations, *u)
	return nil
}

func (m *MemoryStore) LocationsSince(rideID string, cutoff time.Time) ([]models.RideLocationUpdate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.RideLocationUpdate
	for _, u := range m.locations {
		if u.RideID != rideID {
			continue
		}
		if u.Timestamp.Before(cutoff) {
			continue
		}
		out = append(out, u)
	}
	return out, nil
}
