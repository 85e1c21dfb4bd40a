package geo

import (
	"math"
	"sync"
)

// RidePoint is a joinable ride's meeting point.
type RidePoint struct {
	RideID    string  `json:"ride_id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Index answers "which upcoming rides start near me" queries.
type Index interface {
	Upsert(p RidePoint)
	Remove(rideID string)
	Nearby(lat, lng, radiusKm float64, limit int) []RidePoint
}

// MemoryIndex is a naive scan over all indexed rides. Fine for a single
// instance; RedisIndex takes over when Redis is configured.
type MemoryIndex struct {
	mu     sync.RWMutex
	points map[string]RidePoint
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{points: make(map[string]RidePoint)}
}

func (g *MemoryIndex) Upsert(p RidePoint) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.points[p.RideID] = p
}

func (g *MemoryIndex) Remove(rideID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.points, rideID)
}

func (g *MemoryIndex) Nearby(lat, lng, radiusKm float64, limit int) []RidePoint {
	g.mu.RLock()
	defer g.mu.RUnlock()

	type scored struct {
		p    RidePoint
		dist float64
	}
	matched := make([]scored, 0, len(g.points))
	for _, p := range g.points {
		dist := Haversine(lat, lng, p.Latitude, p.Longitude)
		if dist <= radiusKm {
			matched = append(matched, scored{p, dist})
		}
	}

	// partial selection sort for the closest N
	n := limit
	if n > len(matched) {
		n = len(matched)
	}
	for i := 0; i < n; i++ {
		minIdx := i
		for j := i + 1; j < len(matched); j++ {
			if matched[j].dist < matched[minIdx].dist {
				minIdx = j
			}
		}
		matched[i], matched[minIdx] = matched[minIdx], matched[i]
	}

	out := make([]RidePoint, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, matched[i].p)
	}
	return out
}

// Haversine distance in kilometers
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadius = 6371.0
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadius * c
}
