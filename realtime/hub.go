package realtime

import (
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"

	"ridehub-api/observability"
)

// session wraps a websocket connection with a write lock, since gorilla
// connections allow only one concurrent writer.
type session struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *session) send(payload interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(payload)
}

// Hub fans accepted location reports out to websocket subscribers, grouped
// by ride. Subscribers that fail a write are dropped; the poll-based roster
// endpoint remains the source of truth.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[string]map[*session]struct{}
	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{rooms: make(map[string]map[*session]struct{}), logger: logger}
}

// Subscribe registers the connection for a ride's updates and returns an
// unsubscribe function. The hub owns closing the connection.
func (h *Hub) Subscribe(rideID string, conn *websocket.Conn) func() {
	s := &session{conn: conn}

	h.mu.Lock()
	room, ok := h.rooms[rideID]
	if !ok {
		room = make(map[*session]struct{})
		h.rooms[rideID] = room
	}
	room[s] = struct{}{}
	h.mu.Unlock()

	observability.TrackingSubscribers.Inc()
	return func() { h.drop(rideID, s) }
}

// Broadcast sends the payload to every subscriber of the ride.
func (h *Hub) Broadcast(rideID string, payload interface{}) {
	h.mu.RLock()
	sessions := make([]*session, 0, len(h.rooms[rideID]))
	for s := range h.rooms[rideID] {
		sessions = append(sessions, s)
	}
	h.mu.RUnlock()

	for _, s := range sessions {
		if err := s.send(payload); err != nil {
			h.logger.Warn("tracking subscriber write failed", "ride_id", rideID, "error", err)
			h.drop(rideID, s)
		}
	}
}

func (h *Hub) drop(rideID string, s *session) {
	h.mu.Lock()
	room, ok := h.rooms[rideID]
	if ok {
		if _, present := room[s]; !present {
			h.mu.Unlock()
			return
		}
		delete(room, s)
		if len(room) == 0 {
			delete(h.rooms, rideID)
		}
	}
	h.mu.Unlock()

	if ok {
		observability.TrackingSubscribers.Dec()
		_ = s.conn.Close()
	}
}
