package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"ridehub-api/realtime"
	"ridehub-api/services"
)

type TrackingController struct {
	aggregator *services.LocationAggregator
	registry   *services.ParticipantRegistry
	hub        *realtime.Hub
}

func NewTrackingController(aggregator *services.LocationAggregator, registry *services.ParticipantRegistry, hub *realtime.Hub) *TrackingController {
	return &TrackingController{
		aggregator: aggregator,
		registry:   registry,
		hub:        hub,
	}
}

// Coordinates are pointers so that 0 (equator, prime meridian) survives the
// required check; range validation belongs to the aggregator.
type LocationReportRequest struct {
	Latitude  *float64   `json:"latitude" binding:"required"`
	Longitude *float64   `json:"longitude" binding:"required"`
	Timestamp *time.Time `json:"timestamp"`
}

// ReportLocation ingests one position report from a confirmed participant
// of an ongoing ride.
func (tc *TrackingController) ReportLocation(c *gin.Context) {
	userID := c.GetString("user_id")
	rideID := c.Param("id")

	var req LocationReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ts := time.Now()
	if req.Timestamp != nil {
		ts = *req.Timestamp
	}

	update, err := tc.aggregator.Record(rideID, userID, *req.Latitude, *req.Longitude, ts)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"location_update": update})
}

// GetCurrentRoster returns the latest fresh position per participant.
func (tc *TrackingController) GetCurrentRoster(c *gin.Context) {
	userID := c.GetString("user_id")
	rideID := c.Param("id")

	roster, err := tc.aggregator.CurrentRoster(rideID, userID, time.Now())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"locations":          roster,
		"freshness_window_s": int(tc.aggregator.Window().Seconds()),
	})
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// StreamRoster upgrades to a websocket and pushes every accepted report for
// the ride to the client until it disconnects. Confirmed participants only.
func (tc *TrackingController) StreamRoster(c *gin.Context) {
	userID := c.GetString("user_id")
	rideID := c.Param("id")

	confirmed, err := tc.registry.IsConfirmed(rideID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if !confirmed {
		respondServiceError(c, services.ErrNotAParticipant)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Websocket upgrade failed"})
		return
	}

	unsubscribe := tc.hub.Subscribe(rideID, conn)
	defer unsubscribe()

	// drain control frames; the first read error means the client is gone
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
