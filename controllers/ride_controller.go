package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"ridehub-api/geo"
	"ridehub-api/models"
	"ridehub-api/observability"
	"ridehub-api/repositories"
	"ridehub-api/services"
	"ridehub-api/utils"
)

type RideController struct {
	store     repositories.RideStore
	lifecycle *services.RideLifecycle
	registry  *services.ParticipantRegistry
	index     geo.Index
}

func NewRideController(store repositories.RideStore, lifecycle *services.RideLifecycle, registry *services.ParticipantRegistry, index geo.Index) *RideController {
	return &RideController{
		store:     store,
		lifecycle: lifecycle,
		registry:  registry,
		index:     index,
	}
}

type CreateRideRequest struct {
	Title           string    `json:"title" binding:"required,max=200"`
	Description     string    `json:"description" binding:"required"`
	StartLocation   string    `json:"start_location" binding:"required"`
	EndLocation     string    `json:"end_location" binding:"required"`
	StartLat        *float64  `json:"start_lat"`
	StartLng        *float64  `json:"start_lng"`
	EndLat          *float64  `json:"end_lat"`
	EndLng          *float64  `json:"end_lng"`
	RoutePolyline   *string   `json:"route_polyline"`
	Date            time.Time `json:"date" binding:"required"`
	Difficulty      string    `json:"difficulty" binding:"required,oneof=easy medium hard"`
	MaxParticipants int       `json:"max_participants" binding:"required,min=2,max=100"`
}

// CreateRide hosts a new ride. The host is written as a confirmed
// participant right away but never counts against the capacity they set.
func (rc *RideController) CreateRide(c *gin.Context) {
	userID := c.GetString("user_id")

	var req CreateRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Date.Before(time.Now()) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Ride date must be in the future"})
		return
	}

	ride := models.Ride{
		ID:              uuid.New().String(),
		Title:           req.Title,
		Description:     req.Description,
		HostID:          userID,
		StartLocation:   req.StartLocation,
		EndLocation:     req.EndLocation,
		StartLat:        req.StartLat,
		StartLng:        req.StartLng,
		EndLat:          req.EndLat,
		EndLng:          req.EndLng,
		RoutePolyline:   req.RoutePolyline,
		Date:            req.Date,
		Difficulty:      req.Difficulty,
		MaxParticipants: req.MaxParticipants,
		Status:          models.RideStatusUpcoming,
	}

	if err := rc.registry.HostRide(&ride); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create ride"})
		return
	}

	if ride.StartLat != nil && ride.StartLng != nil {
		rc.index.Upsert(geo.RidePoint{RideID: ride.ID, Latitude: *ride.StartLat, Longitude: *ride.StartLng})
	}

	observability.RidesHostedTotal.Inc()
	c.JSON(http.StatusCreated, gin.H{"ride": ride})
}

// GetRides lists upcoming rides, soonest departure first, paginated.
func (rc *RideController) GetRides(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 50 {
		limit = 20
	}
	offset := (page - 1) * limit

	rides, total, err := rc.store.ListRides(models.RideStatusUpcoming, offset, limit)
	if err != nil {
		utils.SendError(c, http.StatusInternalServerError, "Failed to fetch rides")
		return
	}

	utils.SendPaginated(c, rides, page, limit, total)
}

func (rc *RideController) GetRide(c *gin.Context) {
	rideID := c.Param("id")

	ride, err := rc.store.GetRide(rideID)
	if err != nil {
		respondServiceError(c, services.ErrRideNotFound)
		return
	}

	participants, err := rc.registry.Roster(rideID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch participants"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ride": ride, "participants": participants})
}

// StartRide moves the ride to ongoing. Host only.
func (rc *RideController) StartRide(c *gin.Context) {
	userID := c.GetString("user_id")
	rideID := c.Param("id")

	ride, err := rc.lifecycle.Start(rideID, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	// a started ride is no longer joinable, drop it from discovery
	rc.index.Remove(rideID)

	c.JSON(http.StatusOK, gin.H{"ride": ride})
}

// CompleteRide closes an ongoing ride. Host only.
func (rc *RideController) CompleteRide(c *gin.Context) {
	userID := c.GetString("user_id")
	rideID := c.Param("id")

	ride, err := rc.lifecycle.Complete(rideID, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	rc.index.Remove(rideID)
	c.JSON(http.StatusOK, gin.H{"ride": ride})
}

// CancelRide is the host's delete action, modeled as a terminal transition.
// The ride record and its location history are kept.
func (rc *RideController) CancelRide(c *gin.Context) {
	userID := c.GetString("user_id")
	rideID := c.Param("id")

	ride, err := rc.lifecycle.Cancel(rideID, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	rc.index.Remove(rideID)
	c.JSON(http.StatusOK, gin.H{"ride": ride})
}

// JoinRide confirms the caller on the ride, capacity permitting.
func (rc *RideController) JoinRide(c *gin.Context) {
	userID := c.GetString("user_id")
	rideID := c.Param("id")

	participant, confirmed, err := rc.registry.Join(rideID, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"participant":     participant,
		"confirmed_count": confirmed,
	})
}

// LeaveRide frees the caller's slot.
func (rc *RideController) LeaveRide(c *gin.Context) {
	userID := c.GetString("user_id")
	rideID := c.Param("id")

	if err := rc.registry.Leave(rideID, userID); err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SendSuccess(c, "Successfully left ride", nil)
}

// GetNearbyRides returns upcoming rides whose meeting point is within the
// requested radius of the caller's position.
func (rc *RideController) GetNearbyRides(c *gin.Context) {
	lat, latErr := strconv.ParseFloat(c.Query("lat"), 64)
	lng, lngErr := strconv.ParseFloat(c.Query("lng"), 64)
	if latErr != nil || lngErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat and lng query parameters are required"})
		return
	}
	radius, err := strconv.ParseFloat(c.DefaultQuery("radius", "25"), 64)
	if err != nil || radius <= 0 {
		radius = 25
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit < 1 || limit > 50 {
		limit = 20
	}

	points := rc.index.Nearby(lat, lng, radius, limit)

	rides := make([]gin.H, 0, len(points))
	for _, p := range points {
		ride, err := rc.store.GetRide(p.RideID)
		if err != nil {
			// index can briefly lag behind the store
			continue
		}
		if ride.Status != models.RideStatusUpcoming {
			continue
		}
		rides = append(rides, gin.H{
			"ride":        ride,
			"distance_km": geo.Haversine(lat, lng, p.Latitude, p.Longitude),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"rides":     rides,
		"radius_km": radius,
		"count":     len(rides),
	})
}
