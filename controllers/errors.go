package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"ridehub-api/services"
)

// respondServiceError translates engine errors into distinct HTTP responses
// so the UI can tell "ride full" from "ride already started".
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrRideNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Ride not found"})
	case errors.Is(err, services.ErrRideFull):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Ride is full"})
	case errors.Is(err, services.ErrAlreadyJoined):
		c.JSON(http.StatusConflict, gin.H{"error": "You are already part of this ride"})
	case errors.Is(err, services.ErrInvalidRideState):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Ride status does not allow this action"})
	case errors.Is(err, services.ErrInvalidTransition):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Ride cannot change to that status"})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the host can do this"})
	case errors.Is(err, services.ErrNotAParticipant):
		c.JSON(http.StatusForbidden, gin.H{"error": "You must be a confirmed participant"})
	case errors.Is(err, services.ErrHostCannotLeave):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Host cannot leave their own ride, cancel it instead"})
	case errors.Is(err, services.ErrInvalidCoordinates):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Coordinates out of range"})
	case errors.Is(err, services.ErrBusy):
		c.Header("Retry-After", "1")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Ride is busy, please retry"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
