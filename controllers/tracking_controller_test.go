package controllers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"ridehub-api/models"
	"ridehub-api/realtime"
	"ridehub-api/repositories"
	"ridehub-api/services"
)

// asUser stands in for the auth middleware: it trusts a test header instead
// of a JWT.
func asUser(next gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", c.GetHeader("X-User"))
		next(c)
	}
}

func newTrackingRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := repositories.NewMemoryStore()
	lifecycle := services.NewRideLifecycle(store, nil)
	registry := services.NewParticipantRegistry(store, lifecycle, time.Second, nil)
	aggregator := services.NewLocationAggregator(store, lifecycle, registry, 5*time.Minute, nil)
	controller := NewTrackingController(aggregator, registry, realtime.NewHub(nil))

	err := registry.HostRide(&models.Ride{
		ID:              "ride-1",
		Title:           "Sunday loop",
		HostID:          "host",
		Date:            time.Now().Add(24 * time.Hour),
		Difficulty:      "medium",
		MaxParticipants: 5,
		Status:          models.RideStatusUpcoming,
	})
	if err != nil {
		t.Fatalf("HostRide: %v", err)
	}
	if _, _, err := registry.Join("ride-1", "rider-1"); err != nil {
		t.Fatalf("Join: %v", err)
	}
	if err := store.UpdateRideStatus("ride-1", models.RideStatusUpcoming, models.RideStatusOngoing); err != nil {
		t.Fatalf("start ride: %v", err)
	}

	r := gin.New()
	r.POST("/rides/:id/tracking", asUser(controller.ReportLocation))
	r.GET("/rides/:id/tracking", asUser(controller.GetCurrentRoster))
	return r
}

func postReport(r *gin.Engine, user, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/rides/ride-1/tracking", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User", user)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// Zero is a legal coordinate: a rider on the equator or the prime meridian
// must not be rejected at the binding layer.
func TestReportLocationZeroCoordinates(t *testing.T) {
	r := newTrackingRouter(t)

	cases := []struct {
		name string
		body string
	}{
		{"zero latitude", `{"latitude":0,"longitude":19.04}`},
		{"zero longitude", `{"latitude":47.5,"longitude":0}`},
		{"null island", `{"latitude":0,"longitude":0}`},
	}
	for _, tc := range cases {
		w := postReport(r, "rider-1", tc.body)
		if w.Code != http.StatusCreated {
			t.Errorf("%s: status = %d, want 201 (body %s)", tc.name, w.Code, w.Body.String())
		}
	}
}

func TestReportLocationMissingCoordinates(t *testing.T) {
	r := newTrackingRouter(t)

	for _, body := range []string{`{}`, `{"latitude":47.5}`, `{"longitude":19.04}`} {
		w := postReport(r, "rider-1", body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("body %s: status = %d, want 400", body, w.Code)
		}
	}
}

func TestReportLocationOutOfRangeCoordinates(t *testing.T) {
	r := newTrackingRouter(t)

	w := postReport(r, "rider-1", `{"latitude":90.5,"longitude":19.04}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Coordinates out of range") {
		t.Errorf("body = %s, want range error from the aggregator", w.Body.String())
	}
}

func TestReportLocationStrangerForbidden(t *testing.T) {
	r := newTrackingRouter(t)

	w := postReport(r, "stranger", `{"latitude":47.5,"longitude":19.04}`)
	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", w.Code)
	}
}

func TestGetCurrentRosterAfterReport(t *testing.T) {
	r := newTrackingRouter(t)

	if w := postReport(r, "rider-1", `{"latitude":0,"longitude":19.04}`); w.Code != http.StatusCreated {
		t.Fatalf("report: status = %d", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/rides/ride-1/tracking", nil)
	req.Header.Set("X-User", "host")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("roster: status = %d, body %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"user_id":"rider-1"`) {
		t.Errorf("roster body = %s, want rider-1 entry", w.Body.String())
	}
}
