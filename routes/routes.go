package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"ridehub-api/config"
	"ridehub-api/controllers"
	"ridehub-api/geo"
	"ridehub-api/middleware"
	"ridehub-api/realtime"
	"ridehub-api/repositories"
	"ridehub-api/services"
)

// Deps carries everything the route tree needs. Wired once in main.
type Deps struct {
	DB           *gorm.DB
	Config       *config.Config
	Store        repositories.RideStore
	Lifecycle    *services.RideLifecycle
	Registry     *services.ParticipantRegistry
	Aggregator   *services.LocationAggregator
	EmailService *services.EmailService
	GeoIndex     geo.Index
	Hub          *realtime.Hub
}

func SetupRoutes(r *gin.Engine, deps Deps) {
	authController := controllers.NewAuthController(deps.DB, deps.Config.JWTSecret, deps.EmailService)
	userController := controllers.NewUserController(deps.DB)
	rideController := controllers.NewRideController(deps.Store, deps.Lifecycle, deps.Registry, deps.GeoIndex)
	trackingController := controllers.NewTrackingController(deps.Aggregator, deps.Registry, deps.Hub)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
			"status":  "healthy",
		})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API version 1
	v1 := r.Group("/api/v1")

	// Auth routes (public)
	auth := v1.Group("/auth")
	{
		auth.POST("/register", authController.Register)
		auth.POST("/login", authController.Login)
		auth.POST("/logout", authController.Logout)
		auth.POST("/verify-code", authController.VerifyCode)
	}

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware(deps.Config.JWTSecret))
	{
		// User routes
		users := protected.Group("/users")
		{
			users.GET("/profile", userController.GetProfile)
			users.PUT("/profile", userController.UpdateProfile)
			users.GET("/:id", userController.GetUser)
		}

		// Ride routes
		rides := protected.Group("/rides")
		{
			rides.GET("/", rideController.GetRides)
			rides.POST("/", rideController.CreateRide)
			rides.GET("/nearby", rideController.GetNearbyRides)
			rides.GET("/:id", rideController.GetRide)
			rides.POST("/:id/start", rideController.StartRide)
			rides.POST("/:id/complete", rideController.CompleteRide)
			rides.DELETE("/:id", rideController.CancelRide)
			rides.POST("/:id/join", rideController.JoinRide)
			rides.DELETE("/:id/leave", rideController.LeaveRide)

			// Tracking routes. Ingest is rate limited; a well behaved client
			// reports every 5 seconds, so 30/min with a small burst is plenty.
			rides.POST("/:id/tracking", middleware.RateLimit(30, 5), trackingController.ReportLocation)
			rides.GET("/:id/tracking", trackingController.GetCurrentRoster)
			rides.GET("/:id/tracking/ws", trackingController.StreamRoster)
		}
	}
}
