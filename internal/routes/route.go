package routes

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/mentorlink/internal/container"
	"github.com/joshua-takyi/mentorlink/internal/handlers"
	"github.com/joshua-takyi/mentorlink/internal/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes configures all routes with the dependency container
func SetupRoutes(container *container.Container) *gin.Engine {
	if container.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(cors.New(corsConfig(container.Config.CORSAllowedOrigins)))

	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(container.Logger))
	r.Use(middleware.ErrorHandler(container.Logger))
	r.Use(gin.Recovery())
	r.Use(middleware.Metrics())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group(container.Config.APIBasePath)
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status":    "OK",
				"service":   "mentorlink-api",
				"backend":   container.ActivityService.Backend(),
				"kv_driver": container.KV.Name(),
			})
		})

		// public routes
		api.POST("/register", handlers.Register(container.UserService))
		api.POST("/login", handlers.Login(container.UserService))
	}

	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(container.UserService, container.Logger))
	{
		protected.GET("/verify-session", handlers.VerifySession(container.UserService))
		protected.POST("/logout", handlers.Logout(container.UserService))

		protected.GET("/profile", handlers.GetProfile(container.ProfileService))
		protected.POST("/profile", handlers.SaveProfile(container.ProfileService))
		protected.POST("/profile/availability", handlers.SaveAvailability(container.ProfileService))

		protected.GET("/my-activities", handlers.MyActivities(container.ActivityService))
	}

	activityRoutes := protected.Group("/activities")
	{
		activityRoutes.GET("", handlers.ListActivities(container.ActivityService))
		activityRoutes.POST("", handlers.CreateActivity(container.ActivityService))
		activityRoutes.GET("/:id", handlers.GetActivity(container.ActivityService))
		activityRoutes.POST("/:id/join", handlers.JoinActivity(container.ActivityService))
	}

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders: []string{"Content-Length", "X-Request-ID"},
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}
