package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/suryansh1j/vaidya/config"
	"github.com/suryansh1j/vaidya/internal/middleware"
	"github.com/suryansh1j/vaidya/pkg/auth"
)

type Handlers struct {
	Auth    *AuthHandler
	Patient *PatientHandler
	Upload  *UploadHandler
}

// RegisterRoutes binds the v1 API onto the engine. Auth endpoints carry the
// stricter rate limit; everything behind /patients and /upload-audio
// requires a bearer token.
func RegisterRoutes(r *gin.Engine, h Handlers, jwtManager *auth.JWTManager, cfg *config.Config) {
	api := r.Group("/api/v1")

	api.GET("/health", healthHandler(cfg))

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.AuthRateLimit(cfg.RateLimit))
	{
		authGroup.POST("/register", h.Auth.Register)
		authGroup.POST("/login", h.Auth.Login)
		authGroup.POST("/refresh", h.Auth.Refresh)
		authGroup.GET("/me", middleware.Authenticate(jwtManager), h.Auth.Me)
	}

	protected := api.Group("")
	protected.Use(middleware.Authenticate(jwtManager))
	{
		protected.POST("/upload-audio", h.Upload.Upload)
		protected.GET("/patients", h.Patient.List)
		protected.GET("/patients/:id", h.Patient.Get)
		protected.PUT("/patients/:id", h.Patient.Update)
	}
}

func healthHandler(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "healthy",
			"app":         cfg.App.Name,
			"environment": cfg.App.Environment,
		})
	}
}
