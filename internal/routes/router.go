package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"signa-backend/internal/config"
	"signa-backend/internal/coresso"
	"signa-backend/internal/delivery/http/handler"
	"signa-backend/internal/infrastructure/database/postgres"
	"signa-backend/internal/logger"
	"signa-backend/internal/mailer"
	"signa-backend/internal/middleware"
	"signa-backend/internal/token"
	"signa-backend/internal/usecase/auth"
	"signa-backend/internal/usecase/emailchange"
	"signa-backend/internal/usecase/password"
)

func SetupRoutes(cfg *config.Config, db *postgres.DB) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())
	router.Use(middleware.CORSMiddleware(&cfg.CORS))
	router.Use(middleware.RequestSizeLimitMiddleware(middleware.DefaultMaxRequestSize))
	router.Use(middleware.RateLimitMiddleware(cfg.RateLimit.GeneralRPS, cfg.RateLimit.GeneralBurst))

	router.GET("/health", func(c *gin.Context) {
		if err := db.Health(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unhealthy",
				"message": "Database connection failed",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"message": "Service is running",
		})
	})

	userRepository := postgres.NewUserRepository(db)
	emailChangeRepository := postgres.NewEmailChangeRepository(db)

	ssoClient := coresso.NewHTTPClient(&cfg.CoreSSO)
	smtpMailer := mailer.NewSMTPMailer(cfg.SMTP, cfg.App.PublicURL)
	resetIssuer := token.NewResetIssuer(cfg.JWT.Secret, time.Duration(cfg.App.ResetTokenTTLHours)*time.Hour)

	authService := auth.NewService(userRepository, ssoClient, cfg)
	passwordService := password.NewService(userRepository, ssoClient, smtpMailer, resetIssuer, cfg)
	emailChangeService := emailchange.NewService(userRepository, emailChangeRepository, ssoClient, smtpMailer, cfg)

	authHandler := handler.NewAuthHandler(authService)
	passwordHandler := handler.NewPasswordHandler(passwordService)
	emailChangeHandler := handler.NewEmailChangeHandler(emailChangeService)

	api := router.Group("/api")
	{
		authHandler.RegisterRoutes(api)
		passwordHandler.RegisterRoutes(api)

		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware(cfg))
		{
			authHandler.RegisterProfileRoutes(protected)
			emailChangeHandler.RegisterRoutes(protected)
		}
	}

	logger.Info("All routes initialized")
	return router
}
