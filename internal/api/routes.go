package api

import (
	"net/http"
	"time"

	"gym360/backend/internal/domain"
	"gym360/backend/internal/service"

	"github.com/charmbracelet/log"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Services bundles what the HTTP layer calls into.
type Services struct {
	Auth           service.AuthService
	Profile        service.ProfileService
	SessionRequest service.SessionRequestService
	Session        service.SessionService
	Feedback       service.FeedbackService
	CoachClient    service.CoachClientService
	Billing        service.BillingService
}

// NewRouter builds the engine with recovery, request ids, request logging
// and CORS for the given origins.
func NewRouter(logger *log.Logger, allowOrigins []string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestID(), RequestLogger(logger)) // Order matters: ids before logging

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", RequestIDHeader},
		ExposeHeaders:    []string{RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowOrigins) == 0 || (len(allowOrigins) == 1 && allowOrigins[0] == "*") {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false // Browsers refuse credentials with a wildcard origin
	} else {
		corsCfg.AllowOrigins = allowOrigins
	}
	router.Use(cors.New(corsCfg))
	return router
}

// SetupRoutes registers every endpoint under /api.
func SetupRoutes(router *gin.Engine, jwtSecret string, services Services, logger *log.Logger) {
	authHandler := NewAuthHandler(services.Auth, logger)
	profileHandler := NewProfileHandler(services.Profile, logger)
	requestHandler := NewSessionRequestHandler(services.SessionRequest, services.Session, logger)
	sessionHandler := NewSessionHandler(services.Session, logger)
	feedbackHandler := NewFeedbackHandler(services.Feedback, logger)
	clientHandler := NewClientHandler(services.CoachClient, services.Billing, logger)

	// Admins may act as coaches on coach endpoints
	coachOrAdmin := RoleMiddleware(domain.RoleCoach, domain.RoleAdmin)

	// Health check
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiGroup := router.Group("/api")

	// --- Public Routes ---
	users := apiGroup.Group("/users")
	{
		users.POST("/register", authHandler.Register)
		users.POST("/login", authHandler.Login)
	}

	// --- Authenticated Routes ---
	protected := apiGroup.Group("")
	protected.Use(AuthMiddleware(jwtSecret))
	{
		// Own account, any role
		me := protected.Group("/users/me")
		{
			me.GET("", profileHandler.Me)
			me.PUT("", profileHandler.UpdateMe)
			me.PUT("/password", profileHandler.ChangePassword)
			me.POST("/avatar/upload-url", profileHandler.RequestAvatarUpload)
			me.PUT("/avatar", profileHandler.ConfirmAvatar)
		}

		// --- Coach Session Requests ---
		requests := protected.Group("/requests")
		requests.Use(coachOrAdmin)
		{
			requests.POST("", requestHandler.CreateRequest)
			requests.GET("/mine", requestHandler.ListMine)
			requests.GET("/notifications", requestHandler.Notifications)
			requests.POST("/notifications/read", requestHandler.MarkNotificationsRead)
			requests.DELETE("/:id", requestHandler.CancelMine)
		}

		// --- Sessions ---
		sessions := protected.Group("/sessions")
		{
			sessions.GET("/coach/mine", coachOrAdmin, sessionHandler.CoachSessions)
			sessions.GET("/mine", RoleMiddleware(domain.RoleClient), sessionHandler.ClientSessions)
		}

		// Client picker for building session requests
		protected.GET("/coach/clients", coachOrAdmin, clientHandler.CoachClients)

		// Client-only billing reads; admin CRUD on these is out of scope
		protected.GET("/subscriptions/my", RoleMiddleware(domain.RoleClient), clientHandler.MySubscriptions)
		protected.GET("/payments/my", RoleMiddleware(domain.RoleClient), clientHandler.MyPayments)

		// --- Client Feedback ---
		feedbacks := protected.Group("/feedbacks")
		feedbacks.Use(RoleMiddleware(domain.RoleClient))
		{
			feedbacks.POST("", feedbackHandler.Submit)
			feedbacks.GET("/my", feedbackHandler.ListMine)
		}

		// --- Admin Routes ---
		admin := protected.Group("/admin")
		admin.Use(RoleMiddleware(domain.RoleAdmin))
		{
			admin.GET("/requests", requestHandler.AdminList)
			admin.POST("/requests/:id/approve", requestHandler.AdminApprove)
			admin.POST("/requests/:id/reject", requestHandler.AdminReject)
			admin.GET("/sessions/orphans", requestHandler.OrphanSessions)
		}
	}
}
