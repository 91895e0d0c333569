package http

import (
	"github.com/gin-gonic/gin"

	"github.com/kindred-app/kindred-backend/internal/delivery/http/handler"
	"github.com/kindred-app/kindred-backend/internal/delivery/http/middleware"
)

type Router struct {
	matchHandler        *handler.MatchHandler
	notificationHandler *handler.NotificationHandler
	adminHandler        *handler.AdminHandler
	authMiddleware      *middleware.AuthMiddleware
	adminToken          string
}

func NewRouter(
	matchHandler *handler.MatchHandler,
	notificationHandler *handler.NotificationHandler,
	adminHandler *handler.AdminHandler,
	authMiddleware *middleware.AuthMiddleware,
	adminToken string,
) *Router {
	return &Router{
		matchHandler:        matchHandler,
		notificationHandler: notificationHandler,
		adminHandler:        adminHandler,
		authMiddleware:      authMiddleware,
		adminToken:          adminToken,
	}
}

func (r *Router) Setup() *gin.Engine {
	router := gin.Default()

	// Health check (supports both GET and HEAD)
	healthHandler := func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	}
	router.GET("/health", healthHandler)
	router.HEAD("/health", healthHandler)

	// API v1
	v1 := router.Group("/api/v1")
	{
		protected := v1.Group("")
		protected.Use(r.authMiddleware.RequireAuth())
		{
			matches := protected.Group("/matches")
			{
				matches.GET("", r.matchHandler.List)
				matches.GET("/:match_id", r.matchHandler.Get)
				matches.POST("/:match_id/like", r.matchHandler.Like)
				matches.POST("/:match_id/pass", r.matchHandler.Pass)
				matches.POST("/:match_id/express-interest", r.matchHandler.ExpressInterest)
				matches.POST("/:match_id/accept-interest", r.matchHandler.AcceptInterest)
			}

			notifications := protected.Group("/notifications")
			{
				notifications.GET("/pending", r.notificationHandler.Pending)
			}
		}

		admin := v1.Group("/admin")
		admin.Use(middleware.RequireAdmin(r.adminToken))
		{
			admin.POST("/matching/run", r.adminHandler.RunBatch)
		}
	}

	return router
}
