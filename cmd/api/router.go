package main

import (
	"net/http"

	"hotel/internal/database"
	"hotel/internal/middleware"
	"hotel/internal/modules/admin"
	"hotel/internal/modules/audit"
	"hotel/internal/modules/auth"
	"hotel/internal/modules/booking"
	"hotel/internal/modules/payment"
	"hotel/internal/modules/roomfeed"
	jwtsvc "hotel/internal/pkg/jwt"
	"hotel/internal/repository"

	"github.com/gin-gonic/gin"
)

type routerDeps struct {
	DB          *database.DB
	Tokens      *jwtsvc.Service
	Recorder    audit.Recorder
	Hub         *roomfeed.Hub
	CORSOrigins []string
}

func newRouter(d routerDeps) *gin.Engine {
	gdb := d.DB.Gorm

	authHandler := auth.NewHandler(auth.NewService(gdb, d.Tokens, d.Recorder))
	bookingHandler := booking.NewHandler(booking.NewService(gdb, d.Recorder, d.Hub))
	paymentHandler := payment.NewHandler(payment.NewService(gdb, d.Recorder))
	adminHandler := admin.NewHandler(admin.NewService(gdb, d.Recorder))
	auditHandler := audit.NewHandler(audit.NewService(repository.NewAuditRepository(gdb)))
	feedHandler := roomfeed.NewWSHandler(d.Hub, d.Tokens, d.CORSOrigins)

	r := gin.New()
	r.Use(middleware.ErrorLogger(), middleware.RequestLogger(), middleware.CORS(d.CORSOrigins))

	r.GET("/health", func(c *gin.Context) {
		if err := d.DB.SQL.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")
	{
		// public
		authHandler.RegisterPublicRoutes(v1)
		feedHandler.RegisterRoutes(v1)

		protected := v1.Group("", middleware.JWTAuth(d.Tokens))
		{
			authHandler.RegisterProtectedRoutes(protected)
			paymentHandler.RegisterRoutes(protected)

			reception := protected.Group("/reception", middleware.StaffOnly())
			bookingHandler.RegisterRoutes(protected, reception)

			adminGroup := protected.Group("/admin", middleware.AdminOnly())
			adminHandler.RegisterRoutes(adminGroup)
			auditHandler.RegisterRoutes(adminGroup)
		}
	}

	return r
}
