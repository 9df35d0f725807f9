package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"member-care.backend/internal/interfaces/http/handlers"
	"member-care.backend/internal/interfaces/http/middleware"
	"member-care.backend/pkg/jwt"
	"member-care.backend/pkg/metrics"
)

type dbPinger interface {
	Ping() error
}

type routeDeps struct {
	authHandler        *handlers.AuthHandler
	memberHandler      *handlers.MemberHandler
	certificateHandler *handlers.CertificateHandler
	webhookHandler     *handlers.WebhookHandler
	jwtService         *jwt.JWTService
	dbPinger           dbPinger
}

func newRouter(d routeDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggerMiddleware())

	registerHealthRoute(r, d.dbPinger)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	// The gateway signs the raw payload; the webhook stays outside the
	// authenticated API surface
	r.POST("/webhook", d.webhookHandler.HandleWebhook)

	registerAPIV1Routes(r, d)
	return r
}

func registerHealthRoute(r *gin.Engine, db dbPinger) {
	r.GET("/health", func(c *gin.Context) {
		status := "ok"
		code := http.StatusOK
		if db != nil {
			if err := db.Ping(); err != nil {
				status = "degraded"
				code = http.StatusServiceUnavailable
			}
		}
		c.JSON(code, gin.H{"status": status})
	})
}

func registerAPIV1Routes(r *gin.Engine, d routeDeps) {
	v1 := r.Group("/api/v1")
	{
		// Auth routes (public)
		auth := v1.Group("/auth")
		{
			auth.POST("/register", middleware.IdempotencyMiddleware("register"), d.authHandler.Register)
			auth.POST("/login", d.authHandler.Login)
		}

		// Member routes (protected)
		me := v1.Group("/members/me")
		me.Use(middleware.AuthMiddleware(d.jwtService))
		{
			me.GET("", d.memberHandler.GetMe)
			me.PUT("/children", d.memberHandler.UpdateChildren)
			me.GET("/medical", d.memberHandler.GetMedical)
			me.GET("/certificate", d.certificateHandler.GetCertificate)
			me.GET("/certificate/download", d.certificateHandler.DownloadCertificate)
		}
	}
}
