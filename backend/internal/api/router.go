// Package api exposes the Conduit services over HTTP with gin.
package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"conduit/backend/internal/services"
)

// Handler carries the services every route handler needs
type Handler struct {
	sm  *services.ServiceManager
	log *zap.Logger
}

// NewRouter builds the gin engine with middleware and all routes
func NewRouter(sm *services.ServiceManager, log *zap.Logger) *gin.Engine {
	h := &Handler{sm: sm, log: log.Named("api")}

	router := gin.New()
	router.Use(ginLogger(log))
	router.Use(gin.Recovery())
	router.Use(cors())
	router.Use(instrument())

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	optional := authenticate(h, false)
	required := authenticate(h, true)

	api := router.Group("/api")
	{
		// Users
		api.POST("/users", h.register)
		api.POST("/users/login", h.login)
		api.GET("/user", required, h.currentUser)
		api.PUT("/user", required, h.updateUser)
		api.DELETE("/user", required, h.deleteUser)

		// Profiles
		api.GET("/profiles/:username", optional, h.getProfile)
		api.POST("/profiles/:username/follow", required, h.follow)
		api.DELETE("/profiles/:username/follow", required, h.unfollow)

		// Articles
		api.GET("/articles", optional, h.listArticles)
		api.GET("/articles/feed", required, h.feed)
		api.POST("/articles", required, h.createArticle)
		api.GET("/articles/:slug", optional, h.getArticle)
		api.PUT("/articles/:slug", required, h.updateArticle)
		api.DELETE("/articles/:slug", required, h.deleteArticle)
		api.POST("/articles/:slug/favorite", required, h.favorite)
		api.DELETE("/articles/:slug/favorite", required, h.unfavorite)

		// Comments
		api.GET("/articles/:slug/comments", optional, h.listComments)
		api.POST("/articles/:slug/comments", required, h.createComment)
		api.DELETE("/articles/:slug/comments/:id", required, h.deleteComment)

		// Tags
		api.GET("/tags", h.listTags)
	}

	return router
}

// ginLogger logs every request once it has been served. Server errors are
// logged at Error so they surface in production.
func ginLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path += "?" + raw
		}

		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("route", c.FullPath()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		}
		if status >= http.StatusInternalServerError {
			log.Error("HTTP Request", fields...)
			return
		}
		log.Info("HTTP Request", fields...)
	}
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
