package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// NewRouter creates and configures the HTTP router with all endpoints.
// Uses RouterConfig to receive all dependencies.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(requestLogger(cfg.Logger))
	router.Use(gin.Recovery())

	health := NewHealthController(cfg.Database, cfg.Version)
	content := NewContentController(cfg.Provider, cfg.Authority, cfg.Logger)
	changes := NewChangesController(cfg.Provider, cfg.Authority, cfg.Logger)

	// Health endpoints
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	// Content resolver endpoints
	router.GET("/content/*path", content.Query)
	router.POST("/content/*path", content.Insert)
	router.PUT("/content/*path", content.Update)
	router.DELETE("/content/*path", content.Delete)

	// Change feed (server-sent events)
	router.GET("/changes/*path", changes.Stream)

	return router
}

// requestLogger logs one line per request in place of gin.Logger.
func requestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		event := log.Info()
		if c.Writer.Status() >= 500 {
			event = log.Error()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("HTTP request")
	}
}
