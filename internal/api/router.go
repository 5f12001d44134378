package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/kanban-crm-api/internal/config"
	"github.com/kanban-crm-api/internal/metrics"
	"github.com/kanban-crm-api/internal/models"
	"github.com/kanban-crm-api/internal/service"
	"github.com/rs/zerolog"
)

const (
	// ActorHeader carries the id of the acting user
	ActorHeader = "X-User-ID"
	// RequestIDHeader carries the request correlation id
	RequestIDHeader = "X-Request-ID"

	actorKey     = "actor"
	requestIDKey = "request_id"
)

// NewRouter creates and configures the Gin router. A nil m disables metrics.
func NewRouter(services *service.Services, cfg *config.Config, m *metrics.Metrics, log zerolog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Middleware
	router.Use(recoveryMiddleware(log))
	router.Use(requestIDMiddleware())
	router.Use(loggingMiddleware(log))
	router.Use(corsMiddleware(cfg.Server.AllowedOrigins))
	if m != nil {
		router.Use(metricsMiddleware(m))
	}

	errs := newErrorResponder(m, log)
	boardHandler := NewBoardHandler(services, errs, log)
	leadHandler := NewLeadHandler(services, errs, log)
	exportHandler := NewExportHandler(services, errs, log)

	// Health check
	router.GET("/health", healthCheck)
	if m != nil {
		router.GET("/metrics", gin.WrapH(m.Handler()))
	}

	// API v1
	v1 := router.Group("/v1")
	v1.Use(actorMiddleware(services.Users, errs))
	{
		boards := v1.Group("/boards")
		{
			boards.GET("", boardHandler.List)
			boards.POST("", boardHandler.Create)
			boards.POST("/ensure-novos", boardHandler.EnsureNovos)
			boards.PUT("/order", boardHandler.UpdateOrder)
			boards.GET("/:id", boardHandler.Get)
			boards.PATCH("/:id", boardHandler.Update)
			boards.DELETE("/:id", boardHandler.Remove)
			boards.GET("/:id/leads", boardHandler.Leads)
			boards.POST("/:id/leads", boardHandler.CreateLead)
		}

		leads := v1.Group("/leads")
		{
			leads.GET("", leadHandler.List)
			leads.GET("/export", exportHandler.StreamExport)
			leads.POST("/move", boardHandler.MoveLead)
			leads.GET("/:id", leadHandler.Get)
			leads.PATCH("/:id", leadHandler.Update)
			leads.DELETE("/:id", leadHandler.Remove)
			leads.GET("/:id/occurrences", leadHandler.Occurrences)
		}
	}

	return router
}

// healthCheck returns the health status
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"service":   "kanban-crm-api",
	})
}

// recoveryMiddleware handles panics
func recoveryMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().Interface("error", err).Str("path", c.Request.URL.Path).Msg("Panic recovered")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": "internal server error",
				})
			}
		}()
		c.Next()
	}
}

// requestIDMiddleware propagates or assigns a request id
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(requestIDKey, id)
		c.Writer.Header().Set(RequestIDHeader, id)
		c.Next()
	}
}

// loggingMiddleware logs requests
func loggingMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()

		event := log.Info()
		if statusCode >= 400 {
			event = log.Warn()
		}
		if statusCode >= 500 {
			event = log.Error()
		}
		if actor, ok := actorFrom(c); ok {
			event = event.Int64("user_id", actor.ID)
		}

		event.
			Str("request_id", c.GetString(requestIDKey)).
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", statusCode).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Msg("Request completed")
	}
}

// corsMiddleware handles CORS for the configured origins. "*" allows any.
func corsMiddleware(allowed []string) gin.HandlerFunc {
	wildcard := false
	origins := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			wildcard = true
		}
		origins[o] = true
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		switch {
		case wildcard:
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		case origin != "" && origins[origin]:
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Add("Vary", "Origin")
		}
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+ActorHeader+", "+RequestIDHeader)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// metricsMiddleware records request counts and latencies by route
func metricsMiddleware(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		m.ActiveConnections.Inc()
		defer m.ActiveConnections.Dec()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.HTTPRequests.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		m.HTTPDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// actorMiddleware resolves the acting user from the X-User-ID header
func actorMiddleware(users service.UserService, errs *errorResponder) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(ActorHeader)
		id, err := strconv.ParseInt(raw, 10, 64)
		if raw == "" || err != nil || id <= 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid " + ActorHeader + " header"})
			return
		}

		actor, err := users.Actor(c.Request.Context(), id)
		if err != nil {
			errs.respond(c, err)
			c.Abort()
			return
		}
		c.Set(actorKey, actor)
		c.Next()
	}
}

func actorFrom(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return nil, false
	}
	actor, ok := v.(*models.User)
	return actor, ok
}

// mustActor returns the user set by actorMiddleware
func mustActor(c *gin.Context) *models.User {
	actor, _ := actorFrom(c)
	return actor
}
