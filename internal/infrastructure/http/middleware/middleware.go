// Package middleware provides HTTP middleware components
package middleware

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Middleware provides all middleware functions
type Middleware struct {
	logger  *zap.Logger
	limiter *rate.Limiter
}

// New creates a new middleware instance
func New(logger *zap.Logger, requestsPerMin, burst int) *Middleware {
	if requestsPerMin <= 0 {
		requestsPerMin = 600
	}
	if burst <= 0 {
		burst = 30
	}
	return &Middleware{
		logger:  logger,
		limiter: rate.NewLimiter(rate.Limit(requestsPerMin)/60, burst),
	}
}

// RequestID adds a unique request ID to the context and response
func (m *Middleware) RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// Logger logs every request with its latency and status
func (m *Middleware) Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", c.GetString("request_id")),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch {
		case c.Writer.Status() >= 500:
			m.logger.Error("Request failed", fields...)
		case c.Writer.Status() >= 400:
			m.logger.Warn("Request rejected", fields...)
		default:
			m.logger.Info("Request handled", fields...)
		}
	}
}

// Recovery converts panics into 500 responses instead of dropped
// connections
func (m *Middleware) Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				m.logger.Error("Panic recovered",
					zap.Any("error", err),
					zap.String("path", c.Request.URL.Path),
					zap.ByteString("stack", debug.Stack()),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": "internal server error",
				})
			}
		}()
		c.Next()
	}
}

// RateLimit rejects requests beyond the configured rate
func (m *Middleware) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}
