package web

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const requestIDKey = "request_id"

// requestID ensures every request has a correlation id.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Writer.Header().Set("X-Request-ID", id)
		c.Next()
	}
}

func (s *Server) logRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", c.GetString(requestIDKey)),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			s.logger.Error("request failed", fields...)
			return
		}
		s.logger.Info("request", fields...)
	}
}

func (s *Server) recoverJSON() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered any) {
		s.logger.Error("panic recovered", zap.Any("panic", recovered), zap.String("request_id", c.GetString(requestIDKey)))
		serverError(c, fmt.Errorf("%v", recovered))
	})
}

// corsFor echoes the caller's origin and allows the given verbs plus OPTIONS.
func corsFor(methods ...string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowOriginFunc: func(string) bool { return true },
		AllowMethods:    append(methods, http.MethodOptions),
		AllowHeaders:    []string{"Content-Type", "Authorization"},
		MaxAge:          12 * time.Hour,
	}
	allowMethods := strings.Join(cfg.AllowMethods, ",")
	handler := cors.New(cfg)

	return func(c *gin.Context) {
		// cors skips requests with no Origin and same-host origins; answer
		// those here with the same headers.
		origin := c.GetHeader("Origin")
		if origin == "" || isSameHost(origin, c.Request.Host) {
			h := c.Writer.Header()
			if origin == "" {
				h.Set("Access-Control-Allow-Origin", "*")
			} else {
				h.Set("Access-Control-Allow-Origin", origin)
				h.Add("Vary", "Origin")
			}
			h.Set("Access-Control-Allow-Methods", allowMethods)
			h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			c.Next()
			return
		}
		handler(c)
	}
}

func isSameHost(origin, host string) bool {
	return origin == "http://"+host || origin == "https://"+host
}

// handlePreflight answers OPTIONS requests the cors middleware let through.
func handlePreflight(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// requireToken enforces the shared bearer token when one is configured.
func (s *Server) requireToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.opts.AuthToken == "" {
			c.Next()
			return
		}
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(s.opts.AuthToken)) != 1 {
			s.logger.Warn("unauthorized request",
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", c.GetString(requestIDKey)))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Next()
	}
}
