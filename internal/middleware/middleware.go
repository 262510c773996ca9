package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joshua-takyi/mentorlink/internal/helpers"
	"github.com/joshua-takyi/mentorlink/internal/models"
	"github.com/joshua-takyi/mentorlink/internal/observability"
	"github.com/joshua-takyi/mentorlink/internal/services"
)

const (
	RequestIDKey   = "request_id"
	UserKey        = "user"
	AccessTokenKey = "access_token"
)

// RequestID middleware adds a unique request ID to each request
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set(RequestIDKey, requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// StructuredLogger provides structured logging middleware
func StructuredLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		if raw != "" {
			path = path + "?" + raw
		}
		requestID, _ := c.Get(RequestIDKey)

		logger.Info("HTTP Request",
			"request_id", requestID,
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", latency,
			"client_ip", c.ClientIP(),
		)
	}
}

// ErrorHandler logs errors pushed with c.Error and answers 500 when the
// handler has not written a response yet.
func ErrorHandler(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last()
		requestID := c.GetString(RequestIDKey)

		logger.Error("Request error",
			"request_id", requestID,
			"error", err.Error(),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
		)

		if c.Writer.Written() {
			return
		}
		// don't return error details
		c.JSON(http.StatusInternalServerError, models.ErrorBody{
			Error:     "Internal server error",
			RequestID: requestID,
		})
	}
}

// Metrics records request counts and latency per matched route.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		observability.RecordRequest(route, c.Request.Method, c.Writer.Status(), time.Since(start))
	}
}

// AuthMiddleware requires a bearer token and stores the resolved identity
// under UserKey.
func AuthMiddleware(userService *services.UserService, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := helpers.BearerToken(c.GetHeader("Authorization"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse("Authorization token required"))
			return
		}

		user, err := userService.Authenticate(c.Request.Context(), token)
		if err != nil {
			logger.Debug("Token rejected", "request_id", c.GetString(RequestIDKey), "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse(models.ErrUnauthorized.Error()))
			return
		}

		c.Set(UserKey, user)
		c.Set(AccessTokenKey, token)
		c.Next()
	}
}

// CurrentUser returns the identity stored by AuthMiddleware.
func CurrentUser(c *gin.Context) (*models.Identity, bool) {
	v, ok := c.Get(UserKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.Identity)
	return user, ok && user != nil
}
