package http

import (
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/layer-3/goldencity/core"
	"github.com/layer-3/goldencity/service"
	"go.uber.org/zap"
)

const identityKey = "goldencity.identity"

// SessionRequired resolves the session cookie to a caller identity.
// Requests without a live session are rejected with 401.
func SessionRequired(authService *service.AuthService, cookieName string, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, _ := c.Cookie(cookieName)

		id, err := authService.Authenticate(c.Request.Context(), sessionID)
		if err != nil {
			// Store failures still answer 401.
			if errors.Is(err, core.ErrStore) {
				log.Error("session lookup failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
			}
			_ = c.Error(core.Unauthorized("Unauthorized", err))
			c.Abort()
			return
		}

		c.Set(identityKey, id)
		c.Next()
	}
}

// IdentityFrom returns the identity stored by SessionRequired.
func IdentityFrom(c *gin.Context) (core.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return core.Identity{}, false
	}
	id, ok := v.(core.Identity)
	return id, ok
}

type errorBody struct {
	Code    core.Kind      `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// ErrorBoundary renders the last error attached to the context.
func ErrorBoundary(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		e := core.AsError(c.Errors.Last().Err)
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", e.Status()),
			zap.Error(e),
		}
		if e.Status() >= 500 {
			log.Error("request failed", fields...)
		} else {
			log.Warn("request rejected", fields...)
		}

		c.AbortWithStatusJSON(e.Status(), errorBody{
			Code:    e.Kind,
			Message: e.Message,
			Details: e.Details,
		})
	}
}

// Recovery turns panics into internal errors rendered by ErrorBoundary.
func Recovery(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic recovered", zap.Any("panic", r), zap.Stack("stack"))
				_ = c.Error(core.Internal("Internal server error", fmt.Errorf("panic: %v", r)))
				c.Abort()
			}
		}()
		c.Next()
	}
}

// RequestLogger logs every request once it has been served.
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// bindError converts a ShouldBindJSON failure into a validation error.
// Field rules come from `binding` tags; failures are reported per JSON field.
func bindError(message string, err error) *core.Error {
	return core.Validation(message, err).WithDetails(core.FieldIssues(err))
}
