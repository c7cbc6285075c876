package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/layer-3/goldencity/core"
	"github.com/layer-3/goldencity/service"
	"go.uber.org/zap"
)

// AuthHandlers contains HTTP handlers for auth endpoints
type AuthHandlers struct {
	authService *service.AuthService
	cookies     CookieConfig
	log         *zap.Logger
}

// NewAuthHandlers creates new auth handlers
func NewAuthHandlers(authService *service.AuthService, cookies CookieConfig, log *zap.Logger) *AuthHandlers {
	return &AuthHandlers{
		authService: authService,
		cookies:     cookies,
		log:         log,
	}
}

// Nonce issues a fresh SIWE nonce
func (h *AuthHandlers) Nonce(c *gin.Context) {
	res, err := h.authService.Nonce(c.Request.Context())
	if err != nil {
		_ = c.Error(core.Internal("Failed to generate nonce", err))
		return
	}

	if res.Ticket != "" {
		setCookie(c, h.cookies.TicketName, res.Ticket, h.cookies.TicketMaxAge)
	}

	c.JSON(http.StatusOK, gin.H{"nonce": res.Nonce})
}

// SIWE verifies a signed message and opens a session
func (h *AuthHandlers) SIWE(c *gin.Context) {
	var req struct {
		Message   string `json:"message" binding:"required"`
		Signature string `json:"signature" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(bindError("Missing message or signature", err))
		return
	}

	ticket, _ := c.Cookie(h.cookies.TicketName)

	session, err := h.authService.Login(c.Request.Context(), req.Message, req.Signature, ticket)
	if err != nil {
		_ = c.Error(core.AsError(err))
		return
	}

	setCookie(c, h.cookies.SessionName, session.ID, h.cookies.SessionMaxAge)
	if ticket != "" {
		clearCookie(c, h.cookies.TicketName)
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"walletAddress": session.WalletAddress,
	})
}

// Logout deletes the session and clears the cookie. It always succeeds for
// the client; a failed delete leaves the session to expire on its own.
func (h *AuthHandlers) Logout(c *gin.Context) {
	if sessionID, err := c.Cookie(h.cookies.SessionName); err == nil && sessionID != "" {
		if err := h.authService.Logout(c.Request.Context(), sessionID); err != nil {
			h.log.Error("failed to delete session on logout", zap.Error(err))
		}
	}

	clearCookie(c, h.cookies.SessionName)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Health reports liveness
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Info describes the API
func Info(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"version": "1.0.0", "name": "goldencity-api"})
}

// NotFound handles unknown paths
func NotFound(c *gin.Context) {
	_ = c.Error(core.NotFound("Path not found", nil).WithDetails(map[string]any{
		"path": c.Request.URL.Path,
	}))
}
