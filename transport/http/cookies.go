package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// CookieConfig describes the cookies set by the auth handlers.
type CookieConfig struct {
	SessionName   string
	SessionMaxAge time.Duration
	TicketName    string
	TicketMaxAge  time.Duration
}

// DefaultCookieConfig returns the cookie names and lifetimes used by the web app.
func DefaultCookieConfig() CookieConfig {
	return CookieConfig{
		SessionName:   "session_id",
		SessionMaxAge: 7 * 24 * time.Hour,
		TicketName:    "siwe_ticket",
		TicketMaxAge:  10 * time.Minute,
	}
}

// setCookie writes a cross-site cookie. The web app lives on another
// domain, so SameSite=None which in turn requires Secure.
func setCookie(c *gin.Context, name, value string, maxAge time.Duration) {
	c.SetSameSite(http.SameSiteNoneMode)
	c.SetCookie(name, value, int(maxAge/time.Second), "/", "", true, true)
}

// clearCookie expires a cookie set by setCookie.
func clearCookie(c *gin.Context, name string) {
	c.SetSameSite(http.SameSiteNoneMode)
	c.SetCookie(name, "", -1, "/", "", true, true)
}
