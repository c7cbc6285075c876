package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/layer-3/goldencity/service"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

// RouterConfig carries the HTTP-facing settings.
type RouterConfig struct {
	Development    bool
	CORSOrigins    []string
	TrustedProxies []string
	Cookies        CookieConfig
}

// SetupRouter sets up the Gin router
func SetupRouter(
	cfg RouterConfig,
	authService *service.AuthService,
	userService *service.UserService,
	log *zap.Logger,
) (*gin.Engine, error) {
	router := gin.New()

	// Behind a proxy in deployed environments; trust nobody locally.
	proxies := cfg.TrustedProxies
	if cfg.Development {
		proxies = nil
	}
	if err := router.SetTrustedProxies(proxies); err != nil {
		return nil, err
	}

	router.Use(
		RequestLogger(log),
		CORS(cfg.CORSOrigins),
		ErrorBoundary(log),
		Recovery(log),
	)

	authHandlers := NewAuthHandlers(authService, cfg.Cookies, log)
	userHandlers := NewUserHandlers(userService)

	router.GET("/health", Health)

	api := router.Group("/api/v1")
	{
		api.GET("/", Info)

		auth := api.Group("/auth")
		auth.GET("/nonce", authHandlers.Nonce)
		auth.POST("/siwe", authHandlers.SIWE)
		auth.POST("/logout", authHandlers.Logout)

		users := api.Group("/users")
		users.POST("", userHandlers.Create)

		session := SessionRequired(authService, cfg.Cookies.SessionName, log)
		users.GET("/me", session, userHandlers.Me)
		users.POST("/kyc", session, userHandlers.SubmitKYC)
		users.POST("/onboarding/complete", session, userHandlers.CompleteOnboarding)
	}

	router.NoRoute(NotFound)

	return router, nil
}

// CORS allows credentialed requests from the configured origins.
func CORS(origins []string) gin.HandlerFunc {
	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
	})

	return func(ctx *gin.Context) {
		c.HandlerFunc(ctx.Writer, ctx.Request)
		if ctx.Request.Method == http.MethodOptions && ctx.GetHeader("Access-Control-Request-Method") != "" {
			ctx.AbortWithStatus(http.StatusNoContent)
			return
		}
		ctx.Next()
	}
}
