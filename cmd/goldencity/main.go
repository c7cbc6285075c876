package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/gin-gonic/gin"
	"github.com/layer-3/goldencity/adapters/events"
	"github.com/layer-3/goldencity/adapters/store"
	"github.com/layer-3/goldencity/adapters/store/postgres"
	"github.com/layer-3/goldencity/adapters/tokenizer"
	"github.com/layer-3/goldencity/config"
	"github.com/layer-3/goldencity/ports"
	"github.com/layer-3/goldencity/service"
	transport "github.com/layer-3/goldencity/transport/http"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}

	log, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped", zap.Error(err))
		os.Exit(1)
	}
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	if cfg.Development() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func run(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	var db *postgres.DB
	if cfg.DatabaseURL != "" {
		if err := postgres.Migrate(ctx, cfg.DatabaseURL); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
		var err error
		db, err = postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()
		if err := db.Ping(ctx); err != nil {
			return fmt.Errorf("failed to reach database: %w", err)
		}
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to parse Redis URL: %w", err)
		}
		redisClient = redis.NewClient(opts)
		defer redisClient.Close()
	}

	publisher, err := newPublisher(redisClient, log)
	if err != nil {
		return fmt.Errorf("failed to create event publisher: %w", err)
	}
	eventPub := events.NewWatermillPublisher(publisher, cfg.EventsTopicPrefix)
	defer eventPub.Close()

	var users ports.UserStore = store.NewMemoryUserStore()
	if db != nil {
		users = postgres.NewUserRepo(db)
	}

	var sessions ports.SessionStore
	switch cfg.SessionBackend {
	case config.BackendPostgres:
		sessions = postgres.NewSessionRepo(db)
	case config.BackendRedis:
		sessions = store.NewRedisSessionStore(redisClient)
	default:
		sessions = store.NewMemorySessionStore()
	}

	var nonces ports.NonceRegistry = store.NewMemoryNonceRegistry()
	if redisClient != nil {
		nonces = store.NewRedisNonceRegistry(redisClient)
	}

	authService := service.NewAuthService(
		service.AuthConfig{
			Domain:         cfg.SIWEDomain,
			SessionTTL:     cfg.SessionTTL,
			NonceTTL:       cfg.NonceTTL,
			SingleUseNonce: cfg.SingleUseNonce,
		},
		sessions,
		tokenizer.NewJWTTokenizer([]byte(cfg.SessionSecret), "goldencity-api"),
		nonces,
		eventPub,
		log.Named("auth"),
	)
	userService := service.NewUserService(users, eventPub, log.Named("users"), cfg.RequireKYCForOnboarding)

	if !cfg.Development() {
		gin.SetMode(gin.ReleaseMode)
	}

	cookies := transport.DefaultCookieConfig()
	cookies.SessionName = cfg.SessionCookieName
	cookies.SessionMaxAge = cfg.SessionTTL
	cookies.TicketMaxAge = cfg.NonceTTL

	router, err := transport.SetupRouter(transport.RouterConfig{
		Development:    cfg.Development(),
		CORSOrigins:    cfg.CORSOrigins,
		TrustedProxies: cfg.TrustedProxies,
		Cookies:        cookies,
	}, authService, userService, log.Named("http"))
	if err != nil {
		return fmt.Errorf("failed to set up router: %w", err)
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("API server running",
			zap.String("addr", srv.Addr),
			zap.String("env", cfg.Env),
			zap.String("session_backend", cfg.SessionBackend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info("signal received, closing connections")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	log.Info("HTTP server closed")
	return nil
}

// newPublisher publishes to Redis streams when Redis is configured and to an
// in-process channel otherwise.
func newPublisher(client *redis.Client, log *zap.Logger) (message.Publisher, error) {
	logger := events.NewZapLogger(log.Named("events"))
	if client == nil {
		return gochannel.NewGoChannel(gochannel.Config{}, logger), nil
	}
	return redisstream.NewPublisher(
		redisstream.PublisherConfig{
			Client: client,
		},
		logger,
	)
}
