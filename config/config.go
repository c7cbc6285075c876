// Package config builds the immutable service configuration from flags and
// environment variables. Flags win over the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

// Environments accepted by ENV.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

// Session backends accepted by SESSION_BACKEND.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Config is built once at startup and passed by value.
type Config struct {
	Env  string
	Host string
	Port int

	CORSOrigins    []string
	TrustedProxies []string

	SIWEDomain        string
	SessionSecret     string
	SessionTTL        time.Duration
	SessionCookieName string
	NonceTTL          time.Duration

	DatabaseURL    string
	RedisURL       string
	SessionBackend string

	SingleUseNonce          bool
	RequireKYCForOnboarding bool

	EventsTopicPrefix string
}

// Development reports whether the service runs locally.
func (c Config) Development() bool { return c.Env == EnvDevelopment }

// Addr is the listen address.
func (c Config) Addr() string { return fmt.Sprintf("%s:%d", c.Host, c.Port) }

// Load parses args (without the program name) using the process environment
// for defaults.
func Load(args []string) (Config, error) {
	return load(args, os.LookupEnv)
}

type lookupFunc func(string) (string, bool)

// env reads typed defaults from the environment, collecting parse errors.
type env struct {
	lookup lookupFunc
	errs   []error
}

func (e *env) str(name, fallback string) string {
	if v, ok := e.lookup(name); ok && v != "" {
		return v
	}
	return fallback
}

func (e *env) integer(name string, fallback int) int {
	v, ok := e.lookup(name)
	if !ok || v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", name, err))
		return fallback
	}
	return n
}

func (e *env) boolean(name string, fallback bool) bool {
	v, ok := e.lookup(name)
	if !ok || v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", name, err))
		return fallback
	}
	return b
}

func (e *env) duration(name string, fallback time.Duration) time.Duration {
	v, ok := e.lookup(name)
	if !ok || v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", name, err))
		return fallback
	}
	return d
}

func (e *env) csv(name, fallback string) []string {
	return splitCSV(e.str(name, fallback))
}

func load(args []string, lookup lookupFunc) (Config, error) {
	e := &env{lookup: lookup}
	var cfg Config

	fs := pflag.NewFlagSet("goldencity", pflag.ContinueOnError)
	fs.StringVar(&cfg.Env, "env", e.str("ENV", EnvDevelopment), "runtime environment (development|production|test)")
	fs.StringVar(&cfg.Host, "host", e.str("HOST", "0.0.0.0"), "listen host")
	fs.IntVar(&cfg.Port, "port", e.integer("PORT", 3001), "listen port")
	fs.StringSliceVar(&cfg.CORSOrigins, "cors-origins", e.csv("CORS_ORIGINS", ""), "allowed CORS origins")
	fs.StringSliceVar(&cfg.TrustedProxies, "trusted-proxies",
		e.csv("TRUSTED_PROXIES", "127.0.0.1,10.0.0.0/8,172.16.0.0/12,192.168.0.0/16"),
		"proxies trusted for client IPs outside development")
	fs.StringVar(&cfg.SIWEDomain, "siwe-domain", e.str("SIWE_DOMAIN", "localhost:5173"), "domain expected in SIWE messages")
	fs.StringVar(&cfg.SessionSecret, "session-secret", e.str("SESSION_SECRET", ""), "secret for signing nonce tickets")
	fs.DurationVar(&cfg.SessionTTL, "session-ttl", e.duration("SESSION_TTL", 7*24*time.Hour), "session lifetime")
	fs.StringVar(&cfg.SessionCookieName, "session-cookie-name", e.str("SESSION_COOKIE_NAME", "session_id"), "session cookie name")
	fs.DurationVar(&cfg.NonceTTL, "nonce-ttl", e.duration("NONCE_TTL", 10*time.Minute), "nonce ticket lifetime")
	fs.StringVar(&cfg.DatabaseURL, "database-url", e.str("DATABASE_URL", ""), "PostgreSQL DSN, empty keeps users in memory")
	fs.StringVar(&cfg.RedisURL, "redis-url", e.str("REDIS_URL", ""), "Redis URL for sessions, nonces and events")
	fs.StringVar(&cfg.SessionBackend, "session-backend", e.str("SESSION_BACKEND", ""), "session store (memory|postgres|redis)")
	fs.BoolVar(&cfg.SingleUseNonce, "single-use-nonce", e.boolean("SINGLE_USE_NONCE", false), "reject reused SIWE nonces")
	fs.BoolVar(&cfg.RequireKYCForOnboarding, "require-kyc-for-onboarding", e.boolean("REQUIRE_KYC_FOR_ONBOARDING", false), "require approved KYC before onboarding completes")
	fs.StringVar(&cfg.EventsTopicPrefix, "events-topic-prefix", e.str("EVENTS_TOPIC_PREFIX", "goldencity."), "prefix for published event topics")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if cfg.SessionBackend == "" {
		cfg.SessionBackend = BackendMemory
		if cfg.DatabaseURL != "" {
			cfg.SessionBackend = BackendPostgres
		}
	}

	if err := errors.Join(append(e.errs, cfg.validate()...)...); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c Config) validate() []error {
	var errs []error
	switch c.Env {
	case EnvDevelopment, EnvProduction, EnvTest:
	default:
		errs = append(errs, fmt.Errorf("ENV must be one of development, production, test, got %q", c.Env))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT out of range: %d", c.Port))
	}
	if len(c.CORSOrigins) == 0 {
		errs = append(errs, errors.New("CORS_ORIGINS is required"))
	}
	if c.SessionSecret == "" {
		errs = append(errs, errors.New("SESSION_SECRET is required"))
	}
	if c.SIWEDomain == "" {
		errs = append(errs, errors.New("SIWE_DOMAIN is required"))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	if c.NonceTTL <= 0 {
		errs = append(errs, errors.New("NONCE_TTL must be positive"))
	}
	if c.SessionCookieName == "" {
		errs = append(errs, errors.New("SESSION_COOKIE_NAME is required"))
	}
	switch c.SessionBackend {
	case BackendMemory:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("SESSION_BACKEND=postgres requires DATABASE_URL"))
		}
	case BackendRedis:
		if c.RedisURL == "" {
			errs = append(errs, errors.New("SESSION_BACKEND=redis requires REDIS_URL"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown SESSION_BACKEND %q", c.SessionBackend))
	}
	if c.SingleUseNonce && c.RedisURL == "" && c.Env == EnvProduction {
		// The in-memory registry only protects a single instance.
		errs = append(errs, errors.New("SINGLE_USE_NONCE in production requires REDIS_URL"))
	}
	return errs
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
