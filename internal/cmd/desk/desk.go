// Package desk parses desk service configuration and launches the service.
package desk

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	entrypoint "github.com/edumap/desk/internal/platform/cmd"
	"github.com/edumap/desk/internal/platform/logging"
	"github.com/edumap/desk/internal/platform/metrics"
	"github.com/edumap/desk/internal/platform/otel"
	"github.com/edumap/desk/internal/services/web"
	"github.com/edumap/desk/internal/services/web/platform/ratelimit"
	"github.com/edumap/desk/internal/services/web/platform/requestmeta"
	"github.com/edumap/desk/internal/services/web/session"
	webstorage "github.com/edumap/desk/internal/services/web/storage"
	"github.com/edumap/desk/internal/services/web/storage/memory"
	redisstore "github.com/edumap/desk/internal/services/web/storage/redis"
	sqlitestore "github.com/edumap/desk/internal/services/web/storage/sqlite"
	"github.com/edumap/desk/internal/supabase"
)

// Session store backends.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

const (
	janitorInterval = 10 * time.Minute
	limiterIdle     = 30 * time.Minute
)

// Config holds desk command configuration.
type Config struct {
	HTTPAddr string `env:"EDUMAP_DESK_HTTP_ADDR" envDefault:"localhost:3000"`

	SupabaseURL       string `env:"NEXT_PUBLIC_SUPABASE_URL"`
	SupabaseAnonKey   string `env:"NEXT_PUBLIC_SUPABASE_ANON_KEY"`
	SupabaseJWTSecret string `env:"SUPABASE_JWT_SECRET"`

	SessionBackend string        `env:"EDUMAP_DESK_SESSION_BACKEND" envDefault:"memory"`
	SessionDB      string        `env:"EDUMAP_DESK_SESSION_DB" envDefault:"data/desk-sessions.db"`
	RedisAddr      string        `env:"EDUMAP_DESK_REDIS_ADDR" envDefault:"localhost:6379"`
	SessionTTL     time.Duration `env:"EDUMAP_DESK_SESSION_TTL" envDefault:"168h"`

	ECPDelay    time.Duration `env:"EDUMAP_DESK_ECP_DELAY" envDefault:"900ms"`
	ECPMaxBytes int64         `env:"EDUMAP_DESK_ECP_MAX_BYTES" envDefault:"5242880"`

	// SignInRate is sign-in attempts per minute per client IP; zero disables limiting.
	SignInRate          float64 `env:"EDUMAP_DESK_SIGNIN_RATE" envDefault:"10"`
	SignInBurst         int     `env:"EDUMAP_DESK_SIGNIN_BURST" envDefault:"5"`
	TrustForwardedProto bool    `env:"EDUMAP_DESK_TRUST_FORWARDED_PROTO"`

	LogLevel  string `env:"EDUMAP_DESK_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"EDUMAP_DESK_LOG_FORMAT" envDefault:"json"`

	OTelEndpoint    string  `env:"EDUMAP_DESK_OTEL_ENDPOINT"`
	OTelEnabled     bool    `env:"EDUMAP_DESK_OTEL_ENABLED"`
	OTelSampleRatio float64 `env:"EDUMAP_DESK_OTEL_SAMPLE_RATIO" envDefault:"1"`
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP listen address")
	fs.StringVar(&cfg.SessionBackend, "session-backend", cfg.SessionBackend, "Session store: memory, sqlite or redis")
	fs.StringVar(&cfg.SessionDB, "session-db", cfg.SessionDB, "SQLite session database path")
	fs.StringVar(&cfg.RedisAddr, "redis-addr", cfg.RedisAddr, "Redis address or redis:// URL")
	fs.DurationVar(&cfg.SessionTTL, "session-ttl", cfg.SessionTTL, "Session lifetime")
	fs.DurationVar(&cfg.ECPDelay, "ecp-delay", cfg.ECPDelay, "Simulated ECP processing delay")
	fs.Int64Var(&cfg.ECPMaxBytes, "ecp-max-bytes", cfg.ECPMaxBytes, "Maximum ECP file size in bytes")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format: json or text")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	cfg.SessionBackend = strings.ToLower(strings.TrimSpace(cfg.SessionBackend))
	return cfg, nil
}

// Run starts the desk web service.
func Run(ctx context.Context, cfg Config) error {
	logger, err := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		return err
	}
	log := logging.ForService(logger, entrypoint.ServiceDesk)
	options := entrypoint.RunOptions{
		Telemetry: telemetryOptions(cfg),
		Logger:    log,
	}
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceDesk, options, func(ctx context.Context) error {
		return serve(ctx, cfg, log)
	})
}

func telemetryOptions(cfg Config) otel.Options {
	return otel.Options{
		Endpoint:    cfg.OTelEndpoint,
		Disabled:    !cfg.OTelEnabled,
		SampleRatio: cfg.OTelSampleRatio,
	}
}

func serve(ctx context.Context, cfg Config, log *logrus.Entry) error {
	recorder := metrics.New()
	limiter := ratelimit.New(cfg.SignInRate, cfg.SignInBurst)

	sessions, store, err := newSessions(ctx, cfg, log, recorder)
	if err != nil {
		return err
	}
	if store != nil {
		defer func() {
			if err := store.Close(); err != nil {
				log.WithError(err).Warn("close session store")
			}
		}()
	}

	server, err := web.NewServer(serverConfig(cfg, sessions, limiter, recorder, log))
	if err != nil {
		return fmt.Errorf("init web server: %w", err)
	}
	defer server.Close()

	janitorCtx, stopJanitor := context.WithCancel(ctx)
	defer stopJanitor()
	go runJanitor(janitorCtx, store, limiter, log)

	if err := server.ListenAndServe(ctx); err != nil {
		return fmt.Errorf("serve desk: %w", err)
	}
	return nil
}

func serverConfig(cfg Config, sessions *session.Manager, limiter *ratelimit.Limiter, recorder *metrics.Recorder, log *logrus.Entry) web.Config {
	ecpDelay := cfg.ECPDelay
	if ecpDelay <= 0 {
		ecpDelay = -1
	}
	return web.Config{
		HTTPAddr:      cfg.HTTPAddr,
		Sessions:      sessions,
		SignInLimiter: limiter,
		Metrics:       recorder,
		Logger:        log,
		SchemePolicy:  requestmeta.SchemePolicy{TrustForwardedProto: cfg.TrustForwardedProto},
		SessionTTL:    cfg.SessionTTL,
		ECPDelay:      ecpDelay,
		ECPMaxBytes:   cfg.ECPMaxBytes,
	}
}

// newSessions builds the session manager. Both results are nil when the auth
// backend is not configured; pages then report it instead of failing.
func newSessions(ctx context.Context, cfg Config, log *logrus.Entry, recorder *metrics.Recorder) (*session.Manager, webstorage.SessionStore, error) {
	client := supabase.New(cfg.SupabaseURL, cfg.SupabaseAnonKey, supabase.Options{JWTSecret: cfg.SupabaseJWTSecret})
	if client == nil {
		log.Warn("supabase is not configured; sign-in is disabled")
		return nil, nil, nil
	}
	store, err := openSessionStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	manager, err := session.NewManager(client, store, session.Options{
		TTL:    cfg.SessionTTL,
		Logger: log,
	})
	if err != nil {
		_ = store.Close()
		return nil, nil, fmt.Errorf("init session manager: %w", err)
	}
	manager.Subscribe(authEventListener(log, recorder))
	log.WithFields(logrus.Fields{
		"supabase_url":    client.URL(),
		"session_backend": cfg.SessionBackend,
	}).Info("auth configured")
	return manager, store, nil
}

func openSessionStore(ctx context.Context, cfg Config) (webstorage.SessionStore, error) {
	switch cfg.SessionBackend {
	case "", BackendMemory:
		return memory.New(nil), nil
	case BackendSQLite:
		path := strings.TrimSpace(cfg.SessionDB)
		if dir := filepath.Dir(path); path != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create session db dir: %w", err)
			}
		}
		store, err := sqlitestore.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite session store: %w", err)
		}
		return store, nil
	case BackendRedis:
		store, err := redisstore.Open(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, fmt.Errorf("open redis session store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.SessionBackend)
	}
}

func authEventListener(log *logrus.Entry, recorder *metrics.Recorder) session.Listener {
	return func(event session.Event, sess *session.Session) {
		recorder.AuthEvent(string(event))
		if sess == nil {
			log.WithField("event", string(event)).Info("auth state change")
			return
		}
		log.WithFields(logrus.Fields{
			"event":      string(event),
			"session_id": sess.ID,
			"user_id":    sess.User.ID,
		}).Info("auth state change")
	}
}

type expiredPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// runJanitor prunes idle rate-limit buckets and, for stores that keep expired
// rows, deletes them.
func runJanitor(ctx context.Context, store webstorage.SessionStore, limiter *ratelimit.Limiter, log *logrus.Entry) {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweep(ctx, store, limiter, log)
		}
	}
}

func sweep(ctx context.Context, store webstorage.SessionStore, limiter *ratelimit.Limiter, log *logrus.Entry) {
	limiter.Prune(limiterIdle)
	purger, ok := store.(expiredPurger)
	if !ok {
		return
	}
	removed, err := purger.PurgeExpired(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Warn("purge expired sessions")
		return
	}
	if removed > 0 {
		log.WithField("removed", removed).Debug("purged expired sessions")
	}
}
