package web

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/edumap/desk/internal/platform/logging"
	"github.com/edumap/desk/internal/platform/metrics"
	"github.com/edumap/desk/internal/platform/timeouts"
	"github.com/edumap/desk/internal/services/web/platform/httpx"
	"github.com/edumap/desk/internal/services/web/platform/ratelimit"
	"github.com/edumap/desk/internal/services/web/platform/requestmeta"
	"github.com/edumap/desk/internal/services/web/routepath"
	"github.com/edumap/desk/internal/services/web/session"
	"github.com/edumap/desk/internal/services/web/static"
)

// DefaultECPMaxBytes caps certificate uploads when Config leaves it unset.
const DefaultECPMaxBytes int64 = 5 << 20

// multipartOverhead is the slack allowed above the file limit for form fields
// and part headers before the body is cut off.
const multipartOverhead int64 = 64 << 10

// Config defines the inputs for the desk HTTP server.
type Config struct {
	HTTPAddr string
	// Sessions is nil when the auth backend is not configured.
	Sessions      *session.Manager
	SignInLimiter *ratelimit.Limiter
	Metrics       *metrics.Recorder
	Logger        *logrus.Entry
	SchemePolicy  requestmeta.SchemePolicy
	// SessionTTL is the session cookie lifetime. Zero uses session.DefaultTTL.
	SessionTTL time.Duration
	// ECPDelay is the simulated processing pause. Zero uses the default and a
	// negative value disables it.
	ECPDelay    time.Duration
	ECPMaxBytes int64
	// Now stamps ECP submissions. Nil uses time.Now.
	Now func() time.Time
}

// Server hosts the desk HTTP server.
type Server struct {
	httpAddr   string
	httpServer *http.Server
	log        *logrus.Entry
}

type handler struct {
	sessions    *session.Manager
	limiter     *ratelimit.Limiter
	metrics     *metrics.Recorder
	log         *logrus.Entry
	policy      requestmeta.SchemePolicy
	sessionTTL  time.Duration
	ecpDelay    time.Duration
	ecpMaxBytes int64
	now         func() time.Time
}

// NewServer builds the HTTP server for cfg.
func NewServer(cfg Config) (*Server, error) {
	httpAddr := strings.TrimSpace(cfg.HTTPAddr)
	if httpAddr == "" {
		return nil, errors.New("http address is required")
	}
	h, err := NewHandler(cfg)
	if err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Server{
		httpAddr: httpAddr,
		httpServer: &http.Server{
			Addr:              httpAddr,
			Handler:           h,
			ReadHeaderTimeout: timeouts.ReadHeader,
		},
		log: logger,
	}, nil
}

// NewHandler returns the routed desk handler without a listener.
func NewHandler(cfg Config) (http.Handler, error) {
	h := &handler{
		sessions:    cfg.Sessions,
		limiter:     cfg.SignInLimiter,
		metrics:     cfg.Metrics,
		log:         cfg.Logger,
		policy:      cfg.SchemePolicy,
		sessionTTL:  cfg.SessionTTL,
		ecpDelay:    cfg.ECPDelay,
		ecpMaxBytes: cfg.ECPMaxBytes,
		now:         cfg.Now,
	}
	if h.log == nil {
		h.log = logging.Discard()
	}
	if h.sessionTTL <= 0 {
		h.sessionTTL = session.DefaultTTL
	}
	if h.ecpDelay == 0 {
		h.ecpDelay = timeouts.ECPProcessing
	}
	if h.ecpMaxBytes <= 0 {
		h.ecpMaxBytes = DefaultECPMaxBytes
	}
	if h.now == nil {
		h.now = time.Now
	}

	router := chi.NewRouter()
	router.Use(
		middleware.RealIP,
		httpx.RequestID(),
		httpx.RecoverPanic(h.log),
		httpx.AccessLog(h.log, h.metrics),
	)
	router.Get(routepath.Root, h.handleHome)
	router.Get(routepath.SchoolRegistration, h.handleRegistration)
	router.Post(routepath.SignIn, h.handleSignIn)
	router.Post(routepath.SignOut, h.handleSignOut)
	router.Post(routepath.ECPUpload, h.handleECPUpload)
	router.Get(routepath.Health, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	if h.metrics != nil {
		router.Method(http.MethodGet, routepath.Metrics, h.metrics.Handler())
	}
	router.Handle(routepath.StaticPrefix+"*", http.StripPrefix(routepath.StaticPrefix, http.FileServer(http.FS(static.FS))))
	return router, nil
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	if s == nil {
		return ""
	}
	return s.httpAddr
}

// Handler returns the routed handler served by the server.
func (s *Server) Handler() http.Handler {
	if s == nil || s.httpServer == nil {
		return http.NotFoundHandler()
	}
	return s.httpServer.Handler
}

// ListenAndServe runs the HTTP server until the context ends.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s == nil {
		return errors.New("web server is nil")
	}
	if ctx == nil {
		return errors.New("context is required")
	}
	listener, err := net.Listen("tcp", s.httpAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.httpAddr, err)
	}
	return s.Serve(ctx, listener)
}

// Serve accepts connections on listener until the context ends.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	if s == nil {
		return errors.New("web server is nil")
	}
	serveErr := make(chan error, 1)
	s.log.WithField("addr", listener.Addr().String()).Info("desk listening")
	go func() {
		serveErr <- s.httpServer.Serve(listener)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		err := s.httpServer.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}

// Close stops the server immediately.
func (s *Server) Close() {
	if s == nil || s.httpServer == nil {
		return
	}
	if err := s.httpServer.Close(); err != nil {
		s.log.WithError(err).Warn("close http server")
	}
}
