package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"golang.org/x/sync/errgroup"

	"bffgate/internal/metrics"
	"bffgate/pkg/logging"
)

const (
	// DefaultReadHeaderTimeout is the default timeout for reading request headers.
	DefaultReadHeaderTimeout = 10 * time.Second
	// DefaultWriteTimeout is the default timeout for writing responses. It
	// exceeds oauth.DefaultRefreshTimeout.
	DefaultWriteTimeout = 180 * time.Second
	// DefaultIdleTimeout is the default idle timeout for keepalive connections.
	DefaultIdleTimeout = 120 * time.Second
	// DefaultShutdownTimeout bounds graceful shutdown.
	DefaultShutdownTimeout = 15 * time.Second

	// UnroutedLabel is the metrics route label of requests no proxy route
	// matched.
	UnroutedLabel = "unrouted"

	// HealthPath is served without a session.
	HealthPath = "/healthz"
	// MetricsPath is served on the metrics listener.
	MetricsPath = "/metrics"
)

// Config holds listener settings.
type Config struct {
	Addr string
	// MetricsAddr of "" disables the metrics listener.
	MetricsAddr       string
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
}

func (c Config) withDefaults() Config {
	if c.ReadHeaderTimeout == 0 {
		c.ReadHeaderTimeout = DefaultReadHeaderTimeout
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = DefaultWriteTimeout
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = DefaultIdleTimeout
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = DefaultShutdownTimeout
	}
	return c
}

// Dependencies are the collaborators the gateway handler is built from.
type Dependencies struct {
	Store     SessionStore
	Validator SessionValidator
	// Upstream receives every request that is not a gateway endpoint.
	Upstream http.Handler
	// Metrics is optional.
	Metrics *metrics.Metrics
}

// Server runs the gateway listener and, optionally, the metrics listener.
type Server struct {
	cfg     Config
	deps    Dependencies
	handler http.Handler
}

// New builds a Server.
func New(cfg Config, deps Dependencies) (*Server, error) {
	if deps.Store == nil || deps.Validator == nil || deps.Upstream == nil {
		return nil, errors.New("session store, validator and upstream handler are required")
	}
	s := &Server{cfg: cfg.withDefaults(), deps: deps}
	s.handler = s.CreateMux()
	return s, nil
}

// CreateMux returns the gateway handler: the health endpoint plus the
// session pipeline in front of the upstream handler.
func (s *Server) CreateMux() http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint for probes (unauthenticated)
	mux.HandleFunc(HealthPath, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	var observer DecisionObserver
	if s.deps.Metrics != nil {
		observer = s.deps.Metrics
	}

	var gateway http.Handler = SessionMiddleware(s.deps.Store, s.deps.Validator, observer, s.deps.Upstream)
	if s.deps.Metrics != nil {
		gateway = s.deps.Metrics.WithMetrics(UnroutedLabel, gateway)
	}
	mux.Handle("/", gateway)

	return RequestID(mux)
}

// Run binds the configured addresses and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	gatewayListener, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to bind to %s: %w", s.cfg.Addr, err)
	}

	var metricsListener net.Listener
	if s.cfg.MetricsAddr != "" && s.deps.Metrics != nil {
		metricsListener, err = net.Listen("tcp", s.cfg.MetricsAddr)
		if err != nil {
			gatewayListener.Close()
			return fmt.Errorf("failed to bind metrics listener to %s: %w", s.cfg.MetricsAddr, err)
		}
	}

	return s.Serve(ctx, gatewayListener, metricsListener)
}

// Serve serves on already bound listeners until ctx is done, then shuts
// both down gracefully. metricsListener may be nil.
func (s *Server) Serve(ctx context.Context, gatewayListener, metricsListener net.Listener) error {
	servers := []*http.Server{s.newHTTPServer(s.handler)}
	listeners := []net.Listener{gatewayListener}

	if metricsListener != nil {
		mux := http.NewServeMux()
		mux.Handle(MetricsPath, s.deps.Metrics.Handler())
		servers = append(servers, s.newHTTPServer(mux))
		listeners = append(listeners, metricsListener)
	}

	// the first listener to fail cancels the context for the others
	g, gctx := errgroup.WithContext(ctx)

	for i := range servers {
		srv, ln := servers[i], listeners[i]
		g.Go(func() error {
			logging.Info("Server", "Listening on %s", ln.Addr())
			if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serving on %s: %w", ln.Addr(), err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logging.Info("Server", "Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()

		var errs []error
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, err)
			}
		}
		if err := errors.Join(errs...); err != nil {
			return fmt.Errorf("failed to shutdown server: %w", err)
		}
		return nil
	})

	notifyReady()

	return g.Wait()
}

func (s *Server) newHTTPServer(handler http.Handler) *http.Server {
	return &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: s.cfg.ReadHeaderTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
		IdleTimeout:       s.cfg.IdleTimeout,
	}
}

// notifyReady tells systemd the listeners are bound. It is a no-op outside
// a notify-type unit.
func notifyReady() {
	sent, err := daemon.SdNotify(false, daemon.SdNotifyReady)
	if err != nil {
		logging.Warn("Server", "Failed to notify systemd: %v", err)
		return
	}
	if sent {
		logging.Debug("Server", "Notified systemd of readiness")
	}
}
