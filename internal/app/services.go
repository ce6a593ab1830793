package app

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"bffgate/internal/config"
	"bffgate/internal/metrics"
	"bffgate/internal/oauth"
	"bffgate/internal/proxy"
	"bffgate/internal/server"
	"bffgate/internal/session"
	"bffgate/pkg/logging"
)

// Services holds the collaborators wired from a GatewayConfig.
type Services struct {
	Store     *session.Store
	Refresher *oauth.TokenRefresher
	Validator *session.Validator
	Proxy     *proxy.Handler
	// Metrics is nil when metrics are disabled.
	Metrics *metrics.Metrics
	Server  *server.Server
}

// InitializeServices builds every collaborator of the gateway from cfg.
func InitializeServices(cfg config.GatewayConfig) (*Services, error) {
	sealer, err := NewSealer(cfg.Session)
	if err != nil {
		return nil, err
	}
	store := session.NewStore(sealer, CookieOptions(cfg.Session))

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	retryOpts := []oauth.RetryOption{
		oauth.WithBaseDelay(cfg.Refresh.BaseDelay.Std()),
	}
	if cfg.Refresh.MaxRetries != nil {
		retryOpts = append(retryOpts, oauth.WithMaxRetries(*cfg.Refresh.MaxRetries))
	}
	refresherOpts := []oauth.RefresherOption{
		oauth.WithRefreshTimeout(cfg.Refresh.Timeout.Std()),
	}
	if m != nil {
		retryOpts = append(retryOpts, oauth.WithRetryNotify(m.ObserveRetry))
		refresherOpts = append(refresherOpts, oauth.WithObserver(m))
	}
	refresherOpts = append(refresherOpts, oauth.WithRetryPolicy(oauth.NewRetryPolicy(retryOpts...)))

	endpoint := oauth.NewHTTPEndpointClient(oauth.WithHTTPClient(&http.Client{
		Timeout: cfg.OpenID.Timeout.Std(),
	}))
	refresher := oauth.NewTokenRefresher(oauth.ClientCredentials{
		Authority:    cfg.OpenID.Authority,
		ClientID:     cfg.OpenID.ClientID,
		ClientSecret: cfg.OpenID.ClientSecret,
	}, endpoint, refresherOpts...)

	validator := session.NewValidator(refresher, session.WithRefreshWindow(cfg.Refresh.Window.Std()))

	routes, err := ProxyRoutes(cfg.Routes)
	if err != nil {
		return nil, err
	}
	proxyHandler, err := proxy.NewHandler(routes, proxy.WithCookieFilter(store))
	if err != nil {
		return nil, fmt.Errorf("failed to create proxy: %w", err)
	}

	srvCfg := server.Config{
		Addr:              cfg.Listen.Addr,
		ReadHeaderTimeout: cfg.Listen.ReadHeaderTimeout.Std(),
		WriteTimeout:      cfg.Listen.WriteTimeout.Std(),
		IdleTimeout:       cfg.Listen.IdleTimeout.Std(),
		ShutdownTimeout:   cfg.Listen.ShutdownTimeout.Std(),
	}
	if m != nil {
		srvCfg.MetricsAddr = cfg.Metrics.Addr
	}
	srv, err := server.New(srvCfg, server.Dependencies{
		Store:     store,
		Validator: validator,
		Upstream:  proxyHandler,
		Metrics:   m,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create server: %w", err)
	}

	logging.Debug("Bootstrap", "Wired %d routes, token endpoint %s", len(routes),
		oauth.ClientCredentials{Authority: cfg.OpenID.Authority}.TokenEndpoint())

	return &Services{
		Store:     store,
		Refresher: refresher,
		Validator: validator,
		Proxy:     proxyHandler,
		Metrics:   m,
		Server:    srv,
	}, nil
}

// NewSealer loads the session identities from a file or inline contents.
func NewSealer(cfg config.SessionConfig) (*session.Sealer, error) {
	if cfg.IdentityFile != "" {
		sealer, err := session.LoadSealer(cfg.IdentityFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load session identity: %w", err)
		}
		return sealer, nil
	}
	sealer, err := session.SealerFromString(cfg.Identity)
	if err != nil {
		return nil, fmt.Errorf("failed to parse session identity: %w", err)
	}
	return sealer, nil
}

// CookieOptions converts the session section into cookie store options.
func CookieOptions(cfg config.SessionConfig) session.CookieOptions {
	opts := session.CookieOptions{
		Name:      cfg.Cookie,
		Domain:    cfg.Domain,
		Path:      cfg.Path,
		Secure:    cfg.Secure == nil || *cfg.Secure,
		MaxAge:    cfg.MaxAge.Std(),
		ChunkSize: cfg.ChunkSize,
	}
	switch strings.ToLower(cfg.SameSite) {
	case "strict":
		opts.SameSite = http.SameSiteStrictMode
	case "none":
		opts.SameSite = http.SameSiteNoneMode
	default:
		opts.SameSite = http.SameSiteLaxMode
	}
	return opts
}

// ProxyRoutes converts configured routes into proxy routes.
func ProxyRoutes(routes []config.RouteConfig) ([]proxy.Route, error) {
	out := make([]proxy.Route, 0, len(routes))
	for _, r := range routes {
		upstream, err := url.Parse(r.Upstream)
		if err != nil {
			return nil, fmt.Errorf("route %q: invalid upstream: %w", r.Name, err)
		}
		out = append(out, proxy.Route{
			Name:        r.Name,
			Prefix:      r.Prefix,
			Upstream:    upstream,
			StripPrefix: r.StripPrefix,
		})
	}
	return out, nil
}
