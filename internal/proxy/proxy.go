package proxy

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"sort"
	"strings"

	"bffgate/internal/metrics"
	"bffgate/internal/session"
	"bffgate/pkg/logging"
)

// Route forwards requests under Prefix to Upstream.
type Route struct {
	Name     string
	Prefix   string
	Upstream *url.URL
	// StripPrefix removes Prefix from the path before forwarding.
	StripPrefix bool
}

// label names the route in metrics.
func (r Route) label() string {
	if r.Name != "" {
		return r.Name
	}
	return r.Prefix
}

// CookieFilter reports whether a cookie name belongs to the gateway and
// must not be forwarded upstream.
type CookieFilter interface {
	Owns(name string) bool
}

// Option configures a Handler.
type Option func(*Handler)

// WithTransport sets the round tripper used to reach upstreams.
func WithTransport(rt http.RoundTripper) Option {
	return func(h *Handler) {
		h.transport = rt
	}
}

// WithCookieFilter drops matching cookies from outbound requests.
func WithCookieFilter(f CookieFilter) Option {
	return func(h *Handler) {
		h.cookies = f
	}
}

// Handler is a reverse proxy over a set of prefix routes. Each outbound
// request carries the access token of the session found in the inbound
// request's context.
type Handler struct {
	routes    []Route
	injector  Injector
	cookies   CookieFilter
	transport http.RoundTripper
	proxies   []*httputil.ReverseProxy
}

// NewHandler builds a proxy over routes. Longer prefixes win when several
// routes match.
func NewHandler(routes []Route, opts ...Option) (*Handler, error) {
	if len(routes) == 0 {
		return nil, errors.New("at least one route is required")
	}

	h := &Handler{routes: append([]Route(nil), routes...)}
	for _, opt := range opts {
		opt(h)
	}

	sort.SliceStable(h.routes, func(i, j int) bool {
		return len(h.routes[i].Prefix) > len(h.routes[j].Prefix)
	})

	for _, route := range h.routes {
		if route.Upstream == nil {
			return nil, fmt.Errorf("route %q has no upstream", route.Name)
		}
		if !strings.HasPrefix(route.Prefix, "/") {
			return nil, fmt.Errorf("route %q prefix %q must start with /", route.Name, route.Prefix)
		}
		h.proxies = append(h.proxies, h.newReverseProxy(route))
	}
	return h, nil
}

// ServeHTTP dispatches r to the first matching route.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	for i, route := range h.routes {
		if matches(route.Prefix, r.URL.Path) {
			metrics.SetRoute(r, route.label())
			h.proxies[i].ServeHTTP(w, r)
			return
		}
	}
	http.NotFound(w, r)
}

// Routes returns the configured routes in match order.
func (h *Handler) Routes() []Route {
	return append([]Route(nil), h.routes...)
}

func (h *Handler) newReverseProxy(route Route) *httputil.ReverseProxy {
	target := route.Upstream
	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			if route.StripPrefix {
				stripPrefix(pr.Out, route.Prefix)
			}
			pr.SetURL(target)
			pr.SetXForwarded()
			pr.Out.Host = target.Host
			h.filterCookies(pr.Out)

			sess, _ := session.FromContext(pr.In.Context())
			h.injector.Inject(pr.Out, sess)
		},
		Transport: h.transport,
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			logging.Warn("Proxy", "Upstream %s failed for %s %s: %v", route.Name, r.Method, r.URL.Path, err)
			http.Error(w, "upstream unavailable", http.StatusBadGateway)
		},
	}
}

// filterCookies rewrites the Cookie header without the gateway's cookies.
func (h *Handler) filterCookies(out *http.Request) {
	if h.cookies == nil {
		return
	}
	cookies := out.Cookies()
	out.Header.Del("Cookie")
	for _, c := range cookies {
		if h.cookies.Owns(c.Name) {
			continue
		}
		out.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
	}
}

// matches reports whether path falls under prefix on a segment boundary.
func matches(prefix, path string) bool {
	if prefix == "/" {
		return true
	}
	prefix = strings.TrimSuffix(prefix, "/")
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	return len(path) == len(prefix) || path[len(prefix)] == '/'
}

func stripPrefix(out *http.Request, prefix string) {
	prefix = strings.TrimSuffix(prefix, "/")
	trimmed := strings.TrimPrefix(out.URL.Path, prefix)
	if !strings.HasPrefix(trimmed, "/") {
		trimmed = "/" + trimmed
	}
	out.URL.Path = trimmed
	out.URL.RawPath = ""
}
