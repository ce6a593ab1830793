package config

import (
	"encoding/json"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// GatewayConfig is the top-level configuration structure for bffgate.
type GatewayConfig struct {
	Listen  ListenConfig  `yaml:"listen" json:"listen"`
	OpenID  OpenIDConfig  `yaml:"openid" json:"openid"`
	Session SessionConfig `yaml:"session" json:"session"`
	Refresh RefreshConfig `yaml:"refresh" json:"refresh"`
	Routes  []RouteConfig `yaml:"routes" json:"routes"`
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// ListenConfig defines the public listener.
type ListenConfig struct {
	Addr              string   `yaml:"addr,omitempty" json:"addr,omitempty"`                           // Address to bind (default: :8080)
	ReadHeaderTimeout Duration `yaml:"readHeaderTimeout,omitempty" json:"readHeaderTimeout,omitempty"` // default: 10s
	WriteTimeout      Duration `yaml:"writeTimeout,omitempty" json:"writeTimeout,omitempty"`           // default: 180s
	IdleTimeout       Duration `yaml:"idleTimeout,omitempty" json:"idleTimeout,omitempty"`             // default: 120s
	ShutdownTimeout   Duration `yaml:"shutdownTimeout,omitempty" json:"shutdownTimeout,omitempty"`     // default: 15s
}

// OpenIDConfig identifies the gateway to the identity provider.
type OpenIDConfig struct {
	Authority    string `yaml:"authority" json:"authority"`
	ClientID     string `yaml:"clientId" json:"clientId"`
	ClientSecret string `yaml:"clientSecret" json:"clientSecret"`

	// CallbackPath and Scope are used by the login flow, not by the gateway itself.
	CallbackPath string   `yaml:"callbackPath,omitempty" json:"callbackPath,omitempty"`
	Scope        []string `yaml:"scope,omitempty" json:"scope,omitempty"`

	// AllowInsecure permits a plain http authority outside loopback.
	AllowInsecure bool     `yaml:"allowInsecure,omitempty" json:"allowInsecure,omitempty"`
	Timeout       Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"` // per token call (default: 30s)
}

// SessionConfig defines how the session cookie is sealed and written.
type SessionConfig struct {
	// IdentityFile is an age identity file; the first identity seals.
	IdentityFile string `yaml:"identityFile,omitempty" json:"identityFile,omitempty"`

	// Identity holds identity file contents inline, usually from ${ENV}.
	Identity  string   `yaml:"identity,omitempty" json:"identity,omitempty"`
	Cookie    string   `yaml:"cookie,omitempty" json:"cookie,omitempty"`       // default: bffgate_session
	Domain    string   `yaml:"domain,omitempty" json:"domain,omitempty"`
	Path      string   `yaml:"path,omitempty" json:"path,omitempty"`           // default: /
	Secure    *bool    `yaml:"secure,omitempty" json:"secure,omitempty"`       // default: true
	SameSite  string   `yaml:"sameSite,omitempty" json:"sameSite,omitempty"`   // lax, strict or none (default: lax)
	MaxAge    Duration `yaml:"maxAge,omitempty" json:"maxAge,omitempty"`       // zero writes a browser-session cookie
	ChunkSize int      `yaml:"chunkSize,omitempty" json:"chunkSize,omitempty"` // default: 3800
}

// RefreshConfig tunes token refresh.
type RefreshConfig struct {
	Window     Duration `yaml:"window,omitempty" json:"window,omitempty"`         // default: 5m
	MaxRetries *int     `yaml:"maxRetries,omitempty" json:"maxRetries,omitempty"` // default: 6
	BaseDelay  Duration `yaml:"baseDelay,omitempty" json:"baseDelay,omitempty"`   // default: 2s
	Timeout    Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`       // whole refresh incl. retries (default: 150s)
}

// RouteConfig maps a path prefix to an upstream.
type RouteConfig struct {
	Name        string `yaml:"name,omitempty" json:"name,omitempty"`
	Prefix      string `yaml:"prefix" json:"prefix"`
	Upstream    string `yaml:"upstream" json:"upstream"`
	StripPrefix bool   `yaml:"stripPrefix,omitempty" json:"stripPrefix,omitempty"`
}

// MetricsConfig defines the Prometheus listener.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled,omitempty" json:"enabled,omitempty"`
	Addr    string `yaml:"addr,omitempty" json:"addr,omitempty"` // default: 127.0.0.1:9090
}

// LoggingConfig selects log verbosity and encoding.
type LoggingConfig struct {
	Level  string `yaml:"level,omitempty" json:"level,omitempty"`   // debug, info, warn, error (default: info)
	Format string `yaml:"format,omitempty" json:"format,omitempty"` // text or json (default: text)
}

// Duration is a time.Duration written as a Go duration string ("90s", "5m").
type Duration time.Duration

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// String makes Duration satisfy the fmt.Stringer interface.
func (d Duration) String() string {
	return time.Duration(d).String()
}

// UnmarshalYAML parses a duration string.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return fmt.Errorf("line %d: duration must be a string: %w", node.Line, err)
	}
	return d.parse(s)
}

// MarshalYAML writes the duration string.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

// UnmarshalJSON parses a duration string.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("duration must be a string: %w", err)
	}
	return d.parse(s)
}

// MarshalJSON writes the duration string.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Duration) parse(s string) error {
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}
