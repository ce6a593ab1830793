package config

import (
	"time"
)

const (
	// DefaultListenAddr is the default public listener address.
	DefaultListenAddr = ":8080"

	// DefaultWriteTimeout bounds writing a response, token refresh included.
	DefaultWriteTimeout = 180 * time.Second

	// DefaultMetricsAddr keeps metrics off the public interface.
	DefaultMetricsAddr = "127.0.0.1:9090"

	// DefaultCallbackPath is the default path for OAuth callbacks
	DefaultCallbackPath = "/signin-oidc"

	// DefaultRefreshWindow is how long before expiry tokens are refreshed.
	DefaultRefreshWindow = 5 * time.Minute

	// DefaultMaxRetries is the number of retries after the first token call.
	DefaultMaxRetries = 6

	// DefaultBaseDelay is the first backoff delay; each retry doubles it.
	DefaultBaseDelay = 2 * time.Second

	// DefaultTokenTimeout bounds one token endpoint call.
	DefaultTokenTimeout = 30 * time.Second

	// DefaultRefreshTimeout bounds a whole refresh, retries and backoff
	// included. It must stay below the write timeout.
	DefaultRefreshTimeout = 150 * time.Second

	// DefaultLogLevel and DefaultLogFormat apply when logging is not configured.
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// GetDefaultConfig returns a configuration with every optional field set.
func GetDefaultConfig() GatewayConfig {
	var cfg GatewayConfig
	ApplyDefaults(&cfg)
	return cfg
}

// ApplyDefaults fills unset optional fields of cfg.
func ApplyDefaults(cfg *GatewayConfig) {
	if cfg.Listen.Addr == "" {
		cfg.Listen.Addr = DefaultListenAddr
	}
	if cfg.Listen.WriteTimeout == 0 {
		cfg.Listen.WriteTimeout = Duration(DefaultWriteTimeout)
	}

	if cfg.OpenID.CallbackPath == "" {
		cfg.OpenID.CallbackPath = DefaultCallbackPath
	}
	if len(cfg.OpenID.Scope) == 0 {
		cfg.OpenID.Scope = []string{"openid", "profile", "offline_access"}
	}
	if cfg.OpenID.Timeout == 0 {
		cfg.OpenID.Timeout = Duration(DefaultTokenTimeout)
	}

	if cfg.Session.Secure == nil {
		secure := true
		cfg.Session.Secure = &secure
	}
	if cfg.Session.SameSite == "" {
		cfg.Session.SameSite = "lax"
	}

	if cfg.Refresh.Window == 0 {
		cfg.Refresh.Window = Duration(DefaultRefreshWindow)
	}
	if cfg.Refresh.MaxRetries == nil {
		retries := DefaultMaxRetries
		cfg.Refresh.MaxRetries = &retries
	}
	if cfg.Refresh.BaseDelay == 0 {
		cfg.Refresh.BaseDelay = Duration(DefaultBaseDelay)
	}
	if cfg.Refresh.Timeout == 0 {
		cfg.Refresh.Timeout = Duration(DefaultRefreshTimeout)
	}

	for i := range cfg.Routes {
		if cfg.Routes[i].Name == "" {
			cfg.Routes[i].Name = cfg.Routes[i].Prefix
		}
	}

	if cfg.Metrics.Addr == "" {
		cfg.Metrics.Addr = DefaultMetricsAddr
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLogLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLogFormat
	}
}
