package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"bffgate/pkg/logging"
)

// ValidationError represents a validation error with context
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (ve ValidationError) Error() string {
	if ve.Field == "" {
		return ve.Message
	}
	return fmt.Sprintf("field '%s': %s", ve.Field, ve.Message)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for multiple validation errors
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}
	if len(ve) == 1 {
		return ve[0].Error()
	}

	var messages []string
	for _, err := range ve {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, "; "))
}

// HasErrors returns true if there are any validation errors
func (ve ValidationErrors) HasErrors() bool {
	return len(ve) > 0
}

// Add adds a new validation error
func (ve *ValidationErrors) Add(field, message string, value ...interface{}) {
	var val interface{}
	if len(value) > 0 {
		val = value[0]
	}
	*ve = append(*ve, ValidationError{
		Field:   field,
		Value:   val,
		Message: message,
	})
}

// Validate checks a defaulted configuration and reports every problem at once.
func Validate(cfg GatewayConfig) error {
	var errs ValidationErrors

	if strings.TrimSpace(cfg.Listen.Addr) == "" {
		errs.Add("listen.addr", "is required")
	}

	validateOpenID(cfg.OpenID, &errs)
	validateSession(cfg.Session, &errs)
	validateRefresh(cfg.Refresh, &errs)
	if cfg.Refresh.Timeout > 0 && cfg.Listen.WriteTimeout > 0 && cfg.Refresh.Timeout >= cfg.Listen.WriteTimeout {
		errs.Add("refresh.timeout", "must be shorter than listen.writeTimeout "+cfg.Listen.WriteTimeout.String(), cfg.Refresh.Timeout.String())
	}
	validateRoutes(cfg.Routes, &errs)

	if cfg.Metrics.Enabled {
		if strings.TrimSpace(cfg.Metrics.Addr) == "" {
			errs.Add("metrics.addr", "is required when metrics are enabled")
		} else if cfg.Metrics.Addr == cfg.Listen.Addr {
			errs.Add("metrics.addr", "must differ from listen.addr", cfg.Metrics.Addr)
		}
	}

	if err := validateOneOf("logging.level", cfg.Logging.Level, []string{"debug", "info", "warn", "error"}); err != nil {
		errs = append(errs, *err)
	}
	if err := validateOneOf("logging.format", cfg.Logging.Format, []string{logging.FormatText, logging.FormatJSON}); err != nil {
		errs = append(errs, *err)
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

func validateOpenID(cfg OpenIDConfig, errs *ValidationErrors) {
	if strings.TrimSpace(cfg.Authority) == "" {
		errs.Add("openid.authority", "is required")
	} else if err := validateHTTPSRequirement(cfg.Authority, cfg.AllowInsecure); err != nil {
		errs.Add("openid.authority", err.Error(), cfg.Authority)
	}
	if strings.TrimSpace(cfg.ClientID) == "" {
		errs.Add("openid.clientId", "is required")
	}
	if strings.TrimSpace(cfg.ClientSecret) == "" {
		errs.Add("openid.clientSecret", "is required")
	}
	if cfg.Timeout < 0 {
		errs.Add("openid.timeout", "must not be negative", cfg.Timeout.String())
	}
}

func validateSession(cfg SessionConfig, errs *ValidationErrors) {
	switch {
	case cfg.IdentityFile == "" && strings.TrimSpace(cfg.Identity) == "":
		errs.Add("session.identityFile", "one of session.identityFile or session.identity is required")
	case cfg.IdentityFile != "" && cfg.Identity != "":
		errs.Add("session.identity", "cannot be combined with session.identityFile")
	}

	if err := validateOneOf("session.sameSite", cfg.SameSite, []string{"lax", "strict", "none"}); err != nil {
		*errs = append(*errs, *err)
	} else if cfg.SameSite == "none" && (cfg.Secure == nil || !*cfg.Secure) {
		errs.Add("session.sameSite", "none requires session.secure")
	}

	if cfg.Path != "" && !strings.HasPrefix(cfg.Path, "/") {
		errs.Add("session.path", "must start with /", cfg.Path)
	}
	if cfg.MaxAge < 0 {
		errs.Add("session.maxAge", "must not be negative", cfg.MaxAge.String())
	}
	if cfg.ChunkSize < 0 {
		errs.Add("session.chunkSize", "must not be negative", cfg.ChunkSize)
	}
}

func validateRefresh(cfg RefreshConfig, errs *ValidationErrors) {
	if cfg.Window < 0 {
		errs.Add("refresh.window", "must not be negative", cfg.Window.String())
	}
	if cfg.MaxRetries != nil && (*cfg.MaxRetries < 0 || *cfg.MaxRetries > 10) {
		errs.Add("refresh.maxRetries", "must be between 0 and 10", *cfg.MaxRetries)
	}
	if cfg.BaseDelay <= 0 {
		errs.Add("refresh.baseDelay", "must be positive", cfg.BaseDelay.String())
	}
	if cfg.Timeout <= 0 {
		errs.Add("refresh.timeout", "must be positive", cfg.Timeout.String())
	}
}

func validateRoutes(routes []RouteConfig, errs *ValidationErrors) {
	if len(routes) == 0 {
		errs.Add("routes", "must have at least one route")
		return
	}

	seen := make(map[string]bool, len(routes))
	for i, route := range routes {
		field := fmt.Sprintf("routes[%d]", i)

		if !strings.HasPrefix(route.Prefix, "/") {
			errs.Add(field+".prefix", "must start with /", route.Prefix)
		} else if seen[route.Prefix] {
			errs.Add(field+".prefix", "is used by more than one route", route.Prefix)
		}
		seen[route.Prefix] = true

		u, err := url.Parse(route.Upstream)
		switch {
		case route.Upstream == "":
			errs.Add(field+".upstream", "is required")
		case err != nil:
			errs.Add(field+".upstream", fmt.Sprintf("invalid URL: %v", err), route.Upstream)
		case (u.Scheme != "http" && u.Scheme != "https") || u.Host == "":
			errs.Add(field+".upstream", "must be an absolute http or https URL", route.Upstream)
		}
	}
}

// validateHTTPSRequirement allows http only for loopback authorities unless
// allowInsecure is set.
func validateHTTPSRequirement(authority string, allowInsecure bool) error {
	u, err := url.Parse(authority)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Host == "" {
		return fmt.Errorf("must be an absolute URL")
	}

	switch u.Scheme {
	case "https":
		return nil
	case "http":
		if allowInsecure || isLoopback(u.Hostname()) {
			return nil
		}
		return fmt.Errorf("requires HTTPS (got: %s). Use HTTPS, localhost, or set openid.allowInsecure for development", authority)
	default:
		return fmt.Errorf("invalid URL scheme: %s. Must be http or https", u.Scheme)
	}
}

func isLoopback(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// validateOneOf checks if a value is in a list of allowed values
func validateOneOf(field, value string, allowed []string) *ValidationError {
	for _, allowedValue := range allowed {
		if value == allowedValue {
			return nil
		}
	}
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: fmt.Sprintf("must be one of: %s", strings.Join(allowed, ", ")),
	}
}
