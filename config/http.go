package config

import (
	"strings"
	"time"
)

// HTTPConfig contains HTTP server configuration.
type HTTPConfig struct {
	// Addr is the address to bind the HTTP server to.
	Addr string `env:"HTTP_ADDR" envDefault:":8080"`

	ReadHeaderTimeout time.Duration `env:"HTTP_READ_HEADER_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout   time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT"    envDefault:"30s"`

	// AdminToken guards the /api/admin routes. Admin routes are not mounted when empty.
	AdminToken string `env:"ADMIN_API_TOKEN"`

	// TrustProxyHeaders makes the submission rate limiter key on X-Forwarded-For.
	TrustProxyHeaders bool `env:"HTTP_TRUST_PROXY_HEADERS" envDefault:"false"`
}

// Sanitize applies guardrails to HTTP configuration values.
func (h *HTTPConfig) Sanitize() {
	h.AdminToken = strings.TrimSpace(h.AdminToken)
	if h.ReadHeaderTimeout <= 0 {
		h.ReadHeaderTimeout = 10 * time.Second
	}
	if h.ShutdownTimeout <= 0 {
		h.ShutdownTimeout = 30 * time.Second
	}
}

// AdminEnabled reports whether admin routes should be mounted.
func (h *HTTPConfig) AdminEnabled() bool {
	return h.AdminToken != ""
}
