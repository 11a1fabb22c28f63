package loadgen

import (
	"net/http"
	"time"
)

// HTTPClientConfig contains the shared HTTP client settings.
type HTTPClientConfig struct {
	// Timeout bounds each request, including body read.
	Timeout time.Duration

	// MaxIdleConns controls the maximum number of idle connections.
	MaxIdleConns int

	// MaxIdleConnsPerHost controls the maximum idle connections per host.
	MaxIdleConnsPerHost int

	// IdleConnTimeout is how long idle connections are kept alive.
	IdleConnTimeout time.Duration

	// DisableKeepAlives forces a new connection per request.
	DisableKeepAlives bool
}

// DefaultHTTPClientConfig returns pooling defaults sized for load
// generation against a single host.
func DefaultHTTPClientConfig(timeout time.Duration) HTTPClientConfig {
	return HTTPClientConfig{
		Timeout:             timeout,
		MaxIdleConns:        1000,
		MaxIdleConnsPerHost: 256,
		IdleConnTimeout:     90 * time.Second,
	}
}

// NewHTTPClient builds the pooled client shared by all virtual users.
func NewHTTPClient(cfg HTTPClientConfig) *http.Client {
	return &http.Client{
		Timeout: cfg.Timeout,
		Transport: &http.Transport{
			MaxIdleConns:        cfg.MaxIdleConns,
			MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
			IdleConnTimeout:     cfg.IdleConnTimeout,
			DisableKeepAlives:   cfg.DisableKeepAlives,
		},
	}
}
