package http

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"
)

// ErrNoPinnedCertificates is returned when a client is built without a certificate bundle
var ErrNoPinnedCertificates = errors.New("no pinned certificates configured")

// HTTPClientConfig holds HTTP client configuration
// Tuned per target: the gateway, GraphQL and the analytics endpoint.
type HTTPClientConfig struct {
	// Connection pooling
	MaxIdleConns        int           // Total idle connections across all hosts
	MaxIdleConnsPerHost int           // Idle connections per host
	MaxConnsPerHost     int           // Maximum connections per host (including active)
	IdleConnTimeout     time.Duration // How long idle connections stay alive

	// Timeouts
	ConnectTimeout      time.Duration // TCP connection timeout
	TLSHandshakeTimeout time.Duration // TLS handshake timeout
	ReadTimeout         time.Duration // Waiting for response headers

	// Keep-alive
	DisableKeepAlives bool
	KeepAlive         time.Duration

	// TLS
	MinTLSVersion uint16
}

// GatewayClientConfig returns the config for client API and GraphQL traffic
// The gateway is a single host per environment; keep a small warm pool.
func GatewayClientConfig() *HTTPClientConfig {
	return &HTTPClientConfig{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 4,
		MaxConnsPerHost:     8,
		IdleConnTimeout:     90 * time.Second,

		ConnectTimeout:      30 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		ReadTimeout:         60 * time.Second,

		DisableKeepAlives: false,
		KeepAlive:         60 * time.Second,

		MinTLSVersion: tls.VersionTLS12,
	}
}

// AnalyticsClientConfig returns the config for the analytics endpoint
// Batches are small and infrequent; connections are not worth holding.
func AnalyticsClientConfig() *HTTPClientConfig {
	return &HTTPClientConfig{
		MaxIdleConns:        2,
		MaxIdleConnsPerHost: 1,
		MaxConnsPerHost:     2,
		IdleConnTimeout:     30 * time.Second,

		ConnectTimeout:      30 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		ReadTimeout:         60 * time.Second,

		DisableKeepAlives: false,
		KeepAlive:         30 * time.Second,

		MinTLSVersion: tls.VersionTLS12,
	}
}

// NewPinnedClient creates an HTTP client whose TLS roots are restricted to pemBundle.
// A handshake against any certificate not chaining to the bundle fails.
// There is no fallback to the system roots.
func NewPinnedClient(cfg *HTTPClientConfig, pemBundle []byte) (*http.Client, error) {
	if len(pemBundle) == 0 {
		return nil, ErrNoPinnedCertificates
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pemBundle) {
		return nil, fmt.Errorf("pinned certificate bundle contains no PEM certificates")
	}
	return newClient(cfg, pool), nil
}

// LoadPEMBundle reads a PEM file; an empty path yields an empty bundle
func LoadPEMBundle(path string) ([]byte, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read certificate bundle %s: %w", path, err)
	}
	return data, nil
}

func newClient(cfg *HTTPClientConfig, roots *x509.CertPool) *http.Client {
	dialer := &net.Dialer{
		Timeout:   cfg.ConnectTimeout,
		KeepAlive: cfg.KeepAlive,
	}

	transport := &http.Transport{
		Proxy:       http.ProxyFromEnvironment,
		DialContext: dialer.DialContext,

		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
		MaxConnsPerHost:     cfg.MaxConnsPerHost,
		IdleConnTimeout:     cfg.IdleConnTimeout,

		TLSHandshakeTimeout:   cfg.TLSHandshakeTimeout,
		ResponseHeaderTimeout: cfg.ReadTimeout,
		ExpectContinueTimeout: 1 * time.Second,

		DisableKeepAlives: cfg.DisableKeepAlives,

		TLSClientConfig: &tls.Config{
			RootCAs:    roots,
			MinVersion: cfg.MinTLSVersion,
			CipherSuites: []uint16{
				tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
				tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
				tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
				tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
			},
		},

		ForceAttemptHTTP2: true,
	}

	return &http.Client{
		Transport: transport,
		// Overall ceiling: connect plus read. Callers bound the body read on their own.
		Timeout: cfg.ConnectTimeout + cfg.ReadTimeout,
	}
}
