package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// TLS version constants
const (
	TLS12 = tls.VersionTLS12
	TLS13 = tls.VersionTLS13
)

// UserAgent is sent on every request
const UserAgent = "go-opensrs/1.0"

// Recommended TLS 1.2 cipher suites
var RecommendedTLS12CipherSuites = []uint16{
	tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
	tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
	tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
	tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
}

// Transport posts a request body and returns the response body. It is the
// only network dependency of the clients; tests and alternative HTTP stacks
// plug in here.
type Transport interface {
	Send(ctx context.Context, url string, body []byte, header http.Header) ([]byte, error)
}

// Func adapts a function to the Transport interface.
type Func func(ctx context.Context, url string, body []byte, header http.Header) ([]byte, error)

// Send calls f
func (f Func) Send(ctx context.Context, url string, body []byte, header http.Header) ([]byte, error) {
	return f(ctx, url, body, header)
}

// StatusError is returned when the server answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d: %s", e.StatusCode, string(e.Body))
}

// Temporary reports whether the status is worth retrying
func (e *StatusError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// HTTPSConfig contains HTTPS client configuration
type HTTPSConfig struct {
	MinTLSVersion   uint16
	MaxTLSVersion   uint16
	CipherSuites    []uint16
	Certificates    []tls.Certificate
	RootCAs         *x509.CertPool
	Timeout         time.Duration
	IdleConnTimeout time.Duration

	// MaxRetries is the number of extra attempts after a network error or a
	// 429/5xx answer. Registrar actions are not all idempotent, so the
	// default is 0.
	MaxRetries   int
	RetryBackoff time.Duration
	MaxBackoff   time.Duration

	Logger *slog.Logger
}

// DefaultHTTPSConfig returns a default HTTPS configuration
func DefaultHTTPSConfig() *HTTPSConfig {
	return &HTTPSConfig{
		MinTLSVersion:   TLS12,
		MaxTLSVersion:   TLS13,
		CipherSuites:    RecommendedTLS12CipherSuites,
		Timeout:         30 * time.Second,
		IdleConnTimeout: 90 * time.Second,
		RetryBackoff:    500 * time.Millisecond,
		MaxBackoff:      10 * time.Second,
	}
}

// HTTPSClient sends requests over HTTPS
type HTTPSClient struct {
	client *http.Client
	config *HTTPSConfig
	logger *slog.Logger
}

// NewHTTPSClient creates a new HTTPS client
func NewHTTPSClient(config *HTTPSConfig) *HTTPSClient {
	if config == nil {
		config = DefaultHTTPSConfig()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	tlsConfig := &tls.Config{
		MinVersion:   config.MinTLSVersion,
		MaxVersion:   config.MaxTLSVersion,
		CipherSuites: config.CipherSuites,
		Certificates: config.Certificates,
		RootCAs:      config.RootCAs,
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		TLSClientConfig:     tlsConfig,
		IdleConnTimeout:     config.IdleConnTimeout,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
	}

	return &HTTPSClient{
		client: &http.Client{
			Transport: transport,
			Timeout:   config.Timeout,
		},
		config: config,
		logger: logger,
	}
}

// Config returns a copy of the configuration the client was built with.
func (c *HTTPSClient) Config() HTTPSConfig {
	return *c.config
}

// Send posts body to url with the given headers. Content-Length is always
// the exact length of body.
func (c *HTTPSClient) Send(ctx context.Context, url string, body []byte, header http.Header) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			wait := c.backoff(attempt)
			c.logger.Debug("retrying request", "url", url, "attempt", attempt, "wait", wait, "error", lastErr)

			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, fmt.Errorf("failed to send request: %w", ctx.Err())
			case <-timer.C:
			}
		}

		resp, err := c.send(ctx, url, body, header)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !retryable(ctx, err) {
			break
		}
	}
	return nil, lastErr
}

func (c *HTTPSClient) send(ctx context.Context, url string, body []byte, header http.Header) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &permanentError{fmt.Errorf("failed to create request: %w", err)}
	}

	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Del("Content-Length")
	req.ContentLength = int64(len(body))
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", UserAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: responseBody}
	}

	return responseBody, nil
}

func (c *HTTPSClient) backoff(attempt int) time.Duration {
	d := c.config.RetryBackoff
	if d <= 0 {
		d = 500 * time.Millisecond
	}
	for i := 1; i < attempt; i++ {
		d *= 2
		if c.config.MaxBackoff > 0 && d >= c.config.MaxBackoff {
			return c.config.MaxBackoff
		}
	}
	if c.config.MaxBackoff > 0 && d > c.config.MaxBackoff {
		return c.config.MaxBackoff
	}
	return d
}

// permanentError marks failures that another attempt cannot fix.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var pe *permanentError
	if errors.As(err, &pe) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Temporary()
	}
	return true
}
