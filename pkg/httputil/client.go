// Package httputil provides shared HTTP utilities with connection pooling
// and safe response handling for calls to the model-serving collaborators.
package httputil

import (
	"io"
	"net"
	"net/http"
	"sync"
	"time"
)

// MaxResponseSize is the default maximum size for reading HTTP response
// bodies, guarding against a misbehaving model service.
const MaxResponseSize = 10 * 1024 * 1024 // 10MB

// Shared transport with connection pooling, safe for concurrent use.
// Reusing TCP connections across prediction calls matters at volume.
var sharedTransport = &http.Transport{
	Proxy: http.ProxyFromEnvironment,
	DialContext: (&net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext,
	ForceAttemptHTTP2:     true,
	MaxIdleConns:          100,
	MaxIdleConnsPerHost:   10,
	IdleConnTimeout:       90 * time.Second,
	TLSHandshakeTimeout:   10 * time.Second,
	ExpectContinueTimeout: 1 * time.Second,
}

// TimeoutTier defines standard timeout categories for different operation types.
type TimeoutTier int

const (
	// TierFast for quick operations like health checks (5s)
	TierFast TimeoutTier = iota
	// TierMedium for standard prediction calls (30s)
	TierMedium
	// TierSlow for batch attribution calls that may take longer (60s)
	TierSlow
)

var timeoutDurations = map[TimeoutTier]time.Duration{
	TierFast:   5 * time.Second,
	TierMedium: 30 * time.Second,
	TierSlow:   60 * time.Second,
}

// Singleton clients per tier - initialized once, reused everywhere.
var (
	clients    map[TimeoutTier]*http.Client
	clientOnce sync.Once
)

// Client returns a shared HTTP client for the given timeout tier. These
// clients share a connection pool and should be used instead of creating a
// new http.Client per request.
func Client(tier TimeoutTier) *http.Client {
	clientOnce.Do(func() {
		clients = make(map[TimeoutTier]*http.Client, len(timeoutDurations))
		for t, d := range timeoutDurations {
			clients[t] = &http.Client{Timeout: d, Transport: sharedTransport}
		}
	})
	if c, ok := clients[tier]; ok {
		return c
	}
	return clients[TierMedium]
}

// ReadResponseBody safely reads an HTTP response body with a size limit.
func ReadResponseBody(r io.Reader, maxSize int64) ([]byte, error) {
	if maxSize <= 0 {
		maxSize = MaxResponseSize
	}
	return io.ReadAll(io.LimitReader(r, maxSize))
}

// ReadErrorBody reads a response body for error messages with a smaller
// limit, since error messages shouldn't be large.
func ReadErrorBody(r io.Reader) ([]byte, error) {
	const maxErrorSize = 1 * 1024 * 1024
	return io.ReadAll(io.LimitReader(r, maxErrorSize))
}

// DrainAndClose properly drains and closes an HTTP response body so the
// connection returns to the pool.
func DrainAndClose(body io.ReadCloser) {
	if body != nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(body, MaxResponseSize))
		_ = body.Close()
	}
}
