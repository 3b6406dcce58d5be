// Package network provides pre-configured HTTP clients for the extraction provider and the download client.
package network

import (
	"net/http"
	"time"
)

// headerTimeout bounds the wait for response headers. Bodies are unbounded: videos stream for minutes.
const headerTimeout = 30 * time.Second

// Provider returns the HTTP client used to talk to the video host.
// With chromeTLS the connection presents a Chrome TLS fingerprint.
// It has no overall timeout; callers bound requests with their context.
func Provider(chromeTLS bool) *http.Client {
	if chromeTLS {
		return &http.Client{Transport: newChromeTransport()}
	}
	return &http.Client{Transport: newTransport()}
}

// Client returns the HTTP client used by the download client to reach the relay.
// Per-attempt deadlines come from the caller's context.
func Client() *http.Client {
	return &http.Client{Transport: newTransport()}
}

// newTransport initializes a tuned http.Transport with optimized pool and timeout parameters.
func newTransport() *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = 100
	t.MaxIdleConnsPerHost = 100
	t.MaxConnsPerHost = 200
	t.IdleConnTimeout = 30 * time.Second
	t.ResponseHeaderTimeout = headerTimeout
	t.ExpectContinueTimeout = time.Second
	return t
}
