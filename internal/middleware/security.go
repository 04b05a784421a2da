package middleware

import (
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrInsecureTransport is returned instead of sending credentials over plain HTTP.
var ErrInsecureTransport = errors.New("refusing to send credentials over plain http")

// RequireTLS refuses requests that carry an Authorization header over http:// unless the
// host is loopback or allowInsecure is set.
func RequireTLS(allowInsecure bool) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripFunc(func(r *http.Request) (*http.Response, error) {
			if allowInsecure || r.URL.Scheme != "http" || r.Header.Get("Authorization") == "" || isLoopback(r.URL.Hostname()) {
				return next.RoundTrip(r)
			}
			return nil, fmt.Errorf("%w to %s", ErrInsecureTransport, r.URL.Host)
		})
	}
}

func isLoopback(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// UserAgent identifies the client on every request.
func UserAgent(ua string) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripFunc(func(r *http.Request) (*http.Response, error) {
			if ua == "" {
				return next.RoundTrip(r)
			}
			return next.RoundTrip(setHeader(r, "User-Agent", ua))
		})
	}
}
