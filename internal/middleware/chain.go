package middleware

import "net/http"

// Middleware decorates an outgoing transport.
type Middleware func(http.RoundTripper) http.RoundTripper

// RoundTripFunc adapts a function to http.RoundTripper.
type RoundTripFunc func(*http.Request) (*http.Response, error)

func (f RoundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

// Chain wraps base so that the first middleware sees the request first.
func Chain(base http.RoundTripper, mws ...Middleware) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	rt := base
	for i := len(mws) - 1; i >= 0; i-- {
		rt = mws[i](rt)
	}
	return rt
}

// setHeader returns a clone of r with the header set; the caller's request is never mutated.
func setHeader(r *http.Request, key, value string) *http.Request {
	c := r.Clone(r.Context())
	c.Header.Set(key, value)
	return c
}
