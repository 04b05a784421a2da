package middleware

import "net/http"

// NoStore asks intermediaries not to cache API traffic; responses carry session data.
func NoStore(next http.RoundTripper) http.RoundTripper {
	return RoundTripFunc(func(r *http.Request) (*http.Response, error) {
		c := r.Clone(r.Context())
		c.Header.Set("Cache-Control", "no-store, no-cache, max-age=0")
		c.Header.Set("Pragma", "no-cache")
		return next.RoundTrip(c)
	})
}
