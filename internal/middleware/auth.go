package middleware

import (
	"context"
	"net/http"
	"strings"
)

type authCtxKey int

const skipAuthKey authCtxKey = 7

// TokenSource supplies the bearer token for outgoing requests. An empty token sends none.
type TokenSource interface {
	Token() string
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func() string

func (f TokenFunc) Token() string { return f() }

// SkipAuth marks a request context as public: no bearer token is attached and a 401 does
// not count as an expired session (login with bad credentials, for instance).
func SkipAuth(ctx context.Context) context.Context {
	return context.WithValue(ctx, skipAuthKey, true)
}

func authSkipped(ctx context.Context) bool {
	v, _ := ctx.Value(skipAuthKey).(bool)
	return v
}

// BearerAuth attaches "Authorization: Bearer <token>" unless the request already has one.
func BearerAuth(src TokenSource) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripFunc(func(r *http.Request) (*http.Response, error) {
			if src == nil || authSkipped(r.Context()) || r.Header.Get("Authorization") != "" {
				return next.RoundTrip(r)
			}
			tok := strings.TrimSpace(src.Token())
			if tok == "" {
				return next.RoundTrip(r)
			}
			return next.RoundTrip(setHeader(r, "Authorization", "Bearer "+tok))
		})
	}
}

// OnUnauthorized calls hook when an authenticated request comes back 401. The response is
// still returned to the caller.
func OnUnauthorized(hook func(*http.Request)) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripFunc(func(r *http.Request) (*http.Response, error) {
			resp, err := next.RoundTrip(r)
			if err != nil || hook == nil || resp.StatusCode != http.StatusUnauthorized || authSkipped(r.Context()) {
				return resp, err
			}
			sent := r
			if resp.Request != nil {
				sent = resp.Request
			}
			if sent.Header.Get("Authorization") != "" {
				hook(sent)
			}
			return resp, err
		})
	}
}
