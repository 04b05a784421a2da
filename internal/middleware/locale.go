package middleware

import (
	"context"
	"net/http"
)

type ctxKey int

const localeKey ctxKey = 1

// WithLocale overrides the Accept-Language of requests made with ctx.
func WithLocale(ctx context.Context, locale string) context.Context {
	return context.WithValue(ctx, localeKey, locale)
}

// LocaleFromContext returns the locale set by WithLocale, or def.
func LocaleFromContext(ctx context.Context, def string) string {
	if s, ok := ctx.Value(localeKey).(string); ok && s != "" {
		return s
	}
	return def
}

// AcceptLanguage sends the configured locale so the server localises its messages.
func AcceptLanguage(locale string) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripFunc(func(r *http.Request) (*http.Response, error) {
			if r.Header.Get("Accept-Language") != "" {
				return next.RoundTrip(r)
			}
			l := LocaleFromContext(r.Context(), locale)
			if l == "" {
				return next.RoundTrip(r)
			}
			return next.RoundTrip(setHeader(r, "Accept-Language", l))
		})
	}
}
