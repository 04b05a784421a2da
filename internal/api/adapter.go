package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/soaringjerry/feedbacktool/internal/services"
)

// toServiceError translates client errors into the service layer's error type. Context
// errors pass through so callers can tell cancellation apart.
func toServiceError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	d := ErrorDetails(err)
	switch d.Kind {
	case KindServer:
		return &services.ServiceError{Code: codeForStatus(d.Status), Message: d.Message, Fields: d.Fields}
	case KindNetwork, KindTimeout:
		return &services.ServiceError{Code: services.ErrorBadGateway, Message: d.Message}
	}
	return err
}

func codeForStatus(status int) services.ErrorCode {
	switch {
	case status == http.StatusUnauthorized:
		return services.ErrorUnauthorized
	case status == http.StatusForbidden:
		return services.ErrorForbidden
	case status == http.StatusNotFound:
		return services.ErrorNotFound
	case status == http.StatusConflict:
		return services.ErrorConflict
	case status == http.StatusTooManyRequests:
		return services.ErrorTooManyRequests
	case status >= 500:
		return services.ErrorBadGateway
	}
	return services.ErrorInvalid
}
