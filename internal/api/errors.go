package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/soaringjerry/feedbacktool/internal/middleware"
)

// Error is a server rejection. It covers both the ErrorResponse shape
// {status, error, message, path, fields} and enveloped {success:false} replies.
type Error struct {
	Status  int
	Message string
	Fields  map[string]string
	Path    string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

// TransportError wraps failures that happened before a response arrived.
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string { return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err) }
func (e *TransportError) Unwrap() error { return e.Err }

type errorBody struct {
	Status  int               `json:"status"`
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Path    string            `json:"path"`
	Fields  map[string]string `json:"fields"`
	// the login endpoint reports field errors under this name
	FieldErrors map[string]string `json:"fieldErrors"`
	Errors      []string          `json:"errors"`
}

func parseError(status int, path string, raw []byte) *Error {
	e := &Error{Status: status, Path: path}
	var body errorBody
	if json.Unmarshal(raw, &body) != nil {
		if s := strings.TrimSpace(string(raw)); s != "" && len(s) < 300 && !strings.HasPrefix(s, "<") {
			e.Message = s
		} else {
			e.Message = http.StatusText(status)
		}
		return e
	}
	switch {
	case body.Message != "":
		e.Message = body.Message
	case body.Error != "":
		e.Message = body.Error
	case len(body.Errors) > 0:
		e.Message = body.Errors[0]
	default:
		e.Message = http.StatusText(status)
	}
	e.Fields = body.Fields
	if len(e.Fields) == 0 {
		e.Fields = body.FieldErrors
	}
	if body.Path != "" {
		e.Path = body.Path
	}
	return e
}

type ErrorKind string

const (
	KindServer   ErrorKind = "server"
	KindNetwork  ErrorKind = "network"
	KindTimeout  ErrorKind = "timeout"
	KindCanceled ErrorKind = "canceled"
	KindUnknown  ErrorKind = "unknown"
)

// Details is the normalised view of any error returned by this package.
type Details struct {
	Kind    ErrorKind
	Status  int
	Message string
	Fields  map[string]string
}

const (
	networkMessage = "Unable to connect to the server. Please check your connection and try again."
	timeoutMessage = "The request timed out. Please try again."
	cancelMessage  = "The request was cancelled."

	insecureMessage = "Refusing to send credentials over plain HTTP. Use an https:// server URL."
)

// ErrorDetails normalises server, transport and context errors.
func ErrorDetails(err error) Details {
	if err == nil {
		return Details{}
	}
	var ae *Error
	if errors.As(err, &ae) {
		return Details{Kind: KindServer, Status: ae.Status, Message: ae.Error(), Fields: ae.Fields}
	}
	if errors.Is(err, context.Canceled) {
		return Details{Kind: KindCanceled, Message: cancelMessage}
	}
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		return Details{Kind: KindTimeout, Message: timeoutMessage}
	}
	if errors.Is(err, middleware.ErrInsecureTransport) {
		return Details{Kind: KindNetwork, Message: insecureMessage}
	}
	var te *TransportError
	if errors.As(err, &te) {
		return Details{Kind: KindNetwork, Message: networkMessage}
	}
	return Details{Kind: KindUnknown, Message: err.Error()}
}

// ErrorMessage is the user-facing text for err.
func ErrorMessage(err error) string {
	return ErrorDetails(err).Message
}
