package services

import "github.com/soaringjerry/feedbacktool/internal/models"

// SessionView is the read side of the session used by guards and the respondent flow.
type SessionView interface {
	IsAuthenticated() bool
	HasRole(role models.Role) bool
}

type GuardDecision int

const (
	GuardAllow GuardDecision = iota
	GuardRedirectLogin
	GuardAccessDenied
)

func (d GuardDecision) String() string {
	switch d {
	case GuardAllow:
		return "allow"
	case GuardRedirectLogin:
		return "redirect_login"
	case GuardAccessDenied:
		return "access_denied"
	}
	return "unknown"
}

// Check decides access for a protected command. An empty role only requires sign-in.
func Check(s SessionView, required models.Role) GuardDecision {
	if s == nil || !s.IsAuthenticated() {
		return GuardRedirectLogin
	}
	if required != "" && !s.HasRole(required) {
		return GuardAccessDenied
	}
	return GuardAllow
}

// Require converts a guard decision into a service error.
func Require(s SessionView, required models.Role) error {
	switch Check(s, required) {
	case GuardRedirectLogin:
		return NewUnauthorizedError("Please log in to continue")
	case GuardAccessDenied:
		return NewForbiddenError("Access denied")
	}
	return nil
}
