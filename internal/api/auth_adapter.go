package api

import (
	"context"

	"github.com/soaringjerry/feedbacktool/internal/middleware"
	"github.com/soaringjerry/feedbacktool/internal/models"
	"github.com/soaringjerry/feedbacktool/internal/services"
)

type authAdapter struct {
	c *Client
}

// NewSessionAPI exposes the auth endpoints to the session service. Sign-in and recovery
// calls are sent without a bearer token.
func NewSessionAPI(c *Client) services.SessionAPI {
	return &authAdapter{c: c}
}

type credentials struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (a *authAdapter) Login(ctx context.Context, email, password string) (*models.LoginResponse, error) {
	var out models.LoginResponse
	if err := a.c.Post(middleware.SkipAuth(ctx), pathLogin, credentials{Email: email, Password: password}, &out); err != nil {
		return nil, toServiceError(err)
	}
	return &out, nil
}

func (a *authAdapter) Register(ctx context.Context, name, email, password string) (*models.LoginResponse, error) {
	var out models.LoginResponse
	if err := a.c.Post(middleware.SkipAuth(ctx), pathRegister, credentials{Name: name, Email: email, Password: password}, &out); err != nil {
		return nil, toServiceError(err)
	}
	return &out, nil
}

func (a *authAdapter) Me(ctx context.Context) (*models.User, error) {
	var out models.User
	if err := a.c.Get(ctx, pathMe, &out); err != nil {
		return nil, toServiceError(err)
	}
	return &out, nil
}

func (a *authAdapter) Logout(ctx context.Context) error {
	return toServiceError(a.c.Post(ctx, pathLogout, nil, nil))
}

func (a *authAdapter) ForgotPassword(ctx context.Context, email string) error {
	body := map[string]string{"email": email}
	return toServiceError(a.c.Post(middleware.SkipAuth(ctx), pathForgotPassword, body, nil))
}

func (a *authAdapter) ValidateResetToken(ctx context.Context, token string) (bool, error) {
	var ok bool
	if err := a.c.Get(middleware.SkipAuth(ctx), validateResetPath(token), &ok); err != nil {
		return false, toServiceError(err)
	}
	return ok, nil
}

func (a *authAdapter) ResetPassword(ctx context.Context, token, password string) error {
	body := map[string]string{"token": token, "newPassword": password}
	return toServiceError(a.c.Post(middleware.SkipAuth(ctx), pathResetPassword, body, nil))
}

var _ services.SessionAPI = (*authAdapter)(nil)
