package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/soaringjerry/feedbacktool/internal/models"
)

// SessionAPI is the slice of the REST client the session store talks to. Me and Logout
// authenticate with whatever token the session currently holds.
type SessionAPI interface {
	Login(ctx context.Context, email, password string) (*models.LoginResponse, error)
	Register(ctx context.Context, name, email, password string) (*models.LoginResponse, error)
	Me(ctx context.Context) (*models.User, error)
	Logout(ctx context.Context) error
	ForgotPassword(ctx context.Context, email string) error
	ValidateResetToken(ctx context.Context, token string) (bool, error)
	ResetPassword(ctx context.Context, token, password string) error
}

// SessionStorage persists the bearer token and the cached profile. Both are best-effort
// caches; the profile is never trusted without a server round-trip.
type SessionStorage interface {
	LoadSession(ctx context.Context) (token string, profile *models.User, err error)
	SaveToken(ctx context.Context, token string) error
	SaveProfile(ctx context.Context, u *models.User) error
	ClearSession(ctx context.Context) error
}

type AuthResult struct {
	User    *models.User
	Message string
}

// SessionService owns authentication state. It is safe for concurrent use; login, register
// and logout are fenced by a generation counter so a late completion cannot overwrite a
// newer session.
type SessionService struct {
	api     SessionAPI
	storage SessionStorage
	log     *slog.Logger
	now     func() time.Time

	mu       sync.RWMutex
	gen      uint64
	token    string
	user     *models.User
	verified bool
}

func NewSessionService(api SessionAPI, storage SessionStorage, log *slog.Logger) *SessionService {
	return &SessionService{
		api:     api,
		storage: storage,
		log:     orDiscard(log),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Initialize restores the persisted token and verifies it with the server. Verification
// failures leave the session cleared and are not returned; only storage errors are.
func (s *SessionService) Initialize(ctx context.Context) error {
	token, _, err := s.storage.LoadSession(ctx)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if strings.TrimSpace(token) == "" {
		s.reset()
		return nil
	}
	if tokenExpired(token, s.now()) {
		s.log.Info("stored token expired, clearing session")
		s.clear(ctx, s.begin())
		return nil
	}
	gen := s.begin()
	if !s.holdToken(gen, token) {
		return nil
	}
	profile, err := s.api.Me(ctx)
	if err != nil || profile == nil {
		s.log.Warn("session verification failed, clearing session", "error", err)
		s.clear(ctx, gen)
		return nil
	}
	if !s.commit(ctx, gen, token, profile) {
		return nil
	}
	s.log.Info("session restored", "user_id", profile.ID, "role", profile.Role)
	return nil
}

func (s *SessionService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.TrimSpace(email)
	if err := checkInput(loginInput{Email: email, Password: password}); err != nil {
		return nil, err
	}
	gen := s.begin()
	resp, err := s.api.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	u, err := s.establish(ctx, gen, resp)
	if err != nil {
		return nil, err
	}
	s.log.Info("login succeeded", "user_id", u.ID, "role", u.Role)
	return &AuthResult{User: u, Message: "Login successful"}, nil
}

func (s *SessionService) Register(ctx context.Context, name, email, password string) (*AuthResult, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if err := checkInput(registerInput{Name: name, Email: email, Password: password}); err != nil {
		return nil, err
	}
	gen := s.begin()
	resp, err := s.api.Register(ctx, name, email, password)
	if err != nil {
		return nil, err
	}
	u, err := s.establish(ctx, gen, resp)
	if err != nil {
		return nil, err
	}
	s.log.Info("registration succeeded", "user_id", u.ID)
	return &AuthResult{User: u, Message: "Account created successfully"}, nil
}

// establish stores the new token right away, then prefers the authoritative profile and
// falls back to the data embedded in the auth response. A 401 from the profile call means
// the new token is already unusable and fails the sign-in.
func (s *SessionService) establish(ctx context.Context, gen uint64, resp *models.LoginResponse) (*models.User, error) {
	if resp == nil || strings.TrimSpace(resp.Token) == "" {
		return nil, NewBadGatewayError("authentication response did not include a token")
	}
	if !s.holdToken(gen, resp.Token) {
		return nil, ErrSuperseded
	}
	if err := s.storage.SaveToken(ctx, resp.Token); err != nil {
		s.log.Warn("persist token failed", "error", err)
	}
	profile, err := s.api.Me(ctx)
	if IsCode(err, ErrorUnauthorized) {
		s.clear(ctx, gen)
		return nil, err
	}
	if err != nil || profile == nil {
		s.log.Warn("profile fetch after sign-in failed, using sign-in payload", "error", err)
		profile = resp.User()
	}
	if !s.commit(ctx, gen, resp.Token, profile) {
		return nil, ErrSuperseded
	}
	return s.User(), nil
}

// Logout asks the server to invalidate the token and always clears local state.
func (s *SessionService) Logout(ctx context.Context) {
	gen := s.begin()
	defer s.clear(ctx, gen)
	if s.Token() == "" {
		return
	}
	if err := s.api.Logout(ctx); err != nil {
		s.log.Warn("server logout failed", "error", err)
	}
}

// RefreshUser re-fetches the profile. Unlike Initialize, a failure is returned after the
// session has been cleared.
func (s *SessionService) RefreshUser(ctx context.Context) (*models.User, error) {
	s.mu.RLock()
	gen, token := s.gen, s.token
	s.mu.RUnlock()
	if token == "" {
		return nil, NewUnauthorizedError("not signed in")
	}
	profile, err := s.api.Me(ctx)
	if err == nil && profile == nil {
		err = NewBadGatewayError("empty profile response")
	}
	if err != nil {
		s.clear(ctx, gen)
		return nil, err
	}
	if !s.commit(ctx, gen, token, profile) {
		return nil, ErrSuperseded
	}
	return s.User(), nil
}

// Expire drops local state without a server call. It backs the 401 transport hook.
func (s *SessionService) Expire(ctx context.Context) {
	s.log.Info("session expired")
	s.clear(ctx, s.begin())
}

func (s *SessionService) ForgotPassword(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if err := checkInput(emailInput{Email: email}); err != nil {
		return err
	}
	return s.api.ForgotPassword(ctx, email)
}

func (s *SessionService) ValidateResetToken(ctx context.Context, token string) (bool, error) {
	if strings.TrimSpace(token) == "" {
		return false, NewInvalidError("reset token required")
	}
	return s.api.ValidateResetToken(ctx, token)
}

func (s *SessionService) ResetPassword(ctx context.Context, token, password string) error {
	if err := checkInput(resetInput{Token: strings.TrimSpace(token), Password: password}); err != nil {
		return err
	}
	return s.api.ResetPassword(ctx, token, password)
}

// IsAuthenticated requires a user, a token and a server-verified session.
func (s *SessionService) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil && s.token != "" && s.verified
}

// HasRole never consults an unverified role.
func (s *SessionService) HasRole(role models.Role) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil && s.token != "" && s.verified && s.user.Role == role
}

// User returns a copy of the verified user, or nil.
func (s *SessionService) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil || !s.verified {
		return nil
	}
	u := *s.user
	return &u
}

// Token returns the bearer token currently held, verified or not.
func (s *SessionService) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *SessionService) begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	return s.gen
}

func (s *SessionService) holdToken(gen uint64, token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return false
	}
	s.token = token
	s.user = nil
	s.verified = false
	return true
}

func (s *SessionService) commit(ctx context.Context, gen uint64, token string, profile *models.User) bool {
	u := *profile
	u.Token = token
	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		return false
	}
	s.token = token
	s.user = &u
	s.verified = true
	s.mu.Unlock()
	if err := s.storage.SaveProfile(ctx, &u); err != nil {
		s.log.Warn("persist profile failed", "error", err)
	}
	return true
}

// clear empties the session unless a newer operation already replaced it.
func (s *SessionService) clear(ctx context.Context, gen uint64) {
	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		return
	}
	s.token = ""
	s.user = nil
	s.verified = false
	s.mu.Unlock()
	if err := s.storage.ClearSession(ctx); err != nil {
		s.log.Warn("clear stored session failed", "error", err)
	}
}

func (s *SessionService) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.user = nil
	s.verified = false
}

// tokenExpired reads the exp claim without verifying the signature; only the server can
// vouch for a token, this merely skips a round-trip that is bound to fail.
func tokenExpired(token string, now time.Time) bool {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return !now.Before(claims.ExpiresAt.Time)
}

// IsSuperseded reports whether err came from a discarded session operation.
func IsSuperseded(err error) bool { return errors.Is(err, ErrSuperseded) }
