package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soaringjerry/feedbacktool/internal/models"
)

type sessionStubAPI struct {
	mu         sync.Mutex
	login      *models.LoginResponse
	loginErr   error
	me         *models.User
	meErr      error
	logoutErr  error
	loginHook  func()
	meCalls    int
	logoutHits int
}

func (s *sessionStubAPI) Login(ctx context.Context, email, password string) (*models.LoginResponse, error) {
	if s.loginHook != nil {
		s.loginHook()
	}
	if s.loginErr != nil {
		return nil, s.loginErr
	}
	copy := *s.login
	return &copy, nil
}

func (s *sessionStubAPI) Register(ctx context.Context, name, email, password string) (*models.LoginResponse, error) {
	return s.Login(ctx, email, password)
}

func (s *sessionStubAPI) Me(ctx context.Context) (*models.User, error) {
	s.mu.Lock()
	s.meCalls++
	s.mu.Unlock()
	if s.meErr != nil {
		return nil, s.meErr
	}
	if s.me == nil {
		return nil, nil
	}
	copy := *s.me
	return &copy, nil
}

func (s *sessionStubAPI) Logout(ctx context.Context) error {
	s.logoutHits++
	return s.logoutErr
}

func (s *sessionStubAPI) ForgotPassword(ctx context.Context, email string) error { return nil }

func (s *sessionStubAPI) ValidateResetToken(ctx context.Context, token string) (bool, error) {
	return token == "good", nil
}

func (s *sessionStubAPI) ResetPassword(ctx context.Context, token, password string) error {
	return nil
}

type sessionStubStorage struct {
	mu      sync.Mutex
	token   string
	profile *models.User
	cleared int
	loadErr error
}

func (s *sessionStubStorage) LoadSession(ctx context.Context) (string, *models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, s.profile, s.loadErr
}

func (s *sessionStubStorage) SaveToken(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

func (s *sessionStubStorage) SaveProfile(ctx context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copy := *u
	s.profile = &copy
	return nil
}

func (s *sessionStubStorage) ClearSession(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.profile = nil
	s.cleared++
	return nil
}

func adminProfile() *models.User {
	return &models.User{ID: 7, Name: "Ada", Email: "ada@example.com", Role: models.RoleAdmin}
}

func TestSessionLoginUsesAuthoritativeProfile(t *testing.T) {
	api := &sessionStubAPI{
		login: &models.LoginResponse{Token: "tok-1", Email: "ada@example.com", Name: "Stale", Role: models.RoleUser, UserID: 7},
		me:    adminProfile(),
	}
	store := &sessionStubStorage{}
	svc := NewSessionService(api, store, nil)

	res, err := svc.Login(context.Background(), " ada@example.com ", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "Login successful", res.Message)
	assert.Equal(t, "Ada", res.User.Name)
	assert.Equal(t, "tok-1", res.User.Token)
	assert.True(t, svc.IsAuthenticated())
	assert.True(t, svc.HasRole(models.RoleAdmin))
	assert.False(t, svc.HasRole(models.RoleUser))
	assert.Equal(t, "tok-1", store.token)
	require.NotNil(t, store.profile)
	assert.Equal(t, models.RoleAdmin, store.profile.Role)
}

func TestSessionLoginFallsBackToEmbeddedProfile(t *testing.T) {
	api := &sessionStubAPI{
		login: &models.LoginResponse{Token: "tok-1", Email: "bo@example.com", Name: "Bo", Role: models.RoleUser, UserID: 3},
		meErr: errors.New("boom"),
	}
	svc := NewSessionService(api, &sessionStubStorage{}, nil)

	res, err := svc.Login(context.Background(), "bo@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.User.ID)
	assert.Equal(t, "Bo", res.User.Name)
	assert.True(t, svc.HasRole(models.RoleUser))
}

func TestSessionLoginValidatesLocally(t *testing.T) {
	api := &sessionStubAPI{}
	svc := NewSessionService(api, &sessionStubStorage{}, nil)

	_, err := svc.Login(context.Background(), "not-an-email", "123")
	require.Error(t, err)
	fields := FieldErrors(err)
	assert.Equal(t, "Please enter a valid email address", fields["email"])
	assert.Equal(t, "Password must be at least 6 characters", fields["password"])

	_, err = svc.Register(context.Background(), "", "", "")
	fields = FieldErrors(err)
	assert.Equal(t, "Name is required", fields["name"])
	assert.Equal(t, "Email is required", fields["email"])
	assert.Equal(t, "Password is required", fields["password"])
	assert.Zero(t, api.meCalls)
}

func TestSessionLoginFailurePassesServerError(t *testing.T) {
	serverErr := NewFieldError("Invalid credentials", map[string]string{"password": "wrong"})
	svc := NewSessionService(&sessionStubAPI{loginErr: serverErr}, &sessionStubStorage{}, nil)

	_, err := svc.Login(context.Background(), "ada@example.com", "secret1")
	assert.Equal(t, serverErr, err)
	assert.False(t, svc.IsAuthenticated())
}

func TestSessionLoginMissingTokenIsBadGateway(t *testing.T) {
	svc := NewSessionService(&sessionStubAPI{login: &models.LoginResponse{}}, &sessionStubStorage{}, nil)
	_, err := svc.Login(context.Background(), "ada@example.com", "secret1")
	assert.True(t, IsCode(err, ErrorBadGateway))
}

func TestSessionLogoutClearsEvenWhenServerFails(t *testing.T) {
	api := &sessionStubAPI{
		login:     &models.LoginResponse{Token: "tok-1"},
		me:        adminProfile(),
		logoutErr: errors.New("network down"),
	}
	store := &sessionStubStorage{}
	svc := NewSessionService(api, store, nil)
	_, err := svc.Login(context.Background(), "ada@example.com", "secret1")
	require.NoError(t, err)

	svc.Logout(context.Background())
	assert.False(t, svc.IsAuthenticated())
	assert.Nil(t, svc.User())
	assert.Empty(t, svc.Token())
	assert.Equal(t, 1, api.logoutHits)
	assert.Equal(t, 1, store.cleared)
	assert.Empty(t, store.token)
}

func TestSessionInitializeRestoresVerifiedSession(t *testing.T) {
	store := &sessionStubStorage{token: "tok-9", profile: &models.User{Role: models.RoleAdmin}}
	api := &sessionStubAPI{me: &models.User{ID: 9, Name: "Cy", Role: models.RoleUser}}
	svc := NewSessionService(api, store, nil)

	require.NoError(t, svc.Initialize(context.Background()))
	assert.True(t, svc.IsAuthenticated())
	// the cached profile claimed ADMIN; only the server answer counts
	assert.False(t, svc.HasRole(models.RoleAdmin))
	assert.Equal(t, "tok-9", svc.User().Token)
}

func TestSessionInitializeFailsClosed(t *testing.T) {
	store := &sessionStubStorage{token: "tok-9", profile: adminProfile()}
	svc := NewSessionService(&sessionStubAPI{meErr: NewUnauthorizedError("expired")}, store, nil)

	require.NoError(t, svc.Initialize(context.Background()))
	assert.False(t, svc.IsAuthenticated())
	assert.False(t, svc.HasRole(models.RoleAdmin))
	assert.Empty(t, store.token)
	assert.Nil(t, store.profile)
}

func TestSessionInitializeSkipsExpiredJWT(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(-time.Hour)),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	api := &sessionStubAPI{me: adminProfile()}
	store := &sessionStubStorage{token: tok}
	svc := NewSessionService(api, store, nil)
	svc.now = func() time.Time { return now }

	require.NoError(t, svc.Initialize(context.Background()))
	assert.False(t, svc.IsAuthenticated())
	assert.Zero(t, api.meCalls)
	assert.Equal(t, 1, store.cleared)
}

func TestSessionInitializeReturnsStorageErrors(t *testing.T) {
	svc := NewSessionService(&sessionStubAPI{}, &sessionStubStorage{loadErr: errors.New("disk")}, nil)
	assert.Error(t, svc.Initialize(context.Background()))
}

func TestSessionRefreshUserClearsOnFailure(t *testing.T) {
	api := &sessionStubAPI{login: &models.LoginResponse{Token: "tok-1"}, me: adminProfile()}
	svc := NewSessionService(api, &sessionStubStorage{}, nil)
	_, err := svc.Login(context.Background(), "ada@example.com", "secret1")
	require.NoError(t, err)

	api.me = &models.User{ID: 7, Name: "Ada L.", Role: models.RoleAdmin}
	u, err := svc.RefreshUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Ada L.", u.Name)

	api.meErr = NewUnauthorizedError("expired")
	_, err = svc.RefreshUser(context.Background())
	assert.True(t, IsCode(err, ErrorUnauthorized))
	assert.False(t, svc.IsAuthenticated())
}

func TestSessionSupersededLoginIsDiscarded(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	api := &sessionStubAPI{
		login: &models.LoginResponse{Token: "late"},
		me:    adminProfile(),
		loginHook: func() {
			close(started)
			<-release
		},
	}
	svc := NewSessionService(api, &sessionStubStorage{}, nil)

	errc := make(chan error, 1)
	go func() {
		_, err := svc.Login(context.Background(), "ada@example.com", "secret1")
		errc <- err
	}()
	<-started
	svc.Logout(context.Background())
	close(release)

	err := <-errc
	assert.True(t, IsSuperseded(err))
	assert.True(t, IsCode(err, ErrorConflict))
	assert.False(t, svc.IsAuthenticated())
	assert.Empty(t, svc.Token())
}

func TestSessionExpireClearsState(t *testing.T) {
	api := &sessionStubAPI{login: &models.LoginResponse{Token: "tok-1"}, me: adminProfile()}
	svc := NewSessionService(api, &sessionStubStorage{}, nil)
	_, err := svc.Login(context.Background(), "ada@example.com", "secret1")
	require.NoError(t, err)

	svc.Expire(context.Background())
	assert.False(t, svc.IsAuthenticated())
}

func TestSessionPasswordRecoveryValidation(t *testing.T) {
	svc := NewSessionService(&sessionStubAPI{}, &sessionStubStorage{}, nil)
	ctx := context.Background()

	assert.Error(t, svc.ForgotPassword(ctx, "nope"))
	assert.NoError(t, svc.ForgotPassword(ctx, "ada@example.com"))

	ok, err := svc.ValidateResetToken(ctx, "good")
	require.NoError(t, err)
	assert.True(t, ok)
	_, err = svc.ValidateResetToken(ctx, " ")
	assert.Error(t, err)

	err = svc.ResetPassword(ctx, "good", "123")
	assert.Equal(t, "Password must be at least 6 characters", FieldErrors(err)["password"])
	assert.NoError(t, svc.ResetPassword(ctx, "good", "123456"))
}

func TestSessionLoginRejectedWhenProfileUnauthorized(t *testing.T) {
	api := &sessionStubAPI{
		login: &models.LoginResponse{Token: "tok-1", Email: "bo@example.com", Name: "Bo", Role: models.RoleUser, UserID: 3},
		meErr: NewUnauthorizedError("Full authentication is required"),
	}
	store := &sessionStubStorage{}
	svc := NewSessionService(api, store, nil)

	_, err := svc.Login(context.Background(), "bo@example.com", "secret1")
	assert.True(t, IsCode(err, ErrorUnauthorized))
	assert.False(t, svc.IsAuthenticated())
	assert.Empty(t, svc.Token())
	assert.Empty(t, store.token)
}
