//go:build integration

package api

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/soaringjerry/feedbacktool/internal/middleware"
	"github.com/soaringjerry/feedbacktool/internal/models"
	"github.com/soaringjerry/feedbacktool/internal/services"
)

// These tests run against a live backend:
//
//	FEEDBACKTOOL_TEST_BASE_URL=http://127.0.0.1:8080/api go test -tags integration ./internal/api
//
// The admin journey also needs FEEDBACKTOOL_TEST_ADMIN_EMAIL and FEEDBACKTOOL_TEST_ADMIN_PASSWORD.

func liveBaseURL() string {
	if v := os.Getenv("FEEDBACKTOOL_TEST_BASE_URL"); strings.TrimSpace(v) != "" {
		return strings.TrimRight(v, "/")
	}
	return "http://127.0.0.1:8080/api"
}

func liveSession(t *testing.T) (*Client, *services.SessionService) {
	t.Helper()
	var s *services.SessionService
	rt := middleware.Chain(nil,
		middleware.UserAgent("feedbacktool-integration"),
		middleware.BearerAuth(middleware.TokenFunc(func() string { return s.Token() })),
	)
	c := New(liveBaseURL(), rt, 10*time.Second, nil)
	s = services.NewSessionService(NewSessionAPI(c), &memSession{}, nil)
	return c, s
}

func TestRegisterLoginIntegration(t *testing.T) {
	ctx := context.Background()
	_, s := liveSession(t)

	email := fmt.Sprintf("integration_%d@example.com", time.Now().UnixNano())
	res, err := s.Register(ctx, "Integration", email, "Secret123!")
	require.NoError(t, err)
	require.Equal(t, email, res.User.Email)

	s.Logout(ctx)
	require.False(t, s.IsAuthenticated())

	res, err = s.Login(ctx, email, "Secret123!")
	require.NoError(t, err)
	require.True(t, s.IsAuthenticated())
	require.Equal(t, models.RoleUser, res.User.Role)
}

func TestAdminJourneyIntegration(t *testing.T) {
	email, password := os.Getenv("FEEDBACKTOOL_TEST_ADMIN_EMAIL"), os.Getenv("FEEDBACKTOOL_TEST_ADMIN_PASSWORD")
	if email == "" || password == "" {
		t.Skip("admin credentials not set")
	}
	ctx := context.Background()
	c, s := liveSession(t)
	_, err := s.Login(ctx, email, password)
	require.NoError(t, err)

	surveys := NewSurveyAdapter(c)
	d, err := services.NewDraftFromTemplate("event-feedback", services.CreationRatingPolicy)
	require.NoError(t, err)
	d.Title = fmt.Sprintf("Integration %d", time.Now().UnixNano())
	sv, err := services.NewBuilderService(surveys, nil).Submit(ctx, d, models.StatusActive)
	require.NoError(t, err)
	t.Cleanup(func() { _ = surveys.DeleteSurvey(context.Background(), sv.ID) })

	respondent := services.NewRespondentService(NewPublicSurveyAPI(c), s, nil)
	form, err := respondent.Open(ctx, sv.ID)
	require.NoError(t, err)
	for _, q := range form.Survey.Questions {
		switch q.Type {
		case models.QuestionRating:
			require.NoError(t, form.SetAnswer(q.ID, "4"))
		case models.QuestionMultipleChoice:
			choices := q.Choices()
			require.NotEmpty(t, choices)
			require.NoError(t, form.SetAnswer(q.ID, choices[0]))
		default:
			require.NoError(t, form.SetAnswer(q.ID, "integration answer"))
		}
	}
	require.NoError(t, respondent.Submit(ctx, form, services.ChoiceNone))

	out, err := services.NewExportService(surveys, nil).Export(ctx, services.ExportParams{SurveyID: sv.ID})
	require.NoError(t, err)
	require.Contains(t, string(out.Data), "integration answer")
}
