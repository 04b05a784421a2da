package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soaringjerry/feedbacktool/internal/models"
)

type surveyStubAPI struct {
	created *models.CreateSurveyRequest
	updated *models.UpdateSurveyRequest
	survey  *models.Survey
	err     error
	calls   int
}

func (s *surveyStubAPI) CreateSurvey(ctx context.Context, req *models.CreateSurveyRequest) (*models.Survey, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	c := *req
	s.created = &c
	return &models.Survey{ID: 42, Title: req.Title, Status: req.Status}, nil
}

func (s *surveyStubAPI) UpdateSurvey(ctx context.Context, id int64, req *models.UpdateSurveyRequest) (*models.Survey, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	c := *req
	s.updated = &c
	return &models.Survey{ID: id, Title: req.Title}, nil
}

func (s *surveyStubAPI) GetSurvey(ctx context.Context, id int64) (*models.Survey, error) {
	s.calls++
	return s.survey, s.err
}

func q3Draft(t *testing.T) *SurveyDraft {
	t.Helper()
	d := newTestDraft()
	d.Title = "Q3 Check-in"
	_, err := d.AddQuestion(models.QuestionRating)
	require.NoError(t, err)
	_, err = d.AddQuestion(models.QuestionText)
	require.NoError(t, err)
	require.NoError(t, d.UpdateQuestion(0, SetQuestionText{Text: "Rate the quarter"}))
	require.NoError(t, d.UpdateQuestion(1, SetQuestionText{Text: "Comments"}))
	return d
}

func TestSubmitCreateScenario(t *testing.T) {
	api := &surveyStubAPI{}
	svc := NewBuilderService(api, nil)
	d := q3Draft(t)

	out, err := svc.Submit(context.Background(), d, models.StatusActive)
	require.NoError(t, err)
	assert.Equal(t, int64(42), out.ID)
	assert.Equal(t, int64(42), d.SurveyID)
	assert.Equal(t, models.StatusActive, d.Status)

	require.NotNil(t, api.created)
	assert.Equal(t, models.StatusActive, api.created.Status)
	require.Len(t, api.created.Questions, 2)
	assert.Equal(t, 1, api.created.Questions[0].OrderNumber)
	assert.Equal(t, 2, api.created.Questions[1].OrderNumber)
	assert.Nil(t, api.created.Questions[1].OptionsJSON)
}

func TestResubmitAfterCreateUpdates(t *testing.T) {
	api := &surveyStubAPI{}
	svc := NewBuilderService(api, nil)
	d := q3Draft(t)

	_, err := svc.Submit(context.Background(), d, models.StatusDraft)
	require.NoError(t, err)
	assert.Equal(t, ModeEdit, d.Mode)

	d.Title = "Q3 Check-in v2"
	out, err := svc.Submit(context.Background(), d, models.StatusActive)
	require.NoError(t, err)
	assert.Equal(t, int64(42), out.ID)
	require.NotNil(t, api.updated)
	assert.Equal(t, "Q3 Check-in v2", api.updated.Title)
	assert.True(t, api.updated.Active)
	assert.Equal(t, "Q3 Check-in", api.created.Title)
	assert.Equal(t, 2, api.calls)
}

func TestSubmitInvalidDraftSkipsNetwork(t *testing.T) {
	api := &surveyStubAPI{}
	svc := NewBuilderService(api, nil)

	_, err := svc.Submit(context.Background(), newTestDraft(), "")
	require.Error(t, err)
	assert.Equal(t, "Survey title is required", FieldErrors(err)["title"])
	assert.Equal(t, 0, api.calls)

	_, err = svc.Submit(context.Background(), q3Draft(t), models.StatusInactive)
	assert.True(t, IsCode(err, ErrorInvalid))
	_, err = svc.Submit(context.Background(), nil, "")
	assert.True(t, IsCode(err, ErrorInvalid))
	assert.Equal(t, 0, api.calls)
}

func TestSubmitEditUsesUpdate(t *testing.T) {
	api := &surveyStubAPI{}
	svc := NewBuilderService(api, nil)
	d := q3Draft(t)
	d.Mode = ModeEdit
	d.SurveyID = 7

	_, err := svc.Submit(context.Background(), d, models.StatusDraft)
	require.NoError(t, err)
	require.NotNil(t, api.updated)
	assert.False(t, api.updated.Active)
	assert.Nil(t, api.created)
	assert.Equal(t, int64(7), d.SurveyID)
}

func TestSubmitLockedRejectionBecomesBanner(t *testing.T) {
	api := &surveyStubAPI{err: errors.New("Cannot modify questions for a survey that already has responses")}
	svc := NewBuilderService(api, nil)
	d := q3Draft(t)
	d.Mode = ModeEdit
	d.SurveyID = 7

	_, err := svc.Submit(context.Background(), d, models.StatusActive)
	assert.True(t, IsCode(err, ErrorConflict))
	assert.Equal(t, LockedBanner, err.Error())

	other := errors.New("boom")
	api.err = other
	_, err = svc.Submit(context.Background(), d, models.StatusActive)
	assert.ErrorIs(t, err, other)
}

func TestLoadForEdit(t *testing.T) {
	api := &surveyStubAPI{survey: &models.Survey{ID: 7, Title: "Pulse", HasResponses: true, Questions: []models.Question{
		{ID: 1, Type: models.QuestionRating, QuestionText: "Stars", OrderNumber: 1},
	}}}
	svc := NewBuilderService(api, nil).WithEditPolicy(RatingPolicy{DefaultScale: 6, MinScale: 2, MaxScale: 6, FixedScale: true})

	d, err := svc.LoadForEdit(context.Background(), 7)
	require.NoError(t, err)
	assert.True(t, d.Locked)
	assert.Equal(t, 6, d.Policy.MaxScale)

	_, err = svc.LoadForEdit(context.Background(), 0)
	assert.True(t, IsCode(err, ErrorInvalid))

	api.survey = nil
	_, err = svc.LoadForEdit(context.Background(), 7)
	assert.True(t, IsCode(err, ErrorNotFound))
}
