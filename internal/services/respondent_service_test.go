package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soaringjerry/feedbacktool/internal/models"
)

type publicStubAPI struct {
	survey    *models.Survey
	submitted *models.SubmitResponseRequest
	submitErr error
}

func (s *publicStubAPI) GetPublicSurvey(ctx context.Context, id int64) (*models.Survey, error) {
	if s.survey == nil {
		return nil, NewNotFoundError("survey not found")
	}
	copy := *s.survey
	return &copy, nil
}

func (s *publicStubAPI) SubmitResponse(ctx context.Context, id int64, req *models.SubmitResponseRequest) error {
	s.submitted = req
	return s.submitErr
}

func sampleSurvey() *models.Survey {
	return &models.Survey{
		ID:     11,
		Title:  "Team pulse",
		Status: models.StatusActive,
		Questions: []models.Question{
			{ID: 102, Type: models.QuestionRating, QuestionText: "Rate the week", OrderNumber: 2, Required: true},
			{ID: 101, Type: models.QuestionText, QuestionText: "Name a highlight", OrderNumber: 1, Required: true},
			{ID: 103, Type: models.QuestionMultipleChoice, QuestionText: "Pick one", OrderNumber: 3, Options: []string{"A", "B"}},
		},
	}
}

func newTestRespondent(api *publicStubAPI, session SessionView) *RespondentService {
	svc := NewRespondentService(api, session, nil)
	svc.now = func() time.Time { return time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC) }
	return svc
}

func TestResponseFormProgressAndRequired(t *testing.T) {
	f := NewResponseForm(sampleSurvey(), time.Now())
	assert.Equal(t, []int64{101, 102, 103}, []int64{f.Survey.Questions[0].ID, f.Survey.Questions[1].ID, f.Survey.Questions[2].ID})
	assert.Equal(t, 0, f.Progress())

	require.NoError(t, f.SetAnswer(101, "Shipping"))
	assert.Equal(t, 33, f.Progress())
	require.NoError(t, f.SetAnswer(103, "B"))
	assert.Equal(t, 67, f.Progress())

	assert.Equal(t, []string{"Rate the week"}, f.MissingRequired())
	assert.EqualError(t, f.CheckRequired(), "Please answer all required questions: Rate the week")

	require.NoError(t, f.SetAnswer(101, "   "))
	assert.Equal(t, []string{"Name a highlight", "Rate the week"}, f.MissingRequired())

	assert.Error(t, f.SetAnswer(999, "x"))
}

func TestResponseFormProgressWithoutQuestions(t *testing.T) {
	f := NewResponseForm(&models.Survey{ID: 1}, time.Now())
	assert.Equal(t, 0, f.Progress())
}

func TestResponseFormClosed(t *testing.T) {
	now := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	assert.True(t, SurveyClosed(&models.Survey{Status: models.StatusActive, EndDate: &past}, now))
	assert.False(t, SurveyClosed(&models.Survey{Status: models.StatusActive, EndDate: &future}, now))
	assert.True(t, SurveyClosed(&models.Survey{Status: models.StatusInactive}, now))
	assert.False(t, SurveyClosed(&models.Survey{Status: models.StatusActive}, now))
}

func TestBuildSubmissionShapesAnswers(t *testing.T) {
	f := NewResponseForm(sampleSurvey(), time.Now())
	require.NoError(t, f.SetAnswer(101, "Shipping"))
	require.NoError(t, f.SetAnswer(102, " 4 "))

	req, err := f.BuildSubmission()
	require.NoError(t, err)
	require.Len(t, req.Answers, 2)
	assert.Equal(t, int64(101), req.Answers[0].QuestionID)
	require.NotNil(t, req.Answers[0].AnswerValue)
	assert.Equal(t, "Shipping", *req.Answers[0].AnswerValue)
	assert.Nil(t, req.Answers[0].RatingValue)
	require.NotNil(t, req.Answers[1].RatingValue)
	assert.Equal(t, 4, *req.Answers[1].RatingValue)
	assert.Nil(t, req.Answers[1].AnswerValue)
}

func TestBuildSubmissionRejectsBadRatings(t *testing.T) {
	for _, v := range []string{"6", "-1", "2.5", "4.5", "5.01", "NaN", "great"} {
		f := NewResponseForm(sampleSurvey(), time.Now())
		require.NoError(t, f.SetAnswer(102, v))
		_, err := f.BuildSubmission()
		assert.Error(t, err, v)
		assert.Contains(t, FieldErrors(err), "102")
	}
}

func TestBuildSubmissionAcceptsWholeDecimals(t *testing.T) {
	for v, want := range map[string]int{"4.0": 4, "0.00": 0, "5e0": 5} {
		f := NewResponseForm(sampleSurvey(), time.Now())
		require.NoError(t, f.SetAnswer(102, v))
		req, err := f.BuildSubmission()
		require.NoError(t, err, v)
		require.Len(t, req.Answers, 1)
		require.NotNil(t, req.Answers[0].RatingValue)
		assert.Equal(t, want, *req.Answers[0].RatingValue, v)
	}
}

func TestRespondentSubmitPublicSurvey(t *testing.T) {
	api := &publicStubAPI{survey: sampleSurvey()}
	svc := newTestRespondent(api, stubSessionView{})

	f, err := svc.Open(context.Background(), 11)
	require.NoError(t, err)
	require.NoError(t, f.SetAnswer(101, "Shipping"))
	require.NoError(t, f.SetAnswer(102, "0"))

	require.NoError(t, svc.Submit(context.Background(), f, ChoiceNone))
	require.NotNil(t, api.submitted)
	assert.Len(t, api.submitted.Answers, 2)
	assert.Equal(t, 0, *api.submitted.Answers[1].RatingValue)
}

func TestRespondentSubmitRejectsClosedSurvey(t *testing.T) {
	sv := sampleSurvey()
	end := time.Date(2025, 4, 30, 0, 0, 0, 0, time.UTC)
	sv.EndDate = &end
	api := &publicStubAPI{survey: sv}
	svc := newTestRespondent(api, stubSessionView{})

	f, err := svc.Open(context.Background(), 11)
	require.NoError(t, err)
	assert.ErrorIs(t, svc.Submit(context.Background(), f, ChoiceNone), ErrSurveyClosed)
	assert.Nil(t, api.submitted)
}

func TestRespondentSubmitRequiredBeforeNetwork(t *testing.T) {
	api := &publicStubAPI{survey: sampleSurvey()}
	svc := newTestRespondent(api, stubSessionView{})
	f, err := svc.Open(context.Background(), 11)
	require.NoError(t, err)

	err = svc.Submit(context.Background(), f, ChoiceNone)
	assert.True(t, IsCode(err, ErrorInvalid))
	assert.Nil(t, api.submitted)
}

func TestRespondentPrivateSurveyNeedsChoice(t *testing.T) {
	sv := sampleSurvey()
	sv.IsPrivate = true
	api := &publicStubAPI{survey: sv}
	svc := newTestRespondent(api, stubSessionView{})
	f, err := svc.Open(context.Background(), 11)
	require.NoError(t, err)
	require.NoError(t, f.SetAnswer(101, "Shipping"))
	require.NoError(t, f.SetAnswer(102, "3"))

	err = svc.Submit(context.Background(), f, ChoiceNone)
	require.ErrorIs(t, err, ErrAuthChoiceRequired)
	var choiceErr *AuthChoiceError
	require.True(t, errors.As(err, &choiceErr))
	assert.Equal(t, []AuthChoice{ChoiceSignIn, ChoiceCreateAccount, ChoiceContinueAnonymously}, choiceErr.Offers)
	assert.Nil(t, api.submitted)

	require.NoError(t, svc.Submit(context.Background(), f, ChoiceContinueAnonymously))
	assert.NotNil(t, api.submitted)
}

func TestRespondentPrivateSurveySignedIn(t *testing.T) {
	sv := sampleSurvey()
	sv.IsPrivate = true
	api := &publicStubAPI{survey: sv}
	svc := newTestRespondent(api, stubSessionView{authed: true, role: models.RoleUser})
	f, err := svc.Open(context.Background(), 11)
	require.NoError(t, err)
	require.NoError(t, f.SetAnswer(101, "x"))
	require.NoError(t, f.SetAnswer(102, "5"))

	assert.NoError(t, svc.Submit(context.Background(), f, ChoiceNone))
}

func TestRespondentOpenMissingSurvey(t *testing.T) {
	svc := newTestRespondent(&publicStubAPI{}, nil)
	_, err := svc.Open(context.Background(), 11)
	assert.True(t, IsCode(err, ErrorNotFound))
	_, err = svc.Open(context.Background(), 0)
	assert.True(t, IsCode(err, ErrorInvalid))
}
