package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/soaringjerry/feedbacktool/internal/models"
	"github.com/soaringjerry/feedbacktool/internal/services"
)

// SurveyAdapter serves the builder, analytics and export services from the admin
// survey endpoints.
type SurveyAdapter struct {
	c *Client
}

func NewSurveyAdapter(c *Client) *SurveyAdapter {
	return &SurveyAdapter{c: c}
}

func (a *SurveyAdapter) ListSurveys(ctx context.Context) ([]models.Survey, error) {
	var out []models.Survey
	if err := a.c.Get(ctx, pathSurveys, &out); err != nil {
		return nil, toServiceError(err)
	}
	return out, nil
}

// ListAdminSurveys returns surveys with their response statistics.
func (a *SurveyAdapter) ListAdminSurveys(ctx context.Context) ([]models.Survey, error) {
	var out []models.Survey
	if err := a.c.Get(ctx, pathAdminSurveys, &out); err != nil {
		return nil, toServiceError(err)
	}
	return out, nil
}

func (a *SurveyAdapter) GetSurvey(ctx context.Context, id int64) (*models.Survey, error) {
	var out models.Survey
	if err := a.c.Get(ctx, surveyPath(id), &out); err != nil {
		return nil, toServiceError(err)
	}
	return &out, nil
}

func (a *SurveyAdapter) CreateSurvey(ctx context.Context, req *models.CreateSurveyRequest) (*models.Survey, error) {
	var out models.Survey
	if err := a.c.Post(ctx, pathSurveys, req, &out); err != nil {
		return nil, toServiceError(err)
	}
	return &out, nil
}

func (a *SurveyAdapter) UpdateSurvey(ctx context.Context, id int64, req *models.UpdateSurveyRequest) (*models.Survey, error) {
	var out models.Survey
	if err := a.c.Put(ctx, surveyPath(id), req, &out); err != nil {
		return nil, toServiceError(err)
	}
	return &out, nil
}

func (a *SurveyAdapter) DeleteSurvey(ctx context.Context, id int64) error {
	return toServiceError(a.c.Delete(ctx, surveyPath(id), nil))
}

func (a *SurveyAdapter) GetSurveyResults(ctx context.Context, id int64) (*models.SurveyResults, error) {
	var out models.SurveyResults
	if err := a.c.Get(ctx, surveyResultsPath(id), &out); err != nil {
		return nil, toServiceError(err)
	}
	return &out, nil
}

// GetSurveyResponses accepts either {surveyId, responses} or a bare list of responses.
func (a *SurveyAdapter) GetSurveyResponses(ctx context.Context, id int64) (*models.SurveyResponses, error) {
	raw, err := a.c.Raw(ctx, http.MethodGet, surveyResponsesPath(id), nil)
	if err != nil {
		return nil, toServiceError(err)
	}
	var data json.RawMessage
	if err := ExtractData(raw, &data); err != nil {
		return nil, services.NewBadGatewayError("unreadable responses payload")
	}
	out := &models.SurveyResponses{SurveyID: id}
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		err = json.Unmarshal(trimmed, &out.Responses)
	} else if len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null")) {
		err = json.Unmarshal(trimmed, out)
	}
	if err != nil {
		return nil, services.NewBadGatewayError("unreadable responses payload")
	}
	return out, nil
}

var (
	_ services.SurveyAPI  = (*SurveyAdapter)(nil)
	_ services.ResultsAPI = (*SurveyAdapter)(nil)
)
