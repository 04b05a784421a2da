package api

import (
	"context"

	"github.com/soaringjerry/feedbacktool/internal/models"
	"github.com/soaringjerry/feedbacktool/internal/services"
)

type publicAdapter struct {
	c *Client
}

// NewPublicSurveyAPI exposes the respondent endpoints. The bearer token is still attached
// when present so private surveys can identify the respondent.
func NewPublicSurveyAPI(c *Client) services.PublicSurveyAPI {
	return &publicAdapter{c: c}
}

func (a *publicAdapter) GetPublicSurvey(ctx context.Context, id int64) (*models.Survey, error) {
	var out models.Survey
	if err := a.c.Get(ctx, publicSurveyPath(id), &out); err != nil {
		return nil, toServiceError(err)
	}
	return &out, nil
}

func (a *publicAdapter) SubmitResponse(ctx context.Context, id int64, req *models.SubmitResponseRequest) error {
	return toServiceError(a.c.Post(ctx, publicResponsePath(id), req, nil))
}

var _ services.PublicSurveyAPI = (*publicAdapter)(nil)
