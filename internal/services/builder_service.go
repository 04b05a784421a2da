package services

import (
	"context"
	"log/slog"
	"strings"

	"github.com/soaringjerry/feedbacktool/internal/models"
)

// SurveyAPI is the slice of the REST client the builder needs.
type SurveyAPI interface {
	CreateSurvey(ctx context.Context, req *models.CreateSurveyRequest) (*models.Survey, error)
	UpdateSurvey(ctx context.Context, id int64, req *models.UpdateSurveyRequest) (*models.Survey, error)
	GetSurvey(ctx context.Context, id int64) (*models.Survey, error)
}

// LockedBanner replaces server messages about surveys that already collected responses.
const LockedBanner = "This survey already has responses. You can only update the title, description, end date, and publish/unpublish status. To make structural changes, create a new survey instead."

type BuilderService struct {
	api        SurveyAPI
	log        *slog.Logger
	editPolicy RatingPolicy
}

func NewBuilderService(api SurveyAPI, log *slog.Logger) *BuilderService {
	return &BuilderService{api: api, log: orDiscard(log), editPolicy: EditRatingPolicy}
}

// WithEditPolicy overrides the rating policy used for drafts loaded for edit.
func (s *BuilderService) WithEditPolicy(p RatingPolicy) *BuilderService {
	s.editPolicy = p
	return s
}

// LoadForEdit fetches a survey and turns it into an edit-mode draft.
func (s *BuilderService) LoadForEdit(ctx context.Context, id int64) (*SurveyDraft, error) {
	if id <= 0 {
		return nil, NewInvalidError("survey id required")
	}
	sv, err := s.api.GetSurvey(ctx, id)
	if err != nil {
		return nil, err
	}
	if sv == nil {
		return nil, NewNotFoundError("survey not found")
	}
	return DraftFromSurvey(sv, s.editPolicy), nil
}

// Submit validates the draft and sends it with the requested status. Validation failures
// are returned as a field error and never reach the network.
func (s *BuilderService) Submit(ctx context.Context, d *SurveyDraft, status models.SurveyStatus) (*models.Survey, error) {
	if d == nil {
		return nil, NewInvalidError("draft required")
	}
	if status == "" {
		status = models.StatusDraft
	}
	if status != models.StatusDraft && status != models.StatusActive {
		return nil, NewInvalidError("status must be DRAFT or ACTIVE")
	}
	if res := d.Validate(); !res.Valid() {
		return nil, NewFieldError("Please fix the highlighted fields", res)
	}

	var (
		out *models.Survey
		err error
	)
	switch d.Mode {
	case ModeEdit:
		out, err = s.api.UpdateSurvey(ctx, d.SurveyID, &models.UpdateSurveyRequest{
			Title:       strings.TrimSpace(d.Title),
			Description: d.Description,
			Active:      status == models.StatusActive,
			EndDate:     d.EndDate,
			Questions:   d.QuestionPayloads(),
		})
	default:
		out, err = s.api.CreateSurvey(ctx, &models.CreateSurveyRequest{
			Title:       strings.TrimSpace(d.Title),
			Description: d.Description,
			Status:      status,
			EndDate:     d.EndDate,
			Questions:   d.QuestionPayloads(),
		})
	}
	if err != nil {
		if isLockedRejection(err) {
			s.log.Warn("survey update rejected: questions locked", "survey_id", d.SurveyID)
			return nil, &ServiceError{Code: ErrorConflict, Message: LockedBanner}
		}
		return nil, err
	}
	d.Status = status
	if out != nil && d.Mode == ModeCreate {
		d.SurveyID = out.ID
		d.Mode = ModeEdit
	}
	s.log.Info("survey submitted", "survey_id", d.SurveyID, "status", status, "questions", len(d.Questions))
	return out, nil
}

func isLockedRejection(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "Cannot modify questions") || strings.Contains(msg, "already has responses")
}
