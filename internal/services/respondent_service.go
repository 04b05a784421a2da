package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/soaringjerry/feedbacktool/internal/models"
)

const (
	MinRatingAnswer = 0
	MaxRatingAnswer = 5
)

// PublicSurveyAPI is the slice of the REST client used by respondents.
type PublicSurveyAPI interface {
	GetPublicSurvey(ctx context.Context, id int64) (*models.Survey, error)
	SubmitResponse(ctx context.Context, id int64, req *models.SubmitResponseRequest) error
}

type AuthChoice string

const (
	ChoiceNone                AuthChoice = ""
	ChoiceSignIn              AuthChoice = "sign_in"
	ChoiceCreateAccount       AuthChoice = "create_account"
	ChoiceContinueAnonymously AuthChoice = "continue_anonymously"
)

// ErrAuthChoiceRequired is matched by AuthChoiceError via errors.Is.
var ErrAuthChoiceRequired = errors.New("this survey asks respondents to sign in")

// AuthChoiceError is returned when a private survey is submitted without a session.
type AuthChoiceError struct {
	SurveyID int64
	Offers   []AuthChoice
}

func (e *AuthChoiceError) Error() string { return ErrAuthChoiceRequired.Error() }

func (e *AuthChoiceError) Is(target error) bool { return target == ErrAuthChoiceRequired }

// ResponseForm holds a respondent's answers for one survey.
type ResponseForm struct {
	Survey    *models.Survey
	StartedAt time.Time
	answers   map[int64]string
}

// NewResponseForm orders the survey questions and starts the completion clock.
func NewResponseForm(sv *models.Survey, started time.Time) *ResponseForm {
	qs := append([]models.Question(nil), sv.Questions...)
	sort.SliceStable(qs, func(i, j int) bool { return qs[i].OrderNumber < qs[j].OrderNumber })
	snapshot := *sv
	snapshot.Questions = qs
	return &ResponseForm{Survey: &snapshot, StartedAt: started, answers: map[int64]string{}}
}

func (f *ResponseForm) question(id int64) (*models.Question, bool) {
	for i := range f.Survey.Questions {
		if f.Survey.Questions[i].ID == id {
			return &f.Survey.Questions[i], true
		}
	}
	return nil, false
}

// SetAnswer records the raw answer. An empty value clears it.
func (f *ResponseForm) SetAnswer(questionID int64, value string) error {
	if _, ok := f.question(questionID); !ok {
		return NewInvalidError(fmt.Sprintf("question %d is not part of this survey", questionID))
	}
	if strings.TrimSpace(value) == "" {
		delete(f.answers, questionID)
		return nil
	}
	f.answers[questionID] = value
	return nil
}

func (f *ResponseForm) Answer(questionID int64) string { return f.answers[questionID] }

// Progress is the rounded percentage of questions with a non-blank answer.
func (f *ResponseForm) Progress() int {
	total := len(f.Survey.Questions)
	if total == 0 {
		return 0
	}
	answered := 0
	for _, q := range f.Survey.Questions {
		if strings.TrimSpace(f.answers[q.ID]) != "" {
			answered++
		}
	}
	return int(math.Round(float64(answered) * 100 / float64(total)))
}

// MissingRequired lists the text of required questions without an answer, in order.
func (f *ResponseForm) MissingRequired() []string {
	var missing []string
	for _, q := range f.Survey.Questions {
		if q.Required && strings.TrimSpace(f.answers[q.ID]) == "" {
			missing = append(missing, q.QuestionText)
		}
	}
	return missing
}

func (f *ResponseForm) CheckRequired() error {
	missing := f.MissingRequired()
	if len(missing) == 0 {
		return nil
	}
	return NewInvalidError("Please answer all required questions: " + strings.Join(missing, ", "))
}

// Closed reports whether the survey no longer accepts responses at now.
func (f *ResponseForm) Closed(now time.Time) bool {
	return SurveyClosed(f.Survey, now)
}

func SurveyClosed(sv *models.Survey, now time.Time) bool {
	if sv.Status == models.StatusInactive {
		return true
	}
	return sv.EndDate != nil && sv.EndDate.Before(now)
}

// BuildSubmission converts answers into the wire shape. Blank answers are omitted and
// rating answers must be whole numbers within 0-5. "4.0" counts as 4, "4.5" is rejected.
func (f *ResponseForm) BuildSubmission() (*models.SubmitResponseRequest, error) {
	req := &models.SubmitResponseRequest{Answers: []models.AnswerDTO{}}
	for _, q := range f.Survey.Questions {
		raw := strings.TrimSpace(f.answers[q.ID])
		if raw == "" {
			continue
		}
		dto := models.AnswerDTO{QuestionID: q.ID}
		if q.Type == models.QuestionRating {
			n, ok := parseRating(raw)
			if !ok {
				return nil, NewFieldError("Invalid rating", map[string]string{
					strconv.FormatInt(q.ID, 10): fmt.Sprintf("Rating must be a whole number between %d and %d", MinRatingAnswer, MaxRatingAnswer),
				})
			}
			dto.RatingValue = &n
		} else {
			v := f.answers[q.ID]
			dto.AnswerValue = &v
		}
		req.Answers = append(req.Answers, dto)
	}
	return req, nil
}

func parseRating(raw string) (int, bool) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v != math.Trunc(v) || v < MinRatingAnswer || v > MaxRatingAnswer {
		return 0, false
	}
	return int(v), true
}

type RespondentService struct {
	api     PublicSurveyAPI
	session SessionView
	log     *slog.Logger
	now     func() time.Time
}

func NewRespondentService(api PublicSurveyAPI, session SessionView, log *slog.Logger) *RespondentService {
	return &RespondentService{api: api, session: session, log: orDiscard(log), now: time.Now}
}

// Open loads the public survey and starts a form for it.
func (s *RespondentService) Open(ctx context.Context, surveyID int64) (*ResponseForm, error) {
	if surveyID <= 0 {
		return nil, NewInvalidError("survey id required")
	}
	sv, err := s.api.GetPublicSurvey(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	if sv == nil {
		return nil, NewNotFoundError("survey not found")
	}
	return NewResponseForm(sv, s.now()), nil
}

// Submit sends the form. Private surveys answered without a session need an explicit
// continue_anonymously choice; any other choice returns an AuthChoiceError.
func (s *RespondentService) Submit(ctx context.Context, f *ResponseForm, choice AuthChoice) error {
	if f == nil || f.Survey == nil {
		return NewInvalidError("form required")
	}
	if f.Closed(s.now()) {
		return ErrSurveyClosed
	}
	if err := f.CheckRequired(); err != nil {
		return err
	}
	anonymous := s.session == nil || !s.session.IsAuthenticated()
	if f.Survey.IsPrivate && anonymous && choice != ChoiceContinueAnonymously {
		return &AuthChoiceError{
			SurveyID: f.Survey.ID,
			Offers:   []AuthChoice{ChoiceSignIn, ChoiceCreateAccount, ChoiceContinueAnonymously},
		}
	}
	req, err := f.BuildSubmission()
	if err != nil {
		return err
	}
	if err := s.api.SubmitResponse(ctx, f.Survey.ID, req); err != nil {
		return err
	}
	s.log.Info("response submitted",
		"survey_id", f.Survey.ID,
		"answers", len(req.Answers),
		"anonymous", anonymous,
		"completion_time", s.now().Sub(f.StartedAt).Round(time.Second).String(),
	)
	return nil
}
