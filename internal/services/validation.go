package services

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/soaringjerry/feedbacktool/internal/models"
)

// ValidationResult maps a field key to its error. An empty result means submittable.
type ValidationResult map[string]string

func (v ValidationResult) Valid() bool { return len(v) == 0 }

func QuestionTextKey(i int) string    { return fmt.Sprintf("question_%d_text", i) }
func QuestionOptionsKey(i int) string { return fmt.Sprintf("question_%d_options", i) }
func QuestionRatingKey(i int) string  { return fmt.Sprintf("question_%d_rating", i) }

// Validate checks the draft for submission. Locked edit drafts keep their questions as they
// are on the server, so the question count requirement does not apply to them.
func (d *SurveyDraft) Validate() ValidationResult {
	errs := ValidationResult{}
	if strings.TrimSpace(d.Title) == "" {
		errs["title"] = "Survey title is required"
	}
	if len(d.Questions) == 0 && !d.Locked {
		errs["questions"] = "At least one question is required"
	}
	for i := range d.Questions {
		q := &d.Questions[i]
		if strings.TrimSpace(q.Text) == "" {
			errs[QuestionTextKey(i)] = "Question text is required"
		}
		switch q.Type {
		case models.QuestionMultipleChoice:
			if msg := validateChoices(q); msg != "" {
				errs[QuestionOptionsKey(i)] = msg
			}
		case models.QuestionRating:
			if msg := validateRating(q, d.Policy); msg != "" {
				errs[QuestionRatingKey(i)] = msg
			}
		}
	}
	return errs
}

func validateChoices(q *DraftQuestion) string {
	opts := q.Choices
	if opts == nil {
		raw := q.OptionsJSON()
		if raw == nil {
			return "At least 2 options are required"
		}
		if err := json.Unmarshal([]byte(*raw), &opts); err != nil {
			return "Invalid options format"
		}
	}
	for _, o := range opts {
		if strings.TrimSpace(o) == "" {
			return "All options must have text"
		}
	}
	if len(opts) < MinChoiceOptions {
		return "At least 2 options are required"
	}
	return ""
}

func validateRating(q *DraftQuestion, policy RatingPolicy) string {
	rc := q.Rating
	if rc == nil {
		raw := q.OptionsJSON()
		if raw == nil {
			return "Invalid rating configuration"
		}
		var parsed RatingConfig
		if err := json.Unmarshal([]byte(*raw), &parsed); err != nil {
			return "Invalid rating configuration"
		}
		rc = &parsed
	}
	if rc.Scale < policy.MinScale || rc.Scale > policy.MaxScale {
		return fmt.Sprintf("Rating scale must be between %d-%d", policy.MinScale, policy.MaxScale)
	}
	return ""
}
