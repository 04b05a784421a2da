package services

import (
	"fmt"

	"github.com/soaringjerry/feedbacktool/internal/models"
)

// QuestionMutation is one explicit edit applied through SurveyDraft.UpdateQuestion.
type QuestionMutation interface {
	apply(q *DraftQuestion, policy RatingPolicy) error
}

type SetQuestionText struct{ Text string }

func (m SetQuestionText) apply(q *DraftQuestion, _ RatingPolicy) error {
	q.Text = m.Text
	return nil
}

type SetRequired struct{ Required bool }

func (m SetRequired) apply(q *DraftQuestion, _ RatingPolicy) error {
	q.Required = m.Required
	return nil
}

// SetQuestionType switches the kind and reconciles the payload: text kinds drop it,
// rating and multiple choice get a fresh default.
type SetQuestionType struct{ Type models.QuestionType }

func (m SetQuestionType) apply(q *DraftQuestion, policy RatingPolicy) error {
	if !m.Type.Valid() {
		return NewInvalidError(fmt.Sprintf("unsupported question type %q", m.Type))
	}
	if q.Type == m.Type {
		return nil
	}
	q.Type = m.Type
	q.resetPayload(policy)
	return nil
}

type SetRatingScale struct{ Scale int }

func (m SetRatingScale) apply(q *DraftQuestion, policy RatingPolicy) error {
	if q.Type != models.QuestionRating {
		return NewInvalidError("scale applies to rating questions only")
	}
	if policy.FixedScale {
		return NewInvalidError("rating scale is fixed for this survey")
	}
	if q.Rating == nil {
		q.resetPayload(policy)
	}
	q.Rating.Scale = m.Scale
	return nil
}

type SetRatingLabels struct{ Min, Max string }

func (m SetRatingLabels) apply(q *DraftQuestion, policy RatingPolicy) error {
	if q.Type != models.QuestionRating {
		return NewInvalidError("labels apply to rating questions only")
	}
	if q.Rating == nil {
		q.resetPayload(policy)
	}
	q.Rating.Labels = RatingLabels{Min: m.Min, Max: m.Max}
	return nil
}

type SetOption struct {
	Index int
	Text  string
}

func (m SetOption) apply(q *DraftQuestion, _ RatingPolicy) error {
	if err := requireChoices(q); err != nil {
		return err
	}
	if m.Index < 0 || m.Index >= len(q.Choices) {
		return NewInvalidError(fmt.Sprintf("option index %d out of range", m.Index))
	}
	q.Choices[m.Index] = m.Text
	return nil
}

// AddOption appends "Option N" while fewer than MaxChoiceOptions exist.
type AddOption struct{}

func (AddOption) apply(q *DraftQuestion, _ RatingPolicy) error {
	if err := requireChoices(q); err != nil {
		return err
	}
	if len(q.Choices) >= MaxChoiceOptions {
		return NewInvalidError(fmt.Sprintf("at most %d options are allowed", MaxChoiceOptions))
	}
	q.Choices = append(q.Choices, fmt.Sprintf("Option %d", len(q.Choices)+1))
	return nil
}

// RemoveOption refuses to go below MinChoiceOptions.
type RemoveOption struct{ Index int }

func (m RemoveOption) apply(q *DraftQuestion, _ RatingPolicy) error {
	if err := requireChoices(q); err != nil {
		return err
	}
	if m.Index < 0 || m.Index >= len(q.Choices) {
		return NewInvalidError(fmt.Sprintf("option index %d out of range", m.Index))
	}
	if len(q.Choices) <= MinChoiceOptions {
		return NewInvalidError(fmt.Sprintf("at least %d options are required", MinChoiceOptions))
	}
	q.Choices = append(q.Choices[:m.Index], q.Choices[m.Index+1:]...)
	return nil
}

func requireChoices(q *DraftQuestion) error {
	if q.Type != models.QuestionMultipleChoice {
		return NewInvalidError("options apply to multiple choice questions only")
	}
	if q.Choices == nil {
		q.Choices = []string{}
		q.malformed = nil
	}
	return nil
}
